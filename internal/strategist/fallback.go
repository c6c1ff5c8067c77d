package strategist

import (
	"fmt"
	"strings"

	"biomonitor/internal/config"
	"biomonitor/internal/evaluator"
)

// RenderLocalReport 本地规则引擎报告（语言模型不可用时的确定性回退）
// 与语言模型使用同一份分析上下文，保证零外部依赖时也必有报告产出。
func RenderLocalReport(cfg *config.Config, c *AnalysisContext) string {
	rec := c.Record
	deepRatio := rec.DeepSleepRatio()
	var b strings.Builder

	fmt.Fprintf(&b, "# %s_健康战备报告（本地生成）\n", rec.Date)
	fmt.Fprintf(&b, "**报告日期**: %s\n", rec.Date)
	b.WriteString("**报告类型**: 本地规则分析\n\n")

	// 核心战备状态（红/黄/绿三级）
	b.WriteString("## 核心战备状态\n\n")
	switch {
	case rec.Weight <= cfg.Thresholds.WeightMax && deepRatio >= 0.15 && rec.HRV0800 >= 60:
		b.WriteString("- 战备状态: 🟢 绿色（所有指标达标）\n")
	case rec.Weight > cfg.Thresholds.WeightMax || deepRatio < 0.15 || rec.HRV0800 < cfg.Thresholds.HRVWarning:
		b.WriteString("- 战备状态: 🔴 红色（关键指标超标）\n")
	default:
		b.WriteString("- 战备状态: 🟡 黄色（部分指标需关注）\n")
	}

	// 各系统诊断
	b.WriteString("\n## 各系统诊断\n\n")

	b.WriteString("### 睡眠系统\n")
	fmt.Fprintf(&b, "- 深度睡眠占比: %.1f%% %s\n", deepRatio*100, passMark(deepRatio >= 0.15, "达标", "不足"))
	fmt.Fprintf(&b, "- 总睡眠时长: %d分钟\n", rec.TotalSleepMin)

	b.WriteString("\n### 神经系统\n")
	fmt.Fprintf(&b, "- HRV基准线（8点）: %dms %s\n", rec.HRV0800, passMark(rec.HRV0800 >= 60, "正常", "偏低"))
	fmt.Fprintf(&b, "- HRV曲线形态: %s\n", c.Pattern)

	b.WriteString("\n### 代谢系统\n")
	fmt.Fprintf(&b, "- 体重: %.1fkg %s\n", rec.Weight, passMark(rec.Weight <= cfg.Thresholds.WeightMax, "达标", "超标"))
	fmt.Fprintf(&b, "- 疲劳度: %d/10\n", rec.FatigueScore)
	fmt.Fprintf(&b, "- 碳水管理: %s\n", passMark(rec.CarbLimitObserved, "执行良好", "需加强"))

	// 自动对冲规则
	if len(c.Triggers) > 0 {
		b.WriteString("\n## 自动对冲规则触发\n")
		b.WriteString(evaluator.FormatTriggers(c.Triggers))
	}

	// 趋势分析
	b.WriteString("\n## 隔日趋势分析\n")
	fmt.Fprintf(&b, "- 身体状态: %s\n", c.Trend.Display)

	// 量化任务对冲
	b.WriteString("\n## 量化任务对冲\n")
	switch {
	case rec.HRV0800 < cfg.Thresholds.HRVWarning:
		b.WriteString("- 今日脑力任务强度: 下调30-50%\n")
		b.WriteString("- 避免复杂决策任务\n")
		b.WriteString("- 增加休息间隔（每45分钟休息5分钟）\n")
	case rec.HRV0800 < 60:
		b.WriteString("- 今日脑力任务强度: 维持正常，但增加监控\n")
		b.WriteString("- 避免长时间连续工作\n")
		b.WriteString("- 安排轻度有氧活动（如散步）\n")
	default:
		b.WriteString("- 今日脑力任务强度: 可正常执行\n")
		b.WriteString("- 保持当前节奏，注意劳逸结合\n")
	}

	b.WriteString("\n---\n*报告生成方式: 本地规则引擎 | AI分析需配置API密钥*")

	return b.String()
}

func passMark(ok bool, yes, no string) string {
	if ok {
		return "✅ " + yes
	}
	return "❌ " + no
}
