package strategist

import (
	"fmt"
	"strings"

	"biomonitor/internal/config"
	"biomonitor/internal/evaluator"
	"biomonitor/internal/models"
)

// AnalysisContext 报告生成上下文
// 规则、形态、趋势的输出在进入语言模型之前就已确定，
// 本地回退报告使用完全相同的上下文。
type AnalysisContext struct {
	Record   *models.BiometricRecord
	History  []*models.BiometricRecord // 按日期倒序，含当日
	Triggers []models.RuleTrigger
	Pattern  string
	Trend    models.TrendResult
}

// systemPrompt 固定系统提示词
const systemPrompt = `你是首席健康军医，负责用户的个人健康管理。请基于提供的生物特征数据，生成专业、严谨的健康战备报告，使用军事化术语。

报告格式要求：
1. 报告标题格式必须为'YYYY-MM-DD_一句话总结核心战备状态'（注意：不要使用《》书名号，YYYY-MM-DD必须使用数据中提供的日期，不要使用当前日期）
2. 报告内容必须精简，直接进入主题，不要包含信函格式和签署表述
3. 报告结构：
   - 核心战备状态（红/黄/绿三级警报）
   - 各系统诊断（睡眠系统、神经系统、代谢系统）
   - 战术建议（具体、可执行的改善措施）
   - 量化任务对冲（根据生理状态调整今日工作强度）
4. 保持报告专业、简洁，所有结论必须基于数据。
5. 重要：报告标题中的日期必须与数据中的日期完全一致。`

// SystemPrompt 获取系统提示词
func SystemPrompt() string {
	return systemPrompt
}

// BuildUserPrompt 组装发给语言模型的完整上下文
func BuildUserPrompt(cfg *config.Config, c *AnalysisContext) string {
	var b strings.Builder
	rec := c.Record

	b.WriteString("# 健康战备报告数据\n\n")

	b.WriteString("## KPI 阈值上下文\n")
	fmt.Fprintf(&b, "1. 深度睡眠时长及格线：%d 分钟\n", cfg.Thresholds.DeepSleepMinLow)
	fmt.Fprintf(&b, "2. 体重警戒线：%.1f kg\n", cfg.Thresholds.WeightMax)
	fmt.Fprintf(&b, "3. HRV (8点) 警告线：%d ms\n\n", cfg.Thresholds.HRVWarning)

	b.WriteString("## 自动对冲规则触发状态\n")
	b.WriteString(evaluator.FormatTriggers(c.Triggers))

	fmt.Fprintf(&b, "\n## 今日核心数据（%s）\n\n", rec.Date)

	b.WriteString("### 睡眠指标\n")
	fmt.Fprintf(&b, "- 总睡眠时长：%d 分钟（%.1f小时）\n", rec.TotalSleepMin, float64(rec.TotalSleepMin)/60)
	fmt.Fprintf(&b, "- 深度睡眠时长：%d 分钟\n", rec.DeepSleepMin)
	fmt.Fprintf(&b, "- 深度睡眠占比：%.1f%%\n\n", rec.DeepSleepRatio()*100)

	b.WriteString("### 神经指标（HRV）\n")
	fmt.Fprintf(&b, "- 0点 HRV（基准负载）：%d ms\n", rec.HRV0000)
	fmt.Fprintf(&b, "- 4点 HRV（巅峰修复）：%d ms\n", rec.HRV0400)
	fmt.Fprintf(&b, "- 8点 HRV（苏醒状态）：%d ms\n", rec.HRV0800)
	fmt.Fprintf(&b, "- 12点 HRV（日间恢复）：%d ms\n\n", rec.HRV1200)

	b.WriteString("### 代谢指标\n")
	fmt.Fprintf(&b, "- 体重：%.1f kg（警戒线：%.1fkg）\n", rec.Weight, cfg.Thresholds.WeightMax)
	fmt.Fprintf(&b, "- 主观疲劳度：%d/10\n", rec.FatigueScore)
	if rec.CarbLimitObserved {
		b.WriteString("- 睡前4小时禁碳水执行：是\n")
	} else {
		b.WriteString("- 睡前4小时禁碳水执行：否\n")
	}

	b.WriteString("\n## 分析维度要求\n\n")
	b.WriteString("### 1. 日内复盘\n")
	fmt.Fprintf(&b, "- 当前曲线形态：%s\n", c.Pattern)
	b.WriteString("- 请详细解释此形态的生理意义\n\n")
	b.WriteString("### 2. 隔日趋势\n")
	fmt.Fprintf(&b, "- 趋势判断：%s\n", c.Trend.Display)
	b.WriteString("- 请提供具体的数据对比分析\n")

	// 历史数据摘要（最多 N 天）
	if len(c.History) > 1 {
		days := cfg.Analysis.HistoryDays
		fmt.Fprintf(&b, "\n## 历史数据摘要（最近%d天）\n", days)
		b.WriteString("| 日期 | 体重(kg) | HRV_0800(ms) | 深睡占比 |\n")
		b.WriteString("|------|----------|--------------|----------|\n")
		for i, h := range c.History {
			if i >= days {
				break
			}
			fmt.Fprintf(&b, "| %s | %.1f | %d | %.1f%% |\n",
				h.Date, h.Weight, h.HRV0800, h.DeepSleepRatio()*100)
		}
	}

	return b.String()
}
