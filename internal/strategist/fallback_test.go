package strategist

import (
	"strings"
	"testing"

	"biomonitor/internal/evaluator"
	"biomonitor/internal/models"

	"github.com/stretchr/testify/assert"
)

func testContext(rec *models.BiometricRecord) *AnalysisContext {
	return &AnalysisContext{
		Record:  rec,
		History: []*models.BiometricRecord{rec},
		Pattern: evaluator.ClassifyPattern(rec),
		Trend: models.TrendResult{
			Label:        evaluator.TrendInsufficient,
			Display:      "数据不足，无法进行隔日对比",
			Insufficient: true,
		},
	}
}

func TestRenderLocalReportGreenStatus(t *testing.T) {
	rec := testRecord() // 体重达标、深睡占比19%、HRV 65
	out := RenderLocalReport(testConfig(), testContext(rec))

	assert.Contains(t, out, "🟢 绿色")
	assert.Contains(t, out, "2026-08-01_健康战备报告")
	assert.Contains(t, out, "本地规则引擎")
	assert.Contains(t, out, "可正常执行")
}

func TestRenderLocalReportRedStatus(t *testing.T) {
	rec := testRecord()
	rec.Weight = 94.0 // 超警戒线
	rec.HRV0800 = 45  // 低于警告线

	out := RenderLocalReport(testConfig(), testContext(rec))

	assert.Contains(t, out, "🔴 红色")
	assert.Contains(t, out, "❌ 超标")
	assert.Contains(t, out, "下调30-50%")
}

func TestRenderLocalReportIncludesTriggers(t *testing.T) {
	rec := testRecord()
	ctx := testContext(rec)
	ctx.Triggers = []models.RuleTrigger{
		{RuleID: "metabolic_countermeasure", Message: "⚡ 体重对冲：启动紧急预案"},
	}

	out := RenderLocalReport(testConfig(), ctx)
	assert.Contains(t, out, "自动对冲规则触发")
	assert.Contains(t, out, "体重对冲")
}

func TestRenderLocalReportExtractableTitle(t *testing.T) {
	// 本地报告正文必须能走完标题提取与日期修正，且日期与记录一致
	rec := testRecord()
	out := RenderLocalReport(testConfig(), testContext(rec))

	title := FixTitleDate(ExtractTitle(out), rec.Date)
	assert.NotEmpty(t, title)
	assert.Contains(t, title, "2026-08-01")
	assert.False(t, strings.Contains(title, "**"))
}

func TestBuildUserPrompt(t *testing.T) {
	rec := testRecord()
	rec.CarbLimitObserved = true

	yesterday := testRecord()
	yesterday.Date = "2026-07-31"

	ctx := testContext(rec)
	ctx.History = []*models.BiometricRecord{rec, yesterday}
	ctx.Triggers = []models.RuleTrigger{{RuleID: "system_reset", Message: "🔄 系统重置日"}}

	out := BuildUserPrompt(testConfig(), ctx)

	// KPI阈值上下文
	assert.Contains(t, out, "93.0 kg")
	// 今日数据
	assert.Contains(t, out, "今日核心数据（2026-08-01）")
	assert.Contains(t, out, "睡前4小时禁碳水执行：是")
	// 规则与分析维度
	assert.Contains(t, out, "系统重置日")
	assert.Contains(t, out, rec.Date)
	// 历史表
	assert.Contains(t, out, "| 日期 | 体重(kg) | HRV_0800(ms) | 深睡占比 |")
	assert.Contains(t, out, "| 2026-07-31 |")
}

func TestBuildUserPromptHistoryCap(t *testing.T) {
	rec := testRecord()
	ctx := testContext(rec)

	// 10天历史，配置只允许7天进入提示词
	history := []*models.BiometricRecord{}
	dates := []string{
		"2026-08-10", "2026-08-09", "2026-08-08", "2026-08-07", "2026-08-06",
		"2026-08-05", "2026-08-04", "2026-08-03", "2026-08-02", "2026-08-01",
	}
	for _, d := range dates {
		h := testRecord()
		h.Date = d
		history = append(history, h)
	}
	ctx.History = history

	out := BuildUserPrompt(testConfig(), ctx)
	assert.Contains(t, out, "| 2026-08-04 |")
	assert.NotContains(t, out, "| 2026-08-03 |")
}

func TestSystemPromptTitleContract(t *testing.T) {
	// 标题格式约束必须出现在系统提示词中（下游标题修正依赖这一约定）
	assert.Contains(t, SystemPrompt(), "YYYY-MM-DD_一句话总结")
}
