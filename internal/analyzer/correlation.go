package analyzer

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"biomonitor/internal/config"
	"biomonitor/internal/models"

	"go.uber.org/zap"
)

// 综合影响分数权重：深睡是更稀缺的杠杆指标，权重更高
const (
	compositeSleepWeight = 0.7
	compositeHRVWeight   = 0.3
)

// CorrelationAnalyzer 干预措施相关性分析器
// 将历史窗口划分为基线组（无干预）和各干预组（可重叠：一条记录
// 含两项干预则同时计入两组），计算各组相对基线的均值偏移。
// 结果为关联性估计，不构成因果结论。
type CorrelationAnalyzer struct {
	config *config.Config
	logger *zap.Logger
}

// NewCorrelationAnalyzer 创建相关性分析器
func NewCorrelationAnalyzer(cfg *config.Config, logger *zap.Logger) *CorrelationAnalyzer {
	return &CorrelationAnalyzer{
		config: cfg,
		logger: logger,
	}
}

// analyzable 判断记录是否可参与分析
// 两个必需数值字段缺失（置零）的行直接剔除，不做零值填补。
func analyzable(rec *models.BiometricRecord) bool {
	return rec.HRV0800 > 0 && rec.TotalSleepMin > 0
}

// Analyze 分析历史窗口内各干预措施的效应
// 对同一历史数据重复调用结果完全一致。分析失败不是错误：
// 数据不足时返回退化结果。
func (a *CorrelationAnalyzer) Analyze(history []*models.BiometricRecord) models.AnalysisResult {
	// 1. 清洗：剔除缺数值字段的行
	rows := make([]*models.BiometricRecord, 0, len(history))
	for _, rec := range history {
		if analyzable(rec) {
			rows = append(rows, rec)
		}
	}

	if len(rows) == 0 {
		a.logger.Warn("No analyzable history rows")
		return models.AnalysisResult{
			Summary: "无数据可用",
		}
	}

	// 2. 收集全部干预标签（排序保证输出确定性）
	labelSet := map[string]bool{}
	for _, rec := range rows {
		for _, label := range rec.Interventions {
			labelSet[label] = true
		}
	}
	labels := make([]string, 0, len(labelSet))
	for label := range labelSet {
		labels = append(labels, label)
	}
	sort.Strings(labels)

	// 3. 基线组：无任何干预的记录；为空时退化为全量均值
	var baselineRows []*models.BiometricRecord
	for _, rec := range rows {
		if len(rec.Interventions) == 0 {
			baselineRows = append(baselineRows, rec)
		}
	}

	baseline := models.AnalysisBaseline{}
	if len(baselineRows) > 0 {
		baseline.HRVMean, baseline.SleepRatioMean = cohortMeans(baselineRows)
		baseline.SampleCount = len(baselineRows)
	} else {
		baseline.HRVMean, baseline.SleepRatioMean = cohortMeans(rows)
		baseline.SampleCount = len(rows)
		baseline.Degraded = true
		a.logger.Warn("No baseline rows (every record has interventions), using whole-window means",
			zap.Int("total_samples", len(rows)),
		)
	}

	// 4. 各干预组效应（样本不足的标签剔除）
	minSamples := a.config.Analysis.MinCohortSamples
	var impacts []models.InterventionImpact

	for _, label := range labels {
		var cohort []*models.BiometricRecord
		for _, rec := range rows {
			if rec.HasIntervention(label) {
				cohort = append(cohort, rec)
			}
		}

		if len(cohort) < minSamples {
			a.logger.Debug("Intervention cohort too small, skipped",
				zap.String("label", label),
				zap.Int("samples", len(cohort)),
				zap.Int("min_samples", minSamples),
			)
			continue
		}

		hrvMean, sleepMean := cohortMeans(cohort)
		hrvDelta := hrvMean - baseline.HRVMean
		sleepDelta := sleepMean - baseline.SleepRatioMean

		impact := models.InterventionImpact{
			Label:              label,
			SampleCount:        len(cohort),
			HRVMean:            hrvMean,
			HRVDelta:           hrvDelta,
			HRVDeltaPct:        pctOf(hrvDelta, baseline.HRVMean),
			SleepRatioMean:     sleepMean,
			SleepRatioDelta:    sleepDelta,
			SleepRatioDeltaPct: pctOf(sleepDelta, baseline.SleepRatioMean),
		}
		impact.CompositeScore = compositeSleepWeight*math.Abs(impact.SleepRatioDeltaPct) +
			compositeHRVWeight*math.Abs(impact.HRVDeltaPct)

		impacts = append(impacts, impact)
	}

	// 按综合影响降序排列（同分按标签序，保证幂等）
	sort.Slice(impacts, func(i, j int) bool {
		if impacts[i].CompositeScore != impacts[j].CompositeScore {
			return impacts[i].CompositeScore > impacts[j].CompositeScore
		}
		return impacts[i].Label < impacts[j].Label
	})

	result := models.AnalysisResult{
		Baseline:     baseline,
		Impacts:      impacts,
		Summary:      buildSummary(impacts),
		TotalSamples: len(rows),
	}

	a.logger.Info("Correlation analysis completed",
		zap.Int("total_samples", len(rows)),
		zap.Int("effective_interventions", len(impacts)),
		zap.Bool("baseline_degraded", baseline.Degraded),
	)

	return result
}

// TopImpacts 选取综合影响最大的前N项干预（用于对比展示）
func TopImpacts(result models.AnalysisResult, n int) []models.InterventionImpact {
	if n <= 0 || n >= len(result.Impacts) {
		return result.Impacts
	}
	return result.Impacts[:n]
}

// cohortMeans 计算组内 hrv_0800 与深睡占比均值
func cohortMeans(cohort []*models.BiometricRecord) (hrvMean, sleepMean float64) {
	if len(cohort) == 0 {
		return 0, 0
	}
	var hrvSum, sleepSum float64
	for _, rec := range cohort {
		hrvSum += float64(rec.HRV0800)
		sleepSum += rec.DeepSleepRatio()
	}
	n := float64(len(cohort))
	return hrvSum / n, sleepSum / n
}

// pctOf 百分比变化（基线为0时记为0，避免除零）
func pctOf(delta, base float64) float64 {
	if base == 0 {
		return 0
	}
	return delta / base * 100
}

// buildSummary 生成总结文本
// 只报告正向影响：深睡提升最大者与HRV提升最大者各一句（两者可以是
// 不同的干预）。没有任何正向影响时输出固定句子，绝不点名负向措施。
func buildSummary(impacts []models.InterventionImpact) string {
	var topSleep, topHRV *models.InterventionImpact

	for i := range impacts {
		imp := &impacts[i]
		if imp.SleepRatioDeltaPct > 0 && (topSleep == nil || imp.SleepRatioDeltaPct > topSleep.SleepRatioDeltaPct) {
			topSleep = imp
		}
		if imp.HRVDeltaPct > 0 && (topHRV == nil || imp.HRVDeltaPct > topHRV.HRVDeltaPct) {
			topHRV = imp
		}
	}

	var parts []string
	if topSleep != nil {
		parts = append(parts, fmt.Sprintf("%s增加深睡占比+%.1f%%", topSleep.Label, topSleep.SleepRatioDeltaPct))
	}
	if topHRV != nil {
		parts = append(parts, fmt.Sprintf("%s提升HRV+%.1f%%", topHRV.Label, topHRV.HRVDeltaPct))
	}

	if len(parts) == 0 {
		return "未发现显著正向影响"
	}
	return strings.Join(parts, "，")
}

// FormatReport 生成干预措施效能分析报告（文本格式，供CLI与报告附录）
func FormatReport(result models.AnalysisResult) string {
	if len(result.Impacts) == 0 {
		return "📊 干预措施效能分析报告\n\n暂无足够数据进行分析。请记录更多包含干预措施的数据。"
	}

	lines := []string{
		"📊 干预措施效能分析报告",
		strings.Repeat("=", 40),
		fmt.Sprintf("分析样本：%d 天数据", result.TotalSamples),
		fmt.Sprintf("基线（无干预）：HRV=%.1fms, 深睡占比=%.1f%%",
			result.Baseline.HRVMean, result.Baseline.SleepRatioMean*100),
	}
	if result.Baseline.Degraded {
		lines = append(lines, "（注意：无纯基线记录，已退化为全量均值）")
	}
	lines = append(lines, "", "📈 各干预措施影响：")

	for _, imp := range result.Impacts {
		hrvSign := ""
		if imp.HRVDeltaPct > 0 {
			hrvSign = "+"
		}
		sleepSign := ""
		if imp.SleepRatioDeltaPct > 0 {
			sleepSign = "+"
		}
		lines = append(lines, fmt.Sprintf(
			"• %s (n=%d): HRV %s%.1f%% (%.1fms), 深睡 %s%.1f%% (%.1f%%)",
			imp.Label, imp.SampleCount,
			hrvSign, imp.HRVDeltaPct, imp.HRVMean,
			sleepSign, imp.SleepRatioDeltaPct, imp.SleepRatioMean*100,
		))
	}

	lines = append(lines,
		"",
		"💡 总结：",
		result.Summary,
		"",
		"📋 建议：",
		"1. 持续追踪有效干预措施",
		"2. 建议每次只改变一个变量以准确归因",
		"3. 结合主观感受评估干预效果",
	)

	return strings.Join(lines, "\n")
}
