package models

// InterventionImpact 单项干预措施在历史窗口内的效应估计
// CompositeScore 仅用于排序选取Top-N，不直接展示
type InterventionImpact struct {
	Label              string  `json:"label"`
	SampleCount        int     `json:"sample_count"`
	HRVMean            float64 `json:"hrv_mean"`
	HRVDelta           float64 `json:"hrv_delta"`
	HRVDeltaPct        float64 `json:"hrv_delta_pct"`
	SleepRatioMean     float64 `json:"sleep_ratio_mean"`
	SleepRatioDelta    float64 `json:"sleep_ratio_delta"`
	SleepRatioDeltaPct float64 `json:"sleep_ratio_delta_pct"`
	CompositeScore     float64 `json:"composite_score"`
}

// AnalysisBaseline 基线组（无干预记录）的均值
// Degraded 表示基线组为空，退化为全量均值
type AnalysisBaseline struct {
	HRVMean        float64 `json:"hrv_mean"`
	SleepRatioMean float64 `json:"sleep_ratio_mean"`
	SampleCount    int     `json:"sample_count"`
	Degraded       bool    `json:"degraded"`
}

// AnalysisResult 干预相关性分析结果
type AnalysisResult struct {
	Baseline     AnalysisBaseline     `json:"baseline"`
	Impacts      []InterventionImpact `json:"impacts"` // 按综合影响降序
	Summary      string               `json:"summary"`
	TotalSamples int                  `json:"total_samples"`
}
