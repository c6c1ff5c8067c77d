package evaluator

import (
	"fmt"

	"biomonitor/internal/config"
	"biomonitor/internal/models"
)

// 趋势标签
const (
	TrendRecovering   = "recovering"
	TrendDepleting    = "depleting"
	TrendHolding      = "holding_steady"
	TrendInsufficient = "insufficient_data"
)

// TrendClassifier 隔日趋势分析器
// 三个独立信号各记一票（正或负，同一信号不会两票都投）：
// 体重、8点HRV、深睡占比。多数决给出结论，票数随结果一并返回。
type TrendClassifier struct {
	config *config.Config
}

// NewTrendClassifier 创建趋势分析器
func NewTrendClassifier(cfg *config.Config) *TrendClassifier {
	return &TrendClassifier{config: cfg}
}

// Classify 对比今日与昨日记录
// 无昨日记录时返回数据不足结果，而非错误。
func (t *TrendClassifier) Classify(today, yesterday *models.BiometricRecord) models.TrendResult {
	if yesterday == nil {
		return models.TrendResult{
			Label:        TrendInsufficient,
			Display:      "数据不足，无法进行隔日对比",
			Insufficient: true,
		}
	}

	positive := 0
	negative := 0

	// 信号1：体重（下降为正，显著上升为负）
	weightChange := today.Weight - yesterday.Weight
	if weightChange < 0 {
		positive++
	} else if weightChange > t.config.Thresholds.WeightDeltaHigh {
		negative++
	}

	// 信号2：8点HRV
	hrvChange := today.HRV0800 - yesterday.HRV0800
	if hrvChange > t.config.Thresholds.HRVDeltaSignal {
		positive++
	} else if hrvChange < -t.config.Thresholds.HRVDeltaSignal {
		negative++
	}

	// 信号3：深睡占比
	ratioChange := today.DeepSleepRatio() - yesterday.DeepSleepRatio()
	if ratioChange > t.config.Thresholds.RatioDeltaSignal {
		positive++
	} else if ratioChange < -t.config.Thresholds.RatioDeltaSignal {
		negative++
	}

	result := models.TrendResult{
		Positive: positive,
		Negative: negative,
	}

	switch {
	case positive > negative:
		result.Label = TrendRecovering
		result.Display = fmt.Sprintf("充电状态：身体正在恢复（正面信号:%d/负面信号:%d）", positive, negative)
	case negative > positive:
		result.Label = TrendDepleting
		result.Display = fmt.Sprintf("漏电状态：身体持续消耗（负面信号:%d/正面信号:%d）", negative, positive)
	default:
		result.Label = TrendHolding
		result.Display = fmt.Sprintf("平衡状态：身体维持现状（正面/负面信号各%d）", positive)
	}

	return result
}
