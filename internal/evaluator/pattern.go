package evaluator

import (
	"biomonitor/internal/models"
)

// 日内HRV曲线形态标签
const (
	PatternVReversal  = "V型反转：夜间修复良好，但早晨压力反弹"
	PatternSustainUp  = "持续上升：全天恢复态势良好"
	PatternSustainLow = "持续低迷：全天压力积累"
	PatternNightSpike = "夜间修复尖峰：系统在凌晨4点进行深度修复"
	PatternFlat       = "平稳波动：无明显修复或压力信号"
)

// patternRule 形态判定规则（有序决策表，首个命中生效）
type patternRule struct {
	match func(d1, d2 int) bool
	label string
}

// 规则顺序承载语义：d1=35, d2=-15 必须判定为V型反转而非夜间尖峰，
// 因为V型反转规则在前。调整顺序等于改变分类结果。
var patternRules = []patternRule{
	{func(d1, d2 int) bool { return d1 > 20 && d2 < -10 }, PatternVReversal},
	{func(d1, d2 int) bool { return d1 > 10 && d2 > 10 }, PatternSustainUp},
	{func(d1, d2 int) bool { return d1 < 0 && d2 < 0 }, PatternSustainLow},
	{func(d1, d2 int) bool { return d1 > 30 }, PatternNightSpike},
}

// ClassifyPattern 分析HRV日内曲线形态（0点 → 4点 → 8点）
func ClassifyPattern(rec *models.BiometricRecord) string {
	d1 := rec.HRV0400 - rec.HRV0000
	d2 := rec.HRV0800 - rec.HRV0400

	for _, rule := range patternRules {
		if rule.match(d1, d2) {
			return rule.label
		}
	}
	return PatternFlat
}
