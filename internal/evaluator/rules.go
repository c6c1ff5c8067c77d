package evaluator

import (
	"fmt"

	"biomonitor/internal/config"
	"biomonitor/internal/models"

	"go.uber.org/zap"
)

// RuleEvaluator 自动对冲规则评估器（Rules of Engagement）
// 纯函数式：只读取单日记录，无副作用，不会失败（缺失字段按0处理，
// 必填字段校验是录入侧的职责）。
type RuleEvaluator struct {
	config *config.Config
	logger *zap.Logger
}

// NewRuleEvaluator 创建规则评估器
func NewRuleEvaluator(cfg *config.Config, logger *zap.Logger) *RuleEvaluator {
	return &RuleEvaluator{
		config: cfg,
		logger: logger,
	}
}

// engagementRule 单条对冲规则（按固定顺序评估，保证输出确定性）
type engagementRule struct {
	ruleID string
	check  func(*config.Config, *models.BiometricRecord) (bool, string, map[string]float64)
}

// 规则表：各规则独立评估，任意子集可同时触发
var engagementRules = []engagementRule{
	{
		// 规则1：禁令触发（深睡不足且早晨HRV偏低 → 下调脑力任务）
		ruleID: "cognitive_load_reduction",
		check: func(cfg *config.Config, rec *models.BiometricRecord) (bool, string, map[string]float64) {
			if rec.DeepSleepMin < cfg.Thresholds.DeepSleepMinLow && rec.HRV0800 < cfg.Thresholds.HRVMorningLow {
				return true,
					"🚨 禁令触发：今日脑力任务难度下调 30%",
					map[string]float64{
						"deep_sleep_min": float64(rec.DeepSleepMin),
						"hrv_0800":       float64(rec.HRV0800),
					}
			}
			return false, "", nil
		},
	},
	{
		// 规则2：体重对冲
		ruleID: "metabolic_countermeasure",
		check: func(cfg *config.Config, rec *models.BiometricRecord) (bool, string, map[string]float64) {
			if rec.Weight > cfg.Thresholds.WeightMax {
				return true,
					"⚡ 体重对冲：启动紧急预案：冷水洗脸 + 哺乳动物潜水反射",
					map[string]float64{"weight": rec.Weight}
			}
			return false, "", nil
		},
	},
	{
		// 规则3：异常处理（凌晨4点HRV异常高值）
		ruleID: "system_reset",
		check: func(cfg *config.Config, rec *models.BiometricRecord) (bool, string, map[string]float64) {
			if rec.HRV0400 > cfg.Thresholds.HRVNightHigh {
				return true,
					"🔄 系统重置日：检测到HRV_0400异常高值，建议减少高压演练",
					map[string]float64{"hrv_0400": float64(rec.HRV0400)}
			}
			return false, "", nil
		},
	},
}

// Evaluate 评估单日记录，返回触发的规则列表（固定顺序）
func (e *RuleEvaluator) Evaluate(rec *models.BiometricRecord) []models.RuleTrigger {
	var triggers []models.RuleTrigger

	for _, rule := range engagementRules {
		fired, msg, values := rule.check(e.config, rec)
		if !fired {
			continue
		}
		triggers = append(triggers, models.RuleTrigger{
			RuleID:           rule.ruleID,
			Message:          msg,
			TriggeringValues: values,
		})
		e.logger.Info("Engagement rule triggered",
			zap.String("rule_id", rule.ruleID),
			zap.String("date", rec.Date),
			zap.Any("triggering_values", values),
		)
	}

	return triggers
}

// FormatTriggers 触发结果格式化为报告上下文片段
func FormatTriggers(triggers []models.RuleTrigger) string {
	if len(triggers) == 0 {
		return "- 无规则触发\n"
	}
	out := ""
	for _, t := range triggers {
		out += fmt.Sprintf("- %s\n", t.Message)
	}
	return out
}
