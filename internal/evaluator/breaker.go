package evaluator

import (
	"fmt"

	"biomonitor/internal/config"
	"biomonitor/internal/models"

	"go.uber.org/zap"
)

// CircuitBreaker 熔断检查器
// 只看 hrv_0800 一个指标：
//   - 低于临界值 → critical 告警，熔断报告成为唯一产出，跳过全部后续分析
//   - 临界值与警告值之间 → warning 告警，作为普通触发项进入正常报告
//   - 达到警告值 → 无告警
type CircuitBreaker struct {
	config *config.Config
	logger *zap.Logger
}

// NewCircuitBreaker 创建熔断检查器
func NewCircuitBreaker(cfg *config.Config, logger *zap.Logger) *CircuitBreaker {
	return &CircuitBreaker{
		config: cfg,
		logger: logger,
	}
}

// Check 熔断检查，无告警时返回 nil
func (b *CircuitBreaker) Check(hrv0800 int) *models.Alert {
	switch {
	case hrv0800 < b.config.Thresholds.HRVCritical:
		b.logger.Warn("Circuit breaker triggered",
			zap.Int("hrv_0800", hrv0800),
			zap.Int("critical_threshold", b.config.Thresholds.HRVCritical),
		)
		return &models.Alert{
			Level: models.AlertLevelCritical,
			Message: fmt.Sprintf(
				"🔴 熔断机制触发：HRV_0800=%dms 低于临界值%dms，今日所有高强度任务强制暂停，仅执行恢复性活动。",
				hrv0800, b.config.Thresholds.HRVCritical,
			),
			HRV0800: hrv0800,
		}
	case hrv0800 < b.config.Thresholds.HRVWarning:
		return &models.Alert{
			Level:   models.AlertLevelWarning,
			Message: "🟡 警告：HRV值偏低，建议降低当日任务强度。",
			HRV0800: hrv0800,
		}
	default:
		return nil
	}
}
