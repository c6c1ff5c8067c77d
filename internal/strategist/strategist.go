package strategist

import (
	"context"
	"time"

	"biomonitor/internal/config"
	"biomonitor/internal/evaluator"
	"biomonitor/internal/models"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Generator 语言模型协作方接口
// 实现方负责自身的超时与重试策略；此处任何错误一律转入本地回退。
type Generator interface {
	Generate(ctx context.Context, systemPrompt, userPrompt string, temperature float64, maxTokens int) (string, error)
}

// Strategist 报告编排器（状态机）
//
//	START → 熔断检查 → (critical: 终态熔断报告)
//	      → 上下文组装（规则+形态+趋势+历史表）
//	      → 语言模型尝试 → (成功: AI报告)
//	      → 本地回退 → (本地报告)
//
// 每次调用独占自己的记录与历史副本，无共享可变状态。
type Strategist struct {
	config    *config.Config
	breaker   *evaluator.CircuitBreaker
	rules     *evaluator.RuleEvaluator
	trend     *evaluator.TrendClassifier
	generator Generator // nil 表示未配置语言模型
	logger    *zap.Logger
}

// NewStrategist 创建报告编排器
func NewStrategist(cfg *config.Config, generator Generator, logger *zap.Logger) *Strategist {
	return &Strategist{
		config:    cfg,
		breaker:   evaluator.NewCircuitBreaker(cfg, logger),
		rules:     evaluator.NewRuleEvaluator(cfg, logger),
		trend:     evaluator.NewTrendClassifier(cfg),
		generator: generator,
		logger:    logger,
	}
}

// GenerateReport 为单日记录生成报告
// history 按日期倒序（history[0] 为当日或最近一天）。
// 调用方总能拿到 ReportResult；语言模型失败不会以错误形式上抛。
func (s *Strategist) GenerateReport(ctx context.Context, rec *models.BiometricRecord, history []*models.BiometricRecord) *models.ReportResult {
	s.logger.Info("Generating daily report",
		zap.String("date", rec.Date),
	)

	// 1. 熔断检查：critical 级别直接终止整个流水线
	alert := s.breaker.Check(rec.HRV0800)
	if alert != nil && alert.Level == models.AlertLevelCritical {
		s.logger.Warn("Pipeline short-circuited by critical alert",
			zap.String("date", rec.Date),
			zap.Int("hrv_0800", rec.HRV0800),
		)
		return &models.ReportResult{
			ID:          uuid.New().String(),
			Date:        rec.Date,
			ReportType:  models.ReportTypeCircuitBreaker,
			Title:       FixTitleDate(defaultTitle+"（熔断）", rec.Date),
			Body:        alert.Message,
			GeneratedAt: time.Now(),
		}
	}

	// 2. 上下文组装
	triggers := s.rules.Evaluate(rec)
	if alert != nil {
		// warning 级别不熔断，作为普通触发项进入报告
		triggers = append(triggers, models.RuleTrigger{
			RuleID:  "hrv_warning",
			Message: alert.Message,
			TriggeringValues: map[string]float64{
				"hrv_0800": float64(alert.HRV0800),
			},
		})
	}

	var yesterday *models.BiometricRecord
	if len(history) > 1 {
		yesterday = history[1]
	}

	analysisCtx := &AnalysisContext{
		Record:   rec,
		History:  history,
		Triggers: triggers,
		Pattern:  evaluator.ClassifyPattern(rec),
		Trend:    s.trend.Classify(rec, yesterday),
	}

	// 3. 语言模型尝试（单次，无重试）；失败或未配置则本地回退
	reportType := models.ReportTypeLocal
	var body string

	if s.generator != nil {
		userPrompt := BuildUserPrompt(s.config, analysisCtx)
		aiBody, err := s.generator.Generate(ctx, SystemPrompt(), userPrompt,
			s.config.LLM.Temperature, s.config.LLM.MaxTokens)
		if err != nil {
			s.logger.Warn("LLM generation failed, falling back to local report",
				zap.String("date", rec.Date),
				zap.Error(err),
			)
		} else {
			reportType = models.ReportTypeAI
			body = aiBody
		}
	} else {
		s.logger.Info("No LLM configured, using local report")
	}

	if body == "" {
		body = RenderLocalReport(s.config, analysisCtx)
	}

	// 4. 标题提取与日期修正
	title := FixTitleDate(ExtractTitle(body), rec.Date)

	s.logger.Info("Report generated",
		zap.String("date", rec.Date),
		zap.String("report_type", reportType),
		zap.Int("trigger_count", len(triggers)),
	)

	return &models.ReportResult{
		ID:           uuid.New().String(),
		Date:         rec.Date,
		ReportType:   reportType,
		Title:        title,
		Body:         body,
		Triggers:     triggers,
		PatternLabel: analysisCtx.Pattern,
		Trend:        analysisCtx.Trend,
		GeneratedAt:  time.Now(),
	}
}
