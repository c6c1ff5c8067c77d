package service

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"biomonitor/internal/analyzer"
	"biomonitor/internal/cache"
	"biomonitor/internal/config"
	"biomonitor/internal/importer"
	"biomonitor/internal/models"
	"biomonitor/internal/repository"
	"biomonitor/internal/strategist"

	"github.com/go-redis/redis/v8"
	_ "github.com/lib/pq"
	"go.uber.org/zap"
)

// ReportService 报告服务（整合各层）
type ReportService struct {
	config      *config.Config
	db          *sql.DB
	redisClient *redis.Client
	logger      *zap.Logger

	// 各层组件
	recordRepo  *repository.BiometricRepository
	reportCache *cache.ReportCache
	strategist  *strategist.Strategist
	analyzer    *analyzer.CorrelationAnalyzer
	importer    *importer.Importer
}

// NewReportService 创建报告服务
func NewReportService(cfg *config.Config, logger *zap.Logger) (*ReportService, error) {
	// 1. 连接数据库
	db, err := sql.Open("postgres", cfg.Database.GetDSN())
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	// 2. 连接 Redis
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	ctx := context.Background()
	if err := redisClient.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}

	// 3. 语言模型客户端（未配置密钥时为 nil，编排器直接走本地报告）
	var generator strategist.Generator
	if cfg.LLM.APIKey != "" {
		generator = strategist.NewLLMClient(
			cfg.LLM.BaseURL,
			cfg.LLM.APIKey,
			cfg.LLM.Model,
			time.Duration(cfg.LLM.TimeoutSec)*time.Second,
			logger,
		)
	} else {
		logger.Warn("LLM API key not configured, reports will be generated locally")
	}

	return &ReportService{
		config:      cfg,
		db:          db,
		redisClient: redisClient,
		logger:      logger,
		recordRepo:  repository.NewBiometricRepository(db, logger),
		reportCache: cache.NewReportCache(cfg, redisClient, logger),
		strategist:  strategist.NewStrategist(cfg, generator, logger),
		analyzer:    analyzer.NewCorrelationAnalyzer(cfg, logger),
		importer:    importer.NewImporter(logger),
	}, nil
}

// InitSchema 初始化存储结构
func (s *ReportService) InitSchema(ctx context.Context) error {
	return s.recordRepo.InitSchema(ctx)
}

// GenerateDailyReport 为指定日期生成报告并回写
// date 为空时取最近一条记录。流程：读记录与历史 → 编排生成 →
// 标题与正文整条回写（upsert）→ 刷新缓存 → 落盘副本。
func (s *ReportService) GenerateDailyReport(ctx context.Context, date string) (*models.ReportResult, error) {
	// 1. 加载当日记录与历史窗口
	history, err := s.recordRepo.GetRecent(ctx, s.config.Analysis.HistoryDays)
	if err != nil {
		return nil, fmt.Errorf("failed to load history: %w", err)
	}
	if len(history) == 0 {
		return nil, fmt.Errorf("no biometric records available")
	}

	var rec *models.BiometricRecord
	if date == "" {
		rec = history[0]
	} else {
		rec, err = s.recordRepo.GetByDate(ctx, date)
		if err != nil {
			return nil, fmt.Errorf("failed to load record for %s: %w", date, err)
		}
		if rec == nil {
			return nil, fmt.Errorf("no record found for date %s", date)
		}
		// 历史窗口以目标日期为首（过滤掉更晚的记录）
		history = historyUpTo(history, rec.Date)
		if len(history) == 0 || history[0].Date != rec.Date {
			history = append([]*models.BiometricRecord{rec}, history...)
		}
	}

	// 2. 编排生成（总能得到结果，语言模型失败内部回退）
	result := s.strategist.GenerateReport(ctx, rec, history)

	// 3. 回写记录（整条 upsert，引擎不做部分更新）
	rec.ReportTitle = result.Title
	rec.ReportBody = result.Body
	rec.RecordedAt = result.GeneratedAt.Format("15:04:05")
	rec.Tags = "health,biomonitor"
	if result.ReportType == models.ReportTypeAI {
		rec.Analyst = s.config.LLM.Model
	} else {
		rec.Analyst = "local"
	}
	if err := s.recordRepo.Upsert(ctx, rec); err != nil {
		return nil, fmt.Errorf("failed to persist report: %w", err)
	}

	// 4. 刷新看板缓存（失败只记日志，不影响报告产出）
	if err := s.reportCache.SetReport(ctx, result); err != nil {
		s.logger.Error("Failed to update report cache", zap.Error(err))
	}
	if err := s.reportCache.SetAlerts(ctx, rec.Date, result.Triggers); err != nil {
		s.logger.Error("Failed to update alert cache", zap.Error(err))
	}

	// 5. 报告落盘副本（best-effort）
	s.saveReportFile(result)

	return result, nil
}

// AnalyzeInterventions 对全量历史执行干预相关性分析
func (s *ReportService) AnalyzeInterventions(ctx context.Context) (models.AnalysisResult, error) {
	history, err := s.recordRepo.GetAll(ctx)
	if err != nil {
		return models.AnalysisResult{}, fmt.Errorf("failed to load history: %w", err)
	}
	return s.analyzer.Analyze(history), nil
}

// ImportFile 导入 xlsx 日志文件，坏行跳过
func (s *ReportService) ImportFile(ctx context.Context, path string) (int, error) {
	records, rowErrors, err := s.importer.ImportFile(path)
	if err != nil {
		return 0, err
	}
	for _, re := range rowErrors {
		s.logger.Warn("Import row rejected", zap.Int("row", re.Row), zap.Error(re.Err))
	}

	saved := 0
	for _, rec := range records {
		if err := s.recordRepo.Upsert(ctx, rec); err != nil {
			return saved, fmt.Errorf("failed to save record %s: %w", rec.Date, err)
		}
		saved++
	}

	s.logger.Info("Import completed",
		zap.String("path", path),
		zap.Int("saved", saved),
		zap.Int("rejected", len(rowErrors)),
	)
	return saved, nil
}

// Stop 停止服务
func (s *ReportService) Stop() error {
	s.logger.Info("Stopping report service")

	if err := s.db.Close(); err != nil {
		s.logger.Error("Failed to close database", zap.Error(err))
	}
	if err := s.redisClient.Close(); err != nil {
		s.logger.Error("Failed to close redis", zap.Error(err))
	}
	return nil
}

// saveReportFile 保存报告正文到 reports 目录（失败只记日志）
func (s *ReportService) saveReportFile(result *models.ReportResult) {
	if s.config.ReportDir == "" {
		return
	}
	if err := os.MkdirAll(s.config.ReportDir, 0o755); err != nil {
		s.logger.Error("Failed to create report dir", zap.Error(err))
		return
	}

	analyst := "local"
	if result.ReportType == models.ReportTypeAI {
		analyst = s.config.LLM.Model
	}
	filename := fmt.Sprintf("report_by_%s_%s.md", analyst, result.Date)
	path := filepath.Join(s.config.ReportDir, filename)

	if err := os.WriteFile(path, []byte(result.Body), 0o644); err != nil {
		s.logger.Error("Failed to write report file", zap.Error(err))
		return
	}
	s.logger.Info("Report file saved", zap.String("path", path))
}

// historyUpTo 截取从指定日期开始的历史（输入按日期倒序）
func historyUpTo(history []*models.BiometricRecord, date string) []*models.BiometricRecord {
	for i, rec := range history {
		if rec.Date <= date {
			return history[i:]
		}
	}
	return nil
}
