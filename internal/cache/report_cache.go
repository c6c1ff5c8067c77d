package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"biomonitor/internal/config"
	"biomonitor/internal/models"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

// ReportCache Redis 报告缓存管理器
// 看板协作方从这里读取最新报告与触发规则，避免直接打到 PostgreSQL。
type ReportCache struct {
	config      *config.Config
	redisClient *redis.Client
	logger      *zap.Logger
}

// NewReportCache 创建报告缓存管理器
func NewReportCache(
	cfg *config.Config,
	redisClient *redis.Client,
	logger *zap.Logger,
) *ReportCache {
	return &ReportCache{
		config:      cfg,
		redisClient: redisClient,
		logger:      logger,
	}
}

// SetReport 写入指定日期的报告缓存（带 TTL）
func (c *ReportCache) SetReport(ctx context.Context, result *models.ReportResult) error {
	key := c.config.Cache.ReportKeyPrefix + result.Date

	jsonData, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("failed to marshal report: %w", err)
	}

	err = c.redisClient.Set(
		ctx,
		key,
		jsonData,
		time.Duration(c.config.Cache.ReportTTL)*time.Second,
	).Err()
	if err != nil {
		return fmt.Errorf("failed to set report cache: %w", err)
	}

	c.logger.Debug("Updated report cache",
		zap.String("date", result.Date),
		zap.String("key", key),
		zap.String("report_type", result.ReportType),
	)
	return nil
}

// GetReport 读取指定日期的报告缓存，未命中时返回 (nil, nil)
func (c *ReportCache) GetReport(ctx context.Context, date string) (*models.ReportResult, error) {
	key := c.config.Cache.ReportKeyPrefix + date

	val, err := c.redisClient.Get(ctx, key).Result()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get report cache: %w", err)
	}

	var result models.ReportResult
	if err := json.Unmarshal([]byte(val), &result); err != nil {
		return nil, fmt.Errorf("failed to unmarshal cached report: %w", err)
	}

	return &result, nil
}

// SetAlerts 写入当日触发规则缓存（带 TTL）
func (c *ReportCache) SetAlerts(ctx context.Context, date string, triggers []models.RuleTrigger) error {
	key := c.config.Cache.AlertKeyPrefix + date

	jsonData, err := json.Marshal(triggers)
	if err != nil {
		return fmt.Errorf("failed to marshal triggers: %w", err)
	}

	err = c.redisClient.Set(
		ctx,
		key,
		jsonData,
		time.Duration(c.config.Cache.ReportTTL)*time.Second,
	).Err()
	if err != nil {
		return fmt.Errorf("failed to set alert cache: %w", err)
	}

	c.logger.Debug("Updated alert cache",
		zap.String("date", date),
		zap.Int("trigger_count", len(triggers)),
	)
	return nil
}

// GetAlerts 读取当日触发规则缓存，未命中时返回 (nil, nil)
func (c *ReportCache) GetAlerts(ctx context.Context, date string) ([]models.RuleTrigger, error) {
	key := c.config.Cache.AlertKeyPrefix + date

	val, err := c.redisClient.Get(ctx, key).Result()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get alert cache: %w", err)
	}

	var triggers []models.RuleTrigger
	if err := json.Unmarshal([]byte(val), &triggers); err != nil {
		return nil, fmt.Errorf("failed to unmarshal cached triggers: %w", err)
	}

	return triggers, nil
}
