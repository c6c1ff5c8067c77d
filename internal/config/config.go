package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
)

// DatabaseConfig 数据库配置
type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
	SSLMode  string
}

// GetDSN 获取数据库连接字符串
func (c *DatabaseConfig) GetDSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode)
}

// RedisConfig Redis配置
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// ModelProfile 模型配置profile（来自profile文件）
type ModelProfile struct {
	Name    string `json:"name"`
	BaseURL string `json:"base_url"`
	Model   string `json:"model"`
	APIKey  string `json:"api_key"`
}

// profileFile profile配置文件结构（models_config.json）
type profileFile struct {
	Profiles       []ModelProfile `json:"profiles"`
	DefaultProfile string         `json:"default_profile"`
}

// Config 生物监测服务配置
type Config struct {
	Database DatabaseConfig
	Redis    RedisConfig

	// 语言模型配置
	LLM struct {
		BaseURL     string  // API端点，如 https://api.deepseek.com
		Model       string  // 模型名称
		APIKey      string  // 为空时不发起调用，直接走本地报告
		Temperature float64 // 采样温度（低温度保证报告一致性）
		MaxTokens   int
		TimeoutSec  int // 单次请求超时（秒）
	}

	// 规则阈值（对冲规则与熔断机制，可通过环境变量覆盖）
	Thresholds struct {
		DeepSleepMinLow  int     // 规则1：深度睡眠下限（分钟），默认 45
		HRVMorningLow    int     // 规则1：8点HRV下限（ms），默认 50
		WeightMax        float64 // 规则2：体重警戒线（kg），默认 93.0
		HRVNightHigh     int     // 规则3：4点HRV异常上限（ms），默认 120
		HRVCritical      int     // 熔断：8点HRV临界值（ms），默认 40
		HRVWarning       int     // 熔断：8点HRV警告值（ms），默认 50
		WeightDeltaHigh  float64 // 趋势：体重显著上升阈值（kg），默认 0.5
		HRVDeltaSignal   int     // 趋势：HRV变化信号阈值（ms），默认 5
		RatioDeltaSignal float64 // 趋势：深睡占比变化信号阈值，默认 0.05
	}

	// 干预分析配置
	Analysis struct {
		MinCohortSamples int // 干预组最小样本数，默认 3
		TopN             int // 对比展示的干预数量，默认 3
		HistoryDays      int // 报告上下文历史天数，默认 7
	}

	// Redis 缓存配置
	Cache struct {
		ReportKeyPrefix string // 报告缓存键前缀，如 "bio:report:"
		AlertKeyPrefix  string // 触发规则缓存键前缀，如 "bio:alerts:"
		ReportTTL       int    // 缓存 TTL（秒）
	}

	// 报告落盘目录（best-effort，失败只记日志）
	ReportDir string

	Log struct {
		Level  string
		Format string
	}
}

// Load 加载配置
// 默认值 -> profile文件 -> 环境变量，后者覆盖前者
func Load() (*Config, error) {
	cfg := &Config{}

	cfg.Database.Host = getEnv("DB_HOST", "localhost")
	cfg.Database.Port = getEnvInt("DB_PORT", 5432)
	cfg.Database.User = getEnv("DB_USER", "postgres")
	cfg.Database.Password = getEnv("DB_PASSWORD", "postgres")
	cfg.Database.Database = getEnv("DB_NAME", "biomonitor")
	cfg.Database.SSLMode = getEnv("DB_SSLMODE", "disable")

	cfg.Redis.Addr = getEnv("REDIS_ADDR", "localhost:6379")
	cfg.Redis.Password = getEnv("REDIS_PASSWORD", "")
	cfg.Redis.DB = 0

	// 语言模型配置（先取默认，再用profile文件和环境变量依次覆盖）
	cfg.LLM.BaseURL = "https://api.deepseek.com"
	cfg.LLM.Model = "deepseek-chat"
	cfg.LLM.Temperature = 0.3
	cfg.LLM.MaxTokens = 2000
	cfg.LLM.TimeoutSec = 30

	if err := cfg.applyProfileFile(); err != nil {
		return nil, err
	}

	cfg.LLM.BaseURL = getEnv("LLM_BASE_URL", cfg.LLM.BaseURL)
	cfg.LLM.Model = getEnv("LLM_MODEL", cfg.LLM.Model)
	cfg.LLM.APIKey = getEnv("LLM_API_KEY", cfg.LLM.APIKey)
	cfg.LLM.TimeoutSec = getEnvInt("LLM_TIMEOUT_SEC", cfg.LLM.TimeoutSec)

	// 规则阈值
	cfg.Thresholds.DeepSleepMinLow = getEnvInt("RULE_DEEP_SLEEP_MIN", 45)
	cfg.Thresholds.HRVMorningLow = getEnvInt("RULE_HRV_0800_LOW", 50)
	cfg.Thresholds.WeightMax = getEnvFloat("RULE_WEIGHT_MAX", 93.0)
	cfg.Thresholds.HRVNightHigh = getEnvInt("RULE_HRV_0400_HIGH", 120)
	cfg.Thresholds.HRVCritical = getEnvInt("HRV_CRITICAL", 40)
	cfg.Thresholds.HRVWarning = getEnvInt("HRV_WARNING", 50)
	cfg.Thresholds.WeightDeltaHigh = getEnvFloat("TREND_WEIGHT_DELTA", 0.5)
	cfg.Thresholds.HRVDeltaSignal = getEnvInt("TREND_HRV_DELTA", 5)
	cfg.Thresholds.RatioDeltaSignal = getEnvFloat("TREND_RATIO_DELTA", 0.05)

	// 干预分析
	cfg.Analysis.MinCohortSamples = getEnvInt("ANALYSIS_MIN_SAMPLES", 3)
	cfg.Analysis.TopN = getEnvInt("ANALYSIS_TOP_N", 3)
	cfg.Analysis.HistoryDays = getEnvInt("ANALYSIS_HISTORY_DAYS", 7)

	// 缓存
	cfg.Cache.ReportKeyPrefix = getEnv("CACHE_REPORT_PREFIX", "bio:report:")
	cfg.Cache.AlertKeyPrefix = getEnv("CACHE_ALERT_PREFIX", "bio:alerts:")
	cfg.Cache.ReportTTL = getEnvInt("CACHE_REPORT_TTL", 3600)

	cfg.ReportDir = getEnv("REPORT_DIR", "reports")

	cfg.Log.Level = getEnv("LOG_LEVEL", "info")
	cfg.Log.Format = getEnv("LOG_FORMAT", "json")

	return cfg, nil
}

// applyProfileFile 从profile文件加载语言模型配置
// 文件不存在不算错误（允许纯环境变量部署）
func (c *Config) applyProfileFile() error {
	path := getEnv("BIO_PROFILE_FILE", "models_config.json")

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to read profile file: %w", err)
	}

	var pf profileFile
	if err := json.Unmarshal(data, &pf); err != nil {
		return fmt.Errorf("failed to parse profile file %s: %w", path, err)
	}

	target := getEnv("BIO_PROFILE", pf.DefaultProfile)
	for _, p := range pf.Profiles {
		if p.Name == target {
			if p.BaseURL != "" {
				c.LLM.BaseURL = p.BaseURL
			}
			if p.Model != "" {
				c.LLM.Model = p.Model
			}
			if p.APIKey != "" {
				c.LLM.APIKey = p.APIKey
			}
			break
		}
	}

	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}
