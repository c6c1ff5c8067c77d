package models

import "time"

// 报告类型
const (
	ReportTypeCircuitBreaker = "circuit_breaker" // 熔断报告（终态，跳过全部后续分析）
	ReportTypeAI             = "ai_analysis"     // 语言模型生成
	ReportTypeLocal          = "local_analysis"  // 本地规则引擎生成
)

// 熔断级别
const (
	AlertLevelCritical = "critical"
	AlertLevelWarning  = "warning"
)

// RuleTrigger 对冲规则触发结果（仅供报告上下文与展示，不单独持久化）
type RuleTrigger struct {
	RuleID           string             `json:"rule_id"`
	Message          string             `json:"message"`
	TriggeringValues map[string]float64 `json:"triggering_values"`
}

// Alert 熔断告警
type Alert struct {
	Level   string `json:"level"` // critical / warning
	Message string `json:"message"`
	HRV0800 int    `json:"hrv_0800"`
}

// TrendResult 隔日趋势分析结果
// Positive/Negative 为信号计数，供展示层使用，而非只给最终结论
type TrendResult struct {
	Label        string `json:"label"` // recovering / depleting / holding_steady / insufficient_data
	Display      string `json:"display"`
	Positive     int    `json:"positive"`
	Negative     int    `json:"negative"`
	Insufficient bool   `json:"insufficient"`
}

// ReportResult 一次报告生成的完整产出（生成后不可变）
type ReportResult struct {
	ID           string        `json:"report_id"`
	Date         string        `json:"date"`
	ReportType   string        `json:"report_type"`
	Title        string        `json:"title"`
	Body         string        `json:"body"`
	Triggers     []RuleTrigger `json:"triggers"`
	PatternLabel string        `json:"pattern_label"`
	Trend        TrendResult   `json:"trend"`
	GeneratedAt  time.Time     `json:"generated_at"`
}
