package models

import (
	"fmt"
	"strings"
	"time"
)

// DateLayout 记录主键的日期格式（ISO日历日期）
const DateLayout = "2006-01-02"

// BiometricRecord 单日生物特征记录（对应 biometric_logs 表，date 为主键）
// 派生字段（深睡占比、HRV差值）不作为结构体字段存储，
// 统一通过方法从基础字段重算，避免持久化值与基础字段脱节。
type BiometricRecord struct {
	Date              string   `json:"date" db:"date"`
	TotalSleepMin     int      `json:"total_sleep_min" db:"total_sleep_min"`
	DeepSleepMin      int      `json:"deep_sleep_min" db:"deep_sleep_min"`
	HRV0000           int      `json:"hrv_0000" db:"hrv_0000"`
	HRV0200           int      `json:"hrv_0200" db:"hrv_0200"`
	HRV0400           int      `json:"hrv_0400" db:"hrv_0400"`
	HRV0600           int      `json:"hrv_0600" db:"hrv_0600"`
	HRV0800           int      `json:"hrv_0800" db:"hrv_0800"`
	HRV1200           int      `json:"hrv_1200" db:"hrv_1200"`
	Weight            float64  `json:"weight" db:"weight"`
	FatigueScore      int      `json:"fatigue_score" db:"fatigue_score"`
	CarbLimitObserved bool     `json:"carb_limit_check" db:"carb_limit_check"`
	Interventions     []string `json:"interventions" db:"interventions"` // 干预措施标签集合（无序）
	ReportTitle       string   `json:"title" db:"title"`
	ReportBody        string   `json:"report_content" db:"report_content"`

	// 元数据（沿用原始schema）
	RecordedAt string `json:"recorded_at" db:"recorded_at"` // 报告生成时间 HH:MM:SS
	Tags       string `json:"tags" db:"tags"`
	Analyst    string `json:"analyst" db:"analyst"`
}

// DeepSleepRatio 深度睡眠占比（总睡眠为0时返回0）
func (r *BiometricRecord) DeepSleepRatio() float64 {
	if r.TotalSleepMin <= 0 {
		return 0
	}
	return float64(r.DeepSleepMin) / float64(r.TotalSleepMin)
}

// HRVDelta00000800 0点到8点的HRV差值
func (r *BiometricRecord) HRVDelta00000800() int {
	return r.HRV0800 - r.HRV0000
}

// HasIntervention 判断当天是否执行了指定干预措施
func (r *BiometricRecord) HasIntervention(label string) bool {
	for _, l := range r.Interventions {
		if l == label {
			return true
		}
	}
	return false
}

// Validate 校验记录不变量
// 违反此处不变量说明上游录入有缺陷，调用方应中止当前操作而非静默修正。
func (r *BiometricRecord) Validate() error {
	if strings.TrimSpace(r.Date) == "" {
		return fmt.Errorf("date is required")
	}
	if _, err := time.Parse(DateLayout, r.Date); err != nil {
		return fmt.Errorf("invalid date %q: expected YYYY-MM-DD", r.Date)
	}
	if r.TotalSleepMin < 0 || r.TotalSleepMin > 1440 {
		return fmt.Errorf("total_sleep_min out of range [0,1440]: %d", r.TotalSleepMin)
	}
	if r.DeepSleepMin < 0 || r.DeepSleepMin > r.TotalSleepMin {
		return fmt.Errorf("deep_sleep_min out of range [0,%d]: %d", r.TotalSleepMin, r.DeepSleepMin)
	}
	for _, s := range []struct {
		name  string
		value int
	}{
		{"hrv_0000", r.HRV0000},
		{"hrv_0200", r.HRV0200},
		{"hrv_0400", r.HRV0400},
		{"hrv_0600", r.HRV0600},
		{"hrv_0800", r.HRV0800},
		{"hrv_1200", r.HRV1200},
	} {
		if s.value < 0 || s.value > 200 {
			return fmt.Errorf("%s out of range [0,200]: %d", s.name, s.value)
		}
	}
	if r.Weight <= 0 {
		return fmt.Errorf("weight must be positive: %.1f", r.Weight)
	}
	if r.FatigueScore < 1 || r.FatigueScore > 10 {
		return fmt.Errorf("fatigue_score out of range [1,10]: %d", r.FatigueScore)
	}
	return nil
}

// JoinInterventions 干预措施序列化为逗号分隔字符串（存储格式）
func JoinInterventions(labels []string) string {
	out := make([]string, 0, len(labels))
	for _, l := range labels {
		l = strings.TrimSpace(l)
		if l != "" {
			out = append(out, l)
		}
	}
	return strings.Join(out, ",")
}

// SplitInterventions 解析逗号分隔的干预措施字符串，丢弃空白项
func SplitInterventions(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
