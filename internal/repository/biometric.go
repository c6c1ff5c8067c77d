package repository

import (
	"context"
	"database/sql"
	"fmt"

	"biomonitor/internal/models"

	"go.uber.org/zap"
)

// BiometricRepository 生物特征记录仓库（biometric_logs 表，date 为主键）
type BiometricRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewBiometricRepository 创建记录仓库
func NewBiometricRepository(db *sql.DB, logger *zap.Logger) *BiometricRepository {
	return &BiometricRepository{
		db:     db,
		logger: logger,
	}
}

// recordColumns 查询列（deep_sleep_ratio 不在其中：派生值一律从基础
// 字段重算，持久化列仅服务于SQL侧看板查询）
const recordColumns = `
	date::text,
	recorded_at,
	tags,
	analyst,
	total_sleep_min,
	deep_sleep_min,
	hrv_0000,
	hrv_0200,
	hrv_0400,
	hrv_0600,
	hrv_0800,
	hrv_1200,
	weight,
	fatigue_score,
	carb_limit_check,
	interventions,
	title,
	report_content
`

// InitSchema 初始化 biometric_logs 表与索引
func (r *BiometricRepository) InitSchema(ctx context.Context) error {
	schema := `
		CREATE TABLE IF NOT EXISTS biometric_logs (
			date DATE PRIMARY KEY,
			recorded_at TEXT,
			tags TEXT,
			analyst TEXT,
			total_sleep_min INTEGER NOT NULL DEFAULT 0,
			deep_sleep_min INTEGER NOT NULL DEFAULT 0,
			deep_sleep_ratio DOUBLE PRECISION NOT NULL DEFAULT 0,
			hrv_0000 INTEGER NOT NULL DEFAULT 0,
			hrv_0200 INTEGER NOT NULL DEFAULT 0,
			hrv_0400 INTEGER NOT NULL DEFAULT 0,
			hrv_0600 INTEGER NOT NULL DEFAULT 0,
			hrv_0800 INTEGER NOT NULL DEFAULT 0,
			hrv_1200 INTEGER NOT NULL DEFAULT 0,
			weight DOUBLE PRECISION NOT NULL DEFAULT 0,
			fatigue_score INTEGER NOT NULL DEFAULT 0,
			carb_limit_check BOOLEAN NOT NULL DEFAULT FALSE,
			interventions TEXT NOT NULL DEFAULT '',
			title TEXT NOT NULL DEFAULT '',
			report_content TEXT NOT NULL DEFAULT ''
		)
	`
	if _, err := r.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to create biometric_logs table: %w", err)
	}

	indexes := []string{
		`CREATE INDEX IF NOT EXISTS idx_bio_weight ON biometric_logs(weight)`,
		`CREATE INDEX IF NOT EXISTS idx_bio_deep_sleep_ratio ON biometric_logs(deep_sleep_ratio)`,
		`CREATE INDEX IF NOT EXISTS idx_bio_analyst ON biometric_logs(analyst)`,
	}
	for _, idx := range indexes {
		if _, err := r.db.ExecContext(ctx, idx); err != nil {
			return fmt.Errorf("failed to create index: %w", err)
		}
	}

	r.logger.Info("Biometric schema initialized")
	return nil
}

// Upsert 整条写入（按 date 幂等：同日期重复写入替换旧记录，
// 单条 ON CONFLICT 语句保证不产生重复行）
func (r *BiometricRepository) Upsert(ctx context.Context, rec *models.BiometricRecord) error {
	if rec == nil {
		return fmt.Errorf("record is required")
	}
	if err := rec.Validate(); err != nil {
		return fmt.Errorf("invalid record: %w", err)
	}

	query := `
		INSERT INTO biometric_logs (
			date, recorded_at, tags, analyst,
			total_sleep_min, deep_sleep_min, deep_sleep_ratio,
			hrv_0000, hrv_0200, hrv_0400, hrv_0600, hrv_0800, hrv_1200,
			weight, fatigue_score, carb_limit_check, interventions,
			title, report_content
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19
		)
		ON CONFLICT (date) DO UPDATE SET
			recorded_at = EXCLUDED.recorded_at,
			tags = EXCLUDED.tags,
			analyst = EXCLUDED.analyst,
			total_sleep_min = EXCLUDED.total_sleep_min,
			deep_sleep_min = EXCLUDED.deep_sleep_min,
			deep_sleep_ratio = EXCLUDED.deep_sleep_ratio,
			hrv_0000 = EXCLUDED.hrv_0000,
			hrv_0200 = EXCLUDED.hrv_0200,
			hrv_0400 = EXCLUDED.hrv_0400,
			hrv_0600 = EXCLUDED.hrv_0600,
			hrv_0800 = EXCLUDED.hrv_0800,
			hrv_1200 = EXCLUDED.hrv_1200,
			weight = EXCLUDED.weight,
			fatigue_score = EXCLUDED.fatigue_score,
			carb_limit_check = EXCLUDED.carb_limit_check,
			interventions = EXCLUDED.interventions,
			title = EXCLUDED.title,
			report_content = EXCLUDED.report_content
	`

	_, err := r.db.ExecContext(ctx, query,
		rec.Date,
		rec.RecordedAt,
		rec.Tags,
		rec.Analyst,
		rec.TotalSleepMin,
		rec.DeepSleepMin,
		rec.DeepSleepRatio(), // 派生列只从派生方法写入
		rec.HRV0000,
		rec.HRV0200,
		rec.HRV0400,
		rec.HRV0600,
		rec.HRV0800,
		rec.HRV1200,
		rec.Weight,
		rec.FatigueScore,
		rec.CarbLimitObserved,
		models.JoinInterventions(rec.Interventions),
		rec.ReportTitle,
		rec.ReportBody,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert biometric record: %w", err)
	}

	r.logger.Info("Biometric record saved",
		zap.String("date", rec.Date),
	)
	return nil
}

// GetByDate 按日期获取单条记录，不存在时返回 (nil, nil)
func (r *BiometricRepository) GetByDate(ctx context.Context, date string) (*models.BiometricRecord, error) {
	if date == "" {
		return nil, fmt.Errorf("date is required")
	}

	query := fmt.Sprintf(`
		SELECT %s
		FROM biometric_logs
		WHERE date = $1
	`, recordColumns)

	rec, err := scanRecord(r.db.QueryRowContext(ctx, query, date))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get biometric record: %w", err)
	}
	return rec, nil
}

// GetRecent 获取最近 N 天的记录（按日期倒序，最近的在前）
func (r *BiometricRepository) GetRecent(ctx context.Context, n int) ([]*models.BiometricRecord, error) {
	if n <= 0 {
		n = 7
	}

	query := fmt.Sprintf(`
		SELECT %s
		FROM biometric_logs
		ORDER BY date DESC
		LIMIT $1
	`, recordColumns)

	return r.queryRecords(ctx, query, n)
}

// GetAll 获取全部记录（按日期倒序，用于干预分析与导出）
func (r *BiometricRepository) GetAll(ctx context.Context) ([]*models.BiometricRecord, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM biometric_logs
		ORDER BY date DESC
	`, recordColumns)

	return r.queryRecords(ctx, query)
}

// Delete 删除指定日期的记录，返回是否实际删除
func (r *BiometricRepository) Delete(ctx context.Context, date string) (bool, error) {
	if date == "" {
		return false, fmt.Errorf("date is required")
	}

	result, err := r.db.ExecContext(ctx, `DELETE FROM biometric_logs WHERE date = $1`, date)
	if err != nil {
		return false, fmt.Errorf("failed to delete biometric record: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rows > 0 {
		r.logger.Info("Biometric record deleted", zap.String("date", date))
	}
	return rows > 0, nil
}

// DateRange 获取数据集的日期范围（空表返回空字符串）
func (r *BiometricRepository) DateRange(ctx context.Context) (minDate, maxDate string, err error) {
	var minVal, maxVal sql.NullString
	err = r.db.QueryRowContext(ctx,
		`SELECT MIN(date)::text, MAX(date)::text FROM biometric_logs`,
	).Scan(&minVal, &maxVal)
	if err != nil {
		return "", "", fmt.Errorf("failed to get date range: %w", err)
	}
	return minVal.String, maxVal.String, nil
}

// queryRecords 多行查询公共路径
func (r *BiometricRepository) queryRecords(ctx context.Context, query string, args ...interface{}) ([]*models.BiometricRecord, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query biometric records: %w", err)
	}
	defer rows.Close()

	records := []*models.BiometricRecord{}
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan biometric record: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate biometric records: %w", err)
	}

	return records, nil
}

// rowScanner 兼容 *sql.Row 与 *sql.Rows
type rowScanner interface {
	Scan(dest ...interface{}) error
}

// scanRecord 扫描单条记录
func scanRecord(row rowScanner) (*models.BiometricRecord, error) {
	var rec models.BiometricRecord
	var recordedAt, tags, analyst, interventions, title, reportBody sql.NullString

	err := row.Scan(
		&rec.Date,
		&recordedAt,
		&tags,
		&analyst,
		&rec.TotalSleepMin,
		&rec.DeepSleepMin,
		&rec.HRV0000,
		&rec.HRV0200,
		&rec.HRV0400,
		&rec.HRV0600,
		&rec.HRV0800,
		&rec.HRV1200,
		&rec.Weight,
		&rec.FatigueScore,
		&rec.CarbLimitObserved,
		&interventions,
		&title,
		&reportBody,
	)
	if err != nil {
		return nil, err
	}

	// Postgres DATE 可能带时间后缀，截取日期部分
	if len(rec.Date) > len(models.DateLayout) {
		rec.Date = rec.Date[:len(models.DateLayout)]
	}

	rec.RecordedAt = recordedAt.String
	rec.Tags = tags.String
	rec.Analyst = analyst.String
	rec.Interventions = models.SplitInterventions(interventions.String)
	rec.ReportTitle = title.String
	rec.ReportBody = reportBody.String

	return &rec, nil
}
