package repository

import (
	"context"
	"database/sql/driver"
	"testing"

	"biomonitor/internal/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var testColumns = []string{
	"date", "recorded_at", "tags", "analyst",
	"total_sleep_min", "deep_sleep_min",
	"hrv_0000", "hrv_0200", "hrv_0400", "hrv_0600", "hrv_0800", "hrv_1200",
	"weight", "fatigue_score", "carb_limit_check", "interventions",
	"title", "report_content",
}

func testRow() []driver.Value {
	return []driver.Value{
		"2026-08-01", "08:30:00", "health,biomonitor", "deepseek-chat",
		420, 80,
		55, 60, 80, 70, 65, 62,
		90.5, 4, true, "咖啡限制,冷水澡",
		"2026-08-01_标题", "正文",
	}
}

func newTestRepo(t *testing.T) (*BiometricRepository, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewBiometricRepository(db, zap.NewNop()), mock
}

func TestUpsert(t *testing.T) {
	repo, mock := newTestRepo(t)

	rec := &models.BiometricRecord{
		Date:          "2026-08-01",
		TotalSleepMin: 420,
		DeepSleepMin:  80,
		HRV0800:       65,
		Weight:        90.5,
		FatigueScore:  4,
		Interventions: []string{"咖啡限制"},
	}

	mock.ExpectExec("INSERT INTO biometric_logs").
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.Upsert(context.Background(), rec))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpsertRejectsInvalidRecord(t *testing.T) {
	repo, mock := newTestRepo(t)

	// 校验失败不应触达数据库
	rec := &models.BiometricRecord{Date: "bad-date", Weight: 90, FatigueScore: 4}
	err := repo.Upsert(context.Background(), rec)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid record")
	assert.NoError(t, mock.ExpectationsWereMet())

	require.Error(t, repo.Upsert(context.Background(), nil))
}

func TestGetByDate(t *testing.T) {
	repo, mock := newTestRepo(t)

	mock.ExpectQuery("SELECT (.+) FROM biometric_logs").
		WithArgs("2026-08-01").
		WillReturnRows(sqlmock.NewRows(testColumns).AddRow(testRow()...))

	rec, err := repo.GetByDate(context.Background(), "2026-08-01")
	require.NoError(t, err)
	require.NotNil(t, rec)

	assert.Equal(t, "2026-08-01", rec.Date)
	assert.Equal(t, 420, rec.TotalSleepMin)
	assert.Equal(t, 65, rec.HRV0800)
	assert.Equal(t, 90.5, rec.Weight)
	assert.True(t, rec.CarbLimitObserved)
	assert.Equal(t, []string{"咖啡限制", "冷水澡"}, rec.Interventions)
	assert.Equal(t, "deepseek-chat", rec.Analyst)
}

func TestGetByDateNotFound(t *testing.T) {
	repo, mock := newTestRepo(t)

	mock.ExpectQuery("SELECT (.+) FROM biometric_logs").
		WithArgs("2026-08-01").
		WillReturnRows(sqlmock.NewRows(testColumns))

	rec, err := repo.GetByDate(context.Background(), "2026-08-01")
	require.NoError(t, err)
	assert.Nil(t, rec)
}

func TestGetByDateNormalizesTimestampSuffix(t *testing.T) {
	repo, mock := newTestRepo(t)

	row := testRow()
	row[0] = "2026-08-01T00:00:00Z"
	mock.ExpectQuery("SELECT (.+) FROM biometric_logs").
		WithArgs("2026-08-01").
		WillReturnRows(sqlmock.NewRows(testColumns).AddRow(row...))

	rec, err := repo.GetByDate(context.Background(), "2026-08-01")
	require.NoError(t, err)
	assert.Equal(t, "2026-08-01", rec.Date)
}

func TestGetRecent(t *testing.T) {
	repo, mock := newTestRepo(t)

	row2 := testRow()
	row2[0] = "2026-07-31"
	mock.ExpectQuery("SELECT (.+) FROM biometric_logs ORDER BY date DESC").
		WithArgs(7).
		WillReturnRows(sqlmock.NewRows(testColumns).
			AddRow(testRow()...).
			AddRow(row2...))

	records, err := repo.GetRecent(context.Background(), 7)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "2026-08-01", records[0].Date)
	assert.Equal(t, "2026-07-31", records[1].Date)
}

func TestGetRecentDefaultsLimit(t *testing.T) {
	repo, mock := newTestRepo(t)

	mock.ExpectQuery("SELECT (.+) FROM biometric_logs ORDER BY date DESC").
		WithArgs(7).
		WillReturnRows(sqlmock.NewRows(testColumns))

	records, err := repo.GetRecent(context.Background(), 0)
	require.NoError(t, err)
	assert.Empty(t, records)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDelete(t *testing.T) {
	repo, mock := newTestRepo(t)

	mock.ExpectExec("DELETE FROM biometric_logs WHERE date").
		WithArgs("2026-08-01").
		WillReturnResult(sqlmock.NewResult(0, 1))

	deleted, err := repo.Delete(context.Background(), "2026-08-01")
	require.NoError(t, err)
	assert.True(t, deleted)

	mock.ExpectExec("DELETE FROM biometric_logs WHERE date").
		WithArgs("2026-08-02").
		WillReturnResult(sqlmock.NewResult(0, 0))

	deleted, err = repo.Delete(context.Background(), "2026-08-02")
	require.NoError(t, err)
	assert.False(t, deleted)
}

func TestDateRange(t *testing.T) {
	repo, mock := newTestRepo(t)

	mock.ExpectQuery("SELECT MIN\\(date\\)::text, MAX\\(date\\)::text").
		WillReturnRows(sqlmock.NewRows([]string{"min", "max"}).
			AddRow("2026-07-01", "2026-08-01"))

	minDate, maxDate, err := repo.DateRange(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "2026-07-01", minDate)
	assert.Equal(t, "2026-08-01", maxDate)
}

func TestDateRangeEmptyTable(t *testing.T) {
	repo, mock := newTestRepo(t)

	mock.ExpectQuery("SELECT MIN\\(date\\)::text, MAX\\(date\\)::text").
		WillReturnRows(sqlmock.NewRows([]string{"min", "max"}).
			AddRow(nil, nil))

	minDate, maxDate, err := repo.DateRange(context.Background())
	require.NoError(t, err)
	assert.Empty(t, minDate)
	assert.Empty(t, maxDate)
}

func TestInitSchema(t *testing.T) {
	repo, mock := newTestRepo(t)

	mock.ExpectExec("CREATE TABLE IF NOT EXISTS biometric_logs").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("CREATE INDEX IF NOT EXISTS idx_bio_weight").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("CREATE INDEX IF NOT EXISTS idx_bio_deep_sleep_ratio").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("CREATE INDEX IF NOT EXISTS idx_bio_analyst").
		WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, repo.InitSchema(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}
