package importer

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
)

var testHeader = []interface{}{
	"date", "total_sleep_min", "deep_sleep_min",
	"hrv_0000", "hrv_0200", "hrv_0400", "hrv_0600", "hrv_0800", "hrv_1200",
	"weight", "fatigue_score", "carb_limit_check", "interventions",
}

// writeTestXlsx 生成测试用 xlsx 文件，首行为表头
func writeTestXlsx(t *testing.T, rows [][]interface{}) string {
	t.Helper()

	f := excelize.NewFile()
	defer f.Close()

	sheet := f.GetSheetName(0)
	require.NoError(t, f.SetSheetRow(sheet, "A1", &testHeader))
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow(sheet, cell, &row))
	}

	path := filepath.Join(t.TempDir(), "logs.xlsx")
	require.NoError(t, f.SaveAs(path))
	return path
}

func TestImportFile(t *testing.T) {
	imp := NewImporter(zap.NewNop())

	path := writeTestXlsx(t, [][]interface{}{
		{"2026-08-01", 420, 80, 55, 60, 80, 70, 65, 62, 90.5, 4, "true", "咖啡限制,冷水澡"},
		{"2026-08-02", 400, 60, 50, 55, 70, 68, 60, 58, 90.2, 5, "否", ""},
	})

	records, rowErrors, err := imp.ImportFile(path)
	require.NoError(t, err)
	assert.Empty(t, rowErrors)
	require.Len(t, records, 2)

	rec := records[0]
	assert.Equal(t, "2026-08-01", rec.Date)
	assert.Equal(t, 420, rec.TotalSleepMin)
	assert.Equal(t, 80, rec.DeepSleepMin)
	assert.Equal(t, 65, rec.HRV0800)
	assert.Equal(t, 90.5, rec.Weight)
	assert.True(t, rec.CarbLimitObserved)
	assert.Equal(t, []string{"咖啡限制", "冷水澡"}, rec.Interventions)

	assert.False(t, records[1].CarbLimitObserved)
	assert.Empty(t, records[1].Interventions)
}

func TestImportFileSkipsBadRows(t *testing.T) {
	imp := NewImporter(zap.NewNop())

	path := writeTestXlsx(t, [][]interface{}{
		{"2026-08-01", 420, 80, 55, 60, 80, 70, 65, 62, 90.5, 4, "", ""},
		{"bad-date", 420, 80, 55, 60, 80, 70, 65, 62, 90.5, 4, "", ""},    // 日期格式错
		{"2026-08-03", 420, 500, 55, 60, 80, 70, 65, 62, 90.5, 4, "", ""}, // 深睡超总睡眠
		{"2026-08-04", 420, 80, 55, 60, 80, 70, 65, 62, 90.5, 11, "", ""}, // 疲劳度越界
		{"2026-08-05", 420, 80, 55, 60, 80, 70, -5, 62, 90.5, 4, "", ""},  // HRV为负
		{"2026-08-06", 420, 80, 55, 60, 999, 70, 65, 62, 90.5, 4, "", ""}, // HRV超上限
		{"2026-08-07", 420, 80, 55, 60, 80, 70, 65, 62, 90.5, 4, "", ""},
	})

	records, rowErrors, err := imp.ImportFile(path)
	require.NoError(t, err)
	require.Len(t, records, 2)
	require.Len(t, rowErrors, 5)

	assert.Equal(t, "2026-08-01", records[0].Date)
	assert.Equal(t, "2026-08-07", records[1].Date)
	// 行号从2开始计（1为表头）
	assert.Equal(t, 3, rowErrors[0].Row)
	assert.Equal(t, 4, rowErrors[1].Row)
	assert.Equal(t, 5, rowErrors[2].Row)
	assert.Equal(t, 6, rowErrors[3].Row)
	assert.Contains(t, rowErrors[3].Err.Error(), "hrv_0800")
	assert.Equal(t, 7, rowErrors[4].Row)
	assert.Contains(t, rowErrors[4].Err.Error(), "hrv_0400")
}

func TestImportFileMissingColumn(t *testing.T) {
	imp := NewImporter(zap.NewNop())

	f := excelize.NewFile()
	defer f.Close()
	sheet := f.GetSheetName(0)
	header := []interface{}{"date", "weight"} // 缺大部分必需列
	require.NoError(t, f.SetSheetRow(sheet, "A1", &header))
	row := []interface{}{"2026-08-01", 90.5}
	require.NoError(t, f.SetSheetRow(sheet, "A2", &row))

	path := filepath.Join(t.TempDir(), "bad.xlsx")
	require.NoError(t, f.SaveAs(path))

	_, _, err := imp.ImportFile(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing required column")
}

func TestImportFileNotFound(t *testing.T) {
	imp := NewImporter(zap.NewNop())

	_, _, err := imp.ImportFile(filepath.Join(t.TempDir(), "missing.xlsx"))
	require.Error(t, err)
}

func TestImportFileNoDataRows(t *testing.T) {
	imp := NewImporter(zap.NewNop())

	path := writeTestXlsx(t, nil)
	_, _, err := imp.ImportFile(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no data rows")
}
