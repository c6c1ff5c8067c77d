package importer

import (
	"fmt"
	"strconv"
	"strings"

	"biomonitor/internal/models"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
)

// Importer 日志批量导入器（录入协作方）
// 数值区间校验在这里完成：进入引擎的记录保证满足数据模型不变量。
type Importer struct {
	logger *zap.Logger
}

// NewImporter 创建导入器
func NewImporter(logger *zap.Logger) *Importer {
	return &Importer{logger: logger}
}

// RowError 单行导入失败信息（坏行跳过，不中断整体导入）
type RowError struct {
	Row int
	Err error
}

func (e RowError) Error() string {
	return fmt.Sprintf("row %d: %v", e.Row, e.Err)
}

// ImportFile 从 xlsx 文件读取日志记录
// 第一张工作表，首行为表头。返回通过校验的记录与逐行错误。
func (i *Importer) ImportFile(path string) ([]*models.BiometricRecord, []RowError, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open xlsx file: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, nil, fmt.Errorf("xlsx file has no sheets: %s", path)
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read sheet %s: %w", sheets[0], err)
	}
	if len(rows) < 2 {
		return nil, nil, fmt.Errorf("sheet %s has no data rows", sheets[0])
	}

	// 表头 → 列号映射（列顺序不做假设）
	colIndex := map[string]int{}
	for idx, name := range rows[0] {
		colIndex[strings.ToLower(strings.TrimSpace(name))] = idx
	}

	required := []string{
		"date", "total_sleep_min", "deep_sleep_min",
		"hrv_0000", "hrv_0400", "hrv_0800",
		"weight", "fatigue_score",
	}
	for _, col := range required {
		if _, ok := colIndex[col]; !ok {
			return nil, nil, fmt.Errorf("missing required column: %s", col)
		}
	}

	var records []*models.BiometricRecord
	var rowErrors []RowError

	for rowNum, row := range rows[1:] {
		rec, err := parseRow(row, colIndex)
		if err != nil {
			rowErrors = append(rowErrors, RowError{Row: rowNum + 2, Err: err})
			i.logger.Warn("Skipped malformed import row",
				zap.Int("row", rowNum+2),
				zap.Error(err),
			)
			continue
		}
		records = append(records, rec)
	}

	i.logger.Info("Import file parsed",
		zap.String("path", path),
		zap.Int("records", len(records)),
		zap.Int("skipped", len(rowErrors)),
	)

	return records, rowErrors, nil
}

// parseRow 解析并校验单行
func parseRow(row []string, colIndex map[string]int) (*models.BiometricRecord, error) {
	cell := func(name string) string {
		idx, ok := colIndex[name]
		if !ok || idx >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[idx])
	}

	intCell := func(name string) (int, error) {
		v := cell(name)
		if v == "" {
			return 0, nil
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return 0, fmt.Errorf("column %s: invalid integer %q", name, v)
		}
		return n, nil
	}

	rec := &models.BiometricRecord{
		Date: cell("date"),
	}

	var err error
	if rec.TotalSleepMin, err = intCell("total_sleep_min"); err != nil {
		return nil, err
	}
	if rec.DeepSleepMin, err = intCell("deep_sleep_min"); err != nil {
		return nil, err
	}
	if rec.HRV0000, err = intCell("hrv_0000"); err != nil {
		return nil, err
	}
	if rec.HRV0200, err = intCell("hrv_0200"); err != nil {
		return nil, err
	}
	if rec.HRV0400, err = intCell("hrv_0400"); err != nil {
		return nil, err
	}
	if rec.HRV0600, err = intCell("hrv_0600"); err != nil {
		return nil, err
	}
	if rec.HRV0800, err = intCell("hrv_0800"); err != nil {
		return nil, err
	}
	if rec.HRV1200, err = intCell("hrv_1200"); err != nil {
		return nil, err
	}
	if rec.FatigueScore, err = intCell("fatigue_score"); err != nil {
		return nil, err
	}

	if w := cell("weight"); w != "" {
		rec.Weight, err = strconv.ParseFloat(w, 64)
		if err != nil {
			return nil, fmt.Errorf("column weight: invalid number %q", w)
		}
	}

	switch strings.ToLower(cell("carb_limit_check")) {
	case "true", "1", "yes", "是":
		rec.CarbLimitObserved = true
	}

	rec.Interventions = models.SplitInterventions(cell("interventions"))

	if err := rec.Validate(); err != nil {
		return nil, err
	}
	return rec, nil
}
