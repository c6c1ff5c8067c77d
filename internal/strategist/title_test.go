package strategist

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractTitle(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{
			"plain first line",
			"2026-08-01_核心战备状态绿色，各系统运转正常\n\n正文内容",
			"2026-08-01_核心战备状态绿色，各系统运转正常",
		},
		{
			"skips markdown heading marker",
			"# 标题行\n2026-08-01_核心战备状态黄色，需关注睡眠\n正文",
			"2026-08-01_核心战备状态黄色，需关注睡眠",
		},
		{
			"strips bold and book quotes",
			"**《2026-08-01_核心战备状态红色，立即减负》**\n正文",
			"2026-08-01_核心战备状态红色，立即减负",
		},
		{
			"skips short lines",
			"短行\n这是一个足够长的标题行，可以作为报告标题",
			"这是一个足够长的标题行，可以作为报告标题",
		},
		{
			"empty body falls back",
			"",
			"健康战备报告",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExtractTitle(tt.body))
		})
	}
}

func TestFixTitleDate(t *testing.T) {
	// 语言模型写错日期（用了生成当天而非记录日期）→ 替换
	got := FixTitleDate("2026-08-30_核心战备状态绿色", "2026-08-01")
	assert.Equal(t, "2026-08-01_核心战备状态绿色", got)

	// 标题中出现多个日期 → 全部替换
	got = FixTitleDate("2026-08-30与2026-08-29对比报告", "2026-08-01")
	assert.Equal(t, "2026-08-01与2026-08-01对比报告", got)

	// 没有日期 → 前缀补充
	got = FixTitleDate("核心战备状态绿色", "2026-08-01")
	assert.Equal(t, "2026-08-01_核心战备状态绿色", got)

	// 日期已正确 → 原样返回
	got = FixTitleDate("2026-08-01_核心战备状态绿色", "2026-08-01")
	assert.Equal(t, "2026-08-01_核心战备状态绿色", got)

	// 空标题不处理
	assert.Equal(t, "", FixTitleDate("", "2026-08-01"))
}
