package strategist

import (
	"regexp"
	"strings"
)

var datePattern = regexp.MustCompile(`\d{4}-\d{2}-\d{2}`)

// defaultTitle 提取失败时的兜底标题
const defaultTitle = "健康战备报告"

// ExtractTitle 从报告正文提取一句话标题
// 取第一个非空、非标题标记（#开头）、长度足够的行，
// 清理加粗符号与书名号。
func ExtractTitle(body string) string {
	for _, line := range strings.Split(body, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if len([]rune(line)) <= 10 {
			continue
		}
		line = strings.ReplaceAll(line, "**", "")
		line = strings.ReplaceAll(line, "《", "")
		line = strings.ReplaceAll(line, "》", "")
		return strings.TrimSpace(line)
	}
	return defaultTitle
}

// FixTitleDate 修正标题中的日期，确保与记录日期一致
// 语言模型偶尔会写成生成当天的日期；标题日期与记录日期不一致属于缺陷。
// 标题中没有日期时，在开头补上记录日期。
func FixTitleDate(title, recordDate string) string {
	if title == "" || recordDate == "" {
		return title
	}

	if datePattern.MatchString(title) {
		return datePattern.ReplaceAllString(title, recordDate)
	}

	if !strings.HasPrefix(title, recordDate) {
		return recordDate + "_" + title
	}
	return title
}
