// internal/utils/text.go
package utils

import (
	"strings"
	"unicode"
)

// CountWords 统计正文词数（按空白切分）
func CountWords(content string) int {
	return len(strings.Fields(content))
}

// SanitizeFilename 将标题转换为安全的文件名
func SanitizeFilename(title string) string {
	var builder strings.Builder
	for _, r := range title {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			builder.WriteRune(r)
		case unicode.IsSpace(r) || r == '-' || r == '_':
			builder.WriteRune('-')
		}
	}

	name := strings.Trim(builder.String(), "-")
	if name == "" {
		name = "untitled"
	}
	return strings.ToLower(name)
}

// Truncate 将文本截断到最多 max 个字符并追加省略号
func Truncate(text string, max int) string {
	if max <= 0 {
		return ""
	}

	runes := []rune(text)
	if len(runes) <= max {
		return text
	}
	return string(runes[:max]) + "..."
}
