// internal/utils/text_test.go
package utils

import "testing"

// TestCountWords 测试词数统计
func TestCountWords(t *testing.T) {
	cases := []struct {
		content string
		want    int
	}{
		{"", 0},
		{"   ", 0},
		{"hello", 1},
		{"hello world", 2},
		{"  multiple   spaces\tand\nnewlines  ", 4},
	}

	for _, tc := range cases {
		if got := CountWords(tc.content); got != tc.want {
			t.Errorf("CountWords(%q) = %d, 期望 %d", tc.content, got, tc.want)
		}
	}
}

// TestSanitizeFilename 测试文件名安全化
func TestSanitizeFilename(t *testing.T) {
	cases := []struct {
		title string
		want  string
	}{
		{"My Great Book", "my-great-book"},
		{"Book: The Sequel!", "book-the-sequel"},
		{"  trimmed  ", "trimmed"},
		{"中文书名", "中文书名"},
		{"///", "untitled"},
		{"", "untitled"},
	}

	for _, tc := range cases {
		if got := SanitizeFilename(tc.title); got != tc.want {
			t.Errorf("SanitizeFilename(%q) = %q, 期望 %q", tc.title, got, tc.want)
		}
	}
}

// TestTruncate 测试按字符截断
func TestTruncate(t *testing.T) {
	cases := []struct {
		text string
		max  int
		want string
	}{
		{"short", 10, "short"},
		{"exactly", 7, "exactly"},
		{"overflowing", 4, "over..."},
		{"中文也按字符截断", 4, "中文也按..."},
		{"anything", 0, ""},
	}

	for _, tc := range cases {
		if got := Truncate(tc.text, tc.max); got != tc.want {
			t.Errorf("Truncate(%q, %d) = %q, 期望 %q", tc.text, tc.max, got, tc.want)
		}
	}
}
