// internal/pagination/paginator.go
package pagination

import (
	"regexp"
	"strings"
)

// FontSize 阅读器字号档位
type FontSize string

const (
	FontSmall  FontSize = "small"
	FontBase   FontSize = "base"
	FontLarge  FontSize = "large"
	FontXLarge FontSize = "xlarge"
)

// fontMetrics 每档字号的估算常量
// 平均字符宽度与行高均为像素值，用于估算排版容量，不做真实测量
type fontMetrics struct {
	AvgCharWidth float64 // 平均字符宽度
	LineHeight   float64 // 行高
}

// 字号常量表
var fontMetricsTable = map[FontSize]fontMetrics{
	FontSmall:  {AvgCharWidth: 7.2, LineHeight: 24},
	FontBase:   {AvgCharWidth: 8.0, LineHeight: 28},
	FontLarge:  {AvgCharWidth: 8.8, LineHeight: 32},
	FontXLarge: {AvgCharWidth: 9.6, LineHeight: 36},
}

// PageOptions 单页的像素尺寸
type PageOptions struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// DefaultPageOptions 双页展开中单页的默认尺寸
var DefaultPageOptions = PageOptions{Width: 420, Height: 560}

// TextChunk 表示一页上的一个文本块
// 不变式: StartCharIndex < EndCharIndex；同一章节内按偏移非递减产出
// （超长段落按词拆分时，边界偏移允许轻微重叠）
type TextChunk struct {
	Text             string `json:"text"`
	StartCharIndex   int    `json:"start_char_index"`
	EndCharIndex     int    `json:"end_char_index"`
	IsParagraphStart bool   `json:"is_paragraph_start"`
}

// PaginatedContent 单章的分页结果
// 派生数据，不持久化；章节内容或字号变化时重新计算
type PaginatedContent struct {
	Pages      [][]TextChunk `json:"pages"`
	TotalPages int           `json:"total_pages"`
}

// paragraph 带原文偏移的段落
type paragraph struct {
	text  string
	start int
	end   int
}

// 段落分隔：两个及以上连续换行
var paragraphSeparator = regexp.MustCompile(`\n{2,}`)

// metricsFor 返回指定字号的常量，未知字号回退到 base
func metricsFor(fontSize FontSize) fontMetrics {
	if m, ok := fontMetricsTable[fontSize]; ok {
		return m
	}
	return fontMetricsTable[FontBase]
}

// splitParagraphs 将正文按空行切分为段落，并记录每段在原文中的偏移
// 从上一次找到的位置向前扫描，避免重复段落命中同一偏移；
// 找不到时退回当前扫描位置（尽力而为，不视为错误）
func splitParagraphs(content string) []paragraph {
	parts := paragraphSeparator.Split(content, -1)

	paragraphs := make([]paragraph, 0, len(parts))
	searchFrom := 0

	for _, part := range parts {
		text := strings.TrimSpace(part)
		if text == "" {
			continue
		}

		start := searchFrom
		if idx := strings.Index(content[searchFrom:], text); idx >= 0 {
			start = searchFrom + idx
		}
		end := start + len(text)

		paragraphs = append(paragraphs, paragraph{
			text:  text,
			start: start,
			end:   end,
		})

		searchFrom = end
	}

	return paragraphs
}

// estimateLineCost 估算段落占用的行数: ceil(len/charsPerLine) + 1
// 额外的一行近似段间距
func estimateLineCost(textLen, charsPerLine int) int {
	lines := (textLen + charsPerLine - 1) / charsPerLine
	return lines + 1
}

// PaginateContent 将一章正文切分为固定容量的页面序列
//
// 行数估算基于字符数启发式而非真实文本测量，页面可能偏差一两行，
// 以此换取无需排版引擎的 O(n) 单遍计算。
// 纯函数: 结果只取决于 (content, fontSize, opts)，可安全记忆化。
// 空内容也保证返回至少一个（空）页面。
func PaginateContent(content string, fontSize FontSize, opts PageOptions) PaginatedContent {
	if opts.Width <= 0 || opts.Height <= 0 {
		opts = DefaultPageOptions
	}

	m := metricsFor(fontSize)
	charsPerLine := int(opts.Width / m.AvgCharWidth)
	if charsPerLine < 1 {
		charsPerLine = 1
	}
	linesPerPage := int(opts.Height / m.LineHeight)
	if linesPerPage < 1 {
		linesPerPage = 1
	}

	var pages [][]TextChunk
	currentPage := []TextChunk{}
	currentLineCount := 0

	flushPage := func() {
		pages = append(pages, currentPage)
		currentPage = []TextChunk{}
		currentLineCount = 0
	}

	for _, p := range splitParagraphs(content) {
		cost := estimateLineCost(len(p.text), charsPerLine)

		// 放不下且当前页已有内容时换页
		if currentLineCount+cost > linesPerPage && len(currentPage) > 0 {
			flushPage()
		}

		// 单段超过整页容量：按词贪心拆分
		if cost > linesPerPage {
			appendOversizeParagraph(p, charsPerLine, linesPerPage,
				&currentPage, &currentLineCount, flushPage)
			continue
		}

		currentPage = append(currentPage, TextChunk{
			Text:             p.text,
			StartCharIndex:   p.start,
			EndCharIndex:     p.end,
			IsParagraphStart: true,
		})
		currentLineCount += cost
	}

	// 收尾：保证至少返回一页
	if len(currentPage) > 0 || len(pages) == 0 {
		flushPage()
	}

	return PaginatedContent{
		Pages:      pages,
		TotalPages: len(pages),
	}
}

// appendOversizeParagraph 将超长段落按词拆成多个块
// 块偏移从段落起点开始，每次落块后前进 len(块)+1（近似一个空格）
func appendOversizeParagraph(p paragraph, charsPerLine, linesPerPage int,
	currentPage *[]TextChunk, currentLineCount *int, flushPage func()) {

	words := strings.Fields(p.text)
	chunkStart := p.start
	chunkText := ""
	isFirst := true

	for _, word := range words {
		candidate := word
		if chunkText != "" {
			candidate = chunkText + " " + word
		}

		remaining := linesPerPage - *currentLineCount
		if estimateLineCost(len(candidate), charsPerLine) > remaining && chunkText != "" {
			*currentPage = append(*currentPage, TextChunk{
				Text:             chunkText,
				StartCharIndex:   chunkStart,
				EndCharIndex:     chunkStart + len(chunkText),
				IsParagraphStart: isFirst,
			})
			isFirst = false
			flushPage()

			chunkStart += len(chunkText) + 1
			chunkText = word
			continue
		}

		chunkText = candidate
	}

	if chunkText != "" {
		*currentPage = append(*currentPage, TextChunk{
			Text:             chunkText,
			StartCharIndex:   chunkStart,
			EndCharIndex:     chunkStart + len(chunkText),
			IsParagraphStart: isFirst,
		})
		*currentLineCount += estimateLineCost(len(chunkText), charsPerLine)
	}
}
