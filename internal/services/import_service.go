// internal/services/import_service.go
package services

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/dlmmedia/powerwrite/internal/errors"
	"github.com/dlmmedia/powerwrite/internal/models"
)

// ImportService 将外部HTML文档导入为章节
// 标记被剥离为空行分隔的纯文本段落（阅读器正文格式）
type ImportService struct {
	BookService *BookService
}

// ImportedChapter 解析出的一个章节草稿
type ImportedChapter struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

// NewImportService 创建导入服务
func NewImportService(bookService *BookService) *ImportService {
	return &ImportService{BookService: bookService}
}

// ImportHTML 将HTML文档导入到指定书籍
//
// splitChapters 为真时按 h1/h2 标题切分为多个章节，标题作为章节名；
// 为假时整个文档并入单个章节，标题取文档 title 或首个标题，
// 缺省时使用 fallbackTitle。
func (s *ImportService) ImportHTML(bookID, htmlContent, fallbackTitle string, splitChapters bool) ([]models.Chapter, error) {
	if strings.TrimSpace(htmlContent) == "" {
		return nil, errors.NewValidationError("导入内容为空", nil)
	}

	parsed, err := ParseHTMLChapters(htmlContent, fallbackTitle, splitChapters)
	if err != nil {
		return nil, err
	}
	if len(parsed) == 0 {
		return nil, errors.NewValidationError("未能从文档中提取任何文本", nil)
	}

	created := make([]models.Chapter, 0, len(parsed))
	for _, draft := range parsed {
		chapter, err := s.BookService.CreateChapter(bookID, draft.Title, draft.Content)
		if err != nil {
			return created, err
		}
		created = append(created, *chapter)
	}

	return created, nil
}

// ParseHTMLChapters 纯解析：HTML -> 章节草稿列表
func ParseHTMLChapters(htmlContent, fallbackTitle string, splitChapters bool) ([]ImportedChapter, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(htmlContent))
	if err != nil {
		return nil, errors.NewValidationError("解析HTML失败", err)
	}

	if fallbackTitle == "" {
		fallbackTitle = strings.TrimSpace(doc.Find("title").First().Text())
	}
	if fallbackTitle == "" {
		fallbackTitle = "导入章节"
	}

	var chapters []ImportedChapter
	current := ImportedChapter{Title: fallbackTitle}
	var paragraphs []string

	flush := func() {
		if len(paragraphs) > 0 {
			current.Content = strings.Join(paragraphs, "\n\n")
			chapters = append(chapters, current)
		}
		paragraphs = nil
	}

	doc.Find("h1, h2, p, blockquote, li").Each(func(i int, sel *goquery.Selection) {
		text := normalizeWhitespace(sel.Text())
		if text == "" {
			return
		}

		if goquery.NodeName(sel) == "h1" || goquery.NodeName(sel) == "h2" {
			if splitChapters {
				flush()
				current = ImportedChapter{Title: text}
			} else if len(paragraphs) == 0 && current.Title == fallbackTitle {
				// 单章模式下首个标题作为章节名
				current.Title = text
			}
			return
		}

		paragraphs = append(paragraphs, text)
	})
	flush()

	// 文档没有任何段落标签时，退回整体文本提取
	if len(chapters) == 0 {
		if text := normalizeWhitespace(doc.Find("body").Text()); text != "" {
			chapters = append(chapters, ImportedChapter{Title: fallbackTitle, Content: text})
		}
	}

	return chapters, nil
}

// normalizeWhitespace 折叠段内空白为单个空格
func normalizeWhitespace(text string) string {
	return strings.Join(strings.Fields(text), " ")
}
