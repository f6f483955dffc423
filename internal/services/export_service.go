// internal/services/export_service.go
package services

import (
	"context"
	"encoding/json"
	"fmt"
	"html"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dlmmedia/powerwrite/internal/config"
	"github.com/dlmmedia/powerwrite/internal/errors"
	"github.com/dlmmedia/powerwrite/internal/models"
	"github.com/dlmmedia/powerwrite/internal/utils"
)

// ExportService 将整本书导出为下载文档
// 导出直接基于章节原文，不经过阅读器分页
type ExportService struct {
	BookService     *BookService
	CitationService *CitationService
}

// exportPayload JSON导出的完整载荷
type exportPayload struct {
	Book         models.Book      `json:"book"`
	Chapters     []models.Chapter `json:"chapters"`
	Bibliography []string         `json:"bibliography,omitempty"`
	ExportedAt   time.Time        `json:"exported_at"`
}

// NewExportService 创建导出服务
func NewExportService(bookService *BookService, citationService *CitationService) *ExportService {
	return &ExportService{
		BookService:     bookService,
		CitationService: citationService,
	}
}

// ExportBook 导出整本书
// format: txt, markdown, html, json；style 控制参考文献表的引用格式
func (s *ExportService) ExportBook(ctx context.Context, bookID, format string, style models.CitationStyle) (*models.ExportResult, error) {
	format = strings.ToLower(format)
	switch format {
	case "txt", "markdown", "html", "json":
	case "md":
		format = "markdown"
	default:
		return nil, errors.NewValidationError(fmt.Sprintf("不支持的导出格式: %s", format), nil)
	}

	if err := ctx.Err(); err != nil {
		return nil, errors.NewAppError(errors.ErrorTypeTimeout, "导出已取消", err)
	}

	book, err := s.BookService.GetBook(bookID)
	if err != nil {
		return nil, err
	}

	chapters, err := s.BookService.GetChapters(bookID)
	if err != nil {
		return nil, err
	}

	bibliography, err := s.CitationService.FormatBibliography(bookID, style)
	if err != nil {
		// 文献表缺失不阻断导出
		bibliography = nil
	}

	var content string
	switch format {
	case "json":
		content, err = s.formatAsJSON(book, chapters, bibliography)
	case "markdown":
		content = s.formatAsMarkdown(book, chapters, bibliography)
	case "html":
		content = s.formatAsHTML(book, chapters, bibliography)
	default:
		content = s.formatAsText(book, chapters, bibliography)
	}
	if err != nil {
		return nil, err
	}

	result := &models.ExportResult{
		Title:     book.Title,
		BookID:    bookID,
		Format:    format,
		Content:   content,
		CreatedAt: time.Now(),
	}

	// 同时落盘一份到导出目录，失败只记录不中断
	if path, size, err := s.saveExportToDataDir(result); err == nil {
		result.FilePath = path
		result.FileSize = size
	}

	return result, nil
}

// formatAsJSON 导出为结构化JSON
func (s *ExportService) formatAsJSON(book *models.Book, chapters []models.Chapter, bibliography []string) (string, error) {
	payload := exportPayload{
		Book:         *book,
		Chapters:     chapters,
		Bibliography: bibliography,
		ExportedAt:   time.Now(),
	}

	data, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return "", errors.NewProcessingError("序列化导出数据失败", err)
	}

	return string(data), nil
}

// formatAsText 导出为纯文本
func (s *ExportService) formatAsText(book *models.Book, chapters []models.Chapter, bibliography []string) string {
	var sb strings.Builder

	sb.WriteString(book.Title + "\n")
	if book.Author != "" {
		sb.WriteString(book.Author + "\n")
	}
	sb.WriteString(strings.Repeat("=", 40) + "\n\n")

	for _, chapter := range chapters {
		sb.WriteString(fmt.Sprintf("第 %d 章  %s\n\n", chapter.Number, chapter.Title))
		sb.WriteString(chapter.Content)
		sb.WriteString("\n\n")
	}

	if len(bibliography) > 0 {
		sb.WriteString(strings.Repeat("-", 40) + "\n")
		sb.WriteString("参考文献\n\n")
		for _, entry := range bibliography {
			sb.WriteString(entry + "\n")
		}
	}

	return sb.String()
}

// formatAsMarkdown 导出为Markdown
func (s *ExportService) formatAsMarkdown(book *models.Book, chapters []models.Chapter, bibliography []string) string {
	var sb strings.Builder

	sb.WriteString("# " + book.Title + "\n\n")
	if book.Author != "" {
		sb.WriteString("**" + book.Author + "**\n\n")
	}
	if book.Description != "" {
		sb.WriteString("> " + book.Description + "\n\n")
	}

	for _, chapter := range chapters {
		sb.WriteString(fmt.Sprintf("## 第 %d 章  %s\n\n", chapter.Number, chapter.Title))
		sb.WriteString(chapter.Content)
		sb.WriteString("\n\n")
	}

	if len(bibliography) > 0 {
		sb.WriteString("## 参考文献\n\n")
		for _, entry := range bibliography {
			sb.WriteString("- " + entry + "\n")
		}
	}

	return sb.String()
}

// formatAsHTML 导出为单文件HTML
func (s *ExportService) formatAsHTML(book *models.Book, chapters []models.Chapter, bibliography []string) string {
	var sb strings.Builder

	sb.WriteString("<!DOCTYPE html>\n<html>\n<head>\n")
	sb.WriteString("<meta charset=\"utf-8\">\n")
	sb.WriteString("<title>" + html.EscapeString(book.Title) + "</title>\n")
	sb.WriteString("<style>body{max-width:42em;margin:0 auto;padding:2em;font-family:Georgia,serif;line-height:1.6}</style>\n")
	sb.WriteString("</head>\n<body>\n")

	sb.WriteString("<h1>" + html.EscapeString(book.Title) + "</h1>\n")
	if book.Author != "" {
		sb.WriteString("<p class=\"author\">" + html.EscapeString(book.Author) + "</p>\n")
	}

	for _, chapter := range chapters {
		sb.WriteString(fmt.Sprintf("<h2>第 %d 章  %s</h2>\n", chapter.Number, html.EscapeString(chapter.Title)))
		for _, paragraph := range strings.Split(chapter.Content, "\n\n") {
			paragraph = strings.TrimSpace(paragraph)
			if paragraph == "" {
				continue
			}
			sb.WriteString("<p>" + html.EscapeString(paragraph) + "</p>\n")
		}
	}

	if len(bibliography) > 0 {
		sb.WriteString("<h2>参考文献</h2>\n<ul>\n")
		for _, entry := range bibliography {
			sb.WriteString("<li>" + html.EscapeString(entry) + "</li>\n")
		}
		sb.WriteString("</ul>\n")
	}

	sb.WriteString("</body>\n</html>\n")
	return sb.String()
}

// saveExportToDataDir 将导出内容保存到数据目录
func (s *ExportService) saveExportToDataDir(result *models.ExportResult) (string, int64, error) {
	cfg := config.GetCurrentConfig()
	exportDir := filepath.Join(cfg.DataDir, "exports")
	if err := os.MkdirAll(exportDir, 0755); err != nil {
		return "", 0, fmt.Errorf("创建导出目录失败: %w", err)
	}

	ext := result.Format
	if ext == "markdown" {
		ext = "md"
	}
	filename := fmt.Sprintf("%s-%s.%s",
		utils.SanitizeFilename(result.Title),
		time.Now().Format("20060102-150405"),
		ext)
	fullPath := filepath.Join(exportDir, filename)

	if err := os.WriteFile(fullPath, []byte(result.Content), 0644); err != nil {
		return "", 0, fmt.Errorf("写入导出文件失败: %w", err)
	}

	info, err := os.Stat(fullPath)
	if err != nil {
		return fullPath, 0, nil
	}

	return fullPath, info.Size(), nil
}
