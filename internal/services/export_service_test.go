// internal/services/export_service_test.go
package services

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"strings"
	"testing"

	"github.com/dlmmedia/powerwrite/internal/errors"
	"github.com/dlmmedia/powerwrite/internal/models"
)

// newTestExportService 组装导出服务及其依赖，共享一个临时存储根
func newTestExportService(t *testing.T) (*ExportService, *BookService) {
	t.Helper()

	basePath := t.TempDir()
	t.Setenv("DATA_DIR", t.TempDir())

	bookService := NewBookService(basePath)
	citationService := NewCitationService(basePath)

	return NewExportService(bookService, citationService), bookService
}

func seedExportBook(t *testing.T, bookService *BookService) *models.Book {
	t.Helper()

	book, err := bookService.CreateBook("导出测试", "作者甲", "一段简介", "")
	if err != nil {
		t.Fatalf("创建书籍失败: %v", err)
	}
	if _, err := bookService.CreateChapter(book.ID, "第一章", "第一段。\n\n第二段。"); err != nil {
		t.Fatalf("创建章节失败: %v", err)
	}
	if _, err := bookService.CreateChapter(book.ID, "第二章", "结尾。"); err != nil {
		t.Fatalf("创建章节失败: %v", err)
	}
	return book
}

// TestExportBookMarkdown 测试Markdown导出结构
func TestExportBookMarkdown(t *testing.T) {
	svc, bookService := newTestExportService(t)
	book := seedExportBook(t, bookService)

	result, err := svc.ExportBook(context.Background(), book.ID, "markdown", models.StyleAPA)
	if err != nil {
		t.Fatalf("导出失败: %v", err)
	}

	if result.Format != "markdown" {
		t.Errorf("导出格式应该是markdown，实际: %s", result.Format)
	}
	for _, want := range []string{
		"# 导出测试",
		"**作者甲**",
		"## 第 1 章  第一章",
		"## 第 2 章  第二章",
		"第一段。",
	} {
		if !strings.Contains(result.Content, want) {
			t.Errorf("Markdown导出应该包含 %q:\n%s", want, result.Content)
		}
	}
}

// TestExportBookMDAlias 测试md作为markdown的别名
func TestExportBookMDAlias(t *testing.T) {
	svc, bookService := newTestExportService(t)
	book := seedExportBook(t, bookService)

	result, err := svc.ExportBook(context.Background(), book.ID, "md", models.StyleAPA)
	if err != nil {
		t.Fatalf("导出失败: %v", err)
	}
	if result.Format != "markdown" {
		t.Errorf("md应该规范化为markdown，实际: %s", result.Format)
	}
}

// TestExportBookJSON 测试JSON导出可以解析回结构
func TestExportBookJSON(t *testing.T) {
	svc, bookService := newTestExportService(t)
	book := seedExportBook(t, bookService)

	result, err := svc.ExportBook(context.Background(), book.ID, "json", models.StyleAPA)
	if err != nil {
		t.Fatalf("导出失败: %v", err)
	}

	var payload struct {
		Book     models.Book      `json:"book"`
		Chapters []models.Chapter `json:"chapters"`
	}
	if err := json.Unmarshal([]byte(result.Content), &payload); err != nil {
		t.Fatalf("JSON导出应该可以解析: %v", err)
	}
	if payload.Book.Title != "导出测试" {
		t.Errorf("导出的书名不一致: %s", payload.Book.Title)
	}
	if len(payload.Chapters) != 2 {
		t.Errorf("应该导出2个章节，实际: %d", len(payload.Chapters))
	}
}

// TestExportBookHTMLEscapes 测试HTML导出转义特殊字符
func TestExportBookHTMLEscapes(t *testing.T) {
	svc, bookService := newTestExportService(t)

	book, _ := bookService.CreateBook("Tom & Jerry", "", "", "")
	if _, err := bookService.CreateChapter(book.ID, "开场", "a < b 且 b > c"); err != nil {
		t.Fatalf("创建章节失败: %v", err)
	}

	result, err := svc.ExportBook(context.Background(), book.ID, "html", models.StyleAPA)
	if err != nil {
		t.Fatalf("导出失败: %v", err)
	}
	if !strings.Contains(result.Content, "Tom &amp; Jerry") {
		t.Error("书名中的特殊字符应该被转义")
	}
	if !strings.Contains(result.Content, "a &lt; b") {
		t.Error("正文中的特殊字符应该被转义")
	}
}

// TestExportBookWithBibliography 测试参考文献表附在导出末尾
func TestExportBookWithBibliography(t *testing.T) {
	svc, bookService := newTestExportService(t)
	book := seedExportBook(t, bookService)

	citationService := svc.CitationService
	if _, err := citationService.AddCitation(book.ID, models.Citation{
		Authors:   []string{"Smith, John"},
		Title:     "Go Patterns",
		Publisher: "Acme Press",
		Year:      2020,
	}); err != nil {
		t.Fatalf("添加文献失败: %v", err)
	}

	result, err := svc.ExportBook(context.Background(), book.ID, "txt", models.StyleAPA)
	if err != nil {
		t.Fatalf("导出失败: %v", err)
	}
	if !strings.Contains(result.Content, "参考文献") {
		t.Error("导出应该包含参考文献表")
	}
	if !strings.Contains(result.Content, "Smith, J. (2020). Go Patterns. Acme Press.") {
		t.Errorf("文献条目应该按APA渲染:\n%s", result.Content)
	}
}

// TestExportBookInvalidFormat 测试不支持的格式被拒绝
func TestExportBookInvalidFormat(t *testing.T) {
	svc, bookService := newTestExportService(t)
	book := seedExportBook(t, bookService)

	if _, err := svc.ExportBook(context.Background(), book.ID, "pdf", models.StyleAPA); !errors.IsValidationError(err) {
		t.Errorf("不支持的格式应该返回校验错误，实际: %v", err)
	}
}

// TestExportBookCancelledContext 测试取消后的导出返回超时错误
func TestExportBookCancelledContext(t *testing.T) {
	svc, bookService := newTestExportService(t)
	book := seedExportBook(t, bookService)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := svc.ExportBook(ctx, book.ID, "txt", models.StyleAPA)
	if err == nil {
		t.Fatal("取消的上下文应该中断导出")
	}
	var appErr *errors.AppError
	if !stderrors.As(err, &appErr) || appErr.Type != errors.ErrorTypeTimeout {
		t.Errorf("应该返回超时类错误，实际: %v", err)
	}
}

// TestExportBookMissing 测试导出不存在的书籍
func TestExportBookMissing(t *testing.T) {
	svc, _ := newTestExportService(t)

	if _, err := svc.ExportBook(context.Background(), "ghost", "txt", models.StyleAPA); !errors.IsNotFoundError(err) {
		t.Errorf("不存在的书籍应该返回NotFound，实际: %v", err)
	}
}
