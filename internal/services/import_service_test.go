// internal/services/import_service_test.go
package services

import (
	"testing"

	"github.com/dlmmedia/powerwrite/internal/errors"
)

// TestParseHTMLChaptersSplit 测试按h1/h2切分章节
func TestParseHTMLChaptersSplit(t *testing.T) {
	html := `
		<html><body>
			<h1>第一章</h1>
			<p>第一段。</p>
			<p>第二段。</p>
			<h2>第二章</h2>
			<p>另一章的内容。</p>
		</body></html>`

	chapters, err := ParseHTMLChapters(html, "", true)
	if err != nil {
		t.Fatalf("解析HTML失败: %v", err)
	}
	if len(chapters) != 2 {
		t.Fatalf("应该切分出2个章节，实际: %d", len(chapters))
	}

	if chapters[0].Title != "第一章" {
		t.Errorf("章节标题应该取自标题标签，实际: %s", chapters[0].Title)
	}
	if chapters[0].Content != "第一段。\n\n第二段。" {
		t.Errorf("段落应该用空行分隔:\n%s", chapters[0].Content)
	}
	if chapters[1].Title != "第二章" || chapters[1].Content != "另一章的内容。" {
		t.Errorf("第二个章节不符合预期: %+v", chapters[1])
	}
}

// TestParseHTMLChaptersSingle 测试单章模式合并全文
func TestParseHTMLChaptersSingle(t *testing.T) {
	html := `
		<html><body>
			<h1>整篇标题</h1>
			<p>第一段。</p>
			<h2>小节</h2>
			<p>第二段。</p>
		</body></html>`

	chapters, err := ParseHTMLChapters(html, "", false)
	if err != nil {
		t.Fatalf("解析HTML失败: %v", err)
	}
	if len(chapters) != 1 {
		t.Fatalf("单章模式应该只有1个章节，实际: %d", len(chapters))
	}
	if chapters[0].Title != "整篇标题" {
		t.Errorf("单章模式应该用首个标题作章节名，实际: %s", chapters[0].Title)
	}
	if chapters[0].Content != "第一段。\n\n第二段。" {
		t.Errorf("全部段落应该并入同一章节:\n%s", chapters[0].Content)
	}
}

// TestParseHTMLChaptersFallbackTitle 测试标题回退链
func TestParseHTMLChaptersFallbackTitle(t *testing.T) {
	// 文档title优先于默认名
	html := `<html><head><title>文档标题</title></head><body><p>内容。</p></body></html>`
	chapters, err := ParseHTMLChapters(html, "", false)
	if err != nil {
		t.Fatalf("解析HTML失败: %v", err)
	}
	if len(chapters) != 1 || chapters[0].Title != "文档标题" {
		t.Errorf("应该使用文档title作为章节名: %+v", chapters)
	}

	// 显式fallback优先于文档title
	chapters, _ = ParseHTMLChapters(html, "指定标题", false)
	if chapters[0].Title != "指定标题" {
		t.Errorf("显式标题应该优先，实际: %s", chapters[0].Title)
	}

	// 什么都没有时用默认名
	chapters, _ = ParseHTMLChapters(`<p>无标题内容。</p>`, "", false)
	if chapters[0].Title != "导入章节" {
		t.Errorf("无标题时应该使用默认名，实际: %s", chapters[0].Title)
	}
}

// TestParseHTMLChaptersWhitespace 测试段内空白折叠
func TestParseHTMLChaptersWhitespace(t *testing.T) {
	html := "<p>  first\n\t line  \n continues  </p>"

	chapters, err := ParseHTMLChapters(html, "t", false)
	if err != nil {
		t.Fatalf("解析HTML失败: %v", err)
	}
	if chapters[0].Content != "first line continues" {
		t.Errorf("段内空白应该折叠为单个空格，实际: %q", chapters[0].Content)
	}
}

// TestParseHTMLChaptersPlainText 测试无段落标签时整体提取
func TestParseHTMLChaptersPlainText(t *testing.T) {
	html := `<html><body><div>只有裸文本的文档</div></body></html>`

	chapters, err := ParseHTMLChapters(html, "裸文本", false)
	if err != nil {
		t.Fatalf("解析HTML失败: %v", err)
	}
	if len(chapters) != 1 || chapters[0].Content != "只有裸文本的文档" {
		t.Errorf("应该退回整体文本提取: %+v", chapters)
	}
}

// TestImportHTMLCreatesChapters 测试导入写入书籍
func TestImportHTMLCreatesChapters(t *testing.T) {
	bookService := newTestBookService(t)
	svc := NewImportService(bookService)

	book, _ := bookService.CreateBook("导入测试", "", "", "")

	html := `<h1>开篇</h1><p>内容甲。</p><h1>续篇</h1><p>内容乙。</p>`
	created, err := svc.ImportHTML(book.ID, html, "", true)
	if err != nil {
		t.Fatalf("导入HTML失败: %v", err)
	}
	if len(created) != 2 {
		t.Fatalf("应该创建2个章节，实际: %d", len(created))
	}
	if created[0].Number != 1 || created[1].Number != 2 {
		t.Errorf("导入的章节应该按顺序编号: %d, %d", created[0].Number, created[1].Number)
	}

	chapters, _ := bookService.GetChapters(book.ID)
	if len(chapters) != 2 {
		t.Errorf("章节应该已写入书籍，实际: %d", len(chapters))
	}
}

// TestImportHTMLEmpty 测试空内容被拒绝
func TestImportHTMLEmpty(t *testing.T) {
	svc := NewImportService(newTestBookService(t))

	if _, err := svc.ImportHTML("book-1", "   ", "", true); !errors.IsValidationError(err) {
		t.Errorf("空内容应该返回校验错误，实际: %v", err)
	}
}
