// internal/services/citation_service_test.go
package services

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/dlmmedia/powerwrite/internal/errors"
	"github.com/dlmmedia/powerwrite/internal/models"
)

// newTestCitationService 创建指向临时目录的文献服务并建好书籍目录
func newTestCitationService(t *testing.T, bookID string) *CitationService {
	t.Helper()

	basePath := t.TempDir()
	if err := os.MkdirAll(filepath.Join(basePath, bookID), 0755); err != nil {
		t.Fatalf("创建书籍目录失败: %v", err)
	}

	return NewCitationService(basePath)
}

// TestFormatCitationAPA 测试APA格式渲染
func TestFormatCitationAPA(t *testing.T) {
	svc := NewCitationService(t.TempDir())

	book := models.Citation{
		Kind:      models.CitationBook,
		Authors:   []string{"Tolkien, John Ronald"},
		Title:     "The Hobbit",
		Publisher: "Allen & Unwin",
		Year:      1937,
	}
	want := "Tolkien, J. R. (1937). The Hobbit. Allen & Unwin."
	if got := svc.FormatCitation(book, models.StyleAPA); got != want {
		t.Errorf("APA专著格式:\n得到: %s\n期望: %s", got, want)
	}

	journal := models.Citation{
		Kind:    models.CitationJournal,
		Authors: []string{"Shannon, Claude"},
		Title:   "A Mathematical Theory of Communication",
		Journal: "Bell System Technical Journal",
		Volume:  "27",
		Issue:   "3",
		Pages:   "379-423",
		Year:    1948,
	}
	want = "Shannon, C. (1948). A Mathematical Theory of Communication. " +
		"Bell System Technical Journal, 27(3), 379-423."
	if got := svc.FormatCitation(journal, models.StyleAPA); got != want {
		t.Errorf("APA期刊格式:\n得到: %s\n期望: %s", got, want)
	}
}

// TestFormatCitationMLA 测试MLA格式渲染
func TestFormatCitationMLA(t *testing.T) {
	svc := NewCitationService(t.TempDir())

	twoAuthors := models.Citation{
		Kind:      models.CitationBook,
		Authors:   []string{"Strunk, William", "White, Elwyn"},
		Title:     "The Elements of Style",
		Publisher: "Macmillan",
		Year:      1959,
	}
	want := "Strunk, William, and Elwyn White. The Elements of Style. Macmillan, 1959."
	if got := svc.FormatCitation(twoAuthors, models.StyleMLA); got != want {
		t.Errorf("MLA双作者格式:\n得到: %s\n期望: %s", got, want)
	}

	website := models.Citation{
		Kind:       models.CitationWebsite,
		Authors:    []string{"Pike, Rob"},
		Title:      "Go Proverbs",
		URL:        "https://go-proverbs.github.io",
		AccessedAt: time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC),
	}
	want = `Pike, Rob. "Go Proverbs" https://go-proverbs.github.io. Accessed 5 Mar. 2024.`
	if got := svc.FormatCitation(website, models.StyleMLA); got != want {
		t.Errorf("MLA网页格式:\n得到: %s\n期望: %s", got, want)
	}
}

// TestFormatCitationMLAManyAuthors 测试三人及以上用et al
func TestFormatCitationMLAManyAuthors(t *testing.T) {
	svc := NewCitationService(t.TempDir())

	c := models.Citation{
		Kind:      models.CitationBook,
		Authors:   []string{"Aho, Alfred", "Sethi, Ravi", "Ullman, Jeffrey"},
		Title:     "Compilers",
		Publisher: "Addison-Wesley",
		Year:      1986,
	}
	want := "Aho, Alfred, et al. Compilers. Addison-Wesley, 1986."
	if got := svc.FormatCitation(c, models.StyleMLA); got != want {
		t.Errorf("MLA多作者格式:\n得到: %s\n期望: %s", got, want)
	}
}

// TestFormatCitationChicago 测试芝加哥格式渲染
func TestFormatCitationChicago(t *testing.T) {
	svc := NewCitationService(t.TempDir())

	book := models.Citation{
		Kind:      models.CitationBook,
		Authors:   []string{"Knuth, Donald"},
		Title:     "The Art of Computer Programming",
		Publisher: "Addison-Wesley",
		Year:      1968,
	}
	want := "Knuth, Donald. The Art of Computer Programming. Addison-Wesley, 1968."
	if got := svc.FormatCitation(book, models.StyleChicago); got != want {
		t.Errorf("芝加哥专著格式:\n得到: %s\n期望: %s", got, want)
	}

	journal := models.Citation{
		Kind:    models.CitationJournal,
		Authors: []string{"Hoare, Charles"},
		Title:   "An Axiomatic Basis for Computer Programming",
		Journal: "Communications of the ACM",
		Volume:  "12",
		Issue:   "10",
		Pages:   "576-580",
		Year:    1969,
	}
	want = `Hoare, Charles. "An Axiomatic Basis for Computer Programming" ` +
		"Communications of the ACM 12, no. 10 (1969): 576-580."
	if got := svc.FormatCitation(journal, models.StyleChicago); got != want {
		t.Errorf("芝加哥期刊格式:\n得到: %s\n期望: %s", got, want)
	}
}

// TestFormatCitationUnknownStyle 测试未知格式回退到APA
func TestFormatCitationUnknownStyle(t *testing.T) {
	svc := NewCitationService(t.TempDir())

	c := models.Citation{
		Kind:    models.CitationBook,
		Authors: []string{"Kernighan, Brian"},
		Title:   "The Go Programming Language",
		Year:    2015,
	}

	if svc.FormatCitation(c, models.CitationStyle("ieee")) != svc.FormatCitation(c, models.StyleAPA) {
		t.Error("未知格式应该按APA渲染")
	}
}

// TestCitationCRUD 测试文献的增删查
func TestCitationCRUD(t *testing.T) {
	svc := newTestCitationService(t, "book-1")

	created, err := svc.AddCitation("book-1", models.Citation{
		Authors: []string{"Fowler, Martin"},
		Title:   "Refactoring",
		Year:    1999,
	})
	if err != nil {
		t.Fatalf("添加文献失败: %v", err)
	}
	if created.ID == "" {
		t.Error("文献ID应该被生成")
	}
	if created.Kind != models.CitationBook {
		t.Errorf("未指定类型应该默认为book，实际: %s", created.Kind)
	}
	if created.BookID != "book-1" {
		t.Errorf("文献应该关联到书籍，实际: %s", created.BookID)
	}

	citations, err := svc.ListCitations("book-1")
	if err != nil {
		t.Fatalf("列出文献失败: %v", err)
	}
	if len(citations) != 1 {
		t.Fatalf("应该有1条文献，实际: %d", len(citations))
	}

	if err := svc.DeleteCitation("book-1", "missing-id"); !errors.IsNotFoundError(err) {
		t.Errorf("删除不存在的文献应该返回NotFound，实际: %v", err)
	}

	if err := svc.DeleteCitation("book-1", created.ID); err != nil {
		t.Fatalf("删除文献失败: %v", err)
	}

	citations, _ = svc.ListCitations("book-1")
	if len(citations) != 0 {
		t.Errorf("删除后应该没有文献，实际: %d", len(citations))
	}
}

// TestAddCitationValidation 测试文献校验
func TestAddCitationValidation(t *testing.T) {
	svc := newTestCitationService(t, "book-1")

	if _, err := svc.AddCitation("book-1", models.Citation{
		Authors: []string{"Someone"},
	}); !errors.IsValidationError(err) {
		t.Errorf("空标题应该返回校验错误，实际: %v", err)
	}

	if _, err := svc.AddCitation("book-1", models.Citation{
		Title: "No Authors",
	}); !errors.IsValidationError(err) {
		t.Errorf("空作者应该返回校验错误，实际: %v", err)
	}

	if _, err := svc.AddCitation("book-1", models.Citation{
		Title:   "Bad Kind",
		Authors: []string{"A, B"},
		Kind:    models.CitationKind("thesis"),
	}); !errors.IsValidationError(err) {
		t.Errorf("非法类型应该返回校验错误，实际: %v", err)
	}
}

// TestListCitationsMissingBook 测试书籍不存在时返回NotFound
func TestListCitationsMissingBook(t *testing.T) {
	svc := NewCitationService(t.TempDir())

	if _, err := svc.ListCitations("ghost-book"); !errors.IsNotFoundError(err) {
		t.Errorf("不存在的书籍应该返回NotFound，实际: %v", err)
	}
}

// TestFormatBibliographySorted 测试文献表按第一作者排序
func TestFormatBibliographySorted(t *testing.T) {
	svc := newTestCitationService(t, "book-1")

	for _, c := range []models.Citation{
		{Authors: []string{"Zimmermann, Phil"}, Title: "Z Book"},
		{Authors: []string{"Adams, Douglas"}, Title: "A Book"},
		{Authors: []string{"Miller, George"}, Title: "M Book"},
	} {
		if _, err := svc.AddCitation("book-1", c); err != nil {
			t.Fatalf("添加文献失败: %v", err)
		}
	}

	entries, err := svc.FormatBibliography("book-1", models.StyleAPA)
	if err != nil {
		t.Fatalf("渲染文献表失败: %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("应该有3条文献，实际: %d", len(entries))
	}

	// Adams在前，Zimmermann在后
	if !strings.HasPrefix(entries[0], "Adams") ||
		!strings.HasPrefix(entries[1], "Miller") ||
		!strings.HasPrefix(entries[2], "Zimmermann") {
		t.Errorf("文献表未按作者排序: %v", entries)
	}
}
