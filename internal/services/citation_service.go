// internal/services/citation_service.go
package services

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/dlmmedia/powerwrite/internal/errors"
	"github.com/dlmmedia/powerwrite/internal/models"
	"github.com/dlmmedia/powerwrite/internal/storage"
)

// CitationService 管理参考文献并按指定格式渲染引用
// 格式化为查表驱动的字符串拼接，不依赖外部排版引擎
type CitationService struct {
	Storage *storage.FileStorage
}

// NewCitationService 创建文献服务，与书籍服务共用同一存储根目录
func NewCitationService(basePath string) *CitationService {
	if basePath == "" {
		basePath = "data/books"
	}

	fileStorage, err := storage.NewFileStorage(basePath)
	if err != nil {
		fmt.Printf("警告: 创建文件存储失败: %v\n", err)
		fileStorage = nil
	}

	return &CitationService{Storage: fileStorage}
}

// AddCitation 为书籍添加一条参考文献
func (s *CitationService) AddCitation(bookID string, citation models.Citation) (*models.Citation, error) {
	if strings.TrimSpace(citation.Title) == "" {
		return nil, errors.NewValidationError("文献标题不能为空", nil)
	}
	if len(citation.Authors) == 0 {
		return nil, errors.NewValidationError("文献作者不能为空", nil)
	}

	switch citation.Kind {
	case models.CitationBook, models.CitationJournal, models.CitationWebsite:
	case "":
		citation.Kind = models.CitationBook
	default:
		return nil, errors.NewValidationError(fmt.Sprintf("不支持的文献类型: %s", citation.Kind), nil)
	}

	citation.ID = generateID()
	citation.BookID = bookID
	citation.CreatedAt = time.Now()

	citations, err := s.ListCitations(bookID)
	if err != nil {
		return nil, err
	}

	citations = append(citations, citation)
	if err := s.Storage.SaveJSONFile(bookID, "citations.json", citations); err != nil {
		return nil, errors.NewProcessingError("保存文献列表失败", err)
	}

	return &citation, nil
}

// ListCitations 列出书籍的全部参考文献
func (s *CitationService) ListCitations(bookID string) ([]models.Citation, error) {
	if !s.Storage.DirExists(bookID) {
		return nil, errors.NewNotFoundError(fmt.Sprintf("书籍不存在: %s", bookID), nil)
	}

	var citations []models.Citation
	if s.Storage.FileExists(bookID, "citations.json") {
		if err := s.Storage.LoadJSONFile(bookID, "citations.json", &citations); err != nil {
			return nil, errors.NewProcessingError("读取文献列表失败", err)
		}
	}

	return citations, nil
}

// DeleteCitation 删除一条参考文献
func (s *CitationService) DeleteCitation(bookID, citationID string) error {
	citations, err := s.ListCitations(bookID)
	if err != nil {
		return err
	}

	remaining := make([]models.Citation, 0, len(citations))
	found := false
	for _, citation := range citations {
		if citation.ID == citationID {
			found = true
			continue
		}
		remaining = append(remaining, citation)
	}

	if !found {
		return errors.NewNotFoundError(fmt.Sprintf("文献不存在: %s", citationID), nil)
	}

	if err := s.Storage.SaveJSONFile(bookID, "citations.json", remaining); err != nil {
		return errors.NewProcessingError("保存文献列表失败", err)
	}

	return nil
}

// FormatCitation 按指定格式渲染一条引用
// 未知格式回退到 APA
func (s *CitationService) FormatCitation(c models.Citation, style models.CitationStyle) string {
	switch style {
	case models.StyleMLA:
		return formatMLA(c)
	case models.StyleChicago:
		return formatChicago(c)
	default:
		return formatAPA(c)
	}
}

// FormatBibliography 渲染整本书的参考文献表（按第一作者排序）
func (s *CitationService) FormatBibliography(bookID string, style models.CitationStyle) ([]string, error) {
	citations, err := s.ListCitations(bookID)
	if err != nil {
		return nil, err
	}

	sort.Slice(citations, func(i, j int) bool {
		return firstAuthor(citations[i]) < firstAuthor(citations[j])
	})

	entries := make([]string, 0, len(citations))
	for _, citation := range citations {
		entries = append(entries, s.FormatCitation(citation, style))
	}

	return entries, nil
}

func firstAuthor(c models.Citation) string {
	if len(c.Authors) == 0 {
		return c.Title
	}
	return c.Authors[0]
}

// ------------------------------------------------
// 各格式的渲染规则
// ------------------------------------------------

// formatAPA APA格式: 作者 (年份). 标题. 出版信息.
func formatAPA(c models.Citation) string {
	var parts []string

	parts = append(parts, joinAuthorsAPA(c.Authors))
	if c.Year > 0 {
		parts = append(parts, fmt.Sprintf("(%d).", c.Year))
	}

	switch c.Kind {
	case models.CitationJournal:
		parts = append(parts, c.Title+".")
		journal := c.Journal
		if c.Volume != "" {
			journal += ", " + c.Volume
			if c.Issue != "" {
				journal += "(" + c.Issue + ")"
			}
		}
		if c.Pages != "" {
			journal += ", " + c.Pages
		}
		parts = append(parts, journal+".")
	case models.CitationWebsite:
		parts = append(parts, c.Title+".")
		if c.Publisher != "" {
			parts = append(parts, c.Publisher+".")
		}
		if c.URL != "" {
			parts = append(parts, c.URL)
		}
	default:
		parts = append(parts, c.Title+".")
		if c.Publisher != "" {
			parts = append(parts, c.Publisher+".")
		}
	}

	return strings.Join(parts, " ")
}

// formatMLA MLA格式: 作者. "标题." 出版信息, 年份.
func formatMLA(c models.Citation) string {
	var parts []string

	parts = append(parts, joinAuthorsMLA(c.Authors)+".")

	switch c.Kind {
	case models.CitationJournal:
		parts = append(parts, fmt.Sprintf("%q", c.Title))
		journal := c.Journal
		if c.Volume != "" {
			journal += ", vol. " + c.Volume
		}
		if c.Issue != "" {
			journal += ", no. " + c.Issue
		}
		if c.Year > 0 {
			journal += fmt.Sprintf(", %d", c.Year)
		}
		if c.Pages != "" {
			journal += ", pp. " + c.Pages
		}
		parts = append(parts, journal+".")
	case models.CitationWebsite:
		parts = append(parts, fmt.Sprintf("%q", c.Title))
		if c.Publisher != "" {
			parts = append(parts, c.Publisher+",")
		}
		if c.URL != "" {
			parts = append(parts, c.URL+".")
		}
		if !c.AccessedAt.IsZero() {
			parts = append(parts, "Accessed "+c.AccessedAt.Format("2 Jan. 2006")+".")
		}
	default:
		parts = append(parts, c.Title+".")
		if c.Publisher != "" {
			parts = append(parts, c.Publisher+",")
		}
		if c.Year > 0 {
			parts = append(parts, fmt.Sprintf("%d.", c.Year))
		}
	}

	return strings.Join(parts, " ")
}

// formatChicago 芝加哥格式: 作者. 标题. 出版地信息, 年份.
func formatChicago(c models.Citation) string {
	var parts []string

	parts = append(parts, joinAuthorsMLA(c.Authors)+".")

	switch c.Kind {
	case models.CitationJournal:
		parts = append(parts, fmt.Sprintf("%q", c.Title))
		journal := c.Journal
		if c.Volume != "" {
			journal += " " + c.Volume
		}
		if c.Issue != "" {
			journal += ", no. " + c.Issue
		}
		if c.Year > 0 {
			journal += fmt.Sprintf(" (%d)", c.Year)
		}
		if c.Pages != "" {
			journal += ": " + c.Pages
		}
		parts = append(parts, journal+".")
	case models.CitationWebsite:
		parts = append(parts, fmt.Sprintf("%q", c.Title))
		if c.Publisher != "" {
			parts = append(parts, c.Publisher+".")
		}
		if !c.AccessedAt.IsZero() {
			parts = append(parts, "Accessed "+c.AccessedAt.Format("January 2, 2006")+".")
		}
		if c.URL != "" {
			parts = append(parts, c.URL+".")
		}
	default:
		parts = append(parts, c.Title+".")
		publisher := c.Publisher
		if c.Year > 0 {
			if publisher != "" {
				publisher += ", "
			}
			publisher += fmt.Sprintf("%d", c.Year)
		}
		if publisher != "" {
			parts = append(parts, publisher+".")
		}
	}

	return strings.Join(parts, " ")
}

// joinAuthorsAPA APA作者表: "姓, 名首字母., & 姓, 名首字母."
// 输入已是 "姓, 名" 形式，这里只做连接与缩写
func joinAuthorsAPA(authors []string) string {
	abbreviated := make([]string, 0, len(authors))
	for _, author := range authors {
		abbreviated = append(abbreviated, abbreviateGivenName(author))
	}

	switch len(abbreviated) {
	case 0:
		return ""
	case 1:
		return abbreviated[0]
	default:
		return strings.Join(abbreviated[:len(abbreviated)-1], ", ") + ", & " + abbreviated[len(abbreviated)-1]
	}
}

// joinAuthorsMLA MLA/芝加哥作者表: 首作者用 "姓, 名"，其余原样，用 and 连接
func joinAuthorsMLA(authors []string) string {
	switch len(authors) {
	case 0:
		return ""
	case 1:
		return authors[0]
	case 2:
		return authors[0] + ", and " + flipName(authors[1])
	default:
		// 三人及以上用 et al.
		return authors[0] + ", et al"
	}
}

// abbreviateGivenName "姓, 名" -> "姓, 名首字母."
func abbreviateGivenName(author string) string {
	parts := strings.SplitN(author, ",", 2)
	if len(parts) < 2 {
		return author
	}

	surname := strings.TrimSpace(parts[0])
	given := strings.TrimSpace(parts[1])
	if given == "" {
		return surname
	}

	initials := make([]string, 0, 2)
	for _, name := range strings.Fields(given) {
		initials = append(initials, string([]rune(name)[0])+".")
	}

	return surname + ", " + strings.Join(initials, " ")
}

// flipName "姓, 名" -> "名 姓"
func flipName(author string) string {
	parts := strings.SplitN(author, ",", 2)
	if len(parts) < 2 {
		return author
	}
	return strings.TrimSpace(parts[1]) + " " + strings.TrimSpace(parts[0])
}
