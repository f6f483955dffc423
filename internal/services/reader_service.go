// internal/services/reader_service.go
package services

import (
	"github.com/dlmmedia/powerwrite/internal/audiosync"
	"github.com/dlmmedia/powerwrite/internal/errors"
	"github.com/dlmmedia/powerwrite/internal/pagination"
)

// ReaderService 组装阅读器视图：分页、双页展开与朗读高亮
// 分页结果经 BookService.PageCache 记忆化，章节更新时由该缓存统一失效
type ReaderService struct {
	BookService *BookService
}

// SpreadView 阅读器一次翻页请求的完整响应
type SpreadView struct {
	Spread            pagination.Spread `json:"spread"`
	ChapterIndex      int               `json:"chapter_index"`
	TotalBookPages    int               `json:"total_book_pages"`
	ChapterStartPages []int             `json:"chapter_start_pages"`
	GlobalPage        int               `json:"global_page"` // 全书维度的当前页（进度显示用）
}

// HighlightView 朗读高亮响应
type HighlightView struct {
	Highlight        audiosync.PageHighlight `json:"highlight"`
	CurrentWordIndex int                     `json:"current_word_index"`
}

// NewReaderService 创建阅读器服务
func NewReaderService(bookService *BookService) *ReaderService {
	return &ReaderService{BookService: bookService}
}

// PaginateBook 返回整本书的分页结果（记忆化）
func (s *ReaderService) PaginateBook(bookID string, fontSize pagination.FontSize, opts pagination.PageOptions) (pagination.BookPagination, error) {
	chapters, err := s.BookService.GetChapters(bookID)
	if err != nil {
		return pagination.BookPagination{}, err
	}

	return s.BookService.PageCache.Paginate(bookID, chapters, fontSize, opts), nil
}

// GetSpread 取出指定章节与左页位置的双页展开
// 越界章节/页按分页器语义解析为空白页，不报错
func (s *ReaderService) GetSpread(bookID string, chapterIndex, currentPage int, fontSize pagination.FontSize) (*SpreadView, error) {
	bookPages, err := s.PaginateBook(bookID, fontSize, pagination.DefaultPageOptions)
	if err != nil {
		return nil, err
	}

	globalPage := 0
	if chapterIndex >= 0 && chapterIndex < len(bookPages.ChapterStartPages) {
		globalPage = bookPages.ChapterStartPages[chapterIndex] + currentPage
	}

	return &SpreadView{
		Spread:            bookPages.SelectSpread(chapterIndex, currentPage),
		ChapterIndex:      chapterIndex,
		TotalBookPages:    bookPages.TotalBookPages,
		ChapterStartPages: bookPages.ChapterStartPages,
		GlobalPage:        globalPage,
	}, nil
}

// GetHighlight 计算播放时刻下当前页的朗读高亮
//
// pageIndex 为章节内的页索引（左页或右页均可单独请求）。
// 章节缺少对齐时间戳、或播放时刻不落在任何窗口内时，
// 返回无激活词的稳定跨度序列（静默不高亮）。
func (s *ReaderService) GetHighlight(bookID, chapterID string, chapterIndex, pageIndex int, fontSize pagination.FontSize, playbackSeconds float64) (*HighlightView, error) {
	chapter, err := s.BookService.GetChapter(bookID, chapterID)
	if err != nil {
		return nil, err
	}

	bookPages, err := s.PaginateBook(bookID, fontSize, pagination.DefaultPageOptions)
	if err != nil {
		return nil, err
	}

	if chapterIndex < 0 || chapterIndex >= len(bookPages.ChapterPages) {
		return nil, errors.NewValidationError("章节索引越界", nil)
	}
	paginated := bookPages.ChapterPages[chapterIndex]
	if pageIndex < 0 || pageIndex >= paginated.TotalPages {
		return nil, errors.NewValidationError("页索引越界", nil)
	}

	chunks := paginated.Pages[pageIndex]

	// 页基准词偏移：页首块的字符偏移映射到词序号
	baseWordOffset := 0
	if len(chunks) > 0 {
		wordStarts := audiosync.WordStarts(chapter.Content)
		baseWordOffset = audiosync.WordIndexAt(wordStarts, chunks[0].StartCharIndex)
	}

	currentWordIndex := audiosync.ActiveWordIndex(chapter.AudioTimestamps, playbackSeconds)

	return &HighlightView{
		Highlight:        audiosync.HighlightPage(chunks, baseWordOffset, currentWordIndex),
		CurrentWordIndex: currentWordIndex,
	}, nil
}
