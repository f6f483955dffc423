// internal/pagination/book.go
package pagination

import (
	"github.com/dlmmedia/powerwrite/internal/models"
)

// BookPagination 全书分页结果
// ChapterStartPages[i] 等于第 i 章之前所有章节的页数之和
type BookPagination struct {
	ChapterPages      []PaginatedContent `json:"chapter_pages"`
	TotalBookPages    int                `json:"total_book_pages"`
	ChapterStartPages []int              `json:"chapter_start_pages"`
}

// Spread 双页展开：左右两页的内容与展示页码
// 页码为1起始的展示页码，缺页（如右页越界）时块列表为空、页码为0
type Spread struct {
	LeftChunks        []TextChunk `json:"left_chunks"`
	RightChunks       []TextChunk `json:"right_chunks"`
	LeftPageNumber    int         `json:"left_page_number"`
	RightPageNumber   int         `json:"right_page_number"`
	ChapterTotalPages int         `json:"chapter_total_pages"`
}

// PaginateBook 对全书每个章节应用分页器
// 空章节列表返回空切片与零总页数，无错误分支
func PaginateBook(chapters []models.Chapter, fontSize FontSize, opts PageOptions) BookPagination {
	chapterPages := make([]PaginatedContent, 0, len(chapters))
	startPages := make([]int, 0, len(chapters))
	total := 0

	for _, chapter := range chapters {
		startPages = append(startPages, total)
		paginated := PaginateContent(chapter.Content, fontSize, opts)
		chapterPages = append(chapterPages, paginated)
		total += paginated.TotalPages
	}

	return BookPagination{
		ChapterPages:      chapterPages,
		TotalBookPages:    total,
		ChapterStartPages: startPages,
	}
}

// SelectSpread 取出指定章节中以 currentPage 为左页的双页展开
// currentPage 为0起始的左页索引（总是偶数）。
// 越界的章节索引返回全零结果；越界的页解析为空白页，不报错。
func (bp BookPagination) SelectSpread(chapterIndex, currentPage int) Spread {
	if chapterIndex < 0 || chapterIndex >= len(bp.ChapterPages) {
		return Spread{LeftChunks: []TextChunk{}, RightChunks: []TextChunk{}}
	}

	paginated := bp.ChapterPages[chapterIndex]

	spread := Spread{
		LeftChunks:        []TextChunk{},
		RightChunks:       []TextChunk{},
		ChapterTotalPages: paginated.TotalPages,
	}

	if currentPage >= 0 && currentPage < paginated.TotalPages {
		spread.LeftChunks = paginated.Pages[currentPage]
		spread.LeftPageNumber = currentPage + 1
	}

	rightPage := currentPage + 1
	if rightPage >= 1 && rightPage < paginated.TotalPages {
		spread.RightChunks = paginated.Pages[rightPage]
		spread.RightPageNumber = rightPage + 1
	}

	return spread
}
