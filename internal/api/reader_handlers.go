// internal/api/reader_handlers.go
package api

import (
	"strconv"

	"github.com/dlmmedia/powerwrite/internal/models"
	"github.com/dlmmedia/powerwrite/internal/pagination"
	"github.com/gin-gonic/gin"
)

// parseFontSize 解析字号查询参数，未知值回退到 base
func parseFontSize(c *gin.Context) pagination.FontSize {
	switch fs := pagination.FontSize(c.DefaultQuery("font_size", "base")); fs {
	case pagination.FontSmall, pagination.FontBase, pagination.FontLarge, pagination.FontXLarge:
		return fs
	default:
		return pagination.FontBase
	}
}

// parsePageOptions 解析页面尺寸查询参数，缺省使用默认双页尺寸
func parsePageOptions(c *gin.Context) pagination.PageOptions {
	opts := pagination.DefaultPageOptions
	if w, err := strconv.ParseFloat(c.Query("page_width"), 64); err == nil && w > 0 {
		opts.Width = w
	}
	if h, err := strconv.ParseFloat(c.Query("page_height"), 64); err == nil && h > 0 {
		opts.Height = h
	}
	return opts
}

// GetBookPagination 返回整本书的分页结果
// 供没有前端分页核心的客户端做服务端分页预览
func (h *Handler) GetBookPagination(c *gin.Context) {
	bookID := c.Param("id")

	bookPages, err := h.ReaderService.PaginateBook(bookID, parseFontSize(c), parsePageOptions(c))
	if err != nil {
		h.respondServiceError(c, err, "书籍")
		return
	}

	h.Response.Success(c, bookPages, "分页计算成功")
}

// GetSpread 返回指定位置的双页展开
func (h *Handler) GetSpread(c *gin.Context) {
	bookID := c.Param("id")

	chapterIndex, err := strconv.Atoi(c.DefaultQuery("chapter", "0"))
	if err != nil {
		h.Response.BadRequest(c, "章节索引无效", err.Error())
		return
	}

	currentPage, err := strconv.Atoi(c.DefaultQuery("page", "0"))
	if err != nil {
		h.Response.BadRequest(c, "页码无效", err.Error())
		return
	}

	view, err := h.ReaderService.GetSpread(bookID, chapterIndex, currentPage, parseFontSize(c))
	if err != nil {
		h.respondServiceError(c, err, "书籍")
		return
	}

	h.Response.Success(c, view, "双页展开获取成功")
}

// GetHighlight 返回指定播放时间点的朗读高亮状态
func (h *Handler) GetHighlight(c *gin.Context) {
	bookID := c.Param("id")

	chapterID := c.Query("chapter_id")
	if chapterID == "" {
		h.Response.BadRequest(c, "缺少章节ID")
		return
	}

	chapterIndex, err := strconv.Atoi(c.DefaultQuery("chapter", "0"))
	if err != nil {
		h.Response.BadRequest(c, "章节索引无效", err.Error())
		return
	}

	pageIndex, err := strconv.Atoi(c.DefaultQuery("page", "0"))
	if err != nil {
		h.Response.BadRequest(c, "页码无效", err.Error())
		return
	}

	seconds, err := strconv.ParseFloat(c.DefaultQuery("t", "0"), 64)
	if err != nil || seconds < 0 {
		h.Response.BadRequest(c, "播放时间无效")
		return
	}

	view, err := h.ReaderService.GetHighlight(bookID, chapterID, chapterIndex, pageIndex,
		parseFontSize(c), seconds)
	if err != nil {
		h.respondServiceError(c, err, "章节")
		return
	}

	h.Response.Success(c, view, "高亮状态计算成功")
}

// ========================================
// 阅读进度处理器
// ========================================

// GetReadingState 获取书籍的阅读进度与偏好
// 没有记录时返回默认状态，不报错
func (h *Handler) GetReadingState(c *gin.Context) {
	bookID := c.Param("id")

	if _, err := h.BookService.GetBook(bookID); err != nil {
		h.Response.NotFound(c, "书籍", "书籍ID: "+bookID)
		return
	}

	state, err := h.ReadingService.GetState(bookID)
	if err != nil {
		h.Response.InternalError(c, "读取阅读进度失败", err.Error())
		return
	}

	h.Response.Success(c, state, "阅读进度获取成功")
}

// UpdateReadingState 合并更新阅读进度与偏好
func (h *Handler) UpdateReadingState(c *gin.Context) {
	bookID := c.Param("id")

	if _, err := h.BookService.GetBook(bookID); err != nil {
		h.Response.NotFound(c, "书籍", "书籍ID: "+bookID)
		return
	}

	var patch models.ReadingStatePatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		h.Response.BadRequest(c, "请求参数错误", err.Error())
		return
	}

	state, err := h.ReadingService.UpdateState(bookID, patch)
	if err != nil {
		h.respondServiceError(c, err, "书籍")
		return
	}

	// 状态变更同步推送给同一本书的其他阅读端
	h.BroadcastToBook(bookID, map[string]interface{}{
		"type":          "reading:state",
		"book_id":       bookID,
		"chapter_index": state.ChapterIndex,
		"current_page":  state.CurrentPage,
		"font_size":     state.FontSize,
		"theme":         state.Theme,
	})

	h.Response.Success(c, state, "阅读进度已保存")
}
