// internal/api/handlers.go
package api

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/dlmmedia/powerwrite/internal/config"
	apperrors "github.com/dlmmedia/powerwrite/internal/errors"
	"github.com/dlmmedia/powerwrite/internal/models"
	"github.com/dlmmedia/powerwrite/internal/services"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// Handler 处理API请求
type Handler struct {
	// 核心服务
	BookService      *services.BookService     // 书籍与章节服务
	CitationService  *services.CitationService // 参考文献服务
	AudioService     *services.AudioService    // 朗读音频服务
	ExportService    *services.ExportService   // 导出服务
	ImportService    *services.ImportService   // 导入服务
	ReadingService   *services.ReadingService  // 阅读进度服务
	ReaderService    *services.ReaderService   // 阅读器视图服务
	StatsService     *services.StatsService    // 统计服务
	WebSocketHandler *WebSocketHandler         // WebSocket 处理器
	Response         *ResponseHelper           // 响应助手
}

// APIResponse 标准API响应格式
type APIResponse struct {
	Success   bool        `json:"success"`
	Data      interface{} `json:"data,omitempty"`
	Error     *APIError   `json:"error,omitempty"`
	Message   string      `json:"message,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
	RequestID string      `json:"request_id,omitempty"` // 用于调试和追踪
}

// APIError 标准错误格式
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

// PaginationMeta 分页元数据
type PaginationMeta struct {
	Page       int `json:"page"`
	PerPage    int `json:"per_page"`
	Total      int `json:"total"`
	TotalPages int `json:"total_pages"`
}

// PaginatedResponse 带分页的响应
type PaginatedResponse struct {
	*APIResponse
	Meta *PaginationMeta `json:"meta,omitempty"`
}

// ------------------------------------------------
// BookWebSocket 处理书籍阅读会话 WebSocket 连接
func (h *Handler) BookWebSocket(c *gin.Context) {
	h.WebSocketHandler.BookWebSocket(c)
}

// BroadcastToBook 提供外部调用的广播方法
func (h *Handler) BroadcastToBook(bookID string, message map[string]interface{}) {
	wsManager.BroadcastToBook(bookID, message)
}

// GetWebSocketStatus 获取 WebSocket 连接状态（调试用）
func (h *Handler) GetWebSocketStatus(c *gin.Context) {
	status := wsManager.GetStatus()
	status["ping_timeout_seconds"] = int(wsManager.pingTimeout.Seconds())
	status["timestamp"] = time.Now().Format(time.RFC3339)

	c.JSON(http.StatusOK, status)
}

// CleanupWebSocketConnections 手动触发连接清理
func (h *Handler) CleanupWebSocketConnections(c *gin.Context) {
	wsManager.cleanupExpiredConnections()
	c.JSON(http.StatusOK, gin.H{
		"success":   true,
		"message":   "连接清理已执行",
		"timestamp": time.Now().Format(time.RFC3339),
	})
}

// contains 检查切片是否包含指定元素
func contains(slice []string, item string) bool {
	return slices.Contains(slice, item)
}

// respondServiceError 将服务层错误映射为HTTP响应
func (h *Handler) respondServiceError(c *gin.Context, err error, resource string) {
	switch {
	case apperrors.IsNotFoundError(err):
		h.Response.NotFound(c, resource, err.Error())
	case apperrors.IsValidationError(err):
		h.Response.BadRequest(c, "请求参数错误", err.Error())
	case apperrors.IsConflictError(err):
		h.Response.Conflict(c, "资源状态冲突", err.Error())
	case apperrors.IsUpstreamError(err):
		h.Response.Error(c, http.StatusBadGateway, ErrorAudioServiceUnavailable,
			"外部服务调用失败", err.Error())
	default:
		h.Response.InternalError(c, "内部处理失败", err.Error())
	}
}

// ---------------------------------------------------------
// NewHandler 创建API处理器
func NewHandler(
	bookService *services.BookService,
	citationService *services.CitationService,
	audioService *services.AudioService,
	exportService *services.ExportService,
	importService *services.ImportService,
	readingService *services.ReadingService,
	readerService *services.ReaderService,
	statsService *services.StatsService) *Handler {

	return &Handler{
		BookService:      bookService,
		CitationService:  citationService,
		AudioService:     audioService,
		ExportService:    exportService,
		ImportService:    importService,
		ReadingService:   readingService,
		ReaderService:    readerService,
		StatsService:     statsService,
		WebSocketHandler: NewWebSocketHandler(),
		Response:         NewResponseHelper(),
	}
}

// ========================================
// 书籍处理器
// ========================================

// GetBooks 获取书籍列表（带分页元数据）
func (h *Handler) GetBooks(c *gin.Context) {
	books, err := h.BookService.ListBooks()
	if err != nil {
		h.Response.InternalError(c, "获取书籍列表失败", err.Error())
		return
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	perPage, _ := strconv.Atoi(c.DefaultQuery("per_page", "20"))
	if page < 1 {
		page = 1
	}
	if perPage < 1 || perPage > 100 {
		perPage = 20
	}

	total := len(books)
	totalPages := (total + perPage - 1) / perPage
	start := (page - 1) * perPage
	if start > total {
		start = total
	}
	end := start + perPage
	if end > total {
		end = total
	}

	meta := &PaginationMeta{
		Page:       page,
		PerPage:    perPage,
		Total:      total,
		TotalPages: totalPages,
	}

	h.Response.PaginatedSuccess(c, books[start:end], meta, "书籍列表获取成功")
}

// GetBook 获取指定书籍详情
func (h *Handler) GetBook(c *gin.Context) {
	bookID := c.Param("id")
	book, err := h.BookService.GetBook(bookID)
	if err != nil {
		h.Response.NotFound(c, "书籍", "书籍ID: "+bookID)
		return
	}

	h.Response.Success(c, book, "书籍数据获取成功")
}

// CreateBook 创建新书籍
func (h *Handler) CreateBook(c *gin.Context) {
	var req struct {
		Title       string `json:"title" binding:"required"`
		Author      string `json:"author"`
		Description string `json:"description"`
		Genre       string `json:"genre"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		h.Response.BadRequest(c, "请求参数错误", err.Error())
		return
	}

	book, err := h.BookService.CreateBook(req.Title, req.Author, req.Description, req.Genre)
	if err != nil {
		h.respondServiceError(c, err, "书籍")
		return
	}

	h.Response.Created(c, book, "书籍创建成功")
}

// UpdateBook 更新书籍元数据
func (h *Handler) UpdateBook(c *gin.Context) {
	bookID := c.Param("id")

	var req struct {
		Title       string `json:"title"`
		Author      string `json:"author"`
		Description string `json:"description"`
		Genre       string `json:"genre"`
		Status      string `json:"status"`
		CoverURL    string `json:"cover_url"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		h.Response.BadRequest(c, "请求参数错误", err.Error())
		return
	}

	book, err := h.BookService.UpdateBook(bookID, req.Title, req.Author, req.Description,
		req.Genre, req.Status, req.CoverURL)
	if err != nil {
		h.respondServiceError(c, err, "书籍")
		return
	}

	h.Response.Success(c, book, "书籍更新成功")
}

// DeleteBook 删除书籍及其全部数据
func (h *Handler) DeleteBook(c *gin.Context) {
	bookID := c.Param("id")

	if err := h.BookService.DeleteBook(bookID); err != nil {
		h.respondServiceError(c, err, "书籍")
		return
	}

	h.Response.Success(c, gin.H{"book_id": bookID}, "书籍删除成功")
}

// GetBookStats 获取书籍统计数据
func (h *Handler) GetBookStats(c *gin.Context) {
	bookID := c.Param("id")

	stats, err := h.StatsService.GetBookStats(bookID)
	if err != nil {
		h.respondServiceError(c, err, "书籍")
		return
	}

	h.Response.Success(c, stats, "统计数据获取成功")
}

// ========================================
// 章节处理器
// ========================================

// GetChapters 获取书籍的章节列表（含正文）
func (h *Handler) GetChapters(c *gin.Context) {
	bookID := c.Param("id")

	// metadata_only 时只返回章节元数据，供目录视图使用
	if c.DefaultQuery("metadata_only", "false") == "true" {
		metas, err := h.BookService.ListChapters(bookID)
		if err != nil {
			h.respondServiceError(c, err, "书籍")
			return
		}
		h.Response.Success(c, metas, "章节列表获取成功")
		return
	}

	chapters, err := h.BookService.GetChapters(bookID)
	if err != nil {
		h.respondServiceError(c, err, "书籍")
		return
	}

	h.Response.Success(c, chapters, "章节列表获取成功")
}

// GetChapter 获取指定章节
func (h *Handler) GetChapter(c *gin.Context) {
	bookID := c.Param("id")
	chapterID := c.Param("chapter_id")

	chapter, err := h.BookService.GetChapter(bookID, chapterID)
	if err != nil {
		h.respondServiceError(c, err, "章节")
		return
	}

	h.Response.Success(c, chapter, "章节获取成功")
}

// CreateChapter 创建新章节
func (h *Handler) CreateChapter(c *gin.Context) {
	bookID := c.Param("id")

	var req struct {
		Title   string `json:"title" binding:"required"`
		Content string `json:"content"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		h.Response.BadRequest(c, "请求参数错误", err.Error())
		return
	}

	chapter, err := h.BookService.CreateChapter(bookID, req.Title, req.Content)
	if err != nil {
		h.respondServiceError(c, err, "书籍")
		return
	}

	h.Response.Created(c, chapter, "章节创建成功")
}

// UpdateChapter 更新章节标题/正文/状态
func (h *Handler) UpdateChapter(c *gin.Context) {
	bookID := c.Param("id")
	chapterID := c.Param("chapter_id")

	var req struct {
		Title   string `json:"title"`
		Content string `json:"content"`
		Status  string `json:"status"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		h.Response.BadRequest(c, "请求参数错误", err.Error())
		return
	}

	chapter, err := h.BookService.UpdateChapter(bookID, chapterID, req.Title, req.Content, req.Status)
	if err != nil {
		h.respondServiceError(c, err, "章节")
		return
	}

	h.Response.Success(c, chapter, "章节更新成功")
}

// DeleteChapter 删除章节并重新编号
func (h *Handler) DeleteChapter(c *gin.Context) {
	bookID := c.Param("id")
	chapterID := c.Param("chapter_id")

	if err := h.BookService.DeleteChapter(bookID, chapterID); err != nil {
		h.respondServiceError(c, err, "章节")
		return
	}

	h.Response.Success(c, gin.H{"chapter_id": chapterID}, "章节删除成功")
}

// ReorderChapter 调整章节顺序
func (h *Handler) ReorderChapter(c *gin.Context) {
	bookID := c.Param("id")
	chapterID := c.Param("chapter_id")

	var req struct {
		Number int `json:"number" binding:"required"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		h.Response.BadRequest(c, "请求参数错误", err.Error())
		return
	}

	if err := h.BookService.ReorderChapter(bookID, chapterID, req.Number); err != nil {
		h.respondServiceError(c, err, "章节")
		return
	}

	h.Response.Success(c, gin.H{"chapter_id": chapterID, "number": req.Number}, "章节排序成功")
}

// ImportChapters 从HTML文档导入章节
func (h *Handler) ImportChapters(c *gin.Context) {
	bookID := c.Param("id")

	var req struct {
		HTML          string `json:"html" binding:"required"`
		Title         string `json:"title"`
		SplitChapters bool   `json:"split_chapters"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		h.Response.BadRequest(c, "请求参数错误", err.Error())
		return
	}

	if strings.TrimSpace(req.HTML) == "" {
		h.Response.Error(c, http.StatusBadRequest, ErrorImportContentEmpty,
			"导入内容为空", "HTML文档没有可提取的正文")
		return
	}

	chapters, err := h.ImportService.ImportHTML(bookID, req.HTML, req.Title, req.SplitChapters)
	if err != nil {
		h.respondServiceError(c, err, "书籍")
		return
	}

	h.Response.Created(c, gin.H{
		"chapters": chapters,
		"count":    len(chapters),
	}, "章节导入成功")
}

// ========================================
// 章节插图处理器
// ========================================

// AddChapterImage 向章节添加插图
func (h *Handler) AddChapterImage(c *gin.Context) {
	bookID := c.Param("id")
	chapterID := c.Param("chapter_id")

	var req struct {
		URL      string `json:"url" binding:"required"`
		Caption  string `json:"caption"`
		Position int    `json:"position"`
		Width    int    `json:"width"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		h.Response.BadRequest(c, "请求参数错误", err.Error())
		return
	}

	image, err := h.BookService.AddImage(bookID, chapterID, req.URL, req.Caption, req.Position, req.Width)
	if err != nil {
		h.respondServiceError(c, err, "章节")
		return
	}

	h.Response.Created(c, image, "插图添加成功")
}

// GetChapterImages 获取章节的插图列表
func (h *Handler) GetChapterImages(c *gin.Context) {
	bookID := c.Param("id")
	chapterID := c.Param("chapter_id")

	images := h.BookService.ListImages(bookID, chapterID)
	h.Response.Success(c, images, "插图列表获取成功")
}

// DeleteChapterImage 删除插图
func (h *Handler) DeleteChapterImage(c *gin.Context) {
	bookID := c.Param("id")
	imageID := c.Param("image_id")

	if err := h.BookService.DeleteImage(bookID, imageID); err != nil {
		h.respondServiceError(c, err, "书籍")
		return
	}

	h.Response.Success(c, gin.H{"image_id": imageID}, "插图删除成功")
}

// ========================================
// 导出处理器
// ========================================

// ExportBook 导出整本书
func (h *Handler) ExportBook(c *gin.Context) {
	bookID := c.Param("id")
	format := c.Param("format")
	style := c.DefaultQuery("citation_style", "apa")

	// 验证导出格式
	supportedFormats := []string{"json", "markdown", "md", "txt", "html"}
	if !contains(supportedFormats, strings.ToLower(format)) {
		h.Response.Error(c, http.StatusBadRequest, ErrorExportFormatInvalid,
			"不支持的导出格式", fmt.Sprintf("支持的格式: %v", supportedFormats))
		return
	}

	if h.ExportService == nil {
		h.Response.Error(c, http.StatusServiceUnavailable, ErrorExportServiceUnavailable,
			"导出服务未初始化", "无法获取导出服务实例")
		return
	}

	// 创建带超时的上下文
	ctx, cancel := context.WithTimeout(c.Request.Context(), 30*time.Second)
	defer cancel()

	result, err := h.ExportService.ExportBook(ctx, bookID, format, models.CitationStyle(style))
	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			h.Response.Error(c, http.StatusRequestTimeout, ErrorExportTimeout,
				"导出操作超时", "书籍内容较大，请稍后重试")
			return
		}

		if apperrors.IsNotFoundError(err) {
			h.Response.NotFound(c, "书籍", "书籍ID: "+bookID)
			return
		}

		h.Response.Error(c, http.StatusInternalServerError, ErrorExportFailed,
			"导出书籍失败", err.Error())
		return
	}

	// 检查导出结果
	if result == nil || result.Content == "" {
		h.Response.Error(c, http.StatusNotFound, ErrorExportDataEmpty,
			"导出结果为空", "书籍中没有可导出的内容")
		return
	}

	h.Response.ExportResponse(c, result, format)
}

// ========================================
// 文件上传处理器
// ========================================

// UploadFile 上传插图或待导入的文档
func (h *Handler) UploadFile(c *gin.Context) {
	file, err := c.FormFile("file")
	if err != nil {
		h.Response.Error(c, http.StatusBadRequest, ErrorFileUploadFailed,
			"获取上传文件失败", err.Error())
		return
	}

	// 检查文件类型
	allowedExts := []string{".png", ".jpg", ".jpeg", ".gif", ".webp", ".txt", ".md", ".html"}
	ext := strings.ToLower(filepath.Ext(file.Filename))
	if !contains(allowedExts, ext) {
		h.Response.Error(c, http.StatusBadRequest, ErrorFileInvalid,
			"不支持的文件类型", fmt.Sprintf("支持的类型: %v", allowedExts))
		return
	}

	cfg := config.GetCurrentConfig()
	if err := os.MkdirAll(cfg.UploadsDir, 0755); err != nil {
		h.Response.InternalError(c, "创建上传目录失败", err.Error())
		return
	}

	// 文件名用UUID重写，避免覆盖与路径注入
	storedName := uuid.NewString() + ext
	storedPath := filepath.Join(cfg.UploadsDir, storedName)
	if err := c.SaveUploadedFile(file, storedPath); err != nil {
		h.Response.InternalError(c, "保存文件失败", err.Error())
		return
	}

	h.Response.Created(c, gin.H{
		"filename": file.Filename,
		"url":      "/uploads/" + storedName,
		"size":     file.Size,
	}, "文件上传成功")
}
