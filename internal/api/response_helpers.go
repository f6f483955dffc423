// internal/api/response_helpers.go
package api

import (
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/dlmmedia/powerwrite/internal/models"
	"github.com/gin-gonic/gin"
)

// ResponseHelper 响应助手类
type ResponseHelper struct{}

// NewResponseHelper 创建响应助手
func NewResponseHelper() *ResponseHelper {
	return &ResponseHelper{}
}

// Success 成功响应
func (rh *ResponseHelper) Success(c *gin.Context, data interface{}, message ...string) {
	response := &APIResponse{
		Success:   true,
		Data:      data,
		Timestamp: time.Now(),
		RequestID: rh.getRequestID(c),
	}

	if len(message) > 0 {
		response.Message = message[0]
	}

	c.JSON(http.StatusOK, response)
}

// Created 创建成功响应
func (rh *ResponseHelper) Created(c *gin.Context, data interface{}, message ...string) {
	response := &APIResponse{
		Success:   true,
		Data:      data,
		Timestamp: time.Now(),
		RequestID: rh.getRequestID(c),
	}

	if len(message) > 0 {
		response.Message = message[0]
	} else {
		response.Message = "资源创建成功"
	}

	c.JSON(http.StatusCreated, response)
}

// sanitizeErrorMessage removes sensitive information from error messages
func sanitizeErrorMessage(message string) string {
	// 上游服务密钥绝不能出现在响应里
	sensitivePatterns := []string{
		"api_key", "API_KEY", "apikey", "ApiKey",
		"password", "secret", "token",
	}

	lowered := strings.ToLower(message)
	for _, pattern := range sensitivePatterns {
		if strings.Contains(lowered, strings.ToLower(pattern)) {
			return "An internal error occurred"
		}
	}
	return message
}

// Error 错误响应
func (rh *ResponseHelper) Error(c *gin.Context, statusCode int, errorCode, message string, details ...string) {
	// Sanitize the error message to prevent information disclosure
	sanitizedMessage := sanitizeErrorMessage(message)

	apiError := &APIError{
		Code:    errorCode,
		Message: sanitizedMessage,
	}

	if len(details) > 0 {
		// Also sanitize details
		apiError.Details = sanitizeErrorMessage(details[0])
	}

	response := &APIResponse{
		Success:   false,
		Error:     apiError,
		Timestamp: time.Now(),
		RequestID: rh.getRequestID(c),
	}

	c.JSON(statusCode, response)
}

// BadRequest 400错误响应
func (rh *ResponseHelper) BadRequest(c *gin.Context, message string, details ...string) {
	rh.Error(c, http.StatusBadRequest, ErrorBadRequest, message, details...)
}

// NotFound 404错误响应
func (rh *ResponseHelper) NotFound(c *gin.Context, resource string, details ...string) {
	message := resource + "不存在"
	code := ErrorNotFound
	if resource != "" {
		code = rh.getResourceNotFoundCode(resource)
	}
	rh.Error(c, http.StatusNotFound, code, message, details...)
}

// InternalError 500错误响应
func (rh *ResponseHelper) InternalError(c *gin.Context, message string, details ...string) {
	rh.Error(c, http.StatusInternalServerError, ErrorInternalError, message, details...)
}

// Conflict 409错误响应
func (rh *ResponseHelper) Conflict(c *gin.Context, message string, details ...string) {
	rh.Error(c, http.StatusConflict, ErrorConflict, message, details...)
}

// PaginatedSuccess 分页成功响应
func (rh *ResponseHelper) PaginatedSuccess(c *gin.Context, data interface{}, meta *PaginationMeta, message ...string) {
	response := &PaginatedResponse{
		APIResponse: &APIResponse{
			Success:   true,
			Data:      data,
			Timestamp: time.Now(),
			RequestID: rh.getRequestID(c),
		},
		Meta: meta,
	}

	if len(message) > 0 {
		response.APIResponse.Message = message[0]
	}

	c.JSON(http.StatusOK, response)
}

// FileResponse 文件下载响应
func (rh *ResponseHelper) FileResponse(c *gin.Context, content string, filename string, contentType string) {
	c.Header("Content-Type", contentType)
	c.Header("Content-Disposition", "attachment; filename=\""+filename+"\"")
	c.String(http.StatusOK, content)
}

// getRequestID 获取请求ID
func (rh *ResponseHelper) getRequestID(c *gin.Context) string {
	if requestID := c.GetString("request_id"); requestID != "" {
		return requestID
	}
	return ""
}

// getResourceNotFoundCode 根据资源类型生成错误代码
func (rh *ResponseHelper) getResourceNotFoundCode(resource string) string {
	switch resource {
	case "书籍", "book":
		return ErrorBookNotFound
	case "章节", "chapter":
		return ErrorChapterNotFound
	case "引用", "citation":
		return ErrorCitationNotFound
	case "文件", "file":
		return ErrorFileNotFound
	default:
		return "RESOURCE_NOT_FOUND"
	}
}

// ExportResponse 导出响应（专用于导出功能）
func (rh *ResponseHelper) ExportResponse(c *gin.Context, result *models.ExportResult, format string) {
	switch strings.ToLower(format) {
	case "json":
		rh.Success(c, result, "导出成功")
	case "markdown", "md", "txt":
		rh.FileResponse(c, result.Content, filepath.Base(result.FilePath), "text/plain; charset=utf-8")
	case "html":
		rh.FileResponse(c, result.Content, filepath.Base(result.FilePath), "text/html; charset=utf-8")
	default:
		rh.Success(c, result, "导出成功")
	}
}
