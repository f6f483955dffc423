// internal/api/audio_handlers.go
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// narrationRequest 朗读音频生成/对齐请求
type narrationRequest struct {
	BookID    string `json:"bookId" binding:"required"`
	ChapterID string `json:"chapterId" binding:"required"`
}

// GenerateAudio 为章节生成朗读音频
// 调用上游TTS服务，结果（音频URL与时长）持久化到章节上
func (h *Handler) GenerateAudio(c *gin.Context) {
	var req narrationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.Response.BadRequest(c, "请求参数错误", err.Error())
		return
	}

	if !h.AudioService.IsConfigured() {
		h.Response.Error(c, http.StatusServiceUnavailable, ErrorAudioServiceUnavailable,
			"音频服务未配置", "请设置 AUDIO_SERVICE_URL")
		return
	}

	// TTS 合成较慢，放宽超时
	ctx, cancel := context.WithTimeout(c.Request.Context(), 120*time.Second)
	defer cancel()

	chapter, err := h.AudioService.GenerateNarration(ctx, req.BookID, req.ChapterID)
	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			h.Response.Error(c, http.StatusRequestTimeout, ErrorAudioGenerationFailed,
				"音频生成超时", "请稍后重试")
			return
		}
		h.respondServiceError(c, err, "章节")
		return
	}

	h.Response.Success(c, gin.H{
		"chapterId":     chapter.ID,
		"audioUrl":      chapter.AudioURL,
		"audioDuration": chapter.AudioDuration,
	}, "音频生成成功")
}

// GenerateAlignment 为章节生成单词级时间戳
// 对齐结果校验通过后持久化，响应返回时间戳数组与数量
func (h *Handler) GenerateAlignment(c *gin.Context) {
	var req narrationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.Response.BadRequest(c, "请求参数错误", err.Error())
		return
	}

	if !h.AudioService.IsConfigured() {
		h.Response.Error(c, http.StatusServiceUnavailable, ErrorAudioServiceUnavailable,
			"音频服务未配置", "请设置 AUDIO_SERVICE_URL")
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 120*time.Second)
	defer cancel()

	timestamps, err := h.AudioService.AlignChapter(ctx, req.BookID, req.ChapterID)
	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			h.Response.Error(c, http.StatusRequestTimeout, ErrorAlignmentFailed,
				"时间戳对齐超时", "请稍后重试")
			return
		}
		h.respondServiceError(c, err, "章节")
		return
	}

	h.Response.Success(c, gin.H{
		"audioTimestamps": timestamps,
		"count":           len(timestamps),
	}, "时间戳对齐成功")
}
