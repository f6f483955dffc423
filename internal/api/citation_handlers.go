// internal/api/citation_handlers.go
package api

import (
	"github.com/dlmmedia/powerwrite/internal/models"
	"github.com/gin-gonic/gin"
)

// parseCitationStyle 解析引用格式查询参数，未知值回退到 apa
func parseCitationStyle(c *gin.Context) models.CitationStyle {
	switch style := models.CitationStyle(c.DefaultQuery("style", "apa")); style {
	case models.StyleAPA, models.StyleMLA, models.StyleChicago:
		return style
	default:
		return models.StyleAPA
	}
}

// GetCitations 获取书籍的参考文献列表
func (h *Handler) GetCitations(c *gin.Context) {
	bookID := c.Param("id")

	citations, err := h.CitationService.ListCitations(bookID)
	if err != nil {
		h.respondServiceError(c, err, "书籍")
		return
	}

	h.Response.Success(c, citations, "参考文献列表获取成功")
}

// AddCitation 添加参考文献条目
func (h *Handler) AddCitation(c *gin.Context) {
	bookID := c.Param("id")

	var citation models.Citation
	if err := c.ShouldBindJSON(&citation); err != nil {
		h.Response.BadRequest(c, "请求参数错误", err.Error())
		return
	}

	created, err := h.CitationService.AddCitation(bookID, citation)
	if err != nil {
		h.respondServiceError(c, err, "引用")
		return
	}

	// 创建响应里附带三种格式的渲染结果，省一次往返
	h.Response.Created(c, gin.H{
		"citation": created,
		"formatted": gin.H{
			"apa":     h.CitationService.FormatCitation(*created, models.StyleAPA),
			"mla":     h.CitationService.FormatCitation(*created, models.StyleMLA),
			"chicago": h.CitationService.FormatCitation(*created, models.StyleChicago),
		},
	}, "参考文献添加成功")
}

// DeleteCitation 删除参考文献条目
func (h *Handler) DeleteCitation(c *gin.Context) {
	bookID := c.Param("id")
	citationID := c.Param("citation_id")

	if err := h.CitationService.DeleteCitation(bookID, citationID); err != nil {
		h.respondServiceError(c, err, "引用")
		return
	}

	h.Response.Success(c, gin.H{"citation_id": citationID}, "参考文献删除成功")
}

// GetBibliography 获取按作者排序的参考文献格式化列表
func (h *Handler) GetBibliography(c *gin.Context) {
	bookID := c.Param("id")
	style := parseCitationStyle(c)

	entries, err := h.CitationService.FormatBibliography(bookID, style)
	if err != nil {
		h.respondServiceError(c, err, "书籍")
		return
	}

	h.Response.Success(c, gin.H{
		"style":   style,
		"entries": entries,
	}, "参考文献格式化成功")
}
