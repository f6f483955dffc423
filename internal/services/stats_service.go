// internal/services/stats_service.go
package services

import (
	"github.com/dlmmedia/powerwrite/internal/models"
)

// StatsService 汇总书籍的写作与朗读统计
type StatsService struct {
	BookService     *BookService
	CitationService *CitationService
}

// NewStatsService 创建统计服务
func NewStatsService(bookService *BookService, citationService *CitationService) *StatsService {
	return &StatsService{
		BookService:     bookService,
		CitationService: citationService,
	}
}

// GetBookStats 计算一本书的统计信息
func (s *StatsService) GetBookStats(bookID string) (*models.BookStats, error) {
	chapters, err := s.BookService.GetChapters(bookID)
	if err != nil {
		return nil, err
	}

	stats := &models.BookStats{
		BookID:       bookID,
		ChapterCount: len(chapters),
	}

	narrated := 0
	for _, chapter := range chapters {
		stats.WordCount += chapter.WordCount
		if chapter.AudioURL != "" {
			narrated++
			stats.AudioDuration += chapter.AudioDuration
		}
	}
	if len(chapters) > 0 {
		stats.AudioCoverage = float64(narrated) / float64(len(chapters))
	}

	if citations, err := s.CitationService.ListCitations(bookID); err == nil {
		stats.CitationCount = len(citations)
	}

	stats.ImageCount = len(s.BookService.ListImages(bookID, ""))

	return stats, nil
}
