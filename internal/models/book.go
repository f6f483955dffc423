// internal/models/book.go
package models

import (
	"time"
)

// Book 表示一本书籍
type Book struct {
	ID           string    `json:"id"`
	UserID       string    `json:"user_id,omitempty"` // 所有者用户ID
	Title        string    `json:"title"`
	Author       string    `json:"author"`
	Description  string    `json:"description,omitempty"`
	Genre        string    `json:"genre,omitempty"`
	CoverURL     string    `json:"cover_url,omitempty"`
	Status       string    `json:"status"` // 状态: draft, writing, completed
	CreatedAt    time.Time `json:"created_at"`
	LastUpdated  time.Time `json:"last_updated"`
	ChapterCount int       `json:"chapter_count"`
	WordCount    int       `json:"word_count"`
}

// BookMetadata 用于书架列表展示
type BookMetadata struct {
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	Author       string    `json:"author"`
	CoverURL     string    `json:"cover_url,omitempty"`
	Status       string    `json:"status"`
	CreatedAt    time.Time `json:"created_at"`
	LastUpdated  time.Time `json:"last_updated"`
	ChapterCount int       `json:"chapter_count"`
	WordCount    int       `json:"word_count"`
}

// BookStats 书籍统计信息
type BookStats struct {
	BookID        string  `json:"book_id"`
	ChapterCount  int     `json:"chapter_count"`
	WordCount     int     `json:"word_count"`
	CitationCount int     `json:"citation_count"`
	ImageCount    int     `json:"image_count"`
	AudioCoverage float64 `json:"audio_coverage"` // 已生成朗读音频的章节比例 (0.0-1.0)
	AudioDuration float64 `json:"audio_duration"` // 全书音频总时长（秒）
}
