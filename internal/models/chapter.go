// internal/models/chapter.go
package models

import (
	"time"
)

// Chapter 表示书籍中的一个章节
// Content 为纯文本，段落之间用空行分隔
type Chapter struct {
	ID              string           `json:"id"`
	BookID          string           `json:"book_id"`
	Number          int              `json:"number"` // 章节序号（从1开始）
	Title           string           `json:"title"`
	Content         string           `json:"content"`
	WordCount       int              `json:"word_count"`
	Status          string           `json:"status"` // 状态: draft, completed
	AudioURL        string           `json:"audio_url,omitempty"`
	AudioDuration   float64          `json:"audio_duration,omitempty"` // 音频时长（秒）
	AudioTimestamps []AudioTimestamp `json:"audio_timestamps,omitempty"`
	CreatedAt       time.Time        `json:"created_at"`
	LastUpdated     time.Time        `json:"last_updated"`
}

// AudioTimestamp 单词级别的音频对齐时间戳
// 由外部对齐服务产生，按 Start 升序排列
type AudioTimestamp struct {
	Word  string  `json:"word"`
	Start float64 `json:"start"` // 开始时间（秒）
	End   float64 `json:"end"`   // 结束时间（秒），Start <= End
}

// ChapterMetadata 用于目录列表，不携带正文
type ChapterMetadata struct {
	ID          string    `json:"id"`
	BookID      string    `json:"book_id"`
	Number      int       `json:"number"`
	Title       string    `json:"title"`
	WordCount   int       `json:"word_count"`
	Status      string    `json:"status"`
	HasAudio    bool      `json:"has_audio"`
	LastUpdated time.Time `json:"last_updated"`
}

// Metadata 生成章节的目录条目
func (c *Chapter) Metadata() ChapterMetadata {
	return ChapterMetadata{
		ID:          c.ID,
		BookID:      c.BookID,
		Number:      c.Number,
		Title:       c.Title,
		WordCount:   c.WordCount,
		Status:      c.Status,
		HasAudio:    c.AudioURL != "",
		LastUpdated: c.LastUpdated,
	}
}
