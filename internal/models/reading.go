// internal/models/reading.go
package models

import (
	"time"
)

// ReadingState 表示一本书的阅读进度与偏好
// 按 bookID 作为键持久化，写入时与已有状态合并
type ReadingState struct {
	BookID       string    `json:"book_id"`
	ChapterIndex int       `json:"chapter_index"` // 当前章节索引（从0开始）
	CurrentPage  int       `json:"current_page"`  // 当前左页索引（总是偶数，对应双页展开）
	FontSize     string    `json:"font_size"`     // 字号: small, base, large, xlarge
	Theme        string    `json:"theme"`         // 主题: light, sepia, dark
	AmbientSound string    `json:"ambient_sound"` // 环境音: none, rain, fireplace, cafe
	SoundVolume  float64   `json:"sound_volume"`  // 环境音音量 (0.0-1.0)
	UpdatedAt    time.Time `json:"updated_at"`
}

// ReadingStatePatch 阅读状态的部分更新
// 指针字段为 nil 表示保持原值
type ReadingStatePatch struct {
	ChapterIndex *int     `json:"chapter_index,omitempty"`
	CurrentPage  *int     `json:"current_page,omitempty"`
	FontSize     *string  `json:"font_size,omitempty"`
	Theme        *string  `json:"theme,omitempty"`
	AmbientSound *string  `json:"ambient_sound,omitempty"`
	SoundVolume  *float64 `json:"sound_volume,omitempty"`
}
