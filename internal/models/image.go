// internal/models/image.go
package models

import (
	"time"
)

// ChapterImage 表示插入章节的一张插图
// Position 为段落索引，渲染时插图显示在该段落之后
type ChapterImage struct {
	ID        string    `json:"id"`
	ChapterID string    `json:"chapter_id"`
	URL       string    `json:"url"`
	Caption   string    `json:"caption,omitempty"`
	Position  int       `json:"position"`
	Width     int       `json:"width,omitempty"` // 显示宽度百分比 (10-100)
	CreatedAt time.Time `json:"created_at"`
}
