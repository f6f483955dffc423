// internal/models/export.go
package models

import (
	"time"
)

// ExportResult 表示一次导出的结果
type ExportResult struct {
	Title     string    `json:"title"`
	BookID    string    `json:"book_id"`
	Format    string    `json:"format"` // 格式: txt, markdown, html, json
	Content   string    `json:"content"`
	FilePath  string    `json:"file_path,omitempty"`
	FileSize  int64     `json:"file_size,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}
