// internal/models/citation.go
package models

import (
	"time"
)

// CitationKind 文献条目类型
type CitationKind string

const (
	CitationBook    CitationKind = "book"    // 专著
	CitationJournal CitationKind = "journal" // 期刊文章
	CitationWebsite CitationKind = "website" // 网页
)

// Citation 表示一条参考文献
type Citation struct {
	ID         string       `json:"id"`
	BookID     string       `json:"book_id"`
	Kind       CitationKind `json:"kind"`
	Authors    []string     `json:"authors"` // "姓, 名" 形式
	Title      string       `json:"title"`
	Publisher  string       `json:"publisher,omitempty"`
	Year       int          `json:"year,omitempty"`
	Journal    string       `json:"journal,omitempty"`
	Volume     string       `json:"volume,omitempty"`
	Issue      string       `json:"issue,omitempty"`
	Pages      string       `json:"pages,omitempty"`
	URL        string       `json:"url,omitempty"`
	AccessedAt time.Time    `json:"accessed_at,omitempty"` // 网页类条目的访问日期
	CreatedAt  time.Time    `json:"created_at"`
}

// CitationStyle 引用格式
type CitationStyle string

const (
	StyleAPA     CitationStyle = "apa"
	StyleMLA     CitationStyle = "mla"
	StyleChicago CitationStyle = "chicago"
)
