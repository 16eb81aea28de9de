package model

import (
	"strings"
	"time"
)

// DefaultNoteTitle 标题为空时的占位标题
const DefaultNoteTitle = "Untitled Note"

// Note 笔记模型。Summary 由 AI 生成，重新生成时整体覆盖。
// UpdatedAt 由 gorm 维护，任何行变更都会刷新。
type Note struct {
	ID        uint64    `gorm:"primarykey" json:"id"`
	UserID    uint64    `gorm:"index;not null" json:"user_id"`
	Title     string    `gorm:"not null;size:200" json:"title"`
	Content   string    `gorm:"type:text" json:"content"`
	Summary   string    `gorm:"type:text" json:"summary"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// WordCount 按空白切词统计正文词数，空正文记 0。
func (n *Note) WordCount() int {
	return len(strings.Fields(n.Content))
}

// HasSummary reports whether a generated summary is present.
func (n *Note) HasSummary() bool {
	return strings.TrimSpace(n.Summary) != ""
}

// Matches 判断笔记是否命中检索词：标题 / 正文 / 摘要任一字段
// 包含该子串即命中，大小写不敏感。空检索词命中所有笔记。
func (n *Note) Matches(term string) bool {
	if term == "" {
		return true
	}
	t := strings.ToLower(term)
	return strings.Contains(strings.ToLower(n.Title), t) ||
		strings.Contains(strings.ToLower(n.Content), t) ||
		strings.Contains(strings.ToLower(n.Summary), t)
}
