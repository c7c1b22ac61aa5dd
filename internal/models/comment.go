package models

import (
	"time"
)

type Comment struct {
	ID       uint   `gorm:"primaryKey" json:"id"`
	PostID   uint   `gorm:"not null;index" json:"post_id"`
	Post     Post   `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
	AuthorID uint   `gorm:"not null;index" json:"author_id"`
	Author   User   `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"author"`
	ParentID *uint  `gorm:"index" json:"parent_id"` // Nullable for top-level comments
	Body     string `gorm:"type:text;not null" json:"body"`
	// CreatedAt is the only ordering key; ties break on ID so the order
	// stays deterministic.
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
