package models

import (
	"time"
)

type Post struct {
	ID       uint     `gorm:"primaryKey" json:"id"`
	Slug     string   `gorm:"uniqueIndex;not null" json:"slug"`
	AuthorID uint     `gorm:"not null;index" json:"author_id"`
	Author   User     `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"author"`
	Title    string   `gorm:"not null" json:"title"`
	Body     string   `gorm:"type:text" json:"body"` // Raw markdown, rendered on read
	Tags     []string `gorm:"serializer:json" json:"tags"`

	// Denormalized engagement counters. CommentCount tracks the number of
	// live comments on the post, Rating the sum of all rating values.
	// Both are adjusted only through store.Counters.
	CommentCount int `gorm:"not null;default:0" json:"comment_count"`
	Rating       int `gorm:"not null;default:0" json:"rating"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
