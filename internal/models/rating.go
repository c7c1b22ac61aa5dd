package models

import (
	"time"
)

// Rating is a single user's rating of a post, at most one per (user, post).
type Rating struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"not null;index;uniqueIndex:idx_user_post_rating" json:"user_id"`
	PostID    uint      `gorm:"not null;index;uniqueIndex:idx_user_post_rating" json:"post_id"`
	Post      Post      `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
	Value     int       `gorm:"not null" json:"value"` // 1 or -1
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
