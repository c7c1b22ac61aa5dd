package store

import (
	"context"
	"errors"

	"inkwell/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Counters adjusts the denormalized engagement counters on a post. Every
// adjustment is a single increment-by-delta UPDATE scoped to one row, never a
// read followed by a write, so concurrent adjustments to the same post cannot
// lose updates even across server processes.
type Counters struct {
	db *gorm.DB
}

func NewCounters(db *gorm.DB) *Counters {
	return &Counters{db: db}
}

// AdjustCommentCount shifts the post's comment counter by delta and returns
// the updated value. ErrNotFound if the post no longer exists.
func (c *Counters) AdjustCommentCount(ctx context.Context, postID uint, delta int) (int, error) {
	post, err := c.adjust(ctx, postID, "comment_count", delta)
	if err != nil {
		return 0, err
	}
	return post.CommentCount, nil
}

// AdjustRating shifts the post's aggregate rating score by delta and returns
// the updated value. ErrNotFound if the post no longer exists.
func (c *Counters) AdjustRating(ctx context.Context, postID uint, delta int) (int, error) {
	post, err := c.adjust(ctx, postID, "rating", delta)
	if err != nil {
		return 0, err
	}
	return post.Rating, nil
}

// adjust performs the increment and reads the resulting value back through a
// RETURNING clause on the same statement, so the value reported to the
// caller is exactly this adjustment's result even under concurrent callers.
func (c *Counters) adjust(ctx context.Context, postID uint, column string, delta int) (*models.Post, error) {
	var post models.Post
	res := c.db.WithContext(ctx).Model(&post).
		Clauses(clause.Returning{Columns: []clause.Column{{Name: column}}}).
		Where("id = ?", postID).
		UpdateColumn(column, gorm.Expr(column+" + ?", delta))
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		// Post deleted concurrently
		return nil, ErrNotFound
	}
	return &post, nil
}

// translate maps gorm's record-miss onto the store taxonomy.
func translate(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}
