package store

import (
	"context"
	"fmt"
	"log"
	"strings"

	"inkwell/internal/models"

	"gorm.io/gorm"
)

// CommentStore owns comment records and keeps the post's comment counter in
// step with them. The record mutation and the counter adjustment are not
// atomic together; the store applies the counter delta after the mutation and
// reverses the mutation once if the adjustment fails.
type CommentStore struct {
	db       *gorm.DB
	counters *Counters
}

func NewCommentStore(db *gorm.DB, counters *Counters) *CommentStore {
	return &CommentStore{db: db, counters: counters}
}

// Create inserts a comment on a post and bumps the post's comment counter.
// ErrNotFound if the post is absent, ErrInvalidParent if the parent comment
// is absent or belongs to a different post.
func (s *CommentStore) Create(ctx context.Context, postID uint, parentID *uint, authorID uint, body string) (*models.Comment, error) {
	if strings.TrimSpace(body) == "" {
		return nil, fmt.Errorf("comment body cannot be empty: %w", ErrValidation)
	}

	var post models.Post
	if err := s.db.WithContext(ctx).Select("id").First(&post, postID).Error; err != nil {
		return nil, translate(err)
	}

	if parentID != nil {
		var parent models.Comment
		if err := s.db.WithContext(ctx).Select("id, post_id").First(&parent, *parentID).Error; err != nil {
			if translate(err) == ErrNotFound {
				return nil, ErrInvalidParent
			}
			return nil, err
		}
		if parent.PostID != postID {
			return nil, ErrInvalidParent
		}
	}

	comment := models.Comment{
		PostID:   postID,
		AuthorID: authorID,
		ParentID: parentID,
		Body:     body,
	}
	if err := s.db.WithContext(ctx).Create(&comment).Error; err != nil {
		return nil, err
	}

	if _, err := s.counters.AdjustCommentCount(ctx, postID, 1); err != nil {
		// Compensate: take the comment back out so record and counter agree.
		if rbErr := s.db.WithContext(ctx).Delete(&models.Comment{}, comment.ID).Error; rbErr != nil {
			log.Printf("comment counter rollback failed for post %d: %v", postID, rbErr)
			return nil, fmt.Errorf("post %d: %w", postID, ErrConsistency)
		}
		return nil, err
	}

	if err := s.db.WithContext(ctx).Preload("Author").First(&comment, comment.ID).Error; err != nil {
		return nil, translate(err)
	}
	return &comment, nil
}

// ListByPost returns a point-in-time snapshot of all live comments on a post,
// ordered by creation time with ties broken by id. authorLogin, when
// non-empty, narrows the result to that author's comments.
func (s *CommentStore) ListByPost(ctx context.Context, postID uint, authorLogin string) ([]models.Comment, error) {
	var post models.Post
	if err := s.db.WithContext(ctx).Select("id").First(&post, postID).Error; err != nil {
		return nil, translate(err)
	}

	q := s.db.WithContext(ctx).Preload("Author").
		Where("comments.post_id = ?", postID).
		Order("comments.created_at ASC, comments.id ASC")
	if authorLogin != "" {
		q = q.Joins("JOIN users ON users.id = comments.author_id").
			Where("users.login = ?", authorLogin)
	}

	var comments []models.Comment
	if err := q.Find(&comments).Error; err != nil {
		return nil, err
	}
	return comments, nil
}

// Edit replaces a comment's body. Only the author may edit.
func (s *CommentStore) Edit(ctx context.Context, id uint, editorID uint, body string) (*models.Comment, error) {
	if strings.TrimSpace(body) == "" {
		return nil, fmt.Errorf("comment body cannot be empty: %w", ErrValidation)
	}

	var comment models.Comment
	if err := s.db.WithContext(ctx).Preload("Author").First(&comment, id).Error; err != nil {
		return nil, translate(err)
	}
	if comment.AuthorID != editorID {
		return nil, ErrForbidden
	}

	comment.Body = body
	if err := s.db.WithContext(ctx).Model(&comment).Update("body", body).Error; err != nil {
		return nil, err
	}
	return &comment, nil
}

// Delete removes a comment together with its whole reply subtree and
// decrements the post's comment counter by the subtree size in one
// adjustment. The requester must be the comment's author or the post's
// author. Returns the post the comment belonged to.
func (s *CommentStore) Delete(ctx context.Context, id uint, requesterID uint) (*models.Post, error) {
	var comment models.Comment
	if err := s.db.WithContext(ctx).First(&comment, id).Error; err != nil {
		return nil, translate(err)
	}

	var post models.Post
	if err := s.db.WithContext(ctx).First(&post, comment.PostID).Error; err != nil {
		return nil, translate(err)
	}
	if comment.AuthorID != requesterID && post.AuthorID != requesterID {
		return nil, ErrForbidden
	}

	// Snapshot all comments on the post once and walk parent links in
	// memory; the subtree is bounded by the post's total comment count.
	var siblings []models.Comment
	if err := s.db.WithContext(ctx).Where("post_id = ?", comment.PostID).Find(&siblings).Error; err != nil {
		return nil, err
	}
	subtree := collectSubtree(siblings, comment.ID)

	ids := make([]uint, len(subtree))
	for i, c := range subtree {
		ids[i] = c.ID
	}
	res := s.db.WithContext(ctx).Where("id IN ?", ids).Delete(&models.Comment{})
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		// A concurrent delete removed the subtree between our snapshot and
		// the statement; that delete owns the counter adjustment.
		return nil, ErrNotFound
	}

	// Decrement by the rows this statement actually removed, not the
	// snapshot size: a concurrent delete may have taken part of the subtree
	// (and adjusted for it) already.
	if _, err := s.counters.AdjustCommentCount(ctx, comment.PostID, -int(res.RowsAffected)); err != nil {
		if err == ErrNotFound {
			// Post vanished mid-delete; its comments going with it is the
			// intended end state, nothing to restore.
			return nil, ErrNotFound
		}
		// Compensate: put the subtree back so record and counter agree.
		if rbErr := s.db.WithContext(ctx).Create(&subtree).Error; rbErr != nil {
			log.Printf("comment subtree rollback failed for post %d: %v", comment.PostID, rbErr)
			return nil, fmt.Errorf("post %d: %w", comment.PostID, ErrConsistency)
		}
		return nil, err
	}

	return &post, nil
}

// collectSubtree returns the comment with rootID and every transitive reply
// to it within the given snapshot.
func collectSubtree(comments []models.Comment, rootID uint) []models.Comment {
	children := make(map[uint][]models.Comment, len(comments))
	byID := make(map[uint]models.Comment, len(comments))
	for _, c := range comments {
		byID[c.ID] = c
		if c.ParentID != nil {
			children[*c.ParentID] = append(children[*c.ParentID], c)
		}
	}

	var subtree []models.Comment
	queue := []uint{rootID}
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		if c, ok := byID[id]; ok {
			subtree = append(subtree, c)
		}
		for _, child := range children[id] {
			queue = append(queue, child.ID)
		}
	}
	return subtree
}
