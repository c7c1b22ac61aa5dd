package store

import (
	"context"
	"fmt"
	"math"
	"strings"

	"inkwell/internal/models"
	"inkwell/internal/utils"

	slugify "github.com/gosimple/slug"
	"gorm.io/gorm"
)

// DefaultPostLimit caps post listing; requests above MaxPostLimit are
// rejected rather than clamped.
const (
	DefaultPostLimit = 100
	MaxPostLimit     = 100
)

type PostStore struct {
	db *gorm.DB
}

func NewPostStore(db *gorm.DB) *PostStore {
	return &PostStore{db: db}
}

// Create inserts a post with a slug derived from the title plus a random
// suffix to keep slugs unique across same-titled posts.
func (s *PostStore) Create(ctx context.Context, authorID uint, title, body string, tags []string) (*models.Post, error) {
	if strings.TrimSpace(title) == "" {
		return nil, fmt.Errorf("title cannot be empty: %w", ErrValidation)
	}

	post := models.Post{
		Slug:     fmt.Sprintf("%s-%s", slugify.Make(title), utils.RandString(6)),
		AuthorID: authorID,
		Title:    title,
		Body:     body,
		Tags:     tags,
	}
	if err := s.db.WithContext(ctx).Create(&post).Error; err != nil {
		return nil, err
	}

	if err := s.db.WithContext(ctx).Preload("Author").First(&post, post.ID).Error; err != nil {
		return nil, translate(err)
	}
	return &post, nil
}

// List returns a page of posts, newest first, together with the total page
// count for the given limit.
func (s *PostStore) List(ctx context.Context, limit, offset int) ([]models.Post, int, error) {
	if limit <= 0 {
		limit = DefaultPostLimit
	}
	if limit > MaxPostLimit {
		return nil, 0, fmt.Errorf("limit can't be more than %d: %w", MaxPostLimit, ErrValidation)
	}
	if offset < 0 {
		offset = 0
	}

	var total int64
	if err := s.db.WithContext(ctx).Model(&models.Post{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}
	pages := int(math.Ceil(float64(total) / float64(limit)))

	var posts []models.Post
	err := s.db.WithContext(ctx).Preload("Author").
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&posts).Error
	if err != nil {
		return nil, 0, err
	}
	return posts, pages, nil
}

func (s *PostStore) GetBySlug(ctx context.Context, slug string) (*models.Post, error) {
	var post models.Post
	if err := s.db.WithContext(ctx).Preload("Author").Where("slug = ?", slug).First(&post).Error; err != nil {
		return nil, translate(err)
	}
	return &post, nil
}

func (s *PostStore) GetByID(ctx context.Context, id uint) (*models.Post, error) {
	var post models.Post
	if err := s.db.WithContext(ctx).Preload("Author").First(&post, id).Error; err != nil {
		return nil, translate(err)
	}
	return &post, nil
}
