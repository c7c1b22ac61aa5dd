package store

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"

	"inkwell/internal/db"
	"inkwell/internal/models"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// newTestDB opens a fresh in-memory database per test. The pool is pinned to
// a single connection because every sqlite :memory: connection is its own
// database.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	conn, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	sqlDB, err := conn.DB()
	if err != nil {
		t.Fatalf("unwrap test db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)

	if err := db.Migrate(conn); err != nil {
		t.Fatalf("migrate test db: %v", err)
	}
	return conn
}

func seedUser(t *testing.T, conn *gorm.DB, login string) *models.User {
	t.Helper()
	user := models.User{Login: login, Password: "x"}
	if err := conn.Create(&user).Error; err != nil {
		t.Fatalf("seed user %s: %v", login, err)
	}
	return &user
}

var postSeq atomic.Uint64

func seedPost(t *testing.T, conn *gorm.DB, authorID uint) *models.Post {
	t.Helper()
	post := models.Post{
		Slug:     fmt.Sprintf("test-post-%d", postSeq.Add(1)),
		AuthorID: authorID,
		Title:    "Test post",
	}
	if err := conn.Create(&post).Error; err != nil {
		t.Fatalf("seed post: %v", err)
	}
	return &post
}

func reloadPost(t *testing.T, conn *gorm.DB, id uint) *models.Post {
	t.Helper()
	var post models.Post
	if err := conn.First(&post, id).Error; err != nil {
		t.Fatalf("reload post %d: %v", id, err)
	}
	return &post
}

func countComments(t *testing.T, conn *gorm.DB, postID uint) int {
	t.Helper()
	var n int64
	if err := conn.Model(&models.Comment{}).Where("post_id = ?", postID).Count(&n).Error; err != nil {
		t.Fatalf("count comments: %v", err)
	}
	return int(n)
}

func ctx() context.Context {
	return context.Background()
}
