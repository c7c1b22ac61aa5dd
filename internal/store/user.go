package store

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"inkwell/internal/models"
	"inkwell/internal/utils"

	"gorm.io/gorm"
)

type UserStore struct {
	db *gorm.DB
}

func NewUserStore(db *gorm.DB) *UserStore {
	return &UserStore{db: db}
}

// Register creates a user with a bcrypt password hash.
func (s *UserStore) Register(ctx context.Context, login, password string) (*models.User, error) {
	login = strings.TrimSpace(login)
	if login == "" {
		return nil, fmt.Errorf("login cannot be empty: %w", ErrValidation)
	}
	if len(password) < 6 {
		return nil, fmt.Errorf("password must be at least 6 characters: %w", ErrValidation)
	}

	hash, err := utils.HashPassword(password)
	if err != nil {
		return nil, err
	}

	// The unique index on login is the only duplicate check; a pre-read
	// would race with concurrent registrations of the same login.
	user := models.User{Login: login, Password: hash}
	if err := s.db.WithContext(ctx).Create(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrDuplicateLogin
		}
		return nil, err
	}
	return &user, nil
}

// Authenticate verifies login and password; ErrNotFound covers both an
// unknown login and a wrong password so callers can't tell the two apart.
func (s *UserStore) Authenticate(ctx context.Context, login, password string) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).Where("login = ?", login).First(&user).Error; err != nil {
		return nil, translate(err)
	}
	if !utils.CheckPassword(user.Password, password) {
		return nil, ErrNotFound
	}
	return &user, nil
}

func (s *UserStore) GetByID(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).First(&user, id).Error; err != nil {
		return nil, translate(err)
	}
	return &user, nil
}
