package store

import (
	"context"
	"fmt"
	"log"

	"inkwell/internal/models"

	"gorm.io/gorm"
)

// Rating values as stored on the record and summed into Post.Rating.
const (
	ValuePositive = 1
	ValueNegative = -1
)

// RatedState is a user's resulting rating state for a post, mirrored into
// post responses as the "rated" object.
type RatedState struct {
	IsRated  bool `json:"isRated"`
	Negative bool `json:"negative"`
}

// RatingLedger owns the one-rating-per-(user,post) records and drives the
// rating counter on the post. Same compensating protocol as the comment
// store: mutate the record, adjust the counter, reverse the mutation once if
// the adjustment fails.
type RatingLedger struct {
	db       *gorm.DB
	counters *Counters
}

func NewRatingLedger(db *gorm.DB, counters *Counters) *RatingLedger {
	return &RatingLedger{db: db, counters: counters}
}

// Toggle applies one rating action:
//
//	no record       -> create, score += value
//	same value      -> delete, score -= value
//	opposite value  -> flip, score += 2*value
func (l *RatingLedger) Toggle(ctx context.Context, userID, postID uint, value int) (RatedState, error) {
	if value != ValuePositive && value != ValueNegative {
		return RatedState{}, fmt.Errorf("rating value must be positive or negative: %w", ErrValidation)
	}

	var post models.Post
	if err := l.db.WithContext(ctx).Select("id").First(&post, postID).Error; err != nil {
		return RatedState{}, translate(err)
	}

	var existing models.Rating
	err := l.db.WithContext(ctx).
		Where("user_id = ? AND post_id = ?", userID, postID).
		First(&existing).Error

	switch {
	case translate(err) == ErrNotFound:
		return l.record(ctx, userID, postID, value)
	case err != nil:
		return RatedState{}, err
	case existing.Value == value:
		return l.clear(ctx, existing)
	default:
		return l.flip(ctx, existing, value)
	}
}

// Clear removes the user's rating if one exists ("un-rate"); clearing an
// absent rating is a no-op.
func (l *RatingLedger) Clear(ctx context.Context, userID, postID uint) (RatedState, error) {
	var post models.Post
	if err := l.db.WithContext(ctx).Select("id").First(&post, postID).Error; err != nil {
		return RatedState{}, translate(err)
	}

	var existing models.Rating
	err := l.db.WithContext(ctx).
		Where("user_id = ? AND post_id = ?", userID, postID).
		First(&existing).Error
	if translate(err) == ErrNotFound {
		return RatedState{}, nil
	}
	if err != nil {
		return RatedState{}, err
	}
	return l.clear(ctx, existing)
}

// Get reports the user's current rating state without mutating anything.
func (l *RatingLedger) Get(ctx context.Context, userID, postID uint) (RatedState, error) {
	var existing models.Rating
	err := l.db.WithContext(ctx).
		Where("user_id = ? AND post_id = ?", userID, postID).
		First(&existing).Error
	if translate(err) == ErrNotFound {
		return RatedState{}, nil
	}
	if err != nil {
		return RatedState{}, err
	}
	return RatedState{IsRated: true, Negative: existing.Value == ValueNegative}, nil
}

func (l *RatingLedger) record(ctx context.Context, userID, postID uint, value int) (RatedState, error) {
	rating := models.Rating{UserID: userID, PostID: postID, Value: value}
	if err := l.db.WithContext(ctx).Create(&rating).Error; err != nil {
		return RatedState{}, err
	}

	if _, err := l.counters.AdjustRating(ctx, postID, value); err != nil {
		if rbErr := l.db.WithContext(ctx).Delete(&models.Rating{}, rating.ID).Error; rbErr != nil {
			log.Printf("rating rollback failed for post %d: %v", postID, rbErr)
			return RatedState{}, fmt.Errorf("post %d: %w", postID, ErrConsistency)
		}
		return RatedState{}, err
	}
	return RatedState{IsRated: true, Negative: value == ValueNegative}, nil
}

func (l *RatingLedger) clear(ctx context.Context, existing models.Rating) (RatedState, error) {
	if err := l.db.WithContext(ctx).Delete(&models.Rating{}, existing.ID).Error; err != nil {
		return RatedState{}, err
	}

	if _, err := l.counters.AdjustRating(ctx, existing.PostID, -existing.Value); err != nil {
		restored := models.Rating{UserID: existing.UserID, PostID: existing.PostID, Value: existing.Value}
		if rbErr := l.db.WithContext(ctx).Create(&restored).Error; rbErr != nil {
			log.Printf("rating rollback failed for post %d: %v", existing.PostID, rbErr)
			return RatedState{}, fmt.Errorf("post %d: %w", existing.PostID, ErrConsistency)
		}
		return RatedState{}, err
	}
	return RatedState{}, nil
}

func (l *RatingLedger) flip(ctx context.Context, existing models.Rating, value int) (RatedState, error) {
	prev := existing.Value
	if err := l.db.WithContext(ctx).Model(&existing).Update("value", value).Error; err != nil {
		return RatedState{}, err
	}

	// Removing the old vote and adding the new one nets 2*value.
	if _, err := l.counters.AdjustRating(ctx, existing.PostID, 2*value); err != nil {
		if rbErr := l.db.WithContext(ctx).Model(&existing).Update("value", prev).Error; rbErr != nil {
			log.Printf("rating rollback failed for post %d: %v", existing.PostID, rbErr)
			return RatedState{}, fmt.Errorf("post %d: %w", existing.PostID, ErrConsistency)
		}
		return RatedState{}, err
	}
	return RatedState{IsRated: true, Negative: value == ValueNegative}, nil
}
