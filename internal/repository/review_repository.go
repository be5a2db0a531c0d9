package repository

import (
	"context"

	"github.com/sefazor/events-backend/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ReviewRepository struct {
	db *gorm.DB
}

func NewReviewRepository(db *gorm.DB) *ReviewRepository {
	return &ReviewRepository{db: db}
}

// Create inserts a review. The (author, event) unique index turns a second
// review into ErrDuplicate.
func (r *ReviewRepository) Create(ctx context.Context, review *models.Review) error {
	return translate(r.db.WithContext(ctx).Omit(clause.Associations).Create(review).Error)
}

// Transaction runs fn against a repository bound to a single transaction.
func (r *ReviewRepository) Transaction(ctx context.Context, fn func(tx *ReviewRepository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&ReviewRepository{db: tx})
	})
}

func (r *ReviewRepository) Exists(ctx context.Context, authorID, eventID uint) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Review{}).
		Where("author_id = ? AND event_id = ?", authorID, eventID).
		Count(&count).Error
	return count > 0, err
}

// GetForEvent finds a review only if it belongs to the given event.
func (r *ReviewRepository) GetForEvent(ctx context.Context, eventID, reviewID uint) (*models.Review, error) {
	var review models.Review
	err := r.db.WithContext(ctx).
		Where("id = ? AND event_id = ?", reviewID, eventID).
		First(&review).Error
	if err != nil {
		return nil, err
	}
	return &review, nil
}

func (r *ReviewRepository) ListByEvent(ctx context.Context, eventID uint, limit, offset int) ([]models.Review, int64, error) {
	var (
		reviews []models.Review
		count   int64
	)
	db := r.db.WithContext(ctx).Model(&models.Review{}).Where("event_id = ?", eventID).Session(&gorm.Session{})
	if err := db.Count(&count).Error; err != nil {
		return nil, 0, err
	}
	if err := db.Order("pub_date DESC, id DESC").Limit(limit).Offset(offset).Find(&reviews).Error; err != nil {
		return nil, 0, err
	}
	return reviews, count, nil
}

// UpdateContent changes text and attachment. pub_date is never touched.
func (r *ReviewRepository) UpdateContent(ctx context.Context, review *models.Review) error {
	return r.db.WithContext(ctx).Model(review).
		Select("text", "file").
		Updates(map[string]interface{}{"text": review.Text, "file": review.File}).Error
}

func (r *ReviewRepository) Delete(ctx context.Context, id uint) error {
	result := r.db.WithContext(ctx).Delete(&models.Review{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrRecordNotFound
	}
	return nil
}

// AttachmentKeysForUser lists attachment keys of every review that deleting
// the user would cascade away: reviews written by the user and reviews of
// events the user owns.
func (r *ReviewRepository) AttachmentKeysForUser(ctx context.Context, userID uint) ([]string, error) {
	var keys []string
	err := r.db.WithContext(ctx).Model(&models.Review{}).
		Where("file <> ''").
		Where("author_id = ? OR event_id IN (?)", userID,
			r.db.Model(&models.Event{}).Select("id").Where("user_id = ?", userID)).
		Pluck("file", &keys).Error
	return keys, err
}
