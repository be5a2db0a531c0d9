package repository

import (
	"context"

	"github.com/sefazor/events-backend/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ParticipantRepository struct {
	db *gorm.DB
}

func NewParticipantRepository(db *gorm.DB) *ParticipantRepository {
	return &ParticipantRepository{db: db}
}

// Create inserts the (user, event) row. A second row for the same pair is
// rejected by the unique index and reported as ErrDuplicate.
func (r *ParticipantRepository) Create(ctx context.Context, p *models.EventParticipant) error {
	return translate(r.db.WithContext(ctx).Omit(clause.Associations).Create(p).Error)
}

// Transaction runs fn against a repository bound to a single transaction.
// The transaction is rolled back when fn returns an error.
func (r *ParticipantRepository) Transaction(ctx context.Context, fn func(tx *ParticipantRepository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&ParticipantRepository{db: tx})
	})
}

func (r *ParticipantRepository) Exists(ctx context.Context, userID, eventID uint) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.EventParticipant{}).
		Where("user_id = ? AND event_id = ?", userID, eventID).
		Count(&count).Error
	return count > 0, err
}

// Delete removes the (user, event) row and reports whether one existed.
func (r *ParticipantRepository) Delete(ctx context.Context, userID, eventID uint) (bool, error) {
	result := r.db.WithContext(ctx).
		Where("user_id = ? AND event_id = ?", userID, eventID).
		Delete(&models.EventParticipant{})
	return result.RowsAffected > 0, result.Error
}

func (r *ParticipantRepository) CountByEvent(ctx context.Context, eventID uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.EventParticipant{}).
		Where("event_id = ?", eventID).
		Count(&count).Error
	return count, err
}

// ListUsersByEvent returns the registered users of an event in registration order.
func (r *ParticipantRepository) ListUsersByEvent(ctx context.Context, eventID uint) ([]models.User, error) {
	var users []models.User
	err := r.db.WithContext(ctx).
		Joins("JOIN event_participants ON event_participants.user_id = users.id").
		Where("event_participants.event_id = ?", eventID).
		Order("event_participants.id").
		Find(&users).Error
	return users, err
}
