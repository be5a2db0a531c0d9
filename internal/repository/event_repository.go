package repository

import (
	"context"

	"github.com/sefazor/events-backend/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type EventRepository struct {
	db *gorm.DB
}

func NewEventRepository(db *gorm.DB) *EventRepository {
	return &EventRepository{db: db}
}

func (r *EventRepository) Create(ctx context.Context, event *models.Event) (*models.Event, error) {
	if err := r.db.WithContext(ctx).Omit(clause.Associations).Create(event).Error; err != nil {
		return nil, translate(err)
	}
	return event, nil
}

func (r *EventRepository) GetByID(ctx context.Context, id uint) (*models.Event, error) {
	var event models.Event
	if err := r.db.WithContext(ctx).First(&event, id).Error; err != nil {
		return nil, err
	}
	return &event, nil
}

// GetWithOwner loads the event and its owning user, whose email receives notifications.
func (r *EventRepository) GetWithOwner(ctx context.Context, id uint) (*models.Event, error) {
	var event models.Event
	if err := r.db.WithContext(ctx).Preload("User").First(&event, id).Error; err != nil {
		return nil, err
	}
	return &event, nil
}

func (r *EventRepository) List(ctx context.Context, limit, offset int) ([]models.Event, int64, error) {
	var (
		events []models.Event
		count  int64
	)
	db := r.db.WithContext(ctx).Model(&models.Event{}).Session(&gorm.Session{})
	if err := db.Count(&count).Error; err != nil {
		return nil, 0, err
	}
	if err := db.Order("start_at ASC, id ASC").Limit(limit).Offset(offset).Find(&events).Error; err != nil {
		return nil, 0, err
	}
	return events, count, nil
}

// ListByParticipant returns the events a user is registered for.
func (r *EventRepository) ListByParticipant(ctx context.Context, userID uint) ([]models.Event, error) {
	var events []models.Event
	err := r.db.WithContext(ctx).
		Where("id IN (?)", r.db.Model(&models.EventParticipant{}).Select("event_id").Where("user_id = ?", userID)).
		Order("start_at ASC, id ASC").
		Find(&events).Error
	return events, err
}

func (r *EventRepository) Update(ctx context.Context, event *models.Event) error {
	return translate(r.db.WithContext(ctx).Omit(clause.Associations).Save(event).Error)
}

// Delete fails with ErrReferenced while participant rows point at the event.
func (r *EventRepository) Delete(ctx context.Context, id uint) error {
	result := r.db.WithContext(ctx).Delete(&models.Event{}, id)
	if result.Error != nil {
		return translate(result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrRecordNotFound
	}
	return nil
}
