package models

import (
	"time"
)

type EventType string

const (
	EventTypeRegional EventType = "REGIONAL"
	EventTypeLocal    EventType = "LOCAL"
)

func (t EventType) Valid() bool {
	switch t {
	case EventTypeRegional, EventTypeLocal:
		return true
	}
	return false
}

type Event struct {
	ID          uint      `json:"id" gorm:"primaryKey"`
	UserID      uint      `json:"user_id" gorm:"not null;index"`
	User        User      `json:"-" gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
	Title       string    `json:"title" gorm:"size:40;not null"`
	Type        EventType `json:"type" gorm:"size:40;not null"`
	Address     string    `json:"address" gorm:"size:200;not null"`
	Description string    `json:"description" gorm:"type:text;not null"`
	StartAt     time.Time `json:"start_at" gorm:"not null;index"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type EventRequest struct {
	Title       string    `json:"title" validate:"required,max=40"`
	Type        EventType `json:"type" validate:"required,event_type"`
	Address     string    `json:"address" validate:"required,max=200"`
	Description string    `json:"description" validate:"required"`
	StartAt     time.Time `json:"start_at" validate:"required"`
}

type UpdateEventRequest struct {
	Title       *string    `json:"title" validate:"omitempty,max=40"`
	Type        *EventType `json:"type" validate:"omitempty,event_type"`
	Address     *string    `json:"address" validate:"omitempty,max=200"`
	Description *string    `json:"description" validate:"omitempty,min=1"`
	StartAt     *time.Time `json:"start_at"`
}

type EventResponse struct {
	ID          uint      `json:"id"`
	UserID      uint      `json:"user_id"`
	Title       string    `json:"title"`
	Type        EventType `json:"type"`
	Address     string    `json:"address"`
	Description string    `json:"description"`
	StartAt     time.Time `json:"start_at"`
}

// EventDetailResponse is what the owning moderator sees. The participants
// field is always present for this shape, even when empty.
type EventDetailResponse struct {
	EventResponse
	Participants []UserResponse `json:"participants"`
}

func NewEventResponse(e *Event) EventResponse {
	return EventResponse{
		ID:          e.ID,
		UserID:      e.UserID,
		Title:       e.Title,
		Type:        e.Type,
		Address:     e.Address,
		Description: e.Description,
		StartAt:     e.StartAt,
	}
}

func NewEventResponses(events []Event) []EventResponse {
	out := make([]EventResponse, 0, len(events))
	for i := range events {
		out = append(out, NewEventResponse(&events[i]))
	}
	return out
}
