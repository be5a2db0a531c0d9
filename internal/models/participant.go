package models

import "time"

// EventParticipant records a user's registration for an event.
// Deleting the user cascades; deleting the event is restricted while rows exist.
type EventParticipant struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	UserID    uint      `json:"user_id" gorm:"not null;uniqueIndex:idx_participant_user_event"`
	User      User      `json:"-" gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
	EventID   uint      `json:"event_id" gorm:"not null;uniqueIndex:idx_participant_user_event;index"`
	Event     Event     `json:"-" gorm:"foreignKey:EventID;constraint:OnDelete:RESTRICT"`
	CreatedAt time.Time `json:"created_at"`
}

type RegistrationStatus string

const (
	RegistrationCreated   RegistrationStatus = "registration created"
	RegistrationWithdrawn RegistrationStatus = "registration withdrawn"
)

type RegistrationResponse struct {
	Status RegistrationStatus `json:"status"`
}
