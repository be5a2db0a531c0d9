package models

import (
	"io"
	"time"
)

type Review struct {
	ID       uint   `json:"id" gorm:"primaryKey"`
	Text     string `json:"text" gorm:"type:text;not null"`
	AuthorID uint   `json:"author_id" gorm:"not null;uniqueIndex:idx_review_author_event"`
	Author   User   `json:"-" gorm:"foreignKey:AuthorID;constraint:OnDelete:CASCADE"`
	EventID  uint   `json:"event_id" gorm:"not null;uniqueIndex:idx_review_author_event;index"`
	Event    Event  `json:"-" gorm:"foreignKey:EventID;constraint:OnDelete:CASCADE"`
	// File is the storage key of the optional attachment.
	File    string    `json:"file"`
	PubDate time.Time `json:"pub_date" gorm:"not null;index"`
}

type ReviewRequest struct {
	Text string `json:"text" form:"text" validate:"required"`
}

type UpdateReviewRequest struct {
	Text *string `json:"text" form:"text" validate:"omitempty,min=1"`
}

// Attachment is an uploaded file travelling from the handler to the review service.
type Attachment struct {
	Filename    string
	ContentType string
	Size        int64
	Open        func() (io.ReadSeekCloser, error)
}

type ReviewResponse struct {
	ID       uint      `json:"id"`
	Text     string    `json:"text"`
	AuthorID uint      `json:"author"`
	EventID  uint      `json:"event"`
	File     string    `json:"file"`
	PubDate  time.Time `json:"pub_date"`
}

// NewReviewResponse renders a review. fileURL is the public location of the
// attachment, empty when there is none.
func NewReviewResponse(r *Review, fileURL string) ReviewResponse {
	return ReviewResponse{
		ID:       r.ID,
		Text:     r.Text,
		AuthorID: r.AuthorID,
		EventID:  r.EventID,
		File:     fileURL,
		PubDate:  r.PubDate,
	}
}
