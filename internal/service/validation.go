package service

import (
	"context"
	"fmt"
	"time"

	"github.com/sefazor/events-backend/internal/metrics"
	"github.com/sefazor/events-backend/internal/models"
	"github.com/sefazor/events-backend/internal/repository"
)

const (
	msgAlreadyReviewed = "you have already reviewed this event"
	msgNotRegistered   = "you were not registered for this event"
	msgNotOccurred     = "the event has not taken place yet"
)

// ValidateStartAt requires an event to start strictly after now.
func ValidateStartAt(startAt, now time.Time) error {
	if !startAt.After(now) {
		return newValidationError("start_at",
			fmt.Sprintf("%s is not a future date and time", startAt.Format(time.RFC3339)))
	}
	return nil
}

// ReviewEligibility decides whether an author may review an event.
type ReviewEligibility struct {
	events       *repository.EventRepository
	participants *repository.ParticipantRepository
	reviews      *repository.ReviewRepository
}

func NewReviewEligibility(
	events *repository.EventRepository,
	participants *repository.ParticipantRepository,
	reviews *repository.ReviewRepository,
) *ReviewEligibility {
	return &ReviewEligibility{
		events:       events,
		participants: participants,
		reviews:      reviews,
	}
}

// Check runs the rules in a fixed order and stops at the first failure:
// no earlier review, the event exists, the author was registered, and the
// event started before now. A missing event is ErrNotFound, every other
// failure a *ValidationError. On success the event is returned with its owner.
func (v *ReviewEligibility) Check(ctx context.Context, authorID, eventID uint, now time.Time) (*models.Event, error) {
	reviewed, err := v.reviews.Exists(ctx, authorID, eventID)
	if err != nil {
		return nil, err
	}
	if reviewed {
		metrics.ReviewsRejected.WithLabelValues("duplicate").Inc()
		return nil, newValidationError(NonFieldErrors, msgAlreadyReviewed)
	}

	event, err := v.events.GetWithOwner(ctx, eventID)
	if err != nil {
		return nil, lookupError("event", err)
	}

	registered, err := v.participants.Exists(ctx, authorID, eventID)
	if err != nil {
		return nil, err
	}
	if !registered {
		metrics.ReviewsRejected.WithLabelValues("not_registered").Inc()
		return nil, newValidationError(NonFieldErrors, msgNotRegistered)
	}

	if !event.StartAt.Before(now) {
		metrics.ReviewsRejected.WithLabelValues("not_occurred").Inc()
		return nil, newValidationError(NonFieldErrors, msgNotOccurred)
	}
	return event, nil
}
