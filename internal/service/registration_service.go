package service

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/sefazor/events-backend/internal/metrics"
	"github.com/sefazor/events-backend/internal/models"
	"github.com/sefazor/events-backend/internal/notification"
	"github.com/sefazor/events-backend/internal/permission"
	"github.com/sefazor/events-backend/internal/repository"
)

type RegistrationService struct {
	eventRepo       *repository.EventRepository
	participantRepo *repository.ParticipantRepository
	notifier        notification.Dispatcher
	logger          *zap.Logger
}

func NewRegistrationService(
	eventRepo *repository.EventRepository,
	participantRepo *repository.ParticipantRepository,
	notifier notification.Dispatcher,
	logger *zap.Logger,
) *RegistrationService {
	return &RegistrationService{
		eventRepo:       eventRepo,
		participantRepo: participantRepo,
		notifier:        notifier,
		logger:          logger.With(zap.String("component", "registration_service")),
	}
}

// Toggle registers the caller for the event, or withdraws an existing
// registration. Existence check and write are separate statements; two
// concurrent calls can both see no row, and the unique index rejects the
// second insert with ErrConflict.
func (s *RegistrationService) Toggle(ctx context.Context, caller permission.Caller, eventID uint) (models.RegistrationStatus, error) {
	if err := permission.Registration(caller); err != nil {
		return "", err
	}

	registered, err := s.participantRepo.Exists(ctx, caller.ID, eventID)
	if err != nil {
		return "", err
	}
	if registered {
		if _, err := s.participantRepo.Delete(ctx, caller.ID, eventID); err != nil {
			return "", err
		}
		metrics.Registrations.WithLabelValues("withdrawn").Inc()
		return models.RegistrationWithdrawn, nil
	}

	event, err := s.eventRepo.GetWithOwner(ctx, eventID)
	if err != nil {
		return "", lookupError("event", err)
	}

	// The row and the notification succeed or fail together: a failed
	// dispatch rolls the registration back.
	err = s.participantRepo.Transaction(ctx, func(participants *repository.ParticipantRepository) error {
		if err := participants.Create(ctx, &models.EventParticipant{UserID: caller.ID, EventID: event.ID}); err != nil {
			return err
		}
		return s.notifier.Dispatch(ctx, notification.Notification{
			Kind:         notification.KindRegistration,
			EventID:      event.ID,
			EventTitle:   event.Title,
			EventStartAt: event.StartAt,
			Recipient:    event.User.Email,
			Submitter:    caller.Email,
		})
	})
	if err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			metrics.Registrations.WithLabelValues("conflict").Inc()
			return "", fmt.Errorf("already registered for this event: %w", ErrConflict)
		}
		return "", err
	}
	metrics.Registrations.WithLabelValues("created").Inc()

	s.logger.Info("registration created", zap.Uint("event_id", event.ID), zap.Uint("user_id", caller.ID))
	return models.RegistrationCreated, nil
}
