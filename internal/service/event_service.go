package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/sefazor/events-backend/internal/models"
	"github.com/sefazor/events-backend/internal/permission"
	"github.com/sefazor/events-backend/internal/repository"
	"github.com/sefazor/events-backend/pkg/utils"
)

// EventView is the shape an event is rendered in for a given caller.
type EventView int

const (
	ViewWithoutParticipants EventView = iota
	ViewWithParticipants
)

func (v EventView) String() string {
	if v == ViewWithParticipants {
		return "with_participants"
	}
	return "without_participants"
}

// SelectEventView shows participants only to the moderator who owns the event.
func SelectEventView(caller permission.Caller, event *models.Event) EventView {
	if caller.IsAuthenticated() && caller.IsModerator && caller.ID == event.UserID {
		return ViewWithParticipants
	}
	return ViewWithoutParticipants
}

// EventDetail is an event as seen by one caller. Participants is only
// loaded when View is ViewWithParticipants.
type EventDetail struct {
	View         EventView
	Event        *models.Event
	Participants []models.User
}

// Response renders the detail as EventDetailResponse or EventResponse. The
// latter has no participants field at all.
func (d *EventDetail) Response() interface{} {
	base := models.NewEventResponse(d.Event)
	if d.View != ViewWithParticipants {
		return base
	}
	return models.EventDetailResponse{
		EventResponse: base,
		Participants:  models.NewUserResponses(d.Participants),
	}
}

type EventService struct {
	eventRepo       *repository.EventRepository
	participantRepo *repository.ParticipantRepository
	validator       *utils.Validator
	logger          *zap.Logger
	now             func() time.Time
}

func NewEventService(
	eventRepo *repository.EventRepository,
	participantRepo *repository.ParticipantRepository,
	validator *utils.Validator,
	logger *zap.Logger,
) *EventService {
	return &EventService{
		eventRepo:       eventRepo,
		participantRepo: participantRepo,
		validator:       validator,
		logger:          logger.With(zap.String("component", "event_service")),
		now:             time.Now,
	}
}

func (s *EventService) CreateEvent(ctx context.Context, caller permission.Caller, req models.EventRequest) (*models.Event, error) {
	if err := permission.EventAccess(caller, permission.ActionCreate); err != nil {
		return nil, err
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, err
	}
	if err := ValidateStartAt(req.StartAt, s.now()); err != nil {
		return nil, err
	}

	event, err := s.eventRepo.Create(ctx, &models.Event{
		UserID:      caller.ID,
		Title:       req.Title,
		Type:        req.Type,
		Address:     req.Address,
		Description: req.Description,
		StartAt:     req.StartAt,
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("event created", zap.Uint("event_id", event.ID), zap.Uint("user_id", caller.ID))
	return event, nil
}

func (s *EventService) GetEvent(ctx context.Context, caller permission.Caller, id uint) (*EventDetail, error) {
	event, err := s.eventRepo.GetByID(ctx, id)
	if err != nil {
		return nil, lookupError("event", err)
	}

	detail := &EventDetail{View: SelectEventView(caller, event), Event: event}
	if detail.View == ViewWithParticipants {
		detail.Participants, err = s.participantRepo.ListUsersByEvent(ctx, event.ID)
		if err != nil {
			return nil, err
		}
	}
	return detail, nil
}

func (s *EventService) ListEvents(ctx context.Context, page models.PageRequest) (*models.Page[models.EventResponse], error) {
	page = page.Normalize()
	events, count, err := s.eventRepo.List(ctx, page.Limit, page.Offset)
	if err != nil {
		return nil, err
	}
	return &models.Page[models.EventResponse]{
		Count:   count,
		Results: models.NewEventResponses(events),
	}, nil
}

// MyEvents lists the events the caller is registered for.
func (s *EventService) MyEvents(ctx context.Context, caller permission.Caller) ([]models.EventResponse, error) {
	if err := permission.Registration(caller); err != nil {
		return nil, err
	}
	events, err := s.eventRepo.ListByParticipant(ctx, caller.ID)
	if err != nil {
		return nil, err
	}
	return models.NewEventResponses(events), nil
}

// UpdateEvent applies a partial update. start_at is only checked against
// the clock when the request changes it.
func (s *EventService) UpdateEvent(ctx context.Context, caller permission.Caller, id uint, req models.UpdateEventRequest) (*models.Event, error) {
	if err := permission.EventAccess(caller, permission.ActionUpdate); err != nil {
		return nil, err
	}

	event, err := s.eventRepo.GetByID(ctx, id)
	if err != nil {
		return nil, lookupError("event", err)
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, err
	}

	if req.StartAt != nil {
		if err := ValidateStartAt(*req.StartAt, s.now()); err != nil {
			return nil, err
		}
		event.StartAt = *req.StartAt
	}
	if req.Title != nil {
		event.Title = *req.Title
	}
	if req.Type != nil {
		event.Type = *req.Type
	}
	if req.Address != nil {
		event.Address = *req.Address
	}
	if req.Description != nil {
		event.Description = *req.Description
	}

	if err := s.eventRepo.Update(ctx, event); err != nil {
		return nil, err
	}
	return event, nil
}

// DeleteEvent refuses while participants are registered. The restrict
// foreign key enforces the same rule if a registration slips in between.
func (s *EventService) DeleteEvent(ctx context.Context, caller permission.Caller, id uint) error {
	if err := permission.EventAccess(caller, permission.ActionDelete); err != nil {
		return err
	}

	event, err := s.eventRepo.GetByID(ctx, id)
	if err != nil {
		return lookupError("event", err)
	}

	count, err := s.participantRepo.CountByEvent(ctx, event.ID)
	if err != nil {
		return err
	}
	if count > 0 {
		return fmt.Errorf("event has registered participants: %w", ErrConflict)
	}

	if err := s.eventRepo.Delete(ctx, event.ID); err != nil {
		switch {
		case errors.Is(err, repository.ErrReferenced):
			return fmt.Errorf("event has registered participants: %w", ErrConflict)
		case errors.Is(err, repository.ErrRecordNotFound):
			return notFound("event")
		}
		return err
	}

	s.logger.Info("event deleted", zap.Uint("event_id", event.ID), zap.Uint("user_id", caller.ID))
	return nil
}
