package service

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/sefazor/events-backend/internal/metrics"
	"github.com/sefazor/events-backend/internal/models"
	"github.com/sefazor/events-backend/internal/notification"
	"github.com/sefazor/events-backend/internal/permission"
	"github.com/sefazor/events-backend/internal/repository"
	"github.com/sefazor/events-backend/pkg/storage"
	"github.com/sefazor/events-backend/pkg/utils"
)

const attachmentPrefix = "reviews/"

type ReviewService struct {
	reviewRepo  *repository.ReviewRepository
	eventRepo   *repository.EventRepository
	eligibility *ReviewEligibility
	files       storage.FileStorage
	notifier    notification.Dispatcher
	validator   *utils.Validator
	logger      *zap.Logger
	now         func() time.Time
}

func NewReviewService(
	reviewRepo *repository.ReviewRepository,
	eventRepo *repository.EventRepository,
	eligibility *ReviewEligibility,
	files storage.FileStorage,
	notifier notification.Dispatcher,
	validator *utils.Validator,
	logger *zap.Logger,
) *ReviewService {
	return &ReviewService{
		reviewRepo:  reviewRepo,
		eventRepo:   eventRepo,
		eligibility: eligibility,
		files:       files,
		notifier:    notifier,
		validator:   validator,
		logger:      logger.With(zap.String("component", "review_service")),
		now:         time.Now,
	}
}

// CreateReview stores a review of an event the caller attended. attachment
// may be nil.
func (s *ReviewService) CreateReview(ctx context.Context, caller permission.Caller, eventID uint, req models.ReviewRequest, attachment *models.Attachment) (*models.Review, error) {
	if err := permission.ReviewAccess(caller, permission.ActionCreate, 0); err != nil {
		return nil, err
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, err
	}

	now := s.now()
	event, err := s.eligibility.Check(ctx, caller.ID, eventID, now)
	if err != nil {
		return nil, err
	}

	review := &models.Review{
		Text:     req.Text,
		AuthorID: caller.ID,
		EventID:  event.ID,
		PubDate:  now,
	}
	if attachment != nil {
		if review.File, err = s.store(ctx, attachment); err != nil {
			return nil, err
		}
	}

	err = s.reviewRepo.Transaction(ctx, func(reviews *repository.ReviewRepository) error {
		if err := reviews.Create(ctx, review); err != nil {
			return err
		}
		return s.notifier.Dispatch(ctx, notification.Notification{
			Kind:         notification.KindReview,
			EventID:      event.ID,
			EventTitle:   event.Title,
			EventStartAt: event.StartAt,
			Recipient:    event.User.Email,
			Submitter:    caller.Email,
		})
	})
	if err != nil {
		s.discard(ctx, review.File)
		if errors.Is(err, repository.ErrDuplicate) {
			metrics.ReviewsRejected.WithLabelValues("duplicate").Inc()
			return nil, newValidationError(NonFieldErrors, msgAlreadyReviewed)
		}
		return nil, err
	}
	metrics.ReviewsCreated.Inc()

	s.logger.Info("review created", zap.Uint("review_id", review.ID), zap.Uint("event_id", event.ID))
	return review, nil
}

func (s *ReviewService) ListReviews(ctx context.Context, eventID uint, page models.PageRequest) (*models.Page[models.ReviewResponse], error) {
	if _, err := s.eventRepo.GetByID(ctx, eventID); err != nil {
		return nil, lookupError("event", err)
	}

	page = page.Normalize()
	reviews, count, err := s.reviewRepo.ListByEvent(ctx, eventID, page.Limit, page.Offset)
	if err != nil {
		return nil, err
	}

	results := make([]models.ReviewResponse, 0, len(reviews))
	for i := range reviews {
		results = append(results, s.Response(&reviews[i]))
	}
	return &models.Page[models.ReviewResponse]{Count: count, Results: results}, nil
}

func (s *ReviewService) GetReview(ctx context.Context, eventID, reviewID uint) (*models.Review, error) {
	if _, err := s.eventRepo.GetByID(ctx, eventID); err != nil {
		return nil, lookupError("event", err)
	}
	review, err := s.reviewRepo.GetForEvent(ctx, eventID, reviewID)
	if err != nil {
		return nil, lookupError("review", err)
	}
	return review, nil
}

// UpdateReview changes text and/or attachment. A new attachment replaces the
// old one, which is removed after the row is saved.
func (s *ReviewService) UpdateReview(ctx context.Context, caller permission.Caller, eventID, reviewID uint, req models.UpdateReviewRequest, attachment *models.Attachment) (*models.Review, error) {
	review, err := s.authorize(ctx, caller, permission.ActionUpdate, eventID, reviewID)
	if err != nil {
		return nil, err
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, err
	}

	if req.Text != nil {
		review.Text = *req.Text
	}
	oldFile := review.File
	if attachment != nil {
		if review.File, err = s.store(ctx, attachment); err != nil {
			return nil, err
		}
	}

	if err := s.reviewRepo.UpdateContent(ctx, review); err != nil {
		if review.File != oldFile {
			s.discard(ctx, review.File)
		}
		return nil, err
	}
	if review.File != oldFile {
		s.discard(ctx, oldFile)
	}
	return review, nil
}

func (s *ReviewService) DeleteReview(ctx context.Context, caller permission.Caller, eventID, reviewID uint) error {
	review, err := s.authorize(ctx, caller, permission.ActionDelete, eventID, reviewID)
	if err != nil {
		return err
	}

	if err := s.reviewRepo.Delete(ctx, review.ID); err != nil {
		return lookupError("review", err)
	}
	s.discard(ctx, review.File)
	return nil
}

// Response renders a review with its attachment URL.
func (s *ReviewService) Response(review *models.Review) models.ReviewResponse {
	var fileURL string
	if review.File != "" {
		fileURL = s.files.URL(review.File)
	}
	return models.NewReviewResponse(review, fileURL)
}

// authorize rejects anonymous writes first, then loads the review, then
// requires the caller to be its author.
func (s *ReviewService) authorize(ctx context.Context, caller permission.Caller, action permission.Action, eventID, reviewID uint) (*models.Review, error) {
	if !caller.IsAuthenticated() {
		return nil, ErrForbidden
	}

	review, err := s.reviewRepo.GetForEvent(ctx, eventID, reviewID)
	if err != nil {
		return nil, lookupError("review", err)
	}

	if err := permission.ReviewAccess(caller, action, review.AuthorID); err != nil {
		return nil, err
	}
	return review, nil
}

func (s *ReviewService) store(ctx context.Context, attachment *models.Attachment) (string, error) {
	src, err := attachment.Open()
	if err != nil {
		return "", fmt.Errorf("open attachment: %w", err)
	}
	defer src.Close()

	key := attachmentPrefix + uuid.NewString() + strings.ToLower(filepath.Ext(attachment.Filename))
	if err := s.files.Upload(ctx, key, src, attachment.ContentType); err != nil {
		return "", fmt.Errorf("store attachment: %w", err)
	}
	return key, nil
}

// discard removes an attachment without failing the caller.
func (s *ReviewService) discard(ctx context.Context, key string) {
	if key == "" {
		return
	}
	if err := s.files.Delete(ctx, key); err != nil {
		s.logger.Warn("failed to delete attachment", zap.String("key", key), zap.Error(err))
	}
}
