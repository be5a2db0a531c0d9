package service

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/sefazor/events-backend/internal/models"
	"github.com/sefazor/events-backend/internal/permission"
	"github.com/sefazor/events-backend/internal/repository"
	"github.com/sefazor/events-backend/pkg/bcrypt"
	"github.com/sefazor/events-backend/pkg/storage"
	"github.com/sefazor/events-backend/pkg/utils"
)

const msgUserExists = "a user with that username or email already exists"

type UserService struct {
	userRepo   *repository.UserRepository
	reviewRepo *repository.ReviewRepository
	files      storage.FileStorage
	validator  *utils.Validator
	logger     *zap.Logger
}

func NewUserService(
	userRepo *repository.UserRepository,
	reviewRepo *repository.ReviewRepository,
	files storage.FileStorage,
	validator *utils.Validator,
	logger *zap.Logger,
) *UserService {
	return &UserService{
		userRepo:   userRepo,
		reviewRepo: reviewRepo,
		files:      files,
		validator:  validator,
		logger:     logger.With(zap.String("component", "user_service")),
	}
}

// CreateUser registers a new account. Only a moderator may hand out the
// moderator flag; for anyone else it is forced off.
func (s *UserService) CreateUser(ctx context.Context, caller permission.Caller, req models.CreateUserRequest) (*models.User, error) {
	if err := permission.UserAccess(caller, permission.ActionCreate, 0, false); err != nil {
		return nil, err
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, err
	}

	exists, err := s.userRepo.UsernameOrEmailExists(ctx, req.Username, req.Email, 0)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, newValidationError(NonFieldErrors, msgUserExists)
	}

	hashedPassword, err := bcrypt.HashPassword(req.Password)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		Username:    req.Username,
		Email:       req.Email,
		Password:    hashedPassword,
		IsModerator: caller.IsModerator && req.IsModerator != nil && *req.IsModerator,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, newValidationError(NonFieldErrors, msgUserExists)
		}
		return nil, err
	}

	s.logger.Info("user created", zap.Uint("user_id", user.ID), zap.Bool("moderator", user.IsModerator))
	return user, nil
}

// CreateModerator is the administrative path used by the CLI.
func (s *UserService) CreateModerator(ctx context.Context, req models.CreateUserRequest) (*models.User, error) {
	admin := permission.Caller{IsModerator: true}
	moderator := true
	req.IsModerator = &moderator
	return s.CreateUser(ctx, admin, req)
}

func (s *UserService) GetUser(ctx context.Context, caller permission.Caller, id uint) (*models.User, error) {
	user, err := s.authorize(ctx, caller, permission.ActionRead, id, false)
	if err != nil {
		return nil, err
	}
	return user, nil
}

func (s *UserService) ListUsers(ctx context.Context, caller permission.Caller, page models.PageRequest) (*models.Page[models.UserResponse], error) {
	if err := permission.UserAccess(caller, permission.ActionList, 0, false); err != nil {
		return nil, err
	}

	page = page.Normalize()
	users, count, err := s.userRepo.List(ctx, page.Limit, page.Offset)
	if err != nil {
		return nil, err
	}
	return &models.Page[models.UserResponse]{
		Count:   count,
		Results: models.NewUserResponses(users),
	}, nil
}

// UpdateUser applies a partial update. A request carrying is_moderator at all
// counts as touching the flag, whatever the value.
func (s *UserService) UpdateUser(ctx context.Context, caller permission.Caller, id uint, req models.UpdateUserRequest) (*models.User, error) {
	user, err := s.authorize(ctx, caller, permission.ActionUpdate, id, req.IsModerator != nil)
	if err != nil {
		return nil, err
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, err
	}

	username, email := user.Username, user.Email
	if req.Username != nil {
		username = *req.Username
	}
	if req.Email != nil {
		email = *req.Email
	}
	if req.Username != nil || req.Email != nil {
		exists, err := s.userRepo.UsernameOrEmailExists(ctx, username, email, user.ID)
		if err != nil {
			return nil, err
		}
		if exists {
			return nil, newValidationError(NonFieldErrors, msgUserExists)
		}
	}

	user.Username = username
	user.Email = email
	if req.Password != nil {
		hashedPassword, err := bcrypt.HashPassword(*req.Password)
		if err != nil {
			return nil, err
		}
		user.Password = hashedPassword
	}
	if req.IsModerator != nil {
		user.IsModerator = *req.IsModerator
	}

	if err := s.userRepo.Update(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, newValidationError(NonFieldErrors, msgUserExists)
		}
		return nil, err
	}
	return user, nil
}

// DeleteUser removes the account together with its events, registrations
// and reviews. Attachments of the cascaded reviews are removed afterwards.
func (s *UserService) DeleteUser(ctx context.Context, caller permission.Caller, id uint) error {
	if _, err := s.authorize(ctx, caller, permission.ActionDelete, id, false); err != nil {
		return err
	}

	keys, err := s.reviewRepo.AttachmentKeysForUser(ctx, id)
	if err != nil {
		return err
	}

	if err := s.userRepo.Delete(ctx, id); err != nil {
		switch {
		case errors.Is(err, repository.ErrReferenced):
			return fmt.Errorf("user owns events with registered participants: %w", ErrConflict)
		case errors.Is(err, repository.ErrRecordNotFound):
			return notFound("user")
		}
		return err
	}

	for _, key := range keys {
		if err := s.files.Delete(ctx, key); err != nil {
			s.logger.Warn("failed to delete attachment", zap.String("key", key), zap.Error(err))
		}
	}
	s.logger.Info("user deleted", zap.Uint("user_id", id), zap.Int("attachments", len(keys)))
	return nil
}

// authorize rejects anonymous callers before the lookup, then checks the
// loaded target.
func (s *UserService) authorize(ctx context.Context, caller permission.Caller, action permission.Action, id uint, touchesModeratorFlag bool) (*models.User, error) {
	if !caller.IsAuthenticated() {
		return nil, ErrForbidden
	}

	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		return nil, lookupError("user", err)
	}

	if err := permission.UserAccess(caller, action, user.ID, touchesModeratorFlag); err != nil {
		return nil, err
	}
	return user, nil
}
