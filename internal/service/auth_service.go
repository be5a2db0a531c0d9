package service

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/sefazor/events-backend/internal/models"
	"github.com/sefazor/events-backend/internal/permission"
	"github.com/sefazor/events-backend/internal/repository"
	"github.com/sefazor/events-backend/pkg/bcrypt"
	"github.com/sefazor/events-backend/pkg/jwt"
)

type AuthService struct {
	userRepo *repository.UserRepository
	tokens   *jwt.Manager
	logger   *zap.Logger
}

func NewAuthService(userRepo *repository.UserRepository, tokens *jwt.Manager, logger *zap.Logger) *AuthService {
	return &AuthService{
		userRepo: userRepo,
		tokens:   tokens,
		logger:   logger.With(zap.String("component", "auth_service")),
	}
}

func (s *AuthService) Login(ctx context.Context, req models.LoginRequest) (*models.AuthResponse, error) {
	user, err := s.userRepo.GetByUsername(ctx, req.Username)
	if err != nil {
		if errors.Is(err, repository.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if !bcrypt.VerifyHash(user.Password) {
		s.logger.Warn("stored password is not a bcrypt hash", zap.Uint("user_id", user.ID))
		return nil, ErrInvalidCredentials
	}
	if err := bcrypt.ComparePassword(user.Password, req.Password); err != nil {
		s.logger.Info("failed login", zap.String("username", req.Username))
		return nil, ErrInvalidCredentials
	}

	token, err := s.tokens.GenerateToken(user.ID, user.Username)
	if err != nil {
		return nil, err
	}

	return &models.AuthResponse{
		Token: token,
		User:  models.NewUserResponse(user),
	}, nil
}

// Authenticate resolves a bearer token into a caller. The user row is read
// on every call so role changes apply to existing tokens.
func (s *AuthService) Authenticate(ctx context.Context, token string) (permission.Caller, error) {
	claims, err := s.tokens.ValidateToken(token)
	if err != nil {
		return permission.Anonymous(), err
	}

	user, err := s.userRepo.GetByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrRecordNotFound) {
			return permission.Anonymous(), jwt.ErrInvalidToken
		}
		return permission.Anonymous(), err
	}
	return permission.FromUser(user), nil
}
