package controller

import (
	"context"

	"github.com/sefazor/events-backend/internal/models"
	"github.com/sefazor/events-backend/internal/permission"
	"github.com/sefazor/events-backend/internal/service"
)

type AuthController struct {
	authService *service.AuthService
}

func NewAuthController(authService *service.AuthService) *AuthController {
	return &AuthController{
		authService: authService,
	}
}

func (c *AuthController) Login(ctx context.Context, req models.LoginRequest) (*models.AuthResponse, error) {
	return c.authService.Login(ctx, req)
}

// Authenticate makes the controller usable as the middleware's Authenticator.
func (c *AuthController) Authenticate(ctx context.Context, token string) (permission.Caller, error) {
	return c.authService.Authenticate(ctx, token)
}
