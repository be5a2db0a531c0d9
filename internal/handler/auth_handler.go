package handler

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/sefazor/events-backend/internal/controller"
	"github.com/sefazor/events-backend/internal/models"
	"github.com/sefazor/events-backend/pkg/utils"
)

type AuthHandler struct {
	authController *controller.AuthController
	validator      *utils.Validator
	logger         *zap.Logger
}

func NewAuthHandler(authController *controller.AuthController, validator *utils.Validator, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{
		authController: authController,
		validator:      validator,
		logger:         logger,
	}
}

func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req models.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidBody(c)
	}
	if err := h.validator.Struct(req); err != nil {
		return writeError(c, h.logger, err)
	}

	resp, err := h.authController.Login(c.UserContext(), req)
	if err != nil {
		return writeError(c, h.logger, err)
	}

	return c.JSON(models.SuccessResponse(resp, "Login successful"))
}
