package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/sefazor/events-backend/internal/middleware"
	"github.com/sefazor/events-backend/internal/models"
	"github.com/sefazor/events-backend/internal/service"
	"github.com/sefazor/events-backend/pkg/captcha"
)

// CaptchaHeader carries the Turnstile token on self-registration.
const CaptchaHeader = "CF-Turnstile-Response"

type UserHandler struct {
	userService *service.UserService
	captcha     captcha.Verifier
	logger      *zap.Logger
}

func NewUserHandler(userService *service.UserService, verifier captcha.Verifier, logger *zap.Logger) *UserHandler {
	return &UserHandler{
		userService: userService,
		captcha:     verifier,
		logger:      logger,
	}
}

func (h *UserHandler) CreateUser(c *fiber.Ctx) error {
	var req models.CreateUserRequest
	if err := parseBody(c, &req); err != nil {
		return invalidBody(c)
	}

	caller := middleware.Caller(c)
	if !caller.IsAuthenticated() {
		if err := h.captcha.Verify(c.UserContext(), c.Get(CaptchaHeader), c.IP()); err != nil {
			if errors.Is(err, captcha.ErrMissingToken) || errors.Is(err, captcha.ErrRejected) {
				return c.Status(fiber.StatusBadRequest).JSON(models.ErrorResponse("Captcha verification failed"))
			}
			return writeError(c, h.logger, err)
		}
	}

	user, err := h.userService.CreateUser(c.UserContext(), caller, req)
	if err != nil {
		return writeError(c, h.logger, err)
	}

	return c.Status(fiber.StatusCreated).JSON(models.SuccessResponse(models.NewUserResponse(user), "User created successfully"))
}

func (h *UserHandler) ListUsers(c *fiber.Ctx) error {
	page, err := h.userService.ListUsers(c.UserContext(), middleware.Caller(c), pageRequest(c))
	if err != nil {
		return writeError(c, h.logger, err)
	}
	return c.JSON(models.SuccessResponse(page, ""))
}

func (h *UserHandler) GetUser(c *fiber.Ctx) error {
	id, ok, err := paramID(c, "id")
	if !ok {
		return err
	}

	user, err := h.userService.GetUser(c.UserContext(), middleware.Caller(c), id)
	if err != nil {
		return writeError(c, h.logger, err)
	}
	return c.JSON(models.SuccessResponse(models.NewUserResponse(user), ""))
}

func (h *UserHandler) UpdateUser(c *fiber.Ctx) error {
	id, ok, err := paramID(c, "id")
	if !ok {
		return err
	}

	var req models.UpdateUserRequest
	if err := parseBody(c, &req); err != nil {
		return invalidBody(c)
	}

	user, err := h.userService.UpdateUser(c.UserContext(), middleware.Caller(c), id, req)
	if err != nil {
		return writeError(c, h.logger, err)
	}
	return c.JSON(models.SuccessResponse(models.NewUserResponse(user), "User updated successfully"))
}

func (h *UserHandler) DeleteUser(c *fiber.Ctx) error {
	id, ok, err := paramID(c, "id")
	if !ok {
		return err
	}

	if err := h.userService.DeleteUser(c.UserContext(), middleware.Caller(c), id); err != nil {
		return writeError(c, h.logger, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
