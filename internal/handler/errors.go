package handler

import (
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/sefazor/events-backend/internal/models"
	"github.com/sefazor/events-backend/internal/service"
	"github.com/sefazor/events-backend/pkg/utils"
)

// writeError renders a service error with its status code. Anything outside
// the known taxonomy is logged and reported as an opaque 500.
func writeError(c *fiber.Ctx, logger *zap.Logger, err error) error {
	var verr *service.ValidationError
	switch {
	case errors.Is(err, service.ErrForbidden):
		return c.Status(fiber.StatusForbidden).JSON(models.ErrorResponse(err.Error()))
	case errors.Is(err, service.ErrNotFound):
		return c.Status(fiber.StatusNotFound).JSON(models.ErrorResponse(err.Error()))
	case errors.As(err, &verr):
		return c.Status(fiber.StatusBadRequest).JSON(
			models.ValidationErrorResponse(verr.Message, map[string]string{verr.Field: verr.Message}))
	case errors.Is(err, service.ErrConflict):
		return c.Status(fiber.StatusConflict).JSON(models.ErrorResponse(err.Error()))
	case errors.Is(err, service.ErrInvalidCredentials):
		return c.Status(fiber.StatusUnauthorized).JSON(models.ErrorResponse(err.Error()))
	}

	if fields := utils.FieldErrors(err); fields != nil {
		return c.Status(fiber.StatusBadRequest).JSON(models.ValidationErrorResponse("Validation failed", fields))
	}

	logger.Error("request failed",
		zap.String("method", c.Method()),
		zap.String("path", c.Path()),
		zap.Error(err),
	)
	return c.Status(fiber.StatusInternalServerError).JSON(models.ErrorResponse("Internal server error"))
}

func invalidBody(c *fiber.Ctx) error {
	return c.Status(fiber.StatusBadRequest).JSON(models.ErrorResponse("Invalid request body"))
}

// paramID parses a positive numeric route parameter. ok is false after a
// 404 has been written.
func paramID(c *fiber.Ctx, name string) (uint, bool, error) {
	id, err := strconv.ParseUint(c.Params(name), 10, 32)
	if err != nil || id == 0 {
		return 0, false, c.Status(fiber.StatusNotFound).JSON(models.ErrorResponse("Not found"))
	}
	return uint(id), true, nil
}

func pageRequest(c *fiber.Ctx) models.PageRequest {
	return models.PageRequest{
		Limit:  c.QueryInt("limit"),
		Offset: c.QueryInt("offset"),
	}
}

// parseBody decodes a request body. An empty body leaves dst untouched so
// authorization still decides the outcome of a bare request.
func parseBody(c *fiber.Ctx, dst interface{}) error {
	if len(c.Body()) == 0 {
		return nil
	}
	return c.BodyParser(dst)
}
