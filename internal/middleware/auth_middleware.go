package middleware

import (
	"context"
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/sefazor/events-backend/internal/models"
	"github.com/sefazor/events-backend/internal/permission"
	"github.com/sefazor/events-backend/pkg/jwt"
)

const callerKey = "caller"

// Authenticator resolves a bearer token into a caller.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (permission.Caller, error)
}

// AuthMiddleware stores the request's caller in Locals. A request without
// an Authorization header continues as anonymous; a header that does not
// carry a valid token is rejected with 401.
func AuthMiddleware(auth Authenticator, logger *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get(fiber.HeaderAuthorization)
		if authHeader == "" {
			c.Locals(callerKey, permission.Anonymous())
			return c.Next()
		}

		if !strings.HasPrefix(authHeader, "Bearer ") {
			return c.Status(fiber.StatusUnauthorized).JSON(models.ErrorResponse("Invalid authorization header format"))
		}
		tokenString := strings.TrimPrefix(authHeader, "Bearer ")

		caller, err := auth.Authenticate(c.UserContext(), tokenString)
		if err != nil {
			if errors.Is(err, jwt.ErrInvalidToken) {
				return c.Status(fiber.StatusUnauthorized).JSON(models.ErrorResponse("Invalid token"))
			}
			logger.Error("failed to authenticate request", zap.Error(err))
			return c.Status(fiber.StatusInternalServerError).JSON(models.ErrorResponse("Internal server error"))
		}

		c.Locals(callerKey, caller)
		return c.Next()
	}
}

// Caller returns the identity stored by AuthMiddleware, anonymous if none.
func Caller(c *fiber.Ctx) permission.Caller {
	caller, ok := c.Locals(callerKey).(permission.Caller)
	if !ok {
		return permission.Anonymous()
	}
	return caller
}
