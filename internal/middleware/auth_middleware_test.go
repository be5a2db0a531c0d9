package middleware

import (
	"context"
	"errors"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/sefazor/events-backend/internal/permission"
	"github.com/sefazor/events-backend/pkg/jwt"
)

type stubAuthenticator map[string]permission.Caller

func (s stubAuthenticator) Authenticate(_ context.Context, token string) (permission.Caller, error) {
	if token == "broken-db" {
		return permission.Anonymous(), errors.New("connection refused")
	}
	caller, ok := s[token]
	if !ok {
		return permission.Anonymous(), jwt.ErrInvalidToken
	}
	return caller, nil
}

func TestAuthMiddleware(t *testing.T) {
	auth := stubAuthenticator{"good": {ID: 3, Username: "alice"}}

	app := fiber.New()
	app.Use(AuthMiddleware(auth, zaptest.NewLogger(t)))
	app.Get("/", func(c *fiber.Ctx) error {
		return c.JSON(Caller(c))
	})

	cases := []struct {
		name   string
		header string
		status int
	}{
		{"anonymous", "", fiber.StatusOK},
		{"valid", "Bearer good", fiber.StatusOK},
		{"not bearer", "Token good", fiber.StatusUnauthorized},
		{"invalid", "Bearer bad", fiber.StatusUnauthorized},
		{"backend failure", "Bearer broken-db", fiber.StatusInternalServerError},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			resp, err := app.Test(req)
			require.NoError(t, err)
			assert.Equal(t, tc.status, resp.StatusCode)
		})
	}
}

func TestCaller_DefaultsToAnonymous(t *testing.T) {
	app := fiber.New()
	app.Get("/", func(c *fiber.Ctx) error {
		assert.False(t, Caller(c).IsAuthenticated())
		return c.SendStatus(fiber.StatusNoContent)
	})

	resp, err := app.Test(httptest.NewRequest("GET", "/", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusNoContent, resp.StatusCode)
}
