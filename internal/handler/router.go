package handler

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/sefazor/events-backend/internal/config"
	"github.com/sefazor/events-backend/internal/metrics"
)

// Handlers groups everything the router mounts.
type Handlers struct {
	Auth   *AuthHandler
	User   *UserHandler
	Event  *EventHandler
	Review *ReviewHandler
	Health *HealthHandler
}

// NewApp builds the fiber app with the global middleware stack. A zero
// RateLimitMax disables the limiter.
func NewApp(cfg config.HTTPConfig) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:   "events-backend",
		BodyLimit: 10 * 1024 * 1024,
	})

	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: strings.ReplaceAll(cfg.CORSOrigins, " ", ""),
		AllowHeaders: "Origin, Content-Type, Accept, Authorization, CF-Turnstile-Response",
		AllowMethods: "GET, POST, PATCH, DELETE",
	}))
	app.Use(logger.New())
	if cfg.RateLimitMax > 0 {
		app.Use(limiter.New(limiter.Config{
			Max:        cfg.RateLimitMax,
			Expiration: cfg.RateLimitWindow,
			KeyGenerator: func(c *fiber.Ctx) string {
				return c.IP()
			},
		}))
	}
	return app
}

// RegisterRoutes mounts the API under /api. Every API route runs behind the
// auth middleware, which lets anonymous requests through.
func RegisterRoutes(app *fiber.App, h Handlers, auth fiber.Handler) {
	app.Get("/healthz", h.Health.Health)
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{})))

	api := app.Group("/api", auth)

	api.Post("/auth/login", h.Auth.Login)

	users := api.Group("/users")
	users.Post("/", h.User.CreateUser)
	users.Get("/", h.User.ListUsers)
	users.Get("/:id", h.User.GetUser)
	users.Patch("/:id", h.User.UpdateUser)
	users.Delete("/:id", h.User.DeleteUser)

	events := api.Group("/events")
	events.Get("/", h.Event.ListEvents)
	events.Post("/", h.Event.CreateEvent)
	events.Get("/:id", h.Event.GetEvent)
	events.Patch("/:id", h.Event.UpdateEvent)
	events.Delete("/:id", h.Event.DeleteEvent)
	events.Post("/:id/register", h.Event.ToggleRegistration)
	events.Get("/:id/qrcode", h.Event.QRCode)

	events.Get("/:id/reviews", h.Review.ListReviews)
	events.Post("/:id/reviews", h.Review.CreateReview)
	events.Get("/:id/reviews/:review_id", h.Review.GetReview)
	events.Patch("/:id/reviews/:review_id", h.Review.UpdateReview)
	events.Delete("/:id/reviews/:review_id", h.Review.DeleteReview)

	api.Get("/my-events", h.Event.MyEvents)
}
