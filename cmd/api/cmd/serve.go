package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sefazor/events-backend/internal/controller"
	"github.com/sefazor/events-backend/internal/handler"
	"github.com/sefazor/events-backend/internal/middleware"
	"github.com/sefazor/events-backend/internal/repository"
	"github.com/sefazor/events-backend/internal/service"
	"github.com/sefazor/events-backend/pkg/captcha"
	"github.com/sefazor/events-backend/pkg/database"
	"github.com/sefazor/events-backend/pkg/jwt"
	"github.com/sefazor/events-backend/pkg/qrcode"
	"github.com/sefazor/events-backend/pkg/utils"
)

var (
	skipMigrate bool

	serveCmd = &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE:  runServe,
	}
)

func init() {
	serveCmd.Flags().BoolVar(&skipMigrate, "skip-migrate", false, "do not run migrations on startup")
}

func runServe(_ *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := openDatabase(cfg, logger)
	if err != nil {
		return err
	}
	defer closeDatabase(db, logger)

	if !skipMigrate {
		if err := database.RunMigrations(db); err != nil {
			return err
		}
	}

	files, err := newFileStorage(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}

	notifier, err := newDispatcher(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize notifications: %w", err)
	}
	defer notifier.close()
	if notifier.consumer != nil {
		go func() {
			if err := notifier.consumer.Run(ctx); err != nil {
				logger.Error("notification consumer stopped", zap.Error(err))
			}
		}()
	}

	// Repositories
	userRepo := repository.NewUserRepository(db)
	eventRepo := repository.NewEventRepository(db)
	participantRepo := repository.NewParticipantRepository(db)
	reviewRepo := repository.NewReviewRepository(db)

	validator := utils.NewValidator()
	tokens := jwt.NewManager(cfg.JWT.Secret, cfg.JWT.TTL)

	// Services
	authService := service.NewAuthService(userRepo, tokens, logger)
	userService := service.NewUserService(userRepo, reviewRepo, files, validator, logger)
	eventService := service.NewEventService(eventRepo, participantRepo, validator, logger)
	registrationService := service.NewRegistrationService(eventRepo, participantRepo, notifier, logger)
	reviewService := service.NewReviewService(
		reviewRepo,
		eventRepo,
		service.NewReviewEligibility(eventRepo, participantRepo, reviewRepo),
		files,
		notifier,
		validator,
		logger,
	)

	authController := controller.NewAuthController(authService)

	app := handler.NewApp(cfg.HTTP)
	if cfg.Storage.Driver == "local" {
		app.Static(cfg.Storage.MediaURL, cfg.Storage.MediaRoot)
	}
	handler.RegisterRoutes(app, handler.Handlers{
		Auth:   handler.NewAuthHandler(authController, validator, logger),
		User:   handler.NewUserHandler(userService, captcha.NewVerifier(cfg.Captcha.Secret, cfg.Captcha.VerifyURL), logger),
		Event:  handler.NewEventHandler(eventService, registrationService, qrcode.NewQRService(cfg.HTTP.PublicEventURL), logger),
		Review: handler.NewReviewHandler(reviewService, logger),
		Health: handler.NewHealthHandler(db, logger),
	}, middleware.AuthMiddleware(authController, logger))

	errCh := make(chan error, 1)
	go func() {
		logger.Info("starting server", zap.String("port", cfg.HTTP.Port), zap.String("notify_mode", cfg.Notify.Mode))
		errCh <- app.Listen(":" + cfg.HTTP.Port)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	return app.ShutdownWithTimeout(10 * time.Second)
}
