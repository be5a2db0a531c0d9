package cmd

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/sefazor/events-backend/internal/config"
	"github.com/sefazor/events-backend/internal/notification"
	"github.com/sefazor/events-backend/pkg/database"
	"github.com/sefazor/events-backend/pkg/email"
	"github.com/sefazor/events-backend/pkg/storage"
)

func loadConfig() (*config.Config, error) {
	return config.LoadConfig(envFile)
}

func newLogger(cfg *config.Config) (*zap.Logger, error) {
	if cfg.IsDevelopment() {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

func openDatabase(cfg *config.Config, logger *zap.Logger) (*gorm.DB, error) {
	db, err := database.Open(cfg.Database.Driver, cfg.Database.URL)
	if err != nil {
		return nil, err
	}
	logger.Info("database connected", zap.String("driver", cfg.Database.Driver))
	return db, nil
}

func closeDatabase(db *gorm.DB, logger *zap.Logger) {
	sqlDB, err := db.DB()
	if err != nil {
		return
	}
	if err := sqlDB.Close(); err != nil {
		logger.Warn("failed to close database", zap.Error(err))
	}
}

func newFileStorage(ctx context.Context, cfg *config.Config, logger *zap.Logger) (storage.FileStorage, error) {
	switch cfg.Storage.Driver {
	case "s3":
		return storage.NewS3Storage(ctx, cfg.Storage, logger)
	default:
		return storage.NewLocalStorage(cfg.Storage.MediaRoot, cfg.Storage.MediaURL)
	}
}

// dispatcher bundles the configured notification dispatcher with what has
// to run or stop alongside it.
type dispatcher struct {
	notification.Dispatcher
	// consumer is set in redis mode.
	consumer *notification.RedisDispatcher
	close    func()
}

func newDispatcher(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*dispatcher, error) {
	sender, err := email.NewSender(cfg.Email, logger)
	if err != nil {
		return nil, err
	}
	renderer := notification.NewRenderer(cfg.Email.SubjectPrefix)

	switch cfg.Notify.Mode {
	case "async":
		d := notification.NewAsyncDispatcher(renderer, sender, cfg.Notify.Workers, cfg.Notify.QueueSize, logger)
		d.Start()
		return &dispatcher{Dispatcher: d, close: d.Close}, nil
	case "redis":
		client, err := notification.NewRedisClient(ctx, cfg.Redis)
		if err != nil {
			return nil, err
		}
		d := notification.NewRedisDispatcher(client, cfg.Redis.QueueKey, renderer, sender, logger)
		return &dispatcher{
			Dispatcher: d,
			consumer:   d,
			close: func() {
				if err := client.Close(); err != nil {
					logger.Warn("failed to close redis client", zap.Error(err))
				}
			},
		}, nil
	case "sync", "":
		return &dispatcher{Dispatcher: notification.NewSyncDispatcher(renderer, sender, logger), close: func() {}}, nil
	default:
		return nil, fmt.Errorf("unsupported notify mode %q", cfg.Notify.Mode)
	}
}
