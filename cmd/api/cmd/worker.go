package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var notifyWorkerCmd = &cobra.Command{
	Use:   "notify-worker",
	Short: "Deliver notifications queued in redis (NOTIFY_MODE=redis)",
	RunE: func(_ *cobra.Command, _ []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if cfg.Notify.Mode != "redis" {
			return fmt.Errorf("notify-worker needs NOTIFY_MODE=redis, got %q", cfg.Notify.Mode)
		}
		logger, err := newLogger(cfg)
		if err != nil {
			return err
		}
		defer logger.Sync()

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		d, err := newDispatcher(ctx, cfg, logger)
		if err != nil {
			return err
		}
		defer d.close()

		logger.Info("notification worker started", zap.String("queue", cfg.Redis.QueueKey))
		return d.consumer.Run(ctx)
	},
}
