package notification

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/sefazor/events-backend/internal/config"
	"github.com/sefazor/events-backend/pkg/email"
)

// RedisDispatcher pushes notifications onto a redis list. Run pops and
// delivers them, so producers and the mail worker may live in different
// processes.
type RedisDispatcher struct {
	client   *redis.Client
	key      string
	renderer *Renderer
	sender   email.Sender
	logger   *zap.Logger
}

func NewRedisClient(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	return client, nil
}

func NewRedisDispatcher(client *redis.Client, key string, renderer *Renderer, sender email.Sender, logger *zap.Logger) *RedisDispatcher {
	return &RedisDispatcher{
		client:   client,
		key:      key,
		renderer: renderer,
		sender:   sender,
		logger:   logger.With(zap.String("component", "notification"), zap.String("mode", "redis")),
	}
}

func (d *RedisDispatcher) Dispatch(ctx context.Context, n Notification) error {
	payload, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("encode notification: %w", err)
	}
	if err := d.client.RPush(ctx, d.key, payload).Err(); err != nil {
		return fmt.Errorf("enqueue notification: %w", err)
	}
	return nil
}

// Run consumes the list until ctx is cancelled.
func (d *RedisDispatcher) Run(ctx context.Context) error {
	for {
		res, err := d.client.BLPop(ctx, 5*time.Second, d.key).Result()
		switch {
		case ctx.Err() != nil:
			return nil
		case errors.Is(err, redis.Nil):
			continue
		case err != nil:
			d.logger.Error("failed to pop notification", zap.Error(err))
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(time.Second):
			}
			continue
		}

		// res is [key, value]
		var n Notification
		if err := json.Unmarshal([]byte(res[1]), &n); err != nil {
			d.logger.Error("dropping malformed notification", zap.Error(err))
			continue
		}
		if err := deliver(ctx, d.renderer, d.sender, n); err != nil {
			d.logger.Error("notification delivery failed",
				zap.String("kind", string(n.Kind)),
				zap.Uint("event_id", n.EventID),
				zap.Error(err),
			)
		}
	}
}
