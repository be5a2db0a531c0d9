package notification

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/sefazor/events-backend/pkg/email"
)

// SyncDispatcher sends inside the calling request. A delivery failure is
// returned to the caller and fails the whole operation.
type SyncDispatcher struct {
	renderer *Renderer
	sender   email.Sender
	logger   *zap.Logger
}

func NewSyncDispatcher(renderer *Renderer, sender email.Sender, logger *zap.Logger) *SyncDispatcher {
	return &SyncDispatcher{
		renderer: renderer,
		sender:   sender,
		logger:   logger.With(zap.String("component", "notification"), zap.String("mode", "sync")),
	}
}

func (d *SyncDispatcher) Dispatch(ctx context.Context, n Notification) error {
	if err := deliver(ctx, d.renderer, d.sender, n); err != nil {
		d.logger.Error("notification delivery failed",
			zap.String("kind", string(n.Kind)),
			zap.Uint("event_id", n.EventID),
			zap.Error(err),
		)
		return fmt.Errorf("send %s notification: %w", n.Kind, err)
	}
	return nil
}
