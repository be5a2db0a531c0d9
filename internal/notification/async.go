package notification

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/sefazor/events-backend/internal/metrics"
	"github.com/sefazor/events-backend/pkg/email"
)

var (
	ErrQueueFull   = errors.New("notification queue is full")
	ErrQueueClosed = errors.New("notification queue is closed")
)

const sendTimeout = 30 * time.Second

// AsyncDispatcher hands notifications to a pool of in-process workers so
// requests do not wait on the mail server. Failures are logged and counted,
// never returned to the request.
type AsyncDispatcher struct {
	renderer *Renderer
	sender   email.Sender
	logger   *zap.Logger

	queue   chan Notification
	wg      sync.WaitGroup
	mu      sync.RWMutex
	closed  bool
	workers int
}

func NewAsyncDispatcher(renderer *Renderer, sender email.Sender, workers, queueSize int, logger *zap.Logger) *AsyncDispatcher {
	if workers <= 0 {
		workers = 1
	}
	if queueSize <= 0 {
		queueSize = 1
	}
	return &AsyncDispatcher{
		renderer: renderer,
		sender:   sender,
		logger:   logger.With(zap.String("component", "notification"), zap.String("mode", "async")),
		queue:    make(chan Notification, queueSize),
		workers:  workers,
	}
}

// Start launches the workers. They run until Close drains the queue.
func (d *AsyncDispatcher) Start() {
	for i := 0; i < d.workers; i++ {
		d.wg.Add(1)
		go d.work()
	}
}

// Dispatch enqueues without blocking.
func (d *AsyncDispatcher) Dispatch(_ context.Context, n Notification) error {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		return ErrQueueClosed
	}

	select {
	case d.queue <- n:
		return nil
	default:
		metrics.Notifications.WithLabelValues(string(n.Kind), "dropped").Inc()
		d.logger.Warn("notification queue full, dropping", zap.String("kind", string(n.Kind)), zap.Uint("event_id", n.EventID))
		return ErrQueueFull
	}
}

// Close stops accepting work and waits for queued notifications to be sent.
func (d *AsyncDispatcher) Close() {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	d.closed = true
	close(d.queue)
	d.mu.Unlock()

	d.wg.Wait()
}

func (d *AsyncDispatcher) work() {
	defer d.wg.Done()
	for n := range d.queue {
		ctx, cancel := context.WithTimeout(context.Background(), sendTimeout)
		if err := deliver(ctx, d.renderer, d.sender, n); err != nil {
			d.logger.Error("notification delivery failed",
				zap.String("kind", string(n.Kind)),
				zap.Uint("event_id", n.EventID),
				zap.Error(err),
			)
		}
		cancel()
	}
}
