package worker

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"

	"github.com/spec-kit/civic-reports/internal/events"
	"github.com/spec-kit/civic-reports/internal/service"
)

// ErrQueueClosed is returned by Publish after Stop.
var ErrQueueClosed = errors.New("notification queue closed")

// ErrQueueFull is returned when the buffer has no room; the event is dropped.
var ErrQueueFull = errors.New("notification queue full")

type job struct {
	ctx   context.Context
	event events.Event
}

// NotificationQueue is a Dispatcher that hands events to a background
// goroutine, so request handlers never wait on notification delivery.
type NotificationQueue struct {
	inner  events.Dispatcher
	logger *zap.Logger

	mu     sync.RWMutex
	closed bool
	jobs   chan job
	done   chan struct{}
}

// NewNotificationQueue wraps inner with a buffer of size events.
func NewNotificationQueue(inner events.Dispatcher, size int, logger *zap.Logger) *NotificationQueue {
	if size <= 0 {
		size = 64
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NotificationQueue{
		inner:  inner,
		logger: logger,
		jobs:   make(chan job, size),
		done:   make(chan struct{}),
	}
}

// Publish enqueues the event without blocking. Handlers later run with a
// context detached from the request's cancellation.
func (q *NotificationQueue) Publish(ctx context.Context, event events.Event) error {
	q.mu.RLock()
	defer q.mu.RUnlock()
	if q.closed {
		return ErrQueueClosed
	}
	select {
	case q.jobs <- job{ctx: context.WithoutCancel(ctx), event: event}:
		return nil
	default:
		q.logger.Warn("dropping event, notification queue full", zap.String("event_type", string(event.Type)))
		return ErrQueueFull
	}
}

// Subscribe registers a handler on the wrapped dispatcher.
func (q *NotificationQueue) Subscribe(eventType events.EventType, handler events.EventHandler) {
	q.inner.Subscribe(eventType, handler)
}

// Run drains the queue until Stop is called. Remaining events are delivered before it returns.
func (q *NotificationQueue) Run() {
	defer close(q.done)
	for j := range q.jobs {
		if err := q.inner.Publish(j.ctx, j.event); err != nil {
			q.logger.Warn("notification handler failed",
				zap.String("event_type", string(j.event.Type)),
				zap.String("report_id", j.event.ReportID),
				zap.Error(err))
		}
	}
}

// Stop closes the queue and waits for Run to finish or ctx to expire.
func (q *NotificationQueue) Stop(ctx context.Context) error {
	q.mu.Lock()
	if !q.closed {
		q.closed = true
		close(q.jobs)
	}
	q.mu.Unlock()

	select {
	case <-q.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// StartNotificationWorker registers notification handlers and starts draining the queue.
func StartNotificationWorker(notificationService *service.NotificationService, queue *NotificationQueue) {
	if notificationService == nil || queue == nil {
		return
	}
	notificationService.RegisterHandlers()
	go queue.Run()
}
