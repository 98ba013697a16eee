package worker

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/civic-reports/internal/events"
)

func TestNotificationQueueDeliversAfterRequestCancel(t *testing.T) {
	inner := events.NewInMemoryDispatcher()
	queue := NewNotificationQueue(inner, 4, zap.NewNop())

	var mu sync.Mutex
	var got []events.Event
	var ctxErrs []error
	inner.Subscribe(events.EventReportSubmitted, func(ctx context.Context, e events.Event) error {
		mu.Lock()
		defer mu.Unlock()
		got = append(got, e)
		ctxErrs = append(ctxErrs, ctx.Err())
		return nil
	})

	reqCtx, cancel := context.WithCancel(context.Background())
	if err := queue.Publish(reqCtx, events.Event{Type: events.EventReportSubmitted, ReportID: "r1"}); err != nil {
		t.Fatalf("Publish failed: %v", err)
	}
	cancel()

	go queue.Run()
	stopCtx, stopCancel := context.WithTimeout(context.Background(), time.Second)
	defer stopCancel()
	if err := queue.Stop(stopCtx); err != nil {
		t.Fatalf("Stop failed: %v", err)
	}

	mu.Lock()
	defer mu.Unlock()
	if len(got) != 1 || got[0].ReportID != "r1" {
		t.Fatalf("Expected queued event to be delivered, got %+v", got)
	}
	if ctxErrs[0] != nil {
		t.Errorf("Handler context should not inherit request cancellation, got %v", ctxErrs[0])
	}
}

func TestNotificationQueueFullAndClosed(t *testing.T) {
	queue := NewNotificationQueue(events.NewInMemoryDispatcher(), 1, zap.NewNop())
	ctx := context.Background()

	if err := queue.Publish(ctx, events.Event{Type: events.EventReportDeleted}); err != nil {
		t.Fatalf("First publish failed: %v", err)
	}
	if err := queue.Publish(ctx, events.Event{Type: events.EventReportDeleted}); !errors.Is(err, ErrQueueFull) {
		t.Fatalf("Expected ErrQueueFull, got %v", err)
	}

	go queue.Run()
	if err := queue.Stop(ctx); err != nil {
		t.Fatalf("Stop failed: %v", err)
	}
	if err := queue.Publish(ctx, events.Event{Type: events.EventReportDeleted}); !errors.Is(err, ErrQueueClosed) {
		t.Fatalf("Expected ErrQueueClosed, got %v", err)
	}
}
