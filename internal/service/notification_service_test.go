package service_test

import (
	"context"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/spec-kit/civic-reports/internal/config"
	"github.com/spec-kit/civic-reports/internal/domain"
	"github.com/spec-kit/civic-reports/internal/events"
	"github.com/spec-kit/civic-reports/internal/mocks"
	"github.com/spec-kit/civic-reports/internal/service"
)

func TestNotificationEmailOnlyForOptedInOwners(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	users := mocks.NewMockUserRepository()
	owner := &domain.User{ID: "owner-1", Email: "alice@x.com", Role: domain.RoleCitizen}
	if err := users.Create(context.Background(), owner); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	dispatcher := events.NewInMemoryDispatcher()
	notifier := service.NewNotificationService(dispatcher, users, zap.New(core), config.NotificationConfig{EmailFrom: "noreply@city.gov"})
	notifier.RegisterHandlers()

	publish := func(optIn bool) {
		err := dispatcher.Publish(context.Background(), events.Event{
			Type:     events.EventReportStatusChanged,
			ReportID: "r1",
			Payload: events.ReportStatusChangedPayload{
				OwnerID:             owner.ID,
				OldStatus:           domain.ReportStatusOngoing,
				NewStatus:           domain.ReportStatusResolved,
				ReceiveNotification: optIn,
			},
		})
		if err != nil {
			t.Fatalf("Publish failed: %v", err)
		}
	}

	publish(false)
	if n := logs.FilterMessage("sendEmailNotificationStub").Len(); n != 0 {
		t.Fatalf("Expected no email for opted-out owner, got %d", n)
	}
	publish(true)
	emails := logs.FilterMessage("sendEmailNotificationStub").All()
	if len(emails) != 1 {
		t.Fatalf("Expected one email stub, got %d", len(emails))
	}
	if to := emails[0].ContextMap()["to"]; to != owner.Email {
		t.Errorf("Expected email to %s, got %v", owner.Email, to)
	}
}
