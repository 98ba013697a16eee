package events

import (
	"time"

	"github.com/spec-kit/civic-reports/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventReportSubmitted     EventType = "report_submitted"
	EventReportStatusChanged EventType = "report_status_changed"
	EventReportDeleted       EventType = "report_deleted"
)

// Actor encapsulates actor metadata for an event.
type Actor struct {
	UserID string      `json:"user_id"`
	Role   domain.Role `json:"role"`
}

// Event represents a domain event emitted by services.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	ReportID  string      `json:"report_id"`
	Actor     Actor       `json:"actor"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// ReportSubmittedPayload payload.
type ReportSubmittedPayload struct {
	OwnerID     string `json:"owner_id"`
	Location    string `json:"location"`
	ProblemType string `json:"problem_type"`
}

// ReportStatusChangedPayload payload.
type ReportStatusChangedPayload struct {
	OwnerID             string              `json:"owner_id"`
	OldStatus           domain.ReportStatus `json:"old_status"`
	NewStatus           domain.ReportStatus `json:"new_status"`
	Note                string              `json:"note,omitempty"`
	ReceiveNotification bool                `json:"receive_notification"`
}

// ReportDeletedPayload payload.
type ReportDeletedPayload struct {
	OwnerID string `json:"owner_id"`
}
