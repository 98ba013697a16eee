package domain

import "time"

// ReportHistory is an immutable audit trail entry for a status change.
type ReportHistory struct {
	ID        string
	ReportID  string
	ChangedBy string
	OldStatus ReportStatus
	NewStatus ReportStatus
	Note      string
	CreatedAt time.Time
}
