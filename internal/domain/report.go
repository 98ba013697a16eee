package domain

import "time"

// ReportStatus enumerates lifecycle states for reports.
type ReportStatus string

const (
	ReportStatusOngoing  ReportStatus = "Ongoing"
	ReportStatusResolved ReportStatus = "Resolved"
	ReportStatusRejected ReportStatus = "Rejected"
	ReportStatusFlagged  ReportStatus = "Flagged"
)

// FlaggedFeedback is the note attached to every report that enters Flagged.
const FlaggedFeedback = "This report has been flagged as a false report."

// Valid reports whether s is a known status.
func (s ReportStatus) Valid() bool {
	switch s {
	case ReportStatusOngoing, ReportStatusResolved, ReportStatusRejected, ReportStatusFlagged:
		return true
	}
	return false
}

// Report is a citizen-submitted problem at a location.
type Report struct {
	ID                  string
	UserID              string
	Location            string
	ProblemType         string
	ReceiveNotification bool
	Status              ReportStatus
	Note                string
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

// ExpiredAt reports whether a resolved report has aged out of the staff
// listing. Only Resolved reports expire.
func (r *Report) ExpiredAt(now time.Time, retention time.Duration) bool {
	if r.Status != ReportStatusResolved || retention <= 0 {
		return false
	}
	return !now.Before(r.CreatedAt.Add(retention))
}
