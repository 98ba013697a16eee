package service

import "github.com/spec-kit/civic-reports/internal/domain"

var allowedTransitions = map[domain.ReportStatus][]domain.ReportStatus{
	domain.ReportStatusOngoing:  {domain.ReportStatusResolved, domain.ReportStatusRejected, domain.ReportStatusFlagged},
	domain.ReportStatusResolved: {domain.ReportStatusOngoing},
	domain.ReportStatusRejected: {domain.ReportStatusOngoing},
	domain.ReportStatusFlagged:  {},
}

// LifecyclePolicy decides which status changes the service accepts.
type LifecyclePolicy struct {
	// AllowUnflag permits Flagged -> Ongoing. Flagged is terminal otherwise.
	AllowUnflag bool
}

// CanTransition reports whether current may move to next. Re-applying the
// current status is accepted for every non-terminal state so staff can edit the note.
func (p LifecyclePolicy) CanTransition(current, next domain.ReportStatus) bool {
	if current == domain.ReportStatusFlagged {
		return p.AllowUnflag && next == domain.ReportStatusOngoing
	}
	if current == next {
		return true
	}
	for _, candidate := range allowedTransitions[current] {
		if candidate == next {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no further change is accepted from status.
func (p LifecyclePolicy) IsTerminal(status domain.ReportStatus) bool {
	return status == domain.ReportStatusFlagged && !p.AllowUnflag
}
