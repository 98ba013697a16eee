package service

import (
	"testing"

	"github.com/spec-kit/civic-reports/internal/domain"
)

func TestLifecyclePolicyCanTransition(t *testing.T) {
	tests := []struct {
		name    string
		policy  LifecyclePolicy
		current domain.ReportStatus
		next    domain.ReportStatus
		want    bool
	}{
		{"ongoing to resolved", LifecyclePolicy{}, domain.ReportStatusOngoing, domain.ReportStatusResolved, true},
		{"ongoing to rejected", LifecyclePolicy{}, domain.ReportStatusOngoing, domain.ReportStatusRejected, true},
		{"ongoing to flagged", LifecyclePolicy{}, domain.ReportStatusOngoing, domain.ReportStatusFlagged, true},
		{"ongoing note edit", LifecyclePolicy{}, domain.ReportStatusOngoing, domain.ReportStatusOngoing, true},
		{"resolved reopened", LifecyclePolicy{}, domain.ReportStatusResolved, domain.ReportStatusOngoing, true},
		{"rejected reopened", LifecyclePolicy{}, domain.ReportStatusRejected, domain.ReportStatusOngoing, true},
		{"resolved to rejected", LifecyclePolicy{}, domain.ReportStatusResolved, domain.ReportStatusRejected, false},
		{"resolved to flagged", LifecyclePolicy{}, domain.ReportStatusResolved, domain.ReportStatusFlagged, false},
		{"flagged to ongoing", LifecyclePolicy{}, domain.ReportStatusFlagged, domain.ReportStatusOngoing, false},
		{"flagged re-flagged", LifecyclePolicy{}, domain.ReportStatusFlagged, domain.ReportStatusFlagged, false},
		{"unflag allowed", LifecyclePolicy{AllowUnflag: true}, domain.ReportStatusFlagged, domain.ReportStatusOngoing, true},
		{"unflag to resolved", LifecyclePolicy{AllowUnflag: true}, domain.ReportStatusFlagged, domain.ReportStatusResolved, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.policy.CanTransition(tt.current, tt.next); got != tt.want {
				t.Errorf("CanTransition(%s, %s) = %v, want %v", tt.current, tt.next, got, tt.want)
			}
		})
	}
}

func TestLifecyclePolicyIsTerminal(t *testing.T) {
	if !(LifecyclePolicy{}).IsTerminal(domain.ReportStatusFlagged) {
		t.Error("Flagged should be terminal by default")
	}
	if (LifecyclePolicy{AllowUnflag: true}).IsTerminal(domain.ReportStatusFlagged) {
		t.Error("Flagged should not be terminal when unflag is allowed")
	}
	if (LifecyclePolicy{}).IsTerminal(domain.ReportStatusResolved) {
		t.Error("Resolved is never terminal")
	}
}
