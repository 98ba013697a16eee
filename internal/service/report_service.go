package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/civic-reports/internal/config"
	"github.com/spec-kit/civic-reports/internal/domain"
	"github.com/spec-kit/civic-reports/internal/events"
	"github.com/spec-kit/civic-reports/internal/repository"
	apperrors "github.com/spec-kit/civic-reports/pkg/util/errorutil"
)

// ReportService coordinates the report lifecycle.
type ReportService struct {
	reports    repository.ReportRepository
	history    repository.ReportHistoryRepository
	dispatcher events.Dispatcher
	logger     *zap.Logger
	policy     LifecyclePolicy
	retention  time.Duration
	now        func() time.Time
}

// ReportDependencies bundles collaborators for the report service.
type ReportDependencies struct {
	ReportRepo  repository.ReportRepository
	HistoryRepo repository.ReportHistoryRepository
	Dispatcher  events.Dispatcher
	Logger      *zap.Logger
	// Now overrides the clock; nil means time.Now.
	Now func() time.Time
}

// SubmitInput describes a citizen submission. Any status sent by the client is not part of it.
type SubmitInput struct {
	Location            string
	ProblemType         string
	ReceiveNotification bool
}

// ListFilter narrows the full listing.
type ListFilter struct {
	// ActiveOnly drops resolved reports past the retention window.
	ActiveOnly bool
}

// NewReportService constructs the service.
func NewReportService(cfg config.ReportsConfig, deps ReportDependencies) *ReportService {
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReportService{
		reports:    deps.ReportRepo,
		history:    deps.HistoryRepo,
		dispatcher: deps.Dispatcher,
		logger:     logger,
		policy:     LifecyclePolicy{AllowUnflag: cfg.AllowUnflag},
		retention:  cfg.ResolvedRetention(),
		now:        now,
	}
}

// Submit creates a report in the Ongoing state.
func (s *ReportService) Submit(ctx context.Context, userID string, input SubmitInput) (*domain.Report, error) {
	location := strings.TrimSpace(input.Location)
	problemType := strings.TrimSpace(input.ProblemType)
	if location == "" || problemType == "" {
		return nil, apperrors.NewValidationError("location and problemType required", nil)
	}

	now := s.now().UTC()
	report := &domain.Report{
		ID:                  uuid.NewString(),
		UserID:              userID,
		Location:            location,
		ProblemType:         problemType,
		ReceiveNotification: input.ReceiveNotification,
		Status:              domain.ReportStatusOngoing,
		CreatedAt:           now,
		UpdatedAt:           now,
	}

	if err := s.reports.Create(ctx, report); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, apperrors.NewConflict("Problem already exists at that location", map[string]any{
				"location":    location,
				"problemType": problemType,
			})
		}
		return nil, apperrors.NewServiceUnavailable(err)
	}

	s.publishEvent(ctx, events.Event{
		Type:     events.EventReportSubmitted,
		ReportID: report.ID,
		Actor:    events.Actor{UserID: userID, Role: domain.RoleCitizen},
		Payload: events.ReportSubmittedPayload{
			OwnerID:     report.UserID,
			Location:    report.Location,
			ProblemType: report.ProblemType,
		},
	})
	return report, nil
}

// UpdateStatus moves a report to newStatus and overwrites its note.
func (s *ReportService) UpdateStatus(ctx context.Context, actor *domain.User, reportID string, newStatus domain.ReportStatus, note string) (*domain.Report, error) {
	if !actor.IsCouncil() {
		return nil, apperrors.NewForbidden("council role required")
	}
	if !newStatus.Valid() {
		return nil, apperrors.NewValidationError("invalid reportStatus", map[string]any{"reportStatus": newStatus})
	}

	report, err := s.load(ctx, reportID)
	if err != nil {
		return nil, err
	}
	if s.policy.IsTerminal(report.Status) {
		return nil, apperrors.NewConflict("report is flagged and can no longer change", map[string]any{"reportStatus": report.Status})
	}
	if !s.policy.CanTransition(report.Status, newStatus) {
		return nil, apperrors.NewConflict("invalid status transition", map[string]any{
			"from": report.Status,
			"to":   newStatus,
		})
	}

	oldStatus := report.Status
	report.Status = newStatus
	report.Note = strings.TrimSpace(note)
	if newStatus == domain.ReportStatusFlagged {
		report.Note = domain.FlaggedFeedback
	}
	report.UpdatedAt = s.now().UTC()

	if err := s.reports.Update(ctx, report); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NewNotFound("Report", map[string]any{"id": reportID})
		}
		return nil, apperrors.NewServiceUnavailable(err)
	}
	if err := s.recordStatusChange(ctx, actor, report, oldStatus); err != nil {
		s.logger.Error("failed to record report history", zap.String("report_id", report.ID), zap.Error(err))
	}

	s.publishEvent(ctx, events.Event{
		Type:     events.EventReportStatusChanged,
		ReportID: report.ID,
		Actor:    councilActor(actor),
		Payload: events.ReportStatusChangedPayload{
			OwnerID:             report.UserID,
			OldStatus:           oldStatus,
			NewStatus:           newStatus,
			Note:                report.Note,
			ReceiveNotification: report.ReceiveNotification,
		},
	})
	return report, nil
}

// Delete removes a report and its history. It reports false when nothing existed.
func (s *ReportService) Delete(ctx context.Context, actor *domain.User, reportID string) (bool, error) {
	if !actor.IsCouncil() {
		return false, apperrors.NewForbidden("council role required")
	}
	if _, err := uuid.Parse(reportID); err != nil {
		return false, nil
	}

	report, err := s.reports.GetByID(ctx, reportID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return false, nil
		}
		return false, apperrors.NewServiceUnavailable(err)
	}

	// History is only removed once the report is gone.
	deleted, err := s.reports.Delete(ctx, report.ID)
	if err != nil {
		return false, apperrors.NewServiceUnavailable(err)
	}
	if !deleted {
		return false, nil
	}
	if s.history != nil {
		if err := s.history.DeleteByReport(ctx, report.ID); err != nil {
			s.logger.Warn("failed to remove report history", zap.String("report_id", report.ID), zap.Error(err))
		}
	}
	s.publishEvent(ctx, events.Event{
		Type:     events.EventReportDeleted,
		ReportID: report.ID,
		Actor:    councilActor(actor),
		Payload:  events.ReportDeletedPayload{OwnerID: report.UserID},
	})
	return true, nil
}

// Get fetches a single report.
func (s *ReportService) Get(ctx context.Context, reportID string) (*domain.Report, error) {
	return s.load(ctx, reportID)
}

// List returns every report, newest first.
func (s *ReportService) List(ctx context.Context, filter ListFilter) ([]domain.Report, error) {
	reports, err := s.reports.List(ctx, repository.ReportFilter{})
	if err != nil {
		return nil, apperrors.NewServiceUnavailable(err)
	}
	if !filter.ActiveOnly {
		return reports, nil
	}

	now := s.now()
	active := make([]domain.Report, 0, len(reports))
	for i := range reports {
		if reports[i].ExpiredAt(now, s.retention) {
			continue
		}
		active = append(active, reports[i])
	}
	return active, nil
}

// ListForUser returns the reports owned by userID, newest first.
func (s *ReportService) ListForUser(ctx context.Context, userID string) ([]domain.Report, error) {
	if _, err := uuid.Parse(userID); err != nil {
		return []domain.Report{}, nil
	}
	reports, err := s.reports.List(ctx, repository.ReportFilter{UserID: &userID})
	if err != nil {
		return nil, apperrors.NewServiceUnavailable(err)
	}
	return reports, nil
}

// History returns the status changes of a report, oldest first.
func (s *ReportService) History(ctx context.Context, actor *domain.User, reportID string) ([]domain.ReportHistory, error) {
	if !actor.IsCouncil() {
		return nil, apperrors.NewForbidden("council role required")
	}
	if _, err := s.load(ctx, reportID); err != nil {
		return nil, err
	}
	if s.history == nil {
		return []domain.ReportHistory{}, nil
	}
	entries, err := s.history.ListByReport(ctx, reportID)
	if err != nil {
		return nil, apperrors.NewServiceUnavailable(err)
	}
	return entries, nil
}

func (s *ReportService) load(ctx context.Context, reportID string) (*domain.Report, error) {
	if _, err := uuid.Parse(reportID); err != nil {
		return nil, apperrors.NewNotFound("Report", map[string]any{"id": reportID})
	}
	report, err := s.reports.GetByID(ctx, reportID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NewNotFound("Report", map[string]any{"id": reportID})
		}
		return nil, apperrors.NewServiceUnavailable(err)
	}
	return report, nil
}

func (s *ReportService) recordStatusChange(ctx context.Context, actor *domain.User, report *domain.Report, oldStatus domain.ReportStatus) error {
	if s.history == nil {
		return nil
	}
	entry := &domain.ReportHistory{
		ID:        uuid.NewString(),
		ReportID:  report.ID,
		ChangedBy: actor.ID,
		OldStatus: oldStatus,
		NewStatus: report.Status,
		Note:      report.Note,
		CreatedAt: report.UpdatedAt,
	}
	return s.history.Create(ctx, entry)
}

func (s *ReportService) publishEvent(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = s.now().UTC()
	}
	if err := s.dispatcher.Publish(ctx, event); err != nil {
		s.logger.Warn("event handlers failed", zap.String("event_type", string(event.Type)), zap.Error(err))
	}
}

func councilActor(user *domain.User) events.Actor {
	return events.Actor{UserID: user.ID, Role: user.Role}
}
