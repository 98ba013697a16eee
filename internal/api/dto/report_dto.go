package dto

import (
	"time"

	"github.com/spec-kit/civic-reports/internal/domain"
)

// SubmitReportRequest is the citizen submission body. A client-supplied
// reportStatus is not bound.
type SubmitReportRequest struct {
	Location            string `json:"location" validate:"required,max=512"`
	ProblemType         string `json:"problemType" validate:"required,max=128"`
	ReceiveNotification bool   `json:"receiveNotification"`
}

// UpdateReportRequest is the council status change body.
type UpdateReportRequest struct {
	Status string `json:"reportStatus" validate:"required,oneof=Ongoing Resolved Rejected Flagged"`
	Note   string `json:"note" validate:"max=2000"`
}

// ReportResponse is the wire shape of a report.
type ReportResponse struct {
	ID                  string              `json:"_id"`
	UserID              string              `json:"userId"`
	Location            string              `json:"location"`
	ProblemType         string              `json:"problemType"`
	ReceiveNotification bool                `json:"receiveNotification"`
	Status              domain.ReportStatus `json:"reportStatus"`
	Note                string              `json:"note"`
	CreatedAt           time.Time           `json:"dateCreated"`
	UpdatedAt           time.Time           `json:"updatedAt"`
}

// ReportEnvelope wraps a single report with a message.
type ReportEnvelope struct {
	Message string         `json:"message"`
	Report  ReportResponse `json:"report"`
}

// ReportHistoryResponse is one status change.
type ReportHistoryResponse struct {
	ID        string              `json:"_id"`
	ReportID  string              `json:"reportId"`
	ChangedBy string              `json:"changedBy"`
	OldStatus domain.ReportStatus `json:"oldStatus"`
	NewStatus domain.ReportStatus `json:"newStatus"`
	Note      string              `json:"note"`
	CreatedAt time.Time           `json:"dateCreated"`
}

// NewReportResponse maps a domain report.
func NewReportResponse(report *domain.Report) ReportResponse {
	return ReportResponse{
		ID:                  report.ID,
		UserID:              report.UserID,
		Location:            report.Location,
		ProblemType:         report.ProblemType,
		ReceiveNotification: report.ReceiveNotification,
		Status:              report.Status,
		Note:                report.Note,
		CreatedAt:           report.CreatedAt,
		UpdatedAt:           report.UpdatedAt,
	}
}

// NewReportList maps reports and never returns nil.
func NewReportList(reports []domain.Report) []ReportResponse {
	items := make([]ReportResponse, 0, len(reports))
	for i := range reports {
		items = append(items, NewReportResponse(&reports[i]))
	}
	return items
}

// NewHistoryList maps history entries and never returns nil.
func NewHistoryList(entries []domain.ReportHistory) []ReportHistoryResponse {
	items := make([]ReportHistoryResponse, 0, len(entries))
	for _, e := range entries {
		items = append(items, ReportHistoryResponse{
			ID:        e.ID,
			ReportID:  e.ReportID,
			ChangedBy: e.ChangedBy,
			OldStatus: e.OldStatus,
			NewStatus: e.NewStatus,
			Note:      e.Note,
			CreatedAt: e.CreatedAt,
		})
	}
	return items
}
