package handlers

import (
	"net/http"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/utils"

	"github.com/spec-kit/civic-reports/internal/api/dto"
	"github.com/spec-kit/civic-reports/internal/auth"
	"github.com/spec-kit/civic-reports/internal/domain"
	"github.com/spec-kit/civic-reports/internal/service"
	apperrors "github.com/spec-kit/civic-reports/pkg/util/errorutil"
)

// ReportsHandler manages citizen and council report endpoints.
type ReportsHandler struct {
	service *service.ReportService
}

// NewReportsHandler constructs handler.
func NewReportsHandler(reportService *service.ReportService) *ReportsHandler {
	return &ReportsHandler{service: reportService}
}

// Submit POST /citizen/submit/:userId.
func (h *ReportsHandler) Submit(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	if principal.User.ID != c.Params("userId") {
		return apperrors.NewForbidden("reports can only be submitted for your own account")
	}

	var req dto.SubmitReportRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if err := dto.Validate(req); err != nil {
		return err
	}

	report, err := h.service.Submit(c.UserContext(), principal.User.ID, service.SubmitInput{
		Location:            req.Location,
		ProblemType:         req.ProblemType,
		ReceiveNotification: req.ReceiveNotification,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(dto.ReportEnvelope{
		Message: "Form submit success",
		Report:  dto.NewReportResponse(report),
	})
}

// List GET /citizen/getForms.
func (h *ReportsHandler) List(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}

	var filter service.ListFilter
	if raw := c.Query("active"); raw != "" {
		active, err := strconv.ParseBool(raw)
		if err != nil {
			return apperrors.NewValidationError("active must be a boolean", map[string]any{"active": raw})
		}
		if active && !principal.User.IsCouncil() {
			return apperrors.NewForbidden("council role required")
		}
		filter.ActiveOnly = active
	}

	reports, err := h.service.List(c.UserContext(), filter)
	if err != nil {
		return err
	}
	return c.JSON(dto.NewReportList(reports))
}

// ListForUser GET /citizen/userForms/:userId.
func (h *ReportsHandler) ListForUser(c *fiber.Ctx) error {
	reports, err := h.service.ListForUser(c.UserContext(), utils.CopyString(c.Params("userId")))
	if err != nil {
		return err
	}
	return c.JSON(dto.NewReportList(reports))
}

// UpdateStatus PUT /citizen/editForm/:id.
func (h *ReportsHandler) UpdateStatus(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}

	var req dto.UpdateReportRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if err := dto.Validate(req); err != nil {
		return err
	}

	report, err := h.service.UpdateStatus(c.UserContext(), principal.User, reportParam(c), domain.ReportStatus(req.Status), req.Note)
	if err != nil {
		return err
	}
	return c.JSON(dto.ReportEnvelope{
		Message: "Form updated",
		Report:  dto.NewReportResponse(report),
	})
}

// Delete DELETE /citizen/deleteForm/:id.
func (h *ReportsHandler) Delete(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}

	deleted, err := h.service.Delete(c.UserContext(), principal.User, reportParam(c))
	if err != nil {
		return err
	}
	if !deleted {
		return c.SendStatus(http.StatusNoContent)
	}
	return c.JSON(fiber.Map{"message": "Form deleted", "deleted": true})
}

// History GET /citizen/forms/:id/history.
func (h *ReportsHandler) History(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}

	entries, err := h.service.History(c.UserContext(), principal.User, reportParam(c))
	if err != nil {
		return err
	}
	return c.JSON(dto.NewHistoryList(entries))
}

// reportParam copies the :id param out of the pooled request buffer, since it
// may be retained by events handled after the response is sent.
func reportParam(c *fiber.Ctx) string {
	return utils.CopyString(c.Params("id"))
}
