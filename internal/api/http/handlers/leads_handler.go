package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/crm-service/internal/api/dto"
	"github.com/spec-kit/crm-service/internal/auth"
	"github.com/spec-kit/crm-service/internal/domain"
	"github.com/spec-kit/crm-service/internal/repository"
	"github.com/spec-kit/crm-service/internal/service"
	"github.com/spec-kit/crm-service/internal/validator"
	apperrors "github.com/spec-kit/crm-service/pkg/util"
)

// LeadsHandler manages lead endpoints.
type LeadsHandler struct {
	service *service.LeadService
}

// NewLeadsHandler constructs handler.
func NewLeadsHandler(leadService *service.LeadService) *LeadsHandler {
	return &LeadsHandler{service: leadService}
}

// CreateLead POST /api/leads.
func (h *LeadsHandler) CreateLead(c *fiber.Ctx) error {
	var req dto.CreateLeadRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if err := validator.Validate(req); err != nil {
		return apperrors.NewValidationError(err.Error(), nil)
	}

	lead, err := h.service.CreateLead(c.Context(), service.LeadCreateInput{
		Name:         req.Name,
		Email:        req.Email,
		Phone:        req.Phone,
		Country:      req.Country,
		Source:       req.Source,
		Score:        req.Score,
		AssignedToID: req.AssignedToID,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": leadResponse(lead)})
}

// ListLeads GET /api/leads.
func (h *LeadsHandler) ListLeads(c *fiber.Ctx) error {
	leads, err := h.service.ListLeads(c.Context(), parseLeadQuery(c))
	if err != nil {
		return err
	}
	items := make([]dto.LeadResponse, 0, len(leads))
	for i := range leads {
		items = append(items, leadResponse(&leads[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// GetLead GET /api/leads/:id.
func (h *LeadsHandler) GetLead(c *fiber.Ctx) error {
	lead, err := h.service.GetLead(c.Context(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": leadResponse(lead)})
}

// UpdateStage PATCH /api/leads/:id/stage.
func (h *LeadsHandler) UpdateStage(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.User == nil {
		return apperrors.NewUnauthorized("user required")
	}
	var req dto.UpdateLeadStageRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	lead, err := h.service.UpdateStage(c.Context(), principal.User, c.Params("id"), req.Stage)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": leadResponse(lead)})
}

// UpdateStatus PATCH /api/leads/:id/status.
func (h *LeadsHandler) UpdateStatus(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.User == nil {
		return apperrors.NewUnauthorized("user required")
	}
	var req dto.UpdateLeadStatusRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	lead, err := h.service.UpdateStatus(c.Context(), principal.User, c.Params("id"), req.Status)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": leadResponse(lead)})
}

// AssignLead POST /api/leads/:id/assign.
func (h *LeadsHandler) AssignLead(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.User == nil {
		return apperrors.NewUnauthorized("user required")
	}
	var req dto.AssignLeadRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if err := validator.Validate(req); err != nil {
		return apperrors.NewValidationError(err.Error(), nil)
	}
	lead, err := h.service.AssignLead(c.Context(), principal.User, c.Params("id"), req.UserID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": leadResponse(lead)})
}

// AddNote POST /api/leads/:id/notes.
func (h *LeadsHandler) AddNote(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.User == nil {
		return apperrors.NewUnauthorized("user required")
	}
	var req dto.AddNoteRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if err := validator.Validate(req); err != nil {
		return apperrors.NewValidationError(err.Error(), nil)
	}
	entry, err := h.service.AddNote(c.Context(), principal.User, c.Params("id"), req.Body)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": activityResponse(entry)})
}

// ListActivities GET /api/leads/:id/activities.
func (h *LeadsHandler) ListActivities(c *fiber.Ctx) error {
	entries, err := h.service.ListActivities(c.Context(), c.Params("id"))
	if err != nil {
		return err
	}
	items := make([]dto.ActivityResponse, 0, len(entries))
	for i := range entries {
		items = append(items, activityResponse(&entries[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

func parseLeadQuery(c *fiber.Ctx) repository.LeadFilter {
	filter := repository.LeadFilter{}
	if country := c.Query("country"); country != "" {
		filter.Country = &country
	}
	if stageStr := c.Query("stage"); stageStr != "" {
		stage := domain.LeadStage(strings.TrimSpace(stageStr))
		filter.Stage = &stage
	}
	if statusStr := c.Query("status"); statusStr != "" {
		status := domain.LeadStatus(strings.TrimSpace(statusStr))
		filter.Status = &status
	}
	if assignee := c.Query("assigned_to"); assignee != "" {
		filter.AssignedToID = &assignee
	}
	if c.Query("unassigned") == "true" {
		filter.Unassigned = true
	}
	if search := c.Query("search"); search != "" {
		filter.SearchTerm = &search
	}
	page := parseIntQuery(c.Query("page"), 1)
	pageSize := parseIntQuery(c.Query("page_size"), 20)
	filter.Offset = (page - 1) * pageSize
	filter.Limit = pageSize
	return filter
}

func parseIntQuery(val string, def int) int {
	if val == "" {
		return def
	}
	parsed, err := strconv.Atoi(val)
	if err != nil || parsed <= 0 {
		return def
	}
	return parsed
}

func leadResponse(lead *domain.Lead) dto.LeadResponse {
	return dto.LeadResponse{
		ID:           lead.ID,
		Name:         lead.Name,
		Email:        lead.Email,
		Phone:        lead.Phone,
		Country:      lead.Country,
		Source:       lead.Source,
		Stage:        lead.Stage,
		Score:        lead.Score,
		Status:       lead.Status,
		AssignedToID: lead.AssignedToID,
		CreatedAt:    lead.CreatedAt,
		UpdatedAt:    lead.UpdatedAt,
	}
}

func activityResponse(entry *domain.ActivityLog) dto.ActivityResponse {
	return dto.ActivityResponse{
		ID:          entry.ID,
		LeadID:      entry.LeadID,
		UserID:      entry.UserID,
		Type:        entry.Type,
		Description: entry.Description,
		CreatedAt:   entry.CreatedAt,
	}
}
