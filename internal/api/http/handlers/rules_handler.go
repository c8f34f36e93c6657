package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/crm-service/internal/api/dto"
	"github.com/spec-kit/crm-service/internal/domain"
	"github.com/spec-kit/crm-service/internal/service"
	"github.com/spec-kit/crm-service/internal/validator"
	apperrors "github.com/spec-kit/crm-service/pkg/util"
)

// RulesHandler manages routing rule endpoints.
type RulesHandler struct {
	service *service.RuleService
}

// NewRulesHandler constructs handler.
func NewRulesHandler(ruleService *service.RuleService) *RulesHandler {
	return &RulesHandler{service: ruleService}
}

// CreateRule POST /api/rules.
func (h *RulesHandler) CreateRule(c *fiber.Ctx) error {
	var req dto.CreateRuleRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if err := validator.Validate(req); err != nil {
		return apperrors.NewValidationError(err.Error(), nil)
	}

	rule, err := h.service.CreateRule(c.Context(), service.RuleCreateInput{
		Country:  req.Country,
		TeamID:   req.TeamID,
		Strategy: req.Strategy,
		IsActive: req.IsActive,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": ruleResponse(rule)})
}

// UpdateRule PATCH /api/rules/:id.
func (h *RulesHandler) UpdateRule(c *fiber.Ctx) error {
	var req dto.UpdateRuleRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if err := validator.Validate(req); err != nil {
		return apperrors.NewValidationError(err.Error(), nil)
	}

	rule, err := h.service.UpdateRule(c.Context(), c.Params("id"), service.RulePatch{
		Country:  req.Country,
		TeamID:   req.TeamID,
		Strategy: req.Strategy,
		IsActive: req.IsActive,
	})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": ruleResponse(rule)})
}

// DeleteRule DELETE /api/rules/:id.
func (h *RulesHandler) DeleteRule(c *fiber.Ctx) error {
	if err := h.service.DeleteRule(c.Context(), c.Params("id")); err != nil {
		return err
	}
	return c.Status(http.StatusNoContent).Send(nil)
}

// GetRule GET /api/rules/:id.
func (h *RulesHandler) GetRule(c *fiber.Ctx) error {
	rule, err := h.service.GetRule(c.Context(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": ruleResponse(rule)})
}

// ListRules GET /api/rules.
func (h *RulesHandler) ListRules(c *fiber.Ctx) error {
	rules, err := h.service.ListRules(c.Context())
	if err != nil {
		return err
	}
	items := make([]dto.RuleResponse, 0, len(rules))
	for i := range rules {
		items = append(items, ruleResponse(&rules[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

func ruleResponse(rule *domain.RoutingRule) dto.RuleResponse {
	return dto.RuleResponse{
		ID:        rule.ID,
		Country:   rule.Country,
		TeamID:    rule.TeamID,
		Strategy:  rule.Strategy,
		IsActive:  rule.IsActive,
		CreatedAt: rule.CreatedAt,
		UpdatedAt: rule.UpdatedAt,
	}
}
