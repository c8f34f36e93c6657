package dto

import (
	"time"

	"github.com/spec-kit/crm-service/internal/domain"
)

// CreateRuleRequest payload.
type CreateRuleRequest struct {
	Country  string                 `json:"country" validate:"required"`
	TeamID   string                 `json:"team_id" validate:"required"`
	Strategy domain.RoutingStrategy `json:"strategy" validate:"required,oneof=ROUND_ROBIN LOAD_BASED"`
	IsActive bool                   `json:"is_active"`
}

// UpdateRuleRequest payload; nil fields keep the existing value.
type UpdateRuleRequest struct {
	Country  *string                 `json:"country"`
	TeamID   *string                 `json:"team_id"`
	Strategy *domain.RoutingStrategy `json:"strategy" validate:"omitempty,oneof=ROUND_ROBIN LOAD_BASED"`
	IsActive *bool                   `json:"is_active"`
}

// RuleResponse represents a routing rule.
type RuleResponse struct {
	ID        string                 `json:"id"`
	Country   string                 `json:"country"`
	TeamID    string                 `json:"team_id"`
	Strategy  domain.RoutingStrategy `json:"strategy"`
	IsActive  bool                   `json:"is_active"`
	CreatedAt time.Time              `json:"created_at"`
	UpdatedAt time.Time              `json:"updated_at"`
}

// RoutingRunResponse reports a routing pass outcome.
type RoutingRunResponse struct {
	Routed int `json:"routed"`
}
