package events

import (
	"time"

	"github.com/spec-kit/crm-service/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventLeadCreated      EventType = "lead_created"
	EventLeadAssigned     EventType = "lead_assigned"
	EventLeadStageChanged EventType = "lead_stage_changed"
	EventRuleCreated      EventType = "rule_created"
	EventRuleUpdated      EventType = "rule_updated"
	EventRuleDeleted      EventType = "rule_deleted"
)

// Actor encapsulates actor metadata for an event. A nil UserID marks a
// system-initiated action such as automatic routing.
type Actor struct {
	UserID *string          `json:"user_id,omitempty"`
	Role   *domain.UserRole `json:"role,omitempty"`
}

// Event represents a domain event emitted by services.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	LeadID    string      `json:"lead_id,omitempty"`
	Actor     Actor       `json:"actor"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// LeadCreatedPayload payload.
type LeadCreatedPayload struct {
	Country string           `json:"country"`
	Source  string           `json:"source,omitempty"`
	Stage   domain.LeadStage `json:"stage"`
}

// LeadAssignedPayload payload.
type LeadAssignedPayload struct {
	AssigneeID string                 `json:"assignee_id"`
	RuleID     string                 `json:"rule_id,omitempty"`
	Strategy   domain.RoutingStrategy `json:"strategy,omitempty"`
	Automatic  bool                   `json:"automatic"`
}

// LeadStageChangedPayload payload.
type LeadStageChangedPayload struct {
	OldStage domain.LeadStage `json:"old_stage"`
	NewStage domain.LeadStage `json:"new_stage"`
}

// RulePayload payload for rule lifecycle events.
type RulePayload struct {
	RuleID   string                 `json:"rule_id"`
	Country  string                 `json:"country"`
	TeamID   string                 `json:"team_id"`
	Strategy domain.RoutingStrategy `json:"strategy"`
	IsActive bool                   `json:"is_active"`
}
