package dto

import (
	"time"

	"github.com/spec-kit/crm-service/internal/domain"
)

// CreateLeadRequest payload.
type CreateLeadRequest struct {
	Name         string  `json:"name" validate:"required"`
	Email        string  `json:"email" validate:"omitempty,email"`
	Phone        string  `json:"phone"`
	Country      string  `json:"country" validate:"required"`
	Source       string  `json:"source"`
	Score        int     `json:"score" validate:"gte=0,lte=100"`
	AssignedToID *string `json:"assigned_to_id"`
}

// UpdateLeadStageRequest payload.
type UpdateLeadStageRequest struct {
	Stage domain.LeadStage `json:"stage" validate:"required"`
}

// UpdateLeadStatusRequest payload.
type UpdateLeadStatusRequest struct {
	Status domain.LeadStatus `json:"status" validate:"required"`
}

// AssignLeadRequest payload.
type AssignLeadRequest struct {
	UserID string `json:"user_id" validate:"required"`
}

// AddNoteRequest payload.
type AddNoteRequest struct {
	Body string `json:"body" validate:"required"`
}

// LeadResponse represents a lead.
type LeadResponse struct {
	ID           string            `json:"id"`
	Name         string            `json:"name"`
	Email        string            `json:"email"`
	Phone        string            `json:"phone"`
	Country      string            `json:"country"`
	Source       string            `json:"source"`
	Stage        domain.LeadStage  `json:"stage"`
	Score        int               `json:"score"`
	Status       domain.LeadStatus `json:"status"`
	AssignedToID *string           `json:"assigned_to_id"`
	CreatedAt    time.Time         `json:"created_at"`
	UpdatedAt    time.Time         `json:"updated_at"`
}

// ActivityResponse represents an activity trail entry.
type ActivityResponse struct {
	ID          string              `json:"id"`
	LeadID      string              `json:"lead_id"`
	UserID      *string             `json:"user_id"`
	Type        domain.ActivityType `json:"type"`
	Description string              `json:"description"`
	CreatedAt   time.Time           `json:"created_at"`
}
