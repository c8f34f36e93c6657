package dto

import "github.com/spec-kit/crm-service/internal/domain"

// CreateUserRequest payload for admin account creation.
type CreateUserRequest struct {
	Name     string          `json:"name" validate:"required"`
	Email    string          `json:"email" validate:"required,email"`
	Password string          `json:"password" validate:"required,min=8"`
	Role     domain.UserRole `json:"role" validate:"required,oneof=SUPER_ADMIN ADMIN COUNSELOR"`
	TeamID   *string         `json:"team_id"`
}

// UpdateUserRequest payload; nil fields keep the existing value.
type UpdateUserRequest struct {
	Name      *string            `json:"name"`
	Role      *domain.UserRole   `json:"role" validate:"omitempty,oneof=SUPER_ADMIN ADMIN COUNSELOR"`
	Status    *domain.UserStatus `json:"status" validate:"omitempty,oneof=ACTIVE INACTIVE"`
	TeamID    *string            `json:"team_id"`
	ClearTeam bool               `json:"clear_team"`
}
