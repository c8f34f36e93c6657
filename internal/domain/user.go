package domain

import "time"

// UserRole enumerates operator roles within the CRM.
type UserRole string

const (
	RoleSuperAdmin UserRole = "SUPER_ADMIN"
	RoleAdmin      UserRole = "ADMIN"
	RoleCounselor  UserRole = "COUNSELOR"
)

// UserStatus represents lifecycle states for an operator account.
type UserStatus string

const (
	UserStatusActive   UserStatus = "ACTIVE"
	UserStatusInactive UserStatus = "INACTIVE"
)

// User models a CRM operator: admins who manage rules and counselors
// who receive routed leads.
type User struct {
	ID           string
	Name         string
	Email        string
	PasswordHash string
	Role         UserRole
	Status       UserStatus
	TeamID       *string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// RoutingEligible reports whether the user may receive routed leads.
func (u *User) RoutingEligible() bool {
	return u.Status == UserStatusActive && u.Role == RoleCounselor
}
