package service

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/crm-service/internal/auth"
	"github.com/spec-kit/crm-service/internal/config"
	"github.com/spec-kit/crm-service/internal/domain"
	"github.com/spec-kit/crm-service/internal/repository"
	apperrors "github.com/spec-kit/crm-service/pkg/util"
)

// UserService manages operator accounts and team membership.
type UserService struct {
	users      repository.UserRepository
	teams      repository.TeamRepository
	bcryptCost int
}

// NewUserService constructs the service.
func NewUserService(cfg config.Config, users repository.UserRepository, teams repository.TeamRepository) *UserService {
	return &UserService{
		users:      users,
		teams:      teams,
		bcryptCost: cfg.Auth.BcryptCost,
	}
}

// UserCreateInput carries fields for account creation by an admin.
type UserCreateInput struct {
	Name     string
	Email    string
	Password string
	Role     domain.UserRole
	TeamID   *string
}

// UserPatch carries optional account updates; nil fields keep the
// existing value.
type UserPatch struct {
	Name   *string
	Role   *domain.UserRole
	Status *domain.UserStatus
	TeamID *string
	// ClearTeam removes team membership when true.
	ClearTeam bool
}

// CreateUser registers a new operator account.
func (s *UserService) CreateUser(ctx context.Context, actor *domain.User, input UserCreateInput) (*domain.User, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	if strings.TrimSpace(input.Name) == "" || strings.TrimSpace(input.Email) == "" {
		return nil, apperrors.NewValidationError("name and email required", nil)
	}
	if len(input.Password) < 8 {
		return nil, apperrors.NewValidationError("password must be at least 8 characters", nil)
	}
	if !validRole(input.Role) {
		return nil, apperrors.NewValidationError("unknown role", map[string]any{"role": input.Role})
	}
	if input.TeamID != nil {
		if err := s.verifyTeam(ctx, *input.TeamID); err != nil {
			return nil, err
		}
	}

	if _, err := s.users.GetByEmail(ctx, input.Email); err == nil {
		return nil, apperrors.NewConflict("email already registered", map[string]any{"email": input.Email})
	} else if !errors.Is(err, pgx.ErrNoRows) {
		return nil, apperrors.MapError(err)
	}

	hash, err := auth.HashPassword(input.Password, s.bcryptCost)
	if err != nil {
		return nil, apperrors.MapError(err)
	}

	user := &domain.User{
		Name:         strings.TrimSpace(input.Name),
		Email:        strings.TrimSpace(input.Email),
		PasswordHash: hash,
		Role:         input.Role,
		Status:       domain.UserStatusActive,
		TeamID:       input.TeamID,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, apperrors.MapError(err)
	}
	return user, nil
}

// UpdateUser applies an admin patch to an account.
func (s *UserService) UpdateUser(ctx context.Context, actor *domain.User, id string, patch UserPatch) (*domain.User, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	user, err := s.GetUser(ctx, id)
	if err != nil {
		return nil, err
	}

	if patch.Name != nil && strings.TrimSpace(*patch.Name) != "" {
		user.Name = strings.TrimSpace(*patch.Name)
	}
	if patch.Role != nil {
		if !validRole(*patch.Role) {
			return nil, apperrors.NewValidationError("unknown role", map[string]any{"role": *patch.Role})
		}
		user.Role = *patch.Role
	}
	if patch.Status != nil {
		if *patch.Status != domain.UserStatusActive && *patch.Status != domain.UserStatusInactive {
			return nil, apperrors.NewValidationError("unknown status", map[string]any{"status": *patch.Status})
		}
		user.Status = *patch.Status
	}
	if patch.ClearTeam {
		user.TeamID = nil
	} else if patch.TeamID != nil {
		if err := s.verifyTeam(ctx, *patch.TeamID); err != nil {
			return nil, err
		}
		user.TeamID = patch.TeamID
	}

	if err := s.users.Update(ctx, user); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("user", map[string]any{"user_id": id})
		}
		return nil, apperrors.MapError(err)
	}
	return user, nil
}

// GetUser loads a single account.
func (s *UserService) GetUser(ctx context.Context, id string) (*domain.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("user", map[string]any{"user_id": id})
		}
		return nil, apperrors.MapError(err)
	}
	return user, nil
}

// ListUsers returns accounts matching the filter.
func (s *UserService) ListUsers(ctx context.Context, filter repository.UserFilter) ([]domain.User, error) {
	users, err := s.users.List(ctx, filter)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return users, nil
}

func (s *UserService) verifyTeam(ctx context.Context, teamID string) error {
	if _, err := s.teams.GetByID(ctx, teamID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NewValidationError("team does not exist", map[string]any{"team_id": teamID})
		}
		return apperrors.MapError(err)
	}
	return nil
}

func validRole(role domain.UserRole) bool {
	switch role {
	case domain.RoleSuperAdmin, domain.RoleAdmin, domain.RoleCounselor:
		return true
	}
	return false
}
