package service

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/crm-service/internal/domain"
	"github.com/spec-kit/crm-service/internal/repository"
	apperrors "github.com/spec-kit/crm-service/pkg/util"
)

// TeamService manages team lifecycle.
type TeamService struct {
	teams repository.TeamRepository
}

// NewTeamService creates the service.
func NewTeamService(teams repository.TeamRepository) *TeamService {
	return &TeamService{teams: teams}
}

// TeamInput carries fields for team create/update.
type TeamInput struct {
	Name        string
	Description string
	IsActive    *bool
}

// CreateTeam persists a new team.
func (s *TeamService) CreateTeam(ctx context.Context, input TeamInput) (*domain.Team, error) {
	if strings.TrimSpace(input.Name) == "" {
		return nil, apperrors.NewValidationError("name required", nil)
	}
	team := &domain.Team{
		Name:        strings.TrimSpace(input.Name),
		Description: input.Description,
		IsActive:    true,
	}
	if input.IsActive != nil {
		team.IsActive = *input.IsActive
	}
	if err := s.teams.Create(ctx, team); err != nil {
		return nil, apperrors.MapError(err)
	}
	return team, nil
}

// UpdateTeam applies changes to an existing team.
func (s *TeamService) UpdateTeam(ctx context.Context, id string, input TeamInput) (*domain.Team, error) {
	team, err := s.GetTeam(ctx, id)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(input.Name) != "" {
		team.Name = strings.TrimSpace(input.Name)
	}
	if input.Description != "" {
		team.Description = input.Description
	}
	if input.IsActive != nil {
		team.IsActive = *input.IsActive
	}
	if err := s.teams.Update(ctx, team); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("team", map[string]any{"team_id": id})
		}
		return nil, apperrors.MapError(err)
	}
	return team, nil
}

// GetTeam loads a single team.
func (s *TeamService) GetTeam(ctx context.Context, id string) (*domain.Team, error) {
	team, err := s.teams.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("team", map[string]any{"team_id": id})
		}
		return nil, apperrors.MapError(err)
	}
	return team, nil
}

// ListTeams returns all teams.
func (s *TeamService) ListTeams(ctx context.Context) ([]domain.Team, error) {
	teams, err := s.teams.List(ctx)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return teams, nil
}
