package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/crm-service/internal/domain"
	"github.com/spec-kit/crm-service/internal/events"
	"github.com/spec-kit/crm-service/internal/repository"
	apperrors "github.com/spec-kit/crm-service/pkg/util"
)

// RuleService manages routing rule lifecycle and enforces the
// one-active-rule-per-country invariant at write time.
type RuleService struct {
	rules      repository.RoutingRuleRepository
	teams      repository.TeamRepository
	dispatcher events.Dispatcher
}

// RuleDependencies bundles repositories.
type RuleDependencies struct {
	RuleRepo   repository.RoutingRuleRepository
	TeamRepo   repository.TeamRepository
	Dispatcher events.Dispatcher
}

// NewRuleService creates the service.
func NewRuleService(deps RuleDependencies) *RuleService {
	return &RuleService{
		rules:      deps.RuleRepo,
		teams:      deps.TeamRepo,
		dispatcher: deps.Dispatcher,
	}
}

// RuleCreateInput carries fields for rule creation.
type RuleCreateInput struct {
	Country  string
	TeamID   string
	Strategy domain.RoutingStrategy
	IsActive bool
}

// RulePatch carries optional fields for rule update; nil fields keep
// the existing value.
type RulePatch struct {
	Country  *string
	TeamID   *string
	Strategy *domain.RoutingStrategy
	IsActive *bool
}

// CreateRule validates and persists a new routing rule.
func (s *RuleService) CreateRule(ctx context.Context, input RuleCreateInput) (*domain.RoutingRule, error) {
	country := strings.TrimSpace(input.Country)
	if country == "" {
		return nil, apperrors.NewValidationError("country required", nil)
	}
	if !domain.ValidStrategy(input.Strategy) {
		return nil, apperrors.NewValidationError("unknown strategy", map[string]any{"strategy": input.Strategy})
	}
	if err := s.verifyTeam(ctx, input.TeamID); err != nil {
		return nil, err
	}
	if input.IsActive {
		if err := s.verifyNoActiveRule(ctx, country, ""); err != nil {
			return nil, err
		}
	}

	rule := &domain.RoutingRule{
		Country:  country,
		TeamID:   input.TeamID,
		Strategy: input.Strategy,
		IsActive: input.IsActive,
	}
	if err := s.rules.Create(ctx, rule); err != nil {
		return nil, apperrors.MapError(err)
	}
	s.publishRuleEvent(ctx, events.EventRuleCreated, rule)
	return rule, nil
}

// UpdateRule applies a patch to an existing rule. The uniqueness check
// runs against the resulting country, i.e. the patched value when
// present.
func (s *RuleService) UpdateRule(ctx context.Context, id string, patch RulePatch) (*domain.RoutingRule, error) {
	rule, err := s.rules.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("routing rule", map[string]any{"rule_id": id})
		}
		return nil, apperrors.MapError(err)
	}

	if patch.Country != nil {
		country := strings.TrimSpace(*patch.Country)
		if country == "" {
			return nil, apperrors.NewValidationError("country required", nil)
		}
		rule.Country = country
	}
	if patch.TeamID != nil {
		if err := s.verifyTeam(ctx, *patch.TeamID); err != nil {
			return nil, err
		}
		rule.TeamID = *patch.TeamID
	}
	if patch.Strategy != nil {
		if !domain.ValidStrategy(*patch.Strategy) {
			return nil, apperrors.NewValidationError("unknown strategy", map[string]any{"strategy": *patch.Strategy})
		}
		rule.Strategy = *patch.Strategy
	}
	if patch.IsActive != nil {
		rule.IsActive = *patch.IsActive
	}

	if rule.IsActive {
		if err := s.verifyNoActiveRule(ctx, rule.Country, rule.ID); err != nil {
			return nil, err
		}
	}

	if err := s.rules.Update(ctx, rule); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("routing rule", map[string]any{"rule_id": id})
		}
		return nil, apperrors.MapError(err)
	}
	s.publishRuleEvent(ctx, events.EventRuleUpdated, rule)
	return rule, nil
}

// DeleteRule removes the rule.
func (s *RuleService) DeleteRule(ctx context.Context, id string) error {
	rule, err := s.rules.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NewNotFound("routing rule", map[string]any{"rule_id": id})
		}
		return apperrors.MapError(err)
	}
	if err := s.rules.Delete(ctx, id); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NewNotFound("routing rule", map[string]any{"rule_id": id})
		}
		return apperrors.MapError(err)
	}
	s.publishRuleEvent(ctx, events.EventRuleDeleted, rule)
	return nil
}

// GetRule loads a single rule.
func (s *RuleService) GetRule(ctx context.Context, id string) (*domain.RoutingRule, error) {
	rule, err := s.rules.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("routing rule", map[string]any{"rule_id": id})
		}
		return nil, apperrors.MapError(err)
	}
	return rule, nil
}

// ListRules returns all rules.
func (s *RuleService) ListRules(ctx context.Context) ([]domain.RoutingRule, error) {
	rules, err := s.rules.List(ctx)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return rules, nil
}

func (s *RuleService) verifyTeam(ctx context.Context, teamID string) error {
	if strings.TrimSpace(teamID) == "" {
		return apperrors.NewValidationError("team_id required", nil)
	}
	if _, err := s.teams.GetByID(ctx, teamID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NewValidationError("team does not exist", map[string]any{"team_id": teamID})
		}
		return apperrors.MapError(err)
	}
	return nil
}

// verifyNoActiveRule fails when another active rule already covers the
// country. excludeID skips the rule being updated.
func (s *RuleService) verifyNoActiveRule(ctx context.Context, country, excludeID string) error {
	existing, err := s.rules.FindActiveByCountry(ctx, country)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil
		}
		return apperrors.MapError(err)
	}
	if existing == nil || existing.ID == excludeID {
		return nil
	}
	return apperrors.NewValidationError("an active rule already exists for this country", map[string]any{
		"country": country,
		"rule_id": existing.ID,
	})
}

func (s *RuleService) publishRuleEvent(ctx context.Context, eventType events.EventType, rule *domain.RoutingRule) {
	if s.dispatcher == nil {
		return
	}
	_ = s.dispatcher.Publish(ctx, events.Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		Timestamp: time.Now(),
		Payload: events.RulePayload{
			RuleID:   rule.ID,
			Country:  rule.Country,
			TeamID:   rule.TeamID,
			Strategy: rule.Strategy,
			IsActive: rule.IsActive,
		},
	})
}
