package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/crm-service/internal/domain"
	"github.com/spec-kit/crm-service/internal/events"
	"github.com/spec-kit/crm-service/internal/observability"
	"github.com/spec-kit/crm-service/internal/repository"
)

// RoutingResult reports the outcome of a routing pass.
type RoutingResult struct {
	Routed int
}

// RoutingService assigns unassigned leads to counselors according to
// per-country routing rules.
type RoutingService struct {
	leads      repository.LeadRepository
	rules      repository.RoutingRuleRepository
	users      repository.UserRepository
	activity   repository.ActivityLogRepository
	dispatcher events.Dispatcher
	logger     *zap.Logger
}

// RoutingDependencies bundles repositories.
type RoutingDependencies struct {
	LeadRepo     repository.LeadRepository
	RuleRepo     repository.RoutingRuleRepository
	UserRepo     repository.UserRepository
	ActivityRepo repository.ActivityLogRepository
	Dispatcher   events.Dispatcher
	Logger       *zap.Logger
}

// NewRoutingService creates the service.
func NewRoutingService(deps RoutingDependencies) *RoutingService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RoutingService{
		leads:      deps.LeadRepo,
		rules:      deps.RuleRepo,
		users:      deps.UserRepo,
		activity:   deps.ActivityRepo,
		dispatcher: deps.Dispatcher,
		logger:     logger,
	}
}

// RunRouting executes one routing pass over the current persisted
// state, processing leads one at a time in insertion order. Leads with
// no matching rule or an empty roster are skipped and stay unassigned.
// A persistence failure aborts the pass; assignments committed before
// the failure stay committed and the returned count reflects them.
// There is no mutual exclusion across concurrent passes: two racing
// runs may both pick up the same lead, and the last write wins.
func (s *RoutingService) RunRouting(ctx context.Context) (RoutingResult, error) {
	leadList, err := s.leads.ListUnassignedActive(ctx)
	if err != nil {
		observability.RoutingRunsTotal.WithLabelValues("error").Inc()
		return RoutingResult{}, err
	}
	if len(leadList) == 0 {
		observability.RoutingRunsTotal.WithLabelValues("ok").Inc()
		return RoutingResult{Routed: 0}, nil
	}

	// Every stored rule participates in matching, active or not; the
	// active flag is only enforced when rules are written.
	ruleList, err := s.rules.List(ctx)
	if err != nil {
		observability.RoutingRunsTotal.WithLabelValues("error").Inc()
		return RoutingResult{}, err
	}

	routed := 0
	for i := range leadList {
		lead := &leadList[i]

		rule := MatchRule(lead.Country, ruleList)
		if rule == nil {
			observability.LeadsSkippedTotal.WithLabelValues(observability.SkipReasonNoRule).Inc()
			s.logger.Debug("no routing rule for lead",
				zap.String("lead_id", lead.ID),
				zap.String("country", lead.Country))
			continue
		}

		roster, err := s.users.ListEligibleByTeam(ctx, rule.TeamID)
		if err != nil {
			observability.RoutingRunsTotal.WithLabelValues("error").Inc()
			return RoutingResult{Routed: routed}, err
		}
		if len(roster) == 0 {
			observability.LeadsSkippedTotal.WithLabelValues(observability.SkipReasonEmptyRoster).Inc()
			s.logger.Debug("empty roster for routing rule",
				zap.String("lead_id", lead.ID),
				zap.String("rule_id", rule.ID),
				zap.String("team_id", rule.TeamID))
			continue
		}

		assignee, err := s.selectAssignee(ctx, rule, roster)
		if err != nil {
			observability.RoutingRunsTotal.WithLabelValues("error").Inc()
			return RoutingResult{Routed: routed}, err
		}

		description := fmt.Sprintf("Lead automatically routed to %s (%s rule for %s)",
			assignee.Name, rule.Strategy, rule.Country)
		if err := s.leads.Assign(ctx, lead.ID, assignee.ID, description); err != nil {
			observability.RoutingRunsTotal.WithLabelValues("error").Inc()
			return RoutingResult{Routed: routed}, err
		}
		routed++
		observability.LeadsRoutedTotal.Inc()

		s.publishAssigned(ctx, lead.ID, assignee.ID, rule)
	}

	observability.RoutingRunsTotal.WithLabelValues("ok").Inc()
	s.logger.Info("routing pass finished",
		zap.Int("eligible", len(leadList)),
		zap.Int("routed", routed))
	return RoutingResult{Routed: routed}, nil
}

// MatchRule returns the first rule whose country matches the lead
// country case-insensitively, or nil. First match wins when duplicates
// exist; the engine does not re-verify the write-time uniqueness
// invariant here.
func MatchRule(country string, rules []domain.RoutingRule) *domain.RoutingRule {
	for i := range rules {
		if rules[i].MatchesCountry(country) {
			return &rules[i]
		}
	}
	return nil
}

// selectAssignee picks exactly one counselor from a non-empty roster
// using the rule strategy. Ties break to the earliest roster position.
func (s *RoutingService) selectAssignee(ctx context.Context, rule *domain.RoutingRule, roster []domain.User) (*domain.User, error) {
	switch rule.Strategy {
	case domain.StrategyLoadBased:
		return s.pickLeastLoaded(ctx, roster)
	case domain.StrategyRoundRobin:
		return s.pickLongestIdle(ctx, roster)
	default:
		return nil, fmt.Errorf("unknown routing strategy %q on rule %s", rule.Strategy, rule.ID)
	}
}

// pickLeastLoaded selects the counselor with the fewest active leads.
// One count query per candidate; routing runs as a small batch job, so
// the round trips are tolerable.
func (s *RoutingService) pickLeastLoaded(ctx context.Context, roster []domain.User) (*domain.User, error) {
	var selected *domain.User
	best := 0
	for i := range roster {
		count, err := s.leads.CountActiveAssigned(ctx, roster[i].ID)
		if err != nil {
			return nil, err
		}
		if selected == nil || count < best {
			selected = &roster[i]
			best = count
		}
	}
	return selected, nil
}

// pickLongestIdle selects the counselor whose latest ASSIGNMENT entry
// is oldest. A counselor with no prior assignment counts as assigned at
// the zero time, so never-assigned counselors go first.
func (s *RoutingService) pickLongestIdle(ctx context.Context, roster []domain.User) (*domain.User, error) {
	var selected *domain.User
	var best time.Time
	for i := range roster {
		last, err := s.activity.LatestAssignmentAt(ctx, roster[i].ID)
		if err != nil {
			return nil, err
		}
		var lastAt time.Time
		if last != nil {
			lastAt = *last
		}
		if selected == nil || lastAt.Before(best) {
			selected = &roster[i]
			best = lastAt
		}
	}
	return selected, nil
}

func (s *RoutingService) publishAssigned(ctx context.Context, leadID, assigneeID string, rule *domain.RoutingRule) {
	if s.dispatcher == nil {
		return
	}
	event := events.Event{
		ID:        uuid.NewString(),
		Type:      events.EventLeadAssigned,
		LeadID:    leadID,
		Actor:     events.Actor{},
		Timestamp: time.Now(),
		Payload: events.LeadAssignedPayload{
			AssigneeID: assigneeID,
			RuleID:     rule.ID,
			Strategy:   rule.Strategy,
			Automatic:  true,
		},
	}
	_ = s.dispatcher.Publish(ctx, event)
}
