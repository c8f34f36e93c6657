package service

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/crm-service/internal/domain"
	"github.com/spec-kit/crm-service/internal/repository"
)

// fakeStore is an in-memory stand-in for the postgres repositories.
// All repositories share one store so that Assign can append activity
// entries the same way the real transactional implementation does.
type fakeStore struct {
	mu      sync.Mutex
	seq     int
	clock   time.Time
	leads   []*domain.Lead
	users   []*domain.User
	rules   []*domain.RoutingRule
	teams   []*domain.Team
	entries []*domain.ActivityLog

	assignErrFor map[string]error
	listLeadsErr error
	listRulesErr error
	rosterErr    error
	countErr     error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		clock:        time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		assignErrFor: map[string]error{},
	}
}

// nextID hands out deterministic ids; tick advances the logical clock
// so created_at ordering is stable without sleeping.
func (f *fakeStore) nextID(prefix string) string {
	f.seq++
	return fmt.Sprintf("%s-%04d", prefix, f.seq)
}

func (f *fakeStore) tick() time.Time {
	f.clock = f.clock.Add(time.Second)
	return f.clock
}

func (f *fakeStore) addTeam(name string) *domain.Team {
	f.mu.Lock()
	defer f.mu.Unlock()
	team := &domain.Team{ID: f.nextID("team"), Name: name, IsActive: true, CreatedAt: f.tick()}
	f.teams = append(f.teams, team)
	return team
}

func (f *fakeStore) addCounselor(teamID string) *domain.User {
	return f.addUser(teamID, domain.RoleCounselor, domain.UserStatusActive)
}

func (f *fakeStore) addUser(teamID string, role domain.UserRole, status domain.UserStatus) *domain.User {
	f.mu.Lock()
	defer f.mu.Unlock()
	user := &domain.User{
		ID:        f.nextID("user"),
		Name:      gofakeit.Name(),
		Email:     gofakeit.Email(),
		Role:      role,
		Status:    status,
		CreatedAt: f.tick(),
	}
	if teamID != "" {
		user.TeamID = &teamID
	}
	f.users = append(f.users, user)
	return user
}

func (f *fakeStore) addLead(country string) *domain.Lead {
	f.mu.Lock()
	defer f.mu.Unlock()
	lead := &domain.Lead{
		ID:        f.nextID("lead"),
		Name:      gofakeit.Name(),
		Email:     gofakeit.Email(),
		Country:   country,
		Stage:     domain.LeadStageNew,
		Status:    domain.LeadStatusActive,
		CreatedAt: f.tick(),
	}
	f.leads = append(f.leads, lead)
	return lead
}

func (f *fakeStore) addRule(country, teamID string, strategy domain.RoutingStrategy, active bool) *domain.RoutingRule {
	f.mu.Lock()
	defer f.mu.Unlock()
	rule := &domain.RoutingRule{
		ID:        f.nextID("rule"),
		Country:   country,
		TeamID:    teamID,
		Strategy:  strategy,
		IsActive:  active,
		CreatedAt: f.tick(),
	}
	f.rules = append(f.rules, rule)
	return rule
}

func (f *fakeStore) leadByID(id string) *domain.Lead {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, l := range f.leads {
		if l.ID == id {
			return l
		}
	}
	return nil
}

func (f *fakeStore) assignmentEntries(leadID string) []*domain.ActivityLog {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*domain.ActivityLog
	for _, e := range f.entries {
		if e.LeadID == leadID && e.Type == domain.ActivityAssignment {
			out = append(out, e)
		}
	}
	return out
}

// fakeLeadRepo implements repository.LeadRepository.
type fakeLeadRepo struct{ store *fakeStore }

func (r *fakeLeadRepo) Create(_ context.Context, lead *domain.Lead) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	lead.ID = r.store.nextID("lead")
	lead.CreatedAt = r.store.tick()
	stored := *lead
	r.store.leads = append(r.store.leads, &stored)
	return nil
}

func (r *fakeLeadRepo) Update(_ context.Context, lead *domain.Lead) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for i, l := range r.store.leads {
		if l.ID == lead.ID {
			stored := *lead
			stored.CreatedAt = l.CreatedAt
			r.store.leads[i] = &stored
			return nil
		}
	}
	return pgx.ErrNoRows
}

func (r *fakeLeadRepo) GetByID(_ context.Context, id string) (*domain.Lead, error) {
	if lead := r.store.leadByID(id); lead != nil {
		copied := *lead
		return &copied, nil
	}
	return nil, pgx.ErrNoRows
}

func (r *fakeLeadRepo) ListWithFilter(_ context.Context, filter repository.LeadFilter) ([]domain.Lead, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	var out []domain.Lead
	for _, l := range r.store.leads {
		if filter.Country != nil && !strings.EqualFold(l.Country, *filter.Country) {
			continue
		}
		if filter.Status != nil && l.Status != *filter.Status {
			continue
		}
		if filter.Unassigned && l.AssignedToID != nil {
			continue
		}
		out = append(out, *l)
	}
	return out, nil
}

func (r *fakeLeadRepo) ListUnassignedActive(_ context.Context) ([]domain.Lead, error) {
	if r.store.listLeadsErr != nil {
		return nil, r.store.listLeadsErr
	}
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	var out []domain.Lead
	for _, l := range r.store.leads {
		if l.RoutingEligible() {
			out = append(out, *l)
		}
	}
	return out, nil
}

func (r *fakeLeadRepo) CountActiveAssigned(_ context.Context, userID string) (int, error) {
	if r.store.countErr != nil {
		return 0, r.store.countErr
	}
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	count := 0
	for _, l := range r.store.leads {
		if l.AssignedToID != nil && *l.AssignedToID == userID && l.Status == domain.LeadStatusActive {
			count++
		}
	}
	return count, nil
}

func (r *fakeLeadRepo) Assign(_ context.Context, leadID, userID, description string) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if err, ok := r.store.assignErrFor[leadID]; ok {
		return err
	}
	for _, l := range r.store.leads {
		if l.ID == leadID {
			assignee := userID
			l.AssignedToID = &assignee
			uid := userID
			r.store.entries = append(r.store.entries, &domain.ActivityLog{
				ID:          r.store.nextID("act"),
				LeadID:      leadID,
				UserID:      &uid,
				Type:        domain.ActivityAssignment,
				Description: description,
				CreatedAt:   r.store.tick(),
			})
			return nil
		}
	}
	return pgx.ErrNoRows
}

// fakeUserRepo implements repository.UserRepository.
type fakeUserRepo struct{ store *fakeStore }

func (r *fakeUserRepo) Create(_ context.Context, user *domain.User) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	user.ID = r.store.nextID("user")
	user.CreatedAt = r.store.tick()
	stored := *user
	r.store.users = append(r.store.users, &stored)
	return nil
}

func (r *fakeUserRepo) Update(_ context.Context, user *domain.User) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for i, u := range r.store.users {
		if u.ID == user.ID {
			stored := *user
			r.store.users[i] = &stored
			return nil
		}
	}
	return pgx.ErrNoRows
}

func (r *fakeUserRepo) GetByID(_ context.Context, id string) (*domain.User, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for _, u := range r.store.users {
		if u.ID == id {
			copied := *u
			return &copied, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *fakeUserRepo) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for _, u := range r.store.users {
		if strings.EqualFold(u.Email, email) {
			copied := *u
			return &copied, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *fakeUserRepo) List(_ context.Context, filter repository.UserFilter) ([]domain.User, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	var out []domain.User
	for _, u := range r.store.users {
		if filter.Role != nil && u.Role != *filter.Role {
			continue
		}
		if filter.Status != nil && u.Status != *filter.Status {
			continue
		}
		out = append(out, *u)
	}
	return out, nil
}

func (r *fakeUserRepo) ListEligibleByTeam(_ context.Context, teamID string) ([]domain.User, error) {
	if r.store.rosterErr != nil {
		return nil, r.store.rosterErr
	}
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	var out []domain.User
	for _, u := range r.store.users {
		if u.TeamID == nil || *u.TeamID != teamID {
			continue
		}
		if !u.RoutingEligible() {
			continue
		}
		out = append(out, *u)
	}
	return out, nil
}

// fakeRuleRepo implements repository.RoutingRuleRepository.
type fakeRuleRepo struct{ store *fakeStore }

func (r *fakeRuleRepo) Create(_ context.Context, rule *domain.RoutingRule) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	rule.ID = r.store.nextID("rule")
	rule.CreatedAt = r.store.tick()
	stored := *rule
	r.store.rules = append(r.store.rules, &stored)
	return nil
}

func (r *fakeRuleRepo) Update(_ context.Context, rule *domain.RoutingRule) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for i, existing := range r.store.rules {
		if existing.ID == rule.ID {
			stored := *rule
			stored.CreatedAt = existing.CreatedAt
			r.store.rules[i] = &stored
			return nil
		}
	}
	return pgx.ErrNoRows
}

func (r *fakeRuleRepo) Delete(_ context.Context, id string) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for i, rule := range r.store.rules {
		if rule.ID == id {
			r.store.rules = append(r.store.rules[:i], r.store.rules[i+1:]...)
			return nil
		}
	}
	return pgx.ErrNoRows
}

func (r *fakeRuleRepo) GetByID(_ context.Context, id string) (*domain.RoutingRule, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for _, rule := range r.store.rules {
		if rule.ID == id {
			copied := *rule
			return &copied, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *fakeRuleRepo) List(_ context.Context) ([]domain.RoutingRule, error) {
	if r.store.listRulesErr != nil {
		return nil, r.store.listRulesErr
	}
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	out := make([]domain.RoutingRule, 0, len(r.store.rules))
	for _, rule := range r.store.rules {
		out = append(out, *rule)
	}
	return out, nil
}

func (r *fakeRuleRepo) FindActiveByCountry(_ context.Context, country string) (*domain.RoutingRule, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for _, rule := range r.store.rules {
		if rule.IsActive && strings.EqualFold(rule.Country, country) {
			copied := *rule
			return &copied, nil
		}
	}
	return nil, pgx.ErrNoRows
}

// fakeTeamRepo implements repository.TeamRepository.
type fakeTeamRepo struct{ store *fakeStore }

func (r *fakeTeamRepo) Create(_ context.Context, team *domain.Team) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	team.ID = r.store.nextID("team")
	team.CreatedAt = r.store.tick()
	stored := *team
	r.store.teams = append(r.store.teams, &stored)
	return nil
}

func (r *fakeTeamRepo) Update(_ context.Context, team *domain.Team) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for i, t := range r.store.teams {
		if t.ID == team.ID {
			stored := *team
			r.store.teams[i] = &stored
			return nil
		}
	}
	return pgx.ErrNoRows
}

func (r *fakeTeamRepo) GetByID(_ context.Context, id string) (*domain.Team, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for _, t := range r.store.teams {
		if t.ID == id {
			copied := *t
			return &copied, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *fakeTeamRepo) List(_ context.Context) ([]domain.Team, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	out := make([]domain.Team, 0, len(r.store.teams))
	for _, t := range r.store.teams {
		out = append(out, *t)
	}
	return out, nil
}

// fakeActivityRepo implements repository.ActivityLogRepository.
type fakeActivityRepo struct{ store *fakeStore }

func (r *fakeActivityRepo) Create(_ context.Context, entry *domain.ActivityLog) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	entry.ID = r.store.nextID("act")
	entry.CreatedAt = r.store.tick()
	stored := *entry
	r.store.entries = append(r.store.entries, &stored)
	return nil
}

func (r *fakeActivityRepo) ListByLead(_ context.Context, leadID string) ([]domain.ActivityLog, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	var out []domain.ActivityLog
	for _, e := range r.store.entries {
		if e.LeadID == leadID {
			out = append(out, *e)
		}
	}
	return out, nil
}

func (r *fakeActivityRepo) LatestAssignmentAt(_ context.Context, userID string) (*time.Time, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	var latest *time.Time
	for _, e := range r.store.entries {
		if e.Type != domain.ActivityAssignment || e.UserID == nil || *e.UserID != userID {
			continue
		}
		if latest == nil || e.CreatedAt.After(*latest) {
			at := e.CreatedAt
			latest = &at
		}
	}
	return latest, nil
}

// fakeTrigger records background routing dispatches.
type fakeTrigger struct {
	mu    sync.Mutex
	count int
}

func (t *fakeTrigger) TriggerRouting() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.count++
}

func (t *fakeTrigger) calls() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.count
}

func newRoutingService(store *fakeStore) *RoutingService {
	return NewRoutingService(RoutingDependencies{
		LeadRepo:     &fakeLeadRepo{store: store},
		RuleRepo:     &fakeRuleRepo{store: store},
		UserRepo:     &fakeUserRepo{store: store},
		ActivityRepo: &fakeActivityRepo{store: store},
	})
}
