package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/crm-service/internal/domain"
	"github.com/spec-kit/crm-service/internal/events"
)

func TestRunRouting_NoEligibleLeads(t *testing.T) {
	store := newFakeStore()
	svc := newRoutingService(store)

	result, err := svc.RunRouting(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 0, result.Routed)
}

func TestRunRouting_CaseInsensitiveCountryMatch(t *testing.T) {
	store := newFakeStore()
	team := store.addTeam("India Team")
	counselor := store.addCounselor(team.ID)
	store.addRule("India", team.ID, domain.StrategyRoundRobin, true)
	lead := store.addLead("india")

	result, err := newRoutingService(store).RunRouting(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 1, result.Routed)
	stored := store.leadByID(lead.ID)
	require.NotNil(t, stored.AssignedToID)
	assert.Equal(t, counselor.ID, *stored.AssignedToID)
}

func TestRunRouting_SkipsLeadWithoutMatchingRule(t *testing.T) {
	store := newFakeStore()
	team := store.addTeam("EU Team")
	store.addCounselor(team.ID)
	store.addRule("Germany", team.ID, domain.StrategyRoundRobin, true)
	lead := store.addLead("Brazil")

	result, err := newRoutingService(store).RunRouting(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 0, result.Routed)
	assert.Nil(t, store.leadByID(lead.ID).AssignedToID)
}

func TestRunRouting_SkipsLeadWhenRosterEmpty(t *testing.T) {
	store := newFakeStore()
	team := store.addTeam("Empty Team")
	// team has an admin and an inactive counselor, neither eligible
	store.addUser(team.ID, domain.RoleAdmin, domain.UserStatusActive)
	store.addUser(team.ID, domain.RoleCounselor, domain.UserStatusInactive)
	store.addRule("France", team.ID, domain.StrategyRoundRobin, true)
	lead := store.addLead("France")

	result, err := newRoutingService(store).RunRouting(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 0, result.Routed)
	assert.Nil(t, store.leadByID(lead.ID).AssignedToID)
}

func TestRunRouting_InactiveRuleStillMatches(t *testing.T) {
	store := newFakeStore()
	team := store.addTeam("Dormant Team")
	counselor := store.addCounselor(team.ID)
	store.addRule("Japan", team.ID, domain.StrategyRoundRobin, false)
	lead := store.addLead("Japan")

	result, err := newRoutingService(store).RunRouting(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 1, result.Routed)
	require.NotNil(t, store.leadByID(lead.ID).AssignedToID)
	assert.Equal(t, counselor.ID, *store.leadByID(lead.ID).AssignedToID)
}

func TestRunRouting_LoadBasedPicksLeastLoaded(t *testing.T) {
	store := newFakeStore()
	team := store.addTeam("Sales")
	loadedA := store.addCounselor(team.ID)
	b := store.addCounselor(team.ID)
	store.addCounselor(team.ID)
	store.addRule("Spain", team.ID, domain.StrategyLoadBased, true)

	// counselor A already holds two active leads, B and C hold none
	for i := 0; i < 2; i++ {
		held := store.addLead("Spain")
		held.AssignedToID = &loadedA.ID
	}
	lead := store.addLead("Spain")

	result, err := newRoutingService(store).RunRouting(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 1, result.Routed)
	stored := store.leadByID(lead.ID)
	require.NotNil(t, stored.AssignedToID)
	assert.NotEqual(t, loadedA.ID, *stored.AssignedToID)
	// tie between B and C breaks to roster order
	assert.Equal(t, b.ID, *stored.AssignedToID)
}

func TestRunRouting_RoundRobinPrefersNeverAssigned(t *testing.T) {
	store := newFakeStore()
	team := store.addTeam("Rotations")
	veteran := store.addCounselor(team.ID)
	fresh := store.addCounselor(team.ID)
	store.addRule("Italy", team.ID, domain.StrategyRoundRobin, true)

	// veteran has a prior assignment on record, fresh has none
	seeded := store.addLead("Italy")
	leadRepo := &fakeLeadRepo{store: store}
	require.NoError(t, leadRepo.Assign(context.Background(), seeded.ID, veteran.ID, "seed"))

	lead := store.addLead("Italy")
	result, err := newRoutingService(store).RunRouting(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 1, result.Routed)
	stored := store.leadByID(lead.ID)
	require.NotNil(t, stored.AssignedToID)
	assert.Equal(t, fresh.ID, *stored.AssignedToID)
}

func TestRunRouting_RoundRobinRotatesOverTime(t *testing.T) {
	store := newFakeStore()
	team := store.addTeam("Rotations")
	first := store.addCounselor(team.ID)
	second := store.addCounselor(team.ID)
	store.addRule("Kenya", team.ID, domain.StrategyRoundRobin, true)
	svc := newRoutingService(store)

	leadA := store.addLead("Kenya")
	_, err := svc.RunRouting(context.Background())
	require.NoError(t, err)

	leadB := store.addLead("Kenya")
	_, err = svc.RunRouting(context.Background())
	require.NoError(t, err)

	assert.Equal(t, first.ID, *store.leadByID(leadA.ID).AssignedToID)
	assert.Equal(t, second.ID, *store.leadByID(leadB.ID).AssignedToID)
}

func TestRunRouting_MixedCountriesRoutesOnlyMatched(t *testing.T) {
	store := newFakeStore()
	team := store.addTeam("France Desk")
	counselor := store.addCounselor(team.ID)
	store.addRule("France", team.ID, domain.StrategyRoundRobin, true)

	french := store.addLead("France")
	spanish := store.addLead("Spain")

	result, err := newRoutingService(store).RunRouting(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 1, result.Routed)
	require.NotNil(t, store.leadByID(french.ID).AssignedToID)
	assert.Equal(t, counselor.ID, *store.leadByID(french.ID).AssignedToID)
	assert.Nil(t, store.leadByID(spanish.ID).AssignedToID)
}

func TestRunRouting_SecondPassFindsNothingNew(t *testing.T) {
	store := newFakeStore()
	team := store.addTeam("Once")
	store.addCounselor(team.ID)
	store.addRule("Chile", team.ID, domain.StrategyRoundRobin, true)
	store.addLead("Chile")
	svc := newRoutingService(store)

	first, err := svc.RunRouting(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, first.Routed)

	second, err := svc.RunRouting(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, second.Routed)
}

func TestRunRouting_PersistenceFailureStopsPass(t *testing.T) {
	store := newFakeStore()
	team := store.addTeam("Flaky")
	store.addCounselor(team.ID)
	store.addRule("Egypt", team.ID, domain.StrategyRoundRobin, true)

	ok := store.addLead("Egypt")
	broken := store.addLead("Egypt")
	later := store.addLead("Egypt")
	store.assignErrFor[broken.ID] = errors.New("connection reset")

	result, err := newRoutingService(store).RunRouting(context.Background())

	require.Error(t, err)
	assert.Equal(t, 1, result.Routed)
	assert.NotNil(t, store.leadByID(ok.ID).AssignedToID)
	assert.Nil(t, store.leadByID(broken.ID).AssignedToID)
	assert.Nil(t, store.leadByID(later.ID).AssignedToID)
}

func TestRunRouting_UnknownStrategyFailsPass(t *testing.T) {
	store := newFakeStore()
	team := store.addTeam("Odd")
	store.addCounselor(team.ID)
	store.addRule("Peru", team.ID, domain.RoutingStrategy("WEIGHTED"), true)
	lead := store.addLead("Peru")

	result, err := newRoutingService(store).RunRouting(context.Background())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown routing strategy")
	assert.Equal(t, 0, result.Routed)
	assert.Nil(t, store.leadByID(lead.ID).AssignedToID)
}

func TestRunRouting_WritesAssignmentEntryForAssignee(t *testing.T) {
	store := newFakeStore()
	team := store.addTeam("Audit")
	counselor := store.addCounselor(team.ID)
	store.addRule("Ghana", team.ID, domain.StrategyRoundRobin, true)
	lead := store.addLead("Ghana")

	_, err := newRoutingService(store).RunRouting(context.Background())
	require.NoError(t, err)

	entries := store.assignmentEntries(lead.ID)
	require.Len(t, entries, 1)
	require.NotNil(t, entries[0].UserID)
	assert.Equal(t, counselor.ID, *entries[0].UserID)
	assert.Contains(t, entries[0].Description, counselor.Name)
	assert.Contains(t, entries[0].Description, "ROUND_ROBIN")
}

func TestRunRouting_PublishesAssignmentEvents(t *testing.T) {
	store := newFakeStore()
	team := store.addTeam("Events")
	store.addCounselor(team.ID)
	store.addRule("Norway", team.ID, domain.StrategyRoundRobin, true)
	store.addLead("Norway")
	store.addLead("Norway")

	dispatcher := events.NewInMemoryDispatcher()
	var published []events.Event
	dispatcher.Subscribe(events.EventLeadAssigned, func(_ context.Context, e events.Event) error {
		published = append(published, e)
		return nil
	})

	svc := NewRoutingService(RoutingDependencies{
		LeadRepo:     &fakeLeadRepo{store: store},
		RuleRepo:     &fakeRuleRepo{store: store},
		UserRepo:     &fakeUserRepo{store: store},
		ActivityRepo: &fakeActivityRepo{store: store},
		Dispatcher:   dispatcher,
	})

	result, err := svc.RunRouting(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 2, result.Routed)
	require.Len(t, published, 2)
	payload, ok := published[0].Payload.(events.LeadAssignedPayload)
	require.True(t, ok)
	assert.True(t, payload.Automatic)
	assert.Equal(t, domain.StrategyRoundRobin, payload.Strategy)
}

func TestMatchRule(t *testing.T) {
	rules := []domain.RoutingRule{
		{ID: "r1", Country: "India"},
		{ID: "r2", Country: "Brazil"},
		{ID: "r3", Country: "brazil"},
	}

	tests := []struct {
		name    string
		country string
		wantID  string
	}{
		{"exact", "India", "r1"},
		{"lowercase", "india", "r1"},
		{"uppercase", "BRAZIL", "r2"},
		{"first match wins on duplicates", "Brazil", "r2"},
		{"no match", "Chile", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MatchRule(tt.country, rules)
			if tt.wantID == "" {
				assert.Nil(t, got)
				return
			}
			require.NotNil(t, got)
			assert.Equal(t, tt.wantID, got.ID)
		})
	}
}
