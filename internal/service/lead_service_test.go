package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/crm-service/internal/domain"
)

func newLeadService(store *fakeStore, trigger RoutingTrigger) *LeadService {
	return NewLeadService(LeadDependencies{
		LeadRepo:     &fakeLeadRepo{store: store},
		UserRepo:     &fakeUserRepo{store: store},
		ActivityRepo: &fakeActivityRepo{store: store},
		Trigger:      trigger,
	})
}

func TestCreateLead_UnassignedTriggersRouting(t *testing.T) {
	store := newFakeStore()
	trigger := &fakeTrigger{}
	svc := newLeadService(store, trigger)

	lead, err := svc.CreateLead(context.Background(), LeadCreateInput{
		Name:    "Ada Lovelace",
		Country: "UK",
	})

	require.NoError(t, err)
	assert.NotEmpty(t, lead.ID)
	assert.Equal(t, domain.LeadStageNew, lead.Stage)
	assert.Equal(t, domain.LeadStatusActive, lead.Status)
	assert.Equal(t, 1, trigger.calls())
}

func TestCreateLead_PreAssignedSkipsRouting(t *testing.T) {
	store := newFakeStore()
	counselor := store.addCounselor("")
	trigger := &fakeTrigger{}
	svc := newLeadService(store, trigger)

	lead, err := svc.CreateLead(context.Background(), LeadCreateInput{
		Name:         "Ada Lovelace",
		Country:      "UK",
		AssignedToID: &counselor.ID,
	})

	require.NoError(t, err)
	require.NotNil(t, lead.AssignedToID)
	assert.Equal(t, 0, trigger.calls())
}

func TestCreateLead_Validation(t *testing.T) {
	svc := newLeadService(newFakeStore(), nil)

	_, err := svc.CreateLead(context.Background(), LeadCreateInput{Country: "UK"})
	assertDomainErrorCode(t, err, "VALIDATION_FAILED")

	_, err = svc.CreateLead(context.Background(), LeadCreateInput{Name: "Ada"})
	assertDomainErrorCode(t, err, "VALIDATION_FAILED")
}

func TestCreateLead_RejectsUnknownAssignee(t *testing.T) {
	svc := newLeadService(newFakeStore(), nil)

	missing := "user-9999"
	_, err := svc.CreateLead(context.Background(), LeadCreateInput{
		Name:         "Ada",
		Country:      "UK",
		AssignedToID: &missing,
	})

	assertDomainErrorCode(t, err, "VALIDATION_FAILED")
}

func TestCreateLead_RejectsInactiveAssignee(t *testing.T) {
	store := newFakeStore()
	inactive := store.addUser("", domain.RoleCounselor, domain.UserStatusInactive)
	svc := newLeadService(store, nil)

	_, err := svc.CreateLead(context.Background(), LeadCreateInput{
		Name:         "Ada",
		Country:      "UK",
		AssignedToID: &inactive.ID,
	})

	assertDomainErrorCode(t, err, "CONFLICT")
}

func TestUpdateStage_RecordsActivity(t *testing.T) {
	store := newFakeStore()
	actor := store.addUser("", domain.RoleCounselor, domain.UserStatusActive)
	lead := store.addLead("UK")
	svc := newLeadService(store, nil)

	updated, err := svc.UpdateStage(context.Background(), actor, lead.ID, domain.LeadStageContacted)

	require.NoError(t, err)
	assert.Equal(t, domain.LeadStageContacted, updated.Stage)

	entries, err := svc.ListActivities(context.Background(), lead.ID)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, domain.ActivityStageChange, entries[0].Type)
	assert.Contains(t, entries[0].Description, "NEW")
	assert.Contains(t, entries[0].Description, "CONTACTED")
}

func TestUpdateStage_NoOpWhenUnchanged(t *testing.T) {
	store := newFakeStore()
	actor := store.addUser("", domain.RoleCounselor, domain.UserStatusActive)
	lead := store.addLead("UK")
	svc := newLeadService(store, nil)

	_, err := svc.UpdateStage(context.Background(), actor, lead.ID, domain.LeadStageNew)

	require.NoError(t, err)
	entries, err := svc.ListActivities(context.Background(), lead.ID)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestUpdateStage_RejectsUnknownStage(t *testing.T) {
	store := newFakeStore()
	actor := store.addUser("", domain.RoleCounselor, domain.UserStatusActive)
	lead := store.addLead("UK")
	svc := newLeadService(store, nil)

	_, err := svc.UpdateStage(context.Background(), actor, lead.ID, domain.LeadStage("FROZEN"))

	assertDomainErrorCode(t, err, "VALIDATION_FAILED")
}

func TestUpdateStatus_ArchivesLead(t *testing.T) {
	store := newFakeStore()
	actor := store.addUser("", domain.RoleAdmin, domain.UserStatusActive)
	lead := store.addLead("UK")
	svc := newLeadService(store, nil)

	updated, err := svc.UpdateStatus(context.Background(), actor, lead.ID, domain.LeadStatusArchived)

	require.NoError(t, err)
	assert.Equal(t, domain.LeadStatusArchived, updated.Status)

	entries, err := svc.ListActivities(context.Background(), lead.ID)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, domain.ActivityStatusChange, entries[0].Type)
}

func TestAssignLead_RequiresAdmin(t *testing.T) {
	store := newFakeStore()
	counselor := store.addCounselor("")
	lead := store.addLead("UK")
	svc := newLeadService(store, nil)

	_, err := svc.AssignLead(context.Background(), counselor, lead.ID, counselor.ID)

	assertDomainErrorCode(t, err, "FORBIDDEN")
}

func TestAssignLead_CreditsAssigneeInTrail(t *testing.T) {
	store := newFakeStore()
	admin := store.addUser("", domain.RoleAdmin, domain.UserStatusActive)
	counselor := store.addCounselor("")
	lead := store.addLead("UK")
	svc := newLeadService(store, nil)

	updated, err := svc.AssignLead(context.Background(), admin, lead.ID, counselor.ID)

	require.NoError(t, err)
	require.NotNil(t, updated.AssignedToID)
	assert.Equal(t, counselor.ID, *updated.AssignedToID)

	entries := store.assignmentEntries(lead.ID)
	require.Len(t, entries, 1)
	// the entry belongs to the assignee, the acting admin only appears
	// in the description
	require.NotNil(t, entries[0].UserID)
	assert.Equal(t, counselor.ID, *entries[0].UserID)
	assert.Contains(t, entries[0].Description, admin.Name)
}

func TestAssignLead_CanReassign(t *testing.T) {
	store := newFakeStore()
	admin := store.addUser("", domain.RoleAdmin, domain.UserStatusActive)
	first := store.addCounselor("")
	second := store.addCounselor("")
	lead := store.addLead("UK")
	svc := newLeadService(store, nil)

	_, err := svc.AssignLead(context.Background(), admin, lead.ID, first.ID)
	require.NoError(t, err)
	updated, err := svc.AssignLead(context.Background(), admin, lead.ID, second.ID)
	require.NoError(t, err)

	assert.Equal(t, second.ID, *updated.AssignedToID)
	assert.Len(t, store.assignmentEntries(lead.ID), 2)
}

func TestAddNote(t *testing.T) {
	store := newFakeStore()
	actor := store.addCounselor("")
	lead := store.addLead("UK")
	svc := newLeadService(store, nil)

	entry, err := svc.AddNote(context.Background(), actor, lead.ID, "  called, no answer  ")

	require.NoError(t, err)
	assert.Equal(t, domain.ActivityNote, entry.Type)
	assert.Equal(t, "called, no answer", entry.Description)

	_, err = svc.AddNote(context.Background(), actor, lead.ID, "   ")
	assertDomainErrorCode(t, err, "VALIDATION_FAILED")
}

func TestGetLead_NotFound(t *testing.T) {
	svc := newLeadService(newFakeStore(), nil)

	_, err := svc.GetLead(context.Background(), "lead-9999")

	assertDomainErrorCode(t, err, "NOT_FOUND")
}
