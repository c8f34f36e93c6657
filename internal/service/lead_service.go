package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/crm-service/internal/domain"
	"github.com/spec-kit/crm-service/internal/events"
	"github.com/spec-kit/crm-service/internal/repository"
	apperrors "github.com/spec-kit/crm-service/pkg/util"
)

// RoutingTrigger dispatches a routing pass without awaiting its
// outcome. Implemented by the routing worker.
type RoutingTrigger interface {
	TriggerRouting()
}

// LeadService handles lead lifecycle operations.
type LeadService struct {
	leads      repository.LeadRepository
	users      repository.UserRepository
	activity   repository.ActivityLogRepository
	dispatcher events.Dispatcher
	trigger    RoutingTrigger
	logger     *zap.Logger
}

// LeadDependencies bundles repositories.
type LeadDependencies struct {
	LeadRepo     repository.LeadRepository
	UserRepo     repository.UserRepository
	ActivityRepo repository.ActivityLogRepository
	Dispatcher   events.Dispatcher
	Trigger      RoutingTrigger
	Logger       *zap.Logger
}

// NewLeadService creates the service.
func NewLeadService(deps LeadDependencies) *LeadService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LeadService{
		leads:      deps.LeadRepo,
		users:      deps.UserRepo,
		activity:   deps.ActivityRepo,
		dispatcher: deps.Dispatcher,
		trigger:    deps.Trigger,
		logger:     logger,
	}
}

// LeadCreateInput carries fields for lead creation.
type LeadCreateInput struct {
	Name         string
	Email        string
	Phone        string
	Country      string
	Source       string
	Score        int
	AssignedToID *string
}

// CreateLead persists a new lead and, when it lands unassigned, kicks
// off a routing pass in the background. The caller never waits on or
// observes the routing outcome.
func (s *LeadService) CreateLead(ctx context.Context, input LeadCreateInput) (*domain.Lead, error) {
	if strings.TrimSpace(input.Name) == "" {
		return nil, apperrors.NewValidationError("name required", nil)
	}
	if strings.TrimSpace(input.Country) == "" {
		return nil, apperrors.NewValidationError("country required", nil)
	}
	if input.AssignedToID != nil {
		if err := s.verifyAssignee(ctx, *input.AssignedToID); err != nil {
			return nil, err
		}
	}

	lead := &domain.Lead{
		Name:         strings.TrimSpace(input.Name),
		Email:        strings.TrimSpace(input.Email),
		Phone:        strings.TrimSpace(input.Phone),
		Country:      strings.TrimSpace(input.Country),
		Source:       input.Source,
		Stage:        domain.LeadStageNew,
		Score:        input.Score,
		Status:       domain.LeadStatusActive,
		AssignedToID: input.AssignedToID,
	}
	if err := s.leads.Create(ctx, lead); err != nil {
		return nil, apperrors.MapError(err)
	}

	s.publishLeadCreated(ctx, lead)

	if lead.AssignedToID == nil && s.trigger != nil {
		s.trigger.TriggerRouting()
	}
	return lead, nil
}

// GetLead loads a single lead.
func (s *LeadService) GetLead(ctx context.Context, id string) (*domain.Lead, error) {
	lead, err := s.leads.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("lead", map[string]any{"lead_id": id})
		}
		return nil, apperrors.MapError(err)
	}
	return lead, nil
}

// ListLeads returns leads matching the filter.
func (s *LeadService) ListLeads(ctx context.Context, filter repository.LeadFilter) ([]domain.Lead, error) {
	leadList, err := s.leads.ListWithFilter(ctx, filter)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return leadList, nil
}

// UpdateStage moves the lead to a new pipeline stage and records the
// change in the activity trail.
func (s *LeadService) UpdateStage(ctx context.Context, actor *domain.User, leadID string, stage domain.LeadStage) (*domain.Lead, error) {
	if actor == nil {
		return nil, apperrors.NewUnauthorized("user required")
	}
	switch stage {
	case domain.LeadStageNew, domain.LeadStageContacted, domain.LeadStageQualified, domain.LeadStageConverted, domain.LeadStageLost:
	default:
		return nil, apperrors.NewValidationError("unknown stage", map[string]any{"stage": stage})
	}

	lead, err := s.GetLead(ctx, leadID)
	if err != nil {
		return nil, err
	}
	oldStage := lead.Stage
	if oldStage == stage {
		return lead, nil
	}
	lead.Stage = stage
	if err := s.leads.Update(ctx, lead); err != nil {
		return nil, apperrors.MapError(err)
	}
	if err := s.recordActivity(ctx, lead.ID, &actor.ID, domain.ActivityStageChange,
		fmt.Sprintf("Stage changed from %s to %s", oldStage, stage)); err != nil {
		return nil, apperrors.MapError(err)
	}
	s.publishStageChanged(ctx, actor, lead, oldStage)
	return lead, nil
}

// UpdateStatus archives or reactivates the lead.
func (s *LeadService) UpdateStatus(ctx context.Context, actor *domain.User, leadID string, status domain.LeadStatus) (*domain.Lead, error) {
	if actor == nil {
		return nil, apperrors.NewUnauthorized("user required")
	}
	if status != domain.LeadStatusActive && status != domain.LeadStatusArchived {
		return nil, apperrors.NewValidationError("unknown status", map[string]any{"status": status})
	}

	lead, err := s.GetLead(ctx, leadID)
	if err != nil {
		return nil, err
	}
	oldStatus := lead.Status
	if oldStatus == status {
		return lead, nil
	}
	lead.Status = status
	if err := s.leads.Update(ctx, lead); err != nil {
		return nil, apperrors.MapError(err)
	}
	if err := s.recordActivity(ctx, lead.ID, &actor.ID, domain.ActivityStatusChange,
		fmt.Sprintf("Status changed from %s to %s", oldStatus, status)); err != nil {
		return nil, apperrors.MapError(err)
	}
	return lead, nil
}

// AssignLead manually assigns a lead to a counselor (ADMIN and above).
// Mirrors the automatic path: the ASSIGNMENT entry is credited to the
// assignee, with the acting admin named in the description.
func (s *LeadService) AssignLead(ctx context.Context, actor *domain.User, leadID, assigneeID string) (*domain.Lead, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	if err := s.verifyAssignee(ctx, assigneeID); err != nil {
		return nil, err
	}
	lead, err := s.GetLead(ctx, leadID)
	if err != nil {
		return nil, err
	}

	description := fmt.Sprintf("Lead assigned by %s", actor.Name)
	if err := s.leads.Assign(ctx, lead.ID, assigneeID, description); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("lead", map[string]any{"lead_id": leadID})
		}
		return nil, apperrors.MapError(err)
	}
	lead.AssignedToID = &assigneeID

	if s.dispatcher != nil {
		_ = s.dispatcher.Publish(ctx, events.Event{
			ID:        uuid.NewString(),
			Type:      events.EventLeadAssigned,
			LeadID:    lead.ID,
			Actor:     events.Actor{UserID: &actor.ID, Role: &actor.Role},
			Timestamp: time.Now(),
			Payload: events.LeadAssignedPayload{
				AssigneeID: assigneeID,
				Automatic:  false,
			},
		})
	}
	return lead, nil
}

// AddNote appends a NOTE activity entry to the lead trail.
func (s *LeadService) AddNote(ctx context.Context, actor *domain.User, leadID, body string) (*domain.ActivityLog, error) {
	if actor == nil {
		return nil, apperrors.NewUnauthorized("user required")
	}
	if strings.TrimSpace(body) == "" {
		return nil, apperrors.NewValidationError("body required", nil)
	}
	if _, err := s.GetLead(ctx, leadID); err != nil {
		return nil, err
	}
	entry := &domain.ActivityLog{
		LeadID:      leadID,
		UserID:      &actor.ID,
		Type:        domain.ActivityNote,
		Description: strings.TrimSpace(body),
	}
	if err := s.activity.Create(ctx, entry); err != nil {
		return nil, apperrors.MapError(err)
	}
	return entry, nil
}

// ListActivities returns the lead's audit trail, oldest first.
func (s *LeadService) ListActivities(ctx context.Context, leadID string) ([]domain.ActivityLog, error) {
	if _, err := s.GetLead(ctx, leadID); err != nil {
		return nil, err
	}
	entries, err := s.activity.ListByLead(ctx, leadID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return entries, nil
}

func (s *LeadService) verifyAssignee(ctx context.Context, userID string) error {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NewValidationError("assignee does not exist", map[string]any{"user_id": userID})
		}
		return apperrors.MapError(err)
	}
	if user.Status != domain.UserStatusActive {
		return apperrors.NewConflict("assignee inactive", map[string]any{"user_id": userID})
	}
	return nil
}

func (s *LeadService) recordActivity(ctx context.Context, leadID string, userID *string, activityType domain.ActivityType, description string) error {
	return s.activity.Create(ctx, &domain.ActivityLog{
		LeadID:      leadID,
		UserID:      userID,
		Type:        activityType,
		Description: description,
	})
}

func (s *LeadService) publishLeadCreated(ctx context.Context, lead *domain.Lead) {
	if s.dispatcher == nil {
		return
	}
	_ = s.dispatcher.Publish(ctx, events.Event{
		ID:        uuid.NewString(),
		Type:      events.EventLeadCreated,
		LeadID:    lead.ID,
		Timestamp: time.Now(),
		Payload: events.LeadCreatedPayload{
			Country: lead.Country,
			Source:  lead.Source,
			Stage:   lead.Stage,
		},
	})
}

func (s *LeadService) publishStageChanged(ctx context.Context, actor *domain.User, lead *domain.Lead, oldStage domain.LeadStage) {
	if s.dispatcher == nil {
		return
	}
	_ = s.dispatcher.Publish(ctx, events.Event{
		ID:        uuid.NewString(),
		Type:      events.EventLeadStageChanged,
		LeadID:    lead.ID,
		Actor:     events.Actor{UserID: &actor.ID, Role: &actor.Role},
		Timestamp: time.Now(),
		Payload: events.LeadStageChangedPayload{
			OldStage: oldStage,
			NewStage: lead.Stage,
		},
	})
}

func requireAdmin(user *domain.User) error {
	if user == nil {
		return apperrors.NewUnauthorized("user required")
	}
	if user.Role != domain.RoleAdmin && user.Role != domain.RoleSuperAdmin {
		return apperrors.NewForbidden("insufficient role for assignment")
	}
	return nil
}
