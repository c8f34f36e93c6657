package domain

import "time"

// LeadStatus enumerates lifecycle states for leads.
type LeadStatus string

const (
	LeadStatusActive   LeadStatus = "ACTIVE"
	LeadStatusArchived LeadStatus = "ARCHIVED"
)

// LeadStage enumerates pipeline stages.
type LeadStage string

const (
	LeadStageNew       LeadStage = "NEW"
	LeadStageContacted LeadStage = "CONTACTED"
	LeadStageQualified LeadStage = "QUALIFIED"
	LeadStageConverted LeadStage = "CONVERTED"
	LeadStageLost      LeadStage = "LOST"
)

// Lead is the aggregate for a prospective applicant in the pipeline.
type Lead struct {
	ID           string
	Name         string
	Email        string
	Phone        string
	Country      string
	Source       string
	Stage        LeadStage
	Score        int
	Status       LeadStatus
	AssignedToID *string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// RoutingEligible reports whether the lead may be picked up by the
// routing engine.
func (l *Lead) RoutingEligible() bool {
	return l.Status == LeadStatusActive && l.AssignedToID == nil
}
