package domain

import "time"

// ActivityType captures what kind of action an activity entry records.
type ActivityType string

const (
	ActivityAssignment   ActivityType = "ASSIGNMENT"
	ActivityStatusChange ActivityType = "STATUS_CHANGE"
	ActivityStageChange  ActivityType = "STAGE_CHANGE"
	ActivityNote         ActivityType = "NOTE"
)

// ActivityLog is an immutable audit trail entry for a lead. For
// automatic ASSIGNMENT entries UserID holds the assignee, not a system
// actor; the description carries the triggering context.
type ActivityLog struct {
	ID          string
	LeadID      string
	UserID      *string
	Type        ActivityType
	Description string
	CreatedAt   time.Time
}
