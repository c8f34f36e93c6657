package domain

import "time"

// Team groups counselors that receive leads for a territory.
type Team struct {
	ID          string
	Name        string
	Description string
	IsActive    bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
