package domain

import (
	"strings"
	"time"
)

// RoutingStrategy selects how a counselor is picked from a team roster.
type RoutingStrategy string

const (
	StrategyRoundRobin RoutingStrategy = "ROUND_ROBIN"
	StrategyLoadBased  RoutingStrategy = "LOAD_BASED"
)

// ValidStrategy reports whether s is one of the known strategies.
func ValidStrategy(s RoutingStrategy) bool {
	switch s {
	case StrategyRoundRobin, StrategyLoadBased:
		return true
	}
	return false
}

// RoutingRule maps a territory to a team and distribution strategy.
// At most one rule per country may be active at a time; the invariant
// is enforced at write time, not by a database constraint.
type RoutingRule struct {
	ID        string
	Country   string
	TeamID    string
	Strategy  RoutingStrategy
	IsActive  bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// MatchesCountry compares the rule country against a lead country,
// case-insensitively.
func (r *RoutingRule) MatchesCountry(country string) bool {
	return strings.EqualFold(r.Country, country)
}
