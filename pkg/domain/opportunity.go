package domain

import "time"

// OpportunityType classifies a derived signal
type OpportunityType string

// opportunity types
const (
	OpportunityCompetitorStumble OpportunityType = "competitor_stumble"
	OpportunityMarketTrend       OpportunityType = "market_trend"
	OpportunityPartnership       OpportunityType = "partnership"
	OpportunityNarrativeVacuum   OpportunityType = "narrative_vacuum"
)

// OpportunityStatus is the operator-driven lifecycle state
type OpportunityStatus string

// opportunity statuses
const (
	StatusIdentified OpportunityStatus = "identified"
	StatusInProgress OpportunityStatus = "in_progress"
	StatusActioned   OpportunityStatus = "actioned"
	StatusDismissed  OpportunityStatus = "dismissed"
)

// Opportunity is an operator-actionable signal synthesized from findings.
// Only the initial identified state is system-generated; all later
// transitions come from the operator.
type Opportunity struct {
	ID             int64
	OrganizationID int64
	Type           OpportunityType
	Title          string
	Description    string
	Confidence     float64 // [0, 1]
	Status         OpportunityStatus
	FindingIDs     []int64
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// transitions maps each status to the set of statuses it may move to.
// actioned and dismissed are terminal: once an opportunity is resolved it
// stays resolved, a fresh signal produces a new opportunity instead.
var transitions = map[OpportunityStatus][]OpportunityStatus{
	StatusIdentified: {StatusInProgress, StatusDismissed},
	StatusInProgress: {StatusActioned, StatusDismissed},
	StatusActioned:   {},
	StatusDismissed:  {},
}

// CanTransition reports whether a status change is allowed
func CanTransition(from, to OpportunityStatus) bool {
	for _, allowed := range transitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

// ValidStatus reports whether s is one of the known opportunity statuses
func ValidStatus(s OpportunityStatus) bool {
	_, ok := transitions[s]
	return ok
}
