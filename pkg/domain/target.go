package domain

import "time"

// TargetKind identifies what a monitoring target represents
type TargetKind string

// target kinds
const (
	TargetOrganization TargetKind = "organization"
	TargetCompetitor   TargetKind = "competitor"
	TargetTopic        TargetKind = "topic"
)

// Priority represents operator-assigned importance
type Priority string

// priorities
const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

// Target is a named entity monitored via a keyword set
type Target struct {
	ID             int64
	OrganizationID int64
	Name           string
	Kind           TargetKind
	Priority       Priority
	Keywords       []string
	Active         bool
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Matchable reports whether the target is eligible for keyword matching.
// Inactive targets and targets with no keywords never match.
func (t *Target) Matchable() bool {
	return t.Active && len(t.Keywords) > 0
}
