package domain

import "time"

// Health summarizes the quality of the most recent scan cycle
type Health string

// health states
const (
	HealthGood     Health = "good"
	HealthDegraded Health = "degraded"
	HealthDown     Health = "down"
)

// MonitoringStatus is the per-organization scan summary, upserted after
// every cycle with last-writer-wins semantics
type MonitoringStatus struct {
	OrganizationID int64     `json:"organization_id"`
	Monitoring     bool      `json:"monitoring"`
	ActiveTargets  int       `json:"active_targets"`
	ActiveSources  int       `json:"active_sources"`
	Health         Health    `json:"health"`
	LastScan       time.Time `json:"last_scan"`
}
