package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/go-pkgz/repeater/v2"

	"github.com/intelscout/intelscout/pkg/domain"
)

// statusSQL represents a monitoring status row for SQL operations
type statusSQL struct {
	OrganizationID int64     `db:"organization_id"`
	Monitoring     bool      `db:"monitoring"`
	ActiveTargets  int       `db:"active_targets"`
	ActiveSources  int       `db:"active_sources"`
	Health         string    `db:"health"`
	LastScan       time.Time `db:"last_scan"`
}

// UpsertStatus writes the per-organization scan summary. Updates are
// idempotent last-writer-wins summaries, so no locking beyond the upsert is
// needed.
func (s *Store) UpsertStatus(ctx context.Context, status *domain.MonitoringStatus) error {
	row := &statusSQL{
		OrganizationID: status.OrganizationID,
		Monitoring:     status.Monitoring,
		ActiveTargets:  status.ActiveTargets,
		ActiveSources:  status.ActiveSources,
		Health:         string(status.Health),
		LastScan:       status.LastScan,
	}

	query := `
		INSERT INTO monitoring_status (organization_id, monitoring, active_targets, active_sources, health, last_scan)
		VALUES (:organization_id, :monitoring, :active_targets, :active_sources, :health, :last_scan)
		ON CONFLICT(organization_id) DO UPDATE SET
			monitoring = excluded.monitoring,
			active_targets = excluded.active_targets,
			active_sources = excluded.active_sources,
			health = excluded.health,
			last_scan = excluded.last_scan
	`

	retrier := repeater.NewBackoff(5, 50*time.Millisecond, repeater.WithMaxDelay(2*time.Second))
	return retrier.Do(ctx, func() error {
		if _, err := s.db.NamedExecContext(ctx, query, row); err != nil {
			if isLockError(err) {
				return err // repeater will retry this
			}
			return &criticalError{err: fmt.Errorf("upsert status: %w", err)}
		}
		return nil
	})
}

// GetStatus retrieves the monitoring status for an organization
func (s *Store) GetStatus(ctx context.Context, organizationID int64) (*domain.MonitoringStatus, error) {
	var row statusSQL
	err := s.db.GetContext(ctx, &row, "SELECT * FROM monitoring_status WHERE organization_id = ?", organizationID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get status: %w", err)
	}

	return &domain.MonitoringStatus{
		OrganizationID: row.OrganizationID,
		Monitoring:     row.Monitoring,
		ActiveTargets:  row.ActiveTargets,
		ActiveSources:  row.ActiveSources,
		Health:         domain.Health(row.Health),
		LastScan:       row.LastScan,
	}, nil
}
