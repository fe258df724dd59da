package store

import (
	"context"
	"fmt"
	"time"

	"github.com/intelscout/intelscout/pkg/domain"
)

// targetSQL represents a target row for SQL operations
type targetSQL struct {
	ID             int64       `db:"id"`
	OrganizationID int64       `db:"organization_id"`
	Name           string      `db:"name"`
	Kind           string      `db:"kind"`
	Priority       string      `db:"priority"`
	Keywords       jsonStrings `db:"keywords"`
	Active         bool        `db:"active"`
	CreatedAt      time.Time   `db:"created_at"`
	UpdatedAt      time.Time   `db:"updated_at"`
}

// CreateTarget inserts a new monitoring target
func (s *Store) CreateTarget(ctx context.Context, target *domain.Target) error {
	if len(target.Keywords) == 0 {
		return fmt.Errorf("target %q has no keywords", target.Name)
	}

	row := &targetSQL{
		OrganizationID: target.OrganizationID,
		Name:           target.Name,
		Kind:           string(target.Kind),
		Priority:       string(target.Priority),
		Keywords:       jsonStrings(target.Keywords),
		Active:         target.Active,
	}

	query := `
		INSERT INTO targets (organization_id, name, kind, priority, keywords, active)
		VALUES (:organization_id, :name, :kind, :priority, :keywords, :active)
	`
	result, err := s.db.NamedExecContext(ctx, query, row)
	if err != nil {
		return fmt.Errorf("create target: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("get insert id: %w", err)
	}

	target.ID = id
	return nil
}

// GetTarget retrieves a target by ID
func (s *Store) GetTarget(ctx context.Context, id int64) (*domain.Target, error) {
	var row targetSQL
	err := s.db.GetContext(ctx, &row, "SELECT * FROM targets WHERE id = ?", id)
	if err != nil {
		return nil, fmt.Errorf("get target %d: %w", id, err)
	}
	return toDomainTarget(&row), nil
}

// GetTargets retrieves targets for an organization
func (s *Store) GetTargets(ctx context.Context, organizationID int64, activeOnly bool) ([]domain.Target, error) {
	query := "SELECT * FROM targets WHERE organization_id = ?"
	if activeOnly {
		query += " AND active = 1"
	}
	query += " ORDER BY id"

	var rows []targetSQL
	if err := s.db.SelectContext(ctx, &rows, query, organizationID); err != nil {
		return nil, fmt.Errorf("get targets: %w", err)
	}

	targets := make([]domain.Target, len(rows))
	for i := range rows {
		targets[i] = *toDomainTarget(&rows[i])
	}
	return targets, nil
}

// SetTargetActive toggles a target's active flag
func (s *Store) SetTargetActive(ctx context.Context, id int64, active bool) error {
	result, err := s.db.ExecContext(ctx,
		"UPDATE targets SET active = ?, updated_at = datetime('now') WHERE id = ?", active, id)
	if err != nil {
		return fmt.Errorf("set target active: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("get affected rows: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// toDomainTarget converts a target row to the domain type
func toDomainTarget(row *targetSQL) *domain.Target {
	return &domain.Target{
		ID:             row.ID,
		OrganizationID: row.OrganizationID,
		Name:           row.Name,
		Kind:           domain.TargetKind(row.Kind),
		Priority:       domain.Priority(row.Priority),
		Keywords:       row.Keywords,
		Active:         row.Active,
		CreatedAt:      row.CreatedAt,
		UpdatedAt:      row.UpdatedAt,
	}
}
