package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/intelscout/intelscout/pkg/domain"
)

// ErrInvalidTransition is returned when an opportunity status change is not
// allowed by the lifecycle state machine
var ErrInvalidTransition = errors.New("invalid status transition")

// opportunitySQL represents an opportunity row for SQL operations
type opportunitySQL struct {
	ID             int64      `db:"id"`
	OrganizationID int64      `db:"organization_id"`
	Type           string     `db:"type"`
	Title          string     `db:"title"`
	Description    string     `db:"description"`
	Confidence     float64    `db:"confidence"`
	Status         string     `db:"status"`
	FindingIDs     jsonInt64s `db:"finding_ids"`
	CreatedAt      time.Time  `db:"created_at"`
	UpdatedAt      time.Time  `db:"updated_at"`
}

// CreateOpportunity inserts a new opportunity in the identified state
func (s *Store) CreateOpportunity(ctx context.Context, opp *domain.Opportunity) error {
	if opp.Status == "" {
		opp.Status = domain.StatusIdentified
	}

	row := &opportunitySQL{
		OrganizationID: opp.OrganizationID,
		Type:           string(opp.Type),
		Title:          opp.Title,
		Description:    opp.Description,
		Confidence:     opp.Confidence,
		Status:         string(opp.Status),
		FindingIDs:     jsonInt64s(opp.FindingIDs),
	}

	query := `
		INSERT INTO opportunities (organization_id, type, title, description, confidence, status, finding_ids)
		VALUES (:organization_id, :type, :title, :description, :confidence, :status, :finding_ids)
	`
	result, err := s.db.NamedExecContext(ctx, query, row)
	if err != nil {
		return fmt.Errorf("create opportunity: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("get insert id: %w", err)
	}

	opp.ID = id
	return nil
}

// GetOpportunity retrieves an opportunity by ID
func (s *Store) GetOpportunity(ctx context.Context, id int64) (*domain.Opportunity, error) {
	var row opportunitySQL
	err := s.db.GetContext(ctx, &row, "SELECT * FROM opportunities WHERE id = ?", id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get opportunity %d: %w", id, err)
	}
	return toDomainOpportunity(&row), nil
}

// GetOpportunities retrieves opportunities for an organization, optionally
// filtered by status, newest first
func (s *Store) GetOpportunities(ctx context.Context, organizationID int64, status domain.OpportunityStatus, limit int) ([]domain.Opportunity, error) {
	if limit <= 0 {
		limit = 50
	}

	query := "SELECT * FROM opportunities WHERE organization_id = ?"
	args := []interface{}{organizationID}
	if status != "" {
		query += " AND status = ?"
		args = append(args, string(status))
	}
	query += " ORDER BY created_at DESC LIMIT ?"
	args = append(args, limit)

	var rows []opportunitySQL
	if err := s.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("get opportunities: %w", err)
	}

	opps := make([]domain.Opportunity, len(rows))
	for i := range rows {
		opps[i] = *toDomainOpportunity(&rows[i])
	}
	return opps, nil
}

// UpdateOpportunityStatus applies an operator-driven status change, guarded
// by the opportunity's existence and the lifecycle state machine
func (s *Store) UpdateOpportunityStatus(ctx context.Context, id int64, status domain.OpportunityStatus) error {
	if !domain.ValidStatus(status) {
		return fmt.Errorf("unknown status %q: %w", status, ErrInvalidTransition)
	}

	var current string
	err := s.db.GetContext(ctx, &current, "SELECT status FROM opportunities WHERE id = ?", id)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("get opportunity status: %w", err)
	}

	if !domain.CanTransition(domain.OpportunityStatus(current), status) {
		return fmt.Errorf("%s -> %s: %w", current, status, ErrInvalidTransition)
	}

	if _, err := s.db.ExecContext(ctx,
		"UPDATE opportunities SET status = ?, updated_at = datetime('now') WHERE id = ?",
		string(status), id); err != nil {
		return fmt.Errorf("update opportunity status: %w", err)
	}
	return nil
}

// toDomainOpportunity converts an opportunity row to the domain type
func toDomainOpportunity(row *opportunitySQL) *domain.Opportunity {
	return &domain.Opportunity{
		ID:             row.ID,
		OrganizationID: row.OrganizationID,
		Type:           domain.OpportunityType(row.Type),
		Title:          row.Title,
		Description:    row.Description,
		Confidence:     row.Confidence,
		Status:         domain.OpportunityStatus(row.Status),
		FindingIDs:     row.FindingIDs,
		CreatedAt:      row.CreatedAt,
		UpdatedAt:      row.UpdatedAt,
	}
}
