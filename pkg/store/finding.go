package store

import (
	"context"
	"fmt"
	"time"

	"github.com/go-pkgz/repeater/v2"

	"github.com/intelscout/intelscout/pkg/domain"
)

// findingSQL represents a finding row for SQL operations
type findingSQL struct {
	ID              int64       `db:"id"`
	TargetID        int64       `db:"target_id"`
	OrganizationID  int64       `db:"organization_id"`
	Title           string      `db:"title"`
	Content         string      `db:"content"`
	SourceName      string      `db:"source_name"`
	URL             string      `db:"url"`
	Published       time.Time   `db:"published"`
	Sentiment       string      `db:"sentiment"`
	SentimentScore  float64     `db:"sentiment_score"`
	RelevanceScore  float64     `db:"relevance_score"`
	Urgency         string      `db:"urgency"`
	MatchedKeywords jsonStrings `db:"matched_keywords"`
	Indicators      jsonStrings `db:"indicators"`
	Rationale       string      `db:"rationale"`
	CreatedAt       time.Time   `db:"created_at"`

	// joined data, populated by queries only
	TargetKind string `db:"target_kind"`
}

// CreateFinding inserts a finding unless one already exists for the same
// (target, url). Findings are append-only evidence: a duplicate insert is a
// no-op, first-seen data wins. Returns true when the finding was stored.
func (s *Store) CreateFinding(ctx context.Context, finding *domain.Finding) (bool, error) {
	row := &findingSQL{
		TargetID:        finding.TargetID,
		OrganizationID:  finding.OrganizationID,
		Title:           finding.Title,
		Content:         finding.Content,
		SourceName:      finding.SourceName,
		URL:             finding.URL,
		Published:       finding.Published,
		Sentiment:       string(finding.Sentiment),
		SentimentScore:  finding.SentimentScore,
		RelevanceScore:  finding.RelevanceScore,
		Urgency:         string(finding.Urgency),
		MatchedKeywords: jsonStrings(finding.MatchedKeywords),
		Indicators:      jsonStrings(finding.Indicators),
		Rationale:       finding.Rationale,
	}

	query := `
		INSERT OR IGNORE INTO findings (
			target_id, organization_id, title, content, source_name, url, published,
			sentiment, sentiment_score, relevance_score, urgency,
			matched_keywords, indicators, rationale
		) VALUES (
			:target_id, :organization_id, :title, :content, :source_name, :url, :published,
			:sentiment, :sentiment_score, :relevance_score, :urgency,
			:matched_keywords, :indicators, :rationale
		)
	`

	stored := false
	retrier := repeater.NewBackoff(5, 50*time.Millisecond, repeater.WithMaxDelay(2*time.Second))
	err := retrier.Do(ctx, func() error {
		result, execErr := s.db.NamedExecContext(ctx, query, row)
		if execErr != nil {
			if isLockError(execErr) {
				return execErr // repeater will retry this
			}
			return &criticalError{err: fmt.Errorf("create finding: %w", execErr)}
		}

		affected, execErr := result.RowsAffected()
		if execErr != nil {
			return &criticalError{err: fmt.Errorf("get affected rows: %w", execErr)}
		}
		if affected == 0 {
			// duplicate (target_id, url), ignored
			return nil
		}

		id, execErr := result.LastInsertId()
		if execErr != nil {
			return &criticalError{err: fmt.Errorf("get insert id: %w", execErr)}
		}
		finding.ID = id
		stored = true
		return nil
	})
	if err != nil {
		return false, err
	}
	return stored, nil
}

// RecentFindings retrieves findings for an organization within the given
// window, joined with target kind for pattern detection. Results are
// ordered by published time, newest first.
func (s *Store) RecentFindings(ctx context.Context, organizationID int64, window time.Duration) ([]domain.Finding, error) {
	cutoff := time.Now().Add(-window).UTC().Format("2006-01-02 15:04:05")

	// datetime() normalizes both space and T-separated timestamp layouts
	query := `
		SELECT f.*, t.kind AS target_kind
		FROM findings f
		JOIN targets t ON t.id = f.target_id
		WHERE f.organization_id = ? AND datetime(f.created_at) >= datetime(?)
		ORDER BY f.published DESC
	`
	var rows []findingSQL
	if err := s.db.SelectContext(ctx, &rows, query, organizationID, cutoff); err != nil {
		return nil, fmt.Errorf("recent findings: %w", err)
	}

	findings := make([]domain.Finding, len(rows))
	for i := range rows {
		findings[i] = *toDomainFinding(&rows[i])
	}
	return findings, nil
}

// GetFindings retrieves the latest findings for an organization
func (s *Store) GetFindings(ctx context.Context, organizationID int64, limit int) ([]domain.Finding, error) {
	if limit <= 0 {
		limit = 50
	}

	query := `
		SELECT f.*, t.kind AS target_kind
		FROM findings f
		JOIN targets t ON t.id = f.target_id
		WHERE f.organization_id = ?
		ORDER BY f.published DESC
		LIMIT ?
	`
	var rows []findingSQL
	if err := s.db.SelectContext(ctx, &rows, query, organizationID, limit); err != nil {
		return nil, fmt.Errorf("get findings: %w", err)
	}

	findings := make([]domain.Finding, len(rows))
	for i := range rows {
		findings[i] = *toDomainFinding(&rows[i])
	}
	return findings, nil
}

// toDomainFinding converts a finding row to the domain type
func toDomainFinding(row *findingSQL) *domain.Finding {
	return &domain.Finding{
		ID:              row.ID,
		TargetID:        row.TargetID,
		OrganizationID:  row.OrganizationID,
		Title:           row.Title,
		Content:         row.Content,
		SourceName:      row.SourceName,
		URL:             row.URL,
		Published:       row.Published,
		Sentiment:       domain.Sentiment(row.Sentiment),
		SentimentScore:  row.SentimentScore,
		RelevanceScore:  row.RelevanceScore,
		Urgency:         domain.Urgency(row.Urgency),
		MatchedKeywords: row.MatchedKeywords,
		Indicators:      row.Indicators,
		Rationale:       row.Rationale,
		TargetKind:      domain.TargetKind(row.TargetKind),
		CreatedAt:       row.CreatedAt,
	}
}
