// Package scanner orchestrates full scan cycles: source discovery, bounded
// concurrent fetching, keyword matching, rate-limited scoring, persistence
// and pattern detection.
package scanner

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/go-pkgz/lgr"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/intelscout/intelscout/pkg/config"
	"github.com/intelscout/intelscout/pkg/domain"
	"github.com/intelscout/intelscout/pkg/matcher"
	"github.com/intelscout/intelscout/pkg/scorer"
)

// Store interface for scanner persistence operations
type Store interface {
	GetTargets(ctx context.Context, organizationID int64, activeOnly bool) ([]domain.Target, error)
	CreateFinding(ctx context.Context, finding *domain.Finding) (bool, error)
	RecentFindings(ctx context.Context, organizationID int64, window time.Duration) ([]domain.Finding, error)
	CreateOpportunity(ctx context.Context, opp *domain.Opportunity) error
	GetOpportunities(ctx context.Context, organizationID int64, status domain.OpportunityStatus, limit int) ([]domain.Opportunity, error)
	UpsertStatus(ctx context.Context, status *domain.MonitoringStatus) error
}

// Fetcher interface for source fetching
type Fetcher interface {
	Fetch(ctx context.Context, source domain.Source) ([]domain.RawItem, error)
}

// Scorer interface for candidate assessment
type Scorer interface {
	Score(ctx context.Context, candidate domain.Candidate, scenarios domain.Scenarios) scorer.Assessment
}

// Discovery interface for source resolution
type Discovery interface {
	Resolve(org, industry string, competitors, topics []string) []domain.Source
}

// Detector interface for opportunity detection
type Detector interface {
	Detect(organizationID int64, findings []domain.Finding, targets []domain.Target) []domain.Opportunity
}

// Cache interface for scan result caching, injectable for tests
type Cache interface {
	Get(organizationID int64) (domain.ScanResult, bool)
	Set(organizationID int64, result domain.ScanResult)
}

// Scanner coordinates scan cycles for the configured organizations
type Scanner struct {
	store     Store
	fetcher   Fetcher
	scorer    Scorer
	discovery Discovery
	detector  Detector
	cache     Cache

	orgs []config.Organization
	cfg  config.ScanConfig

	wg     sync.WaitGroup
	cancel context.CancelFunc
}

// New creates a scanner
func New(store Store, fetcher Fetcher, sc Scorer, discovery Discovery, detector Detector, cache Cache, orgs []config.Organization, cfg config.ScanConfig) *Scanner {
	return &Scanner{
		store:     store,
		fetcher:   fetcher,
		scorer:    sc,
		discovery: discovery,
		detector:  detector,
		cache:     cache,
		orgs:      orgs,
		cfg:       cfg,
	}
}

// Start begins the periodic scan loop. With a zero interval only on-demand
// scans run.
func (s *Scanner) Start(ctx context.Context) {
	if s.cfg.Interval == 0 {
		lgr.Printf("[INFO] periodic scanning disabled, on-demand only")
		return
	}

	ctx, s.cancel = context.WithCancel(ctx)
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		ticker := time.NewTicker(s.cfg.Interval)
		defer ticker.Stop()

		// run immediately on start
		s.scanAll(ctx)

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.scanAll(ctx)
			}
		}
	}()

	lgr.Printf("[INFO] scanner started with interval %v for %d organizations", s.cfg.Interval, len(s.orgs))
}

// Stop gracefully stops the scan loop
func (s *Scanner) Stop() {
	if s.cancel != nil {
		s.cancel()
	}
	s.wg.Wait()
	lgr.Printf("[INFO] scanner stopped")
}

// scanAll runs one scan cycle per configured organization
func (s *Scanner) scanAll(ctx context.Context) {
	for _, org := range s.orgs {
		if ctx.Err() != nil {
			return
		}
		if _, err := s.Scan(ctx, org); err != nil {
			lgr.Printf("[ERROR] scan failed for organization %d (%s): %v", org.ID, org.Name, err)
		}
	}
}

// ScanByID runs a scan for a configured organization by id
func (s *Scanner) ScanByID(ctx context.Context, organizationID int64) (domain.ScanResult, error) {
	for _, org := range s.orgs {
		if org.ID == organizationID {
			return s.Scan(ctx, org)
		}
	}
	return domain.ScanResult{}, fmt.Errorf("organization %d is not configured", organizationID)
}

// CachedResult returns the most recent cached scan result for an organization
func (s *Scanner) CachedResult(organizationID int64) (domain.ScanResult, bool) {
	return s.cache.Get(organizationID)
}

// Scan runs a full cycle: discovery, concurrent fetch+match, capped
// rate-limited scoring, persistence, detection and status upsert. Source
// level failures never abort the scan; only store failures do.
func (s *Scanner) Scan(ctx context.Context, org config.Organization) (domain.ScanResult, error) {
	started := time.Now()
	lgr.Printf("[INFO] starting scan for organization %d (%s)", org.ID, org.Name)

	targets, err := s.store.GetTargets(ctx, org.ID, true)
	if err != nil {
		return domain.ScanResult{}, fmt.Errorf("get targets: %w", err)
	}

	sources := s.discovery.Resolve(org.Name, org.Industry, org.Competitors, org.Topics)

	candidates, itemCount, fetchErrors := s.fetchAndMatch(ctx, sources, targets)

	// favor candidates with more keyword matches; capped scoring keeps the
	// enrichment service load bounded per scan
	sort.SliceStable(candidates, func(i, j int) bool {
		return len(candidates[i].MatchedKeywords) > len(candidates[j].MatchedKeywords)
	})
	if len(candidates) > s.cfg.MaxCandidates {
		candidates = candidates[:s.cfg.MaxCandidates]
	}

	findingsCount, err := s.scoreAndPersist(ctx, org, candidates)
	if err != nil {
		return domain.ScanResult{}, err
	}

	opportunitiesCount, err := s.detectOpportunities(ctx, org.ID, targets)
	if err != nil {
		return domain.ScanResult{}, err
	}

	result := domain.ScanResult{
		OrganizationID: org.ID,
		Sources:        len(sources),
		FetchErrors:    fetchErrors,
		Items:          itemCount,
		Findings:       findingsCount,
		Opportunities:  opportunitiesCount,
		StartedAt:      started,
		CompletedAt:    time.Now(),
	}

	if err := s.updateStatus(ctx, org.ID, targets, result); err != nil {
		return domain.ScanResult{}, err
	}

	s.cache.Set(org.ID, result)
	lgr.Printf("[INFO] scan completed for organization %d: %d sources (%d errors), %d items, %d findings, %d opportunities",
		org.ID, result.Sources, result.FetchErrors, result.Items, result.Findings, result.Opportunities)
	return result, nil
}

// fetchAndMatch fetches all sources concurrently and matches items against
// targets. Candidates accumulate in fetch-completion order; a failed source
// only increments the error count.
func (s *Scanner) fetchAndMatch(ctx context.Context, sources []domain.Source, targets []domain.Target) (candidates []domain.Candidate, itemCount, fetchErrors int) {
	var mu sync.Mutex

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(s.cfg.MaxWorkers)

	for _, src := range sources {
		g.Go(func() error {
			items, err := s.fetcher.Fetch(ctx, src)
			if err != nil {
				lgr.Printf("[WARN] source %s failed: %v", src.Name, err)
				mu.Lock()
				fetchErrors++
				mu.Unlock()
				return nil
			}

			matched := matcher.Match(items, targets)

			mu.Lock()
			itemCount += len(items)
			candidates = append(candidates, matched...)
			mu.Unlock()
			return nil
		})
	}

	_ = g.Wait() // workers never return errors, failures are counted
	return candidates, itemCount, fetchErrors
}

// scoreAndPersist scores candidates in small rate-limited batches and
// persists the resulting findings. Duplicate (target, url) findings are
// silently skipped.
func (s *Scanner) scoreAndPersist(ctx context.Context, org config.Organization, candidates []domain.Candidate) (int, error) {
	limiter := rate.NewLimiter(rate.Every(s.cfg.ScoreRate), 1)

	stored := 0
	for i := 0; i < len(candidates); i += s.cfg.ScoreBatchSize {
		// pace batches to avoid provider rate limits
		if i > 0 {
			if err := limiter.Wait(ctx); err != nil {
				return stored, nil // context canceled, keep what we have
			}
		}

		end := i + s.cfg.ScoreBatchSize
		if end > len(candidates) {
			end = len(candidates)
		}

		for _, candidate := range candidates[i:end] {
			assessment := s.scorer.Score(ctx, candidate, org.Scenarios)

			finding := domain.Finding{
				TargetID:        candidate.Target.ID,
				OrganizationID:  org.ID,
				Title:           candidate.Item.Title,
				Content:         candidate.Item.Snippet,
				SourceName:      candidate.Item.SourceName,
				URL:             candidate.Item.Link,
				Published:       candidate.Item.Published,
				Sentiment:       assessment.Sentiment,
				SentimentScore:  assessment.SentimentScore,
				RelevanceScore:  assessment.Relevance,
				Urgency:         assessment.Urgency,
				MatchedKeywords: candidate.MatchedKeywords,
				Indicators:      assessment.Indicators.Flatten(),
				Rationale:       assessment.Rationale,
			}

			created, err := s.store.CreateFinding(ctx, &finding)
			if err != nil {
				return stored, fmt.Errorf("persist finding: %w", err)
			}
			if created {
				stored++
			}
		}
	}
	return stored, nil
}

// detectOpportunities runs the detector over the recent window and persists
// new opportunities, skipping ones already identified with the same type
// and title
func (s *Scanner) detectOpportunities(ctx context.Context, organizationID int64, targets []domain.Target) (int, error) {
	window := time.Duration(s.cfg.WindowHours) * time.Hour
	recent, err := s.store.RecentFindings(ctx, organizationID, window)
	if err != nil {
		return 0, fmt.Errorf("recent findings: %w", err)
	}

	detected := s.detector.Detect(organizationID, recent, targets)
	if len(detected) == 0 {
		return 0, nil
	}

	existing, err := s.store.GetOpportunities(ctx, organizationID, domain.StatusIdentified, 500)
	if err != nil {
		return 0, fmt.Errorf("get existing opportunities: %w", err)
	}
	seen := make(map[string]bool, len(existing))
	for _, opp := range existing {
		seen[string(opp.Type)+"|"+opp.Title] = true
	}

	created := 0
	for i := range detected {
		key := string(detected[i].Type) + "|" + detected[i].Title
		if seen[key] {
			continue
		}
		if err := s.store.CreateOpportunity(ctx, &detected[i]); err != nil {
			return created, fmt.Errorf("create opportunity: %w", err)
		}
		seen[key] = true
		created++
	}
	return created, nil
}

// updateStatus upserts the per-organization monitoring summary. Health is
// degraded when too many sources failed this cycle; down is reserved for
// store connectivity failures and reported by the status endpoint.
func (s *Scanner) updateStatus(ctx context.Context, organizationID int64, targets []domain.Target, result domain.ScanResult) error {
	health := domain.HealthGood
	if result.Sources > 0 && float64(result.FetchErrors)/float64(result.Sources) > s.cfg.DegradedThreshold {
		health = domain.HealthDegraded
	}

	status := &domain.MonitoringStatus{
		OrganizationID: organizationID,
		Monitoring:     true,
		ActiveTargets:  len(targets),
		ActiveSources:  result.Sources - result.FetchErrors,
		Health:         health,
		LastScan:       result.CompletedAt,
	}
	if err := s.store.UpsertStatus(ctx, status); err != nil {
		return fmt.Errorf("upsert status: %w", err)
	}
	return nil
}
