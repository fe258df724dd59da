// Package detector scans recent findings for time-windowed volume spikes,
// competitor weakness signals and under-covered topics, emitting
// opportunities for the operator to act on.
package detector

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/intelscout/intelscout/pkg/domain"
)

// phrase sets for the content-pattern detector
var (
	partnershipPhrases = []string{"partnership", "collaboration", "joint venture", "teams up"}
	growthPhrases      = []string{"growth", "surge", "demand", "expansion", "record revenue", "booming"}
)

// Detector derives opportunities from a window of findings
type Detector struct {
	spikeThreshold int // findings per hour-bucket above which a spike is reported
	vacuumFloor    int // topic finding count below which coverage is considered vacant
}

// New creates a detector. Zero values fall back to defaults.
func New(spikeThreshold, vacuumFloor int) *Detector {
	if spikeThreshold <= 0 {
		spikeThreshold = 5
	}
	if vacuumFloor <= 0 {
		vacuumFloor = 2
	}
	return &Detector{spikeThreshold: spikeThreshold, vacuumFloor: vacuumFloor}
}

// Detect runs all detectors over the findings window. Targets provide the
// topic inventory for narrative-vacuum detection. Findings may arrive in
// any order; buckets use the published timestamp, not insertion order.
func (d *Detector) Detect(organizationID int64, findings []domain.Finding, targets []domain.Target) []domain.Opportunity {
	var opportunities []domain.Opportunity
	opportunities = append(opportunities, d.detectSpikes(organizationID, findings)...)
	opportunities = append(opportunities, d.detectContentPatterns(organizationID, findings)...)
	opportunities = append(opportunities, d.detectNarrativeVacuum(organizationID, findings, targets)...)
	return opportunities
}

// detectSpikes buckets findings by published hour and reports buckets whose
// count exceeds the threshold
func (d *Detector) detectSpikes(organizationID int64, findings []domain.Finding) []domain.Opportunity {
	buckets := make(map[time.Time][]int64)
	for _, f := range findings {
		if f.Published.IsZero() {
			continue
		}
		hour := f.Published.UTC().Truncate(time.Hour)
		buckets[hour] = append(buckets[hour], f.ID)
	}

	// stable output order
	hours := make([]time.Time, 0, len(buckets))
	for hour := range buckets {
		hours = append(hours, hour)
	}
	sort.Slice(hours, func(i, j int) bool { return hours[i].Before(hours[j]) })

	var opportunities []domain.Opportunity
	for _, hour := range hours {
		ids := buckets[hour]
		if len(ids) <= d.spikeThreshold {
			continue
		}

		confidence := float64(len(ids)) / float64(2*d.spikeThreshold)
		if confidence > 1 {
			confidence = 1
		}

		opportunities = append(opportunities, domain.Opportunity{
			OrganizationID: organizationID,
			Type:           domain.OpportunityMarketTrend,
			Title:          fmt.Sprintf("Coverage spike: %d findings at %s", len(ids), hour.Format("2006-01-02 15:00 MST")),
			Description:    fmt.Sprintf("finding volume exceeded %d per hour, indicating a developing story or cascade", d.spikeThreshold),
			Confidence:     confidence,
			Status:         domain.StatusIdentified,
			FindingIDs:     ids,
		})
	}
	return opportunities
}

// detectContentPatterns scans each finding's text for fixed phrase sets
func (d *Detector) detectContentPatterns(organizationID int64, findings []domain.Finding) []domain.Opportunity {
	var opportunities []domain.Opportunity

	for _, f := range findings {
		text := strings.ToLower(f.Title + " " + f.Content)

		// negative coverage of a competitor is an opening
		if f.Sentiment == domain.SentimentNegative && f.TargetKind == domain.TargetCompetitor {
			opportunities = append(opportunities, domain.Opportunity{
				OrganizationID: organizationID,
				Type:           domain.OpportunityCompetitorStumble,
				Title:          "Competitor stumble: " + f.Title,
				Description:    fmt.Sprintf("negative coverage of a competitor in %s", f.SourceName),
				Confidence:     confidenceFromScores(f),
				Status:         domain.StatusIdentified,
				FindingIDs:     []int64{f.ID},
			})
		}

		if containsAny(text, partnershipPhrases) {
			opportunities = append(opportunities, domain.Opportunity{
				OrganizationID: organizationID,
				Type:           domain.OpportunityPartnership,
				Title:          "Partnership signal: " + f.Title,
				Description:    "partnership or collaboration language detected",
				Confidence:     0.5,
				Status:         domain.StatusIdentified,
				FindingIDs:     []int64{f.ID},
			})
		}

		if containsAny(text, growthPhrases) {
			opportunities = append(opportunities, domain.Opportunity{
				OrganizationID: organizationID,
				Type:           domain.OpportunityMarketTrend,
				Title:          "Growth signal: " + f.Title,
				Description:    "growth or demand language detected",
				Confidence:     0.4,
				Status:         domain.StatusIdentified,
				FindingIDs:     []int64{f.ID},
			})
		}
	}
	return opportunities
}

// detectNarrativeVacuum reports topic targets with almost no coverage while
// the rest of the window shows activity: a topic nobody writes about is a
// PR opening
func (d *Detector) detectNarrativeVacuum(organizationID int64, findings []domain.Finding, targets []domain.Target) []domain.Opportunity {
	if len(findings) < d.vacuumFloor*2 {
		// a quiet window says nothing about individual topics
		return nil
	}

	counts := make(map[int64]int)
	for _, f := range findings {
		counts[f.TargetID]++
	}

	var opportunities []domain.Opportunity
	for _, target := range targets {
		if target.Kind != domain.TargetTopic || !target.Active {
			continue
		}
		if counts[target.ID] >= d.vacuumFloor {
			continue
		}

		opportunities = append(opportunities, domain.Opportunity{
			OrganizationID: organizationID,
			Type:           domain.OpportunityNarrativeVacuum,
			Title:          "Narrative vacuum: " + target.Name,
			Description:    fmt.Sprintf("topic %q has %d findings in the window while overall coverage is active", target.Name, counts[target.ID]),
			Confidence:     0.4,
			Status:         domain.StatusIdentified,
		})
	}
	return opportunities
}

// confidenceFromScores derives a confidence from a finding's scores
func confidenceFromScores(f domain.Finding) float64 {
	c := 0.4 + 0.3*f.RelevanceScore
	if f.SentimentScore < 0 {
		c += 0.3 * -f.SentimentScore
	}
	if c > 1 {
		c = 1
	}
	return c
}

// containsAny reports whether text contains any of the phrases
func containsAny(text string, phrases []string) bool {
	for _, p := range phrases {
		if strings.Contains(text, p) {
			return true
		}
	}
	return false
}
