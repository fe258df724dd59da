package scorer

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/intelscout/intelscout/pkg/domain"
)

func makeCandidate(title, snippet string, keywords ...string) domain.Candidate {
	return domain.Candidate{
		Item:            domain.RawItem{Title: title, Snippet: snippet},
		Target:          domain.Target{Name: "Acme", Kind: domain.TargetOrganization, Priority: domain.PriorityMedium},
		MatchedKeywords: keywords,
	}
}

func TestFallback_CriticalDominates(t *testing.T) {
	scenarios := domain.Scenarios{
		Positive: []string{"record revenue", "award", "expansion"},
		Critical: []string{"security breach"},
	}

	// three positive phrases plus one critical: critical must win outright
	c := makeCandidate("Acme record revenue and award after expansion",
		"despite a security breach disclosed today", "acme")
	got := Fallback(c, scenarios)

	assert.Equal(t, domain.SentimentNegative, got.Sentiment)
	assert.Equal(t, -1.0, got.SentimentScore)
	assert.Equal(t, domain.UrgencyCritical, got.Urgency)
	assert.Equal(t, []string{"security breach"}, got.Indicators.Critical)
	assert.Contains(t, got.Rationale, "security breach")
}

func TestFallback_Deterministic(t *testing.T) {
	scenarios := domain.Scenarios{
		Positive: []string{"growth"},
		Negative: []string{"layoffs", "lawsuit"},
	}
	c := makeCandidate("Acme lawsuit follows layoffs", "growth plans shelved", "acme")

	first := Fallback(c, scenarios)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, Fallback(c, scenarios))
	}
}

func TestFallback_SentimentBands(t *testing.T) {
	tests := []struct {
		name      string
		scenarios domain.Scenarios
		title     string
		sentiment domain.Sentiment
		score     float64
	}{
		{
			name:      "single positive clears the band",
			scenarios: domain.Scenarios{Positive: []string{"growth"}},
			title:     "Acme growth continues",
			sentiment: domain.SentimentPositive,
			score:     0.2,
		},
		{
			name:      "single negative clears the band",
			scenarios: domain.Scenarios{Negative: []string{"layoffs"}},
			title:     "Acme layoffs announced",
			sentiment: domain.SentimentNegative,
			score:     -0.2,
		},
		{
			name:      "no phrases matched stays neutral",
			scenarios: domain.Scenarios{Positive: []string{"growth"}, Negative: []string{"layoffs"}},
			title:     "Acme schedules earnings call",
			sentiment: domain.SentimentNeutral,
			score:     0,
		},
		{
			name:      "both polarities reported as mixed",
			scenarios: domain.Scenarios{Positive: []string{"growth"}, Negative: []string{"lawsuit"}},
			title:     "Acme growth overshadowed by lawsuit",
			sentiment: domain.SentimentMixed,
			score:     0,
		},
		{
			name: "score capped at the positive extreme",
			scenarios: domain.Scenarios{Positive: []string{
				"growth", "surge", "award", "expansion", "record", "milestone"}},
			title:     "growth surge award expansion record milestone",
			sentiment: domain.SentimentPositive,
			score:     1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Fallback(makeCandidate(tt.title, "", "acme"), tt.scenarios)
			assert.Equal(t, tt.sentiment, got.Sentiment)
			assert.InDelta(t, tt.score, got.SentimentScore, 1e-9)
		})
	}
}

func TestFallback_Urgency(t *testing.T) {
	negTwo := domain.Scenarios{Negative: []string{"lawsuit", "layoffs"}}
	negOne := domain.Scenarios{Negative: []string{"lawsuit"}}

	t.Run("strongly negative is high", func(t *testing.T) {
		got := Fallback(makeCandidate("Acme lawsuit and layoffs", "", "acme"), negTwo)
		assert.Equal(t, domain.UrgencyHigh, got.Urgency)
	})

	t.Run("negative on high priority target is high", func(t *testing.T) {
		c := makeCandidate("Acme lawsuit", "", "acme")
		c.Target.Priority = domain.PriorityHigh
		assert.Equal(t, domain.UrgencyHigh, Fallback(c, negOne).Urgency)
	})

	t.Run("mildly negative is medium", func(t *testing.T) {
		got := Fallback(makeCandidate("Acme lawsuit", "", "acme"), negOne)
		assert.Equal(t, domain.UrgencyMedium, got.Urgency)
	})

	t.Run("neutral is low", func(t *testing.T) {
		got := Fallback(makeCandidate("Acme earnings call", "", "acme"), negOne)
		assert.Equal(t, domain.UrgencyLow, got.Urgency)
	})
}

func TestFallback_Relevance(t *testing.T) {
	scenarios := domain.Scenarios{Positive: []string{"growth"}}

	t.Run("base plus keywords", func(t *testing.T) {
		got := Fallback(makeCandidate("Acme earnings", "", "acme", "earnings"), domain.Scenarios{})
		assert.InDelta(t, 0.7, got.Relevance, 1e-9)
	})

	t.Run("indicator bonus", func(t *testing.T) {
		got := Fallback(makeCandidate("Acme growth", "", "acme"), scenarios)
		assert.InDelta(t, 0.75, got.Relevance, 1e-9)
	})

	t.Run("capped at one", func(t *testing.T) {
		got := Fallback(makeCandidate("Acme growth", "", "a", "b", "c", "d", "e"), scenarios)
		assert.Equal(t, 1.0, got.Relevance)
	})
}

func TestMatchPhrases(t *testing.T) {
	text := "acme corp faces regulatory scrutiny in europe"

	assert.Equal(t, []string{"Regulatory Scrutiny"},
		matchPhrases(text, []string{"Regulatory Scrutiny"}), "original casing preserved")
	assert.Nil(t, matchPhrases(text, []string{"", "  ", "bankruptcy"}))
}
