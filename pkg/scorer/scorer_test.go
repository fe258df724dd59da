package scorer

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/intelscout/intelscout/pkg/config"
	"github.com/intelscout/intelscout/pkg/domain"
)

// newMockEnrichment starts an openai-compatible chat completion server that
// returns the given content as the assistant message
func newMockEnrichment(t *testing.T, content string, status int) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if status != http.StatusOK {
			w.WriteHeader(status)
			return
		}
		resp := map[string]any{
			"choices": []map[string]any{
				{"message": map[string]any{"role": "assistant", "content": content}},
			},
		}
		w.Header().Set("Content-Type", "application/json")
		require.NoError(t, json.NewEncoder(w).Encode(resp))
	}))
}

func enrichmentConfig(endpoint string) config.EnrichmentConfig {
	return config.EnrichmentConfig{
		Endpoint:    endpoint,
		APIKey:      "test-key",
		Model:       "gpt-4o-mini",
		Temperature: 0.2,
		MaxTokens:   400,
		Timeout:     5 * time.Second,
	}
}

func TestScorer_Disabled(t *testing.T) {
	s := New(config.EnrichmentConfig{})
	assert.False(t, s.enabled)

	scenarios := domain.Scenarios{Negative: []string{"lawsuit"}}
	c := makeCandidate("Acme lawsuit filed", "", "acme")
	got := s.Score(context.Background(), c, scenarios)

	assert.Equal(t, domain.SentimentNegative, got.Sentiment)
	assert.Equal(t, Fallback(c, scenarios), got, "disabled scorer is exactly the fallback")
}

func TestScorer_AIPath(t *testing.T) {
	content := `{"sentiment": "negative", "sentiment_score": -0.7, "rationale": "lawsuit coverage",
		"urgency": "high", "opportunity_score": 0.6,
		"matched_indicators": {"negative": ["lawsuit"]}}`
	server := newMockEnrichment(t, content, http.StatusOK)
	defer server.Close()

	s := New(enrichmentConfig(server.URL + "/v1"))
	got := s.Score(context.Background(), makeCandidate("Acme lawsuit filed", "", "acme"), domain.Scenarios{})

	assert.Equal(t, domain.SentimentNegative, got.Sentiment)
	assert.InDelta(t, -0.7, got.SentimentScore, 1e-9)
	assert.InDelta(t, 0.6, got.Relevance, 1e-9)
	assert.Equal(t, domain.UrgencyHigh, got.Urgency)
	assert.Equal(t, "lawsuit coverage", got.Rationale)
	assert.Equal(t, []string{"lawsuit"}, got.Indicators.Negative)
}

func TestScorer_AIPathClampsAndDefaults(t *testing.T) {
	content := `{"sentiment": "VERY BAD", "sentiment_score": -3.5, "urgency": "panic", "opportunity_score": 2}`
	server := newMockEnrichment(t, content, http.StatusOK)
	defer server.Close()

	s := New(enrichmentConfig(server.URL + "/v1"))
	got := s.Score(context.Background(), makeCandidate("Acme news", "", "acme"), domain.Scenarios{})

	assert.Equal(t, domain.SentimentNeutral, got.Sentiment, "unknown sentiment defaults to neutral")
	assert.Equal(t, -1.0, got.SentimentScore, "score clamped to [-1,1]")
	assert.Equal(t, 1.0, got.Relevance, "relevance clamped to [0,1]")
	assert.Equal(t, domain.UrgencyMedium, got.Urgency, "unknown urgency defaults to medium")
}

func TestScorer_AIPathCriticalDominance(t *testing.T) {
	// the model reports a critical indicator but an inconsistent assessment
	content := `{"sentiment": "positive", "sentiment_score": 0.9, "urgency": "low", "opportunity_score": 0.5,
		"matched_indicators": {"critical": ["data breach"]}}`
	server := newMockEnrichment(t, content, http.StatusOK)
	defer server.Close()

	s := New(enrichmentConfig(server.URL + "/v1"))
	got := s.Score(context.Background(), makeCandidate("Acme data breach", "", "acme"), domain.Scenarios{})

	assert.Equal(t, domain.SentimentNegative, got.Sentiment)
	assert.LessOrEqual(t, got.SentimentScore, -0.5)
	assert.Equal(t, domain.UrgencyHigh, got.Urgency)
}

func TestScorer_FallbackOnErrors(t *testing.T) {
	scenarios := domain.Scenarios{Critical: []string{"security breach"}}
	c := makeCandidate("Acme security breach reported", "", "acme")
	want := Fallback(c, scenarios)

	t.Run("server error", func(t *testing.T) {
		server := newMockEnrichment(t, "", http.StatusInternalServerError)
		defer server.Close()

		s := New(enrichmentConfig(server.URL + "/v1"))
		assert.Equal(t, want, s.Score(context.Background(), c, scenarios))
	})

	t.Run("unparsable response", func(t *testing.T) {
		server := newMockEnrichment(t, "I cannot assess this item.", http.StatusOK)
		defer server.Close()

		s := New(enrichmentConfig(server.URL + "/v1"))
		assert.Equal(t, want, s.Score(context.Background(), c, scenarios))
	})

	t.Run("unreachable endpoint", func(t *testing.T) {
		cfg := enrichmentConfig("http://127.0.0.1:1/v1")
		cfg.Timeout = 500 * time.Millisecond
		s := New(cfg)
		assert.Equal(t, want, s.Score(context.Background(), c, scenarios))
	})
}

func TestBuildPrompt(t *testing.T) {
	c := makeCandidate("Acme lawsuit filed", "court documents show a dispute", "acme", "lawsuit")
	c.Item.SourceName = "Reuters"
	scenarios := domain.Scenarios{
		Positive: []string{"growth"},
		Negative: []string{"lawsuit"},
		Critical: []string{"security breach"},
	}

	prompt := buildPrompt(c, scenarios)
	assert.Contains(t, prompt, "Monitored target: Acme (organization, priority medium)")
	assert.Contains(t, prompt, "Matched keywords: acme, lawsuit")
	assert.Contains(t, prompt, "Positive scenarios: growth")
	assert.Contains(t, prompt, "Negative scenarios: lawsuit")
	assert.Contains(t, prompt, "Critical concerns: security breach")
	assert.Contains(t, prompt, "Title: Acme lawsuit filed")
	assert.Contains(t, prompt, "Content: court documents show a dispute")
	assert.Contains(t, prompt, "Source: Reuters")
}
