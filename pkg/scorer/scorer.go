// Package scorer computes sentiment, relevance and urgency for matched
// candidates. The LLM path is a strict enhancement: any failure (timeout,
// transport error, unparsable response) silently degrades to the
// deterministic local fallback and a finding is still produced.
package scorer

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-pkgz/lgr"
	"github.com/sashabaranov/go-openai"

	"github.com/intelscout/intelscout/pkg/config"
	"github.com/intelscout/intelscout/pkg/domain"
)

// Scorer scores candidates via the enrichment service with local fallback
type Scorer struct {
	client  *openai.Client
	config  config.EnrichmentConfig
	enabled bool
}

// New creates a scorer. With an empty endpoint the AI path is disabled and
// every candidate goes through the fallback.
func New(cfg config.EnrichmentConfig) *Scorer {
	s := &Scorer{config: cfg, enabled: cfg.Endpoint != ""}
	if s.enabled {
		clientConfig := openai.DefaultConfig(cfg.APIKey)
		clientConfig.BaseURL = cfg.Endpoint
		s.client = openai.NewClientWithConfig(clientConfig)
	}
	return s
}

// systemPrompt instructs the model to return a single JSON object
const systemPrompt = `You are a media intelligence analyst. Assess the news item for the monitored target and respond with a single JSON object, no other text:
{
  "sentiment": "positive" | "negative" | "neutral" | "mixed",
  "sentiment_score": number between -1 and 1,
  "rationale": "one sentence explaining the assessment",
  "urgency": "low" | "medium" | "high" | "critical",
  "opportunity_score": number between 0 and 1 estimating relevance and actionability,
  "matched_indicators": {"positive": [...], "negative": [...], "critical": [...]}
}
matched_indicators must list which of the provided scenario phrases actually apply to the item. If a critical concern applies, sentiment must be "negative" and urgency at least "high".`

// aiAssessment is the wire shape of the enrichment service response
type aiAssessment struct {
	Sentiment         string            `json:"sentiment"`
	SentimentScore    float64           `json:"sentiment_score"`
	Rationale         string            `json:"rationale"`
	Urgency           string            `json:"urgency"`
	OpportunityScore  float64           `json:"opportunity_score"`
	MatchedIndicators domain.Indicators `json:"matched_indicators"`
}

// Score assesses a candidate. It never fails: enrichment errors are logged
// and the deterministic fallback result is returned instead.
func (s *Scorer) Score(ctx context.Context, candidate domain.Candidate, scenarios domain.Scenarios) Assessment {
	if !s.enabled {
		return Fallback(candidate, scenarios)
	}

	assessment, err := s.scoreAI(ctx, candidate, scenarios)
	if err != nil {
		lgr.Printf("[WARN] enrichment failed for %q, using fallback: %v", candidate.Item.Title, err)
		return Fallback(candidate, scenarios)
	}
	return assessment
}

// scoreAI runs the enrichment service path
func (s *Scorer) scoreAI(ctx context.Context, candidate domain.Candidate, scenarios domain.Scenarios) (Assessment, error) {
	ctx, cancel := context.WithTimeout(ctx, s.config.Timeout)
	defer cancel()

	req := openai.ChatCompletionRequest{
		Model:       s.config.Model,
		Temperature: float32(s.config.Temperature),
		MaxTokens:   s.config.MaxTokens,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: buildPrompt(candidate, scenarios)},
		},
	}

	resp, err := s.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return Assessment{}, fmt.Errorf("enrichment request failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return Assessment{}, fmt.Errorf("no response from enrichment service")
	}

	var ai aiAssessment
	if err := decodeResponse(resp.Choices[0].Message.Content, &ai); err != nil {
		return Assessment{}, err
	}

	return s.toAssessment(ai, candidate), nil
}

// buildPrompt creates the user prompt with scenario context and the
// candidate text
func buildPrompt(candidate domain.Candidate, scenarios domain.Scenarios) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "Monitored target: %s (%s, priority %s)\n", candidate.Target.Name, candidate.Target.Kind, candidate.Target.Priority)
	fmt.Fprintf(&sb, "Matched keywords: %s\n\n", strings.Join(candidate.MatchedKeywords, ", "))

	if len(scenarios.Positive) > 0 {
		fmt.Fprintf(&sb, "Positive scenarios: %s\n", strings.Join(scenarios.Positive, "; "))
	}
	if len(scenarios.Negative) > 0 {
		fmt.Fprintf(&sb, "Negative scenarios: %s\n", strings.Join(scenarios.Negative, "; "))
	}
	if len(scenarios.Critical) > 0 {
		fmt.Fprintf(&sb, "Critical concerns: %s\n", strings.Join(scenarios.Critical, "; "))
	}

	sb.WriteString("\nNews item:\n")
	fmt.Fprintf(&sb, "Title: %s\n", candidate.Item.Title)
	if candidate.Item.Snippet != "" {
		snippet := candidate.Item.Snippet
		if len(snippet) > 500 {
			snippet = snippet[:500] + "..."
		}
		fmt.Fprintf(&sb, "Content: %s\n", snippet)
	}
	fmt.Fprintf(&sb, "Source: %s, published %s\n", candidate.Item.SourceName, candidate.Item.Published.Format(time.RFC3339))

	return sb.String()
}

// toAssessment validates and clamps the service response
func (s *Scorer) toAssessment(ai aiAssessment, candidate domain.Candidate) Assessment {
	assessment := Assessment{
		Sentiment:      parseSentiment(ai.Sentiment),
		SentimentScore: clamp(ai.SentimentScore, -1, 1),
		Relevance:      clamp(ai.OpportunityScore, 0, 1),
		Urgency:        parseUrgency(ai.Urgency),
		Rationale:      ai.Rationale,
		Indicators:     ai.MatchedIndicators,
	}

	// the critical-dominance invariant holds on the AI path too
	if len(assessment.Indicators.Critical) > 0 {
		assessment.Sentiment = domain.SentimentNegative
		if assessment.SentimentScore > -0.5 {
			assessment.SentimentScore = -0.5
		}
		if assessment.Urgency == domain.UrgencyLow || assessment.Urgency == domain.UrgencyMedium {
			assessment.Urgency = domain.UrgencyHigh
		}
	}

	if assessment.Relevance == 0 {
		assessment.Relevance = relevance(candidate, assessment.Indicators)
	}

	return assessment
}

// parseSentiment maps a response string to a sentiment, defaulting to neutral
func parseSentiment(s string) domain.Sentiment {
	switch domain.Sentiment(strings.ToLower(strings.TrimSpace(s))) {
	case domain.SentimentPositive, domain.SentimentNegative, domain.SentimentNeutral, domain.SentimentMixed:
		return domain.Sentiment(strings.ToLower(strings.TrimSpace(s)))
	default:
		return domain.SentimentNeutral
	}
}

// parseUrgency maps a response string to an urgency, defaulting to medium
func parseUrgency(s string) domain.Urgency {
	switch domain.Urgency(strings.ToLower(strings.TrimSpace(s))) {
	case domain.UrgencyLow, domain.UrgencyMedium, domain.UrgencyHigh, domain.UrgencyCritical:
		return domain.Urgency(strings.ToLower(strings.TrimSpace(s)))
	default:
		return domain.UrgencyMedium
	}
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
