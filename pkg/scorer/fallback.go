package scorer

import (
	"strings"

	"github.com/intelscout/intelscout/pkg/domain"
)

// scoring increments for the deterministic fallback
const (
	positiveIncrement = 20
	negativeIncrement = 20
	neutralBand       = 15
	scoreCap          = 100
)

// Assessment is the result of scoring one candidate, from either the AI
// path or the local fallback
type Assessment struct {
	Sentiment      domain.Sentiment
	SentimentScore float64 // [-1, 1]
	Relevance      float64 // [0, 1]
	Urgency        domain.Urgency
	Rationale      string
	Indicators     domain.Indicators
}

// Fallback computes a deterministic sentiment assessment from the candidate
// text and the configured scenario phrases. It is a pure function: no
// network, no randomness, identical output for identical input. Any caller
// must behave correctly with only this path available.
func Fallback(candidate domain.Candidate, scenarios domain.Scenarios) Assessment {
	text := strings.ToLower(candidate.Item.Title + " " + candidate.Item.Snippet)

	indicators := domain.Indicators{
		Positive: matchPhrases(text, scenarios.Positive),
		Negative: matchPhrases(text, scenarios.Negative),
		Critical: matchPhrases(text, scenarios.Critical),
	}

	// critical concerns dominate: cap at the negative extreme no matter
	// how many positive phrases also matched
	if len(indicators.Critical) > 0 {
		return Assessment{
			Sentiment:      domain.SentimentNegative,
			SentimentScore: -1,
			Relevance:      relevance(candidate, indicators),
			Urgency:        domain.UrgencyCritical,
			Rationale:      "critical concern matched: " + strings.Join(indicators.Critical, ", "),
			Indicators:     indicators,
		}
	}

	raw := len(indicators.Positive)*positiveIncrement - len(indicators.Negative)*negativeIncrement
	if raw > scoreCap {
		raw = scoreCap
	}
	if raw < -scoreCap {
		raw = -scoreCap
	}

	sentiment := domain.SentimentNeutral
	switch {
	case len(indicators.Positive) > 0 && len(indicators.Negative) > 0:
		sentiment = domain.SentimentMixed
	case raw >= neutralBand:
		sentiment = domain.SentimentPositive
	case raw <= -neutralBand:
		sentiment = domain.SentimentNegative
	}

	return Assessment{
		Sentiment:      sentiment,
		SentimentScore: float64(raw) / scoreCap,
		Relevance:      relevance(candidate, indicators),
		Urgency:        fallbackUrgency(raw, candidate.Target.Priority),
		Rationale:      fallbackRationale(indicators),
		Indicators:     indicators,
	}
}

// matchPhrases returns the configured phrases found in text by
// case-insensitive substring match
func matchPhrases(text string, phrases []string) []string {
	var matched []string
	for _, phrase := range phrases {
		p := strings.ToLower(strings.TrimSpace(phrase))
		if p == "" {
			continue
		}
		if strings.Contains(text, p) {
			matched = append(matched, phrase)
		}
	}
	return matched
}

// relevance estimates how relevant a candidate is from its keyword matches
// and whether any configured scenario fired
func relevance(candidate domain.Candidate, indicators domain.Indicators) float64 {
	score := 0.4 + 0.15*float64(len(candidate.MatchedKeywords))
	if !indicators.Empty() {
		score += 0.2
	}
	if score > 1 {
		score = 1
	}
	return score
}

// fallbackUrgency maps the raw sentiment score and target priority to an
// urgency level
func fallbackUrgency(raw int, priority domain.Priority) domain.Urgency {
	switch {
	case raw <= -2*negativeIncrement:
		return domain.UrgencyHigh
	case raw < 0 && priority == domain.PriorityHigh:
		return domain.UrgencyHigh
	case raw < 0:
		return domain.UrgencyMedium
	default:
		return domain.UrgencyLow
	}
}

// fallbackRationale describes which phrase groups fired
func fallbackRationale(indicators domain.Indicators) string {
	if indicators.Empty() {
		return "no configured scenario phrases matched"
	}
	var parts []string
	if n := len(indicators.Positive); n > 0 {
		parts = append(parts, "positive: "+strings.Join(indicators.Positive, ", "))
	}
	if n := len(indicators.Negative); n > 0 {
		parts = append(parts, "negative: "+strings.Join(indicators.Negative, ", "))
	}
	return "matched " + strings.Join(parts, "; ")
}
