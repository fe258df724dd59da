package server

import (
	"time"

	"github.com/intelscout/intelscout/pkg/domain"
)

// targetResponse is the JSON shape of a target
type targetResponse struct {
	ID             int64    `json:"id"`
	OrganizationID int64    `json:"organization_id"`
	Name           string   `json:"name"`
	Kind           string   `json:"kind"`
	Priority       string   `json:"priority"`
	Keywords       []string `json:"keywords"`
	Active         bool     `json:"active"`
}

func toTargetResponse(t domain.Target) targetResponse {
	return targetResponse{
		ID:             t.ID,
		OrganizationID: t.OrganizationID,
		Name:           t.Name,
		Kind:           string(t.Kind),
		Priority:       string(t.Priority),
		Keywords:       t.Keywords,
		Active:         t.Active,
	}
}

func toTargetResponses(targets []domain.Target) []targetResponse {
	out := make([]targetResponse, len(targets))
	for i, t := range targets {
		out[i] = toTargetResponse(t)
	}
	return out
}

// findingResponse is the JSON shape of a finding
type findingResponse struct {
	ID              int64     `json:"id"`
	TargetID        int64     `json:"target_id"`
	Title           string    `json:"title"`
	Content         string    `json:"content,omitempty"`
	SourceName      string    `json:"source"`
	URL             string    `json:"url"`
	Published       time.Time `json:"published_at"`
	Sentiment       string    `json:"sentiment"`
	SentimentScore  float64   `json:"sentiment_score"`
	RelevanceScore  float64   `json:"relevance_score"`
	Urgency         string    `json:"urgency"`
	MatchedKeywords []string  `json:"matched_keywords"`
	Indicators      []string  `json:"indicators,omitempty"`
	Rationale       string    `json:"rationale,omitempty"`
}

func toFindingResponses(findings []domain.Finding) []findingResponse {
	out := make([]findingResponse, len(findings))
	for i, f := range findings {
		out[i] = findingResponse{
			ID:              f.ID,
			TargetID:        f.TargetID,
			Title:           f.Title,
			Content:         f.Content,
			SourceName:      f.SourceName,
			URL:             f.URL,
			Published:       f.Published,
			Sentiment:       string(f.Sentiment),
			SentimentScore:  f.SentimentScore,
			RelevanceScore:  f.RelevanceScore,
			Urgency:         string(f.Urgency),
			MatchedKeywords: f.MatchedKeywords,
			Indicators:      f.Indicators,
			Rationale:       f.Rationale,
		}
	}
	return out
}

// opportunityResponse is the JSON shape of an opportunity
type opportunityResponse struct {
	ID             int64     `json:"id"`
	OrganizationID int64     `json:"organization_id"`
	Type           string    `json:"type"`
	Title          string    `json:"title"`
	Description    string    `json:"description"`
	Confidence     float64   `json:"confidence"`
	Status         string    `json:"status"`
	FindingIDs     []int64   `json:"finding_ids"`
	CreatedAt      time.Time `json:"created_at"`
}

func toOpportunityResponses(opps []domain.Opportunity) []opportunityResponse {
	out := make([]opportunityResponse, len(opps))
	for i, o := range opps {
		out[i] = opportunityResponse{
			ID:             o.ID,
			OrganizationID: o.OrganizationID,
			Type:           string(o.Type),
			Title:          o.Title,
			Description:    o.Description,
			Confidence:     o.Confidence,
			Status:         string(o.Status),
			FindingIDs:     o.FindingIDs,
			CreatedAt:      o.CreatedAt,
		}
	}
	return out
}
