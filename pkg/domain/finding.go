package domain

import "time"

// Sentiment classifies the tone of a finding
type Sentiment string

// sentiments
const (
	SentimentPositive Sentiment = "positive"
	SentimentNegative Sentiment = "negative"
	SentimentNeutral  Sentiment = "neutral"
	SentimentMixed    Sentiment = "mixed"
)

// Urgency indicates how quickly a finding needs operator attention
type Urgency string

// urgency levels
const (
	UrgencyLow      Urgency = "low"
	UrgencyMedium   Urgency = "medium"
	UrgencyHigh     Urgency = "high"
	UrgencyCritical Urgency = "critical"
)

// Finding is a persisted, scored (target, matched item) pair.
// Findings are append-only evidence: at most one stored finding exists per
// (target, url) and the first write wins.
type Finding struct {
	ID              int64
	TargetID        int64
	OrganizationID  int64
	Title           string
	Content         string
	SourceName      string
	URL             string
	Published       time.Time
	Sentiment       Sentiment
	SentimentScore  float64 // [-1, 1]
	RelevanceScore  float64 // [0, 1]
	Urgency         Urgency
	MatchedKeywords []string
	Indicators      []string // scenario phrases that fired during scoring
	Rationale       string
	TargetKind      TargetKind // joined from targets for detection, not stored
	CreatedAt       time.Time
}

// ScanResult summarizes one completed scan cycle
type ScanResult struct {
	OrganizationID int64     `json:"organization_id"`
	Sources        int       `json:"sources"`
	FetchErrors    int       `json:"fetch_errors"`
	Items          int       `json:"items"`
	Findings       int       `json:"findings"`
	Opportunities  int       `json:"opportunities"`
	StartedAt      time.Time `json:"started_at"`
	CompletedAt    time.Time `json:"completed_at"`
}
