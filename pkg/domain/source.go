package domain

import "time"

// SourceType identifies how a source is polled
type SourceType string

// source types
const (
	SourceFeed    SourceType = "feed"
	SourceQuery   SourceType = "query"
	SourceWebsite SourceType = "website"
)

// Source is a fetchable location that may yield items relevant to targets.
// Query sources carry a URL with the search phrase already encoded, so every
// source resolves to a single fetchable URL for a scan cycle.
type Source struct {
	Name     string
	Type     SourceType
	URL      string
	Priority Priority
	Category string // owning industry or query group tag
}

// RawItem is a single entry fetched from a source before matching
type RawItem struct {
	Title      string
	Snippet    string
	Link       string
	Published  time.Time
	SourceName string
}

// Candidate pairs a fetched item with the target it matched
type Candidate struct {
	Item            RawItem
	Target          Target
	MatchedKeywords []string
}
