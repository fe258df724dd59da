package source

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/intelscout/intelscout/pkg/domain"
)

// queryFeedTemplate turns a search phrase into a fetchable news-search feed
const queryFeedTemplate = "https://news.google.com/rss/search?q=%s&hl=en-US&gl=US&ceid=US:en"

// Discovery resolves the concrete set of sources to poll for an
// organization. It is a pure transformation: identical inputs produce an
// identical, order-stable source list, so repeated scans don't churn
// configuration.
type Discovery struct {
	registry *Registry
}

// NewDiscovery creates a discovery instance backed by the given registry
func NewDiscovery(registry *Registry) *Discovery {
	return &Discovery{registry: registry}
}

// Resolve builds the source list for one scan cycle: per-name queries for
// the organization, its competitors and topics, a combined competitive
// intelligence query, and the registry feeds for the declared industry.
func (d *Discovery) Resolve(org, industry string, competitors, topics []string) []domain.Source {
	var sources []domain.Source

	// organization queries, with an exact-phrase variant for multi-word names
	if org != "" {
		sources = append(sources, querySource(org, org, "organization", domain.PriorityHigh))
		if strings.ContainsAny(org, " \t") {
			sources = append(sources, querySource(org+" (exact)", fmt.Sprintf("%q", org), "organization", domain.PriorityHigh))
		}
	}

	// one query per competitor
	for _, competitor := range competitors {
		if competitor == "" {
			continue
		}
		sources = append(sources, querySource(competitor, competitor, "competitor", domain.PriorityHigh))
	}

	// per-topic queries, plus an industry-qualified variant
	for _, topic := range topics {
		if topic == "" {
			continue
		}
		sources = append(sources, querySource(topic, topic, "topic", domain.PriorityMedium))
		if industry != "" {
			qualified := topic + " " + industry
			sources = append(sources, querySource(topic+" ("+industry+")", qualified, "topic", domain.PriorityMedium))
		}
	}

	// combined competitive intelligence query: org conjoined with an
	// OR-group of competitor names
	if org != "" && len(competitors) > 0 {
		group := strings.Join(competitors, " OR ")
		combined := fmt.Sprintf("%s (%s)", org, group)
		sources = append(sources, querySource("competitive intelligence", combined, "competitive", domain.PriorityMedium))
	}

	// curated industry feeds
	sources = append(sources, d.registry.FeedsFor(industry)...)

	return sources
}

// querySource builds a query-type source with the phrase percent-encoded
// into the search feed URL
func querySource(name, phrase, category string, priority domain.Priority) domain.Source {
	return domain.Source{
		Name:     name,
		Type:     domain.SourceQuery,
		URL:      fmt.Sprintf(queryFeedTemplate, url.QueryEscape(phrase)),
		Priority: priority,
		Category: category,
	}
}
