// Package matcher filters fetched items against target keyword sets. This
// is the primary relevance filter and runs before the expensive scoring
// step: items matching no target are dropped here.
package matcher

import (
	"strings"

	"github.com/intelscout/intelscout/pkg/domain"
)

// Match pairs items with the targets they mention. An item may match
// multiple targets, producing one candidate per (item, target). Each
// candidate records which keywords fired, for explainability and for
// ranking items with more matches first.
func Match(items []domain.RawItem, targets []domain.Target) []domain.Candidate {
	var candidates []domain.Candidate

	for _, item := range items {
		text := strings.ToLower(item.Title + " " + item.Snippet)

		for _, target := range targets {
			if !target.Matchable() {
				continue
			}

			var matched []string
			for _, keyword := range target.Keywords {
				kw := strings.ToLower(strings.TrimSpace(keyword))
				if kw == "" {
					continue
				}
				if strings.Contains(text, kw) {
					matched = append(matched, keyword)
				}
			}

			if len(matched) == 0 {
				continue
			}

			candidates = append(candidates, domain.Candidate{
				Item:            item,
				Target:          target,
				MatchedKeywords: matched,
			})
		}
	}

	return candidates
}
