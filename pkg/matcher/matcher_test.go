package matcher

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/intelscout/intelscout/pkg/domain"
)

func TestMatch(t *testing.T) {
	targets := []domain.Target{
		{ID: 1, Name: "Acme", Kind: domain.TargetOrganization, Active: true, Keywords: []string{"acme", "acme corp"}},
		{ID: 2, Name: "Globex", Kind: domain.TargetCompetitor, Active: true, Keywords: []string{"globex"}},
		{ID: 3, Name: "AI Ethics", Kind: domain.TargetTopic, Active: true, Keywords: []string{"ai ethics", "responsible ai"}},
	}

	items := []domain.RawItem{
		{Title: "Acme Corp launches new product", Snippet: "a big day for Acme"},
		{Title: "Globex and Acme in talks", Snippet: ""},
		{Title: "Weather report", Snippet: "sunny skies ahead"},
	}

	candidates := Match(items, targets)
	require.Len(t, candidates, 3)

	// first item matches Acme only, with both keywords
	assert.Equal(t, int64(1), candidates[0].Target.ID)
	assert.Equal(t, []string{"acme", "acme corp"}, candidates[0].MatchedKeywords)

	// second item matches both Acme and Globex, one candidate each
	assert.Equal(t, int64(1), candidates[1].Target.ID)
	assert.Equal(t, []string{"acme"}, candidates[1].MatchedKeywords)
	assert.Equal(t, int64(2), candidates[2].Target.ID)
	assert.Equal(t, []string{"globex"}, candidates[2].MatchedKeywords)
}

func TestMatch_CaseInsensitive(t *testing.T) {
	targets := []domain.Target{
		{ID: 1, Active: true, Keywords: []string{"ACME"}},
	}
	items := []domain.RawItem{{Title: "aCmE shares up"}}

	candidates := Match(items, targets)
	require.Len(t, candidates, 1)
	assert.Equal(t, []string{"ACME"}, candidates[0].MatchedKeywords, "original keyword casing preserved")
}

func TestMatch_SkipsIneligibleTargets(t *testing.T) {
	targets := []domain.Target{
		{ID: 1, Active: false, Keywords: []string{"acme"}},
		{ID: 2, Active: true, Keywords: nil},
		{ID: 3, Active: true, Keywords: []string{"  ", ""}},
	}
	items := []domain.RawItem{{Title: "acme everywhere", Snippet: "acme acme"}}

	assert.Empty(t, Match(items, targets))
}

func TestMatch_NoTargets(t *testing.T) {
	items := []domain.RawItem{{Title: "anything"}}
	assert.Empty(t, Match(items, nil))
	assert.Empty(t, Match(nil, []domain.Target{{ID: 1, Active: true, Keywords: []string{"x"}}}))
}

func TestMatch_SnippetOnly(t *testing.T) {
	targets := []domain.Target{{ID: 1, Active: true, Keywords: []string{"quantum"}}}
	items := []domain.RawItem{{Title: "New research", Snippet: "a quantum computing milestone"}}

	candidates := Match(items, targets)
	require.Len(t, candidates, 1)
	assert.Equal(t, []string{"quantum"}, candidates[0].MatchedKeywords)
}
