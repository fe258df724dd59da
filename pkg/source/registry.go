package source

import (
	_ "embed"
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/intelscout/intelscout/pkg/domain"
)

//go:embed registry.yml
var defaultRegistry []byte

// Registry maps industry tags to curated feed sets. It is loaded once from
// an operator-supplied YAML file or the embedded default and is read-only
// afterwards.
type Registry struct {
	industries map[string][]registryFeed
	fallback   []registryFeed
}

// registryFeed is a single feed entry in the registry file
type registryFeed struct {
	Name     string `yaml:"name"`
	URL      string `yaml:"url"`
	Priority string `yaml:"priority"`
}

// registryFile is the on-disk registry shape
type registryFile struct {
	Industries map[string][]registryFeed `yaml:"industries"`
	Fallback   []registryFeed            `yaml:"fallback"`
}

// NewRegistry loads the registry from path, or the embedded default when
// path is empty.
func NewRegistry(path string) (*Registry, error) {
	data := defaultRegistry
	if path != "" {
		fileData, err := os.ReadFile(path) //nolint:gosec // path comes from operator config
		if err != nil {
			return nil, fmt.Errorf("read registry file: %w", err)
		}
		data = fileData
	}

	var file registryFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse registry: %w", err)
	}
	if len(file.Fallback) == 0 {
		return nil, fmt.Errorf("registry has no fallback feeds")
	}

	industries := make(map[string][]registryFeed, len(file.Industries))
	for tag, feeds := range file.Industries {
		industries[strings.ToLower(strings.TrimSpace(tag))] = feeds
	}

	return &Registry{industries: industries, fallback: file.Fallback}, nil
}

// FeedsFor returns the feed set for an industry. Matching is by longest
// substring overlap in either direction between the declared industry and
// the registry tags, falling back to the generic business set when nothing
// overlaps.
func (r *Registry) FeedsFor(industry string) []domain.Source {
	needle := strings.ToLower(strings.TrimSpace(industry))

	bestTag := ""
	if needle != "" {
		// stable iteration so repeated calls pick the same tag on ties
		tags := make([]string, 0, len(r.industries))
		for tag := range r.industries {
			tags = append(tags, tag)
		}
		sort.Strings(tags)

		for _, tag := range tags {
			if !strings.Contains(needle, tag) && !strings.Contains(tag, needle) {
				continue
			}
			if len(tag) > len(bestTag) {
				bestTag = tag
			}
		}
	}

	feeds := r.fallback
	category := "business"
	if bestTag != "" {
		feeds = r.industries[bestTag]
		category = bestTag
	}

	sources := make([]domain.Source, 0, len(feeds))
	for _, f := range feeds {
		sources = append(sources, domain.Source{
			Name:     f.Name,
			Type:     domain.SourceFeed,
			URL:      f.URL,
			Priority: feedPriority(f.Priority),
			Category: category,
		})
	}
	return sources
}

// feedPriority maps the registry priority string to a domain priority,
// defaulting to medium for unknown values
func feedPriority(p string) domain.Priority {
	switch domain.Priority(strings.ToLower(p)) {
	case domain.PriorityLow, domain.PriorityMedium, domain.PriorityHigh:
		return domain.Priority(strings.ToLower(p))
	default:
		return domain.PriorityMedium
	}
}
