package fetcher

import (
	"context"
	"fmt"
	"html"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/microcosm-cc/bluemonday"
	"github.com/mmcdole/gofeed"

	"github.com/intelscout/intelscout/pkg/domain"
)

// Fetcher retrieves and parses syndication feeds. Each fetch races against
// the configured timeout; a failure is local to the source and reported as
// an error for the caller to count, never to abort a scan.
type Fetcher struct {
	client    *http.Client
	timeout   time.Duration
	userAgent string
	sanitizer *bluemonday.Policy
}

// New creates a feed fetcher with the given per-source timeout
func New(timeout time.Duration, userAgent string) *Fetcher {
	if timeout == 0 {
		timeout = 10 * time.Second
	}
	if userAgent == "" {
		userAgent = "IntelScout/1.0"
	}
	return &Fetcher{
		client: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		timeout:   timeout,
		userAgent: userAgent,
		sanitizer: bluemonday.StrictPolicy(),
	}
}

// Fetch retrieves and parses a single source, returning its raw items.
// Items with no title and no snippet are discarded.
func (f *Fetcher) Fetch(ctx context.Context, source domain.Source) ([]domain.RawItem, error) {
	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	body, err := f.get(ctx, source.URL)
	if err != nil {
		return nil, fmt.Errorf("fetch source %s: %w", source.Name, err)
	}
	defer body.Close()

	feed, err := gofeed.NewParser().Parse(body)
	if err != nil {
		return nil, fmt.Errorf("parse source %s: %w", source.Name, err)
	}

	items := make([]domain.RawItem, 0, len(feed.Items))
	for _, item := range feed.Items {
		raw := domain.RawItem{
			Title:      f.cleanText(item.Title),
			Snippet:    f.cleanText(item.Description),
			Link:       item.Link,
			SourceName: source.Name,
		}
		if raw.Snippet == "" {
			raw.Snippet = f.cleanText(item.Content)
		}

		// nothing to match against
		if raw.Title == "" && raw.Snippet == "" {
			continue
		}

		if item.PublishedParsed != nil {
			raw.Published = *item.PublishedParsed
		} else if item.UpdatedParsed != nil {
			raw.Published = *item.UpdatedParsed
		}

		items = append(items, raw)
	}

	return items, nil
}

// cleanText strips markup and collapses whitespace in feed-provided text
func (f *Fetcher) cleanText(s string) string {
	stripped := html.UnescapeString(f.sanitizer.Sanitize(s))
	return strings.Join(strings.Fields(stripped), " ")
}

// get retrieves content from a URL
func (f *Fetcher) get(ctx context.Context, url string) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	// some feed hosts reject requests without browser-ish headers
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "application/rss+xml,application/atom+xml,application/xml;q=0.9,text/xml;q=0.8,*/*;q=0.5")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")
	req.Header.Set("Cache-Control", "no-cache")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch URL: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		_ = resp.Body.Close()
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	return resp.Body, nil
}
