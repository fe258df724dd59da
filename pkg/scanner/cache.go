package scanner

import (
	"sync"
	"time"

	"github.com/intelscout/intelscout/pkg/domain"
)

// ResultCache is a TTL cache of per-organization scan results. Expired
// entries are evicted on read rather than by a background sweeper: the
// keyspace is one entry per organization, so there is nothing to reclaim
// eagerly.
type ResultCache struct {
	mu      sync.Mutex
	ttl     time.Duration
	entries map[int64]cacheEntry
	now     func() time.Time // injectable for tests
}

type cacheEntry struct {
	result  domain.ScanResult
	expires time.Time
}

// NewResultCache creates a cache with the given TTL
func NewResultCache(ttl time.Duration) *ResultCache {
	if ttl == 0 {
		ttl = 30 * time.Minute
	}
	return &ResultCache{
		ttl:     ttl,
		entries: make(map[int64]cacheEntry),
		now:     time.Now,
	}
}

// Get returns the cached result for an organization, evicting it first if
// expired
func (c *ResultCache) Get(organizationID int64) (domain.ScanResult, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[organizationID]
	if !ok {
		return domain.ScanResult{}, false
	}
	if c.now().After(entry.expires) {
		delete(c.entries, organizationID)
		return domain.ScanResult{}, false
	}
	return entry.result, true
}

// Set stores a result, last writer wins
func (c *ResultCache) Set(organizationID int64, result domain.ScanResult) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[organizationID] = cacheEntry{result: result, expires: c.now().Add(c.ttl)}
}

// Invalidate drops the cached result for an organization
func (c *ResultCache) Invalidate(organizationID int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, organizationID)
}
