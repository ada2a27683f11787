// Package memo provides a process-local key→value cache with a fixed TTL.
// It memoizes scrape and LLM results per domain; each process has its own
// cache, so it is effective only as a single-instance memoization layer.
package memo

import (
	"sync"
	"sync/atomic"
	"time"
)

// KeyPrefixCompany prefixes cache keys for scraped company summaries.
const KeyPrefixCompany = "company:"

// Cache is a TTL-bounded in-memory store. Expiry is lazy: an expired entry
// is evicted when Get finds it. There is no size bound and no LRU eviction,
// so sustained unique-key load grows the map until Clear; entries are small
// and process lifetime is short.
type Cache struct {
	mu      sync.Mutex
	entries map[string]entry
	ttl     time.Duration
	hits    atomic.Int64
	misses  atomic.Int64

	// now is swappable for TTL tests.
	now func() time.Time
}

type entry struct {
	value      any
	insertedAt time.Time
}

// Stats reports cache counters.
type Stats struct {
	Entries int     `json:"entries"`
	Hits    int64   `json:"hits"`
	Misses  int64   `json:"misses"`
	HitRate float64 `json:"hit_rate"`
}

// New creates a Cache whose entries expire ttl after insertion.
func New(ttl time.Duration) *Cache {
	return &Cache{
		entries: make(map[string]entry),
		ttl:     ttl,
		now:     time.Now,
	}
}

// Set stores value under key with the current timestamp, overwriting any
// prior entry.
func (c *Cache) Set(key string, value any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = entry{value: value, insertedAt: c.now()}
}

// Get returns the stored value if present and not expired, else nil. An
// expired entry found here is evicted.
func (c *Cache) Get(key string) any {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		c.misses.Add(1)
		return nil
	}
	if c.now().Sub(e.insertedAt) > c.ttl {
		delete(c.entries, key)
		c.misses.Add(1)
		return nil
	}
	c.hits.Add(1)
	return e.value
}

// Delete removes an entry unconditionally.
func (c *Cache) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
}

// Clear empties the store.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]entry)
}

// Stats returns cache counters.
func (c *Cache) Stats() Stats {
	c.mu.Lock()
	entries := len(c.entries)
	c.mu.Unlock()

	hits := c.hits.Load()
	misses := c.misses.Load()
	var hitRate float64
	if total := hits + misses; total > 0 {
		hitRate = float64(hits) / float64(total)
	}
	return Stats{Entries: entries, Hits: hits, Misses: misses, HitRate: hitRate}
}
