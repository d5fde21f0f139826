package cache

import (
	"strings"
	"sync"
	"time"

	"github.com/use-agent/wishscrape/models"
)

// entry holds a cached record with its creation timestamp.
type entry struct {
	record    models.ProductRecord
	createdAt time.Time
}

// Cache is a small in-memory cache of extracted product records keyed by
// page URL. It is safe for concurrent use.
type Cache struct {
	mu         sync.RWMutex
	store      map[string]*entry
	ttl        time.Duration
	maxEntries int
	now        func() time.Time
}

// New creates a Cache holding at most maxEntries records, each for ttl.
func New(ttl time.Duration, maxEntries int) *Cache {
	if maxEntries < 1 {
		maxEntries = 1
	}
	return &Cache{
		store:      make(map[string]*entry),
		ttl:        ttl,
		maxEntries: maxEntries,
		now:        time.Now,
	}
}

// Key normalises a page URL into a cache key.
func Key(url string) string {
	return strings.TrimSpace(url)
}

// Get returns the record for key if present and not expired.
func (c *Cache) Get(key string) (models.ProductRecord, bool) {
	c.mu.RLock()
	e, ok := c.store[key]
	c.mu.RUnlock()

	if !ok || c.now().Sub(e.createdAt) > c.ttl {
		return models.ProductRecord{}, false
	}
	return e.record, true
}

// Set stores a record. Expired entries are dropped first; if the cache is
// still full, an arbitrary entry is evicted to make room.
func (c *Cache) Set(key string, rec models.ProductRecord) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	if _, exists := c.store[key]; !exists && len(c.store) >= c.maxEntries {
		c.evictExpiredLocked(now)
		// Map iteration order is random.
		for k := range c.store {
			if len(c.store) < c.maxEntries {
				break
			}
			delete(c.store, k)
		}
	}

	c.store[key] = &entry{record: rec, createdAt: now}
}

// Len reports the number of stored entries, including expired ones not
// yet evicted.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.store)
}

// Run evicts expired entries every interval until stop is closed.
func (c *Cache) Run(interval time.Duration, stop <-chan struct{}) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			c.mu.Lock()
			c.evictExpiredLocked(c.now())
			c.mu.Unlock()
		}
	}
}

func (c *Cache) evictExpiredLocked(now time.Time) {
	for k, e := range c.store {
		if now.Sub(e.createdAt) > c.ttl {
			delete(c.store, k)
		}
	}
}
