// Package lru implements the bounded result cache: a weighted,
// expiry-aware store with strict least-recently-used eviction.
package lru

import (
	"container/list"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"gocinder.io/cinder/internal/models"
)

var (
	// ErrInvalidCapacity is returned when the configured capacity is not positive.
	ErrInvalidCapacity = errors.New("cache capacity must be positive")
	// ErrInvalidWeight is returned when an entry weight is not positive.
	ErrInvalidWeight = errors.New("entry weight must be positive")
	// ErrEntryTooHeavy is returned when a single entry can never fit the cache.
	ErrEntryTooHeavy = errors.New("entry weight exceeds cache capacity")
)

// Cache is a strict-LRU result cache bounded by total entry weight.
// Recency order is a doubly-linked list: front is the most recently used
// entry, back is the eviction victim. Every operation holds the mutex for
// its whole duration, so interleaved callers never observe the cache above
// capacity or an expired entry as a hit.
type Cache struct {
	mu       sync.Mutex
	capacity int64
	weight   int64
	entries  map[string]*list.Element
	order    *list.List

	metrics *models.Metrics
	logger  *zap.Logger
}

// New creates a Cache bounded by capacity (total weight).
func New(capacity int64, logger *zap.Logger) (*Cache, error) {
	if capacity <= 0 {
		return nil, ErrInvalidCapacity
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Cache{
		capacity: capacity,
		entries:  make(map[string]*list.Element),
		order:    list.New(),
		metrics:  models.NewMetrics(),
		logger:   logger,
	}, nil
}

// Get returns the value for key if present and not expired. A hit refreshes
// the key's recency; an expired entry is purged and reported as a miss.
func (c *Cache) Get(key string) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	elem, ok := c.entries[key]
	if !ok {
		c.metrics.Misses.Inc()
		return nil, false
	}

	entry := elem.Value.(*models.Entry)
	if entry.IsExpired(time.Now()) {
		c.removeElement(elem)
		c.metrics.Expired.Inc()
		c.metrics.Misses.Inc()
		return nil, false
	}

	c.order.MoveToFront(elem)
	entry.IncrementAccess()
	c.metrics.Hits.Inc()
	return entry.Value, true
}

// Set inserts or replaces the entry for key. A zero ttl means the entry
// never expires. If the insert would exceed capacity, least-recently-used
// entries are evicted until it fits.
func (c *Cache) Set(key string, value any, weight int64, ttl time.Duration) error {
	if weight <= 0 {
		return ErrInvalidWeight
	}
	if weight > c.capacity {
		return ErrEntryTooHeavy
	}

	var expiration time.Time
	if ttl > 0 {
		expiration = time.Now().Add(ttl)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if elem, ok := c.entries[key]; ok {
		old := elem.Value.(*models.Entry)
		c.weight -= old.Weight
		elem.Value = models.NewEntry(key, value, weight, expiration)
		c.weight += weight
		c.order.MoveToFront(elem)
	} else {
		elem = c.order.PushFront(models.NewEntry(key, value, weight, expiration))
		c.entries[key] = elem
		c.weight += weight
	}

	for c.weight > c.capacity {
		victim := c.order.Back()
		if victim == nil {
			break
		}
		c.logger.Debug("evicting least recently used entry",
			zap.String("key", victim.Value.(*models.Entry).Key))
		c.removeElement(victim)
		c.metrics.Evictions.Inc()
	}

	return nil
}

// Delete removes the entry for key if present.
func (c *Cache) Delete(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	elem, ok := c.entries[key]
	if !ok {
		return false
	}
	c.removeElement(elem)
	return true
}

// Len returns the number of live entries, purging expired ones first so the
// count is well-defined.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.purgeExpired()
	return len(c.entries)
}

// Weight returns the total weight of live entries, purging expired ones first.
func (c *Cache) Weight() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.purgeExpired()
	return c.weight
}

// Keys returns the keys of all live entries, most recently used first.
func (c *Cache) Keys() []string {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.purgeExpired()
	keys := make([]string, 0, len(c.entries))
	for elem := c.order.Front(); elem != nil; elem = elem.Next() {
		keys = append(keys, elem.Value.(*models.Entry).Key)
	}
	return keys
}

// Flush removes all entries.
func (c *Cache) Flush() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries = make(map[string]*list.Element)
	c.order.Init()
	c.weight = 0
}

// Metrics returns the cache's counters.
func (c *Cache) Metrics() *models.Metrics {
	return c.metrics
}

// removeElement unlinks an element from both the map and the recency list.
// Caller must hold c.mu.
func (c *Cache) removeElement(elem *list.Element) {
	entry := elem.Value.(*models.Entry)
	delete(c.entries, entry.Key)
	c.order.Remove(elem)
	c.weight -= entry.Weight
}

// purgeExpired drops every expired entry. Caller must hold c.mu.
func (c *Cache) purgeExpired() {
	now := time.Now()
	for elem := c.order.Front(); elem != nil; {
		next := elem.Next()
		if elem.Value.(*models.Entry).IsExpired(now) {
			c.removeElement(elem)
			c.metrics.Expired.Inc()
		}
		elem = next
	}
}
