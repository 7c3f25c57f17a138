package postgres

import (
	"context"
	"sync"
	"time"

	"github.com/couchcryptid/mta-ridership-etl/internal/domain"
	"github.com/couchcryptid/mta-ridership-etl/internal/observability"
)

// CachedSource wraps a RidershipSource with a TTL-bounded in-memory cache.
// The dashboard serves repeated page loads from cache instead of re-running
// the aggregation queries on every request.
type CachedSource struct {
	inner   domain.RidershipSource
	cache   *ttlCache
	metrics *observability.Metrics
}

// NewCachedSource creates a cache decorator around a source. Entries expire
// after ttl and the cache holds at most maxEntries keys.
func NewCachedSource(inner domain.RidershipSource, ttl time.Duration, maxEntries int, metrics *observability.Metrics) *CachedSource {
	return &CachedSource{
		inner:   inner,
		cache:   newTTLCache(ttl, maxEntries),
		metrics: metrics,
	}
}

func (c *CachedSource) DailyRidership(ctx context.Context, table string) ([]domain.DailyRidership, error) {
	return cachedFetch(ctx, c, QueryDaily, table, c.inner.DailyRidership)
}

func (c *CachedSource) ForecastPoints(ctx context.Context, table string) ([]domain.ForecastPoint, error) {
	return cachedFetch(ctx, c, QueryForecast, table, c.inner.ForecastPoints)
}

func (c *CachedSource) StationTotals(ctx context.Context, table string) ([]domain.StationTotal, error) {
	return cachedFetch(ctx, c, QueryStations, table, c.inner.StationTotals)
}

// Bust drops every cached entry so the next request hits the database.
func (c *CachedSource) Bust() {
	c.cache.clear()
}

// cachedFetch serves query results from cache, falling through to fetch on a
// miss. Errors are never cached so a recovering database is retried.
func cachedFetch[T any](ctx context.Context, c *CachedSource, name, table string, fetch func(context.Context, string) ([]T, error)) ([]T, error) {
	key := name + ":" + table
	if v, ok := c.cache.get(key); ok {
		c.metrics.QueryCache.WithLabelValues(name, "hit").Inc()
		return v.([]T), nil
	}
	c.metrics.QueryCache.WithLabelValues(name, "miss").Inc()

	result, err := fetch(ctx, table)
	if err != nil {
		return nil, err
	}
	c.cache.put(key, result)
	return result, nil
}

// ttlCache is a thread-safe LRU cache whose entries also expire after a TTL.
type ttlCache struct {
	ttl        time.Duration
	maxEntries int
	mu         sync.Mutex
	entries    map[string]*cacheEntry
	head       *cacheEntry // most recently used
	tail       *cacheEntry // least recently used
}

type cacheEntry struct {
	key       string
	value     any
	expiresAt time.Time
	prev      *cacheEntry
	next      *cacheEntry
}

func newTTLCache(ttl time.Duration, maxEntries int) *ttlCache {
	return &ttlCache{
		ttl:        ttl,
		maxEntries: maxEntries,
		entries:    make(map[string]*cacheEntry),
	}
}

func (c *ttlCache) get(key string) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	if clock.Now().After(e.expiresAt) {
		c.removeEntry(e)
		return nil, false
	}
	c.moveToFront(e)
	return e.value, true
}

func (c *ttlCache) put(key string, value any) {
	c.mu.Lock()
	defer c.mu.Unlock()

	expiresAt := clock.Now().Add(c.ttl)
	if e, ok := c.entries[key]; ok {
		e.value = value
		e.expiresAt = expiresAt
		c.moveToFront(e)
		return
	}

	e := &cacheEntry{key: key, value: value, expiresAt: expiresAt}
	c.entries[key] = e
	c.addToFront(e)

	if len(c.entries) > c.maxEntries {
		c.evictTail()
	}
}

func (c *ttlCache) clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries = make(map[string]*cacheEntry)
	c.head = nil
	c.tail = nil
}

func (c *ttlCache) moveToFront(e *cacheEntry) {
	if e == c.head {
		return
	}
	c.unlink(e)
	c.addToFront(e)
}

func (c *ttlCache) addToFront(e *cacheEntry) {
	e.next = c.head
	e.prev = nil
	if c.head != nil {
		c.head.prev = e
	}
	c.head = e
	if c.tail == nil {
		c.tail = e
	}
}

func (c *ttlCache) removeEntry(e *cacheEntry) {
	delete(c.entries, e.key)
	c.unlink(e)
}

func (c *ttlCache) unlink(e *cacheEntry) {
	if e.prev != nil {
		e.prev.next = e.next
	} else {
		c.head = e.next
	}
	if e.next != nil {
		e.next.prev = e.prev
	} else {
		c.tail = e.prev
	}
}

func (c *ttlCache) evictTail() {
	if c.tail == nil {
		return
	}
	c.removeEntry(c.tail)
}

var _ domain.RidershipSource = (*CachedSource)(nil)
