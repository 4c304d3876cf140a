package nominatim

import (
	"context"
	"sync"

	"golang.org/x/time/rate"

	"github.com/couchcryptid/disaster-monitor/internal/domain"
	"github.com/couchcryptid/disaster-monitor/internal/observability"
)

// CachedGeocoder wraps a Geocoder with an in-memory LRU cache and a shared
// rate limiter enforcing the minimum delay between upstream calls. Cache
// hits do not consume limiter tokens, so a batch of records sharing a
// location costs one upstream call.
type CachedGeocoder struct {
	inner   domain.Geocoder
	cache   *lruCache
	limiter *rate.Limiter
	metrics *observability.Metrics
}

// NewCachedGeocoder creates a caching, rate-limited decorator around a
// geocoder. interval is the minimum spacing between upstream calls.
func NewCachedGeocoder(inner domain.Geocoder, maxEntries int, interval rate.Limit, metrics *observability.Metrics) *CachedGeocoder {
	return &CachedGeocoder{
		inner:   inner,
		cache:   newLRUCache(maxEntries),
		limiter: rate.NewLimiter(interval, 1),
		metrics: metrics,
	}
}

// Geocode serves the name from cache when possible, otherwise waits for the
// limiter and asks the inner geocoder. Both found and not-found answers are
// cached; transport errors are not, so a transient failure can be retried
// on a later run.
func (c *CachedGeocoder) Geocode(ctx context.Context, name string) (domain.GeocodeResult, error) {
	if result, ok := c.cache.get(name); ok {
		c.metrics.GeocodeCache.WithLabelValues("hit").Inc()
		return result, nil
	}
	c.metrics.GeocodeCache.WithLabelValues("miss").Inc()

	if err := c.limiter.Wait(ctx); err != nil {
		return domain.GeocodeResult{}, err
	}

	result, err := c.inner.Geocode(ctx, name)
	if err != nil {
		return result, err
	}
	c.cache.put(name, result)
	return result, nil
}

// lruCache is a simple thread-safe LRU cache keyed by location name.
type lruCache struct {
	maxEntries int
	mu         sync.Mutex
	entries    map[string]*entry
	head       *entry // most recently used
	tail       *entry // least recently used
}

type entry struct {
	key   string
	value domain.GeocodeResult
	prev  *entry
	next  *entry
}

func newLRUCache(maxEntries int) *lruCache {
	return &lruCache{
		maxEntries: maxEntries,
		entries:    make(map[string]*entry),
	}
}

func (c *lruCache) get(key string) (domain.GeocodeResult, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return domain.GeocodeResult{}, false
	}
	c.moveToFront(e)
	return e.value, true
}

func (c *lruCache) put(key string, value domain.GeocodeResult) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if e, ok := c.entries[key]; ok {
		e.value = value
		c.moveToFront(e)
		return
	}

	e := &entry{key: key, value: value}
	c.entries[key] = e
	c.addToFront(e)

	if len(c.entries) > c.maxEntries {
		c.evictTail()
	}
}

func (c *lruCache) moveToFront(e *entry) {
	if e == c.head {
		return
	}
	c.remove(e)
	c.addToFront(e)
}

func (c *lruCache) addToFront(e *entry) {
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

func (c *lruCache) remove(e *entry) {
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

func (c *lruCache) evictTail() {
	if c.tail == nil {
		return
	}
	delete(c.entries, c.tail.key)
	c.remove(c.tail)
}
