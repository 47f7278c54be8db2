package mapbox

import (
	"container/list"
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/couchcryptid/storm-hydrology-service/internal/domain"
	"github.com/couchcryptid/storm-hydrology-service/internal/observability"
)

// CachedGeocoder wraps a Geocoder with an in-memory LRU cache. IDF tables for
// one project tend to share a handful of sites, so repeated saves rarely reach
// the provider.
type CachedGeocoder struct {
	inner   domain.Geocoder
	cache   *lruCache
	metrics *observability.Metrics
}

// NewCachedGeocoder creates a cache decorator around a geocoder.
func NewCachedGeocoder(inner domain.Geocoder, maxEntries int, metrics *observability.Metrics) *CachedGeocoder {
	return &CachedGeocoder{
		inner:   inner,
		cache:   newLRUCache(maxEntries),
		metrics: metrics,
	}
}

func (c *CachedGeocoder) ForwardGeocode(ctx context.Context, query string) (domain.GeocodingResult, error) {
	key := "fwd:" + strings.ToLower(strings.Join(strings.Fields(query), " "))
	return c.lookup("forward", key, func() (domain.GeocodingResult, error) {
		return c.inner.ForwardGeocode(ctx, query)
	})
}

func (c *CachedGeocoder) ReverseGeocode(ctx context.Context, lat, lon float64) (domain.GeocodingResult, error) {
	key := fmt.Sprintf("rev:%.6f,%.6f", lat, lon)
	return c.lookup("reverse", key, func() (domain.GeocodingResult, error) {
		return c.inner.ReverseGeocode(ctx, lat, lon)
	})
}

func (c *CachedGeocoder) lookup(method, key string, fetch func() (domain.GeocodingResult, error)) (domain.GeocodingResult, error) {
	if result, ok := c.cache.get(key); ok {
		c.metrics.GeocodeCache.WithLabelValues(method, "hit").Inc()
		return result, nil
	}
	c.metrics.GeocodeCache.WithLabelValues(method, "miss").Inc()

	result, err := fetch()
	if err != nil {
		return result, err
	}
	// Only cache non-empty results so transient "not found" responses can be retried.
	if result.FormattedAddress != "" {
		c.cache.put(key, result)
	}
	return result, nil
}

// lruCache is a thread-safe LRU cache for GeocodingResults. The list front
// holds the most recently used entry.
type lruCache struct {
	maxEntries int
	mu         sync.Mutex
	order      *list.List
	entries    map[string]*list.Element
}

type cacheEntry struct {
	key   string
	value domain.GeocodingResult
}

func newLRUCache(maxEntries int) *lruCache {
	if maxEntries < 1 {
		maxEntries = 1
	}
	return &lruCache{
		maxEntries: maxEntries,
		order:      list.New(),
		entries:    make(map[string]*list.Element),
	}
}

func (c *lruCache) get(key string) (domain.GeocodingResult, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	el, ok := c.entries[key]
	if !ok {
		return domain.GeocodingResult{}, false
	}
	c.order.MoveToFront(el)
	return el.Value.(*cacheEntry).value, true
}

func (c *lruCache) put(key string, value domain.GeocodingResult) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if el, ok := c.entries[key]; ok {
		el.Value.(*cacheEntry).value = value
		c.order.MoveToFront(el)
		return
	}

	c.entries[key] = c.order.PushFront(&cacheEntry{key: key, value: value})
	if c.order.Len() > c.maxEntries {
		oldest := c.order.Back()
		c.order.Remove(oldest)
		delete(c.entries, oldest.Value.(*cacheEntry).key)
	}
}

func (c *lruCache) len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.order.Len()
}
