package mapbox

import (
	"context"
	"testing"

	"github.com/couchcryptid/storm-hydrology-service/internal/domain"
	"github.com/couchcryptid/storm-hydrology-service/internal/observability"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- mock for cache tests ---

type countingGeocoder struct {
	forwardCalls int
	reverseCalls int
	result       domain.GeocodingResult
}

func (m *countingGeocoder) ForwardGeocode(_ context.Context, _ string) (domain.GeocodingResult, error) {
	m.forwardCalls++
	return m.result, nil
}

func (m *countingGeocoder) ReverseGeocode(_ context.Context, _, _ float64) (domain.GeocodingResult, error) {
	m.reverseCalls++
	return m.result, nil
}

// --- CachedGeocoder tests ---

func TestCachedGeocoder_ForwardCacheHit(t *testing.T) {
	inner := &countingGeocoder{
		result: domain.GeocodingResult{Lat: 40.0, Lon: -88.2, PlaceName: "Champaign", FormattedAddress: "Champaign, IL"},
	}
	metrics := observability.NewMetricsForTesting()
	cached := NewCachedGeocoder(inner, 10, metrics)

	r1, err := cached.ForwardGeocode(context.Background(), "Champaign, IL")
	require.NoError(t, err)
	assert.Equal(t, "Champaign", r1.PlaceName)

	// Case and spacing differences share a cache entry.
	r2, err := cached.ForwardGeocode(context.Background(), "  champaign,   IL ")
	require.NoError(t, err)
	assert.Equal(t, "Champaign", r2.PlaceName)

	assert.Equal(t, 1, inner.forwardCalls, "should only call inner once")
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.GeocodeCache.WithLabelValues("forward", "hit")))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.GeocodeCache.WithLabelValues("forward", "miss")))
}

func TestCachedGeocoder_ReverseCacheHit(t *testing.T) {
	inner := &countingGeocoder{
		result: domain.GeocodingResult{FormattedAddress: "Mahomet, IL"},
	}
	cached := NewCachedGeocoder(inner, 10, observability.NewMetricsForTesting())

	_, err := cached.ReverseGeocode(context.Background(), 40.0308, -88.5889)
	require.NoError(t, err)

	_, err = cached.ReverseGeocode(context.Background(), 40.0308, -88.5889)
	require.NoError(t, err)

	assert.Equal(t, 1, inner.reverseCalls, "should only call inner once")
}

func TestCachedGeocoder_EmptyResultNotCached(t *testing.T) {
	inner := &countingGeocoder{}
	cached := NewCachedGeocoder(inner, 10, observability.NewMetricsForTesting())

	_, _ = cached.ForwardGeocode(context.Background(), "Nowhere")
	_, _ = cached.ForwardGeocode(context.Background(), "Nowhere")

	assert.Equal(t, 2, inner.forwardCalls)
	assert.Equal(t, 0, cached.cache.len())
}

func TestCachedGeocoder_DifferentKeysMiss(t *testing.T) {
	inner := &countingGeocoder{
		result: domain.GeocodingResult{PlaceName: "Place", FormattedAddress: "Place, IL"},
	}
	cached := NewCachedGeocoder(inner, 10, observability.NewMetricsForTesting())

	_, _ = cached.ForwardGeocode(context.Background(), "Urbana, IL")
	_, _ = cached.ForwardGeocode(context.Background(), "Decatur, IL")

	assert.Equal(t, 2, inner.forwardCalls)
}

// --- LRU cache unit tests ---

func TestLRUCache_BasicGetPut(t *testing.T) {
	c := newLRUCache(3)

	c.put("a", domain.GeocodingResult{PlaceName: "A"})
	c.put("b", domain.GeocodingResult{PlaceName: "B"})

	result, ok := c.get("a")
	assert.True(t, ok)
	assert.Equal(t, "A", result.PlaceName)

	_, ok = c.get("missing")
	assert.False(t, ok)
}

func TestLRUCache_Eviction(t *testing.T) {
	c := newLRUCache(2)

	c.put("a", domain.GeocodingResult{PlaceName: "A"})
	c.put("b", domain.GeocodingResult{PlaceName: "B"})
	c.put("c", domain.GeocodingResult{PlaceName: "C"}) // evicts "a"

	_, ok := c.get("a")
	assert.False(t, ok, "a should have been evicted")
	assert.Equal(t, 2, c.len())

	result, ok := c.get("c")
	assert.True(t, ok)
	assert.Equal(t, "C", result.PlaceName)
}

func TestLRUCache_AccessPromotesEntry(t *testing.T) {
	c := newLRUCache(2)

	c.put("a", domain.GeocodingResult{PlaceName: "A"})
	c.put("b", domain.GeocodingResult{PlaceName: "B"})
	c.get("a")
	c.put("c", domain.GeocodingResult{PlaceName: "C"})

	_, ok := c.get("a")
	assert.True(t, ok, "a was accessed recently, should not be evicted")

	_, ok = c.get("b")
	assert.False(t, ok, "b should have been evicted")
}

func TestLRUCache_UpdateExisting(t *testing.T) {
	c := newLRUCache(2)

	c.put("a", domain.GeocodingResult{PlaceName: "A1"})
	c.put("a", domain.GeocodingResult{PlaceName: "A2"})

	result, ok := c.get("a")
	assert.True(t, ok)
	assert.Equal(t, "A2", result.PlaceName)
	assert.Equal(t, 1, c.len())
}
