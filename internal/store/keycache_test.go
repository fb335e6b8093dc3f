package store

import (
	"context"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openstationmap/stationpipe/internal/gate"
	"github.com/openstationmap/stationpipe/internal/observability"
)

// --- mock for cache tests ---

type countingResolver struct {
	calls int
	cfg   gate.APIKey
	err   error
}

func (m *countingResolver) APIKey(_ context.Context, _ string) (gate.APIKey, error) {
	m.calls++
	return m.cfg, m.err
}

// --- CachedKeyResolver tests ---

func lookupCount(m *observability.Metrics, result string) float64 {
	return testutil.ToFloat64(m.KeyLookups.WithLabelValues(result))
}

func TestCachedKeyResolver_CacheHit(t *testing.T) {
	inner := &countingResolver{cfg: gate.APIKey{Key: "test", SampleRate: 0.5, DailyLimit: 1000}}
	metrics := observability.NewMetricsForTesting()
	cached := NewCachedKeyResolver(inner, 10, metrics)

	c1, err := cached.APIKey(context.Background(), "test")
	require.NoError(t, err)
	assert.Equal(t, 0.5, c1.SampleRate)

	c2, err := cached.APIKey(context.Background(), "test")
	require.NoError(t, err)
	assert.Equal(t, c1, c2)

	assert.Equal(t, 1, inner.calls, "should only call inner once")
	assert.Equal(t, 1.0, lookupCount(metrics, "miss"))
	assert.Equal(t, 1.0, lookupCount(metrics, "hit"))
}

func TestCachedKeyResolver_DifferentKeysMiss(t *testing.T) {
	inner := &countingResolver{cfg: gate.APIKey{SampleRate: 1}}
	metrics := observability.NewMetricsForTesting()
	cached := NewCachedKeyResolver(inner, 10, metrics)

	_, _ = cached.APIKey(context.Background(), "alpha")
	_, _ = cached.APIKey(context.Background(), "beta")

	assert.Equal(t, 2, inner.calls)
	assert.Equal(t, 2.0, lookupCount(metrics, "miss"))
	assert.Equal(t, 0.0, lookupCount(metrics, "hit"))
}

func TestCachedKeyResolver_UnknownKeyNotCached(t *testing.T) {
	inner := &countingResolver{err: ErrUnknownKey}
	metrics := observability.NewMetricsForTesting()
	cached := NewCachedKeyResolver(inner, 10, metrics)

	_, err := cached.APIKey(context.Background(), "new-key")
	require.ErrorIs(t, err, ErrUnknownKey)

	_, err = cached.APIKey(context.Background(), "new-key")
	require.ErrorIs(t, err, ErrUnknownKey)

	assert.Equal(t, 2, inner.calls, "misses must reach the resolver every time")
	assert.Equal(t, 2.0, lookupCount(metrics, "unknown"))
}

// --- LRU cache unit tests ---

func TestLRUCache_BasicGetPut(t *testing.T) {
	c := newLRUCache(3)

	c.put("a", gate.APIKey{Key: "a"})
	c.put("b", gate.APIKey{Key: "b"})

	cfg, ok := c.get("a")
	assert.True(t, ok)
	assert.Equal(t, "a", cfg.Key)

	_, ok = c.get("missing")
	assert.False(t, ok)
}

func TestLRUCache_Eviction(t *testing.T) {
	c := newLRUCache(2)

	c.put("a", gate.APIKey{Key: "a"})
	c.put("b", gate.APIKey{Key: "b"})
	c.put("c", gate.APIKey{Key: "c"}) // evicts "a"

	_, ok := c.get("a")
	assert.False(t, ok, "a should have been evicted")

	_, ok = c.get("b")
	assert.True(t, ok)
	_, ok = c.get("c")
	assert.True(t, ok)
}

func TestLRUCache_AccessPromotesEntry(t *testing.T) {
	c := newLRUCache(2)

	c.put("a", gate.APIKey{Key: "a"})
	c.put("b", gate.APIKey{Key: "b"})

	// Access "a" to promote it
	c.get("a")

	// Insert "c" — should evict "b" (LRU), not "a"
	c.put("c", gate.APIKey{Key: "c"})

	_, ok := c.get("a")
	assert.True(t, ok, "a was accessed recently, should not be evicted")

	_, ok = c.get("b")
	assert.False(t, ok, "b should have been evicted")
}

func TestLRUCache_UpdateExisting(t *testing.T) {
	c := newLRUCache(2)

	c.put("a", gate.APIKey{Key: "a", SampleRate: 0.1})
	c.put("a", gate.APIKey{Key: "a", SampleRate: 0.9})

	cfg, ok := c.get("a")
	assert.True(t, ok)
	assert.Equal(t, 0.9, cfg.SampleRate)
}
