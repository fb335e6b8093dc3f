package store

import (
	"context"
	"errors"
	"sync"

	"github.com/openstationmap/stationpipe/internal/gate"
	"github.com/openstationmap/stationpipe/internal/observability"
)

// KeyResolver resolves the sampling configuration for an API key.
type KeyResolver interface {
	APIKey(ctx context.Context, key string) (gate.APIKey, error)
}

// CachedKeyResolver wraps a KeyResolver with an in-memory LRU cache.
// Sampling configs change rarely; a bounded cache keeps the hot ingest
// path off the database.
type CachedKeyResolver struct {
	inner   KeyResolver
	cache   *lruCache
	metrics *observability.Metrics
}

// NewCachedKeyResolver creates a cache decorator around a resolver.
func NewCachedKeyResolver(inner KeyResolver, maxEntries int, metrics *observability.Metrics) *CachedKeyResolver {
	return &CachedKeyResolver{
		inner:   inner,
		cache:   newLRUCache(maxEntries),
		metrics: metrics,
	}
}

func (c *CachedKeyResolver) APIKey(ctx context.Context, key string) (gate.APIKey, error) {
	if cfg, ok := c.cache.get(key); ok {
		c.metrics.KeyLookups.WithLabelValues("hit").Inc()
		return cfg, nil
	}
	cfg, err := c.inner.APIKey(ctx, key)
	if errors.Is(err, ErrUnknownKey) {
		// Unknown keys are not cached so newly provisioned keys take
		// effect without a restart.
		c.metrics.KeyLookups.WithLabelValues("unknown").Inc()
		return cfg, err
	}
	if err != nil {
		return cfg, err
	}
	c.metrics.KeyLookups.WithLabelValues("miss").Inc()
	c.cache.put(key, cfg)
	return cfg, nil
}

// lruCache is a simple thread-safe LRU cache for API key configs.
type lruCache struct {
	maxEntries int
	mu         sync.Mutex
	entries    map[string]*entry
	head       *entry // most recently used
	tail       *entry // least recently used
}

type entry struct {
	key   string
	value gate.APIKey
	prev  *entry
	next  *entry
}

func newLRUCache(maxEntries int) *lruCache {
	return &lruCache{
		maxEntries: maxEntries,
		entries:    make(map[string]*entry),
	}
}

func (c *lruCache) get(key string) (gate.APIKey, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return gate.APIKey{}, false
	}
	c.moveToFront(e)
	return e.value, true
}

func (c *lruCache) put(key string, value gate.APIKey) {
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
