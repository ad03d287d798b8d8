// Package store holds parcel store decorators shared by the concrete backends.
package store

import (
	"context"
	"sync"

	"github.com/couchcryptid/parcel-delay-service/internal/domain"
	"github.com/couchcryptid/parcel-delay-service/internal/observability"
)

// CachedStore wraps a ParcelStore with an in-memory LRU cache.
type CachedStore struct {
	inner   domain.ParcelStore
	cache   *lruCache
	metrics *observability.Metrics
}

// NewCachedStore creates a cache decorator around a parcel store.
func NewCachedStore(inner domain.ParcelStore, maxEntries int, metrics *observability.Metrics) *CachedStore {
	return &CachedStore{
		inner:   inner,
		cache:   newLRUCache(maxEntries),
		metrics: metrics,
	}
}

func (c *CachedStore) Lookup(ctx context.Context, trackingID string) (domain.ParcelData, error) {
	key := domain.NormalizeTrackingID(trackingID)
	if p, ok := c.cache.get(key); ok {
		c.metrics.ParcelCache.WithLabelValues("hit").Inc()
		return withOwnActivities(p), nil
	}
	c.metrics.ParcelCache.WithLabelValues("miss").Inc()

	p, err := c.inner.Lookup(ctx, key)
	if err != nil {
		// Misses are not cached so a parcel registered later becomes visible.
		return p, err
	}
	c.cache.put(key, withOwnActivities(p))
	return p, nil
}

// withOwnActivities returns p with a copy of its activity slice so callers
// never share backing storage with a cached entry.
func withOwnActivities(p domain.ParcelData) domain.ParcelData {
	p.Activities = append([]domain.ActivityLog(nil), p.Activities...)
	return p
}

// CheckReadiness delegates to the wrapped store when it supports readiness.
func (c *CachedStore) CheckReadiness(ctx context.Context) error {
	if r, ok := c.inner.(interface{ CheckReadiness(context.Context) error }); ok {
		return r.CheckReadiness(ctx)
	}
	return nil
}

// lruCache is a simple thread-safe LRU cache of parcels.
type lruCache struct {
	maxEntries int
	mu         sync.Mutex
	entries    map[string]*entry
	head       *entry // most recently used
	tail       *entry // least recently used
}

type entry struct {
	key   string
	value domain.ParcelData
	prev  *entry
	next  *entry
}

func newLRUCache(maxEntries int) *lruCache {
	return &lruCache{
		maxEntries: maxEntries,
		entries:    make(map[string]*entry),
	}
}

func (c *lruCache) get(key string) (domain.ParcelData, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return domain.ParcelData{}, false
	}
	c.moveToFront(e)
	return e.value, true
}

func (c *lruCache) put(key string, value domain.ParcelData) {
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
