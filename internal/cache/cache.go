// Package cache memoizes remote fetch results keyed by URL and cache class.
//
// Entries are served while fresh. Once an entry outlives its TTL it is still
// served, and a single background refresh replaces it. Only successful fetches
// are stored, so a failed fetch is retried by the next caller.
package cache

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
	"k8s.io/utils/clock"

	"github.com/stacklok/marketplace-hub/internal/logging"
	"github.com/stacklok/marketplace-hub/internal/telemetry"
)

// Class separates cache entries that share a URL but hold different data
type Class string

const (
	// ClassManifest holds decoded marketplace manifests
	ClassManifest Class = "manifest"

	// ClassRepoMetadata holds repository popularity and freshness signals
	ClassRepoMetadata Class = "repo-metadata"
)

// Lookup results reported to metrics
const (
	resultHit   = "hit"
	resultStale = "stale"
	resultMiss  = "miss"
)

// Key identifies a cache entry
type Key struct {
	Class Class
	URL   string
}

// String implements fmt.Stringer
func (k Key) String() string {
	return string(k.Class) + " " + k.URL
}

// FetchFunc produces the value for a key. A non-nil error is returned to the
// caller and nothing is stored.
type FetchFunc func(ctx context.Context) (any, error)

// Cache is a get-or-fetch store for remote data
type Cache interface {
	// GetOrFetch returns the cached value for key, calling fetch on a miss.
	// A stale value is returned immediately while fetch refreshes it in the background.
	GetOrFetch(ctx context.Context, key Key, ttl time.Duration, fetch FetchFunc) (any, error)

	// Invalidate drops a single entry
	Invalidate(key Key)

	// Purge drops every entry
	Purge()

	// Len returns the number of stored entries, fresh or stale
	Len() int
}

type entry struct {
	value    any
	storedAt time.Time
	ttl      time.Duration
}

func (e entry) fresh(now time.Time) bool {
	return now.Sub(e.storedAt) < e.ttl
}

// MemoryCache is an in-process Cache
type MemoryCache struct {
	mu      sync.RWMutex // Protects entries, refreshing
	entries map[Key]entry

	// refreshing holds keys with a background refresh in flight
	refreshing map[Key]struct{}

	group   singleflight.Group
	clock   clock.PassiveClock
	metrics *telemetry.CacheMetrics
	wg      sync.WaitGroup
}

var _ Cache = (*MemoryCache)(nil)

// Option configures a MemoryCache
type Option func(*MemoryCache)

// WithClock sets the clock used for TTL checks
func WithClock(c clock.PassiveClock) Option {
	return func(m *MemoryCache) {
		m.clock = c
	}
}

// WithMetrics records hit, stale and miss counts
func WithMetrics(metrics *telemetry.CacheMetrics) Option {
	return func(m *MemoryCache) {
		m.metrics = metrics
	}
}

// New creates an empty MemoryCache
func New(opts ...Option) *MemoryCache {
	m := &MemoryCache{
		entries:    make(map[Key]entry),
		refreshing: make(map[Key]struct{}),
		clock:      clock.RealClock{},
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// GetOrFetch implements Cache.GetOrFetch
func (m *MemoryCache) GetOrFetch(ctx context.Context, key Key, ttl time.Duration, fetch FetchFunc) (any, error) {
	m.mu.RLock()
	e, ok := m.entries[key]
	m.mu.RUnlock()

	if ok {
		if e.fresh(m.clock.Now()) {
			m.metrics.RecordLookup(ctx, string(key.Class), resultHit)
			return e.value, nil
		}
		m.metrics.RecordLookup(ctx, string(key.Class), resultStale)
		m.refreshAsync(ctx, key, ttl, fetch)
		return e.value, nil
	}

	m.metrics.RecordLookup(ctx, string(key.Class), resultMiss)
	value, err, _ := m.group.Do(key.String(), func() (any, error) {
		// Double-check, a concurrent caller may have stored the entry already
		m.mu.RLock()
		e, ok := m.entries[key]
		m.mu.RUnlock()
		if ok && e.fresh(m.clock.Now()) {
			return e.value, nil
		}
		return m.fetchAndStore(ctx, key, ttl, fetch)
	})
	return value, err
}

// refreshAsync starts one background refresh per key. The refresh outlives the
// caller's request, so it runs on a context detached from its cancellation.
func (m *MemoryCache) refreshAsync(ctx context.Context, key Key, ttl time.Duration, fetch FetchFunc) {
	m.mu.Lock()
	if _, inFlight := m.refreshing[key]; inFlight {
		m.mu.Unlock()
		return
	}
	m.refreshing[key] = struct{}{}
	m.mu.Unlock()

	refreshCtx := context.WithoutCancel(ctx)
	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		defer func() {
			m.mu.Lock()
			delete(m.refreshing, key)
			m.mu.Unlock()
		}()

		_, err, _ := m.group.Do(key.String(), func() (any, error) {
			return m.fetchAndStore(refreshCtx, key, ttl, fetch)
		})
		if err != nil {
			logging.FromContext(refreshCtx).V(1).Info("Background refresh failed, keeping stale entry",
				"key", key.String(), "error", err.Error())
		}
	}()
}

func (m *MemoryCache) fetchAndStore(ctx context.Context, key Key, ttl time.Duration, fetch FetchFunc) (any, error) {
	value, err := fetch(ctx)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	m.entries[key] = entry{value: value, storedAt: m.clock.Now(), ttl: ttl}
	m.mu.Unlock()
	return value, nil
}

// Invalidate implements Cache.Invalidate
func (m *MemoryCache) Invalidate(key Key) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.entries, key)
}

// Purge implements Cache.Purge
func (m *MemoryCache) Purge() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = make(map[Key]entry)
}

// Len implements Cache.Len
func (m *MemoryCache) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}

// Wait blocks until background refreshes have finished
func (m *MemoryCache) Wait() {
	m.wg.Wait()
}

// Fetch is a typed wrapper around Cache.GetOrFetch
func Fetch[V any](
	ctx context.Context,
	c Cache,
	key Key,
	ttl time.Duration,
	fetch func(context.Context) (V, error),
) (V, error) {
	var zero V

	value, err := c.GetOrFetch(ctx, key, ttl, func(ctx context.Context) (any, error) {
		return fetch(ctx)
	})
	if err != nil {
		return zero, err
	}

	typed, ok := value.(V)
	if !ok {
		return zero, fmt.Errorf("cache entry %s holds %T", key, value)
	}
	return typed, nil
}
