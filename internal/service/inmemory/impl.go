// Package inmemory provides an in-memory implementation of the MarketplaceService interface
package inmemory

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/singleflight"
	"k8s.io/utils/clock"

	"github.com/stacklok/marketplace-hub/internal/aggregator"
	"github.com/stacklok/marketplace-hub/internal/cache"
	"github.com/stacklok/marketplace-hub/internal/httpclient"
	"github.com/stacklok/marketplace-hub/internal/logging"
	"github.com/stacklok/marketplace-hub/internal/otel"
	"github.com/stacklok/marketplace-hub/internal/registry"
	"github.com/stacklok/marketplace-hub/internal/service"
	"github.com/stacklok/marketplace-hub/internal/telemetry"
	"github.com/stacklok/marketplace-hub/internal/versions"
	"github.com/stacklok/marketplace-hub/internal/view"
)

// DefaultSnapshotDuration is how long an aggregated listing is served before
// the next request triggers a background pass
const DefaultSnapshotDuration = 30 * time.Second

// TracerName is the name of the service tracer
const TracerName = "github.com/stacklok/marketplace-hub/service"

// mpSvc implements the MarketplaceService interface
type mpSvc struct {
	mu sync.RWMutex // Protects snapshot, lastFetch, generation

	// passes collapses concurrent aggregation passes into one
	passes singleflight.Group

	registry   registry.Manager
	aggregator aggregator.Aggregator
	client     httpclient.Client
	cache      cache.Cache
	clock      clock.PassiveClock
	tracer     trace.Tracer
	metrics    *telemetry.RegistryMetrics

	snapshot      []aggregator.FetchedMarketplace
	lastFetch     time.Time
	generation    uint64 // bumped on Reload so older passes are not stored
	cacheDuration time.Duration
}

var _ service.MarketplaceService = (*mpSvc)(nil)

// Option is a functional option for configuring the mpSvc
type Option func(*mpSvc)

// WithCacheDuration sets how long an aggregated snapshot is served
func WithCacheDuration(duration time.Duration) Option {
	return func(s *mpSvc) {
		s.cacheDuration = duration
	}
}

// WithHTTPClient sets the client used by ValidateMarketplaceURL
func WithHTTPClient(c httpclient.Client) Option {
	return func(s *mpSvc) {
		s.client = c
	}
}

// WithFetchCache registers the fetch cache that Reload purges
func WithFetchCache(c cache.Cache) Option {
	return func(s *mpSvc) {
		s.cache = c
	}
}

// WithClock sets the clock used for snapshot expiry
func WithClock(c clock.PassiveClock) Option {
	return func(s *mpSvc) {
		s.clock = c
	}
}

// WithTracer records a span per operation
func WithTracer(t trace.Tracer) Option {
	return func(s *mpSvc) {
		s.tracer = t
	}
}

// WithRegistryMetrics records the marketplace count on every reload
func WithRegistryMetrics(m *telemetry.RegistryMetrics) Option {
	return func(s *mpSvc) {
		s.metrics = m
	}
}

// New creates a new marketplace service over a loaded registry
func New(
	ctx context.Context,
	reg registry.Manager,
	agg aggregator.Aggregator,
	opts ...Option,
) (service.MarketplaceService, error) {
	if reg == nil {
		return nil, fmt.Errorf("registry manager is required")
	}
	if agg == nil {
		return nil, fmt.Errorf("aggregator is required")
	}

	s := &mpSvc{
		registry:      reg,
		aggregator:    agg,
		clock:         clock.RealClock{},
		cacheDuration: DefaultSnapshotDuration,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.client == nil {
		s.client = httpclient.NewDefaultClient(0)
	}

	s.metrics.RecordMarketplacesTotal(ctx, int64(reg.Get().Len()))
	return s, nil
}

// CheckReadiness implements MarketplaceService.CheckReadiness
func (s *mpSvc) CheckReadiness(_ context.Context) error {
	if s.registry.Get() == nil {
		return service.ErrRegistryNotLoaded
	}
	return nil
}

// Hub implements MarketplaceService.Hub
func (s *mpSvc) Hub(_ context.Context) (*registry.Hub, error) {
	hub := s.registry.Get()
	if hub == nil {
		return nil, service.ErrRegistryNotLoaded
	}
	return hub, nil
}

// ListMarketplaces implements MarketplaceService.ListMarketplaces
func (s *mpSvc) ListMarketplaces(
	ctx context.Context,
	opts ...service.Option[service.ListMarketplacesOptions],
) ([]aggregator.FetchedMarketplace, error) {
	options := &service.ListMarketplacesOptions{}
	for _, opt := range opts {
		if err := opt(options); err != nil {
			return nil, err
		}
	}

	ctx, span := otel.StartSpan(ctx, s.tracer, "service.ListMarketplaces")
	defer span.End()

	all := s.current(ctx)
	out := view.Apply(all, options.Query)

	span.SetAttributes(otel.AttrResultCount.Int(len(out)))
	return out, nil
}

// GetMarketplace implements MarketplaceService.GetMarketplace
func (s *mpSvc) GetMarketplace(ctx context.Context, id string) (*aggregator.FetchedMarketplace, error) {
	ctx, span := otel.StartSpan(ctx, s.tracer, "service.GetMarketplace",
		trace.WithAttributes(otel.AttrMarketplaceID.String(id)))
	defer span.End()

	entry, err := s.GetEntry(ctx, id)
	if err != nil {
		otel.RecordError(span, err)
		return nil, err
	}

	fm := view.Sanitized(s.aggregator.AggregateOne(ctx, *entry))
	return &fm, nil
}

// GetEntry implements MarketplaceService.GetEntry
func (s *mpSvc) GetEntry(_ context.Context, id string) (*registry.Entry, error) {
	entry, err := s.registry.Get().Lookup(id)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", service.ErrMarketplaceNotFound, id)
	}
	return &entry, nil
}

// SearchPlugins implements MarketplaceService.SearchPlugins
func (s *mpSvc) SearchPlugins(ctx context.Context, query string) ([]view.PluginMatch, error) {
	ctx, span := otel.StartSpan(ctx, s.tracer, "service.SearchPlugins")
	defer span.End()

	if strings.TrimSpace(query) == "" {
		return nil, service.ErrEmptyQuery
	}

	matches := view.SearchPlugins(s.current(ctx), query)
	if matches == nil {
		matches = []view.PluginMatch{}
	}

	span.SetAttributes(otel.AttrResultCount.Int(len(matches)))
	return matches, nil
}

// Refresh implements MarketplaceService.Refresh
func (s *mpSvc) Refresh(ctx context.Context) ([]aggregator.FetchedMarketplace, error) {
	return s.runPass(ctx)
}

// Reload implements MarketplaceService.Reload
func (s *mpSvc) Reload(ctx context.Context) (*registry.Hub, error) {
	previous := s.registry.Get()

	hub, err := s.registry.Reload(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to reload registry: %w", err)
	}

	if s.cache != nil {
		s.cache.Purge()
	}

	s.mu.Lock()
	s.snapshot = nil
	s.lastFetch = time.Time{}
	s.generation++
	s.mu.Unlock()
	// the next caller starts a pass over the new registry instead of joining one in flight
	s.passes.Forget(passKey)

	log := logging.FromContext(ctx)
	if previous != nil {
		from, to := previous.Metadata.Version, hub.Metadata.Version
		switch {
		case versions.IsNewerVersion(to, from):
			log.Info("Registry version changed", "from", from, "to", to)
		case versions.Compare(to, from) < 0:
			log.Info("Registry version went backwards", "from", from, "to", to)
		}
	}

	s.metrics.RecordMarketplacesTotal(ctx, int64(hub.Len()))
	log.Info("Registry reloaded, caches purged", "marketplaces", hub.Len())
	return hub, nil
}

// ValidateMarketplaceURL implements MarketplaceService.ValidateMarketplaceURL
func (s *mpSvc) ValidateMarketplaceURL(ctx context.Context, url string) bool {
	ctx, cancel := context.WithTimeout(ctx, httpclient.DefaultTimeout)
	defer cancel()

	status, err := s.client.Head(ctx, url)
	if err != nil {
		logging.FromContext(ctx).V(1).Info("Marketplace URL unreachable", "url", url, "error", err.Error())
		return false
	}
	return status >= 200 && status <= 299
}

// current returns the aggregated snapshot. An expired snapshot is still
// served while a background pass replaces it; only a missing snapshot makes
// the caller wait for a pass.
func (s *mpSvc) current(ctx context.Context) []aggregator.FetchedMarketplace {
	s.mu.RLock()
	snapshot := s.snapshot
	expired := s.expiredLocked()
	s.mu.RUnlock()

	if !expired {
		return snapshot
	}

	if snapshot != nil {
		// joins a pass already in flight rather than starting another
		s.passes.DoChan(passKey, s.pass(context.WithoutCancel(ctx)))
		return snapshot
	}

	results, err := s.runPass(ctx)
	if err != nil {
		logging.FromContext(ctx).Info("Aggregation pass failed", "error", err.Error())
		return nil
	}
	return results
}

// expiredLocked reports whether the snapshot is missing or too old.
// Caller must hold s.mu.
func (s *mpSvc) expiredLocked() bool {
	return s.snapshot == nil || s.clock.Since(s.lastFetch) > s.cacheDuration
}

const passKey = "aggregate-all"

// runPass aggregates the whole registry without holding s.mu, so readers keep
// the current snapshot while remotes are fetched. Concurrent callers share
// one pass.
func (s *mpSvc) runPass(ctx context.Context) ([]aggregator.FetchedMarketplace, error) {
	v, err, _ := s.passes.Do(passKey, s.pass(ctx))
	if err != nil {
		return nil, err
	}
	return v.([]aggregator.FetchedMarketplace), nil
}

func (s *mpSvc) pass(ctx context.Context) func() (any, error) {
	return func() (any, error) {
		s.mu.RLock()
		generation := s.generation
		s.mu.RUnlock()

		hub := s.registry.Get()
		if hub == nil {
			return nil, service.ErrRegistryNotLoaded
		}

		// A pass outlives the request that triggered it
		results := s.aggregator.AggregateAll(context.WithoutCancel(ctx), hub.Entries())
		for i := range results {
			results[i] = view.Sanitized(results[i])
		}

		s.mu.Lock()
		current := s.generation == generation
		if current {
			s.snapshot = results
			s.lastFetch = s.clock.Now()
		}
		s.mu.Unlock()
		if !current {
			logging.FromContext(ctx).V(1).Info("Registry reloaded during pass, result not kept")
		}
		return results, nil
	}
}
