// Package aggregator merges registry entries with their remote manifests and
// repository metadata.
//
// Every entry is fetched concurrently and every fetch is bounded by a timeout,
// so a slow or broken marketplace only affects its own record. Aggregation
// never fails as a whole.
package aggregator

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"
	"k8s.io/utils/clock"

	"github.com/stacklok/marketplace-hub/internal/fetcher"
	"github.com/stacklok/marketplace-hub/internal/httpclient"
	"github.com/stacklok/marketplace-hub/internal/locator"
	"github.com/stacklok/marketplace-hub/internal/logging"
	"github.com/stacklok/marketplace-hub/internal/otel"
	"github.com/stacklok/marketplace-hub/internal/registry"
	"github.com/stacklok/marketplace-hub/internal/telemetry"
)

// TracerName is the name of the aggregation tracer
const TracerName = "github.com/stacklok/marketplace-hub/aggregator"

// Aggregator produces FetchedMarketplace records
//
//go:generate mockgen -destination=mocks/mock_aggregator.go -package=mocks -source=aggregator.go Aggregator
type Aggregator interface {
	// AggregateOne fetches a single entry
	AggregateOne(ctx context.Context, entry registry.Entry) FetchedMarketplace
	// AggregateAll fetches all entries concurrently; result i belongs to entries[i]
	AggregateAll(ctx context.Context, entries []registry.Entry) []FetchedMarketplace
}

// DefaultAggregator implements Aggregator over a manifest fetcher and an
// optional metadata fetcher
type DefaultAggregator struct {
	manifests fetcher.ManifestFetcher
	metadata  fetcher.RepoMetadataFetcher
	branches  locator.BranchResolver
	clock     clock.PassiveClock
	timeout   time.Duration
	tracer    trace.Tracer
	metrics   *telemetry.AggregationMetrics
}

var _ Aggregator = (*DefaultAggregator)(nil)

// Option configures a DefaultAggregator
type Option func(*DefaultAggregator)

// WithRepoMetadata enables repository metadata enrichment
func WithRepoMetadata(f fetcher.RepoMetadataFetcher) Option {
	return func(a *DefaultAggregator) {
		a.metadata = f
	}
}

// WithBranchResolver resolves the branch used for derived manifest URLs
func WithBranchResolver(r locator.BranchResolver) Option {
	return func(a *DefaultAggregator) {
		a.branches = r
	}
}

// WithClock sets the clock used for LastFetched
func WithClock(c clock.PassiveClock) Option {
	return func(a *DefaultAggregator) {
		a.clock = c
	}
}

// WithFetchTimeout bounds every individual fetch
func WithFetchTimeout(d time.Duration) Option {
	return func(a *DefaultAggregator) {
		if d > 0 {
			a.timeout = d
		}
	}
}

// WithTracer records a span per pass and per entry
func WithTracer(t trace.Tracer) Option {
	return func(a *DefaultAggregator) {
		a.tracer = t
	}
}

// WithMetrics records pass durations
func WithMetrics(m *telemetry.AggregationMetrics) Option {
	return func(a *DefaultAggregator) {
		a.metrics = m
	}
}

// New creates a DefaultAggregator
func New(manifests fetcher.ManifestFetcher, opts ...Option) *DefaultAggregator {
	a := &DefaultAggregator{
		manifests: manifests,
		clock:     clock.RealClock{},
		timeout:   httpclient.DefaultTimeout,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// AggregateOne implements Aggregator.AggregateOne
func (a *DefaultAggregator) AggregateOne(ctx context.Context, entry registry.Entry) FetchedMarketplace {
	return a.aggregate(ctx, entry, a.clock.Now())
}

// AggregateAll implements Aggregator.AggregateAll. All records share the
// pass timestamp.
func (a *DefaultAggregator) AggregateAll(ctx context.Context, entries []registry.Entry) []FetchedMarketplace {
	passID := uuid.NewString()
	start := a.clock.Now()

	ctx, span := otel.StartSpan(ctx, a.tracer, "aggregator.AggregateAll",
		trace.WithAttributes(
			otel.AttrPassID.String(passID),
			otel.AttrEntryCount.Int(len(entries)),
		),
	)
	defer span.End()

	log := logging.FromContext(ctx, "pass_id", passID)
	ctx = logging.NewContext(ctx, log)
	log.V(1).Info("Starting aggregation pass", "entries", len(entries))

	results := make([]FetchedMarketplace, len(entries))

	// Workers never return an error, so Wait only joins them
	var g errgroup.Group
	for i, entry := range entries {
		g.Go(func() error {
			results[i] = a.aggregate(ctx, entry, start)
			return nil
		})
	}
	_ = g.Wait()

	failed := 0
	for _, r := range results {
		if !r.OK() {
			failed++
		}
	}

	elapsed := a.clock.Since(start)
	span.SetAttributes(otel.AttrFailedCount.Int(failed))
	a.metrics.RecordPass(ctx, elapsed, len(entries), failed)
	log.Info("Aggregation pass completed",
		"entries", len(entries),
		"failed", failed,
		"duration", elapsed.String())

	return results
}

// aggregate runs the manifest and metadata fetches for one entry concurrently
func (a *DefaultAggregator) aggregate(ctx context.Context, entry registry.Entry, at time.Time) FetchedMarketplace {
	ctx, span := otel.StartSpan(ctx, a.tracer, "aggregator.AggregateOne",
		trace.WithAttributes(
			otel.AttrMarketplaceID.String(entry.ID),
			otel.AttrRepository.String(entry.Repository),
		),
	)
	defer span.End()

	metaCh := make(chan *fetcher.RepoMetadata, 1)
	go func() {
		metaCh <- a.fetchMetadata(ctx, entry)
	}()

	result := a.fetchManifest(ctx, entry, span)
	meta := <-metaCh

	var fm FetchedMarketplace
	if result.OK() {
		fm = Succeeded(entry, result.Data, meta, at)
	} else {
		fm = Failed(entry, result.Error, meta, at)
		otel.RecordFailure(span, fm.Error)
	}
	return fm
}

func (a *DefaultAggregator) fetchManifest(ctx context.Context, entry registry.Entry, span trace.Span) fetcher.Result {
	url := a.manifestURL(ctx, entry)
	if url == "" {
		logging.FromContext(ctx).Info("Cannot derive manifest URL", "id", entry.ID, "repository", entry.Repository)
		return fetcher.Result{}
	}
	span.SetAttributes(otel.AttrManifestURL.String(url))

	timeout := fetcher.Result{Error: fetcher.ErrMsgNetwork}
	return within(ctx, a.timeout, timeout, func(ctx context.Context) fetcher.Result {
		return a.manifests.Fetch(ctx, url)
	})
}

func (a *DefaultAggregator) fetchMetadata(ctx context.Context, entry registry.Entry) *fetcher.RepoMetadata {
	if a.metadata == nil || entry.Repository == "" {
		return nil
	}
	return within(ctx, a.timeout, nil, func(ctx context.Context) *fetcher.RepoMetadata {
		return a.metadata.Fetch(ctx, entry.Repository)
	})
}

// manifestURL returns the explicit manifest URL, or derives one from the
// repository. Branch resolution failures fall back to the default branch.
func (a *DefaultAggregator) manifestURL(ctx context.Context, entry registry.Entry) string {
	if entry.ManifestURL != "" {
		return entry.ManifestURL
	}

	repo := locator.ParseRepositoryURL(entry.Repository)
	if repo == nil {
		return ""
	}
	if a.branches == nil {
		return locator.BuildManifestURL(entry.Repository, repo.DefaultBranch)
	}

	branch := within(ctx, a.timeout, "", func(ctx context.Context) string {
		b, err := a.branches.DefaultBranch(ctx, *repo)
		if err != nil {
			logging.FromContext(ctx).V(1).Info("Falling back to default branch",
				"repository", repo.Slug(), "error", err.Error())
			return ""
		}
		return b
	})
	return locator.BuildManifestURL(entry.Repository, branch)
}

// within runs fn with a deadline and returns fallback if fn has not returned
// by then, even when fn ignores its context
func within[T any](ctx context.Context, d time.Duration, fallback T, fn func(context.Context) T) T {
	ctx, cancel := context.WithTimeout(ctx, d)
	defer cancel()

	done := make(chan T, 1)
	go func() {
		done <- fn(ctx)
	}()

	select {
	case v := <-done:
		return v
	case <-ctx.Done():
		return fallback
	}
}
