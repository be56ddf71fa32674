package app

import (
	"fmt"

	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/stacklok/marketplace-hub/internal/aggregator"
	"github.com/stacklok/marketplace-hub/internal/cache"
	"github.com/stacklok/marketplace-hub/internal/config"
	"github.com/stacklok/marketplace-hub/internal/fetcher"
	"github.com/stacklok/marketplace-hub/internal/httpclient"
	"github.com/stacklok/marketplace-hub/internal/locator"
	"github.com/stacklok/marketplace-hub/internal/refresh"
	"github.com/stacklok/marketplace-hub/internal/registry"
	"github.com/stacklok/marketplace-hub/internal/service"
	"github.com/stacklok/marketplace-hub/internal/telemetry"
)

// AppComponents groups all application components
//
//nolint:revive // This name is fine
type AppComponents struct {
	// Registry holds the loaded marketplace registry
	Registry registry.Manager

	// Cache holds fetched manifests and repository metadata
	Cache cache.Cache

	// Aggregator merges registry entries with their remote data
	Aggregator aggregator.Aggregator

	// Service provides marketplace business logic
	Service service.MarketplaceService

	// Refresh warms the cache in the background; nil when disabled
	Refresh refresh.Coordinator

	// Telemetry owns the tracer and meter providers
	Telemetry *telemetry.Telemetry
}

// meterProvider returns the telemetry meter provider, or nil
func meterProvider(tel *telemetry.Telemetry) metric.MeterProvider {
	if tel == nil {
		return nil
	}
	return tel.MeterProvider()
}

// tracer returns a named tracer, or nil when telemetry is absent
func tracer(tel *telemetry.Telemetry, name string) trace.Tracer {
	if tel == nil {
		return nil
	}
	return tel.Tracer(name)
}

// NewHTTPClient builds the outbound client used for manifests and URL checks
func NewHTTPClient(cfg *config.Config) *httpclient.DefaultClient {
	return httpclient.NewDefaultClient(cfg.GetFetchTimeout(), httpclient.WithUserAgent(cfg.GetUserAgent()))
}

// NewCache builds the shared fetch cache
func NewCache(tel *telemetry.Telemetry) (*cache.MemoryCache, error) {
	cacheMetrics, err := telemetry.NewCacheMetrics(meterProvider(tel))
	if err != nil {
		return nil, fmt.Errorf("failed to create cache metrics: %w", err)
	}
	return cache.New(cache.WithMetrics(cacheMetrics)), nil
}

// BuildAggregator wires the manifest and repository metadata fetchers into an
// aggregator configured from cfg
func BuildAggregator(
	cfg *config.Config,
	client *httpclient.DefaultClient,
	c cache.Cache,
	tel *telemetry.Telemetry,
) (aggregator.Aggregator, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}

	aggMetrics, err := telemetry.NewAggregationMetrics(meterProvider(tel))
	if err != nil {
		return nil, fmt.Errorf("failed to create aggregation metrics: %w", err)
	}

	manifests := fetcher.NewManifestFetcher(client,
		fetcher.WithManifestCache(c, cfg.GetManifestTTL()),
		fetcher.WithManifestTimeout(cfg.GetFetchTimeout()),
		fetcher.WithManifestMetrics(aggMetrics),
	)

	ghOpts := []fetcher.GitHubOption{
		fetcher.WithGitHubBaseURL(cfg.GetGitHubAPIURL()),
		fetcher.WithGitHubHTTPClient(client.HTTPClient()),
		fetcher.WithMetadataCache(c, cfg.GetMetadataTTL()),
		fetcher.WithMetadataTimeout(cfg.GetFetchTimeout()),
		fetcher.WithMetadataMetrics(aggMetrics),
	}
	if ua := cfg.GetUserAgent(); ua != "" {
		ghOpts = append(ghOpts, fetcher.WithGitHubUserAgent(ua))
	}
	if token := cfg.GetGitHubToken(); token != "" {
		ghOpts = append(ghOpts, fetcher.WithGitHubToken(token))
	}
	metadata, err := fetcher.NewGitHubMetadataFetcher(ghOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create repository metadata fetcher: %w", err)
	}

	aggOpts := []aggregator.Option{
		aggregator.WithRepoMetadata(metadata),
		aggregator.WithFetchTimeout(cfg.GetFetchTimeout()),
		aggregator.WithTracer(tracer(tel, aggregator.TracerName)),
		aggregator.WithMetrics(aggMetrics),
	}
	if cfg.Registry.ResolveDefaultBranch {
		aggOpts = append(aggOpts, aggregator.WithBranchResolver(locator.NewGitBranchResolver()))
	}

	return aggregator.New(manifests, aggOpts...), nil
}
