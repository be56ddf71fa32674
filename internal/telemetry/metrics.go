package telemetry

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const (
	// RegistryMetricsMeterName is the name used for the registry metrics meter
	RegistryMetricsMeterName = "github.com/stacklok/marketplace-hub/registry"

	// AggregationMetricsMeterName is the name used for the aggregation metrics meter
	AggregationMetricsMeterName = "github.com/stacklok/marketplace-hub/aggregation"

	// CacheMetricsMeterName is the name used for the fetch cache metrics meter
	CacheMetricsMeterName = "github.com/stacklok/marketplace-hub/cache"
)

// RegistryMetrics holds the OpenTelemetry instruments for registry metrics
type RegistryMetrics struct {
	marketplacesTotal metric.Int64Gauge
}

// NewRegistryMetrics creates a new RegistryMetrics instance with the given meter provider.
// If provider is nil, it returns nil (no-op metrics).
func NewRegistryMetrics(provider metric.MeterProvider) (*RegistryMetrics, error) {
	if provider == nil {
		return nil, nil
	}

	meter := provider.Meter(RegistryMetricsMeterName)

	marketplacesTotal, err := meter.Int64Gauge(
		"marketplace_hub_marketplaces_total",
		metric.WithDescription("Number of marketplaces in the loaded registry"),
		metric.WithUnit("{marketplace}"),
	)
	if err != nil {
		return nil, err
	}

	return &RegistryMetrics{
		marketplacesTotal: marketplacesTotal,
	}, nil
}

// RecordMarketplacesTotal records the number of registered marketplaces
func (m *RegistryMetrics) RecordMarketplacesTotal(ctx context.Context, count int64) {
	if m == nil || m.marketplacesTotal == nil {
		return
	}
	m.marketplacesTotal.Record(ctx, count)
}

// AggregationMetrics holds the OpenTelemetry instruments for aggregation passes
type AggregationMetrics struct {
	passDuration metric.Float64Histogram
	fetchesTotal metric.Int64Counter
}

// NewAggregationMetrics creates a new AggregationMetrics instance with the given meter provider.
// If provider is nil, it returns nil (no-op metrics).
func NewAggregationMetrics(provider metric.MeterProvider) (*AggregationMetrics, error) {
	if provider == nil {
		return nil, nil
	}

	meter := provider.Meter(AggregationMetricsMeterName)

	passDuration, err := meter.Float64Histogram(
		"marketplace_hub_aggregation_duration_seconds",
		metric.WithDescription("Duration of aggregation passes in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 20, 30),
	)
	if err != nil {
		return nil, err
	}

	fetchesTotal, err := meter.Int64Counter(
		"marketplace_hub_fetches_total",
		metric.WithDescription("Number of manifest and repository metadata fetches by outcome"),
		metric.WithUnit("{fetch}"),
	)
	if err != nil {
		return nil, err
	}

	return &AggregationMetrics{
		passDuration: passDuration,
		fetchesTotal: fetchesTotal,
	}, nil
}

// RecordPass records one aggregation pass over entries marketplaces, of which failed
// ended with an error
func (m *AggregationMetrics) RecordPass(ctx context.Context, duration time.Duration, entries, failed int) {
	if m == nil || m.passDuration == nil {
		return
	}

	attrs := []attribute.KeyValue{
		attribute.Int("entries", entries),
		attribute.Bool("partial", failed > 0),
	}

	m.passDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(attrs...))
}

// RecordFetch counts a single fetch. kind is "manifest" or "repo-metadata".
func (m *AggregationMetrics) RecordFetch(ctx context.Context, kind string, success bool) {
	if m == nil || m.fetchesTotal == nil {
		return
	}

	attrs := []attribute.KeyValue{
		attribute.String("kind", kind),
		attribute.Bool("success", success),
	}

	m.fetchesTotal.Add(ctx, 1, metric.WithAttributes(attrs...))
}

// CacheMetrics holds the OpenTelemetry instruments for the fetch cache
type CacheMetrics struct {
	lookupsTotal metric.Int64Counter
}

// NewCacheMetrics creates a new CacheMetrics instance with the given meter provider.
// If provider is nil, it returns nil (no-op metrics).
func NewCacheMetrics(provider metric.MeterProvider) (*CacheMetrics, error) {
	if provider == nil {
		return nil, nil
	}

	meter := provider.Meter(CacheMetricsMeterName)

	lookupsTotal, err := meter.Int64Counter(
		"marketplace_hub_cache_lookups_total",
		metric.WithDescription("Number of cache lookups by class and result"),
		metric.WithUnit("{lookup}"),
	)
	if err != nil {
		return nil, err
	}

	return &CacheMetrics{
		lookupsTotal: lookupsTotal,
	}, nil
}

// RecordLookup counts one lookup. result is "hit", "stale" or "miss".
func (m *CacheMetrics) RecordLookup(ctx context.Context, class, result string) {
	if m == nil || m.lookupsTotal == nil {
		return
	}

	attrs := []attribute.KeyValue{
		attribute.String("class", class),
		attribute.String("result", result),
	}

	m.lookupsTotal.Add(ctx, 1, metric.WithAttributes(attrs...))
}
