package fetcher

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/stacklok/marketplace-hub/internal/cache"
	"github.com/stacklok/marketplace-hub/internal/httpclient"
	"github.com/stacklok/marketplace-hub/internal/logging"
	"github.com/stacklok/marketplace-hub/internal/manifest"
	"github.com/stacklok/marketplace-hub/internal/telemetry"
)

// HTTPManifestFetcher fetches manifests with a plain GET
type HTTPManifestFetcher struct {
	client  httpclient.Client
	cache   cache.Cache
	ttl     time.Duration
	timeout time.Duration
	metrics *telemetry.AggregationMetrics
}

var _ ManifestFetcher = (*HTTPManifestFetcher)(nil)

// ManifestOption configures an HTTPManifestFetcher
type ManifestOption func(*HTTPManifestFetcher)

// WithManifestCache memoizes successful fetches for ttl
func WithManifestCache(c cache.Cache, ttl time.Duration) ManifestOption {
	return func(f *HTTPManifestFetcher) {
		f.cache = c
		f.ttl = ttl
	}
}

// WithManifestTimeout bounds each fetch
func WithManifestTimeout(d time.Duration) ManifestOption {
	return func(f *HTTPManifestFetcher) {
		if d > 0 {
			f.timeout = d
		}
	}
}

// WithManifestMetrics counts fetch outcomes
func WithManifestMetrics(m *telemetry.AggregationMetrics) ManifestOption {
	return func(f *HTTPManifestFetcher) {
		f.metrics = m
	}
}

// NewManifestFetcher creates a manifest fetcher over client
func NewManifestFetcher(client httpclient.Client, opts ...ManifestOption) *HTTPManifestFetcher {
	f := &HTTPManifestFetcher{
		client:  client,
		timeout: httpclient.DefaultTimeout,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Fetch implements ManifestFetcher.Fetch
func (f *HTTPManifestFetcher) Fetch(ctx context.Context, url string) Result {
	get := func(ctx context.Context) (*manifest.Manifest, error) {
		return f.fetch(ctx, url)
	}

	var (
		m   *manifest.Manifest
		err error
	)
	if f.cache != nil {
		m, err = cache.Fetch(ctx, f.cache, cache.Key{Class: cache.ClassManifest, URL: url}, f.ttl, get)
	} else {
		m, err = get(ctx)
	}

	if err != nil {
		return Result{Error: failureMessage(err)}
	}
	return Result{Data: m}
}

// fetch performs one uncached GET and decode
func (f *HTTPManifestFetcher) fetch(ctx context.Context, url string) (*manifest.Manifest, error) {
	log := logging.FromContext(ctx, "url", url)

	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	data, err := f.client.Get(ctx, url)
	if err == nil {
		var m *manifest.Manifest
		if m, err = manifest.Decode(data); err == nil {
			for _, warning := range manifest.Warnings(m) {
				log.V(1).Info("Manifest warning", "warning", warning)
			}
			f.metrics.RecordFetch(ctx, kindManifest, true)
			return m, nil
		}
	}

	log.Info("Failed to fetch marketplace manifest", "reason", failureMessage(err), "error", err.Error())
	f.metrics.RecordFetch(ctx, kindManifest, false)
	return nil, err
}

// failureMessage classifies a fetch error into the message shown to users
func failureMessage(err error) string {
	switch code := httpclient.StatusCode(err); {
	case code == http.StatusNotFound:
		return ErrMsgNotFound
	case code != 0:
		return fmt.Sprintf("HTTP %d", code)
	default:
		return ErrMsgNetwork
	}
}
