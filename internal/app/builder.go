package app

import (
	"context"
	"fmt"
	"net/http"
	"net/netip"
	"strings"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"k8s.io/utils/clock"

	"github.com/stacklok/marketplace-hub/internal/aggregator"
	"github.com/stacklok/marketplace-hub/internal/api"
	"github.com/stacklok/marketplace-hub/internal/config"
	"github.com/stacklok/marketplace-hub/internal/logging"
	"github.com/stacklok/marketplace-hub/internal/refresh"
	"github.com/stacklok/marketplace-hub/internal/registry"
	"github.com/stacklok/marketplace-hub/internal/service/inmemory"
	"github.com/stacklok/marketplace-hub/internal/telemetry"
)

const (
	defaultRequestTimeout = 30 * time.Second
	defaultIdleTimeout    = 60 * time.Second
)

// MarketplaceAppOptions is a function that configures the marketplace app builder
type MarketplaceAppOptions func(*marketplaceAppConfig) error

// marketplaceAppConfig collects the builder inputs.
// Component overrides are primarily for tests.
type marketplaceAppConfig struct {
	config *config.Config

	registry   registry.Manager
	aggregator aggregator.Aggregator
	telemetry  *telemetry.Telemetry
	clock      clock.WithTicker

	// HTTP server options
	address        string
	middlewares    []func(http.Handler) http.Handler
	requestTimeout time.Duration
	idleTimeout    time.Duration
	disableAdmin   bool
}

func baseConfig(opts ...MarketplaceAppOptions) (*marketplaceAppConfig, error) {
	cfg := &marketplaceAppConfig{
		requestTimeout: defaultRequestTimeout,
		idleTimeout:    defaultIdleTimeout,
		clock:          clock.RealClock{},
	}

	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			return nil, err
		}
	}

	if cfg.config == nil {
		return nil, fmt.Errorf("config is required")
	}
	if cfg.address == "" {
		cfg.address = cfg.config.GetAddress()
	}
	return cfg, nil
}

// NewMarketplaceApp builds the application described by the configuration
func NewMarketplaceApp(
	ctx context.Context,
	opts ...MarketplaceAppOptions,
) (*MarketplaceApp, error) {
	b, err := baseConfig(opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to build base configuration: %w", err)
	}
	log := logging.FromContext(ctx)

	ownsTelemetry := b.telemetry == nil
	if ownsTelemetry {
		b.telemetry, err = telemetry.New(ctx, telemetry.WithTelemetryConfig(b.config.Telemetry))
		if err != nil {
			return nil, fmt.Errorf("failed to initialize telemetry: %w", err)
		}
	}

	// Ensure cleanup happens on error
	cleanupNeeded := true
	defer func() {
		if !cleanupNeeded {
			return
		}
		if b.registry != nil {
			_ = b.registry.Close()
		}
		if ownsTelemetry {
			_ = b.telemetry.Shutdown(context.WithoutCancel(ctx))
		}
	}()

	components, err := buildComponents(ctx, b)
	if err != nil {
		return nil, err
	}

	httpServer, err := buildHTTPServer(ctx, b, components)
	if err != nil {
		return nil, fmt.Errorf("failed to build HTTP server: %w", err)
	}

	appCtx, cancel := context.WithCancel(ctx)
	cleanupNeeded = false

	log.Info("Marketplace hub initialized",
		"address", b.address,
		"refresh", components.Refresh != nil,
		"watch", b.config.Registry.Watch,
	)

	return &MarketplaceApp{
		config:        b.config,
		components:    components,
		httpServer:    httpServer,
		ownsTelemetry: ownsTelemetry,
		ctx:           appCtx,
		cancelFunc:    cancel,
	}, nil
}

// WithConfig sets the configuration
func WithConfig(c *config.Config) MarketplaceAppOptions {
	return func(cfg *marketplaceAppConfig) error {
		cfg.config = c
		return nil
	}
}

// WithAddress sets the HTTP server address, overriding the configuration
func WithAddress(addr string) MarketplaceAppOptions {
	return func(cfg *marketplaceAppConfig) error {
		if addr == "" {
			return fmt.Errorf("address cannot be empty")
		}

		host, port, found := strings.Cut(addr, ":")
		if !found || port == "" {
			return fmt.Errorf("address is not a valid port: %s", addr)
		}
		if host == "localhost" {
			host = "127.0.0.1"
		}
		if host == "" {
			host = "0.0.0.0"
		}

		if _, err := netip.ParseAddrPort(host + ":" + port); err != nil {
			return fmt.Errorf("address is not a valid port: %w", err)
		}

		cfg.address = addr
		return nil
	}
}

// WithMiddlewares replaces the default HTTP middlewares
func WithMiddlewares(mw ...func(http.Handler) http.Handler) MarketplaceAppOptions {
	return func(cfg *marketplaceAppConfig) error {
		cfg.middlewares = mw
		return nil
	}
}

// WithRegistryManager injects a loaded registry instead of reading the configured file
func WithRegistryManager(m registry.Manager) MarketplaceAppOptions {
	return func(cfg *marketplaceAppConfig) error {
		cfg.registry = m
		return nil
	}
}

// WithAggregator injects the aggregator instead of building the fetchers
func WithAggregator(a aggregator.Aggregator) MarketplaceAppOptions {
	return func(cfg *marketplaceAppConfig) error {
		cfg.aggregator = a
		return nil
	}
}

// WithTelemetry injects telemetry providers; the caller keeps ownership
func WithTelemetry(t *telemetry.Telemetry) MarketplaceAppOptions {
	return func(cfg *marketplaceAppConfig) error {
		cfg.telemetry = t
		return nil
	}
}

// WithClock sets the clock used for caching and scheduling
func WithClock(c clock.WithTicker) MarketplaceAppOptions {
	return func(cfg *marketplaceAppConfig) error {
		cfg.clock = c
		return nil
	}
}

// WithoutAdmin disables the operator endpoints
func WithoutAdmin() MarketplaceAppOptions {
	return func(cfg *marketplaceAppConfig) error {
		cfg.disableAdmin = true
		return nil
	}
}

// buildComponents builds the registry, fetch pipeline, service and refresh coordinator
func buildComponents(ctx context.Context, b *marketplaceAppConfig) (*AppComponents, error) {
	log := logging.FromContext(ctx)
	log.V(1).Info("Initializing components")

	if b.registry == nil {
		manager, err := NewRegistryManager(ctx, b.config, b.telemetry)
		if err != nil {
			return nil, fmt.Errorf("failed to load registry: %w", err)
		}
		b.registry = manager
	}

	fetchCache, err := NewCache(b.telemetry)
	if err != nil {
		return nil, err
	}
	client := NewHTTPClient(b.config)

	if b.aggregator == nil {
		b.aggregator, err = BuildAggregator(b.config, client, fetchCache, b.telemetry)
		if err != nil {
			return nil, err
		}
	}

	registryMetrics, err := telemetry.NewRegistryMetrics(meterProvider(b.telemetry))
	if err != nil {
		return nil, fmt.Errorf("failed to create registry metrics: %w", err)
	}

	svc, err := inmemory.New(ctx, b.registry, b.aggregator,
		inmemory.WithHTTPClient(client),
		inmemory.WithFetchCache(fetchCache),
		inmemory.WithClock(b.clock),
		inmemory.WithTracer(tracer(b.telemetry, inmemory.TracerName)),
		inmemory.WithRegistryMetrics(registryMetrics),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create marketplace service: %w", err)
	}

	var coordinator refresh.Coordinator
	if b.config.RefreshEnabled() {
		coordinator = refresh.New(svc,
			refresh.WithInterval(b.config.GetRefreshInterval()),
			refresh.WithClock(b.clock),
		)
	}

	return &AppComponents{
		Registry:   b.registry,
		Cache:      fetchCache,
		Aggregator: b.aggregator,
		Service:    svc,
		Refresh:    coordinator,
		Telemetry:  b.telemetry,
	}, nil
}

// buildHTTPServer builds the HTTP server with router and middleware
func buildHTTPServer(
	ctx context.Context,
	b *marketplaceAppConfig,
	components *AppComponents,
) (*http.Server, error) {
	log := logging.FromContext(ctx)

	if b.middlewares == nil {
		b.middlewares = []func(http.Handler) http.Handler{
			middleware.RequestID,
			middleware.RealIP,
			middleware.Recoverer,
			middleware.Timeout(b.requestTimeout),
			api.LoggingMiddleware,
		}
	}

	// Telemetry middlewares go first so they observe every request
	metricsMiddleware, err := telemetry.MetricsMiddleware(meterProvider(b.telemetry))
	if err != nil {
		return nil, fmt.Errorf("failed to create metrics middleware: %w", err)
	}
	var first []func(http.Handler) http.Handler
	if b.telemetry != nil {
		first = append(first, telemetry.TracingMiddleware(b.telemetry.TracerProvider()))
	}
	if metricsMiddleware != nil {
		first = append(first, metricsMiddleware)
		log.V(1).Info("HTTP metrics middleware enabled")
	}
	middlewares := append(first, b.middlewares...)

	serverOpts := []api.ServerOption{
		api.WithMiddlewares(middlewares...),
		api.WithClock(b.clock),
	}
	if h := components.Telemetry.MetricsHandler(); h != nil {
		serverOpts = append(serverOpts, api.WithMetricsHandler(h))
	}
	if components.Refresh != nil {
		serverOpts = append(serverOpts, api.WithRefreshStatus(components.Refresh.Status))
	}
	if b.disableAdmin {
		serverOpts = append(serverOpts, api.WithoutAdmin())
	}

	return &http.Server{
		Addr:         b.address,
		Handler:      api.NewServer(components.Service, serverOpts...),
		ReadTimeout:  b.config.GetReadTimeout(),
		WriteTimeout: b.config.GetWriteTimeout(),
		IdleTimeout:  b.idleTimeout,
	}, nil
}
