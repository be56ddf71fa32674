package app

import (
	"context"
	"fmt"

	"github.com/stacklok/marketplace-hub/internal/config"
	"github.com/stacklok/marketplace-hub/internal/filtering"
	"github.com/stacklok/marketplace-hub/internal/logging"
	"github.com/stacklok/marketplace-hub/internal/registry"
	"github.com/stacklok/marketplace-hub/internal/telemetry"
)

// NewRegistryManager loads the registry configured in cfg, applying the
// configured id and tag filters to every load.
//
// The registry size is recorded on every successful load, including loads
// triggered by the file watcher.
func NewRegistryManager(ctx context.Context, cfg *config.Config, tel *telemetry.Telemetry) (registry.Manager, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}

	registryMetrics, err := telemetry.NewRegistryMetrics(meterProvider(tel))
	if err != nil {
		return nil, fmt.Errorf("failed to create registry metrics: %w", err)
	}

	opts := []registry.ManagerOption{
		registry.WithReloadHook(func(hub *registry.Hub) {
			registryMetrics.RecordMarketplacesTotal(context.Background(), int64(hub.Len()))
		}),
	}
	if cfg.Registry.Filter != nil {
		filter, err := filtering.New(cfg.Registry.Filter)
		if err != nil {
			return nil, fmt.Errorf("invalid registry filter: %w", err)
		}
		opts = append(opts, registry.WithFilter(filter))
	}

	manager, err := registry.NewManager(ctx, cfg.Registry.Path, opts...)
	if err != nil {
		return nil, err
	}

	count := manager.Get().Len()
	logging.FromContext(ctx).Info(fmt.Sprintf("Serving %d marketplace%s", count, pluralize(count, "", "s")),
		"path", cfg.Registry.Path,
		"filtered", cfg.Registry.Filter != nil,
	)
	return manager, nil
}

// pluralize returns singular or plural suffix based on count
func pluralize(count int, singular, plural string) string {
	if count == 1 {
		return singular
	}
	return plural
}
