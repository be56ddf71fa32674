package app

import (
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/stacklok/marketplace-hub/internal/app"
	"github.com/stacklok/marketplace-hub/internal/config"
	"github.com/stacklok/marketplace-hub/internal/logging"
)

const defaultGracefulTimeout = 30 * time.Second

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the marketplace hub API server",
		Long: `Start the marketplace hub API server.

The registry is read from --registry, or from the registry.path setting of the
configuration file given with --config. Every flag can also be set through a
MARKETPLACE_HUB_<FLAG> environment variable.`,
		RunE: runServe,
	}

	addConfigFlags(cmd.Flags())
	cmd.Flags().String("address", "", "Address to listen on (default from configuration, or :8080)")
	cmd.Flags().Bool("watch", false, "Reload the registry when the file changes")
	cmd.Flags().Bool("refresh", false, "Warm the caches with periodic background aggregation")
	cmd.Flags().Duration("shutdown-timeout", defaultGracefulTimeout, "Graceful shutdown timeout")

	return cmd
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	v, err := newViper(cmd)
	if err != nil {
		return err
	}
	cfg, err := loadConfig(v)
	if err != nil {
		return err
	}
	if v.GetBool("watch") {
		cfg.Registry.Watch = true
	}
	if v.GetBool("refresh") {
		if cfg.Refresh == nil {
			cfg.Refresh = &config.RefreshConfig{}
		}
		cfg.Refresh.Enabled = true
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	log := logging.FromContext(ctx)
	log.Info("Starting marketplace hub", "registry", cfg.Registry.Path)

	opts := []app.MarketplaceAppOptions{app.WithConfig(cfg)}
	if address := v.GetString("address"); address != "" {
		opts = append(opts, app.WithAddress(address))
	}

	hub, err := app.NewMarketplaceApp(ctx, opts...)
	if err != nil {
		return fmt.Errorf("failed to create marketplace hub: %w", err)
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- hub.Start()
	}()

	select {
	case err := <-errCh:
		if err != nil {
			_ = hub.Stop(v.GetDuration("shutdown-timeout"))
			return err
		}
		return nil
	case <-ctx.Done():
	}

	if err := hub.Stop(v.GetDuration("shutdown-timeout")); err != nil {
		log.Error(err, "Graceful shutdown failed")
		return err
	}
	return <-errCh
}
