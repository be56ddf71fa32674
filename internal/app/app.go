// Package app provides application lifecycle management for the marketplace hub.
package app

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/stacklok/marketplace-hub/internal/config"
	"github.com/stacklok/marketplace-hub/internal/logging"
)

// MarketplaceApp encapsulates all components needed to run the marketplace hub.
// It provides lifecycle management and graceful shutdown capabilities.
type MarketplaceApp struct {
	config        *config.Config
	components    *AppComponents
	httpServer    *http.Server
	ownsTelemetry bool

	// Lifecycle management
	ctx        context.Context
	cancelFunc context.CancelFunc
}

// Start starts the background workers and the HTTP server.
// It blocks until the HTTP server stops or encounters an error.
func (app *MarketplaceApp) Start() error {
	listener, err := net.Listen("tcp", app.httpServer.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", app.httpServer.Addr, err)
	}
	return app.Serve(listener)
}

// Serve is Start on an existing listener
func (app *MarketplaceApp) Serve(listener net.Listener) error {
	log := logging.FromContext(app.ctx)

	if app.config.Registry.Watch {
		go func() {
			if err := app.components.Registry.Watch(app.ctx); err != nil && !errors.Is(err, context.Canceled) {
				log.Error(err, "Registry watcher stopped")
			}
		}()
	}

	if app.components.Refresh != nil {
		go func() {
			if err := app.components.Refresh.Start(app.ctx); err != nil {
				log.Error(err, "Background refresh failed")
			}
		}()
	}

	log.Info("Server listening", "address", listener.Addr().String())
	if err := app.httpServer.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("HTTP server failed: %w", err)
	}
	return nil
}

// Stop gracefully stops the application with the given timeout.
// Background workers stop first, then the HTTP server drains.
func (app *MarketplaceApp) Stop(timeout time.Duration) error {
	log := logging.FromContext(app.ctx)
	log.Info("Shutting down server")

	if app.components.Refresh != nil {
		if err := app.components.Refresh.Stop(); err != nil {
			log.Error(err, "Failed to stop background refresh")
		}
	}

	if app.cancelFunc != nil {
		app.cancelFunc()
	}

	if err := app.components.Registry.Close(); err != nil {
		log.Error(err, "Failed to close registry watcher")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	var errs []error
	if err := app.httpServer.Shutdown(shutdownCtx); err != nil {
		errs = append(errs, fmt.Errorf("server forced to shutdown: %w", err))
	}
	if app.ownsTelemetry && app.components.Telemetry != nil {
		if err := app.components.Telemetry.Shutdown(shutdownCtx); err != nil {
			errs = append(errs, fmt.Errorf("failed to shut down telemetry: %w", err))
		}
	}

	log.Info("Server shutdown complete")
	return errors.Join(errs...)
}

// GetConfig returns the application configuration
func (app *MarketplaceApp) GetConfig() *config.Config {
	return app.config
}

// GetHTTPServer returns the HTTP server
func (app *MarketplaceApp) GetHTTPServer() *http.Server {
	return app.httpServer
}

// Components returns the wired application components
func (app *MarketplaceApp) Components() *AppComponents {
	return app.components
}
