// Package api provides the REST API server for the marketplace hub.
package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"k8s.io/utils/clock"

	v1 "github.com/stacklok/marketplace-hub/internal/api/v1"
	"github.com/stacklok/marketplace-hub/internal/logging"
	"github.com/stacklok/marketplace-hub/internal/refresh"
	"github.com/stacklok/marketplace-hub/internal/service"
)

// ServerOption configures the API server
type ServerOption func(*serverConfig)

// serverConfig holds the server configuration
type serverConfig struct {
	middlewares    []func(http.Handler) http.Handler
	metricsHandler http.Handler
	refreshStatus  func() refresh.Status
	clock          clock.PassiveClock
	disableAdmin   bool
}

// WithMiddlewares adds middleware to the server
func WithMiddlewares(mw ...func(http.Handler) http.Handler) ServerOption {
	return func(cfg *serverConfig) {
		cfg.middlewares = append(cfg.middlewares, mw...)
	}
}

// WithMetricsHandler serves h at /metrics
func WithMetricsHandler(h http.Handler) ServerOption {
	return func(cfg *serverConfig) {
		cfg.metricsHandler = h
	}
}

// WithRefreshStatus exposes the background refresh status at /admin/refresh
func WithRefreshStatus(fn func() refresh.Status) ServerOption {
	return func(cfg *serverConfig) {
		cfg.refreshStatus = fn
	}
}

// WithClock sets the clock used to render relative times
func WithClock(c clock.PassiveClock) ServerOption {
	return func(cfg *serverConfig) {
		cfg.clock = c
	}
}

// WithoutAdmin leaves the /admin routes unmounted
func WithoutAdmin() ServerOption {
	return func(cfg *serverConfig) {
		cfg.disableAdmin = true
	}
}

// NewServer creates and configures the HTTP router with the given service and options
func NewServer(svc service.MarketplaceService, opts ...ServerOption) *chi.Mux {
	cfg := &serverConfig{
		clock: clock.RealClock{},
	}
	for _, opt := range opts {
		opt(cfg)
	}

	r := chi.NewRouter()
	for _, mw := range cfg.middlewares {
		r.Use(mw)
	}

	// Health, readiness and version live at the root
	r.Mount("/", v1.HealthRouter(svc))

	if cfg.metricsHandler != nil {
		r.Handle("/metrics", cfg.metricsHandler)
	}

	r.Mount("/api/v1", v1.Router(svc, v1.WithClock(cfg.clock)))

	if !cfg.disableAdmin {
		r.Mount("/admin", v1.AdminRouter(svc, cfg.refreshStatus))
	}

	return r
}

// LoggingMiddleware logs HTTP requests
func LoggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		logging.FromContext(r.Context()).V(1).Info("HTTP request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration", time.Since(start).String(),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}
