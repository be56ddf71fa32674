package v1

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/stacklok/marketplace-hub/internal/api/common"
	"github.com/stacklok/marketplace-hub/internal/service"
	"github.com/stacklok/marketplace-hub/internal/versions"
)

// HealthRouter creates a router for health check endpoints
func HealthRouter(svc service.MarketplaceService) http.Handler {
	r := chi.NewRouter()

	r.Get("/health", healthHandler)
	r.Get("/readiness", readinessHandler(svc))
	r.Get("/version", versionHandler)

	return r
}

// healthHandler handles health check requests
func healthHandler(w http.ResponseWriter, _ *http.Request) {
	common.WriteJSONResponse(w, HealthResponse{Status: "healthy"}, http.StatusOK)
}

// readinessHandler reports ready once a registry is loaded
func readinessHandler(svc service.MarketplaceService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := svc.CheckReadiness(r.Context()); err != nil {
			common.WriteErrorResponse(w, "Service not ready: "+err.Error(), http.StatusServiceUnavailable)
			return
		}
		common.WriteJSONResponse(w, HealthResponse{Status: "ready"}, http.StatusOK)
	}
}

// versionHandler handles version information requests
func versionHandler(w http.ResponseWriter, _ *http.Request) {
	common.WriteJSONResponse(w, versions.GetVersionInfo(), http.StatusOK)
}
