package v1

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/stacklok/marketplace-hub/internal/api/common"
	"github.com/stacklok/marketplace-hub/internal/logging"
	"github.com/stacklok/marketplace-hub/internal/refresh"
	"github.com/stacklok/marketplace-hub/internal/service"
	"github.com/stacklok/marketplace-hub/internal/view"
)

// StatusFunc reports the background refresh status
type StatusFunc func() refresh.Status

// AdminRouter creates a router for operator endpoints. status may be nil
// when background refresh is disabled.
func AdminRouter(svc service.MarketplaceService, status StatusFunc) http.Handler {
	r := chi.NewRouter()

	r.Post("/reload", reloadHandler(svc))
	r.Post("/validate", validateHandler(svc))
	r.Get("/refresh", refreshStatusHandler(status))

	return r
}

// reloadHandler handles POST /admin/reload
func reloadHandler(svc service.MarketplaceService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		hub, err := svc.Reload(r.Context())
		if err != nil {
			// the previous registry is still being served
			logging.FromContext(r.Context()).Error(err, "Registry reload rejected")
			common.WriteErrorResponse(w, err.Error(), http.StatusUnprocessableEntity)
			return
		}

		common.WriteJSONResponse(w, ReloadResponse{
			Status:       "reloaded",
			Marketplaces: hub.Len(),
			Version:      hub.Metadata.Version,
		}, http.StatusOK)
	}
}

// validateHandler handles POST /admin/validate
func validateHandler(svc service.MarketplaceService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req ValidateRequest
		if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<16)).Decode(&req); err != nil {
			common.WriteErrorResponse(w, "Invalid request body", http.StatusBadRequest)
			return
		}
		if view.SafeURL(req.URL) == "" {
			common.WriteErrorResponse(w, "url must be an absolute https URL", http.StatusBadRequest)
			return
		}

		common.WriteJSONResponse(w, ValidateResponse{
			URL:       req.URL,
			Reachable: svc.ValidateMarketplaceURL(r.Context(), req.URL),
		}, http.StatusOK)
	}
}

// refreshStatusHandler handles GET /admin/refresh
func refreshStatusHandler(status StatusFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		if status == nil {
			common.WriteErrorResponse(w, "Background refresh is disabled", http.StatusNotFound)
			return
		}
		common.WriteJSONResponse(w, status(), http.StatusOK)
	}
}
