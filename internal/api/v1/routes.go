// Package v1 provides the marketplace hub REST endpoints.
package v1

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"k8s.io/utils/clock"

	"github.com/stacklok/marketplace-hub/internal/api/common"
	"github.com/stacklok/marketplace-hub/internal/logging"
	"github.com/stacklok/marketplace-hub/internal/service"
	"github.com/stacklok/marketplace-hub/internal/view"
)

// Routes handles HTTP requests for the v1 endpoints
type Routes struct {
	service service.MarketplaceService
	clock   clock.PassiveClock
}

// RoutesOption configures Routes
type RoutesOption func(*Routes)

// WithClock sets the clock used for relative update times
func WithClock(c clock.PassiveClock) RoutesOption {
	return func(r *Routes) {
		r.clock = c
	}
}

// NewRoutes creates a new Routes instance with the given service
func NewRoutes(svc service.MarketplaceService, opts ...RoutesOption) *Routes {
	routes := &Routes{
		service: svc,
		clock:   clock.RealClock{},
	}
	for _, opt := range opts {
		opt(routes)
	}
	return routes
}

// Router creates and configures the HTTP router for the v1 endpoints
func Router(svc service.MarketplaceService, opts ...RoutesOption) http.Handler {
	routes := NewRoutes(svc, opts...)

	r := chi.NewRouter()

	r.Get("/hub", routes.getHub)
	r.Get("/marketplaces", routes.listMarketplaces)
	r.Route("/marketplaces/{id}", func(r chi.Router) {
		r.Get("/", routes.getMarketplace)
		r.Get("/plugins", routes.listMarketplacePlugins)
	})
	r.Get("/plugins", routes.searchPlugins)

	return r
}

// getHub handles GET /api/v1/hub
func (routes *Routes) getHub(w http.ResponseWriter, r *http.Request) {
	hub, err := routes.service.Hub(r.Context())
	if err != nil {
		common.WriteErrorResponse(w, err.Error(), http.StatusServiceUnavailable)
		return
	}

	common.WriteJSONResponse(w, HubResponse{
		HubMetadata:       hub.Metadata,
		TotalMarketplaces: hub.Len(),
	}, http.StatusOK)
}

// listMarketplaces handles GET /api/v1/marketplaces
//
// Query parameters: q (substring), tags (comma separated, all required),
// sort (stars, updated, plugins, name) and fuzzy (bool).
func (routes *Routes) listMarketplaces(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	opts := []service.Option[service.ListMarketplacesOptions]{
		service.WithQuery(query.Get("q")),
	}
	if tags := common.QueryList(r, "tags"); len(tags) > 0 {
		opts = append(opts, service.WithTags(tags...))
	}
	if sortKey := query.Get("sort"); sortKey != "" {
		if _, err := view.ParseSortKey(sortKey); err != nil {
			common.WriteErrorResponse(w, err.Error(), http.StatusBadRequest)
			return
		}
		opts = append(opts, service.WithSort(sortKey))
	}
	if fuzzyStr := query.Get("fuzzy"); fuzzyStr != "" {
		fuzzy, err := strconv.ParseBool(fuzzyStr)
		if err != nil {
			common.WriteErrorResponse(w, "Invalid fuzzy parameter: must be a boolean", http.StatusBadRequest)
			return
		}
		opts = append(opts, service.WithFuzzy(fuzzy))
	}

	marketplaces, err := routes.service.ListMarketplaces(r.Context(), opts...)
	if err != nil {
		logging.FromContext(r.Context()).Error(err, "Failed to list marketplaces")
		common.WriteErrorResponse(w, err.Error(), http.StatusInternalServerError)
		return
	}

	now := routes.clock.Now()
	resp := ListMarketplacesResponse{
		Marketplaces: make([]MarketplaceResponse, 0, len(marketplaces)),
	}
	for _, m := range marketplaces {
		if !m.OK() {
			resp.Metadata.Failed++
		}
		resp.Marketplaces = append(resp.Marketplaces, newMarketplaceResponse(m, now, false))
	}
	resp.Metadata.Count = len(resp.Marketplaces)

	common.WriteJSONResponse(w, resp, http.StatusOK)
}

// getMarketplace handles GET /api/v1/marketplaces/{id}
func (routes *Routes) getMarketplace(w http.ResponseWriter, r *http.Request) {
	id, err := common.GetAndValidateURLParam(r, "id")
	if err != nil {
		common.WriteErrorResponse(w, err.Error(), http.StatusBadRequest)
		return
	}

	m, err := routes.service.GetMarketplace(r.Context(), id)
	if err != nil {
		routes.writeLookupError(w, r, err)
		return
	}

	common.WriteJSONResponse(w, newMarketplaceResponse(*m, routes.clock.Now(), true), http.StatusOK)
}

// listMarketplacePlugins handles GET /api/v1/marketplaces/{id}/plugins.
// A marketplace whose manifest failed has no plugins.
func (routes *Routes) listMarketplacePlugins(w http.ResponseWriter, r *http.Request) {
	id, err := common.GetAndValidateURLParam(r, "id")
	if err != nil {
		common.WriteErrorResponse(w, err.Error(), http.StatusBadRequest)
		return
	}

	m, err := routes.service.GetMarketplace(r.Context(), id)
	if err != nil {
		routes.writeLookupError(w, r, err)
		return
	}

	plugins := m.Plugins()
	resp := ListPluginsResponse{Plugins: make([]PluginResponse, 0, len(plugins))}
	for _, p := range plugins {
		pr := newPluginResponse(p)
		pr.MarketplaceID = m.ID
		pr.MarketplaceName = m.Name
		resp.Plugins = append(resp.Plugins, pr)
	}
	resp.Count = len(resp.Plugins)

	common.WriteJSONResponse(w, resp, http.StatusOK)
}

// searchPlugins handles GET /api/v1/plugins?q=
func (routes *Routes) searchPlugins(w http.ResponseWriter, r *http.Request) {
	matches, err := routes.service.SearchPlugins(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		if errors.Is(err, service.ErrEmptyQuery) {
			common.WriteErrorResponse(w, "Query parameter q is required", http.StatusBadRequest)
			return
		}
		common.WriteErrorResponse(w, err.Error(), http.StatusInternalServerError)
		return
	}

	resp := ListPluginsResponse{Plugins: make([]PluginResponse, 0, len(matches))}
	for _, m := range matches {
		resp.Plugins = append(resp.Plugins, newPluginMatchResponse(m))
	}
	resp.Count = len(resp.Plugins)

	common.WriteJSONResponse(w, resp, http.StatusOK)
}

func (*Routes) writeLookupError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, service.ErrMarketplaceNotFound) {
		common.WriteErrorResponse(w, err.Error(), http.StatusNotFound)
		return
	}
	logging.FromContext(r.Context()).Error(err, "Failed to get marketplace")
	common.WriteErrorResponse(w, "Failed to get marketplace", http.StatusInternalServerError)
}
