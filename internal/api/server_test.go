package api_test

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/stacklok/marketplace-hub/internal/api"
	"github.com/stacklok/marketplace-hub/internal/refresh"
	"github.com/stacklok/marketplace-hub/internal/registry"
	"github.com/stacklok/marketplace-hub/internal/service/mocks"
)

func TestHealthEndpoint(t *testing.T) {
	t.Parallel()
	ctrl := gomock.NewController(t)

	mockSvc := mocks.NewMockMarketplaceService(ctrl)
	// No expectations needed - health check doesn't call service
	server := api.NewServer(mockSvc)

	req, err := http.NewRequest("GET", "/health", nil)
	require.NoError(t, err)

	rr := httptest.NewRecorder()
	server.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))

	var response map[string]string
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &response))
	assert.Equal(t, "healthy", response["status"])
}

func TestReadinessEndpoint(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name           string
		setupMock      func(*mocks.MockMarketplaceService)
		expectedStatus int
		expectedBody   string
	}{
		{
			name: "service ready",
			setupMock: func(m *mocks.MockMarketplaceService) {
				m.EXPECT().CheckReadiness(gomock.Any()).Return(nil)
			},
			expectedStatus: http.StatusOK,
			expectedBody:   "ready",
		},
		{
			name: "service not ready",
			setupMock: func(m *mocks.MockMarketplaceService) {
				m.EXPECT().CheckReadiness(gomock.Any()).Return(fmt.Errorf("registry not loaded"))
			},
			expectedStatus: http.StatusServiceUnavailable,
			expectedBody:   "error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			ctrl := gomock.NewController(t)

			mockSvc := mocks.NewMockMarketplaceService(ctrl)
			tt.setupMock(mockSvc)

			server := api.NewServer(mockSvc)

			req, err := http.NewRequest("GET", "/readiness", nil)
			require.NoError(t, err)

			rr := httptest.NewRecorder()
			server.ServeHTTP(rr, req)

			assert.Equal(t, tt.expectedStatus, rr.Code)
			assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))

			var response map[string]string
			require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &response))

			if tt.expectedStatus == http.StatusOK {
				assert.Equal(t, tt.expectedBody, response["status"])
			} else {
				assert.Contains(t, response, tt.expectedBody)
			}
		})
	}
}

func TestVersionEndpoint(t *testing.T) {
	t.Parallel()
	ctrl := gomock.NewController(t)

	mockSvc := mocks.NewMockMarketplaceService(ctrl)
	server := api.NewServer(mockSvc)

	req, err := http.NewRequest("GET", "/version", nil)
	require.NoError(t, err)

	rr := httptest.NewRecorder()
	server.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)

	var response map[string]string
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &response))

	assert.Contains(t, response, "version")
	assert.Contains(t, response, "commit")
	assert.Contains(t, response, "build_date")
	assert.Contains(t, response, "go_version")
	assert.Contains(t, response, "platform")
}

func TestMetricsEndpoint(t *testing.T) {
	t.Parallel()
	ctrl := gomock.NewController(t)
	mockSvc := mocks.NewMockMarketplaceService(ctrl)

	t.Run("not mounted by default", func(t *testing.T) {
		t.Parallel()
		rr := httptest.NewRecorder()
		api.NewServer(mockSvc).ServeHTTP(rr, httptest.NewRequest("GET", "/metrics", nil))
		assert.Equal(t, http.StatusNotFound, rr.Code)
	})

	t.Run("mounted", func(t *testing.T) {
		t.Parallel()
		handler := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte("marketplace_hub_marketplaces_total 3\n"))
		})
		rr := httptest.NewRecorder()
		api.NewServer(mockSvc, api.WithMetricsHandler(handler)).
			ServeHTTP(rr, httptest.NewRequest("GET", "/metrics", nil))
		assert.Equal(t, http.StatusOK, rr.Code)
		assert.Contains(t, rr.Body.String(), "marketplace_hub_marketplaces_total")
	})
}

func TestAPIRoutesAreMounted(t *testing.T) {
	t.Parallel()
	ctrl := gomock.NewController(t)
	mockSvc := mocks.NewMockMarketplaceService(ctrl)
	mockSvc.EXPECT().Hub(gomock.Any()).Return(registry.NewTestHub(), nil)

	rr := httptest.NewRecorder()
	api.NewServer(mockSvc).ServeHTTP(rr, httptest.NewRequest("GET", "/api/v1/hub", nil))
	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestAdminRoutes(t *testing.T) {
	t.Parallel()
	ctrl := gomock.NewController(t)
	mockSvc := mocks.NewMockMarketplaceService(ctrl)

	status := func() refresh.Status { return refresh.Status{Phase: refresh.PhasePending} }

	rr := httptest.NewRecorder()
	api.NewServer(mockSvc, api.WithRefreshStatus(status)).
		ServeHTTP(rr, httptest.NewRequest("GET", "/admin/refresh", nil))
	assert.Equal(t, http.StatusOK, rr.Code)

	rr = httptest.NewRecorder()
	api.NewServer(mockSvc, api.WithoutAdmin()).
		ServeHTTP(rr, httptest.NewRequest("GET", "/admin/refresh", nil))
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestLoggingMiddleware(t *testing.T) {
	t.Parallel()

	next := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})

	rr := httptest.NewRecorder()
	api.LoggingMiddleware(next).ServeHTTP(rr, httptest.NewRequest("GET", "/anything", nil))
	assert.Equal(t, http.StatusTeapot, rr.Code)
}
