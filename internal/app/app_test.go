package app

import (
	"context"
	"errors"
	"net"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
	"k8s.io/utils/clock"

	"github.com/stacklok/marketplace-hub/internal/config"
	"github.com/stacklok/marketplace-hub/internal/refresh"
	"github.com/stacklok/marketplace-hub/internal/registry"
	mockregistry "github.com/stacklok/marketplace-hub/internal/registry/mocks"
	mocksvc "github.com/stacklok/marketplace-hub/internal/service/mocks"
)

var fixedNow = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

// mockCoordinator implements refresh.Coordinator for testing
type mockCoordinator struct {
	mu          sync.Mutex
	startCalled bool
	stopCalled  bool
	stopErr     error
}

func (m *mockCoordinator) Start(ctx context.Context) error {
	m.mu.Lock()
	m.startCalled = true
	m.mu.Unlock()

	<-ctx.Done()
	return nil
}

func (m *mockCoordinator) Stop() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stopCalled = true
	return m.stopErr
}

func (*mockCoordinator) Status() refresh.Status {
	return refresh.Status{Phase: refresh.PhasePending}
}

func (m *mockCoordinator) wasStartCalled() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.startCalled
}

func (m *mockCoordinator) wasStopCalled() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.stopCalled
}

// createTestApp builds a MarketplaceApp around a mocked service without
// going through NewMarketplaceApp
func createTestApp(t *testing.T, ctrl *gomock.Controller, addr string) *MarketplaceApp {
	t.Helper()

	mockSvc := mocksvc.NewMockMarketplaceService(ctrl)
	cfg := config.Default("")

	ctx := context.Background()
	appCtx, cancel := context.WithCancel(ctx)

	components := &AppComponents{
		Registry: registry.NewStaticManager(registry.NewTestHub()),
		Service:  mockSvc,
		Refresh:  &mockCoordinator{},
	}

	appCfg := &marketplaceAppConfig{
		config:         cfg,
		address:        addr,
		requestTimeout: 10 * time.Second,
		idleTimeout:    60 * time.Second,
		clock:          clock.RealClock{},
	}
	server, err := buildHTTPServer(ctx, appCfg, components)
	require.NoError(t, err)

	return &MarketplaceApp{
		config:     cfg,
		components: components,
		httpServer: server,
		ctx:        appCtx,
		cancelFunc: cancel,
	}
}

func TestMarketplaceApp_ServeAndStop(t *testing.T) {
	t.Parallel()
	ctrl := gomock.NewController(t)
	app := createTestApp(t, ctrl, "127.0.0.1:0")

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := listener.Addr().String()

	errChan := make(chan error, 1)
	go func() {
		errChan <- app.Serve(listener)
	}()

	require.Eventually(t, func() bool {
		resp, err := http.Get("http://" + addr + "/health")
		if err != nil {
			return false
		}
		_ = resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 5*time.Second, 20*time.Millisecond)

	coord := app.components.Refresh.(*mockCoordinator)
	require.Eventually(t, coord.wasStartCalled, time.Second, 10*time.Millisecond)

	resp, err := http.Get("http://" + addr + "/admin/refresh")
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	require.NoError(t, app.Stop(5*time.Second))
	assert.True(t, coord.wasStopCalled())

	select {
	case serveErr := <-errChan:
		require.NoError(t, serveErr)
	case <-time.After(5 * time.Second):
		t.Fatal("Serve() did not return after Stop()")
	}
}

func TestMarketplaceApp_StopReportsCoordinatorErrorsWithoutFailing(t *testing.T) {
	t.Parallel()
	ctrl := gomock.NewController(t)
	app := createTestApp(t, ctrl, "127.0.0.1:0")
	app.components.Refresh.(*mockCoordinator).stopErr = errors.New("stuck")

	require.NoError(t, app.Stop(time.Second))
}

func TestMarketplaceApp_WatchesRegistryAndClosesOnStop(t *testing.T) {
	t.Parallel()
	ctrl := gomock.NewController(t)
	app := createTestApp(t, ctrl, "127.0.0.1:0")
	app.config.Registry.Watch = true

	watching := make(chan struct{})
	mgr := mockregistry.NewMockManager(ctrl)
	mgr.EXPECT().Watch(gomock.Any()).DoAndReturn(func(ctx context.Context) error {
		close(watching)
		<-ctx.Done()
		return ctx.Err()
	})
	mgr.EXPECT().Close().Return(errors.New("watcher already closed"))
	app.components.Registry = mgr

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	errChan := make(chan error, 1)
	go func() {
		errChan <- app.Serve(listener)
	}()

	select {
	case <-watching:
	case <-time.After(5 * time.Second):
		t.Fatal("registry watcher was not started")
	}

	// a failing Close is logged, not returned
	require.NoError(t, app.Stop(5*time.Second))
	require.NoError(t, <-errChan)
}

func TestMarketplaceApp_StopIdempotent(t *testing.T) {
	t.Parallel()
	ctrl := gomock.NewController(t)
	app := createTestApp(t, ctrl, "127.0.0.1:0")

	require.NoError(t, app.Stop(time.Second))
	require.NoError(t, app.Stop(time.Second))
}

func TestMarketplaceApp_StartError_InvalidAddress(t *testing.T) {
	t.Parallel()
	ctrl := gomock.NewController(t)
	app := createTestApp(t, ctrl, "invalid-address")

	err := app.Start()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to listen")
}

func TestMarketplaceApp_Getters(t *testing.T) {
	t.Parallel()
	ctrl := gomock.NewController(t)
	app := createTestApp(t, ctrl, ":0")

	assert.Equal(t, config.DefaultRegistryPath, app.GetConfig().Registry.Path)
	assert.Equal(t, ":0", app.GetHTTPServer().Addr)
	assert.NotNil(t, app.Components().Service)
}
