package fetcher

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/stacklok/marketplace-hub/internal/cache"
	"github.com/stacklok/marketplace-hub/internal/httpclient"
	"github.com/stacklok/marketplace-hub/internal/httpclient/mocks"
)

const manifestURL = "https://raw.githubusercontent.com/acme/tools/main/.claude-plugin/marketplace.json"

func manifestJSON(plugins int) []byte {
	body := `{"name":"acme-tools","owner":{"name":"Acme"},"plugins":[`
	for i := range plugins {
		if i > 0 {
			body += ","
		}
		body += fmt.Sprintf(`{"name":"plugin-%d","source":"./plugins/%d"}`, i, i)
	}
	return []byte(body + "]}")
}

func TestHTTPManifestFetcher_Fetch(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		body        []byte
		err         error
		wantError   string
		wantPlugins int
	}{
		{
			name:        "valid manifest",
			body:        manifestJSON(3),
			wantPlugins: 3,
		},
		{
			name:        "empty plugin list",
			body:        manifestJSON(0),
			wantPlugins: 0,
		},
		{
			name:      "not found",
			err:       httpclient.NewHTTPError(http.StatusNotFound, manifestURL, "404 Not Found"),
			wantError: ErrMsgNotFound,
		},
		{
			name:      "server error",
			err:       httpclient.NewHTTPError(http.StatusBadGateway, manifestURL, "502 Bad Gateway"),
			wantError: "HTTP 502",
		},
		{
			name:      "forbidden",
			err:       httpclient.NewHTTPError(http.StatusForbidden, manifestURL, "403 Forbidden"),
			wantError: "HTTP 403",
		},
		{
			name:      "transport failure",
			err:       fmt.Errorf("failed to execute request: %w", errors.New("dial tcp: no such host")),
			wantError: ErrMsgNetwork,
		},
		{
			name:      "body is not JSON",
			body:      []byte("<html>rate limited</html>"),
			wantError: ErrMsgNetwork,
		},
		{
			name:      "missing required fields",
			body:      []byte(`{"name":"acme-tools"}`),
			wantError: ErrMsgNetwork,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			ctrl := gomock.NewController(t)

			client := mocks.NewMockClient(ctrl)
			client.EXPECT().Get(gomock.Any(), manifestURL).Return(tt.body, tt.err)

			result := NewManifestFetcher(client).Fetch(context.Background(), manifestURL)

			if tt.wantError != "" {
				assert.Nil(t, result.Data)
				assert.Equal(t, tt.wantError, result.Error)
				assert.False(t, result.OK())
				return
			}
			require.True(t, result.OK())
			assert.Empty(t, result.Error)
			assert.Len(t, result.Data.Plugins, tt.wantPlugins)
		})
	}
}

func TestHTTPManifestFetcher_CachesOnlySuccess(t *testing.T) {
	t.Parallel()

	var hits atomic.Int32
	var healthy atomic.Bool

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		if !healthy.Load() {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write(manifestJSON(2))
	}))
	defer srv.Close()

	f := NewManifestFetcher(
		httpclient.NewDefaultClient(time.Second),
		WithManifestCache(cache.New(), time.Hour),
	)

	result := f.Fetch(context.Background(), srv.URL)
	assert.Equal(t, "HTTP 503", result.Error)

	healthy.Store(true)
	result = f.Fetch(context.Background(), srv.URL)
	require.True(t, result.OK(), "a failure is not remembered")

	result = f.Fetch(context.Background(), srv.URL)
	require.True(t, result.OK())
	assert.Len(t, result.Data.Plugins, 2)
	assert.Equal(t, int32(2), hits.Load(), "the success is served from cache")
}

func TestHTTPManifestFetcher_Timeout(t *testing.T) {
	t.Parallel()

	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
		_, _ = w.Write(manifestJSON(1))
	}))
	defer srv.Close()
	defer close(release)

	f := NewManifestFetcher(
		httpclient.NewDefaultClient(time.Minute),
		WithManifestTimeout(50*time.Millisecond),
	)

	start := time.Now()
	result := f.Fetch(context.Background(), srv.URL)

	assert.Equal(t, ErrMsgNetwork, result.Error)
	assert.Less(t, time.Since(start), 5*time.Second)
}

func TestFailureMessage(t *testing.T) {
	t.Parallel()

	assert.Equal(t, ErrMsgNotFound, failureMessage(httpclient.NewHTTPError(404, manifestURL, "")))
	assert.Equal(t, "HTTP 500", failureMessage(fmt.Errorf("wrapped: %w", httpclient.NewHTTPError(500, manifestURL, ""))))
	assert.Equal(t, ErrMsgNetwork, failureMessage(context.DeadlineExceeded))
}
