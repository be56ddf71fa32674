package fetcher

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stacklok/marketplace-hub/internal/cache"
)

// newGitHubServer serves /repos/acme/tools with body and records the Authorization header
func newGitHubServer(t *testing.T, status int, body string, auth *atomic.Value, hits *atomic.Int32) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("/repos/acme/tools", func(w http.ResponseWriter, r *http.Request) {
		if hits != nil {
			hits.Add(1)
		}
		if auth != nil {
			auth.Store(r.Header.Get("Authorization"))
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestGitHubMetadataFetcher_Fetch(t *testing.T) {
	t.Parallel()

	pushed := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	updated := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name        string
		status      int
		body        string
		repoURL     string
		wantNil     bool
		wantStars   int
		wantUpdated *time.Time
	}{
		{
			name:        "prefers pushed_at",
			status:      http.StatusOK,
			body:        `{"stargazers_count": 1200, "pushed_at": "2024-01-01T00:00:00Z", "updated_at": "2024-03-01T00:00:00Z"}`,
			repoURL:     "https://github.com/acme/tools",
			wantStars:   1200,
			wantUpdated: &pushed,
		},
		{
			name:        "falls back to updated_at",
			status:      http.StatusOK,
			body:        `{"stargazers_count": 7, "updated_at": "2024-03-01T00:00:00Z"}`,
			repoURL:     "https://github.com/acme/tools.git",
			wantStars:   7,
			wantUpdated: &updated,
		},
		{
			name:      "missing fields default",
			status:    http.StatusOK,
			body:      `{}`,
			repoURL:   "https://github.com/acme/tools",
			wantStars: 0,
		},
		{
			name:    "not found",
			status:  http.StatusNotFound,
			body:    `{"message": "Not Found"}`,
			repoURL: "https://github.com/acme/tools",
			wantNil: true,
		},
		{
			name:    "rate limited",
			status:  http.StatusForbidden,
			body:    `{"message": "API rate limit exceeded"}`,
			repoURL: "https://github.com/acme/tools",
			wantNil: true,
		},
		{
			name:    "malformed body",
			status:  http.StatusOK,
			body:    `{"stargazers_count": "many"`,
			repoURL: "https://github.com/acme/tools",
			wantNil: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			srv := newGitHubServer(t, tt.status, tt.body, nil, nil)
			f, err := NewGitHubMetadataFetcher(WithGitHubBaseURL(srv.URL))
			require.NoError(t, err)

			meta := f.Fetch(context.Background(), tt.repoURL)
			if tt.wantNil {
				assert.Nil(t, meta)
				return
			}
			require.NotNil(t, meta)
			assert.Equal(t, tt.wantStars, meta.Stars)
			if tt.wantUpdated == nil {
				assert.Nil(t, meta.LastUpdated)
			} else {
				require.NotNil(t, meta.LastUpdated)
				assert.True(t, tt.wantUpdated.Equal(*meta.LastUpdated))
			}
		})
	}
}

func TestGitHubMetadataFetcher_UnparseableRepositorySkipsNetwork(t *testing.T) {
	t.Parallel()

	var hits atomic.Int32
	srv := newGitHubServer(t, http.StatusOK, `{}`, nil, &hits)

	f, err := NewGitHubMetadataFetcher(WithGitHubBaseURL(srv.URL))
	require.NoError(t, err)

	for _, repoURL := range []string{
		"https://gitlab.com/acme/tools",
		"https://github.com/acme",
		"not a url",
	} {
		assert.Nil(t, f.Fetch(context.Background(), repoURL), repoURL)
	}
	assert.Equal(t, int32(0), hits.Load())
}

func TestGitHubMetadataFetcher_Token(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		token    string
		wantAuth string
	}{
		{name: "bearer token attached", token: "ghp_secret", wantAuth: "Bearer ghp_secret"},
		{name: "no token stays anonymous", token: "", wantAuth: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var auth atomic.Value
			srv := newGitHubServer(t, http.StatusOK, `{"stargazers_count": 1}`, &auth, nil)

			f, err := NewGitHubMetadataFetcher(
				WithGitHubBaseURL(srv.URL),
				WithGitHubToken(tt.token),
				WithGitHubHTTPClient(srv.Client()),
			)
			require.NoError(t, err)

			require.NotNil(t, f.Fetch(context.Background(), "https://github.com/acme/tools"))
			assert.Equal(t, tt.wantAuth, auth.Load())
		})
	}
}

func TestGitHubMetadataFetcher_Cache(t *testing.T) {
	t.Parallel()

	var hits atomic.Int32
	srv := newGitHubServer(t, http.StatusOK, `{"stargazers_count": 3}`, nil, &hits)

	f, err := NewGitHubMetadataFetcher(
		WithGitHubBaseURL(srv.URL),
		WithMetadataCache(cache.New(), 24*time.Hour),
	)
	require.NoError(t, err)

	first := f.Fetch(context.Background(), "https://github.com/acme/tools")
	second := f.Fetch(context.Background(), "https://www.github.com/acme/tools.git")

	require.NotNil(t, first)
	require.NotNil(t, second)
	assert.Equal(t, 3, second.Stars)
	assert.Equal(t, int32(1), hits.Load(), "both spellings resolve to one cache entry")
}

func TestGitHubMetadataFetcher_Timeout(t *testing.T) {
	t.Parallel()

	release := make(chan struct{})
	mux := http.NewServeMux()
	mux.HandleFunc("/repos/acme/tools", func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
		_, _ = w.Write([]byte(`{}`))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()
	defer close(release)

	f, err := NewGitHubMetadataFetcher(
		WithGitHubBaseURL(srv.URL),
		WithMetadataTimeout(50*time.Millisecond),
	)
	require.NoError(t, err)

	assert.Nil(t, f.Fetch(context.Background(), "https://github.com/acme/tools"))
}

func TestNewGitHubMetadataFetcher_InvalidBaseURL(t *testing.T) {
	t.Parallel()

	_, err := NewGitHubMetadataFetcher(WithGitHubBaseURL("://bad"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid GitHub API URL")
}
