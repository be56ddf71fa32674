package fetcher

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/go-github/v67/github"
	"golang.org/x/oauth2"

	"github.com/stacklok/marketplace-hub/internal/cache"
	"github.com/stacklok/marketplace-hub/internal/httpclient"
	"github.com/stacklok/marketplace-hub/internal/locator"
	"github.com/stacklok/marketplace-hub/internal/logging"
	"github.com/stacklok/marketplace-hub/internal/telemetry"
)

// GitHubMetadataFetcher reads stars and push times from the GitHub REST API
type GitHubMetadataFetcher struct {
	gh      *github.Client
	cache   cache.Cache
	ttl     time.Duration
	timeout time.Duration
	metrics *telemetry.AggregationMetrics
}

var _ RepoMetadataFetcher = (*GitHubMetadataFetcher)(nil)

type gitHubOptions struct {
	baseURL    string
	token      string
	userAgent  string
	httpClient *http.Client
	cache      cache.Cache
	ttl        time.Duration
	timeout    time.Duration
	metrics    *telemetry.AggregationMetrics
}

// GitHubOption configures a GitHubMetadataFetcher
type GitHubOption func(*gitHubOptions)

// WithGitHubBaseURL points the client at a GitHub Enterprise or test endpoint
func WithGitHubBaseURL(u string) GitHubOption {
	return func(o *gitHubOptions) {
		o.baseURL = u
	}
}

// WithGitHubToken authenticates requests with a bearer token. An empty token
// leaves requests unauthenticated.
func WithGitHubToken(token string) GitHubOption {
	return func(o *gitHubOptions) {
		o.token = token
	}
}

// WithGitHubUserAgent overrides the User-Agent header
func WithGitHubUserAgent(ua string) GitHubOption {
	return func(o *gitHubOptions) {
		o.userAgent = ua
	}
}

// WithGitHubHTTPClient sets the base HTTP client
func WithGitHubHTTPClient(c *http.Client) GitHubOption {
	return func(o *gitHubOptions) {
		o.httpClient = c
	}
}

// WithMetadataCache memoizes successful lookups for ttl
func WithMetadataCache(c cache.Cache, ttl time.Duration) GitHubOption {
	return func(o *gitHubOptions) {
		o.cache = c
		o.ttl = ttl
	}
}

// WithMetadataTimeout bounds each lookup
func WithMetadataTimeout(d time.Duration) GitHubOption {
	return func(o *gitHubOptions) {
		if d > 0 {
			o.timeout = d
		}
	}
}

// WithMetadataMetrics counts lookup outcomes
func WithMetadataMetrics(m *telemetry.AggregationMetrics) GitHubOption {
	return func(o *gitHubOptions) {
		o.metrics = m
	}
}

// NewGitHubMetadataFetcher creates a metadata fetcher for github.com repositories
func NewGitHubMetadataFetcher(opts ...GitHubOption) (*GitHubMetadataFetcher, error) {
	o := &gitHubOptions{
		timeout:    httpclient.DefaultTimeout,
		httpClient: &http.Client{},
		userAgent:  httpclient.UserAgent,
	}
	for _, opt := range opts {
		opt(o)
	}

	httpClient := o.httpClient
	if o.token != "" {
		ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: o.token})
		base := context.WithValue(context.Background(), oauth2.HTTPClient, o.httpClient)
		httpClient = oauth2.NewClient(base, ts)
	}

	gh := github.NewClient(httpClient)
	gh.UserAgent = o.userAgent

	if o.baseURL != "" {
		// go-github resolves paths relative to BaseURL, which must end in a slash
		raw := o.baseURL
		if !strings.HasSuffix(raw, "/") {
			raw += "/"
		}
		u, err := url.Parse(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid GitHub API URL %q: %w", o.baseURL, err)
		}
		gh.BaseURL = u
	}

	return &GitHubMetadataFetcher{
		gh:      gh,
		cache:   o.cache,
		ttl:     o.ttl,
		timeout: o.timeout,
		metrics: o.metrics,
	}, nil
}

// Fetch implements RepoMetadataFetcher.Fetch
func (f *GitHubMetadataFetcher) Fetch(ctx context.Context, repositoryURL string) *RepoMetadata {
	repo := locator.ParseRepositoryURL(repositoryURL)
	if repo == nil {
		return nil
	}

	get := func(ctx context.Context) (*RepoMetadata, error) {
		return f.fetch(ctx, repo)
	}

	var (
		meta *RepoMetadata
		err  error
	)
	if f.cache != nil {
		// Keyed by owner/repo so URL spellings of one repository share an entry
		key := cache.Key{Class: cache.ClassRepoMetadata, URL: repo.Slug()}
		meta, err = cache.Fetch(ctx, f.cache, key, f.ttl, get)
	} else {
		meta, err = get(ctx)
	}
	if err != nil {
		return nil
	}
	return meta
}

func (f *GitHubMetadataFetcher) fetch(ctx context.Context, repo *locator.Repository) (*RepoMetadata, error) {
	log := logging.FromContext(ctx, "repository", repo.Slug())

	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	r, _, err := f.gh.Repositories.Get(ctx, repo.Owner, repo.Repo)
	if err != nil {
		log.Info("Failed to fetch repository metadata", "error", err.Error())
		f.metrics.RecordFetch(ctx, kindRepoMetadata, false)
		return nil, err
	}

	f.metrics.RecordFetch(ctx, kindRepoMetadata, true)
	return metadataFromRepository(r), nil
}

// metadataFromRepository prefers the last push over the last update of any kind
func metadataFromRepository(r *github.Repository) *RepoMetadata {
	meta := &RepoMetadata{Stars: r.GetStargazersCount()}

	for _, ts := range []github.Timestamp{r.GetPushedAt(), r.GetUpdatedAt()} {
		if !ts.IsZero() {
			t := ts.UTC()
			meta.LastUpdated = &t
			break
		}
	}
	return meta
}
