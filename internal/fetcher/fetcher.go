// Package fetcher retrieves the remote data behind a marketplace registration:
// its manifest file and, optionally, repository popularity signals.
//
// Neither fetcher returns errors. Manifest failures are reported as a short
// message in Result.Error, metadata failures as a nil result.
package fetcher

import (
	"context"
	"time"

	"github.com/stacklok/marketplace-hub/internal/manifest"
)

// Failure messages surfaced on marketplace cards
const (
	ErrMsgNotFound = "Marketplace file not found"
	ErrMsgNetwork  = "Network error"
)

// Kinds reported to metrics
const (
	kindManifest     = "manifest"
	kindRepoMetadata = "repo-metadata"
)

// Result is the outcome of a manifest fetch. Exactly one of Data and Error is set.
type Result struct {
	Data  *manifest.Manifest
	Error string
}

// OK reports whether the fetch produced a manifest
func (r Result) OK() bool {
	return r.Data != nil
}

// RepoMetadata holds popularity and freshness signals for a repository
type RepoMetadata struct {
	Stars       int        `json:"stars"`
	LastUpdated *time.Time `json:"lastUpdated,omitempty"`
}

// ManifestFetcher fetches and decodes marketplace manifests
//
//go:generate mockgen -destination=mocks/mock_fetcher.go -package=mocks -source=fetcher.go ManifestFetcher,RepoMetadataFetcher
type ManifestFetcher interface {
	// Fetch retrieves the manifest at url
	Fetch(ctx context.Context, url string) Result
}

// RepoMetadataFetcher fetches repository metadata on a best-effort basis
type RepoMetadataFetcher interface {
	// Fetch returns metadata for repositoryURL, or nil when it cannot be obtained
	Fetch(ctx context.Context, repositoryURL string) *RepoMetadata
}
