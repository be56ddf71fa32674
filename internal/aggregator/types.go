package aggregator

import (
	"time"

	"github.com/stacklok/marketplace-hub/internal/fetcher"
	"github.com/stacklok/marketplace-hub/internal/manifest"
	"github.com/stacklok/marketplace-hub/internal/registry"
)

// ErrMsgFetchFailed is reported when a manifest could not be fetched and no
// more specific reason is known
const ErrMsgFetchFailed = "Failed to fetch marketplace data"

// FetchedMarketplace is a registry entry merged with its remote data.
// Exactly one of Manifest and Error is set. Stars and LastUpdated are
// independent of both.
type FetchedMarketplace struct {
	registry.Entry

	Manifest    *manifest.Manifest `json:"manifest,omitempty" yaml:"manifest,omitempty"`
	PluginCount *int               `json:"pluginCount,omitempty" yaml:"pluginCount,omitempty"`
	Stars       *int               `json:"stars,omitempty" yaml:"stars,omitempty"`
	LastUpdated *time.Time         `json:"lastUpdated,omitempty" yaml:"lastUpdated,omitempty"`
	LastFetched time.Time          `json:"lastFetched" yaml:"lastFetched"`
	Error       string             `json:"error,omitempty" yaml:"error,omitempty"`
}

// OK reports whether the manifest was fetched
func (m FetchedMarketplace) OK() bool {
	return m.Manifest != nil
}

// Plugins returns the manifest plugins, or nil for a failed marketplace
func (m FetchedMarketplace) Plugins() []manifest.Plugin {
	if m.Manifest == nil {
		return nil
	}
	return m.Manifest.Plugins
}

// Succeeded builds the record of a marketplace whose manifest was fetched
func Succeeded(entry registry.Entry, m *manifest.Manifest, meta *fetcher.RepoMetadata, at time.Time) FetchedMarketplace {
	count := len(m.Plugins)
	fm := FetchedMarketplace{
		Entry:       entry,
		Manifest:    m,
		PluginCount: &count,
		LastFetched: at,
	}
	fm.enrich(meta)
	return fm
}

// Failed builds the record of a marketplace whose manifest could not be fetched.
// An empty reason is replaced with ErrMsgFetchFailed.
func Failed(entry registry.Entry, reason string, meta *fetcher.RepoMetadata, at time.Time) FetchedMarketplace {
	if reason == "" {
		reason = ErrMsgFetchFailed
	}
	fm := FetchedMarketplace{
		Entry:       entry,
		LastFetched: at,
		Error:       reason,
	}
	fm.enrich(meta)
	return fm
}

func (m *FetchedMarketplace) enrich(meta *fetcher.RepoMetadata) {
	if meta == nil {
		return
	}
	stars := meta.Stars
	m.Stars = &stars
	if meta.LastUpdated != nil {
		t := *meta.LastUpdated
		m.LastUpdated = &t
	}
}
