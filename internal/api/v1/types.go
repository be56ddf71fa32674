package v1

import (
	"time"

	"github.com/stacklok/marketplace-hub/internal/aggregator"
	"github.com/stacklok/marketplace-hub/internal/manifest"
	"github.com/stacklok/marketplace-hub/internal/registry"
	"github.com/stacklok/marketplace-hub/internal/view"
)

// HealthResponse represents the health check response
type HealthResponse struct {
	Status string `json:"status"`
}

// ErrorResponse represents a standardized error response
type ErrorResponse struct {
	Error string `json:"error"`
}

// HubResponse describes the hub and its size
type HubResponse struct {
	registry.HubMetadata
	TotalMarketplaces int `json:"totalMarketplaces"`
}

// ListMarketplacesResponse is returned by the marketplace listing
type ListMarketplacesResponse struct {
	Marketplaces []MarketplaceResponse `json:"marketplaces"`
	Metadata     ListMetadata          `json:"metadata"`
}

// ListMetadata summarizes a listing
type ListMetadata struct {
	Count  int `json:"count"`
	Failed int `json:"failed"`
}

// MarketplaceResponse is an aggregated marketplace with display fields
type MarketplaceResponse struct {
	registry.Entry

	PluginCount    *int              `json:"pluginCount,omitempty"`
	Stars          *int              `json:"stars,omitempty"`
	StarsDisplay   string            `json:"starsDisplay,omitempty"`
	LastUpdated    *time.Time        `json:"lastUpdated,omitempty"`
	UpdatedDisplay string            `json:"updatedDisplay,omitempty"`
	LastFetched    time.Time         `json:"lastFetched"`
	InstallCommand string            `json:"installCommand,omitempty"`
	Error          string            `json:"error,omitempty"`
	Manifest       *ManifestResponse `json:"manifest,omitempty"`
}

// ManifestResponse is the manifest of a single marketplace
type ManifestResponse struct {
	Name        string           `json:"name"`
	Owner       manifest.Owner   `json:"owner"`
	Description string           `json:"description,omitempty"`
	Version     string           `json:"version,omitempty"`
	Plugins     []PluginResponse `json:"plugins"`
}

// PluginResponse is a plugin with its author rendered as a display name
type PluginResponse struct {
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	Version     string   `json:"version,omitempty"`
	Author      string   `json:"author,omitempty"`
	Source      string   `json:"source"`
	Homepage    string   `json:"homepage,omitempty"`
	Repository  string   `json:"repository,omitempty"`
	License     string   `json:"license,omitempty"`
	Category    string   `json:"category,omitempty"`
	Keywords    []string `json:"keywords,omitempty"`
	Tags        []string `json:"tags,omitempty"`
	Commands    []string `json:"commands,omitempty"`
	Agents      []string `json:"agents,omitempty"`

	MarketplaceID   string `json:"marketplaceId,omitempty"`
	MarketplaceName string `json:"marketplaceName,omitempty"`
}

// ListPluginsResponse is returned by the plugin endpoints
type ListPluginsResponse struct {
	Plugins []PluginResponse `json:"plugins"`
	Count   int              `json:"count"`
}

// ReloadResponse is returned by a successful registry reload
type ReloadResponse struct {
	Status       string `json:"status"`
	Marketplaces int    `json:"marketplaces"`
	Version      string `json:"version"`
}

// ValidateRequest asks whether a manifest URL is reachable
type ValidateRequest struct {
	URL string `json:"url"`
}

// ValidateResponse is the reachability verdict
type ValidateResponse struct {
	URL       string `json:"url"`
	Reachable bool   `json:"reachable"`
}

func newMarketplaceResponse(m aggregator.FetchedMarketplace, now time.Time, withManifest bool) MarketplaceResponse {
	resp := MarketplaceResponse{
		Entry:       m.Entry,
		PluginCount: m.PluginCount,
		Stars:       m.Stars,
		LastUpdated: m.LastUpdated,
		LastFetched: m.LastFetched,
		Error:       m.Error,
	}

	if m.Stars != nil {
		resp.StarsDisplay = view.FormatStarCount(*m.Stars)
	}
	if m.LastUpdated != nil {
		resp.UpdatedDisplay = view.FormatRelativeTime(*m.LastUpdated, now)
	}
	// Only working marketplaces get an install call to action
	if m.OK() {
		resp.InstallCommand = view.InstallCommand(m.Repository)
	}
	if withManifest && m.Manifest != nil {
		resp.Manifest = newManifestResponse(m.Manifest)
	}
	return resp
}

func newManifestResponse(m *manifest.Manifest) *ManifestResponse {
	resp := &ManifestResponse{
		Name:    m.Name,
		Owner:   m.Owner,
		Plugins: make([]PluginResponse, 0, len(m.Plugins)),
	}
	if m.Metadata != nil {
		resp.Description = m.Metadata.Description
		resp.Version = m.Metadata.Version
	}
	for _, p := range m.Plugins {
		resp.Plugins = append(resp.Plugins, newPluginResponse(p))
	}
	return resp
}

func newPluginResponse(p manifest.Plugin) PluginResponse {
	return PluginResponse{
		Name:        p.Name,
		Description: p.Description,
		Version:     p.Version,
		Author:      p.Author.DisplayName(),
		Source:      p.Source.String(),
		Homepage:    p.Homepage,
		Repository:  p.Repository,
		License:     p.License,
		Category:    p.Category,
		Keywords:    p.Keywords,
		Tags:        p.Tags,
		Commands:    p.Commands,
		Agents:      p.Agents,
	}
}

func newPluginMatchResponse(m view.PluginMatch) PluginResponse {
	resp := newPluginResponse(m.Plugin)
	resp.MarketplaceID = m.MarketplaceID
	resp.MarketplaceName = m.MarketplaceName
	return resp
}
