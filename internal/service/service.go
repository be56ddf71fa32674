// Package service provides the business logic for the marketplace hub API
package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/stacklok/marketplace-hub/internal/aggregator"
	"github.com/stacklok/marketplace-hub/internal/registry"
	"github.com/stacklok/marketplace-hub/internal/view"
)

var (
	// ErrMarketplaceNotFound is returned when an id is not in the registry
	ErrMarketplaceNotFound = errors.New("marketplace not found")
	// ErrRegistryNotLoaded is returned before a registry has been loaded
	ErrRegistryNotLoaded = errors.New("registry not loaded")
	// ErrEmptyQuery is returned by searches that require a query
	ErrEmptyQuery = errors.New("query is required")
)

//go:generate mockgen -destination=mocks/mock_service.go -package=mocks -source=service.go MarketplaceService

// MarketplaceService defines the interface for marketplace operations
type MarketplaceService interface {
	// CheckReadiness checks if the service is ready to serve requests
	CheckReadiness(ctx context.Context) error

	// Hub returns the active registry
	Hub(ctx context.Context) (*registry.Hub, error)

	// ListMarketplaces returns aggregated marketplaces filtered and sorted by opts
	ListMarketplaces(ctx context.Context, opts ...Option[ListMarketplacesOptions]) ([]aggregator.FetchedMarketplace, error)

	// GetMarketplace aggregates a single registered marketplace
	GetMarketplace(ctx context.Context, id string) (*aggregator.FetchedMarketplace, error)

	// GetEntry returns the registry entry for id without fetching anything
	GetEntry(ctx context.Context, id string) (*registry.Entry, error)

	// SearchPlugins searches plugins across all marketplaces
	SearchPlugins(ctx context.Context, query string) ([]view.PluginMatch, error)

	// Refresh runs an aggregation pass and replaces the served snapshot
	Refresh(ctx context.Context) ([]aggregator.FetchedMarketplace, error)

	// Reload re-reads the registry and drops cached remote data
	Reload(ctx context.Context) (*registry.Hub, error)

	// ValidateMarketplaceURL reports whether url answers a HEAD request with 2xx
	ValidateMarketplaceURL(ctx context.Context, url string) bool
}

// Option is a function that sets an option for a service operation
type Option[T ListMarketplacesOptions] func(*T) error

// ListMarketplacesOptions is the options for the ListMarketplaces operation
type ListMarketplacesOptions struct {
	Query view.Query
}

// WithQuery sets the substring search
func WithQuery(q string) Option[ListMarketplacesOptions] {
	return func(o *ListMarketplacesOptions) error {
		o.Query.Text = strings.TrimSpace(q)
		return nil
	}
}

// WithTags restricts the listing to marketplaces carrying every tag
func WithTags(tags ...string) Option[ListMarketplacesOptions] {
	return func(o *ListMarketplacesOptions) error {
		for _, t := range tags {
			if strings.TrimSpace(t) == "" {
				return fmt.Errorf("invalid tag: %q", t)
			}
		}
		o.Query.Tags = append(o.Query.Tags, tags...)
		return nil
	}
}

// WithSort sets the ordering; valid keys are stars, updated, plugins and name
func WithSort(key string) Option[ListMarketplacesOptions] {
	return func(o *ListMarketplacesOptions) error {
		k, err := view.ParseSortKey(key)
		if err != nil {
			return err
		}
		o.Query.Sort = k
		return nil
	}
}

// WithFuzzy ranks results by fuzzy score instead of substring matching
func WithFuzzy(fuzzy bool) Option[ListMarketplacesOptions] {
	return func(o *ListMarketplacesOptions) error {
		o.Query.Fuzzy = fuzzy
		return nil
	}
}
