// Package view derives filtered and sorted listings from aggregated
// marketplaces. Every function is pure and returns a new slice; inputs are
// never reordered in place.
package view

import (
	"cmp"
	"fmt"
	"slices"
	"strings"

	"github.com/sahilm/fuzzy"

	"github.com/stacklok/marketplace-hub/internal/aggregator"
	"github.com/stacklok/marketplace-hub/internal/manifest"
)

// SortKey selects the ordering of a listing
type SortKey string

const (
	// SortNone keeps registry order
	SortNone SortKey = ""
	// SortStars orders by star count, most first
	SortStars SortKey = "stars"
	// SortUpdated orders by last update, newest first, undated last
	SortUpdated SortKey = "updated"
	// SortPlugins orders by plugin count, most first
	SortPlugins SortKey = "plugins"
	// SortName orders by name, A to Z
	SortName SortKey = "name"
)

// ParseSortKey validates a sort key received from a caller
func ParseSortKey(s string) (SortKey, error) {
	switch k := SortKey(strings.ToLower(strings.TrimSpace(s))); k {
	case SortNone, SortStars, SortUpdated, SortPlugins, SortName:
		return k, nil
	default:
		return SortNone, fmt.Errorf("invalid sort key %q: must be one of stars, updated, plugins, name", s)
	}
}

// Query is a complete listing request
type Query struct {
	Text  string
	Tags  []string
	Sort  SortKey
	Fuzzy bool
}

// PluginMatch pairs a plugin with the marketplace that publishes it
type PluginMatch struct {
	Plugin          manifest.Plugin `json:"plugin"`
	MarketplaceID   string          `json:"marketplaceId"`
	MarketplaceName string          `json:"marketplaceName"`
}

// Apply runs search, tag filtering and sorting in that order.
// A fuzzy query is ranked by score unless an explicit sort is requested.
func Apply(ms []aggregator.FetchedMarketplace, q Query) []aggregator.FetchedMarketplace {
	var out []aggregator.FetchedMarketplace
	if q.Fuzzy {
		out = FuzzySearch(ms, q.Text)
	} else {
		out = Search(ms, q.Text)
	}
	out = FilterByTags(out, q.Tags)
	return Sort(out, q.Sort)
}

// Search keeps marketplaces whose name, description, owner or tags contain
// query, ignoring case. A blank query keeps everything.
func Search(ms []aggregator.FetchedMarketplace, query string) []aggregator.FetchedMarketplace {
	query = normalizeQuery(query)
	if query == "" {
		return slices.Clone(ms)
	}

	out := make([]aggregator.FetchedMarketplace, 0, len(ms))
	for _, m := range ms {
		if strings.Contains(marketplaceText(m), query) {
			out = append(out, m)
		}
	}
	return out
}

// SearchPlugins returns every plugin of a successfully fetched marketplace
// whose name, description, tags or keywords contain query, ignoring case.
// A blank query matches nothing.
func SearchPlugins(ms []aggregator.FetchedMarketplace, query string) []PluginMatch {
	query = normalizeQuery(query)
	if query == "" {
		return nil
	}

	var out []PluginMatch
	for _, m := range ms {
		for _, p := range m.Plugins() {
			if strings.Contains(pluginText(p), query) {
				out = append(out, PluginMatch{Plugin: p, MarketplaceID: m.ID, MarketplaceName: m.Name})
			}
		}
	}
	return out
}

// marketplaceSource adapts a listing to fuzzy.Source
type marketplaceSource []aggregator.FetchedMarketplace

func (s marketplaceSource) String(i int) string { return marketplaceText(s[i]) }
func (s marketplaceSource) Len() int            { return len(s) }

// FuzzySearch ranks marketplaces by fuzzy match score against query, best
// first. A blank query keeps everything in order.
func FuzzySearch(ms []aggregator.FetchedMarketplace, query string) []aggregator.FetchedMarketplace {
	query = normalizeQuery(query)
	if query == "" {
		return slices.Clone(ms)
	}

	// FindFrom already returns matches sorted by score
	matches := fuzzy.FindFrom(query, marketplaceSource(ms))
	out := make([]aggregator.FetchedMarketplace, 0, len(matches))
	for _, match := range matches {
		out = append(out, ms[match.Index])
	}
	return out
}

// FilterByTags keeps marketplaces carrying every tag in tags, ignoring case.
// No tags keeps everything.
func FilterByTags(ms []aggregator.FetchedMarketplace, tags []string) []aggregator.FetchedMarketplace {
	want := make([]string, 0, len(tags))
	for _, t := range tags {
		if t = strings.ToLower(strings.TrimSpace(t)); t != "" {
			want = append(want, t)
		}
	}
	if len(want) == 0 {
		return slices.Clone(ms)
	}

	out := make([]aggregator.FetchedMarketplace, 0, len(ms))
	for _, m := range ms {
		have := make(map[string]struct{}, len(m.Tags))
		for _, t := range m.Tags {
			have[strings.ToLower(t)] = struct{}{}
		}
		if hasAll(have, want) {
			out = append(out, m)
		}
	}
	return out
}

func hasAll(have map[string]struct{}, want []string) bool {
	for _, t := range want {
		if _, ok := have[t]; !ok {
			return false
		}
	}
	return true
}

// Sort returns ms ordered by key. The sort is stable, so ties keep their
// incoming order. Missing star and plugin counts count as zero.
func Sort(ms []aggregator.FetchedMarketplace, key SortKey) []aggregator.FetchedMarketplace {
	out := slices.Clone(ms)

	switch key {
	case SortStars:
		slices.SortStableFunc(out, func(a, b aggregator.FetchedMarketplace) int {
			return cmp.Compare(deref(b.Stars), deref(a.Stars))
		})
	case SortPlugins:
		slices.SortStableFunc(out, func(a, b aggregator.FetchedMarketplace) int {
			return cmp.Compare(deref(b.PluginCount), deref(a.PluginCount))
		})
	case SortUpdated:
		slices.SortStableFunc(out, compareUpdated)
	case SortName:
		slices.SortStableFunc(out, func(a, b aggregator.FetchedMarketplace) int {
			return cmp.Compare(strings.ToLower(a.Name), strings.ToLower(b.Name))
		})
	case SortNone:
	}
	return out
}

// compareUpdated puts newer first and undated marketplaces last
func compareUpdated(a, b aggregator.FetchedMarketplace) int {
	switch {
	case a.LastUpdated == nil && b.LastUpdated == nil:
		return 0
	case a.LastUpdated == nil:
		return 1
	case b.LastUpdated == nil:
		return -1
	default:
		return b.LastUpdated.Compare(*a.LastUpdated)
	}
}

func marketplaceText(m aggregator.FetchedMarketplace) string {
	parts := []string{m.Name, m.Description, m.Owner.Name}
	parts = append(parts, m.Tags...)
	return strings.ToLower(strings.Join(parts, " "))
}

func pluginText(p manifest.Plugin) string {
	parts := []string{p.Name, p.Description}
	parts = append(parts, p.Tags...)
	parts = append(parts, p.Keywords...)
	return strings.ToLower(strings.Join(parts, " "))
}

func normalizeQuery(q string) string {
	return strings.ToLower(strings.TrimSpace(q))
}

func deref(p *int) int {
	if p == nil {
		return 0
	}
	return *p
}
