package filtering

import (
	"fmt"
	"strings"

	"github.com/stacklok/marketplace-hub/internal/config"
)

func normalizeTag(tag string) string {
	return strings.ToLower(strings.TrimSpace(tag))
}

// tagSet maps normalized tags to their configured spelling
type tagSet map[string]string

func newTagSet(tags []string) tagSet {
	set := make(tagSet, len(tags))
	for _, t := range tags {
		if n := normalizeTag(t); n != "" {
			set[n] = t
		}
	}
	return set
}

// first returns the configured spelling of the first tag present in the set
func (s tagSet) first(tags []string) (string, bool) {
	for _, t := range tags {
		if match, ok := s[normalizeTag(t)]; ok {
			return match, true
		}
	}
	return "", false
}

// tagFilter selects marketplaces by tag, ignoring case and surrounding space
type tagFilter struct {
	include tagSet
	exclude tagSet
}

func newTagFilter(cfg *config.TagFilterConfig) *tagFilter {
	if cfg == nil {
		return &tagFilter{}
	}
	return &tagFilter{include: newTagSet(cfg.Include), exclude: newTagSet(cfg.Exclude)}
}

func (f *tagFilter) active() bool {
	return len(f.include) > 0 || len(f.exclude) > 0
}

// decide applies exclude tags first, then include tags
func (f *tagFilter) decide(tags []string) (bool, string) {
	if tag, found := f.exclude.first(tags); found {
		return false, fmt.Sprintf("excluded by tag '%s'", tag)
	}
	if len(f.include) == 0 {
		return true, "not excluded"
	}
	if tag, found := f.include.first(tags); found {
		return true, fmt.Sprintf("included by tag '%s'", tag)
	}
	return false, fmt.Sprintf("none of %v is an include tag", tags)
}
