package filtering

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stacklok/marketplace-hub/internal/config"
	"github.com/stacklok/marketplace-hub/internal/registry"
)

func TestIDFilter(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		id          string
		cfg         *config.NameFilterConfig
		expected    bool
		reasonMatch string
	}{
		{
			name:        "no patterns",
			id:          "anthropic-official",
			expected:    true,
			reasonMatch: "not excluded",
		},
		{
			name:        "include match",
			id:          "anthropic-official",
			cfg:         &config.NameFilterConfig{Include: []string{"anthropic-*"}},
			expected:    true,
			reasonMatch: "included by pattern 'anthropic-*'",
		},
		{
			name:        "include without match",
			id:          "community-tools",
			cfg:         &config.NameFilterConfig{Include: []string{"anthropic-*"}},
			expected:    false,
			reasonMatch: "no include pattern matched",
		},
		{
			name: "exclude takes precedence",
			id:   "anthropic-experimental",
			cfg: &config.NameFilterConfig{
				Include: []string{"anthropic-*"},
				Exclude: []string{"*-experimental"},
			},
			expected:    false,
			reasonMatch: "excluded by pattern '*-experimental'",
		},
		{
			name:        "alternatives",
			id:          "acme-lint",
			cfg:         &config.NameFilterConfig{Include: []string{"acme-{lint,test}"}},
			expected:    true,
			reasonMatch: "included by pattern",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			f, err := newIDFilter(tt.cfg)
			require.NoError(t, err)
			included, reason := f.decide(tt.id)
			assert.Equal(t, tt.expected, included)
			assert.Contains(t, reason, tt.reasonMatch)
		})
	}
}

func TestIDFilter_InvalidPattern(t *testing.T) {
	t.Parallel()

	_, err := newIDFilter(&config.NameFilterConfig{Exclude: []string{"[bad"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), `invalid exclude pattern "[bad"`)
}

func TestTagFilter(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		tags        []string
		cfg         *config.TagFilterConfig
		expected    bool
		reasonMatch string
	}{
		{
			name:        "no tags configured",
			tags:        []string{"lint"},
			expected:    true,
			reasonMatch: "not excluded",
		},
		{
			name:        "include ignores case",
			tags:        []string{"Lint", "testing"},
			cfg:         &config.TagFilterConfig{Include: []string{"lint"}},
			expected:    true,
			reasonMatch: "included by tag 'lint'",
		},
		{
			name:        "include without match",
			tags:        []string{"docs"},
			cfg:         &config.TagFilterConfig{Include: []string{"lint"}},
			expected:    false,
			reasonMatch: "is an include tag",
		},
		{
			name:     "untagged entry with include",
			cfg:      &config.TagFilterConfig{Include: []string{"lint"}},
			expected: false,
		},
		{
			name: "exclude wins over include",
			tags: []string{"lint", " Deprecated "},
			cfg: &config.TagFilterConfig{
				Include: []string{"lint"},
				Exclude: []string{"deprecated"},
			},
			expected:    false,
			reasonMatch: "excluded by tag 'deprecated'",
		},
		{
			name:     "exclude only without match",
			tags:     []string{"lint"},
			cfg:      &config.TagFilterConfig{Exclude: []string{"deprecated"}},
			expected: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			included, reason := newTagFilter(tt.cfg).decide(tt.tags)
			assert.Equal(t, tt.expected, included)
			assert.Contains(t, reason, tt.reasonMatch)
		})
	}
}

func TestFilter_Apply(t *testing.T) {
	t.Parallel()

	hub := registry.NewTestHub(registry.WithEntries(
		registry.NewTestEntry("anthropic-official", registry.WithTags("official", "lint")),
		registry.NewTestEntry("community-tools", registry.WithTags("testing")),
		registry.NewTestEntry("anthropic-experimental", registry.WithTags("lint")),
	))
	all := []string{"anthropic-official", "community-tools", "anthropic-experimental"}

	tests := []struct {
		name    string
		filter  *config.FilterConfig
		wantIDs []string
	}{
		{
			name:    "nil config keeps everything",
			wantIDs: all,
		},
		{
			name:    "empty config keeps everything",
			filter:  &config.FilterConfig{},
			wantIDs: all,
		},
		{
			name: "ids and tags combined",
			filter: &config.FilterConfig{
				Names: &config.NameFilterConfig{Exclude: []string{"*-experimental"}},
				Tags:  &config.TagFilterConfig{Include: []string{"LINT"}},
			},
			wantIDs: []string{"anthropic-official"},
		},
		{
			name: "tag exclude",
			filter: &config.FilterConfig{
				Tags: &config.TagFilterConfig{Exclude: []string{"testing"}},
			},
			wantIDs: []string{"anthropic-official", "anthropic-experimental"},
		},
		{
			name: "nothing matches",
			filter: &config.FilterConfig{
				Names: &config.NameFilterConfig{Include: []string{"other-*"}},
			},
			wantIDs: []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			f, err := New(tt.filter)
			require.NoError(t, err)

			var rf registry.Filter = f
			result, err := rf.Apply(context.Background(), hub)
			require.NoError(t, err)

			ids := make([]string, 0, result.Len())
			for _, entry := range result.Marketplaces {
				ids = append(ids, entry.ID)
			}
			assert.Equal(t, tt.wantIDs, ids)
			assert.Equal(t, hub.Metadata, result.Metadata)
			assert.Equal(t, 3, hub.Len(), "source registry must not be modified")
		})
	}
}

func TestFilter_Include(t *testing.T) {
	t.Parallel()

	f, err := New(&config.FilterConfig{
		Names: &config.NameFilterConfig{Exclude: []string{"drop-*"}},
		Tags:  &config.TagFilterConfig{Include: []string{"lint"}},
	})
	require.NoError(t, err)

	ok, reason := f.Include(registry.NewTestEntry("drop-me", registry.WithTags("lint")))
	assert.False(t, ok)
	assert.Equal(t, "id filter: excluded by pattern 'drop-*'", reason)

	ok, reason = f.Include(registry.NewTestEntry("keep-me"))
	assert.False(t, ok)
	assert.Contains(t, reason, "tag filter:")

	ok, _ = f.Include(registry.NewTestEntry("keep-me", registry.WithTags("lint")))
	assert.True(t, ok)
}
