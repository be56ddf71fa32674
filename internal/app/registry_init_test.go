package app

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stacklok/marketplace-hub/internal/config"
)

func TestNewRegistryManager(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "marketplaces.json")
	data := `{
  "hub": {"name": "Hub", "description": "", "version": "1.0.0"},
  "marketplaces": [
    {"id": "acme-tools", "name": "Acme", "repository": "https://github.com/acme/tools", "tags": ["lint"]},
    {"id": "acme-labs", "name": "Labs", "repository": "https://github.com/acme/labs", "tags": ["experimental"]},
    {"id": "other", "name": "Other", "repository": "https://github.com/other/plugins"}
  ]
}`
	require.NoError(t, os.WriteFile(path, []byte(data), 0o600))

	tests := []struct {
		name    string
		filter  *config.FilterConfig
		wantIDs []string
	}{
		{
			name:    "no filter",
			wantIDs: []string{"acme-tools", "acme-labs", "other"},
		},
		{
			name: "name include",
			filter: &config.FilterConfig{
				Names: &config.NameFilterConfig{Include: []string{"acme-*"}},
			},
			wantIDs: []string{"acme-tools", "acme-labs"},
		},
		{
			name: "tag exclude",
			filter: &config.FilterConfig{
				Tags: &config.TagFilterConfig{Exclude: []string{"experimental"}},
			},
			wantIDs: []string{"acme-tools", "other"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			cfg := config.Default(path)
			cfg.Registry.Filter = tt.filter

			manager, err := NewRegistryManager(context.Background(), cfg, nil)
			require.NoError(t, err)
			t.Cleanup(func() { _ = manager.Close() })

			var ids []string
			for _, e := range manager.Get().Entries() {
				ids = append(ids, e.ID)
			}
			assert.Equal(t, tt.wantIDs, ids)
		})
	}
}

func TestNewRegistryManager_Errors(t *testing.T) {
	t.Parallel()

	_, err := NewRegistryManager(context.Background(), nil, nil)
	require.Error(t, err)

	path := filepath.Join(t.TempDir(), "marketplaces.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"marketplaces": [{"id": "x"}]}`), 0o600))
	_, err = NewRegistryManager(context.Background(), config.Default(path), nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "name is required")

	valid := filepath.Join(t.TempDir(), "marketplaces.json")
	require.NoError(t, os.WriteFile(valid, []byte(`{"marketplaces": []}`), 0o600))
	cfg := config.Default(valid)
	cfg.Registry.Filter = &config.FilterConfig{Names: &config.NameFilterConfig{Include: []string{"[bad"}}}
	_, err = NewRegistryManager(context.Background(), cfg, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid registry filter")
}

func TestPluralize(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		count    int
		expected string
	}{
		{name: "single item", count: 1, expected: ""},
		{name: "zero items", count: 0, expected: "s"},
		{name: "multiple items", count: 5, expected: "s"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.expected, pluralize(tt.count, "", "s"))
		})
	}
}
