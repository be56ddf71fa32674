package registry

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validRegistry = `{
  // curated marketplaces
  "hub": {"name": "Plugin Hub", "description": "Community marketplaces", "version": "0.3.0"},
  "marketplaces": [
    {
      "id": "acme",
      "name": "Acme Tools",
      "description": "Linters and formatters",
      "owner": {"name": "Acme", "url": "https://acme.test"},
      "repository": "https://github.com/acme/tools",
      "tags": ["lint", "format"],
      "verified": true,
      "addedAt": "2024-05-01",
    },
    {
      "id": "beta",
      "name": "Beta",
      "description": "Explicit manifest",
      "owner": {"name": "Beta"},
      "repository": "https://github.com/beta/plugins",
      "manifestUrl": "https://cdn.beta.test/marketplace.json"
    },
  ],
}`

func TestParse(t *testing.T) {
	t.Parallel()

	hub, err := Parse([]byte(validRegistry))
	require.NoError(t, err)

	assert.Equal(t, "Plugin Hub", hub.Metadata.Name)
	assert.Equal(t, "0.3.0", hub.Metadata.Version)
	require.Equal(t, 2, hub.Len())

	acme := hub.Marketplaces[0]
	assert.Equal(t, "acme", acme.ID)
	assert.Equal(t, "https://acme.test", acme.Owner.URL)
	assert.Equal(t, []string{"lint", "format"}, acme.Tags)
	assert.True(t, acme.Verified)
	assert.Equal(t, time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC), acme.AddedTime())

	assert.Equal(t, "https://cdn.beta.test/marketplace.json", hub.Marketplaces[1].ManifestURL)
	assert.True(t, hub.Marketplaces[1].AddedTime().IsZero())
}

func TestParseValidation(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		doc     string
		wantErr []string
	}{
		{
			name:    "malformed",
			doc:     `{"marketplaces": [`,
			wantErr: []string{"failed to parse registry"},
		},
		{
			name: "duplicate id",
			doc: `{"marketplaces": [
				{"id": "a", "name": "A", "repository": "https://github.com/a/a"},
				{"id": "a", "name": "A2", "repository": "https://github.com/a/b"}
			]}`,
			wantErr: []string{"marketplaces[1] (a): duplicate id, first defined at marketplaces[0]"},
		},
		{
			name: "missing fields",
			doc: `{"marketplaces": [
				{"name": "No id", "repository": "https://github.com/a/a"},
				{"id": "b"}
			]}`,
			wantErr: []string{
				"marketplaces[0]: id is required",
				"marketplaces[1] (b): name is required",
				"marketplaces[1] (b): repository or manifestUrl is required",
			},
		},
		{
			name: "relative urls",
			doc: `{"marketplaces": [
				{"id": "c", "name": "C", "repository": "github.com/c/c", "manifestUrl": "/m.json"}
			]}`,
			wantErr: []string{
				`repository "github.com/c/c" is not a valid URL`,
				`manifestUrl "/m.json" is not a valid URL`,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := Parse([]byte(tt.doc))
			require.Error(t, err)
			for _, want := range tt.wantErr {
				assert.Contains(t, err.Error(), want)
			}
		})
	}
}

func TestLookup(t *testing.T) {
	t.Parallel()

	hub := NewTestHub(WithEntries(NewTestEntry("acme"), NewTestEntry("beta")))

	e, err := hub.Lookup("beta")
	require.NoError(t, err)
	assert.Equal(t, "beta", e.ID)

	_, err = hub.Lookup("missing")
	assert.ErrorIs(t, err, ErrNotFound)

	var nilHub *Hub
	_, err = nilHub.Lookup("acme")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Zero(t, nilHub.Len())
}

func TestEntriesReturnsCopy(t *testing.T) {
	t.Parallel()

	hub := NewTestHub(WithEntries(NewTestEntry("acme")))
	entries := hub.Entries()
	entries[0].ID = "changed"
	assert.Equal(t, "acme", hub.Marketplaces[0].ID)
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
}

func TestManagerReloadKeepsLastGood(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "marketplaces.json")
	writeFile(t, path, validRegistry)

	var reloads int
	m, err := NewManager(context.Background(), path, WithReloadHook(func(*Hub) { reloads++ }))
	require.NoError(t, err)
	t.Cleanup(func() { _ = m.Close() })

	assert.Equal(t, 2, m.Get().Len())
	assert.Equal(t, 1, reloads)

	writeFile(t, path, `{"marketplaces": [{"id": "x"}]}`)
	_, err = m.Reload(context.Background())
	require.Error(t, err)
	assert.Equal(t, 2, m.Get().Len(), "invalid file must not replace the active registry")
	assert.Equal(t, 1, reloads)

	writeFile(t, path, `{"hub": {"name": "h"}, "marketplaces": [{"id": "x", "name": "X", "repository": "https://github.com/x/x"}]}`)
	hub, err := m.Reload(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, hub.Len())
	assert.Same(t, hub, m.Get())
	assert.Equal(t, 2, reloads)
}

type dropFilter struct{ id string }

func (f dropFilter) Apply(_ context.Context, hub *Hub) (*Hub, error) {
	out := &Hub{Metadata: hub.Metadata}
	for _, e := range hub.Marketplaces {
		if e.ID != f.id {
			out.Marketplaces = append(out.Marketplaces, e)
		}
	}
	return out, nil
}

type failingFilter struct{}

func (failingFilter) Apply(context.Context, *Hub) (*Hub, error) {
	return nil, errors.New("boom")
}

func TestManagerFilter(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "marketplaces.json")
	writeFile(t, path, validRegistry)

	m, err := NewManager(context.Background(), path, WithFilter(dropFilter{id: "acme"}))
	require.NoError(t, err)
	require.Equal(t, 1, m.Get().Len())
	assert.Equal(t, "beta", m.Get().Marketplaces[0].ID)

	_, err = NewManager(context.Background(), path, WithFilter(failingFilter{}))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to filter registry")
}

func TestNewManagerMissingFile(t *testing.T) {
	t.Parallel()

	_, err := NewManager(context.Background(), filepath.Join(t.TempDir(), "nope.json"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to load initial registry")
}

func TestManagerWatch(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "marketplaces.json")
	writeFile(t, path, validRegistry)

	m, err := NewManager(context.Background(), path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = m.Close() })

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	done := make(chan error, 1)
	go func() { done <- m.Watch(ctx) }()

	// give the watcher time to register the file
	require.Eventually(t, func() bool {
		mm := m.(*manager)
		mm.watcherMu.Lock()
		defer mm.watcherMu.Unlock()
		return mm.watcher != nil
	}, 2*time.Second, 10*time.Millisecond)
	time.Sleep(50 * time.Millisecond)

	writeFile(t, path, `{"marketplaces": [{"id": "x", "name": "X", "repository": "https://github.com/x/x"}]}`)

	require.Eventually(t, func() bool {
		return m.Get().Len() == 1
	}, 5*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("watcher did not stop")
	}
}

func TestManagerWatchAtomicReplace(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "marketplaces.json")
	writeFile(t, path, validRegistry)

	var reloads atomic.Int32
	m, err := NewManager(context.Background(), path, WithReloadHook(func(*Hub) { reloads.Add(1) }))
	require.NoError(t, err)
	t.Cleanup(func() { _ = m.Close() })

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go func() { _ = m.Watch(ctx) }()

	require.Eventually(t, func() bool {
		mm := m.(*manager)
		mm.watcherMu.Lock()
		defer mm.watcherMu.Unlock()
		return mm.watcher != nil
	}, 2*time.Second, 10*time.Millisecond)
	time.Sleep(50 * time.Millisecond)

	// sibling files in the same directory are ignored
	tmp := filepath.Join(dir, "marketplaces.json.tmp")
	writeFile(t, tmp, `{"marketplaces": [{"id": "x", "name": "X", "repository": "https://github.com/x/x"}]}`)
	time.Sleep(4 * watchDebounce)
	assert.Equal(t, int32(1), reloads.Load())
	assert.Equal(t, 2, m.Get().Len())

	require.NoError(t, os.Rename(tmp, path))

	require.Eventually(t, func() bool {
		return m.Get().Len() == 1
	}, 5*time.Second, 20*time.Millisecond)

	// a second replace is picked up too
	writeFile(t, tmp, validRegistry)
	require.NoError(t, os.Rename(tmp, path))

	require.Eventually(t, func() bool {
		return m.Get().Len() == 2
	}, 5*time.Second, 20*time.Millisecond)
}

func TestStaticManager(t *testing.T) {
	t.Parallel()

	hub := NewTestHub(WithEntries(NewTestEntry("acme")))
	m := NewStaticManager(hub)

	assert.Same(t, hub, m.Get())
	got, err := m.Reload(context.Background())
	require.NoError(t, err)
	assert.Same(t, hub, got)
	assert.NoError(t, m.Close())
}
