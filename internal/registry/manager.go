package registry

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/stacklok/marketplace-hub/internal/logging"
)

// watchDebounce coalesces the burst of events a single save produces
const watchDebounce = 100 * time.Millisecond

// Manager owns the loaded registry.
// The file is read at construction and again only on an explicit Reload or,
// when Watch is running, after an external change to the file. An invalid
// file never replaces the last good registry.
//
//go:generate mockgen -destination=mocks/mock_manager.go -package=mocks -source=manager.go Manager
type Manager interface {
	// Get returns the active registry
	Get() *Hub

	// Reload re-reads the registry file and applies it if valid
	Reload(ctx context.Context) (*Hub, error)

	// Watch reloads on external file changes until ctx is cancelled
	Watch(ctx context.Context) error

	// Close releases the file watcher
	Close() error
}

// Filter narrows a freshly loaded registry
type Filter interface {
	Apply(ctx context.Context, hub *Hub) (*Hub, error)
}

// Loader reads a registry from a path
type Loader func(path string) (*Hub, error)

type manager struct {
	mu        sync.RWMutex
	hub       *Hub
	path      string
	loader    Loader
	filter    Filter
	onReload  []func(*Hub)
	watcher   *fsnotify.Watcher
	watcherMu sync.Mutex
}

// ManagerOption customizes a Manager
type ManagerOption func(*manager)

// WithLoader replaces the file loader
func WithLoader(l Loader) ManagerOption {
	return func(m *manager) {
		m.loader = l
	}
}

// WithFilter applies f to every loaded registry
func WithFilter(f Filter) ManagerOption {
	return func(m *manager) {
		m.filter = f
	}
}

// WithReloadHook registers fn to run after a registry is applied
func WithReloadHook(fn func(*Hub)) ManagerOption {
	return func(m *manager) {
		m.onReload = append(m.onReload, fn)
	}
}

// NewManager loads the registry at path
func NewManager(ctx context.Context, path string, opts ...ManagerOption) (Manager, error) {
	m := &manager{
		path:   path,
		loader: Load,
	}
	for _, opt := range opts {
		opt(m)
	}

	if _, err := m.Reload(ctx); err != nil {
		return nil, fmt.Errorf("failed to load initial registry: %w", err)
	}
	return m, nil
}

// NewStaticManager serves a fixed registry; Reload returns it unchanged
func NewStaticManager(hub *Hub) Manager {
	return &manager{
		hub:    hub,
		loader: func(string) (*Hub, error) { return hub, nil },
	}
}

func (m *manager) Get() *Hub {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.hub
}

func (m *manager) Reload(ctx context.Context) (*Hub, error) {
	hub, err := m.loader(m.path)
	if err != nil {
		return nil, err
	}

	if m.filter != nil {
		hub, err = m.filter.Apply(ctx, hub)
		if err != nil {
			return nil, fmt.Errorf("failed to filter registry: %w", err)
		}
	}

	m.mu.Lock()
	m.hub = hub
	m.mu.Unlock()

	for _, fn := range m.onReload {
		fn(hub)
	}

	logging.FromContext(ctx).Info("Registry loaded", "path", m.path, "marketplaces", hub.Len())
	return hub, nil
}

func (m *manager) Watch(ctx context.Context) error {
	log := logging.FromContext(ctx, "path", m.path)

	m.watcherMu.Lock()
	if m.watcher != nil {
		m.watcherMu.Unlock()
		return fmt.Errorf("registry watcher is already running")
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		m.watcherMu.Unlock()
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	m.watcher = watcher
	m.watcherMu.Unlock()

	// A watch on the file itself is lost when an editor renames a new file over it
	target := filepath.Clean(m.path)
	dir := filepath.Dir(target)
	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("failed to watch registry directory %s: %w", dir, err)
	}
	log.Info("Watching registry file", "dir", dir)

	debounce := time.NewTimer(watchDebounce)
	debounce.Stop()
	defer debounce.Stop()
	var pending <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-watcher.Events:
			if !ok {
				return fmt.Errorf("watcher event channel closed")
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) || event.Has(fsnotify.Rename) {
				debounce.Reset(watchDebounce)
				pending = debounce.C
			}

		case <-pending:
			pending = nil
			if _, err := m.Reload(ctx); err != nil {
				// previous registry stays active
				log.Error(err, "Failed to reload registry")
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return fmt.Errorf("watcher error channel closed")
			}
			log.Error(err, "File watcher error")
		}
	}
}

func (m *manager) Close() error {
	m.watcherMu.Lock()
	defer m.watcherMu.Unlock()

	if m.watcher != nil {
		if err := m.watcher.Close(); err != nil {
			return fmt.Errorf("failed to close file watcher: %w", err)
		}
		m.watcher = nil
	}
	return nil
}
