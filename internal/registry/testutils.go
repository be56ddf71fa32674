package registry

import "fmt"

// HubOption configures a Hub built for tests
type HubOption func(*Hub)

// EntryOption configures an Entry built for tests
type EntryOption func(*Entry)

// NewTestHub creates a Hub with default metadata and applies opts
func NewTestHub(opts ...HubOption) *Hub {
	hub := &Hub{
		Metadata: HubMetadata{
			Name:        "Test Hub",
			Description: "Marketplaces for tests",
			Version:     "1.0.0",
		},
		Marketplaces: []Entry{},
	}
	for _, opt := range opts {
		opt(hub)
	}
	return hub
}

// WithHubVersion sets the hub version
func WithHubVersion(version string) HubOption {
	return func(h *Hub) {
		h.Metadata.Version = version
	}
}

// WithEntries appends entries to the hub
func WithEntries(entries ...Entry) HubOption {
	return func(h *Hub) {
		h.Marketplaces = append(h.Marketplaces, entries...)
	}
}

// NewTestEntry creates an entry pointing at github.com/<id>/marketplace
func NewTestEntry(id string, opts ...EntryOption) Entry {
	e := Entry{
		ID:          id,
		Name:        fmt.Sprintf("%s marketplace", id),
		Description: fmt.Sprintf("Test marketplace description for %s", id),
		Owner:       Owner{Name: id},
		Repository:  fmt.Sprintf("https://github.com/%s/marketplace", id),
	}
	for _, opt := range opts {
		opt(&e)
	}
	return e
}

// WithName sets the display name
func WithName(name string) EntryOption {
	return func(e *Entry) {
		e.Name = name
	}
}

// WithDescription sets the description
func WithDescription(description string) EntryOption {
	return func(e *Entry) {
		e.Description = description
	}
}

// WithOwner sets the owner
func WithOwner(name, url string) EntryOption {
	return func(e *Entry) {
		e.Owner = Owner{Name: name, URL: url}
	}
}

// WithRepository sets the repository URL
func WithRepository(repo string) EntryOption {
	return func(e *Entry) {
		e.Repository = repo
	}
}

// WithManifestURL sets an explicit manifest URL
func WithManifestURL(u string) EntryOption {
	return func(e *Entry) {
		e.ManifestURL = u
	}
}

// WithTags sets the tags
func WithTags(tags ...string) EntryOption {
	return func(e *Entry) {
		e.Tags = tags
	}
}

// WithVerified marks the entry as verified
func WithVerified() EntryOption {
	return func(e *Entry) {
		e.Verified = true
	}
}
