package registry

import (
	"errors"
	"time"
)

// ErrNotFound is returned when a marketplace id is not in the registry
var ErrNotFound = errors.New("marketplace not found")

// Owner attributes a marketplace to a person or organization.
// URL must be checked before it is rendered as a link.
type Owner struct {
	Name string `json:"name" yaml:"name"`
	URL  string `json:"url,omitempty" yaml:"url,omitempty"`
}

// Entry is a single marketplace registration
type Entry struct {
	ID          string   `json:"id" yaml:"id"`
	Name        string   `json:"name" yaml:"name"`
	Description string   `json:"description" yaml:"description"`
	Owner       Owner    `json:"owner" yaml:"owner"`
	Repository  string   `json:"repository" yaml:"repository"`
	ManifestURL string   `json:"manifestUrl,omitempty" yaml:"manifestUrl,omitempty"`
	Tags        []string `json:"tags,omitempty" yaml:"tags,omitempty"`
	Homepage    string   `json:"homepage,omitempty" yaml:"homepage,omitempty"`
	Verified    bool     `json:"verified,omitempty" yaml:"verified,omitempty"`
	AddedAt     string   `json:"addedAt,omitempty" yaml:"addedAt,omitempty"`
}

// AddedTime parses AddedAt, returning the zero time when it is absent or malformed
func (e Entry) AddedTime() time.Time {
	if e.AddedAt == "" {
		return time.Time{}
	}
	for _, layout := range []string{time.RFC3339, time.DateOnly} {
		if t, err := time.Parse(layout, e.AddedAt); err == nil {
			return t
		}
	}
	return time.Time{}
}

// HubMetadata describes the hub itself
type HubMetadata struct {
	Name        string `json:"name" yaml:"name"`
	Description string `json:"description" yaml:"description"`
	Version     string `json:"version" yaml:"version"`
}

// Hub is the curated list of known marketplaces
type Hub struct {
	Metadata     HubMetadata `json:"hub" yaml:"hub"`
	Marketplaces []Entry     `json:"marketplaces" yaml:"marketplaces"`
}

// Len returns the number of registered marketplaces
func (h *Hub) Len() int {
	if h == nil {
		return 0
	}
	return len(h.Marketplaces)
}

// Lookup returns the entry registered under id
func (h *Hub) Lookup(id string) (Entry, error) {
	if h != nil {
		for _, e := range h.Marketplaces {
			if e.ID == id {
				return e, nil
			}
		}
	}
	return Entry{}, ErrNotFound
}

// Entries returns a copy of the marketplace list
func (h *Hub) Entries() []Entry {
	if h == nil {
		return nil
	}
	out := make([]Entry, len(h.Marketplaces))
	copy(out, h.Marketplaces)
	return out
}
