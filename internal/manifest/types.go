// Package manifest defines the marketplace manifest document published by each
// marketplace, with the variant fields (author, plugin source, string-or-list
// declarations) decoded into explicit Go types.
package manifest

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// Manifest is the document fetched from a marketplace's manifest URL
type Manifest struct {
	Name     string    `json:"name" yaml:"name"`
	Owner    Owner     `json:"owner" yaml:"owner"`
	Metadata *Metadata `json:"metadata,omitempty" yaml:"metadata,omitempty"`
	// Plugins keeps the order published by the source
	Plugins []Plugin `json:"plugins" yaml:"plugins"`
}

// Owner is the publisher of a manifest
type Owner struct {
	Name  string `json:"name" yaml:"name"`
	Email string `json:"email,omitempty" yaml:"email,omitempty"`
	URL   string `json:"url,omitempty" yaml:"url,omitempty"`
}

// Metadata is optional descriptive data about a manifest
type Metadata struct {
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
	Version     string `json:"version,omitempty" yaml:"version,omitempty"`
	PluginRoot  string `json:"pluginRoot,omitempty" yaml:"pluginRoot,omitempty"`
}

// Plugin is a single entry in a manifest
type Plugin struct {
	Name        string       `json:"name" yaml:"name"`
	Source      PluginSource `json:"source" yaml:"source"`
	Description string       `json:"description,omitempty" yaml:"description,omitempty"`
	Version     string       `json:"version,omitempty" yaml:"version,omitempty"`
	Author      *Author      `json:"author,omitempty" yaml:"author,omitempty"`
	Homepage    string       `json:"homepage,omitempty" yaml:"homepage,omitempty"`
	Repository  string       `json:"repository,omitempty" yaml:"repository,omitempty"`
	License     string       `json:"license,omitempty" yaml:"license,omitempty"`
	Keywords    []string     `json:"keywords,omitempty" yaml:"keywords,omitempty"`
	Category    string       `json:"category,omitempty" yaml:"category,omitempty"`
	Tags        []string     `json:"tags,omitempty" yaml:"tags,omitempty"`
	Commands    StringList   `json:"commands,omitempty" yaml:"commands,omitempty"`
	Agents      StringList   `json:"agents,omitempty" yaml:"agents,omitempty"`
	Strict      *bool        `json:"strict,omitempty" yaml:"strict,omitempty"`

	// Hooks and MCPServers are opaque, either a path or an inline object
	Hooks      json.RawMessage `json:"hooks,omitempty" yaml:"-"`
	MCPServers json.RawMessage `json:"mcpServers,omitempty" yaml:"-"`
}

// AuthorKind discriminates the Author variants
type AuthorKind int

const (
	// AuthorNamed is an author given as a bare name
	AuthorNamed AuthorKind = iota + 1
	// AuthorDetailed is an author given as {name, email?, url?}
	AuthorDetailed
)

// Author is either Named(name) or Detailed({name, email?, url?})
type Author struct {
	Kind  AuthorKind
	Name  string
	Email string
	URL   string
}

// NamedAuthor builds the Named variant
func NamedAuthor(name string) *Author {
	return &Author{Kind: AuthorNamed, Name: name}
}

// DetailedAuthor builds the Detailed variant
func DetailedAuthor(name, email, url string) *Author {
	return &Author{Kind: AuthorDetailed, Name: name, Email: email, URL: url}
}

type authorObject struct {
	Name  string `json:"name"`
	Email string `json:"email,omitempty"`
	URL   string `json:"url,omitempty"`
}

// DisplayName is the single normalization used wherever an author is shown
func (a *Author) DisplayName() string {
	if a == nil {
		return ""
	}
	return strings.TrimSpace(a.Name)
}

// UnmarshalJSON accepts either a string or an object
func (a *Author) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var name string
		if err := json.Unmarshal(data, &name); err != nil {
			return err
		}
		*a = Author{Kind: AuthorNamed, Name: name}
		return nil
	}

	var obj authorObject
	if err := json.Unmarshal(data, &obj); err != nil {
		return fmt.Errorf("author must be a string or an object: %w", err)
	}
	*a = Author{Kind: AuthorDetailed, Name: obj.Name, Email: obj.Email, URL: obj.URL}
	return nil
}

// MarshalJSON writes the variant back in its original shape
func (a Author) MarshalJSON() ([]byte, error) {
	if a.Kind == AuthorNamed {
		return json.Marshal(a.Name)
	}
	return json.Marshal(authorObject{Name: a.Name, Email: a.Email, URL: a.URL})
}

// MarshalYAML renders the display name
func (a Author) MarshalYAML() (any, error) {
	return a.DisplayName(), nil
}

// PluginSource is either a bare locator string or a structured descriptor
// such as {"source": "github", "repo": "owner/repo"} or {"type": "git", "url": "..."}.
type PluginSource struct {
	// Path is set for the string form
	Path string
	// Type and URL are lifted from the structured form when present
	Type string
	URL  string
	// Fields holds the full structured form
	Fields map[string]any
}

// IsStructured reports whether the source was given as an object
func (s PluginSource) IsStructured() bool {
	return s.Fields != nil
}

// String returns a printable locator
func (s PluginSource) String() string {
	if !s.IsStructured() {
		return s.Path
	}
	if s.URL != "" {
		return s.URL
	}
	if repo, ok := s.Fields["repo"].(string); ok {
		return repo
	}
	if s.Type != "" {
		return s.Type
	}
	return ""
}

// UnmarshalJSON accepts either a string or an object
func (s *PluginSource) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var path string
		if err := json.Unmarshal(data, &path); err != nil {
			return err
		}
		*s = PluginSource{Path: path}
		return nil
	}

	fields := map[string]any{}
	if err := json.Unmarshal(data, &fields); err != nil {
		return fmt.Errorf("source must be a string or an object: %w", err)
	}

	src := PluginSource{Fields: fields}
	if v, ok := fields["type"].(string); ok {
		src.Type = v
	} else if v, ok := fields["source"].(string); ok {
		src.Type = v
	}
	if v, ok := fields["url"].(string); ok {
		src.URL = v
	}
	*s = src
	return nil
}

// MarshalJSON writes the source back in its original shape
func (s PluginSource) MarshalJSON() ([]byte, error) {
	if s.IsStructured() {
		return json.Marshal(s.Fields)
	}
	return json.Marshal(s.Path)
}

// MarshalYAML renders the printable locator
func (s PluginSource) MarshalYAML() (any, error) {
	return s.String(), nil
}

// StringList accepts a single string or a list of strings
type StringList []string

// UnmarshalJSON implements json.Unmarshaler
func (l *StringList) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var single string
		if err := json.Unmarshal(data, &single); err != nil {
			return err
		}
		*l = StringList{single}
		return nil
	}

	var many []string
	if err := json.Unmarshal(data, &many); err != nil {
		return fmt.Errorf("expected a string or a list of strings: %w", err)
	}
	*l = many
	return nil
}
