package manifest

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/Masterminds/semver/v3"
	"github.com/santhosh-tekuri/jsonschema/v6"
)

//go:embed manifest.schema.json
var schemaJSON []byte

const schemaURL = "https://marketplace-hub.local/schemas/manifest.json"

// ErrInvalidManifest is returned when a document does not have the manifest shape
var ErrInvalidManifest = errors.New("invalid marketplace manifest")

var (
	compileOnce    sync.Once
	compiledSchema *jsonschema.Schema
	compileErr     error
)

func schema() (*jsonschema.Schema, error) {
	compileOnce.Do(func() {
		doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(schemaJSON))
		if err != nil {
			compileErr = fmt.Errorf("failed to parse manifest schema: %w", err)
			return
		}
		c := jsonschema.NewCompiler()
		if err := c.AddResource(schemaURL, doc); err != nil {
			compileErr = fmt.Errorf("failed to add manifest schema: %w", err)
			return
		}
		compiledSchema, compileErr = c.Compile(schemaURL)
	})
	return compiledSchema, compileErr
}

// Validate checks that data is a JSON document with the manifest shape.
// Unknown fields are allowed.
func Validate(data []byte) error {
	sch, err := schema()
	if err != nil {
		return err
	}

	inst, err := jsonschema.UnmarshalJSON(bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidManifest, err)
	}

	if err := sch.Validate(inst); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidManifest, err)
	}
	return nil
}

// Decode validates data and decodes it into a Manifest
func Decode(data []byte) (*Manifest, error) {
	if err := Validate(data); err != nil {
		return nil, err
	}

	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidManifest, err)
	}
	if m.Plugins == nil {
		m.Plugins = []Plugin{}
	}
	return &m, nil
}

// Warnings reports problems that do not make a manifest unusable:
// duplicate plugin names and versions that are not semantic versions.
func Warnings(m *Manifest) []string {
	if m == nil {
		return nil
	}

	var warnings []string
	seen := make(map[string]struct{}, len(m.Plugins))
	for i, p := range m.Plugins {
		if _, dup := seen[p.Name]; dup {
			warnings = append(warnings, fmt.Sprintf("plugins[%d] (%s): duplicate plugin name", i, p.Name))
		}
		seen[p.Name] = struct{}{}

		if p.Version == "" {
			continue
		}
		if _, err := semver.NewVersion(p.Version); err != nil {
			warnings = append(warnings, fmt.Sprintf("plugins[%d] (%s): version %q is not a semantic version", i, p.Name, p.Version))
		}
	}
	return warnings
}
