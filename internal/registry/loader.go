package registry

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/tailscale/hujson"
)

// Load reads and validates the registry file at path.
// The file is JSON; comments and trailing commas are accepted.
func Load(path string) (*Hub, error) {
	cleanPath := filepath.Clean(path)
	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read registry file: %w", err)
	}

	hub, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("registry file %s: %w", cleanPath, err)
	}
	return hub, nil
}

// Parse decodes and validates registry data
func Parse(data []byte) (*Hub, error) {
	standard, err := hujson.Standardize(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse registry: %w", err)
	}

	var hub Hub
	if err := json.Unmarshal(standard, &hub); err != nil {
		return nil, fmt.Errorf("failed to decode registry: %w", err)
	}

	if err := hub.Validate(); err != nil {
		return nil, err
	}
	return &hub, nil
}

// Validate checks identity and shape of every entry.
// HTTPS is not enforced here; links are checked when they are rendered.
func (h *Hub) Validate() error {
	var errs []error
	seen := make(map[string]int, len(h.Marketplaces))

	for i, e := range h.Marketplaces {
		prefix := fmt.Sprintf("marketplaces[%d] (%s)", i, e.ID)

		if strings.TrimSpace(e.ID) == "" {
			errs = append(errs, fmt.Errorf("marketplaces[%d]: id is required", i))
		} else if first, dup := seen[e.ID]; dup {
			errs = append(errs, fmt.Errorf("%s: duplicate id, first defined at marketplaces[%d]", prefix, first))
		} else {
			seen[e.ID] = i
		}

		if strings.TrimSpace(e.Name) == "" {
			errs = append(errs, fmt.Errorf("%s: name is required", prefix))
		}

		if e.Repository == "" && e.ManifestURL == "" {
			errs = append(errs, fmt.Errorf("%s: repository or manifestUrl is required", prefix))
		}
		if e.Repository != "" && !isAbsoluteURL(e.Repository) {
			errs = append(errs, fmt.Errorf("%s: repository %q is not a valid URL", prefix, e.Repository))
		}
		if e.ManifestURL != "" && !isAbsoluteURL(e.ManifestURL) {
			errs = append(errs, fmt.Errorf("%s: manifestUrl %q is not a valid URL", prefix, e.ManifestURL))
		}
	}

	return errors.Join(errs...)
}

func isAbsoluteURL(raw string) bool {
	u, err := url.Parse(raw)
	return err == nil && u.Scheme != "" && u.Host != ""
}
