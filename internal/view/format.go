package view

import (
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/microcosm-cc/bluemonday"

	"github.com/stacklok/marketplace-hub/internal/aggregator"
	"github.com/stacklok/marketplace-hub/internal/locator"
	"github.com/stacklok/marketplace-hub/internal/manifest"
)

// strict strips all markup. Policies are safe for concurrent use once built.
var strict = bluemonday.StrictPolicy()

// FormatStarCount renders a star count with a K or M suffix
func FormatStarCount(stars int) string {
	switch {
	case stars >= 1_000_000:
		return fmt.Sprintf("%.1fM", float64(stars)/1_000_000)
	case stars >= 1_000:
		return fmt.Sprintf("%.1fK", float64(stars)/1_000)
	default:
		return strconv.Itoa(stars)
	}
}

// FormatRelativeTime describes how long before now t was, in whole days,
// weeks, months or years. Times in the future count as today.
func FormatRelativeTime(t, now time.Time) string {
	if t.IsZero() {
		return "Updated recently"
	}

	days := max(int(now.Sub(t)/(24*time.Hour)), 0)
	switch {
	case days == 0:
		return "Updated today"
	case days == 1:
		return "Updated yesterday"
	case days < 7:
		return fmt.Sprintf("Updated %d days ago", days)
	case days < 30:
		return fmt.Sprintf("Updated %d weeks ago", days/7)
	case days < 365:
		return fmt.Sprintf("Updated %d months ago", days/30)
	default:
		return fmt.Sprintf("Updated %d years ago", days/365)
	}
}

// SafeURL returns raw when it is an absolute https URL, otherwise ""
func SafeURL(raw string) string {
	if raw == "" {
		return ""
	}
	u, err := url.Parse(raw)
	if err != nil || u.Scheme != "https" || u.Host == "" {
		return ""
	}
	return u.String()
}

// InstallCommand returns the command that adds a repository's marketplace,
// or "" when the repository is not on a supported host
func InstallCommand(repositoryURL string) string {
	repo := locator.ParseRepositoryURL(repositoryURL)
	if repo == nil {
		return ""
	}
	return "/plugin marketplace add " + repo.Slug()
}

// Sanitize strips markup from third-party text
func Sanitize(s string) string {
	if s == "" {
		return ""
	}
	return strict.Sanitize(s)
}

// Sanitized returns a copy of m with remote text stripped of markup and
// unsafe links removed. The manifest is copied, never modified.
func Sanitized(m aggregator.FetchedMarketplace) aggregator.FetchedMarketplace {
	m.Owner.URL = SafeURL(m.Owner.URL)
	m.Homepage = SafeURL(m.Homepage)

	if m.Manifest == nil {
		return m
	}

	mf := *m.Manifest
	if mf.Metadata != nil {
		md := *mf.Metadata
		md.Description = Sanitize(md.Description)
		mf.Metadata = &md
	}
	mf.Owner.URL = SafeURL(mf.Owner.URL)

	mf.Plugins = make([]manifest.Plugin, len(m.Manifest.Plugins))
	for i, p := range m.Manifest.Plugins {
		p.Description = Sanitize(p.Description)
		p.Homepage = SafeURL(p.Homepage)
		p.Repository = SafeURL(p.Repository)
		if p.Author != nil {
			a := *p.Author
			a.URL = SafeURL(a.URL)
			p.Author = &a
		}
		mf.Plugins[i] = p
	}
	m.Manifest = &mf
	return m
}
