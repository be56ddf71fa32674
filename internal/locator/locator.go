// Package locator turns repository URLs into coordinates on the hosting provider
// and derives the raw-content location of a marketplace manifest.
package locator

import (
	"fmt"
	"net/url"
	"strings"
)

const (
	// Host is the only hosting provider currently supported
	Host = "github.com"

	// RawContentBase is the raw-content root of the hosting provider
	RawContentBase = "https://raw.githubusercontent.com"

	// DefaultBranch is assumed when the real default branch is not resolved
	DefaultBranch = "main"

	// ManifestDir is the directory that holds the marketplace manifest inside a repository
	ManifestDir = ".claude-plugin"

	// ManifestFile is the marketplace manifest file name
	ManifestFile = "marketplace.json"
)

// ManifestPath is the repository-relative path of the manifest
var ManifestPath = ManifestDir + "/" + ManifestFile

// Repository identifies a repository on the hosting provider
type Repository struct {
	Owner         string `json:"owner"`
	Repo          string `json:"repo"`
	DefaultBranch string `json:"defaultBranch"`
}

// Slug returns "owner/repo"
func (r Repository) Slug() string {
	return r.Owner + "/" + r.Repo
}

// CloneURL returns the HTTPS clone URL of the repository
func (r Repository) CloneURL() string {
	return fmt.Sprintf("https://%s/%s/%s.git", Host, r.Owner, r.Repo)
}

// ParseRepositoryURL parses a repository URL into owner, repo and default branch.
// It returns nil when the URL is not valid, is not on the supported host, or has
// fewer than two non-empty path segments.
func ParseRepositoryURL(raw string) *Repository {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil
	}

	if !isSupportedHost(u.Hostname()) {
		return nil
	}

	var segments []string
	for _, s := range strings.Split(u.Path, "/") {
		if s != "" {
			segments = append(segments, s)
		}
	}
	if len(segments) < 2 {
		return nil
	}

	repo := strings.TrimSuffix(segments[1], ".git")
	if repo == "" {
		return nil
	}

	return &Repository{
		Owner:         segments[0],
		Repo:          repo,
		DefaultBranch: DefaultBranch,
	}
}

// BuildManifestURL composes the raw-content URL of the manifest for a repository.
// An empty branch means DefaultBranch. It returns "" when the repository URL
// does not parse.
func BuildManifestURL(repositoryURL, branch string) string {
	repo := ParseRepositoryURL(repositoryURL)
	if repo == nil {
		return ""
	}
	if branch == "" {
		branch = repo.DefaultBranch
	}
	return fmt.Sprintf("%s/%s/%s/%s/%s", RawContentBase, repo.Owner, repo.Repo, branch, ManifestPath)
}

func isSupportedHost(hostname string) bool {
	hostname = strings.ToLower(hostname)
	return hostname == Host || hostname == "www."+Host
}
