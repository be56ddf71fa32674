// Package config provides configuration loading and management for the marketplace hub.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/stacklok/marketplace-hub/internal/telemetry"
)

const (
	// EnvPrefix is the prefix for environment overrides read through viper
	EnvPrefix = "MARKETPLACE_HUB"

	// DefaultAddress is the default HTTP listen address
	DefaultAddress = ":8080"

	// DefaultRegistryPath is the default registry file location
	DefaultRegistryPath = ".claude-plugin/marketplaces.json"

	// DefaultFetchTimeout bounds every individual manifest or metadata fetch
	DefaultFetchTimeout = 10 * time.Second

	// DefaultManifestTTL is how long a fetched manifest is served before it is refreshed
	DefaultManifestTTL = time.Hour

	// DefaultMetadataTTL is how long repository metadata is served before it is refreshed
	DefaultMetadataTTL = 24 * time.Hour

	// DefaultRefreshInterval is the default interval between background aggregation passes
	DefaultRefreshInterval = 30 * time.Minute

	// DefaultGitHubAPIURL is the public GitHub REST endpoint
	DefaultGitHubAPIURL = "https://api.github.com/"

	// DefaultTokenEnv is the environment variable holding the GitHub token
	DefaultTokenEnv = "GITHUB_TOKEN"

	defaultReadTimeout  = 10 * time.Second
	defaultWriteTimeout = 30 * time.Second
)

// Option defines the interface for configuration options
type Option func(*loaderConfig) error

// loaderConfig defines the configuration for loading a configuration
type loaderConfig struct {
	path string
}

// WithConfigPath loads configuration from a YAML file
func WithConfigPath(path string) Option {
	return func(cfg *loaderConfig) error {
		if path == "" {
			return fmt.Errorf("path is required")
		}

		// Resolve symlinks to prevent symlink attacks.
		// Note that this calls filepath.Clean internally.
		realPath, err := filepath.EvalSymlinks(path)
		if err != nil {
			return fmt.Errorf("failed to evaluate symlinks: %w", err)
		}

		if !filepath.IsAbs(realPath) {
			if !filepath.IsLocal(realPath) {
				return fmt.Errorf("path is not local or contains invalid traversal: %s", path)
			}
		}

		cfg.path = realPath
		return nil
	}
}

// Config represents the root configuration structure
type Config struct {
	Server    *ServerConfig     `yaml:"server,omitempty"`
	Registry  RegistryConfig    `yaml:"registry"`
	Fetch     *FetchConfig      `yaml:"fetch,omitempty"`
	Cache     *CacheConfig      `yaml:"cache,omitempty"`
	GitHub    *GitHubConfig     `yaml:"github,omitempty"`
	Refresh   *RefreshConfig    `yaml:"refresh,omitempty"`
	Telemetry *telemetry.Config `yaml:"telemetry,omitempty"`
}

// ServerConfig defines HTTP server settings
type ServerConfig struct {
	Address      string `yaml:"address,omitempty"`
	ReadTimeout  string `yaml:"readTimeout,omitempty"`
	WriteTimeout string `yaml:"writeTimeout,omitempty"`
}

// RegistryConfig defines where the marketplace registry is read from
type RegistryConfig struct {
	// Path is the registry file (JSON, comments allowed)
	Path string `yaml:"path"`

	// Watch reloads the registry when the file changes
	Watch bool `yaml:"watch,omitempty"`

	// ResolveDefaultBranch asks the git remote for its default branch instead
	// of assuming "main" when a manifest URL has to be derived
	ResolveDefaultBranch bool `yaml:"resolveDefaultBranch,omitempty"`

	// Filter narrows the loaded registry
	Filter *FilterConfig `yaml:"filter,omitempty"`
}

// FilterConfig defines filtering rules for registry entries
type FilterConfig struct {
	Names *NameFilterConfig `yaml:"names,omitempty"`
	Tags  *TagFilterConfig  `yaml:"tags,omitempty"`
}

// NameFilterConfig defines id-based filtering with glob patterns
type NameFilterConfig struct {
	Include []string `yaml:"include,omitempty"`
	Exclude []string `yaml:"exclude,omitempty"`
}

// TagFilterConfig defines tag-based filtering
type TagFilterConfig struct {
	Include []string `yaml:"include,omitempty"`
	Exclude []string `yaml:"exclude,omitempty"`
}

// FetchConfig defines outbound fetch settings
type FetchConfig struct {
	// Timeout bounds each manifest or metadata fetch (e.g. "10s")
	Timeout   string `yaml:"timeout,omitempty"`
	UserAgent string `yaml:"userAgent,omitempty"`
}

// CacheConfig defines cache lifetimes
type CacheConfig struct {
	ManifestTTL string `yaml:"manifestTTL,omitempty"`
	MetadataTTL string `yaml:"metadataTTL,omitempty"`
}

// GitHubConfig defines the repository metadata provider
type GitHubConfig struct {
	// APIURL overrides the REST endpoint, for GitHub Enterprise
	APIURL string `yaml:"apiURL,omitempty"`

	// TokenEnv names the environment variable holding an optional bearer token
	TokenEnv string `yaml:"tokenEnv,omitempty"`
}

// RefreshConfig defines background cache warming
type RefreshConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Interval string `yaml:"interval,omitempty"`
}

// LoadConfig loads and parses configuration from a YAML file
func LoadConfig(opts ...Option) (*Config, error) {
	loaderCfg := &loaderConfig{}
	for _, opt := range opts {
		if err := opt(loaderCfg); err != nil {
			return nil, err
		}
	}

	if loaderCfg.path == "" {
		return nil, fmt.Errorf("path is required")
	}

	data, err := os.ReadFile(loaderCfg.path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse YAML config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// Default returns a configuration that serves the registry at path with all defaults
func Default(registryPath string) *Config {
	if registryPath == "" {
		registryPath = DefaultRegistryPath
	}
	return &Config{Registry: RegistryConfig{Path: registryPath}}
}

// Validate performs validation on the configuration
func (c *Config) Validate() error {
	if c == nil {
		return fmt.Errorf("config cannot be nil")
	}

	var errs []error

	if c.Registry.Path == "" {
		errs = append(errs, fmt.Errorf("registry.path is required"))
	}

	if c.Server != nil {
		errs = append(errs,
			validateDuration("server.readTimeout", c.Server.ReadTimeout),
			validateDuration("server.writeTimeout", c.Server.WriteTimeout),
		)
	}
	if c.Fetch != nil {
		errs = append(errs, validateDuration("fetch.timeout", c.Fetch.Timeout))
	}
	if c.Cache != nil {
		errs = append(errs,
			validateDuration("cache.manifestTTL", c.Cache.ManifestTTL),
			validateDuration("cache.metadataTTL", c.Cache.MetadataTTL),
		)
	}
	if c.Refresh != nil {
		errs = append(errs, validateDuration("refresh.interval", c.Refresh.Interval))
	}
	if c.Telemetry != nil {
		if err := c.Telemetry.Validate(); err != nil {
			errs = append(errs, fmt.Errorf("telemetry: %w", err))
		}
	}

	return errors.Join(errs...)
}

// validateDuration accepts an empty value (use the default) or a positive duration
func validateDuration(field, value string) error {
	if value == "" {
		return nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return fmt.Errorf("%s must be a valid duration (e.g., '30s', '1h'): %w", field, err)
	}
	if d <= 0 {
		return fmt.Errorf("%s must be positive, got %s", field, value)
	}
	return nil
}

// durationOr parses value, falling back to def when empty or invalid
func durationOr(value string, def time.Duration) time.Duration {
	if value == "" {
		return def
	}
	d, err := time.ParseDuration(value)
	if err != nil || d <= 0 {
		return def
	}
	return d
}

// GetAddress returns the listen address
func (c *Config) GetAddress() string {
	if c.Server == nil || c.Server.Address == "" {
		return DefaultAddress
	}
	return c.Server.Address
}

// GetReadTimeout returns the HTTP server read timeout
func (c *Config) GetReadTimeout() time.Duration {
	if c.Server == nil {
		return defaultReadTimeout
	}
	return durationOr(c.Server.ReadTimeout, defaultReadTimeout)
}

// GetWriteTimeout returns the HTTP server write timeout
func (c *Config) GetWriteTimeout() time.Duration {
	if c.Server == nil {
		return defaultWriteTimeout
	}
	return durationOr(c.Server.WriteTimeout, defaultWriteTimeout)
}

// GetFetchTimeout returns the per-fetch timeout
func (c *Config) GetFetchTimeout() time.Duration {
	if c.Fetch == nil {
		return DefaultFetchTimeout
	}
	return durationOr(c.Fetch.Timeout, DefaultFetchTimeout)
}

// GetUserAgent returns the outbound User-Agent, empty for the client default
func (c *Config) GetUserAgent() string {
	if c.Fetch == nil {
		return ""
	}
	return c.Fetch.UserAgent
}

// GetManifestTTL returns the manifest cache lifetime
func (c *Config) GetManifestTTL() time.Duration {
	if c.Cache == nil {
		return DefaultManifestTTL
	}
	return durationOr(c.Cache.ManifestTTL, DefaultManifestTTL)
}

// GetMetadataTTL returns the repository metadata cache lifetime
func (c *Config) GetMetadataTTL() time.Duration {
	if c.Cache == nil {
		return DefaultMetadataTTL
	}
	return durationOr(c.Cache.MetadataTTL, DefaultMetadataTTL)
}

// GetGitHubAPIURL returns the GitHub REST endpoint
func (c *Config) GetGitHubAPIURL() string {
	if c.GitHub == nil || c.GitHub.APIURL == "" {
		return DefaultGitHubAPIURL
	}
	return c.GitHub.APIURL
}

// GetGitHubToken reads the optional bearer token.
// The configured variable is tried first, then GITHUB_TOKEN and GH_TOKEN.
func (c *Config) GetGitHubToken() string {
	var names []string
	if c.GitHub != nil && c.GitHub.TokenEnv != "" {
		names = append(names, c.GitHub.TokenEnv)
	}
	names = append(names, DefaultTokenEnv, "GH_TOKEN")

	for _, name := range names {
		if v := os.Getenv(name); v != "" {
			return v
		}
	}
	return ""
}

// RefreshEnabled reports whether background aggregation passes run
func (c *Config) RefreshEnabled() bool {
	return c.Refresh != nil && c.Refresh.Enabled
}

// GetRefreshInterval returns the interval between background aggregation passes
func (c *Config) GetRefreshInterval() time.Duration {
	if c.Refresh == nil {
		return DefaultRefreshInterval
	}
	return durationOr(c.Refresh.Interval, DefaultRefreshInterval)
}
