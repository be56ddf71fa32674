// Package telemetry provides OpenTelemetry instrumentation for the marketplace hub.
// Traces are exported over OTLP. Metrics are exported over OTLP or served for
// Prometheus scraping.
package telemetry

import (
	"errors"
	"fmt"

	"github.com/stacklok/marketplace-hub/internal/versions"
)

const (
	// DefaultServiceName identifies the hub in traces and metrics
	DefaultServiceName = "marketplace-hub"

	// DefaultEndpoint is the OTLP/HTTP collector address
	DefaultEndpoint = "localhost:4318"

	// DefaultSampling is the fraction of root traces kept
	DefaultSampling = 0.05

	// ExporterOTLP pushes metrics to the collector
	ExporterOTLP = "otlp"

	// ExporterPrometheus serves metrics on /metrics
	ExporterPrometheus = "prometheus"
)

// Config is the telemetry section of the hub configuration
type Config struct {
	Enabled bool `yaml:"enabled"`

	// ServiceName defaults to DefaultServiceName
	ServiceName string `yaml:"serviceName,omitempty"`

	// ServiceVersion defaults to the build version
	ServiceVersion string `yaml:"serviceVersion,omitempty"`

	// Endpoint is host:port; the exporters append /v1/traces and /v1/metrics
	Endpoint string `yaml:"endpoint,omitempty"`

	// Insecure sends telemetry over plain HTTP
	Insecure bool `yaml:"insecure,omitempty"`

	Tracing *TracingConfig `yaml:"tracing,omitempty"`
	Metrics *MetricsConfig `yaml:"metrics,omitempty"`
}

// TracingConfig controls span export
type TracingConfig struct {
	Enabled bool `yaml:"enabled"`

	// Sampling is a ratio in [0, 1]. Zero means DefaultSampling.
	Sampling float64 `yaml:"sampling,omitempty"`
}

// MetricsConfig controls metric export
type MetricsConfig struct {
	Enabled bool `yaml:"enabled"`

	// Exporter is ExporterOTLP (default) or ExporterPrometheus
	Exporter string `yaml:"exporter,omitempty"`
}

// GetServiceName returns the configured service name or DefaultServiceName
func (c *Config) GetServiceName() string {
	if c.ServiceName == "" {
		return DefaultServiceName
	}
	return c.ServiceName
}

// GetServiceVersion returns the configured version or the build version
func (c *Config) GetServiceVersion() string {
	if c.ServiceVersion == "" {
		return versions.Version
	}
	return c.ServiceVersion
}

// GetEndpoint returns the configured endpoint or DefaultEndpoint
func (c *Config) GetEndpoint() string {
	if c.Endpoint == "" {
		return DefaultEndpoint
	}
	return c.Endpoint
}

// GetSampling returns the sampling ratio. YAML cannot tell an explicit 0 from
// an absent key, so 0 selects DefaultSampling.
func (c *TracingConfig) GetSampling() float64 {
	if c.Sampling == 0 {
		return DefaultSampling
	}
	return c.Sampling
}

// GetExporter returns the metrics exporter, ExporterOTLP when unset
func (c *MetricsConfig) GetExporter() string {
	if c == nil || c.Exporter == "" {
		return ExporterOTLP
	}
	return c.Exporter
}

// Validate checks the enabled sections. A nil or disabled config is valid.
func (c *Config) Validate() error {
	if c == nil || !c.Enabled {
		return nil
	}

	var errs []error
	if t := c.Tracing; t != nil && t.Enabled && (t.Sampling < 0 || t.Sampling > 1) {
		errs = append(errs, fmt.Errorf("tracing: sampling must be between 0.0 and 1.0, got %f", t.Sampling))
	}
	if m := c.Metrics; m != nil && m.Enabled {
		switch m.GetExporter() {
		case ExporterOTLP, ExporterPrometheus:
		default:
			errs = append(errs, fmt.Errorf("metrics: exporter must be %q or %q, got %q",
				ExporterOTLP, ExporterPrometheus, m.Exporter))
		}
	}
	return errors.Join(errs...)
}
