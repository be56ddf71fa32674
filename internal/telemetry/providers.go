package telemetry

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	otelprom "go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/metric"
	metricnoop "go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/propagation"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"

	"github.com/stacklok/marketplace-hub/internal/logging"
)

// pushInterval is how often OTLP metrics are exported
const pushInterval = 60 * time.Second

// newResource describes this process to both signal pipelines
func newResource(ctx context.Context, cfg *Config) (*resource.Resource, error) {
	// resource.New rather than resource.Default keeps the schema URL consistent
	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceName(cfg.GetServiceName()),
			semconv.ServiceVersion(cfg.GetServiceVersion()),
		),
		resource.WithHost(),
		resource.WithTelemetrySDK(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}
	return res, nil
}

// newTracerProvider exports sampled spans over OTLP/HTTP and installs the W3C
// propagator. A nil or disabled tracing section yields a no-op provider.
func newTracerProvider(ctx context.Context, cfg *Config, res *resource.Resource) (trace.TracerProvider, error) {
	log := logging.FromContext(ctx)
	if cfg.Tracing == nil || !cfg.Tracing.Enabled {
		log.V(1).Info("Tracing disabled")
		return tracenoop.NewTracerProvider(), nil
	}

	opts := []otlptracehttp.Option{otlptracehttp.WithEndpoint(cfg.GetEndpoint())}
	if cfg.Insecure {
		opts = append(opts, otlptracehttp.WithInsecure())
	}
	exporter, err := otlptracehttp.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create OTLP trace exporter: %w", err)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithResource(res),
		sdktrace.WithBatcher(exporter),
		sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.TraceIDRatioBased(cfg.Tracing.GetSampling()))),
	)
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	log.Info("Tracing initialized",
		"endpoint", cfg.GetEndpoint(),
		"sampling_ratio", cfg.Tracing.GetSampling(),
		"insecure", cfg.Insecure,
	)
	return tp, nil
}

// newMeterProvider builds a metrics pipeline. With the prometheus exporter the
// instruments are registered with reg for scraping; otherwise they are pushed
// over OTLP/HTTP. A nil or disabled metrics section yields a no-op provider.
func newMeterProvider(
	ctx context.Context, cfg *Config, res *resource.Resource, reg prometheus.Registerer,
) (metric.MeterProvider, error) {
	log := logging.FromContext(ctx)
	if cfg.Metrics == nil || !cfg.Metrics.Enabled {
		log.V(1).Info("Metrics disabled")
		return metricnoop.NewMeterProvider(), nil
	}

	var reader sdkmetric.Reader
	switch cfg.Metrics.GetExporter() {
	case ExporterPrometheus:
		if reg == nil {
			return nil, fmt.Errorf("prometheus exporter requires a registerer")
		}
		exporter, err := otelprom.New(otelprom.WithRegisterer(reg))
		if err != nil {
			return nil, fmt.Errorf("failed to create Prometheus metrics exporter: %w", err)
		}
		reader = exporter
	default:
		opts := []otlpmetrichttp.Option{otlpmetrichttp.WithEndpoint(cfg.GetEndpoint())}
		if cfg.Insecure {
			opts = append(opts, otlpmetrichttp.WithInsecure())
		}
		exporter, err := otlpmetrichttp.New(ctx, opts...)
		if err != nil {
			return nil, fmt.Errorf("failed to create OTLP metric exporter: %w", err)
		}
		reader = sdkmetric.NewPeriodicReader(exporter, sdkmetric.WithInterval(pushInterval))
	}

	mp := sdkmetric.NewMeterProvider(sdkmetric.WithResource(res), sdkmetric.WithReader(reader))
	otel.SetMeterProvider(mp)

	log.Info("Metrics initialized", "exporter", cfg.Metrics.GetExporter())
	return mp, nil
}
