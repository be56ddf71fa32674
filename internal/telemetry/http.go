package telemetry

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/propagation"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
)

const (
	// HTTPMetricsMeterName is the meter used for request metrics
	HTTPMetricsMeterName = "github.com/stacklok/marketplace-hub/http"

	// TracerName is the tracer used for server spans
	TracerName = "github.com/stacklok/marketplace-hub/http"

	// unmatchedRoute labels requests chi could not route, keeping label
	// cardinality bounded
	unmatchedRoute = "unknown_route"
)

// routeLabel returns the matched chi pattern, e.g. "/api/v1/marketplaces/{id}".
// It is only meaningful after the request has been routed.
func routeLabel(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if pattern := rctx.RoutePattern(); pattern != "" {
			return pattern
		}
	}
	return unmatchedRoute
}

func passThrough(next http.Handler) http.Handler { return next }

// HTTPMetrics records request counts, latencies and in-flight requests
type HTTPMetrics struct {
	duration metric.Float64Histogram
	requests metric.Int64Counter
	inFlight metric.Int64UpDownCounter
}

// NewHTTPMetrics creates the request instruments. A nil provider yields nil
// metrics, whose Middleware passes requests through.
func NewHTTPMetrics(provider metric.MeterProvider) (*HTTPMetrics, error) {
	if provider == nil {
		return nil, nil
	}
	meter := provider.Meter(HTTPMetricsMeterName)

	m := &HTTPMetrics{}
	var err error
	if m.duration, err = meter.Float64Histogram(
		"marketplace_hub_http_request_duration_seconds",
		metric.WithDescription("Duration of HTTP requests in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10),
	); err != nil {
		return nil, err
	}
	if m.requests, err = meter.Int64Counter(
		"marketplace_hub_http_requests_total",
		metric.WithDescription("Total number of HTTP requests"),
		metric.WithUnit("{request}"),
	); err != nil {
		return nil, err
	}
	if m.inFlight, err = meter.Int64UpDownCounter(
		"marketplace_hub_http_active_requests",
		metric.WithDescription("Number of in-flight HTTP requests"),
		metric.WithUnit("{request}"),
	); err != nil {
		return nil, err
	}
	return m, nil
}

// Middleware records one observation per request, labelled by route pattern
func (m *HTTPMetrics) Middleware(next http.Handler) http.Handler {
	if m == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// r.Context() may be cancelled once ServeHTTP returns
		ctx := r.Context()
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		m.inFlight.Add(ctx, 1)
		defer m.inFlight.Add(ctx, -1)
		next.ServeHTTP(ww, r)

		attrs := metric.WithAttributes(
			attribute.String("method", r.Method),
			attribute.String("route", routeLabel(r)),
			attribute.String("status_code", strconv.Itoa(ww.Status())),
		)
		m.duration.Record(ctx, time.Since(start).Seconds(), attrs)
		m.requests.Add(ctx, 1, attrs)
	})
}

// MetricsMiddleware builds the request metrics middleware for provider
func MetricsMiddleware(provider metric.MeterProvider) (func(http.Handler) http.Handler, error) {
	m, err := NewHTTPMetrics(provider)
	if err != nil {
		return nil, err
	}
	if m == nil {
		return passThrough, nil
	}
	return m.Middleware, nil
}

// TracingMiddleware starts a server span per request, continuing any W3C trace
// context sent by the caller. Responses with status 400 and above mark the
// span as failed. A nil provider disables tracing.
func TracingMiddleware(provider trace.TracerProvider) func(http.Handler) http.Handler {
	if provider == nil {
		return passThrough
	}
	tracer := provider.Tracer(TracerName)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := otel.GetTextMapPropagator().Extract(r.Context(), propagation.HeaderCarrier(r.Header))
			ctx, span := tracer.Start(ctx, r.Method+" "+r.URL.Path,
				trace.WithSpanKind(trace.SpanKindServer),
				trace.WithAttributes(
					semconv.HTTPRequestMethodKey.String(r.Method),
					semconv.URLPath(r.URL.Path),
					semconv.UserAgentOriginal(r.UserAgent()),
				),
			)
			defer span.End()

			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r.WithContext(ctx))

			// rename once chi has matched a pattern
			route := routeLabel(r)
			status := ww.Status()
			span.SetName(r.Method + " " + route)
			span.SetAttributes(
				semconv.HTTPRouteKey.String(route),
				semconv.HTTPResponseStatusCode(status),
			)
			if status >= http.StatusBadRequest {
				span.SetStatus(codes.Error, http.StatusText(status))
			} else {
				span.SetStatus(codes.Ok, "")
			}
		})
	}
}
