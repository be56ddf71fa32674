// Package otel provides span helpers shared by the aggregation code paths.
package otel

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Attribute keys shared by aggregation and fetch spans
const (
	AttrMarketplaceID = attribute.Key("marketplace.id")
	AttrManifestURL   = attribute.Key("marketplace.manifest_url")
	AttrRepository    = attribute.Key("marketplace.repository")
	AttrPassID        = attribute.Key("aggregation.pass_id")
	AttrEntryCount    = attribute.Key("aggregation.entries")
	AttrFailedCount   = attribute.Key("aggregation.failed")
	AttrFetchError    = attribute.Key("fetch.error")
	AttrResultCount   = attribute.Key("result.count")
)

// StartSpan starts a new span if the tracer is non-nil, otherwise returns a no-op span.
// This provides graceful degradation when tracing is disabled.
func StartSpan(
	ctx context.Context,
	tracer trace.Tracer,
	name string,
	opts ...trace.SpanStartOption,
) (context.Context, trace.Span) {
	if tracer == nil {
		return ctx, trace.SpanFromContext(ctx)
	}
	return tracer.Start(ctx, name, opts...)
}

// RecordError records an error on a span and sets the span status to error.
// It safely handles nil spans and nil errors.
// The status description stays generic, the error itself is attached as an event.
func RecordError(span trace.Span, err error) {
	if err != nil && span != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "operation failed")
	}
}

// RecordFailure marks a span as failed with a fetch outcome message
func RecordFailure(span trace.Span, message string) {
	if message == "" || span == nil {
		return
	}
	span.SetAttributes(AttrFetchError.String(message))
	span.SetStatus(codes.Error, message)
}
