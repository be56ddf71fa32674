package otel

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.opentelemetry.io/otel/trace"
)

func newTestTracer(t *testing.T) (*tracetest.InMemoryExporter, trace.Tracer) {
	t.Helper()
	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })
	return exporter, tp.Tracer("span-test")
}

func TestStartSpan(t *testing.T) {
	t.Parallel()

	t.Run("nil tracer yields a no-op span", func(t *testing.T) {
		t.Parallel()

		ctx, span := StartSpan(context.Background(), nil, "aggregator.AggregateOne")
		require.NotNil(t, ctx)
		assert.False(t, span.SpanContext().IsValid())
		assert.NotPanics(t, func() { span.End() })
	})

	t.Run("records name and attributes", func(t *testing.T) {
		t.Parallel()

		exporter, tracer := newTestTracer(t)
		_, span := StartSpan(context.Background(), tracer, "aggregator.AggregateOne",
			trace.WithAttributes(AttrMarketplaceID.String("acme-tools")),
		)
		span.End()

		spans := exporter.GetSpans()
		require.Len(t, spans, 1)
		assert.Equal(t, "aggregator.AggregateOne", spans[0].Name)
		assert.Contains(t, spans[0].Attributes, AttrMarketplaceID.String("acme-tools"))
	})
}

func TestRecordError(t *testing.T) {
	t.Parallel()

	assert.NotPanics(t, func() { RecordError(nil, errors.New("boom")) })

	exporter, tracer := newTestTracer(t)

	_, clean := tracer.Start(context.Background(), "clean")
	RecordError(clean, nil)
	clean.End()

	_, failed := tracer.Start(context.Background(), "failed")
	RecordError(failed, errors.New("dial tcp: connection refused"))
	failed.End()

	spans := exporter.GetSpans()
	require.Len(t, spans, 2)

	assert.Equal(t, codes.Unset, spans[0].Status.Code)
	assert.Empty(t, spans[0].Events)

	assert.Equal(t, codes.Error, spans[1].Status.Code)
	assert.Equal(t, "operation failed", spans[1].Status.Description)
	require.NotEmpty(t, spans[1].Events)
	assert.Equal(t, "exception", spans[1].Events[0].Name)
}

func TestRecordFailure(t *testing.T) {
	t.Parallel()

	assert.NotPanics(t, func() { RecordFailure(nil, "Network error") })

	exporter, tracer := newTestTracer(t)

	_, ok := tracer.Start(context.Background(), "ok")
	RecordFailure(ok, "")
	ok.End()

	_, missing := tracer.Start(context.Background(), "missing")
	RecordFailure(missing, "Marketplace file not found")
	missing.End()

	spans := exporter.GetSpans()
	require.Len(t, spans, 2)

	assert.Equal(t, codes.Unset, spans[0].Status.Code)

	assert.Equal(t, codes.Error, spans[1].Status.Code)
	assert.Equal(t, "Marketplace file not found", spans[1].Status.Description)
	assert.Contains(t, spans[1].Attributes, AttrFetchError.String("Marketplace file not found"))
}
