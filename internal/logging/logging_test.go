package logging

import (
	"context"
	"testing"

	"github.com/go-logr/logr/funcr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap/zapcore"
)

func TestParseLevel(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in      string
		want    zapcore.Level
		wantErr bool
	}{
		{in: "", want: zapcore.InfoLevel},
		{in: "INFO", want: zapcore.InfoLevel},
		{in: "debug", want: zapcore.DebugLevel},
		{in: "warning", want: zapcore.WarnLevel},
		{in: "error", want: zapcore.ErrorLevel},
		{in: "loud", want: zapcore.InfoLevel, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			t.Parallel()
			got, err := ParseLevel(tt.in)
			if tt.wantErr {
				require.Error(t, err)
			} else {
				require.NoError(t, err)
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFromContext(t *testing.T) {
	t.Parallel()

	var lines []string
	l := funcr.New(func(prefix, args string) {
		lines = append(lines, args)
	}, funcr.Options{})

	traceID, _ := trace.TraceIDFromHex("0102030405060708090a0b0c0d0e0f10")
	spanID, _ := trace.SpanIDFromHex("0102030405060708")
	sc := trace.NewSpanContext(trace.SpanContextConfig{TraceID: traceID, SpanID: spanID})

	ctx := NewContext(context.Background(), l)
	ctx = trace.ContextWithSpanContext(ctx, sc)

	FromContext(ctx, "marketplace", "acme").Info("hello")

	require.Len(t, lines, 1)
	assert.Contains(t, lines[0], `"trace_id"="0102030405060708090a0b0c0d0e0f10"`)
	assert.Contains(t, lines[0], `"marketplace"="acme"`)
}

func TestNewZap(t *testing.T) {
	t.Parallel()

	z, err := NewZap(zapcore.DebugLevel)
	require.NoError(t, err)
	assert.True(t, NewLogger(z).V(1).Enabled())
}
