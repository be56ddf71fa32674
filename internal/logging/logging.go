// Package logging configures the process logger.
//
// zap is the backend. Packages log through a logr.Logger obtained with
// FromContext, which falls back to the process-wide logger installed by
// SetLogger and decorates records with the active trace and span ids.
package logging

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/go-logr/logr"
	"github.com/go-logr/zapr"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	mu   sync.RWMutex
	base = logr.Discard()
)

// ParseLevel maps a textual level to a zap level.
// An empty string means info.
func ParseLevel(level string) (zapcore.Level, error) {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "", "info":
		return zapcore.InfoLevel, nil
	case "debug":
		return zapcore.DebugLevel, nil
	case "warn", "warning":
		return zapcore.WarnLevel, nil
	case "error":
		return zapcore.ErrorLevel, nil
	default:
		return zapcore.InfoLevel, fmt.Errorf("invalid log level %q", level)
	}
}

// NewZap builds a JSON zap logger writing to stderr at the given level.
// stdout stays clean for commands that print data.
func NewZap(level zapcore.Level) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(level)
	cfg.OutputPaths = []string{"stderr"}
	cfg.ErrorOutputPaths = []string{"stderr"}
	cfg.EncoderConfig.TimeKey = "time"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	cfg.DisableStacktrace = level > zapcore.DebugLevel

	logger, err := cfg.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build zap logger: %w", err)
	}
	return logger, nil
}

// NewLogger wraps a zap logger as a logr.Logger
func NewLogger(z *zap.Logger) logr.Logger {
	return zapr.NewLogger(z)
}

// SetLogger installs the process-wide fallback logger
func SetLogger(l logr.Logger) {
	mu.Lock()
	defer mu.Unlock()
	base = l
}

// Logger returns the process-wide logger
func Logger() logr.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return base
}

// NewContext returns a copy of ctx carrying l
func NewContext(ctx context.Context, l logr.Logger) context.Context {
	return logr.NewContext(ctx, l)
}

// FromContext returns the logger stored in ctx, or the process-wide logger.
// When ctx carries a valid span, trace_id and span_id are attached.
func FromContext(ctx context.Context, keysAndValues ...any) logr.Logger {
	l, err := logr.FromContext(ctx)
	if err != nil {
		l = Logger()
	}

	if sc := trace.SpanContextFromContext(ctx); sc.IsValid() {
		l = l.WithValues("trace_id", sc.TraceID().String(), "span_id", sc.SpanID().String())
	}
	if len(keysAndValues) > 0 {
		l = l.WithValues(keysAndValues...)
	}
	return l
}
