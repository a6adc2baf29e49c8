// Package observability wires structured logging, tracing, metrics and
// request correlation for the isodist service and CLI.
package observability

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// NewLogger builds a zap logger at the given level ("debug", "info", ...).
// Development loggers write human-readable console output; production
// loggers write JSON.
func NewLogger(level string, development bool) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", level, err)
	}

	cfg := zap.NewProductionConfig()
	if development {
		cfg = zap.NewDevelopmentConfig()
	}
	cfg.Level = zap.NewAtomicLevelAt(lvl)

	return cfg.Build()
}

// SyncLogger flushes buffered log entries, ignoring the error stderr
// returns on some platforms.
func SyncLogger(logger *zap.Logger) {
	_ = logger.Sync()
}

// LoggerWithTrace returns a child logger carrying trace_id and span_id from
// the active span in ctx.
//
// The context itself is attached as a field as well: the otelzap bridge
// picks up any context.Context field and uses it when emitting the OTLP log
// record, so exported logs carry native trace correlation.
func LoggerWithTrace(ctx context.Context, logger *zap.Logger) *zap.Logger {
	span := trace.SpanContextFromContext(ctx)
	if !span.IsValid() {
		return logger
	}

	return logger.With(
		zap.Any("context", ctx),
		zap.String("trace_id", span.TraceID().String()),
		zap.String("span_id", span.SpanID().String()),
	)
}
