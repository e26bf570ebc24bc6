package engine

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/ja7ad/greensched"

// StartSpan starts a span on the global tracer provider, a no-op unless the
// binary installed one.
func StartSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return otel.Tracer(tracerName).Start(ctx, name, trace.WithAttributes(attrs...))
}

// EndSpan records err on span, if any, and ends it.
func EndSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

// TrialAttributes describes a finished trial on a span.
func TrialAttributes(violations int, ratio, makespan, energyJ float64) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.Int("trial.violations", violations),
		attribute.Float64("trial.violation_ratio", ratio),
		attribute.Float64("trial.makespan_sec", makespan),
		attribute.Float64("trial.energy_j", energyJ),
	}
}
