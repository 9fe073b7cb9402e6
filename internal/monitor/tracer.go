package monitor

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "localjudge"

// Tracer wraps OpenTelemetry tracing for the judge.
type Tracer struct {
	tracer trace.Tracer
}

// NewTracer creates a Tracer using the global TracerProvider.
func NewTracer() *Tracer {
	return &Tracer{
		tracer: otel.Tracer(tracerName),
	}
}

// StartSpan creates a new span and returns the updated context. A nil
// Tracer yields a no-op span.
func (t *Tracer) StartSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	if t == nil {
		return ctx, trace.SpanFromContext(context.Background())
	}
	ctx, span := t.tracer.Start(ctx, fmt.Sprintf("judge.%s", name),
		trace.WithAttributes(attrs...),
	)
	return ctx, span
}

// SpanFromContext returns the current span from the context.
func SpanFromContext(ctx context.Context) trace.Span {
	return trace.SpanFromContext(ctx)
}

// Common span attributes for judge tracing.

func AttrRunID(v string) attribute.KeyValue    { return attribute.String("judge.run.id", v) }
func AttrSource(v string) attribute.KeyValue   { return attribute.String("judge.source_path", v) }
func AttrLanguage(v string) attribute.KeyValue { return attribute.String("judge.language", v) }
func AttrVerdict(v string) attribute.KeyValue  { return attribute.String("judge.verdict", v) }
func AttrTestCount(v int) attribute.KeyValue   { return attribute.Int("judge.test_count", v) }
func AttrCached(v bool) attribute.KeyValue     { return attribute.Bool("judge.compile_cached", v) }
