package apm

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Tracer starts spans from the global provider, so it picks up whatever
// NewTraceProvider installed, including the no-op default.
type Tracer interface {
	StartSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, Span)
}

// Span is the subset of trace.Span the application uses.
type Span interface {
	SetAttributes(attrs ...attribute.KeyValue)
	NoticeError(err error)
	End()
}

type openTracer struct {
	name string
}

func NewTracer(name string) Tracer {
	return &openTracer{name: name}
}

func (t *openTracer) StartSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, Span) {
	ctx, span := otel.Tracer(t.name).Start(ctx, name, trace.WithAttributes(attrs...))
	return ctx, &traceSpan{span}
}

type traceSpan struct {
	span trace.Span
}

func (s *traceSpan) SetAttributes(attrs ...attribute.KeyValue) {
	s.span.SetAttributes(attrs...)
}

// NoticeError records err and marks the span failed.
func (s *traceSpan) NoticeError(err error) {
	s.span.RecordError(err)
	s.span.SetStatus(codes.Error, err.Error())
}

func (s *traceSpan) End() {
	s.span.End()
}
