package services

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	apperrors "fearcli/internal/errors"
	"fearcli/internal/infrastructure"
)

const (
	TracerName = "fearcli.pipeline"
)

// PipelineTracer wraps sessions and steps in spans and records the
// pipeline metrics.
type PipelineTracer struct {
	tracer  trace.Tracer
	metrics *infrastructure.PipelineMetrics
}

// NewPipelineTracer uses the providers' tracer and metrics. Nil providers
// fall back to the global tracer and no metrics.
func NewPipelineTracer(providers *infrastructure.OTelProviders) *PipelineTracer {
	if providers == nil || providers.Tracer == nil {
		return &PipelineTracer{tracer: otel.Tracer(TracerName)}
	}
	return &PipelineTracer{tracer: providers.Tracer, metrics: providers.Metrics}
}

// TraceSession creates the span of a whole session run
func (pt *PipelineTracer) TraceSession(ctx context.Context, runID, session string) (context.Context, trace.Span) {
	return pt.tracer.Start(ctx, "session.run",
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(
			attribute.String("run.id", runID),
			attribute.String("session", session),
		),
	)
}

// TraceStep creates a span for one pipeline step
func (pt *PipelineTracer) TraceStep(ctx context.Context, session, step string) (context.Context, trace.Span) {
	return pt.tracer.Start(ctx, "session.step."+step,
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(
			attribute.String("session", session),
			attribute.String("step", step),
		),
	)
}

// EndStep records the step duration and closes its span.
func (pt *PipelineTracer) EndStep(ctx context.Context, span trace.Span, session, step string, duration time.Duration, err error) {
	span.SetAttributes(attribute.Float64("step.duration_seconds", duration.Seconds()))
	pt.metrics.RecordStep(ctx, session, step, duration)
	endSpan(span, err)
}

// EndSession counts the run and closes the session span.
func (pt *PipelineTracer) EndSession(ctx context.Context, span trace.Span, session string, duration time.Duration, err error) {
	span.SetAttributes(attribute.Float64("session.duration_seconds", duration.Seconds()))
	pt.metrics.RecordSession(ctx, session, err, string(apperrors.TypeOf(err)))
	endSpan(span, err)
}

// RecordRows counts rows read and rows removed by cleaning.
func (pt *PipelineTracer) RecordRows(ctx context.Context, session string, loaded, dropped int) {
	trace.SpanFromContext(ctx).SetAttributes(
		attribute.Int("rows.loaded", loaded),
		attribute.Int("rows.dropped", dropped),
	)
	pt.metrics.RecordRows(ctx, session, loaded, dropped)
}

// RecordFile counts a written artifact.
func (pt *PipelineTracer) RecordFile(ctx context.Context, session, kind, path string) {
	trace.SpanFromContext(ctx).AddEvent("file.written", trace.WithAttributes(
		attribute.String("file.kind", kind),
		attribute.String("file.path", path),
	))
	pt.metrics.RecordFile(ctx, session, kind)
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		if t := apperrors.TypeOf(err); t != "" {
			span.SetAttributes(attribute.String("error.type", string(t)))
		}
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}
