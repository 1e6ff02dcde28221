package tracing

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

// TraceCarrier rides inside queue payloads so worker spans join the
// submitting request's trace.
type TraceCarrier struct {
	TraceParent string `json:"trace_parent,omitempty"`
	TraceState  string `json:"trace_state,omitempty"`
}

func InjectTraceContext(ctx context.Context) TraceCarrier {
	carrier := TraceCarrier{}
	propagator := propagation.TraceContext{}

	mapCarrier := propagation.MapCarrier{}
	propagator.Inject(ctx, mapCarrier)

	carrier.TraceParent = mapCarrier.Get("traceparent")
	carrier.TraceState = mapCarrier.Get("tracestate")

	return carrier
}

func ExtractTraceContext(ctx context.Context, carrier TraceCarrier) context.Context {
	if carrier.TraceParent == "" {
		return ctx
	}

	propagator := propagation.TraceContext{}
	mapCarrier := propagation.MapCarrier{
		"traceparent": carrier.TraceParent,
		"tracestate":  carrier.TraceState,
	}

	return propagator.Extract(ctx, mapCarrier)
}

// StartOutcomeSpan opens the span covering one transform job execution.
func StartOutcomeSpan(ctx context.Context, outcome, jobID string) (context.Context, trace.Span) {
	ctx, span := Tracer().Start(ctx, "transform.execute."+outcome,
		trace.WithSpanKind(trace.SpanKindConsumer),
	)
	span.SetAttributes(
		attribute.String("transform.outcome", outcome),
		attribute.String("transform.job_id", jobID),
	)
	return ctx, span
}

// StartProviderSpan opens a client span around one generative provider call.
func StartProviderSpan(ctx context.Context, provider, operation string) (context.Context, trace.Span) {
	ctx, span := Tracer().Start(ctx, "provider."+provider+"."+operation,
		trace.WithSpanKind(trace.SpanKindClient),
	)
	span.SetAttributes(
		attribute.String("provider.name", provider),
		attribute.String("provider.operation", operation),
	)
	return ctx, span
}

func StartEnqueueSpan(ctx context.Context, jobType string) (context.Context, trace.Span) {
	ctx, span := Tracer().Start(ctx, "job.enqueue."+jobType,
		trace.WithSpanKind(trace.SpanKindProducer),
	)
	span.SetAttributes(attribute.String("job.type", jobType))
	return ctx, span
}
