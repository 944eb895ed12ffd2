package opentelemetry

import (
	"context"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

// HandleSpanError sets the status of the span to error and records the error.
func HandleSpanError(span trace.Span, message string, err error) {
	if span != nil && err != nil {
		span.SetStatus(codes.Error, message+": "+err.Error())
		span.RecordError(err)
	}
}

// HandleSpanEvent adds an event to the span.
func HandleSpanEvent(span trace.Span, eventName string, attributes ...attribute.KeyValue) {
	if span != nil {
		span.AddEvent(eventName, trace.WithAttributes(attributes...))
	}
}

// GetTraceIDFromContext returns the trace id of the span in ctx, or "" when there is none.
func GetTraceIDFromContext(ctx context.Context) string {
	spanContext := trace.SpanContextFromContext(ctx)
	if !spanContext.IsValid() {
		return ""
	}

	return spanContext.TraceID().String()
}

// ContextWithTraceParent continues the W3C trace described by traceparent (and the
// optional tracestate). Blank or invalid values leave ctx unchanged.
func ContextWithTraceParent(ctx context.Context, traceparent, tracestate string) context.Context {
	if strings.TrimSpace(traceparent) == "" {
		return ctx
	}

	carrier := propagation.MapCarrier{"traceparent": strings.TrimSpace(traceparent)}
	if tracestate != "" {
		carrier["tracestate"] = tracestate
	}

	return propagation.TraceContext{}.Extract(ctx, carrier)
}
