package ledger

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	constant "github.com/LerianStudio/ledger-replay/ledger/constants"
	"github.com/LerianStudio/ledger-replay/ledger/log"
	"github.com/LerianStudio/ledger-replay/ledger/opentelemetry/metrics"
)

type customContextKey string

// CustomContextKey is the context key used to store CustomContextKeyValue.
var CustomContextKey = customContextKey("ledger_context")

// CustomContextKeyValue holds the run-scoped facilities attached to a context.
type CustomContextKeyValue struct {
	RunID         string
	Tracer        trace.Tracer
	Logger        log.Logger
	MetricFactory *metrics.MetricsFactory
}

// withValues stores a modified copy of the current values so parent contexts are never mutated.
func withValues(ctx context.Context, set func(v *CustomContextKeyValue)) context.Context {
	var values CustomContextKeyValue
	if current, ok := ctx.Value(CustomContextKey).(*CustomContextKeyValue); ok && current != nil {
		values = *current
	}

	set(&values)

	return context.WithValue(ctx, CustomContextKey, &values)
}

// ContextWithLogger returns a context carrying logger.
func ContextWithLogger(ctx context.Context, logger log.Logger) context.Context {
	return withValues(ctx, func(v *CustomContextKeyValue) { v.Logger = logger })
}

// NewLoggerFromContext returns the logger on ctx, or a no-op logger.
//
//nolint:ireturn
func NewLoggerFromContext(ctx context.Context) log.Logger {
	if values, ok := ctx.Value(CustomContextKey).(*CustomContextKeyValue); ok && values.Logger != nil {
		return values.Logger
	}

	return log.NewNop()
}

// ContextWithTracer returns a context carrying tracer.
func ContextWithTracer(ctx context.Context, tracer trace.Tracer) context.Context {
	return withValues(ctx, func(v *CustomContextKeyValue) { v.Tracer = tracer })
}

// NewTracerFromContext returns the tracer on ctx, or the global tracer for this library.
//
//nolint:ireturn
func NewTracerFromContext(ctx context.Context) trace.Tracer {
	if values, ok := ctx.Value(CustomContextKey).(*CustomContextKeyValue); ok && values.Tracer != nil {
		return values.Tracer
	}

	return otel.Tracer(constant.TracerName)
}

// ContextWithMetricFactory returns a context carrying factory.
func ContextWithMetricFactory(ctx context.Context, factory *metrics.MetricsFactory) context.Context {
	return withValues(ctx, func(v *CustomContextKeyValue) { v.MetricFactory = factory })
}

// NewMetricFactoryFromContext returns the factory on ctx, falling back to one built on the
// global meter provider.
func NewMetricFactoryFromContext(ctx context.Context) *metrics.MetricsFactory {
	if values, ok := ctx.Value(CustomContextKey).(*CustomContextKeyValue); ok && values.MetricFactory != nil {
		return values.MetricFactory
	}

	factory, err := metrics.NewMetricsFactory(otel.GetMeterProvider().Meter(constant.TracerName), log.NewNop())
	if err != nil {
		return metrics.NewNopFactory()
	}

	return factory
}

// ContextWithRunID returns a context carrying the replay run id.
func ContextWithRunID(ctx context.Context, runID string) context.Context {
	return withValues(ctx, func(v *CustomContextKeyValue) { v.RunID = runID })
}

// RunIDFromContext returns the run id on ctx, generating a UUIDv7 when none is set.
func RunIDFromContext(ctx context.Context) string {
	if values, ok := ctx.Value(CustomContextKey).(*CustomContextKeyValue); ok {
		if trimmed := strings.TrimSpace(values.RunID); trimmed != "" {
			return trimmed
		}
	}

	return newRunID()
}

func newRunID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}

	return id.String()
}

// NewTrackingFromContext returns every run-scoped facility, with fallbacks for those missing.
//
//nolint:ireturn
func NewTrackingFromContext(ctx context.Context) (log.Logger, trace.Tracer, string, *metrics.MetricsFactory) {
	return NewLoggerFromContext(ctx), NewTracerFromContext(ctx), RunIDFromContext(ctx), NewMetricFactoryFromContext(ctx)
}
