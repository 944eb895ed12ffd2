package runtime

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	constant "github.com/LerianStudio/ledger-replay/ledger/constants"
	"github.com/LerianStudio/ledger-replay/ledger/log"
	"github.com/LerianStudio/ledger-replay/ledger/opentelemetry/metrics"
)

// ErrPanic matches every PanicError via errors.Is.
var ErrPanic = errors.New("panic recovered")

// PanicError carries a recovered panic value.
type PanicError struct {
	Component string
	Value     any
	Stack     []byte
}

// Error returns the component and the formatted panic value.
func (e *PanicError) Error() string {
	return fmt.Sprintf("panic recovered in %s: %s", e.Component, formatPanicValue(e.Value))
}

// Is reports whether target is ErrPanic.
func (e *PanicError) Is(target error) bool {
	return target == ErrPanic
}

// Unwrap returns the panic value when it was an error.
func (e *PanicError) Unwrap() error {
	if err, ok := e.Value.(error); ok {
		return err
	}

	return nil
}

var panicRecoveredMetric = metrics.Metric{
	Name:        constant.MetricPanicRecoveredTotal,
	Unit:        "1",
	Description: "Total number of recovered panics",
}

// RecoverToError must be deferred directly. On panic it stores a *PanicError in
// errp, logs it with the stack at error level, counts it and marks the span in ctx.
//
// Example:
//
//	func work(ctx context.Context) (err error) {
//		defer runtime.RecoverToError(ctx, logger, factory, "replay", &err)
//		...
//	}
func RecoverToError(ctx context.Context, logger log.Logger, factory *metrics.MetricsFactory, component string, errp *error) {
	recovered := recover()
	if recovered == nil {
		return
	}

	if ctx == nil {
		ctx = context.Background()
	}

	panicErr := &PanicError{Component: component, Value: recovered, Stack: debug.Stack()}

	if errp != nil {
		*errp = panicErr
	}

	if logger != nil {
		logger.Log(ctx, log.LevelError, "panic recovered",
			log.String("component", component),
			log.String("panic_value", formatPanicValue(recovered)),
			log.String("stack", string(panicErr.Stack)),
		)
	}

	recordPanicMetric(ctx, logger, factory, component)

	span := trace.SpanFromContext(ctx)
	if span.IsRecording() {
		span.AddEvent(constant.EventPanicRecovered, trace.WithAttributes(
			attribute.String("component", component),
		))
		span.RecordError(panicErr)
		span.SetStatus(codes.Error, panicErr.Error())
	}
}

func recordPanicMetric(ctx context.Context, logger log.Logger, factory *metrics.MetricsFactory, component string) {
	if factory == nil {
		return
	}

	counter, err := factory.Counter(panicRecoveredMetric)
	if err == nil {
		err = counter.WithLabels(map[string]string{
			"component": constant.SanitizeMetricLabel(component),
		}).AddOne(ctx)
	}

	if err != nil && logger != nil {
		logger.Log(ctx, log.LevelWarn, "failed to record panic metric", log.Err(err))
	}
}

func formatPanicValue(value any) string {
	switch val := value.(type) {
	case nil:
		return "<nil>"
	case string:
		return val
	case error:
		return val.Error()
	default:
		return fmt.Sprintf("%v", value)
	}
}
