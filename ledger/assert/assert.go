package assert

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"strconv"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	constant "github.com/LerianStudio/ledger-replay/ledger/constants"
	"github.com/LerianStudio/ledger-replay/ledger/log"
	"github.com/LerianStudio/ledger-replay/ledger/opentelemetry/metrics"
)

// Logger defines the minimal logging interface required by assertions.
type Logger interface {
	Log(ctx context.Context, level log.Level, msg string, fields ...log.Field)
}

// Asserter evaluates invariants and emits telemetry on failure.
type Asserter struct {
	logger       Logger
	factory      *metrics.MetricsFactory
	component    string
	operation    string
	includeStack bool
}

// ErrAssertionFailed is the sentinel error for failed assertions.
var ErrAssertionFailed = errors.New("assertion failed")

// AssertionError represents a failed assertion with rich context.
type AssertionError struct {
	Assertion string
	Message   string
	Component string
	Operation string
	Details   string
}

// Error returns the formatted assertion failure message.
func (entry *AssertionError) Error() string {
	if entry == nil {
		return ErrAssertionFailed.Error()
	}

	if entry.Details == "" {
		return "assertion failed: " + entry.Message
	}

	return "assertion failed: " + entry.Message + "\n" + entry.Details
}

// Unwrap returns the sentinel assertion error for errors.Is.
func (entry *AssertionError) Unwrap() error {
	return ErrAssertionFailed
}

// assertionFailedMetric counts failed assertions.
var assertionFailedMetric = metrics.Metric{
	Name:        constant.MetricAssertionFailedTotal,
	Unit:        "1",
	Description: "Total number of failed ledger invariant assertions",
}

// New creates an Asserter. component and operation label logs, metrics and span events.
func New(logger Logger, component, operation string) *Asserter {
	return &Asserter{
		logger:    logger,
		component: component,
		operation: operation,
	}
}

// WithMetrics returns a copy of the asserter that counts failures through factory.
func (asserter *Asserter) WithMetrics(factory *metrics.MetricsFactory) *Asserter {
	if asserter == nil {
		return nil
	}

	clone := *asserter
	clone.factory = factory

	return &clone
}

// WithStack returns a copy of the asserter that appends a goroutine stack to failure logs.
// Production runs leave it off.
func (asserter *Asserter) WithStack(include bool) *Asserter {
	if asserter == nil {
		return nil
	}

	clone := *asserter
	clone.includeStack = include

	return &clone
}

// That returns an error if ok is false.
//
// Example:
//
//	if err := asserter.That(ctx, !acct.Held.IsNegative(), "held must not be negative", "client", id); err != nil {
//		return err
//	}
func (asserter *Asserter) That(ctx context.Context, ok bool, msg string, kv ...any) error {
	if ok {
		return nil
	}

	return asserter.fail(ctx, "That", msg, kv...)
}

// Never always returns an error. Use for code paths that should be unreachable.
func (asserter *Asserter) Never(ctx context.Context, msg string, kv ...any) error {
	return asserter.fail(ctx, "Never", msg, kv...)
}

const maxValueLength = 200

func truncateValue(v any) string {
	s := log.FormatValue(v)
	if len(s) <= maxValueLength {
		return s
	}

	return s[:maxValueLength] + "... (truncated " + strconv.Itoa(len(s)-maxValueLength) + " chars)"
}

func (asserter *Asserter) fail(ctx context.Context, assertion, msg string, kv ...any) error {
	if ctx == nil {
		ctx = context.Background()
	}

	var (
		logger       Logger
		factory      *metrics.MetricsFactory
		component    string
		operation    string
		includeStack bool
	)

	if asserter != nil {
		logger, factory = asserter.logger, asserter.factory
		component, operation = asserter.component, asserter.operation
		includeStack = asserter.includeStack
	}

	details := formatKeyValueLines(withContextPairs(assertion, component, operation, kv))

	var stack []byte
	if includeStack {
		stack = debug.Stack()
	}

	if logger != nil {
		logger.Log(ctx, log.LevelError, formatLogMessage(msg, details, stack))
	}

	recordAssertionMetric(ctx, factory, component, operation, assertion)
	recordAssertionToSpan(ctx, assertion, msg, component, operation)

	return &AssertionError{
		Assertion: assertion,
		Message:   msg,
		Component: component,
		Operation: operation,
		Details:   details,
	}
}

func withContextPairs(assertion, component, operation string, kv []any) []any {
	pairs := make([]any, 0, len(kv)+6)
	pairs = append(pairs, "assertion", assertion)

	if component != "" {
		pairs = append(pairs, "component", component)
	}

	if operation != "" {
		pairs = append(pairs, "operation", operation)
	}

	return append(pairs, kv...)
}

func formatKeyValueLines(kv []any) string {
	if len(kv) == 0 {
		return ""
	}

	var sb strings.Builder

	for i := 0; i < len(kv); i += 2 {
		if i > 0 {
			sb.WriteString("\n")
		}

		var value any = "MISSING_VALUE"
		if i+1 < len(kv) {
			value = kv[i+1]
		}

		fmt.Fprintf(&sb, "    %v=%v", kv[i], truncateValue(value))
	}

	return sb.String()
}

func formatLogMessage(msg, details string, stack []byte) string {
	var sb strings.Builder

	sb.WriteString("ASSERTION FAILED: ")
	sb.WriteString(msg)

	if details != "" {
		sb.WriteString("\n")
		sb.WriteString(details)
	}

	if len(stack) > 0 {
		sb.WriteString("\nstack trace:\n")
		sb.Write(stack)
	}

	return sb.String()
}

func recordAssertionMetric(ctx context.Context, factory *metrics.MetricsFactory, component, operation, assertion string) {
	if factory == nil {
		return
	}

	counter, err := factory.Counter(assertionFailedMetric)
	if err != nil {
		return
	}

	_ = counter.
		WithLabels(map[string]string{
			"component": constant.SanitizeMetricLabel(component),
			"operation": constant.SanitizeMetricLabel(operation),
			"assertion": constant.SanitizeMetricLabel(assertion),
		}).
		AddOne(ctx)
}

func recordAssertionToSpan(ctx context.Context, assertion, message, component, operation string) {
	span := trace.SpanFromContext(ctx)
	if !span.IsRecording() {
		return
	}

	attrs := []attribute.KeyValue{
		attribute.String(constant.AttrPrefixAssertion+"name", assertion),
		attribute.String(constant.AttrPrefixAssertion+"message", message),
	}

	if component != "" {
		attrs = append(attrs, attribute.String(constant.AttrPrefixAssertion+"component", component))
	}

	if operation != "" {
		attrs = append(attrs, attribute.String(constant.AttrPrefixAssertion+"operation", operation))
	}

	span.AddEvent(constant.EventAssertionFailed, trace.WithAttributes(attrs...))
	span.RecordError(fmt.Errorf("%w: %s", ErrAssertionFailed, message))
	span.SetStatus(codes.Error, "assertion failed")
}
