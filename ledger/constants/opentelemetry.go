package constant

// TelemetrySDKName identifies this module in OTEL telemetry resource attributes.
const TelemetrySDKName = "ledger-replay/opentelemetry"

// TracerName is the instrumentation scope used for replay spans.
const TracerName = "github.com/LerianStudio/ledger-replay/ledger"

// MaxMetricLabelLength is the maximum length for metric labels to prevent cardinality explosion.
const MaxMetricLabelLength = 64

// Telemetry attribute key prefixes.
const (
	// AttrPrefixLedger is the prefix for replay span attributes.
	AttrPrefixLedger = "ledger."
	// AttrPrefixAssertion is the prefix for assertion event attributes.
	AttrPrefixAssertion = "assertion."
)

// Telemetry metric names.
const (
	MetricEventsApplied        = "ledger_events_applied"
	MetricEventsRejected       = "ledger_events_rejected"
	MetricRowsSkipped          = "ledger_rows_skipped"
	MetricAccountsCreated      = "ledger_accounts_created"
	MetricAccountsLocked       = "ledger_accounts_locked"
	MetricAccounts             = "ledger_accounts"
	MetricAssertionFailedTotal = "ledger_assertion_failed"
	MetricPanicRecoveredTotal  = "ledger_panic_recovered"
)

// Telemetry event and span names.
const (
	// EventAssertionFailed is the span event name for assertion failures.
	EventAssertionFailed = "assertion.failed"
	// SpanReplay wraps a full read-apply-write cycle.
	SpanReplay = "ledger.replay"
	// EventPanicRecovered is the span event name for recovered panics.
	EventPanicRecovered = "panic.recovered"
)

// SanitizeMetricLabel truncates a label value to MaxMetricLabelLength
// to prevent metric cardinality explosion in OTEL backends.
func SanitizeMetricLabel(value string) string {
	if len(value) > MaxMetricLabelLength {
		return value[:MaxMetricLabelLength]
	}

	return value
}
