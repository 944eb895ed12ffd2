// Package metrics provides a fluent factory for OpenTelemetry metric instruments.
//
// MetricsFactory caches instruments and exposes builder-style APIs for counters
// and gauges. Convenience recorders cover the ledger's own signals: applied and
// rejected events, skipped rows, account creation and locking.
package metrics
