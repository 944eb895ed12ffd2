package metrics

import (
	"context"

	constant "github.com/LerianStudio/ledger-replay/ledger/constants"
)

// Label keys attached to ledger metrics.
const (
	LabelEventType = "event_type"
	LabelReason    = "reason"
)

// Pre-configured ledger metrics.
var (
	// MetricEventsApplied counts events that changed ledger state.
	MetricEventsApplied = Metric{
		Name:        constant.MetricEventsApplied,
		Unit:        "1",
		Description: "Number of ledger events applied.",
	}

	// MetricEventsRejected counts events dropped by the engine, labelled by reason.
	MetricEventsRejected = Metric{
		Name:        constant.MetricEventsRejected,
		Unit:        "1",
		Description: "Number of ledger events dropped without effect.",
	}

	// MetricRowsSkipped counts input rows that never reached the engine.
	MetricRowsSkipped = Metric{
		Name:        constant.MetricRowsSkipped,
		Unit:        "1",
		Description: "Number of malformed input rows skipped by the reader.",
	}

	// MetricAccountsCreated counts lazily created client accounts.
	MetricAccountsCreated = Metric{
		Name:        constant.MetricAccountsCreated,
		Unit:        "1",
		Description: "Number of client accounts created.",
	}

	// MetricAccountsLocked counts accounts frozen by a chargeback.
	MetricAccountsLocked = Metric{
		Name:        constant.MetricAccountsLocked,
		Unit:        "1",
		Description: "Number of client accounts locked by a chargeback.",
	}

	// MetricAccounts reports the number of accounts in the last written snapshot.
	MetricAccounts = Metric{
		Name:        constant.MetricAccounts,
		Unit:        "1",
		Description: "Number of accounts in the ledger snapshot.",
	}
)

// RecordEventApplied increments the applied-events counter for an event type.
func (f *MetricsFactory) RecordEventApplied(ctx context.Context, eventType string) error {
	b, err := f.Counter(MetricEventsApplied)
	if err != nil {
		return err
	}

	return b.WithLabels(map[string]string{
		LabelEventType: constant.SanitizeMetricLabel(eventType),
	}).AddOne(ctx)
}

// RecordEventRejected increments the rejected-events counter for an event type and reason.
func (f *MetricsFactory) RecordEventRejected(ctx context.Context, eventType, reason string) error {
	b, err := f.Counter(MetricEventsRejected)
	if err != nil {
		return err
	}

	return b.WithLabels(map[string]string{
		LabelEventType: constant.SanitizeMetricLabel(eventType),
		LabelReason:    constant.SanitizeMetricLabel(reason),
	}).AddOne(ctx)
}

// RecordRowsSkipped adds n to the skipped-rows counter.
func (f *MetricsFactory) RecordRowsSkipped(ctx context.Context, n int64) error {
	if n <= 0 {
		return nil
	}

	b, err := f.Counter(MetricRowsSkipped)
	if err != nil {
		return err
	}

	return b.Add(ctx, n)
}

// RecordAccountCreated increments the account-created counter.
func (f *MetricsFactory) RecordAccountCreated(ctx context.Context) error {
	b, err := f.Counter(MetricAccountsCreated)
	if err != nil {
		return err
	}

	return b.AddOne(ctx)
}

// RecordAccountLocked increments the account-locked counter.
func (f *MetricsFactory) RecordAccountLocked(ctx context.Context) error {
	b, err := f.Counter(MetricAccountsLocked)
	if err != nil {
		return err
	}

	return b.AddOne(ctx)
}

// RecordAccounts sets the snapshot size gauge.
func (f *MetricsFactory) RecordAccounts(ctx context.Context, n int64) error {
	b, err := f.Gauge(MetricAccounts)
	if err != nil {
		return err
	}

	return b.Set(ctx, n)
}
