//go:build unit

package engine

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/LerianStudio/ledger-replay/ledger/amount"
	"github.com/LerianStudio/ledger-replay/ledger/log"
	"github.com/LerianStudio/ledger-replay/ledger/opentelemetry/metrics"
	ledgerzap "github.com/LerianStudio/ledger-replay/ledger/zap"
)

func amountOf(s string) *string { return &s }

// balances renders an account as available/held/total/locked for compact assertions.
func balances(t *testing.T, e *Engine, client ClientID) []any {
	t.Helper()

	snap, ok := e.Account(client)
	require.True(t, ok, "account %d does not exist", client)

	return []any{amount.Format(snap.Available), amount.Format(snap.Held), amount.Format(snap.Total), snap.Locked}
}

// distinct returns the map key metricdata uses for a data point carrying kvs.
func distinct(kvs ...attribute.KeyValue) attribute.Distinct {
	set := attribute.NewSet(kvs...)

	return set.Equivalent()
}

// brokenMeter fails every counter it is asked to create.
type brokenMeter struct {
	noop.Meter
}

func (brokenMeter) Int64Counter(string, ...metric.Int64CounterOption) (metric.Int64Counter, error) {
	return nil, errors.New("meter unavailable")
}

func TestDepositCreatesAccount(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	e := New()

	e.Deposit(ctx, 1, 1, "1.5")

	assert.Equal(t, []any{"1.5", "0", "1.5", false}, balances(t, e, 1))

	tx, ok := e.Transaction(1)
	require.True(t, ok)
	assert.Equal(t, TxDeposit, tx.Kind)
	assert.Equal(t, ClientID(1), tx.Client)
	assert.False(t, tx.Disputed)
	assert.Equal(t, int32(-amount.Scale), tx.Amount.Exponent())
}

func TestApplyAcceptsLooseEventType(t *testing.T) {
	t.Parallel()

	e := New()

	require.NoError(t, e.Apply(context.Background(), Event{Type: "  DePoSiT ", Client: 3, Tx: 1, Amount: amountOf("2")}))
	assert.Equal(t, []any{"2", "0", "2", false}, balances(t, e, 3))
}

func TestApplyRejectsUnknownEventType(t *testing.T) {
	t.Parallel()

	e := New()

	err := e.Apply(context.Background(), Event{Type: "transfer", Client: 1, Tx: 1, Amount: amountOf("1")})
	require.Error(t, err)
	assert.Equal(t, ErrorUnknownEventType, CodeOf(err))
	assert.Empty(t, e.Snapshot())
}

func TestDepositRejections(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		amount *string
		code   ErrorCode
	}{
		{name: "missing amount", amount: nil, code: ErrorInvalidAmount},
		{name: "empty amount", amount: amountOf(""), code: ErrorInvalidAmount},
		{name: "zero", amount: amountOf("0"), code: ErrorInvalidAmount},
		{name: "negative", amount: amountOf("-1"), code: ErrorInvalidAmount},
		{name: "too precise", amount: amountOf("1.23456"), code: ErrorInvalidAmount},
		{name: "garbage", amount: amountOf("abc"), code: ErrorInvalidAmount},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			e := New()

			err := e.Apply(context.Background(), Event{Type: "deposit", Client: 1, Tx: 1, Amount: tt.amount})
			require.Error(t, err)
			assert.Equal(t, tt.code, CodeOf(err))

			_, exists := e.Account(1)
			assert.False(t, exists)

			_, recorded := e.Transaction(1)
			assert.False(t, recorded)
		})
	}
}

func TestInvalidAmountUnwrapsParseError(t *testing.T) {
	t.Parallel()

	e := New()

	err := e.Apply(context.Background(), Event{Type: "deposit", Client: 1, Tx: 1, Amount: amountOf("1.23456")})
	require.ErrorIs(t, err, amount.ErrTooPrecise)
}

func TestDuplicateTransactionKeepsOriginal(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	e := New()

	e.Deposit(ctx, 1, 7, "5")
	e.Deposit(ctx, 2, 7, "9")
	e.Withdrawal(ctx, 1, 7, "1")

	assert.Equal(t, []any{"5", "0", "5", false}, balances(t, e, 1))

	_, exists := e.Account(2)
	assert.False(t, exists)

	tx, ok := e.Transaction(7)
	require.True(t, ok)
	assert.Equal(t, ClientID(1), tx.Client)
	assert.Equal(t, "5", amount.Format(tx.Amount))

	stats := e.Stats()
	assert.Equal(t, 1, stats.Applied)
	assert.Equal(t, 2, stats.Rejected)
	assert.Equal(t, 2, stats.ByReason[ErrorDuplicateTransaction])
}

func TestWithdrawal(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("debits available", func(t *testing.T) {
		t.Parallel()

		e := New()
		e.Deposit(ctx, 1, 1, "3")
		e.Withdrawal(ctx, 1, 2, "1.25")

		assert.Equal(t, []any{"1.75", "0", "1.75", false}, balances(t, e, 1))

		tx, ok := e.Transaction(2)
		require.True(t, ok)
		assert.Equal(t, TxWithdrawal, tx.Kind)
	})

	t.Run("over-withdrawal is dropped without a record", func(t *testing.T) {
		t.Parallel()

		e := New()
		e.Deposit(ctx, 1, 1, "1")

		err := e.Apply(ctx, Event{Type: "withdrawal", Client: 1, Tx: 2, Amount: amountOf("1.0001")})
		assert.Equal(t, ErrorInsufficientFunds, CodeOf(err))
		assert.Equal(t, []any{"1", "0", "1", false}, balances(t, e, 1))

		_, recorded := e.Transaction(2)
		assert.False(t, recorded)

		// the id stays free
		e.Deposit(ctx, 1, 2, "1")
		assert.Equal(t, []any{"2", "0", "2", false}, balances(t, e, 1))
	})

	t.Run("failed withdrawal on new client creates no account", func(t *testing.T) {
		t.Parallel()

		e := New()
		e.Withdrawal(ctx, 9, 1, "1")

		_, exists := e.Account(9)
		assert.False(t, exists)
		assert.Empty(t, e.Snapshot())
	})

	t.Run("withdraw everything", func(t *testing.T) {
		t.Parallel()

		e := New()
		e.Deposit(ctx, 1, 1, "2.5")
		e.Withdrawal(ctx, 1, 2, "2.5")

		assert.Equal(t, []any{"0", "0", "0", false}, balances(t, e, 1))
	})
}

func TestDisputeResolveRestoresBalances(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	e := New()

	e.Deposit(ctx, 1, 1, "10")
	e.Withdrawal(ctx, 1, 2, "4")
	before := balances(t, e, 1)

	e.Dispute(ctx, 1, 1)
	assert.Equal(t, []any{"-4", "10", "6", false}, balances(t, e, 1))

	tx, _ := e.Transaction(1)
	assert.True(t, tx.Disputed)

	e.Resolve(ctx, 1, 1)
	assert.Equal(t, before, balances(t, e, 1))

	tx, _ = e.Transaction(1)
	assert.False(t, tx.Disputed)

	// a resolved deposit can be disputed again
	require.NoError(t, e.Apply(ctx, Event{Type: "dispute", Client: 1, Tx: 1}))
	assert.Equal(t, []any{"-4", "10", "6", false}, balances(t, e, 1))
}

func TestChargebackLocksAccount(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	e := New()

	e.Deposit(ctx, 1, 1, "5")
	e.Deposit(ctx, 1, 2, "2")
	e.Dispute(ctx, 1, 1)
	e.Chargeback(ctx, 1, 1)

	assert.Equal(t, []any{"2", "0", "2", true}, balances(t, e, 1))

	tx, _ := e.Transaction(1)
	assert.False(t, tx.Disputed)

	for _, ev := range []Event{
		{Type: "deposit", Client: 1, Tx: 3, Amount: amountOf("100")},
		{Type: "withdrawal", Client: 1, Tx: 4, Amount: amountOf("1")},
		{Type: "dispute", Client: 1, Tx: 2},
		{Type: "resolve", Client: 1, Tx: 1},
		{Type: "chargeback", Client: 1, Tx: 2},
	} {
		err := e.Apply(ctx, ev)
		assert.Equal(t, ErrorAccountLocked, CodeOf(err), ev.Type)
	}

	assert.Equal(t, []any{"2", "0", "2", true}, balances(t, e, 1))

	// locked ids were never recorded and stay free for other clients
	e.Deposit(ctx, 2, 3, "1")
	assert.Equal(t, []any{"1", "0", "1", false}, balances(t, e, 2))
}

func TestDisputeRejections(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	tests := []struct {
		name  string
		event Event
		code  ErrorCode
	}{
		{name: "unknown tx", event: Event{Type: "dispute", Client: 1, Tx: 99}, code: ErrorTransactionNotFound},
		{name: "other client's tx", event: Event{Type: "dispute", Client: 2, Tx: 1}, code: ErrorClientMismatch},
		{name: "withdrawal", event: Event{Type: "dispute", Client: 1, Tx: 2}, code: ErrorNotDisputable},
		{name: "resolve undisputed", event: Event{Type: "resolve", Client: 1, Tx: 1}, code: ErrorInvalidStateTransition},
		{name: "chargeback undisputed", event: Event{Type: "chargeback", Client: 1, Tx: 1}, code: ErrorInvalidStateTransition},
		{name: "resolve withdrawal", event: Event{Type: "resolve", Client: 1, Tx: 2}, code: ErrorNotDisputable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			e := New()
			e.Deposit(ctx, 1, 1, "10")
			e.Withdrawal(ctx, 1, 2, "3")
			e.Deposit(ctx, 2, 3, "1")

			err := e.Apply(ctx, tt.event)
			assert.Equal(t, tt.code, CodeOf(err))

			assert.Equal(t, []any{"7", "0", "7", false}, balances(t, e, 1))
			assert.Equal(t, []any{"1", "0", "1", false}, balances(t, e, 2))
		})
	}
}

func TestDoubleDisputeIsDropped(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	e := New()

	e.Deposit(ctx, 1, 1, "10")
	e.Dispute(ctx, 1, 1)

	err := e.Apply(ctx, Event{Type: "dispute", Client: 1, Tx: 1})
	assert.Equal(t, ErrorInvalidStateTransition, CodeOf(err))
	assert.Equal(t, []any{"0", "10", "10", false}, balances(t, e, 1))
}

func TestDisputeLeavesNegativeAvailable(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	e := New()

	e.Deposit(ctx, 1, 1, "10")
	e.Withdrawal(ctx, 1, 2, "13")
	e.Deposit(ctx, 1, 3, "0")
	e.Withdrawal(ctx, 1, 4, "3")
	e.Deposit(ctx, 1, 5, "7")
	e.Withdrawal(ctx, 1, 6, "7")
	e.Dispute(ctx, 1, 1)

	assert.Equal(t, []any{"-3", "10", "7", false}, balances(t, e, 1))
}

func TestSnapshotOrdersByClient(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	e := New()

	e.Deposit(ctx, 30, 1, "1")
	e.Deposit(ctx, 2, 2, "1")
	e.Deposit(ctx, 11, 3, "1")
	e.Withdrawal(ctx, 11, 4, "1")

	snap := e.Snapshot()
	require.Len(t, snap, 3)

	clients := make([]ClientID, 0, len(snap))
	for _, s := range snap {
		clients = append(clients, s.Client)
	}

	assert.Equal(t, []ClientID{2, 11, 30}, clients)
	assert.True(t, snap[1].Total.IsZero())
}

func TestStatsIsACopy(t *testing.T) {
	t.Parallel()

	e := New()
	e.Dispute(context.Background(), 1, 1)

	stats := e.Stats()
	stats.ByReason[ErrorTransactionNotFound] = 100

	assert.Equal(t, 1, e.Stats().ByReason[ErrorTransactionNotFound])
}

func TestEngineRecordsMetrics(t *testing.T) {
	t.Parallel()

	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = mp.Shutdown(context.Background()) })

	factory, err := metrics.NewMetricsFactory(mp.Meter("engine-test"), log.NewNop())
	require.NoError(t, err)

	ctx := context.Background()
	e := New(WithMetrics(factory))

	e.Deposit(ctx, 1, 1, "1")
	e.Deposit(ctx, 2, 2, "1")
	e.Dispute(ctx, 1, 1)
	e.Chargeback(ctx, 1, 1)
	e.Withdrawal(ctx, 2, 3, "5")

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(ctx, &rm))

	sums := map[string]map[attribute.Distinct]int64{}

	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			data, ok := m.Data.(metricdata.Sum[int64])
			if !ok {
				continue
			}

			sums[m.Name] = map[attribute.Distinct]int64{}
			for _, dp := range data.DataPoints {
				sums[m.Name][dp.Attributes.Equivalent()] = dp.Value
			}
		}
	}

	assert.Equal(t, int64(2), sums["ledger_events_applied"][distinct(attribute.String(metrics.LabelEventType, "deposit"))])
	assert.Equal(t, int64(1), sums["ledger_events_applied"][distinct(attribute.String(metrics.LabelEventType, "chargeback"))])
	assert.Equal(t, int64(1), sums["ledger_events_rejected"][distinct(
		attribute.String(metrics.LabelEventType, "withdrawal"),
		attribute.String(metrics.LabelReason, string(ErrorInsufficientFunds)),
	)])
	assert.Equal(t, int64(2), sums["ledger_accounts_created"][distinct()])
	assert.Equal(t, int64(1), sums["ledger_accounts_locked"][distinct()])
	assert.NotContains(t, sums, "ledger_assertion_failed")
}

func TestEngineLogsRejectionsAtDebug(t *testing.T) {
	t.Parallel()

	core, logs := observer.New(zapcore.DebugLevel)
	e := New(WithLogger(ledgerzap.NewFromCore(core)))

	e.Withdrawal(context.Background(), 4, 8, "1")

	entries := logs.FilterMessage("ledger event rejected").All()
	require.Len(t, entries, 1)

	fields := entries[0].ContextMap()
	assert.Equal(t, "withdrawal", fields["type"])
	assert.Equal(t, uint64(4), fields["client"])
	assert.Equal(t, uint64(8), fields["tx"])
	assert.Equal(t, string(ErrorInsufficientFunds), fields["reason"])
}

func TestEngineSkipsDebugLogsAboveDebugLevel(t *testing.T) {
	t.Parallel()

	core, logs := observer.New(zapcore.InfoLevel)
	e := New(WithLogger(ledgerzap.NewFromCore(core)))

	e.Withdrawal(context.Background(), 4, 8, "1")
	e.Deposit(context.Background(), 4, 9, "1")

	assert.Zero(t, logs.Len())
}

func TestEngineLogsFirstMetricFailureOnly(t *testing.T) {
	t.Parallel()

	factory, err := metrics.NewMetricsFactory(brokenMeter{}, log.NewNop())
	require.NoError(t, err)

	core, logs := observer.New(zapcore.DebugLevel)
	e := New(WithLogger(ledgerzap.NewFromCore(core)), WithMetrics(factory))

	ctx := context.Background()
	e.Deposit(ctx, 1, 1, "2")
	e.Withdrawal(ctx, 1, 2, "1")
	e.Withdrawal(ctx, 1, 3, "9")

	entries := logs.FilterMessage("ledger metric not recorded").All()
	require.Len(t, entries, 1)
	assert.Equal(t, "ledger_accounts_created", entries[0].ContextMap()["metric_name"])
	assert.Contains(t, entries[0].ContextMap()["error"], "meter unavailable")

	assert.Equal(t, []any{"1", "0", "1", false}, balances(t, e, 1))
	assert.Equal(t, 2, e.Stats().Applied)
	assert.Equal(t, 1, e.Stats().Rejected)
}
