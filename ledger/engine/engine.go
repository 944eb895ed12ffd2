package engine

import (
	"context"
	"maps"
	"slices"

	"github.com/shopspring/decimal"

	"github.com/LerianStudio/ledger-replay/ledger/amount"
	"github.com/LerianStudio/ledger-replay/ledger/assert"
	"github.com/LerianStudio/ledger-replay/ledger/log"
	"github.com/LerianStudio/ledger-replay/ledger/opentelemetry/metrics"
)

// unknownEventLabel replaces unrecognized verbs in metric labels to keep cardinality bounded.
const unknownEventLabel = "unknown"

// Engine owns every account and transaction of a replay.
type Engine struct {
	accounts     map[ClientID]Account
	transactions map[TxID]Transaction

	logger   log.Logger
	metrics  *metrics.MetricsFactory
	asserter *assert.Asserter

	stats Stats

	metricFailed bool
}

// Option configures an Engine.
type Option func(e *Engine)

// WithLogger sets the logger used for rejected and applied events (debug level).
func WithLogger(logger log.Logger) Option {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithMetrics sets the factory used for ledger counters.
func WithMetrics(factory *metrics.MetricsFactory) Option {
	return func(e *Engine) {
		if factory != nil {
			e.metrics = factory
		}
	}
}

// WithAsserter sets the asserter used for post-commit invariant checks.
func WithAsserter(asserter *assert.Asserter) Option {
	return func(e *Engine) {
		if asserter != nil {
			e.asserter = asserter
		}
	}
}

// New creates an empty engine.
func New(opts ...Option) *Engine {
	e := &Engine{
		accounts:     make(map[ClientID]Account),
		transactions: make(map[TxID]Transaction),
		logger:       log.NewNop(),
		metrics:      metrics.NewNopFactory(),
		stats:        Stats{ByReason: make(map[ErrorCode]int)},
	}

	for _, opt := range opts {
		opt(e)
	}

	if e.asserter == nil {
		e.asserter = assert.New(e.logger, "engine", "apply").WithMetrics(e.metrics)
	}

	return e
}

// Deposit credits amountText to client and records tx. Invalid deposits are dropped.
func (e *Engine) Deposit(ctx context.Context, client ClientID, tx TxID, amountText string) {
	_ = e.Apply(ctx, Event{Type: string(EventDeposit), Client: client, Tx: tx, Amount: &amountText})
}

// Withdrawal debits amountText from client and records tx. Invalid withdrawals are dropped.
func (e *Engine) Withdrawal(ctx context.Context, client ClientID, tx TxID, amountText string) {
	_ = e.Apply(ctx, Event{Type: string(EventWithdrawal), Client: client, Tx: tx, Amount: &amountText})
}

// Dispute holds the amount of deposit tx. Invalid disputes are dropped.
func (e *Engine) Dispute(ctx context.Context, client ClientID, tx TxID) {
	_ = e.Apply(ctx, Event{Type: string(EventDispute), Client: client, Tx: tx})
}

// Resolve releases a disputed deposit back to available. Invalid resolves are dropped.
func (e *Engine) Resolve(ctx context.Context, client ClientID, tx TxID) {
	_ = e.Apply(ctx, Event{Type: string(EventResolve), Client: client, Tx: tx})
}

// Chargeback reverses a disputed deposit and locks the account. Invalid chargebacks are dropped.
func (e *Engine) Chargeback(ctx context.Context, client ClientID, tx TxID) {
	_ = e.Apply(ctx, Event{Type: string(EventChargeback), Client: client, Tx: tx})
}

// Apply validates and applies one event.
//
// A nil result means the event changed ledger state. A non-nil result is a
// DomainError describing why the event was dropped; the engine state is then
// exactly what it was before the call.
func (e *Engine) Apply(ctx context.Context, ev Event) error {
	eventType, ok := ParseEventType(ev.Type)
	if !ok {
		err := NewDomainError(ErrorUnknownEventType, "type", "unsupported event type")
		e.reject(ctx, unknownEventLabel, ev, err)

		return err
	}

	var err error

	switch eventType {
	case EventDeposit, EventWithdrawal:
		err = e.record(ctx, eventType, ev)
	case EventDispute, EventResolve, EventChargeback:
		err = e.settle(ctx, eventType, ev)
	}

	if err != nil {
		e.reject(ctx, string(eventType), ev, err)

		return err
	}

	e.accept(ctx, string(eventType), ev)

	return nil
}

// record handles deposits and withdrawals, which create transactions.
func (e *Engine) record(ctx context.Context, eventType EventType, ev Event) error {
	current, exists := e.accounts[ev.Client]
	if exists && current.Locked {
		return NewDomainError(ErrorAccountLocked, "client", "account is locked")
	}

	if _, used := e.transactions[ev.Tx]; used {
		return NewDomainError(ErrorDuplicateTransaction, "tx", "transaction id already used")
	}

	value, err := parseEventAmount(ev.Amount)
	if err != nil {
		return err
	}

	operation, _ := OperationFor(eventType)

	next, err := ApplyPosting(current, Posting{Operation: operation, Amount: value})
	if err != nil {
		return err
	}

	kind := TxDeposit
	if eventType == EventWithdrawal {
		kind = TxWithdrawal
	}

	e.commit(ctx, ev.Client, current, next, exists)
	e.transactions[ev.Tx] = Transaction{Client: ev.Client, Kind: kind, Amount: value}

	return nil
}

// settle handles dispute, resolve and chargeback against an existing deposit.
func (e *Engine) settle(ctx context.Context, eventType EventType, ev Event) error {
	current, exists := e.accounts[ev.Client]
	if exists && current.Locked {
		return NewDomainError(ErrorAccountLocked, "client", "account is locked")
	}

	tx, err := e.disputable(ev.Client, ev.Tx, eventType != EventDispute)
	if err != nil {
		return err
	}

	if !exists {
		return e.corrupted(ctx, eventType, ev, "transaction owner has no account")
	}

	operation, _ := OperationFor(eventType)

	next, err := ApplyPosting(current, Posting{Operation: operation, Amount: tx.Amount})
	if err != nil {
		return err
	}

	tx.Disputed = eventType == EventDispute

	e.commit(ctx, ev.Client, current, next, exists)
	e.transactions[ev.Tx] = tx

	return nil
}

// disputable returns the deposit tx when it belongs to client and its disputed
// flag equals wantDisputed.
func (e *Engine) disputable(client ClientID, id TxID, wantDisputed bool) (Transaction, error) {
	tx, ok := e.transactions[id]
	if !ok {
		return Transaction{}, NewDomainError(ErrorTransactionNotFound, "tx", "transaction does not exist")
	}

	if tx.Client != client {
		return Transaction{}, NewDomainError(ErrorClientMismatch, "client", "transaction belongs to another client")
	}

	if tx.Kind != TxDeposit {
		return Transaction{}, NewDomainError(ErrorNotDisputable, "tx", "only deposits can be disputed")
	}

	if tx.Disputed != wantDisputed {
		if wantDisputed {
			return Transaction{}, NewDomainError(ErrorInvalidStateTransition, "tx", "transaction is not under dispute")
		}

		return Transaction{}, NewDomainError(ErrorInvalidStateTransition, "tx", "transaction is already under dispute")
	}

	return tx, nil
}

func (e *Engine) commit(ctx context.Context, client ClientID, prev, next Account, existed bool) {
	e.accounts[client] = next

	if !existed {
		e.recorded(ctx, metrics.MetricAccountsCreated, e.metrics.RecordAccountCreated(ctx))
	}

	if next.Locked && !prev.Locked {
		e.recorded(ctx, metrics.MetricAccountsLocked, e.metrics.RecordAccountLocked(ctx))

		e.logger.Log(ctx, log.LevelInfo, "account locked by chargeback",
			log.Uint64("client", uint64(client)),
			log.Stringer("available", next.Available),
			log.Stringer("total", next.Total()),
		)
	}

	_ = e.asserter.That(ctx, !next.Held.IsNegative(), "held balance must not be negative",
		"client", uint64(client), "held", next.Held.String())
}

func (e *Engine) corrupted(ctx context.Context, eventType EventType, ev Event, msg string) error {
	_ = e.asserter.Never(ctx, msg, "event_type", string(eventType), "client", uint64(ev.Client), "tx", uint64(ev.Tx))

	return NewDomainError(ErrorDataCorruption, "client", msg)
}

func (e *Engine) accept(ctx context.Context, eventType string, ev Event) {
	e.stats.Applied++

	e.recorded(ctx, metrics.MetricEventsApplied, e.metrics.RecordEventApplied(ctx, eventType))

	if e.logger.Enabled(log.LevelDebug) {
		e.logger.Log(ctx, log.LevelDebug, "ledger event applied",
			log.String("type", eventType),
			log.Uint64("client", uint64(ev.Client)),
			log.Uint64("tx", uint64(ev.Tx)),
		)
	}
}

func (e *Engine) reject(ctx context.Context, eventType string, ev Event, err error) {
	code := CodeOf(err)

	e.stats.Rejected++
	e.stats.ByReason[code]++

	e.recorded(ctx, metrics.MetricEventsRejected, e.metrics.RecordEventRejected(ctx, eventType, string(code)))

	if e.logger.Enabled(log.LevelDebug) {
		e.logger.Log(ctx, log.LevelDebug, "ledger event rejected",
			log.String("type", log.SanitizeString(ev.Type)),
			log.Uint64("client", uint64(ev.Client)),
			log.Uint64("tx", uint64(ev.Tx)),
			log.String("reason", string(code)),
			log.Err(err),
		)
	}
}

// recorded logs the first metric failure at debug level. Later failures are dropped
// so a broken meter does not add a log line per event.
func (e *Engine) recorded(ctx context.Context, m metrics.Metric, err error) {
	if err == nil || e.metricFailed {
		return
	}

	e.metricFailed = true

	e.logger.Log(ctx, log.LevelDebug, "ledger metric not recorded",
		log.String("metric_name", m.Name),
		log.Err(err),
	)
}

func parseEventAmount(text *string) (decimal.Decimal, error) {
	if text == nil {
		return decimal.Zero, NewDomainError(ErrorInvalidAmount, "amount", "amount is required")
	}

	value, err := amount.Parse(*text)
	if err != nil {
		return decimal.Zero, DomainError{Code: ErrorInvalidAmount, Field: "amount", Message: err.Error(), Err: err}
	}

	return value, nil
}

// Account returns a snapshot of one account.
func (e *Engine) Account(client ClientID) (AccountSnapshot, bool) {
	acct, ok := e.accounts[client]
	if !ok {
		return AccountSnapshot{}, false
	}

	return snapshotOf(client, acct), true
}

// Transaction returns a copy of a recorded transaction.
func (e *Engine) Transaction(id TxID) (Transaction, bool) {
	tx, ok := e.transactions[id]

	return tx, ok
}

// Snapshot returns every account ever created, ordered by ascending client id.
func (e *Engine) Snapshot() []AccountSnapshot {
	clients := slices.Sorted(maps.Keys(e.accounts))

	out := make([]AccountSnapshot, 0, len(clients))
	for _, client := range clients {
		out = append(out, snapshotOf(client, e.accounts[client]))
	}

	return out
}

// Stats returns a copy of the outcome counters.
func (e *Engine) Stats() Stats {
	return Stats{
		Applied:  e.stats.Applied,
		Rejected: e.stats.Rejected,
		ByReason: maps.Clone(e.stats.ByReason),
	}
}

func snapshotOf(client ClientID, acct Account) AccountSnapshot {
	return AccountSnapshot{
		Client:    client,
		Available: acct.Available,
		Held:      acct.Held,
		Total:     acct.Total(),
		Locked:    acct.Locked,
	}
}
