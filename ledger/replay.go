package ledger

import (
	"context"
	"errors"
	"fmt"
	"io"

	"go.opentelemetry.io/otel/attribute"

	"github.com/LerianStudio/ledger-replay/ledger/assert"
	constant "github.com/LerianStudio/ledger-replay/ledger/constants"
	"github.com/LerianStudio/ledger-replay/ledger/csvio"
	"github.com/LerianStudio/ledger-replay/ledger/engine"
	"github.com/LerianStudio/ledger-replay/ledger/log"
	"github.com/LerianStudio/ledger-replay/ledger/opentelemetry"
	"github.com/LerianStudio/ledger-replay/ledger/runtime"
)

var (
	// ErrMissingInputPath is returned by callers when no input file was named.
	ErrMissingInputPath = errors.New("missing input path")
	// ErrNilReader indicates Replay was called without an input stream.
	ErrNilReader = errors.New("input reader is nil")
	// ErrNilWriter indicates Replay was called without an output stream.
	ErrNilWriter = errors.New("output writer is nil")
)

// Report summarizes one replay.
type Report struct {
	RunID    string
	Rows     int
	Skipped  int
	Applied  int
	Rejected int
	Accounts int
	ByReason map[engine.ErrorCode]int
}

// Replay reads every event from in, applies it in order and writes the final
// account snapshot to out.
//
// Malformed rows and rejected events are logged and counted but do not fail the
// replay. Errors reading in or writing out are returned, in which case out may
// hold nothing or a partial snapshot.
func Replay(ctx context.Context, in io.Reader, out io.Writer) (report Report, err error) {
	if in == nil {
		return Report{}, ErrNilReader
	}

	if out == nil {
		return Report{}, ErrNilWriter
	}

	logger, tracer, runID, factory := NewTrackingFromContext(ctx)

	ctx, span := tracer.Start(ctx, constant.SpanReplay)
	defer span.End()

	defer runtime.RecoverToError(ctx, logger, factory, "replay", &err)

	span.SetAttributes(attribute.String(constant.AttrPrefixLedger+"run_id", runID))

	logger = logger.With(log.String("run_id", runID))
	ctx = ContextWithRunID(ContextWithLogger(ctx, logger), runID)

	asserter := assert.New(logger, "engine", "apply").WithMetrics(factory)
	eng := engine.New(engine.WithLogger(logger), engine.WithMetrics(factory), engine.WithAsserter(asserter))
	reader := csvio.NewReader(in, csvio.WithLogger(logger))

	report = Report{RunID: runID}

	for {
		if err := ctx.Err(); err != nil {
			opentelemetry.HandleSpanError(span, "replay canceled", err)

			return report, fmt.Errorf("replay canceled: %w", err)
		}

		ev, err := reader.Next()
		if errors.Is(err, io.EOF) {
			break
		}

		if err != nil {
			opentelemetry.HandleSpanError(span, "read events", err)
			logger.Log(ctx, log.LevelError, "failed to read ledger events", log.Err(err), log.Int("rows", reader.Rows()))

			return report, fmt.Errorf("read events: %w", err)
		}

		_ = eng.Apply(ctx, ev)
	}

	stats := eng.Stats()
	snapshot := eng.Snapshot()

	report.Rows = reader.Rows()
	report.Skipped = reader.Skipped()
	report.Applied = stats.Applied
	report.Rejected = stats.Rejected
	report.Accounts = len(snapshot)
	report.ByReason = stats.ByReason

	_ = factory.RecordRowsSkipped(ctx, int64(report.Skipped))
	_ = factory.RecordAccounts(ctx, int64(report.Accounts))

	if report.Skipped > 0 {
		opentelemetry.HandleSpanEvent(span, "ledger.rows_skipped", attribute.Int("count", report.Skipped))
	}

	if err := csvio.NewWriter(out).WriteSnapshot(snapshot); err != nil {
		opentelemetry.HandleSpanError(span, "write snapshot", err)
		logger.Log(ctx, log.LevelError, "failed to write account snapshot", log.Err(err))

		return report, fmt.Errorf("write snapshot: %w", err)
	}

	span.SetAttributes(
		attribute.Int(constant.AttrPrefixLedger+"rows", report.Rows),
		attribute.Int(constant.AttrPrefixLedger+"rows_skipped", report.Skipped),
		attribute.Int(constant.AttrPrefixLedger+"events_applied", report.Applied),
		attribute.Int(constant.AttrPrefixLedger+"events_rejected", report.Rejected),
		attribute.Int(constant.AttrPrefixLedger+"accounts", report.Accounts),
	)

	logger.Log(ctx, log.LevelInfo, "ledger replay finished",
		log.Int("rows", report.Rows),
		log.Int("rows_skipped", report.Skipped),
		log.Int("events_applied", report.Applied),
		log.Int("events_rejected", report.Rejected),
		log.Int("accounts", report.Accounts),
	)

	return report, nil
}
