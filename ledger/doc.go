// Package ledger replays a CSV stream of client transactions into account balances.
//
// Replay wires the csvio reader, the engine and the csvio writer together and
// carries the ambient facilities (logger, tracer, metrics factory, run id) on the
// context:
//
//	ctx = ledger.ContextWithLogger(ctx, logger)
//	ctx = ledger.ContextWithMetricFactory(ctx, factory)
//	report, err := ledger.Replay(ctx, input, os.Stdout)
//
// Business rejections never fail a replay; only stream errors do.
package ledger
