// Package zap adapts go.uber.org/zap to the ledger log.Logger interface.
//
// Logs are JSON on stderr (stdout is reserved for the snapshot CSV) and are
// teed into the OpenTelemetry log bridge so an embedding program can export them.
package zap
