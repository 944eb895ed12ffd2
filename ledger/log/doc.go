// Package log defines the logging interface and typed logging fields used by the ledger.
//
// Adapters (such as the zap package) implement Logger so the engine and the replay
// pipeline stay independent of a concrete backend.
package log
