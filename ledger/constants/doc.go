// Package constant provides shared constant values used across the ledger packages.
//
// Keep this package free of runtime behavior.
// It is used by the CSV adapters, telemetry, and logging helpers to avoid duplicated literals.
package constant
