// Package runtime turns panics on the replay path into ordinary errors.
//
// A recovered panic is logged with its stack, counted as ledger_panic_recovered
// and recorded on the active span.
package runtime
