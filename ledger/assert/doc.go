// Package assert evaluates ledger invariants at runtime.
//
// A failed assertion never panics: it is logged at error level, counted as
// ledger_assertion_failed, recorded on the active span, and returned as an
// *AssertionError so callers decide what to do with it.
package assert
