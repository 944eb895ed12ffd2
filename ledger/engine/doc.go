// Package engine replays deposits, withdrawals and dispute events against
// in-memory client accounts.
//
// Core flow:
//   - Apply (or the per-kind entry points) validates one event.
//   - ApplyPosting computes the new account state for the balance movement.
//   - The engine commits the new state only when every check passed.
//
// Rejected events have no effect; the reason is returned as a DomainError value
// and never aborts a replay. An Engine is not safe for concurrent use: events
// must be applied in input order from a single goroutine.
package engine
