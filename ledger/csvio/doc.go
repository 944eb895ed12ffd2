// Package csvio reads ledger events from CSV and writes account snapshots back as CSV.
//
// The reader is lenient: malformed rows are skipped and counted, and only
// failures of the underlying stream are returned as errors.
package csvio
