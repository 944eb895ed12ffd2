package constant

// Input column names. Matching is case-insensitive after trimming.
const (
	// ColumnType holds the event verb.
	ColumnType = "type"
	// ColumnClient holds the client identifier.
	ColumnClient = "client"
	// ColumnTx holds the transaction identifier.
	ColumnTx = "tx"
	// ColumnAmount holds the optional decimal amount.
	ColumnAmount = "amount"
)

// Output column names, in write order.
const (
	ColumnAvailable = "available"
	ColumnHeld      = "held"
	ColumnTotal     = "total"
	ColumnLocked    = "locked"
)

// SnapshotHeader is the header row written before account snapshots.
var SnapshotHeader = []string{ColumnClient, ColumnAvailable, ColumnHeld, ColumnTotal, ColumnLocked}
