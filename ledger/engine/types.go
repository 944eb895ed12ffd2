package engine

import (
	"strings"

	"github.com/shopspring/decimal"

	constant "github.com/LerianStudio/ledger-replay/ledger/constants"
)

// ClientID identifies a client account.
type ClientID uint64

// TxID identifies a transaction. Ids are global across clients.
type TxID uint64

// EventType is the verb of a ledger event.
type EventType string

const (
	EventDeposit    EventType = constant.DEPOSIT
	EventWithdrawal EventType = constant.WITHDRAWAL
	EventDispute    EventType = constant.DISPUTE
	EventResolve    EventType = constant.RESOLVE
	EventChargeback EventType = constant.CHARGEBACK
)

// ParseEventType matches a verb case-insensitively after trimming whitespace.
func ParseEventType(s string) (EventType, bool) {
	switch t := EventType(strings.ToLower(strings.TrimSpace(s))); t {
	case EventDeposit, EventWithdrawal, EventDispute, EventResolve, EventChargeback:
		return t, true
	default:
		return "", false
	}
}

// Event is one input record handed to the engine.
//
// Amount is nil when the record had no amount column; it is only read for
// deposits and withdrawals.
type Event struct {
	Type   string
	Client ClientID
	Tx     TxID
	Amount *string
}

// TxKind is the kind of a recorded transaction.
type TxKind uint8

const (
	// TxDeposit can be disputed, resolved and charged back.
	TxDeposit TxKind = iota + 1
	// TxWithdrawal is immutable once recorded.
	TxWithdrawal
)

// String returns the lower-case kind name.
func (k TxKind) String() string {
	switch k {
	case TxDeposit:
		return "deposit"
	case TxWithdrawal:
		return "withdrawal"
	default:
		return "unknown"
	}
}

// Account is the balance state of one client.
type Account struct {
	Available decimal.Decimal
	Held      decimal.Decimal
	Locked    bool
}

// Total is always derived, never stored.
func (a Account) Total() decimal.Decimal {
	return a.Available.Add(a.Held)
}

// Transaction is a recorded deposit or withdrawal.
type Transaction struct {
	Client   ClientID
	Kind     TxKind
	Amount   decimal.Decimal
	Disputed bool
}

// AccountSnapshot is the read-only view of an account written to the report.
type AccountSnapshot struct {
	Client    ClientID
	Available decimal.Decimal
	Held      decimal.Decimal
	Total     decimal.Decimal
	Locked    bool
}

// Stats counts engine outcomes since construction.
type Stats struct {
	Applied  int
	Rejected int
	ByReason map[ErrorCode]int
}
