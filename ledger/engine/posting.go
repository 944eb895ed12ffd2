package engine

import (
	"github.com/shopspring/decimal"
)

// Operation is the balance movement a posting applies to an account.
type Operation string

const (
	// OperationCredit increases available funds (deposit).
	OperationCredit Operation = "CREDIT"
	// OperationDebit decreases available funds, never below zero (withdrawal).
	OperationDebit Operation = "DEBIT"
	// OperationHold moves funds from available to held; available may go negative (dispute).
	OperationHold Operation = "ON_HOLD"
	// OperationRelease moves funds from held back to available (resolve).
	OperationRelease Operation = "RELEASE"
	// OperationReverse removes funds from held and locks the account (chargeback).
	OperationReverse Operation = "REVERSE"
)

// Posting is a single balance movement.
type Posting struct {
	Operation Operation
	Amount    decimal.Decimal
}

// OperationFor maps an event type to the posting it produces.
func OperationFor(eventType EventType) (Operation, bool) {
	switch eventType {
	case EventDeposit:
		return OperationCredit, true
	case EventWithdrawal:
		return OperationDebit, true
	case EventDispute:
		return OperationHold, true
	case EventResolve:
		return OperationRelease, true
	case EventChargeback:
		return OperationReverse, true
	default:
		return "", false
	}
}

// ApplyPosting applies a posting to an account and returns the new state.
// The input account is never modified; on error the returned account is the zero value.
func ApplyPosting(account Account, posting Posting) (Account, error) {
	if account.Locked {
		return Account{}, NewDomainError(ErrorAccountLocked, "account", "account is locked")
	}

	if !posting.Amount.IsPositive() {
		return Account{}, NewDomainError(ErrorInvalidInput, "posting.amount", "posting amount must be greater than zero")
	}

	result := account

	switch posting.Operation {
	case OperationCredit:
		result.Available = result.Available.Add(posting.Amount)
	case OperationDebit:
		if result.Available.LessThan(posting.Amount) {
			return Account{}, NewDomainError(ErrorInsufficientFunds, "posting.amount", "available funds do not cover the withdrawal")
		}

		result.Available = result.Available.Sub(posting.Amount)
	case OperationHold:
		result.Available = result.Available.Sub(posting.Amount)
		result.Held = result.Held.Add(posting.Amount)
	case OperationRelease:
		if result.Held.LessThan(posting.Amount) {
			return Account{}, NewDomainError(ErrorInsufficientHeld, "posting.amount", "held funds do not cover the release")
		}

		result.Held = result.Held.Sub(posting.Amount)
		result.Available = result.Available.Add(posting.Amount)
	case OperationReverse:
		if result.Held.LessThan(posting.Amount) {
			return Account{}, NewDomainError(ErrorInsufficientHeld, "posting.amount", "held funds do not cover the chargeback")
		}

		result.Held = result.Held.Sub(posting.Amount)
		result.Locked = true
	default:
		return Account{}, NewDomainError(ErrorInvalidInput, "posting.operation", "unsupported operation")
	}

	return result, nil
}
