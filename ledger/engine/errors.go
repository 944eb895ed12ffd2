package engine

import (
	"errors"
	"fmt"
)

// ErrorCode identifies why an event was rejected. Codes double as metric labels.
type ErrorCode string

const (
	// ErrorUnknownEventType indicates the verb is not one of the supported event types.
	ErrorUnknownEventType ErrorCode = "unknown_event_type"
	// ErrorAccountLocked indicates the target account was frozen by a chargeback.
	ErrorAccountLocked ErrorCode = "account_locked"
	// ErrorDuplicateTransaction indicates the transaction id was already used.
	ErrorDuplicateTransaction ErrorCode = "duplicate_transaction"
	// ErrorInvalidAmount indicates the amount is missing or failed to parse.
	ErrorInvalidAmount ErrorCode = "invalid_amount"
	// ErrorInsufficientFunds indicates available funds cannot cover a withdrawal.
	ErrorInsufficientFunds ErrorCode = "insufficient_funds"
	// ErrorInsufficientHeld indicates held funds cannot cover a resolve or chargeback.
	ErrorInsufficientHeld ErrorCode = "insufficient_held"
	// ErrorTransactionNotFound indicates the referenced transaction does not exist.
	ErrorTransactionNotFound ErrorCode = "transaction_not_found"
	// ErrorClientMismatch indicates the transaction belongs to another client.
	ErrorClientMismatch ErrorCode = "client_mismatch"
	// ErrorNotDisputable indicates the transaction is not a deposit.
	ErrorNotDisputable ErrorCode = "not_disputable"
	// ErrorInvalidStateTransition indicates the dispute state does not allow the event.
	ErrorInvalidStateTransition ErrorCode = "invalid_state_transition"
	// ErrorInvalidInput indicates a posting was malformed.
	ErrorInvalidInput ErrorCode = "invalid_input"
	// ErrorDataCorruption indicates engine state is inconsistent.
	ErrorDataCorruption ErrorCode = "data_corruption"
)

// DomainError is the structured reason an event was dropped.
type DomainError struct {
	Code    ErrorCode
	Field   string
	Message string
	Err     error
}

// Error returns the formatted domain error string.
func (e DomainError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("%s: %s", e.Code, e.Message)
	}

	return fmt.Sprintf("%s: %s (%s)", e.Code, e.Message, e.Field)
}

// Unwrap exposes the underlying cause, such as an amount parse error.
func (e DomainError) Unwrap() error {
	return e.Err
}

// NewDomainError creates a domain error with code, field, and message.
func NewDomainError(code ErrorCode, field, message string) error {
	return DomainError{Code: code, Field: field, Message: message}
}

// CodeOf returns the ErrorCode carried by err, or "" when err is not a DomainError.
func CodeOf(err error) ErrorCode {
	var domainErr DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Code
	}

	return ""
}
