package amount

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

// Scale is the number of fractional digits every amount is normalized to.
const Scale = 4

// Kind classifies why a text amount was rejected.
type Kind uint8

const (
	// KindEmpty means the text was blank after trimming.
	KindEmpty Kind = iota + 1
	// KindMalformed means the text is not a plain decimal numeral.
	KindMalformed
	// KindNonPositive means the value is zero or negative.
	KindNonPositive
	// KindTooPrecise means the text has more than Scale fractional digits.
	KindTooPrecise
)

// Sentinel errors matched by ParseError through errors.Is.
var (
	ErrEmpty       = errors.New("amount is empty")
	ErrMalformed   = errors.New("amount is not a decimal number")
	ErrNonPositive = errors.New("amount must be greater than zero")
	ErrTooPrecise  = fmt.Errorf("amount has more than %d decimal places", Scale)
)

// String returns the snake_case name used in logs and metric labels.
func (k Kind) String() string {
	switch k {
	case KindEmpty:
		return "empty"
	case KindMalformed:
		return "malformed"
	case KindNonPositive:
		return "non_positive"
	case KindTooPrecise:
		return "too_precise"
	default:
		return "unknown"
	}
}

func (k Kind) sentinel() error {
	switch k {
	case KindEmpty:
		return ErrEmpty
	case KindMalformed:
		return ErrMalformed
	case KindNonPositive:
		return ErrNonPositive
	case KindTooPrecise:
		return ErrTooPrecise
	default:
		return nil
	}
}

// ParseError reports a rejected amount and the trimmed text that caused it.
type ParseError struct {
	Kind  Kind
	Input string
}

// Error returns the formatted parse error.
func (e *ParseError) Error() string {
	if e == nil {
		return "<nil>"
	}

	sentinel := e.Kind.sentinel()
	if sentinel == nil {
		return fmt.Sprintf("invalid amount %q", e.Input)
	}

	return fmt.Sprintf("%s: %q", sentinel, e.Input)
}

// Is reports whether target is the sentinel matching this error's Kind.
func (e *ParseError) Is(target error) bool {
	return e != nil && target != nil && target == e.Kind.sentinel()
}

// numeral accepts an optional sign, digits and at most one decimal point.
// Exponents, grouping separators and inner whitespace are rejected.
var numeral = regexp.MustCompile(`^[+-]?(?:[0-9]+\.?[0-9]*|\.[0-9]+)$`)

// Parse converts text into a positive amount with exactly Scale fractional digits.
func Parse(text string) (decimal.Decimal, error) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return decimal.Zero, &ParseError{Kind: KindEmpty, Input: trimmed}
	}

	if !numeral.MatchString(trimmed) {
		return decimal.Zero, &ParseError{Kind: KindMalformed, Input: trimmed}
	}

	value, err := decimal.NewFromString(trimmed)
	if err != nil {
		return decimal.Zero, &ParseError{Kind: KindMalformed, Input: trimmed}
	}

	if !value.IsPositive() {
		return decimal.Zero, &ParseError{Kind: KindNonPositive, Input: trimmed}
	}

	if fractionalDigits(trimmed) > Scale {
		return decimal.Zero, &ParseError{Kind: KindTooPrecise, Input: trimmed}
	}

	return value.Round(Scale), nil
}

// fractionalDigits counts the digits written after the decimal point, trailing zeros included.
func fractionalDigits(numeral string) int {
	point := strings.IndexByte(numeral, '.')
	if point < 0 {
		return 0
	}

	return len(numeral) - point - 1
}

// Format renders an amount with at most Scale fractional digits and no trailing zeros.
func Format(d decimal.Decimal) string {
	return d.Round(Scale).String()
}
