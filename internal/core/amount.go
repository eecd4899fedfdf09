// Package core holds the ledger domain types, amount parsing and the error taxonomy.
package core

import (
	"errors"
	"math"
	"strings"

	"github.com/shopspring/decimal"
)

// AmountScale is the number of decimal places amounts are rounded to on input.
const AmountScale = 2

// MaxAmount bounds the magnitude of a single entered amount so every stored
// value and every sum over them stays a finite REAL.
var MaxAmount = decimal.New(1, 12)

const (
	maxIntegerDigits  = 13
	maxFractionDigits = 20
)

// ErrNonFiniteAmount is returned when a stored amount or sum is Inf or NaN.
var ErrNonFiniteAmount = errors.New("non-finite amount")

// ParseAmount converts user text into a decimal amount rounded half-up to cents.
//
// Both dot (12.34) and comma (12,34) decimal separators are accepted. The sign is
// kept as entered: a negative amount represents a refund and reduces every total.
//
//	ParseAmount("12.34")  -> 12.34
//	ParseAmount("12,345") -> 12.35
//	ParseAmount("-3")     -> -3.00
func ParseAmount(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, &ValidationError{Field: "amount", Message: "amount is required"}
	}
	s = strings.ReplaceAll(s, ",", ".")
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, &ValidationError{Field: "amount", Message: "amount must be a number"}
	}
	// Exponent checks come first: rescaling 1e999999999 allocates the full coefficient.
	if d.NumDigits()+int(d.Exponent()) > maxIntegerDigits {
		return decimal.Zero, &ValidationError{Field: "amount", Message: "amount is too large"}
	}
	if d.Exponent() < -maxFractionDigits {
		return decimal.Zero, &ValidationError{Field: "amount", Message: "amount has too many decimal places"}
	}
	d = d.Round(AmountScale)
	if d.Abs().GreaterThan(MaxAmount) {
		return decimal.Zero, &ValidationError{Field: "amount", Message: "amount is too large"}
	}
	return d, nil
}

// AmountFromFloat converts a stored REAL into a decimal rounded to cents.
// Inf and NaN yield ErrNonFiniteAmount.
func AmountFromFloat(f float64) (decimal.Decimal, error) {
	if math.IsInf(f, 0) || math.IsNaN(f) {
		return decimal.Zero, ErrNonFiniteAmount
	}
	return decimal.NewFromFloat(f).Round(AmountScale), nil
}
