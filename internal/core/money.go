// Package core provides money conversion and formatting utilities.
//
// Amounts travel through the system as decimal.Decimal and are stored as
// integer minor units (paise/cents) so that SQL sums stay exact.
package core

import (
	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// MaxAmount is the largest amount accepted for one expense, budget or bill.
// It keeps minor units, and sums of them in SQL, well inside int64.
var MaxAmount = decimal.New(1, 12)

// checkAmount rejects amounts above MaxAmount.
func checkAmount(d decimal.Decimal) error {
	if d.GreaterThan(MaxAmount) {
		return ErrAmountTooLarge
	}
	return nil
}

// ToCents converts an amount to minor units with half-up rounding on the
// third decimal place.
//
// Examples:
//
//	ToCents(12.34)  -> 1234
//	ToCents(12.345) -> 1235
func ToCents(d decimal.Decimal) int64 {
	return d.Mul(hundred).Round(0).IntPart()
}

// FromCents converts minor units back to a decimal amount.
func FromCents(cents int64) decimal.Decimal {
	return decimal.New(cents, -2)
}

// Round2 rounds to two decimals and returns a float64 for JSON rendering.
// Use decimals for calculations; floats are for presentation only.
func Round2(d decimal.Decimal) float64 {
	return d.Round(2).InexactFloat64()
}

// FormatRupees renders an amount with the rupee sign and two decimals.
func FormatRupees(d decimal.Decimal) string {
	return "₹" + d.StringFixed(2)
}
