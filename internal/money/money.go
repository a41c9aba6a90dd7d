// Package money converts between the ledger's integer minor-currency-units
// and display strings. Ledger arithmetic never leaves int64; decimals exist
// only at the presentation and input edges.
package money

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Format renders minor units as a fixed two-decimal amount with currency
// code, e.g. Format(150000, "GBP") == "1500.00 GBP".
func Format(minor int64, currency string) string {
	s := decimal.New(minor, -2).StringFixed(2)
	if currency == "" {
		return s
	}
	return s + " " + currency
}

// Parse converts a display amount like "1500.00" or "-12.5" to minor units.
// More than two decimal places is an error rather than a silent rounding.
func Parse(s string) (int64, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("parse amount %q: %w", s, err)
	}
	shifted := d.Shift(2)
	if !shifted.Equal(shifted.Truncate(0)) {
		return 0, fmt.Errorf("parse amount %q: more than two decimal places", s)
	}
	return shifted.IntPart(), nil
}
