// Package core holds the domain model shared by storage, reporting and the
// HTTP surface.
//
// This file contains amount parsing. Amounts are decimal values and must be
// strictly positive; the ledger never stores signed amounts, the sign is
// derived from the transaction kind.
package core

import (
	"strings"

	"github.com/shopspring/decimal"
)

// ParseAmount converts a user-supplied amount string to a decimal.
//
// It accepts both dot (12.34) and comma (12,34) decimal separators and
// tolerates thousands separators in the "1,234.56" form. Zero and negative
// values are rejected.
//
// Examples:
//
//	ParseAmount("1250")     -> 1250, nil
//	ParseAmount("12,34")    -> 12.34, nil
//	ParseAmount("1,234.56") -> 1234.56, nil
//	ParseAmount("-5")       -> error
func ParseAmount(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, ErrInvalidAmount
	}

	// "1,234.56" uses commas as thousands separators; "12,34" uses the
	// comma as a decimal separator. Disambiguate by the presence of a dot.
	if strings.Contains(s, ".") {
		s = strings.ReplaceAll(s, ",", "")
	} else {
		s = strings.ReplaceAll(s, ",", ".")
	}

	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, ErrInvalidAmount
	}
	if !d.IsPositive() {
		return decimal.Zero, ErrInvalidAmount
	}
	return d, nil
}
