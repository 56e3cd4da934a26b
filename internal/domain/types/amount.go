package types

import (
	"fmt"
	"math"
	"strings"

	"github.com/shopspring/decimal"
)

// AmountPrecision is the number of fractional digits of the native asset.
const AmountPrecision = 7

// MaxAmount is the largest amount representable on the ledger:
// math.MaxInt64 stroops.
var MaxAmount = decimal.New(math.MaxInt64, -AmountPrecision)

// ParseAmount parses a non-negative decimal string with at most
// AmountPrecision fractional digits and no more than MaxAmount.
func ParseAmount(s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return decimal.Zero, fmt.Errorf("amount %q: %w", s, err)
	}
	if d.IsNegative() {
		return decimal.Zero, fmt.Errorf("amount %q is negative", s)
	}
	if d.Exponent() < -AmountPrecision && !d.Equal(d.Truncate(AmountPrecision)) {
		return decimal.Zero, fmt.Errorf("amount %q has more than %d fractional digits", s, AmountPrecision)
	}
	if d.GreaterThan(MaxAmount) {
		return decimal.Zero, fmt.Errorf("amount %q exceeds %s", s, FormatAmount(MaxAmount))
	}
	return d, nil
}

// FormatAmount renders d with exactly AmountPrecision fractional digits.
func FormatAmount(d decimal.Decimal) string {
	return d.StringFixed(AmountPrecision)
}

// ToStroops converts d to integer minimal units (10^-7), truncating any
// finer digits. d must not exceed MaxAmount.
func ToStroops(d decimal.Decimal) int64 {
	return d.Shift(AmountPrecision).Truncate(0).IntPart()
}

// FromStroops converts minimal units back to a decimal amount.
func FromStroops(n int64) decimal.Decimal {
	return decimal.New(n, -AmountPrecision)
}
