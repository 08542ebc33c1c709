package util

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// MoneyPlaces is the number of fractional digits kept for amounts.
const MoneyPlaces = 2

// MaxAmount mirrors a decimal(10,2) column: eight integer digits.
var MaxAmount = decimal.RequireFromString("99999999.99")

// FormatMoney renders an amount with exactly two decimals, e.g. "950.00".
func FormatMoney(d decimal.Decimal) string {
	return d.StringFixed(MoneyPlaces)
}

// ParseAmount parses a user supplied amount. Comma decimal separators are accepted.
// More than two fractional digits are rejected rather than rounded.
func ParseAmount(s string) (decimal.Decimal, error) {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", ".")
	if s == "" {
		return decimal.Zero, fmt.Errorf("amount is empty")
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid amount %q", s)
	}
	if err := ValidateAmount(d); err != nil {
		return decimal.Zero, err
	}
	return d, nil
}
