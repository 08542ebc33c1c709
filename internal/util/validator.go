package util

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const (
	DateLayout  = "2006-01-02"
	MonthLayout = "2006-01"
)

// ValidateAmount checks an amount is non-negative, has at most two decimals and fits the column.
func ValidateAmount(amount decimal.Decimal) error {
	if amount.IsNegative() {
		return fmt.Errorf("amount must not be negative, got %s", amount)
	}
	if !amount.Equal(amount.Truncate(MoneyPlaces)) {
		return fmt.Errorf("amount has more than %d decimal places, got %s", MoneyPlaces, amount)
	}
	if amount.GreaterThan(MaxAmount) {
		return fmt.Errorf("amount too large, got %s", amount)
	}
	return nil
}

// ParseDate parses a YYYY-MM-DD calendar date into UTC midnight.
func ParseDate(dateStr string) (time.Time, error) {
	if dateStr == "" {
		return time.Time{}, fmt.Errorf("date is empty")
	}
	t, err := time.ParseInLocation(DateLayout, dateStr, time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date format: %w", err)
	}
	return t, nil
}

// ParseMonth parses YYYY-MM and returns the first day of that month.
func ParseMonth(monthStr string) (time.Time, error) {
	if monthStr == "" {
		return time.Time{}, fmt.Errorf("month is empty")
	}
	t, err := time.ParseInLocation(MonthLayout, monthStr, time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid month format: %w", err)
	}
	return t, nil
}

// MonthWindow returns the first and last calendar day of the month containing t.
func MonthWindow(t time.Time) (time.Time, time.Time) {
	first := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
	last := first.AddDate(0, 1, -1)
	return first, last
}

// Today returns the current date at UTC midnight.
func Today() time.Time {
	now := time.Now().UTC()
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
}

// ValidateCategoryName checks a category name is present and fits the column.
func ValidateCategoryName(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return fmt.Errorf("category name is empty")
	}
	if len([]rune(name)) > 100 {
		return fmt.Errorf("category name too long, max 100 characters")
	}
	return nil
}
