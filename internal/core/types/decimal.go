// Package types provides common value types.
package types

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Money represents a monetary value with full precision.
// Uses decimal.Decimal to avoid floating-point errors.
type Money = decimal.Decimal

// MoneyScale is the number of decimal places kept for amounts.
const MoneyScale int32 = 2

// NewMoneyFromString creates a Money value from a string.
// This is the preferred method for monetary values.
func NewMoneyFromString(s string) (Money, error) {
	return decimal.NewFromString(strings.TrimSpace(s))
}

// MustMoney creates a Money value from a string, panics on error.
// Use only for constants and tests.
func MustMoney(s string) Money {
	d, err := NewMoneyFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

// Zero returns zero Money value.
func Zero() Money {
	return decimal.Zero
}

// CheckAmount validates a positive amount with at most MoneyScale decimals.
func CheckAmount(m Money) error {
	if !m.IsPositive() {
		return fmt.Errorf("amount must be positive, got %s", m.String())
	}
	if !m.Equal(m.Round(MoneyScale)) {
		return fmt.Errorf("amount %s has more than %d decimal places", m.String(), MoneyScale)
	}
	return nil
}

// CheckCurrency validates an ISO 4217 alphabetic code.
func CheckCurrency(code string) error {
	if len(code) != 3 {
		return fmt.Errorf("currency must be a 3-letter ISO code, got %q", code)
	}
	for i := 0; i < 3; i++ {
		if code[i] < 'A' || code[i] > 'Z' {
			return fmt.Errorf("currency must be upper-case letters, got %q", code)
		}
	}
	return nil
}
