// Package core holds the domain model of the ledger: master transactions,
// projected occurrences, money and calendar types.
//
// This file contains the Money value type. Amounts are decimal values, never
// float64: summing many small currency values in binary floating point drifts
// across months of recurring aggregation.
package core

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Money is a decimal currency amount. The zero value is zero money.
type Money struct {
	Amount decimal.Decimal
}

// NewMoney wraps a decimal amount.
func NewMoney(amount decimal.Decimal) Money {
	return Money{Amount: amount}
}

// MoneyFromCents builds an amount from integer minor units.
func MoneyFromCents(cents int64) Money {
	return Money{Amount: decimal.New(cents, -2)}
}

// ParseMoney converts a decimal string to Money.
//
// It accepts both dot (12.34) and comma (12,34) decimal separators and rounds
// half-up to two decimal places. Only strictly positive amounts are valid:
// the sign of a transaction comes from its type, not from the stored amount.
func ParseMoney(s string) (Money, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Money{}, ErrInvalidAmount
	}
	// Normalize decimal comma to dot
	s = strings.ReplaceAll(s, ",", ".")
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Money{}, ErrInvalidAmount
	}
	d = d.Round(2)
	if d.Sign() <= 0 {
		return Money{}, ErrInvalidAmount
	}
	return Money{Amount: d}, nil
}

// Cents returns the amount in integer minor units, rounding half-up on
// sub-cent residue. This is the storage representation.
func (m Money) Cents() int64 {
	return m.Amount.Shift(2).Round(0).IntPart()
}

// Add returns m + other.
func (m Money) Add(other Money) Money {
	return Money{Amount: m.Amount.Add(other.Amount)}
}

// Sub returns m - other.
func (m Money) Sub(other Money) Money {
	return Money{Amount: m.Amount.Sub(other.Amount)}
}

// Abs returns the absolute amount.
func (m Money) Abs() Money {
	return Money{Amount: m.Amount.Abs()}
}

// IsZero reports whether the amount is exactly zero.
func (m Money) IsZero() bool {
	return m.Amount.IsZero()
}

// Equal reports numeric equality regardless of exponent.
func (m Money) Equal(other Money) bool {
	return m.Amount.Equal(other.Amount)
}

// String renders the amount with two decimal places.
func (m Money) String() string {
	return m.Amount.StringFixed(2)
}

func (m Money) Validate() error {
	if m.Amount.Sign() <= 0 {
		return ErrInvalidAmount
	}
	return nil
}

// MarshalJSON renders the amount as a quoted two-decimal string.
func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(`"` + m.Amount.StringFixed(2) + `"`), nil
}

// UnmarshalJSON accepts a quoted or bare decimal number.
func (m *Money) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	if s == "" || s == "null" {
		m.Amount = decimal.Zero
		return nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return ErrInvalidAmount
	}
	m.Amount = d
	return nil
}
