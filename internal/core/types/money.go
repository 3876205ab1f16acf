// Package types provides common value types shared by the ledger and the sale lifecycle.
package types

import (
	"github.com/shopspring/decimal"
)

// Money represents a monetary value with full precision.
// Uses decimal.Decimal to avoid floating-point errors.
type Money = decimal.Decimal

// MoneyScale is the number of fractional digits persisted for monetary amounts.
const MoneyScale = 2

// CostScale is the precision of average costs, which are allowed to carry
// more digits than the amounts derived from them.
const CostScale = 4

// NewMoneyFromString creates a Money value from a string.
func NewMoneyFromString(s string) (Money, error) {
	return decimal.NewFromString(s)
}

// MustMoney creates a Money value from a string, panics on error.
// Use only for constants and tests.
func MustMoney(s string) Money {
	return decimal.RequireFromString(s)
}

// Zero returns zero Money value.
func Zero() Money {
	return decimal.Zero
}

// FromInt creates Money from a whole number.
func FromInt(v int64) Money {
	return decimal.NewFromInt(v)
}

// Round2 rounds half away from zero to two decimals.
func Round2(m Money) Money {
	return m.Round(MoneyScale)
}

// Sum adds all values.
func Sum(values ...Money) Money {
	total := decimal.Zero
	for _, v := range values {
		total = total.Add(v)
	}
	return total
}

// MaxZero returns m if positive, zero otherwise.
func MaxZero(m Money) Money {
	if m.IsPositive() {
		return m
	}
	return decimal.Zero
}

// Min returns the smaller of a and b.
func Min(a, b Money) Money {
	if a.LessThan(b) {
		return a
	}
	return b
}
