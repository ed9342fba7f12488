// Package types provides the fixed-point value types used by the ledger.
package types

import (
	"github.com/shopspring/decimal"
)

// Money represents a monetary value with full precision.
// Uses decimal.Decimal to avoid floating-point errors.
type Money = decimal.Decimal

// Quantity is an inventory quantity expressed in the product's base unit.
type Quantity = decimal.Decimal

// MoneyScale is the number of fractional digits stored for amounts and
// quantities. The NUMERIC columns in the postgres schema use the same scale.
const MoneyScale = 4

// FitsScale reports whether d can be stored at MoneyScale without rounding.
func FitsScale(d decimal.Decimal) bool {
	return d.Equal(d.Truncate(MoneyScale))
}

// NewMoneyFromString creates a Money value from a string.
func NewMoneyFromString(s string) (Money, error) {
	return decimal.NewFromString(s)
}

// MustMoney creates a Money value from a string, panics on error.
// Use only for constants and tests.
func MustMoney(s string) Money {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

// NewMoneyFromInt creates a whole Money value.
func NewMoneyFromInt(v int64) Money {
	return decimal.NewFromInt(v)
}

// Zero returns zero Money value.
func Zero() Money {
	return decimal.Zero
}

// Sum adds values without intermediate rounding.
func Sum(values ...decimal.Decimal) decimal.Decimal {
	total := decimal.Zero
	for _, v := range values {
		total = total.Add(v)
	}
	return total
}

// AbsDiff returns |a - b|.
func AbsDiff(a, b decimal.Decimal) decimal.Decimal {
	return a.Sub(b).Abs()
}
