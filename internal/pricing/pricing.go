package pricing

import (
	"errors"
	"strings"

	"github.com/shopspring/decimal"
)

var (
	ErrInvalidPrice = errors.New("pricing: price must be positive")
	ErrPriceTooHigh = errors.New("pricing: price exceeds maximum")
)

// MaxPrice is the largest value a NUMERIC(10,2) listing price can hold.
var MaxPrice = decimal.RequireFromString("99999999.99")

var hundred = decimal.NewFromInt(100)

// ParsePrice validates a user supplied price and rounds it to cents.
func ParsePrice(s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return decimal.Zero, ErrInvalidPrice
	}
	return Validate(d)
}

func Validate(d decimal.Decimal) (decimal.Decimal, error) {
	d = d.Round(2)
	if !d.IsPositive() {
		return decimal.Zero, ErrInvalidPrice
	}
	if d.GreaterThan(MaxPrice) {
		return decimal.Zero, ErrPriceTooHigh
	}
	return d, nil
}

// Cents converts an amount to the smallest currency unit, rounding half
// away from zero.
func Cents(d decimal.Decimal) int64 {
	return d.Mul(hundred).Round(0).IntPart()
}

func Sum(amounts ...decimal.Decimal) decimal.Decimal {
	total := decimal.Zero
	for _, a := range amounts {
		total = total.Add(a)
	}
	return total
}
