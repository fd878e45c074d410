package api

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// ErrAmountNotNumber is returned when an amount arrives as anything but a
// JSON number.
var ErrAmountNotNumber = errors.New("amount must be a number")

// Money is an exact amount with cent precision on the wire.
type Money struct {
	decimal.Decimal
}

// NewMoney wraps d.
func NewMoney(d decimal.Decimal) Money {
	return Money{Decimal: d}
}

// MustMoney parses s and panics on malformed input. Intended for tests and literals.
func MustMoney(s string) Money {
	return Money{Decimal: decimal.RequireFromString(s)}
}

// MarshalJSON writes the amount as a number rounded to two decimal places.
func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(m.StringFixed(2)), nil
}

// UnmarshalJSON accepts JSON numbers such as 12.5, and null as zero.
// Quoted amounts are rejected.
func (m *Money) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		m.Decimal = decimal.Zero
		return nil
	}
	if len(data) == 0 || data[0] == '"' {
		return ErrAmountNotNumber
	}
	d, err := decimal.NewFromString(string(data))
	if err != nil {
		return fmt.Errorf("%w: %s", ErrAmountNotNumber, data)
	}
	m.Decimal = d
	return nil
}

// String formats the amount with two decimal places.
func (m Money) String() string {
	return m.StringFixed(2)
}
