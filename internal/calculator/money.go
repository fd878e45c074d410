package calculator

import "github.com/shopspring/decimal"

// Cent is the smallest representable amount.
var Cent = decimal.New(1, -2)

// RoundCents rounds to two decimal places (half away from zero).
func RoundCents(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

// isNegligible reports whether d is below one cent in magnitude.
func isNegligible(d decimal.Decimal) bool {
	return d.Abs().LessThan(Cent)
}

// exceedsCent reports whether d is strictly more than one cent in magnitude.
// Only such amounts open a position or become a debt edge.
func exceedsCent(d decimal.Decimal) bool {
	return d.Abs().GreaterThan(Cent)
}
