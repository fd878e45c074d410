package calculator

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Share is one participant's portion of an expense.
type Share struct {
	UserID string
	Amount decimal.Decimal
}

// EqualSplit divides amount among participants in whole cents.
// Every participant gets amount/n rounded half away from zero, and the first
// participant absorbs the difference, which is negative when the rounded
// shares overshoot. The shares always sum to the cent-rounded amount.
//
// When that difference would push the first share below zero, the shares
// are rounded down instead and the leftover cents go to the first
// participant.
func EqualSplit(amount decimal.Decimal, participants []string) ([]Share, error) {
	if len(participants) == 0 {
		return nil, fmt.Errorf("must have at least one participant")
	}
	amount = RoundCents(amount)
	if !amount.IsPositive() {
		return nil, fmt.Errorf("amount must be positive")
	}

	n := decimal.NewFromInt(int64(len(participants)))
	base := RoundCents(amount.Div(n))
	remainder := amount.Sub(base.Mul(n))
	if base.Add(remainder).IsNegative() {
		base = amount.Div(n).RoundDown(2)
		remainder = amount.Sub(base.Mul(n))
	}

	shares := make([]Share, len(participants))
	for i, p := range participants {
		shares[i] = Share{UserID: p, Amount: base}
	}
	shares[0].Amount = base.Add(remainder)

	return shares, nil
}
