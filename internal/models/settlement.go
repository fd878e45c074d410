package models

import "github.com/shopspring/decimal"

// Settlement represents a payment between group members to clear debts.
// Settlements are immutable once recorded.
type Settlement struct {
	// ID is the unique identifier for the settlement (UUID format).
	ID string

	// GroupID is the group this settlement belongs to.
	GroupID string

	// PayerID is the user who paid (debtor settling up).
	PayerID string

	// PayeeID is the user who received payment (creditor being paid).
	PayeeID string

	// Amount is the payment amount, rounded to cents.
	Amount decimal.Decimal

	// Note is an optional description for the settlement.
	Note string

	// SettledAt is the Unix timestamp when the settlement was recorded.
	SettledAt int64
}
