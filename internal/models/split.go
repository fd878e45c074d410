package models

import "github.com/shopspring/decimal"

// Split is one participant's assigned share of an expense.
// Splits are owned by their Expense and never change after creation.
type Split struct {
	// UserID is the participant who owes this share to the payer.
	UserID string

	// Amount is the non-negative share, in cents precision.
	Amount decimal.Decimal
}
