package models

import "github.com/shopspring/decimal"

// Expense represents a payment made by one group member on behalf of
// several participants.
//
// Amount and Splits are immutable after creation. The splits always sum
// to Amount exactly.
type Expense struct {
	// ID is the unique identifier for the expense (UUID format).
	ID string

	// GroupID is the group the expense belongs to.
	GroupID string

	// PayerID is the member who paid.
	PayerID string

	// Amount is the positive total that was paid.
	Amount decimal.Decimal

	// Description is the human-readable purpose (e.g., "Groceries").
	Description string

	// Category is optional (e.g., "food", "rent").
	Category string

	// Date is the Unix timestamp the expense happened; defaults to creation time.
	Date int64

	// Participants are the member IDs sharing this expense, payer included.
	Participants []string

	// Splits partition Amount among Participants.
	Splits []Split

	// IsSettled excludes the expense from balance computation.
	// Nothing in the current flows sets it; settlements leave expenses untouched.
	IsSettled bool

	// CreatedAt is the Unix timestamp when the expense was recorded.
	CreatedAt int64
}
