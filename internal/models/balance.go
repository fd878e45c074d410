package models

import "github.com/shopspring/decimal"

// Balance is one directed edge of a group's simplified debt snapshot:
// UserID owes OwesTo the given Amount.
//
// For a group there is at most one edge per (UserID, OwesTo) pair and
// Amount is always greater than one cent.
type Balance struct {
	// ID is the unique identifier for the edge (UUID format).
	// IDs change on every recompute.
	ID string

	// GroupID is the group this edge belongs to.
	GroupID string

	// UserID is the debtor.
	UserID string

	// OwesTo is the creditor.
	OwesTo string

	// Amount is what the debtor owes, rounded to cents.
	Amount decimal.Decimal

	CreatedAt int64
	UpdatedAt int64
}

// BalanceSnapshot is the full persisted edge set of a group together with
// the version written by the recompute that produced it.
type BalanceSnapshot struct {
	GroupID  string
	Version  int64
	Balances []*Balance
}
