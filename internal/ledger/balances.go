package ledger

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/mmynk/settleup/internal/models"
)

// CalculateGroupBalances recomputes the group's snapshot on behalf of a member.
func (e *Engine) CalculateGroupBalances(ctx context.Context, groupID, callerID string) (*Recomputation, error) {
	if _, err := e.memberGroup(ctx, groupID, callerID); err != nil {
		return nil, err
	}
	return e.Recompute(ctx, groupID)
}

// Counterparty is one side of a balance seen from the caller's point of view.
type Counterparty struct {
	UserID string
	Amount decimal.Decimal
}

// GroupBalances is the stored snapshot plus the caller's share of it.
type GroupBalances struct {
	Version int64
	All     []*models.Balance

	// YouOwe lists creditors the caller owes.
	YouOwe []Counterparty

	// OwesYou lists debtors who owe the caller.
	OwesYou []Counterparty
}

// GetGroupBalances reads the persisted snapshot without recomputing it.
func (e *Engine) GetGroupBalances(ctx context.Context, groupID, callerID string) (*GroupBalances, error) {
	if _, err := e.memberGroup(ctx, groupID, callerID); err != nil {
		return nil, err
	}

	snapshot, err := e.store.ListBalances(ctx, groupID)
	if err != nil {
		return nil, storeErr("list balances", err)
	}

	result := &GroupBalances{
		Version: snapshot.Version,
		All:     snapshot.Balances,
	}
	for _, b := range snapshot.Balances {
		if b.UserID == callerID {
			result.YouOwe = append(result.YouOwe, Counterparty{UserID: b.OwesTo, Amount: b.Amount})
		}
		if b.OwesTo == callerID {
			result.OwesYou = append(result.OwesYou, Counterparty{UserID: b.UserID, Amount: b.Amount})
		}
	}
	return result, nil
}
