package ledger

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/mmynk/settleup/internal/calculator"
	"github.com/mmynk/settleup/internal/models"
)

// SettleInput describes a payment from the caller to a creditor.
type SettleInput struct {
	GroupID string
	PayerID string
	PayeeID string
	Amount  decimal.Decimal
	Note    string
}

// SettleBalance records a payment against the standing edge payer -> payee
// and recomputes the group's snapshot.
//
// Every validation runs before the first write: the amount must be positive
// and no larger than the edge, both parties must be members and the edge
// must exist. The whole operation holds the group's lock.
func (e *Engine) SettleBalance(ctx context.Context, in SettleInput) (*models.Settlement, error) {
	if in.PayeeID == "" {
		return nil, invalidf("payee ID is required")
	}
	if !in.Amount.IsPositive() {
		return nil, invalidf("amount must be a positive number")
	}
	if in.PayerID == in.PayeeID {
		return nil, invalidf("cannot settle with yourself")
	}
	amount := calculator.RoundCents(in.Amount)
	if amount.LessThan(calculator.Cent) {
		return nil, invalidf("amount must be at least %s", calculator.Cent.StringFixed(2))
	}

	unlock, err := e.locks.acquire(ctx, in.GroupID)
	if err != nil {
		return nil, fmt.Errorf("%w: waiting for group %s: %w", ErrInternal, in.GroupID, err)
	}
	defer unlock()

	group, err := e.memberGroup(ctx, in.GroupID, in.PayerID)
	if err != nil {
		return nil, err
	}
	if !group.IsMember(in.PayeeID) {
		return nil, forbiddenf("both users must be members of group %s", in.GroupID)
	}

	edge, err := e.store.FindBalance(ctx, in.GroupID, in.PayerID, in.PayeeID)
	if err != nil {
		return nil, storeErr("find balance to settle", err)
	}
	if amount.GreaterThan(edge.Amount) {
		return nil, invalidf("settlement amount cannot exceed balance of %s", edge.Amount.StringFixed(2))
	}

	settlement := &models.Settlement{
		GroupID: in.GroupID,
		PayerID: in.PayerID,
		PayeeID: in.PayeeID,
		Amount:  amount,
		Note:    in.Note,
	}
	if err := e.store.CreateSettlement(ctx, settlement); err != nil {
		return nil, storeErr("create settlement", err)
	}
	e.recorder.SettlementRecorded()

	remaining := edge.Amount.Sub(amount)
	if remaining.LessThan(calculator.Cent) {
		err = e.store.DeleteBalance(ctx, edge.ID)
	} else {
		err = e.store.UpdateBalanceAmount(ctx, edge.ID, remaining)
	}
	if err != nil {
		e.logger.Error("Failed to adjust settled balance",
			"group_id", in.GroupID,
			"balance_id", edge.ID,
			"error", err,
		)
		return nil, fmt.Errorf("%w: adjust balance: %w", ErrInternal, err)
	}

	if _, err := e.recomputeLocked(ctx, in.GroupID); err != nil {
		return nil, err
	}

	e.logger.Info("Balance settled",
		"group_id", in.GroupID,
		"settlement_id", settlement.ID,
		"payer_id", in.PayerID,
		"payee_id", in.PayeeID,
		"amount", amount.StringFixed(2),
	)
	return settlement, nil
}

// ListSettlements returns the group's settlements, newest first.
func (e *Engine) ListSettlements(ctx context.Context, groupID, callerID string) ([]*models.Settlement, error) {
	if _, err := e.memberGroup(ctx, groupID, callerID); err != nil {
		return nil, err
	}
	settlements, err := e.store.ListSettlementsByGroup(ctx, groupID)
	if err != nil {
		return nil, storeErr("list settlements", err)
	}
	return settlements, nil
}
