package ledger

import (
	"cmp"
	"context"
	"slices"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/mmynk/settleup/internal/calculator"
	"github.com/mmynk/settleup/internal/models"
)

// ExpenseInput describes a new expense paid by the caller.
type ExpenseInput struct {
	GroupID     string
	PayerID     string
	Amount      decimal.Decimal
	Description string
	Category    string

	// Date is a Unix timestamp; zero means now.
	Date int64

	// Participants defaults to every group member when empty.
	Participants []string
}

// CreateExpense records an expense split equally among its participants and
// recomputes the group's balances.
//
// Participants are de-duplicated and filtered to group members; the payer
// is always included. A failed recompute is logged and does not undo the
// expense, the next recompute picks it up.
func (e *Engine) CreateExpense(ctx context.Context, in ExpenseInput) (*models.Expense, error) {
	description := strings.TrimSpace(in.Description)
	if in.GroupID == "" || description == "" {
		return nil, invalidf("group ID, amount, and description are required")
	}
	if !in.Amount.IsPositive() {
		return nil, invalidf("amount must be a positive number")
	}
	amount := calculator.RoundCents(in.Amount)
	if amount.LessThan(calculator.Cent) {
		return nil, invalidf("amount must be at least %s", calculator.Cent.StringFixed(2))
	}

	group, err := e.memberGroup(ctx, in.GroupID, in.PayerID)
	if err != nil {
		return nil, err
	}

	requested := dedupe(in.Participants)
	if len(requested) == 0 {
		requested = group.Members
	}
	var participants []string
	for _, id := range requested {
		if group.IsMember(id) {
			participants = append(participants, id)
		}
	}
	if len(participants) == 0 {
		return nil, invalidf("no valid participants found in group")
	}
	if !slices.Contains(participants, in.PayerID) {
		participants = append(participants, in.PayerID)
	}

	shares, err := calculator.EqualSplit(amount, participants)
	if err != nil {
		return nil, invalidf("%v", err)
	}
	splits := make([]models.Split, len(shares))
	for i, s := range shares {
		splits[i] = models.Split{UserID: s.UserID, Amount: s.Amount}
	}

	expense := &models.Expense{
		GroupID:      in.GroupID,
		PayerID:      in.PayerID,
		Amount:       amount,
		Description:  description,
		Category:     strings.TrimSpace(in.Category),
		Date:         in.Date,
		Participants: participants,
		Splits:       splits,
	}
	if err := e.store.CreateExpense(ctx, expense); err != nil {
		return nil, storeErr("create expense", err)
	}

	e.logger.Info("Expense created",
		"group_id", expense.GroupID,
		"expense_id", expense.ID,
		"amount", amount.StringFixed(2),
		"participants", len(participants),
	)

	if _, err := e.Recompute(ctx, in.GroupID); err != nil {
		e.logger.Warn("Automatic balance recompute failed", "group_id", in.GroupID, "error", err)
	}

	return expense, nil
}

// ListGroupExpenses returns every expense of the group, most recent date first.
func (e *Engine) ListGroupExpenses(ctx context.Context, groupID, callerID string) ([]*models.Expense, error) {
	if _, err := e.memberGroup(ctx, groupID, callerID); err != nil {
		return nil, err
	}

	expenses, err := e.store.ListExpensesByGroup(ctx, groupID, false)
	if err != nil {
		return nil, storeErr("list expenses", err)
	}
	slices.SortStableFunc(expenses, func(a, b *models.Expense) int {
		return cmp.Compare(b.Date, a.Date)
	})
	return expenses, nil
}

// GetExpense returns one expense if the caller belongs to its group.
func (e *Engine) GetExpense(ctx context.Context, expenseID, callerID string) (*models.Expense, error) {
	if expenseID == "" {
		return nil, invalidf("expense ID is required")
	}
	expense, err := e.store.GetExpense(ctx, expenseID)
	if err != nil {
		return nil, storeErr("get expense", err)
	}

	group, err := e.store.GetGroup(ctx, expense.GroupID)
	if err != nil {
		return nil, storeErr("get expense group", err)
	}
	if !group.IsMember(callerID) {
		return nil, forbiddenf("not authorized to view expense %s", expenseID)
	}
	return expense, nil
}

// dedupe drops repeated and empty IDs, keeping first occurrences in order.
func dedupe(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}
