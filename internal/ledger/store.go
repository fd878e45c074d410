package ledger

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/mmynk/settleup/internal/models"
)

// Store is the persistence the engine depends on. storage.Store satisfies it.
//
//go:generate mockgen -destination=mocks/mock_store.go -source=store.go Store
type Store interface {
	GetUsersByIDs(ctx context.Context, ids []string) (map[string]*models.User, error)

	CreateGroup(ctx context.Context, group *models.Group) error
	GetGroup(ctx context.Context, groupID string) (*models.Group, error)
	ListGroupsByMember(ctx context.Context, userID string) ([]*models.Group, error)
	AddGroupMembers(ctx context.Context, groupID string, members []string) error
	RemoveGroupMember(ctx context.Context, groupID, userID string) error

	CreateExpense(ctx context.Context, expense *models.Expense) error
	GetExpense(ctx context.Context, expenseID string) (*models.Expense, error)
	ListExpensesByGroup(ctx context.Context, groupID string, unsettledOnly bool) ([]*models.Expense, error)

	ListBalances(ctx context.Context, groupID string) (*models.BalanceSnapshot, error)
	FindBalance(ctx context.Context, groupID, debtor, creditor string) (*models.Balance, error)
	ReplaceBalances(ctx context.Context, groupID string, balances []*models.Balance) (int64, error)
	UpdateBalanceAmount(ctx context.Context, balanceID string, amount decimal.Decimal) error
	DeleteBalance(ctx context.Context, balanceID string) error

	CreateSettlement(ctx context.Context, settlement *models.Settlement) error
	ListSettlementsByGroup(ctx context.Context, groupID string) ([]*models.Settlement, error)
}
