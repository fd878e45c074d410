// Package storage provides abstractions for persistent data storage.
package storage

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"

	"github.com/mmynk/settleup/internal/models"
)

// ErrNotFound is wrapped by every lookup that finds no row.
var ErrNotFound = errors.New("not found")

// Store defines the interface for ledger storage operations.
// This abstraction allows swapping storage backends (SQLite, PostgreSQL)
// without changing the service layer.
type Store interface {
	// CreateUser inserts a new user. The caller assigns the ID.
	// Pending friend invitations addressed to the user's email are accepted
	// in the same transaction.
	CreateUser(ctx context.Context, user *models.User) error

	// UpdateUser overwrites a user's email, display name and password hash,
	// wrapping ErrNotFound when the user does not exist.
	UpdateUser(ctx context.Context, user *models.User) error

	// GetUserByEmail returns nil, nil when no user has the email.
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)

	// GetUserByID returns nil, nil when the user does not exist.
	GetUserByID(ctx context.Context, id string) (*models.User, error)

	// GetUsersByIDs returns the users that exist, keyed by ID.
	GetUsersByIDs(ctx context.Context, ids []string) (map[string]*models.User, error)

	// AddFriendship links two users in both directions. It reports false when
	// they were already friends.
	AddFriendship(ctx context.Context, userID, friendID string) (bool, error)

	// RemoveFriendship unlinks two users in both directions, wrapping
	// ErrNotFound when they were not friends.
	RemoveFriendship(ctx context.Context, userID, friendID string) error

	// ListFriends returns the user's friends in the order they were added.
	ListFriends(ctx context.Context, userID string) ([]*models.User, error)

	// InviteFriend records a pending invitation from inviterID to email.
	// Inviting the same email again refreshes the invitation.
	InviteFriend(ctx context.Context, inviterID, email string) error

	// ListInvitations returns the invitations sent by inviterID, newest first.
	ListInvitations(ctx context.Context, inviterID string) ([]*models.FriendInvitation, error)

	// CreateGroup persists a group and its members.
	// The group.ID and timestamps are populated by the store when empty.
	CreateGroup(ctx context.Context, group *models.Group) error

	// GetGroup retrieves a group with its members in join order.
	GetGroup(ctx context.Context, groupID string) (*models.Group, error)

	// ListGroupsByMember returns every group the user belongs to, newest first.
	ListGroupsByMember(ctx context.Context, userID string) ([]*models.Group, error)

	// AddGroupMembers appends members to a group.
	AddGroupMembers(ctx context.Context, groupID string, members []string) error

	// RemoveGroupMember drops one member from a group.
	RemoveGroupMember(ctx context.Context, groupID, userID string) error

	// CreateExpense persists an expense with its participants and splits in one transaction.
	CreateExpense(ctx context.Context, expense *models.Expense) error

	// GetExpense retrieves an expense with participants and splits.
	GetExpense(ctx context.Context, expenseID string) (*models.Expense, error)

	// ListExpensesByGroup returns a group's expenses in the order they were recorded.
	ListExpensesByGroup(ctx context.Context, groupID string, unsettledOnly bool) ([]*models.Expense, error)

	// ListBalances returns the current balance snapshot of a group.
	ListBalances(ctx context.Context, groupID string) (*models.BalanceSnapshot, error)

	// FindBalance returns the edge debtor -> creditor, wrapping ErrNotFound when absent.
	FindBalance(ctx context.Context, groupID, debtor, creditor string) (*models.Balance, error)

	// ReplaceBalances swaps the group's whole edge set in one transaction and
	// returns the new snapshot version. On failure the previous snapshot stays intact.
	ReplaceBalances(ctx context.Context, groupID string, balances []*models.Balance) (int64, error)

	// UpdateBalanceAmount sets a new amount on one edge.
	UpdateBalanceAmount(ctx context.Context, balanceID string, amount decimal.Decimal) error

	// DeleteBalance removes one edge.
	DeleteBalance(ctx context.Context, balanceID string) error

	// CreateSettlement records a settlement. The ID and SettledAt are populated when empty.
	CreateSettlement(ctx context.Context, settlement *models.Settlement) error

	// ListSettlementsByGroup returns a group's settlements, newest first.
	ListSettlementsByGroup(ctx context.Context, groupID string) ([]*models.Settlement, error)

	// Close releases any resources held by the store.
	Close() error
}

// ToCents converts an amount to integer minor units, rounding to the cent.
func ToCents(amount decimal.Decimal) int64 {
	return amount.Round(2).Shift(2).IntPart()
}

// FromCents converts integer minor units back to an amount.
func FromCents(cents int64) decimal.Decimal {
	return decimal.New(cents, -2)
}
