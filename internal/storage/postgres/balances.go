package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/mmynk/settleup/internal/models"
	"github.com/mmynk/settleup/internal/storage"
)

const balanceColumns = `id, group_id, user_id, owes_to, amount_cents, created_at, updated_at`

func scanBalance(row pgx.Row) (*models.Balance, error) {
	b := &models.Balance{}
	var cents int64
	if err := row.Scan(&b.ID, &b.GroupID, &b.UserID, &b.OwesTo, &cents, &b.CreatedAt, &b.UpdatedAt); err != nil {
		return nil, err
	}
	b.Amount = storage.FromCents(cents)
	return b, nil
}

// ListBalances returns the group's current snapshot, read in one
// repeatable-read transaction so the version matches the edges.
func (s *PostgresStore) ListBalances(ctx context.Context, groupID string) (*models.BalanceSnapshot, error) {
	snapshot := &models.BalanceSnapshot{GroupID: groupID}

	err := pgx.BeginTxFunc(ctx, s.pool, snapshotRead, func(tx pgx.Tx) error {
		err := tx.QueryRow(ctx,
			`SELECT balance_version FROM groups WHERE id = $1`, groupID,
		).Scan(&snapshot.Version)
		if errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("group %s: %w", groupID, storage.ErrNotFound)
		}
		if err != nil {
			return fmt.Errorf("failed to get balance version: %w", err)
		}

		rows, err := tx.Query(ctx,
			`SELECT `+balanceColumns+` FROM balances WHERE group_id = $1 ORDER BY seq`, groupID,
		)
		if err != nil {
			return fmt.Errorf("failed to list balances: %w", err)
		}
		balances, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (*models.Balance, error) {
			return scanBalance(row)
		})
		if err != nil {
			return fmt.Errorf("failed to scan balances: %w", err)
		}
		snapshot.Balances = balances
		return nil
	})
	if err != nil {
		return nil, err
	}
	return snapshot, nil
}

// FindBalance retrieves the edge debtor -> creditor of a group.
func (s *PostgresStore) FindBalance(ctx context.Context, groupID, debtor, creditor string) (*models.Balance, error) {
	b, err := scanBalance(s.pool.QueryRow(ctx,
		`SELECT `+balanceColumns+` FROM balances WHERE group_id = $1 AND user_id = $2 AND owes_to = $3`,
		groupID, debtor, creditor,
	))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("balance %s -> %s: %w", debtor, creditor, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find balance: %w", err)
	}
	return b, nil
}

// ReplaceBalances deletes the group's edges and inserts the given ones in a
// single transaction. The group row is locked by the version bump, so
// concurrent replaces for one group serialize.
func (s *PostgresStore) ReplaceBalances(ctx context.Context, groupID string, balances []*models.Balance) (int64, error) {
	var version int64
	now := time.Now().Unix()

	err := pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		err := tx.QueryRow(ctx,
			`UPDATE groups SET balance_version = balance_version + 1 WHERE id = $1 RETURNING balance_version`,
			groupID,
		).Scan(&version)
		if errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("group %s: %w", groupID, storage.ErrNotFound)
		}
		if err != nil {
			return fmt.Errorf("failed to bump balance version: %w", err)
		}

		if _, err := tx.Exec(ctx, `DELETE FROM balances WHERE group_id = $1`, groupID); err != nil {
			return fmt.Errorf("failed to delete balances: %w", err)
		}

		for _, b := range balances {
			if b.ID == "" {
				b.ID = uuid.New().String()
			}
			b.GroupID = groupID
			b.CreatedAt = now
			b.UpdatedAt = now
			if _, err := tx.Exec(ctx,
				`INSERT INTO balances (`+balanceColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7)`,
				b.ID, b.GroupID, b.UserID, b.OwesTo, storage.ToCents(b.Amount), b.CreatedAt, b.UpdatedAt,
			); err != nil {
				return fmt.Errorf("failed to insert balance: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return version, nil
}

// UpdateBalanceAmount sets a new amount on one edge.
func (s *PostgresStore) UpdateBalanceAmount(ctx context.Context, balanceID string, amount decimal.Decimal) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE balances SET amount_cents = $1, updated_at = $2 WHERE id = $3`,
		storage.ToCents(amount), time.Now().Unix(), balanceID,
	)
	if err != nil {
		return fmt.Errorf("failed to update balance: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("balance %s: %w", balanceID, storage.ErrNotFound)
	}
	return nil
}

// DeleteBalance removes one edge.
func (s *PostgresStore) DeleteBalance(ctx context.Context, balanceID string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM balances WHERE id = $1`, balanceID)
	if err != nil {
		return fmt.Errorf("failed to delete balance: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("balance %s: %w", balanceID, storage.ErrNotFound)
	}
	return nil
}
