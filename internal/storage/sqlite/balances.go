package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/mmynk/settleup/internal/models"
	"github.com/mmynk/settleup/internal/storage"
)

const balanceColumns = `id, group_id, user_id, owes_to, amount_cents, created_at, updated_at`

func scanBalance(row rowScanner) (*models.Balance, error) {
	b := &models.Balance{}
	var cents int64
	if err := row.Scan(&b.ID, &b.GroupID, &b.UserID, &b.OwesTo, &cents, &b.CreatedAt, &b.UpdatedAt); err != nil {
		return nil, err
	}
	b.Amount = storage.FromCents(cents)
	return b, nil
}

// ListBalances returns the group's current snapshot. Snapshot edges keep
// the order they were written in.
func (s *SQLiteStore) ListBalances(ctx context.Context, groupID string) (*models.BalanceSnapshot, error) {
	snapshot := &models.BalanceSnapshot{GroupID: groupID}

	err := s.inTx(ctx, func(tx *sql.Tx) error {
		err := tx.QueryRowContext(ctx,
			"SELECT balance_version FROM groups WHERE id = ?", groupID,
		).Scan(&snapshot.Version)
		if err == sql.ErrNoRows {
			return fmt.Errorf("group %s: %w", groupID, storage.ErrNotFound)
		}
		if err != nil {
			return fmt.Errorf("failed to get balance version: %w", err)
		}

		rows, err := tx.QueryContext(ctx,
			`SELECT `+balanceColumns+` FROM balances WHERE group_id = ? ORDER BY rowid`,
			groupID,
		)
		if err != nil {
			return fmt.Errorf("failed to list balances: %w", err)
		}
		defer rows.Close()

		for rows.Next() {
			b, err := scanBalance(rows)
			if err != nil {
				return fmt.Errorf("failed to scan balance: %w", err)
			}
			snapshot.Balances = append(snapshot.Balances, b)
		}
		if err := rows.Err(); err != nil {
			return fmt.Errorf("failed to iterate balances: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return snapshot, nil
}

// FindBalance retrieves the edge debtor -> creditor of a group.
func (s *SQLiteStore) FindBalance(ctx context.Context, groupID, debtor, creditor string) (*models.Balance, error) {
	b, err := scanBalance(s.db.QueryRowContext(ctx,
		`SELECT `+balanceColumns+` FROM balances WHERE group_id = ? AND user_id = ? AND owes_to = ?`,
		groupID, debtor, creditor,
	))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("balance %s -> %s: %w", debtor, creditor, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find balance: %w", err)
	}
	return b, nil
}

// ReplaceBalances deletes the group's edges and inserts the given ones in a
// single transaction, bumping the group's balance version.
func (s *SQLiteStore) ReplaceBalances(ctx context.Context, groupID string, balances []*models.Balance) (int64, error) {
	var version int64
	now := time.Now().Unix()

	err := s.inTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx,
			"UPDATE groups SET balance_version = balance_version + 1 WHERE id = ?", groupID,
		)
		if err != nil {
			return fmt.Errorf("failed to bump balance version: %w", err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return fmt.Errorf("group %s: %w", groupID, storage.ErrNotFound)
		}

		if _, err := tx.ExecContext(ctx, "DELETE FROM balances WHERE group_id = ?", groupID); err != nil {
			return fmt.Errorf("failed to delete balances: %w", err)
		}

		for _, b := range balances {
			if b.ID == "" {
				b.ID = uuid.New().String()
			}
			b.GroupID = groupID
			b.CreatedAt = now
			b.UpdatedAt = now
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO balances (`+balanceColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?)`,
				b.ID, b.GroupID, b.UserID, b.OwesTo, storage.ToCents(b.Amount), b.CreatedAt, b.UpdatedAt,
			); err != nil {
				return fmt.Errorf("failed to insert balance: %w", err)
			}
		}

		if err := tx.QueryRowContext(ctx,
			"SELECT balance_version FROM groups WHERE id = ?", groupID,
		).Scan(&version); err != nil {
			return fmt.Errorf("failed to read balance version: %w", err)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return version, nil
}

// UpdateBalanceAmount sets a new amount on one edge.
func (s *SQLiteStore) UpdateBalanceAmount(ctx context.Context, balanceID string, amount decimal.Decimal) error {
	res, err := s.db.ExecContext(ctx,
		"UPDATE balances SET amount_cents = ?, updated_at = ? WHERE id = ?",
		storage.ToCents(amount), time.Now().Unix(), balanceID,
	)
	if err != nil {
		return fmt.Errorf("failed to update balance: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("balance %s: %w", balanceID, storage.ErrNotFound)
	}
	return nil
}

// DeleteBalance removes one edge.
func (s *SQLiteStore) DeleteBalance(ctx context.Context, balanceID string) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM balances WHERE id = ?", balanceID)
	if err != nil {
		return fmt.Errorf("failed to delete balance: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("balance %s: %w", balanceID, storage.ErrNotFound)
	}
	return nil
}
