package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/mmynk/settleup/internal/models"
	"github.com/mmynk/settleup/internal/storage"
)

const expenseColumns = `id, group_id, payer_id, amount_cents, description, category, date, is_settled, created_at`

// CreateExpense persists a new expense together with its participants and splits.
func (s *PostgresStore) CreateExpense(ctx context.Context, expense *models.Expense) error {
	if expense.ID == "" {
		expense.ID = uuid.New().String()
	}
	if expense.CreatedAt == 0 {
		expense.CreatedAt = time.Now().Unix()
	}
	if expense.Date == 0 {
		expense.Date = expense.CreatedAt
	}

	return pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx,
			`INSERT INTO expenses (`+expenseColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
			expense.ID, expense.GroupID, expense.PayerID, storage.ToCents(expense.Amount),
			expense.Description, expense.Category, expense.Date, expense.IsSettled, expense.CreatedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to insert expense: %w", err)
		}

		batch := &pgx.Batch{}
		for _, p := range expense.Participants {
			batch.Queue(`INSERT INTO expense_participants (expense_id, user_id) VALUES ($1, $2)`,
				expense.ID, p)
		}
		for _, split := range expense.Splits {
			batch.Queue(`INSERT INTO expense_splits (expense_id, user_id, amount_cents) VALUES ($1, $2, $3)`,
				expense.ID, split.UserID, storage.ToCents(split.Amount))
		}
		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			return fmt.Errorf("failed to insert participants and splits: %w", err)
		}
		return nil
	})
}

func scanExpense(row pgx.Row) (*models.Expense, error) {
	e := &models.Expense{}
	var cents int64
	if err := row.Scan(&e.ID, &e.GroupID, &e.PayerID, &cents, &e.Description, &e.Category,
		&e.Date, &e.IsSettled, &e.CreatedAt); err != nil {
		return nil, err
	}
	e.Amount = storage.FromCents(cents)
	return e, nil
}

// GetExpense retrieves an expense by ID, including participants and splits.
func (s *PostgresStore) GetExpense(ctx context.Context, expenseID string) (*models.Expense, error) {
	var expense *models.Expense
	err := pgx.BeginTxFunc(ctx, s.pool, snapshotRead, func(tx pgx.Tx) error {
		var err error
		expense, err = scanExpense(tx.QueryRow(ctx,
			`SELECT `+expenseColumns+` FROM expenses WHERE id = $1`, expenseID,
		))
		if errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("expense %s: %w", expenseID, storage.ErrNotFound)
		}
		if err != nil {
			return fmt.Errorf("failed to get expense: %w", err)
		}
		return loadDetails(ctx, tx, []*models.Expense{expense})
	})
	if err != nil {
		return nil, err
	}
	return expense, nil
}

// ListExpensesByGroup retrieves a group's expenses in recording order.
// Expenses and their details come from one repeatable-read snapshot.
func (s *PostgresStore) ListExpensesByGroup(ctx context.Context, groupID string, unsettledOnly bool) ([]*models.Expense, error) {
	query := `SELECT ` + expenseColumns + ` FROM expenses WHERE group_id = $1`
	if unsettledOnly {
		query += ` AND NOT is_settled`
	}
	query += ` ORDER BY created_at, seq`

	var expenses []*models.Expense
	err := pgx.BeginTxFunc(ctx, s.pool, snapshotRead, func(tx pgx.Tx) error {
		rows, err := tx.Query(ctx, query, groupID)
		if err != nil {
			return fmt.Errorf("failed to list expenses by group: %w", err)
		}
		expenses, err = pgx.CollectRows(rows, func(row pgx.CollectableRow) (*models.Expense, error) {
			return scanExpense(row)
		})
		if err != nil {
			return fmt.Errorf("failed to scan expenses: %w", err)
		}

		if len(expenses) == 0 {
			return nil
		}
		return loadDetails(ctx, tx, expenses)
	})
	if err != nil {
		return nil, err
	}
	return expenses, nil
}

// loadDetails fills Participants and Splits for the given expenses.
func loadDetails(ctx context.Context, tx pgx.Tx, expenses []*models.Expense) error {
	ids := make([]string, len(expenses))
	byID := make(map[string]*models.Expense, len(expenses))
	for i, e := range expenses {
		ids[i] = e.ID
		byID[e.ID] = e
	}

	rows, err := tx.Query(ctx,
		`SELECT expense_id, user_id FROM expense_participants WHERE expense_id = ANY($1) ORDER BY seq`, ids,
	)
	if err != nil {
		return fmt.Errorf("failed to get participants: %w", err)
	}
	var expenseID, userID string
	_, err = pgx.ForEachRow(rows, []any{&expenseID, &userID}, func() error {
		if e, ok := byID[expenseID]; ok {
			e.Participants = append(e.Participants, userID)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to scan participants: %w", err)
	}

	rows, err = tx.Query(ctx,
		`SELECT expense_id, user_id, amount_cents FROM expense_splits WHERE expense_id = ANY($1) ORDER BY seq`, ids,
	)
	if err != nil {
		return fmt.Errorf("failed to get splits: %w", err)
	}
	var cents int64
	_, err = pgx.ForEachRow(rows, []any{&expenseID, &userID, &cents}, func() error {
		if e, ok := byID[expenseID]; ok {
			e.Splits = append(e.Splits, models.Split{UserID: userID, Amount: storage.FromCents(cents)})
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to scan splits: %w", err)
	}
	return nil
}
