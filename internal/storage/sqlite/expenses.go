package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/mmynk/settleup/internal/models"
	"github.com/mmynk/settleup/internal/storage"
)

const expenseColumns = `id, group_id, payer_id, amount_cents, description, category, date, is_settled, created_at`

// CreateExpense persists a new expense together with its participants and splits.
func (s *SQLiteStore) CreateExpense(ctx context.Context, expense *models.Expense) error {
	if expense.ID == "" {
		expense.ID = uuid.New().String()
	}
	if expense.CreatedAt == 0 {
		expense.CreatedAt = time.Now().Unix()
	}
	if expense.Date == 0 {
		expense.Date = expense.CreatedAt
	}

	return s.inTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO expenses (`+expenseColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			expense.ID, expense.GroupID, expense.PayerID, storage.ToCents(expense.Amount),
			expense.Description, expense.Category, expense.Date, expense.IsSettled, expense.CreatedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to insert expense: %w", err)
		}

		for _, p := range expense.Participants {
			if _, err := tx.ExecContext(ctx,
				"INSERT INTO expense_participants (expense_id, user_id) VALUES (?, ?)",
				expense.ID, p,
			); err != nil {
				return fmt.Errorf("failed to insert participant: %w", err)
			}
		}

		for _, split := range expense.Splits {
			if _, err := tx.ExecContext(ctx,
				"INSERT INTO expense_splits (expense_id, user_id, amount_cents) VALUES (?, ?, ?)",
				expense.ID, split.UserID, storage.ToCents(split.Amount),
			); err != nil {
				return fmt.Errorf("failed to insert split: %w", err)
			}
		}
		return nil
	})
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanExpense(row rowScanner) (*models.Expense, error) {
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
func (s *SQLiteStore) GetExpense(ctx context.Context, expenseID string) (*models.Expense, error) {
	var expense *models.Expense
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		var err error
		expense, err = scanExpense(tx.QueryRowContext(ctx,
			`SELECT `+expenseColumns+` FROM expenses WHERE id = ?`, expenseID,
		))
		if err == sql.ErrNoRows {
			return fmt.Errorf("expense %s: %w", expenseID, storage.ErrNotFound)
		}
		if err != nil {
			return fmt.Errorf("failed to get expense: %w", err)
		}

		byID := map[string]*models.Expense{expense.ID: expense}
		if err := loadParticipants(ctx, tx, "e.id = ?", expenseID, byID); err != nil {
			return err
		}
		return loadSplits(ctx, tx, "e.id = ?", expenseID, byID)
	})
	if err != nil {
		return nil, err
	}
	return expense, nil
}

// ListExpensesByGroup retrieves a group's expenses in recording order.
// Expenses, participants and splits are read in one transaction so a
// concurrent CreateExpense is seen either whole or not at all.
func (s *SQLiteStore) ListExpensesByGroup(ctx context.Context, groupID string, unsettledOnly bool) ([]*models.Expense, error) {
	query := `SELECT ` + expenseColumns + ` FROM expenses WHERE group_id = ?`
	if unsettledOnly {
		query += ` AND is_settled = 0`
	}
	query += ` ORDER BY created_at, rowid`

	var expenses []*models.Expense
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		rows, err := tx.QueryContext(ctx, query, groupID)
		if err != nil {
			return fmt.Errorf("failed to list expenses by group: %w", err)
		}

		byID := make(map[string]*models.Expense)
		for rows.Next() {
			e, err := scanExpense(rows)
			if err != nil {
				rows.Close()
				return fmt.Errorf("failed to scan expense: %w", err)
			}
			expenses = append(expenses, e)
			byID[e.ID] = e
		}
		rows.Close()
		if err := rows.Err(); err != nil {
			return fmt.Errorf("failed to iterate expenses: %w", err)
		}

		if len(expenses) == 0 {
			return nil
		}
		if err := loadParticipants(ctx, tx, "e.group_id = ?", groupID, byID); err != nil {
			return err
		}
		return loadSplits(ctx, tx, "e.group_id = ?", groupID, byID)
	})
	if err != nil {
		return nil, err
	}
	return expenses, nil
}

// loadParticipants fills Participants for every expense in byID matched by where.
func loadParticipants(ctx context.Context, tx *sql.Tx, where string, arg string, byID map[string]*models.Expense) error {
	rows, err := tx.QueryContext(ctx,
		`SELECT p.expense_id, p.user_id FROM expense_participants p
		 JOIN expenses e ON e.id = p.expense_id
		 WHERE `+where+` ORDER BY p.rowid`,
		arg,
	)
	if err != nil {
		return fmt.Errorf("failed to get participants: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var expenseID, userID string
		if err := rows.Scan(&expenseID, &userID); err != nil {
			return fmt.Errorf("failed to scan participant: %w", err)
		}
		if e, ok := byID[expenseID]; ok {
			e.Participants = append(e.Participants, userID)
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("failed to iterate participants: %w", err)
	}
	return nil
}

// loadSplits fills Splits for every expense in byID matched by where.
func loadSplits(ctx context.Context, tx *sql.Tx, where string, arg string, byID map[string]*models.Expense) error {
	rows, err := tx.QueryContext(ctx,
		`SELECT sp.expense_id, sp.user_id, sp.amount_cents FROM expense_splits sp
		 JOIN expenses e ON e.id = sp.expense_id
		 WHERE `+where+` ORDER BY sp.rowid`,
		arg,
	)
	if err != nil {
		return fmt.Errorf("failed to get splits: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var expenseID, userID string
		var cents int64
		if err := rows.Scan(&expenseID, &userID, &cents); err != nil {
			return fmt.Errorf("failed to scan split: %w", err)
		}
		if e, ok := byID[expenseID]; ok {
			e.Splits = append(e.Splits, models.Split{UserID: userID, Amount: storage.FromCents(cents)})
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("failed to iterate splits: %w", err)
	}
	return nil
}
