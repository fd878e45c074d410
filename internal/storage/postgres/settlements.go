package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/mmynk/settleup/internal/models"
	"github.com/mmynk/settleup/internal/storage"
)

// CreateSettlement persists a new settlement.
func (s *PostgresStore) CreateSettlement(ctx context.Context, settlement *models.Settlement) error {
	if settlement.ID == "" {
		settlement.ID = uuid.New().String()
	}
	if settlement.SettledAt == 0 {
		settlement.SettledAt = time.Now().Unix()
	}

	var note *string
	if settlement.Note != "" {
		note = &settlement.Note
	}

	_, err := s.pool.Exec(ctx, `
		INSERT INTO settlements (id, group_id, payer_id, payee_id, amount_cents, note, settled_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, settlement.ID, settlement.GroupID, settlement.PayerID, settlement.PayeeID,
		storage.ToCents(settlement.Amount), note, settlement.SettledAt)
	if err != nil {
		return fmt.Errorf("failed to insert settlement: %w", err)
	}
	return nil
}

// ListSettlementsByGroup retrieves all settlements for a group, newest first.
func (s *PostgresStore) ListSettlementsByGroup(ctx context.Context, groupID string) ([]*models.Settlement, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, group_id, payer_id, payee_id, amount_cents, note, settled_at
		FROM settlements WHERE group_id = $1
		ORDER BY settled_at DESC, seq DESC
	`, groupID)
	if err != nil {
		return nil, fmt.Errorf("failed to list settlements by group: %w", err)
	}

	settlements, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (*models.Settlement, error) {
		st := &models.Settlement{}
		var note *string
		var cents int64
		if err := row.Scan(&st.ID, &st.GroupID, &st.PayerID, &st.PayeeID, &cents, &note, &st.SettledAt); err != nil {
			return nil, err
		}
		st.Amount = storage.FromCents(cents)
		if note != nil {
			st.Note = *note
		}
		return st, nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan settlements: %w", err)
	}
	return settlements, nil
}
