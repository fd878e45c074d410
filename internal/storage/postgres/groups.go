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

const groupColumns = `id, name, description, created_by, created_at, updated_at`

// CreateGroup persists a new group and its members.
func (s *PostgresStore) CreateGroup(ctx context.Context, group *models.Group) error {
	if group.ID == "" {
		group.ID = uuid.New().String()
	}
	if group.CreatedAt == 0 {
		group.CreatedAt = time.Now().Unix()
	}
	group.UpdatedAt = group.CreatedAt

	return pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx,
			`INSERT INTO groups (`+groupColumns+`) VALUES ($1, $2, $3, $4, $5, $6)`,
			group.ID, group.Name, group.Description, group.CreatedBy, group.CreatedAt, group.UpdatedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to insert group: %w", err)
		}
		return insertMembers(ctx, tx, group.ID, group.Members)
	})
}

func insertMembers(ctx context.Context, tx pgx.Tx, groupID string, members []string) error {
	for _, m := range members {
		if _, err := tx.Exec(ctx,
			`INSERT INTO group_members (group_id, user_id) VALUES ($1, $2)`,
			groupID, m,
		); err != nil {
			return fmt.Errorf("failed to insert group member: %w", err)
		}
	}
	return nil
}

// GetGroup retrieves a group by ID, including its members in join order.
func (s *PostgresStore) GetGroup(ctx context.Context, groupID string) (*models.Group, error) {
	group := &models.Group{}
	err := s.pool.QueryRow(ctx,
		`SELECT `+groupColumns+` FROM groups WHERE id = $1`, groupID,
	).Scan(&group.ID, &group.Name, &group.Description, &group.CreatedBy, &group.CreatedAt, &group.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("group %s: %w", groupID, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get group: %w", err)
	}

	rows, err := s.pool.Query(ctx,
		`SELECT user_id FROM group_members WHERE group_id = $1 ORDER BY seq`, groupID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get group members: %w", err)
	}
	members, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("failed to scan group members: %w", err)
	}
	group.Members = members

	return group, nil
}

// ListGroupsByMember retrieves all groups the user belongs to, newest first.
func (s *PostgresStore) ListGroupsByMember(ctx context.Context, userID string) ([]*models.Group, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT g.id FROM groups g
		JOIN group_members m ON m.group_id = g.id
		WHERE m.user_id = $1
		ORDER BY g.created_at DESC, m.seq DESC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list groups by member: %w", err)
	}
	ids, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("failed to scan group ids: %w", err)
	}

	groups := make([]*models.Group, 0, len(ids))
	for _, id := range ids {
		group, err := s.GetGroup(ctx, id)
		if err != nil {
			return nil, err
		}
		groups = append(groups, group)
	}
	return groups, nil
}

// AddGroupMembers appends members to an existing group.
func (s *PostgresStore) AddGroupMembers(ctx context.Context, groupID string, members []string) error {
	return pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		if err := touchGroup(ctx, tx, groupID); err != nil {
			return err
		}
		return insertMembers(ctx, tx, groupID, members)
	})
}

// RemoveGroupMember removes one member from a group.
func (s *PostgresStore) RemoveGroupMember(ctx context.Context, groupID, userID string) error {
	return pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		if err := touchGroup(ctx, tx, groupID); err != nil {
			return err
		}
		tag, err := tx.Exec(ctx,
			`DELETE FROM group_members WHERE group_id = $1 AND user_id = $2`,
			groupID, userID,
		)
		if err != nil {
			return fmt.Errorf("failed to remove group member: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return fmt.Errorf("member %s of group %s: %w", userID, groupID, storage.ErrNotFound)
		}
		return nil
	})
}

func touchGroup(ctx context.Context, tx pgx.Tx, groupID string) error {
	tag, err := tx.Exec(ctx,
		`UPDATE groups SET updated_at = $1 WHERE id = $2`,
		time.Now().Unix(), groupID,
	)
	if err != nil {
		return fmt.Errorf("failed to update group: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("group %s: %w", groupID, storage.ErrNotFound)
	}
	return nil
}
