package postgres

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/mmynk/settleup/internal/models"
	"github.com/mmynk/settleup/internal/storage"
)

const userColumns = `id, email, display_name, password_hash, created_at, updated_at`

// CreateUser inserts a new user and accepts pending friend invitations sent
// to the user's email.
func (s *PostgresStore) CreateUser(ctx context.Context, user *models.User) error {
	return pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, `
			INSERT INTO users (`+userColumns+`)
			VALUES ($1, $2, $3, $4, $5, $6)
		`, user.ID, user.Email, user.DisplayName, user.PasswordHash, user.CreatedAt, user.UpdatedAt)
		if err != nil {
			return fmt.Errorf("failed to create user: %w", err)
		}
		return acceptInvitations(ctx, tx, user)
	})
}

// acceptInvitations befriends every inviter with a pending invitation for
// the user's email and marks those invitations accepted.
func acceptInvitations(ctx context.Context, tx pgx.Tx, user *models.User) error {
	rows, err := tx.Query(ctx, `
		UPDATE friend_invitations SET status = $1, accepted_at = $2
		WHERE email = $3 AND status = $4
		RETURNING inviter_id, created_at
	`, models.InvitationAccepted, time.Now().Unix(), user.Email, models.InvitationPending)
	if err != nil {
		return fmt.Errorf("failed to accept invitations: %w", err)
	}
	type invite struct {
		inviter string
		created int64
	}
	invites, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (invite, error) {
		var inv invite
		err := row.Scan(&inv.inviter, &inv.created)
		return inv, err
	})
	if err != nil {
		return fmt.Errorf("failed to scan invitations: %w", err)
	}
	sort.Slice(invites, func(i, j int) bool {
		if invites[i].created != invites[j].created {
			return invites[i].created < invites[j].created
		}
		return invites[i].inviter < invites[j].inviter
	})

	now := time.Now().Unix()
	for _, inv := range invites {
		if _, err := insertFriendship(ctx, tx, inv.inviter, user.ID, now); err != nil {
			return err
		}
	}
	return nil
}

// UpdateUser overwrites the mutable fields of an existing user.
func (s *PostgresStore) UpdateUser(ctx context.Context, user *models.User) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE users SET email = $1, display_name = $2, password_hash = $3, updated_at = $4
		WHERE id = $5
	`, user.Email, user.DisplayName, user.PasswordHash, user.UpdatedAt, user.ID)
	if err != nil {
		return fmt.Errorf("failed to update user: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("user %s: %w", user.ID, storage.ErrNotFound)
	}
	return nil
}

// GetUserByEmail retrieves a user by email, returning nil when absent.
func (s *PostgresStore) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.getUser(ctx, "email", email)
}

// GetUserByID retrieves a user by ID, returning nil when absent.
func (s *PostgresStore) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	return s.getUser(ctx, "id", id)
}

func (s *PostgresStore) getUser(ctx context.Context, column, value string) (*models.User, error) {
	var u models.User
	err := s.pool.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE `+column+` = $1`, value,
	).Scan(&u.ID, &u.Email, &u.DisplayName, &u.PasswordHash, &u.CreatedAt, &u.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user by %s: %w", column, err)
	}
	return &u, nil
}

// GetUsersByIDs retrieves the existing users among ids.
func (s *PostgresStore) GetUsersByIDs(ctx context.Context, ids []string) (map[string]*models.User, error) {
	users := make(map[string]*models.User)
	if len(ids) == 0 {
		return users, nil
	}

	rows, err := s.pool.Query(ctx, `SELECT `+userColumns+` FROM users WHERE id = ANY($1)`, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to get users by IDs: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		u := &models.User{}
		if err := rows.Scan(&u.ID, &u.Email, &u.DisplayName, &u.PasswordHash, &u.CreatedAt, &u.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users[u.ID] = u
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating users: %w", err)
	}
	return users, nil
}
