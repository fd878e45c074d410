package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/mmynk/settleup/internal/models"
	"github.com/mmynk/settleup/internal/storage"
)

// insertFriendship writes both directions of a friendship. It reports
// whether the pair was new.
func insertFriendship(ctx context.Context, tx *sql.Tx, userID, friendID string, now int64) (bool, error) {
	added := false
	for _, pair := range [][2]string{{userID, friendID}, {friendID, userID}} {
		result, err := tx.ExecContext(ctx, `
			INSERT OR IGNORE INTO friendships (user_id, friend_id, created_at)
			VALUES (?, ?, ?)
		`, pair[0], pair[1], now)
		if err != nil {
			return false, fmt.Errorf("failed to insert friendship: %w", err)
		}
		if n, _ := result.RowsAffected(); n > 0 {
			added = true
		}
	}
	return added, nil
}

// AddFriendship links two users in both directions.
func (s *SQLiteStore) AddFriendship(ctx context.Context, userID, friendID string) (bool, error) {
	var added bool
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		var err error
		added, err = insertFriendship(ctx, tx, userID, friendID, time.Now().Unix())
		return err
	})
	return added, err
}

// RemoveFriendship deletes both directions of a friendship.
func (s *SQLiteStore) RemoveFriendship(ctx context.Context, userID, friendID string) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		result, err := tx.ExecContext(ctx, `
			DELETE FROM friendships
			WHERE (user_id = ? AND friend_id = ?) OR (user_id = ? AND friend_id = ?)
		`, userID, friendID, friendID, userID)
		if err != nil {
			return fmt.Errorf("failed to remove friendship: %w", err)
		}
		n, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to get rows affected: %w", err)
		}
		if n == 0 {
			return fmt.Errorf("friendship %s -> %s: %w", userID, friendID, storage.ErrNotFound)
		}
		return nil
	})
}

// ListFriends returns the user's friends in the order they were added.
func (s *SQLiteStore) ListFriends(ctx context.Context, userID string) ([]*models.User, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT u.id, u.email, u.display_name, u.password_hash, u.created_at, u.updated_at
		FROM friendships f
		JOIN users u ON u.id = f.friend_id
		WHERE f.user_id = ?
		ORDER BY f.rowid
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list friends: %w", err)
	}
	defer rows.Close()

	var friends []*models.User
	for rows.Next() {
		u := &models.User{}
		if err := rows.Scan(&u.ID, &u.Email, &u.DisplayName, &u.PasswordHash, &u.CreatedAt, &u.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan friend: %w", err)
		}
		friends = append(friends, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating friends: %w", err)
	}
	return friends, nil
}

// InviteFriend upserts a pending invitation, resetting an accepted one.
func (s *SQLiteStore) InviteFriend(ctx context.Context, inviterID, email string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO friend_invitations (inviter_id, email, status, created_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (inviter_id, email)
		DO UPDATE SET status = excluded.status, created_at = excluded.created_at, accepted_at = 0
	`, inviterID, email, models.InvitationPending, time.Now().Unix())
	if err != nil {
		return fmt.Errorf("failed to invite friend: %w", err)
	}
	return nil
}

// ListInvitations returns the invitations sent by inviterID, newest first.
func (s *SQLiteStore) ListInvitations(ctx context.Context, inviterID string) ([]*models.FriendInvitation, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT inviter_id, email, status, created_at, accepted_at
		FROM friend_invitations
		WHERE inviter_id = ?
		ORDER BY created_at DESC, email
	`, inviterID)
	if err != nil {
		return nil, fmt.Errorf("failed to list invitations: %w", err)
	}
	defer rows.Close()

	var invitations []*models.FriendInvitation
	for rows.Next() {
		inv := &models.FriendInvitation{}
		if err := rows.Scan(&inv.InviterID, &inv.Email, &inv.Status, &inv.CreatedAt, &inv.AcceptedAt); err != nil {
			return nil, fmt.Errorf("failed to scan invitation: %w", err)
		}
		invitations = append(invitations, inv)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating invitations: %w", err)
	}
	return invitations, nil
}
