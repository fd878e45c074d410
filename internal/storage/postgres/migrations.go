package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// migrations mirror the SQLite layout. seq columns keep insertion order for
// members, participants, splits and balance edges.
var migrations = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id TEXT PRIMARY KEY,
		email TEXT NOT NULL UNIQUE,
		display_name TEXT NOT NULL,
		password_hash TEXT NOT NULL,
		created_at BIGINT NOT NULL,
		updated_at BIGINT NOT NULL
	)`,

	`CREATE TABLE IF NOT EXISTS groups (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		created_by TEXT NOT NULL,
		balance_version BIGINT NOT NULL DEFAULT 0,
		created_at BIGINT NOT NULL,
		updated_at BIGINT NOT NULL
	)`,

	`CREATE TABLE IF NOT EXISTS group_members (
		seq BIGSERIAL,
		group_id TEXT NOT NULL REFERENCES groups(id) ON DELETE CASCADE,
		user_id TEXT NOT NULL,
		PRIMARY KEY (group_id, user_id)
	)`,

	`CREATE TABLE IF NOT EXISTS expenses (
		seq BIGSERIAL,
		id TEXT PRIMARY KEY,
		group_id TEXT NOT NULL REFERENCES groups(id) ON DELETE CASCADE,
		payer_id TEXT NOT NULL,
		amount_cents BIGINT NOT NULL CHECK (amount_cents > 0),
		description TEXT NOT NULL,
		category TEXT NOT NULL DEFAULT '',
		date BIGINT NOT NULL,
		is_settled BOOLEAN NOT NULL DEFAULT FALSE,
		created_at BIGINT NOT NULL
	)`,

	`CREATE TABLE IF NOT EXISTS expense_participants (
		seq BIGSERIAL,
		expense_id TEXT NOT NULL REFERENCES expenses(id) ON DELETE CASCADE,
		user_id TEXT NOT NULL,
		PRIMARY KEY (expense_id, user_id)
	)`,

	`CREATE TABLE IF NOT EXISTS expense_splits (
		seq BIGSERIAL,
		expense_id TEXT NOT NULL REFERENCES expenses(id) ON DELETE CASCADE,
		user_id TEXT NOT NULL,
		amount_cents BIGINT NOT NULL CHECK (amount_cents >= 0),
		PRIMARY KEY (expense_id, user_id)
	)`,

	`CREATE TABLE IF NOT EXISTS balances (
		seq BIGSERIAL,
		id TEXT PRIMARY KEY,
		group_id TEXT NOT NULL REFERENCES groups(id) ON DELETE CASCADE,
		user_id TEXT NOT NULL,
		owes_to TEXT NOT NULL,
		amount_cents BIGINT NOT NULL CHECK (amount_cents > 0),
		created_at BIGINT NOT NULL,
		updated_at BIGINT NOT NULL,
		UNIQUE (group_id, user_id, owes_to)
	)`,

	`CREATE TABLE IF NOT EXISTS settlements (
		seq BIGSERIAL,
		id TEXT PRIMARY KEY,
		group_id TEXT NOT NULL REFERENCES groups(id) ON DELETE CASCADE,
		payer_id TEXT NOT NULL,
		payee_id TEXT NOT NULL,
		amount_cents BIGINT NOT NULL CHECK (amount_cents > 0),
		note TEXT,
		settled_at BIGINT NOT NULL
	)`,

	`CREATE TABLE IF NOT EXISTS friendships (
		seq BIGSERIAL,
		user_id TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		friend_id TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		created_at BIGINT NOT NULL,
		PRIMARY KEY (user_id, friend_id),
		CHECK (user_id <> friend_id)
	)`,

	`CREATE TABLE IF NOT EXISTS friend_invitations (
		inviter_id TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		email TEXT NOT NULL,
		status TEXT NOT NULL DEFAULT 'pending',
		created_at BIGINT NOT NULL,
		accepted_at BIGINT NOT NULL DEFAULT 0,
		PRIMARY KEY (inviter_id, email)
	)`,

	`CREATE INDEX IF NOT EXISTS idx_friend_invitations_email ON friend_invitations(email, status)`,
	`CREATE INDEX IF NOT EXISTS idx_group_members_user_id ON group_members(user_id)`,
	`CREATE INDEX IF NOT EXISTS idx_expenses_group_id ON expenses(group_id)`,
	`CREATE INDEX IF NOT EXISTS idx_balances_group_id ON balances(group_id)`,
	`CREATE INDEX IF NOT EXISTS idx_settlements_group_id ON settlements(group_id)`,
}

func runMigrations(ctx context.Context, pool *pgxpool.Pool) error {
	for i, migration := range migrations {
		if _, err := pool.Exec(ctx, migration); err != nil {
			return fmt.Errorf("migration %d failed: %w", i+1, err)
		}
	}
	return nil
}
