package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Statements are idempotent so Migrate can run on every startup.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id               TEXT PRIMARY KEY,
		session_id       TEXT,
		first_name       TEXT NOT NULL,
		last_name        TEXT NOT NULL,
		email            TEXT NOT NULL UNIQUE,
		password_hash    TEXT NOT NULL,
		is_verified      BOOLEAN NOT NULL DEFAULT FALSE,
		scope            TEXT[] NOT NULL DEFAULT ARRAY['user'],
		reset_token_hash TEXT,
		reset_expires    TIMESTAMPTZ,
		created_at       TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at       TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS users_session_id_idx ON users (session_id)`,
	`CREATE INDEX IF NOT EXISTS users_reset_token_hash_idx ON users (reset_token_hash)`,

	// user_id as primary key enforces at most one live token per user.
	`CREATE TABLE IF NOT EXISTS verification_tokens (
		user_id    TEXT PRIMARY KEY REFERENCES users (id) ON DELETE CASCADE,
		token_hash TEXT NOT NULL UNIQUE,
		expires_at TIMESTAMPTZ NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
}

// Migrate creates the schema if it does not exist yet.
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	for _, stmt := range schema {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("apply schema: %w", err)
		}
	}
	return nil
}
