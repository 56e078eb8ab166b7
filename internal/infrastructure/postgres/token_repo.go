package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pagesmith/pagesmith/internal/domain"
)

type VerificationTokenRepository struct {
	pool *pgxpool.Pool
}

func NewVerificationTokenRepository(pool *pgxpool.Pool) *VerificationTokenRepository {
	return &VerificationTokenRepository{pool: pool}
}

// Replace upserts on user_id, so issuing a fresh token revokes the prior one
// in the same statement.
func (r *VerificationTokenRepository) Replace(ctx context.Context, userID, tokenHash string, expiresAt time.Time) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO verification_tokens (user_id, token_hash, expires_at, created_at)
		VALUES ($1, $2, $3, NOW())
		ON CONFLICT (user_id) DO UPDATE
		SET token_hash = EXCLUDED.token_hash,
		    expires_at = EXCLUDED.expires_at,
		    created_at = NOW()`,
		userID, tokenHash, expiresAt,
	)
	if err != nil {
		return fmt.Errorf("replace verification token: %w", err)
	}
	return nil
}

// Claim deletes the user's live token. The DELETE matches owner, hash, and
// expiry in one statement, making redemption single-use without a separate
// read-then-delete window; a hash held by a different user matches nothing,
// so a forged pairing cannot consume that user's token. An expired row is
// left for the janitor and reported as ErrTokenExpired so callers can offer
// a resend.
func (r *VerificationTokenRepository) Claim(ctx context.Context, userID, tokenHash string) error {
	tag, err := r.pool.Exec(ctx, `
		DELETE FROM verification_tokens
		WHERE user_id = $1 AND token_hash = $2 AND expires_at > NOW()`,
		userID, tokenHash,
	)
	if err != nil {
		return fmt.Errorf("claim verification token: %w", err)
	}
	if tag.RowsAffected() > 0 {
		return nil
	}

	// Nothing claimed: distinguish the user's expired token from absent.
	var exists bool
	err = r.pool.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM verification_tokens
			WHERE user_id = $1 AND token_hash = $2)`,
		userID, tokenHash,
	).Scan(&exists)
	if err != nil {
		return fmt.Errorf("check verification token: %w", err)
	}
	if exists {
		return domain.ErrTokenExpired
	}
	return domain.ErrTokenNotFound
}

func (r *VerificationTokenRepository) DeleteForUser(ctx context.Context, userID string) error {
	_, err := r.pool.Exec(ctx,
		`DELETE FROM verification_tokens WHERE user_id = $1`, userID)
	if err != nil {
		return fmt.Errorf("delete verification token: %w", err)
	}
	return nil
}

func (r *VerificationTokenRepository) DeleteExpired(ctx context.Context) (int64, error) {
	tag, err := r.pool.Exec(ctx,
		`DELETE FROM verification_tokens WHERE expires_at <= NOW()`)
	if err != nil {
		return 0, fmt.Errorf("delete expired verification tokens: %w", err)
	}
	return tag.RowsAffected(), nil
}
