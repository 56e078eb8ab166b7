package repository

import (
	"context"
	"time"
)

// VerificationTokenRepository stores email-verification tokens, at most one
// live token per user. Only token hashes are persisted.
type VerificationTokenRepository interface {
	// Replace installs a new token for the user, discarding any prior one.
	Replace(ctx context.Context, userID, tokenHash string, expiresAt time.Time) error

	// Claim redeems the user's token by hash. A valid token is deleted in
	// the same statement. The owner is part of the match: a hash belonging
	// to a different user claims nothing, so a forged pairing cannot burn
	// someone else's token. Returns domain.ErrTokenExpired for the user's
	// token past its expiry (left in place for the janitor) and
	// domain.ErrTokenNotFound otherwise.
	Claim(ctx context.Context, userID, tokenHash string) error

	DeleteForUser(ctx context.Context, userID string) error

	// DeleteExpired purges expired tokens and reports how many were removed.
	DeleteExpired(ctx context.Context) (int64, error)
}
