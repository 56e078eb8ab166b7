package repository

import (
	"context"
	"time"

	"github.com/pagesmith/pagesmith/internal/domain"
)

// UserRepository is the credential store. All lookups are keyed by unique
// identifiers. Implementations must enforce email uniqueness atomically:
// Create returns domain.ErrEmailTaken on conflict rather than relying on a
// prior read.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	FindByID(ctx context.Context, id string) (*domain.User, error)
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
	FindBySessionID(ctx context.Context, sessionID string) (*domain.User, error)

	// FindByResetToken matches the stored reset-token hash and returns the
	// user only while the token is unexpired.
	FindByResetToken(ctx context.Context, tokenHash string) (*domain.User, error)

	SetSessionID(ctx context.Context, userID, sessionID string) error
	MarkVerified(ctx context.Context, userID string) error

	SetResetToken(ctx context.Context, userID, tokenHash string, expires time.Time) error

	// ResetPassword atomically replaces the password hash and clears the
	// reset token, claiming the token in the same statement. The email must
	// match the token's owner; a mismatch claims nothing and mutates
	// nothing. Returns domain.ErrTokenNotFound if the token is absent,
	// expired, or bound to a different address.
	ResetPassword(ctx context.Context, email, tokenHash, newPasswordHash string) (*domain.User, error)

	// ClearExpiredResetTokens removes reset tokens past their expiry and
	// reports how many were cleared.
	ClearExpiredResetTokens(ctx context.Context) (int64, error)

	UpdateScope(ctx context.Context, userID string, scope []string) ([]string, error)
	List(ctx context.Context) ([]*domain.User, error)
	Delete(ctx context.Context, userID string) error
}
