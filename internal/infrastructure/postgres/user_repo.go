package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pagesmith/pagesmith/internal/domain"
)

const userColumns = `id, COALESCE(session_id, ''), first_name, last_name, email,
	password_hash, is_verified, scope, reset_token_hash, reset_expires,
	created_at, updated_at`

type UserRepository struct {
	pool *pgxpool.Pool
}

func NewUserRepository(pool *pgxpool.Pool) *UserRepository {
	return &UserRepository{pool: pool}
}

// Create inserts the user, relying on the unique index on email for
// atomicity: two concurrent registrations for the same address cannot both
// succeed, and no read-then-write window exists.
func (r *UserRepository) Create(ctx context.Context, user *domain.User) error {
	tag, err := r.pool.Exec(ctx, `
		INSERT INTO users (id, first_name, last_name, email, password_hash, is_verified, scope)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (email) DO NOTHING`,
		user.ID, user.FirstName, user.LastName, user.Email,
		user.PasswordHash, user.IsVerified, user.Scope,
	)
	if err != nil {
		return fmt.Errorf("insert user: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrEmailTaken
	}
	return nil
}

func (r *UserRepository) FindByID(ctx context.Context, id string) (*domain.User, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = $1`, id)
	return scanUser(row)
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE email = $1`, email)
	return scanUser(row)
}

func (r *UserRepository) FindBySessionID(ctx context.Context, sessionID string) (*domain.User, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE session_id = $1`, sessionID)
	return scanUser(row)
}

// FindByResetToken matches an unexpired reset token. Expired tokens behave
// exactly like absent ones here.
func (r *UserRepository) FindByResetToken(ctx context.Context, tokenHash string) (*domain.User, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users
		 WHERE reset_token_hash = $1 AND reset_expires > NOW()`, tokenHash)
	return scanUser(row)
}

// SetSessionID stores the id, or NULL for an empty string so logged-out
// users never share a matchable session value.
func (r *UserRepository) SetSessionID(ctx context.Context, userID, sessionID string) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE users SET session_id = NULLIF($2, ''), updated_at = NOW() WHERE id = $1`,
		userID, sessionID,
	)
	if err != nil {
		return fmt.Errorf("set session id: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}

func (r *UserRepository) MarkVerified(ctx context.Context, userID string) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE users SET is_verified = TRUE, updated_at = NOW() WHERE id = $1`,
		userID,
	)
	if err != nil {
		return fmt.Errorf("mark verified: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}

func (r *UserRepository) SetResetToken(ctx context.Context, userID, tokenHash string, expires time.Time) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE users SET reset_token_hash = $2, reset_expires = $3, updated_at = NOW()
		WHERE id = $1`,
		userID, tokenHash, expires,
	)
	if err != nil {
		return fmt.Errorf("set reset token: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}

// ResetPassword claims the reset token and installs the new hash in a single
// statement, so the token cannot be redeemed twice. The email is part of the
// claim: a token paired with a different address matches nothing, leaving
// both the token and the password untouched.
func (r *UserRepository) ResetPassword(ctx context.Context, email, tokenHash, newPasswordHash string) (*domain.User, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE users
		SET password_hash = $3, reset_token_hash = NULL, reset_expires = NULL, updated_at = NOW()
		WHERE email = $1 AND reset_token_hash = $2 AND reset_expires > NOW()
		RETURNING `+userColumns,
		email, tokenHash, newPasswordHash,
	)
	u, err := scanUser(row)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, domain.ErrTokenNotFound
		}
		return nil, err
	}
	return u, nil
}

func (r *UserRepository) ClearExpiredResetTokens(ctx context.Context) (int64, error) {
	tag, err := r.pool.Exec(ctx, `
		UPDATE users SET reset_token_hash = NULL, reset_expires = NULL
		WHERE reset_expires IS NOT NULL AND reset_expires <= NOW()`)
	if err != nil {
		return 0, fmt.Errorf("clear expired reset tokens: %w", err)
	}
	return tag.RowsAffected(), nil
}

func (r *UserRepository) UpdateScope(ctx context.Context, userID string, scope []string) ([]string, error) {
	var updated []string
	err := r.pool.QueryRow(ctx, `
		UPDATE users SET scope = $2, updated_at = NOW() WHERE id = $1
		RETURNING scope`,
		userID, scope,
	).Scan(&updated)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("update scope: %w", err)
	}
	return updated, nil
}

func (r *UserRepository) List(ctx context.Context) ([]*domain.User, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+userColumns+` FROM users ORDER BY created_at`)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	var users []*domain.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return users, nil
}

func (r *UserRepository) Delete(ctx context.Context, userID string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM users WHERE id = $1`, userID)
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}

func scanUser(row pgx.Row) (*domain.User, error) {
	var u domain.User
	err := row.Scan(
		&u.ID, &u.SessionID, &u.FirstName, &u.LastName, &u.Email,
		&u.PasswordHash, &u.IsVerified, &u.Scope, &u.ResetTokenHash, &u.ResetExpires,
		&u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("scan user: %w", err)
	}
	return &u, nil
}
