package session

import (
	"context"
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/pagesmith/pagesmith/internal/domain"
)

// CookieName is the session cookie set on login.
const CookieName = "sid"

var ErrInvalidSession = errors.New("invalid session")

// Manager mints and resolves session ids. A user has a single stored session
// id, overwritten on every login, and cookie validity is a live lookup
// against that value: logging in anywhere invalidates all prior cookies for
// that user, with no independent expiry clock.
//
// The cookie value is the session id wrapped in an HS256-signed token, so a
// tampered cookie is rejected before the store is consulted.
// userStore is the slice of the user repository the manager needs.
type userStore interface {
	SetSessionID(ctx context.Context, userID, sessionID string) error
	FindBySessionID(ctx context.Context, sessionID string) (*domain.User, error)
}

type Manager struct {
	users  userStore
	secret []byte
}

func NewManager(users userStore, secret []byte) *Manager {
	return &Manager{users: users, secret: secret}
}

// Mint generates a fresh session id, persists it on the user record, and
// returns the signed cookie value for the transport layer to set.
func (m *Manager) Mint(ctx context.Context, userID string) (string, error) {
	sessionID := uuid.NewString()

	if err := m.users.SetSessionID(ctx, userID, sessionID); err != nil {
		return "", fmt.Errorf("persist session id: %w", err)
	}

	return m.sign(sessionID)
}

// Resolve verifies the cookie signature and looks the session id up in the
// store. Returns ErrInvalidSession for a bad signature or an id no user
// currently holds; any other error is an infrastructure failure.
func (m *Manager) Resolve(ctx context.Context, cookieValue string) (*domain.Credentials, error) {
	sessionID, err := m.verify(cookieValue)
	if err != nil {
		return nil, ErrInvalidSession
	}

	user, err := m.users.FindBySessionID(ctx, sessionID)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, ErrInvalidSession
		}
		return nil, fmt.Errorf("resolve session: %w", err)
	}

	return &domain.Credentials{
		FirstName: user.FirstName,
		LastName:  user.LastName,
		Email:     user.Email,
		Scope:     user.Scope,
	}, nil
}

// Revoke clears the stored session id for the cookie's user, so the old
// cookie stops resolving immediately. A cookie that no longer resolves is a
// no-op; logout stays idempotent.
func (m *Manager) Revoke(ctx context.Context, cookieValue string) error {
	sessionID, err := m.verify(cookieValue)
	if err != nil {
		return nil
	}

	user, err := m.users.FindBySessionID(ctx, sessionID)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil
		}
		return fmt.Errorf("revoke session: %w", err)
	}

	if err := m.users.SetSessionID(ctx, user.ID, ""); err != nil {
		return fmt.Errorf("clear session id: %w", err)
	}
	return nil
}

func (m *Manager) sign(sessionID string) (string, error) {
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"sid": sessionID})
	signed, err := t.SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("sign session cookie: %w", err)
	}
	return signed, nil
}

func (m *Manager) verify(cookieValue string) (string, error) {
	t, err := jwt.Parse(cookieValue, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return m.secret, nil
	})
	if err != nil || !t.Valid {
		return "", ErrInvalidSession
	}

	claims, ok := t.Claims.(jwt.MapClaims)
	if !ok {
		return "", ErrInvalidSession
	}
	sessionID, ok := claims["sid"].(string)
	if !ok || sessionID == "" {
		return "", ErrInvalidSession
	}
	return sessionID, nil
}
