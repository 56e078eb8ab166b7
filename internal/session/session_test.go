package session_test

import (
	"context"
	"errors"
	"testing"

	"github.com/pagesmith/pagesmith/internal/domain"
	"github.com/pagesmith/pagesmith/internal/session"
)

type fakeUserStore struct {
	setSessionID    func(ctx context.Context, userID, sessionID string) error
	findBySessionID func(ctx context.Context, sessionID string) (*domain.User, error)
}

func (s *fakeUserStore) SetSessionID(ctx context.Context, userID, sessionID string) error {
	return s.setSessionID(ctx, userID, sessionID)
}

func (s *fakeUserStore) FindBySessionID(ctx context.Context, sessionID string) (*domain.User, error) {
	return s.findBySessionID(ctx, sessionID)
}

const testSecret = "test-cookie-secret-at-least-32-chars!!"

func TestMintThenResolve_ReturnsCredentials(t *testing.T) {
	user := &domain.User{
		ID:        "user-1",
		FirstName: "Alice",
		LastName:  "Archer",
		Email:     "alice@example.com",
		Scope:     []string{domain.ScopeUser},
	}

	var stored string
	store := &fakeUserStore{
		setSessionID: func(_ context.Context, userID, sessionID string) error {
			if userID != user.ID {
				t.Errorf("session persisted for %q, want %q", userID, user.ID)
			}
			stored = sessionID
			return nil
		},
		findBySessionID: func(_ context.Context, sessionID string) (*domain.User, error) {
			if sessionID != stored {
				return nil, domain.ErrUserNotFound
			}
			user.SessionID = sessionID
			return user, nil
		},
	}
	m := session.NewManager(store, []byte(testSecret))

	cookie, err := m.Mint(context.Background(), user.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cookie == stored {
		t.Fatal("cookie value must be the signed form, not the raw session id")
	}

	creds, err := m.Resolve(context.Background(), cookie)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if creds.Email != user.Email || creds.FirstName != user.FirstName {
		t.Errorf("credentials = %+v, want the user's profile", creds)
	}
}

func TestResolve_TamperedCookie_InvalidWithoutLookup(t *testing.T) {
	store := &fakeUserStore{
		findBySessionID: func(_ context.Context, _ string) (*domain.User, error) {
			t.Fatal("a cookie with a bad signature must not reach the store")
			return nil, nil
		},
	}
	m := session.NewManager(store, []byte(testSecret))

	_, err := m.Resolve(context.Background(), "not-a-signed-cookie")
	if !errors.Is(err, session.ErrInvalidSession) {
		t.Errorf("want ErrInvalidSession, got %v", err)
	}
}

func TestResolve_OverwrittenSessionID_Invalid(t *testing.T) {
	// A fresh login stores a new session id, so cookies minted before it
	// stop resolving even though their signature is still valid.
	store := &fakeUserStore{
		setSessionID: func(_ context.Context, _, _ string) error { return nil },
		findBySessionID: func(_ context.Context, _ string) (*domain.User, error) {
			return nil, domain.ErrUserNotFound
		},
	}
	m := session.NewManager(store, []byte(testSecret))

	cookie, err := m.Mint(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	_, err = m.Resolve(context.Background(), cookie)
	if !errors.Is(err, session.ErrInvalidSession) {
		t.Errorf("want ErrInvalidSession, got %v", err)
	}
}

func TestResolve_StoreFailure_NotInvalidSession(t *testing.T) {
	storeErr := errors.New("db down")
	store := &fakeUserStore{
		setSessionID: func(_ context.Context, _, _ string) error { return nil },
		findBySessionID: func(_ context.Context, _ string) (*domain.User, error) {
			return nil, storeErr
		},
	}
	m := session.NewManager(store, []byte(testSecret))

	cookie, err := m.Mint(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	_, err = m.Resolve(context.Background(), cookie)
	if errors.Is(err, session.ErrInvalidSession) {
		t.Error("infrastructure failure must stay distinct from an invalid session")
	}
	if !errors.Is(err, storeErr) {
		t.Errorf("want wrapped store error, got %v", err)
	}
}

func TestRevoke_ClearsStoredSessionID(t *testing.T) {
	var cleared bool
	var stored string
	store := &fakeUserStore{
		setSessionID: func(_ context.Context, userID, sessionID string) error {
			if sessionID == "" {
				if userID != "user-1" {
					t.Errorf("cleared session for %q, want user-1", userID)
				}
				cleared = true
				return nil
			}
			stored = sessionID
			return nil
		},
		findBySessionID: func(_ context.Context, sessionID string) (*domain.User, error) {
			if sessionID == stored {
				return &domain.User{ID: "user-1", SessionID: stored}, nil
			}
			return nil, domain.ErrUserNotFound
		},
	}
	m := session.NewManager(store, []byte(testSecret))

	cookie, err := m.Mint(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if err := m.Revoke(context.Background(), cookie); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !cleared {
		t.Error("stored session id was not cleared")
	}
}

func TestRevoke_UnresolvableCookie_NoOp(t *testing.T) {
	store := &fakeUserStore{
		setSessionID: func(_ context.Context, _, _ string) error {
			t.Fatal("nothing may be written for a bad cookie")
			return nil
		},
	}
	m := session.NewManager(store, []byte(testSecret))

	if err := m.Revoke(context.Background(), "not-a-signed-cookie"); err != nil {
		t.Errorf("revoking a garbage cookie must be a no-op, got %v", err)
	}
}

func TestMint_RotatesSessionID(t *testing.T) {
	var ids []string
	store := &fakeUserStore{
		setSessionID: func(_ context.Context, _, sessionID string) error {
			ids = append(ids, sessionID)
			return nil
		},
	}
	m := session.NewManager(store, []byte(testSecret))

	if _, err := m.Mint(context.Background(), "user-1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := m.Mint(context.Background(), "user-1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(ids) != 2 || ids[0] == ids[1] {
		t.Errorf("session ids %v, want two distinct values", ids)
	}
}
