package middleware_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/pagesmith/pagesmith/internal/domain"
	"github.com/pagesmith/pagesmith/internal/session"
	"github.com/pagesmith/pagesmith/internal/transport/http/middleware"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fakeResolver struct {
	resolve func(ctx context.Context, cookieValue string) (*domain.Credentials, error)
}

func (r *fakeResolver) Resolve(ctx context.Context, cookieValue string) (*domain.Credentials, error) {
	return r.resolve(ctx, cookieValue)
}

func adminCreds() *domain.Credentials {
	return &domain.Credentials{
		FirstName: "Alice",
		LastName:  "Archer",
		Email:     "alice@example.com",
		Scope:     []string{domain.ScopeUser, domain.ScopeAdmin},
	}
}

func userCreds() *domain.Credentials {
	c := adminCreds()
	c.Scope = []string{domain.ScopeUser}
	return c
}

// newEngine protects GET /admin with admin scope and serves GET /try in try
// mode. Both handlers echo the resolved email so tests can assert on it.
func newEngine(resolver *fakeResolver) *gin.Engine {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	echo := func(c *gin.Context) {
		if creds := middleware.CredentialsFrom(c); creds != nil {
			c.String(http.StatusOK, creds.Email)
			return
		}
		c.String(http.StatusOK, "anonymous")
	}

	r := gin.New()
	r.GET("/admin", middleware.RequireScope(resolver, logger, domain.ScopeAdmin), echo)
	r.GET("/try", middleware.TryAuth(resolver, logger), echo)
	return r
}

func get(t *testing.T, r *gin.Engine, path, cookie string) *httptest.ResponseRecorder {
	t.Helper()
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if cookie != "" {
		req.AddCookie(&http.Cookie{Name: session.CookieName, Value: cookie})
	}
	r.ServeHTTP(w, req)
	return w
}

func envelope(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("response is not JSON: %v", err)
	}
	return body
}

func TestRequireScope_MissingCookie_Returns401(t *testing.T) {
	resolver := &fakeResolver{
		resolve: func(_ context.Context, _ string) (*domain.Credentials, error) {
			t.Fatal("resolver must not run without a cookie")
			return nil, nil
		},
	}

	w := get(t, newEngine(resolver), "/admin", "")

	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", w.Code)
	}
}

func TestRequireScope_InvalidSession_Returns401(t *testing.T) {
	resolver := &fakeResolver{
		resolve: func(_ context.Context, _ string) (*domain.Credentials, error) {
			return nil, session.ErrInvalidSession
		},
	}

	w := get(t, newEngine(resolver), "/admin", "stale-cookie")

	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", w.Code)
	}

	body := envelope(t, w)
	if body["error"] != true {
		t.Error("envelope should mark the outcome as an error")
	}
}

func TestRequireScope_InsufficientScope_Returns403NotData(t *testing.T) {
	resolver := &fakeResolver{
		resolve: func(_ context.Context, _ string) (*domain.Credentials, error) {
			return userCreds(), nil
		},
	}

	w := get(t, newEngine(resolver), "/admin", "valid-cookie")

	if w.Code != http.StatusForbidden {
		t.Errorf("status = %d, want 403 for an authenticated non-admin", w.Code)
	}
	if w.Body.String() == "alice@example.com" {
		t.Error("handler ran despite insufficient scope")
	}
}

func TestRequireScope_AdminScope_RunsHandlerWithCredentials(t *testing.T) {
	resolver := &fakeResolver{
		resolve: func(_ context.Context, _ string) (*domain.Credentials, error) {
			return adminCreds(), nil
		},
	}

	w := get(t, newEngine(resolver), "/admin", "valid-cookie")

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if w.Body.String() != "alice@example.com" {
		t.Errorf("body = %q, want the resolved email", w.Body.String())
	}
}

func TestRequireScope_StoreFailure_Returns500(t *testing.T) {
	resolver := &fakeResolver{
		resolve: func(_ context.Context, _ string) (*domain.Credentials, error) {
			return nil, errors.New("db down")
		},
	}

	w := get(t, newEngine(resolver), "/admin", "valid-cookie")

	if w.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500 for an infrastructure failure", w.Code)
	}
}

func TestTryAuth_NoCookie_RunsAnonymously(t *testing.T) {
	resolver := &fakeResolver{
		resolve: func(_ context.Context, _ string) (*domain.Credentials, error) {
			t.Fatal("resolver must not run without a cookie")
			return nil, nil
		},
	}

	w := get(t, newEngine(resolver), "/try", "")

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if w.Body.String() != "anonymous" {
		t.Errorf("body = %q, want anonymous", w.Body.String())
	}
}

func TestTryAuth_InvalidSession_RunsAnonymously(t *testing.T) {
	resolver := &fakeResolver{
		resolve: func(_ context.Context, _ string) (*domain.Credentials, error) {
			return nil, session.ErrInvalidSession
		},
	}

	w := get(t, newEngine(resolver), "/try", "stale-cookie")

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if w.Body.String() != "anonymous" {
		t.Errorf("body = %q, want anonymous", w.Body.String())
	}
}

func TestTryAuth_ValidSession_SetsCredentials(t *testing.T) {
	resolver := &fakeResolver{
		resolve: func(_ context.Context, _ string) (*domain.Credentials, error) {
			return userCreds(), nil
		},
	}

	w := get(t, newEngine(resolver), "/try", "valid-cookie")

	if w.Body.String() != "alice@example.com" {
		t.Errorf("body = %q, want the resolved email", w.Body.String())
	}
}
