package handler_test

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/pagesmith/pagesmith/internal/domain"
	"github.com/pagesmith/pagesmith/internal/transport/http/handler"
)

type fakeUsersUsecase struct {
	list        func(ctx context.Context) ([]*domain.User, error)
	updateScope func(ctx context.Context, userID string, scope []string) ([]string, error)
	delete      func(ctx context.Context, userID string) error
}

func (f *fakeUsersUsecase) List(ctx context.Context) ([]*domain.User, error) {
	return f.list(ctx)
}

func (f *fakeUsersUsecase) UpdateScope(ctx context.Context, userID string, scope []string) ([]string, error) {
	return f.updateScope(ctx, userID, scope)
}

func (f *fakeUsersUsecase) Delete(ctx context.Context, userID string) error {
	return f.delete(ctx, userID)
}

func newUsersEngine(uc *fakeUsersUsecase) *gin.Engine {
	h := handler.NewUsersHandler(uc, slog.New(slog.NewTextHandler(io.Discard, nil)))

	r := gin.New()
	r.GET("/users/get-all-users", h.GetAll)
	r.PUT("/users/update-user-scope", h.UpdateScope)
	r.DELETE("/users/delete-user/:id", h.Delete)
	return r
}

func TestGetAll_ShapesUsersListWithoutSecrets(t *testing.T) {
	uc := &fakeUsersUsecase{
		list: func(_ context.Context) ([]*domain.User, error) {
			return []*domain.User{{
				ID:           "user-1",
				FirstName:    "Alice",
				LastName:     "Archer",
				Email:        "alice@example.com",
				PasswordHash: "$2a$12$secret",
				IsVerified:   true,
				Scope:        []string{domain.ScopeUser},
			}}, nil
		},
	}

	w := doJSON(t, newUsersEngine(uc), http.MethodGet, "/users/get-all-users", "")

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}

	body := envelope(t, w)
	list, ok := body["usersList"].([]any)
	if !ok || len(list) != 1 {
		t.Fatalf("usersList = %v, want one entry", body["usersList"])
	}

	entry := list[0].(map[string]any)
	if entry["userId"] != "user-1" || entry["email"] != "alice@example.com" {
		t.Errorf("entry = %v, want id and email", entry)
	}
	if _, leaked := entry["passwordHash"]; leaked {
		t.Error("usersList leaks password hashes")
	}
}

func TestUpdateScope_ReturnsUpdatedScopeAndFlash(t *testing.T) {
	uc := &fakeUsersUsecase{
		updateScope: func(_ context.Context, userID string, scope []string) ([]string, error) {
			if userID != "user-1" {
				t.Errorf("userID = %q, want user-1", userID)
			}
			return []string{"user", "admin"}, nil
		},
	}

	w := doJSON(t, newUsersEngine(uc), http.MethodPut, "/users/update-user-scope",
		`{"userId":"user-1","updatedScopeArray":["admin"]}`)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}

	body := envelope(t, w)
	if body["flash"] != "User scope updated successfully!" {
		t.Errorf("flash = %v", body["flash"])
	}
	scope, ok := body["userScope"].([]any)
	if !ok || len(scope) != 2 {
		t.Errorf("userScope = %v, want the stored set", body["userScope"])
	}
}

func TestUpdateScope_MissingUserID_Returns400(t *testing.T) {
	uc := &fakeUsersUsecase{}

	w := doJSON(t, newUsersEngine(uc), http.MethodPut, "/users/update-user-scope",
		`{"updatedScopeArray":["admin"]}`)

	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

func TestDelete_Success(t *testing.T) {
	var deleted string
	uc := &fakeUsersUsecase{
		delete: func(_ context.Context, userID string) error {
			deleted = userID
			return nil
		},
	}

	w := doJSON(t, newUsersEngine(uc), http.MethodDelete, "/users/delete-user/user-1", "")

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if deleted != "user-1" {
		t.Errorf("deleted %q, want user-1", deleted)
	}
}
