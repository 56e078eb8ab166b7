package handler

import (
	"context"
	"log/slog"

	"github.com/gin-gonic/gin"
	"github.com/pagesmith/pagesmith/internal/domain"
	"github.com/pagesmith/pagesmith/internal/transport/http/respond"
)

type usersUsecaser interface {
	List(ctx context.Context) ([]*domain.User, error)
	UpdateScope(ctx context.Context, userID string, scope []string) ([]string, error)
	Delete(ctx context.Context, userID string) error
}

// UsersHandler serves the admin-only user-management routes. The router
// guards the whole group with admin scope, so no per-route check here.
type UsersHandler struct {
	users  usersUsecaser
	logger *slog.Logger
}

func NewUsersHandler(users usersUsecaser, logger *slog.Logger) *UsersHandler {
	return &UsersHandler{
		users:  users,
		logger: logger.With("component", "users_handler"),
	}
}

type userView struct {
	UserID     string   `json:"userId"`
	FirstName  string   `json:"firstName"`
	LastName   string   `json:"lastName"`
	Email      string   `json:"email"`
	IsVerified bool     `json:"isVerified"`
	Scope      []string `json:"scope"`
}

type updateScopeRequest struct {
	UserID            string   `json:"userId" binding:"required"`
	UpdatedScopeArray []string `json:"updatedScopeArray" binding:"required"`
}

// GET /users/get-all-users
func (h *UsersHandler) GetAll(c *gin.Context) {
	users, err := h.users.List(c.Request.Context())
	if err != nil {
		respond.Error(c, h.logger, "list users", err)
		return
	}

	list := make([]userView, 0, len(users))
	for _, u := range users {
		list = append(list, userView{
			UserID:     u.ID,
			FirstName:  u.FirstName,
			LastName:   u.LastName,
			Email:      u.Email,
			IsVerified: u.IsVerified,
			Scope:      u.Scope,
		})
	}
	respond.OK(c, "", "", gin.H{"usersList": list})
}

// PUT /users/update-user-scope
func (h *UsersHandler) UpdateScope(c *gin.Context) {
	var req updateScopeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Validation(c, err)
		return
	}

	scope, err := h.users.UpdateScope(c.Request.Context(), req.UserID, req.UpdatedScopeArray)
	if err != nil {
		respond.Error(c, h.logger, "update user scope", err)
		return
	}
	respond.OK(c, "User scope updated successfully!", "", gin.H{"userScope": scope})
}

// DELETE /users/delete-user/:id
func (h *UsersHandler) Delete(c *gin.Context) {
	if err := h.users.Delete(c.Request.Context(), c.Param("id")); err != nil {
		respond.Error(c, h.logger, "delete user", err)
		return
	}
	respond.OK(c, "User deleted successfully!", "", nil)
}
