package usecase

import (
	"context"
	"errors"
	"fmt"

	"github.com/pagesmith/pagesmith/internal/domain"
	"github.com/pagesmith/pagesmith/internal/repository"
)

// UsersUsecase backs the admin user-management routes. Authorization is the
// transport layer's job; by the time these run the caller holds admin scope.
type UsersUsecase struct {
	users repository.UserRepository
}

func NewUsersUsecase(users repository.UserRepository) *UsersUsecase {
	return &UsersUsecase{users: users}
}

func (u *UsersUsecase) List(ctx context.Context) ([]*domain.User, error) {
	users, err := u.users.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return users, nil
}

// UpdateScope overwrites the target's scope set and returns the stored
// result. The set is normalized first so every account keeps the "user"
// role no matter what the admin submitted.
func (u *UsersUsecase) UpdateScope(ctx context.Context, userID string, scope []string) ([]string, error) {
	updated, err := u.users.UpdateScope(ctx, userID, domain.NormalizeScope(scope))
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, domain.E("That user no longer exists.", domain.CTATryAgain)
		}
		return nil, fmt.Errorf("update scope: %w", err)
	}
	return updated, nil
}

// Delete removes the account. The session id dies with the row, so any
// outstanding cookie for the user stops resolving immediately.
func (u *UsersUsecase) Delete(ctx context.Context, userID string) error {
	if err := u.users.Delete(ctx, userID); err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return domain.E("That user no longer exists.", domain.CTATryAgain)
		}
		return fmt.Errorf("delete user: %w", err)
	}
	return nil
}
