package domain

import (
	"slices"
	"time"
)

const (
	ScopeUser  = "user"
	ScopeAdmin = "admin"
)

type User struct {
	ID        string
	SessionID string // rotates on every login; empty until the first one
	FirstName string
	LastName  string
	Email     string

	// PasswordHash is a bcrypt digest. The plaintext never leaves the
	// password package.
	PasswordHash string

	IsVerified bool
	Scope      []string

	// Password-reset token, embedded on the user record. Both fields are
	// nil unless a reset is pending.
	ResetTokenHash *string
	ResetExpires   *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}

// HasScope reports whether the user carries the given role.
func (u *User) HasScope(scope string) bool {
	return slices.Contains(u.Scope, scope)
}

// Credentials is the authenticated-session view of a user, resolved from the
// session cookie on each request. It never includes the password hash.
type Credentials struct {
	FirstName string   `json:"firstName"`
	LastName  string   `json:"lastName"`
	Email     string   `json:"email"`
	Scope     []string `json:"scope"`
}

// HasAnyScope reports whether the credentials intersect the required set.
// An empty required set grants access.
func (c *Credentials) HasAnyScope(required ...string) bool {
	if len(required) == 0 {
		return true
	}
	for _, s := range required {
		if slices.Contains(c.Scope, s) {
			return true
		}
	}
	return false
}

// NormalizeScope deduplicates the set and guarantees the "user" role is
// present. Every account holds at least "user" for its whole lifetime.
func NormalizeScope(scope []string) []string {
	out := []string{ScopeUser}
	for _, s := range scope {
		if s != "" && !slices.Contains(out, s) {
			out = append(out, s)
		}
	}
	return out
}
