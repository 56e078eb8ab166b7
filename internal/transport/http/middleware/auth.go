package middleware

import (
	"context"
	"errors"
	"log/slog"

	"github.com/gin-gonic/gin"
	"github.com/pagesmith/pagesmith/internal/domain"
	"github.com/pagesmith/pagesmith/internal/session"
	"github.com/pagesmith/pagesmith/internal/transport/http/respond"
)

const credentialsKey = "credentials"

// sessionResolver is the subset of session.Manager the middleware needs,
// defined at the point of use so tests can inject a fake.
type sessionResolver interface {
	Resolve(ctx context.Context, cookieValue string) (*domain.Credentials, error)
}

// RequireScope rejects requests without a live session, and, when scopes are
// given, requests whose credentials don't intersect them. A missing or
// invalid cookie yields 401; an authenticated user outside the scope set
// yields 403, never 401. Resolved credentials are stored in the gin context.
func RequireScope(sessions sessionResolver, logger *slog.Logger, scopes ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		creds, err := resolve(c, sessions)
		if err != nil {
			if errors.Is(err, session.ErrInvalidSession) {
				respond.Unauthorized(c, "Please sign in.")
				return
			}
			respond.Internal(c, logger, "resolve session", err)
			c.Abort()
			return
		}

		if !creds.HasAnyScope(scopes...) {
			respond.Forbidden(c, "Insufficient scope.")
			return
		}

		c.Set(credentialsKey, creds)
		c.Next()
	}
}

// TryAuth resolves credentials when a valid session cookie is present but
// never rejects the request. Routes like login and logout run under it so
// they work for authenticated and anonymous callers alike.
func TryAuth(sessions sessionResolver, logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		creds, err := resolve(c, sessions)
		if err != nil {
			if !errors.Is(err, session.ErrInvalidSession) {
				respond.Internal(c, logger, "resolve session", err)
				c.Abort()
				return
			}
			c.Next()
			return
		}

		c.Set(credentialsKey, creds)
		c.Next()
	}
}

func resolve(c *gin.Context, sessions sessionResolver) (*domain.Credentials, error) {
	cookie, err := c.Cookie(session.CookieName)
	if err != nil || cookie == "" {
		return nil, session.ErrInvalidSession
	}
	return sessions.Resolve(c.Request.Context(), cookie)
}

// CredentialsFrom returns the authenticated credentials, or nil when the
// request is anonymous.
func CredentialsFrom(c *gin.Context) *domain.Credentials {
	v, ok := c.Get(credentialsKey)
	if !ok {
		return nil
	}
	creds, _ := v.(*domain.Credentials)
	return creds
}
