package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/pagesmith/pagesmith/internal/domain"
	"github.com/pagesmith/pagesmith/internal/metrics"
	"github.com/pagesmith/pagesmith/internal/repository"
	"github.com/pagesmith/pagesmith/internal/token"
)

// dummyDigest is a well-formed bcrypt digest matched against no real
// password. Login compares against it when the email is unknown, keeping
// that path as expensive as a genuine password check.
const dummyDigest = "$2a$12$R9h/cIPz0gi.URNNX3kh2OPST9/PgBkqquzi.Ss7KIUgO2t0jWMUW"

// Interfaces are declared at the point of use so tests can swap in fakes
// without touching the concrete packages.

type tokenIssuer interface {
	Issue(ctx context.Context, ownerID string) (string, error)
	Redeem(ctx context.Context, ownerID, raw string) error
}

type credentialHasher interface {
	Hash(plaintext string) (string, error)
	Verify(plaintext, digest string) bool
}

type sessionManager interface {
	Mint(ctx context.Context, userID string) (string, error)
	Revoke(ctx context.Context, cookieValue string) error
}

type accountMailer interface {
	SendVerification(ctx context.Context, to, firstName, token string) error
	SendPasswordReset(ctx context.Context, to, firstName, token string) error
	SendResetConfirmation(ctx context.Context, to, firstName string) error
}

// Outcome is the user-facing result of an operation that succeeded. The
// flash and call to action pass through the response layer untouched.
type Outcome struct {
	Flash string
	CTA   domain.CTA
}

type RegisterInput struct {
	FirstName string
	LastName  string
	Email     string
	Password  string
}

type AuthUsecase struct {
	users      repository.UserRepository
	tokens     tokenIssuer
	hasher     credentialHasher
	sessions   sessionManager
	mail       accountMailer
	adminEmail string
	logger     *slog.Logger
}

func NewAuthUsecase(
	users repository.UserRepository,
	tokens tokenIssuer,
	hasher credentialHasher,
	sessions sessionManager,
	mail accountMailer,
	adminEmail string,
	logger *slog.Logger,
) *AuthUsecase {
	return &AuthUsecase{
		users:      users,
		tokens:     tokens,
		hasher:     hasher,
		sessions:   sessions,
		mail:       mail,
		adminEmail: adminEmail,
		logger:     logger,
	}
}

// Register creates an unverified account and emails a verification link.
// Email uniqueness is enforced by the store, not by a prior read, so two
// racing registrations for the same address cannot both succeed. The two
// duplicate cases are worded differently: a verified holder is told the
// address is taken, an unverified one is pointed at the resend flow.
func (u *AuthUsecase) Register(ctx context.Context, in RegisterInput) (*Outcome, error) {
	existing, err := u.users.FindByEmail(ctx, in.Email)
	switch {
	case err == nil:
		metrics.RegistrationsTotal.WithLabelValues("duplicate").Inc()
		if existing.IsVerified {
			return nil, domain.E("A user with this email already exists. Please use a different email address.", domain.CTALogin)
		}
		return nil, domain.E("A user with this email already exists but has not verified their email address. Please check your email account for a verification link.", domain.CTAResendVerification)
	case !errors.Is(err, domain.ErrUserNotFound):
		return nil, fmt.Errorf("look up email: %w", err)
	}

	hash, err := u.hasher.Hash(in.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	scope := []string{domain.ScopeUser}
	if in.Email == u.adminEmail {
		scope = append(scope, domain.ScopeAdmin)
	}

	now := time.Now()
	user := &domain.User{
		ID:           uuid.NewString(),
		FirstName:    in.FirstName,
		LastName:     in.LastName,
		Email:        in.Email,
		PasswordHash: hash,
		IsVerified:   false,
		Scope:        scope,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := u.users.Create(ctx, user); err != nil {
		if errors.Is(err, domain.ErrEmailTaken) {
			// Lost the race against a concurrent registration.
			metrics.RegistrationsTotal.WithLabelValues("duplicate").Inc()
			return nil, domain.E("A user with this email already exists. Please use a different email address.", domain.CTALogin)
		}
		return nil, fmt.Errorf("create user: %w", err)
	}
	metrics.RegistrationsTotal.WithLabelValues("created").Inc()

	u.sendVerificationLink(ctx, user)

	return &Outcome{
		Flash: "Thanks for registering! Please check your email for a verification link to activate your account.",
	}, nil
}

// VerifyEmail redeems the token from the emailed link. Redemption is
// single use and the already-verified case is an informational success, so
// clicking the link twice never shows an error.
func (u *AuthUsecase) VerifyEmail(ctx context.Context, email, rawToken string) (*Outcome, error) {
	user, err := u.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, domain.E("A user with this email address does not exist. Please register for an account.", domain.CTARegister)
		}
		return nil, fmt.Errorf("look up email: %w", err)
	}

	if user.IsVerified {
		metrics.VerificationsTotal.WithLabelValues("already_verified").Inc()
		return &Outcome{
			Flash: "Your email address has already been verified. Please sign in.",
			CTA:   domain.CTALogin,
		}, nil
	}

	// The claim is bound to the link's account: a token issued to a
	// different user matches nothing and stays live for its owner.
	err = u.tokens.Redeem(ctx, user.ID, rawToken)
	switch {
	case errors.Is(err, domain.ErrTokenExpired):
		metrics.VerificationsTotal.WithLabelValues("expired").Inc()
		return nil, domain.E("Your verification link has expired. Please request a new verification link.", domain.CTAResendVerification)
	case errors.Is(err, domain.ErrTokenNotFound):
		metrics.VerificationsTotal.WithLabelValues("not_found").Inc()
		return nil, domain.E("That verification link is not valid. Please request a new verification link.", domain.CTAResendVerification)
	case err != nil:
		return nil, fmt.Errorf("redeem verification token: %w", err)
	}

	if err := u.users.MarkVerified(ctx, user.ID); err != nil {
		return nil, fmt.Errorf("mark verified: %w", err)
	}
	metrics.VerificationsTotal.WithLabelValues("verified").Inc()

	return &Outcome{
		Flash: "Your email address has been verified. Please sign in.",
		CTA:   domain.CTALogin,
	}, nil
}

// ResendVerification revokes any live token and issues a fresh one, so at
// most one verification link works at a time.
func (u *AuthUsecase) ResendVerification(ctx context.Context, email string) (*Outcome, error) {
	user, err := u.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, domain.E("A user with this email address does not exist. Please register for an account.", domain.CTARegister)
		}
		return nil, fmt.Errorf("look up email: %w", err)
	}

	if user.IsVerified {
		return &Outcome{
			Flash: "Your email address has already been verified. Please sign in.",
			CTA:   domain.CTALogin,
		}, nil
	}

	u.sendVerificationLink(ctx, user)

	return &Outcome{
		Flash: "A new verification link has been sent to your email address.",
	}, nil
}

// Login checks the credentials and mints a fresh session id, invalidating
// any cookie from a prior login. The bad-email and bad-password cases share
// one message so the response doesn't reveal which part was wrong.
func (u *AuthUsecase) Login(ctx context.Context, email, password string) (*domain.Credentials, string, error) {
	user, err := u.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			// Burn a comparison anyway so an unknown address takes as
			// long as a wrong password.
			u.hasher.Verify(password, dummyDigest)
			metrics.LoginsTotal.WithLabelValues("bad_credentials").Inc()
			return nil, "", domain.E("The email or password that you provided does not match our records. Do you need to register for an account?", domain.CTARegister)
		}
		return nil, "", fmt.Errorf("look up email: %w", err)
	}

	if !u.hasher.Verify(password, user.PasswordHash) {
		metrics.LoginsTotal.WithLabelValues("bad_credentials").Inc()
		return nil, "", domain.E("The email or password that you provided does not match our records. Do you need to register for an account?", domain.CTARegister)
	}

	if !user.IsVerified {
		metrics.LoginsTotal.WithLabelValues("unverified").Inc()
		return nil, "", domain.E("Your email address has not been verified. Please check your email account for a verification link.", domain.CTAResendVerification)
	}

	cookie, err := u.sessions.Mint(ctx, user.ID)
	if err != nil {
		return nil, "", fmt.Errorf("mint session: %w", err)
	}
	metrics.LoginsTotal.WithLabelValues("success").Inc()

	creds := &domain.Credentials{
		FirstName: user.FirstName,
		LastName:  user.LastName,
		Email:     user.Email,
		Scope:     user.Scope,
	}
	return creds, cookie, nil
}

// Logout revokes the stored session behind the presented cookie so prior
// cookie values stop resolving. It never fails the request: a missing or
// stale cookie is already logged out, and a store failure only costs the
// server-side revocation, not the cookie clear.
func (u *AuthUsecase) Logout(ctx context.Context, cookieValue string) {
	if cookieValue == "" {
		return
	}
	if err := u.sessions.Revoke(ctx, cookieValue); err != nil {
		u.logger.ErrorContext(ctx, "revoke session", "error", err)
	}
}

// ForgotPassword issues a reset token and emails the link. The token lives
// on the user record with the same TTL and hash-at-rest treatment as
// verification tokens, and a new request overwrites any pending one.
func (u *AuthUsecase) ForgotPassword(ctx context.Context, email string) (*Outcome, error) {
	user, err := u.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, domain.E("A user with this email address does not exist. Please register for an account.", domain.CTARegister)
		}
		return nil, fmt.Errorf("look up email: %w", err)
	}

	raw, err := token.Generate()
	if err != nil {
		return nil, err
	}
	if err := u.users.SetResetToken(ctx, user.ID, token.Hash(raw), time.Now().Add(token.TTL)); err != nil {
		return nil, fmt.Errorf("store reset token: %w", err)
	}

	if err := u.mail.SendPasswordReset(ctx, user.Email, user.FirstName, raw); err != nil {
		metrics.EmailsSentTotal.WithLabelValues("password_reset", "error").Inc()
		u.logger.ErrorContext(ctx, "send password reset email", "error", err)
	} else {
		metrics.EmailsSentTotal.WithLabelValues("password_reset", "sent").Inc()
	}

	return &Outcome{
		Flash: "A password reset link has been sent to your email address. The link expires in 24 hours.",
	}, nil
}

// CheckResetToken validates the link the user landed on without consuming
// the token, so reloading the reset form keeps it usable.
func (u *AuthUsecase) CheckResetToken(ctx context.Context, email, rawToken string) (*Outcome, error) {
	user, err := u.users.FindByResetToken(ctx, token.Hash(rawToken))
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, domain.E("Your password reset link is invalid or has expired. Please request a new link.", domain.CTATryAgain)
		}
		return nil, fmt.Errorf("look up reset token: %w", err)
	}
	if user.Email != email {
		return nil, domain.E("Your password reset link is invalid or has expired. Please request a new link.", domain.CTATryAgain)
	}

	return &Outcome{Flash: "Please enter a new password for your account."}, nil
}

// ResetPassword claims the reset token and installs the new password hash
// in one atomic step. The submitted email is part of the claim, so a token
// forged onto the wrong address rejects without touching any account.
// Resetting a password does not verify the account; verification stays its
// own flow.
func (u *AuthUsecase) ResetPassword(ctx context.Context, email, rawToken, newPassword string) (*Outcome, error) {
	hash, err := u.hasher.Hash(newPassword)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user, err := u.users.ResetPassword(ctx, email, token.Hash(rawToken), hash)
	if err != nil {
		if errors.Is(err, domain.ErrTokenNotFound) {
			return nil, domain.E("Your password reset link is invalid or has expired. Please request a new link.", domain.CTATryAgain)
		}
		return nil, fmt.Errorf("reset password: %w", err)
	}

	if err := u.mail.SendResetConfirmation(ctx, user.Email, user.FirstName); err != nil {
		metrics.EmailsSentTotal.WithLabelValues("reset_confirmation", "error").Inc()
		u.logger.ErrorContext(ctx, "send reset confirmation email", "error", err)
	} else {
		metrics.EmailsSentTotal.WithLabelValues("reset_confirmation", "sent").Inc()
	}

	return &Outcome{
		Flash: "Your password has been reset. Please sign in with your new password.",
		CTA:   domain.CTALogin,
	}, nil
}

// sendVerificationLink issues a fresh token and emails it. Delivery is best
// effort once the account state is committed: a failed send is logged and
// counted but never turns the operation into an error, the user can always
// use the resend flow.
func (u *AuthUsecase) sendVerificationLink(ctx context.Context, user *domain.User) {
	raw, err := u.tokens.Issue(ctx, user.ID)
	if err != nil {
		u.logger.ErrorContext(ctx, "issue verification token", "error", err, "user_id", user.ID)
		return
	}
	if err := u.mail.SendVerification(ctx, user.Email, user.FirstName, raw); err != nil {
		metrics.EmailsSentTotal.WithLabelValues("verification", "error").Inc()
		u.logger.ErrorContext(ctx, "send verification email", "error", err, "user_id", user.ID)
		return
	}
	metrics.EmailsSentTotal.WithLabelValues("verification", "sent").Inc()
}
