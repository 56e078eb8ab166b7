package handler

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/pagesmith/pagesmith/internal/domain"
	"github.com/pagesmith/pagesmith/internal/session"
	"github.com/pagesmith/pagesmith/internal/transport/http/respond"
	"github.com/pagesmith/pagesmith/internal/usecase"
)

// authUsecaser is the subset of AuthUsecase the handler needs.
// Defined here (point of use) so tests can inject a fake.
type authUsecaser interface {
	Register(ctx context.Context, in usecase.RegisterInput) (*usecase.Outcome, error)
	VerifyEmail(ctx context.Context, email, rawToken string) (*usecase.Outcome, error)
	ResendVerification(ctx context.Context, email string) (*usecase.Outcome, error)
	Login(ctx context.Context, email, password string) (*domain.Credentials, string, error)
	Logout(ctx context.Context, cookieValue string)
	ForgotPassword(ctx context.Context, email string) (*usecase.Outcome, error)
	CheckResetToken(ctx context.Context, email, rawToken string) (*usecase.Outcome, error)
	ResetPassword(ctx context.Context, email, rawToken, newPassword string) (*usecase.Outcome, error)
}

type AuthHandler struct {
	auth          authUsecaser
	logger        *slog.Logger
	secureCookies bool
}

func NewAuthHandler(auth authUsecaser, secureCookies bool, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{
		auth:          auth,
		logger:        logger.With("component", "auth_handler"),
		secureCookies: secureCookies,
	}
}

type registerRequest struct {
	FirstName       string `json:"firstName" binding:"required,max=100"`
	LastName        string `json:"lastName" binding:"required,max=100"`
	Email           string `json:"email" binding:"required,email"`
	Password        string `json:"password" binding:"required,min=6,max=200"`
	ConfirmPassword string `json:"confirmPassword" binding:"required,eqfield=Password"`
}

type emailRequest struct {
	Email string `json:"email" binding:"required,email"`
}

type loginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type resetPasswordRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Token    string `json:"token" binding:"required"`
	Password string `json:"password" binding:"required,min=6,max=200"`
}

// POST /register
func (h *AuthHandler) Register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Validation(c, err)
		return
	}

	out, err := h.auth.Register(c.Request.Context(), usecase.RegisterInput{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     req.Email,
		Password:  req.Password,
	})
	if err != nil {
		respond.Error(c, h.logger, "register", err)
		return
	}
	respond.OK(c, out.Flash, out.CTA, nil)
}

// GET /verify-email/:email/:token
func (h *AuthHandler) VerifyEmail(c *gin.Context) {
	out, err := h.auth.VerifyEmail(c.Request.Context(), c.Param("email"), c.Param("token"))
	if err != nil {
		respond.Error(c, h.logger, "verify email", err)
		return
	}
	respond.OK(c, out.Flash, out.CTA, nil)
}

// POST /resend-verification-link
func (h *AuthHandler) ResendVerification(c *gin.Context) {
	var req emailRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Validation(c, err)
		return
	}

	out, err := h.auth.ResendVerification(c.Request.Context(), req.Email)
	if err != nil {
		respond.Error(c, h.logger, "resend verification", err)
		return
	}
	respond.OK(c, out.Flash, out.CTA, nil)
}

// POST /send-password-reset-link
func (h *AuthHandler) ForgotPassword(c *gin.Context) {
	var req emailRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Validation(c, err)
		return
	}

	out, err := h.auth.ForgotPassword(c.Request.Context(), req.Email)
	if err != nil {
		respond.Error(c, h.logger, "forgot password", err)
		return
	}
	respond.OK(c, out.Flash, out.CTA, nil)
}

// GET /reset-password/:email/:token
// Validates the link before the client renders the new-password form. The
// token is not consumed here.
func (h *AuthHandler) CheckResetToken(c *gin.Context) {
	out, err := h.auth.CheckResetToken(c.Request.Context(), c.Param("email"), c.Param("token"))
	if err != nil {
		respond.Error(c, h.logger, "check reset token", err)
		return
	}
	respond.OK(c, out.Flash, out.CTA, nil)
}

// POST /reset-password
func (h *AuthHandler) ResetPassword(c *gin.Context) {
	var req resetPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Validation(c, err)
		return
	}

	out, err := h.auth.ResetPassword(c.Request.Context(), req.Email, req.Token, req.Password)
	if err != nil {
		respond.Error(c, h.logger, "reset password", err)
		return
	}
	respond.OK(c, out.Flash, out.CTA, nil)
}

// POST /login
func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Validation(c, err)
		return
	}

	creds, cookie, err := h.auth.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		respond.Error(c, h.logger, "login", err)
		return
	}

	h.setSessionCookie(c, cookie, 0)

	flash := fmt.Sprintf("%q has successfully logged in!", creds.FirstName+" "+creds.LastName)
	respond.OK(c, flash, "", gin.H{"user": creds})
}

// GET /logout
// Runs in try mode: clearing the cookie always succeeds, even without a
// valid prior session. The stored session id is revoked too, so a copy of
// the old cookie stops resolving.
func (h *AuthHandler) Logout(c *gin.Context) {
	if cookie, err := c.Cookie(session.CookieName); err == nil && cookie != "" {
		h.auth.Logout(c.Request.Context(), cookie)
	}
	h.setSessionCookie(c, "", -1)
	respond.OK(c, "You have successfully logged out.", "", nil)
}

func (h *AuthHandler) setSessionCookie(c *gin.Context, value string, maxAge int) {
	if h.secureCookies {
		c.SetSameSite(http.SameSiteStrictMode)
	} else {
		c.SetSameSite(http.SameSiteLaxMode)
	}
	c.SetCookie(session.CookieName, value, maxAge, "/", "", h.secureCookies, true)
}
