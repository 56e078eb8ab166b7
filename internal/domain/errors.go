package domain

import "errors"

// Sentinel errors raised by the storage layer. Anything else coming out of a
// repository is an infrastructure failure and must not reach the client as-is.
var (
	ErrUserNotFound  = errors.New("user not found")
	ErrEmailTaken    = errors.New("email already registered")
	ErrTokenNotFound = errors.New("token not found")
	ErrTokenExpired  = errors.New("token expired")
)

// CTA is a machine-readable hint telling the client which follow-up action
// to offer the user alongside a flash message.
type CTA string

const (
	CTARegister           CTA = "register"
	CTALogin              CTA = "login"
	CTAResendVerification CTA = "resendVerification"
	CTATryAgain           CTA = "tryAgain"
)

// Error is a business-rule violation with a user-safe message. It is only
// constructed inside the usecase layer, after input validation has passed.
type Error struct {
	Message string
	CTA     CTA
}

func (e *Error) Error() string {
	return e.Message
}

// E builds a domain error with an optional call to action.
func E(message string, cta CTA) *Error {
	return &Error{Message: message, CTA: cta}
}
