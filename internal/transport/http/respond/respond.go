// Package respond is the single formatting layer every route outcome flows
// through. Each response, success or failure, is shaped into the same
// {error, flash, cta?, ...} envelope the client renders as user feedback.
package respond

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"unicode"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/pagesmith/pagesmith/internal/domain"
)

const genericFlash = "Something went wrong on our end. Please try again."

func write(c *gin.Context, status int, isErr bool, flash string, cta domain.CTA, extra gin.H) {
	body := gin.H{"error": isErr, "flash": flash}
	if cta != "" {
		body["cta"] = cta
	}
	for k, v := range extra {
		body[k] = v
	}
	c.JSON(status, body)
}

// OK passes the route's flash through untouched. Extra keys (user, usersList,
// userScope) are merged into the envelope.
func OK(c *gin.Context, flash string, cta domain.CTA, extra gin.H) {
	write(c, http.StatusOK, false, flash, cta, extra)
}

// Validation joins every field violation into one human-readable flash.
func Validation(c *gin.Context, err error) {
	write(c, http.StatusBadRequest, true, validationFlash(err), "", nil)
}

// Domain reports a business-rule violation. The route-level message and call
// to action pass through unchanged.
func Domain(c *gin.Context, derr *domain.Error) {
	write(c, http.StatusBadRequest, true, derr.Message, derr.CTA, nil)
}

// Unauthorized aborts the request before the handler runs. The flash follows
// the "{statusCode} {reason}: {message}" shape.
func Unauthorized(c *gin.Context, message string) {
	write(c, http.StatusUnauthorized, true,
		fmt.Sprintf("401 Unauthorized: %s", message), "", nil)
	c.Abort()
}

// Forbidden aborts a request whose credentials lack the required scope.
func Forbidden(c *gin.Context, message string) {
	write(c, http.StatusForbidden, true,
		fmt.Sprintf("403 Forbidden: %s", message), "", nil)
	c.Abort()
}

// Internal logs the full failure server-side and surfaces only a generic
// flash, never query text, stack traces, or credentials.
func Internal(c *gin.Context, logger *slog.Logger, op string, err error) {
	logger.ErrorContext(c.Request.Context(), op, "error", err)
	write(c, http.StatusInternalServerError, true, genericFlash, "", nil)
}

// Error classifies any handler error into exactly one outcome: a domain
// error keeps its message and CTA, a binding failure becomes a validation
// flash, and everything else is an infrastructure failure.
func Error(c *gin.Context, logger *slog.Logger, op string, err error) {
	var derr *domain.Error
	if errors.As(err, &derr) {
		Domain(c, derr)
		return
	}

	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		Validation(c, err)
		return
	}

	Internal(c, logger, op, err)
}

func validationFlash(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		// Malformed JSON and similar binding failures carry no field detail.
		return "The submitted form could not be read. Please check your input and try again."
	}

	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fieldMessage(fe))
	}
	return strings.Join(msgs, " ")
}

func fieldMessage(fe validator.FieldError) string {
	field := lowerFirst(fe.Field())
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("The %q field is required.", field)
	case "email":
		return fmt.Sprintf("The %q field must be a valid email address.", field)
	case "min":
		return fmt.Sprintf("The %q field must be at least %s characters long.", field, fe.Param())
	case "max":
		return fmt.Sprintf("The %q field must be at most %s characters long.", field, fe.Param())
	case "eqfield":
		return fmt.Sprintf("The %q field must match the %q field.", field, lowerFirst(fe.Param()))
	default:
		return fmt.Sprintf("The %q field is invalid.", field)
	}
}

func lowerFirst(s string) string {
	if s == "" {
		return s
	}
	r := []rune(s)
	r[0] = unicode.ToLower(r[0])
	return string(r)
}
