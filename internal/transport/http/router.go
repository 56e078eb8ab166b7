package httptransport

import (
	"log/slog"

	"github.com/gin-gonic/gin"
	"github.com/pagesmith/pagesmith/internal/domain"
	"github.com/pagesmith/pagesmith/internal/session"
	"github.com/pagesmith/pagesmith/internal/transport/http/handler"
	"github.com/pagesmith/pagesmith/internal/transport/http/middleware"

	sloggin "github.com/samber/slog-gin"
)

func NewRouter(logger *slog.Logger, authHandler *handler.AuthHandler, usersHandler *handler.UsersHandler, sessions *session.Manager) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Security())
	r.Use(sloggin.New(logger))
	r.Use(middleware.Metrics())

	tryAuth := middleware.TryAuth(sessions, logger)

	// Account lifecycle, no session required
	r.POST("/register", authHandler.Register)
	r.GET("/verify-email/:email/:token", authHandler.VerifyEmail)
	r.POST("/resend-verification-link", authHandler.ResendVerification)
	r.POST("/send-password-reset-link", authHandler.ForgotPassword)
	r.GET("/reset-password/:email/:token", authHandler.CheckResetToken)
	r.POST("/reset-password", authHandler.ResetPassword)

	// Session routes run in try mode so they work with or without a cookie
	r.POST("/login", tryAuth, authHandler.Login)
	r.GET("/logout", tryAuth, authHandler.Logout)

	// Admin user management
	users := r.Group("/users", middleware.RequireScope(sessions, logger, domain.ScopeAdmin))
	users.GET("/get-all-users", usersHandler.GetAll)
	users.PUT("/update-user-scope", usersHandler.UpdateScope)
	users.DELETE("/delete-user/:id", usersHandler.Delete)

	return r
}
