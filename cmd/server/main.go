package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/lmittmann/tint"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/pagesmith/pagesmith/config"
	"github.com/pagesmith/pagesmith/internal/email"
	"github.com/pagesmith/pagesmith/internal/health"
	"github.com/pagesmith/pagesmith/internal/infrastructure/postgres"
	ctxlog "github.com/pagesmith/pagesmith/internal/log"
	"github.com/pagesmith/pagesmith/internal/metrics"
	"github.com/pagesmith/pagesmith/internal/password"
	"github.com/pagesmith/pagesmith/internal/session"
	"github.com/pagesmith/pagesmith/internal/token"
	httptransport "github.com/pagesmith/pagesmith/internal/transport/http"
	"github.com/pagesmith/pagesmith/internal/transport/http/handler"
	"github.com/pagesmith/pagesmith/internal/usecase"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	logger := newLogger(cfg.Env, cfg.SlogLevel())

	if cfg.Env != "local" {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	pool, err := postgres.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		stop()
		log.Fatalf("db: %v", err)
	}
	defer pool.Close()

	if err := postgres.Migrate(ctx, pool); err != nil {
		stop()
		log.Fatalf("migrate: %v", err)
	}

	userRepo := postgres.NewUserRepository(pool)
	tokenRepo := postgres.NewVerificationTokenRepository(pool)

	sender := email.NewSender(cfg.Env, cfg.ResendAPIKey, cfg.ResendFrom, logger)
	mailer := email.NewMailer(sender, cfg.AppBaseURL)

	hasher := password.NewHasher(cfg.BcryptCost)
	tokens := token.NewService(tokenRepo)
	sessions := session.NewManager(userRepo, []byte(cfg.CookieSecret))

	authUsecase := usecase.NewAuthUsecase(userRepo, tokens, hasher, sessions, mailer, cfg.AdminEmail, logger)
	usersUsecase := usecase.NewUsersUsecase(userRepo)

	authHandler := handler.NewAuthHandler(authUsecase, cfg.SecureCookies(), logger)
	usersHandler := handler.NewUsersHandler(usersUsecase, logger)

	metrics.Register()
	checker := health.NewChecker(pool, logger, prometheus.DefaultRegisterer)

	janitor, err := token.NewJanitor(tokenRepo, userRepo, cfg.TokenCleanupCron, logger)
	if err != nil {
		stop()
		log.Fatalf("janitor: %v", err)
	}
	go janitor.Start(ctx)

	srv := http.Server{
		Addr:    ":" + cfg.Port,
		Handler: httptransport.NewRouter(logger, authHandler, usersHandler, sessions),
	}

	metricsSrv := metrics.NewServer(":"+cfg.MetricsPort, checker)

	go func() {
		logger.Info("server started", "port", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server: %v", err)
		}
	}()

	go func() {
		logger.Info("metrics server started", "port", cfg.MetricsPort)
		if err := metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server", "error", err)
		}
	}()

	<-ctx.Done()
	stop()
	logger.Info("shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown", "error", err)
	}
	if err := metricsSrv.Shutdown(shutdownCtx); err != nil {
		logger.Error("metrics server shutdown", "error", err)
	}
}

func newLogger(env string, level slog.Level) *slog.Logger {
	var inner slog.Handler
	if env == "local" {
		inner = tint.NewHandler(os.Stdout, &tint.Options{
			Level:      level,
			TimeFormat: time.Kitchen,
		})
	} else {
		inner = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level: level,
		})
	}
	return slog.New(ctxlog.NewContextHandler(inner))
}
