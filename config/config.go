package config

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/caarlos0/env/v11"
	"github.com/go-playground/validator/v10"
)

type Config struct {
	Env  string `env:"ENV" envDefault:"local" validate:"required,oneof=local staging production"`
	Port string `env:"PORT" envDefault:"4000" validate:"required"`

	DatabaseURL string `env:"DATABASE_URL,required" validate:"required"`

	MetricsPort string `env:"METRICS_PORT" envDefault:"9090"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info" validate:"oneof=debug info warn error"`

	// CookieSecret signs the session cookie. Rotating it invalidates every
	// outstanding cookie at once.
	CookieSecret string `env:"COOKIE_SECRET,required" validate:"required,min=32"`

	// AdminEmail is granted the admin scope at registration time.
	AdminEmail string `env:"ADMIN_EMAIL" validate:"omitempty,email"`

	ResendAPIKey string `env:"RESEND_API_KEY" validate:"required_if=Env production,required_if=Env staging"`
	ResendFrom   string `env:"RESEND_FROM"    validate:"required_if=Env production,required_if=Env staging"`

	// AppBaseURL is the public origin embedded in verification and reset links.
	AppBaseURL string `env:"APP_BASE_URL" envDefault:"http://localhost:4000"`

	BcryptCost       int    `env:"BCRYPT_COST" envDefault:"12" validate:"min=10,max=16"`
	TokenCleanupCron string `env:"TOKEN_CLEANUP_CRON" envDefault:"@hourly"`
}

func Load() (*Config, error) {
	cfg := &Config{}

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// SlogLevel maps LogLevel onto a slog.Level, defaulting to info.
func (c *Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// SecureCookies reports whether session cookies should carry the
// Secure and SameSite=Strict attributes.
func (c *Config) SecureCookies() bool {
	return c.Env == "production"
}
