package token

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/pagesmith/pagesmith/internal/metrics"
	"github.com/pagesmith/pagesmith/internal/repository"
	"github.com/robfig/cron/v3"
)

// Janitor periodically purges expired verification tokens and clears expired
// reset tokens from user records. Redemption already treats expired tokens as
// dead, so this is housekeeping, not a correctness requirement.
type Janitor struct {
	tokens   repository.VerificationTokenRepository
	users    repository.UserRepository
	schedule cron.Schedule
	logger   *slog.Logger
}

// NewJanitor parses a standard cron expression (e.g. "@hourly") for the
// cleanup schedule.
func NewJanitor(tokens repository.VerificationTokenRepository, users repository.UserRepository, cronExpr string, logger *slog.Logger) (*Janitor, error) {
	schedule, err := cron.ParseStandard(cronExpr)
	if err != nil {
		return nil, fmt.Errorf("parse cleanup schedule %q: %w", cronExpr, err)
	}
	return &Janitor{
		tokens:   tokens,
		users:    users,
		schedule: schedule,
		logger:   logger.With("component", "token_janitor"),
	}, nil
}

func (j *Janitor) Start(ctx context.Context) {
	j.logger.Info("token janitor started")

	for {
		next := j.schedule.Next(time.Now())
		timer := time.NewTimer(time.Until(next))

		select {
		case <-ctx.Done():
			timer.Stop()
			j.logger.Info("token janitor shut down")
			return
		case <-timer.C:
			j.sweep(ctx)
		}
	}
}

func (j *Janitor) sweep(ctx context.Context) {
	purged, err := j.tokens.DeleteExpired(ctx)
	if err != nil {
		j.logger.Error("purge expired verification tokens", "error", err)
	} else if purged > 0 {
		metrics.TokensPurgedTotal.WithLabelValues("verification").Add(float64(purged))
		j.logger.Info("purged expired verification tokens", "count", purged)
	}

	cleared, err := j.users.ClearExpiredResetTokens(ctx)
	if err != nil {
		j.logger.Error("clear expired reset tokens", "error", err)
	} else if cleared > 0 {
		metrics.TokensPurgedTotal.WithLabelValues("reset").Add(float64(cleared))
		j.logger.Info("cleared expired reset tokens", "count", cleared)
	}
}
