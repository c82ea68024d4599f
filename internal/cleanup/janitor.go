// Package cleanup runs the scheduled housekeeping jobs: expired availability
// slots, spent or expired action tokens, and revoked refresh tokens.
package cleanup

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

// SlotPurger deletes availability slots that ended before a cutoff.
type SlotPurger interface {
	PurgeExpired(ctx context.Context, before time.Time) (int64, error)
}

// TokenPurger deletes auth tokens past their expiry.
type TokenPurger interface {
	DeleteExpiredRefreshTokens(ctx context.Context, before time.Time) (int64, error)
	DeleteExpiredActionTokens(ctx context.Context, before time.Time) (int64, error)
}

// Janitor schedules the housekeeping sweep.
type Janitor struct {
	cron   *cron.Cron
	slots  SlotPurger
	tokens TokenPurger
	logger *slog.Logger
}

// New builds a janitor on the given cron schedule, e.g. "*/15 * * * *".
func New(schedule string, slots SlotPurger, tokens TokenPurger, logger *slog.Logger) (*Janitor, error) {
	if logger == nil {
		logger = slog.Default()
	}
	j := &Janitor{
		cron:   cron.New(),
		slots:  slots,
		tokens: tokens,
		logger: logger,
	}
	if _, err := j.cron.AddFunc(schedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()
		j.Sweep(ctx)
	}); err != nil {
		return nil, fmt.Errorf("cleanup schedule %q: %w", schedule, err)
	}
	return j, nil
}

// Start launches the schedule in its own goroutine.
func (j *Janitor) Start() {
	j.cron.Start()
}

// Stop halts the schedule and waits for a running sweep to finish.
func (j *Janitor) Stop(ctx context.Context) {
	done := j.cron.Stop().Done()
	select {
	case <-done:
	case <-ctx.Done():
	}
}

// Sweep runs one housekeeping pass. Failures are logged per job so one
// broken sweep never blocks the others.
func (j *Janitor) Sweep(ctx context.Context) {
	now := time.Now().UTC()

	if j.slots != nil {
		if n, err := j.slots.PurgeExpired(ctx, now); err != nil {
			j.logger.ErrorContext(ctx, "cleanup: purge expired slots", "error", err)
		} else if n > 0 {
			j.logger.InfoContext(ctx, "cleanup: purged expired slots", "count", n)
		}
	}
	if j.tokens != nil {
		if n, err := j.tokens.DeleteExpiredRefreshTokens(ctx, now); err != nil {
			j.logger.ErrorContext(ctx, "cleanup: purge refresh tokens", "error", err)
		} else if n > 0 {
			j.logger.InfoContext(ctx, "cleanup: purged expired refresh tokens", "count", n)
		}
		if n, err := j.tokens.DeleteExpiredActionTokens(ctx, now); err != nil {
			j.logger.ErrorContext(ctx, "cleanup: purge action tokens", "error", err)
		} else if n > 0 {
			j.logger.InfoContext(ctx, "cleanup: purged expired action tokens", "count", n)
		}
	}
}
