package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/dmitrijs2005/catalogauth/internal/logging"
	"github.com/dmitrijs2005/catalogauth/internal/server/repositories/revokedtokens"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/robfig/cron/v3"
)

const sweepRetryDelay = 2 * time.Second

// Sweeper removes revocation records whose token has expired on its own.
type Sweeper struct {
	repo       revokedtokens.Repository
	logger     logging.Logger
	now        func() time.Time
	retryDelay time.Duration
}

func NewSweeper(repo revokedtokens.Repository, logger logging.Logger) *Sweeper {
	if logger == nil {
		logger = logging.Nop{}
	}
	return &Sweeper{repo: repo, logger: logger, now: time.Now, retryDelay: sweepRetryDelay}
}

// Sweep runs one purge. A transient database error is retried once.
func (s *Sweeper) Sweep(ctx context.Context) (int64, error) {
	var n int64
	err := s.runWithRetry(ctx, func(ctx context.Context) error {
		var err error
		n, err = s.repo.PurgeExpired(ctx, s.now())
		return err
	})
	if err != nil {
		s.logger.Error(ctx, "revocation sweep failed", "error", err)
		return 0, err
	}
	if n > 0 {
		s.logger.Info(ctx, "revocation sweep done", "removed", n)
	} else {
		s.logger.Debug(ctx, "revocation sweep done", "removed", n)
	}
	return n, nil
}

func (s *Sweeper) runWithRetry(ctx context.Context, op func(context.Context) error) error {
	err := op(ctx)
	if err == nil || !retryable(err) {
		return err
	}

	s.logger.Warn(ctx, "revocation sweep hit transient error, retrying once", "error", err)
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(s.retryDelay):
	}
	return op(ctx)
}

func retryable(err error) bool {
	return errors.Is(err, io.EOF) || pgconn.SafeToRetry(err)
}

// Run sweeps on schedule (cron syntax, "@every 10m" style descriptors
// included) until ctx is cancelled. An empty schedule disables sweeping.
func (s *Sweeper) Run(ctx context.Context, schedule string) error {
	if schedule == "" {
		s.logger.Info(ctx, "revocation sweep disabled")
		<-ctx.Done()
		return nil
	}

	c := cron.New()
	if _, err := c.AddFunc(schedule, func() { _, _ = s.Sweep(ctx) }); err != nil {
		return fmt.Errorf("sweep schedule %q: %w", schedule, err)
	}

	c.Start()
	s.logger.Info(ctx, "revocation sweep scheduled", "schedule", schedule)

	<-ctx.Done()
	<-c.Stop().Done()
	return nil
}

// ValidateSchedule reports whether schedule is understood by Run.
func ValidateSchedule(schedule string) error {
	if schedule == "" {
		return nil
	}
	_, err := cron.ParseStandard(schedule)
	return err
}
