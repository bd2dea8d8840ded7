// Package jobs runs background maintenance on a cron schedule.
package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"
)

// DefaultSchedule runs the supporter sweep hourly.
const DefaultSchedule = "@every 1h"

// DefaultGrace is how long after a period end a supporter keeps access while
// waiting for a renewal webhook.
const DefaultGrace = 48 * time.Hour

// Expirer revokes supporter status for periods that ended before cutoff.
type Expirer interface {
	ExpireLapsedSupporters(ctx context.Context, cutoff time.Time) (int64, error)
}

// SubscriptionSweeper clears supporter flags for lapsed subscriptions.
type SubscriptionSweeper struct {
	store   Expirer
	grace   time.Duration
	timeout time.Duration
	now     func() time.Time
}

// NewSubscriptionSweeper builds a sweeper. A non-positive grace uses DefaultGrace.
func NewSubscriptionSweeper(store Expirer, grace time.Duration) *SubscriptionSweeper {
	if grace <= 0 {
		grace = DefaultGrace
	}
	return &SubscriptionSweeper{
		store:   store,
		grace:   grace,
		timeout: time.Minute,
		now:     time.Now,
	}
}

// Run performs one sweep and returns the number of profiles changed.
func (s *SubscriptionSweeper) Run(ctx context.Context) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	cutoff := s.now().Add(-s.grace).UTC()
	n, err := s.store.ExpireLapsedSupporters(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("sweep lapsed supporters: %w", err)
	}
	return n, nil
}

// Scheduler owns the cron runner for background jobs.
type Scheduler struct {
	cron *cron.Cron
}

// NewScheduler creates a UTC cron scheduler. Overlapping runs of the same job
// are skipped.
func NewScheduler() *Scheduler {
	c := cron.New(
		cron.WithLocation(time.UTC),
		cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)),
	)
	return &Scheduler{cron: c}
}

// AddSweeper registers the sweeper under spec.
func (s *Scheduler) AddSweeper(ctx context.Context, spec string, sweeper *SubscriptionSweeper) error {
	if spec == "" {
		spec = DefaultSchedule
	}
	_, err := s.cron.AddFunc(spec, func() {
		n, err := sweeper.Run(ctx)
		if err != nil {
			log.Error().Err(err).Msg("subscription sweep failed")
			return
		}
		if n > 0 {
			log.Info().Int64("revoked", n).Msg("revoked lapsed supporter subscriptions")
		}
	})
	if err != nil {
		return fmt.Errorf("schedule subscription sweep %q: %w", spec, err)
	}
	return nil
}

// Start runs the scheduler in its own goroutine.
func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop halts scheduling and waits for running jobs until ctx is done.
func (s *Scheduler) Stop(ctx context.Context) {
	done := s.cron.Stop()
	select {
	case <-done.Done():
	case <-ctx.Done():
	}
}
