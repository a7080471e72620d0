// Affinity - Graph-Backed Personalized Feed
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/openclique/affinity

package analytics

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/openclique/affinity/internal/logging"
)

// jobRunner is the execution dependency of the scheduler, kept as an
// interface so tests can script job outcomes.
type jobRunner interface {
	Run(ctx context.Context, job Job) error
}

// Config holds scheduler configuration. Per-job timeouts belong to
// the Runner.
type Config struct {
	// Enabled controls whether the scheduler runs jobs at all.
	Enabled bool
}

// Scheduler fires the analytics jobs at the top of every hour. The
// wake time is recomputed from the current clock after each cycle, so
// a cycle that overruns its hour skips the missed boundary instead of
// firing a burst of catch-up runs.
type Scheduler struct {
	runner jobRunner
	jobs   []Job
	logger zerolog.Logger
	config Config

	// Clock indirection for tests.
	now   func() time.Time
	after func(d time.Duration) <-chan time.Time

	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	doneCh  chan struct{}
}

// NewScheduler creates the hourly analytics scheduler.
func NewScheduler(runner jobRunner, config Config) *Scheduler {
	return &Scheduler{
		runner: runner,
		jobs:   DefaultJobs(),
		logger: logging.WithComponent("analytics-scheduler"),
		config: config,
		now:    time.Now,
		after:  func(d time.Duration) <-chan time.Time { return time.After(d) },
	}
}

// Start begins the scheduler loop.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return fmt.Errorf("scheduler already running")
	}
	s.running = true
	s.stopCh = make(chan struct{})
	s.doneCh = make(chan struct{})
	s.mu.Unlock()

	if !s.config.Enabled {
		s.logger.Info().Msg("Analytics scheduler disabled")
		go func() {
			defer close(s.doneCh)
			<-s.stopCh
		}()
		return nil
	}

	s.logger.Info().
		Time("first_run", nextHourBoundary(s.now())).
		Msg("Starting analytics scheduler")

	go s.run(ctx)
	return nil
}

// Stop stops the scheduler loop and waits for it to complete. A job
// already in flight finishes before Stop returns.
func (s *Scheduler) Stop() error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return nil
	}
	s.mu.Unlock()

	close(s.stopCh)
	<-s.doneCh

	s.mu.Lock()
	s.running = false
	s.mu.Unlock()

	s.logger.Info().Msg("Analytics scheduler stopped")
	return nil
}

// run is the main scheduler loop.
func (s *Scheduler) run(ctx context.Context) {
	defer close(s.doneCh)

	for {
		wait := nextHourBoundary(s.now()).Sub(s.now())
		select {
		case <-s.after(wait):
			s.runJobs(ctx)
		case <-s.stopCh:
			return
		case <-ctx.Done():
			return
		}
	}
}

// runJobs executes every job in order. A failing job is logged and
// skipped; the remaining jobs still run, and nothing is retried until
// the next hourly cycle.
func (s *Scheduler) runJobs(ctx context.Context) {
	for _, job := range s.jobs {
		start := s.now()
		if err := s.runner.Run(ctx, job); err != nil {
			s.logger.Error().
				Err(err).
				Str("job", job.Name).
				Msg("Analytics job failed")
			continue
		}
		s.logger.Info().
			Str("job", job.Name).
			Dur("duration", s.now().Sub(start)).
			Msg("Analytics job completed")
	}
}

// nextHourBoundary returns the next top-of-hour strictly after now.
func nextHourBoundary(now time.Time) time.Time {
	return now.Truncate(time.Hour).Add(time.Hour)
}
