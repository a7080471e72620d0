// Affinity - Graph-Backed Personalized Feed
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/openclique/affinity

package services

import (
	"context"
	"fmt"
)

// SchedulerManager matches the analytics scheduler's Start/Stop
// lifecycle. Satisfied by *analytics.Scheduler.
type SchedulerManager interface {
	Start(ctx context.Context) error
	Stop() error
}

// AnalyticsService wraps the hourly analytics scheduler as a
// supervised service, adapting Start/Stop to suture's Serve.
type AnalyticsService struct {
	manager SchedulerManager
	name    string
}

// NewAnalyticsService creates the analytics scheduler service wrapper.
func NewAnalyticsService(manager SchedulerManager) *AnalyticsService {
	return &AnalyticsService{
		manager: manager,
		name:    "analytics-scheduler",
	}
}

// Serve implements suture.Service. A Start failure is returned
// immediately so suture restarts the service under its backoff policy.
func (s *AnalyticsService) Serve(ctx context.Context) error {
	if err := s.manager.Start(ctx); err != nil {
		return fmt.Errorf("analytics scheduler start failed: %w", err)
	}

	<-ctx.Done()

	if err := s.manager.Stop(); err != nil {
		return fmt.Errorf("analytics scheduler stop failed: %w", err)
	}

	return ctx.Err()
}

// String identifies the service in suture's event log.
func (s *AnalyticsService) String() string {
	return s.name
}
