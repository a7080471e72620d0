// Affinity - Graph-Backed Personalized Feed
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/openclique/affinity

package supervisor

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// blockingService runs until canceled and records that it started.
type blockingService struct {
	mu      sync.Mutex
	started bool
	name    string
}

func (s *blockingService) Serve(ctx context.Context) error {
	s.mu.Lock()
	s.started = true
	s.mu.Unlock()
	<-ctx.Done()
	return ctx.Err()
}

func (s *blockingService) String() string { return s.name }

func (s *blockingService) wasStarted() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.started
}

func TestTreeRunsServicesInBothLayers(t *testing.T) {
	tree := NewTree(discardLogger(), DefaultTreeConfig())

	serving := &blockingService{name: "fake-server"}
	analytics := &blockingService{name: "fake-scheduler"}
	tree.AddServingService(serving)
	tree.AddAnalyticsService(analytics)

	ctx, cancel := context.WithCancel(context.Background())
	errCh := tree.ServeBackground(ctx)

	deadline := time.After(5 * time.Second)
	for !serving.wasStarted() || !analytics.wasStarted() {
		select {
		case <-deadline:
			t.Fatalf("services not started: serving=%v analytics=%v",
				serving.wasStarted(), analytics.wasStarted())
		case <-time.After(10 * time.Millisecond):
		}
	}

	cancel()
	select {
	case <-errCh:
	case <-time.After(5 * time.Second):
		t.Fatal("tree did not stop after cancellation")
	}
}

func TestNewTreeAppliesDefaults(t *testing.T) {
	tree := NewTree(discardLogger(), TreeConfig{})

	if tree.config.FailureThreshold != 5.0 {
		t.Errorf("FailureThreshold = %v, want 5.0", tree.config.FailureThreshold)
	}
	if tree.config.FailureDecay != 30.0 {
		t.Errorf("FailureDecay = %v, want 30.0", tree.config.FailureDecay)
	}
	if tree.config.FailureBackoff != 15*time.Second {
		t.Errorf("FailureBackoff = %v, want 15s", tree.config.FailureBackoff)
	}
	if tree.config.ShutdownTimeout != 10*time.Second {
		t.Errorf("ShutdownTimeout = %v, want 10s", tree.config.ShutdownTimeout)
	}
}
