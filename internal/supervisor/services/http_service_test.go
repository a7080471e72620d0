// Affinity - Graph-Backed Personalized Feed
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/openclique/affinity

package services

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"testing"
	"time"
)

// mockServer scripts ListenAndServe and records Shutdown calls.
type mockServer struct {
	mu           sync.Mutex
	listenResult chan error
	shutdownErr  error
	shutdowns    int
}

func newMockServer() *mockServer {
	return &mockServer{listenResult: make(chan error, 1)}
}

func (m *mockServer) ListenAndServe() error {
	return <-m.listenResult
}

func (m *mockServer) Shutdown(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.shutdowns++
	// Unblock the ListenAndServe goroutine the way net/http does.
	select {
	case m.listenResult <- http.ErrServerClosed:
	default:
	}
	return m.shutdownErr
}

func (m *mockServer) shutdownCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.shutdowns
}

func TestHTTPServiceStartFailure(t *testing.T) {
	server := newMockServer()
	server.listenResult <- errors.New("address in use")

	err := NewHTTPServerService(server, time.Second).Serve(context.Background())
	if err == nil {
		t.Fatal("start failure not propagated")
	}
}

func TestHTTPServiceGracefulShutdown(t *testing.T) {
	server := newMockServer()
	svc := NewHTTPServerService(server, time.Second)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- svc.Serve(ctx) }()

	cancel()

	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("error = %v, want context.Canceled", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Serve did not return after cancellation")
	}

	if server.shutdownCount() != 1 {
		t.Errorf("shutdowns = %d, want 1", server.shutdownCount())
	}
}

func TestHTTPServiceCleanCloseIsNil(t *testing.T) {
	server := newMockServer()
	server.listenResult <- http.ErrServerClosed

	if err := NewHTTPServerService(server, time.Second).Serve(context.Background()); err != nil {
		t.Errorf("clean close returned %v, want nil", err)
	}
}

func TestHTTPServiceString(t *testing.T) {
	if got := NewHTTPServerService(newMockServer(), time.Second).String(); got != "http-server" {
		t.Errorf("String = %q, want http-server", got)
	}
}
