// Affinity - Graph-Backed Personalized Feed
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/openclique/affinity

// Package main is the entry point for the Affinity server.
//
// Affinity assembles personalized content feeds from a graph backend
// (Memgraph or Neo4j over Bolt): candidate posts are fetched from
// three sources in parallel, deduplicated, and ranked by Jaccard
// similarity against the user's recent likes. A supervised background
// scheduler recomputes the influence-rank and community-detection
// signals the candidate queries depend on at the top of every hour.
//
// # Configuration
//
// Configuration is loaded via koanf with layered sources (highest
// priority wins):
//   - Environment variables (GRAPH_URL, RSA_PUBLIC_KEY, ...)
//   - Config file (config.yaml, or CONFIG_PATH)
//   - Built-in defaults
//
// Minimal production setup:
//
//	export GRAPH_URL=bolt://memgraph:7687
//	export RSA_PUBLIC_KEY="$(cat public.pem)"
//	./affinity
//
// # Signal Handling
//
// The server shuts down gracefully on SIGINT and SIGTERM: new
// connections stop, in-flight requests drain under a timeout, and the
// analytics scheduler finishes any job already running.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/openclique/affinity/internal/analytics"
	"github.com/openclique/affinity/internal/api"
	"github.com/openclique/affinity/internal/auth"
	"github.com/openclique/affinity/internal/config"
	"github.com/openclique/affinity/internal/feed"
	"github.com/openclique/affinity/internal/graph"
	"github.com/openclique/affinity/internal/logging"
	"github.com/openclique/affinity/internal/supervisor"
	"github.com/openclique/affinity/internal/supervisor/services"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	})

	logging.Info().
		Str("graph_uri", cfg.Graph.URI).
		Int("port", cfg.Server.Port).
		Bool("analytics_enabled", cfg.Analytics.Enabled).
		Bool("auth_disabled", cfg.Security.AuthDisabled).
		Msg("Starting Affinity")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Graph backend behind the circuit breaker. The breaker guards the
	// serving path; analytics jobs share the same handle.
	bolt, err := graph.Connect(ctx, &cfg.Graph)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to connect to graph backend")
	}
	defer func() {
		if err := bolt.Close(ctx); err != nil {
			logging.Error().Err(err).Msg("Error closing graph connection")
		}
	}()
	gateway := graph.NewBreakerGateway(bolt)

	// Feed pipeline.
	fetcher := feed.NewFetcher(gateway)
	ranker := feed.NewRanker(gateway, cfg.Feed.TopK)
	feedSvc := feed.NewService(fetcher, ranker)
	popular := feed.NewPopular(gateway)

	// Token verification.
	var verifier *auth.Verifier
	if !cfg.Security.AuthDisabled {
		verifier, err = auth.NewVerifier(cfg.Security.RSAPublicKey)
		if err != nil {
			logging.Fatal().Err(err).Msg("Failed to load RSA public key")
		}
	} else {
		logging.Warn().Msg("Authentication disabled; tokens are trusted as identities")
	}
	authMW := api.NewAuthMiddleware(verifier, cfg.Security.AuthDisabled)

	handler := api.NewHandler(feedSvc, popular, bolt)
	router := api.NewRouter(handler, authMW, cfg.Security)

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router.Setup(),
		ReadTimeout:  cfg.Server.Timeout,
		WriteTimeout: cfg.Server.Timeout,
	}

	// Analytics scheduler.
	runner := analytics.NewRunner(gateway, cfg.Analytics.JobTimeout)
	scheduler := analytics.NewScheduler(runner, analytics.Config{Enabled: cfg.Analytics.Enabled})

	// Supervision tree: zerolog bridged to slog for suture's hook.
	tree := supervisor.NewTree(logging.NewSlogLogger(), supervisor.DefaultTreeConfig())
	tree.AddServingService(services.NewHTTPServerService(server, 10*time.Second))
	tree.AddAnalyticsService(services.NewAnalyticsService(scheduler))

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logging.Info().Str("signal", sig.String()).Msg("Received shutdown signal")
		cancel()
	}()

	logging.Info().Str("addr", server.Addr).Msg("Serving")

	errCh := tree.ServeBackground(ctx)
	for err := range errCh {
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor shutdown error")
		}
	}

	unstopped, _ := tree.UnstoppedServiceReport()
	for _, svc := range unstopped {
		logging.Warn().Str("service", svc.Name).Msg("Service failed to stop within timeout")
	}

	logging.Info().Msg("Shutdown complete")
}
