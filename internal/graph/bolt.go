// Affinity - Graph-Backed Personalized Feed
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/openclique/affinity

package graph

import (
	"context"
	"fmt"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	neo4jconfig "github.com/neo4j/neo4j-go-driver/v5/neo4j/config"
	"github.com/rs/zerolog"

	"github.com/openclique/affinity/internal/config"
	"github.com/openclique/affinity/internal/logging"
	"github.com/openclique/affinity/internal/metrics"
)

// BoltGateway is the production Gateway over the Bolt protocol.
// The underlying driver pools connections and is safe for concurrent use.
type BoltGateway struct {
	driver  neo4j.DriverWithContext
	timeout time.Duration
	logger  zerolog.Logger
}

// Connect opens a Bolt connection pool to the configured graph backend.
// Connectivity is verified before returning.
func Connect(ctx context.Context, cfg *config.GraphConfig) (*BoltGateway, error) {
	driver, err := neo4j.NewDriverWithContext(
		cfg.URI,
		neo4j.BasicAuth(cfg.Username, cfg.Password, ""),
		func(c *neo4jconfig.Config) {
			if cfg.MaxPoolSize > 0 {
				c.MaxConnectionPoolSize = cfg.MaxPoolSize
			}
		},
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create bolt driver: %w", err)
	}

	if err := driver.VerifyConnectivity(ctx); err != nil {
		return nil, fmt.Errorf("graph backend unreachable at %s: %w", cfg.URI, err)
	}

	return &BoltGateway{
		driver:  driver,
		timeout: cfg.QueryTimeout,
		logger:  logging.WithComponent("graph"),
	}, nil
}

// Execute runs one query and materializes all result rows. Each call is
// bounded by the configured query timeout.
func (g *BoltGateway) Execute(ctx context.Context, q Query) ([]Record, error) {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	start := time.Now()
	records, err := g.run(ctx, q)
	metrics.RecordGraphQuery(q.Name, time.Since(start), err)

	if err != nil {
		g.logger.Error().
			Err(err).
			Str("query", q.Name).
			Dur("duration", time.Since(start)).
			Msg("graph query failed")
		return nil, fmt.Errorf("query %s: %w", q.Name, err)
	}

	g.logger.Debug().
		Str("query", q.Name).
		Int("rows", len(records)).
		Dur("duration", time.Since(start)).
		Msg("graph query complete")

	return records, nil
}

func (g *BoltGateway) run(ctx context.Context, q Query) ([]Record, error) {
	// Analytics jobs mutate node properties, so every session is opened
	// in write mode. The backend routes reads appropriately.
	session := g.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeWrite})
	defer session.Close(ctx)

	result, err := session.Run(ctx, q.Text, q.Params)
	if err != nil {
		return nil, err
	}

	var records []Record
	for result.Next(ctx) {
		rec := result.Record()
		fields := make(map[string]any, len(rec.Keys))
		for i, key := range rec.Keys {
			fields[key] = rec.Values[i]
		}
		records = append(records, Record{fields: fields})
	}

	if err := result.Err(); err != nil {
		return nil, err
	}
	return records, nil
}

// Ping verifies backend connectivity, for readiness probes.
func (g *BoltGateway) Ping(ctx context.Context) error {
	return g.driver.VerifyConnectivity(ctx)
}

// Close releases the connection pool.
func (g *BoltGateway) Close(ctx context.Context) error {
	return g.driver.Close(ctx)
}

// asNode converts a raw column value to a Node. It accepts the driver's
// node type and the package's own Node (used by fakes in tests).
func asNode(v any) (Node, bool) {
	switch n := v.(type) {
	case neo4j.Node:
		return Node{Props: n.Props}, true
	case Node:
		return n, true
	default:
		return Node{}, false
	}
}
