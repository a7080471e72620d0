// Affinity - Graph-Backed Personalized Feed
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/openclique/affinity

// Package analytics maintains the graph signals the feed pipeline
// reads but never computes inline: per-user influence rank and
// community assignment. Both are recomputed in the background on an
// hourly cadence so feed requests only ever read precomputed values.
package analytics

import (
	"context"
	"time"

	"github.com/openclique/affinity/internal/graph"
	"github.com/openclique/affinity/internal/metrics"
)

// queryInfluenceRank recomputes every user's influence score over the
// social graph, excluding Block edges, and writes it back to the node.
const queryInfluenceRank = "MATCH p=(n:User)-[r]->(m:User) WHERE type(r) <> 'Block' WITH project(p) as graph CALL pagerank_online.update(graph) YIELD node, rank SET node.rank = rank;"

// queryCommunityDetection reassigns every user's community id from the
// projected graph, excluding Block and View edges. Only User nodes
// take the write; posts and tags pass through the projection unlabeled.
const queryCommunityDetection = "MATCH p=(n:User)-[r]->(m) WHERE type(r) <> 'Block' AND type(r) <> 'View' WITH project(p) as graph CALL community_detection_online.update(graph) YIELD node, community_id WITH node, community_id WHERE labels(node) = ['User'] SET node.community = community_id;"

// Job is one recomputation the scheduler submits to the backend.
type Job struct {
	Name  string
	Query string
}

// DefaultJobs returns the hourly recomputations in execution order.
// Influence rank runs first so a community pass over a refreshed
// ranking never observes a half-updated graph within one cycle.
func DefaultJobs() []Job {
	return []Job{
		{Name: "influence-rank", Query: queryInfluenceRank},
		{Name: "community-detection", Query: queryCommunityDetection},
	}
}

// Runner executes analytics jobs against the graph backend.
type Runner struct {
	gateway graph.Gateway
	timeout time.Duration
}

// NewRunner creates a job runner with the given per-job timeout.
func NewRunner(gateway graph.Gateway, timeout time.Duration) *Runner {
	if timeout <= 0 {
		timeout = 5 * time.Minute
	}
	return &Runner{gateway: gateway, timeout: timeout}
}

// Run executes one job under the runner's timeout. The result rows
// are discarded; these queries write their output into the graph.
func (r *Runner) Run(ctx context.Context, job Job) error {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	start := time.Now()
	_, err := r.gateway.Execute(ctx, graph.Query{
		Name: "analytics-" + job.Name,
		Text: job.Query,
	})
	metrics.RecordAnalyticsJob(job.Name, time.Since(start), err)
	return err
}
