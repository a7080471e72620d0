// Affinity - Graph-Backed Personalized Feed
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/openclique/affinity

// Package metrics provides Prometheus instrumentation for Affinity:
// graph query performance, API endpoint latency and throughput, feed
// pipeline outcomes, and analytics job execution.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Graph backend metrics
	GraphQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "graph_query_duration_seconds",
			Help:    "Duration of graph backend queries in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"},
	)

	GraphQueryErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "graph_query_errors_total",
			Help: "Total number of graph backend query errors",
		},
		[]string{"operation"},
	)

	// API endpoint metrics
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "endpoint", "status_code"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "API request duration in seconds",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"method", "endpoint"},
	)

	APIActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "api_active_requests",
			Help: "Number of API requests currently being served",
		},
	)

	// Feed pipeline metrics
	FeedRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "feed_requests_total",
			Help: "Total number of feed assembly requests by outcome",
		},
		[]string{"outcome"}, // "ok", "empty", "invalid", "source_error", "ranking_error"
	)

	FeedCandidatesFetched = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "feed_candidates_fetched",
			Help:    "Number of candidates returned per source query",
			Buckets: []float64{0, 1, 5, 10, 20, 30, 50, 100},
		},
		[]string{"source"},
	)

	FeedSourceErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "feed_source_errors_total",
			Help: "Total number of candidate source fetch failures",
		},
		[]string{"source"},
	)

	// Analytics scheduler metrics
	AnalyticsJobRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "analytics_job_runs_total",
			Help: "Total number of analytics job executions by result",
		},
		[]string{"job", "result"}, // result: "ok" or "error"
	)

	AnalyticsJobDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "analytics_job_duration_seconds",
			Help:    "Duration of analytics job executions in seconds",
			Buckets: []float64{0.1, 0.5, 1, 5, 15, 60, 300, 900},
		},
		[]string{"job"},
	)

	// Circuit breaker metrics
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)
)

// RecordGraphQuery records the duration and outcome of one graph query.
func RecordGraphQuery(operation string, duration time.Duration, err error) {
	GraphQueryDuration.WithLabelValues(operation).Observe(duration.Seconds())
	if err != nil {
		GraphQueryErrors.WithLabelValues(operation).Inc()
	}
}

// RecordAPIRequest records metrics for one completed API request.
func RecordAPIRequest(method, endpoint, statusCode string, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, endpoint, statusCode).Inc()
	APIRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// TrackActiveRequest increments or decrements the active request gauge.
func TrackActiveRequest(inc bool) {
	if inc {
		APIActiveRequests.Inc()
	} else {
		APIActiveRequests.Dec()
	}
}

// RecordAnalyticsJob records one analytics job execution.
func RecordAnalyticsJob(job string, duration time.Duration, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	AnalyticsJobRuns.WithLabelValues(job, result).Inc()
	AnalyticsJobDuration.WithLabelValues(job).Observe(duration.Seconds())
}
