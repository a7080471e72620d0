// Affinity - Graph-Backed Personalized Feed
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/openclique/affinity

package graph

import (
	"context"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/openclique/affinity/internal/logging"
	"github.com/openclique/affinity/internal/metrics"
)

// BreakerGateway wraps a Gateway with a circuit breaker so a down graph
// backend sheds load fast instead of stacking timed-out requests.
//
// The breaker uses real time for its interval and timeout calculations.
// Tests should fake the inner Gateway, not the breaker.
type BreakerGateway struct {
	inner Gateway
	cb    *gobreaker.CircuitBreaker[[]Record]
	name  string
}

// NewBreakerGateway wraps gw with a circuit breaker. The breaker opens
// after a 60% failure rate over at least 10 requests, waits one minute
// before probing, and admits 3 trial requests in half-open state.
func NewBreakerGateway(gw Gateway) *BreakerGateway {
	const name = "graph-backend"

	metrics.CircuitBreakerState.WithLabelValues(name).Set(0) // 0 = closed

	cb := gobreaker.NewCircuitBreaker[[]Record](gobreaker.Settings{
		Name:        name,
		MaxRequests: 3,
		Interval:    time.Minute,
		Timeout:     time.Minute,

		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < 10 {
				return false
			}
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return failureRatio >= 0.6
		},

		OnStateChange: func(name string, from, to gobreaker.State) {
			logging.Info().
				Str("breaker", name).
				Str("from", stateToString(from)).
				Str("to", stateToString(to)).
				Msg("circuit breaker state transition")
			metrics.CircuitBreakerState.WithLabelValues(name).Set(stateToFloat(to))
		},
	})

	return &BreakerGateway{inner: gw, cb: cb, name: name}
}

// Execute runs the query through the circuit breaker.
func (b *BreakerGateway) Execute(ctx context.Context, q Query) ([]Record, error) {
	return b.cb.Execute(func() ([]Record, error) {
		return b.inner.Execute(ctx, q)
	})
}

func stateToFloat(state gobreaker.State) float64 {
	switch state {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return -1
	}
}

func stateToString(state gobreaker.State) string {
	switch state {
	case gobreaker.StateClosed:
		return "closed"
	case gobreaker.StateHalfOpen:
		return "half-open"
	case gobreaker.StateOpen:
		return "open"
	default:
		return "unknown"
	}
}
