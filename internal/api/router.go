// Affinity - Graph-Backed Personalized Feed
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/openclique/affinity

package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/openclique/affinity/internal/auth"
	"github.com/openclique/affinity/internal/config"
	"github.com/openclique/affinity/internal/middleware"
)

// Router wires handlers and middleware into the served route tree.
type Router struct {
	handler  *Handler
	authMW   *auth.Middleware
	security config.SecurityConfig
}

// NewAuthMiddleware builds the token verification middleware bound to
// this package's error wire format.
func NewAuthMiddleware(verifier *auth.Verifier, disabled bool) *auth.Middleware {
	return auth.NewMiddleware(verifier, disabled, respondError)
}

// NewRouter creates the route tree builder.
func NewRouter(handler *Handler, authMW *auth.Middleware, security config.SecurityConfig) *Router {
	return &Router{
		handler:  handler,
		authMW:   authMW,
		security: security,
	}
}

// Setup builds the served handler.
//
// Health and metrics stay outside the rate limit so monitoring keeps
// working when clients are being shed.
func (rt *Router) Setup() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", rt.handler.HealthLive)
		r.Get("/ready", rt.handler.HealthReady)
	})

	r.Handle("/metrics", promhttp.Handler())

	r.Route("/recommendation", func(r chi.Router) {
		r.Use(middleware.PrometheusMetrics)
		r.Use(httprate.LimitByRealIP(rt.rateLimit()))

		r.Get("/most_liked", rt.handler.MostLiked)
		r.With(rt.authMW.Handler).Get("/for_you_feed", rt.handler.ForYouFeed)
	})

	return r
}

func (rt *Router) rateLimit() (int, time.Duration) {
	reqs := rt.security.RateLimitReqs
	if reqs <= 0 {
		reqs = 100
	}
	window := rt.security.RateLimitWindow
	if window <= 0 {
		window = time.Minute
	}
	return reqs, window
}
