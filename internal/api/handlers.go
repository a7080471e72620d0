// Affinity - Graph-Backed Personalized Feed
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/openclique/affinity

package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/openclique/affinity/internal/auth"
	"github.com/openclique/affinity/internal/feed"
	"github.com/openclique/affinity/internal/logging"
)

// Handler dependencies, kept as interfaces so tests inject fakes.
type feedProvider interface {
	ForYou(ctx context.Context, identity string) (feed.RankedFeed, error)
}

type trendingProvider interface {
	MostLiked(ctx context.Context) (feed.RankedFeed, error)
}

type backendPinger interface {
	Ping(ctx context.Context) error
}

// Handler serves the feed routes and health probes.
type Handler struct {
	feed     feedProvider
	trending trendingProvider
	backend  backendPinger
}

// NewHandler creates the route handler.
func NewHandler(feedSvc feedProvider, trending trendingProvider, backend backendPinger) *Handler {
	return &Handler{
		feed:     feedSvc,
		trending: trending,
		backend:  backend,
	}
}

// ForYouFeed serves GET /recommendation/for_you_feed: the personalized
// feed for the authenticated identity. The response is the ranked item
// list, possibly empty, or a structured error.
func (h *Handler) ForYouFeed(w http.ResponseWriter, r *http.Request) {
	identity := auth.IdentityFromContext(r.Context())

	items, err := h.feed.ForYou(r.Context(), identity)
	if err != nil {
		var ferr *feed.Error
		if errors.As(err, &ferr) {
			respondError(w, r, feedErrorStatus(ferr), ferr.Message)
			return
		}
		logging.Ctx(r.Context()).Error().Err(err).Msg("feed request failed")
		respondError(w, r, http.StatusInternalServerError, "Internal server error")
		return
	}

	respondJSON(w, r, http.StatusOK, items)
}

// feedErrorStatus maps pipeline error codes onto HTTP statuses. Source
// fetch failures and a bad identity are the caller's 400; only a
// ranking failure is the service's own 500.
func feedErrorStatus(ferr *feed.Error) int {
	if ferr.Code == feed.CodeRankingFailed {
		return http.StatusInternalServerError
	}
	return http.StatusBadRequest
}

// MostLiked serves GET /recommendation/most_liked: the public trending
// list, no personalization.
func (h *Handler) MostLiked(w http.ResponseWriter, r *http.Request) {
	items, err := h.trending.MostLiked(r.Context())
	if err != nil {
		logging.Ctx(r.Context()).Error().Err(err).Msg("trending request failed")
		respondError(w, r, http.StatusInternalServerError, "Cannot get trending posts")
		return
	}

	respondJSON(w, r, http.StatusOK, items)
}

// HealthLive reports process liveness.
func (h *Handler) HealthLive(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, r, http.StatusOK, map[string]string{"status": "ok"})
}

// HealthReady reports readiness: the graph backend must answer a ping.
func (h *Handler) HealthReady(w http.ResponseWriter, r *http.Request) {
	if err := h.backend.Ping(r.Context()); err != nil {
		logging.Ctx(r.Context()).Warn().Err(err).Msg("readiness check failed")
		respondJSON(w, r, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
		return
	}
	respondJSON(w, r, http.StatusOK, map[string]string{"status": "ok"})
}
