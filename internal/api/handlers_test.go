// Affinity - Graph-Backed Personalized Feed
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/openclique/affinity

package api

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/goccy/go-json"

	"github.com/openclique/affinity/internal/config"
	"github.com/openclique/affinity/internal/feed"
)

type fakeFeed struct {
	items    feed.RankedFeed
	err      error
	identity string
}

func (f *fakeFeed) ForYou(ctx context.Context, identity string) (feed.RankedFeed, error) {
	f.identity = identity
	return f.items, f.err
}

type fakeTrending struct {
	items feed.RankedFeed
	err   error
}

func (f *fakeTrending) MostLiked(ctx context.Context) (feed.RankedFeed, error) {
	return f.items, f.err
}

type fakePinger struct {
	err error
}

func (f *fakePinger) Ping(ctx context.Context) error { return f.err }

// newTestServer builds the full route tree with auth in trust mode, so
// the Authorization header value is the identity.
func newTestServer(t *testing.T, feedSvc feedProvider, trending trendingProvider, backend backendPinger) http.Handler {
	t.Helper()
	handler := NewHandler(feedSvc, trending, backend)
	return NewRouter(handler, NewAuthMiddleware(nil, true), config.SecurityConfig{}).Setup()
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) ErrorResponse {
	t.Helper()
	var resp ErrorResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decoding error response %q: %v", w.Body.String(), err)
	}
	return resp
}

func TestForYouFeedReturnsItems(t *testing.T) {
	feedSvc := &fakeFeed{items: feed.RankedFeed{
		{ID: "p1", Description: "d1", Author: "bob", Hashes: []string{"h1"}, LikeCount: 4, Liked: true},
	}}
	srv := newTestServer(t, feedSvc, &fakeTrending{}, &fakePinger{})

	r := httptest.NewRequest(http.MethodGet, "/recommendation/for_you_feed", nil)
	r.Header.Set("Authorization", "alice")
	w := httptest.NewRecorder()
	srv.ServeHTTP(w, r)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200; body %s", w.Code, w.Body.String())
	}
	if feedSvc.identity != "alice" {
		t.Errorf("identity = %q, want alice", feedSvc.identity)
	}

	var items []map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &items); err != nil {
		t.Fatalf("decoding body: %v", err)
	}
	if len(items) != 1 {
		t.Fatalf("items = %d, want 1", len(items))
	}
	for _, field := range []string{"id", "description", "author", "hashes", "like_count", "liked"} {
		if _, ok := items[0][field]; !ok {
			t.Errorf("missing field %q in %v", field, items[0])
		}
	}
}

func TestForYouFeedEmptyListNotNull(t *testing.T) {
	srv := newTestServer(t, &fakeFeed{items: feed.RankedFeed{}}, &fakeTrending{}, &fakePinger{})

	r := httptest.NewRequest(http.MethodGet, "/recommendation/for_you_feed", nil)
	r.Header.Set("Authorization", "alice")
	w := httptest.NewRecorder()
	srv.ServeHTTP(w, r)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if body := w.Body.String(); body != "[]" {
		t.Errorf("body = %q, want []", body)
	}
}

func TestForYouFeedMissingToken(t *testing.T) {
	srv := newTestServer(t, &fakeFeed{}, &fakeTrending{}, &fakePinger{})

	w := httptest.NewRecorder()
	srv.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/recommendation/for_you_feed", nil))

	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
	resp := decodeError(t, w)
	if !resp.Error || resp.Message != "Invalid token" {
		t.Errorf("response = %+v, want error with Invalid token", resp)
	}
}

func TestForYouFeedStatusMapping(t *testing.T) {
	src := feed.DefaultSources()[0]
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantMsg    string
	}{
		{
			name:       "source failure is a 400 with the source message",
			err:        &feed.Error{Code: src.Code, Message: src.Message},
			wantStatus: http.StatusBadRequest,
			wantMsg:    src.Message,
		},
		{
			name:       "invalid identity is a 400",
			err:        &feed.Error{Code: feed.CodeInvalidIdentity, Message: "Invalid token"},
			wantStatus: http.StatusBadRequest,
			wantMsg:    "Invalid token",
		},
		{
			name:       "ranking failure is a 500",
			err:        &feed.Error{Code: feed.CodeRankingFailed, Message: "Cannot rank candidates"},
			wantStatus: http.StatusInternalServerError,
			wantMsg:    "Cannot rank candidates",
		},
		{
			name:       "unclassified failure is a 500",
			err:        errors.New("boom"),
			wantStatus: http.StatusInternalServerError,
			wantMsg:    "Internal server error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newTestServer(t, &fakeFeed{err: tt.err}, &fakeTrending{}, &fakePinger{})

			r := httptest.NewRequest(http.MethodGet, "/recommendation/for_you_feed", nil)
			r.Header.Set("Authorization", "alice")
			w := httptest.NewRecorder()
			srv.ServeHTTP(w, r)

			if w.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", w.Code, tt.wantStatus)
			}
			resp := decodeError(t, w)
			if !resp.Error || resp.Message != tt.wantMsg {
				t.Errorf("response = %+v, want error %q", resp, tt.wantMsg)
			}
		})
	}
}

func TestMostLikedIsPublic(t *testing.T) {
	trending := &fakeTrending{items: feed.RankedFeed{{ID: "p1", Author: "bob"}}}
	srv := newTestServer(t, &fakeFeed{}, trending, &fakePinger{})

	// No Authorization header at all.
	w := httptest.NewRecorder()
	srv.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/recommendation/most_liked", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200; body %s", w.Code, w.Body.String())
	}
}

func TestMostLikedBackendFailure(t *testing.T) {
	srv := newTestServer(t, &fakeFeed{}, &fakeTrending{err: errors.New("down")}, &fakePinger{})

	w := httptest.NewRecorder()
	srv.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/recommendation/most_liked", nil))

	if w.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", w.Code)
	}
}

func TestHealthEndpoints(t *testing.T) {
	t.Run("live", func(t *testing.T) {
		srv := newTestServer(t, &fakeFeed{}, &fakeTrending{}, &fakePinger{})
		w := httptest.NewRecorder()
		srv.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health/live", nil))
		if w.Code != http.StatusOK {
			t.Errorf("live status = %d, want 200", w.Code)
		}
	})

	t.Run("ready with healthy backend", func(t *testing.T) {
		srv := newTestServer(t, &fakeFeed{}, &fakeTrending{}, &fakePinger{})
		w := httptest.NewRecorder()
		srv.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
		if w.Code != http.StatusOK {
			t.Errorf("ready status = %d, want 200", w.Code)
		}
	})

	t.Run("ready with down backend", func(t *testing.T) {
		srv := newTestServer(t, &fakeFeed{}, &fakeTrending{}, &fakePinger{err: errors.New("no route")})
		w := httptest.NewRecorder()
		srv.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
		if w.Code != http.StatusServiceUnavailable {
			t.Errorf("ready status = %d, want 503", w.Code)
		}
	})
}

func TestMetricsEndpointExposed(t *testing.T) {
	srv := newTestServer(t, &fakeFeed{}, &fakeTrending{}, &fakePinger{})
	w := httptest.NewRecorder()
	srv.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if w.Code != http.StatusOK {
		t.Errorf("metrics status = %d, want 200", w.Code)
	}
}

func TestRequestIDHeaderOnResponses(t *testing.T) {
	srv := newTestServer(t, &fakeFeed{}, &fakeTrending{}, &fakePinger{})
	w := httptest.NewRecorder()
	srv.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health/live", nil))
	if w.Header().Get("X-Request-ID") == "" {
		t.Error("no X-Request-ID header on response")
	}
}
