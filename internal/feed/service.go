// Affinity - Graph-Backed Personalized Feed
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/openclique/affinity

package feed

import (
	"context"
	"fmt"

	"github.com/openclique/affinity/internal/logging"
	"github.com/openclique/affinity/internal/metrics"
)

// Request-level error codes that are not tied to one source.
const (
	CodeInvalidIdentity = "invalid_identity"
	CodeRankingFailed   = "ranking_failed"
)

// Error is a pipeline failure with a stable machine-readable code and
// a human-readable message for the caller.
type Error struct {
	Code    string
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// candidateFetcher and similarityRanker are the pipeline stages the
// service sequences, kept as interfaces so tests can count calls.
type candidateFetcher interface {
	FetchAll(ctx context.Context, identity string, sources []Source) ([]CandidateSet, []*SourceError)
}

type similarityRanker interface {
	Rank(ctx context.Context, identity string, candidates CandidateSet) (RankedFeed, error)
}

// Service assembles one user's feed: fetch candidates from every
// source, aggregate with first-seen-wins dedup, then hand the
// aggregate to the backend's similarity ranking. The stages run
// strictly in order because ranking needs the complete aggregate; only
// the fetch stage is internally parallel.
type Service struct {
	fetcher candidateFetcher
	ranker  similarityRanker
	sources []Source
}

// NewService wires the pipeline stages over the shared gateway.
func NewService(fetcher candidateFetcher, ranker similarityRanker) *Service {
	return &Service{
		fetcher: fetcher,
		ranker:  ranker,
		sources: DefaultSources(),
	}
}

// ForYou builds the personalized feed for one authenticated identity.
// It returns exactly one of: a ranked feed, an empty feed, or an
// *Error carrying a stable code.
//
// Any single source failing fails the whole request. Two sources
// succeeding does not soften this: the reference behavior is
// deliberately conservative and partial feeds are not served.
func (s *Service) ForYou(ctx context.Context, identity string) (RankedFeed, error) {
	if identity == "" {
		metrics.FeedRequestsTotal.WithLabelValues("invalid").Inc()
		return nil, &Error{Code: CodeInvalidIdentity, Message: "Invalid token"}
	}

	logger := logging.Ctx(ctx).With().Str("identity", identity).Logger()

	// Fetching
	sets, srcErrs := s.fetcher.FetchAll(ctx, identity, s.sources)
	if len(srcErrs) > 0 {
		first := srcErrs[0]
		logger.Error().
			Err(first.Err).
			Str("source", first.Source.Name).
			Int("failed_sources", len(srcErrs)).
			Msg("candidate fetch failed")
		metrics.FeedRequestsTotal.WithLabelValues("source_error").Inc()
		return nil, &Error{Code: first.Source.Code, Message: first.Source.Message, Err: first.Err}
	}

	// Aggregating
	aggregate := Deduplicate(sets)
	if len(aggregate) == 0 {
		// Nothing to rank; an empty feed is a success, not an error.
		logger.Debug().Msg("no candidates after aggregation")
		metrics.FeedRequestsTotal.WithLabelValues("empty").Inc()
		return RankedFeed{}, nil
	}

	// Ranking
	feed, err := s.ranker.Rank(ctx, identity, aggregate)
	if err != nil {
		logger.Error().Err(err).Int("candidates", len(aggregate)).Msg("similarity ranking failed")
		metrics.FeedRequestsTotal.WithLabelValues("ranking_error").Inc()
		return nil, &Error{Code: CodeRankingFailed, Message: "Cannot rank candidates", Err: err}
	}

	logger.Debug().
		Int("candidates", len(aggregate)).
		Int("ranked", len(feed)).
		Msg("feed assembled")
	metrics.FeedRequestsTotal.WithLabelValues("ok").Inc()
	return feed, nil
}
