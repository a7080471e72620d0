// Affinity - Graph-Backed Personalized Feed
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/openclique/affinity

package feed

import (
	"context"
	"fmt"
	"sync"

	"github.com/openclique/affinity/internal/graph"
	"github.com/openclique/affinity/internal/logging"
	"github.com/openclique/affinity/internal/metrics"
)

// SourceError tags a candidate fetch failure with the source it came
// from, so the orchestrator can map it to a source-specific outcome.
type SourceError struct {
	Source Source
	Err    error
}

func (e *SourceError) Error() string {
	return fmt.Sprintf("source %s: %v", e.Source.Name, e.Err)
}

func (e *SourceError) Unwrap() error { return e.Err }

// Fetcher runs the candidate source queries concurrently against the
// shared gateway handle.
type Fetcher struct {
	gateway graph.Gateway
}

// NewFetcher creates a candidate fetcher over the given gateway.
func NewFetcher(gateway graph.Gateway) *Fetcher {
	return &Fetcher{gateway: gateway}
}

// FetchAll executes every source query in parallel with the identity
// bound as $id and joins before returning. The returned sets are
// aligned by index with the input sources; a failed source contributes
// an empty set plus an entry in the error slice. One source failing
// never cancels the queries already in flight.
func (f *Fetcher) FetchAll(ctx context.Context, identity string, sources []Source) ([]CandidateSet, []*SourceError) {
	sets := make([]CandidateSet, len(sources))
	failures := make([]*SourceError, len(sources))

	var wg sync.WaitGroup
	for i, src := range sources {
		wg.Add(1)
		go func(i int, src Source) {
			defer wg.Done()

			records, err := f.gateway.Execute(ctx, graph.Query{
				Name:   "candidates-" + src.Name,
				Text:   src.Query,
				Params: map[string]any{"id": identity},
			})
			if err != nil {
				metrics.FeedSourceErrors.WithLabelValues(src.Name).Inc()
				failures[i] = &SourceError{Source: src, Err: err}
				return
			}

			sets[i] = decodeCandidates(records)
			metrics.FeedCandidatesFetched.WithLabelValues(src.Name).Observe(float64(len(sets[i])))

			logging.Ctx(ctx).Debug().
				Str("source", src.Name).
				Int("candidates", len(sets[i])).
				Msg("candidate source fetched")
		}(i, src)
	}
	wg.Wait()

	var errs []*SourceError
	for _, failure := range failures {
		if failure != nil {
			errs = append(errs, failure)
		}
	}
	return sets, errs
}

// decodeCandidates extracts candidate IDs from source query rows. Rows
// whose p node is missing an id are skipped.
func decodeCandidates(records []graph.Record) CandidateSet {
	set := make(CandidateSet, 0, len(records))
	for _, rec := range records {
		node, ok := rec.Node("p")
		if !ok {
			continue
		}
		id, ok := node.String("id")
		if !ok {
			continue
		}
		set = append(set, CandidateID(id))
	}
	return set
}
