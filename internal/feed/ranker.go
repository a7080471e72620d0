// Affinity - Graph-Backed Personalized Feed
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/openclique/affinity

package feed

import (
	"context"
	"fmt"

	"github.com/openclique/affinity/internal/graph"
	"github.com/openclique/affinity/internal/logging"
)

// DefaultTopK bounds the ranked feed size. The backend applies the
// limit; this layer never truncates or reorders.
const DefaultTopK = 15

// querySimilarity asks the backend to score the candidate list against
// the user's ten most recent likes with pairwise Jaccard similarity,
// keep the top $k, and enrich each survivor with its author, like
// count, and whether the requester already liked it.
const querySimilarity = "MATCH (u:User {name: $id})-[:LIKE]->(p:Post) WITH u, p LIMIT 10 MATCH (l:Post) WHERE l.id IN $list WITH l, p ORDER BY p.id DESC WITH collect(l) as posts, collect(p) as likedPosts CALL node_similarity.jaccard_pairwise(posts, likedPosts) YIELD node1, node2, similarity WITH node1, similarity ORDER BY similarity DESC LIMIT $k OPTIONAL MATCH (a:User)-[:LIKE]->(node1) WITH node1, count(DISTINCT a) as numLikes MATCH (creator:User)-[:CREATE]-(node1) WITH node1, numLikes, creator OPTIONAL MATCH (:User {name: $id})-[r:LIKE]-(node1) RETURN node1 as p, numLikes, creator, CASE WHEN r IS NULL THEN false ELSE true END as liked;"

// Ranker submits the aggregated candidates to the backend's similarity
// operation and decodes the ranked rows.
type Ranker struct {
	gateway graph.Gateway
	topK    int
}

// NewRanker creates a similarity ranker bounded to topK results.
// A non-positive topK falls back to DefaultTopK.
func NewRanker(gateway graph.Gateway, topK int) *Ranker {
	if topK <= 0 {
		topK = DefaultTopK
	}
	return &Ranker{gateway: gateway, topK: topK}
}

// Rank scores the candidates against the user's recent likes and
// returns the backend's ordering unchanged. A backend failure fails
// the whole call; there is no meaningful partial ranking.
func (r *Ranker) Rank(ctx context.Context, identity string, candidates CandidateSet) (RankedFeed, error) {
	ids := make([]string, len(candidates))
	for i, id := range candidates {
		ids[i] = string(id)
	}

	records, err := r.gateway.Execute(ctx, graph.Query{
		Name: "similarity-rank",
		Text: querySimilarity,
		Params: map[string]any{
			"id":   identity,
			"list": ids,
			"k":    r.topK,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("similarity ranking: %w", err)
	}

	feed := make(RankedFeed, 0, len(records))
	for _, rec := range records {
		item, ok := decodeRankedItem(rec)
		if !ok {
			logging.Ctx(ctx).Warn().
				Str("query", "similarity-rank").
				Msg("dropping ranked row with missing fields")
			continue
		}
		feed = append(feed, item)
	}

	return feed, nil
}

// decodeRankedItem decodes one similarity row. Every field is
// required; a row missing any of them is reported as not ok so the
// caller can drop it without aborting the rest of the decode.
func decodeRankedItem(rec graph.Record) (RankedItem, bool) {
	post, ok := rec.Node("p")
	if !ok {
		return RankedItem{}, false
	}
	id, ok := post.String("id")
	if !ok {
		return RankedItem{}, false
	}
	description, ok := post.String("description")
	if !ok {
		return RankedItem{}, false
	}
	hashes, ok := post.StringSlice("hash")
	if !ok {
		return RankedItem{}, false
	}

	creator, ok := rec.Node("creator")
	if !ok {
		return RankedItem{}, false
	}
	author, ok := creator.String("name")
	if !ok {
		return RankedItem{}, false
	}

	likeCount, ok := rec.Int("numLikes")
	if !ok {
		return RankedItem{}, false
	}
	liked, ok := rec.Bool("liked")
	if !ok {
		return RankedItem{}, false
	}

	return RankedItem{
		ID:          id,
		Description: description,
		Author:      author,
		Hashes:      hashes,
		LikeCount:   likeCount,
		Liked:       liked,
	}, true
}
