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

// MostLikedLimit bounds the platform-wide trending list.
const MostLikedLimit = 20

const queryMostLiked = "MATCH (u:User)-[:CREATE]->(p:Post)<-[r:LIKE]-(:User) WITH p, count(DISTINCT r) as numLikes, u.name AS author ORDER BY numLikes DESC LIMIT 20 RETURN p, numLikes, author;"

// Popular serves the unpersonalized trending list: the most-liked
// posts across the platform.
type Popular struct {
	gateway graph.Gateway
}

// NewPopular creates the trending list reader.
func NewPopular(gateway graph.Gateway) *Popular {
	return &Popular{gateway: gateway}
}

// MostLiked returns the most-liked posts, ordered by like count
// descending. Rows missing required fields are dropped.
func (p *Popular) MostLiked(ctx context.Context) (RankedFeed, error) {
	records, err := p.gateway.Execute(ctx, graph.Query{
		Name: "most-liked",
		Text: queryMostLiked,
	})
	if err != nil {
		return nil, fmt.Errorf("most liked posts: %w", err)
	}

	feed := make(RankedFeed, 0, len(records))
	for _, rec := range records {
		item, ok := decodePopularItem(rec)
		if !ok {
			logging.Ctx(ctx).Warn().
				Str("query", "most-liked").
				Msg("dropping trending row with missing fields")
			continue
		}
		feed = append(feed, item)
	}

	return feed, nil
}

func decodePopularItem(rec graph.Record) (RankedItem, bool) {
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
	author, ok := rec.String("author")
	if !ok {
		return RankedItem{}, false
	}
	likeCount, ok := rec.Int("numLikes")
	if !ok {
		return RankedItem{}, false
	}

	return RankedItem{
		ID:          id,
		Description: description,
		Author:      author,
		Hashes:      hashes,
		LikeCount:   likeCount,
	}, true
}
