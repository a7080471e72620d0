// Affinity - Graph-Backed Personalized Feed
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/openclique/affinity

// Package feed implements the personalized feed pipeline: concurrent
// candidate fetch from several graph queries, first-seen-wins
// deduplication, and similarity ranking delegated to the graph
// backend.
package feed

// CandidateID identifies one content item eligible for a user's feed.
// IDs are unique within one source's result but can repeat across
// sources, which is why aggregation deduplicates.
type CandidateID string

// CandidateSet is an insertion-ordered sequence of candidate IDs
// produced by one source query. A set never contains internal
// duplicates; the owning query enforces that server-side.
type CandidateSet []CandidateID

// RankedItem is one fully decoded feed entry. Items are only ever
// constructed from rows that carry every required field; a row that
// fails to decode is dropped, never emitted with defaults.
type RankedItem struct {
	ID          string   `json:"id"`
	Description string   `json:"description"`
	Author      string   `json:"author"`
	Hashes      []string `json:"hashes"`
	LikeCount   int64    `json:"like_count"`
	Liked       bool     `json:"liked"`
}

// RankedFeed is the final ordered feed. Ordering comes from the
// backend's similarity score (descending) and is never re-sorted here.
type RankedFeed []RankedItem
