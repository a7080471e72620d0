// Affinity - Graph-Backed Personalized Feed
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/openclique/affinity

package feed

// Candidate source queries. Each binds the requesting user's identity
// as $id and returns unviewed posts as the p column, already bounded
// server-side.
const (
	// Posts sharing a tag with the user's most recently liked post.
	queryLikedTagPosts = "MATCH (u:User {name: $id})-[:LIKE]->(p:Post)-[:SHOW]->(t:Tag) WITH u, p, t ORDER BY p.id DESC LIMIT 1 WITH u, t MATCH (p:Post)-[:SHOW]->(t:Tag) WHERE NOT EXISTS((u)-[:VIEW]->(p)) WITH p ORDER BY p.id DESC LIMIT 10 RETURN p;"

	// Recent posts from accounts the user subscribes to.
	queryFollowingPosts = "MATCH (n:User {name: $id})-[:SUBSCRIBER]->(u:User) MATCH (u)-[:CREATE]->(p:Post) WHERE NOT EXISTS((n)-[:VIEW]->(p)) WITH p ORDER BY p.id DESC LIMIT 20 RETURN p;"

	// Well-connected recent posts from the user's detected community.
	queryCommunityPosts = "MATCH (u:User {name: $id}) WITH u MATCH (a:User {community: u.community})-[r]->(p:Post) WHERE NOT EXISTS((u)-[:VIEW]->(p)) WITH p, count(r) as connections ORDER BY connections DESC LIMIT 100 WITH p ORDER BY p.id DESC LIMIT 30 RETURN p;"
)

// Stable machine-readable error codes for per-source failures, so
// callers can tell which signal was unavailable.
const (
	CodeLikedTagUnavailable  = "liked_tag_posts_unavailable"
	CodeFollowingUnavailable = "following_posts_unavailable"
	CodeCommunityUnavailable = "community_posts_unavailable"
)

// Source describes one candidate query: a name for logs and metrics,
// the error code surfaced when the query fails, and the query text.
type Source struct {
	Name    string
	Code    string
	Message string
	Query   string
}

// DefaultSources returns the fixed candidate sources in priority
// order: most-specific signal first. The order decides which source
// wins an ID collision during aggregation; do not reorder.
func DefaultSources() []Source {
	return []Source{
		{
			Name:    "liked-tag",
			Code:    CodeLikedTagUnavailable,
			Message: "Cannot get latest liked posts",
			Query:   queryLikedTagPosts,
		},
		{
			Name:    "following",
			Code:    CodeFollowingUnavailable,
			Message: "Cannot get latest following posts",
			Query:   queryFollowingPosts,
		},
		{
			Name:    "community",
			Code:    CodeCommunityUnavailable,
			Message: "Cannot get latest community posts",
			Query:   queryCommunityPosts,
		},
	}
}
