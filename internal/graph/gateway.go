// Affinity - Graph-Backed Personalized Feed
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/openclique/affinity

// Package graph provides the narrow query capability Affinity needs from
// its graph backend: parameterized query execution with typed row access.
//
// The production implementation speaks Bolt to Memgraph or Neo4j. The
// Gateway interface exists so the feed pipeline and the analytics
// scheduler can be tested against an in-memory fake.
package graph

import "context"

// Query is one named, parameterized query. The name identifies the
// operation in logs and metrics; it never reaches the backend.
type Query struct {
	Name   string
	Text   string
	Params map[string]any
}

// Gateway executes queries against the graph backend. Implementations
// must be safe for concurrent use; the handle is shared by all in-flight
// requests and the analytics scheduler.
type Gateway interface {
	Execute(ctx context.Context, q Query) ([]Record, error)
}

// Record is one result row: a mapping from column name to typed value.
type Record struct {
	fields map[string]any
}

// NewRecord builds a Record from raw column values. Exposed for fakes.
func NewRecord(fields map[string]any) Record {
	return Record{fields: fields}
}

// String returns the named column as a string.
func (r Record) String(key string) (string, bool) {
	v, ok := r.fields[key].(string)
	return v, ok
}

// Int returns the named column as an int64.
func (r Record) Int(key string) (int64, bool) {
	switch v := r.fields[key].(type) {
	case int64:
		return v, true
	case int:
		return int64(v), true
	default:
		return 0, false
	}
}

// Bool returns the named column as a bool.
func (r Record) Bool(key string) (bool, bool) {
	v, ok := r.fields[key].(bool)
	return v, ok
}

// StringSlice returns the named column as a slice of strings. Bolt
// returns lists as []any; each element must itself be a string.
func (r Record) StringSlice(key string) ([]string, bool) {
	switch v := r.fields[key].(type) {
	case []string:
		return v, true
	case []any:
		out := make([]string, 0, len(v))
		for _, e := range v {
			s, ok := e.(string)
			if !ok {
				return nil, false
			}
			out = append(out, s)
		}
		return out, true
	default:
		return nil, false
	}
}

// Node returns the named column as a graph node.
func (r Record) Node(key string) (Node, bool) {
	return asNode(r.fields[key])
}

// Node is a graph node's property bag.
type Node struct {
	Props map[string]any
}

// String returns the named node property as a string.
func (n Node) String(key string) (string, bool) {
	v, ok := n.Props[key].(string)
	return v, ok
}

// Int returns the named node property as an int64.
func (n Node) Int(key string) (int64, bool) {
	switch v := n.Props[key].(type) {
	case int64:
		return v, true
	case int:
		return int64(v), true
	default:
		return 0, false
	}
}

// StringSlice returns the named node property as a slice of strings.
func (n Node) StringSlice(key string) ([]string, bool) {
	return NewRecord(n.Props).StringSlice(key)
}
