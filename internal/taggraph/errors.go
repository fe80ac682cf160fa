package taggraph

import "errors"

// Sentinel errors for graph operations.
// Use errors.Is() to check for these errors in calling code.
var (
	// ErrNotFound indicates a tag was looked up without createIfMissing
	// and no tag (or alias) of that name exists.
	ErrNotFound = errors.New("tag not found")

	// ErrEntityEdge indicates an attempt to connect two entities.
	// Entities never outrank tags in the graph.
	ErrEntityEdge = errors.New("entity-to-entity connections are not allowed")
)
