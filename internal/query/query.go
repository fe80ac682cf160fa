// Package query evaluates boolean search expressions against the tag
// graph, producing lazy sequences of matched books paired with the
// explain-path that produced each match.
package query

import (
	"iter"
	"log/slog"

	"github.com/raphaelgruber/storyshelf/internal/library"
	"github.com/raphaelgruber/storyshelf/internal/taggraph"
)

// Default fan-out caps. They bound worst-case traversal cost on richly
// connected graphs; they are not fairness or preemption mechanisms.
const (
	DefaultMaxTags        = 1000
	DefaultMaxBooksPerTag = 10000
)

// Path is the ordered connection sequence that led from a start tag to a
// matched book, stripped of non-tag hops and self-loops.
type Path []*taggraph.Connection

// Result is a finite, single-pass sequence of (book, path) pairs. It is
// not restartable; re-run the query to iterate again.
type Result = iter.Seq2[*library.Book, Path]

// SortOrder selects result ordering. Unsorted results stream in
// traversal order.
type SortOrder uint8

const (
	SortNone SortOrder = iota
	SortAsc
	SortDesc
)

// ParseSortOrder maps a CLI flag value onto a SortOrder.
func ParseSortOrder(s string) SortOrder {
	switch s {
	case "asc":
		return SortAsc
	case "desc":
		return SortDesc
	default:
		return SortNone
	}
}

// Engine evaluates parsed search expressions over one library.
type Engine struct {
	lib    *library.Library
	graph  *taggraph.Graph
	logger *slog.Logger

	// MaxTags caps how many include tags a single retrieval may fan out
	// to; MaxBooksPerTag caps descendant entities collected per tag.
	MaxTags        int
	MaxBooksPerTag int
}

// New creates an engine with the default fan-out caps.
func New(lib *library.Library, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		lib:            lib,
		graph:          lib.Graph(),
		logger:         logger,
		MaxTags:        DefaultMaxTags,
		MaxBooksPerTag: DefaultMaxBooksPerTag,
	}
}

// Exec validates and evaluates a parsed expression. Structural problems
// (wrong arity, two tag operands under '^', non-array nodes) fail here;
// patterns that simply match nothing produce an empty sequence when the
// result is consumed.
func (e *Engine) Exec(ast any, sort SortOrder) (Result, error) {
	seq, err := e.eval(ast)
	if err != nil {
		return nil, err
	}
	if sort == SortNone {
		return seq, nil
	}
	return e.sorted(seq, sort), nil
}
