package library

import (
	"errors"
	"fmt"
	"log/slog"
	"sort"

	"github.com/raphaelgruber/storyshelf/internal/taggraph"
)

// Sentinel errors for library operations.
var (
	// ErrAmbiguousResult indicates an operation expecting exactly one
	// match found zero or more than one.
	ErrAmbiguousResult = errors.New("ambiguous result")

	// ErrUnknownIndex indicates a source index name or alias that is not
	// registered with the library.
	ErrUnknownIndex = errors.New("unknown index")
)

// Library is the root of the ownership tree. It owns the book map and
// the shared index descriptors, and registers every added book into the
// tag graph. One instance lives for the duration of a CLI invocation.
type Library struct {
	graph   *taggraph.Graph
	books   map[BookKey]*Book
	indexes map[string]*IndexDescriptor // keyed by name and by alias
	logger  *slog.Logger
}

// New creates an empty library over the given graph.
func New(g *taggraph.Graph, logger *slog.Logger) *Library {
	if logger == nil {
		logger = slog.Default()
	}
	return &Library{
		graph:   g,
		books:   make(map[BookKey]*Book),
		indexes: make(map[string]*IndexDescriptor),
		logger:  logger,
	}
}

// Graph returns the tag graph the library projects into.
func (l *Library) Graph() *taggraph.Graph { return l.graph }

// AddIndex registers a source-index descriptor under its name and alias.
func (l *Library) AddIndex(desc *IndexDescriptor) {
	l.indexes[desc.Name] = desc
	if desc.Alias != "" {
		l.indexes[desc.Alias] = desc
	}
}

// Index resolves a name or alias to its descriptor.
func (l *Library) Index(nameOrAlias string) (*IndexDescriptor, error) {
	if d, ok := l.indexes[nameOrAlias]; ok {
		return d, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownIndex, nameOrAlias)
}

// AddBook inserts a book under its key. A colliding incumbent has its
// whole descriptor subtree detached from the graph before the new book
// is linked.
func (l *Library) AddBook(b *Book) error {
	key := b.Key()
	if old, ok := l.books[key]; ok {
		l.logger.Debug("replacing book", "key", key.String())
		old.UnsetTags(l.graph)
		delete(l.books, key)
	}
	l.books[key] = b
	if err := b.SetTags(l.graph); err != nil {
		return fmt.Errorf("register book %s: %w", key.String(), err)
	}
	return nil
}

// Has reports whether this exact book instance is the one registered
// under its key.
func (l *Library) Has(b *Book) bool {
	return l.books[b.Key()] == b
}

// Len returns the number of registered books.
func (l *Library) Len() int { return len(l.books) }

// Books returns all books ordered by key, for deterministic iteration.
func (l *Library) Books() []*Book {
	out := make([]*Book, 0, len(l.books))
	for _, b := range l.books {
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Key().String() < out[j].Key().String()
	})
	return out
}

// GetBook finds the single book matching an index name and story id via
// a two-condition composite graph search. O(search), not O(1): the
// collection is small and the graph is the source of truth for
// membership. Fails with ErrAmbiguousResult on zero or multiple matches.
//
// A story id reused across two pages of the same index makes this lookup
// genuinely ambiguous; the library key includes the page, the lookup
// does not. Left unresolved, the error surfaces it to the caller.
func (l *Library) GetBook(indexName, storyID string) (*Book, error) {
	byIndex := l.booksUnderValue(DimIndex, indexName)
	byID := l.booksUnderValue(DimStoryID, storyID)

	var found []*Book
	for b := range byIndex {
		if byID[b] {
			found = append(found, b)
		}
	}
	if len(found) != 1 {
		return nil, fmt.Errorf("%w: index %q story %q matched %d books",
			ErrAmbiguousResult, indexName, storyID, len(found))
	}
	return found[0], nil
}

// booksUnderValue collects the books whose descriptors sit under the
// exact value tag of a dimension.
func (l *Library) booksUnderValue(dim, value string) map[*Book]bool {
	books := make(map[*Book]bool)
	dimTag, err := l.graph.Get(dim, false)
	if err != nil {
		return books
	}
	matches := l.graph.SearchDescendants(dimTag, taggraph.SearchOptions{
		Direction: taggraph.Child,
		Tags:      true,
		Pattern:   taggraph.ExactPattern(taggraph.Normalize(value)),
	})
	for _, m := range matches {
		valueTag := m.Node.(*taggraph.Tag)
		for _, em := range l.graph.SearchDescendants(valueTag, taggraph.SearchOptions{
			Direction: taggraph.Child,
			Entities:  true,
		}) {
			if d, ok := em.Node.(Descriptor); ok {
				if b := BookOf(d); b != nil {
					books[b] = true
				}
			}
		}
	}
	return books
}
