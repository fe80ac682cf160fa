package query

import (
	"github.com/raphaelgruber/storyshelf/internal/library"
	"github.com/raphaelgruber/storyshelf/internal/taggraph"
)

// includeTag is one tag the retrieval fans out from, with the path that
// led to it from the search base.
type includeTag struct {
	tag  *taggraph.Tag
	path []*taggraph.Connection
}

// GetBooks is the core retrieval algorithm. It maps a (startTag,
// pattern) unit to a lazy sequence of (book, path) pairs:
//
//  1. Include tags: when a non-exclude pattern is given, descendant tags
//     matching it (searched from the root when the start tag is absent
//     or itself excluded, else from the start tag); otherwise the start
//     tag alone, unless excluded.
//  2. Exclude tags: pattern matches from the root when the pattern is an
//     exclusion, plus the start tag when it is an exclusion.
//  3. An excluded start tag also disqualifies any include tag descending
//     from it — ancestry implies exclusion.
//  4. Exclude without include starts from every book and removes those
//     reachable from any exclude tag.
//  5. Otherwise each include tag (capped at MaxTags) fans out to its
//     descendant entities (capped at MaxBooksPerTag), each mapped to its
//     owning book via the ownership tree, dropped when reachable from an
//     exclude tag, de-duplicated, and yielded with the concatenated
//     include-tag and descriptor paths stripped of non-tag hops.
//
// All traversal work happens when the sequence is consumed.
func (e *Engine) GetBooks(startTag *taggraph.Tag, pattern *taggraph.Pattern, excludeStartTag, excludeQuery bool) Result {
	return func(yield func(*library.Book, Path) bool) {
		root := e.graph.Root()

		// Step 1: include tags.
		var includes []includeTag
		if pattern != nil && !excludeQuery {
			base := startTag
			opts := taggraph.SearchOptions{
				Direction: taggraph.Child,
				Tags:      true,
				Pattern:   pattern,
				Limit:     e.MaxTags,
			}
			if base == nil || excludeStartTag {
				base = root
			}
			if excludeStartTag && startTag != nil {
				// The excluded start tag must never match as an
				// include tag, even when its name fits the pattern.
				opts.Exclude = map[taggraph.Node]bool{startTag: true}
			}
			matches := e.graph.SearchDescendants(base, opts)
			for _, m := range matches {
				includes = append(includes, includeTag{tag: m.Node.(*taggraph.Tag), path: m.Path})
			}
		} else if startTag != nil && !excludeStartTag {
			includes = []includeTag{{tag: startTag}}
		}

		// Step 2: exclude tags.
		var excludes []*taggraph.Tag
		if excludeQuery && pattern != nil {
			for _, m := range e.graph.SearchDescendants(root, taggraph.SearchOptions{
				Direction: taggraph.Child,
				Tags:      true,
				Pattern:   pattern,
				Limit:     e.MaxTags,
			}) {
				excludes = append(excludes, m.Node.(*taggraph.Tag))
			}
		}
		if excludeStartTag && startTag != nil {
			excludes = append(excludes, startTag)
		}

		// Step 3: ancestry implies exclusion.
		if excludeStartTag && startTag != nil && len(includes) > 0 {
			under := make(map[taggraph.Node]bool)
			for _, m := range e.graph.SearchDescendants(startTag, taggraph.SearchOptions{
				Direction: taggraph.Child,
				Tags:      true,
			}) {
				under[m.Node] = true
			}
			kept := includes[:0]
			for _, inc := range includes {
				if !under[inc.tag] {
					kept = append(kept, inc)
				}
			}
			includes = kept
		}

		excludedBooks := e.booksReachableFrom(excludes)

		// Step 4: exclude without include.
		if len(includes) == 0 {
			if len(excludes) == 0 {
				return
			}
			for _, b := range e.lib.Books() {
				if excludedBooks[b] {
					continue
				}
				if !yield(b, nil) {
					return
				}
			}
			return
		}

		// Step 5: fan out per include tag.
		seen := make(map[*library.Book]bool)
		for i, inc := range includes {
			if i >= e.MaxTags {
				e.logger.Warn("include tag fan-out capped", "cap", e.MaxTags)
				break
			}
			matches := e.graph.SearchDescendants(inc.tag, taggraph.SearchOptions{
				Direction: taggraph.Child,
				Entities:  true,
				Limit:     e.MaxBooksPerTag,
			})
			for _, m := range matches {
				desc, ok := m.Node.(library.Descriptor)
				if !ok {
					continue
				}
				book := library.BookOf(desc)
				if book == nil || seen[book] || excludedBooks[book] {
					continue
				}
				seen[book] = true
				path := cleanPath(append(append([]*taggraph.Connection{}, inc.path...), m.Path...))
				if !yield(book, path) {
					return
				}
			}
		}
	}
}

// booksReachableFrom collects every book whose descriptor subtree is
// reachable from any of the given tags.
func (e *Engine) booksReachableFrom(tags []*taggraph.Tag) map[*library.Book]bool {
	books := make(map[*library.Book]bool)
	for _, t := range tags {
		for _, m := range e.graph.SearchDescendants(t, taggraph.SearchOptions{
			Direction: taggraph.Child,
			Entities:  true,
			Limit:     e.MaxBooksPerTag,
		}) {
			if d, ok := m.Node.(library.Descriptor); ok {
				if b := library.BookOf(d); b != nil {
					books[b] = true
				}
			}
		}
	}
	return books
}

// cleanPath strips self-loops and hops to non-tag nodes, leaving the
// tag-to-tag chain that explains the match.
func cleanPath(conns []*taggraph.Connection) Path {
	out := conns[:0]
	for _, c := range conns {
		if c.Source == c.Target {
			continue
		}
		if _, ok := c.Target.(*taggraph.Tag); !ok {
			continue
		}
		out = append(out, c)
	}
	return Path(out)
}
