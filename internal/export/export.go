// Package export renders a completed query into one of the supported
// textual formats, accumulating the book references that the search
// history record needs.
package export

import (
	"fmt"
	"io"
	"iter"
	"sort"
	"strings"

	"github.com/raphaelgruber/storyshelf/internal/library"
	"github.com/raphaelgruber/storyshelf/internal/query"
	"github.com/raphaelgruber/storyshelf/internal/taggraph"
)

// Format selects the output rendering.
type Format string

const (
	FormatTags    Format = "tags"
	FormatText    Format = "text"
	FormatMermaid Format = "mermaid"
)

// ParseFormat validates a CLI flag value.
func ParseFormat(s string) (Format, error) {
	switch Format(s) {
	case FormatTags, FormatText, FormatMermaid:
		return Format(s), nil
	default:
		return "", fmt.Errorf("unknown export format %q", s)
	}
}

// MaxLineageGenerations caps the ancestor chain in lineage names; deeper
// chains get a truncation marker.
const MaxLineageGenerations = 6

// Exporter renders query results over one library.
type Exporter struct {
	lib   *library.Library
	graph *taggraph.Graph
}

func New(lib *library.Library) *Exporter {
	return &Exporter{lib: lib, graph: lib.Graph()}
}

// Export consumes a result stream exactly once, writing chunks to w, and
// returns the accumulated book references for history persistence.
func (x *Exporter) Export(w io.Writer, result query.Result, format Format) ([]library.BookRef, error) {
	var refs []library.BookRef
	for chunk := range x.Chunks(result, format, &refs) {
		if _, err := io.WriteString(w, chunk); err != nil {
			return refs, fmt.Errorf("write export chunk: %w", err)
		}
	}
	return refs, nil
}

// Chunks is the lazy chunk stream behind Export. The refs slice fills as
// the stream is consumed and is complete once the stream ends. The
// stream is finite and single-pass.
func (x *Exporter) Chunks(result query.Result, format Format, refs *[]library.BookRef) iter.Seq[string] {
	switch format {
	case FormatTags:
		return x.tagListing()
	case FormatMermaid:
		return x.mermaid(result, refs)
	default:
		return x.plainText(result, refs)
	}
}

// tagListing emits every known tag's lineage name, sorted. The listing
// covers the whole graph, custom tags included; no result stream is
// consumed.
func (x *Exporter) tagListing() iter.Seq[string] {
	return func(yield func(string) bool) {
		root := x.graph.Root()
		var lines []string
		for _, t := range x.graph.Tags() {
			if t == root {
				continue
			}
			lines = append(lines, x.Lineage(t))
		}
		sort.Strings(lines)
		for _, l := range lines {
			if !yield(l + "\n") {
				return
			}
		}
	}
}

// Lineage returns the dot-joined ancestor chain of a tag, bounded to
// MaxLineageGenerations with a leading truncation marker. The first
// parent connection is followed at every step, and the reserved root is
// left out of the chain.
func (x *Exporter) Lineage(t *taggraph.Tag) string {
	root := x.graph.Root()
	chain := []string{t.NodeName()}
	seen := map[*taggraph.Tag]bool{t: true}
	truncated := false

	cur := t
	for len(chain) < MaxLineageGenerations+1 {
		parent := firstParent(cur)
		if parent == nil || parent == root || seen[parent] {
			break
		}
		seen[parent] = true
		chain = append(chain, parent.NodeName())
		cur = parent
	}
	if p := firstParent(cur); p != nil && p != root && !seen[p] {
		truncated = true
	}

	// Reverse: ancestors first.
	for i, j := 0, len(chain)-1; i < j; i, j = i+1, j-1 {
		chain[i], chain[j] = chain[j], chain[i]
	}
	name := strings.Join(chain, ".")
	if truncated {
		name = "…." + name
	}
	return name
}

func firstParent(t *taggraph.Tag) *taggraph.Tag {
	for _, c := range t.Connections() {
		if c.Type != taggraph.Parent || c.Source == c.Target {
			continue
		}
		if p, ok := c.Target.(*taggraph.Tag); ok {
			return p
		}
	}
	return nil
}
