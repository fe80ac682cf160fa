package export

import (
	"fmt"
	"iter"
	"strings"

	"github.com/raphaelgruber/storyshelf/internal/library"
	"github.com/raphaelgruber/storyshelf/internal/query"
	"github.com/raphaelgruber/storyshelf/internal/taggraph"
)

// mermaid incrementally builds a flow-chart from the result stream:
// books and tags become nodes, path connections become edges. Node
// emission is memoized by identity and self-referential edges are
// skipped.
func (x *Exporter) mermaid(result query.Result, refs *[]library.BookRef) iter.Seq[string] {
	return func(yield func(string) bool) {
		if !yield("graph TD\n") {
			return
		}
		if result == nil {
			return
		}

		nodes := make(map[taggraph.Node]string)
		edges := make(map[string]bool)
		nextID := 0

		nodeID := func(n taggraph.Node) (string, string, bool) {
			if id, ok := nodes[n]; ok {
				return id, "", false
			}
			nextID++
			id := fmt.Sprintf("n%d", nextID)
			nodes[n] = id
			shape := fmt.Sprintf("    %s[%q]\n", id, n.NodeName())
			if _, isTag := n.(*taggraph.Tag); !isTag {
				shape = fmt.Sprintf("    %s(%q)\n", id, n.NodeName())
			}
			return id, shape, true
		}

		emitEdge := func(from, to taggraph.Node) (string, bool) {
			if from == to {
				return "", false
			}
			var sb strings.Builder
			fromID, decl, fresh := nodeID(from)
			if fresh {
				sb.WriteString(decl)
			}
			toID, decl, fresh := nodeID(to)
			if fresh {
				sb.WriteString(decl)
			}
			key := fromID + "->" + toID
			if !edges[key] {
				edges[key] = true
				fmt.Fprintf(&sb, "    %s --> %s\n", fromID, toID)
			}
			return sb.String(), sb.Len() > 0
		}

		result(func(b *library.Book, p query.Path) bool {
			*refs = append(*refs, b.Ref())

			for _, c := range p {
				if chunk, ok := emitEdge(c.Source, c.Target); ok {
					if !yield(chunk) {
						return false
					}
				}
			}
			// Link the last path tag to the book node itself.
			if len(p) > 0 {
				if chunk, ok := emitEdge(p[len(p)-1].Target, b); ok {
					if !yield(chunk) {
						return false
					}
				}
			} else {
				if _, decl, fresh := nodeID(b); fresh {
					if !yield(decl) {
						return false
					}
				}
			}
			return true
		})
	}
}
