// Package library holds the domain model: the singleton Library owning
// Books, each an aggregate of Story, IndexPage and optional Profile, and
// the Descriptor contract that projects them into the tag graph.
package library

import (
	"fmt"

	"github.com/raphaelgruber/storyshelf/internal/taggraph"
)

// Descriptor is an entity capable of projecting itself, and its owned
// children, into the tag graph. SetTags and UnsetTags mirror each other:
// a replaced descriptor subtree is fully detached before the new one is
// linked, so no stale membership survives a replace.
type Descriptor interface {
	taggraph.Entity

	SetTags(g *taggraph.Graph) error
	UnsetTags(g *taggraph.Graph)

	// Owner returns the owning descriptor in the ownership tree, nil at
	// the Book root. The ownership tree is separate from the tag graph:
	// it carries lifecycle and back-references, the graph carries
	// many-to-many labels.
	Owner() Descriptor
}

// BookOf walks ownership-tree ancestors from a descriptor up to its
// owning Book. Returns nil when the descriptor is detached.
func BookOf(d Descriptor) *Book {
	for d != nil {
		if b, ok := d.(*Book); ok {
			return b
		}
		d = d.Owner()
	}
	return nil
}

// tagValue links dim -> value -> entity in the graph, creating the
// dimension tag under the graph root on first use. The optional weight
// lands on the value->entity connection.
func tagValue(g *taggraph.Graph, dim, value string, weight *float64, e taggraph.Entity) error {
	d := g.MustGet(dim)
	if err := g.Connect(g.Root(), d, taggraph.Child, nil); err != nil {
		return fmt.Errorf("link dimension %q: %w", dim, err)
	}
	v := g.MustGet(value)
	if err := g.Connect(d, v, taggraph.Child, nil); err != nil {
		return fmt.Errorf("link value %q: %w", value, err)
	}
	if err := g.Connect(v, e, taggraph.Child, weight); err != nil {
		return fmt.Errorf("tag %s with %q: %w", e.NodeName(), value, err)
	}
	return nil
}

// tagWeightedValue is tagValue with the weight on the dim -> value
// connection instead: value tags like page numbers or education years
// keep their magnitude on the tag-to-tag hop, where path sorting sees it.
func tagWeightedValue(g *taggraph.Graph, dim, value string, weight *float64, e taggraph.Entity) error {
	d := g.MustGet(dim)
	if err := g.Connect(g.Root(), d, taggraph.Child, nil); err != nil {
		return fmt.Errorf("link dimension %q: %w", dim, err)
	}
	v := g.MustGet(value)
	if err := g.Connect(d, v, taggraph.Child, weight); err != nil {
		return fmt.Errorf("link value %q: %w", value, err)
	}
	if err := g.Connect(v, e, taggraph.Child, nil); err != nil {
		return fmt.Errorf("tag %s with %q: %w", e.NodeName(), value, err)
	}
	return nil
}

// untag detaches an entity from every tag currently connected to it,
// whatever the connection type.
func untag(g *taggraph.Graph, e taggraph.Entity) {
	conns := g.EntityConnections(e)
	targets := make([]taggraph.Node, 0, len(conns))
	for _, c := range conns {
		targets = append(targets, c.Target)
	}
	for _, t := range targets {
		g.Disconnect(t, e)
	}
}
