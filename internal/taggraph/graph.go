// Package taggraph implements the in-memory labelled graph that indexes
// every loaded book: tags, taggable entities and directed, typed,
// optionally weighted connections between them.
package taggraph

import (
	"fmt"
	"log/slog"
	"sort"
)

// Reserved tag names. RootName anchors every system dimension tag;
// CustomName anchors user-defined tags so they can be exported and
// reloaded as one subgraph.
const (
	RootName   = "root"
	CustomName = "custom"
)

// Graph is the process-wide tag store. It is not safe for concurrent
// mutation; the driver performs load, query and mutation strictly in
// sequence.
type Graph struct {
	tags     map[string]*Tag
	entities map[Entity]*entityIndex
	root     *Tag
	custom   *Tag
	logger   *slog.Logger
}

// entityIndex is the reverse index kept for each entity: the mirrored
// entity-side connections of every tag attached to it, in attach order.
type entityIndex struct {
	conns []*Connection
	byTag map[*Tag]*Connection
}

// New creates an empty graph holding only the reserved root and custom
// tags, with custom parented under root.
func New(logger *slog.Logger) *Graph {
	if logger == nil {
		logger = slog.Default()
	}
	g := &Graph{
		tags:     make(map[string]*Tag),
		entities: make(map[Entity]*entityIndex),
		logger:   logger,
	}
	g.root = g.create(RootName)
	g.custom = g.create(CustomName)
	// Reserved tags always exist and are always linked.
	if err := g.Connect(g.root, g.custom, Child, nil); err != nil {
		panic(fmt.Sprintf("taggraph: link reserved tags: %v", err))
	}
	return g
}

// Root returns the reserved root tag.
func (g *Graph) Root() *Tag { return g.root }

// Custom returns the reserved root of user-defined tags.
func (g *Graph) Custom() *Tag { return g.custom }

func (g *Graph) create(name string) *Tag {
	t := &Tag{name: name}
	g.tags[name] = t
	return t
}

// Get resolves a name (or alias) to its tag, normalizing free text first.
// With createIfMissing the tag is created on first use; otherwise an
// absent name fails with ErrNotFound.
func (g *Graph) Get(name string, createIfMissing bool) (*Tag, error) {
	key := Normalize(name)
	if t, ok := g.tags[key]; ok {
		return t, nil
	}
	if !createIfMissing {
		return nil, fmt.Errorf("%w: %q", ErrNotFound, key)
	}
	return g.create(key), nil
}

// MustGet returns the tag for name, creating it if needed.
func (g *Graph) MustGet(name string) *Tag {
	t, _ := g.Get(name, true)
	return t
}

// Alias binds an additional name to an existing tag. The alias resolves
// through Get exactly like the primary name.
func (g *Graph) Alias(t *Tag, name string) {
	key := Normalize(name)
	if key == t.name {
		return
	}
	if existing, ok := g.tags[key]; ok && existing != t {
		g.logger.Warn("alias already bound to another tag", "alias", key, "tag", t.name)
		return
	}
	if _, ok := g.tags[key]; !ok {
		t.aliases = append(t.aliases, key)
	}
	g.tags[key] = t
}

// TagCount returns the number of distinct tags (aliases not counted).
func (g *Graph) TagCount() int {
	seen := make(map[*Tag]bool, len(g.tags))
	for _, t := range g.tags {
		seen[t] = true
	}
	return len(seen)
}

// Tags returns all distinct tags sorted by name.
func (g *Graph) Tags() []*Tag {
	seen := make(map[*Tag]bool, len(g.tags))
	out := make([]*Tag, 0, len(g.tags))
	for _, t := range g.tags {
		if !seen[t] {
			seen[t] = true
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].name < out[j].name })
	return out
}

// Connect creates a directed edge between two nodes and its mirrored
// inverse at the other endpoint. At least one endpoint must be a tag.
// Reconnecting an existing pair updates type and weight in place.
func (g *Graph) Connect(source, target Node, typ ConnType, weight *float64) error {
	_, sourceIsTag := source.(*Tag)
	_, targetIsTag := target.(*Tag)
	if !sourceIsTag && !targetIsTag {
		return fmt.Errorf("%w: %s -> %s", ErrEntityEdge, source.NodeName(), target.NodeName())
	}

	conn := &Connection{Source: source, Target: target, Type: typ, Weight: weight}
	inverse := &Connection{Source: target, Target: source, Type: typ.Inverse(), Weight: weight}

	if err := g.attach(source, conn); err != nil {
		return err
	}
	if source == target {
		// Self-connections are stored once; traversal treats them as a
		// no-op hop.
		return nil
	}
	return g.attach(target, inverse)
}

func (g *Graph) attach(n Node, c *Connection) error {
	switch v := n.(type) {
	case *Tag:
		v.addConn(c)
		return nil
	case Entity:
		idx := g.entities[v]
		if idx == nil {
			idx = &entityIndex{}
			g.entities[v] = idx
		}
		idx.add(c)
		return nil
	default:
		return fmt.Errorf("unsupported node type %T", n)
	}
}

// Disconnect removes the edge between two nodes in both directions.
// Missing edges are a no-op.
func (g *Graph) Disconnect(a, b Node) {
	g.detach(a, b)
	if a != b {
		g.detach(b, a)
	}
}

func (g *Graph) detach(n Node, target Node) {
	switch v := n.(type) {
	case *Tag:
		v.removeConn(target)
	case Entity:
		idx := g.entities[v]
		if idx == nil {
			return
		}
		if t, ok := target.(*Tag); ok {
			idx.remove(t)
		}
		if len(idx.conns) == 0 {
			// An entity that loses its last tag remains a valid domain
			// object, just untagged.
			delete(g.entities, v)
		}
	}
}

// Delete removes a tag, its aliases and every edge touching it. Entities
// left without tags stay valid but untagged.
func (g *Graph) Delete(t *Tag) {
	for _, c := range append([]*Connection(nil), t.conns...) {
		g.Disconnect(t, c.Target)
	}
	delete(g.tags, t.name)
	for _, a := range t.aliases {
		delete(g.tags, a)
	}
}

// EntityConnections returns the entity-side connections (entity -> tag)
// for an entity, in attach order. Nil when the entity is untagged.
func (g *Graph) EntityConnections(e Entity) []*Connection {
	idx := g.entities[e]
	if idx == nil {
		return nil
	}
	return idx.conns
}

func (x *entityIndex) add(c *Connection) {
	t, ok := c.Target.(*Tag)
	if !ok {
		return
	}
	if x.byTag == nil {
		x.byTag = make(map[*Tag]*Connection)
	}
	if old, ok := x.byTag[t]; ok {
		old.Type = c.Type
		old.Weight = c.Weight
		return
	}
	x.byTag[t] = c
	x.conns = append(x.conns, c)
}

func (x *entityIndex) remove(t *Tag) {
	if x.byTag == nil {
		return
	}
	c, ok := x.byTag[t]
	if !ok {
		return
	}
	delete(x.byTag, t)
	for i, cc := range x.conns {
		if cc == c {
			x.conns = append(x.conns[:i], x.conns[i+1:]...)
			break
		}
	}
}
