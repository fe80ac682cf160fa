package taggraph

// Node is anything addressable in the tag graph: a Tag or an Entity.
type Node interface {
	NodeName() string
}

// Entity is a taggable domain object. Entities never hold outgoing
// connections of their own; the graph keeps a reverse index of the tags
// currently attached to each entity. Kind labels the domain flavour
// ("book", "story", ...) for rendering and filtering.
type Entity interface {
	Node
	Kind() string
}

// ConnType is the direction semantics of a connection relative to its
// source: a Child connection points at a child of the source, a Parent
// connection at a parent.
type ConnType uint8

const (
	Undirected ConnType = iota
	Parent
	Child
)

// Inverse returns the type of the mirrored connection at the other
// endpoint. Parent and Child pair up; Undirected mirrors itself.
func (t ConnType) Inverse() ConnType {
	switch t {
	case Parent:
		return Child
	case Child:
		return Parent
	default:
		return Undirected
	}
}

func (t ConnType) String() string {
	switch t {
	case Parent:
		return "parent"
	case Child:
		return "child"
	default:
		return "undirected"
	}
}

// Connection is a directed edge in the graph. Weight is optional; nil
// means unweighted. Every connection has a mirrored inverse stored at the
// target, so traversal can walk either direction in O(1) per hop.
type Connection struct {
	Source Node
	Target Node
	Type   ConnType
	Weight *float64
}

// Tag is a named node in the graph. Additional names may be bound to the
// same instance via Graph.Alias. Connections are kept in insertion order
// so traversal is deterministic.
type Tag struct {
	name     string
	aliases  []string
	conns    []*Connection
	byTarget map[Node]*Connection
}

func (t *Tag) NodeName() string { return t.name }

// Aliases returns the extra names bound to this tag.
func (t *Tag) Aliases() []string { return t.aliases }

// Connections returns the tag's outgoing connections in insertion order.
// The returned slice is owned by the tag; callers must not mutate it.
func (t *Tag) Connections() []*Connection { return t.conns }

// ConnectionTo returns the outgoing connection to the given node, or nil.
func (t *Tag) ConnectionTo(n Node) *Connection {
	if t.byTarget == nil {
		return nil
	}
	return t.byTarget[n]
}

func (t *Tag) addConn(c *Connection) {
	if t.byTarget == nil {
		t.byTarget = make(map[Node]*Connection)
	}
	if old, ok := t.byTarget[c.Target]; ok {
		// Edge already exists: update type/weight in place, keep order.
		old.Type = c.Type
		old.Weight = c.Weight
		return
	}
	t.byTarget[c.Target] = c
	t.conns = append(t.conns, c)
}

func (t *Tag) removeConn(target Node) {
	if t.byTarget == nil {
		return
	}
	c, ok := t.byTarget[target]
	if !ok {
		return
	}
	delete(t.byTarget, target)
	for i, cc := range t.conns {
		if cc == c {
			t.conns = append(t.conns[:i], t.conns[i+1:]...)
			break
		}
	}
}

// Float64 returns a pointer to v, for optional connection weights.
func Float64(v float64) *float64 { return &v }
