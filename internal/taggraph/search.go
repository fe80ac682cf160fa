package taggraph

// SearchOptions configures a descendant traversal.
type SearchOptions struct {
	// Direction selects which connection type advances the walk.
	// Child walks towards descendants, Parent towards ancestors.
	Direction ConnType

	// Tags / Entities select which node kinds are collected.
	Tags     bool
	Entities bool

	// Pattern filters collected node names. Nil collects everything.
	Pattern *Pattern

	// Exclude suppresses reporting of the given nodes; the walk still
	// advances through excluded tags.
	Exclude map[Node]bool

	// Limit caps the number of matches. Zero means unbounded.
	Limit int
}

// Match pairs a found node with the ordered connection sequence from the
// search start to it. The path is the first one discovered, not the
// shortest; a visited set prevents cycles.
type Match struct {
	Node Node
	Path []*Connection
}

// SearchDescendants walks connections of the configured direction from
// start, collecting matching tags and/or entities. The start node itself
// is never reported. Traversal order follows connection insertion order,
// so results are deterministic for a fixed build sequence.
func (g *Graph) SearchDescendants(start *Tag, opts SearchOptions) []Match {
	type frame struct {
		tag  *Tag
		path []*Connection
	}

	var matches []Match
	visited := map[Node]bool{start: true}
	queue := []frame{{tag: start}}

	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]

		for _, c := range cur.tag.conns {
			if c.Type != opts.Direction {
				continue
			}
			if c.Target == c.Source {
				// Self-connections never advance.
				continue
			}
			if visited[c.Target] {
				continue
			}
			visited[c.Target] = true

			path := make([]*Connection, len(cur.path), len(cur.path)+1)
			copy(path, cur.path)
			path = append(path, c)

			switch target := c.Target.(type) {
			case *Tag:
				if opts.Tags && !opts.Exclude[target] && opts.Pattern.Match(target.name) {
					matches = append(matches, Match{Node: target, Path: path})
					if opts.Limit > 0 && len(matches) >= opts.Limit {
						return matches
					}
				}
				queue = append(queue, frame{tag: target, path: path})
			case Entity:
				if opts.Entities && !opts.Exclude[c.Target] && opts.Pattern.Match(target.NodeName()) {
					matches = append(matches, Match{Node: target, Path: path})
					if opts.Limit > 0 && len(matches) >= opts.Limit {
						return matches
					}
				}
				// Entities hold no outgoing edges of their own; the walk
				// ends here.
			}
		}
	}
	return matches
}

// SearchTagsOfEntity is the inverse lookup: the tags currently attached
// to an entity whose names match the pattern, following the entity-side
// connections of the given direction. With stopAtFirst only the first
// match is returned.
func (g *Graph) SearchTagsOfEntity(e Entity, pattern *Pattern, direction ConnType, stopAtFirst bool) []Match {
	var matches []Match
	for _, c := range g.EntityConnections(e) {
		if c.Type != direction {
			continue
		}
		t, ok := c.Target.(*Tag)
		if !ok {
			continue
		}
		if !pattern.Match(t.name) {
			continue
		}
		matches = append(matches, Match{Node: t, Path: []*Connection{c}})
		if stopAtFirst {
			return matches
		}
	}
	return matches
}

// GraphDistance returns the shortest edge count between two nodes walking
// connections of any type, or -1 when unreachable. Used for verification,
// not retrieval.
func (g *Graph) GraphDistance(a, b Node) int {
	if a == b {
		return 0
	}

	type frame struct {
		node Node
		dist int
	}
	visited := map[Node]bool{a: true}
	queue := []frame{{node: a}}

	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]

		for _, c := range g.neighbors(cur.node) {
			if c.Target == c.Source || visited[c.Target] {
				continue
			}
			if c.Target == b {
				return cur.dist + 1
			}
			visited[c.Target] = true
			queue = append(queue, frame{node: c.Target, dist: cur.dist + 1})
		}
	}
	return -1
}

func (g *Graph) neighbors(n Node) []*Connection {
	switch v := n.(type) {
	case *Tag:
		return v.conns
	case Entity:
		return g.EntityConnections(v)
	default:
		return nil
	}
}
