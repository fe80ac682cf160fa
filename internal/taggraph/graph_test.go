package taggraph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeEntity struct {
	name string
}

func (f *fakeEntity) NodeName() string { return f.name }
func (f *fakeEntity) Kind() string     { return "fake" }

func TestGetIsIdempotent(t *testing.T) {
	g := New(nil)

	a, err := g.Get("author", true)
	require.NoError(t, err)
	b, err := g.Get("author", true)
	require.NoError(t, err)
	assert.Same(t, a, b, "two gets must return the identical instance")

	_, err = g.Get("never-seen", false)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestAliasResolvesToSameTag(t *testing.T) {
	g := New(nil)

	tag := g.MustGet("science-fiction")
	g.Alias(tag, "sf")

	got, err := g.Get("sf", false)
	require.NoError(t, err)
	assert.Same(t, tag, got)
}

func TestConnectCreatesInverse(t *testing.T) {
	g := New(nil)
	a := g.MustGet("a")
	b := g.MustGet("b")

	require.NoError(t, g.Connect(a, b, Child, nil))

	down := a.ConnectionTo(b)
	require.NotNil(t, down)
	assert.Equal(t, Child, down.Type)

	up := b.ConnectionTo(a)
	require.NotNil(t, up)
	assert.Equal(t, Parent, up.Type)
}

func TestSearchDescendantsPaths(t *testing.T) {
	g := New(nil)
	a := g.MustGet("a")
	b := g.MustGet("b")
	c := g.MustGet("c")
	require.NoError(t, g.Connect(a, b, Child, nil))
	require.NoError(t, g.Connect(b, c, Child, nil))

	matches := g.SearchDescendants(a, SearchOptions{Direction: Child, Tags: true})
	require.Len(t, matches, 2)

	assert.Same(t, b, matches[0].Node)
	require.Len(t, matches[0].Path, 1)
	assert.Same(t, a, matches[0].Path[0].Source)
	assert.Same(t, b, matches[0].Path[0].Target)

	assert.Same(t, c, matches[1].Node)
	require.Len(t, matches[1].Path, 2)
	assert.Same(t, b, matches[1].Path[1].Source)
	assert.Same(t, c, matches[1].Path[1].Target)
}

func TestSearchDescendantsExclude(t *testing.T) {
	g := New(nil)
	a := g.MustGet("a")
	b := g.MustGet("b")
	c := g.MustGet("c")
	require.NoError(t, g.Connect(a, b, Child, nil))
	require.NoError(t, g.Connect(b, c, Child, nil))

	matches := g.SearchDescendants(a, SearchOptions{
		Direction: Child,
		Tags:      true,
		Exclude:   map[Node]bool{b: true},
	})

	// b is skipped from the matches but the walk still advances
	// through it, so c is reported.
	require.Len(t, matches, 1)
	assert.Same(t, c, matches[0].Node)
}

func TestSelfConnectionDoesNotAdvance(t *testing.T) {
	g := New(nil)
	a := g.MustGet("a")
	require.NoError(t, g.Connect(a, a, Child, nil))

	matches := g.SearchDescendants(a, SearchOptions{Direction: Child, Tags: true})
	assert.Empty(t, matches)
}

func TestCycleTerminates(t *testing.T) {
	g := New(nil)
	a := g.MustGet("a")
	b := g.MustGet("b")
	require.NoError(t, g.Connect(a, b, Child, nil))
	require.NoError(t, g.Connect(b, a, Child, nil))

	matches := g.SearchDescendants(a, SearchOptions{Direction: Child, Tags: true})
	require.Len(t, matches, 1)
	assert.Same(t, b, matches[0].Node)
}

func TestEntityReverseIndex(t *testing.T) {
	g := New(nil)
	tag := g.MustGet("title")
	e := &fakeEntity{name: "story-1"}

	require.NoError(t, g.Connect(tag, e, Child, nil))

	matches := g.SearchTagsOfEntity(e, nil, Parent, false)
	require.Len(t, matches, 1)
	assert.Same(t, tag, matches[0].Node)

	g.Disconnect(tag, e)
	assert.Empty(t, g.SearchTagsOfEntity(e, nil, Parent, false))
	assert.Nil(t, g.EntityConnections(e))
}

func TestEntityToEntityRejected(t *testing.T) {
	g := New(nil)
	a := &fakeEntity{name: "a"}
	b := &fakeEntity{name: "b"}

	err := g.Connect(a, b, Undirected, nil)
	assert.ErrorIs(t, err, ErrEntityEdge)
}

func TestDeleteRemovesAllEdges(t *testing.T) {
	g := New(nil)
	a := g.MustGet("a")
	b := g.MustGet("b")
	e := &fakeEntity{name: "e"}
	require.NoError(t, g.Connect(a, b, Child, nil))
	require.NoError(t, g.Connect(b, e, Child, nil))

	g.Delete(b)

	_, err := g.Get("b", false)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Nil(t, a.ConnectionTo(b))
	assert.Equal(t, -1, g.GraphDistance(a, e))
}

func TestGraphDistance(t *testing.T) {
	g := New(nil)
	a := g.MustGet("a")
	b := g.MustGet("b")
	c := g.MustGet("c")
	d := g.MustGet("d")
	require.NoError(t, g.Connect(a, b, Child, nil))
	require.NoError(t, g.Connect(b, c, Child, nil))

	assert.Equal(t, 0, g.GraphDistance(a, a))
	assert.Equal(t, 1, g.GraphDistance(a, b))
	assert.Equal(t, 2, g.GraphDistance(a, c))
	// Distance walks inverse edges too.
	assert.Equal(t, 2, g.GraphDistance(c, a))
	assert.Equal(t, -1, g.GraphDistance(a, d))
}

func TestSearchDescendantsLimit(t *testing.T) {
	g := New(nil)
	root := g.MustGet("dim")
	for _, name := range []string{"v1", "v2", "v3", "v4"} {
		require.NoError(t, g.Connect(root, g.MustGet(name), Child, nil))
	}

	matches := g.SearchDescendants(root, SearchOptions{Direction: Child, Tags: true, Limit: 2})
	assert.Len(t, matches, 2)
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"short verbatim", "publish-date", "publish-date"},
		{"short case kept", "Title", "Title"},
		{"long collapsed", "The Quick Brown Fox Jumps Over", "the-quick-brown-fox-jumps-over"},
		{"short words dropped", "A Story Of An Unusually Long Title", "story-unusually-long-title"},
		{"punctuation split", "it's a really, really long title!!", "really-really-long-title"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Normalize(tt.in)
			if got != tt.want {
				t.Errorf("Normalize(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestPattern(t *testing.T) {
	tests := []struct {
		name    string
		pattern string
		in      string
		want    bool
	}{
		{"substring hit", "foo", "foo-bar", true},
		{"substring miss", "baz", "foo-bar", false},
		{"regex hit", "/2000-.+/", "2000-01-01", true},
		{"regex miss", "/2000-.+/", "2001-01-01", false},
		{"regex case insensitive", "/FOO/", "foo-bar", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := CompilePattern(tt.pattern)
			if err != nil {
				t.Fatalf("CompilePattern(%q): %v", tt.pattern, err)
			}
			if got := p.Match(tt.in); got != tt.want {
				t.Errorf("%q.Match(%q) = %v, want %v", tt.pattern, tt.in, got, tt.want)
			}
		})
	}

	if _, err := CompilePattern("/(/"); err == nil {
		t.Error("expected error for invalid regex")
	}

	var nilPattern *Pattern
	if !nilPattern.Match("anything") {
		t.Error("nil pattern must match everything")
	}
}
