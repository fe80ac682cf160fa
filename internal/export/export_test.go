package export

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/raphaelgruber/storyshelf/internal/library"
	"github.com/raphaelgruber/storyshelf/internal/parser"
	"github.com/raphaelgruber/storyshelf/internal/query"
	"github.com/raphaelgruber/storyshelf/internal/taggraph"
)

func fixture(t *testing.T) (*Exporter, *query.Engine) {
	t.Helper()

	g := taggraph.New(nil)
	lib := library.New(g, nil)
	idx := &library.IndexDescriptor{Name: "stories", Alias: "st"}
	lib.AddIndex(idx)

	published := time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC)
	story := &library.Story{
		ID:        "42",
		Author:    "ann",
		Title:     "tale-a",
		Published: &published,
		Views:     7,
		URL:       "https://example.test/42",
	}
	page := &library.IndexPage{Index: "stories", Page: 1}
	profile := &library.Profile{
		Path:       "profiles/42.yaml",
		Difficulty: &library.Difficulty{EducationYears: 9, ReadingLevel: "middle"},
		Topics:     []*library.Topic{{ID: "seafaring"}},
	}
	book := library.NewBook(story, page, idx, profile)
	require.NoError(t, lib.AddBook(book))

	return New(lib), query.New(lib, nil)
}

func titleResult(t *testing.T, e *query.Engine) query.Result {
	t.Helper()
	ast, err := parser.ParseQuery("t == 'title'")
	require.NoError(t, err)
	seq, err := e.Exec(ast, query.SortAsc)
	require.NoError(t, err)
	return seq
}

func render(t *testing.T, x *Exporter, result query.Result, format Format) (string, []library.BookRef) {
	t.Helper()
	var sb strings.Builder
	refs, err := x.Export(&sb, result, format)
	require.NoError(t, err)
	return sb.String(), refs
}

func TestExportText(t *testing.T) {
	x, e := fixture(t)

	out, refs := render(t, x, titleResult(t, e), FormatText)

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, "export_text", []byte(out))

	require.Len(t, refs, 1)
	assert.Equal(t, library.BookRef{
		Index:   "stories",
		Page:    1,
		StoryID: "42",
		Profile: "profiles/42.yaml",
	}, refs[0])
}

func TestExportTagListing(t *testing.T) {
	x, _ := fixture(t)

	out, refs := render(t, x, nil, FormatTags)

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, "export_tags", []byte(out))

	assert.Empty(t, refs, "tag listing consumes no result stream")
}

func TestExportMermaid(t *testing.T) {
	x, e := fixture(t)

	out, refs := render(t, x, titleResult(t, e), FormatMermaid)

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, "export_mermaid", []byte(out))

	require.Len(t, refs, 1)
}

func TestMermaidMemoizesNodes(t *testing.T) {
	x, e := fixture(t)

	out, _ := render(t, x, titleResult(t, e), FormatMermaid)
	assert.Equal(t, 1, strings.Count(out, `n1["title"]`), "node declarations are memoized")
}

func TestLineageTruncation(t *testing.T) {
	g := taggraph.New(nil)
	lib := library.New(g, nil)
	x := New(lib)

	// Build a chain three generations past the cap.
	parent := g.MustGet("gen-0")
	require.NoError(t, g.Connect(g.Root(), parent, taggraph.Child, nil))
	var leaf *taggraph.Tag
	for i := 1; i <= MaxLineageGenerations+3; i++ {
		leaf = g.MustGet(fmt.Sprintf("gen-%d", i))
		require.NoError(t, g.Connect(parent, leaf, taggraph.Child, nil))
		parent = leaf
	}

	name := x.Lineage(leaf)
	assert.True(t, strings.HasPrefix(name, "…."), "deep chains carry the truncation marker")
	assert.Equal(t, MaxLineageGenerations+1, strings.Count(name, "."))
}
