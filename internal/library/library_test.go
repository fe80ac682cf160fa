package library

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/raphaelgruber/storyshelf/internal/taggraph"
)

func date(s string) *time.Time {
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		panic(err)
	}
	return &t
}

func testBook(idx *IndexDescriptor, page int, id, author, title, published string) *Book {
	story := &Story{
		ID:        id,
		Author:    author,
		Title:     title,
		Published: date(published),
	}
	p := &IndexPage{Index: idx.Name, Page: page, Path: "data/" + idx.Name + "/page-1.yaml"}
	return NewBook(story, p, idx, nil)
}

func TestAddBookRegistersTags(t *testing.T) {
	g := taggraph.New(nil)
	lib := New(g, nil)
	idx := &IndexDescriptor{Name: "stories", Alias: "st", Pages: 10}
	lib.AddIndex(idx)

	b := testBook(idx, 1, "42", "ann", "the-first-tale", "2000-01-01")
	require.NoError(t, lib.AddBook(b))

	assert.Equal(t, 1, lib.Len())
	assert.True(t, lib.Has(b))

	title, err := g.Get("the-first-tale", false)
	require.NoError(t, err)
	matches := g.SearchDescendants(title, taggraph.SearchOptions{
		Direction: taggraph.Child,
		Entities:  true,
	})
	require.Len(t, matches, 1)
	assert.Same(t, b.Story, matches[0].Node)
}

func TestReplaceDetachesIncumbent(t *testing.T) {
	g := taggraph.New(nil)
	lib := New(g, nil)
	idx := &IndexDescriptor{Name: "stories"}
	lib.AddIndex(idx)

	older := testBook(idx, 1, "42", "ann", "old-title", "2000-01-01")
	older.Profile = &Profile{
		Path:   "profiles/42.yaml",
		Topics: []*Topic{{ID: "seafaring"}},
	}
	older.Profile.owner = older
	require.NoError(t, lib.AddBook(older))

	newer := testBook(idx, 1, "42", "ann", "new-title", "2000-01-01")
	require.NoError(t, lib.AddBook(newer))

	assert.Equal(t, 1, lib.Len(), "same key must not grow the library")
	assert.False(t, lib.Has(older))
	assert.True(t, lib.Has(newer))

	// No residual connections to the older book's descriptors.
	assert.Equal(t, -1, g.GraphDistance(g.Root(), older.Story))
	assert.Equal(t, -1, g.GraphDistance(g.Root(), older.Profile))
	assert.Equal(t, -1, g.GraphDistance(g.Root(), older.Profile.Topics[0]))

	// The newer story is reachable in its place.
	assert.NotEqual(t, -1, g.GraphDistance(g.Root(), newer.Story))
}

func TestGetBookCompositeLookup(t *testing.T) {
	g := taggraph.New(nil)
	lib := New(g, nil)
	idx := &IndexDescriptor{Name: "stories"}
	other := &IndexDescriptor{Name: "articles"}
	lib.AddIndex(idx)
	lib.AddIndex(other)

	b1 := testBook(idx, 1, "42", "ann", "tale-a", "2000-01-01")
	b2 := testBook(idx, 2, "43", "bob", "tale-b", "2000-02-01")
	b3 := testBook(other, 1, "42", "cee", "tale-c", "2001-01-01")
	for _, b := range []*Book{b1, b2, b3} {
		require.NoError(t, lib.AddBook(b))
	}

	got, err := lib.GetBook("stories", "42")
	require.NoError(t, err)
	assert.Same(t, b1, got)

	_, err = lib.GetBook("stories", "99")
	assert.ErrorIs(t, err, ErrAmbiguousResult)
}

func TestGetBookAmbiguousAcrossPages(t *testing.T) {
	g := taggraph.New(nil)
	lib := New(g, nil)
	idx := &IndexDescriptor{Name: "stories"}
	lib.AddIndex(idx)

	// Same story id on two pages: distinct keys, ambiguous lookup.
	require.NoError(t, lib.AddBook(testBook(idx, 1, "42", "ann", "tale-a", "2000-01-01")))
	require.NoError(t, lib.AddBook(testBook(idx, 2, "42", "ann", "tale-a-again", "2000-02-01")))

	assert.Equal(t, 2, lib.Len())
	_, err := lib.GetBook("stories", "42")
	assert.ErrorIs(t, err, ErrAmbiguousResult)
}

func TestBookOfWalksOwnership(t *testing.T) {
	g := taggraph.New(nil)
	lib := New(g, nil)
	idx := &IndexDescriptor{Name: "stories"}
	lib.AddIndex(idx)

	b := testBook(idx, 1, "42", "ann", "tale-a", "2000-01-01")
	b.Profile = &Profile{
		Path:       "profiles/42.yaml",
		Difficulty: &Difficulty{EducationYears: 9, ReadingLevel: "middle"},
	}
	b.Profile.owner = b
	require.NoError(t, lib.AddBook(b))

	assert.Same(t, b, BookOf(b.Story))
	assert.Same(t, b, BookOf(b.Page))
	assert.Same(t, b, BookOf(b.Profile.Difficulty))
	assert.Same(t, b, BookOf(b))
}

func TestIndexLookup(t *testing.T) {
	lib := New(taggraph.New(nil), nil)
	idx := &IndexDescriptor{Name: "stories", Alias: "st"}
	lib.AddIndex(idx)

	byName, err := lib.Index("stories")
	require.NoError(t, err)
	byAlias, err := lib.Index("st")
	require.NoError(t, err)
	assert.Same(t, byName, byAlias)

	_, err = lib.Index("nope")
	assert.ErrorIs(t, err, ErrUnknownIndex)
}
