package tagging

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/raphaelgruber/storyshelf/internal/library"
	"github.com/raphaelgruber/storyshelf/internal/parser"
	"github.com/raphaelgruber/storyshelf/internal/taggraph"
)

func fixture(t *testing.T) (*Engine, *library.Book) {
	t.Helper()

	g := taggraph.New(nil)
	lib := library.New(g, nil)
	idx := &library.IndexDescriptor{Name: "stories", Alias: "st"}
	lib.AddIndex(idx)

	published := time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC)
	story := &library.Story{ID: "42", Author: "ann", Title: "tale-a", Published: &published}
	page := &library.IndexPage{Index: "stories", Page: 1}
	book := library.NewBook(story, page, idx, nil)
	require.NoError(t, lib.AddBook(book))

	return New(lib, nil), book
}

func exec(t *testing.T, e *Engine, src string) error {
	t.Helper()
	ast, err := parser.ParseTagging(src)
	require.NoError(t, err)
	return e.Exec(ast)
}

func TestAddTagUnderCustomRoot(t *testing.T) {
	e, _ := fixture(t)

	require.NoError(t, exec(t, e, "+t('favorites')"))

	tag, err := e.graph.Get("favorites", false)
	require.NoError(t, err)
	conn := e.graph.Custom().ConnectionTo(tag)
	require.NotNil(t, conn)
	assert.Equal(t, taggraph.Child, conn.Type)
}

func TestConnectTagToBookAggregate(t *testing.T) {
	e, book := fixture(t)

	require.NoError(t, exec(t, e, "+t('favorites'); t('favorites') -> s('st').id('42')"))

	tag, err := e.graph.Get("favorites", false)
	require.NoError(t, err)
	conn := tag.ConnectionTo(book)
	require.NotNil(t, conn, "custom tag connects to the book aggregate")

	matches := e.graph.SearchDescendants(e.graph.Custom(), taggraph.SearchOptions{
		Direction: taggraph.Child,
		Entities:  true,
	})
	require.Len(t, matches, 1)
	assert.Same(t, book, matches[0].Node)
}

func TestDisconnect(t *testing.T) {
	e, book := fixture(t)

	require.NoError(t, exec(t, e, "t('favorites') -> s('st').id('42')"))
	require.NoError(t, exec(t, e, "t('favorites') -/> s('st').id('42')"))

	tag, err := e.graph.Get("favorites", false)
	require.NoError(t, err)
	assert.Nil(t, tag.ConnectionTo(book))
}

func TestDeleteCustomTagOnly(t *testing.T) {
	e, _ := fixture(t)

	require.NoError(t, exec(t, e, "+t('favorites')"))
	require.NoError(t, exec(t, e, "-t('favorites')"))
	_, err := e.graph.Get("favorites", false)
	assert.ErrorIs(t, err, taggraph.ErrNotFound)

	// System dimensions are off limits for the tagging grammar.
	err = exec(t, e, "-t('title')")
	assert.ErrorIs(t, err, parser.ErrMalformedExpression)
}

func TestConnectUnknownBook(t *testing.T) {
	e, _ := fixture(t)

	err := exec(t, e, "t('favorites') -> s('st').id('999')")
	assert.ErrorIs(t, err, library.ErrAmbiguousResult)

	err = exec(t, e, "t('favorites') -> s('nope').id('42')")
	assert.ErrorIs(t, err, library.ErrUnknownIndex)
}

func TestStatementChainStopsOnError(t *testing.T) {
	e, _ := fixture(t)

	err := exec(t, e, "+t('a'); t('x') -/> t('missing'); +t('b')")
	assert.ErrorIs(t, err, taggraph.ErrNotFound)

	_, errA := e.graph.Get("a", false)
	assert.NoError(t, errA)
	_, errB := e.graph.Get("b", false)
	assert.ErrorIs(t, errB, taggraph.ErrNotFound)
}
