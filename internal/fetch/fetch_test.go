package fetch

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/raphaelgruber/storyshelf/internal/library"
)

const listingPage = `<!DOCTYPE html>
<html><body>
<nav>home | about</nav>
<article data-id="42" data-author="ann" data-views="7" data-published="2000-01-01">
  <h2><a href="https://example.test/stories/42">Tale A</a></h2>
</article>
<article data-id="43" data-author="bob" data-views="3" data-published="2000-02-01">
  <h2><a href="https://example.test/stories/43">Yarn B</a></h2>
</article>
<article><p>advert without an id</p></article>
</body></html>`

func TestFetchPageParsesSummaries(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/list/1", r.URL.Path)
		fmt.Fprint(w, listingPage)
	}))
	defer srv.Close()

	adapter := &ListingAdapter{
		SourceName:  "stories",
		PagePattern: srv.URL + "/list/%d",
		MaxPages:    3,
	}
	client := NewClient(5*time.Second, "storyshelf-test/1.0", nil)

	stories, err := client.FetchPage(context.Background(), adapter, 1)
	require.NoError(t, err)
	require.Len(t, stories, 2)

	assert.Equal(t, "42", stories[0].ID)
	assert.Equal(t, "ann", stories[0].Author)
	assert.Equal(t, "Tale A", stories[0].Title)
	assert.Equal(t, 7, stories[0].Views)
	assert.Equal(t, "https://example.test/stories/42", stories[0].URL)
	require.NotNil(t, stories[0].Published)
	assert.Equal(t, 2000, stories[0].Published.Year())

	assert.Equal(t, "43", stories[1].ID)
}

func TestFetchPageNotFound(t *testing.T) {
	adapter := &ListingAdapter{SourceName: "stories", PagePattern: "http://x/%d", MaxPages: 2}
	client := NewClient(time.Second, "t", nil)

	_, err := client.FetchPage(context.Background(), adapter, 3)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = client.FetchPage(context.Background(), adapter, 0)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestFetchPageHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusNotFound)
	}))
	defer srv.Close()

	adapter := &ListingAdapter{SourceName: "stories", PagePattern: srv.URL + "/%d"}
	client := NewClient(time.Second, "t", nil)

	_, err := client.FetchPage(context.Background(), adapter, 1)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "HTTP 404")
}

func TestRegistryLookup(t *testing.T) {
	r := NewRegistry(
		&ListingAdapter{SourceName: "beta", PagePattern: "http://b/%d"},
		&ListingAdapter{SourceName: "alpha", PagePattern: "http://a/%d"},
	)

	a, err := r.Lookup("alpha")
	require.NoError(t, err)
	assert.Equal(t, "alpha", a.Name())

	_, err = r.Lookup("gamma")
	assert.ErrorIs(t, err, ErrUnknownAdapter)

	assert.Equal(t, []string{"alpha", "beta"}, r.Names())
}

func TestStoryTextExtraction(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<html><head><script>nope()</script></head>
<body><nav>menu</nav><p>Once upon a time.</p><p>The end.</p></body></html>`)
	}))
	defer srv.Close()

	client := NewClient(time.Second, "t", nil)
	stories, err := client.FetchPage(context.Background(), &ListingAdapter{
		SourceName: "s", PagePattern: srv.URL + "/story-as-listing?p=%d",
	}, 1)
	require.NoError(t, err)
	assert.Empty(t, stories)

	text, err := client.StoryText(context.Background(), &library.Story{ID: "9", URL: srv.URL})
	require.NoError(t, err)
	assert.Contains(t, text, "Once upon a time.")
	assert.Contains(t, text, "The end.")
	assert.NotContains(t, text, "nope")
	assert.NotContains(t, text, "menu")
}
