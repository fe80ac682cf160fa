package fetch

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"golang.org/x/net/html"

	"github.com/raphaelgruber/storyshelf/internal/library"
)

var (
	// ErrNotFound indicates a page number beyond what the source offers.
	ErrNotFound = errors.New("page not found")

	// ErrUnknownAdapter indicates no adapter is registered under a name.
	ErrUnknownAdapter = errors.New("unknown source adapter")
)

// Adapter knows the layout of one remote story index: how page URLs are
// formed and how story summaries are read out of a listing page.
type Adapter interface {
	Name() string
	PageURL(page int) (string, error)
	ParseSummaries(doc *html.Node) ([]*library.Story, error)
}

// Registry maps source names to their adapters.
type Registry struct {
	adapters map[string]Adapter
}

func NewRegistry(adapters ...Adapter) *Registry {
	r := &Registry{adapters: make(map[string]Adapter)}
	for _, a := range adapters {
		r.Register(a)
	}
	return r
}

func (r *Registry) Register(a Adapter) {
	r.adapters[a.Name()] = a
}

func (r *Registry) Lookup(name string) (Adapter, error) {
	a, ok := r.adapters[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownAdapter, name)
	}
	return a, nil
}

func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.adapters))
	for name := range r.adapters {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ListingAdapter reads indexes that publish stories as article elements
// with data attributes. Page URLs are formed from a printf pattern with
// one %d verb; MaxPages of zero means unbounded.
type ListingAdapter struct {
	SourceName  string
	PagePattern string
	MaxPages    int
}

func (a *ListingAdapter) Name() string { return a.SourceName }

func (a *ListingAdapter) PageURL(page int) (string, error) {
	if page < 1 || (a.MaxPages > 0 && page > a.MaxPages) {
		return "", fmt.Errorf("%w: page %d of %s", ErrNotFound, page, a.SourceName)
	}
	return fmt.Sprintf(a.PagePattern, page), nil
}

// ParseSummaries walks the document for article elements and reads one
// story summary per article. Articles without a data-id are skipped.
func (a *ListingAdapter) ParseSummaries(doc *html.Node) ([]*library.Story, error) {
	var stories []*library.Story
	for _, article := range elementsByTag(doc, "article") {
		story := parseArticle(article)
		if story == nil {
			continue
		}
		stories = append(stories, story)
	}
	return stories, nil
}

func parseArticle(n *html.Node) *library.Story {
	id := attr(n, "data-id")
	if id == "" {
		return nil
	}
	story := &library.Story{
		ID:     id,
		Author: attr(n, "data-author"),
	}
	if v, err := strconv.Atoi(attr(n, "data-views")); err == nil {
		story.Views = v
	}
	if ts, err := time.Parse(time.DateOnly, attr(n, "data-published")); err == nil {
		story.Published = &ts
	}
	if link := firstElementByTag(n, "a"); link != nil {
		story.URL = attr(link, "href")
		story.Title = strings.TrimSpace(textContent(link))
	}
	return story
}

func elementsByTag(n *html.Node, tag string) []*html.Node {
	var out []*html.Node
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == tag {
			out = append(out, n)
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return out
}

func firstElementByTag(n *html.Node, tag string) *html.Node {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode && c.Data == tag {
			return c
		}
		if found := firstElementByTag(c, tag); found != nil {
			return found
		}
	}
	return nil
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func textContent(n *html.Node) string {
	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return sb.String()
}
