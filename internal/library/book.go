package library

import (
	"fmt"

	"github.com/raphaelgruber/storyshelf/internal/taggraph"
)

// BookKey uniquely identifies a book inside the library.
type BookKey struct {
	Index   string
	Page    int
	StoryID string
}

func (k BookKey) String() string {
	return fmt.Sprintf("%s/%d/%s", k.Index, k.Page, k.StoryID)
}

// BookRef is the persistable reference to a book, recorded in search
// history entries.
type BookRef struct {
	Index   string `yaml:"index"`
	Page    int    `yaml:"page"`
	StoryID string `yaml:"story_id"`
	Profile string `yaml:"profile,omitempty"`
}

// Book is the aggregate unit of the library: a story, the book's own
// clone of the index page it was listed on, a shared reference to the
// source-index descriptor (owned by the Library) and an optional scoring
// profile.
type Book struct {
	Story   *Story
	Page    *IndexPage
	Index   *IndexDescriptor
	Profile *Profile
}

// NewBook assembles a book, cloning the index page and wiring ownership
// back-references into every owned descriptor.
func NewBook(story *Story, page *IndexPage, index *IndexDescriptor, profile *Profile) *Book {
	b := &Book{
		Story:   story,
		Page:    page.Clone(),
		Index:   index,
		Profile: profile,
	}
	story.owner = b
	b.Page.owner = b
	if profile != nil {
		profile.owner = b
	}
	return b
}

// Key derives the library key from the owned page and story.
func (b *Book) Key() BookKey {
	return BookKey{Index: b.Page.Index, Page: b.Page.Page, StoryID: b.Story.ID}
}

// Ref returns the persistable reference for history records.
func (b *Book) Ref() BookRef {
	r := BookRef{Index: b.Page.Index, Page: b.Page.Page, StoryID: b.Story.ID}
	if b.Profile != nil {
		r.Profile = b.Profile.Path
	}
	return r
}

func (b *Book) NodeName() string  { return "book:" + b.Key().String() }
func (b *Book) Kind() string      { return "book" }
func (b *Book) Owner() Descriptor { return nil }

// SetTags cascades through the owned descriptors. The book entity itself
// only enters the graph when a custom tag is attached to it.
func (b *Book) SetTags(g *taggraph.Graph) error {
	if err := b.Story.SetTags(g); err != nil {
		return err
	}
	if err := b.Page.SetTags(g); err != nil {
		return err
	}
	if b.Profile != nil {
		if err := b.Profile.SetTags(g); err != nil {
			return err
		}
	}
	return nil
}

// UnsetTags fully detaches the book's descriptor subtree, including any
// custom tags attached to the aggregate itself.
func (b *Book) UnsetTags(g *taggraph.Graph) {
	b.Story.UnsetTags(g)
	b.Page.UnsetTags(g)
	if b.Profile != nil {
		b.Profile.UnsetTags(g)
	}
	untag(g, b)
}
