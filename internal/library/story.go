package library

import (
	"time"

	"github.com/raphaelgruber/storyshelf/internal/taggraph"
)

// Tag dimension names used by the system descriptors. User tags live
// under the reserved custom root instead.
const (
	DimAuthor       = "author"
	DimTitle        = "title"
	DimPublishDate  = "publish-date"
	DimStoryID      = "story-id"
	DimIndex        = "index"
	DimPage         = "page"
	DimDir          = "dir"
	DimFile         = "file"
	DimMaturity     = "maturity"
	DimEducation    = "education-years"
	DimReadingLevel = "reading-level"
	DimDifficult    = "difficult-word"
	DimTopic        = "topic"
	DimIdeology     = "ideology"
)

// Story is the narrative unit fetched from a source index.
type Story struct {
	ID        string     `yaml:"id"`
	Author    string     `yaml:"author"`
	Title     string     `yaml:"title"`
	Published *time.Time `yaml:"published,omitempty"`
	Views     int        `yaml:"views"`
	URL       string     `yaml:"url"`
	Excerpts  []string   `yaml:"excerpts,omitempty"`

	owner *Book
}

func (s *Story) NodeName() string {
	if s.owner != nil {
		return "story:" + s.owner.Key().String()
	}
	return "story:" + s.ID
}

func (s *Story) Kind() string      { return "story" }
func (s *Story) Owner() Descriptor { return ownerOrNil(s.owner) }

// SetTags projects the story's dimensions: author, title, publish date
// and story id.
func (s *Story) SetTags(g *taggraph.Graph) error {
	if s.Author != "" {
		if err := tagValue(g, DimAuthor, s.Author, nil, s); err != nil {
			return err
		}
	}
	if s.Title != "" {
		if err := tagValue(g, DimTitle, s.Title, nil, s); err != nil {
			return err
		}
	}
	if s.Published != nil {
		if err := tagValue(g, DimPublishDate, s.Published.Format(time.DateOnly), nil, s); err != nil {
			return err
		}
	}
	return tagValue(g, DimStoryID, s.ID, nil, s)
}

func (s *Story) UnsetTags(g *taggraph.Graph) { untag(g, s) }

// ownerOrNil keeps the Descriptor interface nil-clean: a typed nil *Book
// inside a non-nil interface would defeat the BookOf termination check.
func ownerOrNil(b *Book) Descriptor {
	if b == nil {
		return nil
	}
	return b
}
