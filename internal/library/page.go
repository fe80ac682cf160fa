package library

import (
	"fmt"
	"path/filepath"

	"github.com/raphaelgruber/storyshelf/internal/taggraph"
)

// IndexDescriptor describes one configured source index. Descriptors are
// owned by the Library and shared by every Book loaded from that source;
// books hold a reference, never a copy.
type IndexDescriptor struct {
	Name  string `yaml:"name"`
	Alias string `yaml:"alias,omitempty"`
	Pages int    `yaml:"pages"` // configured page bound, 0 = unknown
}

// IndexPage locates one listing page of a source index on disk. Every
// book tags its own clone; the original stays with the loader.
type IndexPage struct {
	Index string `yaml:"index"`
	Page  int    `yaml:"page"`
	Path  string `yaml:"path,omitempty"`

	owner *Book
}

func (p *IndexPage) NodeName() string {
	if p.owner != nil {
		return "page:" + p.owner.Key().String()
	}
	return fmt.Sprintf("page:%s/%d", p.Index, p.Page)
}

func (p *IndexPage) Kind() string      { return "page" }
func (p *IndexPage) Owner() Descriptor { return ownerOrNil(p.owner) }

// Clone returns a detached copy for a book to own.
func (p *IndexPage) Clone() *IndexPage {
	c := *p
	c.owner = nil
	return &c
}

// SetTags projects index name, page number (weighted by the number so
// page ordering survives into sort comparisons), containing directory
// and file name.
func (p *IndexPage) SetTags(g *taggraph.Graph) error {
	if err := tagValue(g, DimIndex, p.Index, nil, p); err != nil {
		return err
	}
	w := taggraph.Float64(float64(p.Page))
	if err := tagWeightedValue(g, DimPage, fmt.Sprintf("page-%d", p.Page), w, p); err != nil {
		return err
	}
	if p.Path != "" {
		if err := tagValue(g, DimDir, filepath.Dir(p.Path), nil, p); err != nil {
			return err
		}
		if err := tagValue(g, DimFile, filepath.Base(p.Path), nil, p); err != nil {
			return err
		}
	}
	return nil
}

func (p *IndexPage) UnsetTags(g *taggraph.Graph) { untag(g, p) }
