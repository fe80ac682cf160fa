// Package service provides the application operations behind the CLI:
// loading the library from disk, fetching sources and running searches.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/raphaelgruber/storyshelf/internal/library"
	"github.com/raphaelgruber/storyshelf/internal/storage"
)

// LoadService rebuilds the in-memory library from stored records.
type LoadService struct {
	store       *storage.Store
	logger      *slog.Logger
	concurrency int
}

func NewLoadService(store *storage.Store, concurrency int, logger *slog.Logger) *LoadService {
	if concurrency <= 0 {
		concurrency = 4
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &LoadService{store: store, concurrency: concurrency, logger: logger}
}

// LoadResult summarizes one library load.
type LoadResult struct {
	Indexes int
	Pages   int
	Books   int
	Errors  []string
}

// Load populates the library from the stored pages and profiles of the
// given source indexes. Records are decoded concurrently; registration
// into the tag graph is sequential since the graph is single-writer.
func (s *LoadService) Load(ctx context.Context, lib *library.Library, indexes []*library.IndexDescriptor) (*LoadResult, error) {
	result := &LoadResult{}

	type slot struct {
		book *library.Book
		err  error
	}
	var slots []*slot

	type workItem struct {
		story *library.Story
		page  library.IndexPage
		index *library.IndexDescriptor
		out   *slot
	}
	var work []workItem

	for _, desc := range indexes {
		lib.AddIndex(desc)
		result.Indexes++

		recs, err := s.store.LoadPages(desc.Name)
		if err != nil {
			return nil, fmt.Errorf("load index %q: %w", desc.Name, err)
		}
		for _, rec := range recs {
			result.Pages++
			page := library.IndexPage{
				Index: rec.Index,
				Page:  rec.Page,
				Path:  s.store.PagePath(rec.Index, rec.Page),
			}
			for _, story := range rec.Stories {
				out := &slot{}
				slots = append(slots, out)
				work = append(work, workItem{story: story, page: page, index: desc, out: out})
			}
		}
	}

	// Decode books into their own slots; no shared state between workers.
	workChan := make(chan workItem, len(work))
	var wg sync.WaitGroup
	for i := 0; i < s.concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for item := range workChan {
				if ctx.Err() != nil {
					return
				}
				item.out.book, item.out.err = s.assemble(item.story, item.page, item.index)
			}
		}()
	}
	for _, item := range work {
		workChan <- item
	}
	close(workChan)
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	for _, out := range slots {
		if out.err != nil {
			result.Errors = append(result.Errors, out.err.Error())
			continue
		}
		if out.book == nil {
			continue
		}
		if err := lib.AddBook(out.book); err != nil {
			result.Errors = append(result.Errors, err.Error())
			continue
		}
		result.Books++
	}

	s.logger.Info("library loaded", "indexes", result.Indexes, "pages", result.Pages,
		"books", result.Books, "errors", len(result.Errors))
	return result, nil
}

func (s *LoadService) assemble(story *library.Story, page library.IndexPage, index *library.IndexDescriptor) (*library.Book, error) {
	if story.ID == "" {
		return nil, fmt.Errorf("page %s/%d: story without id", page.Index, page.Page)
	}

	profilePath := s.store.ProfilePath(page.Index, story.ID)
	profile, err := s.store.LoadProfile(profilePath)
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			return nil, fmt.Errorf("story %s: %w", story.ID, err)
		}
		profile = nil
	}

	return library.NewBook(story, &page, index, profile), nil
}
