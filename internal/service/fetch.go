package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/raphaelgruber/storyshelf/internal/fetch"
	"github.com/raphaelgruber/storyshelf/internal/library"
	"github.com/raphaelgruber/storyshelf/internal/metrics"
	"github.com/raphaelgruber/storyshelf/internal/score"
	"github.com/raphaelgruber/storyshelf/internal/storage"
)

// FetchService downloads listing pages from a source, persists them as
// page records and optionally scores each story's text into a profile.
type FetchService struct {
	client   *fetch.Client
	registry *fetch.Registry
	store    *storage.Store
	scorer   *score.Scorer
	metrics  *metrics.Collector
	logger   *slog.Logger
}

func NewFetchService(client *fetch.Client, registry *fetch.Registry, store *storage.Store,
	scorer *score.Scorer, collector *metrics.Collector, logger *slog.Logger) *FetchService {
	if logger == nil {
		logger = slog.Default()
	}
	if collector == nil {
		collector = metrics.NewCollector()
	}
	return &FetchService{
		client:   client,
		registry: registry,
		store:    store,
		scorer:   scorer,
		metrics:  collector,
		logger:   logger,
	}
}

// ProgressStage identifies what a progress event reports on.
type ProgressStage string

const (
	StagePage  ProgressStage = "page"
	StageScore ProgressStage = "score"
)

// ProgressEvent is emitted after each unit of fetch work. Pages is zero
// when the source is unbounded.
type ProgressEvent struct {
	Stage   ProgressStage
	Page    int
	Pages   int
	StoryID string
	Err     error
}

// FetchOptions controls one fetch run.
type FetchOptions struct {
	Source   string
	FromPage int // default 1
	ToPage   int // 0 = until the source runs out
	Score    bool
	Progress func(ProgressEvent)
}

// FetchResult summarizes one fetch run.
type FetchResult struct {
	JobID   string
	Source  string
	Pages   int
	Stories int
	Scored  int
	Errors  []string
}

// Fetch runs one fetch job. Page records are written as they arrive so
// a partial run still leaves usable data behind.
func (s *FetchService) Fetch(ctx context.Context, opts FetchOptions) (*FetchResult, error) {
	adapter, err := s.registry.Lookup(opts.Source)
	if err != nil {
		return nil, err
	}

	result := &FetchResult{
		JobID:  uuid.New().String()[:8], // short id for log correlation
		Source: opts.Source,
	}
	logger := s.logger.With("job", result.JobID, "source", opts.Source)
	logger.Info("fetch started", "from", opts.FromPage, "to", opts.ToPage)

	from := opts.FromPage
	if from < 1 {
		from = 1
	}
	for page := from; opts.ToPage == 0 || page <= opts.ToPage; page++ {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		start := time.Now()
		stories, err := s.client.FetchPage(ctx, adapter, page)
		if errors.Is(err, fetch.ErrNotFound) {
			break
		}
		if err != nil {
			s.metrics.RecordError(metrics.OpFetchPage)
			s.emit(opts, ProgressEvent{Stage: StagePage, Page: page, Pages: opts.ToPage, Err: err})
			result.Errors = append(result.Errors, err.Error())
			continue
		}
		s.metrics.Record(metrics.OpFetchPage, time.Since(start), int64(len(stories)))

		if len(stories) == 0 && opts.ToPage == 0 {
			// An unbounded source signals its end with an empty page.
			break
		}

		rec := storage.PageRecord{Index: opts.Source, Page: page, Stories: stories}
		if err := s.store.SavePage(rec); err != nil {
			return result, fmt.Errorf("save page %d: %w", page, err)
		}
		result.Pages++
		result.Stories += len(stories)
		s.emit(opts, ProgressEvent{Stage: StagePage, Page: page, Pages: opts.ToPage})

		if opts.Score && s.scorer != nil {
			s.scorePage(ctx, opts, stories, result)
		}
	}

	logger.Info("fetch finished", "pages", result.Pages, "stories", result.Stories,
		"scored", result.Scored, "errors", len(result.Errors))
	return result, nil
}

func (s *FetchService) scorePage(ctx context.Context, opts FetchOptions, stories []*library.Story, result *FetchResult) {
	for _, story := range stories {
		if ctx.Err() != nil {
			return
		}
		if err := s.scoreStory(ctx, opts.Source, story); err != nil {
			s.metrics.RecordError(metrics.OpScore)
			result.Errors = append(result.Errors, err.Error())
			s.emit(opts, ProgressEvent{Stage: StageScore, StoryID: story.ID, Err: err})
			continue
		}
		result.Scored++
		s.emit(opts, ProgressEvent{Stage: StageScore, StoryID: story.ID})
	}
}

func (s *FetchService) scoreStory(ctx context.Context, source string, story *library.Story) error {
	fetchStart := time.Now()
	text, err := s.client.StoryText(ctx, story)
	if err != nil {
		s.metrics.RecordError(metrics.OpFetchStory)
		return err
	}
	s.metrics.Record(metrics.OpFetchStory, time.Since(fetchStart), 1)

	scoreStart := time.Now()
	profile, err := s.scorer.Score(ctx, story, text)
	if err != nil {
		return err
	}
	s.metrics.Record(metrics.OpScore, time.Since(scoreStart), 1)

	profile.Path = s.store.ProfilePath(source, story.ID)
	return s.store.SaveProfile(profile)
}

func (s *FetchService) emit(opts FetchOptions, ev ProgressEvent) {
	if opts.Progress != nil {
		opts.Progress(ev)
	}
}
