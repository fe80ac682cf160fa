package service

import (
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/raphaelgruber/storyshelf/internal/export"
	"github.com/raphaelgruber/storyshelf/internal/library"
	"github.com/raphaelgruber/storyshelf/internal/metrics"
	"github.com/raphaelgruber/storyshelf/internal/parser"
	"github.com/raphaelgruber/storyshelf/internal/query"
	"github.com/raphaelgruber/storyshelf/internal/storage"
	"github.com/raphaelgruber/storyshelf/internal/tagging"
)

// SearchService runs query and tagging expressions against a loaded
// library and records searches in the history.
type SearchService struct {
	lib      *library.Library
	engine   *query.Engine
	tagging  *tagging.Engine
	exporter *export.Exporter
	store    *storage.Store
	metrics  *metrics.Collector
	logger   *slog.Logger
}

func NewSearchService(lib *library.Library, store *storage.Store,
	collector *metrics.Collector, logger *slog.Logger) *SearchService {
	if logger == nil {
		logger = slog.Default()
	}
	if collector == nil {
		collector = metrics.NewCollector()
	}
	return &SearchService{
		lib:      lib,
		engine:   query.New(lib, logger),
		tagging:  tagging.New(lib, logger),
		exporter: export.New(lib),
		store:    store,
		metrics:  collector,
		logger:   logger,
	}
}

// Engine exposes the query engine, for callers that tune its limits.
func (s *SearchService) Engine() *query.Engine { return s.engine }

// SearchResult pairs the rendered matches with the recorded history
// entry.
type SearchResult struct {
	Entry storage.HistoryEntry
	Books []library.BookRef
}

// Search parses and runs a query expression, renders the matches to w
// and appends a history entry. output names the file w points at, or is
// empty when the matches went to the terminal.
func (s *SearchService) Search(w io.Writer, input, output string, format export.Format, sort query.SortOrder) (*SearchResult, error) {
	start := time.Now()
	ast, err := parser.ParseQuery(input)
	if err != nil {
		s.metrics.RecordError(metrics.OpQueryExec)
		return nil, err
	}

	result, err := s.engine.Exec(ast, sort)
	if err != nil {
		s.metrics.RecordError(metrics.OpQueryExec)
		return nil, err
	}
	s.metrics.Record(metrics.OpQueryExec, time.Since(start), 0)

	exportStart := time.Now()
	refs, err := s.exporter.Export(w, result, format)
	if err != nil {
		s.metrics.RecordError(metrics.OpExport)
		return nil, err
	}
	s.metrics.Record(metrics.OpExport, time.Since(exportStart), int64(len(refs)))

	entry, err := s.store.AppendHistory(storage.HistoryEntry{
		Input:  input,
		Output: output,
		Books:  refs,
	})
	if err != nil {
		return nil, fmt.Errorf("record search: %w", err)
	}

	s.logger.Info("search executed", "seq", entry.Seq, "input", input, "books", len(refs))
	return &SearchResult{Entry: entry, Books: refs}, nil
}

// Rerun re-executes a recorded search by its sequence number. The rerun
// is itself recorded under a fresh sequence number.
func (s *SearchService) Rerun(w io.Writer, seq int, output string, format export.Format, sort query.SortOrder) (*SearchResult, error) {
	entry, err := s.store.HistoryEntryBySeq(seq)
	if err != nil {
		return nil, err
	}
	return s.Search(w, entry.Input, output, format, sort)
}

// Tag parses and applies a tagging statement to the in-memory graph.
func (s *SearchService) Tag(input string) error {
	ast, err := parser.ParseTagging(input)
	if err != nil {
		return err
	}
	return s.tagging.Exec(ast)
}

// TagAndRecord applies a tagging statement and, on success, records it
// so the next load replays it against the fresh graph.
func (s *SearchService) TagAndRecord(input string) error {
	if err := s.Tag(input); err != nil {
		return err
	}
	return s.store.AppendTagStatement(input)
}

// ReplayTags re-applies the recorded tagging statements. Statements
// that no longer apply (a book gone from its source, say) are skipped
// and reported.
func (s *SearchService) ReplayTags() []error {
	stmts, err := s.store.TagStatements()
	if err != nil {
		return []error{err}
	}
	var failed []error
	for _, stmt := range stmts {
		if err := s.Tag(stmt); err != nil {
			failed = append(failed, fmt.Errorf("replay %q: %w", stmt, err))
		}
	}
	return failed
}

// History returns all recorded searches.
func (s *SearchService) History() ([]storage.HistoryEntry, error) {
	return s.store.History()
}
