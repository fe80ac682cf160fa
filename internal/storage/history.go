package storage

import (
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/raphaelgruber/storyshelf/internal/library"
)

// HistoryEntry is one past search, recorded immutably. Seq numbers are
// assigned on append and never reused.
type HistoryEntry struct {
	Seq       int               `yaml:"seq"`
	Timestamp time.Time         `yaml:"timestamp"`
	Input     string            `yaml:"input"`
	Output    string            `yaml:"output,omitempty"`
	Books     []library.BookRef `yaml:"books,omitempty"`
}

func (s *Store) historyPath() string {
	return filepath.Join(s.root, "history.yaml")
}

// History returns all recorded searches in append order. A store with
// no history file returns an empty slice.
func (s *Store) History() ([]HistoryEntry, error) {
	var entries []HistoryEntry
	err := s.readYAML(s.historyPath(), &entries)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return entries, nil
}

// AppendHistory records a search, assigning the next sequence number.
// The entry's Seq field is ignored on input and returned filled in.
func (s *Store) AppendHistory(entry HistoryEntry) (HistoryEntry, error) {
	entries, err := s.History()
	if err != nil {
		return HistoryEntry{}, err
	}

	entry.Seq = 1
	for _, e := range entries {
		if e.Seq >= entry.Seq {
			entry.Seq = e.Seq + 1
		}
	}
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now()
	}
	entries = append(entries, entry)

	if err := s.writeYAML(s.historyPath(), entries); err != nil {
		return HistoryEntry{}, err
	}
	return entry, nil
}

// HistoryEntryBySeq returns the recorded search with the given sequence
// number; ErrNotFound when no entry carries it.
func (s *Store) HistoryEntryBySeq(seq int) (HistoryEntry, error) {
	entries, err := s.History()
	if err != nil {
		return HistoryEntry{}, err
	}
	for _, e := range entries {
		if e.Seq == seq {
			return e, nil
		}
	}
	return HistoryEntry{}, fmt.Errorf("%w: history entry %d", ErrNotFound, seq)
}
