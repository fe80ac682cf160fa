// Package storage reads and writes the serialized page, profile and
// history records as structured text files. The tag graph itself is
// never persisted; it is rebuilt in memory from these records on every
// run.
package storage

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/raphaelgruber/storyshelf/internal/library"
)

// ErrNotFound indicates a requested record does not exist on disk.
var ErrNotFound = errors.New("record not found")

// PageRecord is the serialized form of one index page and the story
// summaries listed on it.
type PageRecord struct {
	Index   string           `yaml:"index"`
	Page    int              `yaml:"page"`
	Stories []*library.Story `yaml:"stories"`
}

// Store is the file-backed record store rooted at one data directory.
type Store struct {
	root   string
	logger *slog.Logger
}

func New(root string, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{root: root, logger: logger}
}

// Root returns the data directory.
func (s *Store) Root() string { return s.root }

// PagePath returns the record path of an index page, relative to the
// store root. Relative paths are what descriptors carry; the store
// joins them with the root on access.
func (s *Store) PagePath(index string, page int) string {
	return filepath.Join("pages", index, fmt.Sprintf("page-%d.yaml", page))
}

// ProfilePath returns the record path of a story's profile, relative to
// the store root.
func (s *Store) ProfilePath(index, storyID string) string {
	return filepath.Join("profiles", index, storyID+".yaml")
}

// SavePage writes a page record, creating directories as needed.
func (s *Store) SavePage(rec PageRecord) error {
	return s.writeYAML(filepath.Join(s.root, s.PagePath(rec.Index, rec.Page)), rec)
}

// LoadPage reads one page record; ErrNotFound when absent.
func (s *Store) LoadPage(index string, page int) (PageRecord, error) {
	var rec PageRecord
	if err := s.readYAML(filepath.Join(s.root, s.PagePath(index, page)), &rec); err != nil {
		return PageRecord{}, err
	}
	return rec, nil
}

// LoadPages reads every stored page record of an index, ordered by page
// number. An index with no stored pages returns an empty slice.
func (s *Store) LoadPages(index string) ([]PageRecord, error) {
	dir := filepath.Join(s.root, "pages", index)
	entries, err := os.ReadDir(dir)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scan pages of %q: %w", index, err)
	}

	var recs []PageRecord
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != ".yaml" {
			continue
		}
		var rec PageRecord
		if err := s.readYAML(filepath.Join(dir, e.Name()), &rec); err != nil {
			s.logger.Warn("skipping unreadable page record", "file", e.Name(), "error", err)
			continue
		}
		recs = append(recs, rec)
	}
	sort.Slice(recs, func(i, j int) bool { return recs[i].Page < recs[j].Page })
	return recs, nil
}

// SaveProfile writes a profile record at its own backing path.
func (s *Store) SaveProfile(p *library.Profile) error {
	if p.Path == "" {
		return fmt.Errorf("profile has no backing path")
	}
	return s.writeYAML(filepath.Join(s.root, p.Path), p)
}

// LoadProfile reads the profile stored at the given path relative to the
// store root; ErrNotFound when absent.
func (s *Store) LoadProfile(path string) (*library.Profile, error) {
	var p library.Profile
	if err := s.readYAML(filepath.Join(s.root, path), &p); err != nil {
		return nil, err
	}
	p.Path = path
	return &p, nil
}

func (s *Store) writeYAML(path string, v any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create record directory: %w", err)
	}
	data, err := yaml.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal record: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write record: %w", err)
	}
	return nil
}

func (s *Store) readYAML(path string, v any) error {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("%w: %s", ErrNotFound, path)
	}
	if err != nil {
		return fmt.Errorf("read record: %w", err)
	}
	if err := yaml.Unmarshal(data, v); err != nil {
		return fmt.Errorf("decode record %s: %w", path, err)
	}
	return nil
}
