package storage

import (
	"errors"
	"path/filepath"
)

// The tag graph itself is never written to disk. Custom tags survive
// restarts as the ordered list of tagging statements that created them,
// replayed against the fresh graph on load.

func (s *Store) tagsPath() string {
	return filepath.Join(s.root, "tags.yaml")
}

// TagStatements returns the recorded tagging statements in apply order.
func (s *Store) TagStatements() ([]string, error) {
	var stmts []string
	err := s.readYAML(s.tagsPath(), &stmts)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return stmts, nil
}

// AppendTagStatement records one applied tagging statement.
func (s *Store) AppendTagStatement(stmt string) error {
	stmts, err := s.TagStatements()
	if err != nil {
		return err
	}
	return s.writeYAML(s.tagsPath(), append(stmts, stmt))
}
