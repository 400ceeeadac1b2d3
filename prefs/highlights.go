package prefs

import (
	"encoding/gob"
	"errors"
	"io"
	"os"
)

// HighlightRecord is the raw persisted form of a custom highlight. The
// compiled pattern, resolved style codes, and parsed template are
// rebuilt from these three strings on load.
type HighlightRecord struct {
	Pattern  string
	Style    string
	Template string
}

// HighlightStore persists the custom-highlight list as a single binary
// snapshot file.
type HighlightStore struct {
	path string
}

// NewHighlightStore creates a store backed by path.
func NewHighlightStore(path string) *HighlightStore {
	return &HighlightStore{path: path}
}

// Load reads the whole-list snapshot. An absent or empty file yields an
// empty list without error.
func (s *HighlightStore) Load() ([]HighlightRecord, error) {
	f, err := os.Open(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, &PersistenceError{Path: s.path, Op: "read", Err: err}
	}
	defer f.Close()

	var records []HighlightRecord
	if err := gob.NewDecoder(f).Decode(&records); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, &PersistenceError{Path: s.path, Op: "decode", Err: err}
	}
	return records, nil
}

// Save replaces the snapshot with the given list.
func (s *HighlightStore) Save(records []HighlightRecord) error {
	f, err := os.Create(s.path)
	if err != nil {
		return &PersistenceError{Path: s.path, Op: "write", Err: err}
	}
	defer f.Close()

	if err := gob.NewEncoder(f).Encode(records); err != nil {
		return &PersistenceError{Path: s.path, Op: "encode", Err: err}
	}
	return nil
}
