// Package prefs persists settings as a flat "key = value" text file,
// one setting per line. The line format is a stable wire format shared
// with earlier tools, so it is preserved exactly: '#' lines are
// comments, blank lines are stripped, and values split on the first
// '=' with surrounding whitespace trimmed.
package prefs

import (
	"fmt"
	"os"
	"sort"
	"strings"
)

// ListSep joins multi-value settings (pattern lists). Chosen because it
// cannot occur in a sane pattern and survives the line format.
const ListSep = "{|}"

// PersistenceError reports a read or write failure against the
// settings file. Callers surface it as a warning; in-memory state is
// never rolled back because of one.
type PersistenceError struct {
	Path string
	Op   string
	Err  error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("prefs %s %s: %v", e.Op, e.Path, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

// Store is a file-backed settings map. Every Set/Delete writes the
// file; reads are served from memory.
type Store struct {
	path     string
	settings map[string]string
}

// Open loads the settings file at path. A missing file yields an empty
// store without error; a present-but-unreadable file is an error.
func Open(path string) (*Store, error) {
	s := &Store{path: path, settings: make(map[string]string)}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return s, nil
		}
		return nil, &PersistenceError{Path: path, Op: "read", Err: err}
	}
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if strings.Count(line, "=") != 1 {
			continue
		}
		parts := strings.SplitN(line, "=", 2)
		key := strings.TrimSpace(parts[0])
		val := strings.TrimSpace(parts[1])
		if key == "" {
			continue
		}
		s.settings[key] = val
	}
	return s, nil
}

// Path returns the backing file path.
func (s *Store) Path() string { return s.path }

// Get returns the value for key, or "" when unset.
func (s *Store) Get(key string) string { return s.settings[key] }

// GetBool interprets the value for key as a boolean; unset or
// unrecognized values return the fallback.
func (s *Store) GetBool(key string, fallback bool) bool {
	switch strings.ToLower(s.settings[key]) {
	case "on", "true", "yes", "y", "1", "+":
		return true
	case "off", "false", "no", "n", "0", "-":
		return false
	}
	return fallback
}

// Set stores key=value and writes the file. An empty value deletes the
// key, matching the historical behavior of dropping empty settings.
func (s *Store) Set(key, value string) error {
	if value == "" {
		return s.Delete(key)
	}
	s.settings[key] = value
	return s.Save()
}

// Delete removes key and writes the file.
func (s *Store) Delete(key string) error {
	if _, ok := s.settings[key]; !ok {
		return nil
	}
	delete(s.settings, key)
	return s.Save()
}

// Save writes all settings, one "key = value" line each, sorted by key
// for a stable file.
func (s *Store) Save() error {
	keys := make([]string, 0, len(s.settings))
	for key := range s.settings {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	var b strings.Builder
	for _, key := range keys {
		fmt.Fprintf(&b, "%s = %s\n", key, s.settings[key])
	}
	if err := os.WriteFile(s.path, []byte(b.String()), 0o644); err != nil {
		return &PersistenceError{Path: s.path, Op: "write", Err: err}
	}
	return nil
}

// SetList joins values with ListSep under key. An empty list removes
// the setting.
func (s *Store) SetList(key string, values []string) error {
	return s.Set(key, strings.Join(values, ListSep))
}

// GetList splits the value for key on ListSep, dropping empty entries.
func (s *Store) GetList(key string) []string {
	return splitList(s.settings[key], ListSep)
}

// SetCommaList joins values with commas; the ignore list historically
// uses commas instead of ListSep.
func (s *Store) SetCommaList(key string, values []string) error {
	return s.Set(key, strings.Join(values, ","))
}

// GetCommaList splits the value for key on commas.
func (s *Store) GetCommaList(key string) []string {
	return splitList(s.settings[key], ",")
}

func splitList(raw, sep string) []string {
	if raw == "" {
		return nil
	}
	var out []string
	for _, v := range strings.Split(raw, sep) {
		v = strings.TrimSpace(v)
		if v != "" {
			out = append(out, v)
		}
	}
	return out
}
