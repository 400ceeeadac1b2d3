package pattern

import (
	"log/slog"
	"strconv"
)

// Highlight is a custom user pattern with an associated style and
// rewrite template. Matching tokens are rewritten through the template
// and wrapped in the resolved style codes.
type Highlight struct {
	*Pattern
	Style    string // raw user style text, e.g. "bold,red"
	Codes    string // resolved style codes
	Template *Template
}

// HighlightSaver persists the highlight list snapshot after a mutation.
type HighlightSaver interface {
	Save(items []*Highlight) error
}

// HighlightSaverFunc adapts a function to the HighlightSaver interface.
type HighlightSaverFunc func(items []*Highlight) error

func (f HighlightSaverFunc) Save(items []*Highlight) error { return f(items) }

// HighlightSet is the custom-highlight registry. Unlike the plain
// registries it keeps insertion order: annotation tries patterns in the
// order the user added them, and indexes follow that order.
type HighlightSet struct {
	items []*Highlight
	saver HighlightSaver
}

// NewHighlightSet creates an empty set.
func NewHighlightSet(saver HighlightSaver) *HighlightSet {
	return &HighlightSet{saver: saver}
}

// Add compiles, validates, and appends a highlight. The template is
// probe-validated before acceptance.
func (s *HighlightSet) Add(key, styleText, styleCodes, template string) (*Highlight, error) {
	for _, h := range s.items {
		if h.Key == key {
			return nil, &DuplicateKeyError{Key: key}
		}
	}
	p, err := Compile(key)
	if err != nil {
		return nil, err
	}
	tpl, err := ParseTemplate(template)
	if err != nil {
		return nil, err
	}
	h := &Highlight{Pattern: p, Style: styleText, Codes: styleCodes, Template: tpl}
	s.items = append(s.items, h)
	s.reindex()
	s.persist()
	return h, nil
}

// Remove deletes a highlight by key or 1-based display index.
func (s *HighlightSet) Remove(ref string) (*Highlight, error) {
	for i, h := range s.items {
		if h.Key == ref {
			return s.removeAt(i), nil
		}
	}
	if idx, err := strconv.Atoi(ref); err == nil {
		for i, h := range s.items {
			if h.Index == idx-1 {
				return s.removeAt(i), nil
			}
		}
	}
	return nil, ErrNotFound
}

func (s *HighlightSet) removeAt(i int) *Highlight {
	h := s.items[i]
	s.items = append(s.items[:i], s.items[i+1:]...)
	s.reindex()
	s.persist()
	return h
}

// Replace swaps the whole list for a loaded snapshot without
// persisting, used when restoring from the highlight store.
func (s *HighlightSet) Replace(items []*Highlight) {
	s.items = append([]*Highlight(nil), items...)
	s.reindex()
}

// List returns highlights in insertion order.
func (s *HighlightSet) List() []*Highlight {
	return append([]*Highlight(nil), s.items...)
}

// Len returns the number of highlights.
func (s *HighlightSet) Len() int { return len(s.items) }

// Clear removes every highlight and persists the empty list.
func (s *HighlightSet) Clear() {
	if len(s.items) == 0 {
		return
	}
	s.items = nil
	s.persist()
}

func (s *HighlightSet) reindex() {
	for i, h := range s.items {
		h.Index = i
	}
}

func (s *HighlightSet) persist() {
	if s.saver == nil {
		return
	}
	if err := s.saver.Save(s.List()); err != nil {
		slog.Warn("highlight save failed; in-memory list kept", slog.Any("err", err))
	}
}
