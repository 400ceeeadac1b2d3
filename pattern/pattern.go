// Package pattern implements the compiled pattern registries that drive
// message classification: unique raw-text keys, dense display indexes
// recomputed after every mutation, and best-effort persistence on each
// change. Custom highlight patterns (style + rewrite template) build on
// the same machinery.
package pattern

import (
	"log/slog"
	"regexp"
	"sort"
	"strconv"
)

// Pattern is a compiled matching rule. Key is the raw source text and
// the unique identity within a registry; Index is the dense display
// position used for remove-by-number.
type Pattern struct {
	Key   string
	Index int
	re    *regexp.Regexp
}

// Compile builds a Pattern from raw regex text.
func Compile(key string) (*Pattern, error) {
	re, err := regexp.Compile(key)
	if err != nil {
		return nil, &InvalidPatternError{Text: key, Err: err}
	}
	return &Pattern{Key: key, re: re}, nil
}

// Match holds the result of a successful match.
type Match struct {
	Whole  string
	Groups []string
	Named  map[string]string
}

// List returns the capture groups, or the whole match when the pattern
// has none. This is what gets stored on a caught/ignored record for
// later re-highlighting.
func (m *Match) List() []string {
	if len(m.Groups) > 0 {
		return m.Groups
	}
	return []string{m.Whole}
}

// Find searches s anywhere (unanchored) and returns the match, or nil.
func (p *Pattern) Find(s string) *Match {
	sub := p.re.FindStringSubmatch(s)
	if sub == nil {
		return nil
	}
	return p.buildMatch(sub)
}

// FindPrefix matches only at the start of s. Token rewriting uses this
// so a custom pattern behaves like a word prefix test.
func (p *Pattern) FindPrefix(s string) *Match {
	loc := p.re.FindStringSubmatchIndex(s)
	if loc == nil || loc[0] != 0 {
		return nil
	}
	sub := make([]string, 0, len(loc)/2)
	for i := 0; i < len(loc); i += 2 {
		if loc[i] < 0 {
			sub = append(sub, "")
			continue
		}
		sub = append(sub, s[loc[i]:loc[i+1]])
	}
	return p.buildMatch(sub)
}

func (p *Pattern) buildMatch(sub []string) *Match {
	m := &Match{Whole: sub[0]}
	if len(sub) > 1 {
		m.Groups = sub[1:]
	}
	names := p.re.SubexpNames()
	for i, name := range names {
		if name == "" || i >= len(sub) {
			continue
		}
		if m.Named == nil {
			m.Named = make(map[string]string)
		}
		m.Named[name] = sub[i]
	}
	return m
}

// Saver persists a registry's raw keys after a mutation. A nil Saver
// disables persistence (used by tests and by in-memory registries).
type Saver interface {
	Save(keys []string) error
}

// SaverFunc adapts a function to the Saver interface.
type SaverFunc func(keys []string) error

func (f SaverFunc) Save(keys []string) error { return f(keys) }

// Registry is an ordered, indexed set of patterns with unique keys.
// Mutations reindex (stable sort by key) and trigger a persistence
// write; a failed write is logged and never rolls back memory.
type Registry struct {
	name  string
	items map[string]*Pattern
	saver Saver
}

// NewRegistry creates an empty registry. name is used in log output.
func NewRegistry(name string, saver Saver) *Registry {
	return &Registry{name: name, items: make(map[string]*Pattern), saver: saver}
}

// Add compiles and registers a pattern. Duplicate keys return a
// *DuplicateKeyError without mutating anything; invalid text returns a
// *InvalidPatternError.
func (r *Registry) Add(key string) (*Pattern, error) {
	if _, ok := r.items[key]; ok {
		return nil, &DuplicateKeyError{Key: key}
	}
	p, err := Compile(key)
	if err != nil {
		return nil, err
	}
	r.items[key] = p
	r.reindex()
	r.persist()
	return p, nil
}

// AddAll adds each key independently. Successes are kept and persisted,
// failures are reported per item, and the batch never aborts early.
func (r *Registry) AddAll(keys []string) (added []string, errs []error) {
	for _, key := range keys {
		if _, err := r.Add(key); err != nil {
			errs = append(errs, err)
			continue
		}
		added = append(added, key)
	}
	return added, errs
}

// Remove deletes a pattern by literal key or 1-based display index.
func (r *Registry) Remove(ref string) (*Pattern, error) {
	key, ok := r.resolve(ref)
	if !ok {
		return nil, ErrNotFound
	}
	p := r.items[key]
	delete(r.items, key)
	r.reindex()
	r.persist()
	return p, nil
}

// RemoveAll removes each reference independently, best-effort.
func (r *Registry) RemoveAll(refs []string) (removed []string, errs []error) {
	for _, ref := range refs {
		p, err := r.Remove(ref)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		removed = append(removed, p.Key)
	}
	return removed, errs
}

// resolve maps a key-or-display-index reference to a registry key.
func (r *Registry) resolve(ref string) (string, bool) {
	if _, ok := r.items[ref]; ok {
		return ref, true
	}
	n, err := strconv.Atoi(ref)
	if err != nil {
		return "", false
	}
	for key, p := range r.items {
		if p.Index == n-1 {
			return key, true
		}
	}
	return "", false
}

// Clear removes every pattern and persists the empty list.
func (r *Registry) Clear() {
	if len(r.items) == 0 {
		return
	}
	r.items = make(map[string]*Pattern)
	r.persist()
}

// Len returns the number of registered patterns.
func (r *Registry) Len() int { return len(r.items) }

// List returns patterns in ascending index order.
func (r *Registry) List() []*Pattern {
	out := make([]*Pattern, 0, len(r.items))
	for _, p := range r.items {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Index < out[j].Index })
	return out
}

// Keys returns the raw pattern keys in index order.
func (r *Registry) Keys() []string {
	list := r.List()
	keys := make([]string, len(list))
	for i, p := range list {
		keys[i] = p.Key
	}
	return keys
}

// Match tries patterns in ascending index order and returns the first
// one that matches s, with its match result. First match wins.
func (r *Registry) Match(s string) (*Pattern, *Match) {
	for _, p := range r.List() {
		if m := p.Find(s); m != nil {
			return p, m
		}
	}
	return nil, nil
}

// reindex renumbers indexes 0..N-1 sorted by key, so remove-by-number
// stays stable across mutations.
func (r *Registry) reindex() {
	keys := make([]string, 0, len(r.items))
	for key := range r.items {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for i, key := range keys {
		r.items[key].Index = i
	}
}

// persist writes the current key set through the saver. The in-memory
// registry stays the source of truth when the write fails.
func (r *Registry) persist() {
	if r.saver == nil {
		return
	}
	if err := r.saver.Save(r.Keys()); err != nil {
		slog.Warn("pattern save failed; in-memory list kept",
			slog.String("registry", r.name), slog.Any("err", err))
	}
}
