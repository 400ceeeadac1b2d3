// Package style maps color and style names to mIRC control codes.
// The table is built once and never mutated; lookups accept names,
// common aliases, and raw mIRC color numbers.
package style

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// mIRC control characters. These are what the chat display understands,
// so they are the wire format for every styled token we emit.
const (
	colorPrefix = "\x03"
	Bold        = "\x02"
	Underline   = "\x1f"
	Reset       = "\x0f"
)

// UnknownStyleError reports a style name that is not in the table.
// Callers are expected to fall back to the reset code rather than fail
// the whole render.
type UnknownStyleError struct {
	Name string
}

func (e *UnknownStyleError) Error() string {
	return fmt.Sprintf("unknown style: %q", e.Name)
}

type entry struct {
	index int
	code  string
}

// Table is an immutable name -> code mapping.
type Table struct {
	entries map[string]entry
}

// colorNames indexed by mIRC color number.
var colorNames = []string{
	"none", "black", "darkblue",
	"darkgreen", "darkred", "red", "darkpurple",
	"brown", "yellow", "green", "darkcyan",
	"cyan", "blue", "purple", "darkgrey", "grey",
}

// NewTable builds the style table: the sixteen mIRC colors by name,
// bold/underline/reset, and the usual aliases.
func NewTable() *Table {
	entries := make(map[string]entry, len(colorNames)+8)
	for i, name := range colorNames {
		entries[name] = entry{index: i, code: colorPrefix + strconv.Itoa(i)}
	}
	entries["underline"] = entry{index: 97, code: Underline}
	entries["bold"] = entry{index: 98, code: Bold}
	entries["reset"] = entry{index: 99, code: Reset}

	entries["b"] = entries["bold"]
	entries["u"] = entries["underline"]
	entries["normal"] = entries["none"]
	entries["darkgray"] = entries["darkgrey"]
	entries["gray"] = entries["grey"]
	return &Table{entries: entries}
}

// Code resolves a single style name or mIRC color number to its code.
// Unknown names return the reset code alongside an *UnknownStyleError.
func (t *Table) Code(name string) (string, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if e, ok := t.entries[name]; ok {
		return e.code, nil
	}
	if n, err := strconv.Atoi(name); err == nil {
		return colorPrefix + strconv.Itoa(n), nil
	}
	return Reset, &UnknownStyleError{Name: name}
}

// Codes resolves a comma-separated style list ("bold,red") to the
// concatenated codes. If any name fails the whole lookup fails.
func (t *Table) Codes(list string) (string, error) {
	var b strings.Builder
	for _, name := range strings.Split(list, ",") {
		code, err := t.Code(name)
		if err != nil {
			return "", err
		}
		b.WriteString(code)
	}
	return b.String(), nil
}

// Text wraps text in the named color, with optional bold/underline, and
// terminates it with a reset. Unknown colors degrade to reset per Code.
func (t *Table) Text(color, text string, bold, underline bool) string {
	code, _ := t.Code(color)
	var b strings.Builder
	if bold {
		b.WriteString(Bold)
	}
	if underline {
		b.WriteString(Underline)
	}
	b.WriteString(code)
	b.WriteString(text)
	b.WriteString(Reset)
	return b.String()
}

// Names returns all primary style names ordered by their display index.
// Aliases are excluded so the list matches what the color demo prints.
func (t *Table) Names() []string {
	seen := make(map[int]string, len(t.entries))
	for name, e := range t.entries {
		// Prefer the canonical name over an alias for the same index.
		if cur, ok := seen[e.index]; !ok || len(name) > len(cur) {
			seen[e.index] = name
		}
	}
	// Pin the canonical names where an alias would win the length rule.
	seen[0] = "none"
	seen[14] = "darkgrey"
	seen[15] = "grey"
	indexes := make([]int, 0, len(seen))
	for i := range seen {
		indexes = append(indexes, i)
	}
	sort.Ints(indexes)
	names := make([]string, 0, len(indexes))
	for _, i := range indexes {
		names = append(names, seen[i])
	}
	return names
}

var stripRe = regexp.MustCompile(`\x03(\d{1,2}(,\d{1,2})?)?`)

// Strip removes all mIRC color and style codes from text. Used when
// computing dedup ids so a restyled duplicate still collapses, and when
// comparing participant names that arrive pre-colored.
func Strip(text string) string {
	text = stripRe.ReplaceAllString(text, "")
	for _, c := range []string{Bold, Underline, Reset, "\x16"} {
		text = strings.ReplaceAll(text, c, "")
	}
	return text
}
