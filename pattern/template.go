package pattern

import (
	"errors"
	"fmt"
	"strings"
)

// Template is a parsed rewrite template. Slots are either positional
// ("{}") or named ("{groupname}"); the two kinds cannot be mixed. At
// render time named slots resolve against the matcher's named capture
// groups, positional slots against its positional groups, and a single
// positional slot against the whole match when there are no groups.
type Template struct {
	raw      string
	segments []segment
	named    bool
	slots    int
}

type segment struct {
	literal string
	slot    bool
	name    string
}

// ParseTemplate parses and probe-validates a template. "{{" and "}}"
// escape literal braces. The expansion of a probe value must be
// non-empty, so a template of only empty literals is rejected.
func ParseTemplate(raw string) (*Template, error) {
	t := &Template{raw: raw}
	var lit strings.Builder
	i := 0
	for i < len(raw) {
		switch raw[i] {
		case '{':
			if i+1 < len(raw) && raw[i+1] == '{' {
				lit.WriteByte('{')
				i += 2
				continue
			}
			end := strings.IndexByte(raw[i:], '}')
			if end < 0 {
				return nil, &InvalidTemplateError{Template: raw, Err: errors.New("unclosed '{'")}
			}
			name := raw[i+1 : i+end]
			if strings.ContainsAny(name, "{ ") {
				return nil, &InvalidTemplateError{Template: raw, Err: fmt.Errorf("bad slot %q", raw[i:i+end+1])}
			}
			if lit.Len() > 0 {
				t.segments = append(t.segments, segment{literal: lit.String()})
				lit.Reset()
			}
			t.segments = append(t.segments, segment{slot: true, name: name})
			t.slots++
			if name != "" {
				t.named = true
			}
			i += end + 1
		case '}':
			if i+1 < len(raw) && raw[i+1] == '}' {
				lit.WriteByte('}')
				i += 2
				continue
			}
			return nil, &InvalidTemplateError{Template: raw, Err: errors.New("unmatched '}'")}
		default:
			lit.WriteByte(raw[i])
			i++
		}
	}
	if lit.Len() > 0 {
		t.segments = append(t.segments, segment{literal: lit.String()})
	}
	if t.named && t.slots > countNamed(t) {
		return nil, &InvalidTemplateError{Template: raw, Err: errors.New("mixed named and positional slots")}
	}
	// Probe: the template must produce output for a dummy match.
	probe := &Match{Whole: "test"}
	if t.named {
		probe.Named = make(map[string]string)
		for _, seg := range t.segments {
			if seg.slot {
				probe.Named[seg.name] = "test"
			}
		}
	} else if t.slots > 0 {
		probe.Groups = make([]string, t.slots)
		for i := range probe.Groups {
			probe.Groups[i] = "test"
		}
	}
	out, err := t.Expand(probe)
	if err != nil {
		return nil, err
	}
	if out == "" {
		return nil, &InvalidTemplateError{Template: raw, Err: errors.New("empty result")}
	}
	return t, nil
}

func countNamed(t *Template) int {
	n := 0
	for _, seg := range t.segments {
		if seg.slot && seg.name != "" {
			n++
		}
	}
	return n
}

// String returns the raw template text.
func (t *Template) String() string { return t.raw }

// Expand renders the template against a match result. Resolution order
// follows the matcher: named groups when the match has them, positional
// groups otherwise, and the whole match into a lone "{}" slot when the
// pattern captured nothing.
func (t *Template) Expand(m *Match) (string, error) {
	var b strings.Builder
	pos := 0
	for _, seg := range t.segments {
		if !seg.slot {
			b.WriteString(seg.literal)
			continue
		}
		switch {
		case len(m.Named) > 0:
			if seg.name == "" {
				return "", &InvalidTemplateError{Template: t.raw, Err: errors.New("positional slot with named groups")}
			}
			v, ok := m.Named[seg.name]
			if !ok {
				return "", &InvalidTemplateError{Template: t.raw, Err: fmt.Errorf("no capture group %q", seg.name)}
			}
			b.WriteString(v)
		case seg.name != "":
			return "", &InvalidTemplateError{Template: t.raw, Err: fmt.Errorf("no capture group %q", seg.name)}
		case len(m.Groups) > 0:
			if pos >= len(m.Groups) {
				return "", &InvalidTemplateError{Template: t.raw, Err: errors.New("more slots than capture groups")}
			}
			b.WriteString(m.Groups[pos])
			pos++
		default:
			if pos > 0 {
				return "", &InvalidTemplateError{Template: t.raw, Err: errors.New("more than one slot for a groupless pattern")}
			}
			b.WriteString(m.Whole)
			pos++
		}
	}
	return b.String(), nil
}
