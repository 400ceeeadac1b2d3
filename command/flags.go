package command

import (
	"regexp"
	"strings"
)

// flagDef declares one recognized flag: a short form, its long form, and
// the default when the flag is absent.
type flagDef struct {
	short   string
	long    string
	enabled bool
}

// flagSet holds the scanned flag values keyed by long name (without the
// leading dashes).
type flagSet map[string]bool

// scanFlags walks the argument words, consuming every recognized short or
// long flag and returning the remaining words joined back in order.
// Unrecognized words (including unknown dashed tokens) stay in the rest.
func scanFlags(args []string, defs []flagDef) (flagSet, []string) {
	set := make(flagSet, len(defs))
	for _, d := range defs {
		set[strings.TrimPrefix(d.long, "--")] = d.enabled
	}
	var rest []string
	for _, arg := range args {
		matched := false
		for _, d := range defs {
			if arg == d.short || arg == d.long {
				set[strings.TrimPrefix(d.long, "--")] = true
				matched = true
				break
			}
		}
		if !matched {
			rest = append(rest, arg)
		}
	}
	return set, rest
}

var quotedPat = regexp.MustCompile(`"[^"]+"|'[^']+'`)

// splitPatterns splits a raw argument string into pattern keys. Double-
// or single-quoted segments keep embedded spaces; everything else splits
// on whitespace, so several patterns can be added in one call.
func splitPatterns(raw string) []string {
	quoted := quotedPat.FindAllString(raw, -1)
	if len(quoted) == 0 {
		return strings.Fields(raw)
	}
	out := make([]string, 0, len(quoted))
	for _, q := range quoted {
		out = append(out, q[1:len(q)-1])
	}
	leftover := quotedPat.ReplaceAllString(raw, " ")
	out = append(out, strings.Fields(leftover)...)
	return out
}
