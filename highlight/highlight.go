// Package highlight implements the annotation engine: word-by-word
// styling of links, participant names, and custom user patterns. The
// message is split on single spaces and rejoined verbatim, so runs of
// spaces survive and chat text is never re-flowed.
package highlight

import (
	"log/slog"
	"regexp"
	"strings"

	"github.com/onnwee/chatfilter/pattern"
	"github.com/onnwee/chatfilter/style"
)

// Link recognition mirrors the hexchat url matcher: a known scheme or
// host prefix, a bare word with a known extension, or an email shape.
const (
	linkPrefixes   = `irc\.|ftp\.|www\.|irc://|ftp://|http://|https://|file://|rtsp://|ut2004://`
	linkExtensions = `org|net|com|edu|html|info|name`
)

var linkRe = regexp.MustCompile(
	`(^(` + linkPrefixes + `)(.))?([\w\-]+)([.](` + linkExtensions + `)([^\w.]|$))` +
		`|(^(` + linkPrefixes + `)(.))([\w\-]+)([.](` + linkExtensions + `)([^\w.]|$))?` +
		`|(.+@.+\..+)`)

// IsLink reports whether a single token looks like a URL or email.
func IsLink(token string) bool {
	return linkRe.MatchString(token)
}

// Annotator rewrites message tokens with style codes. Link and nick
// styles are user-settable; custom highlights carry their own codes.
type Annotator struct {
	styles  *style.Table
	customs *pattern.HighlightSet

	linkCodes string
	nickCodes string
	ownCodes  string
}

// New builds an annotator with the default styles: underlined blue
// links, green nicks, dark grey own-message palette.
func New(styles *style.Table, customs *pattern.HighlightSet) *Annotator {
	a := &Annotator{styles: styles, customs: customs}
	a.linkCodes, _ = styles.Codes("underline,blue")
	a.nickCodes, _ = styles.Codes("green")
	a.ownCodes, _ = styles.Codes("darkgrey")
	return a
}

// SetLinkStyle replaces the link style with resolved codes.
func (a *Annotator) SetLinkStyle(codes string) { a.linkCodes = codes }

// SetNickStyle replaces the nick style with resolved codes.
func (a *Annotator) SetNickStyle(codes string) { a.nickCodes = codes }

// LinkStyle returns the current link style codes.
func (a *Annotator) LinkStyle() string { return a.linkCodes }

// NickStyle returns the current nick style codes.
func (a *Annotator) NickStyle() string { return a.nickCodes }

// Input is one message to annotate.
type Input struct {
	Text         string
	Sender       string
	SelfNick     string
	Participants []string
	// Mention marks a highlighted-mention event; the host already
	// styles those, so participant-name detection is skipped.
	Mention bool
}

// Annotate styles the message tokens and reports whether anything
// changed. Per token the precedence is fixed: custom patterns first
// (insertion order, first match wins, the rewritten token is still
// eligible for link matching), then link detection, then participant
// names. A sender's own links render in the own-message palette.
func (a *Annotator) Annotate(in Input) (string, bool) {
	words := strings.Split(in.Text, " ")
	participants := make(map[string]bool, len(in.Participants))
	for _, p := range in.Participants {
		participants[p] = true
	}
	ownMsg := in.Sender == in.SelfNick

	changed := false
	for i, word := range words {
		selfName := matchesName(word, in.SelfNick)
		anyName := word != "" && (participants[word] || participants[trimTrailing(word)])

		for _, h := range a.customs.List() {
			m := h.FindPrefix(word)
			if m == nil {
				continue
			}
			rewritten, ok := a.rewriteCustom(word, h, m)
			if !ok {
				break
			}
			words[i] = rewritten
			word = rewritten
			changed = true
			break
		}

		if linkRe.MatchString(word) {
			words[i] = a.wrap(word, a.linkCodes, ownMsg)
			changed = true
			continue
		}

		// Own-name mentions are the host's "highlighted mention"
		// event; styling them here would double up.
		if !in.Mention && !selfName && anyName {
			words[i] = a.wrap(word, a.nickCodes, ownMsg)
			changed = true
		}
	}

	if !changed {
		return in.Text, false
	}
	return strings.Join(words, " "), true
}

// rewriteCustom expands the highlight template for a matched token and
// wraps it in the highlight's style codes. Expansion failures fall back
// to the untouched token; a broken template must not eat the word.
func (a *Annotator) rewriteCustom(word string, h *pattern.Highlight, m *pattern.Match) (string, bool) {
	// A groupless pattern substitutes the whole token, not just the
	// matched slice.
	expand := &pattern.Match{Whole: word, Groups: m.Groups, Named: m.Named}
	out, err := h.Template.Expand(expand)
	if err != nil {
		slog.Error("custom highlight expansion failed",
			slog.String("pattern", h.Key), slog.Any("err", err))
		return word, false
	}
	return h.Codes + out + style.Reset, true
}

// wrap styles a single token. Own messages restore the own-message
// palette after the reset so the remainder of the line keeps its color.
func (a *Annotator) wrap(word, codes string, ownMsg bool) string {
	reset := style.Reset
	if ownMsg {
		reset = style.Reset + a.ownCodes
	}
	return codes + word + reset
}

// matchesName reports whether the token is name, optionally with one
// trailing punctuation character ("alice:" matches "alice").
func matchesName(token, name string) bool {
	if name == "" {
		return false
	}
	return token == name || trimTrailing(token) == name
}

func trimTrailing(token string) string {
	if token == "" {
		return token
	}
	return token[:len(token)-1]
}
