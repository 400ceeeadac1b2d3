// Package command implements the in-band command surface: slash
// commands that mutate the pattern registries, inspect the caches, and
// adjust styles. Each command takes a leading verb plus short/long
// flags; mutually exclusive flags are a user-visible error, and batch
// pattern adds are best-effort.
package command

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/onnwee/chatfilter/cache"
	"github.com/onnwee/chatfilter/pattern"
	"github.com/onnwee/chatfilter/pipeline"
)

// Version reported by /xtools --version.
const Version = "1.0.0"

// Evaluator runs a snippet of code and returns its output. No
// implementation ships here; wiring one in is the embedder's choice.
type Evaluator interface {
	Eval(ctx context.Context, code string) (string, error)
}

// Dispatcher routes slash commands to the pipeline.
type Dispatcher struct {
	pipe *pipeline.Pipeline
	out  func(string)
	eval Evaluator
}

// NewDispatcher creates a dispatcher writing user-visible output through
// out. eval may be nil, which disables /eval with an error message.
func NewDispatcher(p *pipeline.Pipeline, out func(string), eval Evaluator) *Dispatcher {
	return &Dispatcher{pipe: p, out: out, eval: eval}
}

// Dispatch handles one input line. It reports whether the line was a
// recognized command; a false return means the line should go to the
// normal send path. Errors are user-facing.
func (d *Dispatcher) Dispatch(ctx context.Context, line string) (bool, error) {
	line = strings.TrimSpace(line)
	if !strings.HasPrefix(line, "/") {
		return false, nil
	}
	words := strings.Fields(line)
	verb := strings.ToLower(strings.TrimPrefix(words[0], "/"))
	args := words[1:]

	switch verb {
	case "catch":
		return true, d.cmdCatch(args)
	case "catchers":
		d.printCatchers()
		return true, nil
	case "catchfilter":
		return true, d.cmdCatchFilter(args)
	case "xignore":
		return true, d.cmdIgnore(args)
	case "highlights":
		return true, d.cmdHighlights(args)
	case "xtools":
		return true, d.cmdTools(args)
	case "eval":
		return true, d.cmdEval(ctx, args)
	}
	return false, nil
}

func (d *Dispatcher) cmdCatch(args []string) error {
	flags, rest := scanFlags(args, []flagDef{
		{"-c", "--clear", false},
		{"-d", "--delete", false},
		{"-f", "--filter", false},
		{"-h", "--help", false},
		{"-l", "--list", false},
		{"-m", "--msgs", false},
		{"-p", "--print", false},
		{"-r", "--remove", false},
	})
	restRaw := strings.Join(rest, " ")

	switch {
	case flags["help"]:
		d.printHelp("catch")
	case flags["clear"]:
		d.pipe.Catchers.Clear()
		d.status("Catch list cleared.")
	case flags["delete"]:
		d.pipe.CaughtMsgs.Clear()
		d.status("Caught messages cleared.")
	case flags["filter"]:
		if restRaw == "" {
			return errors.New("no filter pattern supplied, see /catch --help")
		}
		return d.pruneCaught(restRaw, false)
	case flags["list"]:
		d.printCatchers()
	case flags["msgs"]:
		d.printCaughtMsgs()
	case flags["print"]:
		d.toggleRedirect()
	case flags["remove"]:
		return d.removePatterns(d.pipe.Catchers, rest, "catch-msg list")
	case restRaw != "":
		return d.addPatterns(d.pipe.Catchers, restRaw, "catch-msg list")
	default:
		d.printCaughtMsgs()
	}
	return nil
}

func (d *Dispatcher) cmdCatchFilter(args []string) error {
	flags, rest := scanFlags(args, []flagDef{
		{"-c", "--clear", false},
		{"-h", "--help", false},
		{"-l", "--list", false},
		{"-n", "--nicks", false},
		{"-r", "--remove", false},
	})
	reg := d.pipe.Filters
	label := "filter list"
	if flags["nicks"] {
		reg = d.pipe.NickFilters
		label = "nick-filter list"
	}
	restRaw := strings.Join(rest, " ")

	switch {
	case flags["help"]:
		d.printHelp("catchfilter")
	case flags["clear"]:
		reg.Clear()
		d.status("Filter list cleared.")
	case flags["list"]:
		d.printRegistry(reg, label)
	case flags["remove"]:
		return d.removePatterns(reg, rest, label)
	case restRaw != "":
		return d.addPatterns(reg, restRaw, label)
	default:
		d.printRegistry(reg, label)
	}
	return nil
}

func (d *Dispatcher) cmdIgnore(args []string) error {
	flags, rest := scanFlags(args, []flagDef{
		{"-c", "--clear", false},
		{"-d", "--delete", false},
		{"-h", "--help", false},
		{"-l", "--list", false},
		{"-m", "--msgs", false},
		{"-r", "--remove", false},
	})
	restRaw := strings.Join(rest, " ")

	switch {
	case flags["clear"]:
		d.pipe.Ignored.Clear()
		d.status("Ignore list cleared.")
	case flags["delete"]:
		d.pipe.IgnoredMsgs.Clear()
		d.status("Deleted all ignored messages.")
	case flags["help"]:
		d.printHelp("xignore")
	case flags["list"]:
		d.printRegistry(d.pipe.Ignored, "ignored list")
	case flags["msgs"]:
		d.printIgnoredMsgs()
	case flags["remove"]:
		return d.removePatterns(d.pipe.Ignored, rest, "ignored list")
	case restRaw != "":
		return d.addPatterns(d.pipe.Ignored, restRaw, "ignored list")
	default:
		d.printRegistry(d.pipe.Ignored, "ignored list")
	}
	return nil
}

func (d *Dispatcher) cmdHighlights(args []string) error {
	flags, rest := scanFlags(args, []flagDef{
		{"-a", "--add", false},
		{"-c", "--colors", false},
		{"-h", "--help", false},
		{"-l", "--link", false},
		{"-n", "--nick", false},
		{"-p", "--patterns", false},
		{"-r", "--remove", false},
	})
	restRaw := strings.Join(rest, " ")

	switch {
	case flags["add"]:
		return d.addHighlight(restRaw)
	case flags["remove"]:
		return d.removeHighlight(restRaw)
	case flags["patterns"]:
		d.printHighlights()
	case flags["colors"]:
		d.printStyleNames()
	case flags["help"]:
		d.printHelp("highlights")
	case flags["link"] && flags["nick"]:
		return errors.New("cannot use --link and --nick at the same time")
	case restRaw == "":
		d.printCurrentStyles(flags["link"], flags["nick"])
	case flags["nick"]:
		if err := d.pipe.SetStyle("nick", strings.ToLower(restRaw)); err != nil {
			return err
		}
		d.status("Nick style set: " + restRaw)
	case flags["link"]:
		if err := d.pipe.SetStyle("link", strings.ToLower(restRaw)); err != nil {
			return err
		}
		d.status("Link style set: " + restRaw)
	default:
		d.printCurrentStyles(false, false)
	}
	return nil
}

func (d *Dispatcher) cmdTools(args []string) error {
	flags, rest := scanFlags(args, []flagDef{
		{"-v", "--version", false},
		{"-d", "--desc", false},
		{"-h", "--help", false},
	})
	switch {
	case flags["version"]:
		d.out("chatfilter v" + Version)
	case flags["help"]:
		name := "xtools"
		if len(rest) > 0 {
			name = strings.ToLower(rest[0])
		}
		d.printHelp(name)
	default:
		d.printDescriptions()
	}
	return nil
}

func (d *Dispatcher) cmdEval(ctx context.Context, args []string) error {
	flags, rest := scanFlags(args, []flagDef{
		{"-h", "--help", false},
	})
	if flags["help"] {
		d.printHelp("eval")
		return nil
	}
	if d.eval == nil {
		return errors.New("no evaluator is configured")
	}
	code := strings.Join(rest, " ")
	if code == "" {
		return errors.New("no code to evaluate")
	}
	out, err := d.eval.Eval(ctx, code)
	if err != nil {
		return fmt.Errorf("eval: %w", err)
	}
	if out == "" {
		d.status("No output.")
		return nil
	}
	d.out(out)
	return nil
}

// addPatterns registers one or more patterns, best-effort: bad or
// duplicate entries are reported individually and never abort the batch.
func (d *Dispatcher) addPatterns(reg *pattern.Registry, raw, label string) error {
	keys := splitPatterns(raw)
	added, errs := reg.AddAll(keys)
	for _, err := range errs {
		var dup *pattern.DuplicateKeyError
		if errors.As(err, &dup) {
			d.status(fmt.Sprintf("%s is already on the %s.", dup.Key, label))
			continue
		}
		d.warn(err.Error())
	}
	if len(added) > 0 {
		d.status(fmt.Sprintf("Added %s to the %s.",
			d.pipe.Styles.Text("blue", strings.Join(added, ", "), true, false), label))
	}
	return nil
}

func (d *Dispatcher) removePatterns(reg *pattern.Registry, refs []string, label string) error {
	if len(refs) == 0 {
		return errors.New("nothing to remove")
	}
	removed, errs := reg.RemoveAll(refs)
	for _, err := range errs {
		d.warn(err.Error())
	}
	if len(removed) > 0 {
		d.status(fmt.Sprintf("Removed %s from the %s.",
			d.pipe.Styles.Text("blue", strings.Join(removed, ", "), true, false), label))
	}
	return nil
}

// pruneCaught registers a new filter and drops already-caught messages
// it matches.
func (d *Dispatcher) pruneCaught(raw string, forNick bool) error {
	if d.pipe.CaughtMsgs.Len() == 0 {
		return errors.New("no messages have been caught")
	}
	pat, err := pattern.Compile(raw)
	if err != nil {
		return err
	}
	reg := d.pipe.Filters
	if forNick {
		reg = d.pipe.NickFilters
	}
	if _, err := reg.Add(raw); err != nil {
		var dup *pattern.DuplicateKeyError
		if !errors.As(err, &dup) {
			return err
		}
	}
	n := d.pipe.CaughtMsgs.RemoveMatching(func(rec cache.Record) bool {
		if forNick && pat.Find(rec.Participant) != nil {
			return true
		}
		return pat.Find(rec.Text) != nil
	})
	noun := "messages"
	if n == 1 {
		noun = "message"
	}
	d.status(fmt.Sprintf("Filtered %s caught %s.",
		d.pipe.Styles.Text("blue", fmt.Sprintf("%d", n), true, false), noun))
	return nil
}

func (d *Dispatcher) addHighlight(raw string) error {
	parts := strings.Fields(raw)
	var patText, styleText, template string
	switch len(parts) {
	case 3:
		patText, styleText, template = parts[0], parts[1], parts[2]
	case 2:
		patText, styleText, template = parts[0], parts[1], "{}"
	default:
		return fmt.Errorf("invalid arguments for --add: %q (want pattern style [template])", raw)
	}
	styleText = strings.ToLower(styleText)
	codes, err := d.pipe.Styles.Codes(styleText)
	if err != nil {
		return err
	}
	h, err := d.pipe.Customs.Add(patText, styleText, codes, template)
	if err != nil {
		return err
	}
	d.status("Added highlight pattern: " + h.Key)
	return nil
}

func (d *Dispatcher) removeHighlight(ref string) error {
	if ref == "" {
		return errors.New("nothing to remove")
	}
	h, err := d.pipe.Customs.Remove(ref)
	if err != nil {
		return err
	}
	d.status("Removed highlight pattern: " + h.Key)
	return nil
}

func (d *Dispatcher) toggleRedirect() {
	on := !d.pipe.Redirect()
	d.pipe.SetRedirect(on)
	if on {
		d.status("Redirecting caught messages to the caught-messages surface.")
	} else {
		d.status("Caught messages are kept silently, see /catch --msgs.")
	}
}

func (d *Dispatcher) printRegistry(reg *pattern.Registry, label string) {
	pats := reg.List()
	if len(pats) == 0 {
		d.out("No patterns on the " + label + ".")
		return
	}
	d.out(fmt.Sprintf("Patterns on the %s (%d):", label, len(pats)))
	for _, p := range pats {
		d.out(fmt.Sprintf("    %d: %s", p.Index+1,
			d.pipe.Styles.Text("blue", p.Key, false, false)))
	}
}

func (d *Dispatcher) printCatchers() {
	d.printRegistry(d.pipe.Catchers, "catch-msg list")
}

func (d *Dispatcher) printCaughtMsgs() {
	recs := d.pipe.CaughtMsgs.Records()
	if len(recs) == 0 {
		d.out("No messages have been caught.")
		return
	}
	d.out(fmt.Sprintf("Caught messages (%d):", len(recs)))
	for _, rec := range recs {
		d.out("    " + d.pipe.FormatRecord(rec))
	}
}

func (d *Dispatcher) printIgnoredMsgs() {
	recs := d.pipe.IgnoredMsgs.Records()
	if len(recs) == 0 {
		d.out("No messages have been ignored.")
		return
	}
	d.out(fmt.Sprintf("Ignored messages (%d):", len(recs)))
	for _, rec := range recs {
		d.out("    " + d.pipe.FormatRecord(rec))
	}
}

func (d *Dispatcher) printHighlights() {
	items := d.pipe.Customs.List()
	if len(items) == 0 {
		d.out("No custom highlight patterns.")
		return
	}
	d.out(fmt.Sprintf("Custom highlight patterns (%d):", len(items)))
	for _, h := range items {
		d.out(fmt.Sprintf("    %d: %s  style: %s  template: %s",
			h.Index+1,
			d.pipe.Styles.Text("blue", h.Key, false, false),
			h.Style,
			h.Template.String()))
	}
}

func (d *Dispatcher) printStyleNames() {
	d.out("Available styles:")
	for _, name := range d.pipe.Styles.Names() {
		styled := d.pipe.Styles.Text(name, name, false, false)
		d.out("    " + styled)
	}
}

func (d *Dispatcher) printCurrentStyles(linkOnly, nickOnly bool) {
	if !nickOnly {
		d.out("Link style: " + d.pipe.StyleSetting("link"))
	}
	if !linkOnly {
		d.out("Nick style: " + d.pipe.StyleSetting("nick"))
	}
}

func (d *Dispatcher) status(msg string) {
	d.out(d.pipe.Styles.Text("green", "status:", false, false) + " " + msg)
}

func (d *Dispatcher) warn(msg string) {
	d.out(d.pipe.Styles.Text("red", "error:", true, false) + " " + msg)
}

var descriptions = map[string]string{
	"catch":       "Catch messages based on content.",
	"catchers":    "List the current catch patterns (shortcut for /catch --list).",
	"catchfilter": "Exclude messages from catching by content or nick.",
	"xignore":     "Ignore participants by name pattern.",
	"highlights":  "Manage custom highlight patterns and link/nick styles.",
	"xtools":      "Show version and command descriptions.",
	"eval":        "Evaluate a code snippet through the configured evaluator.",
}

var helpTexts = map[string]string{
	"catch": strings.Join([]string{
		"Usage: /catch <pattern>...",
		"       /catch -f <pattern>",
		"       /catch -r <pattern>",
		"       /catch [-c | -d | -l | -m | -p]",
		"Options:",
		"    <pattern>        : word or regex; matching messages are caught.",
		"                       Quote a pattern to keep embedded spaces.",
		"    -c, --clear      : clear the catch pattern list.",
		"    -d, --delete     : delete all caught messages.",
		"    -f, --filter pat : filter already-caught messages and add pat",
		"                       as a new content filter.",
		"    -l, --list       : list catch patterns.",
		"    -m, --msgs       : show caught messages (default).",
		"    -p, --print      : toggle redirecting caught messages.",
		"    -r, --remove     : remove a pattern by key or number.",
	}, "\n"),
	"catchfilter": strings.Join([]string{
		"Usage: /catchfilter [-n] <pattern>...",
		"       /catchfilter [-n] [-c | -l | -r <pattern>]",
		"Options:",
		"    <pattern>        : word or regex; matching messages are",
		"                       excluded from catching (still displayed).",
		"    -c, --clear      : clear the filter list.",
		"    -l, --list       : list filters (default).",
		"    -n, --nicks      : operate on the nick-filter list instead.",
		"    -r, --remove     : remove a filter by key or number.",
	}, "\n"),
	"xignore": strings.Join([]string{
		"Usage: /xignore <pattern>...",
		"       /xignore [-c | -d | -l | -m | -r <pattern>]",
		"Options:",
		"    <pattern>        : nick or regex; matching senders are",
		"                       suppressed and their messages archived.",
		"    -c, --clear      : clear the ignore list.",
		"    -d, --delete     : delete all ignored messages.",
		"    -l, --list       : list ignore patterns (default).",
		"    -m, --msgs       : show ignored messages.",
		"    -r, --remove     : remove a pattern by key or number.",
	}, "\n"),
	"highlights": strings.Join([]string{
		"Usage: /highlights -a <pattern> <style> [template]",
		"       /highlights -r <pattern-or-number>",
		"       /highlights [-l | -n] [style[,style...]]",
		"       /highlights [-c | -p]",
		"Options:",
		"    -a, --add        : add a custom highlight pattern.",
		"    -c, --colors     : show available style names.",
		"    -l, --link       : show or set the link style.",
		"    -n, --nick       : show or set the nick style.",
		"    -p, --patterns   : list custom highlight patterns.",
		"    -r, --remove     : remove a custom pattern by key or number.",
	}, "\n"),
	"xtools": strings.Join([]string{
		"Usage: /xtools [-v | -d | -h [command]]",
		"Options:",
		"    -d, --desc       : describe every command (default).",
		"    -h, --help       : show help for a command.",
		"    -v, --version    : show the version.",
	}, "\n"),
	"eval": strings.Join([]string{
		"Usage: /eval <code>",
		"Evaluates code through the configured evaluator, if any.",
	}, "\n"),
}

func (d *Dispatcher) printHelp(name string) {
	if text, ok := helpTexts[name]; ok {
		d.out(text)
		return
	}
	d.out("No help for: " + name)
}

func (d *Dispatcher) printDescriptions() {
	names := make([]string, 0, len(descriptions))
	for name := range descriptions {
		names = append(names, name)
	}
	sort.Strings(names)
	d.out("Commands:")
	for _, name := range names {
		d.out(fmt.Sprintf("    %-12s %s",
			d.pipe.Styles.Text("blue", "/"+name, false, false)+":",
			descriptions[name]))
	}
}
