package command

import (
	"context"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/onnwee/chatfilter/pipeline"
	"github.com/onnwee/chatfilter/prefs"
)

type nullHost struct{}

func (nullHost) Emit(pipeline.Event, string) error { return nil }
func (nullHost) Print(string) error                { return nil }
func (nullHost) SelfNick() string                  { return "me" }
func (nullHost) Participants(string) []string      { return nil }
func (nullHost) FindSurface(string) (pipeline.Surface, bool) {
	return nil, false
}
func (nullHost) OpenSurface(string, bool) {}

func newTestDispatcher(t *testing.T) (*Dispatcher, *pipeline.Pipeline, *[]string) {
	t.Helper()
	settings, err := prefs.Open(filepath.Join(t.TempDir(), "test.conf"))
	if err != nil {
		t.Fatal(err)
	}
	p := pipeline.New(pipeline.Options{
		Host:            nullHost{},
		Settings:        settings,
		IgnoredCapacity: 10,
		CaughtCapacity:  10,
		RedirectSurface: "[caught-msgs]",
		SurfaceTimeout:  time.Second,
	})
	p.Load()
	var lines []string
	d := NewDispatcher(p, func(s string) { lines = append(lines, s) }, nil)
	return d, p, &lines
}

func TestScanFlags(t *testing.T) {
	defs := []flagDef{
		{"-c", "--clear", false},
		{"-l", "--list", false},
		{"-x", "--extra", true},
	}
	flags, rest := scanFlags([]string{"-c", "foo", "--list", "bar"}, defs)
	if !flags["clear"] || !flags["list"] {
		t.Errorf("flags = %v, want clear and list set", flags)
	}
	if !flags["extra"] {
		t.Error("default-true flag lost without being passed")
	}
	if !reflect.DeepEqual(rest, []string{"foo", "bar"}) {
		t.Errorf("rest = %v", rest)
	}
}

func TestSplitPatterns(t *testing.T) {
	tests := []struct {
		raw  string
		want []string
	}{
		{"foo bar", []string{"foo", "bar"}},
		{`"foo bar" baz`, []string{"foo bar", "baz"}},
		{`'a b' "c d"`, []string{"a b", "c d"}},
		{"single", []string{"single"}},
	}
	for _, tt := range tests {
		got := splitPatterns(tt.raw)
		if !reflect.DeepEqual(got, tt.want) {
			t.Errorf("splitPatterns(%q) = %v, want %v", tt.raw, got, tt.want)
		}
	}
}

func TestDispatchNonCommand(t *testing.T) {
	d, _, _ := newTestDispatcher(t)
	handled, err := d.Dispatch(context.Background(), "hello world")
	if handled || err != nil {
		t.Errorf("Dispatch(plain text) = %v, %v; want false, nil", handled, err)
	}
	handled, _ = d.Dispatch(context.Background(), "/nosuchcmd")
	if handled {
		t.Error("unknown command reported as handled")
	}
}

func TestCatchAddRemove(t *testing.T) {
	d, p, _ := newTestDispatcher(t)
	ctx := context.Background()

	if _, err := d.Dispatch(ctx, "/catch urgent alert"); err != nil {
		t.Fatal(err)
	}
	if got := p.Catchers.Len(); got != 2 {
		t.Fatalf("catchers = %d, want 2", got)
	}

	// Duplicate is a skip, not an error.
	if _, err := d.Dispatch(ctx, "/catch urgent"); err != nil {
		t.Errorf("duplicate add errored: %v", err)
	}
	if got := p.Catchers.Len(); got != 2 {
		t.Errorf("catchers after dup = %d, want 2", got)
	}

	if _, err := d.Dispatch(ctx, "/catch -r urgent"); err != nil {
		t.Fatal(err)
	}
	if got := p.Catchers.Len(); got != 1 {
		t.Errorf("catchers after remove = %d, want 1", got)
	}

	if _, err := d.Dispatch(ctx, "/catch -c"); err != nil {
		t.Fatal(err)
	}
	if got := p.Catchers.Len(); got != 0 {
		t.Errorf("catchers after clear = %d, want 0", got)
	}
}

func TestCatchQuotedPattern(t *testing.T) {
	d, p, _ := newTestDispatcher(t)
	if _, err := d.Dispatch(context.Background(), `/catch "free stuff"`); err != nil {
		t.Fatal(err)
	}
	keys := p.Catchers.Keys()
	if len(keys) != 1 || keys[0] != "free stuff" {
		t.Errorf("keys = %v, want [free stuff]", keys)
	}
}

func TestCatchFilterNickList(t *testing.T) {
	d, p, _ := newTestDispatcher(t)
	ctx := context.Background()
	if _, err := d.Dispatch(ctx, "/catchfilter -n ^bot"); err != nil {
		t.Fatal(err)
	}
	if p.NickFilters.Len() != 1 || p.Filters.Len() != 0 {
		t.Errorf("nick filters = %d, content filters = %d; want 1, 0",
			p.NickFilters.Len(), p.Filters.Len())
	}
	if _, err := d.Dispatch(ctx, "/catchfilter spoiler"); err != nil {
		t.Fatal(err)
	}
	if p.Filters.Len() != 1 {
		t.Errorf("content filters = %d, want 1", p.Filters.Len())
	}
}

func TestCatchFilterPrunesCaught(t *testing.T) {
	d, p, _ := newTestDispatcher(t)
	ctx := context.Background()
	if _, err := d.Dispatch(ctx, "/catch urgent"); err != nil {
		t.Fatal(err)
	}
	p.Process(ctx, pipeline.Event{Participant: "a", Text: "urgent noise", Channel: "#c"})
	p.Process(ctx, pipeline.Event{Participant: "b", Text: "urgent signal", Channel: "#c"})
	if p.CaughtMsgs.Len() != 2 {
		t.Fatalf("caught = %d, want 2", p.CaughtMsgs.Len())
	}

	if _, err := d.Dispatch(ctx, "/catch -f noise"); err != nil {
		t.Fatal(err)
	}
	if p.CaughtMsgs.Len() != 1 {
		t.Errorf("caught after prune = %d, want 1", p.CaughtMsgs.Len())
	}
	if p.Filters.Len() != 1 {
		t.Errorf("filters after prune = %d, want 1 (pattern registered)", p.Filters.Len())
	}
}

func TestIgnoreCommand(t *testing.T) {
	d, p, _ := newTestDispatcher(t)
	ctx := context.Background()
	if _, err := d.Dispatch(ctx, "/xignore ^spam troll42"); err != nil {
		t.Fatal(err)
	}
	if p.Ignored.Len() != 2 {
		t.Fatalf("ignored = %d, want 2", p.Ignored.Len())
	}
	// Remove by 1-based display index.
	if _, err := d.Dispatch(ctx, "/xignore -r 1"); err != nil {
		t.Fatal(err)
	}
	if p.Ignored.Len() != 1 {
		t.Errorf("ignored after remove = %d, want 1", p.Ignored.Len())
	}
}

func TestHighlightsAdd(t *testing.T) {
	d, p, _ := newTestDispatcher(t)
	ctx := context.Background()
	if _, err := d.Dispatch(ctx, "/highlights -a foo.*bar red <{}>"); err != nil {
		t.Fatal(err)
	}
	items := p.Customs.List()
	if len(items) != 1 {
		t.Fatalf("customs = %d, want 1", len(items))
	}
	if items[0].Style != "red" || items[0].Template.String() != "<{}>" {
		t.Errorf("custom = %q / %q", items[0].Style, items[0].Template.String())
	}

	// Template defaults to {} with two args.
	if _, err := d.Dispatch(ctx, "/highlights -a baz green"); err != nil {
		t.Fatal(err)
	}
	items = p.Customs.List()
	if items[1].Template.String() != "{}" {
		t.Errorf("default template = %q, want {}", items[1].Template.String())
	}

	if _, err := d.Dispatch(ctx, "/highlights -a onlypattern"); err == nil {
		t.Error("expected error for missing style argument")
	}
	if _, err := d.Dispatch(ctx, "/highlights -a x nosuchstyle"); err == nil {
		t.Error("expected error for unknown style")
	}
}

func TestHighlightsLinkNickExclusive(t *testing.T) {
	d, _, _ := newTestDispatcher(t)
	if _, err := d.Dispatch(context.Background(), "/highlights -l -n red"); err == nil {
		t.Error("expected mutual-exclusion error for --link with --nick")
	}
}

func TestHighlightsSetStyle(t *testing.T) {
	d, p, _ := newTestDispatcher(t)
	if _, err := d.Dispatch(context.Background(), "/highlights -n bold,red"); err != nil {
		t.Fatal(err)
	}
	if got := p.StyleSetting("nick"); got != "bold,red" {
		t.Errorf("nick style = %q, want bold,red", got)
	}
}

func TestRedirectToggle(t *testing.T) {
	d, p, _ := newTestDispatcher(t)
	ctx := context.Background()
	if p.Redirect() {
		t.Fatal("redirect enabled by default")
	}
	if _, err := d.Dispatch(ctx, "/catch -p"); err != nil {
		t.Fatal(err)
	}
	if !p.Redirect() {
		t.Error("toggle did not enable redirect")
	}
	if _, err := d.Dispatch(ctx, "/catch -p"); err != nil {
		t.Fatal(err)
	}
	if p.Redirect() {
		t.Error("second toggle did not disable redirect")
	}
}

func TestEvalWithoutEvaluator(t *testing.T) {
	d, _, _ := newTestDispatcher(t)
	if _, err := d.Dispatch(context.Background(), "/eval 1+1"); err == nil {
		t.Error("expected error when no evaluator is configured")
	}
}

func TestVersionOutput(t *testing.T) {
	d, _, lines := newTestDispatcher(t)
	if _, err := d.Dispatch(context.Background(), "/xtools -v"); err != nil {
		t.Fatal(err)
	}
	if len(*lines) != 1 || !strings.Contains((*lines)[0], Version) {
		t.Errorf("version output = %v", *lines)
	}
}
