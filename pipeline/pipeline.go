// Package pipeline wires the pattern registries, bounded caches,
// annotation engine, and recursion guard into the per-event
// classification flow: Ignore, then Filter, then Catch, then
// annotation, with the fixed ordering guarantees the registries
// provide. One pipeline instance owns all mutable state and is driven
// from the single host delivery goroutine.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/onnwee/chatfilter/cache"
	"github.com/onnwee/chatfilter/highlight"
	"github.com/onnwee/chatfilter/pattern"
	"github.com/onnwee/chatfilter/prefs"
	"github.com/onnwee/chatfilter/style"
	"github.com/onnwee/chatfilter/telemetry"
)

// Settings keys in the flat config file. These are a stable wire
// format shared with earlier tools.
const (
	keyIgnored     = "ignored_nicks"
	keyCatchers    = "msg_catchers"
	keyFilters     = "msg_filters"
	keyNickFilters = "msg_filter_nicks"
	keyRedirect    = "redirect_msgs"
	keyLinkStyle   = "style_link"
	keyNickStyle   = "style_nick"
)

// Host is the chat runtime the pipeline runs inside. It delivers
// events (by calling Process), redisplays modified ones, and answers
// participant and surface queries.
type Host interface {
	// Emit redisplays a modified event. Called only inside the
	// recursion guard.
	Emit(ev Event, text string) error
	// Print renders a line on the default surface.
	Print(line string) error
	SelfNick() string
	Participants(channel string) []string
	FindSurface(name string) (Surface, bool)
	OpenSurface(name string, focus bool)
}

// Archiver persists caught records outside the process, e.g. to
// Postgres. Optional; a nil archiver disables it.
type Archiver interface {
	ArchiveCaught(ctx context.Context, rec cache.Record) error
}

// Options configures a pipeline.
type Options struct {
	Host       Host
	Settings   *prefs.Store
	Highlights *prefs.HighlightStore
	Archiver   Archiver

	IgnoredCapacity int
	CaughtCapacity  int
	RedirectSurface string
	SurfaceTimeout  time.Duration
	// Focus controls whether opening the redirect surface may steal
	// focus.
	Focus bool
}

// Pipeline owns the classification state. Registries and caches are
// exported: the command surface mutates them directly, and every
// mutation persists through the wired savers.
type Pipeline struct {
	host     Host
	settings *prefs.Store
	hlStore  *prefs.HighlightStore
	archiver Archiver

	Styles      *style.Table
	Ignored     *pattern.Registry
	Catchers    *pattern.Registry
	Filters     *pattern.Registry
	NickFilters *pattern.Registry
	Customs     *pattern.HighlightSet

	IgnoredMsgs *cache.Ring
	CaughtMsgs  *cache.DedupStore

	Annotator *highlight.Annotator

	waiter   *SurfaceWaiter
	redirect bool

	// emitting is the recursion guard: a cooperative single-slot flag,
	// not a lock. The host delivers events and invokes re-emission
	// synchronously on the same goroutine, so the only reentry is the
	// callback our own emission causes.
	emitting bool
}

// New builds a pipeline. Registries are empty until Load restores
// persisted state.
func New(opts Options) *Pipeline {
	telemetry.Init()
	p := &Pipeline{
		host:     opts.Host,
		settings: opts.Settings,
		hlStore:  opts.Highlights,
		archiver: opts.Archiver,
		Styles:   style.NewTable(),
	}
	p.Ignored = pattern.NewRegistry("ignored", p.listSaver(keyIgnored, true))
	p.Catchers = pattern.NewRegistry("catchers", p.listSaver(keyCatchers, false))
	p.Filters = pattern.NewRegistry("filters", p.listSaver(keyFilters, false))
	p.NickFilters = pattern.NewRegistry("nick-filters", p.listSaver(keyNickFilters, false))
	p.Customs = pattern.NewHighlightSet(pattern.HighlightSaverFunc(p.saveHighlights))
	p.IgnoredMsgs = cache.NewRing(opts.IgnoredCapacity)
	p.CaughtMsgs = cache.NewDedupStore(opts.CaughtCapacity)
	p.Annotator = highlight.New(p.Styles, p.Customs)
	p.waiter = NewSurfaceWaiter(opts.Host, opts.RedirectSurface, opts.SurfaceTimeout, opts.Focus)
	return p
}

// listSaver persists one registry's keys under a settings key. The
// ignore list historically joins with commas, the rest with the list
// separator.
func (p *Pipeline) listSaver(key string, comma bool) pattern.Saver {
	return pattern.SaverFunc(func(keys []string) error {
		if p.settings == nil {
			return nil
		}
		if comma {
			return p.settings.SetCommaList(key, keys)
		}
		return p.settings.SetList(key, keys)
	})
}

func (p *Pipeline) saveHighlights(items []*pattern.Highlight) error {
	if p.hlStore == nil {
		return nil
	}
	records := make([]prefs.HighlightRecord, len(items))
	for i, h := range items {
		records[i] = prefs.HighlightRecord{
			Pattern:  h.Key,
			Style:    h.Style,
			Template: h.Template.String(),
		}
	}
	return p.hlStore.Save(records)
}

// Load restores registries, custom highlights, styles, and settings
// from the persisted stores. Invalid entries are logged and dropped,
// never aborting the load.
func (p *Pipeline) Load() {
	if p.settings != nil {
		p.loadRegistry(p.Ignored, p.settings.GetCommaList(keyIgnored))
		p.loadRegistry(p.Catchers, p.settings.GetList(keyCatchers))
		p.loadRegistry(p.Filters, p.settings.GetList(keyFilters))
		p.loadRegistry(p.NickFilters, p.settings.GetList(keyNickFilters))
		p.redirect = p.settings.GetBool(keyRedirect, false)
		p.loadStyle(keyLinkStyle, p.Annotator.SetLinkStyle)
		p.loadStyle(keyNickStyle, p.Annotator.SetNickStyle)
	}
	if p.hlStore != nil {
		records, err := p.hlStore.Load()
		if err != nil {
			slog.Warn("custom highlight load failed", slog.Any("err", err))
		}
		items := make([]*pattern.Highlight, 0, len(records))
		for _, rec := range records {
			h, err := p.buildHighlight(rec)
			if err != nil {
				slog.Warn("dropping invalid stored highlight",
					slog.String("pattern", rec.Pattern), slog.Any("err", err))
				continue
			}
			items = append(items, h)
		}
		p.Customs.Replace(items)
	}
	p.updateGauges()
}

func (p *Pipeline) loadRegistry(r *pattern.Registry, keys []string) {
	_, errs := r.AddAll(keys)
	for _, err := range errs {
		slog.Warn("dropping invalid stored pattern", slog.Any("err", err))
	}
}

func (p *Pipeline) loadStyle(key string, set func(string)) {
	raw := p.settings.Get(key)
	if raw == "" {
		return
	}
	codes, err := p.Styles.Codes(raw)
	if err != nil {
		slog.Warn("stored style invalid; keeping default",
			slog.String("setting", key), slog.Any("err", err))
		return
	}
	set(codes)
}

func (p *Pipeline) buildHighlight(rec prefs.HighlightRecord) (*pattern.Highlight, error) {
	pat, err := pattern.Compile(rec.Pattern)
	if err != nil {
		return nil, err
	}
	codes, err := p.Styles.Codes(rec.Style)
	if err != nil {
		return nil, err
	}
	tpl, err := pattern.ParseTemplate(rec.Template)
	if err != nil {
		return nil, err
	}
	return &pattern.Highlight{Pattern: pat, Style: rec.Style, Codes: codes, Template: tpl}, nil
}

// Redirect reports whether caught messages are rendered to the
// dedicated surface as they arrive.
func (p *Pipeline) Redirect() bool { return p.redirect }

// SetRedirect toggles redirect rendering and persists the setting.
func (p *Pipeline) SetRedirect(on bool) {
	p.redirect = on
	if p.settings != nil {
		if err := p.settings.Set(keyRedirect, fmt.Sprintf("%t", on)); err != nil {
			slog.Warn("redirect setting save failed", slog.Any("err", err))
		}
	}
}

// SetStyle resolves and applies a user style list for "link" or
// "nick", persisting it on success.
func (p *Pipeline) SetStyle(target, styleList string) error {
	codes, err := p.Styles.Codes(styleList)
	if err != nil {
		return err
	}
	var key string
	switch target {
	case "link":
		p.Annotator.SetLinkStyle(codes)
		key = keyLinkStyle
	case "nick":
		p.Annotator.SetNickStyle(codes)
		key = keyNickStyle
	default:
		return fmt.Errorf("unknown style target %q", target)
	}
	if p.settings != nil {
		if err := p.settings.Set(key, styleList); err != nil {
			slog.Warn("style save failed", slog.String("target", target), slog.Any("err", err))
		}
	}
	return nil
}

// StyleSetting returns the persisted style list for "link" or "nick",
// or the built-in default when unset.
func (p *Pipeline) StyleSetting(target string) string {
	var key, def string
	switch target {
	case "link":
		key, def = keyLinkStyle, "underline,blue"
	case "nick":
		key, def = keyNickStyle, "green"
	default:
		return ""
	}
	if p.settings != nil {
		if v := p.settings.Get(key); v != "" {
			return v
		}
	}
	return def
}

// Process classifies, annotates, and possibly re-emits one event. Any
// failure while handling a message is contained here: it is logged and
// the message passes through unmodified so the next event is
// unaffected.
func (p *Pipeline) Process(ctx context.Context, ev Event) (res Result) {
	if p.emitting {
		// Our own re-emission coming back around; leave it alone.
		return Result{Outcome: OutcomeSelfEmitted}
	}
	defer func() {
		if r := recover(); r != nil {
			telemetry.RenderErrors.Inc()
			telemetry.LoggerWithCorr(ctx).Error("message processing failed; passing through",
				slog.Any("panic", r), slog.String("channel", ev.Channel))
			res = Result{Outcome: OutcomePassThrough}
		}
	}()

	if ev.Time.IsZero() {
		ev.Time = time.Now()
	}
	ctx = telemetry.WithCorrelation(ctx, ev.Corr)
	ctx, span := telemetry.StartSpan(ctx, "pipeline", "process-event",
		telemetry.ChannelAttr(ev.Channel))
	defer span.End()

	telemetry.EventsTotal.Inc()
	res = p.classify(ctx, ev)
	span.SetAttributes(telemetry.OutcomeAttr(res.Outcome.String()))

	if res.Outcome != OutcomeIgnored {
		if annotated, changed := p.annotate(ev); changed {
			p.emit(ev, annotated)
			res.Changed = true
			res.Annotated = annotated
		}
	}
	p.updateGauges()
	return res
}

// classify runs the fixed Ignore -> Filter -> Catch order.
func (p *Pipeline) classify(ctx context.Context, ev Event) Result {
	sender := style.Strip(ev.Participant)

	if _, m := p.Ignored.Match(sender); m != nil {
		p.IgnoredMsgs.Add(p.record(ev, m.List()))
		telemetry.EventsIgnored.Inc()
		telemetry.LoggerWithCorr(ctx).Debug("event ignored",
			slog.String("participant", sender), slog.String("channel", ev.Channel))
		return Result{Outcome: OutcomeIgnored}
	}

	if _, m := p.Catchers.Match(ev.Text); m != nil && !p.filtered(sender, ev.Text) {
		rec := p.record(ev, m.List())
		if p.CaughtMsgs.Add(rec) {
			telemetry.EventsCaught.Inc()
			p.archive(ctx, rec)
			if p.redirect {
				p.renderRedirect(ctx, rec)
			}
		} else {
			telemetry.DedupHits.Inc()
		}
		return Result{Outcome: OutcomeCaught}
	}

	return Result{Outcome: OutcomePassThrough}
}

// filtered reports whether the filter registries exclude this message
// from catching. Nick filters are consulted before content filters.
func (p *Pipeline) filtered(sender, text string) bool {
	if _, m := p.NickFilters.Match(sender); m != nil {
		return true
	}
	if _, m := p.Filters.Match(text); m != nil {
		return true
	}
	return false
}

func (p *Pipeline) annotate(ev Event) (string, bool) {
	return p.Annotator.Annotate(highlight.Input{
		Text:         ev.Text,
		Sender:       style.Strip(ev.Participant),
		SelfNick:     p.host.SelfNick(),
		Participants: p.host.Participants(ev.Channel),
		Mention:      ev.Kind == KindMention,
	})
}

// emit redisplays a modified event inside the recursion guard. The
// flag is released on every path, including a panicking host.
func (p *Pipeline) emit(ev Event, text string) {
	p.emitting = true
	defer func() { p.emitting = false }()
	telemetry.EventsHighlighted.Inc()
	telemetry.ReemittedTotal.Inc()
	if err := p.host.Emit(ev, text); err != nil {
		slog.Error("re-emission failed", slog.Any("err", err))
	}
}

func (p *Pipeline) record(ev Event, matches []string) cache.Record {
	return cache.Record{
		Participant: style.Strip(ev.Participant),
		Text:        ev.Text,
		Channel:     ev.Channel,
		Kind:        ev.Kind.String(),
		Time:        ev.Time,
		Matches:     matches,
		Corr:        ev.Corr,
	}
}

func (p *Pipeline) archive(ctx context.Context, rec cache.Record) {
	if p.archiver == nil {
		return
	}
	if err := p.archiver.ArchiveCaught(ctx, rec); err != nil {
		telemetry.LoggerWithCorr(ctx).Warn("caught-message archive failed", slog.Any("err", err))
	}
}

// renderRedirect prints a caught record to the dedicated surface,
// falling back to the default surface when the surface never appears.
func (p *Pipeline) renderRedirect(ctx context.Context, rec cache.Record) {
	line := p.FormatRecord(rec)
	if s, ok := p.waiter.Ensure(ctx); ok {
		if err := s.Print(line); err == nil {
			return
		}
	}
	if err := p.host.Print(line); err != nil {
		slog.Error("redirect fallback print failed", slog.Any("err", err))
	}
}

// FormatRecord renders a retained record for display: channel,
// participant, text, and local time, with the matched substrings
// re-highlighted.
func (p *Pipeline) FormatRecord(rec cache.Record) string {
	text := rec.Text
	for _, m := range rec.Matches {
		if m == "" {
			continue
		}
		styled := p.Styles.Text("red", m, true, false)
		text = strings.Replace(text, m, styled, 1)
	}
	return fmt.Sprintf("%s %s: %s [%s]",
		p.Styles.Text("green", rec.Channel, false, false),
		p.Styles.Text("blue", rec.Participant, true, false),
		text,
		p.Styles.Text("grey", rec.Time.Format("15:04:05"), false, false))
}

func (p *Pipeline) updateGauges() {
	telemetry.SetCacheSizes(p.IgnoredMsgs.Len(), p.CaughtMsgs.Len())
	telemetry.SetPatternCount("ignored", p.Ignored.Len())
	telemetry.SetPatternCount("catchers", p.Catchers.Len())
	telemetry.SetPatternCount("filters", p.Filters.Len())
	telemetry.SetPatternCount("nick_filters", p.NickFilters.Len())
	telemetry.SetPatternCount("customs", p.Customs.Len())
}
