package chat

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"strings"
	"sync"

	twitch "github.com/gempir/go-twitch-irc/v4"
	"github.com/google/uuid"

	"github.com/onnwee/chatfilter/pipeline"
)

// Client connects a Twitch IRC channel to the pipeline. It implements
// pipeline.Host: the pipeline calls back into it to re-emit annotated
// text, query participants, and open display surfaces.
type Client struct {
	irc     *twitch.Client
	channel string
	self    string
	out     io.Writer

	// pipe is set by Start before connecting.
	pipe *pipeline.Pipeline

	mu       sync.Mutex
	users    map[string]struct{}
	surfaces map[string]*consoleSurface
}

// NewClient builds a client for one channel. An empty token connects
// read-only using the anonymous justinfan convention.
func NewClient(username, token, channel string, out io.Writer) *Client {
	if token == "" {
		username = "justinfan12345"
		token = "oauth:anonymous"
	}
	c := &Client{
		irc:      twitch.NewClient(username, token),
		channel:  channel,
		self:     username,
		out:      out,
		users:    make(map[string]struct{}),
		surfaces: make(map[string]*consoleSurface),
	}
	return c
}

// Start registers handlers, joins the channel, and blocks until the
// context is canceled or the connection fails.
func (c *Client) Start(ctx context.Context, pipe *pipeline.Pipeline) error {
	c.pipe = pipe

	c.irc.OnPrivateMessage(func(msg twitch.PrivateMessage) {
		c.trackUser(msg.User.Name)
		ev := BuildEvent(msg.User.Name, msg.Message, msg.Channel, c.self)
		ev.Time = msg.Time
		ev.Corr = uuid.NewString()
		res := pipe.Process(ctx, ev)
		if res.Outcome == pipeline.OutcomeIgnored || res.Changed {
			// Suppressed, or already rendered through Emit.
			return
		}
		c.render(ev, ev.Text)
	})
	c.irc.OnUserJoinMessage(func(msg twitch.UserJoinMessage) {
		c.trackUser(msg.User)
	})
	c.irc.OnUserPartMessage(func(msg twitch.UserPartMessage) {
		c.mu.Lock()
		delete(c.users, strings.ToLower(msg.User))
		c.mu.Unlock()
	})

	go func() {
		<-ctx.Done()
		c.irc.Disconnect()
	}()

	c.irc.Join(c.channel)
	slog.Info("joining twitch chat", slog.String("channel", c.channel))
	if err := c.irc.Connect(); err != nil {
		if ctx.Err() != nil {
			return nil
		}
		return fmt.Errorf("twitch chat connect: %w", err)
	}
	return nil
}

// Say sends a message to the channel as the bot user.
func (c *Client) Say(text string) {
	c.irc.Say(c.channel, text)
}

func (c *Client) trackUser(name string) {
	c.mu.Lock()
	c.users[strings.ToLower(name)] = struct{}{}
	c.mu.Unlock()
}

// Emit renders a pipeline-modified event. Part of pipeline.Host.
func (c *Client) Emit(ev pipeline.Event, text string) error {
	c.render(ev, text)
	return nil
}

// Print writes a line to the default surface. Part of pipeline.Host.
func (c *Client) Print(line string) error {
	_, err := fmt.Fprintln(c.out, line)
	return err
}

// SelfNick returns the bot's own name. Part of pipeline.Host.
func (c *Client) SelfNick() string { return c.self }

// Participants returns the known users of the channel. The IRC
// userlist is preferred; the locally tracked set (joins, parts, and
// message senders) covers the window before the list arrives.
func (c *Client) Participants(channel string) []string {
	if names, err := c.irc.Userlist(channel); err == nil && len(names) > 0 {
		return names
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	names := make([]string, 0, len(c.users))
	for name := range c.users {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// FindSurface looks up a named display surface. Part of pipeline.Host.
func (c *Client) FindSurface(name string) (pipeline.Surface, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	s, ok := c.surfaces[name]
	return s, ok
}

// OpenSurface creates a named display surface. Console surfaces render
// as tagged lines, so focus has no meaning here.
func (c *Client) OpenSurface(name string, _ bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.surfaces[name]; ok {
		return
	}
	c.surfaces[name] = &consoleSurface{name: name, out: c.out, mu: &c.mu}
}

func (c *Client) render(ev pipeline.Event, text string) {
	var line string
	switch ev.Kind {
	case pipeline.KindAction:
		line = fmt.Sprintf("[%s] * %s %s", ev.Channel, ev.Participant, text)
	default:
		line = fmt.Sprintf("[%s] %s: %s", ev.Channel, ev.Participant, text)
	}
	if _, err := fmt.Fprintln(c.out, line); err != nil {
		slog.Error("console render failed", slog.Any("err", err))
	}
}

// consoleSurface is a named output that prefixes each line with the
// surface name, sharing the client's writer.
type consoleSurface struct {
	name string
	out  io.Writer
	mu   *sync.Mutex
}

func (s *consoleSurface) Name() string { return s.name }

func (s *consoleSurface) Print(line string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := fmt.Fprintf(s.out, "%s %s\n", s.name, line)
	return err
}

const actionPrefix = "\x01ACTION "

// BuildEvent classifies a raw IRC message into a pipeline event. CTCP
// ACTION framing is stripped into the action kind; a message containing
// the bot's own name becomes a mention; the bot's own messages keep
// their own kind so the pipeline can apply the own-message palette.
func BuildEvent(sender, text, channel, self string) pipeline.Event {
	kind := pipeline.KindMessage
	if strings.HasPrefix(text, actionPrefix) {
		text = strings.TrimSuffix(strings.TrimPrefix(text, actionPrefix), "\x01")
		kind = pipeline.KindAction
	}
	switch {
	case strings.EqualFold(sender, self):
		kind = pipeline.KindOwn
	case containsWord(text, self):
		if kind == pipeline.KindMessage {
			kind = pipeline.KindMention
		}
	}
	return pipeline.Event{
		Participant: sender,
		Text:        text,
		Channel:     channel,
		Kind:        kind,
	}
}

// containsWord reports whether any space-separated token equals name,
// optionally with one trailing punctuation character, case-insensitive.
func containsWord(text, name string) bool {
	if name == "" {
		return false
	}
	for _, tok := range strings.Split(text, " ") {
		if strings.EqualFold(tok, name) {
			return true
		}
		if len(tok) > 1 && isPunct(tok[len(tok)-1]) &&
			strings.EqualFold(tok[:len(tok)-1], name) {
			return true
		}
	}
	return false
}

func isPunct(b byte) bool {
	return !('a' <= b && b <= 'z' || 'A' <= b && b <= 'Z' || '0' <= b && b <= '9')
}
