package chat

import (
	"testing"

	"github.com/onnwee/chatfilter/pipeline"
)

func TestBuildEvent(t *testing.T) {
	tests := []struct {
		name     string
		sender   string
		text     string
		self     string
		wantKind pipeline.Kind
		wantText string
	}{
		{
			name:     "plain message",
			sender:   "alice",
			text:     "hello there",
			self:     "mybot",
			wantKind: pipeline.KindMessage,
			wantText: "hello there",
		},
		{
			name:     "ctcp action",
			sender:   "alice",
			text:     "\x01ACTION waves\x01",
			self:     "mybot",
			wantKind: pipeline.KindAction,
			wantText: "waves",
		},
		{
			name:     "mention of self",
			sender:   "alice",
			text:     "hey mybot look at this",
			self:     "mybot",
			wantKind: pipeline.KindMention,
			wantText: "hey mybot look at this",
		},
		{
			name:     "mention with trailing punctuation",
			sender:   "alice",
			text:     "mybot: ping",
			self:     "mybot",
			wantKind: pipeline.KindMention,
			wantText: "mybot: ping",
		},
		{
			name:     "own message",
			sender:   "MyBot",
			text:     "I said this",
			self:     "mybot",
			wantKind: pipeline.KindOwn,
			wantText: "I said this",
		},
		{
			name:     "substring is not a mention",
			sender:   "alice",
			text:     "mybotsomething else",
			self:     "mybot",
			wantKind: pipeline.KindMessage,
			wantText: "mybotsomething else",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ev := BuildEvent(tt.sender, tt.text, "#chan", tt.self)
			if ev.Kind != tt.wantKind {
				t.Errorf("kind = %v, want %v", ev.Kind, tt.wantKind)
			}
			if ev.Text != tt.wantText {
				t.Errorf("text = %q, want %q", ev.Text, tt.wantText)
			}
			if ev.Channel != "#chan" || ev.Participant != tt.sender {
				t.Errorf("channel/participant = %q/%q", ev.Channel, ev.Participant)
			}
		})
	}
}

func TestContainsWord(t *testing.T) {
	if containsWord("anything", "") {
		t.Error("empty name should never match")
	}
	if !containsWord("ping mybot, wake up", "mybot") {
		t.Error("name with trailing comma should match")
	}
	if containsWord("mybots are everywhere", "mybot") {
		t.Error("longer word should not match")
	}
}
