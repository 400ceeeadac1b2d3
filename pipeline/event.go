package pipeline

import "time"

// Kind is the coarse event kind delivered by the host runtime.
type Kind int

const (
	// KindMessage is a plain channel message.
	KindMessage Kind = iota
	// KindAction is a /me style action message.
	KindAction
	// KindMention is a message already flagged by the host as
	// mentioning the user.
	KindMention
	// KindOwn is a message sent by the user themselves.
	KindOwn
)

// String returns the historical lowercase event-kind label stored on
// message records.
func (k Kind) String() string {
	switch k {
	case KindMessage:
		return "channelmessage"
	case KindAction:
		return "channelaction"
	case KindMention:
		return "channelmsghilight"
	case KindOwn:
		return "yourmessage"
	default:
		return "unknown"
	}
}

// Event is one raw message event from the host.
type Event struct {
	Participant string
	Text        string
	Channel     string
	Kind        Kind
	Time        time.Time
	// Corr is the correlation id assigned at delivery, carried through
	// logs, spans, and retained records.
	Corr string
}

// Outcome is the terminal classification of an event.
type Outcome int

const (
	// OutcomePassThrough leaves the event for the host to render
	// normally (possibly re-emitted with annotations).
	OutcomePassThrough Outcome = iota
	// OutcomeIgnored suppresses the event entirely and archives it in
	// the ignored-message ring.
	OutcomeIgnored
	// OutcomeCaught retains the event in the caught-message store; the
	// event remains visible on the normal display path.
	OutcomeCaught
	// OutcomeSelfEmitted marks an event recognized as our own
	// re-emission; the pipeline must not touch it.
	OutcomeSelfEmitted
)

func (o Outcome) String() string {
	switch o {
	case OutcomePassThrough:
		return "passthrough"
	case OutcomeIgnored:
		return "ignored"
	case OutcomeCaught:
		return "caught"
	case OutcomeSelfEmitted:
		return "self"
	default:
		return "unknown"
	}
}

// Result reports what the pipeline did with an event.
type Result struct {
	Outcome Outcome
	// Changed is true when annotation modified at least one token and
	// the modified message was re-emitted.
	Changed bool
	// Annotated holds the re-emitted text when Changed is true.
	Annotated string
}
