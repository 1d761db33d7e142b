// Package composer handles text submitted by the local user.
package composer

import (
	"strings"

	"github.com/google/uuid"

	"github.com/comigor/chatclient/internal/dispatch"
)

const (
	// CommandSentinel marks input addressed to the server rather than the room.
	CommandSentinel = "/"
	// EchoPrefix decorates the local copy of a sent message.
	EchoPrefix = "💬 You: "
)

// Sender forwards raw text to the server. Send must not block on delivery.
type Sender interface {
	Send(text string)
}

// Action describes what Submit did.
type Action struct {
	// Echo is the local append, OpNone for commands and duplicates.
	Echo dispatch.Instruction
	// Forward is the text handed to the Sender; empty when nothing was sent.
	Forward string
}

// None reports whether Submit ignored the input.
func (a Action) None() bool {
	return a.Forward == ""
}

// Composer echoes chat lines locally and forwards every submission.
type Composer struct {
	events dispatch.Handler
	sink   dispatch.Sink
	out    Sender
	newID  func() string
}

// New returns a composer that echoes through events and sink and forwards to out.
func New(events dispatch.Handler, sink dispatch.Sink, out Sender) *Composer {
	return &Composer{
		events: events,
		sink:   sink,
		out:    out,
		newID:  func() string { return "local-" + uuid.NewString() },
	}
}

// Submit processes one line of user input. Non-command text is echoed before
// it is forwarded; the result of the send is never awaited.
func (c *Composer) Submit(raw string) Action {
	if raw == "" {
		return Action{}
	}

	var act Action
	if !strings.HasPrefix(raw, CommandSentinel) {
		act.Echo = c.events.Handle(dispatch.Chat{ID: c.newID(), Prefix: EchoPrefix, Payload: raw})
		act.Echo.Apply(c.sink)
	}

	c.out.Send(raw)
	act.Forward = raw
	return act
}
