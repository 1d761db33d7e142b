// Package dispatch turns inbound events into message log mutations and the
// render instruction that mirrors them on screen.
package dispatch

import (
	"errors"

	"github.com/comigor/chatclient/internal/chatlog"
	"github.com/comigor/chatclient/internal/logger"
)

// Sink is the rendering surface driven by the session.
type Sink interface {
	AppendEntry(id, text string)
	ReplaceEntry(id, text string)
	ResetAll(notice string)
	SetStatus(label, color string)
}

// Op selects what an Instruction does to the Sink.
type Op int

const (
	OpNone Op = iota
	OpAppend
	OpReplace
	OpReset
)

func (o Op) String() string {
	switch o {
	case OpAppend:
		return "append"
	case OpReplace:
		return "replace"
	case OpReset:
		return "reset"
	default:
		return "none"
	}
}

// Instruction is the render side effect of one handled event.
type Instruction struct {
	Op   Op
	ID   string
	Text string
}

// Apply performs the instruction on sink. OpNone does nothing.
func (in Instruction) Apply(sink Sink) {
	switch in.Op {
	case OpAppend:
		sink.AppendEntry(in.ID, in.Text)
	case OpReplace:
		sink.ReplaceEntry(in.ID, in.Text)
	case OpReset:
		sink.ResetAll(in.Text)
	}
}

// Handler applies inbound events. *Dispatcher implements it.
type Handler interface {
	Handle(ev Event) Instruction
}

// Restater announces a locally owned entry, rewriting it in place when it is
// already shown. *Dispatcher implements it.
type Restater interface {
	Restate(c Chat) Instruction
}

// Dispatcher applies events to a message log.
type Dispatcher struct {
	log *chatlog.Log
}

// New returns a dispatcher mutating log.
func New(log *chatlog.Log) *Dispatcher {
	return &Dispatcher{log: log}
}

// Handle mutates the log for ev and returns the matching render instruction.
// It never fails: duplicates, unknown ids and unknown tags all yield OpNone.
func (d *Dispatcher) Handle(ev Event) Instruction {
	switch e := ev.(type) {
	case Chat:
		m, err := d.log.Append(e.ID, e.Prefix, e.Payload)
		if err != nil {
			var dup *chatlog.DuplicateIDError
			if errors.As(err, &dup) {
				logger.L.Debug("duplicate chat event ignored", "id", e.ID)
			}
			return Instruction{}
		}
		return Instruction{Op: OpAppend, ID: m.ID, Text: m.DisplayText()}
	case Delete:
		if m, ok := d.log.Get(e.ID); ok && m.Deleted {
			return Instruction{}
		}
		if !d.log.MarkDeleted(e.ID) {
			logger.L.Debug("delete for unknown message", "id", e.ID)
			return Instruction{}
		}
		return Instruction{Op: OpReplace, ID: e.ID, Text: chatlog.RemovedNotice}
	case Clear:
		d.log.ClearAll()
		return Instruction{Op: OpReset, Text: chatlog.ClearedNotice}
	default:
		return Instruction{}
	}
}

// Restate appends c like Handle does, except that a live entry already stored
// under c.ID is rewritten with the new text instead of being ignored. A
// tombstone stays removed.
func (d *Dispatcher) Restate(c Chat) Instruction {
	m, ok := d.log.Get(c.ID)
	if !ok {
		return d.Handle(c)
	}
	if m.Deleted || (m.Prefix == c.Prefix && m.Payload == c.Payload) {
		return Instruction{}
	}
	m, _ = d.log.Rewrite(c.ID, c.Prefix, c.Payload)
	return Instruction{Op: OpReplace, ID: m.ID, Text: m.DisplayText()}
}
