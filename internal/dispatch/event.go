package dispatch

import (
	"encoding/json"
	"fmt"
)

// Wire tags understood by the dispatcher.
const (
	TagChat   = "chat"
	TagDelete = "delete"
	TagClear  = "clear"
)

// unknownID is used for chat envelopes that arrive without an id.
const unknownID = "msg-unknown"

// Event is one inbound occurrence: Chat, Delete, Clear or Unknown.
type Event interface {
	Tag() string
}

// Chat appends a message.
type Chat struct {
	ID      string
	Prefix  string
	Payload string
}

// Delete tombstones the message with ID.
type Delete struct {
	ID string
}

// Clear wipes the whole log.
type Clear struct{}

// Unknown carries a tag the dispatcher does not recognise.
type Unknown struct {
	Type string
}

func (Chat) Tag() string      { return TagChat }
func (Delete) Tag() string    { return TagDelete }
func (Clear) Tag() string     { return TagClear }
func (u Unknown) Tag() string { return u.Type }

// UnrecognizedEventError reports an envelope whose type is not chat, delete
// or clear.
type UnrecognizedEventError struct {
	Type string
}

func (e *UnrecognizedEventError) Error() string {
	return fmt.Sprintf("unrecognized event type %q", e.Type)
}

// envelope is the JSON object sent by the server, one per line.
type envelope struct {
	Type    string `json:"type"`
	ID      string `json:"id"`
	Prefix  string `json:"prefix"`
	Payload string `json:"payload"`
}

// Decode parses one envelope. An unknown type yields an Unknown event together
// with an *UnrecognizedEventError so the caller can log it and still hand the
// event to Handle, which treats it as a no-op.
func Decode(raw []byte) (Event, error) {
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("decode envelope: %w", err)
	}
	switch env.Type {
	case TagChat:
		id := env.ID
		if id == "" {
			id = unknownID
		}
		return Chat{ID: id, Prefix: env.Prefix, Payload: env.Payload}, nil
	case TagDelete:
		return Delete{ID: env.ID}, nil
	case TagClear:
		return Clear{}, nil
	default:
		return Unknown{Type: env.Type}, &UnrecognizedEventError{Type: env.Type}
	}
}
