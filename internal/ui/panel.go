// Package ui renders a chat session: a bubbletea terminal UI and a plain
// line-oriented renderer. Both implement dispatch.Sink.
package ui

import (
	"github.com/comigor/chatclient/internal/connection"
)

// Actions receives what the user types.
type Actions interface {
	Connect(identity string)
	Submit(text string)
}

// AppendMsg adds a chat entry.
type AppendMsg struct{ ID, Text string }

// ReplaceMsg rewrites an existing entry.
type ReplaceMsg struct{ ID, Text string }

// ResetMsg wipes the chat and shows a single system line.
type ResetMsg struct{ Notice string }

// StatusMsg updates the status line.
type StatusMsg struct{ Label, Color string }

// StateMsg carries a connection state change.
type StateMsg struct{ State connection.State }

// userInput is one line entered by the user.
type userInput struct {
	connect bool
	text    string
}
