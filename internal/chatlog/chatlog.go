// Package chatlog holds the ordered, id-addressable log of chat entries shown
// in a session. Entries are never reordered or removed individually: a delete
// leaves a tombstone in place so the rendered entry stays locatable by id.
package chatlog

import "fmt"

const (
	// RemovedNotice replaces the text of a deleted entry at render time.
	RemovedNotice = ">> Message removed by an administrator <<"
	// ClearedNotice is the single system line shown after the log is cleared.
	ClearedNotice = "📢 The chat was cleared by an administrator."
)

// Message is a single chat entry. Identity is the ID.
type Message struct {
	ID      string
	Prefix  string
	Payload string
	Deleted bool
}

// DisplayText is prefix+payload, or RemovedNotice once the message is deleted.
func (m Message) DisplayText() string {
	if m.Deleted {
		return RemovedNotice
	}
	return m.Prefix + m.Payload
}

// Entry is the read-only projection of a Message used for rendering.
type Entry struct {
	ID          string
	DisplayText string
	Deleted     bool
}

// DuplicateIDError is returned by Append when the id is already in the log.
type DuplicateIDError struct {
	ID string
}

func (e *DuplicateIDError) Error() string {
	return fmt.Sprintf("duplicate message id %q", e.ID)
}

// Log is an insertion-ordered sequence of messages with an id index.
// It is not safe for concurrent use; the session loop owns it.
type Log struct {
	messages []Message
	index    map[string]int
}

// New returns an empty log.
func New() *Log {
	return &Log{index: make(map[string]int)}
}

// Append adds a message at the next position.
func (l *Log) Append(id, prefix, payload string) (Message, error) {
	if _, ok := l.index[id]; ok {
		return Message{}, &DuplicateIDError{ID: id}
	}
	m := Message{ID: id, Prefix: prefix, Payload: payload}
	l.index[id] = len(l.messages)
	l.messages = append(l.messages, m)
	return m, nil
}

// MarkDeleted tombstones the message with the given id. Unknown ids are a
// no-op and report false; the payload is kept.
func (l *Log) MarkDeleted(id string) bool {
	pos, ok := l.index[id]
	if !ok {
		return false
	}
	l.messages[pos].Deleted = true
	return true
}

// Rewrite changes the prefix and payload of a live message in place. Unknown
// ids and tombstones are left alone and report false.
func (l *Log) Rewrite(id, prefix, payload string) (Message, bool) {
	pos, ok := l.index[id]
	if !ok || l.messages[pos].Deleted {
		return Message{}, false
	}
	l.messages[pos].Prefix = prefix
	l.messages[pos].Payload = payload
	return l.messages[pos], true
}

// ClearAll drops every message and the id index.
func (l *Log) ClearAll() {
	l.messages = nil
	l.index = make(map[string]int)
}

// Get returns the message stored under id.
func (l *Log) Get(id string) (Message, bool) {
	pos, ok := l.index[id]
	if !ok {
		return Message{}, false
	}
	return l.messages[pos], true
}

// Len reports the number of positions in the log, tombstones included.
func (l *Log) Len() int {
	return len(l.messages)
}

// Snapshot returns the entries in insertion order.
func (l *Log) Snapshot() []Entry {
	out := make([]Entry, 0, len(l.messages))
	for _, m := range l.messages {
		out = append(out, Entry{ID: m.ID, DisplayText: m.DisplayText(), Deleted: m.Deleted})
	}
	return out
}
