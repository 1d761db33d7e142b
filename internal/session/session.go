// Package session wires the message log, dispatcher, connection controller
// and composer to a transport and a render sink.
//
// Every inbound delivery, transport signal and user action is queued and run
// to completion, one at a time, on the goroutine that calls Run. The log and
// the connection state are only touched from there, so nothing else locks.
package session

import (
	"bytes"
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/comigor/chatclient/internal/chatlog"
	"github.com/comigor/chatclient/internal/composer"
	"github.com/comigor/chatclient/internal/connection"
	"github.com/comigor/chatclient/internal/dispatch"
	"github.com/comigor/chatclient/internal/journal"
	"github.com/comigor/chatclient/internal/logger"
)

const queueSize = 256

// Transport carries the session's outbound calls.
type Transport interface {
	Connect(identity string)
	Send(text string)
	Close() error
}

// Session is one chat session.
type Session struct {
	id        string
	log       *chatlog.Log
	events    *dispatch.Dispatcher
	conn      *connection.Controller
	composer  *composer.Composer
	sink      dispatch.Sink
	journal   *journal.Journal
	transport Transport

	queue chan func()
	done  chan struct{}
}

// New builds a session rendering to sink and journaling to j. newTransport
// receives the session so the transport can report back to it.
func New(sink dispatch.Sink, j *journal.Journal, newTransport func(*Session) Transport) *Session {
	s := &Session{
		id:      uuid.NewString(),
		log:     chatlog.New(),
		sink:    sink,
		journal: j,
		queue:   make(chan func(), queueSize),
		done:    make(chan struct{}),
	}
	s.events = dispatch.New(s.log)
	s.transport = newTransport(s)
	s.conn = connection.New(s.transport, s.events, sink)
	s.composer = composer.New(s.events, sink, s.transport)
	return s
}

// ID identifies the session in the journal.
func (s *Session) ID() string {
	return s.id
}

// Run processes queued work until ctx is done, then closes the transport.
func (s *Session) Run(ctx context.Context) error {
	defer close(s.done)
	defer s.transport.Close()

	label, color := s.conn.Status()
	s.sink.SetStatus(label, color)
	logger.L.Info("session started", "session", s.id)

	for {
		select {
		case <-ctx.Done():
			logger.L.Info("session stopped", "session", s.id)
			return nil
		case fn := <-s.queue:
			fn()
		}
	}
}

func (s *Session) enqueue(fn func()) {
	select {
	case s.queue <- fn:
	case <-s.done:
	}
}

// Connect is the user's connect action.
func (s *Session) Connect(identity string) {
	s.enqueue(func() { s.connect(identity) })
}

// Submit is the user's send action.
func (s *Session) Submit(text string) {
	s.enqueue(func() { s.submit(text) })
}

// Enter takes one line typed by the user. Until a connect attempt is under
// way the line is the identity to connect with; from then on it is chat
// input. The choice is made on the loop, after everything queued before it.
func (s *Session) Enter(line string) {
	s.enqueue(func() {
		switch s.conn.State() {
		case connection.StateDisconnected, connection.StateFailed:
			s.connect(line)
		default:
			s.submit(line)
		}
	})
}

func (s *Session) connect(identity string) {
	if err := s.conn.Connect(identity); err != nil {
		logger.L.Warn("connect rejected", "identity", identity, "error", err)
	}
}

func (s *Session) submit(text string) {
	act := s.composer.Submit(text)
	if act.None() {
		return
	}
	s.journal.Record(journal.Record{
		SessionID: s.id,
		Direction: journal.Outbound,
		Kind:      "send",
		MessageID: act.Echo.ID,
		Payload:   act.Forward,
	})
}

// Deliver handles one raw envelope from the transport.
func (s *Session) Deliver(raw []byte) {
	line := bytes.Clone(raw)
	s.enqueue(func() { s.apply(line) })
}

// Connected handles the transport's "connected as" signal.
func (s *Session) Connected(identity string) {
	s.enqueue(func() {
		if err := s.conn.Confirmed(identity); err != nil {
			logger.L.Warn("unexpected connection confirmation", "identity", identity, "state", s.conn.State(), "error", err)
		}
	})
}

// Failed handles a transport failure.
func (s *Session) Failed(err error) {
	s.enqueue(func() {
		if ferr := s.conn.Fail(err); ferr != nil {
			logger.L.Warn("failure signal not applied", "error", ferr)
		}
	})
}

// Status handles a plain status signal. The transport may raise it from
// inside a Send running on the loop, so it never waits for queue space: a
// status that does not fit is dropped.
func (s *Session) Status(label, color string) {
	select {
	case s.queue <- func() { s.conn.SetStatus(label, color) }:
	default:
		logger.L.Warn("status dropped, session queue full", "label", label)
	}
}

func (s *Session) apply(raw []byte) {
	ev, err := dispatch.Decode(raw)
	if err != nil {
		var unrec *dispatch.UnrecognizedEventError
		if errors.As(err, &unrec) {
			logger.L.Warn("unrecognized event dropped", "type", unrec.Type)
		} else {
			logger.L.Warn("malformed envelope dropped", "line", string(raw), "error", err)
		}
	}
	if ev == nil {
		return
	}

	s.events.Handle(ev).Apply(s.sink)

	rec := journal.Record{SessionID: s.id, Direction: journal.Inbound, Kind: ev.Tag()}
	switch e := ev.(type) {
	case dispatch.Chat:
		rec.MessageID, rec.Prefix, rec.Payload = e.ID, e.Prefix, e.Payload
	case dispatch.Delete:
		rec.MessageID = e.ID
	}
	s.journal.Record(rec)
}
