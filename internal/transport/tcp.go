// Package transport connects the client to the chat server over TCP.
//
// The server sends one JSON envelope per line. The client announces itself by
// writing the identity as its first frame and afterwards writes each user
// submission as raw UTF-8 text. Connect and Send never block the caller:
// outcomes are reported through Signals.
package transport

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"io"
	"net"
	"sync"
	"time"

	"github.com/comigor/chatclient/internal/logger"
)

const (
	defaultDialTimeout = 5 * time.Second
	defaultSendBuffer  = 64
)

// Signals receives everything the transport observes.
type Signals interface {
	// Deliver is called with one raw envelope line, without the delimiter.
	Deliver(raw []byte)
	// Connected is called once the identity frame has been written.
	Connected(identity string)
	// Failed is called at most once per connection.
	Failed(err error)
	// Status reports a transient condition that does not end the connection.
	Status(label, color string)
}

// Link failure kinds.
const (
	OpDial  = "connection error"
	OpRead  = "disconnected"
	OpWrite = "send error"
)

// LinkError is a failure reported through Signals.Failed.
type LinkError struct {
	Op  string
	Err error
}

func (e *LinkError) Error() string {
	return e.Op + ": " + e.Err.Error()
}

func (e *LinkError) Unwrap() error {
	return e.Err
}

// StatusLabel is the status line shown for the failure.
func (e *LinkError) StatusLabel() string {
	switch e.Op {
	case OpDial:
		return "❌ Connection error: " + e.Err.Error()
	case OpRead:
		return "🔴 Disconnected: " + e.Err.Error()
	case OpWrite:
		return "🔴 Send error: " + e.Err.Error()
	default:
		return "🔴 " + e.Error()
	}
}

// Options configures a TCP transport.
type Options struct {
	Addr        string
	DialTimeout time.Duration
	SendBuffer  int
}

// TCP is a line-oriented chat transport.
type TCP struct {
	ctx     context.Context
	opts    Options
	signals Signals
	dialer  net.Dialer

	mu   sync.Mutex
	gen  int
	link *link
}

// link is one established connection.
type link struct {
	conn net.Conn
	out  chan string
	done chan struct{}
	once sync.Once
}

// New returns a transport for opts.Addr. Dial attempts are bound to ctx.
func New(ctx context.Context, opts Options, signals Signals) *TCP {
	if opts.DialTimeout <= 0 {
		opts.DialTimeout = defaultDialTimeout
	}
	if opts.SendBuffer <= 0 {
		opts.SendBuffer = defaultSendBuffer
	}
	return &TCP{ctx: ctx, opts: opts, signals: signals}
}

// Connect drops any current connection and dials the server in the
// background, announcing identity once connected.
func (t *TCP) Connect(identity string) {
	t.mu.Lock()
	t.gen++
	gen := t.gen
	prev := t.link
	t.link = nil
	t.mu.Unlock()

	if prev != nil {
		prev.shutdown()
	}
	go t.run(gen, identity)
}

// Send queues text for the writer. Without a connection the text is dropped.
func (t *TCP) Send(text string) {
	t.mu.Lock()
	l := t.link
	t.mu.Unlock()

	if l == nil {
		logger.L.Debug("send without connection dropped", "len", len(text))
		return
	}
	select {
	case l.out <- text:
	case <-l.done:
	default:
		t.signals.Status("⚠️ Send queue full, message dropped", "#FF9800")
	}
}

// Close drops the current connection without reporting a failure.
func (t *TCP) Close() error {
	t.mu.Lock()
	t.gen++
	l := t.link
	t.link = nil
	t.mu.Unlock()

	if l != nil {
		l.shutdown()
	}
	return nil
}

func (t *TCP) run(gen int, identity string) {
	ctx, cancel := context.WithTimeout(t.ctx, t.opts.DialTimeout)
	conn, err := t.dialer.DialContext(ctx, "tcp", t.opts.Addr)
	cancel()
	if err != nil {
		t.fail(gen, nil, &LinkError{Op: OpDial, Err: err})
		return
	}
	if _, err := conn.Write([]byte(identity)); err != nil {
		conn.Close()
		t.fail(gen, nil, &LinkError{Op: OpDial, Err: err})
		return
	}

	l := &link{
		conn: conn,
		out:  make(chan string, t.opts.SendBuffer),
		done: make(chan struct{}),
	}
	t.mu.Lock()
	if gen != t.gen {
		t.mu.Unlock()
		conn.Close()
		return
	}
	t.link = l
	t.mu.Unlock()

	logger.L.Info("connected to server", "addr", t.opts.Addr, "identity", identity)
	t.signals.Connected(identity)

	go t.writeLoop(gen, l)
	t.readLoop(gen, l)
}

func (t *TCP) readLoop(gen int, l *link) {
	r := bufio.NewReader(l.conn)
	for {
		line, err := r.ReadBytes('\n')
		if err != nil {
			if errors.Is(err, io.EOF) {
				err = errors.New("server closed the connection")
			}
			t.fail(gen, l, &LinkError{Op: OpRead, Err: err})
			return
		}
		line = bytes.TrimRight(line, "\r\n")
		if len(line) == 0 {
			continue
		}
		t.deliver(gen, line)
	}
}

// deliver hands line on unless a newer Connect or Close has replaced gen.
func (t *TCP) deliver(gen int, line []byte) {
	t.mu.Lock()
	current := gen == t.gen
	t.mu.Unlock()
	if !current {
		logger.L.Debug("stale line dropped", "len", len(line))
		return
	}
	t.signals.Deliver(line)
}

func (t *TCP) writeLoop(gen int, l *link) {
	for {
		select {
		case <-l.done:
			return
		case text := <-l.out:
			if _, err := l.conn.Write([]byte(text)); err != nil {
				t.fail(gen, l, &LinkError{Op: OpWrite, Err: err})
				return
			}
		}
	}
}

// fail reports err if gen is still the current attempt. A connection torn
// down by Connect or Close is not reported.
func (t *TCP) fail(gen int, l *link, err error) {
	t.mu.Lock()
	current := gen == t.gen
	if current && t.link == l {
		t.link = nil
	}
	t.mu.Unlock()

	if l != nil && !l.shutdown() {
		return
	}
	if !current {
		logger.L.Debug("stale connection error ignored", "error", err)
		return
	}
	t.signals.Failed(err)
}

// shutdown closes the link and reports whether this call did it.
func (l *link) shutdown() bool {
	closed := false
	l.once.Do(func() {
		closed = true
		close(l.done)
		l.conn.Close()
	})
	return closed
}
