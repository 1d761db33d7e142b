package ui

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/charmbracelet/lipgloss"

	"github.com/comigor/chatclient/internal/connection"
)

// Plain writes the session as a stream of lines and reads user input from a
// reader, one line per submission. Entries cannot be rewritten on a stream,
// so a replacement is printed as a new line tagged with the entry id.
type Plain struct {
	mu       sync.Mutex
	w        io.Writer
	identity string
}

// LineActions receives the lines read by Plain. Enter decides, in order with
// everything already queued, whether a line is an identity or chat input.
type LineActions interface {
	Connect(identity string)
	Enter(line string)
}

// NewPlain returns a renderer writing to w. A non-empty identity connects as
// soon as Run starts.
func NewPlain(w io.Writer, identity string) *Plain {
	return &Plain{w: w, identity: identity}
}

// Run reads lines from r until EOF or until ctx is done and hands each one to
// actions.Enter.
func (p *Plain) Run(ctx context.Context, r io.Reader, actions LineActions) error {
	if p.identity != "" {
		actions.Connect(p.identity)
	} else {
		p.printf("Enter a username to connect.\n")
	}

	lines := make(chan string)
	scanErr := make(chan error, 1)
	go func() {
		sc := bufio.NewScanner(r)
		for sc.Scan() {
			select {
			case lines <- sc.Text():
			case <-ctx.Done():
				return
			}
		}
		scanErr <- sc.Err()
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case err := <-scanErr:
			return err
		case line := <-lines:
			actions.Enter(line)
		}
	}
}

func (p *Plain) printf(format string, args ...any) {
	p.mu.Lock()
	defer p.mu.Unlock()
	fmt.Fprintf(p.w, format, args...)
}

func (p *Plain) AppendEntry(id, text string) {
	p.printf("%s\n", text)
}

func (p *Plain) ReplaceEntry(id, text string) {
	p.printf("[%s] %s\n", id, text)
}

func (p *Plain) ResetAll(notice string) {
	p.printf("%s\n", systemStyle.Render(notice))
}

func (p *Plain) SetStatus(label, color string) {
	p.printf("-- %s\n", lipgloss.NewStyle().Foreground(lipgloss.Color(color)).Render(label))
}

func (p *Plain) ConnectionState(state connection.State) {
	if state == connection.StateFailed {
		p.printf("Enter a username to reconnect.\n")
	}
}
