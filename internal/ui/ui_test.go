package ui

import (
	"bytes"
	"context"
	"io"
	"slices"
	"strings"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/require"

	"github.com/comigor/chatclient/internal/chatlog"
	"github.com/comigor/chatclient/internal/connection"
	"github.com/comigor/chatclient/internal/journal"
	"github.com/comigor/chatclient/internal/session"
)

func TestChatPanel_AppendReplaceReset(t *testing.T) {
	p := NewChatPanel()
	p.SetSize(40, 10)

	p.Append("m1", "A: hi")
	p.Append("m2", "B: yo")
	p.Replace("m1", chatlog.RemovedNotice)
	p.Replace("ghost", "never shown")
	require.Equal(t, []string{chatlog.RemovedNotice, "B: yo"}, p.Lines())

	p.Reset(chatlog.ClearedNotice)
	require.Equal(t, []string{chatlog.ClearedNotice}, p.Lines())

	p.Append("m3", "C: back")
	require.Equal(t, []string{chatlog.ClearedNotice, "C: back"}, p.Lines())
}

func TestApp_EnterConnectsThenSubmits(t *testing.T) {
	inputs := make(chan userInput, 4)
	app := NewApp("alice", inputs)
	app.Update(tea.WindowSizeMsg{Width: 80, Height: 24})

	app.Update(tea.KeyMsg{Type: tea.KeyEnter})
	require.Equal(t, userInput{connect: true, text: "alice"}, <-inputs)
	require.Empty(t, app.input.Value())

	app.Update(StateMsg{State: connection.StateConnected})
	require.Equal(t, messagePrompt, app.input.Prompt)

	app.input.SetValue("hello")
	app.Update(tea.KeyMsg{Type: tea.KeyEnter})
	require.Equal(t, userInput{text: "hello"}, <-inputs)
	require.Empty(t, app.input.Value())

	app.Update(StateMsg{State: connection.StateFailed})
	require.Equal(t, identityPrompt, app.input.Prompt)
	require.Equal(t, "alice", app.input.Value())
}

func TestApp_ChatWhileConnecting(t *testing.T) {
	inputs := make(chan userInput, 4)
	app := NewApp("alice", inputs)
	app.Update(tea.WindowSizeMsg{Width: 80, Height: 24})

	app.Update(tea.KeyMsg{Type: tea.KeyEnter})
	require.Equal(t, userInput{connect: true, text: "alice"}, <-inputs)
	app.Update(StateMsg{State: connection.StateConnecting})
	require.Equal(t, messagePrompt, app.input.Prompt)

	app.input.SetValue("hello")
	app.Update(tea.KeyMsg{Type: tea.KeyEnter})
	require.Equal(t, userInput{text: "hello"}, <-inputs)

	app.Update(StateMsg{State: connection.StateFailed})
	require.Equal(t, "alice", app.input.Value())
}

func TestApp_ChatBeforeStateArrives(t *testing.T) {
	inputs := make(chan userInput, 4)
	app := NewApp("", inputs)

	// an empty identity is rejected, so the prompt stays put
	app.Update(tea.KeyMsg{Type: tea.KeyEnter})
	require.Equal(t, userInput{connect: true}, <-inputs)
	require.Equal(t, identityPrompt, app.input.Prompt)

	app.input.SetValue("bob")
	app.Update(tea.KeyMsg{Type: tea.KeyEnter})
	app.input.SetValue("hello")
	app.Update(tea.KeyMsg{Type: tea.KeyEnter})

	require.Equal(t, userInput{connect: true, text: "bob"}, <-inputs)
	require.Equal(t, userInput{text: "hello"}, <-inputs)
}

func TestApp_SinkMessages(t *testing.T) {
	app := NewApp("", make(chan userInput, 1))
	app.Update(tea.WindowSizeMsg{Width: 80, Height: 24})

	app.Update(AppendMsg{ID: "m1", Text: "A: hi"})
	app.Update(ReplaceMsg{ID: "m1", Text: chatlog.RemovedNotice})
	app.Update(StatusMsg{Label: "🟢 Connected as: alice", Color: connection.ColorOK})

	require.Equal(t, []string{chatlog.RemovedNotice}, app.chat.Lines())
	require.Equal(t, "🟢 Connected as: alice", app.statusLabel)
	require.Contains(t, app.View(), "Connected as: alice")

	app.Update(ResetMsg{Notice: chatlog.ClearedNotice})
	require.Equal(t, []string{chatlog.ClearedNotice}, app.chat.Lines())
}

func TestApp_FullInputQueue(t *testing.T) {
	app := NewApp("alice", make(chan userInput))
	app.Update(tea.KeyMsg{Type: tea.KeyEnter})
	require.Equal(t, connection.ColorWarn, app.statusColor)
}

type recordedActions struct {
	connects []string
	entered  []string
}

func (a *recordedActions) Connect(identity string) { a.connects = append(a.connects, identity) }
func (a *recordedActions) Enter(line string)       { a.entered = append(a.entered, line) }

func TestPlain_RunAndRender(t *testing.T) {
	var out bytes.Buffer
	p := NewPlain(&out, "")
	acts := &recordedActions{}

	err := p.Run(context.Background(), strings.NewReader("\nbob\nhello\n/usuarios\n"), acts)
	require.NoError(t, err)
	require.Empty(t, acts.connects)
	require.Equal(t, []string{"", "bob", "hello", "/usuarios"}, acts.entered)

	p.AppendEntry("m1", "A: hi")
	p.ReplaceEntry("m1", chatlog.RemovedNotice)
	p.ResetAll(chatlog.ClearedNotice)
	p.SetStatus("🟢 Connected as: bob", connection.ColorOK)
	p.ConnectionState(connection.StateFailed)

	text := out.String()
	require.Contains(t, text, "A: hi\n")
	require.Contains(t, text, "[m1] "+chatlog.RemovedNotice)
	require.Contains(t, text, chatlog.ClearedNotice)
	require.Contains(t, text, "Connected as: bob")
	require.Contains(t, text, "Enter a username to reconnect.")
}

func TestPlain_PrefilledIdentityConnects(t *testing.T) {
	p := NewPlain(&bytes.Buffer{}, "carol")
	acts := &recordedActions{}
	require.NoError(t, p.Run(context.Background(), strings.NewReader("hi\n"), acts))
	require.Equal(t, []string{"carol"}, acts.connects)
	require.Equal(t, []string{"hi"}, acts.entered)
}

// lockedTransport is touched by the session loop and read by the test.
type lockedTransport struct {
	mu       sync.Mutex
	connects []string
	sent     []string
}

func (l *lockedTransport) Connect(identity string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.connects = append(l.connects, identity)
}

func (l *lockedTransport) Send(text string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.sent = append(l.sent, text)
}

func (l *lockedTransport) Close() error { return nil }

func (l *lockedTransport) snapshot() (connects, sent []string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return slices.Clone(l.connects), slices.Clone(l.sent)
}

func TestPlain_PipedIdentityThenChat(t *testing.T) {
	for range 20 {
		tr := &lockedTransport{}
		p := NewPlain(io.Discard, "")
		s := session.New(p, journal.Open(""), func(*session.Session) session.Transport { return tr })

		ctx, cancel := context.WithCancel(context.Background())
		stopped := make(chan struct{})
		go func() {
			_ = s.Run(ctx)
			close(stopped)
		}()

		require.NoError(t, p.Run(ctx, strings.NewReader("bob\nhello\n"), s))
		require.Eventually(t, func() bool {
			_, sent := tr.snapshot()
			return len(sent) == 1
		}, 2*time.Second, 5*time.Millisecond)

		connects, sent := tr.snapshot()
		require.Equal(t, []string{"bob"}, connects)
		require.Equal(t, []string{"hello"}, sent)

		cancel()
		<-stopped
	}
}
