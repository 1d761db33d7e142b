package ui

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/comigor/chatclient/internal/connection"
)

const (
	identityPrompt = "user> "
	messagePrompt  = "> "
)

var separatorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))

// App is the root bubbletea model: chat panel, status line and input.
type App struct {
	chat  *ChatPanel
	input textinput.Model

	statusLabel string
	statusColor string
	chatting    bool
	identity    string

	inputs chan<- userInput

	width, height int
}

// NewApp creates the root model. Lines entered by the user are pushed to
// inputs without blocking; identity pre-fills the identity prompt.
func NewApp(identity string, inputs chan<- userInput) *App {
	ti := textinput.New()
	ti.Prompt = identityPrompt
	ti.Placeholder = "username"
	ti.SetValue(identity)
	ti.Focus()
	return &App{
		chat:     NewChatPanel(),
		input:    ti,
		identity: identity,
		inputs:   inputs,
	}
}

func (m *App) Init() tea.Cmd {
	return textinput.Blink
}

func (m *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.recalcLayout()
		return m, nil

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC:
			return m, tea.Quit
		case tea.KeyEnter:
			m.submit()
			return m, nil
		case tea.KeyPgUp, tea.KeyPgDown:
			return m, m.chat.Update(msg)
		}

	case AppendMsg:
		m.chat.Append(msg.ID, msg.Text)
		return m, nil

	case ReplaceMsg:
		m.chat.Replace(msg.ID, msg.Text)
		return m, nil

	case ResetMsg:
		m.chat.Reset(msg.Notice)
		return m, nil

	case StatusMsg:
		m.statusLabel = msg.Label
		m.statusColor = msg.Color
		return m, nil

	case StateMsg:
		m.setMode(msg.State)
		return m, nil

	case tea.MouseMsg:
		return m, m.chat.Update(msg)
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// submit hands the input line to the session and clears the buffer at once.
func (m *App) submit() {
	text := m.input.Value()
	m.input.Reset()

	in := userInput{connect: !m.chatting, text: text}
	select {
	case m.inputs <- in:
	default:
		m.statusLabel = "⚠️ Input queue full, line dropped"
		m.statusColor = connection.ColorWarn
		return
	}
	// Lines typed before the Connecting state arrives are chat, not a
	// second identity.
	if in.connect && text != "" {
		m.identity = text
		m.setMode(connection.StateConnecting)
	}
}

func (m *App) setMode(state connection.State) {
	switch state {
	case connection.StateConnecting, connection.StateConnected:
		m.chatting = true
		m.input.Prompt = messagePrompt
		m.input.Placeholder = ""
	case connection.StateFailed, connection.StateDisconnected:
		m.chatting = false
		m.input.Prompt = identityPrompt
		m.input.Placeholder = "username"
		if m.input.Value() == "" {
			m.input.SetValue(m.identity)
		}
	}
	m.recalcLayout()
}

func (m *App) View() string {
	if m.width == 0 || m.height == 0 {
		return "initializing..."
	}

	sep := separatorStyle.Render(strings.Repeat("─", m.width))
	status := lipgloss.NewStyle().Foreground(lipgloss.Color(m.statusColor)).Bold(true).Render(m.statusLabel)

	return lipgloss.JoinVertical(lipgloss.Left,
		m.chat.View(),
		sep,
		status,
		sep,
		m.input.View(),
	)
}

func (m *App) recalcLayout() {
	if m.width == 0 || m.height == 0 {
		return
	}
	const inputH = 1
	const statusH = 1
	const sepLines = 2

	m.chat.SetSize(m.width, max(m.height-inputH-statusH-sepLines, 1))
	m.input.Width = max(m.width-len(m.input.Prompt)-1, 1)
}
