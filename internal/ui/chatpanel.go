package ui

import (
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/comigor/chatclient/internal/chatlog"
)

var (
	echoStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("6")) // cyan
	removedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("8")).Italic(true)
	systemStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("3")).Bold(true)
)

// ChatPanel displays entries in arrival order in a scrollable viewport.
// Entries are addressed by id so they can be rewritten in place.
type ChatPanel struct {
	viewport viewport.Model
	ids      []string
	text     map[string]string
	notice   string
}

// NewChatPanel creates an empty chat panel.
func NewChatPanel() *ChatPanel {
	vp := viewport.New(0, 0)
	vp.SetContent("")
	return &ChatPanel{viewport: vp, text: make(map[string]string)}
}

// Append adds an entry at the bottom. An id already on screen is rewritten.
func (p *ChatPanel) Append(id, text string) {
	if _, ok := p.text[id]; !ok {
		p.ids = append(p.ids, id)
	}
	p.text[id] = text
	p.refresh(true)
}

// Replace rewrites the entry with id; unknown ids are ignored.
func (p *ChatPanel) Replace(id, text string) {
	if _, ok := p.text[id]; !ok {
		return
	}
	p.text[id] = text
	p.refresh(false)
}

// Reset drops all entries and shows notice alone.
func (p *ChatPanel) Reset(notice string) {
	p.ids = nil
	p.text = make(map[string]string)
	p.notice = notice
	p.refresh(true)
}

// Lines returns the unstyled visible lines, system notice first.
func (p *ChatPanel) Lines() []string {
	var out []string
	if p.notice != "" {
		out = append(out, p.notice)
	}
	for _, id := range p.ids {
		out = append(out, p.text[id])
	}
	return out
}

func (p *ChatPanel) refresh(bottom bool) {
	var lines []string
	if p.notice != "" {
		lines = append(lines, systemStyle.Render(p.notice))
	}
	for _, id := range p.ids {
		t := p.text[id]
		switch {
		case t == chatlog.RemovedNotice:
			t = removedStyle.Render(t)
		case strings.HasPrefix(id, "local-"):
			t = echoStyle.Render(t)
		}
		lines = append(lines, t)
	}
	p.viewport.SetContent(strings.Join(lines, "\n"))
	if bottom {
		p.viewport.GotoBottom()
	}
}

func (p *ChatPanel) Update(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	p.viewport, cmd = p.viewport.Update(msg)
	return cmd
}

func (p *ChatPanel) View() string {
	return p.viewport.View()
}

func (p *ChatPanel) SetSize(width, height int) {
	p.viewport.Width = width
	p.viewport.Height = height
}
