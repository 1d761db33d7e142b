package ui

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/comigor/chatclient/internal/connection"
)

const inputBufferSize = 64

// TUI is the terminal front end. Sink calls may come from any goroutine.
type TUI struct {
	app     *App
	program *tea.Program
	inputs  chan userInput
}

// NewTUI builds the program; identity pre-fills the identity prompt.
func NewTUI(ctx context.Context, identity string) *TUI {
	inputs := make(chan userInput, inputBufferSize)
	app := NewApp(identity, inputs)
	return &TUI{
		app:     app,
		program: tea.NewProgram(app, tea.WithAltScreen(), tea.WithMouseCellMotion(), tea.WithContext(ctx)),
		inputs:  inputs,
	}
}

// Run shows the UI until the user quits or ctx is done, forwarding input
// lines to actions in the order they were entered.
func (t *TUI) Run(ctx context.Context, actions Actions) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case in := <-t.inputs:
				if in.connect {
					actions.Connect(in.text)
				} else {
					actions.Submit(in.text)
				}
			}
		}
	}()

	_, err := t.program.Run()
	return err
}

func (t *TUI) AppendEntry(id, text string) { t.program.Send(AppendMsg{ID: id, Text: text}) }

func (t *TUI) ReplaceEntry(id, text string) { t.program.Send(ReplaceMsg{ID: id, Text: text}) }

func (t *TUI) ResetAll(notice string) { t.program.Send(ResetMsg{Notice: notice}) }

func (t *TUI) SetStatus(label, color string) { t.program.Send(StatusMsg{Label: label, Color: color}) }

// ConnectionState switches the prompt between identity and message entry.
func (t *TUI) ConnectionState(state connection.State) { t.program.Send(StateMsg{State: state}) }
