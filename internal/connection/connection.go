// Package connection tracks the session status (disconnected, connecting,
// connected, failed). Transitions are driven by the user's connect action and
// by signals from the transport; recovery from a failure is always a fresh
// user-initiated connect, never an automatic retry.
package connection

import (
	"context"
	"errors"
	"fmt"

	"github.com/qmuntal/stateless"

	"github.com/comigor/chatclient/internal/dispatch"
	"github.com/comigor/chatclient/internal/logger"
)

// State is the controller state.
type State string

const (
	StateDisconnected State = "Disconnected"
	StateConnecting   State = "Connecting"
	StateConnected    State = "Connected"
	StateFailed       State = "Failed"
)

// Trigger is an input to the state machine.
type Trigger string

const (
	TriggerConnect Trigger = "Connect"
	TriggerConfirm Trigger = "Confirm"
	TriggerFail    Trigger = "Fail"
)

// Status colors.
const (
	ColorIdle    = "#9E9E9E"
	ColorPending = "#FFC107"
	ColorOK      = "#4CAF50"
	ColorError   = "#F44336"
	ColorWarn    = "#FF9800"
)

// ConnectedMessageID is reserved for the local "connected as" line. Server
// ids never carry the local- prefix.
const ConnectedMessageID = "local-connect"

// ErrConnectionFailed wraps every failure reported by the transport.
var ErrConnectionFailed = errors.New("connection failed")

// ErrConnectInProgress is returned by Connect while connecting or connected.
var ErrConnectInProgress = errors.New("already connecting or connected")

// ValidationError reports bad user input to Connect.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// Dialer starts a connection attempt. It must not block: the outcome comes
// back through Confirmed or Fail.
type Dialer interface {
	Connect(identity string)
}

// StateObserver is implemented by sinks that follow state changes, for
// example to swap the identity prompt for the message prompt.
type StateObserver interface {
	ConnectionState(state State)
}

// StatusLabeler is implemented by failure causes that know how they should
// read on the status line.
type StatusLabeler interface {
	StatusLabel() string
}

// Controller owns the connection state. It is not safe for concurrent use.
type Controller struct {
	fsm      *stateless.StateMachine
	dialer   Dialer
	events   dispatch.Restater
	sink     dispatch.Sink
	identity string
	label    string
	color    string
	lastErr  error
}

// New returns a controller in the Disconnected state.
func New(dialer Dialer, events dispatch.Restater, sink dispatch.Sink) *Controller {
	c := &Controller{
		dialer: dialer,
		events: events,
		sink:   sink,
		label:  "🔴 Disconnected",
		color:  ColorIdle,
	}

	fsm := stateless.NewStateMachine(StateDisconnected)

	fsm.Configure(StateDisconnected).
		Permit(TriggerConnect, StateConnecting).
		Permit(TriggerFail, StateFailed)

	// Connecting: hand the identity to the transport and wait for a signal.
	fsm.Configure(StateConnecting).
		OnEntry(c.enterConnecting).
		Permit(TriggerConfirm, StateConnected).
		Permit(TriggerFail, StateFailed)

	fsm.Configure(StateConnected).
		OnEntry(c.enterConnected).
		Permit(TriggerFail, StateFailed)

	// Failed: only a new connect leaves this state.
	fsm.Configure(StateFailed).
		OnEntry(c.enterFailed).
		PermitReentry(TriggerFail).
		Permit(TriggerConnect, StateConnecting)

	c.fsm = fsm
	return c
}

// State returns the current state.
func (c *Controller) State() State {
	return c.fsm.MustState().(State)
}

// Status returns the label and color currently shown for the connection.
func (c *Controller) Status() (label, color string) {
	return c.label, c.color
}

// Identity returns the identity of the last connect attempt.
func (c *Controller) Identity() string {
	return c.identity
}

// Err returns the last failure, wrapped in ErrConnectionFailed.
func (c *Controller) Err() error {
	return c.lastErr
}

// Connect starts a connection attempt as identity. An empty identity is
// rejected with a *ValidationError and leaves the state unchanged.
func (c *Controller) Connect(identity string) error {
	if identity == "" {
		c.SetStatus("⚠️ You must enter a username.", ColorWarn)
		return &ValidationError{Field: "identity", Reason: "must not be empty"}
	}
	if ok, _ := c.fsm.CanFire(TriggerConnect); !ok {
		return fmt.Errorf("connect in state %s: %w", c.State(), ErrConnectInProgress)
	}
	return c.fsm.Fire(TriggerConnect, identity)
}

// Confirmed handles the transport's "connected as identity" signal.
func (c *Controller) Confirmed(identity string) error {
	return c.fsm.Fire(TriggerConfirm, identity)
}

// Fail handles a transport failure.
func (c *Controller) Fail(cause error) error {
	return c.fsm.Fire(TriggerFail, cause)
}

// SetStatus forwards a plain status signal to the sink.
func (c *Controller) SetStatus(label, color string) {
	c.label, c.color = label, color
	c.sink.SetStatus(label, color)
}

func (c *Controller) enterConnecting(_ context.Context, args ...any) error {
	c.identity = args[0].(string)
	c.lastErr = nil
	c.SetStatus("🟡 Connecting...", ColorPending)
	logger.L.Info("connecting", "identity", c.identity)
	c.notify(StateConnecting)
	c.dialer.Connect(c.identity)
	return nil
}

func (c *Controller) enterConnected(_ context.Context, args ...any) error {
	if id, ok := args[0].(string); ok && id != "" {
		c.identity = id
	}
	// A reconnect under another name rewrites the line in place.
	c.events.Restate(dispatch.Chat{
		ID:      ConnectedMessageID,
		Prefix:  "✅ ",
		Payload: "Connected as " + c.identity,
	}).Apply(c.sink)
	c.SetStatus("🟢 Connected as: "+c.identity, ColorOK)
	c.notify(StateConnected)
	logger.L.Info("connected", "identity", c.identity)
	return nil
}

func (c *Controller) enterFailed(_ context.Context, args ...any) error {
	cause, _ := args[0].(error)
	if cause == nil {
		cause = errors.New("unknown error")
	}
	c.lastErr = fmt.Errorf("%w: %w", ErrConnectionFailed, cause)
	label := "🔴 " + cause.Error()
	var sl StatusLabeler
	if errors.As(cause, &sl) {
		label = sl.StatusLabel()
	}
	c.SetStatus(label, ColorError)
	c.notify(StateFailed)
	logger.L.Warn("connection failed", "identity", c.identity, "error", cause)
	return nil
}

func (c *Controller) notify(state State) {
	if obs, ok := c.sink.(StateObserver); ok {
		obs.ConnectionState(state)
	}
}
