package dispatch

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/comigor/chatclient/internal/chatlog"
)

// recordingSink keeps what a screen would show, addressed by id.
type recordingSink struct {
	order  []string
	text   map[string]string
	notice string
	calls  []string
}

func newRecordingSink() *recordingSink {
	return &recordingSink{text: make(map[string]string)}
}

func (s *recordingSink) AppendEntry(id, text string) {
	s.calls = append(s.calls, "append:"+id)
	s.order = append(s.order, id)
	s.text[id] = text
}

func (s *recordingSink) ReplaceEntry(id, text string) {
	s.calls = append(s.calls, "replace:"+id)
	s.text[id] = text
}

func (s *recordingSink) ResetAll(notice string) {
	s.calls = append(s.calls, "reset")
	s.order = nil
	s.text = make(map[string]string)
	s.notice = notice
}

func (s *recordingSink) SetStatus(label, color string) {
	s.calls = append(s.calls, "status:"+label)
}

func TestHandle_ChatDistinctIDs(t *testing.T) {
	log := chatlog.New()
	d := New(log)

	for i := 0; i < 4; i++ {
		in := d.Handle(Chat{ID: fmt.Sprintf("m%d", i), Prefix: "A: ", Payload: "x"})
		require.Equal(t, OpAppend, in.Op)
		require.Equal(t, "A: x", in.Text)
	}
	require.Equal(t, 4, log.Len())
	for i, e := range log.Snapshot() {
		require.Equal(t, fmt.Sprintf("m%d", i), e.ID)
	}
}

func TestHandle_ChatReplayIsIdempotent(t *testing.T) {
	log := chatlog.New()
	d := New(log)

	ev := Chat{ID: "m1", Prefix: "A: ", Payload: "hi"}
	require.Equal(t, OpAppend, d.Handle(ev).Op)
	before := log.Snapshot()

	require.Equal(t, Instruction{}, d.Handle(ev))
	require.Equal(t, before, log.Snapshot())
}

func TestHandle_DeleteUnknownID(t *testing.T) {
	log := chatlog.New()
	d := New(log)
	d.Handle(Chat{ID: "m1", Payload: "hi"})
	before := log.Snapshot()

	require.Equal(t, OpNone, d.Handle(Delete{ID: "ghost"}).Op)
	require.Equal(t, before, log.Snapshot())
}

func TestHandle_DeleteKnownID(t *testing.T) {
	log := chatlog.New()
	d := New(log)
	d.Handle(Chat{ID: "m1", Prefix: "A: ", Payload: "hi"})

	in := d.Handle(Delete{ID: "m1"})
	require.Equal(t, Instruction{Op: OpReplace, ID: "m1", Text: chatlog.RemovedNotice}, in)
	require.Equal(t, 1, log.Len())
	after := log.Snapshot()
	require.Equal(t, chatlog.RemovedNotice, after[0].DisplayText)

	require.Equal(t, OpNone, d.Handle(Delete{ID: "m1"}).Op)
	require.Equal(t, after, log.Snapshot())
}

func TestHandle_Clear(t *testing.T) {
	log := chatlog.New()
	d := New(log)

	require.Equal(t, Instruction{Op: OpReset, Text: chatlog.ClearedNotice}, d.Handle(Clear{}))
	require.Zero(t, log.Len())

	d.Handle(Chat{ID: "m1"})
	d.Handle(Chat{ID: "m2"})
	d.Handle(Delete{ID: "m1"})
	d.Handle(Clear{})
	require.Zero(t, log.Len())
}

func TestHandle_UnknownEvent(t *testing.T) {
	log := chatlog.New()
	d := New(log)
	require.Equal(t, Instruction{}, d.Handle(Unknown{Type: "typing"}))
	require.Equal(t, Instruction{}, d.Handle(nil))
	require.Zero(t, log.Len())
}

func TestEndToEnd_ChatDeleteChatClear(t *testing.T) {
	log := chatlog.New()
	d := New(log)
	sink := newRecordingSink()

	events := []Event{
		Chat{ID: "m1", Prefix: "A: ", Payload: "hi"},
		Delete{ID: "m1"},
		Chat{ID: "m2", Prefix: "B: ", Payload: "yo"},
		Clear{},
	}
	for _, ev := range events {
		d.Handle(ev).Apply(sink)
	}

	require.Zero(t, log.Len())
	require.Empty(t, sink.order)
	require.Equal(t, chatlog.ClearedNotice, sink.notice)
	require.Equal(t, []string{"append:m1", "replace:m1", "append:m2", "reset"}, sink.calls)
}

func TestDecode(t *testing.T) {
	ev, err := Decode([]byte(`{"type":"chat","id":"a1","prefix":"💬 bob: ","payload":"hey"}`))
	require.NoError(t, err)
	require.Equal(t, Chat{ID: "a1", Prefix: "💬 bob: ", Payload: "hey"}, ev)

	ev, err = Decode([]byte(`{"type":"chat","id":"a2"}`))
	require.NoError(t, err)
	require.Equal(t, Chat{ID: "a2"}, ev)

	ev, err = Decode([]byte(`{"type":"delete","id":"a1","payload":"ignored"}`))
	require.NoError(t, err)
	require.Equal(t, Delete{ID: "a1"}, ev)

	ev, err = Decode([]byte(`{"type":"clear","id":"whatever"}`))
	require.NoError(t, err)
	require.Equal(t, Clear{}, ev)

	ev, err = Decode([]byte(`{"type":"typing"}`))
	var unrec *UnrecognizedEventError
	require.True(t, errors.As(err, &unrec))
	require.Equal(t, "typing", unrec.Type)
	require.Equal(t, Unknown{Type: "typing"}, ev)

	_, err = Decode([]byte(`not json`))
	require.Error(t, err)
}

func TestRestate(t *testing.T) {
	d := New(chatlog.New())
	sink := newRecordingSink()

	d.Restate(Chat{ID: "local-connect", Prefix: "✅ ", Payload: "Connected as alice"}).Apply(sink)
	require.Equal(t, []string{"local-connect"}, sink.order)

	require.Equal(t, Instruction{}, d.Restate(Chat{ID: "local-connect", Prefix: "✅ ", Payload: "Connected as alice"}))

	in := d.Restate(Chat{ID: "local-connect", Prefix: "✅ ", Payload: "Connected as bob"})
	require.Equal(t, Instruction{Op: OpReplace, ID: "local-connect", Text: "✅ Connected as bob"}, in)
	in.Apply(sink)
	require.Equal(t, []string{"local-connect"}, sink.order)
	require.Equal(t, "✅ Connected as bob", sink.text["local-connect"])

	d.Handle(Delete{ID: "local-connect"})
	require.Equal(t, Instruction{}, d.Restate(Chat{ID: "local-connect", Payload: "Connected as carol"}))
}
