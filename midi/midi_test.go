package midi

import (
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	gomidi "gitlab.com/gomidi/midi/v2"

	"go-arp/debug"
)

type capture struct {
	mu   sync.Mutex
	msgs []gomidi.Message
	err  error
}

func (c *capture) send(msg gomidi.Message) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return c.err
	}
	c.msgs = append(c.msgs, msg)
	return nil
}

func TestOutputSendsOnChannel(t *testing.T) {
	c := &capture{}
	out := NewOutput("synth", 10, c.send)
	assert.Equal(t, 10, out.Channel())

	out.NoteOn(60, 200)
	out.NoteOff(60)

	require.Len(t, c.msgs, 2)
	var ch, key, vel uint8
	require.True(t, c.msgs[0].GetNoteOn(&ch, &key, &vel))
	assert.Equal(t, uint8(9), ch)
	assert.Equal(t, uint8(60), key)
	assert.Equal(t, uint8(127), vel)
	assert.True(t, c.msgs[1].GetNoteEnd(&ch, &key))
	assert.Zero(t, out.Sounding())
}

func TestOutputAllOffReleasesSoundingNotes(t *testing.T) {
	c := &capture{}
	out := NewOutput("synth", 0, c.send)
	assert.Equal(t, 1, out.Channel())

	out.NoteOn(60, 100)
	out.NoteOn(64, 100)
	out.NoteOn(64, 100)
	assert.Equal(t, 3, out.Sounding())

	out.AllOff()
	assert.Zero(t, out.Sounding())
	assert.Len(t, c.msgs, 5)
}

func TestOutputSendErrorsAreNotFatal(t *testing.T) {
	c := &capture{err: errors.New("unplugged")}
	out := NewOutput("synth", 1, c.send)
	assert.NotPanics(t, func() {
		out.NoteOn(60, 100)
		out.NoteOff(60)
	})
	assert.Zero(t, out.Sounding())
}

func TestOutputAllOffReportsSendErrors(t *testing.T) {
	c := &capture{}
	out := NewOutput("synth", 1, c.send)
	out.NoteOn(60, 100)
	out.NoteOn(64, 100)

	before := debug.Errors()
	c.mu.Lock()
	c.err = errors.New("unplugged")
	c.mu.Unlock()
	out.AllOff()

	assert.Equal(t, before+2, debug.Errors())
	assert.Zero(t, out.Sounding())
}

func TestDecode(t *testing.T) {
	evt, ok := decode(gomidi.NoteOn(2, 61, 90))
	require.True(t, ok)
	assert.Equal(t, Event{Type: NoteOn, Channel: 2, Note: 61, Velocity: 90}, evt)

	evt, ok = decode(gomidi.NoteOn(2, 61, 0))
	require.True(t, ok)
	assert.Equal(t, NoteOff, evt.Type)

	evt, ok = decode(gomidi.NoteOff(0, 40))
	require.True(t, ok)
	assert.Equal(t, Event{Type: NoteOff, Note: 40}, evt)

	_, ok = decode(gomidi.ControlChange(0, 7, 100))
	assert.False(t, ok)
}

type handler struct {
	mu     sync.Mutex
	events []Event
}

func (h *handler) NoteOn(note, velocity int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.events = append(h.events, Event{Type: NoteOn, Note: uint8(note), Velocity: uint8(velocity)})
}

func (h *handler) NoteOff(note int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.events = append(h.events, Event{Type: NoteOff, Note: uint8(note)})
}

func TestInputForwardsFilteredEvents(t *testing.T) {
	h := &handler{}
	in := newInput("keys", 1, h)

	in.receive(gomidi.NoteOn(0, 60, 100))
	in.receive(gomidi.NoteOn(5, 62, 100)) // other channel
	in.receive(gomidi.NoteOff(0, 60))
	require.NoError(t, in.Close())
	require.NoError(t, in.Close())

	assert.Equal(t, []Event{
		{Type: NoteOn, Note: 60, Velocity: 100},
		{Type: NoteOff, Note: 60},
	}, h.events)
}

func TestInputIgnoresEventsAfterClose(t *testing.T) {
	h := &handler{}
	in := newInput("keys", 0, h)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 100; i++ {
			in.receive(gomidi.NoteOn(0, 60, 100))
		}
	}()
	require.NoError(t, in.Close())
	assert.NotPanics(t, func() { in.receive(gomidi.NoteOn(0, 61, 100)) })
	wg.Wait()

	h.mu.Lock()
	defer h.mu.Unlock()
	for _, evt := range h.events {
		assert.Equal(t, uint8(60), evt.Note)
	}
}

func TestMatchPort(t *testing.T) {
	names := []string{"IAC Driver Bus 1", "Launchpad X LPX MIDI", "USB Keys"}

	assert.Equal(t, 2, matchPort(names, "USB Keys"))
	assert.Equal(t, 1, matchPort(names, "launchpad"))
	assert.Equal(t, -1, matchPort(names, "missing"))
	assert.Equal(t, -1, matchPort(names, ""))

	_, err := Ports{}.FindOut("synth")
	assert.ErrorIs(t, err, ErrPortNotFound)
}
