package midi

import (
	"fmt"
	"sync"

	gomidi "gitlab.com/gomidi/midi/v2"

	"go-arp/debug"
)

// Input listens to a MIDI input port (typically a keyboard) and forwards
// note events to a handler on its own goroutine.
type Input struct {
	id       string
	channel  int // 1-16, 0 = any
	stopFunc func()
	events   chan Event
	done     chan struct{}

	mu     sync.Mutex // orders driver callbacks against Close
	closed bool
}

// OpenInput starts listening on the port matching portName. channel filters
// events to one MIDI channel (1-16); 0 accepts all.
func OpenInput(ports Ports, portName string, channel int, h NoteHandler) (*Input, error) {
	port, err := ports.FindIn(portName)
	if err != nil {
		return nil, err
	}
	in := newInput(port.String(), channel, h)

	stop, err := gomidi.ListenTo(port, func(msg gomidi.Message, timestampms int32) {
		in.receive(msg)
	})
	if err != nil {
		in.Close()
		return nil, fmt.Errorf("open input: %w", err)
	}
	in.stopFunc = stop
	return in, nil
}

func newInput(id string, channel int, h NoteHandler) *Input {
	in := &Input{
		id:      id,
		channel: channel,
		events:  make(chan Event, 32),
		done:    make(chan struct{}),
	}
	go in.loop(h)
	return in
}

func (in *Input) ID() string {
	return in.id
}

// receive runs on the driver's callback; it never blocks
func (in *Input) receive(msg gomidi.Message) {
	evt, ok := decode(msg)
	if !ok {
		return
	}
	if in.channel > 0 && int(evt.Channel)+1 != in.channel {
		return
	}
	in.mu.Lock()
	defer in.mu.Unlock()
	if in.closed {
		return
	}
	select {
	case in.events <- evt:
	default:
		debug.Log("midi", "input %s: dropped %v (buffer full)", in.id, evt)
	}
}

func (in *Input) loop(h NoteHandler) {
	defer close(in.done)
	for evt := range in.events {
		switch evt.Type {
		case NoteOn:
			h.NoteOn(int(evt.Note), int(evt.Velocity))
		case NoteOff:
			h.NoteOff(int(evt.Note))
		}
	}
}

// decode maps note messages to events; note-on with velocity 0 is a note-off
func decode(msg gomidi.Message) (Event, bool) {
	var channel, note, velocity uint8
	switch {
	case msg.GetNoteOn(&channel, &note, &velocity) && velocity > 0:
		return Event{Type: NoteOn, Channel: channel, Note: note, Velocity: velocity}, true
	case msg.GetNoteEnd(&channel, &note):
		return Event{Type: NoteOff, Channel: channel, Note: note}, true
	}
	return Event{}, false
}

// Close stops listening and waits for queued events to be handled
func (in *Input) Close() error {
	if in.stopFunc != nil {
		in.stopFunc()
		in.stopFunc = nil
	}
	in.mu.Lock()
	if !in.closed {
		in.closed = true
		close(in.events)
	}
	in.mu.Unlock()
	<-in.done
	return nil
}
