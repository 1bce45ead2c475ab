package midi

import (
	"fmt"
	"sync"

	gomidi "gitlab.com/gomidi/midi/v2"

	"go-arp/debug"
)

// Output is an instrument that sends notes to a MIDI output port on one
// channel. It is safe for concurrent use: the clock goroutine plays notes
// while keyboard echo arrives from the input goroutine.
type Output struct {
	name    string
	channel uint8 // 0-15
	send    func(gomidi.Message) error

	mu       sync.Mutex
	sounding map[uint8]int
}

// OpenOutput opens the port matching portName. channel is 1-16.
func OpenOutput(ports Ports, portName string, channel int) (*Output, error) {
	port, err := ports.FindOut(portName)
	if err != nil {
		return nil, err
	}
	send, err := gomidi.SendTo(port)
	if err != nil {
		return nil, fmt.Errorf("open output %s: %w", port.String(), err)
	}
	return NewOutput(port.String(), channel, send), nil
}

// NewOutput wraps an arbitrary send function
func NewOutput(name string, channel int, send func(gomidi.Message) error) *Output {
	if channel < 1 || channel > 16 {
		channel = 1
	}
	return &Output{
		name:     name,
		channel:  uint8(channel - 1),
		send:     send,
		sounding: make(map[uint8]int),
	}
}

func (o *Output) Name() string {
	return o.name
}

// Channel is the 1-16 MIDI channel
func (o *Output) Channel() int {
	return int(o.channel) + 1
}

func (o *Output) NoteOn(note, velocity int) {
	o.mu.Lock()
	defer o.mu.Unlock()
	n := clamp7(note)
	if err := o.send(gomidi.NoteOn(o.channel, n, clamp7(velocity))); err != nil {
		debug.Error("midi", fmt.Errorf("note on %d to %s: %w", n, o.name, err))
		return
	}
	o.sounding[n]++
}

func (o *Output) NoteOff(note int) {
	o.mu.Lock()
	defer o.mu.Unlock()
	n := clamp7(note)
	if err := o.send(gomidi.NoteOff(o.channel, n)); err != nil {
		debug.Error("midi", fmt.Errorf("note off %d to %s: %w", n, o.name, err))
		return
	}
	if o.sounding[n] > 1 {
		o.sounding[n]--
	} else {
		delete(o.sounding, n)
	}
}

// Sounding returns how many notes are currently on
func (o *Output) Sounding() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	total := 0
	for _, c := range o.sounding {
		total += c
	}
	return total
}

// AllOff sends a note-off for every note still sounding
func (o *Output) AllOff() {
	o.mu.Lock()
	defer o.mu.Unlock()
	for n := range o.sounding {
		if err := o.send(gomidi.NoteOff(o.channel, n)); err != nil {
			debug.Error("midi", fmt.Errorf("all off %d to %s: %w", n, o.name, err))
		}
		delete(o.sounding, n)
	}
}
