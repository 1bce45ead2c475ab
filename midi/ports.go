package midi

import (
	"errors"
	"fmt"
	"strings"
	"time"

	gomidi "gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/drivers"
	_ "gitlab.com/gomidi/midi/v2/drivers/rtmididrv" // Register MIDI driver
)

// ErrPortsTimeout is returned when the MIDI system doesn't answer a port
// scan (CoreMIDI can hang)
var ErrPortsTimeout = errors.New("timed out listing MIDI ports")

// ErrPortNotFound is returned when no port matches a name
var ErrPortNotFound = errors.New("MIDI port not found")

// ScanTimeout bounds how long a port scan may take
const ScanTimeout = 3 * time.Second

// Ports is a snapshot of available MIDI ports
type Ports struct {
	Ins  []drivers.In
	Outs []drivers.Out
}

// Scan lists MIDI ports, giving up after timeout
func Scan(timeout time.Duration) (Ports, error) {
	ch := make(chan Ports, 1)
	go func() {
		ch <- Ports{Ins: gomidi.GetInPorts(), Outs: gomidi.GetOutPorts()}
	}()

	select {
	case p := <-ch:
		return p, nil
	case <-time.After(timeout):
		// User needs to run: sudo killall coreaudiod midiserver
		return Ports{}, ErrPortsTimeout
	}
}

// InNames returns the input port names
func (p Ports) InNames() []string {
	names := make([]string, len(p.Ins))
	for i, in := range p.Ins {
		names[i] = in.String()
	}
	return names
}

// OutNames returns the output port names
func (p Ports) OutNames() []string {
	names := make([]string, len(p.Outs))
	for i, out := range p.Outs {
		names[i] = out.String()
	}
	return names
}

// FindIn returns the input port called name (exact match first, then a
// case-insensitive substring)
func (p Ports) FindIn(name string) (drivers.In, error) {
	i := matchPort(p.InNames(), name)
	if i < 0 {
		return nil, fmt.Errorf("input %q: %w", name, ErrPortNotFound)
	}
	return p.Ins[i], nil
}

// FindOut returns the output port called name
func (p Ports) FindOut(name string) (drivers.Out, error) {
	i := matchPort(p.OutNames(), name)
	if i < 0 {
		return nil, fmt.Errorf("output %q: %w", name, ErrPortNotFound)
	}
	return p.Outs[i], nil
}

func matchPort(names []string, name string) int {
	if name == "" {
		return -1
	}
	for i, n := range names {
		if n == name {
			return i
		}
	}
	want := strings.ToLower(name)
	for i, n := range names {
		if strings.Contains(strings.ToLower(n), want) {
			return i
		}
	}
	return -1
}

// CloseDriver releases the MIDI driver
func CloseDriver() {
	gomidi.CloseDriver()
}
