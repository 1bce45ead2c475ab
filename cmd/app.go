package cmd

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"go-arp/config"
	"go-arp/debug"
	"go-arp/midi"
	"go-arp/player"
	"go-arp/rig"
)

// app wires config, MIDI ports and the rig together
type app struct {
	cfg   *config.Config
	ports midi.Ports
	rig   *rig.Rig
	input *midi.Input
	done  chan struct{} // closed when the clocks stop; nil until start

	// outputs grows from loadInstrument, which HTTP requests reach
	mu      sync.Mutex
	outputs []*midi.Output
}

func newApp(cfg *config.Config) (*app, error) {
	ports, err := midi.Scan(midi.ScanTimeout)
	if err != nil {
		return nil, fmt.Errorf("%w (try: sudo killall coreaudiod midiserver)", err)
	}
	debug.Log("app", "ports in=%v out=%v", ports.InNames(), ports.OutNames())

	a := &app{cfg: cfg, ports: ports}
	a.rig = rig.New(a.loadInstrument)
	if err := a.rig.Load(cfg.RigSpec()); err != nil {
		a.close()
		return nil, fmt.Errorf("load rig: %w", err)
	}

	if cfg.Input.PortName != "" {
		route, err := a.rig.Input(cfg.Input.Recorder, cfg.Input.Echo)
		if err != nil {
			a.close()
			return nil, fmt.Errorf("input route: %w", err)
		}
		in, err := midi.OpenInput(ports, cfg.Input.PortName, cfg.Input.Channel, route)
		if err != nil {
			a.close()
			return nil, err
		}
		a.input = in
	}
	return a, nil
}

// loadInstrument is the rig's instrument loader. It runs under the rig lock.
func (a *app) loadInstrument(spec rig.InstrumentSpec) (player.Instrument, error) {
	switch spec.Type {
	case "log":
		return logInstrument(spec.Name), nil
	case "midi":
		port := spec.Port
		if port == "" {
			names := a.ports.OutNames()
			if len(names) == 0 {
				return nil, fmt.Errorf("no MIDI outputs: %w", midi.ErrPortNotFound)
			}
			port = names[0]
		}
		out, err := midi.OpenOutput(a.ports, port, spec.Channel)
		if err != nil {
			return nil, err
		}
		a.addOutput(out)
		return out, nil
	}
	return nil, fmt.Errorf("unknown instrument type %q", spec.Type)
}

// start drives the rig's clocks until ctx is done
func (a *app) start(ctx context.Context) {
	a.done = make(chan struct{})
	go func() {
		defer close(a.done)
		a.rig.Run(ctx)
	}()
}

// status summarizes the open ports for the UI
func (a *app) status() string {
	var parts []string
	for _, out := range a.openOutputs() {
		parts = append(parts, fmt.Sprintf("out: %s ch%d", out.Name(), out.Channel()))
	}
	if a.input != nil {
		parts = append(parts, fmt.Sprintf("in: %s -> %s", a.input.ID(), a.cfg.Input.Recorder))
	}
	if a.cfg.Addr != "" {
		parts = append(parts, "http: "+a.cfg.Addr)
	}
	return strings.Join(parts, "  ")
}

// close stops playback and silences every output. The context passed to
// start must be done first.
func (a *app) close() {
	if a.input != nil {
		a.input.Close()
	}
	a.rig.Stop()
	if a.done != nil {
		<-a.done
	}
	for _, out := range a.openOutputs() {
		out.AllOff()
	}
	midi.CloseDriver()
}

func (a *app) addOutput(out *midi.Output) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.outputs = append(a.outputs, out)
}

func (a *app) openOutputs() []*midi.Output {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]*midi.Output, len(a.outputs))
	copy(out, a.outputs)
	return out
}

// logInstrument writes notes to the debug log
type logInstrument string

func (l logInstrument) NoteOn(note, velocity int) {
	debug.Log(string(l), "note on %d vel %d", note, velocity)
}

func (l logInstrument) NoteOff(note int) {
	debug.Log(string(l), "note off %d", note)
}
