package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"go-arp/clock"
	"go-arp/rig"
)

// OutputConfig is the MIDI port instruments use when their spec names none
type OutputConfig struct {
	PortName string `json:"portName,omitempty"`
	Channel  int    `json:"channel,omitempty"`
}

// InputConfig routes a keyboard into a recorder, echoing to an instrument
type InputConfig struct {
	PortName string `json:"portName,omitempty"`
	Channel  int    `json:"channel,omitempty"` // 0 = omni
	Recorder string `json:"recorder,omitempty"`
	Echo     string `json:"echo,omitempty"`
}

// UIConfig stores UI preferences
type UIConfig struct {
	Palette string `json:"palette,omitempty"` // path to a .gpl file
}

// Config is the main configuration structure
type Config struct {
	Tempo  int          `json:"tempo,omitempty"`
	Meter  string       `json:"meter,omitempty"`
	Output OutputConfig `json:"output,omitempty"`
	Input  InputConfig  `json:"input,omitempty"`
	Addr   string       `json:"addr,omitempty"` // HTTP listen address, empty disables
	UI     UIConfig     `json:"ui,omitempty"`
	Rig    rig.Spec     `json:"rig"`
}

// DefaultConfig returns a config that plays an ascending C major arpeggio
// on the first MIDI output and records the first MIDI input
func DefaultConfig() *Config {
	return &Config{
		Tempo:  clock.DefaultTempo,
		Meter:  "4/4",
		Output: OutputConfig{Channel: 1},
		Input:  InputConfig{Recorder: "keys", Echo: "synth"},
		Rig: rig.Spec{
			Instruments: []rig.InstrumentSpec{{Name: "synth", Type: "midi"}},
			Arps: []rig.ArpSpec{
				{Name: "cmaj", Type: "AscArp", Values: []any{60, 64, 67, 72}},
				{Name: "accent", Type: "OrderedArp", Values: []any{110, 70, 90, 70}},
			},
			Switchers: []rig.SwitcherSpec{
				{Name: "climb", Type: "OctaveArp", Switchee: "arps/cmaj", Octaves: intPtr(2), Oscillate: true},
			},
			Recorders: []rig.RecorderSpec{{Name: "keys"}},
			Players: []rig.PlayerSpec{
				{Name: "arp", Instrument: "synth", Notes: "switchers/climb", Velocity: "arps/accent", Interval: clock.PPQ / 4},
			},
			PhrasePlayers: []rig.PhrasePlayerSpec{
				{Name: "loop", Recorder: "keys", Instrument: "synth"},
			},
		},
	}
}

func intPtr(n int) *int {
	return &n
}

// ConfigDir returns the config directory path
func ConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "go-arp"), nil
}

// ConfigPath returns the full path to config.json
func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.json"), nil
}

// Load reads the config from disk, or returns defaults if not found
func Load() (*Config, error) {
	path, err := ConfigPath()
	if err != nil {
		return DefaultConfig(), nil
	}
	return LoadFrom(path)
}

// LoadFrom reads the config at path, or returns defaults if there is none
func LoadFrom(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultConfig(), nil
		}
		return nil, err
	}

	cfg := Config{}
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	cfg.fill()
	return &cfg, nil
}

// fill applies defaults for fields a hand-written file may leave out
func (c *Config) fill() {
	if c.Tempo == 0 {
		c.Tempo = clock.DefaultTempo
	}
	if c.Meter == "" {
		c.Meter = "4/4"
	}
	if c.Output.Channel == 0 {
		c.Output.Channel = 1
	}
}

// Save writes the config to disk
func (c *Config) Save() error {
	path, err := ConfigPath()
	if err != nil {
		return err
	}
	return c.SaveTo(path)
}

// SaveTo writes the config to path, creating its directory
func (c *Config) SaveTo(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

// RigSpec returns the rig to build. The configured tempo and meter go to
// the default clock, which is created when the rig spec has no clocks.
func (c *Config) RigSpec() rig.Spec {
	spec := c.Rig
	spec.Clocks = append([]rig.ClockSpec(nil), spec.Clocks...)
	if len(spec.Clocks) == 0 {
		spec.Clocks = []rig.ClockSpec{{Name: rig.DefaultClockName, Default: true}}
	}
	def := 0
	for i, cs := range spec.Clocks {
		if cs.Default {
			def = i
		}
	}
	if spec.Clocks[def].Tempo == 0 {
		spec.Clocks[def].Tempo = c.Tempo
	}
	if spec.Clocks[def].Meter == "" {
		spec.Clocks[def].Meter = c.Meter
	}

	spec.Instruments = append([]rig.InstrumentSpec(nil), spec.Instruments...)
	for i := range spec.Instruments {
		if spec.Instruments[i].Port == "" {
			spec.Instruments[i].Port = c.Output.PortName
		}
		if spec.Instruments[i].Channel == 0 {
			spec.Instruments[i].Channel = c.Output.Channel
		}
	}
	return spec
}
