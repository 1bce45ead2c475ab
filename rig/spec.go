package rig

import "go-arp/arp"

// Spec describes a whole rig; it is what the config file holds
type Spec struct {
	Clocks        []ClockSpec        `json:"clocks,omitempty"`
	Instruments   []InstrumentSpec   `json:"instruments,omitempty"`
	Arps          []ArpSpec          `json:"arps,omitempty"`
	Switchers     []SwitcherSpec     `json:"switchers,omitempty"`
	Recorders     []RecorderSpec     `json:"recorders,omitempty"`
	Players       []PlayerSpec       `json:"players,omitempty"`
	PhrasePlayers []PhrasePlayerSpec `json:"phrasePlayers,omitempty"`
}

type ClockSpec struct {
	Name    string `json:"name"`
	Tempo   int    `json:"tempo,omitempty"`
	Meter   string `json:"meter,omitempty"` // "4/4"
	Default bool   `json:"default,omitempty"`
}

type InstrumentSpec struct {
	Name    string `json:"name"`
	Type    string `json:"type,omitempty"` // loader name, "midi" by default
	Port    string `json:"port,omitempty"`
	Channel int    `json:"channel,omitempty"` // 1-16
}

// ArpSpec describes an arp. Values entries are numbers or URIs of other
// arps ("arps/bass", "switchers/up2") which play as nested values. When
// Values is empty and Scale is set the values come from the scale.
type ArpSpec struct {
	Name      string `json:"name"`
	Type      string `json:"type"` // AscArp, DescArp, OrderedArp, RevOrderedArp, RandomArp
	Values    []any  `json:"values,omitempty"`
	Scale     string `json:"scale,omitempty"`
	Key       string `json:"key,omitempty"`
	Octave    int    `json:"octave,omitempty"`
	Inversion int    `json:"inversion,omitempty"`
}

// SwitcherSpec describes a decorator over another arp or switcher.
// A nil Values adopts the switchee's values.
type SwitcherSpec struct {
	Name      string `json:"name"`
	Type      string `json:"type"` // ArpSwitcher, OctaveArp, Adder
	Switchee  string `json:"switchee"`
	Values    []any  `json:"values,omitempty"`
	Amount    int    `json:"amount,omitempty"`
	Octaves   *int   `json:"octaves,omitempty"` // default 2
	Direction int    `json:"direction,omitempty"`
	Oscillate bool   `json:"oscillate,omitempty"`
}

type RecorderSpec struct {
	Name  string `json:"name"`
	Clock string `json:"clock,omitempty"`
}

type PlayerSpec struct {
	Name       string `json:"name"`
	Instrument string `json:"instrument"`
	Notes      string `json:"notes"`              // arp or switcher URI
	Velocity   string `json:"velocity,omitempty"` // arp or switcher URI
	Clock      string `json:"clock,omitempty"`
	Interval   int64  `json:"interval,omitempty"` // ticks, default one beat
	Sustain    int64  `json:"sustain,omitempty"`  // ticks, default one interval
	Playing    bool   `json:"playing,omitempty"`
}

type PhrasePlayerSpec struct {
	Name       string `json:"name"`
	Recorder   string `json:"recorder"`
	Instrument string `json:"instrument"`
	Length     int64  `json:"length,omitempty"` // ticks, default one bar
	Playing    bool   `json:"playing,omitempty"`
}

// Updates carry only the fields being changed

type ClockUpdate struct {
	Tempo   *int  `json:"tempo,omitempty"`
	Playing *bool `json:"playing,omitempty"`
}

type ArpUpdate struct {
	Values    *[]any  `json:"values,omitempty"`
	Scale     *string `json:"scale,omitempty"`
	Key       *string `json:"key,omitempty"`
	Octave    *int    `json:"octave,omitempty"`
	Inversion *int    `json:"inversion,omitempty"`
}

type SwitcherUpdate struct {
	Switchee  *string `json:"switchee,omitempty"`
	Values    *[]any  `json:"values,omitempty"`
	Amount    *int    `json:"amount,omitempty"`
	Octaves   *int    `json:"octaves,omitempty"`
	Oscillate *bool   `json:"oscillate,omitempty"`
}

type PlayerUpdate struct {
	Instrument *string `json:"instrument,omitempty"`
	Notes      *string `json:"notes,omitempty"`
	Velocity   *string `json:"velocity,omitempty"`
	Interval   *int64  `json:"interval,omitempty"`
	Sustain    *int64  `json:"sustain,omitempty"`
	Playing    *bool   `json:"playing,omitempty"`
}

// Info types are read-only snapshots for the HTTP API and the UI

type ClockInfo struct {
	ClockSpec
	Ticks   int64 `json:"ticks"`
	Playing bool  `json:"playing"`
}

type ArpInfo struct {
	ArpSpec
	Count int `json:"count"`
}

type SwitcherInfo struct {
	SwitcherSpec
	CurrentOctave int `json:"currentOctave"`
}

type RecorderInfo struct {
	RecorderSpec
	Phrase  []arp.PhraseNote `json:"phrase"`
	Elapsed int64            `json:"elapsed"`
}

type PlayerInfo struct {
	PlayerSpec
	Played int `json:"played"`
}

type PhrasePlayerInfo struct {
	PhrasePlayerSpec
	Last []arp.PhraseNote `json:"last"`
}
