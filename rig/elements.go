package rig

import (
	"reflect"
	"strings"

	"github.com/pkg/errors"

	"go-arp/arp"
	"go-arp/clock"
	"go-arp/debug"
	"go-arp/player"
)

// DefaultOctaves is the octave range of an OctaveArp that does not give one
const DefaultOctaves = 2

// normalized type names; the long forms match what saved rigs use
var arpTypes = map[string]string{
	"ascarp": "AscArp", "asc": "AscArp",
	"descarp": "DescArp", "desc": "DescArp",
	"orderedarp": "OrderedArp", "ordered": "OrderedArp",
	"revorderedarp": "RevOrderedArp", "revordered": "RevOrderedArp",
	"randomarp": "RandomArp", "random": "RandomArp",
}

var switcherTypes = map[string]string{
	"arpswitcher": "ArpSwitcher", "switcher": "ArpSwitcher",
	"octavearp": "OctaveArp", "octave": "OctaveArp",
	"adder": "Adder",
}

func newArp(typ string, values []arp.Value) arp.Arp {
	switch typ {
	case "AscArp":
		return arp.NewAsc(values)
	case "DescArp":
		return arp.NewDesc(values)
	case "OrderedArp":
		return arp.NewOrdered(values)
	case "RevOrderedArp":
		return arp.NewRevOrdered(values)
	default:
		return arp.NewRandom(values)
	}
}

// Clocks

func (r *Rig) CreateClock(spec ClockSpec) (ClockInfo, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	name, err := r.claimName(KindClocks, spec.Name)
	if err != nil {
		return ClockInfo{}, err
	}
	spec.Name = name
	if spec.Tempo == 0 {
		spec.Tempo = clock.DefaultTempo
	}
	c := clock.New(spec.Tempo)
	spec.Tempo = c.Tempo()
	if spec.Meter != "" {
		m, err := clock.ParseMeter(spec.Meter)
		if err != nil {
			return ClockInfo{}, errors.Wrapf(ErrInvalid, "clock %s: %v", name, err)
		}
		c.SetMeter(m)
	}
	spec.Meter = c.Meter().String()

	if spec.Default || r.defaultClock == "" {
		if d, ok := r.clocks[r.defaultClock]; ok {
			d.spec.Default = false
		}
		r.defaultClock = name
		spec.Default = true
	}
	e := &clockElement{spec: spec, clock: c}
	r.clocks[name] = e
	r.startClock(e)
	debug.Log("rig", "created clock %s at %d bpm", name, spec.Tempo)
	r.changed()
	return e.info(), nil
}

func (r *Rig) UpdateClock(name string, u ClockUpdate) (ClockInfo, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.clocks[name]
	if !ok {
		return ClockInfo{}, notFound(KindClocks, name)
	}
	if u.Tempo != nil {
		e.clock.SetTempo(*u.Tempo)
		e.spec.Tempo = e.clock.Tempo()
	}
	if u.Playing != nil {
		if *u.Playing {
			e.clock.Resume()
		} else {
			e.clock.Pause()
		}
	}
	r.changed()
	return e.info(), nil
}

func (r *Rig) Clock(name string) (ClockInfo, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.clocks[r.clockName(name)]
	if !ok {
		return ClockInfo{}, notFound(KindClocks, name)
	}
	return e.info(), nil
}

func (r *Rig) Clocks() []ClockInfo {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []ClockInfo
	for _, name := range sortedKeys(r.clocks) {
		out = append(out, r.clocks[name].info())
	}
	return out
}

// ClockByName exposes the live clock, for the UI's transport keys
func (r *Rig) ClockByName(name string) (*clock.Clock, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.lookupClock(name)
}

func (e *clockElement) info() ClockInfo {
	return ClockInfo{ClockSpec: e.spec, Ticks: e.clock.Ticks(), Playing: e.clock.Playing()}
}

// Instruments

func (r *Rig) CreateInstrument(spec InstrumentSpec) (InstrumentSpec, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	name, err := r.claimName(KindInstruments, spec.Name)
	if err != nil {
		return InstrumentSpec{}, err
	}
	spec.Name = name
	if spec.Type == "" {
		spec.Type = "midi"
	}
	if spec.Channel == 0 {
		spec.Channel = 1
	}
	if r.loader == nil {
		return InstrumentSpec{}, errors.Wrapf(ErrInvalid, "instrument %s: no instrument loader", name)
	}
	instr, err := r.loader(spec)
	if err != nil {
		return InstrumentSpec{}, errors.Wrapf(ErrInvalid, "instrument %s: %v", name, err)
	}
	r.instruments[name] = &instrumentElement{spec: spec, instr: instr}
	debug.Log("rig", "created instrument %s (%s %q ch %d)", name, spec.Type, spec.Port, spec.Channel)
	r.changed()
	return spec, nil
}

func (r *Rig) Instrument(name string) (InstrumentSpec, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.instruments[name]
	if !ok {
		return InstrumentSpec{}, notFound(KindInstruments, name)
	}
	return e.spec, nil
}

func (r *Rig) Instruments() []InstrumentSpec {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []InstrumentSpec
	for _, name := range sortedKeys(r.instruments) {
		out = append(out, r.instruments[name].spec)
	}
	return out
}

// Arps

func (r *Rig) CreateArp(spec ArpSpec) (ArpInfo, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	typ, ok := arpTypes[strings.ToLower(spec.Type)]
	if !ok {
		return ArpInfo{}, errors.Wrapf(ErrInvalid, "unknown arp type %q", spec.Type)
	}
	name, err := r.claimName(KindArps, spec.Name)
	if err != nil {
		return ArpInfo{}, err
	}
	spec.Name, spec.Type = name, typ
	values, err := r.arpValues(spec)
	if err != nil {
		return ArpInfo{}, errors.Wrapf(err, "arp %s", name)
	}
	e := &arpElement{spec: spec, arp: newArp(typ, values)}
	r.arps[name] = e
	debug.Log("rig", "created arp %s (%s, %d values)", name, typ, len(values))
	r.changed()
	return e.info(), nil
}

// UpdateArp changes an arp's values. The arp is reset with the new values,
// keeping its position proportionally.
func (r *Rig) UpdateArp(name string, u ArpUpdate) (ArpInfo, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.arps[name]
	if !ok {
		return ArpInfo{}, notFound(KindArps, name)
	}
	spec := e.spec
	if u.Values != nil {
		spec.Values = *u.Values
	}
	if u.Scale != nil {
		spec.Scale = *u.Scale
	}
	if u.Key != nil {
		spec.Key = *u.Key
	}
	if u.Octave != nil {
		spec.Octave = *u.Octave
	}
	if u.Inversion != nil {
		spec.Inversion = *u.Inversion
	}
	for _, ref := range valueRefs(spec.Values) {
		if ref == uri(KindArps, name) {
			return ArpInfo{}, errors.Wrapf(arp.ErrCycle, "arp %s cannot contain itself", name)
		}
	}
	values, err := r.arpValues(spec)
	if err != nil {
		return ArpInfo{}, errors.Wrapf(err, "arp %s", name)
	}
	e.arp.Reset(values)
	e.spec = spec
	r.changed()
	return e.info(), nil
}

func (r *Rig) Arp(name string) (ArpInfo, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.arps[name]
	if !ok {
		return ArpInfo{}, notFound(KindArps, name)
	}
	return e.info(), nil
}

func (r *Rig) Arps() []ArpInfo {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []ArpInfo
	for _, name := range sortedKeys(r.arps) {
		out = append(out, r.arps[name].info())
	}
	return out
}

func (e *arpElement) info() ArpInfo {
	return ArpInfo{ArpSpec: e.spec, Count: len(e.arp.Values())}
}

// Switchers

func (r *Rig) CreateSwitcher(spec SwitcherSpec) (SwitcherInfo, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	typ, ok := switcherTypes[strings.ToLower(spec.Type)]
	if !ok {
		return SwitcherInfo{}, errors.Wrapf(ErrInvalid, "unknown switcher type %q", spec.Type)
	}
	name, err := r.claimName(KindSwitchers, spec.Name)
	if err != nil {
		return SwitcherInfo{}, err
	}
	spec.Name, spec.Type = name, typ

	inner, err := r.lookupSource(spec.Switchee)
	if err != nil {
		return SwitcherInfo{}, errors.Wrapf(err, "switcher %s", name)
	}
	spec.Switchee = canonical(spec.Switchee)
	values, err := r.values(spec.Values)
	if err != nil {
		return SwitcherInfo{}, errors.Wrapf(err, "switcher %s", name)
	}

	var sw switchable
	switch typ {
	case "OctaveArp":
		if spec.Octaves == nil {
			n := DefaultOctaves
			spec.Octaves = &n
		}
		direction := spec.Direction
		if direction == 0 {
			direction = 1
		}
		o, err := arp.NewOctave(inner, values, *spec.Octaves, direction, spec.Oscillate)
		if err != nil {
			return SwitcherInfo{}, errors.Wrapf(err, "switcher %s", name)
		}
		spec.Direction = o.Direction()
		sw = o
	case "Adder":
		a := arp.NewAdder(inner, values)
		a.SetAmount(spec.Amount)
		sw = a
	default:
		sw = arp.NewSwitcher(inner, values)
	}

	e := &switcherElement{spec: spec, sw: sw}
	r.switchers[name] = e
	debug.Log("rig", "created switcher %s (%s over %s)", name, typ, spec.Switchee)
	r.changed()
	return e.info(), nil
}

// UpdateSwitcher applies u: values reset the switcher only when they
// differ, a different switchee is switched in, and amount, octaves and
// oscillate are copied onto the switchers that have them.
func (r *Rig) UpdateSwitcher(name string, u SwitcherUpdate) (SwitcherInfo, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.switchers[name]
	if !ok {
		return SwitcherInfo{}, notFound(KindSwitchers, name)
	}

	// resolve everything before touching the live switcher
	var inner arp.Arp
	if u.Switchee != nil && canonical(*u.Switchee) != e.spec.Switchee {
		if canonical(*u.Switchee) == uri(KindSwitchers, name) {
			return SwitcherInfo{}, errors.Wrapf(arp.ErrCycle, "switcher %s cannot switch itself", name)
		}
		a, err := r.lookupSource(*u.Switchee)
		if err != nil {
			return SwitcherInfo{}, errors.Wrapf(err, "switcher %s", name)
		}
		if reaches(a, e.sw) {
			return SwitcherInfo{}, errors.Wrapf(arp.ErrCycle, "switcher %s: %s switches back into it", name, *u.Switchee)
		}
		inner = a
	}
	var values []arp.Value
	resetValues := u.Values != nil && !reflect.DeepEqual(*u.Values, e.spec.Values)
	if resetValues {
		v, err := r.values(*u.Values)
		if err != nil {
			return SwitcherInfo{}, errors.Wrapf(err, "switcher %s", name)
		}
		values = v
	}
	if _, isOctave := e.sw.(*arp.Octave); isOctave && u.Octaves != nil && *u.Octaves < 0 {
		return SwitcherInfo{}, errors.Wrapf(arp.ErrInvalidArgument, "switcher %s: octaves %d", name, *u.Octaves)
	}

	if inner != nil {
		e.sw.Switch(inner)
		e.spec.Switchee = canonical(*u.Switchee)
	}
	if resetValues {
		e.sw.Reset(values)
		e.spec.Values = *u.Values
	}
	switch sw := e.sw.(type) {
	case *arp.Adder:
		if u.Amount != nil {
			sw.SetAmount(*u.Amount)
			e.spec.Amount = *u.Amount
		}
	case *arp.Octave:
		if u.Octaves != nil {
			n := *u.Octaves
			_ = sw.SetOctaves(n) // range checked above
			e.spec.Octaves = &n
		}
		if u.Oscillate != nil {
			sw.SetOscillate(*u.Oscillate)
			e.spec.Oscillate = *u.Oscillate
		}
	}
	r.changed()
	return e.info(), nil
}

func (r *Rig) Switcher(name string) (SwitcherInfo, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.switchers[name]
	if !ok {
		return SwitcherInfo{}, notFound(KindSwitchers, name)
	}
	return e.info(), nil
}

func (r *Rig) Switchers() []SwitcherInfo {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []SwitcherInfo
	for _, name := range sortedKeys(r.switchers) {
		out = append(out, r.switchers[name].info())
	}
	return out
}

func (e *switcherElement) info() SwitcherInfo {
	info := SwitcherInfo{SwitcherSpec: e.spec}
	if o, ok := e.sw.(*arp.Octave); ok {
		info.CurrentOctave = o.CurrentOctave()
	}
	return info
}

// Recorders

func (r *Rig) CreateRecorder(spec RecorderSpec) (RecorderInfo, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	name, err := r.claimName(KindRecorders, spec.Name)
	if err != nil {
		return RecorderInfo{}, err
	}
	spec.Name = name
	c, err := r.lookupClock(spec.Clock)
	if err != nil {
		return RecorderInfo{}, errors.Wrapf(err, "recorder %s", name)
	}
	rec := arp.NewPhraseRecorder(c)
	rec.OnError = func(err error) { debug.Error("recorder "+name, err) }
	e := &recorderElement{spec: spec, rec: rec}
	r.recorders[name] = e
	debug.Log("rig", "created recorder %s", name)
	r.changed()
	return e.info(), nil
}

func (r *Rig) Recorder(name string) (RecorderInfo, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.recorders[name]
	if !ok {
		return RecorderInfo{}, notFound(KindRecorders, name)
	}
	return e.info(), nil
}

func (r *Rig) Recorders() []RecorderInfo {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []RecorderInfo
	for _, name := range sortedKeys(r.recorders) {
		out = append(out, r.recorders[name].info())
	}
	return out
}

// Phrase returns the recorder's last finalized phrase
func (r *Rig) Phrase(name string) ([]arp.PhraseNote, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.recorders[name]
	if !ok {
		return nil, notFound(KindRecorders, name)
	}
	return e.rec.Phrase(), nil
}

func (e *recorderElement) info() RecorderInfo {
	phrase := e.rec.Phrase()
	if phrase == nil {
		phrase = []arp.PhraseNote{}
	}
	return RecorderInfo{RecorderSpec: e.spec, Phrase: phrase, Elapsed: e.rec.Elapsed()}
}

// Players

func (r *Rig) CreatePlayer(spec PlayerSpec) (PlayerInfo, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	name, err := r.claimName(KindPlayers, spec.Name)
	if err != nil {
		return PlayerInfo{}, err
	}
	spec.Name = name
	c, err := r.lookupClock(spec.Clock)
	if err != nil {
		return PlayerInfo{}, errors.Wrapf(err, "player %s", name)
	}
	instr, err := r.lookupInstrument(spec.Instrument)
	if err != nil {
		return PlayerInfo{}, errors.Wrapf(err, "player %s", name)
	}
	notes, err := r.lookupSource(spec.Notes)
	if err != nil {
		return PlayerInfo{}, errors.Wrapf(err, "player %s notes", name)
	}
	spec.Notes = canonical(spec.Notes)
	var velocity arp.Arp
	if spec.Velocity != "" {
		if velocity, err = r.lookupSource(spec.Velocity); err != nil {
			return PlayerInfo{}, errors.Wrapf(err, "player %s velocity", name)
		}
		spec.Velocity = canonical(spec.Velocity)
	}
	if spec.Interval == 0 {
		spec.Interval = clock.PPQ
	}

	p, err := player.NewNotePlayer(c, instr, notes, velocity, spec.Interval)
	if err != nil {
		return PlayerInfo{}, errors.Wrapf(err, "player %s", name)
	}
	p.Locker = &r.mu
	p.SetSustain(spec.Sustain)
	if spec.Playing {
		if err := p.Start(); err != nil {
			return PlayerInfo{}, errors.Wrapf(err, "player %s", name)
		}
	}
	e := &playerElement{spec: spec, player: p}
	r.players[name] = e
	debug.Log("rig", "created player %s (%s -> %s)", name, spec.Notes, spec.Instrument)
	r.changed()
	return e.info(), nil
}

// UpdatePlayer applies u. The interval can only change while the player is
// stopped, or when the same update stops it.
func (r *Rig) UpdatePlayer(name string, u PlayerUpdate) (PlayerInfo, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.players[name]
	if !ok {
		return PlayerInfo{}, notFound(KindPlayers, name)
	}
	p := e.player
	stopping := u.Playing != nil && !*u.Playing

	if u.Interval != nil {
		if p.Playing() && !stopping {
			return PlayerInfo{}, errors.Wrapf(ErrPlayerRunning, "player %s", name)
		}
		if *u.Interval <= 0 {
			return PlayerInfo{}, errors.Wrapf(player.ErrInvalidInterval, "player %s: %d", name, *u.Interval)
		}
	}
	var instr player.Instrument
	if u.Instrument != nil {
		i, err := r.lookupInstrument(*u.Instrument)
		if err != nil {
			return PlayerInfo{}, errors.Wrapf(err, "player %s", name)
		}
		instr = i
	}
	var notes, velocity arp.Arp
	if u.Notes != nil {
		a, err := r.lookupSource(*u.Notes)
		if err != nil {
			return PlayerInfo{}, errors.Wrapf(err, "player %s notes", name)
		}
		notes = a
	}
	if u.Velocity != nil && *u.Velocity != "" {
		a, err := r.lookupSource(*u.Velocity)
		if err != nil {
			return PlayerInfo{}, errors.Wrapf(err, "player %s velocity", name)
		}
		velocity = a
	}

	if stopping {
		p.Stop()
		e.spec.Playing = false
	}
	if u.Interval != nil {
		if err := p.SetInterval(*u.Interval); err != nil {
			return PlayerInfo{}, errors.Wrapf(err, "player %s", name)
		}
		e.spec.Interval = *u.Interval
	}
	if u.Sustain != nil {
		p.SetSustain(*u.Sustain)
		e.spec.Sustain = *u.Sustain
	}
	if instr != nil {
		p.SetInstrument(instr)
		e.spec.Instrument = *u.Instrument
	}
	if notes != nil {
		p.SetNotes(notes)
		e.spec.Notes = canonical(*u.Notes)
	}
	if u.Velocity != nil {
		p.SetVelocity(velocity)
		e.spec.Velocity = ""
		if velocity != nil {
			e.spec.Velocity = canonical(*u.Velocity)
		}
	}
	if u.Playing != nil && *u.Playing {
		if err := p.Start(); err != nil {
			return PlayerInfo{}, errors.Wrapf(err, "player %s", name)
		}
		e.spec.Playing = true
	}
	r.changed()
	return e.info(), nil
}

func (r *Rig) Player(name string) (PlayerInfo, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.players[name]
	if !ok {
		return PlayerInfo{}, notFound(KindPlayers, name)
	}
	return e.info(), nil
}

func (r *Rig) Players() []PlayerInfo {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []PlayerInfo
	for _, name := range sortedKeys(r.players) {
		out = append(out, r.players[name].info())
	}
	return out
}

func (e *playerElement) info() PlayerInfo {
	info := PlayerInfo{PlayerSpec: e.spec, Played: e.player.Played()}
	info.Playing = e.player.Playing()
	return info
}

// Phrase players

func (r *Rig) CreatePhrasePlayer(spec PhrasePlayerSpec) (PhrasePlayerInfo, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	name, err := r.claimName(KindPhrasePlayers, spec.Name)
	if err != nil {
		return PhrasePlayerInfo{}, err
	}
	spec.Name = name
	rec, ok := r.recorders[spec.Recorder]
	if !ok {
		return PhrasePlayerInfo{}, errors.Wrapf(notFound(KindRecorders, spec.Recorder), "phrase player %s", name)
	}
	instr, err := r.lookupInstrument(spec.Instrument)
	if err != nil {
		return PhrasePlayerInfo{}, errors.Wrapf(err, "phrase player %s", name)
	}
	c, err := r.lookupClock(rec.spec.Clock)
	if err != nil {
		return PhrasePlayerInfo{}, errors.Wrapf(err, "phrase player %s", name)
	}
	if spec.Length == 0 {
		spec.Length = c.Meter().BarTicks()
	}
	p, err := player.NewPhrasePlayer(c, instr, rec.rec, spec.Length)
	if err != nil {
		return PhrasePlayerInfo{}, errors.Wrapf(err, "phrase player %s", name)
	}
	p.Locker = &r.mu
	if spec.Playing {
		if err := p.Start(); err != nil {
			return PhrasePlayerInfo{}, errors.Wrapf(err, "phrase player %s", name)
		}
	}
	e := &phrasePlayerElement{spec: spec, player: p}
	r.phrasePlayers[name] = e
	debug.Log("rig", "created phrase player %s (%s -> %s)", name, spec.Recorder, spec.Instrument)
	r.changed()
	return e.info(), nil
}

// SetPhrasePlaying starts or stops a phrase player
func (r *Rig) SetPhrasePlaying(name string, playing bool) (PhrasePlayerInfo, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.phrasePlayers[name]
	if !ok {
		return PhrasePlayerInfo{}, notFound(KindPhrasePlayers, name)
	}
	if playing {
		if err := e.player.Start(); err != nil {
			return PhrasePlayerInfo{}, errors.Wrapf(err, "phrase player %s", name)
		}
	} else {
		e.player.Stop()
	}
	e.spec.Playing = playing
	r.changed()
	return e.info(), nil
}

func (r *Rig) PhrasePlayer(name string) (PhrasePlayerInfo, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.phrasePlayers[name]
	if !ok {
		return PhrasePlayerInfo{}, notFound(KindPhrasePlayers, name)
	}
	return e.info(), nil
}

func (r *Rig) PhrasePlayers() []PhrasePlayerInfo {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []PhrasePlayerInfo
	for _, name := range sortedKeys(r.phrasePlayers) {
		out = append(out, r.phrasePlayers[name].info())
	}
	return out
}

func (e *phrasePlayerElement) info() PhrasePlayerInfo {
	last := e.player.Last()
	if last == nil {
		last = []arp.PhraseNote{}
	}
	info := PhrasePlayerInfo{PhrasePlayerSpec: e.spec, Last: last}
	info.Playing = e.player.Playing()
	return info
}

// canonical turns a bare arp name into its URI
func canonical(ref string) string {
	kind, name := splitURI(ref)
	return uri(kind, name)
}

// reaches reports whether target is a or sits anywhere down a's chain of
// switched-in arps.
func reaches(a arp.Arp, target switchable) bool {
	for a != nil {
		if a == arp.Arp(target) {
			return true
		}
		s, ok := a.(switchable)
		if !ok {
			return false
		}
		a = s.Inner()
	}
	return false
}
