// Package player turns arps and recorded phrases into notes on an
// instrument, on a schedule driven by the clock.
package player

import (
	"sync"

	"github.com/pkg/errors"

	"go-arp/arp"
	"go-arp/debug"
)

// DefaultVelocity is used when a player has no velocity arp or it is empty
const DefaultVelocity = 100

var (
	ErrPlaying         = errors.New("cannot change interval on running player")
	ErrInvalidInterval = errors.New("interval must be positive")
)

// Instrument receives notes
type Instrument interface {
	NoteOn(note, velocity int)
	NoteOff(note int)
}

// Scheduler is the part of the clock players need
type Scheduler interface {
	Ticks() int64
	Every(interval int64, fn func()) (cancel func(), err error)
	After(delay int64, fn func())
}

// NotePlayer plays the next note of an arp every interval ticks.
type NotePlayer struct {
	// Locker, if set, is held while the player pulls from its arps. The rig
	// shares its own lock here so playback and reconfiguration never overlap.
	Locker sync.Locker

	sched    Scheduler
	instr    Instrument
	notes    arp.Arp
	velocity arp.Arp
	interval int64
	sustain  int64
	cancel   func()
	played   int
}

// NewNotePlayer creates a stopped player. velocity may be nil.
func NewNotePlayer(sched Scheduler, instr Instrument, notes, velocity arp.Arp, interval int64) (*NotePlayer, error) {
	if interval <= 0 {
		return nil, errors.Wrapf(ErrInvalidInterval, "got %d", interval)
	}
	return &NotePlayer{
		sched:    sched,
		instr:    instr,
		notes:    notes,
		velocity: velocity,
		interval: interval,
	}, nil
}

// Start schedules the player on the clock
func (p *NotePlayer) Start() error {
	if p.cancel != nil {
		return nil
	}
	cancel, err := p.sched.Every(p.interval, p.play)
	if err != nil {
		return err
	}
	p.cancel = cancel
	return nil
}

// Stop removes the player from the clock. Notes already sounding still get
// their note-off.
func (p *NotePlayer) Stop() {
	if p.cancel == nil {
		return
	}
	p.cancel()
	p.cancel = nil
}

func (p *NotePlayer) Playing() bool {
	return p.cancel != nil
}

// SetInterval changes the spacing between notes; not allowed while playing
func (p *NotePlayer) SetInterval(ticks int64) error {
	if p.Playing() {
		return ErrPlaying
	}
	if ticks <= 0 {
		return errors.Wrapf(ErrInvalidInterval, "got %d", ticks)
	}
	p.interval = ticks
	return nil
}

func (p *NotePlayer) Interval() int64 {
	return p.interval
}

// SetSustain sets note length in ticks; 0 means one interval
func (p *NotePlayer) SetSustain(ticks int64) {
	p.sustain = ticks
}

func (p *NotePlayer) Sustain() int64 {
	return p.sustain
}

func (p *NotePlayer) SetInstrument(instr Instrument) {
	p.instr = instr
}

func (p *NotePlayer) SetNotes(notes arp.Arp) {
	p.notes = notes
}

func (p *NotePlayer) SetVelocity(velocity arp.Arp) {
	p.velocity = velocity
}

// Played is the number of notes played so far
func (p *NotePlayer) Played() int {
	return p.played
}

func (p *NotePlayer) play() {
	if p.Locker != nil {
		p.Locker.Lock()
		defer p.Locker.Unlock()
	}

	note, ok := p.notes.Next()
	if !ok {
		return
	}
	velocity := DefaultVelocity
	if p.velocity != nil {
		if v, ok := p.velocity.Next(); ok {
			velocity = v
		}
	}
	sustain := p.sustain
	if sustain <= 0 {
		sustain = p.interval
	}

	instr := p.instr
	instr.NoteOn(note, velocity)
	p.sched.After(sustain, func() { instr.NoteOff(note) })
	p.played++
	debug.LogEvery(64, "player", "note=%d vel=%d sustain=%d", note, velocity, sustain)
}

// PhrasePlayer replays a recorder's phrase once per length ticks. Each
// replay closes the recorder's current phrase, so what was played during the
// last cycle becomes the loop for the next one.
type PhrasePlayer struct {
	Locker sync.Locker

	sched    Scheduler
	instr    Instrument
	recorder *arp.PhraseRecorder
	length   int64
	cancel   func()
	last     []arp.PhraseNote
}

// NewPhrasePlayer creates a stopped phrase player
func NewPhrasePlayer(sched Scheduler, instr Instrument, recorder *arp.PhraseRecorder, length int64) (*PhrasePlayer, error) {
	if length <= 0 {
		return nil, errors.Wrapf(ErrInvalidInterval, "phrase length %d", length)
	}
	return &PhrasePlayer{
		sched:    sched,
		instr:    instr,
		recorder: recorder,
		length:   length,
	}, nil
}

func (p *PhrasePlayer) Start() error {
	if p.cancel != nil {
		return nil
	}
	cancel, err := p.sched.Every(p.length, p.play)
	if err != nil {
		return err
	}
	p.cancel = cancel
	return nil
}

func (p *PhrasePlayer) Stop() {
	if p.cancel == nil {
		return
	}
	p.cancel()
	p.cancel = nil
}

func (p *PhrasePlayer) Playing() bool {
	return p.cancel != nil
}

func (p *PhrasePlayer) Length() int64 {
	return p.length
}

func (p *PhrasePlayer) SetInstrument(instr Instrument) {
	p.instr = instr
}

// Last returns the phrase scheduled on the most recent cycle
func (p *PhrasePlayer) Last() []arp.PhraseNote {
	return p.last
}

func (p *PhrasePlayer) play() {
	if p.Locker != nil {
		p.Locker.Lock()
		defer p.Locker.Unlock()
	}

	phrase := p.recorder.Produce()
	p.last = phrase
	instr := p.instr
	for _, n := range phrase {
		n := n
		p.sched.After(n.When, func() { instr.NoteOn(n.Note, n.Velocity) })
		p.sched.After(n.When+n.Sustain, func() { instr.NoteOff(n.Note) })
	}
	debug.Log("player", "phrase of %d notes scheduled", len(phrase))
}
