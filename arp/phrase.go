package arp

import (
	"github.com/pkg/errors"

	"go-arp/debug"
)

// Ticker supplies the current musical time.
type Ticker interface {
	Ticks() int64
}

// PhraseNote is one note of a finalized phrase. When is relative to the
// start of the phrase; Sustain is how long the note was held.
type PhraseNote struct {
	When     int64 `json:"when"`
	Note     int   `json:"note"`
	Velocity int   `json:"velocity"`
	Sustain  int64 `json:"sustain"`
}

type onsetKey struct {
	tick int64
	note int
}

type sustain struct {
	onset int64
	note  int
	ticks int64
}

// tape is the recording of one phrase.
type tape struct {
	start      int64
	whens      []int64
	notes      []int
	velocities []int
	sustains   []sustain
	indexes    map[onsetKey]int
	lastTicks  map[int]int64

	// dirty marks a previous tape that picked up a late note-off after it
	// was rotated out.
	dirty bool
}

func newTape(start int64) *tape {
	return &tape{
		start:     start,
		indexes:   make(map[onsetKey]int),
		lastTicks: make(map[int]int64),
	}
}

func (t *tape) empty() bool {
	return len(t.whens) == 0
}

// PhraseRecorder records note-on/note-off events onto a tape and, on each
// Produce, rotates the tape and returns it as a phrase. Recording never
// stops: Produce swaps in a fresh tape and keeps the last one so a note-off
// that arrives just after the swap still finds its note-on.
type PhraseRecorder struct {
	clock Ticker

	tape    *tape
	last    *tape
	phrase  []PhraseNote
	elapsed int64

	// OnError receives unmatched note-offs and unresolved sustains.
	OnError func(error)
}

// NewPhraseRecorder starts recording at the clock's current tick.
func NewPhraseRecorder(clock Ticker) *PhraseRecorder {
	return &PhraseRecorder{
		clock: clock,
		tape:  newTape(clock.Ticks()),
		OnError: func(err error) {
			Report("phrase", err)
		},
	}
}

// RecordNoteOn records a note starting now.
func (r *PhraseRecorder) RecordNoteOn(note, velocity int) {
	r.RecordNoteOnAt(note, velocity, r.clock.Ticks())
}

// RecordNoteOnAt records a note that started at ticks. The onset used for
// pairing with the note-off is always the current clock tick.
func (r *PhraseRecorder) RecordNoteOnAt(note, velocity int, ticks int64) {
	now := r.clock.Ticks()
	t := r.tape
	t.indexes[onsetKey{now, note}] = len(t.notes)
	t.lastTicks[note] = now
	t.notes = append(t.notes, note)
	t.velocities = append(t.velocities, velocity)
	t.whens = append(t.whens, ticks-t.start)
}

// RecordNoteOff pairs the note-off with the latest note-on for the same
// note, looking in the previous tape if the current one has none.
func (r *PhraseRecorder) RecordNoteOff(note int) {
	t := r.tape
	onset, ok := t.lastTicks[note]
	if !ok {
		if r.last != nil {
			onset, ok = r.last.lastTicks[note]
		}
		if !ok {
			r.report(errors.Wrapf(ErrUnmatchedNoteOff, "note %d not seen in current or last phrase", note))
			return
		}
		debug.Log("phrase", "note %d: onset %d found in previous tape", note, onset)
		t = r.last
		t.dirty = true
	}
	t.sustains = append(t.sustains, sustain{onset: onset, note: note, ticks: r.clock.Ticks() - onset})
}

// Produce closes the current phrase and returns it. If nothing new was
// recorded the previous phrase is returned again. The result is a copy.
func (r *PhraseRecorder) Produce() []PhraseNote {
	now := r.clock.Ticks()
	start := r.tape.start
	if src := r.rotate(now); src != nil {
		r.phrase = r.finalize(src, now)
	} else {
		r.elapsed = now - start
	}
	out := make([]PhraseNote, len(r.phrase))
	copy(out, r.phrase)
	return out
}

// Phrase returns a copy of the last finalized phrase without rotating.
func (r *PhraseRecorder) Phrase() []PhraseNote {
	out := make([]PhraseNote, len(r.phrase))
	copy(out, r.phrase)
	return out
}

// Elapsed is the number of ticks covered by the last Produce.
func (r *PhraseRecorder) Elapsed() int64 {
	return r.elapsed
}

// rotate starts a fresh tape and picks the tape the phrase is built from.
func (r *PhraseRecorder) rotate(now int64) *tape {
	cur := r.tape
	r.tape = newTape(now)
	if !cur.empty() {
		cur.dirty = false
		r.last = cur
		return cur
	}
	if r.last != nil && r.last.dirty {
		r.last.dirty = false
		return r.last
	}
	return nil
}

func (r *PhraseRecorder) finalize(src *tape, now int64) []PhraseNote {
	n := len(src.whens)
	sus := make([]int64, n)
	held := make([]bool, n)
	for _, s := range src.sustains {
		i, ok := src.indexes[onsetKey{s.onset, s.note}]
		if !ok {
			r.report(errors.Wrapf(ErrUnresolvedSustain, "tick=%d note=%d", s.onset, s.note))
			continue
		}
		sus[i] = s.ticks
		held[i] = true
	}

	r.elapsed = now - src.start
	phrase := make([]PhraseNote, n)
	for i := range src.whens {
		p := PhraseNote{
			When:     src.whens[i],
			Note:     src.notes[i],
			Velocity: src.velocities[i],
			Sustain:  sus[i],
		}
		// still held: sustain until now
		if !held[i] {
			p.Sustain = r.elapsed - p.When
		}
		phrase[i] = p
	}
	debug.Log("phrase", "finalized %d notes over %d ticks", n, r.elapsed)
	return phrase
}

func (r *PhraseRecorder) report(err error) {
	if r.OnError != nil {
		r.OnError(err)
	}
}
