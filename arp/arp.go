// Package arp implements arpeggiators: stateful value generators that share
// one contract (Reset/Next) and compose by wrapping.
//
// Arps are not safe for concurrent use. Callers serialize access (the rig
// holds one lock around clock callbacks, MIDI input and reconfiguration).
package arp

import (
	"github.com/pkg/errors"

	"go-arp/debug"
)

var (
	// ErrCycle is reported when resolving a nested value leads back into an
	// arp that is already producing.
	ErrCycle = errors.New("nested arp cycle")

	// ErrInvalidArgument is returned for out-of-range configuration.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrUnmatchedNoteOff is reported when a note-off has no onset in the
	// current or previous tape.
	ErrUnmatchedNoteOff = errors.New("note-off without matching note-on")

	// ErrUnresolvedSustain is reported when a recorded sustain cannot be
	// paired with a recorded onset.
	ErrUnresolvedSustain = errors.New("no index for sustain")
)

// Arp produces the next value of some traversal over a replaceable value set.
type Arp interface {
	// Reset replaces the traversal set. An empty set is allowed.
	Reset(values []Value)
	// Next returns the next resolved number, or false if there is nothing
	// to play.
	Next() (int, bool)
	// Values returns the current value set (after any sorting).
	Values() []Value
}

// Report receives recoverable errors (cycles, unmatched note-offs). It is a
// variable so tests and embedders can capture what would otherwise only be
// logged.
var Report = func(category string, err error) {
	debug.Error(category, err)
}

// guard detects re-entrant production. Arps are driven from a single call
// chain, so re-entering an arp that is mid-Next means the nesting is cyclic.
type guard struct {
	busy bool
}

func (g *guard) enter() bool {
	if g.busy {
		Report("arp", ErrCycle)
		return false
	}
	g.busy = true
	return true
}

func (g *guard) exit() {
	g.busy = false
}
