// Package theory holds the small amount of music theory the rig needs to
// turn configuration into note values: scales, keys and chord inversions.
package theory

import (

	"github.com/pkg/errors"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

var (
	ErrInvalidInversion = errors.New("inversion argument must be one of: 0, 1, 2, 3, 4")
	ErrUnknownScale     = errors.New("unknown scale")
	ErrUnknownKey       = errors.New("unknown key")
)

// Scales are intervals from the root in semitones.
var Scales = map[string][]int{
	"chromatic":        {0, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11},
	"major":            {0, 2, 4, 5, 7, 9, 11},
	"minor":            {0, 2, 3, 5, 7, 8, 10},
	"dorian":           {0, 2, 3, 5, 7, 9, 10},
	"phrygian":         {0, 1, 3, 5, 7, 8, 10},
	"lydian":           {0, 2, 4, 6, 7, 9, 11},
	"mixolydian":       {0, 2, 4, 5, 7, 9, 10},
	"locrian":          {0, 1, 3, 5, 6, 8, 10},
	"melodic":          {0, 2, 3, 5, 7, 9, 11},
	"hungarian":        {0, 2, 3, 6, 7, 8, 11},
	"phrygianDominant": {0, 1, 4, 5, 7, 8, 10},
	"arabic":           {0, 1, 4, 5, 7, 8, 11},
	"pentatonic":       {0, 2, 4, 7, 9},
	"minorpenta":       {0, 3, 5, 7, 10},
	"hirajoshi":        {0, 2, 3, 7, 8},
	"insen":            {0, 1, 5, 7, 10},
	"wholetone":        {0, 2, 4, 6, 8, 10},
	"blues":            {0, 3, 5, 6, 7, 10},
	"diminished":       {0, 2, 3, 5, 6, 8, 9, 11},
}

// Keys maps note names (sharps and flats) to pitch classes.
var Keys = map[string]int{
	"C": 0, "Cs": 1, "Df": 1, "D": 2, "Ds": 3, "Ef": 3,
	"E": 4, "F": 5, "Fs": 6, "Gf": 6, "G": 7, "Gs": 8,
	"Af": 8, "A": 9, "As": 10, "Bf": 10, "B": 11,
}

// ScaleNames returns the known scale names, sorted.
func ScaleNames() []string {
	names := maps.Keys(Scales)
	slices.Sort(names)
	return names
}

// KeyScale transposes a named scale to key and octave (octave 0 starts at
// MIDI note 0, octave 5 at middle C).
func KeyScale(scale, key string, octave int) ([]int, error) {
	intervals, ok := Scales[scale]
	if !ok {
		return nil, errors.Wrapf(ErrUnknownScale, "%q", scale)
	}
	if key == "" {
		key = "C"
	}
	base, ok := Keys[key]
	if !ok {
		return nil, errors.Wrapf(ErrUnknownKey, "%q", key)
	}
	notes := make([]int, len(intervals))
	for i, n := range intervals {
		notes[i] = n + base + octave*12
	}
	return notes, nil
}

// Invert raises the lowest inversion notes of chord by an octave. Notes that
// would go above 127 are folded back down an octave. Notes past the fourth
// are never moved.
func Invert(chord []int, inversion int) ([]int, error) {
	if inversion < 0 || inversion > 4 {
		return nil, errors.Wrapf(ErrInvalidInversion, "got %d", inversion)
	}
	out := make([]int, len(chord))
	copy(out, chord)
	if inversion == 0 {
		return out, nil
	}
	if len(chord) < 3 {
		return nil, errors.Errorf("cannot invert a chord of %d notes", len(chord))
	}
	for i := 0; i < inversion && i < len(out); i++ {
		out[i] = fold(out[i] + 12)
	}
	return out, nil
}

func fold(n int) int {
	if n > 127 {
		return n - 12
	}
	return n
}
