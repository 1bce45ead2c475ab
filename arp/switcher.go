package arp

import "github.com/pkg/errors"

// Switcher delegates to a replaceable inner arp. Whoever holds the Switcher
// keeps a valid reference across Switch calls.
type Switcher struct {
	guard

	inner  Arp
	values []Value
	count  int
}

// NewSwitcher wraps inner. A nil values slice adopts the inner arp's values.
func NewSwitcher(inner Arp, values []Value) *Switcher {
	s := &Switcher{}
	s.init(inner, values)
	return s
}

func (s *Switcher) init(inner Arp, values []Value) {
	if values == nil {
		values = inner.Values()
	}
	s.inner = inner
	s.values = copyValues(values)
	s.count = len(values)
	s.inner.Reset(s.values)
}

// Reset replaces the switcher's values and forwards them to the inner arp.
// A reset that loops back into the switcher is reported as ErrCycle and
// stops there.
func (s *Switcher) Reset(values []Value) {
	if !s.enter() {
		return
	}
	defer s.exit()
	s.values = copyValues(values)
	s.count = len(values)
	s.inner.Reset(s.values)
}

// Switch makes inner the active arp, seeded with the switcher's values.
func (s *Switcher) Switch(inner Arp) {
	if !s.enter() {
		return
	}
	defer s.exit()
	inner.Reset(s.values)
	s.inner = inner
}

// Inner returns the active arp.
func (s *Switcher) Inner() Arp {
	return s.inner
}

func (s *Switcher) Next() (int, bool) {
	if !s.enter() {
		return 0, false
	}
	defer s.exit()
	return s.inner.Next()
}

func (s *Switcher) Values() []Value {
	return s.values
}

// Octave transposes the inner arp up by whole octaves, moving to the next
// octave after every full pass over the values.
type Octave struct {
	Switcher

	octaves   int
	current   int
	direction int
	oscillate bool
	index     int
}

// NewOctave wraps inner. octaves is the highest octave offset (0 disables
// transposition); direction is +1 to climb or -1 to start at the top and
// descend; oscillate bounces between 0 and octaves instead of wrapping.
func NewOctave(inner Arp, values []Value, octaves, direction int, oscillate bool) (*Octave, error) {
	if octaves < 0 {
		return nil, errors.Wrapf(ErrInvalidArgument, "octaves must be >= 0, got %d", octaves)
	}
	if direction != 1 && direction != -1 {
		return nil, errors.Wrapf(ErrInvalidArgument, "direction must be 1 or -1, got %d", direction)
	}
	o := &Octave{
		octaves:   octaves,
		direction: direction,
		oscillate: oscillate,
	}
	o.init(inner, values)
	if direction == -1 {
		o.current = octaves
	}
	return o, nil
}

func (o *Octave) Next() (int, bool) {
	if !o.enter() {
		return 0, false
	}
	defer o.exit()

	if o.count == 0 {
		return 0, false
	}
	v, ok := o.inner.Next()
	if ok {
		v += o.current * 12
	}
	o.index = (o.index + 1) % o.count
	if o.index == 0 {
		o.advance()
	}
	return v, ok
}

func (o *Octave) advance() {
	if o.octaves == 0 {
		o.current = 0
		return
	}
	o.current = mod(o.current+o.direction, o.octaves+1)
	if o.oscillate && (o.current == 0 || o.current == o.octaves) {
		o.direction = -o.direction
	}
}

// SetOctaves changes the octave range. The current octave is clamped into
// the new range.
func (o *Octave) SetOctaves(octaves int) error {
	if octaves < 0 {
		return errors.Wrapf(ErrInvalidArgument, "octaves must be >= 0, got %d", octaves)
	}
	o.octaves = octaves
	if o.current > octaves {
		o.current = octaves
	}
	return nil
}

func (o *Octave) Octaves() int {
	return o.octaves
}

func (o *Octave) SetOscillate(oscillate bool) {
	o.oscillate = oscillate
}

func (o *Octave) Oscillate() bool {
	return o.oscillate
}

// CurrentOctave is the octave offset applied to the next value.
func (o *Octave) CurrentOctave() int {
	return o.current
}

func (o *Octave) Direction() int {
	return o.direction
}

// Adder adds a mutable amount to every value of the inner arp.
type Adder struct {
	Switcher

	amount int
}

// NewAdder wraps inner with an amount of 0.
func NewAdder(inner Arp, values []Value) *Adder {
	a := &Adder{}
	a.init(inner, values)
	return a
}

func (a *Adder) Next() (int, bool) {
	if !a.enter() {
		return 0, false
	}
	defer a.exit()

	v, ok := a.inner.Next()
	if !ok {
		return 0, false
	}
	return a.amount + v, true
}

// SetAmount takes effect on the next call to Next.
func (a *Adder) SetAmount(amount int) {
	a.amount = amount
}

func (a *Adder) Amount() int {
	return a.amount
}
