package arp

import (
	"math/rand"
	"time"
)

// Random plays its values in a fresh random order each cycle. Every value is
// played once before any value repeats.
type Random struct {
	guard

	values  []Value
	current []Value // not yet played this cycle
	next    []Value // played, waiting for the next cycle
	rnd     *rand.Rand
}

// NewRandom creates a Random arp seeded from the wall clock.
func NewRandom(values []Value) *Random {
	return NewRandomWithSource(values, rand.New(rand.NewSource(time.Now().UnixNano())))
}

// NewRandomWithSource creates a Random arp drawing from rnd.
func NewRandomWithSource(values []Value, rnd *rand.Rand) *Random {
	r := &Random{rnd: rnd}
	r.Reset(values)
	return r
}

// Reset starts a new cycle over values.
func (r *Random) Reset(values []Value) {
	r.values = copyValues(values)
	r.current = copyValues(values)
	r.next = nil
}

func (r *Random) Next() (int, bool) {
	if !r.enter() {
		return 0, false
	}
	defer r.exit()

	if len(r.current) == 0 {
		r.current, r.next = r.next, nil
	}
	if len(r.current) == 0 {
		return 0, false
	}
	i := r.rnd.Intn(len(r.current))
	v := r.current[i]
	r.current = append(r.current[:i], r.current[i+1:]...)
	r.next = append(r.next, v)
	return resolve(v)
}

func (r *Random) Values() []Value {
	return r.values
}

// Remaining is how many values are left before the cycle refills.
func (r *Random) Remaining() int {
	return len(r.current)
}
