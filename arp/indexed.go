package arp

import (
	"golang.org/x/exp/slices"
)

// Indexed walks its values by a cursor that steps by direction and wraps.
// The concrete strategies differ only in how Reset orders the values.
type Indexed struct {
	guard

	values    []Value
	index     int
	count     int
	direction int
	sort      func([]Value) []Value
}

func newIndexed(sort func([]Value) []Value, values []Value) *Indexed {
	a := &Indexed{direction: 1, sort: sort}
	a.Reset(values)
	return a
}

// NewAsc plays the numeric values lowest first. Nested values keep their
// slots, so they can act as fixed markers between re-sorted pitches.
func NewAsc(values []Value) *Indexed {
	return newIndexed(sortAsc, values)
}

// NewDesc plays the numeric values highest first.
func NewDesc(values []Value) *Indexed {
	return newIndexed(sortDesc, values)
}

// NewOrdered plays values in the order given.
func NewOrdered(values []Value) *Indexed {
	return newIndexed(copyValues, values)
}

// NewRevOrdered plays values in reverse of the order given, starting from
// the last one.
func NewRevOrdered(values []Value) *Indexed {
	a := newIndexed(copyValues, values)
	a.direction = -1
	if a.count > 0 {
		a.index = a.count - 1
	}
	return a
}

// Reset replaces the values. When the count changes the cursor moves to the
// same relative position in the new set so playback doesn't jump back to
// the start on every edit.
func (a *Indexed) Reset(values []Value) {
	sorted := a.sort(values)
	count := len(sorted)
	if old := len(a.values); old > 0 {
		switch {
		case count == 0:
			a.index = 0
		case count != old:
			a.index = (a.index * count / old) % count
		case a.index >= count:
			a.index %= count
		}
	}
	a.values = sorted
	a.count = count
}

// Next returns values[index] and steps the cursor.
func (a *Indexed) Next() (int, bool) {
	if !a.enter() {
		return 0, false
	}
	defer a.exit()

	if len(a.values) == 0 {
		return 0, false
	}
	if a.index >= len(a.values) {
		a.Reset(a.values)
	}
	v := a.values[a.index]
	a.index = mod(a.index+a.direction, a.count)
	return resolve(v)
}

func (a *Indexed) Values() []Value {
	return a.values
}

// Index is the position of the value the next call will play.
func (a *Indexed) Index() int {
	return a.index
}

// Direction is +1 for forward traversal, -1 for backward.
func (a *Indexed) Direction() int {
	return a.direction
}

func sortAsc(values []Value) []Value {
	return sortNumeric(values, func(a, b int) bool { return a < b })
}

func sortDesc(values []Value) []Value {
	return sortNumeric(values, func(a, b int) bool { return a > b })
}

// sortNumeric sorts the numbers among values and puts them back into the
// numeric slots, leaving nested entries where they were.
func sortNumeric(values []Value, less func(a, b int) bool) []Value {
	var nums []int
	for _, v := range values {
		if n, ok := v.Number(); ok {
			nums = append(nums, n)
		}
	}
	slices.SortFunc(nums, less)

	out := make([]Value, len(values))
	i := 0
	for j, v := range values {
		if v.IsNested() {
			out[j] = v
			continue
		}
		out[j] = Num(nums[i])
		i++
	}
	return out
}
