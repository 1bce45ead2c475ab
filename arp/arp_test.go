package arp

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// take calls Next n times and collects what was produced.
func take(t *testing.T, a Arp, n int) []int {
	t.Helper()
	out := make([]int, 0, n)
	for i := 0; i < n; i++ {
		v, ok := a.Next()
		require.True(t, ok, "call %d produced nothing", i)
		out = append(out, v)
	}
	return out
}

func captureReports(t *testing.T) *[]error {
	t.Helper()
	var got []error
	prev := Report
	Report = func(_ string, err error) { got = append(got, err) }
	t.Cleanup(func() { Report = prev })
	return &got
}

func TestIndexedCycles(t *testing.T) {
	values := Nums(64, 60, 67, 62)

	tests := []struct {
		name string
		arp  Arp
		want []int
	}{
		{"asc", NewAsc(values), []int{60, 62, 64, 67}},
		{"desc", NewDesc(values), []int{67, 64, 62, 60}},
		{"ordered", NewOrdered(values), []int{64, 60, 67, 62}},
		{"rev ordered", NewRevOrdered(values), []int{62, 67, 60, 64}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, take(t, tt.arp, 4))
			assert.Equal(t, tt.want, take(t, tt.arp, 4), "second cycle differs")
		})
	}
}

func TestSortKeepsNestedSlots(t *testing.T) {
	marker := NewOrdered(Nums(0))
	values := []Value{Num(67), Nested(marker), Num(60), Num(64)}

	a := NewAsc(values)
	assert.Equal(t, []int{60, 0, 64, 67}, take(t, a, 4))

	d := NewDesc(values)
	assert.Equal(t, []int{67, 0, 64, 60}, take(t, d, 4))

	// the caller's slice is left alone
	n, _ := values[0].Number()
	assert.Equal(t, 67, n)
}

func TestResetRemapsIndexProportionally(t *testing.T) {
	t.Run("grow", func(t *testing.T) {
		a := NewOrdered(Nums(1, 2, 3, 4))
		take(t, a, 3)
		require.Equal(t, 3, a.Index())

		a.Reset(Nums(1, 2, 3, 4, 5, 6, 7, 8))
		assert.Equal(t, 6, a.Index())
		v, _ := a.Next()
		assert.Equal(t, 7, v)
	})

	t.Run("shrink", func(t *testing.T) {
		a := NewOrdered(Nums(1, 2, 3, 4))
		take(t, a, 3)

		// floor(3 * 2/4) = 1
		a.Reset(Nums(10, 20))
		assert.Equal(t, 1, a.Index())
		assert.Equal(t, []int{20, 10}, take(t, a, 2))
	})

	t.Run("same count keeps position", func(t *testing.T) {
		a := NewAsc(Nums(1, 2, 3))
		take(t, a, 2)
		a.Reset(Nums(30, 10, 20))
		assert.Equal(t, 2, a.Index())
		assert.Equal(t, []int{30, 10}, take(t, a, 2))
	})
}

func TestEmptyValuesProduceNothing(t *testing.T) {
	arps := map[string]Arp{
		"asc":    NewAsc(nil),
		"random": NewRandom(nil),
		"adder":  NewAdder(NewOrdered(nil), nil),
	}
	for name, a := range arps {
		t.Run(name, func(t *testing.T) {
			_, ok := a.Next()
			assert.False(t, ok)

			a.Reset(Nums(5))
			v, ok := a.Next()
			assert.True(t, ok)
			assert.Equal(t, 5, v)

			a.Reset(nil)
			_, ok = a.Next()
			assert.False(t, ok)
		})
	}
}

func TestNestedValuesResolve(t *testing.T) {
	inner := NewOrdered(Nums(10, 20))
	outer := NewOrdered([]Value{Num(1), Nested(inner), Num(3)})

	assert.Equal(t, []int{1, 10, 3, 1, 20, 3}, take(t, outer, 6))
}

func TestNestedThroughDecorators(t *testing.T) {
	deep := NewOrdered(Nums(5))
	mid := NewAdder(NewOrdered([]Value{Nested(deep)}), nil)
	mid.SetAmount(100)
	outer := NewOrdered([]Value{Nested(mid), Num(1)})

	assert.Equal(t, []int{105, 1}, take(t, outer, 2))
}

func TestCyclicNestingIsReported(t *testing.T) {
	reports := captureReports(t)

	a := NewOrdered(nil)
	b := NewOrdered([]Value{Nested(a)})
	a.Reset([]Value{Num(1), Nested(b)})

	v, ok := a.Next()
	assert.True(t, ok)
	assert.Equal(t, 1, v)

	_, ok = a.Next()
	assert.False(t, ok)
	require.Len(t, *reports, 1)
	assert.ErrorIs(t, (*reports)[0], ErrCycle)

	// the guard is released afterwards
	v, ok = a.Next()
	assert.True(t, ok)
	assert.Equal(t, 1, v)
}

func TestSwitcherLoopIsReported(t *testing.T) {
	reports := captureReports(t)

	a := NewSwitcher(NewOrdered(Nums(1, 2)), nil)
	b := NewAdder(a, nil)
	a.Switch(b)
	assert.Same(t, b, a.Inner())
	require.Len(t, *reports, 1)
	assert.ErrorIs(t, (*reports)[0], ErrCycle)

	a.Reset(Nums(5, 6))
	b.Reset(Nums(7))
	assert.Len(t, *reports, 3)

	_, ok := a.Next()
	assert.False(t, ok)
	assert.Len(t, *reports, 4)
}

func TestRandomPlaysEachValueOncePerCycle(t *testing.T) {
	values := Nums(1, 2, 3, 4, 5, 6, 7, 8)
	r := NewRandomWithSource(values, rand.New(rand.NewSource(42)))

	for cycle := 0; cycle < 5; cycle++ {
		got := take(t, r, len(values))
		assert.ElementsMatch(t, []int{1, 2, 3, 4, 5, 6, 7, 8}, got, "cycle %d", cycle)
	}
}

func TestRandomResetStartsNewCycle(t *testing.T) {
	r := NewRandomWithSource(Nums(1, 2, 3), rand.New(rand.NewSource(1)))
	take(t, r, 2)

	r.Reset(Nums(7, 8))
	assert.Equal(t, 2, r.Remaining())
	assert.ElementsMatch(t, []int{7, 8}, take(t, r, 2))
}

func TestSwitcherReseedsNewInner(t *testing.T) {
	s := NewSwitcher(NewAsc(Nums(3, 1, 2)), nil)
	assert.Equal(t, []int{1, 2, 3}, take(t, s, 3))

	desc := NewDesc(nil)
	s.Switch(desc)
	assert.Same(t, desc, s.Inner())
	assert.Equal(t, []int{3, 2, 1}, take(t, s, 3))

	s.Reset(Nums(10, 30, 20))
	assert.Equal(t, []int{30, 20, 10}, take(t, s, 3))
	assert.Len(t, desc.Values(), 3)
}

func TestSwitcherExplicitValuesOverrideInner(t *testing.T) {
	inner := NewOrdered(Nums(1, 2))
	s := NewSwitcher(inner, Nums(9, 8, 7))
	assert.Equal(t, []int{9, 8, 7}, take(t, s, 3))
}

func TestOctaveOscillatesBetweenBounds(t *testing.T) {
	values := Nums(60, 64, 67)
	o, err := NewOctave(NewAsc(values), nil, 2, 1, true)
	require.NoError(t, err)

	var octaves []int
	for pass := 0; pass < 7; pass++ {
		octaves = append(octaves, o.CurrentOctave())
		got := take(t, o, len(values))
		shift := octaves[pass] * 12
		assert.Equal(t, []int{60 + shift, 64 + shift, 67 + shift}, got, "pass %d", pass)
	}
	assert.Equal(t, []int{0, 1, 2, 1, 0, 1, 2}, octaves)
}

func TestOctaveWrapsWithoutOscillate(t *testing.T) {
	o, err := NewOctave(NewOrdered(Nums(0)), nil, 2, 1, false)
	require.NoError(t, err)
	assert.Equal(t, []int{0, 12, 24, 0, 12}, take(t, o, 5))
}

func TestOctaveDescendingStartsAtTop(t *testing.T) {
	o, err := NewOctave(NewOrdered(Nums(0)), nil, 2, -1, false)
	require.NoError(t, err)
	assert.Equal(t, []int{24, 12, 0, 24}, take(t, o, 4))
}

func TestOctaveZeroNeverTransposes(t *testing.T) {
	o, err := NewOctave(NewOrdered(Nums(5, 6)), nil, 0, 1, true)
	require.NoError(t, err)
	assert.Equal(t, []int{5, 6, 5, 6, 5, 6}, take(t, o, 6))
	assert.Equal(t, 0, o.CurrentOctave())
}

func TestOctaveEmptyDoesNotAdvance(t *testing.T) {
	o, err := NewOctave(NewOrdered(nil), nil, 3, 1, false)
	require.NoError(t, err)
	for i := 0; i < 3; i++ {
		_, ok := o.Next()
		assert.False(t, ok)
	}
	assert.Equal(t, 0, o.CurrentOctave())
}

func TestOctaveRejectsInvalidArguments(t *testing.T) {
	_, err := NewOctave(NewOrdered(nil), nil, -1, 1, false)
	assert.ErrorIs(t, err, ErrInvalidArgument)

	_, err = NewOctave(NewOrdered(nil), nil, 2, 0, false)
	assert.ErrorIs(t, err, ErrInvalidArgument)

	o, err := NewOctave(NewOrdered(Nums(0)), nil, 3, -1, false)
	require.NoError(t, err)
	assert.ErrorIs(t, o.SetOctaves(-2), ErrInvalidArgument)
	require.NoError(t, o.SetOctaves(1))
	assert.Equal(t, 1, o.CurrentOctave())
}

func TestAdderAmountAppliesOnNextCall(t *testing.T) {
	a := NewAdder(NewOrdered(Nums(1, 2, 3)), nil)
	assert.Equal(t, []int{1, 2}, take(t, a, 2))

	a.SetAmount(10)
	assert.Equal(t, []int{13, 11}, take(t, a, 2))
	assert.Equal(t, 10, a.Amount())
}

func TestDecoratorsPreserveCycleOrder(t *testing.T) {
	values := Nums(67, 60, 64)

	adder := NewAdder(NewAsc(values), nil)
	adder.SetAmount(2)
	octaveOverAdder, err := NewOctave(adder, nil, 1, 1, false)
	require.NoError(t, err)

	octave, err := NewOctave(NewAsc(values), nil, 1, 1, false)
	require.NoError(t, err)
	adderOverOctave := NewAdder(octave, nil)
	adderOverOctave.SetAmount(2)

	want := []int{62, 66, 69, 74, 78, 81, 62, 66, 69}
	assert.Equal(t, want, take(t, octaveOverAdder, 9))
	assert.Equal(t, want, take(t, adderOverOctave, 9))
}
