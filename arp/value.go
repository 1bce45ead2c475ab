package arp

import "fmt"

// Value is one entry in an arp's value set: either a number (a pitch, a
// velocity, an offset) or another arp whose next production stands in for it.
type Value struct {
	num    int
	nested Arp
}

// Num returns a numeric value.
func Num(n int) Value {
	return Value{num: n}
}

// Nested returns a value that resolves to the next production of a.
func Nested(a Arp) Value {
	return Value{nested: a}
}

// Nums converts a list of numbers into values.
func Nums(ns ...int) []Value {
	values := make([]Value, len(ns))
	for i, n := range ns {
		values[i] = Num(n)
	}
	return values
}

// Number returns the numeric value and true, or false for a nested value.
func (v Value) Number() (int, bool) {
	if v.nested != nil {
		return 0, false
	}
	return v.num, true
}

// Arp returns the nested arp, or nil for a numeric value.
func (v Value) Arp() Arp {
	return v.nested
}

// IsNested reports whether v must be resolved through another arp.
func (v Value) IsNested() bool {
	return v.nested != nil
}

func (v Value) String() string {
	if v.nested != nil {
		return fmt.Sprintf("<%T>", v.nested)
	}
	return fmt.Sprintf("%d", v.num)
}

// resolve keeps producing from nested arps until a number comes out. Each
// nested Next resolves its own entries, so one call walks the whole chain.
func resolve(v Value) (int, bool) {
	if v.nested == nil {
		return v.num, true
	}
	return v.nested.Next()
}

func copyValues(values []Value) []Value {
	out := make([]Value, len(values))
	copy(out, values)
	return out
}

// mod is the non-negative remainder, so walking backwards wraps to the end.
func mod(a, n int) int {
	if n == 0 {
		return 0
	}
	return ((a % n) + n) % n
}
