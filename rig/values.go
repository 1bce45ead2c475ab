package rig

import (
	"encoding/json"
	"math"

	"github.com/pkg/errors"

	"go-arp/arp"
	"go-arp/theory"
)

// values resolves configured values: numbers stay numbers, strings name
// another arp or switcher and become nested values.
// call with r.mu held
func (r *Rig) values(raw []any) ([]arp.Value, error) {
	if raw == nil {
		return nil, nil
	}
	values := make([]arp.Value, 0, len(raw))
	for _, v := range raw {
		switch v := v.(type) {
		case string:
			a, err := r.lookupSource(v)
			if err != nil {
				return nil, err
			}
			values = append(values, arp.Nested(a))
		default:
			n, err := number(v)
			if err != nil {
				return nil, err
			}
			values = append(values, arp.Num(n))
		}
	}
	return values, nil
}

// number accepts the numeric forms a decoded JSON document or Go caller
// may hold
func number(v any) (int, error) {
	switch v := v.(type) {
	case int:
		return v, nil
	case int64:
		return int(v), nil
	case float64:
		if v != math.Trunc(v) {
			return 0, errors.Wrapf(ErrInvalid, "value %v is not a whole number", v)
		}
		return int(v), nil
	case json.Number:
		n, err := v.Int64()
		if err != nil {
			return 0, errors.Wrapf(ErrInvalid, "value %q: %v", v, err)
		}
		return int(n), nil
	}
	return 0, errors.Wrapf(ErrInvalid, "value %v (%T) is neither a number nor a URI", v, v)
}

// valueRefs returns the URIs among raw values
func valueRefs(raw []any) []string {
	var refs []string
	for _, v := range raw {
		if s, ok := v.(string); ok {
			kind, name := splitURI(s)
			refs = append(refs, uri(kind, name))
		}
	}
	return refs
}

// arpValues builds an arp's values from its spec: literal values, or the
// spec's scale in its key, followed by the requested inversion of the
// numeric entries.
// call with r.mu held
func (r *Rig) arpValues(spec ArpSpec) ([]arp.Value, error) {
	raw := spec.Values
	if len(raw) == 0 && spec.Scale != "" {
		notes, err := theory.KeyScale(spec.Scale, spec.Key, spec.Octave)
		if err != nil {
			return nil, err
		}
		raw = make([]any, len(notes))
		for i, n := range notes {
			raw[i] = n
		}
	}
	values, err := r.values(raw)
	if err != nil {
		return nil, err
	}
	if spec.Inversion == 0 {
		return values, nil
	}

	var chord []int
	for _, v := range values {
		if n, ok := v.Number(); ok {
			chord = append(chord, n)
		}
	}
	inverted, err := theory.Invert(chord, spec.Inversion)
	if err != nil {
		return nil, err
	}
	i := 0
	for j, v := range values {
		if !v.IsNested() {
			values[j] = arp.Num(inverted[i])
			i++
		}
	}
	return values, nil
}
