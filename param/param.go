// SPDX-License-Identifier: EPL-2.0

package param

import (
	"fmt"
	"math/rand"
)

// Kind identifies a parameter's value type, per spec.md §4.7.
type Kind int

const (
	KindFloat Kind = iota
	KindInteger
	KindBoolean
	KindEnum
)

func (k Kind) String() string {
	switch k {
	case KindFloat:
		return "Float"
	case KindInteger:
		return "Integer"
	case KindBoolean:
		return "Boolean"
	case KindEnum:
		return "Enum"
	default:
		return "Unknown"
	}
}

// Polarity records whether a parameter's raw range is centered on zero
// (bipolar, e.g. pan) or starts at zero (unipolar, e.g. gain).
type Polarity int

const (
	Unipolar Polarity = iota
	Bipolar
)

func (p Polarity) String() string {
	if p == Bipolar {
		return "bipolar"
	}
	return "unipolar"
}

// Description is the static schema for one parameter: identity,
// display metadata, range, curve, unit, and whether it participates in
// schema-driven randomization.
type Description struct {
	ID           ID
	Name         string
	Kind         Kind
	Min          float64
	Max          float64
	Default      float64 // raw
	Curve        Curve
	Polarity     Polarity
	Unit         Unit
	EnumValues   []string // populated when Kind == KindEnum
	Step         float64  // 0 means continuous
	Randomizable bool
}

// DefaultNormalized returns the description's default value in
// normalized [0,1] form.
func (d Description) DefaultNormalized() float64 {
	return d.Curve.ToNormalized(d.Default, d.Min, d.Max)
}

// ToRaw converts a normalized value using this description's curve and
// range, then snaps integer/enum parameters to their step.
func (d Description) ToRaw(normalized float64) float64 {
	raw := d.Curve.ToRaw(normalized, d.Min, d.Max)
	switch d.Kind {
	case KindInteger, KindEnum:
		return roundHalfUp(raw)
	case KindBoolean:
		if raw >= 0.5*(d.Max-d.Min)+d.Min {
			return d.Max
		}
		return d.Min
	default:
		if d.Step > 0 {
			steps := roundHalfUp((raw - d.Min) / d.Step)
			return d.Min + steps*d.Step
		}
		return raw
	}
}

// ToNormalized converts a raw value back to [0,1] using this
// description's curve and range.
func (d Description) ToNormalized(raw float64) float64 {
	return d.Curve.ToNormalized(raw, d.Min, d.Max)
}

// roundHalfUp rounds to the nearest integer, breaking ties upward,
// the convention chosen for enum/integer normalized-value snapping
// where the spec leaves rounding direction unspecified.
func roundHalfUp(v float64) float64 {
	if v < 0 {
		return -roundHalfUp(-v)
	}
	frac := v - float64(int64(v))
	if frac >= 0.5 {
		return float64(int64(v)) + 1
	}
	return float64(int64(v))
}

// ValueToString renders a raw value as a human-readable string per the
// description's unit and kind, matching spec.md §6's "dB with one
// decimal, Hz with rounding, percentages, named enum entries" contract.
func (d Description) ValueToString(raw float64) string {
	switch d.Kind {
	case KindBoolean:
		if raw >= (d.Max+d.Min)/2 {
			return "on"
		}
		return "off"
	case KindEnum:
		idx := int(roundHalfUp(raw))
		if idx >= 0 && idx < len(d.EnumValues) {
			return d.EnumValues[idx]
		}
		return fmt.Sprintf("%d", idx)
	default:
		return d.Unit.Format(raw)
	}
}

// StringToValue parses a string in the format produced by
// ValueToString (or a bare number) back into a raw value.
func (d Description) StringToValue(s string) (float64, error) {
	switch d.Kind {
	case KindBoolean:
		switch s {
		case "on", "true", "1":
			return d.Max, nil
		case "off", "false", "0":
			return d.Min, nil
		default:
			return 0, fmt.Errorf("param: %q is not a valid boolean", s)
		}
	case KindEnum:
		for i, name := range d.EnumValues {
			if name == s {
				return float64(i), nil
			}
		}
		return 0, fmt.Errorf("param: %q is not a valid enum value for %s", s, d.Name)
	default:
		return d.Unit.Parse(s)
	}
}

// Randomize picks a uniform normalized value within [0,1] respecting
// the description's curve, returning the resulting raw value, per
// spec.md §4.7's "pick a uniform sample within its range respecting
// its curve" randomization contract. It is a no-op, returning the
// current default, for parameters not marked Randomizable.
func (d Description) Randomize(rng *rand.Rand) float64 {
	if !d.Randomizable {
		return d.Default
	}
	return d.ToRaw(rng.Float64())
}

// State is the live audio-thread-side value for one parameter: its
// description plus a smoothing Ramp.
type State struct {
	Desc Description
	Ramp *Ramp
}

// NewState returns a State initialized to its description's default
// value.
func NewState(desc Description) *State {
	return &State{Desc: desc, Ramp: NewRamp(desc.Default)}
}

// SetNormalized schedules a transition to the given normalized value
// under the given smoothing policy.
func (s *State) SetNormalized(normalized float64, smoothing Smoothing) {
	s.Ramp.SetTarget(s.Desc.ToRaw(normalized), smoothing)
}

// Current returns the current raw value.
func (s *State) Current() float64 { return s.Ramp.Current() }
