// SPDX-License-Identifier: EPL-2.0

package param

import (
	"encoding/json"
	"math"
	"math/rand"
	"testing"
)

func TestCurve_LinearRoundTrip(t *testing.T) {
	t.Parallel()

	raw := Linear.ToRaw(0.25, 0, 100)
	if raw != 25 {
		t.Errorf("ToRaw = %v, want 25", raw)
	}
	norm := Linear.ToNormalized(25, 0, 100)
	if math.Abs(norm-0.25) > 1e-9 {
		t.Errorf("ToNormalized = %v, want 0.25", norm)
	}
}

func TestCurve_ExponentialRoundTrip(t *testing.T) {
	t.Parallel()

	raw := Exponential.ToRaw(0.5, 20, 20000)
	norm := Exponential.ToNormalized(raw, 20, 20000)
	if math.Abs(norm-0.5) > 1e-9 {
		t.Errorf("round trip norm = %v, want 0.5", norm)
	}
	if raw <= 20 || raw >= 20000 {
		t.Errorf("raw = %v, want within (20,20000)", raw)
	}
}

func TestCurve_LogarithmicIsExponentialMirror(t *testing.T) {
	t.Parallel()

	rawLow := Logarithmic.ToRaw(0.01, 1, 100)
	rawHigh := Logarithmic.ToRaw(0.99, 1, 100)
	// Logarithmic should reach near-max quickly, unlike Exponential.
	if rawHigh-rawLow < 50 {
		t.Errorf("expected steep rise near top of range, got low=%v high=%v", rawLow, rawHigh)
	}
}

func TestDescription_IntegerSnapsToNearest(t *testing.T) {
	t.Parallel()

	d := Description{Kind: KindInteger, Min: 0, Max: 10, Curve: Linear}
	raw := d.ToRaw(0.24) // 2.4 -> rounds to 2
	if raw != 2 {
		t.Errorf("ToRaw = %v, want 2", raw)
	}
	raw = d.ToRaw(0.25) // 2.5 -> rounds up to 3 (round-half-up)
	if raw != 3 {
		t.Errorf("ToRaw = %v, want 3 (round-half-up)", raw)
	}
}

func TestDescription_EnumFromNormalized(t *testing.T) {
	t.Parallel()

	d := Description{
		Kind:       KindEnum,
		Min:        0,
		Max:        2,
		Curve:      Linear,
		EnumValues: []string{"sine", "square", "saw"},
	}
	raw := d.ToRaw(0.5) // 1.0 -> "square"
	if d.ValueToString(raw) != "square" {
		t.Errorf("ValueToString(%v) = %q, want square", raw, d.ValueToString(raw))
	}
}

func TestDescription_ValueToStringDecibels(t *testing.T) {
	t.Parallel()

	d := Description{Kind: KindFloat, Min: 0, Max: 2, Curve: Linear, Unit: UnitDecibels}
	s := d.ValueToString(1.0)
	if s != "+0.0 dB" {
		t.Errorf("ValueToString(1.0) = %q, want +0.0 dB", s)
	}
}

func TestDescription_StringToValueDecibels(t *testing.T) {
	t.Parallel()

	d := Description{Kind: KindFloat, Min: 0, Max: 2, Curve: Linear, Unit: UnitDecibels}
	raw, err := d.StringToValue("+6.0 dB")
	if err != nil {
		t.Fatalf("StringToValue: %v", err)
	}
	if math.Abs(raw-1.9953) > 0.01 {
		t.Errorf("raw = %v, want ~1.9953", raw)
	}
}

func TestDescription_Randomize_RespectsRandomizableFlag(t *testing.T) {
	t.Parallel()

	rng := rand.New(rand.NewSource(1))
	fixed := Description{Kind: KindFloat, Min: 0, Max: 1, Default: 0.5, Randomizable: false}
	if v := fixed.Randomize(rng); v != 0.5 {
		t.Errorf("non-randomizable Randomize = %v, want default 0.5", v)
	}

	free := Description{Kind: KindFloat, Min: 0, Max: 1, Curve: Linear, Randomizable: true}
	v := free.Randomize(rng)
	if v < 0 || v > 1 {
		t.Errorf("Randomize produced out-of-range value %v", v)
	}
}

func TestRamp_LinearRampReachesTarget(t *testing.T) {
	t.Parallel()

	r := NewRamp(0)
	r.SetTarget(1.0, Smoothing{Kind: SmoothingLinearRamp, RampSamples: 4})
	for i := 0; i < 4; i++ {
		r.Advance()
	}
	if !r.Settled() {
		t.Error("ramp should be settled after RampSamples advances")
	}
	if r.Current() != 1.0 {
		t.Errorf("Current() = %v, want 1.0", r.Current())
	}
}

func TestRamp_OnePoleApproachesTarget(t *testing.T) {
	t.Parallel()

	r := NewRamp(0)
	r.SetTarget(1.0, Smoothing{Kind: SmoothingOnePole, TimeConstantSamples: 100})
	first := r.Advance()
	if first <= 0 || first >= 1 {
		t.Errorf("first step = %v, want strictly between 0 and 1", first)
	}
	for i := 0; i < 10000; i++ {
		r.Advance()
	}
	if math.Abs(r.Current()-1.0) > 1e-6 {
		t.Errorf("Current() after long settle = %v, want ~1.0", r.Current())
	}
}

func TestRamp_NoneAppliesImmediately(t *testing.T) {
	t.Parallel()

	r := NewRamp(0)
	r.SetTarget(0.75, Smoothing{Kind: SmoothingNone})
	if r.Current() != 0.75 {
		t.Errorf("Current() = %v, want 0.75 applied immediately", r.Current())
	}
}

func TestDescription_JSONRoundTrip(t *testing.T) {
	t.Parallel()

	id, err := NewID("gain")
	if err != nil {
		t.Fatalf("NewID: %v", err)
	}
	d := Description{
		ID:       id,
		Name:     "Gain",
		Kind:     KindFloat,
		Min:      0,
		Max:      2,
		Default:  1,
		Curve:    Linear,
		Polarity: Unipolar,
		Unit:     UnitDecibels,
	}

	data, err := json.Marshal(d)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}

	var out Description
	if err := json.Unmarshal(data, &out); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if out.ID != d.ID || out.Name != d.Name || out.Kind != d.Kind || out.Unit != d.Unit {
		t.Errorf("round trip mismatch: got %+v", out)
	}
}

func TestNewID_RejectsBadLength(t *testing.T) {
	t.Parallel()

	if _, err := NewID(""); err == nil {
		t.Error("expected error for empty tag")
	}
	if _, err := NewID("toolong"); err == nil {
		t.Error("expected error for tag longer than 4 chars")
	}
}
