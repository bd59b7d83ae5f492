// SPDX-License-Identifier: EPL-2.0

package effect

import "github.com/ik5/sonora/param"

var gainID, _ = param.NewID("gain")

// Gain applies a single smoothed linear gain to every channel.
type Gain struct {
	desc param.Description
	ramp *param.Ramp
}

// NewGain returns a Gain effect defaulting to unity (0 dB).
func NewGain() *Gain {
	desc := param.Description{
		ID:       gainID,
		Name:     "Gain",
		Kind:     param.KindFloat,
		Min:      0,
		Max:      4,
		Default:  1,
		Curve:    param.Logarithmic,
		Polarity: param.Unipolar,
		Unit:     param.UnitDecibels,
	}
	return &Gain{desc: desc, ramp: param.NewRamp(desc.Default)}
}

func (g *Gain) Process(io []float32, channels, sampleRate int) {
	_ = sampleRate
	if g.ramp.Settled() {
		v := float32(g.ramp.Current())
		for i := range io {
			io[i] *= v
		}
		return
	}
	frames := len(io) / channels
	for f := 0; f < frames; f++ {
		v := float32(g.ramp.Advance())
		base := f * channels
		for c := 0; c < channels; c++ {
			io[base+c] *= v
		}
	}
}

func (g *Gain) SetParameter(id param.ID, normalized float64, smoothing param.Smoothing) error {
	if id != gainID {
		return nil
	}
	g.ramp.SetTarget(g.desc.ToRaw(normalized), smoothing)
	return nil
}

func (g *Gain) Reset() {
	g.ramp = param.NewRamp(g.ramp.Target())
}

func (g *Gain) ParameterSchema() []param.Description {
	return []param.Description{g.desc}
}
