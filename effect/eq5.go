// SPDX-License-Identifier: EPL-2.0

package effect

import "github.com/ik5/sonora/param"

// EQ5 is a five-band parametric equalizer: a low shelf, three peaking
// bands, and a high shelf, each built from an independent Biquad.
type EQ5 struct {
	bands [5]*Biquad
}

var eq5DefaultFreqs = [5]float64{80, 300, 1000, 3000, 10000}
var eq5DefaultShapes = [5]FilterShape{ShapeLowShelf, ShapePeak, ShapePeak, ShapePeak, ShapeHighShelf}

// NewEQ5 returns a five-band EQ for the given channel count, with
// bands centered at 80Hz, 300Hz, 1kHz, 3kHz, and 10kHz.
func NewEQ5(channels int) *EQ5 {
	eq := &EQ5{}
	for i := range eq.bands {
		b := NewBiquad(channels)
		b.shape = eq5DefaultShapes[i]
		b.freqHz = eq5DefaultFreqs[i]
		b.q = 0.707
		b.needsRedesign = true
		eq.bands[i] = b
	}
	return eq
}

func (eq *EQ5) Process(io []float32, channels, sampleRate int) {
	for _, b := range eq.bands {
		b.Process(io, channels, sampleRate)
	}
}

// bandParamID mangles a band index into each Biquad's parameter ID
// namespace so a single flat parameter list can address any band's
// gain (the only per-band control this effect exposes to hosts; shape
// and frequency are fixed by band).
func bandParamID(band int) param.ID {
	id, _ := param.NewID("g" + string(rune('0'+band)))
	return id
}

func (eq *EQ5) SetParameter(id param.ID, normalized float64, smoothing param.Smoothing) error {
	for i, b := range eq.bands {
		if id == bandParamID(i) {
			return b.SetParameter(biquadGainID, normalized, smoothing)
		}
	}
	return nil
}

func (eq *EQ5) Reset() {
	for _, b := range eq.bands {
		b.Reset()
	}
}

func (eq *EQ5) ParameterSchema() []param.Description {
	names := []string{"Low Shelf Gain", "Low-Mid Gain", "Mid Gain", "High-Mid Gain", "High Shelf Gain"}
	descs := make([]param.Description, len(eq.bands))
	for i := range eq.bands {
		descs[i] = param.Description{
			ID: bandParamID(i), Name: names[i], Kind: param.KindFloat,
			Min: -24, Max: 24, Default: 0, Curve: param.Linear,
			Unit: param.UnitDecibels, Polarity: param.Bipolar,
		}
	}
	return descs
}
