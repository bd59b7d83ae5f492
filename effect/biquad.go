// SPDX-License-Identifier: EPL-2.0

package effect

import (
	"github.com/cwbudde/algo-dsp/dsp/filter/biquad"
	"github.com/cwbudde/algo-dsp/dsp/filter/design"

	"github.com/ik5/sonora/param"
)

// FilterShape selects the cookbook filter type a Biquad effect designs
// its coefficients for.
type FilterShape int

const (
	ShapeLowpass FilterShape = iota
	ShapeHighpass
	ShapeBandpass
	ShapeNotch
	ShapePeak
	ShapeLowShelf
	ShapeHighShelf
)

var (
	biquadShapeID     param.ID
	biquadFreqID      param.ID
	biquadQID         param.ID
	biquadGainID      param.ID
)

func init() {
	biquadShapeID, _ = param.NewID("shap")
	biquadFreqID, _ = param.NewID("freq")
	biquadQID, _ = param.NewID("q")
	biquadGainID, _ = param.NewID("gain")
}

// Biquad wraps CWBudde-algo-dsp's biquad.Section with the cookbook
// filter designers in dsp/filter/design, exposing filter shape,
// frequency, Q, and gain as parameters. One Section per channel keeps
// interleaved stereo/multichannel state independent.
type Biquad struct {
	shape      FilterShape
	freqHz     float64
	q          float64
	gainDB     float64
	sampleRate int

	sections []*biquad.Section

	shapeState  *param.Ramp
	freqRamp    *param.Ramp
	qRamp       *param.Ramp
	gainRamp    *param.Ramp
	needsRedesign bool

	scratch []float64
}

// NewBiquad returns a Biquad effect for the given number of channels,
// initialized as a 1kHz peaking filter at unity gain.
func NewBiquad(channels int) *Biquad {
	b := &Biquad{
		shape:      ShapePeak,
		freqHz:     1000,
		q:          0.707,
		gainDB:     0,
		sections:   make([]*biquad.Section, channels),
		shapeState: param.NewRamp(float64(ShapePeak)),
		freqRamp:   param.NewRamp(1000),
		qRamp:      param.NewRamp(0.707),
		gainRamp:   param.NewRamp(0),
	}
	for i := range b.sections {
		b.sections[i] = biquad.NewSection(biquad.Coefficients{B0: 1})
	}
	return b
}

func (b *Biquad) Process(io []float32, channels, sampleRate int) {
	if sampleRate != b.sampleRate {
		b.sampleRate = sampleRate
		b.needsRedesign = true
	}
	if b.needsRedesign {
		b.redesign()
	}

	frames := len(io) / channels
	if cap(b.scratch) < frames {
		b.scratch = make([]float64, frames)
	}
	scratch := b.scratch[:frames]
	for c := 0; c < channels && c < len(b.sections); c++ {
		for f := 0; f < frames; f++ {
			scratch[f] = float64(io[f*channels+c])
		}
		b.sections[c].ProcessBlock(scratch)
		for f := 0; f < frames; f++ {
			io[f*channels+c] = float32(scratch[f])
		}
	}
}

func (b *Biquad) redesign() {
	sr := float64(b.sampleRate)
	if sr <= 0 {
		return
	}
	var coeffs biquad.Coefficients
	switch b.shape {
	case ShapeLowpass:
		coeffs = design.Lowpass(b.freqHz, b.q, sr)
	case ShapeHighpass:
		coeffs = design.Highpass(b.freqHz, b.q, sr)
	case ShapeBandpass:
		coeffs = design.Bandpass(b.freqHz, b.q, sr)
	case ShapeNotch:
		coeffs = design.Notch(b.freqHz, b.q, sr)
	case ShapeLowShelf:
		coeffs = design.LowShelf(b.freqHz, b.gainDB, b.q, sr)
	case ShapeHighShelf:
		coeffs = design.HighShelf(b.freqHz, b.gainDB, b.q, sr)
	default:
		coeffs = design.Peak(b.freqHz, b.gainDB, b.q, sr)
	}
	for _, s := range b.sections {
		s.Coefficients = coeffs
	}
	b.needsRedesign = false
}

func (b *Biquad) SetParameter(id param.ID, normalized float64, smoothing param.Smoothing) error {
	switch id {
	case biquadShapeID:
		b.shape = FilterShape(int(normalized * float64(ShapeHighShelf)))
		b.needsRedesign = true
	case biquadFreqID:
		b.freqHz = param.Exponential.ToRaw(normalized, 20, 20000)
		b.needsRedesign = true
	case biquadQID:
		b.q = param.Exponential.ToRaw(normalized, 0.1, 20)
		b.needsRedesign = true
	case biquadGainID:
		b.gainDB = param.Linear.ToRaw(normalized, -24, 24)
		b.needsRedesign = true
	}
	_ = smoothing // filter coefficient changes apply at redesign, not per-sample
	return nil
}

func (b *Biquad) Reset() {
	for _, s := range b.sections {
		*s = *biquad.NewSection(s.Coefficients)
	}
}

func (b *Biquad) ParameterSchema() []param.Description {
	return []param.Description{
		{ID: biquadShapeID, Name: "Shape", Kind: param.KindEnum, Min: 0, Max: float64(ShapeHighShelf), Curve: param.Linear,
			EnumValues: []string{"Lowpass", "Highpass", "Bandpass", "Notch", "Peak", "LowShelf", "HighShelf"}},
		{ID: biquadFreqID, Name: "Frequency", Kind: param.KindFloat, Min: 20, Max: 20000, Default: 1000, Curve: param.Exponential, Unit: param.UnitHertz},
		{ID: biquadQID, Name: "Q", Kind: param.KindFloat, Min: 0.1, Max: 20, Default: 0.707, Curve: param.Exponential},
		{ID: biquadGainID, Name: "Gain", Kind: param.KindFloat, Min: -24, Max: 24, Default: 0, Curve: param.Linear, Unit: param.UnitDecibels, Polarity: param.Bipolar},
	}
}
