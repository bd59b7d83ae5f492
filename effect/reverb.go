// SPDX-License-Identifier: EPL-2.0

package effect

import (
	"github.com/cwbudde/algo-dsp/dsp/effects/reverb"

	"github.com/ik5/sonora/param"
)

var (
	reverbSizeID     param.ID
	reverbDampID     param.ID
	reverbMixID      param.ID
	reverbPreDelayID param.ID
)

func init() {
	reverbSizeID, _ = param.NewID("size")
	reverbDampID, _ = param.NewID("damp")
	reverbMixID, _ = param.NewID("mix")
	reverbPreDelayID, _ = param.NewID("pdly")
}

// Reverb wraps one CWBudde-algo-dsp reverb.FDNReverb per channel: a
// feedback delay network reverb with RT60 decay control.
type Reverb struct {
	sampleRate int
	channels   []*reverb.FDNReverb
	scratch    []float64

	rt60, damp, mix, preDelay float64
}

// NewReverb returns a Reverb effect for the given channel count with a
// medium room default (RT60 1.2s).
func NewReverb(channels int) *Reverb {
	return &Reverb{
		channels: make([]*reverb.FDNReverb, channels),
		rt60:     1.2, damp: 0.3, mix: 0.25, preDelay: 0.02,
	}
}

func (r *Reverb) ensure(sampleRate int) {
	if sampleRate == r.sampleRate && len(r.channels) > 0 && r.channels[0] != nil {
		return
	}
	r.sampleRate = sampleRate
	for i := range r.channels {
		rv, err := reverb.NewFDNReverb(float64(sampleRate))
		if err != nil {
			continue
		}
		_ = rv.SetRT60(r.rt60)
		_ = rv.SetDamp(r.damp)
		_ = rv.SetWet(r.mix)
		_ = rv.SetDry(1 - r.mix)
		_ = rv.SetPreDelay(r.preDelay)
		r.channels[i] = rv
	}
}

func (r *Reverb) Process(io []float32, channels, sampleRate int) {
	r.ensure(sampleRate)
	frames := len(io) / channels
	if cap(r.scratch) < frames {
		r.scratch = make([]float64, frames)
	}
	scratch := r.scratch[:frames]

	for ch := 0; ch < channels && ch < len(r.channels); ch++ {
		rv := r.channels[ch]
		if rv == nil {
			continue
		}
		for f := 0; f < frames; f++ {
			scratch[f] = float64(io[f*channels+ch])
		}
		rv.ProcessInPlace(scratch)
		for f := 0; f < frames; f++ {
			io[f*channels+ch] = float32(scratch[f])
		}
	}
}

func (r *Reverb) SetParameter(id param.ID, normalized float64, smoothing param.Smoothing) error {
	_ = smoothing
	switch id {
	case reverbSizeID:
		r.rt60 = param.Exponential.ToRaw(normalized, 0.1, 10)
	case reverbDampID:
		r.damp = param.Linear.ToRaw(normalized, 0, 1)
	case reverbMixID:
		r.mix = param.Linear.ToRaw(normalized, 0, 1)
	case reverbPreDelayID:
		r.preDelay = param.Linear.ToRaw(normalized, 0, 0.1)
	default:
		return nil
	}
	for _, rv := range r.channels {
		if rv == nil {
			continue
		}
		_ = rv.SetRT60(r.rt60)
		_ = rv.SetDamp(r.damp)
		_ = rv.SetWet(r.mix)
		_ = rv.SetDry(1 - r.mix)
		_ = rv.SetPreDelay(r.preDelay)
	}
	return nil
}

func (r *Reverb) Reset() {
	for _, rv := range r.channels {
		if rv != nil {
			rv.Reset()
		}
	}
}

func (r *Reverb) ParameterSchema() []param.Description {
	return []param.Description{
		{ID: reverbSizeID, Name: "Decay", Kind: param.KindFloat, Min: 0.1, Max: 10, Default: 1.2, Curve: param.Exponential, Unit: param.UnitSeconds},
		{ID: reverbDampID, Name: "Damping", Kind: param.KindFloat, Min: 0, Max: 1, Default: 0.3, Curve: param.Linear},
		{ID: reverbMixID, Name: "Mix", Kind: param.KindFloat, Min: 0, Max: 1, Default: 0.25, Curve: param.Linear, Unit: param.UnitPercent},
		{ID: reverbPreDelayID, Name: "Pre-delay", Kind: param.KindFloat, Min: 0, Max: 0.1, Default: 0.02, Curve: param.Linear, Unit: param.UnitSeconds},
	}
}
