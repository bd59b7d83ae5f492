// SPDX-License-Identifier: EPL-2.0

package effect

import (
	"github.com/cwbudde/algo-dsp/dsp/effects/modulation"

	"github.com/ik5/sonora/param"
)

var (
	chorusRateID  param.ID
	chorusDepthID param.ID
	chorusMixID   param.ID
)

func init() {
	chorusRateID, _ = param.NewID("rate")
	chorusDepthID, _ = param.NewID("dpth")
	chorusMixID, _ = param.NewID("mix")
}

// Chorus wraps one CWBudde-algo-dsp modulation.Chorus per channel.
type Chorus struct {
	sampleRate int
	channels   []*modulation.Chorus
	scratch    []float64

	rate, depth, mix float64
}

// NewChorus returns a Chorus effect for the given channel count.
func NewChorus(channels int) *Chorus {
	return &Chorus{
		channels: make([]*modulation.Chorus, channels),
		rate:     0.5, depth: 0.002, mix: 0.5,
	}
}

func (c *Chorus) ensure(sampleRate int) {
	if sampleRate == c.sampleRate && len(c.channels) > 0 && c.channels[0] != nil {
		return
	}
	c.sampleRate = sampleRate
	for i := range c.channels {
		ch, err := modulation.NewChorus()
		if err != nil {
			continue
		}
		_ = ch.SetSampleRate(float64(sampleRate))
		_ = ch.SetSpeedHz(c.rate)
		_ = ch.SetDepth(c.depth)
		_ = ch.SetMix(c.mix)
		c.channels[i] = ch
	}
}

func (c *Chorus) Process(io []float32, channels, sampleRate int) {
	c.ensure(sampleRate)
	frames := len(io) / channels
	if cap(c.scratch) < frames {
		c.scratch = make([]float64, frames)
	}
	scratch := c.scratch[:frames]

	for ch := 0; ch < channels && ch < len(c.channels); ch++ {
		voice := c.channels[ch]
		if voice == nil {
			continue
		}
		for f := 0; f < frames; f++ {
			scratch[f] = float64(io[f*channels+ch])
		}
		voice.ProcessInPlace(scratch)
		for f := 0; f < frames; f++ {
			io[f*channels+ch] = float32(scratch[f])
		}
	}
}

func (c *Chorus) SetParameter(id param.ID, normalized float64, smoothing param.Smoothing) error {
	_ = smoothing
	switch id {
	case chorusRateID:
		c.rate = param.Exponential.ToRaw(normalized, 0.05, 5)
	case chorusDepthID:
		c.depth = param.Linear.ToRaw(normalized, 0, 0.01)
	case chorusMixID:
		c.mix = param.Linear.ToRaw(normalized, 0, 1)
	default:
		return nil
	}
	for _, voice := range c.channels {
		if voice == nil {
			continue
		}
		_ = voice.SetSpeedHz(c.rate)
		_ = voice.SetDepth(c.depth)
		_ = voice.SetMix(c.mix)
	}
	return nil
}

func (c *Chorus) Reset() {
	for _, voice := range c.channels {
		if voice != nil {
			voice.Reset()
		}
	}
}

func (c *Chorus) ParameterSchema() []param.Description {
	return []param.Description{
		{ID: chorusRateID, Name: "Rate", Kind: param.KindFloat, Min: 0.05, Max: 5, Default: 0.5, Curve: param.Exponential, Unit: param.UnitHertz},
		{ID: chorusDepthID, Name: "Depth", Kind: param.KindFloat, Min: 0, Max: 0.01, Default: 0.002, Curve: param.Linear, Unit: param.UnitSeconds},
		{ID: chorusMixID, Name: "Mix", Kind: param.KindFloat, Min: 0, Max: 1, Default: 0.5, Curve: param.Linear, Unit: param.UnitPercent},
	}
}
