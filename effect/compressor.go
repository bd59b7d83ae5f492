// SPDX-License-Identifier: EPL-2.0

package effect

import (
	"github.com/cwbudde/algo-dsp/dsp/effects/dynamics"

	"github.com/ik5/sonora/param"
)

var (
	compThresholdID param.ID
	compRatioID     param.ID
	compAttackID    param.ID
	compReleaseID   param.ID
	compMakeupID    param.ID
)

func init() {
	compThresholdID, _ = param.NewID("thrs")
	compRatioID, _ = param.NewID("rat")
	compAttackID, _ = param.NewID("atk")
	compReleaseID, _ = param.NewID("rel")
	compMakeupID, _ = param.NewID("mkup")
}

// Compressor wraps one CWBudde-algo-dsp dynamics.Compressor per
// channel, sharing parameter changes across all of them so a stereo
// signal compresses without additional linking logic.
type Compressor struct {
	sampleRate int
	channels   []*dynamics.Compressor
	scratch    []float64

	threshold, ratio, attack, release, makeup float64
}

// NewCompressor returns a Compressor for the given channel count with
// professional-default settings (see dynamics.NewCompressor).
func NewCompressor(channels int) *Compressor {
	return &Compressor{
		channels:  make([]*dynamics.Compressor, channels),
		threshold: -20, ratio: 4, attack: 10, release: 100, makeup: 0,
	}
}

func (c *Compressor) ensure(sampleRate int) {
	if sampleRate == c.sampleRate && c.channels[0] != nil {
		return
	}
	c.sampleRate = sampleRate
	for i := range c.channels {
		comp, err := dynamics.NewCompressor(float64(sampleRate))
		if err != nil {
			continue
		}
		_ = comp.SetThreshold(c.threshold)
		_ = comp.SetRatio(c.ratio)
		_ = comp.SetAttack(c.attack)
		_ = comp.SetRelease(c.release)
		_ = comp.SetMakeupGain(c.makeup)
		c.channels[i] = comp
	}
}

func (c *Compressor) Process(io []float32, channels, sampleRate int) {
	c.ensure(sampleRate)
	frames := len(io) / channels
	if cap(c.scratch) < frames {
		c.scratch = make([]float64, frames)
	}
	scratch := c.scratch[:frames]

	for ch := 0; ch < channels && ch < len(c.channels); ch++ {
		comp := c.channels[ch]
		if comp == nil {
			continue
		}
		for f := 0; f < frames; f++ {
			scratch[f] = float64(io[f*channels+ch])
		}
		comp.ProcessInPlace(scratch)
		for f := 0; f < frames; f++ {
			io[f*channels+ch] = float32(scratch[f])
		}
	}
}

func (c *Compressor) SetParameter(id param.ID, normalized float64, smoothing param.Smoothing) error {
	_ = smoothing
	switch id {
	case compThresholdID:
		c.threshold = param.Linear.ToRaw(normalized, -60, 0)
	case compRatioID:
		c.ratio = param.Exponential.ToRaw(normalized, 1, 20)
	case compAttackID:
		c.attack = param.Exponential.ToRaw(normalized, 0.1, 200)
	case compReleaseID:
		c.release = param.Exponential.ToRaw(normalized, 5, 2000)
	case compMakeupID:
		c.makeup = param.Linear.ToRaw(normalized, 0, 24)
	default:
		return nil
	}
	for _, comp := range c.channels {
		if comp == nil {
			continue
		}
		_ = comp.SetThreshold(c.threshold)
		_ = comp.SetRatio(c.ratio)
		_ = comp.SetAttack(c.attack)
		_ = comp.SetRelease(c.release)
		_ = comp.SetMakeupGain(c.makeup)
	}
	return nil
}

func (c *Compressor) Reset() {
	for _, comp := range c.channels {
		if comp != nil {
			comp.Reset()
		}
	}
}

func (c *Compressor) ParameterSchema() []param.Description {
	return []param.Description{
		{ID: compThresholdID, Name: "Threshold", Kind: param.KindFloat, Min: -60, Max: 0, Default: -20, Curve: param.Linear, Unit: param.UnitDecibels},
		{ID: compRatioID, Name: "Ratio", Kind: param.KindFloat, Min: 1, Max: 20, Default: 4, Curve: param.Exponential},
		{ID: compAttackID, Name: "Attack", Kind: param.KindFloat, Min: 0.1, Max: 200, Default: 10, Curve: param.Exponential, Unit: param.UnitMilliseconds},
		{ID: compReleaseID, Name: "Release", Kind: param.KindFloat, Min: 5, Max: 2000, Default: 100, Curve: param.Exponential, Unit: param.UnitMilliseconds},
		{ID: compMakeupID, Name: "Makeup", Kind: param.KindFloat, Min: 0, Max: 24, Default: 0, Curve: param.Linear, Unit: param.UnitDecibels},
	}
}
