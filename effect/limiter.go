// SPDX-License-Identifier: EPL-2.0

package effect

import (
	"github.com/cwbudde/algo-dsp/dsp/effects/dynamics"

	"github.com/ik5/sonora/param"
)

var (
	limThresholdID param.ID
	limReleaseID   param.ID
	limLookaheadID param.ID
)

func init() {
	limThresholdID, _ = param.NewID("thrs")
	limReleaseID, _ = param.NewID("rel")
	limLookaheadID, _ = param.NewID("look")
}

// Limiter wraps one CWBudde-algo-dsp dynamics.LookaheadLimiter per
// channel, used as the final stage of a master bus chain to guarantee
// the output never exceeds its ceiling regardless of upstream gain.
type Limiter struct {
	sampleRate int
	channels   []*dynamics.LookaheadLimiter
	scratch    []float64

	threshold, release, lookahead float64
}

// NewLimiter returns a Limiter for the given channel count.
func NewLimiter(channels int) *Limiter {
	return &Limiter{
		channels:  make([]*dynamics.LookaheadLimiter, channels),
		threshold: -0.3, release: 50, lookahead: 5,
	}
}

func (l *Limiter) ensure(sampleRate int) {
	if sampleRate == l.sampleRate && len(l.channels) > 0 && l.channels[0] != nil {
		return
	}
	l.sampleRate = sampleRate
	for i := range l.channels {
		lim, err := dynamics.NewLookaheadLimiter(float64(sampleRate))
		if err != nil {
			continue
		}
		_ = lim.SetThreshold(l.threshold)
		_ = lim.SetRelease(l.release)
		_ = lim.SetLookahead(l.lookahead)
		l.channels[i] = lim
	}
}

func (l *Limiter) Process(io []float32, channels, sampleRate int) {
	l.ensure(sampleRate)
	frames := len(io) / channels
	if cap(l.scratch) < frames {
		l.scratch = make([]float64, frames)
	}
	scratch := l.scratch[:frames]

	for ch := 0; ch < channels && ch < len(l.channels); ch++ {
		lim := l.channels[ch]
		if lim == nil {
			continue
		}
		for f := 0; f < frames; f++ {
			scratch[f] = float64(io[f*channels+ch])
		}
		lim.ProcessInPlace(scratch)
		for f := 0; f < frames; f++ {
			io[f*channels+ch] = float32(scratch[f])
		}
	}
}

func (l *Limiter) SetParameter(id param.ID, normalized float64, smoothing param.Smoothing) error {
	_ = smoothing
	switch id {
	case limThresholdID:
		l.threshold = param.Linear.ToRaw(normalized, -12, 0)
	case limReleaseID:
		l.release = param.Exponential.ToRaw(normalized, 1, 1000)
	case limLookaheadID:
		l.lookahead = param.Linear.ToRaw(normalized, 0, 20)
	default:
		return nil
	}
	for _, lim := range l.channels {
		if lim == nil {
			continue
		}
		_ = lim.SetThreshold(l.threshold)
		_ = lim.SetRelease(l.release)
		_ = lim.SetLookahead(l.lookahead)
	}
	return nil
}

func (l *Limiter) Reset() {
	for _, lim := range l.channels {
		if lim != nil {
			lim.Reset()
		}
	}
}

func (l *Limiter) ParameterSchema() []param.Description {
	return []param.Description{
		{ID: limThresholdID, Name: "Ceiling", Kind: param.KindFloat, Min: -12, Max: 0, Default: -0.3, Curve: param.Linear, Unit: param.UnitDecibels},
		{ID: limReleaseID, Name: "Release", Kind: param.KindFloat, Min: 1, Max: 1000, Default: 50, Curve: param.Exponential, Unit: param.UnitMilliseconds},
		{ID: limLookaheadID, Name: "Lookahead", Kind: param.KindFloat, Min: 0, Max: 20, Default: 5, Curve: param.Linear, Unit: param.UnitMilliseconds},
	}
}
