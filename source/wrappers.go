// SPDX-License-Identifier: EPL-2.0

package source

import (
	"time"

	"github.com/ik5/sonora/command"
	"github.com/ik5/sonora/signal"
)

// Resampled transparently adapts a child Source that natively produces
// audio at innerRate to whatever Spec.SampleRate Write is called with,
// per spec.md §9's ResampledWrapper closed-variant entry. This is
// distinct from Preloaded/Streamed's own internal resampling: those
// need the resampler coupled to speed changes and gain/pan ordering,
// while Resampled is a generic decorator for composing a fixed-rate
// child (e.g. a Generator authored at a nominal rate, or a Mixed
// submix) into a graph running at a different device rate.
type Resampled struct {
	inner     Source
	innerRate int
	resampler Resampler
	channels  int

	scratchIn  []float32
	scratchOut []float32
}

// NewResampled wraps inner, which must produce audio at innerRate/
// channels, adapting it to whatever rate Write requests via resampler
// (already constructed for channels).
func NewResampled(inner Source, innerRate, channels int, resampler Resampler) *Resampled {
	return &Resampled{inner: inner, innerRate: innerRate, resampler: resampler, channels: channels}
}

// Write implements Source.
func (r *Resampled) Write(out []float32, spec signal.Spec, now uint64) int {
	outFrames := len(out) / spec.Channels
	if outFrames == 0 {
		return 0
	}
	ratio := float64(r.innerRate) / float64(spec.SampleRate)
	needed := int(float64(outFrames)*ratio) + 8

	if cap(r.scratchIn) < needed*r.channels {
		r.scratchIn = make([]float32, needed*r.channels)
	}
	innerSpec := signal.Spec{SampleRate: r.innerRate, Channels: r.channels}
	got := r.inner.Write(r.scratchIn[:needed*r.channels], innerSpec, now)

	if cap(r.scratchOut) < outFrames*r.channels {
		r.scratchOut = make([]float32, outFrames*r.channels)
	}
	_, outWritten := r.resampler.Process(r.scratchIn[:got*r.channels], r.scratchOut[:outFrames*r.channels], ratio, ratio)

	signal.Fill(out, 0)
	copy(out[:outWritten*r.channels], r.scratchOut[:outWritten*r.channels])
	return outWritten
}

// IsExhausted implements Source.
func (r *Resampled) IsExhausted() bool { return r.inner.IsExhausted() }

// Position implements Source.
func (r *Resampled) Position() time.Duration { return r.inner.Position() }

// ApplyEvent implements Source.
func (r *Resampled) ApplyEvent(ev command.Payload) { r.inner.ApplyEvent(ev) }

// Panned transparently applies an equal-power pan to a child Source's
// stereo output, per spec.md §9's PannedWrapper closed-variant entry.
// Composing pan as a wrapper (rather than duplicating pan-application
// code in every source type) matches the layering Preloaded/Streamed
// already do internally, but exposes it for sources — a Generator or
// Mixed submix — that don't otherwise carry a pan parameter.
type Panned struct {
	inner Source
	pan   float32
}

// NewPanned wraps inner with a fixed pan in [-1,1].
func NewPanned(inner Source, pan float32) *Panned {
	return &Panned{inner: inner, pan: pan}
}

// Write implements Source.
func (p *Panned) Write(out []float32, spec signal.Spec, now uint64) int {
	n := p.inner.Write(out, spec, now)
	signal.Pan(out, spec.Channels, p.pan)
	return n
}

// IsExhausted implements Source.
func (p *Panned) IsExhausted() bool { return p.inner.IsExhausted() }

// Position implements Source.
func (p *Panned) Position() time.Duration { return p.inner.Position() }

// ApplyEvent implements Source.
func (p *Panned) ApplyEvent(ev command.Payload) { p.inner.ApplyEvent(ev) }
