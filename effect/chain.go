// SPDX-License-Identifier: EPL-2.0

package effect

import (
	"github.com/ik5/sonora/param"
	"github.com/ik5/sonora/signal"
)

// AutoBypassThresholdDB is the peak level below which a block is
// considered silent for auto-bypass purposes, per spec.md §4.6.
const AutoBypassThresholdDB = -90.0

// AutoBypassBlocks is the number of consecutive silent blocks required
// before the chain bypasses its effects.
const AutoBypassBlocks = 8

// CrossfadeMillis is the duration, in milliseconds, over which the
// first post-bypass block blends the effect's output back in.
const CrossfadeMillis = 4.0

// Chain applies a fixed sequence of Effects to a block in-place,
// auto-bypassing the whole chain during silence and crossfading back
// in once audio resumes, per spec.md §4.6.
type Chain struct {
	effects []Effect

	meter       signal.Meter
	silentCount int
	bypassed    bool
	crossfading bool

	dry     []float32 // scratch holding pre-effect audio for crossfade blending
	scratch []float32
}

// NewChain returns a Chain applying effects in order.
func NewChain(effects ...Effect) *Chain {
	return &Chain{effects: append([]Effect(nil), effects...)}
}

// Effects returns the chain's effects in processing order.
func (c *Chain) Effects() []Effect { return c.effects }

// Append adds an effect to the end of the chain.
func (c *Chain) Append(e Effect) {
	c.effects = append(c.effects, e)
}

// Remove deletes the effect at index i.
func (c *Chain) Remove(i int) {
	if i < 0 || i >= len(c.effects) {
		return
	}
	c.effects = append(c.effects[:i], c.effects[i+1:]...)
}

// Move relocates the effect at index from to index to.
func (c *Chain) Move(from, to int) {
	if from < 0 || from >= len(c.effects) || to < 0 || to >= len(c.effects) || from == to {
		return
	}
	e := c.effects[from]
	c.effects = append(c.effects[:from], c.effects[from+1:]...)
	c.effects = append(c.effects[:to], append([]Effect{e}, c.effects[to:]...)...)
}

// Process applies the chain to io in-place, respecting auto-bypass.
func (c *Chain) Process(io []float32, channels, sampleRate int) {
	if len(c.effects) == 0 {
		return
	}

	c.meter.Measure(io)
	silent := c.meter.PeakDB() < AutoBypassThresholdDB

	if silent {
		c.silentCount++
		if c.silentCount >= AutoBypassBlocks {
			c.bypassed = true
			return
		}
	} else {
		if c.bypassed {
			c.bypassed = false
			c.crossfading = true
		}
		c.silentCount = 0
	}

	if c.bypassed {
		return
	}

	if !c.crossfading {
		c.runEffects(io, channels, sampleRate)
		return
	}

	// Crossfade: blend the dry (pre-effect) signal into the wet
	// (post-effect) signal over CrossfadeMillis, masking the
	// transient of effects whose internal state has decayed to zero
	// during the bypass period (delay lines, filter memory).
	c.ensureScratch(len(io))
	copy(c.dry, io[:len(io)])
	c.runEffects(io, channels, sampleRate)

	fadeFrames := int(CrossfadeMillis * float64(sampleRate) / 1000)
	frames := len(io) / channels
	if fadeFrames > frames {
		fadeFrames = frames
	}
	for f := 0; f < fadeFrames; f++ {
		t := float32(f) / float32(fadeFrames)
		base := f * channels
		for ch := 0; ch < channels; ch++ {
			wet := io[base+ch]
			dry := c.dry[base+ch]
			io[base+ch] = dry*(1-t) + wet*t
		}
	}
	c.crossfading = false
}

func (c *Chain) runEffects(io []float32, channels, sampleRate int) {
	for _, e := range c.effects {
		e.Process(io, channels, sampleRate)
	}
}

func (c *Chain) ensureScratch(n int) {
	if cap(c.dry) < n {
		c.dry = make([]float32, n)
	}
	c.dry = c.dry[:n]
}

// Reset clears every effect's internal state and the chain's
// auto-bypass tracking.
func (c *Chain) Reset() {
	for _, e := range c.effects {
		e.Reset()
	}
	c.silentCount = 0
	c.bypassed = false
	c.crossfading = false
}

// Bypassed reports whether the chain is currently auto-bypassed.
func (c *Chain) Bypassed() bool { return c.bypassed }

// SetParameter forwards a parameter change to the effect at index i.
func (c *Chain) SetParameter(i int, id param.ID, normalized float64, smoothing param.Smoothing) error {
	if i < 0 || i >= len(c.effects) {
		return nil
	}
	return c.effects[i].SetParameter(id, normalized, smoothing)
}
