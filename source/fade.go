// SPDX-License-Identifier: EPL-2.0

package source

import "math"

// FadeCurve selects the curve a Fade follows from 1 (full) to 0
// (silent) or the reverse.
type FadeCurve int

const (
	// FadeLinear ramps amplitude linearly over the fade duration.
	FadeLinear FadeCurve = iota
	// FadeExponential ramps amplitude along an exponential decay,
	// matching spec.md §4.2's "4 ms exponential fade-out" wording for
	// the click-free stop tail.
	FadeExponential
	// FadeEase ramps amplitude along a smoothstep curve (3t^2 - 2t^3),
	// zero-derivative at both endpoints, matching the original engine's
	// "ease" tween.
	FadeEase
)

// Fade advances a gain multiplier from 1 toward 0 (fade-out) or from 0
// toward 1 (fade-in) over a fixed number of frames, sample-accurately,
// so a scheduled stop lands exactly at the requested frame per spec.md
// §8 testable property 1.
type Fade struct {
	shape     FadeCurve
	totalLen  int
	pos       int
	fadingOut bool
	active    bool
}

// NewFade returns a Fade lasting lengthFrames frames (minimum 1). Call
// Start to begin either direction.
func NewFade(shape FadeCurve, lengthFrames int) *Fade {
	if lengthFrames < 1 {
		lengthFrames = 1
	}
	return &Fade{shape: shape, totalLen: lengthFrames}
}

// Start begins a fade-out (out=true) or fade-in (out=false) from the
// current position.
func (f *Fade) Start(out bool) {
	f.fadingOut = out
	f.pos = 0
	f.active = true
}

// Active reports whether the fade is still in progress.
func (f *Fade) Active() bool { return f.active }

// Done reports whether the fade has fully completed (reached 0 on
// fade-out, or 1 on fade-in).
func (f *Fade) Done() bool { return !f.active && f.pos >= f.totalLen }

// Advance steps the fade by one frame and returns the gain multiplier
// to apply at that frame.
func (f *Fade) Advance() float32 {
	if !f.active {
		if f.fadingOut {
			return 0
		}
		return 1
	}
	t := float64(f.pos) / float64(f.totalLen)
	if t > 1 {
		t = 1
	}
	var gain float64
	switch f.shape {
	case FadeExponential:
		// exp(-5t) reaches ~0.0067 at t=1, inaudibly close to silence
		// without the discontinuous derivative a hard linear ramp has
		// at its endpoint.
		gain = math.Exp(-5 * t)
	case FadeEase:
		smooth := t * t * (3 - 2*t)
		gain = 1 - smooth
	default:
		gain = 1 - t
	}
	if f.fadingOut {
		f.pos++
		if f.pos >= f.totalLen {
			f.active = false
		}
		return float32(gain)
	}
	f.pos++
	if f.pos >= f.totalLen {
		f.active = false
		return 1
	}
	return float32(1 - gain)
}
