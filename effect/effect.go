// SPDX-License-Identifier: EPL-2.0

// Package effect defines the open effect interface applied by mixer
// effect chains, along with the built-in effect implementations, per
// spec.md §4.6.
package effect

import "github.com/ik5/sonora/param"

// MaxBlockFrames is the largest block size any built-in effect
// declares support for; Process may be called with a smaller block but
// never a larger one.
const MaxBlockFrames = 8192

// Effect is the open interface a mixer's effect chain drives. Any type
// satisfying it can sit in a chain; the built-ins in this package are
// not privileged over caller-supplied implementations.
//
// Process operates in-place on interleaved audio and never allocates.
// Parameter changes normally apply at block boundaries. Among the
// built-ins only Gain interpolates per-sample (via its own param.Ramp)
// when a parameter's smoothing policy is not SmoothingNone; Biquad,
// EQ5, Compressor, Limiter, Chorus, Reverb and Distortion apply every
// change at once and ignore the smoothing argument.
type Effect interface {
	// Process filters io in-place. io holds frames*channels
	// interleaved samples.
	Process(io []float32, channels, sampleRate int)

	// SetParameter schedules a change to the named parameter.
	SetParameter(id param.ID, normalized float64, smoothing param.Smoothing) error

	// Reset clears all internal filter/delay state, called on seek or
	// source restart.
	Reset()

	// ParameterSchema returns the effect's parameter descriptions, in
	// declaration order.
	ParameterSchema() []param.Description
}
