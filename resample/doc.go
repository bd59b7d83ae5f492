// SPDX-License-Identifier: EPL-2.0

// Package resample provides per-source sample rate conversion for the
// mixer graph.
//
// Every source in the engine is normalized to its mixer's signal spec
// before being summed; when a source's native rate differs from the
// mixer's, a Resampler sits between the two. Two implementations are
// provided, matching spec.md §4.4:
//
//   - Fast: cubic Hermite (Catmull-Rom) interpolation over a four-frame
//     history ring, descended from github.com/ik5/audpbx's
//     audio.Resampler and utils.CubicInterpolate.
//   - Quality: a polyphase FIR filter with a Kaiser-windowed sinc
//     prototype designed once at construction time, grounded on the
//     Quality/Profile/Option pattern in CWBudde-algo-dsp's dsp/resample
//     package.
//
// Both implementations share the Resampler interface: calling Process
// is deterministic and allocation-free, phase is continuous across
// calls, and ratio changes are glided within a block rather than applied
// as a step, per spec.md §4.4's contract.
package resample
