// SPDX-License-Identifier: EPL-2.0

package resample

// Resampler converts interleaved multichannel audio from one sample
// rate to another with continuous phase across calls.
//
// Process consumes from input and produces into output. ratioStart and
// ratioEnd express Rin/Rout at the beginning and end of this call; when
// they differ the ratio is linearly glided across the block, per
// spec.md §4.4's "ratio changes larger than 10% per block are linearly
// glided" rule (glide is applied unconditionally and cheaply, since
// gliding a ratio that hasn't changed costs nothing extra).
//
// Process never allocates and never blocks. Reset zeroes interpolation
// history, used when a source seeks or restarts.
type Resampler interface {
	// Process reads frames from input and writes resampled frames into
	// output. Returns the number of input frames consumed and output
	// frames written. Both input and output are interleaved with
	// Channels() channels.
	Process(input, output []float32, ratioStart, ratioEnd float64) (inConsumed, outWritten int)

	// Channels returns the channel count this resampler was configured
	// for.
	Channels() int

	// Reset zeroes all interpolation/filter history.
	Reset()
}
