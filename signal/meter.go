// SPDX-License-Identifier: EPL-2.0

package signal

import vecmath "github.com/cwbudde/algo-vecmath"

// Meter accumulates peak and RMS readings for a single mixer block. It
// keeps a persistent float64 scratch buffer so that computing a reading
// from a float32 audio buffer never allocates on the audio thread — the
// scratch grows only the first time it is asked to measure a block
// larger than its current capacity, which in practice happens once, at
// startup, when the device's max block size is first seen.
//
// The actual reductions (max-abs for peak, dot-product for the RMS sum
// of squares) are delegated to github.com/cwbudde/algo-vecmath, the
// SIMD-dispatching vector kernel library used throughout
// CWBudde-algo-dsp for exactly this class of reduction.
type Meter struct {
	scratch []float64
	peak    float32
	rms     float32
}

// Measure updates the meter's peak and RMS readings from buf (interleaved,
// any channel count).
func (m *Meter) Measure(buf []float32) {
	if len(buf) == 0 {
		m.peak = 0
		m.rms = 0
		return
	}
	if cap(m.scratch) < len(buf) {
		m.scratch = make([]float64, len(buf))
	}
	scratch := m.scratch[:len(buf)]
	for i, v := range buf {
		scratch[i] = float64(v)
	}
	m.peak = float32(vecmath.MaxAbs(scratch))
	sumSq := vecmath.DotProduct(scratch, scratch)
	m.rms = float32(sumSq / float64(len(scratch)))
}

// Peak returns the last measured peak absolute sample value.
func (m *Meter) Peak() float32 { return m.peak }

// RMS returns the last measured mean-square value (not square-rooted;
// callers that want linear RMS should take Sqrt themselves — most
// callers here only need it for silence-threshold comparisons where the
// square is monotonic with the linear value and cheaper to compute).
func (m *Meter) RMS() float32 { return m.rms }

// PeakDB converts the last peak reading to dBFS. Silence maps to a very
// negative floor rather than -Inf, so callers can compare thresholds
// without special-casing zero.
func (m *Meter) PeakDB() float32 {
	return LinearToDB(m.peak)
}
