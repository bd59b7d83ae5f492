// SPDX-License-Identifier: EPL-2.0

package resample

import (
	"math"

	fft "github.com/MeKo-Christian/algo-fft"
)

// designPolyphaseTable builds a table of `phases` rows, each holding
// `taps` FIR coefficients, representing a windowed-sinc low-pass filter
// sampled at sub-sample offsets. Row p approximates the ideal
// reconstruction filter shifted by p/phases fractional samples.
//
// cutoffScale scales the filter's cutoff relative to Nyquist (< 1
// leaves headroom against aliasing on upsampling ratios); kaiserBeta
// controls the Kaiser window's stopband/transition trade-off, mirroring
// CWBudde-algo-dsp's dsp/resample filter designer.
func designPolyphaseTable(phases, taps int, cutoffScale, kaiserBeta float64) [][]float32 {
	table := make([][]float32, phases)
	half := float64(taps) / 2

	window := kaiserWindow(taps, kaiserBeta)

	for p := 0; p < phases; p++ {
		frac := float64(p) / float64(phases)
		row := make([]float32, taps)
		var sum float64
		for t := 0; t < taps; t++ {
			// Distance from this tap to the fractional sample center.
			x := float64(t) - half + 1 - frac
			row[t] = float32(sincLowpass(x, cutoffScale) * window[t])
			sum += float64(row[t])
		}
		if sum != 0 {
			inv := float32(1.0 / sum)
			for t := range row {
				row[t] *= inv
			}
		}
		table[p] = row
	}

	normalizePolyphaseGain(table)
	return table
}

func sincLowpass(x, cutoffScale float64) float64 {
	x *= cutoffScale
	if x == 0 {
		return cutoffScale
	}
	return cutoffScale * math.Sin(math.Pi*x) / (math.Pi * x)
}

// kaiserWindow returns an n-sample Kaiser window with shape parameter
// beta, evaluated via the zeroth-order modified Bessel function.
func kaiserWindow(n int, beta float64) []float64 {
	w := make([]float64, n)
	denom := besselI0(beta)
	m := float64(n - 1)
	for i := 0; i < n; i++ {
		r := 2*float64(i)/m - 1
		arg := beta * math.Sqrt(max(0, 1-r*r))
		w[i] = besselI0(arg) / denom
	}
	return w
}

// besselI0 approximates the zeroth-order modified Bessel function of
// the first kind via its power series, sufficient for window design
// where beta stays well under 20.
func besselI0(x float64) float64 {
	sum := 1.0
	term := 1.0
	halfX := x / 2
	for k := 1; k < 32; k++ {
		term *= (halfX / float64(k)) * (halfX / float64(k))
		sum += term
		if term < 1e-15*sum {
			break
		}
	}
	return sum
}

func max(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}

// normalizePolyphaseGain measures the DC gain of the first phase (bin 0
// of its FFT) and rescales all phases by the reciprocal of that gain. It
// does not check the response away from DC. This only runs once, at
// construction time, so the allocation here does not reach the audio
// thread.
func normalizePolyphaseGain(table [][]float32) {
	if len(table) == 0 {
		return
	}
	ref := table[0]
	plan, err := fft.NewPlanReal64(len(ref))
	if err != nil {
		return
	}
	spectrum := make([]complex128, plan.SpectrumLen())
	if err := plan.Forward(spectrum, toFloat64(ref)); err != nil {
		return
	}
	if len(spectrum) == 0 {
		return
	}
	dcGain := real(spectrum[0])
	if dcGain == 0 {
		return
	}
	scale := float32(1.0 / dcGain)
	for _, row := range table {
		for i := range row {
			row[i] *= scale
		}
	}
}

func toFloat64(in []float32) []float64 {
	out := make([]float64, len(in))
	for i, v := range in {
		out[i] = float64(v)
	}
	return out
}
