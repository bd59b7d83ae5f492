// SPDX-License-Identifier: EPL-2.0

package resample

// Fast resamples using cubic Hermite (Catmull-Rom) interpolation over a
// ring of the last four input frames, directly descended from
// github.com/ik5/audpbx's audio.Resampler + utils.CubicInterpolate, but
// reworked from a pull-from-Source loop into the push-style Process
// contract the mixer graph uses, and generalized from a fixed ratio to
// per-block glided ratios.
type Fast struct {
	channels int

	frames   [4][]float32
	hasFrame [4]bool

	pos float64 // fractional position within [frames[1], frames[2])
}

// NewFast returns a Fast resampler for the given channel count.
func NewFast(channels int) *Fast {
	f := &Fast{channels: channels}
	for i := range f.frames {
		f.frames[i] = make([]float32, channels)
	}
	return f
}

func (f *Fast) Channels() int { return f.channels }

func (f *Fast) Reset() {
	for i := range f.frames {
		for c := range f.frames[i] {
			f.frames[i][c] = 0
		}
		f.hasFrame[i] = false
	}
	f.pos = 0
}

// Process implements Resampler.
func (f *Fast) Process(input, output []float32, ratioStart, ratioEnd float64) (inConsumed, outWritten int) {
	ch := f.channels
	if ch == 0 || len(output) < ch {
		return 0, 0
	}
	inFrames := len(input) / ch
	outFrames := len(output) / ch
	if outFrames == 0 {
		return 0, 0
	}

	inIdx := 0
	ratio := ratioStart
	ratioStep := 0.0
	if outFrames > 1 {
		ratioStep = (ratioEnd - ratioStart) / float64(outFrames-1)
	}

	for outIdx := 0; outIdx < outFrames; outIdx++ {
		for !f.hasFrame[1] {
			if !f.shift(input, &inIdx, inFrames) {
				return inIdx, outIdx
			}
		}
		for f.pos >= 1.0 {
			if !f.shift(input, &inIdx, inFrames) {
				return inIdx, outIdx
			}
			f.pos -= 1.0
		}
		if !f.hasFrame[1] || !f.hasFrame[2] {
			return inIdx, outIdx
		}

		alpha := float32(f.pos)
		base := outIdx * ch
		for c := 0; c < ch; c++ {
			y0 := f.frames[1][c]
			if f.hasFrame[0] {
				y0 = f.frames[0][c]
			}
			y1 := f.frames[1][c]
			y2 := f.frames[2][c]
			y3 := f.frames[2][c]
			if f.hasFrame[3] {
				y3 = f.frames[3][c]
			}
			output[base+c] = cubicHermite(y0, y1, y2, y3, alpha)
		}

		f.pos += ratio
		ratio += ratioStep
	}

	return inIdx, outFrames
}

// shift advances the four-frame ring by one input frame, pulling from
// input at *inIdx if available. Returns false, leaving the ring
// unchanged, when input is exhausted.
func (f *Fast) shift(input []float32, inIdx *int, inFrames int) bool {
	if *inIdx >= inFrames {
		return false
	}
	f.frames[0], f.frames[1], f.frames[2], f.frames[3] = f.frames[1], f.frames[2], f.frames[3], f.frames[0]
	f.hasFrame[0], f.hasFrame[1], f.hasFrame[2] = f.hasFrame[1], f.hasFrame[2], f.hasFrame[3]

	ch := f.channels
	base := *inIdx * ch
	copy(f.frames[3], input[base:base+ch])
	f.hasFrame[3] = true
	*inIdx++
	return true
}

// cubicHermite performs Catmull-Rom spline interpolation between y1 and
// y2, using y0/y3 as the outer control points. x is the fractional
// position in [0,1] between y1 and y2. Ported from
// github.com/ik5/audpbx's utils.CubicInterpolate.
func cubicHermite(y0, y1, y2, y3, x float32) float32 {
	a0 := -0.5*y0 + 1.5*y1 - 1.5*y2 + 0.5*y3
	a1 := y0 - 2.5*y1 + 2*y2 - 0.5*y3
	a2 := -0.5*y0 + 0.5*y2
	a3 := y1
	return a0*x*x*x + a1*x*x + a2*x + a3
}
