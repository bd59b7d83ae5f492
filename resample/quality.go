// SPDX-License-Identifier: EPL-2.0

package resample

// QualityLevel selects a predefined polyphase filter profile, mirroring
// the Quality/Profile pattern in CWBudde-algo-dsp's dsp/resample
// package.
type QualityLevel int

const (
	// QualityFast prioritizes lower CPU usage at the cost of stopband
	// attenuation.
	QualityFast QualityLevel = iota
	// QualityBalanced is the default trade-off.
	QualityBalanced
	// QualityBest prioritizes stopband attenuation and passband
	// flatness at the cost of CPU.
	QualityBest
)

// profile holds the concrete filter-design parameters for a QualityLevel.
type profile struct {
	tapsPerPhase int
	phases       int
	kaiserBeta   float64
	cutoffScale  float64
}

func profileFor(q QualityLevel) profile {
	switch q {
	case QualityFast:
		return profile{tapsPerPhase: 8, phases: 64, kaiserBeta: 5.0, cutoffScale: 0.88}
	case QualityBest:
		return profile{tapsPerPhase: 32, phases: 256, kaiserBeta: 9.0, cutoffScale: 0.96}
	default:
		return profile{tapsPerPhase: 16, phases: 128, kaiserBeta: 7.5, cutoffScale: 0.92}
	}
}

// Option configures a Quality resampler, mirroring the functional-option
// pattern used by CWBudde-algo-dsp's dsp/resample.Option.
type Option func(*profile)

// WithTapsPerPhase overrides the number of filter taps per polyphase
// branch.
func WithTapsPerPhase(n int) Option {
	return func(p *profile) {
		if n > 0 {
			p.tapsPerPhase = n
		}
	}
}

// WithPhases overrides the number of polyphase branches (the
// sub-sample time resolution of the filter table).
func WithPhases(n int) Option {
	return func(p *profile) {
		if n > 0 {
			p.phases = n
		}
	}
}

// WithKaiserBeta overrides the Kaiser window beta parameter.
func WithKaiserBeta(beta float64) Option {
	return func(p *profile) {
		if beta >= 0 {
			p.kaiserBeta = beta
		}
	}
}

// Quality resamples using a polyphase FIR filter with a precomputed
// Kaiser-windowed sinc table, one phase table row per sub-sample
// position. The table is built once at construction (allocation is
// permitted there); Process itself never allocates.
type Quality struct {
	channels int
	phases   int
	taps     int
	table    [][]float32 // table[phase][tap]

	history   [][]float32 // per-channel ring of the last `taps` input frames
	writeHead int
	filled    int

	pos float64
}

// NewQuality builds a Quality resampler for the given channel count and
// quality level.
func NewQuality(channels int, level QualityLevel, opts ...Option) *Quality {
	p := profileFor(level)
	for _, opt := range opts {
		opt(&p)
	}

	table := designPolyphaseTable(p.phases, p.tapsPerPhase, p.cutoffScale, p.kaiserBeta)

	history := make([][]float32, channels)
	for c := range history {
		history[c] = make([]float32, p.tapsPerPhase)
	}

	return &Quality{
		channels: channels,
		phases:   p.phases,
		taps:     p.tapsPerPhase,
		table:    table,
		history:  history,
	}
}

func (q *Quality) Channels() int { return q.channels }

func (q *Quality) Reset() {
	for c := range q.history {
		for i := range q.history[c] {
			q.history[c][i] = 0
		}
	}
	q.writeHead = 0
	q.filled = 0
	q.pos = 0
}

// Process implements Resampler using the polyphase FIR table.
func (q *Quality) Process(input, output []float32, ratioStart, ratioEnd float64) (inConsumed, outWritten int) {
	ch := q.channels
	if ch == 0 || len(output) < ch {
		return 0, 0
	}
	inFrames := len(input) / ch
	outFrames := len(output) / ch
	if outFrames == 0 {
		return 0, 0
	}

	ratio := ratioStart
	ratioStep := 0.0
	if outFrames > 1 {
		ratioStep = (ratioEnd - ratioStart) / float64(outFrames-1)
	}

	inIdx := 0
	for outIdx := 0; outIdx < outFrames; outIdx++ {
		for q.filled < q.taps {
			if inIdx >= inFrames {
				return inIdx, outIdx
			}
			q.push(input[inIdx*ch : inIdx*ch+ch])
			inIdx++
		}
		for q.pos >= 1.0 {
			if inIdx >= inFrames {
				return inIdx, outIdx
			}
			q.push(input[inIdx*ch : inIdx*ch+ch])
			inIdx++
			q.pos -= 1.0
		}
		if q.filled < q.taps {
			return inIdx, outIdx
		}

		phase := int(q.pos * float64(q.phases))
		if phase >= q.phases {
			phase = q.phases - 1
		}
		coeffs := q.table[phase]

		base := outIdx * ch
		for c := 0; c < ch; c++ {
			var acc float32
			hist := q.history[c]
			for t := 0; t < q.taps; t++ {
				idx := (q.writeHead - 1 - t + 2*q.taps) % q.taps
				acc += coeffs[t] * hist[idx]
			}
			output[base+c] = acc
		}

		q.pos += ratio
		ratio += ratioStep
	}

	return inIdx, outFrames
}

func (q *Quality) push(frame []float32) {
	for c, v := range frame {
		q.history[c][q.writeHead] = v
	}
	q.writeHead = (q.writeHead + 1) % q.taps
	if q.filled < q.taps {
		q.filled++
	}
}
