// SPDX-License-Identifier: EPL-2.0

package source

import (
	"math"
	"time"

	"github.com/ik5/sonora/command"
	"github.com/ik5/sonora/param"
	"github.com/ik5/sonora/signal"
)

// Waveform selects a Generator's oscillator shape.
type Waveform int

const (
	WaveSine Waveform = iota
	WaveSquare
	WaveSaw
	WaveNoise
)

// Generator synthesizes a monophonic tone shaped by an AHDSR envelope
// and triggered by NoteOn/NoteOff commands, a supplemented feature
// (spec.md §9 names "Generator" as one of the closed source variants
// but does not specify a synthesis method or envelope shape).
type Generator struct {
	waveform   Waveform
	freqHz     *param.Ramp
	gain       *param.Ramp
	pan        *param.Ramp
	env        *Envelope
	phase      float64
	rngState   uint64
	sourceRate int // nominal rate the oscillator phase advances at; 0 means "use device rate"

	stopped        bool
	framesRendered int64
	lastSampleRate int
}

// NewGenerator returns a Generator at freqHz with the given AHDSR
// envelope shape. The oscillator is silent (envelope idle) until the
// first NoteOn.
func NewGenerator(waveform Waveform, freqHz float64, env EnvelopeParams) *Generator {
	return &Generator{
		waveform: waveform,
		freqHz:   param.NewRamp(freqHz),
		gain:     param.NewRamp(1),
		pan:      param.NewRamp(0),
		env:      NewEnvelope(env),
		rngState: 0x9E3779B97F4A7C15,
	}
}

// Write implements Source.
func (g *Generator) Write(out []float32, spec signal.Spec, now uint64) int {
	frames := len(out) / spec.Channels
	if frames == 0 {
		return 0
	}
	signal.Fill(out, 0)

	freq := g.freqHz.Current()
	g.freqHz.AdvanceBlock(frames)
	gain := g.gain.Current()
	g.gain.AdvanceBlock(frames)

	phaseInc := freq / float64(spec.SampleRate)
	wasActive := !g.env.Done()
	for f := 0; f < frames; f++ {
		env := g.env.Advance()
		v := float32(g.oscillate()) * float32(env) * float32(gain)
		g.phase += phaseInc
		if g.phase >= 1 {
			g.phase -= math.Floor(g.phase)
		}
		base := f * spec.Channels
		for c := 0; c < spec.Channels; c++ {
			out[base+c] = v
		}
	}
	if spec.Channels == 2 {
		signal.Pan(out, spec.Channels, float32(g.pan.Current()))
		g.pan.AdvanceBlock(frames)
	}
	g.framesRendered += int64(frames)
	g.lastSampleRate = spec.SampleRate
	if wasActive && g.env.Done() {
		g.stopped = true
	}
	return frames
}

func (g *Generator) oscillate() float64 {
	switch g.waveform {
	case WaveSquare:
		if g.phase < 0.5 {
			return 1
		}
		return -1
	case WaveSaw:
		return 2*g.phase - 1
	case WaveNoise:
		return g.nextNoise()
	default:
		return math.Sin(2 * math.Pi * g.phase)
	}
}

// nextNoise is a xorshift64* PRNG kept local so Generator carries no
// external dependency for a feature this small.
func (g *Generator) nextNoise() float64 {
	x := g.rngState
	x ^= x << 13
	x ^= x >> 7
	x ^= x << 17
	g.rngState = x
	return (float64(x>>11)/float64(1<<53))*2 - 1
}

// IsExhausted implements Source. A Generator is exhausted once its
// envelope has fully released after a NoteOff; it never exhausts on its
// own before a note is played and released.
func (g *Generator) IsExhausted() bool { return g.stopped }

// Position implements Source, reporting elapsed render time rather than
// a meaningful playback cursor, since a Generator has no source
// material to index into.
func (g *Generator) Position() time.Duration {
	if g.lastSampleRate == 0 {
		return 0
	}
	return time.Duration(float64(g.framesRendered) / float64(g.lastSampleRate) * float64(time.Second))
}

// ApplyEvent implements Source.
func (g *Generator) ApplyEvent(ev command.Payload) {
	switch e := ev.(type) {
	case command.NoteOn:
		g.env.NoteOn()
		g.stopped = false
	case command.NoteOff:
		g.env.NoteOff()
	case command.SetGain:
		g.gain.SetTarget(e.Gain, e.Smoothing)
	case command.SetPan:
		g.pan.SetTarget(e.Pan, e.Smoothing)
	case command.Stop:
		g.env.NoteOff()
	}
}
