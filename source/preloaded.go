// SPDX-License-Identifier: EPL-2.0

package source

import (
	"time"

	"github.com/ik5/sonora/channelmap"
	"github.com/ik5/sonora/command"
	"github.com/ik5/sonora/param"
	"github.com/ik5/sonora/signal"
)

// StopFadeFrames is the default exponential fade-out length, 4 ms,
// spec.md §4.2/§5 specifies for both natural end-of-stream and explicit
// stops with no caller-supplied duration. Despite the name the value is
// in milliseconds; the fade is sized in frames at the device sample
// rate when it starts.
const StopFadeFrames = 4

// Preloaded plays back a fully-decoded, shared, immutable interleaved
// sample buffer, per spec.md §4.2. The buffer is not reference-counted
// manually (spec.md §9's note on atomic refcounting): plain Go slice
// sharing plus the garbage collector already gives every clone safe,
// allocation-free access without a background collector thread, since
// nothing in this engine ever calls that collector back into the audio
// thread's execution.
type Preloaded struct {
	buf         []float32 // shared, never mutated after construction
	srcChannels int
	srcRate     int
	totalFrames int64

	loopStart, loopEnd int64
	looping            bool
	repeatsRemaining   int // -1 = infinite

	cursor int64 // next source frame to read

	speed *param.Ramp
	gain  *param.Ramp
	pan   *param.Ramp

	resampler Resampler
	mapper    channelmap.Mapper

	fade      *Fade
	stopping  bool
	exhausted bool

	scratchSrc     []float32
	scratchResamp  []float32
	scratchMapped  []float32
	framesConsumed int64
}

// PreloadedOption configures a Preloaded at construction.
type PreloadedOption func(*Preloaded)

// WithLoop enables looping over [start,end) source frames. repeats < 0
// means loop indefinitely.
func WithLoop(start, end int64, repeats int) PreloadedOption {
	return func(p *Preloaded) {
		if end <= start {
			return // invalid/empty region: treat as non-looping, per §4.2
		}
		p.looping = true
		p.loopStart = start
		p.loopEnd = end
		p.repeatsRemaining = repeats
	}
}

// NewPreloaded returns a Preloaded reading buf (interleaved,
// srcChannels-wide, at srcRate) through resampler, which must already
// be constructed for srcChannels. deviceSpec is used only to size the
// channel mapper; playback rate adapts per-block to whatever Spec Write
// is called with.
func NewPreloaded(buf []float32, srcChannels, srcRate int, resampler Resampler, deviceChannels int, opts ...PreloadedOption) *Preloaded {
	mapper, err := channelmap.New(srcChannels, deviceChannels)
	if err != nil {
		mapper, _ = channelmap.New(srcChannels, srcChannels) // passthrough fallback, remapped again at Write if needed
	}
	p := &Preloaded{
		buf:              buf,
		srcChannels:      srcChannels,
		srcRate:          srcRate,
		totalFrames:      int64(len(buf) / srcChannels),
		repeatsRemaining: -1,
		speed:            param.NewRamp(1),
		gain:             param.NewRamp(1),
		pan:              param.NewRamp(0),
		resampler:        resampler,
		mapper:           mapper,
		fade:             NewFade(FadeExponential, 1),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Write implements Source.
func (p *Preloaded) Write(out []float32, spec signal.Spec, now uint64) int {
	if p.exhausted {
		signal.Fill(out, 0)
		return 0
	}
	outFrames := len(out) / spec.Channels
	if outFrames == 0 {
		return 0
	}

	speedStart := p.speed.Current()
	speedEnd := p.speed.AdvanceBlock(outFrames)
	ratioStart := clampSpeed(speedStart) * float64(p.srcRate) / float64(spec.SampleRate)
	ratioEnd := clampSpeed(speedEnd) * float64(p.srcRate) / float64(spec.SampleRate)

	needed := int(float64(outFrames)*maxF(ratioStart, ratioEnd)) + 8
	if cap(p.scratchSrc) < needed*p.srcChannels {
		p.scratchSrc = make([]float32, needed*p.srcChannels)
	}
	pulled, _, _, _ := p.readFrom(p.cursor, p.repeatsRemaining, p.scratchSrc[:needed*p.srcChannels], needed)

	if cap(p.scratchResamp) < outFrames*p.srcChannels {
		p.scratchResamp = make([]float32, outFrames*p.srcChannels)
	}
	resampOut := p.scratchResamp[:outFrames*p.srcChannels]

	inConsumed, outWritten := p.resampler.Process(p.scratchSrc[:pulled*p.srcChannels], resampOut, ratioStart, ratioEnd)

	_, newCursor, newRepeats, hitEnd := p.readFrom(p.cursor, p.repeatsRemaining, nil, inConsumed)
	p.cursor = newCursor
	p.repeatsRemaining = newRepeats
	p.framesConsumed += int64(inConsumed)

	if p.mapper.SrcChannels() != p.srcChannels || p.mapper.DstChannels() != spec.Channels {
		if m, err := channelmap.New(p.srcChannels, spec.Channels); err == nil {
			p.mapper = m
		}
	}
	if cap(p.scratchMapped) < outWritten*spec.Channels {
		p.scratchMapped = make([]float32, outWritten*spec.Channels)
	}
	mapped := p.scratchMapped[:outWritten*spec.Channels]
	p.mapper.Map(mapped, resampOut[:outWritten*p.srcChannels])

	signal.Fill(out, 0)
	copy(out[:len(mapped)], mapped)

	if (hitEnd && !p.stopping) || p.fade == nil {
		p.beginStop(spec.SampleRate)
	}

	p.applyGainPan(out, spec, outFrames)

	if p.stopping {
		p.applyFade(out, spec, outFrames)
	}

	if p.stopping && p.fade.Done() {
		p.exhausted = true
	}
	return outFrames
}

func (p *Preloaded) applyGainPan(out []float32, spec signal.Spec, frames int) {
	gain := p.gain.Current()
	p.gain.AdvanceBlock(frames)
	signal.Scale(out, float32(gain))
	if spec.Channels == 2 {
		signal.Pan(out, spec.Channels, float32(p.pan.Current()))
		p.pan.AdvanceBlock(frames)
	}
}

func (p *Preloaded) applyFade(out []float32, spec signal.Spec, frames int) {
	for f := 0; f < frames; f++ {
		g := p.fade.Advance()
		base := f * spec.Channels
		for c := 0; c < spec.Channels; c++ {
			out[base+c] *= g
		}
	}
}

func (p *Preloaded) beginStop(sampleRate int) {
	p.stopping = true
	frames := sampleRate * StopFadeFrames / 1000
	p.fade = NewFade(FadeExponential, frames)
	p.fade.Start(true)
}

// readFrom simulates reading want source frames starting from cursor
// with repeatsRemaining loop budget, honoring the loop region. When
// dst is non-nil the frames are copied in; when nil, only the resulting
// state (cursor, repeats, hitEnd) is computed, letting Write commit the
// exact number of frames the resampler actually consumed without
// re-deciding the loop/exhaustion logic twice.
func (p *Preloaded) readFrom(cursor int64, repeats int, dst []float32, want int) (got int, endCursor int64, endRepeats int, hitEnd bool) {
	pos := cursor
	rem := repeats
	written := 0
	for written < want {
		limit := p.totalFrames
		if p.looping && rem != 0 {
			limit = p.loopEnd
		}
		if pos >= limit {
			if p.looping && rem != 0 {
				pos = p.loopStart
				if rem > 0 {
					rem--
				}
				continue
			}
			hitEnd = true
			break
		}
		avail := limit - pos
		n := want - written
		if int64(n) > avail {
			n = int(avail)
		}
		if dst != nil {
			srcBase := pos * int64(p.srcChannels)
			dstBase := written * p.srcChannels
			copy(dst[dstBase:dstBase+n*p.srcChannels], p.buf[srcBase:srcBase+int64(n*p.srcChannels)])
		}
		pos += int64(n)
		written += n
	}
	if !hitEnd && pos >= p.totalFrames && !(p.looping && rem != 0) {
		hitEnd = true
	}
	return written, pos, rem, hitEnd
}

// IsExhausted implements Source.
func (p *Preloaded) IsExhausted() bool { return p.exhausted }

// Position implements Source.
func (p *Preloaded) Position() time.Duration {
	if p.srcRate == 0 {
		return 0
	}
	return time.Duration(float64(p.framesConsumed) / float64(p.srcRate) * float64(time.Second))
}

// ApplyEvent implements Source.
func (p *Preloaded) ApplyEvent(ev command.Payload) {
	switch e := ev.(type) {
	case command.Stop:
		if !p.stopping {
			p.stopping = true
			if e.FadeFrames == 0 {
				// The default fade's length depends on the device rate,
				// which only Write sees; Write builds it on its next call.
				p.fade = nil
				break
			}
			p.fade = NewFade(FadeExponential, int(e.FadeFrames))
			p.fade.Start(true)
		}
	case command.Seek:
		p.cursor = e.Frame
	case command.SetSpeed:
		p.speed.SetTarget(clampSpeed(e.Speed), e.Smoothing)
	case command.SetGain:
		p.gain.SetTarget(e.Gain, e.Smoothing)
	case command.SetPan:
		p.pan.SetTarget(e.Pan, e.Smoothing)
	case command.SetLoop:
		p.looping = e.Enabled
		p.loopStart = e.Start
		p.loopEnd = e.End
	}
}

func clampSpeed(s float64) float64 {
	const minSpeed = 1e-3
	if s <= 0 {
		return minSpeed
	}
	return s
}

func maxF(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}
