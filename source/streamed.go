// SPDX-License-Identifier: EPL-2.0

package source

import (
	"io"
	"sync/atomic"
	"time"

	"github.com/ik5/sonora/channelmap"
	"github.com/ik5/sonora/command"
	"github.com/ik5/sonora/decode"
	"github.com/ik5/sonora/param"
	"github.com/ik5/sonora/signal"
)

// refillThreshold is the fraction of ring capacity below which the
// audio-thread reader wakes the decoder worker, per spec.md §4.3's
// "wakes when the ring falls below a refill threshold (e.g. 50%)".
const refillThreshold = 0.5

// Streamed plays back a decode.Source too large to preload, decoding on
// a dedicated worker goroutine into a bounded SPSC ring the audio
// thread drains, per spec.md §4.3. This generalizes
// github.com/ik5/audpbx's pull-straight-from-Source model (used
// synchronously by Resampler.ReadSamples) into the producer/consumer
// split real-time streaming requires: the audio thread must never block
// on file or network I/O.
type Streamed struct {
	dec         decode.Source
	srcChannels int
	srcRate     int

	ring   *sampleRing
	wakeCh chan struct{}
	seekCh chan int64
	stopCh chan struct{}
	bus    *command.Bus
	id     command.ID

	resampler Resampler
	mapper    channelmap.Mapper

	speed *param.Ramp
	gain  *param.Ramp
	pan   *param.Ramp

	fade      *Fade
	stopping  bool
	exhausted bool

	// eofReached is set by decodeLoop once dec.ReadSamples has actually
	// returned io.EOF, and read by Write to tell a genuine end of stream
	// apart from a ring that is merely running dry while the decoder is
	// still catching up (e.g. a slow or briefly stalled reader): only
	// the former should ever count toward workerExhaustedStreak.
	eofReached atomic.Bool

	workerExhaustedStreak int
	framesConsumed        int64

	scratchSrc    []float32
	scratchResamp []float32
	scratchMapped []float32
}

// NewStreamed starts a decoder worker goroutine over dec and returns a
// Streamed source ready to Write. deviceChannels sizes the initial
// channel mapper. bus/id are used to report Underrun/StoppedWithError
// status events; either may be zero-valued to disable reporting.
func NewStreamed(dec decode.Source, resampler Resampler, deviceChannels int, bus *command.Bus, id command.ID) *Streamed {
	srcChannels := dec.Channels()
	mapper, err := channelmap.New(srcChannels, deviceChannels)
	if err != nil {
		mapper, _ = channelmap.New(srcChannels, srcChannels)
	}
	ringSeconds := 1
	s := &Streamed{
		dec:         dec,
		srcChannels: srcChannels,
		srcRate:     dec.SampleRate(),
		ring:        newSampleRing(srcChannels, dec.SampleRate()*ringSeconds),
		wakeCh:      make(chan struct{}, 1),
		seekCh:      make(chan int64, 1),
		stopCh:      make(chan struct{}),
		bus:         bus,
		id:          id,
		resampler:   resampler,
		mapper:      mapper,
		speed:       param.NewRamp(1),
		gain:        param.NewRamp(1),
		pan:         param.NewRamp(0),
		fade:        NewFade(FadeExponential, 1),
	}
	go s.decodeLoop()
	s.wake()
	return s
}

func (s *Streamed) wake() {
	select {
	case s.wakeCh <- struct{}{}:
	default:
	}
}

// decodeLoop runs on its own goroutine, filling the ring whenever it
// has room, and honoring seek requests and shutdown. It never touches
// the audio thread's scratch buffers.
//
// eofStreak counts consecutive wake cycles that ended in io.EOF without
// having decoded a single new sample, i.e. the decoder itself is done
// rather than merely between chunks. Per spec.md §4.3's "exhausted
// twice in a row", the worker keeps s.eofReached cleared (so Write
// treats an empty ring as a transient stall it should ride out with
// silence) until that has happened twice, then sets it and stops: a
// third wake would just spin reading EOF forever.
func (s *Streamed) decodeLoop() {
	chunk := make([]float32, 4096*s.srcChannels)
	eofStreak := 0
	for {
		select {
		case <-s.stopCh:
			_ = s.dec.Close()
			return
		case frame := <-s.seekCh:
			s.ring.reset()
			eofStreak = 0
			s.eofReached.Store(false)
			if err := s.dec.Seek(frame); err != nil && s.bus != nil {
				_ = s.bus.Send(command.StoppedWithError{Source: s.id, Err: err})
			}
		case <-s.wakeCh:
		}

		gotData := false
		hitEOF := false
		for s.ring.freeToWrite() > s.ring.capFrame/4 {
			n, err := s.dec.ReadSamples(chunk)
			if n > 0 {
				s.ring.write(chunk[:n])
				gotData = true
			}
			if err == io.EOF {
				hitEOF = true
				break
			}
			if err != nil {
				if s.bus != nil {
					_ = s.bus.Send(command.StoppedWithError{Source: s.id, Err: err})
				}
				return
			}
			if n == 0 {
				break
			}
		}

		if hitEOF && !gotData {
			eofStreak++
		} else {
			eofStreak = 0
		}
		if eofStreak >= 2 {
			s.eofReached.Store(true)
			_ = s.dec.Close()
			return
		}
	}
}

// Close stops the decoder worker and releases the underlying decoder.
func (s *Streamed) Close() {
	close(s.stopCh)
}

// Write implements Source.
func (s *Streamed) Write(out []float32, spec signal.Spec, now uint64) int {
	if s.exhausted {
		signal.Fill(out, 0)
		return 0
	}
	outFrames := len(out) / spec.Channels
	if outFrames == 0 {
		return 0
	}

	speedStart := s.speed.Current()
	speedEnd := s.speed.AdvanceBlock(outFrames)
	ratioStart := clampSpeed(speedStart) * float64(s.srcRate) / float64(spec.SampleRate)
	ratioEnd := clampSpeed(speedEnd) * float64(s.srcRate) / float64(spec.SampleRate)

	needed := int(float64(outFrames)*maxF(ratioStart, ratioEnd)) + 8
	if cap(s.scratchSrc) < needed*s.srcChannels {
		s.scratchSrc = make([]float32, needed*s.srcChannels)
	}
	pulled := s.ring.read(s.scratchSrc[:needed*s.srcChannels])
	underrunFrames := needed - pulled
	if s.ring.availableToRead() < int(float64(s.ring.capFrame)*refillThreshold) {
		s.wake()
	}

	// A pulled-nothing block only counts toward workerExhaustedStreak
	// once the decoder itself has hit genuine EOF (eofReached, set by
	// decodeLoop): otherwise this is a transient stall (a slow reader,
	// a network hiccup) and the right response is silence plus a wake,
	// not treating the source as finished. Per spec.md §8's stall
	// scenario, playback must resume on its own once the decoder
	// catches up, however long that takes.
	if pulled == 0 {
		if s.eofReached.Load() {
			s.workerExhaustedStreak++
		}
	} else {
		s.workerExhaustedStreak = 0
	}
	if underrunFrames > 0 && s.bus != nil {
		_ = s.bus.Send(command.Underrun{Source: s.id, Frames: underrunFrames})
	}

	if cap(s.scratchResamp) < outFrames*s.srcChannels {
		s.scratchResamp = make([]float32, outFrames*s.srcChannels)
	}
	resampOut := s.scratchResamp[:outFrames*s.srcChannels]
	_, outWritten := s.resampler.Process(s.scratchSrc[:pulled*s.srcChannels], resampOut, ratioStart, ratioEnd)
	s.framesConsumed += int64(pulled)

	if s.mapper.SrcChannels() != s.srcChannels || s.mapper.DstChannels() != spec.Channels {
		if m, err := channelmap.New(s.srcChannels, spec.Channels); err == nil {
			s.mapper = m
		}
	}
	if cap(s.scratchMapped) < outWritten*spec.Channels {
		s.scratchMapped = make([]float32, outWritten*spec.Channels)
	}
	mapped := s.scratchMapped[:outWritten*spec.Channels]
	s.mapper.Map(mapped, resampOut[:outWritten*s.srcChannels])

	signal.Fill(out, 0)
	copy(out[:len(mapped)], mapped)

	gain := s.gain.Current()
	s.gain.AdvanceBlock(outFrames)
	signal.Scale(out, float32(gain))
	if spec.Channels == 2 {
		signal.Pan(out, spec.Channels, float32(s.pan.Current()))
		s.pan.AdvanceBlock(outFrames)
	}

	if (s.workerExhaustedStreak >= 2 && !s.stopping) || s.fade == nil {
		s.stopping = true
		frames := spec.SampleRate * 4 / 1000
		s.fade = NewFade(FadeExponential, frames)
		s.fade.Start(true)
	}
	if s.stopping {
		for f := 0; f < outFrames; f++ {
			g := s.fade.Advance()
			base := f * spec.Channels
			for c := 0; c < spec.Channels; c++ {
				out[base+c] *= g
			}
		}
		if s.fade.Done() {
			s.exhausted = true
			if s.bus != nil {
				_ = s.bus.Send(command.Stopped{Source: s.id, Exhausted: true})
			}
		}
	}
	return outFrames
}

// IsExhausted implements Source.
func (s *Streamed) IsExhausted() bool { return s.exhausted }

// Position implements Source.
func (s *Streamed) Position() time.Duration {
	if s.srcRate == 0 {
		return 0
	}
	return time.Duration(float64(s.framesConsumed) / float64(s.srcRate) * float64(time.Second))
}

// ApplyEvent implements Source.
func (s *Streamed) ApplyEvent(ev command.Payload) {
	switch e := ev.(type) {
	case command.Stop:
		if !s.stopping {
			s.stopping = true
			if e.FadeFrames == 0 {
				// The default fade's length depends on the device rate,
				// which only Write sees; Write builds it on its next call.
				s.fade = nil
				break
			}
			s.fade = NewFade(FadeExponential, int(e.FadeFrames))
			s.fade.Start(true)
		}
	case command.Seek:
		select {
		case s.seekCh <- e.Frame:
		default:
		}
	case command.SetSpeed:
		s.speed.SetTarget(clampSpeed(e.Speed), e.Smoothing)
	case command.SetGain:
		s.gain.SetTarget(e.Gain, e.Smoothing)
	case command.SetPan:
		s.pan.SetTarget(e.Pan, e.Smoothing)
	}
}
