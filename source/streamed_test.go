// SPDX-License-Identifier: EPL-2.0

package source

import (
	"io"
	"sync"
	"testing"
	"time"

	"github.com/ik5/sonora/command"
	"github.com/ik5/sonora/resample"
	"github.com/ik5/sonora/signal"
)

// stallingDecoder is a decode.Source stub whose ReadSamples blocks
// returning silence-free data on demand until told to stall, so a test
// can simulate a slow reader without a real file or network socket.
// After exhausting its chunks it reports io.EOF forever, like a real
// decode.Source at end of stream.
type stallingDecoder struct {
	mu       sync.Mutex
	chunks   [][]float32 // each a full ReadSamples worth of interleaved samples
	stalled  bool
	rate     int
	channels int
}

func (d *stallingDecoder) SampleRate() int          { return d.rate }
func (d *stallingDecoder) Channels() int            { return d.channels }
func (d *stallingDecoder) TotalFrames() int64       { return -1 }
func (d *stallingDecoder) LoopRegion() (int64, int64, bool) { return 0, 0, false }
func (d *stallingDecoder) Seek(int64) error         { return nil }
func (d *stallingDecoder) Close() error             { return nil }

func (d *stallingDecoder) setStalled(v bool) {
	d.mu.Lock()
	d.stalled = v
	d.mu.Unlock()
}

func (d *stallingDecoder) ReadSamples(dst []float32) (int, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.stalled {
		return 0, nil
	}
	if len(d.chunks) == 0 {
		return 0, io.EOF
	}
	chunk := d.chunks[0]
	d.chunks = d.chunks[1:]
	n := copy(dst, chunk)
	return n, nil
}

func TestStreamed_TransientStallSurvivesAndResumes(t *testing.T) {
	t.Parallel()

	const rate = 8000
	dec := &stallingDecoder{rate: rate, channels: 1}
	// Enough chunks to keep the ring comfortably full both before and
	// after the simulated stall.
	for i := 0; i < 40; i++ {
		dec.chunks = append(dec.chunks, sineBuf(2048, 1, 440, rate))
	}

	bus := command.NewBus(16)
	id := command.NewID()
	s := NewStreamed(dec, resample.NewFast(1), 1, bus, id)
	spec := signal.Spec{SampleRate: rate, Channels: 1}
	out := make([]float32, 256)

	// Let the decoder worker fill the ring before stalling it.
	time.Sleep(20 * time.Millisecond)
	dec.setStalled(true)

	// Drain the ring dry: pull far more blocks than the ring holds
	// (1 second at 8kHz mono, 256-frame blocks = ~31 blocks), well past
	// the >=2 threshold a naive implementation would misfire on.
	for i := 0; i < 60; i++ {
		s.Write(out, spec, uint64(i*256))
		if s.IsExhausted() {
			t.Fatalf("source exhausted mid-stall at block %d, want it to keep emitting silence", i)
		}
	}

	dec.setStalled(false)
	s.wake()
	time.Sleep(20 * time.Millisecond)

	sawSound := false
	for i := 60; i < 120; i++ {
		n := s.Write(out, spec, uint64(i*256))
		if n > 0 {
			for _, v := range out {
				if v != 0 {
					sawSound = true
					break
				}
			}
		}
		if s.IsExhausted() {
			break
		}
	}
	if !sawSound {
		t.Fatal("expected playback to resume with non-silent output after the stall cleared")
	}
}

func TestStreamed_GenuineEOFEventuallyExhausts(t *testing.T) {
	t.Parallel()

	const rate = 8000
	dec := &stallingDecoder{rate: rate, channels: 1}
	dec.chunks = append(dec.chunks, sineBuf(256, 1, 440, rate))

	bus := command.NewBus(16)
	id := command.NewID()
	s := NewStreamed(dec, resample.NewFast(1), 1, bus, id)
	spec := signal.Spec{SampleRate: rate, Channels: 1}
	out := make([]float32, 256)

	exhausted := false
	for i := 0; i < 200; i++ {
		s.Write(out, spec, uint64(i*256))
		time.Sleep(time.Millisecond)
		if s.IsExhausted() {
			exhausted = true
			break
		}
	}
	if !exhausted {
		t.Fatal("expected the source to exhaust once the decoder genuinely reaches EOF and the ring runs dry")
	}
}
