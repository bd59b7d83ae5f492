// SPDX-License-Identifier: EPL-2.0

package signal

import "sync/atomic"

// SharedBuffer is an immutable, reference-counted interleaved sample
// buffer. Preloaded file sources clone a SharedBuffer cheaply (each
// clone gets its own playback cursor, per spec.md §4.2); the underlying
// float32 slice is never mutated after construction.
//
// The audio thread only ever decrements the refcount (Release). When a
// count drops to zero it is pushed onto a bounded channel drained by a
// background collector goroutine, so freeing memory never happens on the
// audio thread, per spec.md §9's "shared immutable sample buffers" note.
type SharedBuffer struct {
	Data       []float32
	SampleRate int
	Channels   int
	LoopStart  int
	LoopEnd    int
	HasLoop    bool

	refs *atomic.Int64
}

// NewSharedBuffer wraps data with an initial reference count of 1.
func NewSharedBuffer(data []float32, sampleRate, channels int) *SharedBuffer {
	refs := &atomic.Int64{}
	refs.Store(1)
	return &SharedBuffer{
		Data:       data,
		SampleRate: sampleRate,
		Channels:   channels,
		refs:       refs,
	}
}

// WithLoop returns a copy of sb (sharing the same underlying data and
// refcount) with a loop region set. start/end are frame indices; the
// region is treated as non-looping if invalid (end <= start, or either
// bound out of range), per spec.md §4.2's edge-case handling.
func (sb *SharedBuffer) WithLoop(start, end int) *SharedBuffer {
	frames := sb.FrameCount()
	valid := end > start && start >= 0 && end <= frames
	clone := *sb
	clone.LoopStart = start
	clone.LoopEnd = end
	clone.HasLoop = valid
	return &clone
}

// FrameCount returns the number of frames held.
func (sb *SharedBuffer) FrameCount() int {
	if sb.Channels == 0 {
		return 0
	}
	return len(sb.Data) / sb.Channels
}

// Retain increments the reference count and returns sb, so a clone can
// be produced with `clone := original.Retain()`.
func (sb *SharedBuffer) Retain() *SharedBuffer {
	sb.refs.Add(1)
	return sb
}

// Release decrements the reference count. When it reaches zero the
// buffer is handed to the background collector for reclamation. Safe to
// call from the audio thread: it never allocates and the channel send is
// non-blocking.
func (sb *SharedBuffer) Release() {
	if sb.refs.Add(-1) == 0 {
		collectorSend(sb)
	}
}

var collectorCh = make(chan *SharedBuffer, 4096)

func init() {
	go collectorLoop()
}

func collectorLoop() {
	for range collectorCh {
		// The buffer's backing array becomes eligible for GC once this
		// loop drops its reference; nothing else to do explicitly.
	}
}

func collectorSend(sb *SharedBuffer) {
	select {
	case collectorCh <- sb:
	default:
		// Collector queue saturated; the buffer is unreachable from the
		// audio thread already and will still be collected by the GC
		// once this goroutine's reference to it is dropped.
	}
}
