// SPDX-License-Identifier: EPL-2.0

package source

import "sync/atomic"

// sampleRing is a bounded SPSC ring of interleaved float32 frames,
// sized to hold roughly one second of audio at the source's native
// spec per spec.md §4.3. It reuses command.Queue's atomic head/tail
// discipline rather than importing that generic type directly, since
// this ring stores raw float32 samples rather than Commands and must
// avoid any per-push allocation or boxing.
type sampleRing struct {
	data     []float32
	channels int
	capFrame int // capacity in frames, power of two
	mask     int
	head     atomic.Uint64 // next frame to read
	tail     atomic.Uint64 // next frame to write
}

func newSampleRing(channels, capacityFrames int) *sampleRing {
	n := 2
	for n < capacityFrames {
		n <<= 1
	}
	return &sampleRing{
		data:     make([]float32, n*channels),
		channels: channels,
		capFrame: n,
		mask:     n - 1,
	}
}

// availableToRead reports how many frames are ready for Read.
func (r *sampleRing) availableToRead() int {
	return int(r.tail.Load() - r.head.Load())
}

// freeToWrite reports how many frames can be written before the ring is
// full.
func (r *sampleRing) freeToWrite() int {
	return r.capFrame - r.availableToRead()
}

// write appends frames from src (interleaved, r.channels wide) up to
// however many frames fit. Returns frames actually written.
func (r *sampleRing) write(src []float32) int {
	frames := len(src) / r.channels
	free := r.freeToWrite()
	if frames > free {
		frames = free
	}
	tail := r.tail.Load()
	for i := 0; i < frames; i++ {
		slot := int(tail+uint64(i)) & r.mask
		copy(r.data[slot*r.channels:(slot+1)*r.channels], src[i*r.channels:(i+1)*r.channels])
	}
	r.tail.Store(tail + uint64(frames))
	return frames
}

// read fills dst (interleaved, r.channels wide) from the ring, up to
// however many frames are available. Returns frames actually read.
func (r *sampleRing) read(dst []float32) int {
	frames := len(dst) / r.channels
	avail := r.availableToRead()
	if frames > avail {
		frames = avail
	}
	head := r.head.Load()
	for i := 0; i < frames; i++ {
		slot := int(head+uint64(i)) & r.mask
		copy(dst[i*r.channels:(i+1)*r.channels], r.data[slot*r.channels:(slot+1)*r.channels])
	}
	r.head.Store(head + uint64(frames))
	return frames
}

// reset drops all buffered frames, used after a seek flush.
func (r *sampleRing) reset() {
	r.head.Store(r.tail.Load())
}
