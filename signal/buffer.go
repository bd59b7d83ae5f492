// SPDX-License-Identifier: EPL-2.0

package signal

// Buffer is an interleaved, fixed-capacity float32 sample buffer sized
// for a given Spec and a maximum block length. It never grows after
// construction: every mixer and source preallocates its scratch Buffers
// once, and reuses them for the lifetime of the audio callback, exactly
// as spec.md's "no heap allocation inside the audio callback" invariant
// requires.
type Buffer struct {
	data     []float32
	channels int
	frames   int // number of frames currently valid in data
}

// NewBuffer allocates a Buffer able to hold up to maxFrames frames of
// channels-channel interleaved audio. Allocation only happens here, at
// setup time, never during Process/Write.
func NewBuffer(channels, maxFrames int) *Buffer {
	return &Buffer{
		data:     make([]float32, channels*maxFrames),
		channels: channels,
		frames:   0,
	}
}

// Channels returns the buffer's channel count.
func (b *Buffer) Channels() int { return b.channels }

// Cap returns the maximum number of frames the buffer can hold.
func (b *Buffer) Cap() int {
	if b.channels == 0 {
		return 0
	}
	return len(b.data) / b.channels
}

// Frames returns the number of frames currently considered valid.
func (b *Buffer) Frames() int { return b.frames }

// SetFrames marks n frames as valid. Panics if n exceeds capacity.
func (b *Buffer) SetFrames(n int) {
	if n < 0 || n > b.Cap() {
		panic("signal: SetFrames out of range")
	}
	b.frames = n
}

// Samples returns the raw interleaved slice covering the valid frames.
func (b *Buffer) Samples() []float32 {
	return b.data[:b.frames*b.channels]
}

// Full returns the raw interleaved slice covering the full capacity,
// regardless of how many frames are marked valid. Useful for writing
// into the buffer before calling SetFrames.
func (b *Buffer) Full() []float32 {
	return b.data
}

// Reset zeroes the buffer's valid region and drops the frame count to 0.
func (b *Buffer) Reset() {
	Fill(b.data, 0)
	b.frames = 0
}
