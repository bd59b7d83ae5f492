// SPDX-License-Identifier: EPL-2.0

package device

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"
)

// WAVWriter is a drain-to-file Device: instead of a real clock, Start
// pulls the callback in a tight loop and writes every sample straight
// to w as it's produced, evolving the teacher's formats/wav.WriteWAV16
// (mono 16-bit PCM, single in-memory pass) into a streaming 32-bit IEEE
// float writer with a "fact" chunk, since the frame count isn't known
// until Stop, per spec.md §6's bit-exact drain-to-file requirement.
type WAVWriter struct {
	w        io.WriteSeeker
	rate     int
	channels int

	frames uint64
	stopCh chan struct{}
	done   chan struct{}
}

const (
	wavFmtTagFloat = 3
	wavHeaderSize = 12 + (8 + 16) + (8 + 4) + 8 // RIFF+WAVE, "fmt " header+body, "fact" header+body, "data" header
)

// NewWAVWriter writes a placeholder header to w immediately (patched at
// Stop once the total frame count is known) and returns a Device that
// streams float32 samples to it.
func NewWAVWriter(w io.WriteSeeker, sampleRate, channels int) (*WAVWriter, error) {
	wr := &WAVWriter{w: w, rate: sampleRate, channels: channels}
	if err := wr.writeHeader(0); err != nil {
		return nil, err
	}
	return wr, nil
}

// Open is a no-op: the header is written by NewWAVWriter.
func (w *WAVWriter) Open() error { return nil }

// SampleRate implements Device.
func (w *WAVWriter) SampleRate() int { return w.rate }

// ChannelCount implements Device.
func (w *WAVWriter) ChannelCount() int { return w.channels }

// IsSuspended always reports false: a file sink is never suspended.
func (w *WAVWriter) IsSuspended() bool { return false }

// Start pulls cb in a tight loop (no real-time pacing) until Stop is
// called, writing every produced sample to the underlying file.
func (w *WAVWriter) Start(cb Callback) error {
	w.stopCh = make(chan struct{})
	w.done = make(chan struct{})
	const blockFrames = 4096
	buf := make([]float32, blockFrames*w.channels)
	raw := make([]byte, blockFrames*w.channels*4)

	go func() {
		defer close(w.done)
		for {
			select {
			case <-w.stopCh:
				return
			default:
			}
			cb(buf, blockFrames, w.frames)
			n := blockFrames * w.channels
			for i := 0; i < n; i++ {
				binary.LittleEndian.PutUint32(raw[i*4:i*4+4], math.Float32bits(buf[i]))
			}
			if _, err := w.w.Write(raw); err != nil {
				return
			}
			w.frames += uint64(blockFrames)
		}
	}()
	return nil
}

// Stop halts the pull loop, waits for the writer goroutine to drain,
// and patches the header's size fields now that the total frame count
// is known.
func (w *WAVWriter) Stop() error {
	if w.stopCh != nil {
		close(w.stopCh)
		<-w.done
	}
	return w.writeHeader(w.frames)
}

func (w *WAVWriter) writeHeader(frames uint64) error {
	bitsPerSample := uint16(32)
	byteRate := uint32(w.rate) * uint32(w.channels) * uint32(bitsPerSample/8)
	blockAlign := uint16(w.channels) * uint16(bitsPerSample/8)
	dataSize := uint32(frames) * uint32(w.channels) * uint32(bitsPerSample/8)
	riffSize := uint32(wavHeaderSize) + dataSize - 8

	header := make([]byte, wavHeaderSize)
	copy(header[0:4], "RIFF")
	binary.LittleEndian.PutUint32(header[4:8], riffSize)
	copy(header[8:12], "WAVE")

	copy(header[12:16], "fmt ")
	binary.LittleEndian.PutUint32(header[16:20], 16)
	binary.LittleEndian.PutUint16(header[20:22], wavFmtTagFloat)
	binary.LittleEndian.PutUint16(header[22:24], uint16(w.channels))
	binary.LittleEndian.PutUint32(header[24:28], uint32(w.rate))
	binary.LittleEndian.PutUint32(header[28:32], byteRate)
	binary.LittleEndian.PutUint16(header[32:34], blockAlign)
	binary.LittleEndian.PutUint16(header[34:36], bitsPerSample)

	copy(header[36:40], "fact")
	binary.LittleEndian.PutUint32(header[40:44], 4)
	binary.LittleEndian.PutUint32(header[44:48], uint32(frames))

	copy(header[48:52], "data")
	binary.LittleEndian.PutUint32(header[52:56], dataSize)

	if _, err := w.w.Seek(0, io.SeekStart); err != nil {
		return fmt.Errorf("device: seek wav header: %w", err)
	}
	if _, err := w.w.Write(header); err != nil {
		return fmt.Errorf("device: write wav header: %w", err)
	}
	if frames > 0 {
		if _, err := w.w.Seek(0, io.SeekEnd); err != nil {
			return fmt.Errorf("device: seek wav end: %w", err)
		}
	}
	return nil
}
