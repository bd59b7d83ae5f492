// SPDX-License-Identifier: EPL-2.0

// Package aiff decodes AIFF/AIFF-C streams into decode.Source via
// github.com/go-audio/aiff, generalizing github.com/ik5/audpbx's
// formats/aiff decoder (which hand-rolled an io.ReadSeeker shim and
// an aiffReader test seam around *aiff.Decoder) to the full decode.Source
// contract, including the frame-count and loop-region fields AIFF
// itself has no equivalent of.
package aiff

import (
	"bytes"
	"fmt"
	"io"

	"github.com/go-audio/aiff"
	goaudio "github.com/go-audio/audio"

	"github.com/ik5/sonora/decode"
)

// aiffReader narrows *aiff.Decoder to the methods this package uses,
// mirroring the teacher's test seam.
type aiffReader interface {
	Format() *goaudio.Format
	PCMBuffer(buf *goaudio.IntBuffer) (int, error)
}

// Decoder decodes AIFF/AIFF-C streams.
type Decoder struct{}

// Decode implements decode.Decoder. The stream is fully buffered so
// Seek can rebuild a fresh *aiff.Decoder over the same bytes; aiff.NewDecoder
// requires an io.ReadSeeker, which an arbitrary io.Reader may not be.
func (Decoder) Decode(r io.Reader) (decode.Source, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("aiff: read: %w", err)
	}

	dec := aiff.NewDecoder(bytes.NewReader(data))
	if !dec.IsValidFile() {
		return nil, fmt.Errorf("aiff: not a valid AIFF/AIFF-C file")
	}
	dec.ReadInfo()
	if err := dec.Err(); err != nil {
		return nil, fmt.Errorf("aiff: reading header: %w", err)
	}

	format := dec.Format()
	if format == nil {
		return nil, fmt.Errorf("aiff: missing COMM chunk")
	}

	return &source{
		data:       data,
		dec:        dec,
		channels:   format.NumChannels,
		sampleRate: format.SampleRate,
		bitDepth:   int(dec.BitDepth),
	}, nil
}

type source struct {
	data []byte
	dec  aiffReader

	channels   int
	sampleRate int
	bitDepth   int

	frame int64

	intBuf *goaudio.IntBuffer
}

func (s *source) SampleRate() int { return s.sampleRate }
func (s *source) Channels() int   { return s.channels }

// TotalFrames is unknown; *aiff.Decoder exposes no duration or sample
// count ahead of a full PCM read, unlike go-audio/wav's Duration.
func (s *source) TotalFrames() int64 { return -1 }

// LoopRegion is never present; AIFF's marker/instrument chunks can
// encode sustain/release loop points but that layout is not parsed here.
func (s *source) LoopRegion() (start, end int64, ok bool) { return 0, 0, false }

func (s *source) ReadSamples(dst []float32) (int, error) {
	if s.channels == 0 {
		return 0, io.EOF
	}
	frames := len(dst) / s.channels
	if frames == 0 {
		return 0, nil
	}

	if s.intBuf == nil || cap(s.intBuf.Data) < frames*s.channels {
		s.intBuf = &goaudio.IntBuffer{
			Format: &goaudio.Format{NumChannels: s.channels, SampleRate: s.sampleRate},
			Data:   make([]int, frames*s.channels),
		}
	}
	buf := s.intBuf
	buf.Data = buf.Data[:frames*s.channels]

	n, err := s.dec.PCMBuffer(buf)
	if err != nil && err != io.EOF {
		return 0, fmt.Errorf("aiff: decode: %w", err)
	}

	maxVal := float32(int64(1) << uint(s.bitDepth-1))
	for i := 0; i < n; i++ {
		dst[i] = float32(buf.Data[i]) / maxVal
	}
	s.frame += int64(n / s.channels)

	if n == 0 {
		return 0, io.EOF
	}
	return n, nil
}

// Seek rebuilds the underlying decoder and discard-reads forward,
// since *aiff.Decoder has no native frame-seek either.
func (s *source) Seek(frame int64) error {
	dec := aiff.NewDecoder(bytes.NewReader(s.data))
	dec.ReadInfo()
	if err := dec.Err(); err != nil {
		return fmt.Errorf("aiff: seek: %w", err)
	}
	s.dec = dec
	s.frame = 0

	remaining := frame
	discard := &goaudio.IntBuffer{
		Format: &goaudio.Format{NumChannels: s.channels, SampleRate: s.sampleRate},
	}
	const chunk = 4096
	for remaining > 0 {
		n := remaining
		if n > chunk {
			n = chunk
		}
		discard.Data = make([]int, int(n)*s.channels)
		read, err := s.dec.PCMBuffer(discard)
		if err != nil && err != io.EOF {
			return fmt.Errorf("aiff: seek: %w", err)
		}
		if read == 0 {
			break
		}
		remaining -= int64(read / s.channels)
	}
	s.frame = frame - remaining
	return nil
}

func (s *source) Close() error { return nil }
