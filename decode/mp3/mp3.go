// SPDX-License-Identifier: EPL-2.0

// Package mp3 decodes MPEG-1/2 Layer III streams into decode.Source
// via github.com/hajimehoshi/go-mp3, replacing
// github.com/ik5/audpbx's formats/mp3 hand-rolled frame parser.
package mp3

import (
	"fmt"
	"io"

	gomp3 "github.com/hajimehoshi/go-mp3"

	"github.com/ik5/sonora/decode"
)

// mp3Channels is fixed: go-mp3 always decodes to interleaved stereo
// 16-bit PCM regardless of the source file's channel count.
const mp3Channels = 2

// Decoder decodes MP3 streams.
type Decoder struct{}

// Decode implements decode.Decoder.
func (Decoder) Decode(r io.Reader) (decode.Source, error) {
	dec, err := gomp3.NewDecoder(r)
	if err != nil {
		return nil, fmt.Errorf("mp3: %w", err)
	}
	return &source{dec: dec}, nil
}

type source struct {
	dec *gomp3.Decoder
	buf []byte
	pos int64
}

func (s *source) SampleRate() int { return s.dec.SampleRate() }
func (s *source) Channels() int   { return mp3Channels }

func (s *source) TotalFrames() int64 {
	length := s.dec.Length()
	if length < 0 {
		return -1
	}
	return length / (mp3Channels * 2)
}

// LoopRegion is never present for MP3; the format has no equivalent
// of WAV's smpl chunk.
func (s *source) LoopRegion() (start, end int64, ok bool) { return 0, 0, false }

func (s *source) ReadSamples(dst []float32) (int, error) {
	frames := len(dst) / mp3Channels
	if frames == 0 {
		return 0, nil
	}
	needed := frames * mp3Channels * 2
	if cap(s.buf) < needed {
		s.buf = make([]byte, needed)
	}
	buf := s.buf[:needed]

	n, err := io.ReadFull(s.dec, buf)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return 0, fmt.Errorf("mp3: decode: %w", err)
	}
	samples := n / 2
	for i := 0; i < samples; i++ {
		v := int16(buf[2*i]) | int16(buf[2*i+1])<<8
		dst[i] = float32(v) / 32768.0
	}
	s.pos += int64(samples / mp3Channels)

	if samples == 0 {
		return 0, io.EOF
	}
	return samples, nil
}

func (s *source) Seek(frame int64) error {
	byteOffset := frame * mp3Channels * 2
	if _, err := s.dec.Seek(byteOffset, io.SeekStart); err != nil {
		return fmt.Errorf("mp3: seek: %w", err)
	}
	s.pos = frame
	return nil
}

func (s *source) Close() error { return nil }
