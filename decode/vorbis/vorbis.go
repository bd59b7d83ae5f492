// SPDX-License-Identifier: EPL-2.0

// Package vorbis decodes Ogg Vorbis streams into decode.Source via
// github.com/jfreymuth/oggvorbis, which already produces interleaved
// float32 samples, needing no int-to-float conversion layer unlike
// the wav and mp3 decoders in this module.
package vorbis

import (
	"fmt"
	"io"

	"github.com/jfreymuth/oggvorbis"

	"github.com/ik5/sonora/decode"
)

// Decoder decodes Ogg Vorbis streams.
type Decoder struct{}

// Decode implements decode.Decoder.
func (Decoder) Decode(r io.Reader) (decode.Source, error) {
	rd, err := oggvorbis.NewReader(r)
	if err != nil {
		return nil, fmt.Errorf("vorbis: %w", err)
	}
	return &source{rd: rd}, nil
}

type source struct {
	rd  *oggvorbis.Reader
	pos int64
}

func (s *source) SampleRate() int { return s.rd.SampleRate() }
func (s *source) Channels() int   { return s.rd.Channels() }

func (s *source) TotalFrames() int64 {
	length := s.rd.Length()
	if length <= 0 {
		return -1
	}
	return length
}

// LoopRegion is never present for Ogg Vorbis in this decoder; Vorbis
// comment-based loop tags (LOOPSTART/LOOPLENGTH), as used by some game
// engines, are not part of the spec's decoder contract and are left
// unparsed.
func (s *source) LoopRegion() (start, end int64, ok bool) { return 0, 0, false }

func (s *source) ReadSamples(dst []float32) (int, error) {
	n, err := s.rd.Read(dst)
	if err != nil && err != io.EOF {
		return 0, fmt.Errorf("vorbis: decode: %w", err)
	}
	if s.Channels() > 0 {
		s.pos += int64(n / s.Channels())
	}
	if n == 0 && err == io.EOF {
		return 0, io.EOF
	}
	return n, nil
}

func (s *source) Seek(frame int64) error {
	if err := s.rd.SetPosition(frame); err != nil {
		return fmt.Errorf("vorbis: seek: %w", err)
	}
	s.pos = frame
	return nil
}

func (s *source) Close() error { return nil }
