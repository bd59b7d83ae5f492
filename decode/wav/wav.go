// SPDX-License-Identifier: EPL-2.0

// Package wav decodes RIFF/WAVE files into decode.Source streams,
// upgrading github.com/ik5/audpbx's hand-rolled 16-bit-PCM-only
// formats/wav decoder to the full bit-depth range go-audio/wav
// supports, plus the embedded loop-region metadata
// (spec.md §6's "loop_region?" decoder field) that the teacher's
// decoder never surfaced.
package wav

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"

	goaudio "github.com/go-audio/audio"
	gowav "github.com/go-audio/wav"

	"github.com/ik5/sonora/decode"
)

// Decoder decodes RIFF/WAVE streams.
type Decoder struct{}

// Decode implements decode.Decoder. The stream is fully buffered so
// both the go-audio/wav PCM decoder and this package's own smpl-chunk
// loop-region scan can each seek independently.
func (Decoder) Decode(r io.Reader) (decode.Source, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("wav: read: %w", err)
	}

	dec := gowav.NewDecoder(bytes.NewReader(data))
	if !dec.IsValidFile() {
		return nil, fmt.Errorf("wav: not a valid RIFF/WAVE file")
	}
	dec.ReadInfo()
	if err := dec.Err(); err != nil {
		return nil, fmt.Errorf("wav: reading header: %w", err)
	}
	if err := dec.FwdToPCM(); err != nil {
		return nil, fmt.Errorf("wav: seeking to data chunk: %w", err)
	}

	loopStart, loopEnd, hasLoop := parseSampleLoop(data)

	return &source{
		data:       data,
		dec:        dec,
		channels:   int(dec.NumChans),
		sampleRate: int(dec.SampleRate),
		bitDepth:   int(dec.BitDepth),
		loopStart:  loopStart,
		loopEnd:    loopEnd,
		hasLoop:    hasLoop,
	}, nil
}

type source struct {
	data []byte
	dec  *gowav.Decoder

	channels   int
	sampleRate int
	bitDepth   int

	frame     int64
	loopStart int64
	loopEnd   int64
	hasLoop   bool

	intBuf *goaudio.IntBuffer
}

func (s *source) SampleRate() int { return s.sampleRate }
func (s *source) Channels() int   { return s.channels }

func (s *source) TotalFrames() int64 {
	dur, err := s.dec.Duration()
	if err != nil || s.sampleRate == 0 {
		return -1
	}
	return int64(dur.Seconds() * float64(s.sampleRate))
}

func (s *source) LoopRegion() (start, end int64, ok bool) {
	return s.loopStart, s.loopEnd, s.hasLoop
}

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
		return 0, fmt.Errorf("wav: decode: %w", err)
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

func (s *source) Seek(frame int64) error {
	dec := gowav.NewDecoder(bytes.NewReader(s.data))
	dec.ReadInfo()
	if err := dec.Err(); err != nil {
		return fmt.Errorf("wav: seek: %w", err)
	}
	if err := dec.FwdToPCM(); err != nil {
		return fmt.Errorf("wav: seek: %w", err)
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
			return fmt.Errorf("wav: seek: %w", err)
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

// parseSampleLoop scans the raw RIFF chunk list for a "smpl" chunk and
// extracts its first loop region, per the WAV smpl chunk layout (RIFF
// spec / Interactive Audio SIG "Sample Loops" extension). go-audio/wav
// does not surface this chunk, so it is parsed directly here.
func parseSampleLoop(data []byte) (start, end int64, ok bool) {
	if len(data) < 12 || string(data[0:4]) != "RIFF" || string(data[8:12]) != "WAVE" {
		return 0, 0, false
	}
	pos := 12
	for pos+8 <= len(data) {
		id := string(data[pos : pos+4])
		size := int(binary.LittleEndian.Uint32(data[pos+4 : pos+8]))
		body := pos + 8
		if body+size > len(data) {
			break
		}
		if id == "smpl" && size >= 36+24 {
			numLoops := int(binary.LittleEndian.Uint32(data[body+28 : body+32]))
			if numLoops > 0 {
				loopOff := body + 36
				loopStart := binary.LittleEndian.Uint32(data[loopOff+8 : loopOff+12])
				loopEnd := binary.LittleEndian.Uint32(data[loopOff+12 : loopOff+16])
				return int64(loopStart), int64(loopEnd), true
			}
		}
		pos = body + size
		if size%2 == 1 {
			pos++ // chunks are word-aligned
		}
	}
	return 0, 0, false
}
