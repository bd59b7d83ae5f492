// SPDX-License-Identifier: EPL-2.0

// Package decode defines the source-agnostic decoder interface
// consumed by the source and source/bank packages, generalizing
// github.com/ik5/audpbx's audio.Source/audio.Decoder/audio.Registry
// (io.Reader in, interleaved float32 out) with the loop-region and
// total-frame-count metadata spec.md §6's decoder interface requires.
package decode

import (
	"errors"
	"fmt"
	"io"
	"sync"
)

// ErrUnsupportedFormat is returned by Registry.Decode when no Decoder
// is registered for the requested format key. FLAC/AAC/ALAC/MP4 are
// named in spec.md §6 as delegated to "a decoder library"; this
// sentinel keeps the registry surface extensible for those without the
// core depending on codecs the pack cannot exercise.
var ErrUnsupportedFormat = errors.New("decode: unsupported format")

// Source streams decoded interleaved float32 samples in [-1,1] from a
// single audio file or stream.
type Source interface {
	// SampleRate of the decoded PCM stream in Hz.
	SampleRate() int
	// Channels is the interleaved channel count.
	Channels() int
	// TotalFrames returns the stream's total frame count, or -1 when
	// unknown (e.g. an unseekable network stream).
	TotalFrames() int64
	// LoopRegion returns the start/end frame of an embedded loop
	// point, and whether one is present.
	LoopRegion() (start, end int64, ok bool)
	// ReadSamples fills dst with interleaved float32 samples. Returns
	// the number of float32 values written. n == 0 with err == io.EOF
	// signals end of stream.
	ReadSamples(dst []float32) (n int, err error)
	// Seek repositions the stream to the given frame, when supported.
	Seek(frame int64) error
	// Close releases any resources held by the decoder.
	Close() error
}

// Decoder constructs a Source from an input reader for one container
// or codec format.
type Decoder interface {
	Decode(r io.Reader) (Source, error)
}

// Registry maps format keys ("wav", "mp3", "ogg", "aiff") to Decoders,
// generalizing github.com/ik5/audpbx's audio.Registry with concurrent
// registration safety unchanged.
type Registry struct {
	mu     sync.RWMutex
	codecs map[string]Decoder
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{codecs: make(map[string]Decoder)}
}

// Register associates a Decoder with a format key, overwriting any
// existing registration.
func (r *Registry) Register(format string, d Decoder) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.codecs[format] = d
}

// Get returns the Decoder registered for format, if any.
func (r *Registry) Get(format string) (Decoder, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	d, ok := r.codecs[format]
	return d, ok
}

// Decode looks up the Decoder for format and decodes r with it.
func (r *Registry) Decode(format string, rd io.Reader) (Source, error) {
	d, ok := r.Get(format)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
	return d.Decode(rd)
}
