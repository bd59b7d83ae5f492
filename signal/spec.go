// SPDX-License-Identifier: EPL-2.0

// Package signal defines the sample-level data model shared by every
// component of the engine: the (sample rate, channel count, frame
// position) triple that every buffer carries, the interleaved float32
// buffer type, and the zero-allocation kernels the audio thread uses to
// fill, copy, sum, scale, pan and clip it.
package signal

import "errors"

// ErrInvalidChannelCount is returned when a Spec is constructed with a
// channel count outside the 1..=8 range the engine supports.
var ErrInvalidChannelCount = errors.New("signal: channel count must be between 1 and 8")

// ErrInvalidSampleRate is returned when a Spec is constructed with a
// non-positive sample rate.
var ErrInvalidSampleRate = errors.New("signal: sample rate must be positive")

// Spec describes the shape of an audio path: its sample rate, channel
// count, and current frame position. Every buffer flowing through the
// mixer graph is normalized to the Spec of the mixer it feeds.
type Spec struct {
	SampleRate    int
	Channels      int
	FramePosition uint64
}

// NewSpec validates and returns a Spec. FramePosition starts at 0.
func NewSpec(sampleRate, channels int) (Spec, error) {
	if sampleRate <= 0 {
		return Spec{}, ErrInvalidSampleRate
	}
	if channels < 1 || channels > 8 {
		return Spec{}, ErrInvalidChannelCount
	}
	return Spec{SampleRate: sampleRate, Channels: channels}, nil
}

// WithFrame returns a copy of s positioned at frame.
func (s Spec) WithFrame(frame uint64) Spec {
	s.FramePosition = frame
	return s
}

// Equal reports whether two specs share the same sample rate and channel
// count. FramePosition is excluded, since it is not part of a path's
// shape.
func (s Spec) Equal(o Spec) bool {
	return s.SampleRate == o.SampleRate && s.Channels == o.Channels
}
