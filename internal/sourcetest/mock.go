// SPDX-License-Identifier: EPL-2.0

// Package sourcetest provides mock source.Source implementations for
// property tests across the engine, generalizing the teacher's
// internal/audiotest.MockSource (a decode-style ReadSamples generator)
// into a Write-based generator matching source.Source's push interface.
package sourcetest

import (
	"math"
	"time"

	"github.com/ik5/sonora/command"
	"github.com/ik5/sonora/signal"
)

// MockSource generates a waveform on demand and reports exhaustion once
// totalFrames have been produced, mirroring the teacher's
// audiotest.MockSource shape (sampleRate/channels/totalSamples plus a
// per-sample waveform function) adapted to source.Source's Write model.
type MockSource struct {
	channels     int
	totalFrames  int64 // -1 = never exhausts
	generated    int64
	waveform     func(frame int64, channel int) float32
	lastPosition time.Duration
	sampleRate   int
}

// NewMockSource returns a source producing waveform(frame, channel) for
// totalFrames frames (or forever if totalFrames < 0) at sampleRate.
func NewMockSource(sampleRate, channels int, totalFrames int64, waveform func(frame int64, channel int) float32) *MockSource {
	return &MockSource{
		sampleRate:  sampleRate,
		channels:    channels,
		totalFrames: totalFrames,
		waveform:    waveform,
	}
}

// NewSilentSource generates totalFrames frames of silence.
func NewSilentSource(sampleRate, channels int, totalFrames int64) *MockSource {
	return NewMockSource(sampleRate, channels, totalFrames, func(int64, int) float32 { return 0 })
}

// NewSineSource generates a totalFrames-long sine wave at frequency Hz,
// identical on every channel.
func NewSineSource(sampleRate, channels int, totalFrames int64, frequency float64) *MockSource {
	return NewMockSource(sampleRate, channels, totalFrames, func(frame int64, _ int) float32 {
		t := float64(frame) / float64(sampleRate)
		return float32(math.Sin(2 * math.Pi * frequency * t))
	})
}

// NewConstantSource generates totalFrames frames of a fixed value on
// every channel.
func NewConstantSource(sampleRate, channels int, totalFrames int64, value float32) *MockSource {
	return NewMockSource(sampleRate, channels, totalFrames, func(int64, int) float32 { return value })
}

// Write implements source.Source.
func (m *MockSource) Write(out []float32, spec signal.Spec, now uint64) int {
	frames := len(out) / spec.Channels
	for f := 0; f < frames; f++ {
		if m.totalFrames >= 0 && m.generated >= m.totalFrames {
			for c := 0; c < spec.Channels; c++ {
				out[f*spec.Channels+c] = 0
			}
			continue
		}
		for c := 0; c < spec.Channels; c++ {
			srcCh := c
			if srcCh >= m.channels {
				srcCh = m.channels - 1
			}
			out[f*spec.Channels+c] = m.waveform(m.generated, srcCh)
		}
		m.generated++
	}
	m.lastPosition = time.Duration(float64(m.generated) / float64(m.sampleRate) * float64(time.Second))
	return frames
}

// IsExhausted implements source.Source.
func (m *MockSource) IsExhausted() bool {
	return m.totalFrames >= 0 && m.generated >= m.totalFrames
}

// Position implements source.Source.
func (m *MockSource) Position() time.Duration { return m.lastPosition }

// ApplyEvent implements source.Source. MockSource ignores every event
// kind: tests that need event-reactive behavior should exercise the
// real source types instead.
func (m *MockSource) ApplyEvent(command.Payload) {}

// Reset rewinds the generated-frame counter, mirroring the teacher's
// MockSource.Reset for reuse across sub-tests.
func (m *MockSource) Reset() {
	m.generated = 0
	m.lastPosition = 0
}
