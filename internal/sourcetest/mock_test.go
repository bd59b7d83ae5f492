// SPDX-License-Identifier: EPL-2.0

package sourcetest

import (
	"testing"

	"github.com/ik5/sonora/signal"
)

func TestMockSource_SilentIsAllZeros(t *testing.T) {
	t.Parallel()

	s := NewSilentSource(48000, 2, 8)
	out := make([]float32, 16)
	spec := signal.Spec{SampleRate: 48000, Channels: 2}
	n := s.Write(out, spec, 0)
	if n != 8 {
		t.Fatalf("Write returned %d frames, want 8", n)
	}
	for i, v := range out {
		if v != 0 {
			t.Fatalf("out[%d] = %v, want 0", i, v)
		}
	}
}

func TestMockSource_ExhaustsAfterTotalFrames(t *testing.T) {
	t.Parallel()

	s := NewConstantSource(48000, 1, 4, 0.5)
	spec := signal.Spec{SampleRate: 48000, Channels: 1}
	out := make([]float32, 4)
	s.Write(out[:3], spec, 0)
	if s.IsExhausted() {
		t.Fatal("expected not exhausted before totalFrames written")
	}
	s.Write(out, spec, 0)
	if !s.IsExhausted() {
		t.Fatal("expected exhausted after writing past totalFrames")
	}
}

func TestMockSource_NeverExhaustsWhenTotalFramesNegative(t *testing.T) {
	t.Parallel()

	s := NewSineSource(44100, 1, -1, 440)
	spec := signal.Spec{SampleRate: 44100, Channels: 1}
	out := make([]float32, 44100*2)
	s.Write(out, spec, 0)
	if s.IsExhausted() {
		t.Fatal("expected an infinite mock source to never exhaust")
	}
}

func TestMockSource_ResetRewindsGeneratedCounter(t *testing.T) {
	t.Parallel()

	s := NewConstantSource(48000, 1, 4, 1)
	spec := signal.Spec{SampleRate: 48000, Channels: 1}
	out := make([]float32, 4)
	s.Write(out, spec, 0)
	s.Write(out, spec, 0)
	if !s.IsExhausted() {
		t.Fatal("expected exhausted before Reset")
	}
	s.Reset()
	if s.IsExhausted() {
		t.Fatal("expected not exhausted after Reset")
	}
}
