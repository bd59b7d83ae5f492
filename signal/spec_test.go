// SPDX-License-Identifier: EPL-2.0

package signal

import (
	"errors"
	"testing"
)

func TestNewSpec_RejectsBadChannelCount(t *testing.T) {
	t.Parallel()

	cases := []int{0, -1, 9, 100}
	for _, ch := range cases {
		if _, err := NewSpec(44100, ch); !errors.Is(err, ErrInvalidChannelCount) {
			t.Errorf("channels=%d: err = %v, want ErrInvalidChannelCount", ch, err)
		}
	}
}

func TestNewSpec_RejectsBadSampleRate(t *testing.T) {
	t.Parallel()

	if _, err := NewSpec(0, 2); !errors.Is(err, ErrInvalidSampleRate) {
		t.Errorf("err = %v, want ErrInvalidSampleRate", err)
	}
}

func TestNewSpec_Valid(t *testing.T) {
	t.Parallel()

	s, err := NewSpec(48000, 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s.SampleRate != 48000 || s.Channels != 2 {
		t.Errorf("unexpected spec: %+v", s)
	}
}

func TestSpec_EqualIgnoresFramePosition(t *testing.T) {
	t.Parallel()

	a := Spec{SampleRate: 44100, Channels: 2, FramePosition: 10}
	b := Spec{SampleRate: 44100, Channels: 2, FramePosition: 99999}
	if !a.Equal(b) {
		t.Error("Equal should ignore FramePosition")
	}
}
