// SPDX-License-Identifier: EPL-2.0

package sonora

import (
	"testing"

	"github.com/ik5/sonora/resample"
)

func TestConfig_WithDefaultsFillsZeroFields(t *testing.T) {
	t.Parallel()

	c := Config{}.withDefaults()
	if c.SampleRate != 48000 {
		t.Errorf("SampleRate = %d, want 48000", c.SampleRate)
	}
	if c.Channels != 2 {
		t.Errorf("Channels = %d, want 2", c.Channels)
	}
	if c.MaxBlockFrames != 4096 {
		t.Errorf("MaxBlockFrames = %d, want 4096", c.MaxBlockFrames)
	}
	if c.StatusQueueCapacity != 256 {
		t.Errorf("StatusQueueCapacity = %d, want 256", c.StatusQueueCapacity)
	}
}

func TestConfig_WithDefaultsHonorsOptions(t *testing.T) {
	t.Parallel()

	c := Config{}.withDefaults(
		WithSampleRate(44100),
		WithChannels(1),
		WithMaxBlockFrames(512),
		WithQuality(resample.QualityBest),
		WithWorkers(4),
		WithStatusQueueCapacity(16),
	)
	if c.SampleRate != 44100 {
		t.Errorf("SampleRate = %d, want 44100", c.SampleRate)
	}
	if c.Channels != 1 {
		t.Errorf("Channels = %d, want 1", c.Channels)
	}
	if c.MaxBlockFrames != 512 {
		t.Errorf("MaxBlockFrames = %d, want 512", c.MaxBlockFrames)
	}
	if c.Quality != resample.QualityBest {
		t.Errorf("Quality = %v, want QualityBest", c.Quality)
	}
	if c.Workers != 4 {
		t.Errorf("Workers = %d, want 4", c.Workers)
	}
	if c.StatusQueueCapacity != 16 {
		t.Errorf("StatusQueueCapacity = %d, want 16", c.StatusQueueCapacity)
	}
}

func TestConfig_WithDefaultsLeavesExplicitZeroQualityAlone(t *testing.T) {
	t.Parallel()

	// QualityFast is the zero value of resample.QualityLevel; a caller
	// who explicitly wants it must not have withDefaults silently
	// override it the way it overrides SampleRate/Channels/etc.
	c := Config{}.withDefaults(WithQuality(resample.QualityFast))
	if c.Quality != resample.QualityFast {
		t.Errorf("Quality = %v, want QualityFast", c.Quality)
	}
}
