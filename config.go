// SPDX-License-Identifier: EPL-2.0

package sonora

import (
	"github.com/ik5/sonora/resample"
)

// Config holds the fixed, construction-time parameters of a Player. The
// zero value is not usable directly; New fills in defaults for any
// field left unset.
type Config struct {
	// SampleRate is the mixer graph's operating rate in Hz. Defaults to
	// 48000.
	SampleRate int
	// Channels is the interleaved output channel count (1..=8).
	// Defaults to 2.
	Channels int
	// MaxBlockFrames bounds the largest block Process/ProcessConcurrent
	// will be asked to fill in one call, sizing every preallocated
	// scratch buffer in the graph. Defaults to 4096.
	MaxBlockFrames int
	// Quality selects the default resample.QualityLevel new sources use
	// when no per-call override is given. Left unset it is the zero
	// value, resample.QualityFast; withDefaults does not change it.
	Quality resample.QualityLevel
	// Workers bounds the goroutine budget workerpool.Pool uses to fan
	// sub-mixer subtrees out. 0 (the default) uses
	// runtime.GOMAXPROCS(0), matching workerpool.New's own default.
	Workers int
	// StatusQueueCapacity sizes the command.Bus a Player drains for
	// underrun/poisoned/parameter-changed events. Defaults to 256.
	StatusQueueCapacity int
}

// Option customizes a Config at construction time, mirroring the
// functional-option pattern CWBudde-algo-dsp/dsp/resample uses for
// resample.Option (WithQuality, WithTapsPerPhase, ...).
type Option func(*Config)

// WithSampleRate overrides Config.SampleRate.
func WithSampleRate(hz int) Option {
	return func(c *Config) { c.SampleRate = hz }
}

// WithChannels overrides Config.Channels.
func WithChannels(n int) Option {
	return func(c *Config) { c.Channels = n }
}

// WithMaxBlockFrames overrides Config.MaxBlockFrames.
func WithMaxBlockFrames(n int) Option {
	return func(c *Config) { c.MaxBlockFrames = n }
}

// WithQuality overrides Config.Quality.
func WithQuality(q resample.QualityLevel) Option {
	return func(c *Config) { c.Quality = q }
}

// WithWorkers overrides Config.Workers.
func WithWorkers(n int) Option {
	return func(c *Config) { c.Workers = n }
}

// WithStatusQueueCapacity overrides Config.StatusQueueCapacity.
func WithStatusQueueCapacity(n int) Option {
	return func(c *Config) { c.StatusQueueCapacity = n }
}

// withDefaults returns a copy of c with every unset field filled in.
func (c Config) withDefaults(opts ...Option) Config {
	for _, opt := range opts {
		opt(&c)
	}
	if c.SampleRate <= 0 {
		c.SampleRate = 48000
	}
	if c.Channels <= 0 {
		c.Channels = 2
	}
	if c.MaxBlockFrames <= 0 {
		c.MaxBlockFrames = 4096
	}
	if c.StatusQueueCapacity <= 0 {
		c.StatusQueueCapacity = 256
	}
	return c
}
