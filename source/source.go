// SPDX-License-Identifier: EPL-2.0

// Package source implements the closed set of audio producers the
// mixer graph accepts: Preloaded, Streamed, Generator, Mixed, and the
// transparent Resampled/Panned wrappers, per spec.md §9's guidance that
// this set is a closed sum type where effects (open-ended) are not.
//
// Each concrete type implements Source directly rather than through a
// registry, following github.com/ik5/audpbx's one-exported-type-per-
// concern layout (wavSource, mp3 source, and so on each implementing
// audio.Source privately behind a Decoder).
package source

import (
	"time"

	"github.com/ik5/sonora/command"
	"github.com/ik5/sonora/signal"
)

// Source produces audio samples on demand. Implementations must never
// block or allocate inside Write, matching the audio thread's hard
// real-time contract.
type Source interface {
	// Write fills out (interleaved, spec.Channels channels) with up to
	// len(out)/spec.Channels frames starting at device frame now.
	// Returns the number of frames actually written; fewer than
	// requested signals partial output this block.
	Write(out []float32, spec signal.Spec, now uint64) (written int)
	// IsExhausted reports whether the source will ever produce more
	// audio. Once true it may be reclaimed by its owning mixer.
	IsExhausted() bool
	// ApplyEvent handles a dispatched scheduled command. Must be cheap
	// and non-blocking.
	ApplyEvent(ev command.Payload)
	// Position reports current playback position.
	Position() time.Duration
}

// Resampler is the subset of resample.Fast/resample.Quality that
// Source implementations needing rate conversion depend on, kept as an
// interface here so source doesn't import resample's concrete types
// directly and either quality tier can be plugged in.
type Resampler interface {
	Channels() int
	Reset()
	Process(input, output []float32, ratioStart, ratioEnd float64) (inConsumed, outWritten int)
}
