// SPDX-License-Identifier: EPL-2.0

// Package command defines the control-plane vocabulary that flows from
// handles into the audio thread: a process-unique ID scheme shared by
// every addressable engine object (mixers, sources, effects), a closed
// sum type of scheduled command payloads, a bounded lock-free MPSC ring
// any number of control-side goroutines can Push into while the audio
// thread drains it without blocking, and an MPSC status bus the audio
// thread uses to report back.
//
// The payload set is closed the way github.com/ik5/audpbx keeps its own
// vocabularies closed: unexported marker methods on exported structs, so
// package command holds every valid variant and switches on them with an
// exhaustive type switch rather than open-ended interface dispatch.
package command

import (
	"sync/atomic"

	"github.com/ik5/sonora/effect"
	"github.com/ik5/sonora/param"
)

// ID identifies any addressable engine object (mixer, source, or
// effect) for the lifetime of the process. Values are assigned by
// NewID and are never reused, so a stale ID naturally satisfies
// NotFound semantics once its owner is gone.
type ID uint64

var idCounter atomic.Uint64

// NewID returns the next process-unique ID. Safe for concurrent use.
func NewID() ID {
	return ID(idCounter.Add(1))
}

// Command is a single scheduled control-plane event: apply Payload to
// Target at FrameTime (a device sample frame, not a wall-clock time).
type Command struct {
	Target    ID
	FrameTime uint64
	Payload   Payload
}

// Payload is the closed set of command bodies a Source, Mixer, or
// Effect may receive. Implementations live only in this package.
type Payload interface {
	commandPayload()
}

// Stop requests playback stop with an exponential fade lasting
// FadeFrames sample frames (0 for the source's default 4 ms fade).
type Stop struct {
	FadeFrames uint64
}

func (Stop) commandPayload() {}

// Seek repositions a source's playback cursor to Frame, in source
// frames.
type Seek struct {
	Frame int64
}

func (Seek) commandPayload() {}

// SetParameter applies a normalized [0,1] value to a parameter,
// smoothed per Smoothing.
type SetParameter struct {
	Param     param.ID
	Value     float64
	Smoothing param.Smoothing
}

func (SetParameter) commandPayload() {}

// NoteOn triggers a generator voice at the given normalized velocity.
type NoteOn struct {
	Note     int
	Velocity float64
}

func (NoteOn) commandPayload() {}

// NoteOff releases a previously triggered generator voice.
type NoteOff struct {
	Note int
}

func (NoteOff) commandPayload() {}

// SetGain applies a smoothed linear gain change to a source or mixer.
type SetGain struct {
	Gain      float64
	Smoothing param.Smoothing
}

func (SetGain) commandPayload() {}

// SetPan applies a smoothed pan change ([-1,1]) to a source or mixer.
type SetPan struct {
	Pan       float64
	Smoothing param.Smoothing
}

func (SetPan) commandPayload() {}

// SetSpeed applies a smoothed playback-rate multiplier to a source.
type SetSpeed struct {
	Speed     float64
	Smoothing param.Smoothing
}

func (SetSpeed) commandPayload() {}

// SetLoop enables or disables looping and updates the loop region, in
// source frames.
type SetLoop struct {
	Enabled    bool
	Start, End int64
}

func (SetLoop) commandPayload() {}

// PlayStart transitions a Pending child straight to Active at the
// scheduled frame, pulling its startFrame earlier if needed. It lets a
// caller stage several sources with AddChild well before they should
// make sound and then release them all at a frame chosen later, rather
// than having to know the exact start frame at AddChild time.
type PlayStart struct{}

func (PlayStart) commandPayload() {}

// AddEffect appends Effect to the end of the target mixer's effect
// chain. Target must be the mixer's own ID (mixer.Mixer.ID), not a
// child's.
type AddEffect struct {
	Effect effect.Effect
}

func (AddEffect) commandPayload() {}

// RemoveEffect deletes the effect at Index from the target mixer's
// effect chain.
type RemoveEffect struct {
	Index int
}

func (RemoveEffect) commandPayload() {}

// MoveEffect relocates the effect at From to index To in the target
// mixer's effect chain.
type MoveEffect struct {
	From, To int
}

func (MoveEffect) commandPayload() {}

// AddChildMixer attaches a sub-mixer staged with Mixer.PrepareChildMixer
// under Child, at StartFrame. Target must be the parent mixer's own ID.
// The sub-mixer itself can't travel through this payload: package
// command sits below package mixer and package source, so it cannot
// reference a source.Source or *mixer.Mixer without an import cycle.
// PrepareChildMixer stages the live value on the mixer side under
// Child's ID; this command only carries the ID and schedule.
type AddChildMixer struct {
	Child      ID
	StartFrame uint64
}

func (AddChildMixer) commandPayload() {}

// RemoveMixer requests that the sub-mixer addressed by Command.Target
// (the ID a Handle for it already addresses, i.e. the sub-mixer's
// per-parent child ID) detach from its parent at the scheduled frame.
// It mirrors Stop's lifecycle: the sub-mixer starts reporting
// IsExhausted() true from that point on and its parent drops it on the
// next block, exactly like any other child running dry.
type RemoveMixer struct{}

func (RemoveMixer) commandPayload() {}
