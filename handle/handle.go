// SPDX-License-Identifier: EPL-2.0

// Package handle implements the thread-safe control references
// (spec.md §4.11) that let any control-side goroutine start, stop,
// seek, or parameterize a source without touching the audio thread
// directly: every method translates to a non-blocking enqueue onto the
// owning mixer's command.Queue (the mixer forwards it to the target
// child's own queue when it drains), tagged with the target frame
// time the audio thread should apply it at, and IsPlaying/Position
// read the atomic snapshot the audio thread keeps up to date.
package handle

import (
	"errors"
	"time"

	"github.com/ik5/sonora/command"
	"github.com/ik5/sonora/param"
)

// ErrNotFound is returned when a Handle's target has already left the
// mixer graph (exhausted, stopped, or never valid).
var ErrNotFound = errors.New("handle: target not found")

// router is the subset of *mixer.Mixer a Handle depends on. Kept as a
// local interface (rather than importing package mixer directly) so
// handle has no compile-time dependency on mixer's internals beyond
// this narrow surface — mirroring the teacher's habit of depending on
// interfaces at package boundaries (audio.Source, audio.Decoder) rather
// than concrete types.
type router interface {
	RouteEvent(id command.ID, ev command.Payload, frameTime uint64) bool
	PlayingRef(id command.ID) (command.PlayRef, bool)
}

// Handle is a cheap, copyable reference to a source living somewhere in
// a mixer graph. The zero value is not usable; construct with New.
type Handle struct {
	id     command.ID
	owner  router
}

// New returns a Handle addressing id through owner.
func New(owner router, id command.ID) Handle {
	return Handle{id: id, owner: owner}
}

// ID returns the process-unique ID this handle addresses.
func (h Handle) ID() command.ID { return h.id }

func (h Handle) enqueue(ev command.Payload, frameTime uint64) error {
	if h.owner == nil || !h.owner.RouteEvent(h.id, ev, frameTime) {
		return ErrNotFound
	}
	return nil
}

// Play releases a Pending source (one added with a far-future or
// otherwise not-yet-reached startFrame) at frameTime (0 for as soon as
// possible), letting a caller stage several sources ahead of time and
// start them together later rather than having to know their exact
// start frame up front. A no-op on a source that's already Active.
func (h Handle) Play(frameTime uint64) error {
	return h.enqueue(command.PlayStart{}, frameTime)
}

// Stop requests playback stop with an exponential fade lasting fade
// (0 uses the source's default, per spec.md §5's 4 ms default).
// frameTime schedules the stop for that exact device sample frame; 0
// means as soon as the audio thread next drains this handle's queue.
func (h Handle) Stop(fade time.Duration, sampleRate int, frameTime uint64) error {
	var frames uint64
	if fade > 0 && sampleRate > 0 {
		frames = uint64(fade.Seconds() * float64(sampleRate))
	}
	return h.enqueue(command.Stop{FadeFrames: frames}, frameTime)
}

// Seek repositions playback to frame, in source frames, applied at
// frameTime (0 for as soon as possible).
func (h Handle) Seek(frame int64, frameTime uint64) error {
	return h.enqueue(command.Seek{Frame: frame}, frameTime)
}

// SetParameter applies a normalized [0,1] value to a parameter,
// smoothed per smoothing, applied at frameTime (0 for as soon as
// possible).
func (h Handle) SetParameter(id param.ID, value float64, smoothing param.Smoothing, frameTime uint64) error {
	return h.enqueue(command.SetParameter{Param: id, Value: value, Smoothing: smoothing}, frameTime)
}

// NoteOn triggers a generator voice at frameTime (0 for as soon as
// possible).
func (h Handle) NoteOn(note int, velocity float64, frameTime uint64) error {
	return h.enqueue(command.NoteOn{Note: note, Velocity: velocity}, frameTime)
}

// NoteOff releases a previously triggered generator voice at
// frameTime (0 for as soon as possible).
func (h Handle) NoteOff(note int, frameTime uint64) error {
	return h.enqueue(command.NoteOff{Note: note}, frameTime)
}

// SetGain applies a smoothed gain change at frameTime (0 for as soon
// as possible).
func (h Handle) SetGain(gain float64, smoothing param.Smoothing, frameTime uint64) error {
	return h.enqueue(command.SetGain{Gain: gain, Smoothing: smoothing}, frameTime)
}

// SetPan applies a smoothed pan change at frameTime (0 for as soon as
// possible).
func (h Handle) SetPan(pan float64, smoothing param.Smoothing, frameTime uint64) error {
	return h.enqueue(command.SetPan{Pan: pan, Smoothing: smoothing}, frameTime)
}

// IsPlaying reads the audio thread's atomic snapshot for this handle's
// target. Returns false for a dead target rather than an error, since
// "not currently playing" is the natural reading of a dead ID here.
func (h Handle) IsPlaying() bool {
	if h.owner == nil {
		return false
	}
	ref, ok := h.owner.PlayingRef(h.id)
	if !ok {
		return false
	}
	return ref.IsPlaying()
}

// Position reads the audio thread's last-reported playback position.
// Returns (0, ErrNotFound) for a dead target.
func (h Handle) Position() (time.Duration, error) {
	if h.owner == nil {
		return 0, ErrNotFound
	}
	ref, ok := h.owner.PlayingRef(h.id)
	if !ok {
		return 0, ErrNotFound
	}
	return ref.Position(), nil
}
