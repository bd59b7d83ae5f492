// SPDX-License-Identifier: EPL-2.0

package mixer

import (
	"time"

	"github.com/ik5/sonora/command"
	"github.com/ik5/sonora/signal"
)

// SubMixer adapts a *Mixer to source.Source so a mixer subtree can be
// added as an ordinary child of another Mixer, per spec.md §4.8's
// nested-mixer requirement. It never reports exhaustion on its own: a
// mixer subtree stays live until a RemoveMixer command marks it
// removed, not when its children happen to run dry.
type SubMixer struct {
	inner          *Mixer
	framesRendered int64
	removed        bool
}

// NewSubMixer wraps inner for use as another Mixer's child.
func NewSubMixer(inner *Mixer) *SubMixer {
	return &SubMixer{inner: inner}
}

// Mixer returns the wrapped mixer, e.g. for a workerpool fan-out stage
// that needs to call Process directly rather than through Write.
func (s *SubMixer) Mixer() *Mixer { return s.inner }

// Write implements source.Source by running the wrapped mixer's own
// per-block algorithm and returning its output directly.
func (s *SubMixer) Write(out []float32, spec signal.Spec, now uint64) int {
	s.inner.Process(out, now)
	s.framesRendered += int64(len(out) / spec.Channels)
	return len(out) / spec.Channels
}

// IsExhausted reports whether this sub-mixer has been detached by a
// RemoveMixer command; its own children draining never sets this.
func (s *SubMixer) IsExhausted() bool { return s.removed }

// Position reports the wrapped mixer's cumulative rendered duration.
func (s *SubMixer) Position() time.Duration {
	if s.inner.spec.SampleRate == 0 {
		return 0
	}
	return time.Duration(float64(s.framesRendered) / float64(s.inner.spec.SampleRate) * float64(time.Second))
}

// ApplyEvent forwards gain/pan changes to the wrapped mixer's master
// stage and RemoveMixer to detachment; other event kinds don't have a
// natural sub-mixer meaning and are ignored.
func (s *SubMixer) ApplyEvent(ev command.Payload) {
	switch e := ev.(type) {
	case command.SetGain:
		s.inner.SetMasterGain(e.Gain, e.Smoothing)
	case command.SetPan:
		s.inner.SetMasterPan(e.Pan, e.Smoothing)
	case command.RemoveMixer:
		s.removed = true
	}
}
