// SPDX-License-Identifier: EPL-2.0

package source

import (
	"fmt"
	"time"

	"github.com/ik5/sonora/command"
	"github.com/ik5/sonora/signal"
)

// Guarded wraps a Source and recovers from panics in any of its four
// calls, converting them into a Poisoned status event and permanent
// exhaustion rather than letting the audio thread crash, per spec.md
// §4.1's "sources never panic; a guarded wrapper catches unexpected
// panics" requirement. The recover-and-continue shape follows
// shaban-macaudio's Engine.prepareAVFoundationSafely, generalized from
// a one-shot setup call to every hot-path call a Source makes.
type Guarded struct {
	inner    Source
	id       command.ID
	bus      *command.Bus
	poisoned bool
}

// NewGuarded wraps inner, tagging any Poisoned status event it emits
// with id and sending it to bus.
func NewGuarded(inner Source, id command.ID, bus *command.Bus) *Guarded {
	return &Guarded{inner: inner, id: id, bus: bus}
}

func (g *Guarded) Write(out []float32, spec signal.Spec, now uint64) (written int) {
	if g.poisoned {
		signal.Fill(out, 0)
		return 0
	}
	defer g.recoverFrom("Write")
	return g.inner.Write(out, spec, now)
}

func (g *Guarded) IsExhausted() bool {
	if g.poisoned {
		return true
	}
	defer g.recoverFrom("IsExhausted")
	return g.inner.IsExhausted()
}

func (g *Guarded) ApplyEvent(ev command.Payload) {
	if g.poisoned {
		return
	}
	defer g.recoverFrom("ApplyEvent")
	g.inner.ApplyEvent(ev)
}

func (g *Guarded) Position() time.Duration {
	if g.poisoned {
		return 0
	}
	defer g.recoverFrom("Position")
	return g.inner.Position()
}

// Poisoned reports whether a prior call panicked and unlinked the
// wrapped source.
func (g *Guarded) Poisoned() bool { return g.poisoned }

func (g *Guarded) recoverFrom(call string) {
	if r := recover(); r != nil {
		g.poisoned = true
		if g.bus != nil {
			_ = g.bus.Send(command.Poisoned{
				Target: g.id,
				Reason: fmt.Sprintf("source: panic in %s: %v", call, r),
			})
		}
	}
}
