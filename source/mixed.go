// SPDX-License-Identifier: EPL-2.0

package source

import (
	"time"

	"github.com/ik5/sonora/command"
	"github.com/ik5/sonora/signal"
)

// Mixed sums several child Sources into a single Source, per spec.md
// §9's closed variant set. It is useful for layered one-shots (e.g. a
// hit sound built from several preloaded layers) that a mixer graph
// wants to treat, start, and stop as a single unit rather than as
// separate handles.
type Mixed struct {
	children []Source
	scratch  []float32
}

// NewMixed returns a Mixed source summing children. All children are
// expected to already share the destination Spec's channel count and
// sample rate; per-child rate conversion is the caller's job (typically
// by wrapping a child in Resampled before adding it here).
func NewMixed(children ...Source) *Mixed {
	return &Mixed{children: children}
}

// Write implements Source.
func (m *Mixed) Write(out []float32, spec signal.Spec, now uint64) int {
	signal.Fill(out, 0)
	if cap(m.scratch) < len(out) {
		m.scratch = make([]float32, len(out))
	}
	scratch := m.scratch[:len(out)]

	maxWritten := 0
	for _, child := range m.children {
		if child.IsExhausted() {
			continue
		}
		signal.Fill(scratch, 0)
		n := child.Write(scratch, spec, now)
		signal.AddInto(out, scratch)
		if n > maxWritten {
			maxWritten = n
		}
	}
	return maxWritten
}

// IsExhausted implements Source: a Mixed source is exhausted once every
// child is.
func (m *Mixed) IsExhausted() bool {
	for _, c := range m.children {
		if !c.IsExhausted() {
			return false
		}
	}
	return true
}

// Position implements Source, reporting the furthest-along child's
// position.
func (m *Mixed) Position() time.Duration {
	var max time.Duration
	for _, c := range m.children {
		if p := c.Position(); p > max {
			max = p
		}
	}
	return max
}

// ApplyEvent implements Source, broadcasting ev to every child.
func (m *Mixed) ApplyEvent(ev command.Payload) {
	for _, c := range m.children {
		c.ApplyEvent(ev)
	}
}
