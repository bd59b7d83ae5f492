// SPDX-License-Identifier: EPL-2.0

package command

import "time"

// PlayRef is the read side of a mixer child's atomic status snapshot: a
// lock-free view a Handle can poll from any goroutine without touching
// the audio thread, per spec.md §4.11. Declared here (rather than in
// package mixer or package handle) so both can depend on the same
// concrete interface type without importing each other.
type PlayRef interface {
	IsPlaying() bool
	Position() time.Duration
}
