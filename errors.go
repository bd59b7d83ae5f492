// SPDX-License-Identifier: EPL-2.0

package sonora

import (
	"errors"
	"fmt"

	"github.com/ik5/sonora/command"
	"github.com/ik5/sonora/handle"
	"github.com/ik5/sonora/mixer"
)

// The error taxonomy spec.md §7 names, realized as sentinel values in
// the teacher's style (errors.New grouped in one file, wrapped with
// fmt.Errorf("%w", ...) at call sites — see audio/errors.go and
// audio/errors_test.go for the pattern this mirrors). QueueFull,
// NotFound, and InvalidState already exist as package-local sentinels
// (command.ErrQueueFull, handle.ErrNotFound,
// mixer.ErrInvalidState); this file re-exposes them under the taxonomy's
// names for callers that only import the root package, and adds the
// three that have no natural home in a lower package.
var (
	// ErrDevice reports an output device open/start/format failure,
	// fatal to the Player that owns the device.
	ErrDevice = errors.New("sonora: device error")
	// ErrDecode reports an unrecoverable decoder fault; the affected
	// source transitions to a stopped-with-error state.
	ErrDecode = errors.New("sonora: decode error")
	// ErrIO reports a file read failure on a streamed source.
	ErrIO = errors.New("sonora: io error")

	// ErrQueueFull is command.ErrQueueFull under the taxonomy's name: a
	// command queue is saturated. The status bus's command.ErrBusFull is
	// a separate sentinel and does not match it under errors.Is.
	ErrQueueFull = command.ErrQueueFull
	// ErrNotFound is handle.ErrNotFound under the taxonomy's name: a
	// handle refers to an id no longer present.
	ErrNotFound = handle.ErrNotFound
	// ErrInvalidState is mixer.ErrInvalidState under the taxonomy's
	// name: an operation is incompatible with the current state.
	ErrInvalidState = mixer.ErrInvalidState
)

// PoisonedError reports that a source or effect panicked and was
// unlinked from the graph, per spec.md §7's Poisoned taxonomy entry. It
// carries the target id and the recovered panic value's message so a
// caller can log which node failed.
type PoisonedError struct {
	Target command.ID
	Reason string
}

func (e *PoisonedError) Error() string {
	return fmt.Sprintf("sonora: source %d poisoned: %s", e.Target, e.Reason)
}

// asPoisonedError converts a command.Poisoned status event into a
// PoisonedError, for callers that consume the status bus as errors
// rather than as raw command.Status values.
func asPoisonedError(s command.Poisoned) *PoisonedError {
	return &PoisonedError{Target: s.Target, Reason: s.Reason}
}
