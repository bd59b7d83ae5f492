// SPDX-License-Identifier: EPL-2.0

package workerpool

import (
	"runtime"

	"golang.org/x/sys/unix"
)

// PinCurrentGoroutine locks the calling goroutine to its current OS
// thread and restricts that thread to cpu, best-effort. Intended to be
// called at the top of a worker pool job on the real-time audio path so
// the scheduler doesn't migrate it mid-block, per spec.md §4.10's
// thread-affinity hint. Errors are non-fatal: an unpinned worker still
// produces correct output, just with looser latency guarantees.
func PinCurrentGoroutine(cpu int) error {
	runtime.LockOSThread()
	var set unix.CPUSet
	set.Zero()
	set.Set(cpu)
	return unix.SchedSetaffinity(0, &set)
}

// RaisePriority requests a higher (more negative) nice value for the
// calling thread, best-effort, matching spec.md §4.10's "raise the
// mixing thread's scheduling priority where the OS allows it" note.
func RaisePriority() error {
	return unix.Setpriority(unix.PRIO_PROCESS, 0, -10)
}
