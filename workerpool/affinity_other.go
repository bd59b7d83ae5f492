// SPDX-License-Identifier: EPL-2.0

//go:build !linux

package workerpool

// PinCurrentGoroutine is a no-op outside Linux; no portable equivalent
// of sched_setaffinity exists across the platforms this module targets.
func PinCurrentGoroutine(cpu int) error { return nil }

// RaisePriority is a no-op outside Linux, for the same reason.
func RaisePriority() error { return nil }
