// SPDX-License-Identifier: EPL-2.0

package command

import (
	"errors"
	"sync/atomic"
)

// ErrQueueFull is returned by Queue.Push when the ring has no free slot
// for the incoming Command.
var ErrQueueFull = errors.New("command: queue full")

// Queue is a bounded multi-producer/single-consumer ring buffer of
// Commands, per spec.md §4.9: "Handles enqueue" from any control-side
// goroutine, the audio thread is the sole Pop/Drain caller. Concurrent
// Pop/Drain/PeekFront/DrainDue calls are still a race — only one
// consumer goroutine may ever call those.
//
// Each slot carries its own sequence number rather than the plain
// two-index scheme a strict SPSC ring gets away with, following Dmitry
// Vyukov's bounded MPMC queue design: a producer claims a slot with a
// CAS on the shared enqueue cursor, writes into it, then publishes by
// bumping that slot's sequence, so a second producer racing for the
// same cursor value never overwrites a slot the first producer hasn't
// finished writing yet, and the consumer never reads a slot before its
// producer has published it.
type Queue struct {
	slots []cell
	mask  uint64
	enq   atomic.Uint64 // next cursor value a producer claims
	deq   uint64        // next cursor value the sole consumer reads; consumer-owned, no atomic needed
}

type cell struct {
	seq atomic.Uint64
	cmd Command
}

// NewQueue returns a Queue able to hold capacity Commands. capacity is
// rounded up to the next power of two.
func NewQueue(capacity int) *Queue {
	n := nextPowerOfTwo(capacity)
	q := &Queue{
		slots: make([]cell, n),
		mask:  uint64(n - 1),
	}
	for i := range q.slots {
		q.slots[i].seq.Store(uint64(i))
	}
	return q
}

func nextPowerOfTwo(n int) int {
	if n < 2 {
		return 2
	}
	p := 1
	for p < n {
		p <<= 1
	}
	return p
}

// Push enqueues cmd. Safe for any number of concurrent callers. Returns
// ErrQueueFull if the ring is at capacity.
func (q *Queue) Push(cmd Command) error {
	pos := q.enq.Load()
	for {
		c := &q.slots[pos&q.mask]
		seq := c.seq.Load()
		diff := int64(seq) - int64(pos)
		switch {
		case diff == 0:
			if q.enq.CompareAndSwap(pos, pos+1) {
				c.cmd = cmd
				c.seq.Store(pos + 1)
				return nil
			}
			pos = q.enq.Load()
		case diff < 0:
			return ErrQueueFull
		default:
			pos = q.enq.Load()
		}
	}
}

// Pop dequeues the oldest Command. Returns false if the ring is empty.
// Only the sole consumer goroutine may call this.
func (q *Queue) Pop() (Command, bool) {
	c := &q.slots[q.deq&q.mask]
	seq := c.seq.Load()
	diff := int64(seq) - int64(q.deq+1)
	if diff != 0 {
		return Command{}, false
	}
	cmd := c.cmd
	c.cmd = Command{}
	c.seq.Store(q.deq + q.mask + 1)
	q.deq++
	return cmd, true
}

// PeekFront returns the oldest queued Command without removing it.
// Only the sole consumer goroutine may call this, same as Pop.
func (q *Queue) PeekFront() (Command, bool) {
	c := &q.slots[q.deq&q.mask]
	seq := c.seq.Load()
	diff := int64(seq) - int64(q.deq+1)
	if diff != 0 {
		return Command{}, false
	}
	return c.cmd, true
}

// Len reports the number of Commands currently queued. Approximate
// under concurrent producers; intended for metrics, not control flow.
func (q *Queue) Len() int {
	return int(q.enq.Load() - q.deq)
}

// Drain pops every currently queued Command and invokes fn for each,
// in FIFO order, stopping only when the ring reports empty. This is the
// shape the audio thread's per-block drain loop uses.
func (q *Queue) Drain(fn func(Command)) {
	for {
		cmd, ok := q.Pop()
		if !ok {
			return
		}
		fn(cmd)
	}
}

// DrainDue pops and invokes fn for every queued Command whose
// FrameTime is before threshold (a device sample frame, typically
// now+block_size), stopping at the first Command that is not yet due
// and leaving it and everything behind it queued for a future block.
// FrameTime 0 is the "as soon as possible" sentinel and is always due.
//
// This assumes commands are enqueued in non-decreasing FrameTime
// order, which every producer in this codebase satisfies: a caller
// schedules "now" or a specific future frame, never one earlier than
// an event it already queued. A command pushed out of that order sits
// behind an earlier-FrameTime command until it too becomes due, which
// only delays it, it is never skipped.
func (q *Queue) DrainDue(threshold uint64, fn func(Command)) {
	for {
		cmd, ok := q.PeekFront()
		if !ok || (cmd.FrameTime != 0 && cmd.FrameTime >= threshold) {
			return
		}
		q.Pop()
		fn(cmd)
	}
}
