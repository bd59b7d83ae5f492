// SPDX-License-Identifier: EPL-2.0

package command

import (
	"sync"
	"sync/atomic"
	"testing"
)

func TestNewID_IsUniqueAndMonotonic(t *testing.T) {
	t.Parallel()

	a := NewID()
	b := NewID()
	if a == b {
		t.Fatal("expected distinct IDs")
	}
	if b <= a {
		t.Errorf("b = %d, want > a = %d", b, a)
	}
}

func TestQueue_PushPopFIFO(t *testing.T) {
	t.Parallel()

	q := NewQueue(4)
	target := NewID()
	for i := 0; i < 3; i++ {
		if err := q.Push(Command{Target: target, FrameTime: uint64(i), Payload: Stop{}}); err != nil {
			t.Fatalf("Push(%d): %v", i, err)
		}
	}
	for i := 0; i < 3; i++ {
		cmd, ok := q.Pop()
		if !ok {
			t.Fatalf("Pop(%d): queue reported empty early", i)
		}
		if cmd.FrameTime != uint64(i) {
			t.Errorf("Pop(%d).FrameTime = %d, want %d", i, cmd.FrameTime, i)
		}
	}
	if _, ok := q.Pop(); ok {
		t.Error("expected queue to be empty")
	}
}

func TestQueue_PushReturnsErrQueueFullAtCapacity(t *testing.T) {
	t.Parallel()

	q := NewQueue(2) // rounds up to 2
	if err := q.Push(Command{Payload: Stop{}}); err != nil {
		t.Fatalf("Push 1: %v", err)
	}
	if err := q.Push(Command{Payload: Stop{}}); err != nil {
		t.Fatalf("Push 2: %v", err)
	}
	if err := q.Push(Command{Payload: Stop{}}); err != ErrQueueFull {
		t.Fatalf("Push 3 err = %v, want ErrQueueFull", err)
	}
}

func TestQueue_Drain_InvokesInFIFOOrder(t *testing.T) {
	t.Parallel()

	q := NewQueue(8)
	for i := 0; i < 5; i++ {
		_ = q.Push(Command{FrameTime: uint64(i), Payload: Stop{}})
	}
	var seen []uint64
	q.Drain(func(c Command) { seen = append(seen, c.FrameTime) })
	for i, v := range seen {
		if v != uint64(i) {
			t.Errorf("seen[%d] = %d, want %d", i, v, i)
		}
	}
	if len(seen) != 5 {
		t.Fatalf("len(seen) = %d, want 5", len(seen))
	}
}

func TestQueue_DrainDue_StopsAtFirstNotYetDueCommand(t *testing.T) {
	t.Parallel()

	q := NewQueue(8)
	_ = q.Push(Command{FrameTime: 10, Payload: Stop{}})
	_ = q.Push(Command{FrameTime: 20, Payload: Stop{}})
	_ = q.Push(Command{FrameTime: 30, Payload: Stop{}})

	var seen []uint64
	q.DrainDue(25, func(c Command) { seen = append(seen, c.FrameTime) })

	if len(seen) != 2 || seen[0] != 10 || seen[1] != 20 {
		t.Fatalf("seen = %v, want [10 20]", seen)
	}
	cmd, ok := q.PeekFront()
	if !ok || cmd.FrameTime != 30 {
		t.Fatalf("PeekFront = %#v, %v, want FrameTime 30", cmd, ok)
	}
}

func TestQueue_DrainDue_ZeroFrameTimeIsAlwaysDue(t *testing.T) {
	t.Parallel()

	q := NewQueue(4)
	_ = q.Push(Command{FrameTime: 0, Payload: Stop{}})

	var n int
	q.DrainDue(0, func(Command) { n++ })
	if n != 1 {
		t.Fatalf("n = %d, want 1", n)
	}
}

// TestQueue_PushIsSafeUnderConcurrentProducers hammers a single Queue
// from many goroutines at once (the shape RouteEvent and AddChild now
// use: any control-side goroutine may Push concurrently) and checks the
// sole consumer drains exactly one Command per successful Push, with no
// slot silently overwritten or double-counted.
func TestQueue_PushIsSafeUnderConcurrentProducers(t *testing.T) {
	t.Parallel()

	const producers = 32
	const perProducer = 200
	q := NewQueue(8192) // large enough that no producer legitimately sees ErrQueueFull

	var wg sync.WaitGroup
	var pushed atomic.Int64
	for i := 0; i < producers; i++ {
		wg.Add(1)
		go func(p int) {
			defer wg.Done()
			for j := 0; j < perProducer; j++ {
				if err := q.Push(Command{Target: ID(p), FrameTime: uint64(j), Payload: Stop{}}); err != nil {
					t.Errorf("producer %d Push(%d): %v", p, j, err)
					return
				}
				pushed.Add(1)
			}
		}(i)
	}
	wg.Wait()

	var drained int64
	q.Drain(func(Command) { drained++ })
	if want := pushed.Load(); drained != want {
		t.Fatalf("drained %d commands, want %d (a lost or duplicated Push under concurrent producers)", drained, want)
	}
}

func TestBus_SendRecv(t *testing.T) {
	t.Parallel()

	b := NewBus(2)
	src := NewID()
	if err := b.Send(Stopped{Source: src, Exhausted: true}); err != nil {
		t.Fatalf("Send: %v", err)
	}
	select {
	case s := <-b.Recv():
		st, ok := s.(Stopped)
		if !ok || !st.Exhausted {
			t.Errorf("got %#v, want Stopped{Exhausted:true}", s)
		}
	default:
		t.Fatal("expected a status event")
	}
}

func TestBus_SendReturnsErrBusFullWhenSaturated(t *testing.T) {
	t.Parallel()

	b := NewBus(1)
	if err := b.Send(Underrun{Frames: 10}); err != nil {
		t.Fatalf("Send 1: %v", err)
	}
	if err := b.Send(Underrun{Frames: 20}); err != ErrBusFull {
		t.Fatalf("Send 2 err = %v, want ErrBusFull", err)
	}
}
