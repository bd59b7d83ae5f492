// SPDX-License-Identifier: EPL-2.0

package handle

import (
	"testing"
	"time"

	"github.com/ik5/sonora/command"
	"github.com/ik5/sonora/param"
)

type fakeRef struct {
	playing bool
	pos     time.Duration
}

func (f fakeRef) IsPlaying() bool         { return f.playing }
func (f fakeRef) Position() time.Duration { return f.pos }

type fakeRouter struct {
	routed     []command.Payload
	frameTimes []uint64
	refs       map[command.ID]command.PlayRef
	fail       bool
}

func (r *fakeRouter) RouteEvent(id command.ID, ev command.Payload, frameTime uint64) bool {
	if r.fail {
		return false
	}
	r.routed = append(r.routed, ev)
	r.frameTimes = append(r.frameTimes, frameTime)
	return true
}

func (r *fakeRouter) PlayingRef(id command.ID) (command.PlayRef, bool) {
	ref, ok := r.refs[id]
	return ref, ok
}

func TestHandle_StopEnqueuesFadeFrames(t *testing.T) {
	t.Parallel()

	r := &fakeRouter{}
	h := New(r, command.NewID())
	if err := h.Stop(4*time.Millisecond, 44100, 0); err != nil {
		t.Fatalf("Stop: %v", err)
	}
	if len(r.routed) != 1 {
		t.Fatalf("expected 1 routed event, got %d", len(r.routed))
	}
	stop, ok := r.routed[0].(command.Stop)
	if !ok {
		t.Fatalf("got %#v, want command.Stop", r.routed[0])
	}
	if stop.FadeFrames != 176 {
		t.Errorf("FadeFrames = %d, want 176 (4ms @ 44100Hz)", stop.FadeFrames)
	}
}

func TestHandle_ReturnsNotFoundWhenRoutingFails(t *testing.T) {
	t.Parallel()

	r := &fakeRouter{fail: true}
	h := New(r, command.NewID())
	if err := h.Seek(0, 0); err != ErrNotFound {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestHandle_IsPlayingReadsLiveRef(t *testing.T) {
	t.Parallel()

	id := command.NewID()
	r := &fakeRouter{refs: map[command.ID]command.PlayRef{id: fakeRef{playing: true, pos: 5 * time.Second}}}
	h := New(r, id)

	if !h.IsPlaying() {
		t.Error("expected IsPlaying to be true")
	}
	pos, err := h.Position()
	if err != nil {
		t.Fatalf("Position: %v", err)
	}
	if pos != 5*time.Second {
		t.Errorf("Position = %v, want 5s", pos)
	}
}

func TestHandle_IsPlayingFalseForDeadTarget(t *testing.T) {
	t.Parallel()

	r := &fakeRouter{refs: map[command.ID]command.PlayRef{}}
	h := New(r, command.NewID())
	if h.IsPlaying() {
		t.Error("expected IsPlaying to be false for dead target")
	}
	if _, err := h.Position(); err != ErrNotFound {
		t.Fatalf("Position err = %v, want ErrNotFound", err)
	}
}

func TestHandle_SetParameterRoutesCorrectPayload(t *testing.T) {
	t.Parallel()

	r := &fakeRouter{}
	h := New(r, command.NewID())
	pid, _ := param.NewID("gain")
	if err := h.SetParameter(pid, 0.5, param.Smoothing{Kind: param.SmoothingNone}, 0); err != nil {
		t.Fatalf("SetParameter: %v", err)
	}
	sp, ok := r.routed[0].(command.SetParameter)
	if !ok || sp.Value != 0.5 {
		t.Fatalf("got %#v, want SetParameter{Value:0.5}", r.routed[0])
	}
}

func TestHandle_SetGainThreadsFrameTimeToRouter(t *testing.T) {
	t.Parallel()

	r := &fakeRouter{}
	h := New(r, command.NewID())
	if err := h.SetGain(0.5, param.Smoothing{Kind: param.SmoothingNone}, 48000); err != nil {
		t.Fatalf("SetGain: %v", err)
	}
	if len(r.frameTimes) != 1 || r.frameTimes[0] != 48000 {
		t.Fatalf("frameTimes = %v, want [48000]", r.frameTimes)
	}
}
