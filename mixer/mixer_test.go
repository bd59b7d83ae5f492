// SPDX-License-Identifier: EPL-2.0

package mixer

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/ik5/sonora/command"
	"github.com/ik5/sonora/effect"
	"github.com/ik5/sonora/param"
	"github.com/ik5/sonora/signal"
	"github.com/ik5/sonora/workerpool"
)

type constSource struct {
	value     float32
	exhausted bool
}

func (c *constSource) Write(out []float32, spec signal.Spec, now uint64) int {
	for i := range out {
		out[i] = c.value
	}
	return len(out) / spec.Channels
}
func (c *constSource) IsExhausted() bool          { return c.exhausted }
func (c *constSource) Position() time.Duration    { return 0 }
func (c *constSource) ApplyEvent(command.Payload) {}

func TestMixer_SumsActiveChildren(t *testing.T) {
	t.Parallel()

	spec := signal.Spec{SampleRate: 44100, Channels: 1}
	m := New(spec, 64, nil, nil)
	m.AddChild(&constSource{value: 0.1}, 0)
	m.AddChild(&constSource{value: 0.2}, 0)

	out := make([]float32, 64)
	m.Process(out, 0)
	for i, v := range out {
		if v < 0.29 || v > 0.31 {
			t.Fatalf("out[%d] = %v, want ~0.3", i, v)
		}
	}
}

func TestMixer_DropsExhaustedChildrenAndReportsStopped(t *testing.T) {
	t.Parallel()

	spec := signal.Spec{SampleRate: 44100, Channels: 1}
	bus := command.NewBus(4)
	m := New(spec, 64, nil, bus)
	id := m.AddChild(&constSource{value: 0.5, exhausted: true}, 0)

	out := make([]float32, 64)
	m.Process(out, 0)

	if len(m.children) != 0 {
		t.Fatalf("expected exhausted child to be dropped, got %d children", len(m.children))
	}
	select {
	case s := <-bus.Recv():
		st, ok := s.(command.Stopped)
		if !ok || st.Source != id || !st.Exhausted {
			t.Errorf("got %#v, want Stopped{Source: %d, Exhausted:true}", s, id)
		}
	default:
		t.Fatal("expected a Stopped status event")
	}
}

func TestMixer_PendingChildWaitsForStartFrame(t *testing.T) {
	t.Parallel()

	spec := signal.Spec{SampleRate: 44100, Channels: 1}
	m := New(spec, 64, nil, nil)
	m.AddChild(&constSource{value: 1}, 1000)

	out := make([]float32, 64)
	m.Process(out, 0)
	for i, v := range out {
		if v != 0 {
			t.Fatalf("out[%d] = %v, want 0 before startFrame", i, v)
		}
	}
	if len(m.children) != 1 {
		t.Fatal("pending child should still be queued")
	}
}

// stepSource always writes a constant value; the mixer is responsible
// for leaving the samples before a Pending child's startFrame silent
// (via its own zero-fill), so a test can tell exactly which output
// sample the source's onset landed on regardless of what block
// boundary the mixer happened to split at.
type stepSource struct {
	value float32
}

func (s *stepSource) Write(out []float32, spec signal.Spec, now uint64) int {
	for i := range out {
		out[i] = s.value
	}
	return len(out) / spec.Channels
}
func (s *stepSource) IsExhausted() bool          { return false }
func (s *stepSource) Position() time.Duration    { return 0 }
func (s *stepSource) ApplyEvent(command.Payload) {}

// recordingSource captures, for every sample offset within every
// Write call it receives, the current value of a shared *float32 "live
// gain" that a test mutates via ApplyEvent, so the test can assert
// exactly which output sample a scheduled command's effect first
// appears on.
type recordingSource struct {
	gain    float32
	applied []command.Payload
	samples []float32
}

func (r *recordingSource) Write(out []float32, spec signal.Spec, now uint64) int {
	frames := len(out) / spec.Channels
	for f := 0; f < frames; f++ {
		for c := 0; c < spec.Channels; c++ {
			out[f*spec.Channels+c] = r.gain
		}
		r.samples = append(r.samples, r.gain)
	}
	return frames
}
func (r *recordingSource) IsExhausted() bool       { return false }
func (r *recordingSource) Position() time.Duration { return 0 }
func (r *recordingSource) ApplyEvent(ev command.Payload) {
	r.applied = append(r.applied, ev)
	if g, ok := ev.(command.SetGain); ok {
		r.gain = float32(g.Gain)
	}
}

// TestMixer_ChildStartFrameSplitsBlockAtExactSample schedules a child's
// start strictly inside a block (not at a block boundary) and asserts
// its first non-silent sample lands exactly at startFrame, per
// spec.md's Testable Property 1 (±1 sample accuracy). The pre-existing
// TestMixer_PendingChildWaitsForStartFrame never crosses a block
// boundary mid-block, so it cannot catch a block-granular onset.
func TestMixer_ChildStartFrameSplitsBlockAtExactSample(t *testing.T) {
	t.Parallel()

	spec := signal.Spec{SampleRate: 44100, Channels: 1}
	m := New(spec, 256, nil, nil)
	const startFrame = 37
	m.AddChild(&stepSource{value: 1}, startFrame)

	out := make([]float32, 128)
	m.Process(out, 0)

	for i, v := range out {
		want := float32(0)
		if i >= startFrame {
			want = 1
		}
		if v != want {
			t.Fatalf("out[%d] = %v, want %v (startFrame=%d)", i, v, want, startFrame)
		}
	}
}

// TestMixer_ScheduledCommandAppliesAtExactFrameMidBlock schedules a
// SetGain for a frame strictly inside a block and asserts the gain
// change is audible starting on that exact sample, not at the top of
// the block the command happened to be drained in.
func TestMixer_ScheduledCommandAppliesAtExactFrameMidBlock(t *testing.T) {
	t.Parallel()

	spec := signal.Spec{SampleRate: 44100, Channels: 1}
	m := New(spec, 256, nil, nil)
	src := &recordingSource{gain: 1}
	id := m.AddChild(src, 0)

	const targetFrame = 21
	if !m.RouteEvent(id, command.SetGain{Gain: 0.25}, targetFrame) {
		t.Fatal("RouteEvent: target child not found")
	}

	out := make([]float32, 64)
	m.Process(out, 0)

	for i, v := range out {
		want := float32(1)
		if i >= targetFrame {
			want = 0.25
		}
		if v != want {
			t.Fatalf("out[%d] = %v, want %v (targetFrame=%d)", i, v, want, targetFrame)
		}
	}
}

func TestMixer_MasterGainAttenuates(t *testing.T) {
	t.Parallel()

	spec := signal.Spec{SampleRate: 44100, Channels: 1}
	m := New(spec, 64, nil, nil)
	m.AddChild(&constSource{value: 1}, 0)
	m.SetMasterGain(0.5, param.Smoothing{Kind: param.SmoothingNone})

	out := make([]float32, 64)
	m.Process(out, 0)
	if out[0] < 0.49 || out[0] > 0.51 {
		t.Errorf("out[0] = %v, want ~0.5", out[0])
	}
}

func TestGraph_RejectsCycles(t *testing.T) {
	t.Parallel()

	spec := signal.Spec{SampleRate: 44100, Channels: 1}
	root := New(spec, 64, nil, nil)
	g := NewGraph(root)

	a := New(spec, 64, nil, nil)
	b := New(spec, 64, nil, nil)
	g.Register(a)
	g.Register(b)

	if err := g.AddChild(root.ID(), a.ID()); err != nil {
		t.Fatalf("AddChild(root, a): %v", err)
	}
	if err := g.AddChild(a.ID(), b.ID()); err != nil {
		t.Fatalf("AddChild(a, b): %v", err)
	}
	if err := g.AddChild(b.ID(), a.ID()); err == nil {
		t.Fatal("expected AddChild(b, a) to fail: a is already b's ancestor")
	}
}

func TestMixer_ProcessConcurrentMatchesSequentialSum(t *testing.T) {
	t.Parallel()

	spec := signal.Spec{SampleRate: 44100, Channels: 1}

	sub1 := New(spec, 64, nil, nil)
	sub1.AddChild(&constSource{value: 0.1}, 0)
	sub2 := New(spec, 64, nil, nil)
	sub2.AddChild(&constSource{value: 0.2}, 0)

	parent := New(spec, 64, nil, nil)
	parent.AddChild(NewSubMixer(sub1), 0)
	parent.AddChild(NewSubMixer(sub2), 0)
	parent.AddChild(&constSource{value: 0.05}, 0)

	out := make([]float32, 64)
	pool := workerpool.New(2)
	if err := parent.ProcessConcurrent(context.Background(), pool, out, 0); err != nil {
		t.Fatalf("ProcessConcurrent: %v", err)
	}
	for i, v := range out {
		if v < 0.34 || v > 0.36 {
			t.Fatalf("out[%d] = %v, want ~0.35", i, v)
		}
	}
}

func TestGraph_RejectsSelfParent(t *testing.T) {
	t.Parallel()

	spec := signal.Spec{SampleRate: 44100, Channels: 1}
	root := New(spec, 64, nil, nil)
	g := NewGraph(root)
	if err := g.AddChild(root.ID(), root.ID()); err == nil {
		t.Fatal("expected a mixer cannot be its own parent")
	}
}

func TestMixer_AddChildAndRouteEventUnderConcurrentProcess(t *testing.T) {
	t.Parallel()

	spec := signal.Spec{SampleRate: 44100, Channels: 1}
	m := New(spec, 64, nil, nil)

	stop := make(chan struct{})
	var wgAudio sync.WaitGroup
	wgAudio.Add(1)
	go func() {
		defer wgAudio.Done()
		out := make([]float32, 64)
		var now uint64
		for {
			select {
			case <-stop:
				return
			default:
				m.Process(out, now)
				now += 64
			}
		}
	}()

	var wgControl sync.WaitGroup
	ids := make([]ID, 20)
	for i := 0; i < 20; i++ {
		wgControl.Add(1)
		go func(i int) {
			defer wgControl.Done()
			id := m.AddChild(&constSource{value: 0.01}, 0)
			ids[i] = id
			m.RouteEvent(id, command.SetGain{Gain: 0.5}, 0)
		}(i)
	}
	wgControl.Wait()
	close(stop)
	wgAudio.Wait()

	// The race detector, run over this test, is the actual assertion;
	// reaching here without it firing on m.children means AddChild and
	// RouteEvent never touched the slice Process owns without childrenMu.
}

func TestHandle_PlayReleasesPendingChildAtScheduledFrame(t *testing.T) {
	t.Parallel()

	spec := signal.Spec{SampleRate: 44100, Channels: 1}
	m := New(spec, 256, nil, nil)
	id := m.AddChild(&constSource{value: 1}, 1_000_000) // far future

	if !m.RouteEvent(id, command.PlayStart{}, 10) {
		t.Fatal("RouteEvent: target child not found")
	}

	out := make([]float32, 64)
	m.Process(out, 0)

	for i, v := range out {
		want := float32(0)
		if i >= 10 {
			want = 1
		}
		if v != want {
			t.Fatalf("out[%d] = %v, want %v (PlayStart at frame 10)", i, v, want)
		}
	}
}

func TestMixer_AddEffectRemoveEffectMoveEffectApplyLive(t *testing.T) {
	t.Parallel()

	spec := signal.Spec{SampleRate: 44100, Channels: 2}
	m := New(spec, 64, nil, nil)
	m.AddChild(&constSource{value: 1}, 0)

	g1, g2 := effect.NewGain(), effect.NewGain()
	if err := m.AddEffect(g1, 0); err != nil {
		t.Fatalf("AddEffect g1: %v", err)
	}
	if err := m.AddEffect(g2, 0); err != nil {
		t.Fatalf("AddEffect g2: %v", err)
	}

	out := make([]float32, 128)
	m.Process(out, 0) // drains both AddEffect commands
	if n := len(m.effects.Effects()); n != 2 {
		t.Fatalf("len(effects) = %d, want 2 after two AddEffect", n)
	}

	if err := m.MoveEffect(0, 1, 0); err != nil {
		t.Fatalf("MoveEffect: %v", err)
	}
	m.Process(out, 64)
	if got := m.effects.Effects(); len(got) != 2 || got[0] != g2 || got[1] != g1 {
		t.Fatalf("effects after MoveEffect(0,1) = %v, want [g2 g1]", got)
	}

	if err := m.RemoveEffect(0, 0); err != nil {
		t.Fatalf("RemoveEffect: %v", err)
	}
	m.Process(out, 128)
	if got := m.effects.Effects(); len(got) != 1 || got[0] != g1 {
		t.Fatalf("effects after RemoveEffect(0) = %v, want [g1]", got)
	}
}

func TestMixer_AddChildMixerAttachesStagedSubMixerAndRemoveMixerDetaches(t *testing.T) {
	t.Parallel()

	spec := signal.Spec{SampleRate: 44100, Channels: 1}
	sub := New(spec, 64, nil, nil)
	sub.AddChild(&constSource{value: 0.4}, 0)

	parent := New(spec, 64, nil, nil)
	childID := command.NewID()
	subMixer := NewSubMixer(sub)
	parent.PrepareChildMixer(childID, subMixer)
	if err := parent.Enqueue(command.Command{
		Target:    parent.ID(),
		FrameTime: 0,
		Payload:   command.AddChildMixer{Child: childID, StartFrame: 0},
	}); err != nil {
		t.Fatalf("Enqueue AddChildMixer: %v", err)
	}

	out := make([]float32, 64)
	parent.Process(out, 0) // drains AddChildMixer, attaches subMixer as a live child

	for i, v := range out {
		if v < 0.39 || v > 0.41 {
			t.Fatalf("out[%d] = %v, want ~0.4 (sub-mixer attached)", i, v)
		}
	}

	if !parent.RouteEvent(childID, command.RemoveMixer{}, 0) {
		t.Fatal("RouteEvent(RemoveMixer): target child not found")
	}
	parent.Process(out, 64)
	if len(parent.children) != 0 {
		t.Fatalf("expected RemoveMixer to detach the sub-mixer, got %d children", len(parent.children))
	}
}
