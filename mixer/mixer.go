// SPDX-License-Identifier: EPL-2.0

// Package mixer implements the mixer graph: a tree of Mixer nodes, each
// summing its children's audio, applying an effect chain with
// auto-bypass, and reporting CPU/level metering, per spec.md §4.8. The
// tree's acyclicity invariant (spec.md §8 property 2) is enforced by
// Graph, which holds mixers in a flat arena keyed by ID and walks
// ancestors before linking, following spec.md §9's "parent pointers, if
// stored, are weak references into an arena keyed by MixerId" guidance.
package mixer

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ik5/sonora/command"
	"github.com/ik5/sonora/effect"
	"github.com/ik5/sonora/param"
	"github.com/ik5/sonora/signal"
	"github.com/ik5/sonora/source"
	"github.com/ik5/sonora/workerpool"
)

// ID identifies a Mixer for the lifetime of the process. It is the same
// ID space command.Command targets address, so a handle can enqueue a
// command for either a mixer or a source/effect it owns without a
// separate identifier scheme.
type ID = command.ID

// ErrInvalidState is returned when an operation is incompatible with
// the graph's current shape, e.g. an edge that would create a cycle.
var ErrInvalidState = errors.New("mixer: invalid state")

// ChildState names where a mixer child (a Source) sits in its
// lifecycle, per spec.md §4.8's state machine:
// Pending -> Active -> FadingOut -> Stopped(exhausted|stopped|error).
type ChildState int

const (
	ChildPending ChildState = iota
	ChildActive
	ChildFadingOut
	ChildStopped
)

// liveRef is the atomic status snapshot a Handle reads without
// synchronizing with the audio thread, per spec.md §4.11: "is_playing
// reads a per-id atomic kept updated by the audio thread". One is
// allocated per child at AddChild time (control-thread side, not the
// audio thread), then only ever read or stored atomically afterward.
type liveRef struct {
	playing       atomic.Bool
	positionNanos atomic.Int64
}

type child struct {
	id         ID
	src        source.Source
	state      ChildState
	startFrame uint64
	cmdQueue   *command.Queue
	live       *liveRef
	scratch    *signal.Buffer // lazily sized; per-child so concurrent sub-mixer fan-out never races
	dueEvents  []dueEvent     // reused scratch for this block's due commands, sorted by offset
}

// dueEvent is a command that has become due within the block currently
// being rendered, expressed as an offset (in frames from the block's
// first frame) rather than an absolute FrameTime, so the render loop
// can split its Write calls at the exact sample it targets.
type dueEvent struct {
	offset int
	ev     command.Payload
}

// sortDueEvents orders s by offset ascending. Command queues rarely
// hold more than one or two due events per block, so a plain insertion
// sort avoids pulling in sort.Slice's reflection overhead on the audio
// thread.
func sortDueEvents(s []dueEvent) {
	for i := 1; i < len(s); i++ {
		for j := i; j > 0 && s[j-1].offset > s[j].offset; j-- {
			s[j-1], s[j] = s[j], s[j-1]
		}
	}
}

// Mixer sums its children's audio, applies an effect chain, and mixes
// the result into its parent (or, for the root mixer, the output
// device). Every buffer it owns is preallocated to the device's max
// block size; Process never allocates.
type Mixer struct {
	id       ID
	spec     signal.Spec
	children []*child
	effects  *effect.Chain
	cmdQueue *command.Queue
	bus      *command.Bus

	masterGain *param.Ramp
	masterPan  *param.Ramp

	accum   *signal.Buffer
	scratch *signal.Buffer
	meter   signal.Meter

	cpuEMA  float32
	cpuPeak float32

	now time.Time // injected for deterministic tests; zero means use time.Now

	// childrenMu guards both children (appended by AddChild/AddChildWithID
	// and by applyMixerCommand's AddChildMixer handling, iterated and
	// reassigned every block by Process/ProcessConcurrent) and
	// dispatchToChild's lookup, so a control-side AddChild/RouteEvent call
	// never races the audio thread's own read of the slice. Held only for
	// a slice append or a linear scan over a handful of children, never
	// across a blocking call, so it never stalls the audio thread for
	// longer than a plain liveMu critical section already does elsewhere
	// in this file.
	childrenMu sync.Mutex

	liveMu   sync.Mutex
	liveRefs map[ID]*liveRef

	pendingMu   sync.Mutex
	pendingKids map[ID]source.Source
}

// New returns a Mixer for spec, with scratch/accumulation buffers sized
// for maxBlockFrames.
func New(spec signal.Spec, maxBlockFrames int, effects *effect.Chain, bus *command.Bus) *Mixer {
	if effects == nil {
		effects = effect.NewChain()
	}
	return &Mixer{
		id:         command.NewID(),
		spec:       spec,
		effects:    effects,
		cmdQueue:   command.NewQueue(256),
		bus:        bus,
		masterGain: param.NewRamp(1),
		masterPan:  param.NewRamp(0),
		accum:      signal.NewBuffer(spec.Channels, maxBlockFrames),
		scratch:    signal.NewBuffer(spec.Channels, maxBlockFrames),
		liveRefs:   make(map[ID]*liveRef),
	}
}

// ID returns the mixer's process-unique identifier.
func (m *Mixer) ID() ID { return m.id }

// Enqueue posts cmd to this mixer's own command queue for the audio
// thread to drain on its next Process call, addressed either to a
// child (Command.Target is that child's ID) or to the mixer itself
// (Command.Target is m.ID(), for AddEffect/RemoveEffect/MoveEffect/
// AddChildMixer). Returns command.ErrQueueFull if saturated.
func (m *Mixer) Enqueue(cmd command.Command) error {
	return m.cmdQueue.Push(cmd)
}

// AddEffect, RemoveEffect, and MoveEffect schedule a live mutation of
// this mixer's effect chain for the audio thread to apply at frameTime
// (0 for as soon as possible), via the same cmdQueue/drainCommands path
// RouteEvent uses for children.
func (m *Mixer) AddEffect(e effect.Effect, frameTime uint64) error {
	return m.Enqueue(command.Command{Target: m.id, FrameTime: frameTime, Payload: command.AddEffect{Effect: e}})
}

func (m *Mixer) RemoveEffect(index int, frameTime uint64) error {
	return m.Enqueue(command.Command{Target: m.id, FrameTime: frameTime, Payload: command.RemoveEffect{Index: index}})
}

func (m *Mixer) MoveEffect(from, to int, frameTime uint64) error {
	return m.Enqueue(command.Command{Target: m.id, FrameTime: frameTime, Payload: command.MoveEffect{From: from, To: to}})
}

// PrepareChildMixer stages src (typically a *SubMixer) under id ahead of
// a scheduled AddChildMixer command that attaches it. A live
// source.Source can't travel through command.Payload itself (package
// command sits below package source and would need to import it,
// creating a cycle), so the value waits here, keyed by id, until
// applyMixerCommand claims it.
func (m *Mixer) PrepareChildMixer(id ID, src source.Source) {
	m.pendingMu.Lock()
	if m.pendingKids == nil {
		m.pendingKids = make(map[ID]source.Source)
	}
	m.pendingKids[id] = src
	m.pendingMu.Unlock()
}

// AddChild attaches src as a new Pending child under a freshly minted
// ID, returning the ID assigned to address it with future commands
// (Stop, Seek, etc. routed through ApplyEvent). Safe to call from any
// goroutine.
func (m *Mixer) AddChild(src source.Source, startFrame uint64) ID {
	return m.AddChildWithID(src, startFrame, command.NewID())
}

// AddChildWithID is AddChild for a source that must already know its
// own routable ID before it starts running, e.g. source.Streamed, which
// tags the command.Status events its decoder worker emits (Underrun,
// StoppedWithError) with an ID baked in at construction. Without this,
// the id a Streamed reports its own status under and the id a Handle
// later routes commands to would diverge. Safe to call from any
// goroutine.
func (m *Mixer) AddChildWithID(src source.Source, startFrame uint64, id ID) ID {
	m.attachChild(src, startFrame, id)
	return id
}

// attachChild does the actual children append, shared by the
// synchronous AddChild/AddChildWithID path and applyMixerCommand's
// AddChildMixer handling, which runs on the audio thread itself during
// drainCommands.
func (m *Mixer) attachChild(src source.Source, startFrame uint64, id ID) {
	live := &liveRef{}
	c := &child{
		id:         id,
		src:        src,
		state:      ChildPending,
		startFrame: startFrame,
		cmdQueue:   command.NewQueue(32),
		live:       live,
	}
	m.childrenMu.Lock()
	m.children = append(m.children, c)
	m.childrenMu.Unlock()

	m.liveMu.Lock()
	m.liveRefs[id] = live
	m.liveMu.Unlock()
}

// PlayingRef returns the atomic status snapshot for id, for a Handle to
// read lock-free without touching the audio thread. Returns false if id
// is unknown to this mixer (NotFound).
func (m *Mixer) PlayingRef(id ID) (command.PlayRef, bool) {
	m.liveMu.Lock()
	defer m.liveMu.Unlock()
	ref, ok := m.liveRefs[id]
	if !ok {
		return nil, false
	}
	return ref, true
}

// IsPlaying reports whether id refers to a still-active child.
func (ref *liveRef) IsPlaying() bool { return ref.playing.Load() }

// Position reports the last position ref's owning source reported.
func (ref *liveRef) Position() time.Duration { return time.Duration(ref.positionNanos.Load()) }

// RouteEvent schedules ev for the child identified by id at frameTime
// (a device sample frame; 0 means "as soon as possible", applied at the
// top of the next block that drains it). Callable from any goroutine:
// rather than walking m.children itself (which only the audio thread
// may safely touch, since Process/ProcessConcurrent reassign it every
// block), RouteEvent posts to this mixer's own cmdQueue and leaves the
// actual per-child dispatch to drainCommands, run on the audio thread
// at the top of the next Process/ProcessConcurrent call, which then
// splits the block at frameTime per spec.md §4.8.
//
// The returned bool is a best-effort existence check against liveRefs,
// the one children index both threads already keep in sync under
// liveMu; a child that exhausts in the gap between this check and the
// audio thread actually draining the command still silently drops the
// event, exactly as it would if Stop had raced a natural end of
// playback in a single-threaded design.
func (m *Mixer) RouteEvent(id ID, ev command.Payload, frameTime uint64) bool {
	m.liveMu.Lock()
	_, ok := m.liveRefs[id]
	m.liveMu.Unlock()
	if !ok {
		return false
	}
	_ = m.cmdQueue.Push(command.Command{Target: id, FrameTime: frameTime, Payload: ev})
	return true
}

// dispatchToChild delivers cmd to the child it targets by pushing onto
// that child's own per-child cmdQueue. Only the audio thread, from
// drainCommands, may call this: it is the sole place m.children is
// walked while also possibly being appended to by a concurrent
// AddChild, so it takes childrenMu for the scan.
func (m *Mixer) dispatchToChild(cmd command.Command) {
	m.childrenMu.Lock()
	defer m.childrenMu.Unlock()
	for _, c := range m.children {
		if c.id == cmd.Target {
			_ = c.cmdQueue.Push(cmd)
			return
		}
	}
}

// applyMixerCommand handles a command addressed to the mixer itself
// (Command.Target == m.ID()) rather than to one of its children:
// live effect-chain edits and attaching a sub-mixer staged with
// PrepareChildMixer. Only called from drainCommands, on the audio
// thread.
func (m *Mixer) applyMixerCommand(ev command.Payload) {
	switch e := ev.(type) {
	case command.AddEffect:
		m.effects.Append(e.Effect)
	case command.RemoveEffect:
		m.effects.Remove(e.Index)
	case command.MoveEffect:
		m.effects.Move(e.From, e.To)
	case command.AddChildMixer:
		m.pendingMu.Lock()
		src, ok := m.pendingKids[e.Child]
		if ok {
			delete(m.pendingKids, e.Child)
		}
		m.pendingMu.Unlock()
		if ok {
			m.attachChild(src, e.StartFrame, e.Child)
		}
	}
}

// SetMasterGain and SetMasterPan queue smoothed changes to the mixer's output
// stage, applied after the effect chain per spec.md §4.8 step 5.
func (m *Mixer) SetMasterGain(gain float64, smoothing param.Smoothing) {
	m.masterGain.SetTarget(gain, smoothing)
}

func (m *Mixer) SetMasterPan(pan float64, smoothing param.Smoothing) {
	m.masterPan.SetTarget(pan, smoothing)
}

// Meter exposes the mixer's last-measured peak/RMS, for host-side level
// display.
func (m *Mixer) Meter() *signal.Meter { return &m.meter }

// CPULoad returns the exponential-moving-average and peak-hold CPU load
// fractions (1.0 = using the entire block's real-time budget).
func (m *Mixer) CPULoad() (ema, peak float32) { return m.cpuEMA, m.cpuPeak }

// Process implements spec.md §4.8's per-block algorithm: drain due
// commands, pull and sum each child, drop exhausted/errored children
// with a status event, run the effect chain, apply master gain/pan,
// and update CPU metering. out must be sized for spec.Channels *
// frames.
func (m *Mixer) Process(out []float32, now uint64) {
	start := m.wallNow()
	frames := len(out) / m.spec.Channels
	m.drainCommands()

	accumBuf := m.prepareAccum(frames, len(out))
	m.sumChildrenSequential(accumBuf, out, now)
	m.finishBlock(accumBuf, out, frames, start)
}

// ProcessConcurrent is Process's fan-out variant, per spec.md §4.10:
// children wrapping a SubMixer are written concurrently across pool
// (each into its own preallocated scratch buffer so no two goroutines
// touch the same memory), then summed into the accumulator on the
// calling goroutine in a fixed order, so output is bit-identical to the
// sequential path regardless of goroutine scheduling. Plain (non
// sub-mixer) children are still pulled sequentially, since they're
// typically cheap enough that fanning them out would just add
// scheduling overhead.
func (m *Mixer) ProcessConcurrent(ctx context.Context, pool *workerpool.Pool, out []float32, now uint64) error {
	start := m.wallNow()
	frames := len(out) / m.spec.Channels
	m.drainCommands()

	accumBuf := m.prepareAccum(frames, len(out))

	m.childrenMu.Lock()
	live := m.children[:0]
	var subMixers []*child
	var plain []*child
	for _, c := range m.children {
		if _, ok := c.src.(*SubMixer); ok {
			if c.scratch == nil || c.scratch.Channels() != m.spec.Channels {
				c.scratch = signal.NewBuffer(m.spec.Channels, frames)
			}
			c.scratch.Reset()
			c.scratch.SetFrames(frames)
			subMixers = append(subMixers, c)
		} else {
			plain = append(plain, c)
		}
		live = append(live, c)
	}
	m.childrenMu.Unlock()

	if len(subMixers) > 0 {
		jobs := make([]func(context.Context) error, len(subMixers))
		for i, c := range subMixers {
			c := c
			jobs[i] = func(context.Context) error {
				buf := c.scratch.Full()[:len(out)]
				m.writeChild(c, buf, now, frames)
				return nil
			}
		}
		if err := pool.Run(ctx, jobs); err != nil {
			return err
		}
	}

	for _, c := range subMixers {
		buf := c.scratch.Full()[:len(out)]
		signal.AddInto(accumBuf, buf)
		m.retireOrKeepChild(c)
	}
	for _, c := range plain {
		m.scratch.Reset()
		scratchBuf := m.scratch.Full()[:len(out)]
		m.writeChild(c, scratchBuf, now, frames)
		signal.AddInto(accumBuf, scratchBuf)
		m.retireOrKeepChild(c)
	}

	m.childrenMu.Lock()
	m.children = m.dropDeadChildren(live)
	m.childrenMu.Unlock()
	m.finishBlock(accumBuf, out, frames, start)
	return nil
}

// drainCommands empties this mixer's own cmdQueue, the landing spot for
// every RouteEvent/Enqueue call from any control-side goroutine.
// Commands targeting the mixer itself are applied directly; everything
// else is handed to dispatchToChild, which walks m.children under
// childrenMu to find the addressed child's own per-child queue. Only
// the audio thread calls this, at the top of Process/ProcessConcurrent.
func (m *Mixer) drainCommands() {
	m.cmdQueue.Drain(func(cmd command.Command) {
		if cmd.Target == m.id {
			m.applyMixerCommand(cmd.Payload)
			return
		}
		m.dispatchToChild(cmd)
	})
}

func (m *Mixer) prepareAccum(frames, outLen int) []float32 {
	m.accum.Reset()
	m.accum.SetFrames(frames)
	accumBuf := m.accum.Full()[:outLen]
	signal.Fill(accumBuf, 0)
	return accumBuf
}

func (m *Mixer) sumChildrenSequential(accumBuf, out []float32, now uint64) {
	frames := len(out) / m.spec.Channels
	m.childrenMu.Lock()
	defer m.childrenMu.Unlock()
	live := m.children[:0]
	for _, c := range m.children {
		m.scratch.Reset()
		scratchBuf := m.scratch.Full()[:len(out)]
		m.writeChild(c, scratchBuf, now, frames)
		signal.AddInto(accumBuf, scratchBuf)
		c.live.positionNanos.Store(int64(c.src.Position()))

		if c.src.IsExhausted() {
			m.markStopped(c)
			continue // drop from live set
		}
		live = append(live, c)
	}
	m.children = live
}

// writeChild renders c's contribution to this block into scratchBuf
// (pre-sized like the caller's block buffer), splitting the render
// into sub-segments at c.startFrame and at any command drained from
// c.cmdQueue whose FrameTime falls inside [now, now+frames), so a
// source's onset or a scheduled stop/seek/parameter change lands on
// the exact sample it targets rather than at the next block boundary,
// per spec.md §4.8 step 1. Commands past the block are left queued.
func (m *Mixer) writeChild(c *child, scratchBuf []float32, now uint64, frames int) {
	channels := m.spec.Channels
	signal.Fill(scratchBuf, 0)
	if frames == 0 {
		return
	}
	blockEnd := now + uint64(frames)

	// Drain due commands before deciding whether c starts this block:
	// a PlayStart can pull a Pending child's startFrame into (or
	// earlier within) this block, so the fullyFuture/activeFrom
	// decision below has to see the post-PlayStart startFrame, not the
	// one c was created with.
	c.dueEvents = c.dueEvents[:0]
	c.cmdQueue.DrainDue(blockEnd, func(cmd command.Command) {
		off := 0
		if cmd.FrameTime > now {
			off = int(cmd.FrameTime - now)
			if off > frames-1 {
				off = frames - 1
			}
		}
		if _, ok := cmd.Payload.(command.PlayStart); ok && c.state == ChildPending {
			start := now + uint64(off)
			if start < c.startFrame {
				c.startFrame = start
			}
			return
		}
		c.dueEvents = append(c.dueEvents, dueEvent{offset: off, ev: cmd.Payload})
	})
	sortDueEvents(c.dueEvents)

	activeFrom := 0
	fullyFuture := c.state == ChildPending && c.startFrame >= blockEnd
	if c.state == ChildPending && !fullyFuture && c.startFrame > now {
		activeFrom = int(c.startFrame - now)
	}

	if fullyFuture {
		// Not started yet this block; still apply due commands so
		// whatever target they set is already in place once the
		// child does start.
		for _, e := range c.dueEvents {
			c.src.ApplyEvent(e.ev)
		}
		return
	}

	segStart := activeFrom
	evIdx := 0
	for segStart < frames {
		for evIdx < len(c.dueEvents) && c.dueEvents[evIdx].offset <= segStart {
			c.src.ApplyEvent(c.dueEvents[evIdx].ev)
			evIdx++
		}
		if c.state == ChildPending {
			c.state = ChildActive
			c.live.playing.Store(true)
		}
		segEnd := frames
		if evIdx < len(c.dueEvents) && c.dueEvents[evIdx].offset > segStart {
			segEnd = c.dueEvents[evIdx].offset
		}
		seg := scratchBuf[segStart*channels : segEnd*channels]
		c.src.Write(seg, m.spec, now+uint64(segStart))
		segStart = segEnd
	}
}

// retireOrKeepChild updates position/exhaustion bookkeeping for a child
// already written by ProcessConcurrent's fan-out or plain pass; the
// actual removal from m.children happens in dropDeadChildren since live
// was already snapshotted before the concurrent writes started.
func (m *Mixer) retireOrKeepChild(c *child) {
	c.live.positionNanos.Store(int64(c.src.Position()))
	if c.src.IsExhausted() {
		m.markStopped(c)
	}
}

func (m *Mixer) markStopped(c *child) {
	c.live.playing.Store(false)
	if m.bus != nil {
		_ = m.bus.Send(command.Stopped{Source: c.id, Exhausted: true})
	}
	m.liveMu.Lock()
	delete(m.liveRefs, c.id)
	m.liveMu.Unlock()
}

func (m *Mixer) dropDeadChildren(candidates []*child) []*child {
	live := candidates[:0]
	for _, c := range candidates {
		if c.src.IsExhausted() {
			continue
		}
		live = append(live, c)
	}
	return live
}

func (m *Mixer) finishBlock(accumBuf, out []float32, frames int, start time.Time) {
	m.meter.Measure(accumBuf)
	m.effects.Process(accumBuf, m.spec.Channels, m.spec.SampleRate)

	gain := m.masterGain.Current()
	m.masterGain.AdvanceBlock(frames)
	signal.Scale(accumBuf, float32(gain))
	if m.spec.Channels == 2 {
		signal.Pan(accumBuf, m.spec.Channels, float32(m.masterPan.Current()))
		m.masterPan.AdvanceBlock(frames)
	}
	copy(out, accumBuf)

	m.updateCPULoad(start, frames)
}

func (m *Mixer) wallNow() time.Time {
	if !m.now.IsZero() {
		return m.now
	}
	return time.Now()
}

func (m *Mixer) updateCPULoad(start time.Time, frames int) {
	if frames == 0 || m.spec.SampleRate == 0 {
		return
	}
	elapsed := time.Since(start)
	budget := time.Duration(float64(frames) / float64(m.spec.SampleRate) * float64(time.Second))
	if budget == 0 {
		return
	}
	load := float32(elapsed) / float32(budget)
	const emaAlpha = 0.1
	m.cpuEMA = m.cpuEMA + emaAlpha*(load-m.cpuEMA)
	if load > m.cpuPeak {
		m.cpuPeak = load
	}
}
