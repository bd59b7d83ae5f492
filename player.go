// SPDX-License-Identifier: EPL-2.0

package sonora

import (
	"context"
	"fmt"
	"io"
	"log"
	"path/filepath"
	"sync"

	"github.com/ik5/sonora/command"
	"github.com/ik5/sonora/decode"
	"github.com/ik5/sonora/decode/aiff"
	"github.com/ik5/sonora/decode/mp3"
	"github.com/ik5/sonora/decode/vorbis"
	"github.com/ik5/sonora/decode/wav"
	"github.com/ik5/sonora/device"
	"github.com/ik5/sonora/effect"
	"github.com/ik5/sonora/handle"
	"github.com/ik5/sonora/mixer"
	"github.com/ik5/sonora/resample"
	"github.com/ik5/sonora/signal"
	"github.com/ik5/sonora/source"
	"github.com/ik5/sonora/workerpool"
)

// preloadFrameLimit bounds how many source frames PlayFile will decode
// fully into RAM before switching to Streamed, per spec.md §4.2/§4.3's
// preloaded-vs-streamed split ("preloaded = entire file decoded in RAM;
// streamed = decoded on demand"). 30 seconds of 8-channel float32 audio
// at a typical 48 kHz caps a single preload around 46 MB.
const preloadFrameLimit = 30 * 48000

// Player is the top-level orchestrator spec.md §4/§9 describes: it owns
// an independent mixer.Graph, decode.Registry, workerpool.Pool, and
// output device.Device, generalizing the teacher's audio.Player (a
// direct Decoder->Resampler->int16 pipeline) into the full mixer-graph
// engine. Every mutating call returns a handle.Handle rather than
// touching graph state directly, per spec.md §4.11.
type Player struct {
	cfg Config

	registry *decode.Registry
	graph    *mixer.Graph
	root     *mixer.Mixer
	bus      *command.Bus
	pool     *workerpool.Pool
	dev      device.Device
	spec     signal.Spec

	mu            sync.Mutex
	closed        bool
	stopCh        chan struct{}
	wg            sync.WaitGroup
	subMixerLinks map[mixer.ID]subMixerLink
}

// subMixerLink records, for a sub-mixer registered by AddSubMixer, the
// parent mixer it was linked under and the child ID that parent
// addresses it by, so RemoveMixer can find both from just the
// sub-mixer's own ID.
type subMixerLink struct {
	parent  *mixer.Mixer
	childID mixer.ID
}

// New constructs a Player, registers the built-in wav/aiff/mp3/vorbis
// decoders, opens dev (falling back to device.NewNull at cfg's rate if
// dev is nil), and starts the audio callback loop.
func New(dev device.Device, opts ...Option) (*Player, error) {
	cfg := Config{}.withDefaults(opts...)

	spec, err := signal.NewSpec(cfg.SampleRate, cfg.Channels)
	if err != nil {
		return nil, fmt.Errorf("sonora: %w", err)
	}

	if dev == nil {
		dev = device.NewNull(cfg.SampleRate, cfg.Channels, cfg.MaxBlockFrames)
	}
	if err := dev.Open(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDevice, err)
	}

	registry := decode.NewRegistry()
	registry.Register("wav", wav.Decoder{})
	registry.Register("aiff", aiff.Decoder{})
	registry.Register("aif", aiff.Decoder{})
	registry.Register("mp3", mp3.Decoder{})
	registry.Register("ogg", vorbis.Decoder{})

	bus := command.NewBus(cfg.StatusQueueCapacity)
	root := mixer.New(spec, cfg.MaxBlockFrames, effect.NewChain(), bus)
	graph := mixer.NewGraph(root)

	p := &Player{
		cfg:      cfg,
		registry: registry,
		graph:    graph,
		root:     root,
		bus:      bus,
		pool:     workerpool.New(cfg.Workers),
		dev:      dev,
		spec:     spec,
		stopCh:   make(chan struct{}),
	}

	if err := dev.Start(p.pull); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDevice, err)
	}

	p.wg.Add(1)
	go p.drainStatus()

	return p, nil
}

// pull is the device.Callback the audio device drives on its own
// cadence: it asks the root mixer for len(out)/spec.Channels frames via
// ProcessConcurrent, fanning independent sub-mixer subtrees out over
// p.pool per spec.md §4.10, then soft-clips the finished block with
// signal.Clip at the output boundary.
func (p *Player) pull(out []float32, frames int, now uint64) {
	if err := p.root.ProcessConcurrent(context.Background(), p.pool, out, now); err != nil {
		log.Printf("sonora: mixer process error: %v", err)
	}
	signal.Clip(out)
}

// drainStatus forwards command.Bus events to the standard logger,
// mirroring the teacher's habit of logging decode/playback failures
// rather than propagating them synchronously (there is no synchronous
// caller left once a source is playing on the audio thread).
func (p *Player) drainStatus() {
	defer p.wg.Done()
	for {
		select {
		case <-p.stopCh:
			return
		case s, ok := <-p.bus.Recv():
			if !ok {
				return
			}
			p.logStatus(s)
		}
	}
}

func (p *Player) logStatus(s command.Status) {
	switch v := s.(type) {
	case command.Stopped:
		log.Printf("sonora: source %d stopped (exhausted=%v)", v.Source, v.Exhausted)
	case command.StoppedWithError:
		log.Printf("sonora: source %d stopped with error: %v", v.Source, v.Err)
	case command.Underrun:
		log.Printf("sonora: source %d underrun: %d frames of silence", v.Source, v.Frames)
	case command.Poisoned:
		log.Printf("sonora: %v", asPoisonedError(v))
	case command.ParameterChanged:
		// No default log line: hosts that care about parameter
		// completion should read the bus themselves via Player.Status.
	}
}

// Status returns the channel of command.Status events the audio thread
// reports, for a caller that wants to observe underruns or poisoned
// sources directly rather than relying on the log output drainStatus
// already produces.
func (p *Player) Status() <-chan command.Status {
	return p.bus.Recv()
}

// PlayFile decodes r as format ("wav", "mp3", "ogg", "aiff") and adds it
// as a new child of the root mixer, choosing Preloaded or Streamed per
// spec.md §4.2/§4.3 based on the decoded stream's frame count.
func (p *Player) PlayFile(r io.Reader, format string) (handle.Handle, error) {
	dec, err := p.registry.Decode(format, r)
	if err != nil {
		return handle.Handle{}, fmt.Errorf("%w: %v", ErrDecode, err)
	}

	if total := dec.TotalFrames(); total >= 0 && total <= preloadFrameLimit {
		return p.playPreloaded(dec)
	}
	return p.playStreamed(dec)
}

// PlayPath opens path, derives its format from the file extension, and
// delegates to PlayFile. The caller retains ownership of closing
// nothing extra: PlayFile's underlying decode.Source closes its own
// reader where relevant (see decode/wav, decode/mp3, decode/vorbis,
// decode/aiff).
func (p *Player) PlayPath(opener func(string) (io.ReadCloser, error), path string) (handle.Handle, error) {
	f, err := opener(path)
	if err != nil {
		return handle.Handle{}, fmt.Errorf("%w: %v", ErrIO, err)
	}
	format := formatOf(path)
	h, err := p.PlayFile(f, format)
	if err != nil {
		f.Close()
		return handle.Handle{}, err
	}
	return h, nil
}

func (p *Player) playPreloaded(dec decode.Source) (handle.Handle, error) {
	defer dec.Close()
	buf, err := drainSamples(dec)
	if err != nil {
		return handle.Handle{}, fmt.Errorf("%w: %v", ErrDecode, err)
	}

	var opts []source.PreloadedOption
	if start, end, ok := dec.LoopRegion(); ok {
		opts = append(opts, source.WithLoop(start, end, -1))
	}

	resampler := resample.NewQuality(dec.Channels(), p.cfg.Quality)
	src := source.NewPreloaded(buf, dec.Channels(), dec.SampleRate(), resampler, p.cfg.Channels, opts...)
	id := p.root.AddChild(src, 0)
	return handle.New(p.root, id), nil
}

func (p *Player) playStreamed(dec decode.Source) (handle.Handle, error) {
	resampler := resample.NewQuality(dec.Channels(), p.cfg.Quality)
	id := command.NewID()
	src := source.NewStreamed(dec, resampler, p.cfg.Channels, p.bus, id)
	childID := p.root.AddChildWithID(src, 0, id)
	return handle.New(p.root, childID), nil
}

// Root returns the graph's root mixer ID, for callers that want to add
// nested sub-mixers via Graph/AddSubMixer.
func (p *Player) Root() mixer.ID { return p.graph.Root() }

// Mixer returns the *mixer.Mixer registered under id (the root or any
// sub-mixer returned by AddSubMixer), for callers that want to edit its
// effect chain live via Mixer.AddEffect/RemoveEffect/MoveEffect.
func (p *Player) Mixer(id mixer.ID) (*mixer.Mixer, bool) {
	return p.graph.Get(id)
}

// AddSubMixer creates a new Mixer under parent, wraps it in a
// mixer.SubMixer, and links it into the graph as a child that starts
// contributing audio at startFrame (0 for immediately), the same
// sample-accurate gate any other AddChild caller gets. Returns the new
// mixer's ID (addressable for further nesting) and a Handle for its
// master gain/pan, both usable the instant this call returns: unlike
// RouteEvent's command-queue path, the attach itself runs synchronously
// under Mixer's childrenMu, so there is no window where the returned
// Handle addresses a not-yet-attached child.
func (p *Player) AddSubMixer(parent mixer.ID, effects *effect.Chain, startFrame uint64) (mixer.ID, handle.Handle, error) {
	sub := mixer.New(p.spec, p.cfg.MaxBlockFrames, effects, p.bus)
	p.graph.Register(sub)
	if err := p.graph.AddChild(parent, sub.ID()); err != nil {
		return 0, handle.Handle{}, err
	}
	parentMixer, ok := p.graph.Get(parent)
	if !ok {
		return 0, handle.Handle{}, fmt.Errorf("%w: unknown parent mixer %d", ErrInvalidState, parent)
	}
	childID := parentMixer.AddChild(mixer.NewSubMixer(sub), startFrame)

	p.mu.Lock()
	if p.subMixerLinks == nil {
		p.subMixerLinks = make(map[mixer.ID]subMixerLink)
	}
	p.subMixerLinks[sub.ID()] = subMixerLink{parent: parentMixer, childID: childID}
	p.mu.Unlock()

	return sub.ID(), handle.New(parentMixer, childID), nil
}

// RemoveMixer detaches the sub-mixer id (previously returned by
// AddSubMixer) from its parent at frameTime (0 for as soon as
// possible). The sub-mixer's own children keep rendering into it until
// the parent actually drops it; nothing about this call is synchronous
// with the audio thread beyond the usual command-queue latency.
func (p *Player) RemoveMixer(id mixer.ID, frameTime uint64) error {
	p.mu.Lock()
	link, ok := p.subMixerLinks[id]
	if ok {
		delete(p.subMixerLinks, id)
	}
	p.mu.Unlock()
	if !ok {
		return fmt.Errorf("%w: unknown sub-mixer %d", ErrInvalidState, id)
	}
	if !link.parent.RouteEvent(link.childID, command.RemoveMixer{}, frameTime) {
		return fmt.Errorf("%w: sub-mixer %d already detached", ErrInvalidState, id)
	}
	p.graph.Remove(id)
	return nil
}

// Close stops the device's pull loop and the status-draining goroutine.
// Safe to call more than once.
func (p *Player) Close() error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	p.mu.Unlock()

	close(p.stopCh)
	err := p.dev.Stop()
	p.wg.Wait()
	return err
}

func formatOf(path string) string {
	ext := filepath.Ext(path)
	if len(ext) > 1 {
		return ext[1:]
	}
	return ext
}

func drainSamples(src decode.Source) ([]float32, error) {
	var out []float32
	buf := make([]float32, 4096)
	for {
		n, err := src.ReadSamples(buf)
		if n > 0 {
			out = append(out, buf[:n]...)
		}
		if err == io.EOF || n == 0 {
			return out, nil
		}
		if err != nil {
			return nil, err
		}
	}
}
