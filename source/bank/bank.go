// SPDX-License-Identifier: EPL-2.0

// Package bank loads a manifest of preloaded sample sources from a
// virtual filesystem, generalizing github.com/Lundis/go-gameaudio's
// sfx.Load/playlist.Load (a "sfx.json"/"playlist.json" manifest at the
// root of a golang.org/x/tools/godoc/vfs.Opener, referencing sibling
// audio files) into a single manifest shape that produces
// source.Preloaded instances instead of that engine's own Sound type.
package bank

import (
	"encoding/json"
	"fmt"
	"io"
	"log"
	"path/filepath"
	"time"

	"golang.org/x/tools/godoc/vfs"

	"github.com/ik5/sonora/decode"
	"github.com/ik5/sonora/resample"
	"github.com/ik5/sonora/source"
)

// entry mirrors one manifest row: a named sample, its file path relative
// to the bank's root, and optional loop bounds in source frames.
type entry struct {
	Name       string `json:"name"`
	Path       string `json:"path"`
	LoopStart  int64  `json:"loop_start"`
	LoopEnd    int64  `json:"loop_end"`
	LoopRepeat int    `json:"loop_repeat"`
}

// clip is a fully decoded, ready-to-clone sample: New(deviceChannels)
// wraps it in a fresh source.Preloaded, since a Preloaded owns per-play
// ramp/fade/cursor state and cannot be shared across concurrent plays.
type clip struct {
	buf        []float32
	channels   int
	rate       int
	loop       bool
	loopStart  int64
	loopEnd    int64
	loopRepeat int
}

// Bank is a named collection of preloaded clips read from a manifest,
// keyed by the manifest's "name" field for lookup at play time.
type Bank struct {
	clips map[string]*clip
}

// LoadFolder loads a bank from a "bank.json" manifest at the root of a
// regular filesystem folder, per Lundis's LoadFolder(folder string)
// convenience wrapper.
func LoadFolder(registry *decode.Registry, folder string) (*Bank, error) {
	return Load(registry, vfs.OS(folder))
}

// Load loads a bank from a "bank.json" manifest at the root of
// fileSystem, decoding each referenced clip with registry (keyed by
// file extension without the leading dot, e.g. "wav", "mp3", "ogg",
// "aiff").
func Load(registry *decode.Registry, fileSystem vfs.Opener) (*Bank, error) {
	start := time.Now()
	entries, err := loadManifest(fileSystem, "bank.json")
	if err != nil {
		return nil, err
	}

	clips := make(map[string]*clip, len(entries))
	for _, e := range entries {
		c, err := decodeClip(registry, fileSystem, e)
		if err != nil {
			log.Println("bank: failed to load", e.Path, ":", err)
			continue
		}
		clips[e.Name] = c
	}
	log.Printf("bank: loaded %d clips in %.2fs\n", len(clips), time.Since(start).Seconds())
	return &Bank{clips: clips}, nil
}

func decodeClip(registry *decode.Registry, fileSystem vfs.Opener, e entry) (*clip, error) {
	f, err := fileSystem.Open(e.Path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", e.Path, err)
	}
	defer f.Close()

	format := formatOf(e.Path)
	dec, err := registry.Decode(format, f)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", e.Path, err)
	}
	defer dec.Close()

	buf, err := drain(dec)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", e.Path, err)
	}

	c := &clip{
		buf:      buf,
		channels: dec.Channels(),
		rate:     dec.SampleRate(),
	}
	if e.LoopEnd > e.LoopStart {
		c.loop = true
		c.loopStart = e.LoopStart
		c.loopEnd = e.LoopEnd
		c.loopRepeat = e.LoopRepeat
	} else if start, end, ok := dec.LoopRegion(); ok {
		// honor an embedded loop point (e.g. a WAV smpl chunk) when the
		// manifest doesn't override it.
		c.loop = true
		c.loopStart = start
		c.loopEnd = end
		c.loopRepeat = -1
	}
	return c, nil
}

func drain(src decode.Source) ([]float32, error) {
	var out []float32
	buf := make([]float32, 4096)
	for {
		n, err := src.ReadSamples(buf)
		if n > 0 {
			out = append(out, buf[:n]...)
		}
		if err == io.EOF {
			return out, nil
		}
		if err != nil {
			return nil, err
		}
		if n == 0 {
			return out, nil
		}
	}
}

func formatOf(path string) string {
	ext := filepath.Ext(path)
	if len(ext) > 1 {
		return ext[1:]
	}
	return ext
}

func loadManifest(fs vfs.Opener, path string) ([]entry, error) {
	f, err := fs.Open(path)
	if err != nil {
		return nil, fmt.Errorf("bank: open %s: %w", path, err)
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("bank: read %s: %w", path, err)
	}
	var entries []entry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("bank: parse %s: %w", path, err)
	}
	return entries, nil
}

// New instantiates a fresh, independently playable source.Preloaded for
// the clip registered under name, resampled and channel-mapped for
// deviceChannels. Returns false if name is not present in the bank.
func (b *Bank) New(name string, deviceChannels int) (*source.Preloaded, bool) {
	c, ok := b.clips[name]
	if !ok {
		return nil, false
	}
	resampler := resample.NewFast(c.channels)
	var opts []source.PreloadedOption
	if c.loop {
		opts = append(opts, source.WithLoop(c.loopStart, c.loopEnd, c.loopRepeat))
	}
	return source.NewPreloaded(c.buf, c.channels, c.rate, resampler, deviceChannels, opts...), true
}

// Names returns the manifest names successfully loaded into the bank.
func (b *Bank) Names() []string {
	names := make([]string, 0, len(b.clips))
	for name := range b.clips {
		names = append(names, name)
	}
	return names
}
