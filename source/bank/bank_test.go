// SPDX-License-Identifier: EPL-2.0

package bank

import (
	"bytes"
	"errors"
	"io"
	"testing"

	"github.com/ik5/sonora/decode"
	"golang.org/x/tools/godoc/vfs"
)

// memFS is a minimal vfs.Opener backed by an in-memory map, mirroring
// the teacher's own mock-reader test seams rather than pulling in a
// real filesystem for unit tests.
type memFS struct {
	files map[string][]byte
}

// memFile adds a no-op Close to bytes.Reader so it satisfies
// vfs.ReadSeekCloser.
type memFile struct {
	*bytes.Reader
}

func (memFile) Close() error { return nil }

func (m memFS) Open(name string) (vfs.ReadSeekCloser, error) {
	data, ok := m.files[name]
	if !ok {
		return nil, errors.New("memFS: no such file: " + name)
	}
	return memFile{bytes.NewReader(data)}, nil
}

type stubDecoder struct {
	samples []float32
	channels,
	rate int
}

func (d stubDecoder) Decode(r io.Reader) (decode.Source, error) {
	return &stubSource{samples: d.samples, channels: d.channels, rate: d.rate}, nil
}

type stubSource struct {
	samples  []float32
	channels int
	rate     int
	pos      int
}

func (s *stubSource) SampleRate() int  { return s.rate }
func (s *stubSource) Channels() int    { return s.channels }
func (s *stubSource) TotalFrames() int64 {
	return int64(len(s.samples) / s.channels)
}
func (s *stubSource) LoopRegion() (int64, int64, bool) { return 0, 0, false }
func (s *stubSource) ReadSamples(dst []float32) (int, error) {
	if s.pos >= len(s.samples) {
		return 0, io.EOF
	}
	n := copy(dst, s.samples[s.pos:])
	s.pos += n
	return n, nil
}
func (s *stubSource) Seek(frame int64) error { s.pos = int(frame) * s.channels; return nil }
func (s *stubSource) Close() error           { return nil }

func newTestRegistry() *decode.Registry {
	reg := decode.NewRegistry()
	reg.Register("wav", stubDecoder{samples: []float32{0.1, 0.2, 0.3, 0.4}, channels: 1, rate: 22050})
	return reg
}

func TestLoad_ReadsManifestAndDecodesClips(t *testing.T) {
	t.Parallel()

	fs := memFS{files: map[string][]byte{
		"bank.json": []byte(`[{"name":"blip","path":"blip.wav"}]`),
		"blip.wav":  []byte("fake-wav-bytes"),
	}}

	b, err := Load(newTestRegistry(), fs)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	names := b.Names()
	if len(names) != 1 || names[0] != "blip" {
		t.Fatalf("Names() = %v, want [blip]", names)
	}
}

func TestLoad_SkipsEntriesWithMissingFiles(t *testing.T) {
	t.Parallel()

	fs := memFS{files: map[string][]byte{
		"bank.json": []byte(`[{"name":"missing","path":"nope.wav"},{"name":"ok","path":"ok.wav"}]`),
		"ok.wav":    []byte("fake-wav-bytes"),
	}}

	b, err := Load(newTestRegistry(), fs)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(b.Names()) != 1 {
		t.Fatalf("expected 1 loaded clip, got %d", len(b.Names()))
	}
	if _, ok := b.New("missing", 2); ok {
		t.Error("expected New(\"missing\") to fail")
	}
}

func TestLoad_ReturnsErrorForUnreadableManifest(t *testing.T) {
	t.Parallel()

	fs := memFS{files: map[string][]byte{}}
	if _, err := Load(newTestRegistry(), fs); err == nil {
		t.Fatal("expected error for missing bank.json")
	}
}

func TestBank_NewProducesIndependentPreloadedSources(t *testing.T) {
	t.Parallel()

	fs := memFS{files: map[string][]byte{
		"bank.json": []byte(`[{"name":"blip","path":"blip.wav"}]`),
		"blip.wav":  []byte("fake-wav-bytes"),
	}}
	b, err := Load(newTestRegistry(), fs)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	a, ok := b.New("blip", 2)
	if !ok {
		t.Fatal("expected New(\"blip\") to succeed")
	}
	c, ok := b.New("blip", 2)
	if !ok {
		t.Fatal("expected second New(\"blip\") to succeed")
	}
	if a == c {
		t.Error("expected independent Preloaded instances per New call")
	}
}

func TestLoad_HonorsManifestLoopOverride(t *testing.T) {
	t.Parallel()

	fs := memFS{files: map[string][]byte{
		"bank.json": []byte(`[{"name":"loopy","path":"loopy.wav","loop_start":1,"loop_end":3,"loop_repeat":-1}]`),
		"loopy.wav": []byte("fake-wav-bytes"),
	}}
	b, err := Load(newTestRegistry(), fs)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	c, ok := b.clips["loopy"]
	if !ok {
		t.Fatal("expected loopy clip to be loaded")
	}
	if !c.loop || c.loopStart != 1 || c.loopEnd != 3 {
		t.Errorf("loop = %v [%d,%d), want true [1,3)", c.loop, c.loopStart, c.loopEnd)
	}
}
