// SPDX-License-Identifier: EPL-2.0

package sonora

import (
	"bytes"
	"encoding/binary"
	"testing"
	"time"

	"github.com/ik5/sonora/device"
	"github.com/ik5/sonora/effect"
	"github.com/ik5/sonora/param"
)

// buildWAV writes a minimal 16-bit PCM mono WAV, mirroring
// decode/wav's own test helper, kept local so this package's tests
// don't reach into an internal package's test file.
func buildWAV(t *testing.T, sampleRate int, samples []int16) []byte {
	t.Helper()

	buf := new(bytes.Buffer)
	byteRate := uint32(sampleRate) * 2
	dataSize := uint32(len(samples) * 2)
	riffSize := 4 + (8 + 16) + (8 + int(dataSize))

	buf.WriteString("RIFF")
	_ = binary.Write(buf, binary.LittleEndian, uint32(riffSize))
	buf.WriteString("WAVE")
	buf.WriteString("fmt ")
	_ = binary.Write(buf, binary.LittleEndian, uint32(16))
	_ = binary.Write(buf, binary.LittleEndian, uint16(1))
	_ = binary.Write(buf, binary.LittleEndian, uint16(1))
	_ = binary.Write(buf, binary.LittleEndian, uint32(sampleRate))
	_ = binary.Write(buf, binary.LittleEndian, byteRate)
	_ = binary.Write(buf, binary.LittleEndian, uint16(2))
	_ = binary.Write(buf, binary.LittleEndian, uint16(16))
	buf.WriteString("data")
	_ = binary.Write(buf, binary.LittleEndian, dataSize)
	for _, s := range samples {
		_ = binary.Write(buf, binary.LittleEndian, s)
	}
	return buf.Bytes()
}

func TestNew_DefaultsToNullDeviceAndCloses(t *testing.T) {
	t.Parallel()

	p, err := New(nil, WithSampleRate(8000), WithChannels(1))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := p.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	// A second Close must be a safe no-op.
	if err := p.Close(); err != nil {
		t.Fatalf("second Close: %v", err)
	}
}

func TestPlayFile_PreloadsShortWAVAndReportsPlaying(t *testing.T) {
	t.Parallel()

	samples := make([]int16, 4000)
	for i := range samples {
		samples[i] = 1000
	}
	data := buildWAV(t, 8000, samples)

	p, err := New(device.NewNull(8000, 1, 256), WithSampleRate(8000), WithChannels(1))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer p.Close()

	h, err := p.PlayFile(bytes.NewReader(data), "wav")
	if err != nil {
		t.Fatalf("PlayFile: %v", err)
	}
	time.Sleep(50 * time.Millisecond)
	if !h.IsPlaying() {
		t.Error("expected handle to report playing once the device has pulled a block")
	}
}

func TestPlayFile_UnknownFormatIsDecodeError(t *testing.T) {
	t.Parallel()

	p, err := New(nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer p.Close()

	if _, err := p.PlayFile(bytes.NewReader(nil), "flac"); err == nil {
		t.Fatal("expected an error for an unregistered format")
	}
}

func TestPlayFile_SetGainReachesHandle(t *testing.T) {
	t.Parallel()

	samples := make([]int16, 8000)
	data := buildWAV(t, 8000, samples)

	p, err := New(nil, WithSampleRate(8000), WithChannels(1))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer p.Close()

	h, err := p.PlayFile(bytes.NewReader(data), "wav")
	if err != nil {
		t.Fatalf("PlayFile: %v", err)
	}
	if err := h.SetGain(0.5, param.Smoothing{Kind: param.SmoothingNone}, 0); err != nil {
		t.Fatalf("SetGain: %v", err)
	}
}

func TestAddSubMixer_LinksUnderRootAndAcceptsMasterGain(t *testing.T) {
	t.Parallel()

	p, err := New(nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer p.Close()

	_, h, err := p.AddSubMixer(p.Root(), effect.NewChain(), 0)
	if err != nil {
		t.Fatalf("AddSubMixer: %v", err)
	}
	if err := h.SetGain(0.7, param.Smoothing{Kind: param.SmoothingNone}, 0); err != nil {
		t.Fatalf("SetGain on sub-mixer handle: %v", err)
	}
}

func TestPull_RunsWithoutPanicOverSeveralBlocks(t *testing.T) {
	t.Parallel()

	p, err := New(device.NewNull(8000, 2, 64), WithSampleRate(8000), WithChannels(2))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer p.Close()

	samples := make([]int16, 800)
	data := buildWAV(t, 8000, samples)
	if _, err := p.PlayFile(bytes.NewReader(data), "wav"); err != nil {
		t.Fatalf("PlayFile: %v", err)
	}
	time.Sleep(30 * time.Millisecond)
}
