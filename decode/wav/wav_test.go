// SPDX-License-Identifier: EPL-2.0

package wav

import (
	"bytes"
	"encoding/binary"
	"io"
	"testing"
)

func buildWAV(t *testing.T, sampleRate, channels, bitsPerSample int, samples []int16, loop *[2]uint32) []byte {
	t.Helper()

	buf := new(bytes.Buffer)
	numChannels := uint16(channels)
	bits := uint16(bitsPerSample)
	byteRate := uint32(sampleRate) * uint32(numChannels) * uint32(bits/8)
	blockAlign := numChannels * (bits / 8)
	dataSize := uint32(len(samples) * 2)

	var smplChunk []byte
	if loop != nil {
		smplChunk = buildSmplChunk(loop[0], loop[1])
	}

	riffSize := 4 + (8 + 16) + (8 + int(dataSize)) + len(smplChunk)
	buf.WriteString("RIFF")
	_ = binary.Write(buf, binary.LittleEndian, uint32(riffSize))
	buf.WriteString("WAVE")

	buf.WriteString("fmt ")
	_ = binary.Write(buf, binary.LittleEndian, uint32(16))
	_ = binary.Write(buf, binary.LittleEndian, uint16(1))
	_ = binary.Write(buf, binary.LittleEndian, numChannels)
	_ = binary.Write(buf, binary.LittleEndian, uint32(sampleRate))
	_ = binary.Write(buf, binary.LittleEndian, byteRate)
	_ = binary.Write(buf, binary.LittleEndian, blockAlign)
	_ = binary.Write(buf, binary.LittleEndian, bits)

	if smplChunk != nil {
		buf.Write(smplChunk)
	}

	buf.WriteString("data")
	_ = binary.Write(buf, binary.LittleEndian, dataSize)
	for _, s := range samples {
		_ = binary.Write(buf, binary.LittleEndian, s)
	}

	return buf.Bytes()
}

func buildSmplChunk(start, end uint32) []byte {
	buf := new(bytes.Buffer)
	buf.WriteString("smpl")
	body := new(bytes.Buffer)
	// manufacturer, product, samplePeriod, MIDIUnityNote, MIDIPitchFraction,
	// SMPTEFormat, SMPTEOffset, numSampleLoops, samplerData
	for i := 0; i < 7; i++ {
		_ = binary.Write(body, binary.LittleEndian, uint32(0))
	}
	_ = binary.Write(body, binary.LittleEndian, uint32(1)) // numSampleLoops
	_ = binary.Write(body, binary.LittleEndian, uint32(0)) // samplerData

	// one loop: cuePointID, type, start, end, fraction, playCount
	_ = binary.Write(body, binary.LittleEndian, uint32(0))
	_ = binary.Write(body, binary.LittleEndian, uint32(0))
	_ = binary.Write(body, binary.LittleEndian, start)
	_ = binary.Write(body, binary.LittleEndian, end)
	_ = binary.Write(body, binary.LittleEndian, uint32(0))
	_ = binary.Write(body, binary.LittleEndian, uint32(0))

	_ = binary.Write(buf, binary.LittleEndian, uint32(body.Len()))
	buf.Write(body.Bytes())
	return buf.Bytes()
}

func TestParseSampleLoop_FindsLoopRegion(t *testing.T) {
	t.Parallel()

	loop := [2]uint32{100, 900}
	data := buildWAV(t, 8000, 1, 16, make([]int16, 1000), &loop)

	start, end, ok := parseSampleLoop(data)
	if !ok {
		t.Fatal("expected loop region to be found")
	}
	if start != 100 || end != 900 {
		t.Errorf("loop = [%d,%d], want [100,900]", start, end)
	}
}

func TestParseSampleLoop_NoChunkReturnsFalse(t *testing.T) {
	t.Parallel()

	data := buildWAV(t, 8000, 1, 16, make([]int16, 100), nil)
	_, _, ok := parseSampleLoop(data)
	if ok {
		t.Error("expected no loop region")
	}
}

func TestDecoder_DecodesPCM16(t *testing.T) {
	t.Parallel()

	samples := []int16{0, 16384, -16384, 32767, -32768, 0}
	data := buildWAV(t, 8000, 1, 16, samples, nil)

	src, err := (Decoder{}).Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	defer src.Close()

	if src.SampleRate() != 8000 {
		t.Errorf("SampleRate = %d, want 8000", src.SampleRate())
	}
	if src.Channels() != 1 {
		t.Errorf("Channels = %d, want 1", src.Channels())
	}

	dst := make([]float32, len(samples))
	n, err := src.ReadSamples(dst)
	if err != nil && err != io.EOF {
		t.Fatalf("ReadSamples: %v", err)
	}
	if n != len(samples) {
		t.Fatalf("n = %d, want %d", n, len(samples))
	}
	if dst[0] != 0 {
		t.Errorf("dst[0] = %v, want 0", dst[0])
	}
}

func TestDecoder_LoopRegionSurfaced(t *testing.T) {
	t.Parallel()

	loop := [2]uint32{10, 90}
	data := buildWAV(t, 8000, 1, 16, make([]int16, 100), &loop)

	src, err := (Decoder{}).Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	defer src.Close()

	start, end, ok := src.LoopRegion()
	if !ok || start != 10 || end != 90 {
		t.Errorf("LoopRegion = (%d,%d,%v), want (10,90,true)", start, end, ok)
	}
}
