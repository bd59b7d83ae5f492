// SPDX-License-Identifier: EPL-2.0

package signal

import "testing"

func TestAddInto_SilencePlusSilenceIsSilence(t *testing.T) {
	t.Parallel()

	dst := make([]float32, 8)
	src := make([]float32, 8)
	AddInto(dst, src)

	for i, v := range dst {
		if v != 0 {
			t.Errorf("dst[%d] = %v, want 0", i, v)
		}
	}
}

func TestAddInto_SourcePlusSilenceEqualsSource(t *testing.T) {
	t.Parallel()

	src := []float32{0.1, -0.2, 0.3, -0.4}
	dst := make([]float32, len(src))
	copy(dst, src)
	silence := make([]float32, len(src))

	AddInto(dst, silence)

	for i := range dst {
		if dst[i] != src[i] {
			t.Errorf("dst[%d] = %v, want %v (bit-for-bit)", i, dst[i], src[i])
		}
	}
}

func TestAddInto_LengthMismatchPanics(t *testing.T) {
	t.Parallel()

	defer func() {
		if recover() == nil {
			t.Fatal("expected panic on length mismatch")
		}
	}()
	AddInto(make([]float32, 2), make([]float32, 3))
}

func TestClip_ClampsToUnitRange(t *testing.T) {
	t.Parallel()

	buf := []float32{2, -2, 0, 0.5, -0.5}
	Clip(buf)

	if buf[0] != 1 || buf[1] != -1 {
		t.Errorf("hard rails not clamped: %v", buf)
	}
	for _, v := range buf {
		if v > 1 || v < -1 {
			t.Errorf("value out of [-1,1]: %v", v)
		}
	}
}

func TestPan_CenterIsUnityBothChannels(t *testing.T) {
	t.Parallel()

	buf := []float32{1, 1, 1, 1}
	Pan(buf, 2, 0)

	for i, v := range buf {
		if v < 0.7 || v > 0.71 {
			t.Errorf("buf[%d] = %v, want ~0.707 at center pan", i, v)
		}
	}
}

func TestPan_NonStereoIsNoop(t *testing.T) {
	t.Parallel()

	buf := []float32{1, 1, 1, 1}
	want := append([]float32(nil), buf...)
	Pan(buf, 4, 1)

	for i := range buf {
		if buf[i] != want[i] {
			t.Errorf("buf[%d] changed for non-stereo channel count", i)
		}
	}
}

func TestFill(t *testing.T) {
	t.Parallel()

	buf := make([]float32, 5)
	Fill(buf, 0.25)
	for _, v := range buf {
		if v != 0.25 {
			t.Errorf("Fill did not set value, got %v", v)
		}
	}
}
