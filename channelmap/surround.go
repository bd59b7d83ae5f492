// SPDX-License-Identifier: EPL-2.0

package channelmap

// surroundToStereo downmixes any source with 3 or more channels to
// stereo: odd channels (1st, 3rd, ...) sum into the left output, even
// channels (2nd, 4th, ...) sum into the right, each attenuated by
// -3dB so a multichannel source doesn't clip on collapse. This is a
// generic fold rather than a layout-aware matrix, so it applies
// uniformly to quad, 5.1, 7.1, or any other discrete channel count
// without a per-layout table.
type surroundToStereo struct {
	src int
}

const surroundAttenuation = 0.7071068 // -3dB, 1/sqrt(2)

func newSurroundToStereo(src int) *surroundToStereo {
	return &surroundToStereo{src: src}
}

func (s *surroundToStereo) SrcChannels() int { return s.src }
func (s *surroundToStereo) DstChannels() int { return 2 }

func (s *surroundToStereo) Map(dst, src []float32) int {
	frames := len(src) / s.src
	if frames*2 > len(dst) {
		frames = len(dst) / 2
	}
	for f := 0; f < frames; f++ {
		base := f * s.src
		var left, right float32
		for c := 0; c < s.src; c++ {
			v := src[base+c] * surroundAttenuation
			if c%2 == 0 {
				left += v
			} else {
				right += v
			}
		}
		dst[f*2] = left
		dst[f*2+1] = right
	}
	return frames
}
