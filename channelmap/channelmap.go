// SPDX-License-Identifier: EPL-2.0

// Package channelmap converts interleaved audio between channel counts
// when a source's channel layout does not match its destination
// mixer's, generalizing github.com/ik5/audpbx's audio.MonoMixer (a
// fixed any-channels-to-mono downmixer) into a two-way mapper that also
// handles mono/stereo-to-multichannel upmixing and any-channel-count
// multichannel-to-stereo downmixing.
package channelmap

import "fmt"

// ErrUnsupportedChannels is returned when a Mapper cannot be built for
// the requested channel pair.
var ErrUnsupportedChannels = fmt.Errorf("channelmap: unsupported channel mapping")

// Mapper converts interleaved frames from one channel count to
// another. Map never allocates; callers provide both buffers.
type Mapper interface {
	// SrcChannels and DstChannels report the channel counts this
	// Mapper converts between.
	SrcChannels() int
	DstChannels() int

	// Map reads len(src)/SrcChannels() frames from src and writes the
	// same number of frames, each with DstChannels() channels, into
	// dst. dst must have capacity for that many samples.
	Map(dst, src []float32) (frames int)
}

// New builds a Mapper for the given channel counts. When src == dst it
// returns a passthrough Mapper. Supported conversions: any-channels to
// mono (equal-weight downmix, per audpbx's MonoMixer), mono to any
// channel count (broadcast), any multichannel source (3 or more
// channels) to stereo (odd/even-channel fold, see surroundToStereo),
// and stereo to any even channel count (front-pair duplication with
// silence on surrounds).
func New(srcChannels, dstChannels int) (Mapper, error) {
	switch {
	case srcChannels == dstChannels:
		return passthrough{channels: srcChannels}, nil
	case dstChannels == 1:
		return &downmixMono{src: srcChannels}, nil
	case srcChannels == 1:
		return &broadcastMono{dst: dstChannels}, nil
	case dstChannels == 2 && srcChannels >= 3:
		return newSurroundToStereo(srcChannels), nil
	case srcChannels == 2 && dstChannels%2 == 0:
		return &stereoToMulti{dst: dstChannels}, nil
	default:
		return nil, fmt.Errorf("%w: %d -> %d", ErrUnsupportedChannels, srcChannels, dstChannels)
	}
}

type passthrough struct{ channels int }

func (p passthrough) SrcChannels() int { return p.channels }
func (p passthrough) DstChannels() int { return p.channels }

func (p passthrough) Map(dst, src []float32) int {
	n := copy(dst, src)
	return n / p.channels
}

// downmixMono sums all source channels with equal weight, mirroring
// audpbx's MonoMixer.ReadSamples unrolled-loop pattern.
type downmixMono struct{ src int }

func (d *downmixMono) SrcChannels() int { return d.src }
func (d *downmixMono) DstChannels() int { return 1 }

func (d *downmixMono) Map(dst, src []float32) int {
	ch := d.src
	frames := len(src) / ch
	if frames > len(dst) {
		frames = len(dst)
	}
	inv := float32(1) / float32(ch)

	switch ch {
	case 2:
		for f := 0; f < frames; f++ {
			idx := f << 1
			dst[f] = (src[idx] + src[idx+1]) * 0.5
		}
	case 4:
		for f := 0; f < frames; f++ {
			idx := f << 2
			dst[f] = (src[idx] + src[idx+1] + src[idx+2] + src[idx+3]) * 0.25
		}
	default:
		for f := 0; f < frames; f++ {
			var sum float32
			base := f * ch
			for c := 0; c < ch; c++ {
				sum += src[base+c]
			}
			dst[f] = sum * inv
		}
	}
	return frames
}

// broadcastMono copies the single source channel into every
// destination channel unchanged, so a mono source contributes full
// amplitude to every output channel rather than being attenuated.
type broadcastMono struct{ dst int }

func (b *broadcastMono) SrcChannels() int { return 1 }
func (b *broadcastMono) DstChannels() int { return b.dst }

func (b *broadcastMono) Map(dst, src []float32) int {
	frames := len(src)
	if frames*b.dst > len(dst) {
		frames = len(dst) / b.dst
	}
	for f := 0; f < frames; f++ {
		v := src[f]
		base := f * b.dst
		for c := 0; c < b.dst; c++ {
			dst[base+c] = v
		}
	}
	return frames
}

// stereoToMulti places the stereo pair in the front-left/front-right
// slots of a larger layout and silences the remaining channels. It is a
// plain placement, not a perceptual upmix, and not the inverse of
// surroundToStereo, which folds every source channel into the pair.
type stereoToMulti struct{ dst int }

func (s *stereoToMulti) SrcChannels() int { return 2 }
func (s *stereoToMulti) DstChannels() int { return s.dst }

func (s *stereoToMulti) Map(dst, src []float32) int {
	frames := len(src) / 2
	if frames*s.dst > len(dst) {
		frames = len(dst) / s.dst
	}
	for f := 0; f < frames; f++ {
		base := f * s.dst
		for c := 2; c < s.dst; c++ {
			dst[base+c] = 0
		}
		dst[base] = src[f*2]
		dst[base+1] = src[f*2+1]
	}
	return frames
}
