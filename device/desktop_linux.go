// SPDX-License-Identifier: EPL-2.0

package device

import (
	"errors"
	"fmt"
	"unsafe"

	"github.com/ebitengine/purego"
)

// ALSA constants used by the minimal binding below (asound/pcm.h).
const (
	alsaStreamPlayback   = 0
	alsaFormatFloatLE    = 14 // SND_PCM_FORMAT_FLOAT_LE
	alsaAccessRWInterlvd = 3  // SND_PCM_ACCESS_RW_INTERLEAVED
)

var errALSAUnavailable = errors.New("device: libasound.so.2 not available")

// alsaBinding holds the handful of libasound entry points Desktop needs,
// dlopen'd once per process, matching Lundis-go-gameaudio's pattern of
// dispatching to a purego-bound platform driver chosen at runtime
// (audio/driver_windows.go's WASAPI/WinMM/null fallback chain) but for
// ALSA on Linux instead of the Windows audio APIs.
type alsaBinding struct {
	open       func(pcm *uintptr, name string, stream int32, mode int32) int32
	setParams  func(pcm uintptr, format int32, access int32, channels uint32, rate uint32, softResample int32, latencyUs uint32) int32
	writei     func(pcm uintptr, buffer uintptr, size uint64) int64
	prepare    func(pcm uintptr) int32
	drain      func(pcm uintptr) int32
	closeFn    func(pcm uintptr) int32
	strerror   func(errnum int32) string
}

func loadALSA() (*alsaBinding, error) {
	handle, err := purego.Dlopen("libasound.so.2", purego.RTLD_NOW|purego.RTLD_GLOBAL)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errALSAUnavailable, err)
	}
	b := &alsaBinding{}
	purego.RegisterLibFunc(&b.open, handle, "snd_pcm_open")
	purego.RegisterLibFunc(&b.setParams, handle, "snd_pcm_set_params")
	purego.RegisterLibFunc(&b.writei, handle, "snd_pcm_writei")
	purego.RegisterLibFunc(&b.prepare, handle, "snd_pcm_prepare")
	purego.RegisterLibFunc(&b.drain, handle, "snd_pcm_drain")
	purego.RegisterLibFunc(&b.closeFn, handle, "snd_pcm_close")
	purego.RegisterLibFunc(&b.strerror, handle, "snd_strerror")
	return b, nil
}

// Desktop is a best-effort native ALSA output backend, opening the
// default PCM device in interleaved float32 mode. Any failure during
// Open leaves the caller to fall back to Null, per spec.md §6's "out of
// scope beyond this named interface" note.
type Desktop struct {
	rate     int
	channels int

	alsa *alsaBinding
	pcm  uintptr

	stopCh chan struct{}
	done   chan struct{}
}

// NewDesktop returns an unopened Desktop device for sampleRate/channels.
func NewDesktop(sampleRate, channels int) *Desktop {
	return &Desktop{rate: sampleRate, channels: channels}
}

// Open dlopen's libasound and opens+configures the default PCM device.
func (d *Desktop) Open() error {
	alsa, err := loadALSA()
	if err != nil {
		return err
	}
	d.alsa = alsa

	var pcm uintptr
	if rc := alsa.open(&pcm, "default", alsaStreamPlayback, 0); rc < 0 {
		return fmt.Errorf("device: snd_pcm_open: %s", alsa.strerror(rc))
	}
	d.pcm = pcm

	const latencyUs = 50_000
	if rc := alsa.setParams(pcm, alsaFormatFloatLE, alsaAccessRWInterlvd,
		uint32(d.channels), uint32(d.rate), 1, latencyUs); rc < 0 {
		alsa.closeFn(pcm)
		return fmt.Errorf("device: snd_pcm_set_params: %s", alsa.strerror(rc))
	}
	return nil
}

// SampleRate implements Device.
func (d *Desktop) SampleRate() int { return d.rate }

// ChannelCount implements Device.
func (d *Desktop) ChannelCount() int { return d.channels }

// IsSuspended always reports false: ALSA playback isn't modeled with a
// suspend state in this minimal binding.
func (d *Desktop) IsSuspended() bool { return false }

// Start begins pulling cb on its own goroutine and writing each block
// to the PCM device with snd_pcm_writei, recovering from underruns with
// a fresh snd_pcm_prepare.
func (d *Desktop) Start(cb Callback) error {
	d.stopCh = make(chan struct{})
	d.done = make(chan struct{})
	const blockFrames = 1024
	buf := make([]float32, blockFrames*d.channels)
	var now uint64

	go func() {
		defer close(d.done)
		for {
			select {
			case <-d.stopCh:
				return
			default:
			}
			cb(buf, blockFrames, now)
			now += uint64(blockFrames)
			rc := d.alsa.writei(d.pcm, uintptr(unsafe.Pointer(&buf[0])), uint64(blockFrames))
			if rc < 0 {
				d.alsa.prepare(d.pcm) // underrun/xrun recovery, best-effort
			}
		}
	}()
	return nil
}

// Stop halts the pull loop, drains and closes the PCM device.
func (d *Desktop) Stop() error {
	if d.stopCh != nil {
		close(d.stopCh)
		<-d.done
	}
	if d.alsa != nil && d.pcm != 0 {
		d.alsa.drain(d.pcm)
		d.alsa.closeFn(d.pcm)
	}
	return nil
}
