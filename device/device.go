// SPDX-License-Identifier: EPL-2.0

// Package device defines the platform-facing audio output boundary
// (spec.md §6): a small Device interface a Player drives with a pull
// callback, plus concrete backends — a hardware-free Null sink for
// tests, a WAVWriter for drain-to-file rendering, and a best-effort
// native Desktop backend on Linux, generalizing
// github.com/Lundis/go-gameaudio's platform-selected driver
// (audio/driver_windows.go's nullContext fallback) to this engine's
// pull-based Device contract.
package device

// Callback is pulled by a Device on its own cadence to fill out with
// frames interleaved samples, stamped with the device-clock frame
// counter now.
type Callback func(out []float32, frames int, now uint64)

// Device is the platform output boundary a Player drives. Open must be
// called before Start; Stop releases any backend resources Open
// acquired.
type Device interface {
	// Open acquires whatever backend resource the implementation needs
	// (a hardware handle, a file, nothing) at SampleRate/ChannelCount.
	Open() error
	// SampleRate reports the device's operating sample rate in Hz.
	SampleRate() int
	// ChannelCount reports the device's interleaved channel count.
	ChannelCount() int
	// Start begins pulling cb on the device's cadence. Returns once the
	// pull loop has started (backends typically run it on its own
	// goroutine); does not block for the device's lifetime.
	Start(cb Callback) error
	// Stop halts the pull loop and releases backend resources acquired
	// by Open.
	Stop() error
	// IsSuspended reports whether the backend is temporarily unable to
	// render (e.g. a browser autoplay-suspended AudioContext).
	IsSuspended() bool
}
