// SPDX-License-Identifier: EPL-2.0

package device

import "sync"

// Web is a stub Device for the browser/WASM target: it satisfies the
// interface without touching any real audio API, since a WASM build of
// this engine is out of scope beyond the interface contract per spec.md
// §1. Its IsSuspended models the browser autoplay-suspend behavior a
// real Web Audio backend would surface (an AudioContext created before
// a user gesture starts "suspended").
type Web struct {
	rate     int
	channels int

	mu        sync.Mutex
	suspended bool
}

// NewWeb returns a Web stub, initially suspended (mirroring a freshly
// constructed, not-yet-resumed AudioContext).
func NewWeb(sampleRate, channels int) *Web {
	return &Web{rate: sampleRate, channels: channels, suspended: true}
}

func (w *Web) Open() error       { return nil }
func (w *Web) SampleRate() int   { return w.rate }
func (w *Web) ChannelCount() int { return w.channels }

func (w *Web) IsSuspended() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.suspended
}

// Resume models the user-gesture-triggered AudioContext.resume() call a
// real browser backend would forward here.
func (w *Web) Resume() {
	w.mu.Lock()
	w.suspended = false
	w.mu.Unlock()
}

// Start is a no-op stub: no callback ever fires without a real Web
// Audio worklet driving it.
func (w *Web) Start(cb Callback) error { return nil }

// Stop is a no-op stub.
func (w *Web) Stop() error { return nil }
