// SPDX-License-Identifier: EPL-2.0

package device

import (
	"sync"
	"sync/atomic"
	"time"
)

// Null drains the pull callback on a wall-clock timer without touching
// any hardware, grounded on Lundis-go-gameaudio's audio.nullContext
// loop (audio/driver_windows.go): a fixed-size scratch buffer pulled on
// a sleep cadence sized to the buffer's real-time duration. Used by
// tests and any environment lacking a native backend.
type Null struct {
	rate      int
	channels  int
	blockSize int

	mu        sync.Mutex
	suspended bool
	stopCh    chan struct{}
	wg        sync.WaitGroup
	now       atomic.Uint64
}

// NewNull returns a Null device rendering blockSize-frame blocks at
// sampleRate/channels. blockSize defaults to 4096 when <= 0.
func NewNull(sampleRate, channels, blockSize int) *Null {
	if blockSize <= 0 {
		blockSize = 4096
	}
	return &Null{rate: sampleRate, channels: channels, blockSize: blockSize}
}

// Open is a no-op: Null acquires no backend resource.
func (n *Null) Open() error { return nil }

// SampleRate implements Device.
func (n *Null) SampleRate() int { return n.rate }

// ChannelCount implements Device.
func (n *Null) ChannelCount() int { return n.channels }

// IsSuspended reports the caller-toggled suspend flag (Suspend/Resume).
func (n *Null) IsSuspended() bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.suspended
}

// Suspend and Resume let tests exercise a Device's suspend/resume path
// without a real OS-level interruption.
func (n *Null) Suspend() {
	n.mu.Lock()
	n.suspended = true
	n.mu.Unlock()
}

func (n *Null) Resume() {
	n.mu.Lock()
	n.suspended = false
	n.mu.Unlock()
}

// Start begins the timer-driven pull loop on its own goroutine.
func (n *Null) Start(cb Callback) error {
	n.stopCh = make(chan struct{})
	buf := make([]float32, n.blockSize*n.channels)
	sleep := time.Duration(float64(time.Second) * float64(n.blockSize) / float64(n.rate))

	n.wg.Add(1)
	go func() {
		defer n.wg.Done()
		ticker := time.NewTicker(sleep)
		defer ticker.Stop()
		for {
			select {
			case <-n.stopCh:
				return
			case <-ticker.C:
				if n.IsSuspended() {
					continue
				}
				now := n.now.Add(uint64(n.blockSize)) - uint64(n.blockSize)
				cb(buf, n.blockSize, now)
			}
		}
	}()
	return nil
}

// Stop halts the pull loop and waits for it to exit.
func (n *Null) Stop() error {
	if n.stopCh != nil {
		close(n.stopCh)
	}
	n.wg.Wait()
	return nil
}
