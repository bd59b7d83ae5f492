// SPDX-License-Identifier: EPL-2.0

// Package sonora is a real-time audio playback, mixing, and effects
// engine: decode a file or stream, place it in a mixer graph, apply
// effects and parameter automation, and pull the result into an output
// device or a WAV file.
//
// # Quick start
//
//	player, err := sonora.New(nil, sonora.WithSampleRate(48000), sonora.WithChannels(2))
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer player.Close()
//
//	f, _ := os.Open("music.wav")
//	h, err := player.PlayFile(f, "wav")
//	if err != nil {
//		log.Fatal(err)
//	}
//	h.SetGain(0.8, param.Smoothing{Kind: param.SmoothingLinearRamp, RampSamples: 2400}, 0)
//
// A nil first argument to New falls back to device.Null, a
// hardware-free sink useful for tests and offline rendering; pass a
// device.Desktop or device.WAVWriter to play through real hardware or
// render to a file instead.
//
// # Architecture
//
// A Player owns a mixer.Graph rooted at one Mixer, a decode.Registry for
// turning files into decode.Source streams, a workerpool.Pool for
// fanning out independent sub-mixer subtrees, and a device.Device that
// pulls the graph's final mix on its own clock. Every mutating call a
// caller makes goes through a handle.Handle, which enqueues a
// command.Command for the audio thread rather than touching shared
// state directly.
//
// See the decode, source, mixer, effect, param, and device packages for
// the pieces this package wires together.
package sonora
