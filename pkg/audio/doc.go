// ABOUTME: Audio fundamentals package providing core types and utilities
// ABOUTME: Defines stream parameters, sample formats and frames
// Package audio provides the types shared by the capture and playback bridges.
//
// This package defines:
//   - Params: the immutable stream parameter snapshot (rate, channels, ptime, format)
//   - Frame: one ptime worth of interleaved S16LE samples
//
// A frame always holds Params.FrameSampleCount() samples, that is
// rate * channels * ptime / 1000.
//
// Example:
//
//	params := audio.Params{SampleRate: 8000, Channels: 1, Ptime: 20}.WithDefaults()
//	if err := params.Validate(); err != nil {
//	    return err
//	}
//	frame := audio.NewFrame(params) // 160 samples
package audio
