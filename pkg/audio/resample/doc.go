// ABOUTME: Audio resampling package using linear interpolation
// ABOUTME: Converts audio between different sample rates and channel layouts
// Package resample provides audio sample rate and channel conversion.
//
// Uses linear interpolation for converting between sample rates.
// Handles both upsampling and downsampling.
//
// Example:
//
//	c := resample.NewConverter(44100, 2, params)
//	out := c.Process(pcm) // S16LE at params rate and channel count
package resample
