// ABOUTME: Audio output package for playing audio
// ABOUTME: Provides Output interface with oto and malgo implementations
// Package output provides audio playback backends.
//
// Two backends are available: oto (pipe-fed player, process-wide
// context) and malgo (miniaudio callback fed from an elastic queue,
// selectable device). Both accept S16LE only.
//
// Example:
//
//	out := output.NewMalgo("")
//	err := out.Open(params)
//	err = out.Write(pcm)
package output
