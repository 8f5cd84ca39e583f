// ABOUTME: Audio encoder package for writing PCM to files
// ABOUTME: Provides Encoder interface and implementations for WAV and raw PCM
// Package encode provides file encoders used by recording sinks.
//
// Supports: WAV (16-bit PCM), raw S16LE
//
// All encoders accept interleaved S16LE bytes.
//
// Example:
//
//	enc, err := encode.Create("call.wav", params)
//	err = enc.Write(pcm)
//	err = enc.Close()
package encode
