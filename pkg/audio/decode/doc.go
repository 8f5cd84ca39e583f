// ABOUTME: Audio decoder package for file playback
// ABOUTME: Provides streaming decoders for MP3, FLAC, WAV, Opus and raw PCM
// Package decode provides streaming audio decoders for file sources.
//
// Supports: MP3, FLAC, WAV (8/16/24/32-bit), Ogg Opus and raw S16LE PCM
//
// All decoders implement the Decoder interface and output interleaved
// 16-bit little-endian samples at the file's native rate and channel count.
//
// Example:
//
//	dec, err := decode.Open("greeting.wav", params)
//	n, err := dec.Read(buf)
package decode
