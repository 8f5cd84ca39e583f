// ABOUTME: Decoder interface definition
// ABOUTME: Common interface for streaming file decoders producing S16LE PCM
package decode

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/deepsentinel/baresip/pkg/audio"
)

// ErrUnsupportedFile is returned for file extensions without a decoder
var ErrUnsupportedFile = errors.New("unsupported audio file")

// Decoder reads a compressed or container stream and yields interleaved
// S16LE PCM bytes through Read. Read returns io.EOF at the end of the stream.
type Decoder interface {
	Read(p []byte) (int, error)

	// SampleRate returns the decoded sample rate in Hz
	SampleRate() int

	// Channels returns the decoded channel count
	Channels() int

	// Close releases decoder resources and the underlying file
	Close() error
}

// Open picks a decoder from the file extension. Raw .pcm/.raw files carry
// no header and are interpreted with the given parameters.
func Open(path string, raw audio.Params) (Decoder, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("audio file not found: %w", err)
	}

	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".mp3", ".flac", ".wav", ".opus", ".ogg", ".pcm", ".raw":
	default:
		return nil, fmt.Errorf("%w: %s (supported: .mp3, .flac, .wav, .opus, .pcm)", ErrUnsupportedFile, ext)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open audio file: %w", err)
	}

	var dec Decoder
	switch ext {
	case ".mp3":
		dec, err = NewMP3(f)
	case ".flac":
		dec, err = NewFLAC(f)
	case ".wav":
		dec, err = NewWAV(f)
	case ".opus", ".ogg":
		dec, err = NewOpus(f, raw.Channels)
	default:
		dec, err = NewPCM(f, raw)
	}
	if err != nil {
		f.Close()
		return nil, err
	}
	return dec, nil
}

// Title derives a display title from a file path
func Title(path string) string {
	name := filepath.Base(path)
	return strings.TrimSuffix(name, filepath.Ext(name))
}
