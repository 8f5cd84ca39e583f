// ABOUTME: Encoder interface definition
// ABOUTME: Common interface for file encoders consuming S16LE PCM
package encode

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/deepsentinel/baresip/pkg/audio"
)

// ErrUnsupportedFile is returned for file extensions without an encoder
var ErrUnsupportedFile = errors.New("unsupported output file")

// Encoder writes interleaved S16LE PCM to a file format
type Encoder interface {
	// Write appends PCM bytes; data is not retained after the call
	Write(pcm []byte) error

	// Close finalizes the file and releases resources
	Close() error
}

// Create opens path for writing and picks an encoder from its extension
func Create(path string, p audio.Params) (Encoder, error) {
	ext := strings.ToLower(filepath.Ext(path))
	if ext != ".wav" && ext != ".pcm" && ext != ".raw" {
		return nil, fmt.Errorf("%w: %s (supported: .wav, .pcm)", ErrUnsupportedFile, ext)
	}

	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create output file: %w", err)
	}

	if ext == ".wav" {
		return NewWAV(f, p)
	}
	return NewPCM(f), nil
}
