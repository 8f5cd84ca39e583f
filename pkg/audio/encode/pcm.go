// ABOUTME: Raw PCM audio encoder
// ABOUTME: Writes headerless S16LE bytes
package encode

import (
	"fmt"
	"io"
)

// PCMEncoder writes raw PCM
type PCMEncoder struct {
	w       io.WriteCloser
	written int64
}

// NewPCM creates a new raw PCM encoder
func NewPCM(w io.WriteCloser) *PCMEncoder {
	return &PCMEncoder{w: w}
}

// Write appends PCM bytes unchanged
func (e *PCMEncoder) Write(pcm []byte) error {
	n, err := e.w.Write(pcm)
	e.written += int64(n)
	if err != nil {
		return fmt.Errorf("pcm write failed: %w", err)
	}
	return nil
}

// Written returns the number of bytes written so far
func (e *PCMEncoder) Written() int64 {
	return e.written
}

// Close releases resources
func (e *PCMEncoder) Close() error {
	return e.w.Close()
}
