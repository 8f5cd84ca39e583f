// ABOUTME: MP3 audio decoder
// ABOUTME: Decodes MP3 streams to stereo S16LE bytes
package decode

import (
	"fmt"
	"io"

	"github.com/hajimehoshi/go-mp3"
)

// MP3Decoder decodes MP3 audio
type MP3Decoder struct {
	closer  io.Closer
	decoder *mp3.Decoder
}

// NewMP3 creates a new MP3 decoder reading from r
func NewMP3(r io.ReadCloser) (*MP3Decoder, error) {
	decoder, err := mp3.NewDecoder(r)
	if err != nil {
		return nil, fmt.Errorf("failed to create mp3 decoder: %w", err)
	}

	return &MP3Decoder{
		closer:  r,
		decoder: decoder,
	}, nil
}

// Read returns decoded PCM (go-mp3 already emits S16LE)
func (d *MP3Decoder) Read(p []byte) (int, error) {
	return d.decoder.Read(p)
}

func (d *MP3Decoder) SampleRate() int { return d.decoder.SampleRate() }

// Channels is always 2, the MP3 decoder outputs stereo
func (d *MP3Decoder) Channels() int { return 2 }

// Close releases decoder resources
func (d *MP3Decoder) Close() error {
	return d.closer.Close()
}
