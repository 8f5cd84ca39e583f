// ABOUTME: Opus audio decoder
// ABOUTME: Decodes Ogg Opus files to 48kHz S16LE bytes
package decode

import (
	"fmt"
	"io"

	"github.com/deepsentinel/baresip/pkg/audio"
	"gopkg.in/hraban/opus.v2"
)

// OpusSampleRate is the fixed output rate of the Opus decoder
const OpusSampleRate = 48000

// opus frames are at most 120ms
const maxOpusFrame = 5760

// OpusDecoder decodes an Ogg Opus stream
type OpusDecoder struct {
	closer   io.Closer
	stream   *opus.Stream
	channels int
	pcm      []int16
	pending  []byte
}

// NewOpus creates a new Opus decoder. Ogg Opus carries no usable hint
// before the first packet, so the caller supplies the channel count (1 or 2).
func NewOpus(r io.ReadCloser, channels int) (*OpusDecoder, error) {
	if channels != 1 && channels != 2 {
		channels = 2
	}

	stream, err := opus.NewStream(r)
	if err != nil {
		return nil, fmt.Errorf("failed to create opus stream: %w", err)
	}

	return &OpusDecoder{
		closer:   r,
		stream:   stream,
		channels: channels,
		pcm:      make([]int16, maxOpusFrame*channels),
	}, nil
}

// Read returns decoded PCM
func (d *OpusDecoder) Read(p []byte) (int, error) {
	for len(d.pending) == 0 {
		n, err := d.stream.Read(d.pcm)
		if err != nil {
			if err == io.EOF {
				return 0, io.EOF
			}
			return 0, fmt.Errorf("opus decode failed: %w", err)
		}
		if n == 0 {
			continue
		}

		samples := n * d.channels
		if cap(d.pending) < samples*2 {
			d.pending = make([]byte, samples*2)
		}
		d.pending = d.pending[:samples*2]
		audio.SamplesToBytes(d.pending, d.pcm[:samples])
	}

	n := copy(p, d.pending)
	d.pending = d.pending[n:]
	return n, nil
}

func (d *OpusDecoder) SampleRate() int { return OpusSampleRate }
func (d *OpusDecoder) Channels() int   { return d.channels }

// Close releases decoder resources
func (d *OpusDecoder) Close() error {
	err := d.stream.Close()
	// the stream may already have closed the file
	_ = d.closer.Close()
	if err != nil {
		return fmt.Errorf("failed to close opus stream: %w", err)
	}
	return nil
}
