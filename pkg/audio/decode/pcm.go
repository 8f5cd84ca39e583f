// ABOUTME: Raw PCM audio decoder
// ABOUTME: Passes headerless S16LE files through unchanged
package decode

import (
	"fmt"
	"io"

	"github.com/deepsentinel/baresip/pkg/audio"
)

// PCMDecoder reads headerless S16LE PCM
type PCMDecoder struct {
	r          io.ReadCloser
	sampleRate int
	channels   int
	odd        bool // an odd byte is held back to keep samples aligned
	carry      byte
}

// NewPCM creates a new raw PCM decoder. The file is assumed to hold
// S16LE samples with the given rate and channel count.
func NewPCM(r io.ReadCloser, p audio.Params) (*PCMDecoder, error) {
	p = p.WithDefaults()
	if p.Format != audio.FormatS16LE {
		return nil, fmt.Errorf("unsupported raw format: %s (supported: S16LE)", p.Format)
	}

	return &PCMDecoder{
		r:          r,
		sampleRate: p.SampleRate,
		channels:   p.Channels,
	}, nil
}

// Read returns whole samples only
func (d *PCMDecoder) Read(p []byte) (int, error) {
	if len(p) < 2 {
		return 0, io.ErrShortBuffer
	}

	off := 0
	if d.odd {
		p[0] = d.carry
		off = 1
	}

	n, err := d.r.Read(p[off:])
	n += off
	d.odd = false

	if n%2 == 1 {
		d.carry = p[n-1]
		d.odd = true
		n--
	}
	if err == io.EOF && n > 0 {
		err = nil
	}
	return n, err
}

func (d *PCMDecoder) SampleRate() int { return d.sampleRate }
func (d *PCMDecoder) Channels() int   { return d.channels }

// Close releases resources
func (d *PCMDecoder) Close() error {
	return d.r.Close()
}
