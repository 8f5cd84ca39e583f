// ABOUTME: WAV audio decoder
// ABOUTME: Decodes PCM WAV files of any common bit depth to S16LE bytes
package decode

import (
	"errors"
	"fmt"
	"io"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// ErrInvalidWAV reports a file that is not a PCM WAV file
var ErrInvalidWAV = errors.New("invalid wav file")

const wavChunkSamples = 2048

// WAVDecoder decodes WAV audio
type WAVDecoder struct {
	closer   io.Closer
	decoder  *wav.Decoder
	buf      *goaudio.IntBuffer
	bitDepth int
	pending  []byte
	eof      bool
}

// NewWAV creates a new WAV decoder reading from r
func NewWAV(r io.ReadSeekCloser) (*WAVDecoder, error) {
	decoder := wav.NewDecoder(r)
	if !decoder.IsValidFile() {
		return nil, ErrInvalidWAV
	}
	if err := decoder.FwdToPCM(); err != nil {
		return nil, fmt.Errorf("failed to find wav PCM chunk: %w", err)
	}

	return &WAVDecoder{
		closer:   r,
		decoder:  decoder,
		bitDepth: int(decoder.BitDepth),
		buf: &goaudio.IntBuffer{
			Data:   make([]int, wavChunkSamples*int(decoder.NumChans)),
			Format: decoder.Format(),
		},
	}, nil
}

// Read returns decoded PCM
func (d *WAVDecoder) Read(p []byte) (int, error) {
	for len(d.pending) == 0 {
		if d.eof {
			return 0, io.EOF
		}

		n, err := d.decoder.PCMBuffer(d.buf)
		if err != nil {
			return 0, fmt.Errorf("wav decode error: %w", err)
		}
		if n == 0 {
			d.eof = true
			continue
		}

		out := d.pending[:0]
		for _, v := range d.buf.Data[:n] {
			s := wavTo16(v, d.bitDepth)
			out = append(out, byte(s), byte(s>>8))
		}
		d.pending = out
	}

	n := copy(p, d.pending)
	d.pending = d.pending[n:]
	return n, nil
}

func (d *WAVDecoder) SampleRate() int { return int(d.decoder.SampleRate) }
func (d *WAVDecoder) Channels() int   { return int(d.decoder.NumChans) }

// Close releases decoder resources
func (d *WAVDecoder) Close() error {
	return d.closer.Close()
}

// wavTo16 converts a go-audio integer sample to 16 bits. 8-bit WAV is unsigned.
func wavTo16(v, bitDepth int) int16 {
	switch bitDepth {
	case 8:
		return int16((v - 128) << 8)
	case 16:
		return int16(v)
	default:
		return int16(v >> (bitDepth - 16))
	}
}
