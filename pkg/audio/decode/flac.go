// ABOUTME: FLAC audio decoder
// ABOUTME: Decodes FLAC frames to S16LE bytes
package decode

import (
	"fmt"
	"io"

	"github.com/mewkiz/flac"
)

// FLACDecoder decodes FLAC audio frame by frame
type FLACDecoder struct {
	closer     io.Closer
	stream     *flac.Stream
	sampleRate int
	channels   int
	bitDepth   int
	pending    []byte // decoded bytes not yet returned
}

// NewFLAC creates a new FLAC decoder reading from r
func NewFLAC(r io.ReadCloser) (*FLACDecoder, error) {
	stream, err := flac.New(r)
	if err != nil {
		return nil, fmt.Errorf("failed to decode FLAC: %w", err)
	}

	info := stream.Info
	return &FLACDecoder{
		closer:     r,
		stream:     stream,
		sampleRate: int(info.SampleRate),
		channels:   int(info.NChannels),
		bitDepth:   int(info.BitsPerSample),
	}, nil
}

// Read returns decoded PCM, parsing further frames as needed
func (d *FLACDecoder) Read(p []byte) (int, error) {
	for len(d.pending) == 0 {
		frame, err := d.stream.ParseNext()
		if err != nil {
			if err == io.EOF {
				return 0, io.EOF
			}
			return 0, fmt.Errorf("flac decode error: %w", err)
		}

		blockSize := int(frame.BlockSize)
		buf := d.pending[:0]
		for i := 0; i < blockSize; i++ {
			for ch := 0; ch < d.channels; ch++ {
				s := to16(frame.Subframes[ch].Samples[i], d.bitDepth)
				buf = append(buf, byte(s), byte(s>>8))
			}
		}
		d.pending = buf
	}

	n := copy(p, d.pending)
	d.pending = d.pending[n:]
	return n, nil
}

func (d *FLACDecoder) SampleRate() int { return d.sampleRate }
func (d *FLACDecoder) Channels() int   { return d.channels }

// Close releases decoder resources
func (d *FLACDecoder) Close() error {
	return d.closer.Close()
}

// to16 scales a signed sample of the given bit depth to 16 bits
func to16(sample int32, bitDepth int) int16 {
	switch {
	case bitDepth == 16:
		return int16(sample)
	case bitDepth > 16:
		return int16(sample >> (bitDepth - 16))
	default:
		return int16(sample << (16 - bitDepth))
	}
}
