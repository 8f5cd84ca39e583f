// ABOUTME: WAV audio encoder
// ABOUTME: Writes S16LE PCM into a RIFF/WAVE file via go-audio/wav
package encode

import (
	"fmt"
	"io"

	"github.com/deepsentinel/baresip/pkg/audio"
	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// wavFormatPCM is the WAVE format tag for integer PCM
const wavFormatPCM = 1

type writeSeekCloser interface {
	io.WriteSeeker
	io.Closer
}

// WAVEncoder encodes PCM into a WAV file
type WAVEncoder struct {
	file    writeSeekCloser
	encoder *wav.Encoder
	buf     *goaudio.IntBuffer
	samples []int16
}

// NewWAV creates a 16-bit WAV encoder writing to f
func NewWAV(f writeSeekCloser, p audio.Params) (*WAVEncoder, error) {
	p = p.WithDefaults()
	if err := p.Validate(); err != nil {
		f.Close()
		return nil, fmt.Errorf("invalid wav parameters: %w", err)
	}

	return &WAVEncoder{
		file:    f,
		encoder: wav.NewEncoder(f, p.SampleRate, 16, p.Channels, wavFormatPCM),
		buf: &goaudio.IntBuffer{
			Format: &goaudio.Format{
				NumChannels: p.Channels,
				SampleRate:  p.SampleRate,
			},
			SourceBitDepth: 16,
		},
	}, nil
}

// Write appends PCM bytes
func (e *WAVEncoder) Write(pcm []byte) error {
	n := len(pcm) / 2
	if cap(e.samples) < n {
		e.samples = make([]int16, n)
		e.buf.Data = make([]int, n)
	}
	e.samples = e.samples[:n]
	e.buf.Data = e.buf.Data[:n]

	audio.BytesToSamples(e.samples, pcm)
	for i, s := range e.samples {
		e.buf.Data[i] = int(s)
	}

	if err := e.encoder.Write(e.buf); err != nil {
		return fmt.Errorf("wav write failed: %w", err)
	}
	return nil
}

// Close writes the final header sizes and closes the file
func (e *WAVEncoder) Close() error {
	if err := e.encoder.Close(); err != nil {
		e.file.Close()
		return fmt.Errorf("failed to finalize wav: %w", err)
	}
	return e.file.Close()
}
