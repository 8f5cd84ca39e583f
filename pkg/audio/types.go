// ABOUTME: Audio type definitions
// ABOUTME: Defines sample formats, stream parameters and fixed-size frames
package audio

import (
	"encoding/binary"
	"errors"
	"fmt"
	"strings"
	"time"
)

const (
	// Defaults applied when a parameter is left unset
	DefaultSampleRate = 8000
	DefaultChannels   = 1
	DefaultPtime      = 20 // milliseconds
)

var (
	// ErrInvalidParams reports a zero or negative stream parameter
	ErrInvalidParams = errors.New("invalid stream parameters")

	// ErrUnsupportedFormat reports a sample format other than S16LE
	ErrUnsupportedFormat = errors.New("unsupported sample format")
)

// SampleFormat identifies the encoding of a single PCM sample
type SampleFormat int

const (
	FormatS16LE SampleFormat = iota
	FormatS24LE
	FormatS32LE
	FormatFloat32LE
)

// String returns the format name as negotiated by the media pipeline
func (f SampleFormat) String() string {
	switch f {
	case FormatS16LE:
		return "S16LE"
	case FormatS24LE:
		return "S24LE"
	case FormatS32LE:
		return "S32LE"
	case FormatFloat32LE:
		return "F32LE"
	default:
		return fmt.Sprintf("Unknown(%d)", int(f))
	}
}

// SampleSize returns the number of bytes of one sample
func (f SampleFormat) SampleSize() int {
	switch f {
	case FormatS16LE:
		return 2
	case FormatS24LE:
		return 3
	case FormatS32LE, FormatFloat32LE:
		return 4
	default:
		return 0
	}
}

// ParseSampleFormat converts a format name (case-insensitive) to a SampleFormat
func ParseSampleFormat(name string) (SampleFormat, error) {
	switch strings.ToUpper(strings.TrimSpace(name)) {
	case "", "S16LE", "S16":
		return FormatS16LE, nil
	case "S24LE", "S24":
		return FormatS24LE, nil
	case "S32LE", "S32":
		return FormatS32LE, nil
	case "F32LE", "FLOAT", "FLOAT32":
		return FormatFloat32LE, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnsupportedFormat, name)
	}
}

// Params is the immutable snapshot of stream parameters fixed at open time
type Params struct {
	SampleRate int          // Hz
	Channels   int          // interleaved channel count
	Ptime      int          // frame duration in milliseconds
	Format     SampleFormat // only FormatS16LE is accepted by the bridge
}

// WithDefaults returns a copy with unset values replaced by the defaults
func (p Params) WithDefaults() Params {
	if p.SampleRate == 0 {
		p.SampleRate = DefaultSampleRate
	}
	if p.Channels == 0 {
		p.Channels = DefaultChannels
	}
	if p.Ptime == 0 {
		p.Ptime = DefaultPtime
	}
	return p
}

// Validate checks that the parameters describe a usable S16LE stream
func (p Params) Validate() error {
	if p.Format != FormatS16LE {
		return fmt.Errorf("%w: %s (only S16LE is supported)", ErrUnsupportedFormat, p.Format)
	}
	if p.SampleRate <= 0 {
		return fmt.Errorf("%w: sample rate %d", ErrInvalidParams, p.SampleRate)
	}
	if p.Channels <= 0 {
		return fmt.Errorf("%w: channels %d", ErrInvalidParams, p.Channels)
	}
	if p.Ptime <= 0 {
		return fmt.Errorf("%w: ptime %dms", ErrInvalidParams, p.Ptime)
	}
	if p.FrameSampleCount() == 0 {
		return fmt.Errorf("%w: %s yields an empty frame", ErrInvalidParams, p)
	}
	return nil
}

// FrameSampleCount returns the number of samples in one frame
// (rate * channels * ptime / 1000)
func (p Params) FrameSampleCount() int {
	return p.SampleRate * p.Channels * p.Ptime / 1000
}

// FrameBytes returns the size of one frame in bytes
func (p Params) FrameBytes() int {
	return p.FrameSampleCount() * p.Format.SampleSize()
}

// FrameDuration returns ptime as a duration
func (p Params) FrameDuration() time.Duration {
	return time.Duration(p.Ptime) * time.Millisecond
}

// BytesPerSecond returns the byte rate of the stream
func (p Params) BytesPerSecond() int {
	return p.SampleRate * p.Channels * p.Format.SampleSize()
}

// BytesToDuration converts a byte count into playing time
func (p Params) BytesToDuration(n int) time.Duration {
	bps := p.BytesPerSecond()
	if bps <= 0 || n <= 0 {
		return 0
	}
	return time.Duration(int64(n) * int64(time.Second) / int64(bps))
}

func (p Params) String() string {
	return fmt.Sprintf("%dHz/%dch/%dms/%s", p.SampleRate, p.Channels, p.Ptime, p.Format)
}

// Frame is one ptime worth of interleaved S16LE samples
type Frame struct {
	Format  SampleFormat
	Samples []int16
}

// NewFrame allocates a zeroed frame sized for the given parameters
func NewFrame(p Params) *Frame {
	return &Frame{
		Format:  p.Format,
		Samples: make([]int16, p.FrameSampleCount()),
	}
}

// Size returns the frame payload size in bytes
func (f *Frame) Size() int {
	return len(f.Samples) * f.Format.SampleSize()
}

// Silence zeroes the frame in place
func (f *Frame) Silence() {
	for i := range f.Samples {
		f.Samples[i] = 0
	}
}

// BytesToSamples decodes little-endian int16 samples from src into dst.
// It returns the number of samples written.
func BytesToSamples(dst []int16, src []byte) int {
	n := len(src) / 2
	if n > len(dst) {
		n = len(dst)
	}
	for i := 0; i < n; i++ {
		dst[i] = int16(binary.LittleEndian.Uint16(src[i*2:]))
	}
	return n
}

// SamplesToBytes encodes int16 samples into dst as little-endian bytes.
// It returns the number of bytes written.
func SamplesToBytes(dst []byte, src []int16) int {
	n := len(src)
	if n*2 > len(dst) {
		n = len(dst) / 2
	}
	for i := 0; i < n; i++ {
		binary.LittleEndian.PutUint16(dst[i*2:], uint16(src[i]))
	}
	return n * 2
}
