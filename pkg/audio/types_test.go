// ABOUTME: Tests for audio types
// ABOUTME: Tests parameter defaults, frame sizing and sample conversion
package audio

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFrameSampleCount(t *testing.T) {
	tests := []struct {
		name     string
		params   Params
		expected int
	}{
		{"narrowband", Params{SampleRate: 8000, Channels: 1, Ptime: 20}, 160},
		{"wideband", Params{SampleRate: 16000, Channels: 1, Ptime: 20}, 320},
		{"stereo 48k", Params{SampleRate: 48000, Channels: 2, Ptime: 20}, 1920},
		{"10ms", Params{SampleRate: 8000, Channels: 1, Ptime: 10}, 80},
		{"44.1k 30ms", Params{SampleRate: 44100, Channels: 2, Ptime: 30}, 2646},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.params.FrameSampleCount())
			assert.Equal(t, tt.expected*2, tt.params.FrameBytes())
			assert.Len(t, NewFrame(tt.params).Samples, tt.expected)
		})
	}
}

func TestParamsWithDefaults(t *testing.T) {
	p := Params{}.WithDefaults()

	assert.Equal(t, 8000, p.SampleRate)
	assert.Equal(t, 1, p.Channels)
	assert.Equal(t, 20, p.Ptime)
	assert.Equal(t, FormatS16LE, p.Format)
	require.NoError(t, p.Validate())

	// explicit values survive
	p = Params{SampleRate: 48000, Channels: 2, Ptime: 10}.WithDefaults()
	assert.Equal(t, 48000, p.SampleRate)
	assert.Equal(t, 2, p.Channels)
	assert.Equal(t, 10, p.Ptime)
}

func TestParamsValidate(t *testing.T) {
	valid := Params{SampleRate: 8000, Channels: 1, Ptime: 20}
	require.NoError(t, valid.Validate())

	p := valid
	p.Format = FormatFloat32LE
	assert.ErrorIs(t, p.Validate(), ErrUnsupportedFormat)

	p = valid
	p.SampleRate = -1
	assert.ErrorIs(t, p.Validate(), ErrInvalidParams)

	p = valid
	p.Channels = 0
	assert.ErrorIs(t, p.Validate(), ErrInvalidParams)

	p = valid
	p.Ptime = 0
	assert.ErrorIs(t, p.Validate(), ErrInvalidParams)

	// 10 Hz at 20ms rounds down to zero samples
	p = Params{SampleRate: 10, Channels: 1, Ptime: 20}
	assert.ErrorIs(t, p.Validate(), ErrInvalidParams)
}

func TestBytesToDuration(t *testing.T) {
	p := Params{SampleRate: 8000, Channels: 1, Ptime: 20}

	assert.Equal(t, 20*time.Millisecond, p.BytesToDuration(320))
	assert.Equal(t, 100*time.Millisecond, p.BytesToDuration(1600))
	assert.Equal(t, time.Duration(0), p.BytesToDuration(0))
	assert.Equal(t, p.FrameDuration(), p.BytesToDuration(p.FrameBytes()))
}

func TestParseSampleFormat(t *testing.T) {
	tests := []struct {
		input    string
		expected SampleFormat
		wantErr  bool
	}{
		{"S16LE", FormatS16LE, false},
		{"s16le", FormatS16LE, false},
		{"", FormatS16LE, false},
		{"S24LE", FormatS24LE, false},
		{"F32LE", FormatFloat32LE, false},
		{"U8", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseSampleFormat(tt.input)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrUnsupportedFormat)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
			assert.Equal(t, got, mustParse(t, got.String()))
		})
	}
}

func mustParse(t *testing.T, name string) SampleFormat {
	t.Helper()
	f, err := ParseSampleFormat(name)
	require.NoError(t, err)
	return f
}

func TestSampleConversion(t *testing.T) {
	samples := []int16{0, 1, -1, 32767, -32768, 256}
	buf := make([]byte, len(samples)*2)

	n := SamplesToBytes(buf, samples)
	require.Equal(t, len(buf), n)

	// little-endian layout
	assert.Equal(t, []byte{0x00, 0x01}, buf[10:12])
	assert.Equal(t, []byte{0xff, 0x7f}, buf[6:8])

	out := make([]int16, len(samples))
	require.Equal(t, len(samples), BytesToSamples(out, buf))
	assert.Equal(t, samples, out)
}

func TestSampleConversionShortDestination(t *testing.T) {
	out := make([]int16, 2)
	n := BytesToSamples(out, []byte{1, 0, 2, 0, 3, 0})
	assert.Equal(t, 2, n)
	assert.Equal(t, []int16{1, 2}, out)

	buf := make([]byte, 3)
	assert.Equal(t, 2, SamplesToBytes(buf, []int16{7, 8}))
}

func TestFrameSilence(t *testing.T) {
	f := NewFrame(Params{SampleRate: 8000, Channels: 1, Ptime: 10})
	for i := range f.Samples {
		f.Samples[i] = 42
	}
	f.Silence()
	for _, s := range f.Samples {
		require.Zero(t, s)
	}
	assert.Equal(t, 160, f.Size())
}
