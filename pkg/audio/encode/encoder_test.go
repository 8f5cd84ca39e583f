// ABOUTME: Unit tests for file encoders
// ABOUTME: Tests WAV headers, raw PCM output and extension selection
package encode

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/deepsentinel/baresip/pkg/audio"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var params = audio.Params{SampleRate: 8000, Channels: 1, Ptime: 20}

func TestCreateWAV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.wav")

	enc, err := Create(path, params)
	require.NoError(t, err)

	pcm := make([]byte, params.FrameBytes())
	for i := 0; i < 5; i++ {
		require.NoError(t, enc.Write(pcm))
	}
	require.NoError(t, enc.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "RIFF", string(data[0:4]))
	assert.Equal(t, "WAVE", string(data[8:12]))
	// 44-byte canonical header plus 5 frames
	assert.Equal(t, 44+5*320, len(data))
}

func TestCreatePCM(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.pcm")

	enc, err := Create(path, params)
	require.NoError(t, err)
	require.NoError(t, enc.Write([]byte{1, 0, 2, 0}))
	assert.Equal(t, int64(4), enc.(*PCMEncoder).Written())
	require.NoError(t, enc.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, []byte{1, 0, 2, 0}, data)
}

func TestCreateUnsupported(t *testing.T) {
	_, err := Create(filepath.Join(t.TempDir(), "out.mp3"), params)
	assert.ErrorIs(t, err, ErrUnsupportedFile)
}
