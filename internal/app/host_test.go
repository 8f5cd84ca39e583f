// ABOUTME: Tests for the loopback host
// ABOUTME: Runs tone and file sources into a null sink end to end
package app

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/deepsentinel/baresip/pkg/audio"
	"github.com/deepsentinel/baresip/pkg/audio/encode"
	"github.com/deepsentinel/baresip/pkg/bridge"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var narrowband = audio.Params{SampleRate: 8000, Channels: 1, Ptime: 20}

func TestNewDefaults(t *testing.T) {
	h := New(Config{})
	assert.Equal(t, 10, cap(h.frames))
	assert.NotNil(t, h.log)
	assert.NoError(t, h.Stop(), "stop before start")
}

func TestHostLoopsToneIntoNullSink(t *testing.T) {
	h := New(Config{Params: narrowband, Source: "tone:440", Player: "null"})
	require.NoError(t, h.Start())

	require.Eventually(t, func() bool {
		st := h.Status()
		return st.Capture.Frames >= 5 && st.Playback.Pushes >= 5
	}, 2*time.Second, 20*time.Millisecond)

	st := h.Status()
	assert.Equal(t, "Test Tone 440Hz", st.Title)
	assert.Equal(t, bridge.Running, st.Capture.State)
	assert.False(t, h.SetVolume(50, false), "null sink has no volume")

	require.NoError(t, h.Stop())
	require.NoError(t, h.Stop())
	assert.Equal(t, bridge.Stopped, h.Status().Capture.State)
	assert.Equal(t, bridge.Stopped, h.Status().Playback.State)
}

func TestHostFinishesAtEndOfFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ring.wav")
	enc, err := encode.Create(path, narrowband)
	require.NoError(t, err)
	require.NoError(t, enc.Write(make([]byte, narrowband.FrameBytes()*10)))
	require.NoError(t, enc.Close())

	h := New(Config{Params: narrowband, Source: "file:" + path, Player: "null"})
	require.NoError(t, h.Start())
	defer h.Stop()

	select {
	case <-h.Finished():
	case <-time.After(2 * time.Second):
		t.Fatal("host did not finish at end of file")
	}

	st := h.Status()
	assert.Equal(t, bridge.Stopping, st.Capture.State)
	assert.Equal(t, uint64(10), st.Capture.Frames)
	assert.Equal(t, "ring", st.Title)
}

func TestHostReportsOpenErrors(t *testing.T) {
	h := New(Config{Params: narrowband, Source: "tone", Player: "speaker"})
	err := h.Start()
	assert.ErrorIs(t, err, bridge.ErrPipeline)

	h = New(Config{Params: narrowband, Source: "", Player: "null"})
	err = h.Start()
	assert.ErrorIs(t, err, bridge.ErrMissingDevice)
	require.NoError(t, h.Stop())
}

func TestHostErrorCallback(t *testing.T) {
	got := make(chan error, 1)
	h := New(Config{Params: narrowband, Source: "tone", Player: "null", OnError: func(err error) { got <- err }})
	require.NoError(t, h.Start())
	defer h.Stop()

	h.reportError(&bridge.PipelineError{Source: "test", Code: 1, Message: "boom"})

	select {
	case err := <-got:
		assert.ErrorIs(t, err, bridge.ErrPipeline)
	case <-time.After(time.Second):
		t.Fatal("error not forwarded")
	}
	assert.Eventually(t, func() bool { return h.Status().LastError != "" }, time.Second, 10*time.Millisecond)
}

func TestFillFrameSilenceOnUnderrun(t *testing.T) {
	h := New(Config{})
	f := audio.NewFrame(narrowband)
	f.Samples[0] = 7

	h.fillFrame(f)
	assert.Zero(t, f.Samples[0])
	assert.Equal(t, uint64(1), h.underruns.Load())

	in := audio.NewFrame(narrowband)
	in.Samples[0] = 42
	h.onFrame(in)
	h.fillFrame(f)
	assert.Equal(t, int16(42), f.Samples[0])
}
