// ABOUTME: Tests for the elastic sample queue
// ABOUTME: Covers ordering, growth, overflow policies and timed/immediate reads
package aubuf

import (
	"sync"
	"testing"
	"time"

	"github.com/deepsentinel/baresip/pkg/audio"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var narrowband = audio.Params{SampleRate: 8000, Channels: 1, Ptime: 20}

// ramp returns n samples counting up from start, encoded as S16LE bytes
func ramp(start, n int) []byte {
	samples := make([]int16, n)
	for i := range samples {
		samples[i] = int16(start + i)
	}
	buf := make([]byte, n*2)
	audio.SamplesToBytes(buf, samples)
	return buf
}

func newQueue(t *testing.T, cfg Config) *Queue {
	t.Helper()
	if cfg.Params.SampleRate == 0 {
		cfg.Params = narrowband
	}
	q, err := New(cfg)
	require.NoError(t, err)
	return q
}

func TestNewDefaults(t *testing.T) {
	q := newQueue(t, Config{})
	cfg := q.Config()

	assert.Equal(t, 320, cfg.MinBytes)
	assert.Equal(t, 16000, cfg.MaxBytes)
	assert.Equal(t, DropOldest, cfg.Policy)
	assert.Equal(t, 320, q.Capacity())
	assert.True(t, q.Stats().Filling)
}

func TestNewSmallStreamHasTwoFrames(t *testing.T) {
	// one second is 16000 bytes; a 1000ms ptime frame is also 16000
	q := newQueue(t, Config{Params: audio.Params{SampleRate: 8000, Channels: 1, Ptime: 1000}})
	assert.Equal(t, 32000, q.Config().MaxBytes)
}

func TestNewRejectsBadConfig(t *testing.T) {
	_, err := New(Config{Params: narrowband, MinBytes: 4000, MaxBytes: 1000})
	assert.ErrorIs(t, err, ErrInvalidCapacity)

	_, err = New(Config{Params: narrowband, MaxBytes: 100})
	assert.ErrorIs(t, err, ErrInvalidCapacity)

	_, err = New(Config{Params: audio.Params{SampleRate: 8000, Channels: 1, Ptime: 20, Format: audio.FormatS32LE}})
	assert.ErrorIs(t, err, audio.ErrUnsupportedFormat)
}

func TestReadExactPreservesOrder(t *testing.T) {
	q := newQueue(t, Config{})

	// irregular write sizes, 800 samples total
	sizes := []int{37, 160, 3, 300, 100, 200}
	next := 0
	for _, n := range sizes {
		require.NoError(t, q.Write(ramp(next, n)))
		next += n
	}

	frame := make([]int16, 160)
	var got []int16
	for q.ReadExact(frame) {
		got = append(got, frame...)
	}

	require.Len(t, got, 800)
	for i, s := range got {
		require.Equal(t, int16(i), s, "sample %d out of order", i)
	}
	assert.Zero(t, q.Buffered())
}

func TestReadExactInsufficientData(t *testing.T) {
	q := newQueue(t, Config{})
	require.NoError(t, q.Write(ramp(0, 100)))

	frame := make([]int16, 160)
	assert.False(t, q.ReadExact(frame))
	assert.Equal(t, 200, q.Buffered())
}

func TestGrowthDoublesUpToCap(t *testing.T) {
	q := newQueue(t, Config{MaxBytes: 2000})

	require.NoError(t, q.Write(ramp(0, 200))) // 400 bytes
	assert.Equal(t, 640, q.Capacity())

	require.NoError(t, q.Write(ramp(200, 400))) // 1200 bytes
	assert.Equal(t, 1280, q.Capacity())

	require.NoError(t, q.Write(ramp(600, 300))) // 1800 bytes
	assert.Equal(t, 2000, q.Capacity())
	assert.Equal(t, 1800, q.Buffered())

	// growth must not reorder what was already queued
	frame := make([]int16, 160)
	require.True(t, q.ReadExact(frame))
	assert.Equal(t, int16(0), frame[0])
	assert.Equal(t, int16(159), frame[159])
}

func TestDropOldestPolicy(t *testing.T) {
	q := newQueue(t, Config{MaxBytes: 640})

	require.NoError(t, q.Write(ramp(0, 320)))
	require.NoError(t, q.Write(ramp(320, 80)))

	st := q.Stats()
	assert.Equal(t, 640, st.Buffered)
	assert.Equal(t, uint64(160), st.Dropped)
	assert.Equal(t, uint64(1), st.Overruns)

	// the oldest 80 samples are gone
	frame := make([]int16, 160)
	require.True(t, q.ReadExact(frame))
	assert.Equal(t, int16(80), frame[0])
}

func TestDropOldestOversizedWrite(t *testing.T) {
	q := newQueue(t, Config{MaxBytes: 640})

	require.NoError(t, q.Write(ramp(0, 500)))
	assert.Equal(t, 640, q.Buffered())

	frame := make([]int16, 160)
	require.True(t, q.ReadExact(frame))
	assert.Equal(t, int16(180), frame[0])
}

func TestRejectWritePolicy(t *testing.T) {
	q := newQueue(t, Config{MaxBytes: 640, Policy: RejectWrite})

	require.NoError(t, q.Write(ramp(0, 300)))
	err := q.Write(ramp(300, 40))
	assert.ErrorIs(t, err, ErrQueueFull)

	st := q.Stats()
	assert.Equal(t, 600, st.Buffered)
	assert.Equal(t, uint64(1), st.Overruns)
	assert.Zero(t, st.Dropped)
}

func TestReadTimedWaitsForFill(t *testing.T) {
	q := newQueue(t, Config{MinBytes: 640})
	ptime := narrowband.FrameDuration()
	frame := make([]int16, 160)

	require.NoError(t, q.Write(ramp(0, 160)))
	assert.False(t, q.ReadTimed(ptime, frame), "should hold back until MinBytes buffered")

	require.NoError(t, q.Write(ramp(160, 160)))
	require.True(t, q.ReadTimed(ptime, frame))
	assert.Equal(t, int16(0), frame[0])

	// not filling anymore, one frame is enough
	require.True(t, q.ReadTimed(ptime, frame))
	assert.Equal(t, int16(160), frame[0])

	// underrun re-enters filling
	assert.False(t, q.ReadTimed(ptime, frame))
	st := q.Stats()
	assert.True(t, st.Filling)
	assert.Equal(t, uint64(1), st.Underruns)
}

func TestReadTimedBacklogDrains(t *testing.T) {
	q := newQueue(t, Config{})
	ptime := narrowband.FrameDuration()
	frame := make([]int16, 160)

	const k = 7
	require.NoError(t, q.Write(ramp(0, 160*k)))

	count := 0
	for q.ReadTimed(ptime, frame) {
		assert.Equal(t, int16(count*160), frame[0])
		count++
	}
	assert.Equal(t, k, count)
	assert.False(t, q.ReadTimed(ptime, frame))
}

func TestReadImmediate(t *testing.T) {
	q := newQueue(t, Config{})
	frame := make([]int16, 160)
	for i := range frame {
		frame[i] = 99
	}

	assert.False(t, q.ReadImmediate(frame), "empty queue")
	assert.Equal(t, int16(0), frame[0], "empty read zero-fills")

	require.NoError(t, q.Write(ramp(1, 100)))
	require.True(t, q.ReadImmediate(frame))
	assert.Equal(t, int16(1), frame[0])
	assert.Equal(t, int16(100), frame[99])
	assert.Equal(t, int16(0), frame[100])
	// the empty read and the short read both count
	assert.Equal(t, uint64(2), q.Stats().Underruns)
}

func TestBufferedDuration(t *testing.T) {
	q := newQueue(t, Config{})
	require.NoError(t, q.Write(ramp(0, 800)))
	assert.Equal(t, 100*time.Millisecond, q.BufferedDuration())
}

func TestReset(t *testing.T) {
	q := newQueue(t, Config{})
	frame := make([]int16, 160)

	require.NoError(t, q.Write(ramp(0, 320)))
	require.True(t, q.ReadTimed(20*time.Millisecond, frame))
	assert.False(t, q.Stats().Filling)

	q.Reset()
	assert.Zero(t, q.Buffered())
	assert.True(t, q.Stats().Filling)
}

func TestConcurrentWriterReader(t *testing.T) {
	q := newQueue(t, Config{MaxBytes: 1 << 20})
	const total = 160 * 200

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < total; i += 40 {
			_ = q.Write(ramp(i, 40))
		}
	}()

	frame := make([]int16, 160)
	next := 0
	deadline := time.Now().Add(5 * time.Second)
	for next < total && time.Now().Before(deadline) {
		if !q.ReadExact(frame) {
			time.Sleep(time.Millisecond)
			continue
		}
		for _, s := range frame {
			require.Equal(t, int16(next), s)
			next++
		}
	}
	wg.Wait()
	assert.Equal(t, total, next)
}

func TestParsePolicy(t *testing.T) {
	p, err := ParsePolicy("reject")
	require.NoError(t, err)
	assert.Equal(t, RejectWrite, p)

	p, err = ParsePolicy("")
	require.NoError(t, err)
	assert.Equal(t, DropOldest, p)

	_, err = ParsePolicy("block")
	assert.Error(t, err)
}
