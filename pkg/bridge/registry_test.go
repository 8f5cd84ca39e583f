// ABOUTME: Tests for the driver registry
// ABOUTME: Registration, lookup, opening by driver name and closing all streams
package bridge

import (
	"testing"

	"github.com/deepsentinel/baresip/pkg/audio"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistryDefaults(t *testing.T) {
	r := NewRegistry()
	assert.False(t, r.Lookup(KindSource, DriverName))

	r.RegisterDefaults()
	assert.True(t, r.Lookup(KindSource, DriverName))
	assert.True(t, r.Lookup(KindPlayer, DriverName))
	assert.Equal(t, []string{DriverName}, r.Drivers(KindPlayer))

	r.Unregister(KindPlayer, DriverName)
	assert.False(t, r.Lookup(KindPlayer, DriverName))
	assert.True(t, r.Lookup(KindSource, DriverName))
}

func TestRegistryUnknownDriver(t *testing.T) {
	r := NewRegistry()
	_, _, err := r.OpenSource("alsa", narrowband, "default", func(*audio.Frame) {}, nil)
	assert.ErrorIs(t, err, ErrUnknownDriver)
}

func TestRegistryOpensAndClosesStreams(t *testing.T) {
	sleeper := &recordingSleeper{}
	r := NewRegistry(WithSleeper(sleeper.sleep))
	r.RegisterDefaults()

	fake := &fakeSource{}
	srcID, src, err := r.OpenSource(DriverName, narrowband, "", func(*audio.Frame) {}, nil, WithPipelineSource(fake))
	require.NoError(t, err)
	_, err = uuid.Parse(srcID)
	require.NoError(t, err)

	// registry options apply: the backlog sleep goes to the recording sleeper
	fake.deliver(rampBytes(0, 320))
	assert.Len(t, sleeper.durations(), 1)

	sink := newFakeSink()
	playID, player, err := r.OpenPlayer(DriverName, narrowband, "", func(*audio.Frame) {}, nil, WithPipelineSink(sink))
	require.NoError(t, err)
	assert.NotEqual(t, srcID, playID)
	assert.Len(t, r.Streams(), 2)

	require.NoError(t, r.CloseStream(playID))
	assert.Equal(t, Stopped, player.State())
	assert.ErrorIs(t, r.CloseStream(playID), ErrClosed)

	require.NoError(t, r.Close())
	assert.Equal(t, Stopped, src.State())
	assert.Empty(t, r.Streams())
}

func TestRegistryTagsStreamLogs(t *testing.T) {
	logger, hook := logtest.NewNullLogger()
	r := NewRegistry(WithLogger(logrus.NewEntry(logger)))
	r.RegisterDefaults()

	id, _, err := r.OpenSource(DriverName, narrowband, "", func(*audio.Frame) {}, nil, WithPipelineSource(&fakeSource{}))
	require.NoError(t, err)
	defer r.Close()

	entry := hook.LastEntry()
	require.NotNil(t, entry)
	assert.Equal(t, id, entry.Data["stream_id"])
	assert.Equal(t, directionCapture, entry.Data["direction"])
}
