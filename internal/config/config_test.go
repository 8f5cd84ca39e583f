// ABOUTME: Tests for host configuration loading
// ABOUTME: Defaults, YAML files, environment overrides, flags and validation
package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/deepsentinel/baresip/pkg/audio"
	"github.com/deepsentinel/baresip/pkg/audio/aubuf"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadDefaults(t *testing.T) {
	t.Chdir(t.TempDir())

	s, err := Load(New(), "", nil)
	require.NoError(t, err)

	p, err := s.Params()
	require.NoError(t, err)
	assert.Equal(t, audio.Params{SampleRate: 8000, Channels: 1, Ptime: 20}, p)
	assert.Equal(t, "tone", s.Audio.Source)
	assert.Equal(t, "null", s.Audio.Player)
	assert.Equal(t, "info", s.Log.Level)
}

func TestLoadFile(t *testing.T) {
	path := writeConfig(t, `
audio:
  srate: 16000
  channels: 2
  ptime: 10
  source: file:ring.wav
  player: malgo
queue:
  policy: reject
  max_frames: 25
`)

	s, err := Load(New(), path, nil)
	require.NoError(t, err)

	p, err := s.Params()
	require.NoError(t, err)
	assert.Equal(t, 640, p.FrameBytes())
	assert.Equal(t, "file:ring.wav", s.Audio.Source)

	q := s.QueueConfig(p)
	assert.Equal(t, aubuf.RejectWrite, q.Policy)
	assert.Equal(t, 25*640, q.MaxBytes)
}

func TestEnvOverridesFile(t *testing.T) {
	path := writeConfig(t, "audio:\n  ptime: 30\n")
	t.Setenv("BARESIP_AUDIO_PTIME", "40")

	s, err := Load(New(), path, nil)
	require.NoError(t, err)
	assert.Equal(t, 40, s.Audio.Ptime)
}

func TestFlagsOverrideFile(t *testing.T) {
	path := writeConfig(t, "audio:\n  player: oto\n")

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	AddFlags(flags)
	require.NoError(t, flags.Parse([]string{"--player", "file:out.wav", "--ptime", "40"}))

	s, err := Load(New(), path, flags)
	require.NoError(t, err)
	assert.Equal(t, "file:out.wav", s.Audio.Player)
	assert.Equal(t, 40, s.Audio.Ptime)
}

func TestUnsetFlagsKeepFileValues(t *testing.T) {
	path := writeConfig(t, "audio:\n  player: oto\n")

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	AddFlags(flags)
	require.NoError(t, flags.Parse(nil))

	s, err := Load(New(), path, flags)
	require.NoError(t, err)
	assert.Equal(t, "oto", s.Audio.Player)
}

func TestValidateRejects(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"float format", "audio:\n  format: F32LE\n"},
		{"unknown format", "audio:\n  format: mulaw\n"},
		{"negative rate", "audio:\n  srate: -8000\n"},
		{"bad policy", "queue:\n  policy: block\n"},
		{"negative queue", "queue:\n  max_frames: -1\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(New(), writeConfig(t, tt.body), nil)
			assert.Error(t, err)
		})
	}
}

func TestMissingExplicitFile(t *testing.T) {
	_, err := Load(New(), filepath.Join(t.TempDir(), "absent.yaml"), nil)
	assert.Error(t, err)
}
