// ABOUTME: Audio output interface definition
// ABOUTME: Common interface for audio playback backends
package output

import (
	"errors"

	"github.com/deepsentinel/baresip/pkg/audio"
)

// ErrNotOpen is returned by Write before Open succeeded or after Close
var ErrNotOpen = errors.New("output not initialized")

// Output represents an audio output device
type Output interface {
	// Open initializes the output device for S16LE at the given parameters
	Open(p audio.Params) error

	// Write queues S16LE audio for playback; data is not retained
	Write(pcm []byte) error

	// Close releases output resources
	Close() error
}

// VolumeControl is implemented by outputs with software volume
type VolumeControl interface {
	SetVolume(volume int)
	SetMuted(muted bool)
	GetVolume() int
	IsMuted() bool
}

// applyVolume scales S16LE samples in place with clipping protection
func applyVolume(pcm []byte, volume int, muted bool) {
	if volume >= 100 && !muted {
		return
	}
	multiplier := getVolumeMultiplier(volume, muted)

	for i := 0; i+1 < len(pcm); i += 2 {
		s := int16(uint16(pcm[i]) | uint16(pcm[i+1])<<8)
		scaled := int32(float64(s) * multiplier)
		if scaled > 32767 {
			scaled = 32767
		} else if scaled < -32768 {
			scaled = -32768
		}
		pcm[i] = byte(scaled)
		pcm[i+1] = byte(scaled >> 8)
	}
}

// getVolumeMultiplier calculates volume multiplier
func getVolumeMultiplier(volume int, muted bool) float64 {
	if muted {
		return 0.0
	}
	return float64(volume) / 100.0
}

func clampVolume(volume int) int {
	if volume < 0 {
		return 0
	}
	if volume > 100 {
		return 100
	}
	return volume
}
