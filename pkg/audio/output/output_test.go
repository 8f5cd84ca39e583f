// ABOUTME: Audio output interface tests
// ABOUTME: Verifies Output implementations and software volume scaling
package output

import (
	"testing"

	"github.com/deepsentinel/baresip/pkg/audio"
)

func TestOtoImplementsOutput(t *testing.T) {
	var _ Output = (*Oto)(nil)
	var _ VolumeControl = (*Oto)(nil)
}

func TestMalgoImplementsOutput(t *testing.T) {
	var _ Output = (*Malgo)(nil)
	var _ VolumeControl = (*Malgo)(nil)
}

func TestWriteBeforeOpen(t *testing.T) {
	if err := NewOto().Write([]byte{0, 0}); err != ErrNotOpen {
		t.Errorf("expected ErrNotOpen, got %v", err)
	}
	if err := NewMalgo("").Write([]byte{0, 0}); err != ErrNotOpen {
		t.Errorf("expected ErrNotOpen, got %v", err)
	}
}

func TestApplyVolume(t *testing.T) {
	tests := []struct {
		name     string
		volume   int
		muted    bool
		input    int16
		expected int16
	}{
		{"full volume", 100, false, 1000, 1000},
		{"half volume", 50, false, 1000, 500},
		{"muted", 100, true, 1000, 0},
		{"negative sample", 50, false, -1000, -500},
		{"zero volume", 0, false, 32767, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pcm := make([]byte, 2)
			audio.SamplesToBytes(pcm, []int16{tt.input})
			applyVolume(pcm, tt.volume, tt.muted)

			out := make([]int16, 1)
			audio.BytesToSamples(out, pcm)
			if out[0] != tt.expected {
				t.Errorf("expected %d, got %d", tt.expected, out[0])
			}
		})
	}
}

func TestVolumeClamping(t *testing.T) {
	o := NewOto()
	o.SetVolume(150)
	if o.GetVolume() != 100 {
		t.Errorf("expected volume 100, got %d", o.GetVolume())
	}
	o.SetVolume(-5)
	if o.GetVolume() != 0 {
		t.Errorf("expected volume 0, got %d", o.GetVolume())
	}
	o.SetMuted(true)
	if !o.IsMuted() {
		t.Error("expected muted")
	}
}
