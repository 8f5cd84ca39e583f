// ABOUTME: Oto-based audio output implementation
// ABOUTME: Handles S16LE playback with software volume control using oto library
package output

import (
	"fmt"
	"io"
	"sync"

	"github.com/deepsentinel/baresip/pkg/audio"
	"github.com/ebitengine/oto/v3"
	"github.com/sirupsen/logrus"
)

// oto allows a single context per process
var (
	otoMu     sync.Mutex
	otoCtx    *oto.Context
	otoParams audio.Params
)

// Oto output implementation using oto library
type Oto struct {
	log        *logrus.Entry
	player     *oto.Player
	pipeReader *io.PipeReader
	pipeWriter *io.PipeWriter
	params     audio.Params
	volume     int
	muted      bool
	ready      bool
	mu         sync.Mutex
	scratch    []byte
}

// NewOto creates a new Oto output
func NewOto() *Oto {
	return &Oto{
		log:    logrus.WithField("output", "oto"),
		volume: 100,
	}
}

// Open initializes the output device
func (o *Oto) Open(p audio.Params) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.ready {
		if o.params == p {
			o.log.Debug("Audio output already initialized with same format, reusing player")
			return nil
		}
		return fmt.Errorf("oto output already open with %s", o.params)
	}

	ctx, err := sharedContext(p)
	if err != nil {
		return err
	}

	// Create pipe for continuous streaming
	o.pipeReader, o.pipeWriter = io.Pipe()

	// Create persistent player that reads from the pipe
	o.player = ctx.NewPlayer(o.pipeReader)
	o.player.Play()

	o.params = p
	o.ready = true

	o.log.Infof("Audio output initialized: %s (oto)", p)
	return nil
}

// sharedContext returns the process-wide oto context, creating it on first use
func sharedContext(p audio.Params) (*oto.Context, error) {
	otoMu.Lock()
	defer otoMu.Unlock()

	if otoCtx != nil {
		// oto cannot be reinitialized with another format
		if otoParams.SampleRate != p.SampleRate || otoParams.Channels != p.Channels {
			return nil, fmt.Errorf("oto context already running at %dHz/%dch, cannot switch to %dHz/%dch",
				otoParams.SampleRate, otoParams.Channels, p.SampleRate, p.Channels)
		}
		return otoCtx, nil
	}

	op := &oto.NewContextOptions{
		SampleRate:   p.SampleRate,
		ChannelCount: p.Channels,
		Format:       oto.FormatSignedInt16LE,
		BufferSize:   p.FrameDuration() * 2,
	}

	ctx, readyChan, err := oto.NewContext(op)
	if err != nil {
		return nil, fmt.Errorf("failed to create oto context: %w", err)
	}
	<-readyChan

	otoCtx = ctx
	otoParams = p
	return ctx, nil
}

// Write outputs audio (blocks until the player has taken it)
func (o *Oto) Write(pcm []byte) error {
	o.mu.Lock()
	if !o.ready {
		o.mu.Unlock()
		return ErrNotOpen
	}
	w, volume, muted := o.pipeWriter, o.volume, o.muted
	if volume < 100 || muted {
		if cap(o.scratch) < len(pcm) {
			o.scratch = make([]byte, len(pcm))
		}
		scaled := o.scratch[:len(pcm)]
		copy(scaled, pcm)
		applyVolume(scaled, volume, muted)
		pcm = scaled
	}
	o.mu.Unlock()

	// Write to pipe (which feeds the persistent player)
	if _, err := w.Write(pcm); err != nil {
		return fmt.Errorf("pipe write failed: %w", err)
	}
	return nil
}

// Close releases output resources
func (o *Oto) Close() error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.pipeWriter != nil {
		o.pipeWriter.Close()
		o.pipeWriter = nil
	}
	if o.player != nil {
		o.player.Close()
		o.player = nil
	}
	if o.pipeReader != nil {
		o.pipeReader.Close()
		o.pipeReader = nil
	}
	o.ready = false
	return nil
}

// SetVolume sets the volume (0-100)
func (o *Oto) SetVolume(volume int) {
	o.mu.Lock()
	o.volume = clampVolume(volume)
	o.mu.Unlock()
	o.log.Infof("Volume set to %d", volume)
}

// SetMuted sets mute state
func (o *Oto) SetMuted(muted bool) {
	o.mu.Lock()
	o.muted = muted
	o.mu.Unlock()
	o.log.Infof("Muted: %v", muted)
}

// GetVolume returns current volume
func (o *Oto) GetVolume() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.volume
}

// IsMuted returns mute state
func (o *Oto) IsMuted() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.muted
}
