// ABOUTME: Malgo-based audio output implementation
// ABOUTME: Feeds a miniaudio playback callback from an elastic sample queue
package output

import (
	"fmt"
	"sync"

	"github.com/deepsentinel/baresip/pkg/audio"
	"github.com/deepsentinel/baresip/pkg/audio/aubuf"
	"github.com/gen2brain/malgo"
	"github.com/sirupsen/logrus"
)

// Malgo output implementation using malgo/miniaudio library
type Malgo struct {
	deviceName string
	log        *logrus.Entry

	malgoCtx *malgo.AllocatedContext
	device   *malgo.Device
	params   audio.Params
	queue    *aubuf.Queue
	volume   int
	muted    bool
	ready    bool

	// callback scratch, only touched on the device thread
	samples []int16
	mu      sync.Mutex
}

// NewMalgo creates a new Malgo output for the named playback device
// ("" selects the system default)
func NewMalgo(deviceName string) *Malgo {
	return &Malgo{
		deviceName: deviceName,
		log:        logrus.WithField("output", "malgo"),
		volume:     100,
	}
}

// Open initializes the playback device with the specified format
func (m *Malgo) Open(p audio.Params) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.device != nil {
		if m.params == p {
			m.log.Debug("Audio output already initialized with same format, reusing device")
			return nil
		}
		m.log.Infof("Format change detected (%s -> %s), reinitializing device", m.params, p)
		m.closeDevice()
	}

	// 500ms of playback buffering, oldest audio dropped when the device stalls
	queue, err := aubuf.New(aubuf.Config{
		Params:   p,
		MaxBytes: p.BytesPerSecond() / 2,
		Policy:   aubuf.DropOldest,
	})
	if err != nil {
		return fmt.Errorf("failed to create playback queue: %w", err)
	}

	if m.malgoCtx == nil {
		ctx, err := malgo.InitContext(nil, malgo.ContextConfig{}, nil)
		if err != nil {
			return fmt.Errorf("failed to initialize malgo context: %w", err)
		}
		m.malgoCtx = ctx
	}

	deviceID, err := FindDevice(m.malgoCtx, malgo.Playback, m.deviceName)
	if err != nil {
		return err
	}

	deviceConfig := malgo.DefaultDeviceConfig(malgo.Playback)
	deviceConfig.Playback.Format = malgo.FormatS16
	deviceConfig.Playback.Channels = uint32(p.Channels)
	deviceConfig.Playback.DeviceID = deviceID
	deviceConfig.SampleRate = uint32(p.SampleRate)
	deviceConfig.PeriodSizeInMilliseconds = uint32(p.Ptime)
	deviceConfig.Alsa.NoMMap = 1

	deviceCallbacks := malgo.DeviceCallbacks{
		Data: func(pOutputSample, pInputSamples []byte, frameCount uint32) {
			m.dataCallback(pOutputSample, frameCount)
		},
	}

	device, err := malgo.InitDevice(m.malgoCtx.Context, deviceConfig, deviceCallbacks)
	if err != nil {
		return fmt.Errorf("failed to initialize playback device: %w", err)
	}

	m.queue = queue
	m.params = p

	if err := device.Start(); err != nil {
		device.Uninit()
		return fmt.Errorf("failed to start device: %w", err)
	}

	m.device = device
	m.ready = true

	m.log.Infof("Audio output initialized: %s (malgo)", p)
	return nil
}

// Write queues audio for playback; never blocks on the device
func (m *Malgo) Write(pcm []byte) error {
	m.mu.Lock()
	ready, queue, volume, muted := m.ready, m.queue, m.volume, m.muted
	m.mu.Unlock()

	if !ready {
		return ErrNotOpen
	}

	if volume < 100 || muted {
		scaled := make([]byte, len(pcm))
		copy(scaled, pcm)
		applyVolume(scaled, volume, muted)
		pcm = scaled
	}

	return queue.Write(pcm)
}

// dataCallback is called by malgo to fill the audio output buffer
func (m *Malgo) dataCallback(pOutput []byte, frameCount uint32) {
	total := int(frameCount) * m.params.Channels
	if cap(m.samples) < total {
		m.samples = make([]int16, total)
	}
	samples := m.samples[:total]

	// zero-filled on underrun
	m.queue.ReadImmediate(samples)
	audio.SamplesToBytes(pOutput, samples)
}

// Buffered returns the amount of queued audio not yet played
func (m *Malgo) Buffered() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.queue == nil {
		return 0
	}
	return m.queue.Buffered()
}

// Close releases output resources
func (m *Malgo) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.closeDevice()

	if m.malgoCtx != nil {
		if err := m.malgoCtx.Uninit(); err != nil {
			m.log.Warnf("malgo context uninit error: %v", err)
		}
		m.malgoCtx.Free()
		m.malgoCtx = nil
	}
	return nil
}

// closeDevice stops and uninitializes the device (must hold m.mu)
func (m *Malgo) closeDevice() {
	if m.device != nil {
		if err := m.device.Stop(); err != nil {
			m.log.Warnf("device stop error: %v", err)
		}
		m.device.Uninit()
		m.device = nil
		m.ready = false
	}
}

// SetVolume sets the volume (0-100)
func (m *Malgo) SetVolume(volume int) {
	m.mu.Lock()
	m.volume = clampVolume(volume)
	m.mu.Unlock()
	m.log.Infof("Volume set to %d", volume)
}

// SetMuted sets mute state
func (m *Malgo) SetMuted(muted bool) {
	m.mu.Lock()
	m.muted = muted
	m.mu.Unlock()
	m.log.Infof("Muted: %v", muted)
}

// GetVolume returns current volume
func (m *Malgo) GetVolume() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.volume
}

// IsMuted returns mute state
func (m *Malgo) IsMuted() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.muted
}
