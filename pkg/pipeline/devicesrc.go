// ABOUTME: Microphone capture source backed by malgo
// ABOUTME: The miniaudio callback thread is the delivery thread
package pipeline

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/deepsentinel/baresip/pkg/audio"
	"github.com/deepsentinel/baresip/pkg/audio/output"
	"github.com/gen2brain/malgo"
	"github.com/sirupsen/logrus"
)

// DeviceSource captures S16LE audio from a sound card
type DeviceSource struct {
	name    string
	params  audio.Params
	caps    Caps
	ctx     *malgo.AllocatedContext
	device  *malgo.Device
	closing atomic.Bool
	mu      sync.Mutex
	log     *logrus.Entry
}

// NewDeviceSource prepares capture from the named device ("" for default)
func NewDeviceSource(name string, p audio.Params) *DeviceSource {
	return &DeviceSource{
		name:   name,
		params: p,
		caps:   CapsFor(p),
		log:    logrus.WithFields(logrus.Fields{"element": "devicesrc", "device": name}),
	}
}

// Start opens the capture device and begins delivery
func (s *DeviceSource) Start(handoff HandoffFunc, bus *Bus) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.device != nil {
		return fmt.Errorf("device source already started")
	}

	ctx, err := malgo.InitContext(nil, malgo.ContextConfig{}, nil)
	if err != nil {
		return fmt.Errorf("failed to initialize malgo context: %w", err)
	}

	deviceID, err := output.FindDevice(ctx, malgo.Capture, s.name)
	if err != nil {
		s.freeContext(ctx)
		return err
	}

	deviceConfig := malgo.DefaultDeviceConfig(malgo.Capture)
	deviceConfig.Capture.Format = malgo.FormatS16
	deviceConfig.Capture.Channels = uint32(s.params.Channels)
	deviceConfig.Capture.DeviceID = deviceID
	deviceConfig.SampleRate = uint32(s.params.SampleRate)
	deviceConfig.PeriodSizeInMilliseconds = uint32(s.params.Ptime)
	deviceConfig.Alsa.NoMMap = 1

	callbacks := malgo.DeviceCallbacks{
		Data: func(pOutputSample, pInputSamples []byte, frameCount uint32) {
			if s.closing.Load() {
				return
			}
			handoff(pInputSamples, s.caps)
		},
		Stop: func() {
			if !s.closing.Load() {
				s.log.Warn("Capture device stopped unexpectedly")
				bus.Post(ErrorEvent("devicesrc", CodeRead, "capture device stopped", s.name))
			}
		},
	}

	device, err := malgo.InitDevice(ctx.Context, deviceConfig, callbacks)
	if err != nil {
		s.freeContext(ctx)
		return fmt.Errorf("failed to initialize capture device: %w", err)
	}

	if err := device.Start(); err != nil {
		device.Uninit()
		s.freeContext(ctx)
		return fmt.Errorf("failed to start capture device: %w", err)
	}

	s.ctx = ctx
	s.device = device
	s.log.Infof("Capture device started: %s", s.params)
	return nil
}

// Close stops the device. miniaudio's stop blocks until the callback
// thread has finished its current period.
func (s *DeviceSource) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.closing.Store(true)
	if s.device != nil {
		if err := s.device.Stop(); err != nil {
			s.log.Warnf("device stop error: %v", err)
		}
		s.device.Uninit()
		s.device = nil
	}
	if s.ctx != nil {
		s.freeContext(s.ctx)
		s.ctx = nil
	}
	return nil
}

func (s *DeviceSource) freeContext(ctx *malgo.AllocatedContext) {
	if err := ctx.Uninit(); err != nil {
		s.log.Warnf("malgo context uninit error: %v", err)
	}
	ctx.Free()
}
