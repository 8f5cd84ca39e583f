// ABOUTME: Synthetic sine source
// ABOUTME: Delivers a test tone in irregular buffer sizes like a real capture element
package pipeline

import (
	"fmt"
	"math"
	"time"

	"github.com/deepsentinel/baresip/pkg/audio"
	"github.com/sirupsen/logrus"
)

// ToneConfig configures a ToneSource
type ToneConfig struct {
	Frequency float64 // Hz, default 440 (A4)
	Amplitude float64 // 0..1, default 0.5

	// Chunks lists delivery sizes as multiples of one frame, cycled in
	// order. Default {0.5, 1.5, 1, 2} exercises partial and multi-frame buffers.
	Chunks []float64

	// Realtime paces delivery to the audio clock; otherwise buffers are
	// handed off as fast as the handoff returns.
	Realtime bool

	// Limit ends the stream with EOS after this much audio; 0 runs forever
	Limit time.Duration
}

// ToneSource generates a sine wave
type ToneSource struct {
	cfg         ToneConfig
	params      audio.Params
	caps        Caps
	sampleIndex uint64
	runner      *runner
	log         *logrus.Entry
}

// NewToneSource creates a tone generator producing audio at p
func NewToneSource(p audio.Params, cfg ToneConfig) *ToneSource {
	if cfg.Frequency == 0 {
		cfg.Frequency = 440.0
	}
	if cfg.Amplitude == 0 {
		cfg.Amplitude = 0.5
	}
	if len(cfg.Chunks) == 0 {
		cfg.Chunks = []float64{0.5, 1.5, 1, 2}
	}

	return &ToneSource{
		cfg:    cfg,
		params: p,
		caps:   CapsFor(p),
		runner: newRunner(),
		log:    logrus.WithField("element", "tone"),
	}
}

// Start begins delivery
func (s *ToneSource) Start(handoff HandoffFunc, bus *Bus) error {
	if handoff == nil {
		return fmt.Errorf("tone source: nil handoff")
	}
	if !s.runner.start(func() { s.run(handoff, bus) }) {
		return fmt.Errorf("tone source already started")
	}
	s.log.Infof("Tone source started: %.0fHz at %s", s.cfg.Frequency, s.params)
	return nil
}

func (s *ToneSource) run(handoff HandoffFunc, bus *Bus) {
	bus.Post(TagEvent("tone", fmt.Sprintf("Test Tone %.0fHz", s.cfg.Frequency)))

	align := s.params.Channels * 2
	var delivered time.Duration
	next := time.Now()

	for i := 0; !s.runner.stopping(); i++ {
		if s.cfg.Limit > 0 && delivered >= s.cfg.Limit {
			bus.Post(EndOfStream("tone"))
			return
		}

		size := int(float64(s.params.FrameBytes()) * s.cfg.Chunks[i%len(s.cfg.Chunks)])
		size -= size % align
		if size == 0 {
			size = align
		}

		buf := make([]byte, size)
		s.fill(buf)
		handoff(buf, s.caps)

		d := s.params.BytesToDuration(size)
		delivered += d

		if s.cfg.Realtime {
			next = next.Add(d)
			if !s.runner.sleep(time.Until(next)) {
				return
			}
		}
	}
}

// fill writes the next len(buf)/2 samples of the sine wave
func (s *ToneSource) fill(buf []byte) {
	channels := s.params.Channels
	frames := len(buf) / (2 * channels)
	samples := make([]int16, frames*channels)

	for i := 0; i < frames; i++ {
		t := float64(s.sampleIndex+uint64(i)) / float64(s.params.SampleRate)
		v := int16(math.Sin(2*math.Pi*s.cfg.Frequency*t) * 32767 * s.cfg.Amplitude)

		// Duplicate to all channels
		for ch := 0; ch < channels; ch++ {
			samples[i*channels+ch] = v
		}
	}
	s.sampleIndex += uint64(frames)

	audio.SamplesToBytes(buf, samples)
}

// Close stops delivery and waits for the delivery goroutine
func (s *ToneSource) Close() error {
	s.runner.shutdown()
	return nil
}
