// ABOUTME: Speaker sink wrapping an audio output backend
// ABOUTME: Pushes timestamped buffers to oto or malgo playback
package pipeline

import (
	"fmt"
	"sync"
	"time"

	"github.com/deepsentinel/baresip/pkg/audio"
	"github.com/deepsentinel/baresip/pkg/audio/output"
	"github.com/sirupsen/logrus"
)

// OutputSink plays pushed buffers through an output.Output
type OutputSink struct {
	name    string
	params  audio.Params
	out     output.Output
	bus     *Bus
	started bool
	closed  bool
	mu      sync.Mutex
	log     *logrus.Entry
}

// NewOutputSink wraps out; name is used in logs and bus events
func NewOutputSink(name string, out output.Output, p audio.Params) *OutputSink {
	return &OutputSink{
		name:   name,
		params: p,
		out:    out,
		log:    logrus.WithField("element", name),
	}
}

// Output exposes the backend, e.g. for volume control
func (s *OutputSink) Output() output.Output {
	return s.out
}

// Start opens the output device
func (s *OutputSink) Start(bus *Bus) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return fmt.Errorf("%s sink already started", s.name)
	}
	if err := s.out.Open(s.params); err != nil {
		return fmt.Errorf("failed to open %s output: %w", s.name, err)
	}
	s.bus = bus
	s.started = true
	return nil
}

// Push writes one buffer. A write failure is posted on the bus before
// it is returned.
func (s *OutputSink) Push(data []byte, pts, duration time.Duration) error {
	s.mu.Lock()
	started, closed, bus := s.started, s.closed, s.bus
	s.mu.Unlock()

	if closed {
		return ErrFlushing
	}
	if !started {
		return ErrNotStarted
	}

	if err := s.out.Write(data); err != nil {
		bus.Post(ErrorEvent(s.name, CodeWrite, "could not write to audio device", err.Error()))
		return fmt.Errorf("%s push at %v failed: %w", s.name, pts, err)
	}
	return nil
}

// Close releases the output device
func (s *OutputSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true
	if !s.started {
		return nil
	}
	return s.out.Close()
}
