// ABOUTME: Recording sink writing pushed audio to a file
// ABOUTME: Uses the WAV or raw PCM encoder chosen by file extension
package pipeline

import (
	"fmt"
	"sync"
	"time"

	"github.com/deepsentinel/baresip/pkg/audio"
	"github.com/deepsentinel/baresip/pkg/audio/encode"
	"github.com/sirupsen/logrus"
)

// FileSink records pushed buffers
type FileSink struct {
	path    string
	params  audio.Params
	enc     encode.Encoder
	bus     *Bus
	closed  bool
	lastPTS time.Duration
	mu      sync.Mutex
	log     *logrus.Entry
}

// NewFileSink prepares a recording to path; the file is created on Start
func NewFileSink(path string, p audio.Params) *FileSink {
	return &FileSink{
		path:   path,
		params: p,
		log:    logrus.WithFields(logrus.Fields{"element": "filesink", "path": path}),
	}
}

// Start creates the output file
func (s *FileSink) Start(bus *Bus) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.enc != nil {
		return fmt.Errorf("file sink already started")
	}
	enc, err := encode.Create(s.path, s.params)
	if err != nil {
		return err
	}
	s.enc = enc
	s.bus = bus
	s.log.Infof("Recording to %s at %s", s.path, s.params)
	return nil
}

// Push appends one buffer to the file
func (s *FileSink) Push(data []byte, pts, duration time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrFlushing
	}
	if s.enc == nil {
		return ErrNotStarted
	}

	if err := s.enc.Write(data); err != nil {
		s.bus.Post(ErrorEvent("filesink", CodeWrite, "could not write to file", err.Error()))
		return err
	}
	s.lastPTS = pts + duration
	return nil
}

// Close finalizes the file
func (s *FileSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true
	if s.enc == nil {
		return nil
	}
	s.log.Infof("Recording finished (%v)", s.lastPTS.Round(time.Millisecond))
	return s.enc.Close()
}
