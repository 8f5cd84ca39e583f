// ABOUTME: Discarding sink
// ABOUTME: Counts pushed buffers and remembers their timestamps
package pipeline

import (
	"sync"
	"time"
)

// NullSink accepts and discards every buffer
type NullSink struct {
	mu      sync.Mutex
	started bool
	closed  bool
	pushes  int
	bytes   int
	lastPTS time.Duration
	pts     []time.Duration
	keepPTS bool
}

// NewNullSink creates a discarding sink. With keepPTS every timestamp is recorded.
func NewNullSink(keepPTS bool) *NullSink {
	return &NullSink{keepPTS: keepPTS}
}

func (s *NullSink) Start(bus *Bus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.started = true
	return nil
}

func (s *NullSink) Push(data []byte, pts, duration time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrFlushing
	}
	if !s.started {
		return ErrNotStarted
	}
	s.pushes++
	s.bytes += len(data)
	s.lastPTS = pts
	if s.keepPTS {
		s.pts = append(s.pts, pts)
	}
	return nil
}

func (s *NullSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

// Pushes returns the number of accepted buffers
func (s *NullSink) Pushes() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pushes
}

// Bytes returns the number of accepted bytes
func (s *NullSink) Bytes() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.bytes
}

// Timestamps returns a copy of the recorded presentation timestamps
func (s *NullSink) Timestamps() []time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]time.Duration(nil), s.pts...)
}
