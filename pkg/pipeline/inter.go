// ABOUTME: In-process audio channels between pipelines
// ABOUTME: A sink writes into a named Hub channel and a source in another pipeline reads it back
package pipeline

import (
	"fmt"
	"sync"
	"time"

	"github.com/deepsentinel/baresip/pkg/audio"
	"github.com/deepsentinel/baresip/pkg/audio/aubuf"
	"github.com/sirupsen/logrus"
)

// Default channel names used by the loopback host
const (
	ChannelInput  = "sipinput"
	ChannelOutput = "sipoutput"
)

// Hub owns named audio channels shared by InterSource and InterSink
type Hub struct {
	mu       sync.Mutex
	channels map[string]*aubuf.Queue
	params   map[string]audio.Params
}

// NewHub creates an empty hub
func NewHub() *Hub {
	return &Hub{
		channels: make(map[string]*aubuf.Queue),
		params:   make(map[string]audio.Params),
	}
}

// Channel returns the queue for name, creating it on first use. Both
// ends must agree on the stream parameters.
func (h *Hub) Channel(name string, p audio.Params) (*aubuf.Queue, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if q, ok := h.channels[name]; ok {
		if h.params[name] != p {
			return nil, fmt.Errorf("channel %q is %s, requested %s", name, h.params[name], p)
		}
		return q, nil
	}

	q, err := aubuf.New(aubuf.Config{Params: p, MinBytes: p.FrameBytes() * 2})
	if err != nil {
		return nil, fmt.Errorf("channel %q: %w", name, err)
	}
	h.channels[name] = q
	h.params[name] = p
	return q, nil
}

// Names lists the channels created so far
func (h *Hub) Names() []string {
	h.mu.Lock()
	defer h.mu.Unlock()

	names := make([]string, 0, len(h.channels))
	for name := range h.channels {
		names = append(names, name)
	}
	return names
}

// InterSource is a live source reading one frame per ptime from a hub
// channel. Underruns deliver silence so the clock keeps running.
type InterSource struct {
	channel string
	params  audio.Params
	caps    Caps
	queue   *aubuf.Queue
	runner  *runner
	log     *logrus.Entry
}

// NewInterSource attaches a source to the named channel
func NewInterSource(hub *Hub, channel string, p audio.Params) (*InterSource, error) {
	q, err := hub.Channel(channel, p)
	if err != nil {
		return nil, err
	}
	return &InterSource{
		channel: channel,
		params:  p,
		caps:    CapsFor(p),
		queue:   q,
		runner:  newRunner(),
		log:     logrus.WithFields(logrus.Fields{"element": "intersrc", "channel": channel}),
	}, nil
}

// Start begins clocked delivery
func (s *InterSource) Start(handoff HandoffFunc, bus *Bus) error {
	if handoff == nil {
		return fmt.Errorf("inter source: nil handoff")
	}
	if !s.runner.start(func() { s.run(handoff) }) {
		return fmt.Errorf("inter source already started")
	}
	return nil
}

func (s *InterSource) run(handoff HandoffFunc) {
	ptime := s.params.FrameDuration()
	frame := make([]int16, s.params.FrameSampleCount())
	buf := make([]byte, s.params.FrameBytes())
	next := time.Now()

	for !s.runner.stopping() {
		s.queue.ReadImmediate(frame)
		audio.SamplesToBytes(buf, frame)
		handoff(buf, s.caps)

		next = next.Add(ptime)
		if !s.runner.sleep(time.Until(next)) {
			return
		}
	}
}

// Close stops delivery
func (s *InterSource) Close() error {
	s.runner.shutdown()
	return nil
}

// InterSink writes pushed buffers into a hub channel
type InterSink struct {
	channel string
	queue   *aubuf.Queue
	mu      sync.Mutex
	started bool
	closed  bool
}

// NewInterSink attaches a sink to the named channel
func NewInterSink(hub *Hub, channel string, p audio.Params) (*InterSink, error) {
	q, err := hub.Channel(channel, p)
	if err != nil {
		return nil, err
	}
	return &InterSink{channel: channel, queue: q}, nil
}

func (s *InterSink) Start(bus *Bus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.started = true
	return nil
}

func (s *InterSink) Push(data []byte, pts, duration time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrFlushing
	}
	if !s.started {
		return ErrNotStarted
	}
	return s.queue.Write(data)
}

func (s *InterSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}
