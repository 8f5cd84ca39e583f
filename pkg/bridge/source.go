// ABOUTME: Capture direction: pipeline buffers in, paced ptime frames out
// ABOUTME: The pacer runs on the pipeline's delivery goroutine; there is no thread of its own
package bridge

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/deepsentinel/baresip/pkg/audio"
	"github.com/deepsentinel/baresip/pkg/audio/aubuf"
	"github.com/deepsentinel/baresip/pkg/pipeline"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

// Source is an open capture stream
type Source struct {
	params    audio.Params
	opts      options
	state     RunState
	queue     *aubuf.Queue
	frame     *audio.Frame
	threshold int
	src       pipeline.Source
	bus       *pipeline.Bus
	readh     ReadHandler
	guard     *formatGuard
	stopCh    chan struct{}
	stopOnce  sync.Once
	closeOnce sync.Once
	closeErr  error
	log       *logrus.Entry

	// overflow warnings, at most one per second
	overflowLog rate.Sometimes

	frames      atomic.Uint64
	buffers     atomic.Uint64
	lastDropped atomic.Uint64
}

// OpenSource opens a capture stream reading from device and delivering
// ptime frames to rh. Zero params fields take their defaults. errh may be nil.
func OpenSource(params audio.Params, device string, rh ReadHandler, errh ErrorHandler, opts ...Option) (*Source, error) {
	if rh == nil {
		return nil, ErrNoHandler
	}
	params = params.WithDefaults()
	if err := params.Validate(); err != nil {
		return nil, err
	}

	o := newOptions(opts)
	if o.source == nil && device == "" {
		return nil, ErrMissingDevice
	}

	qcfg := o.queue
	qcfg.Params = params
	queue, err := aubuf.New(qcfg)
	if err != nil {
		return nil, err
	}

	src := o.source
	if src == nil {
		src, err = o.newSource(device, params)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrPipeline, err)
		}
	}

	log := o.log.WithFields(logrus.Fields{"direction": directionCapture, "device": device})
	threshold := o.drainThreshold
	if threshold <= 0 {
		threshold = params.FrameBytes()
	}

	s := &Source{
		params:    params,
		opts:      o,
		queue:     queue,
		frame:     audio.NewFrame(params),
		threshold: threshold,
		src:       src,
		bus:       pipeline.NewBus(o.busDepth),
		readh:     rh,
		guard:     &formatGuard{expected: params, log: log},
		stopCh:    make(chan struct{}),
		log:       log,

		overflowLog: rate.Sometimes{First: 1, Interval: time.Second},
	}

	table := o.table
	if table == nil {
		table = DefaultCaptureTable
	}
	events := &eventBridge{
		direction: directionCapture,
		table:     table,
		state:     &s.state,
		stop:      s.stop,
		errh:      errh,
		tagh:      o.tagh,
		metrics:   o.metrics,
		log:       log,
	}
	s.bus.SetSyncHandler(events.handle)

	if err := src.Start(s.HandleBuffer, s.bus); err != nil {
		s.stop()
		src.Close()
		s.bus.Close()
		s.state.finish()
		return nil, fmt.Errorf("%w: failed to start source: %w", ErrPipeline, err)
	}

	mode := "timed"
	if o.immediate {
		mode = "immediate"
	}
	log.Infof("Capture stream open: %s, %s reads", params, mode)
	return s, nil
}

// HandleBuffer is the pipeline handoff. It queues data and then hands out
// as many whole frames as are available, sleeping half a frame between
// frames while a backlog remains. Calls must not overlap.
func (s *Source) HandleBuffer(data []byte, caps pipeline.Caps) {
	if !s.state.Running() {
		return
	}
	s.buffers.Add(1)
	s.guard.check(caps)

	if err := s.queue.Write(data); err != nil {
		s.log.WithError(err).Warnf("Dropped %d bytes", len(data))
		s.opts.metrics.overflow(directionCapture, uint64(len(data)))
		return
	}
	s.recordQueue()

	ptime := s.params.FrameDuration()
	for s.state.Running() {
		var ok bool
		if s.opts.immediate {
			ok = s.queue.ReadImmediate(s.frame.Samples)
		} else {
			ok = s.queue.ReadTimed(ptime, s.frame.Samples)
		}
		if !ok {
			break
		}

		s.readh(s.frame)
		s.frames.Add(1)
		s.opts.metrics.frame(directionCapture)

		if s.queue.Buffered() < s.threshold {
			break
		}
		s.opts.sleeper(ptime/2, s.stopCh)
	}
	s.recordQueue()
}

func (s *Source) recordQueue() {
	st := s.queue.Stats()
	if prev := s.lastDropped.Swap(st.Dropped); st.Dropped > prev {
		dropped := st.Dropped - prev
		s.opts.metrics.overflow(directionCapture, dropped)
		s.overflowLog.Do(func() {
			s.log.Warnf("Queue full, dropped %d oldest bytes (%d total)", dropped, st.Dropped)
		})
	}
	s.opts.metrics.buffered(directionCapture, s.params.BytesToDuration(st.Buffered))
}

// stop moves to Stopping and wakes a pacing sleep
func (s *Source) stop() {
	if s.state.Stop() {
		s.log.Debug("Capture stream stopping")
	}
	s.stopOnce.Do(func() {
		close(s.stopCh)
	})
}

// State returns the lifecycle phase
func (s *Source) State() State {
	return s.state.Load()
}

// Params returns the stream parameters
func (s *Source) Params() audio.Params {
	return s.params
}

// Bus returns the pipeline bus, e.g. to read passed events
func (s *Source) Bus() *pipeline.Bus {
	return s.bus
}

// Stats returns a snapshot of the stream counters
func (s *Source) Stats() Stats {
	q := s.queue.Stats()
	return Stats{
		Direction: directionCapture,
		State:     s.state.Load(),
		Frames:    s.frames.Load(),
		Buffers:   s.buffers.Load(),
		Overflows: q.Overruns,
		Dropped:   q.Dropped,
		Underruns: q.Underruns,
		Buffered:  s.params.BytesToDuration(q.Buffered),
	}
}

// Close stops the stream, tears down the pipeline and reaches Stopped.
// It is safe to call more than once but must not be called from a handler.
func (s *Source) Close() error {
	s.closeOnce.Do(func() {
		s.stop()
		if err := s.src.Close(); err != nil {
			s.closeErr = fmt.Errorf("failed to close source: %w", err)
		}
		s.bus.Close()
		s.queue.Reset()
		s.state.finish()
		s.log.Info("Capture stream closed")
	})
	return s.closeErr
}
