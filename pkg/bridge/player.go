// ABOUTME: Playback direction: ptime frames in, timestamped pipeline buffers out
// ABOUTME: A dedicated goroutine ticks once per frame until the stream stops
package bridge

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/deepsentinel/baresip/pkg/audio"
	"github.com/deepsentinel/baresip/pkg/pipeline"
	"github.com/sirupsen/logrus"
)

// Player is an open playback stream
type Player struct {
	params    audio.Params
	opts      options
	state     RunState
	frame     *audio.Frame
	buf       []byte
	base      time.Time
	sink      pipeline.Sink
	bus       *pipeline.Bus
	writeh    WriteHandler
	stopCh    chan struct{}
	done      chan struct{}
	stopOnce  sync.Once
	closeOnce sync.Once
	closeErr  error
	log       *logrus.Entry

	frames       atomic.Uint64
	pushes       atomic.Uint64
	pushFailures atomic.Uint64
	lastPTS      atomic.Int64
}

// OpenPlayer opens a playback stream pulling frames from wh and pushing
// them to device. Zero params fields take their defaults. errh may be nil.
func OpenPlayer(params audio.Params, device string, wh WriteHandler, errh ErrorHandler, opts ...Option) (*Player, error) {
	if wh == nil {
		return nil, ErrNoHandler
	}
	params = params.WithDefaults()
	if err := params.Validate(); err != nil {
		return nil, err
	}

	o := newOptions(opts)
	if o.sink == nil && device == "" {
		return nil, ErrMissingDevice
	}

	sink := o.sink
	if sink == nil {
		var err error
		sink, err = o.newSink(device, params)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrPipeline, err)
		}
	}

	log := o.log.WithFields(logrus.Fields{"direction": directionPlayback, "device": device})
	p := &Player{
		params: params,
		opts:   o,
		frame:  audio.NewFrame(params),
		buf:    make([]byte, params.FrameBytes()),
		sink:   sink,
		bus:    pipeline.NewBus(o.busDepth),
		writeh: wh,
		stopCh: make(chan struct{}),
		done:   make(chan struct{}),
		log:    log,
	}

	table := o.table
	if table == nil {
		table = DefaultPlaybackTable
	}
	events := &eventBridge{
		direction: directionPlayback,
		table:     table,
		state:     &p.state,
		stop:      p.stop,
		errh:      errh,
		tagh:      o.tagh,
		metrics:   o.metrics,
		log:       log,
	}
	p.bus.SetSyncHandler(events.handle)

	if err := sink.Start(p.bus); err != nil {
		p.stop()
		sink.Close()
		p.bus.Close()
		p.state.finish()
		return nil, fmt.Errorf("%w: failed to start sink: %w", ErrPipeline, err)
	}

	p.base = time.Now()
	go p.run()

	log.Infof("Playback stream open: %s", params)
	return p, nil
}

func (p *Player) run() {
	defer close(p.done)

	ptime := p.params.FrameDuration()
	for p.state.Running() {
		p.writeh(p.frame)
		p.frames.Add(1)
		p.opts.metrics.frame(directionPlayback)

		audio.SamplesToBytes(p.buf, p.frame.Samples)
		pts := time.Since(p.base)

		if err := p.sink.Push(p.buf, pts, ptime); err != nil {
			p.pushFailures.Add(1)
			p.opts.metrics.pushFailure()
			p.log.WithError(err).Warn("Sink push failed, stopping")
			p.stop()
			return
		}
		p.pushes.Add(1)
		p.lastPTS.Store(int64(pts))

		p.opts.sleeper(ptime, p.stopCh)
	}
}

// stop moves to Stopping and wakes the pacer
func (p *Player) stop() {
	if p.state.Stop() {
		p.log.Debug("Playback stream stopping")
	}
	p.stopOnce.Do(func() {
		close(p.stopCh)
	})
}

// State returns the lifecycle phase
func (p *Player) State() State {
	return p.state.Load()
}

// Params returns the stream parameters
func (p *Player) Params() audio.Params {
	return p.params
}

// Bus returns the pipeline bus; events the playback table passes queue there
func (p *Player) Bus() *pipeline.Bus {
	return p.bus
}

// Sink returns the pipeline sink, e.g. for volume control on output sinks
func (p *Player) Sink() pipeline.Sink {
	return p.sink
}

// Done is closed when the pacer goroutine has exited
func (p *Player) Done() <-chan struct{} {
	return p.done
}

// Stats returns a snapshot of the stream counters
func (p *Player) Stats() Stats {
	return Stats{
		Direction:    directionPlayback,
		State:        p.state.Load(),
		Frames:       p.frames.Load(),
		Pushes:       p.pushes.Load(),
		PushFailures: p.pushFailures.Load(),
		LastPTS:      time.Duration(p.lastPTS.Load()),
	}
}

// Close stops the pacer, waits for it to exit, then tears down the sink.
// It is safe to call more than once but must not be called from a handler.
func (p *Player) Close() error {
	p.closeOnce.Do(func() {
		p.stop()
		<-p.done
		if err := p.sink.Close(); err != nil {
			p.closeErr = fmt.Errorf("failed to close sink: %w", err)
		}
		p.bus.Close()
		p.state.finish()
		p.log.Info("Playback stream closed")
	})
	return p.closeErr
}
