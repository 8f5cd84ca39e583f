// ABOUTME: Loopback host application
// ABOUTME: Opens a capture and a playback stream through the registry and loops frames between them
package app

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/deepsentinel/baresip/pkg/audio"
	"github.com/deepsentinel/baresip/pkg/audio/aubuf"
	"github.com/deepsentinel/baresip/pkg/audio/output"
	"github.com/deepsentinel/baresip/pkg/bridge"
	"github.com/deepsentinel/baresip/pkg/pipeline"
	"github.com/sirupsen/logrus"
)

// Config holds host configuration
type Config struct {
	Params    audio.Params
	Source    string // capture descriptor
	Player    string // playback descriptor
	Immediate bool
	Realtime  bool
	Queue     aubuf.Config

	// LoopFrames bounds the capture to playback frame channel. Default 10.
	LoopFrames int

	Metrics *bridge.Metrics
	Log     *logrus.Entry

	// OnError is called from the host's error goroutine, never from a
	// pipeline thread
	OnError func(err error)
}

// Status is a snapshot for display
type Status struct {
	Capture       bridge.Stats
	Playback      bridge.Stats
	LoopDropped   uint64 // captured frames the player had no room for
	LoopUnderruns uint64 // ticks the player found no captured frame
	Title         string
	LastError     string
}

// Host plays captured audio back out, like a softphone in loopback
type Host struct {
	config   Config
	log      *logrus.Entry
	registry *bridge.Registry
	source   *bridge.Source
	player   *bridge.Player
	frames   chan []int16
	errs     chan error
	finished chan struct{}

	title     atomic.Value
	lastError atomic.Value
	dropped   atomic.Uint64
	underruns atomic.Uint64

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
	once   sync.Once
}

// New creates a new host
func New(config Config) *Host {
	if config.LoopFrames <= 0 {
		config.LoopFrames = 10
	}
	if config.Log == nil {
		config.Log = logrus.WithField("component", "host")
	}

	ctx, cancel := context.WithCancel(context.Background())
	h := &Host{
		config:   config,
		log:      config.Log,
		frames:   make(chan []int16, config.LoopFrames),
		errs:     make(chan error, 8),
		finished: make(chan struct{}),
		ctx:      ctx,
		cancel:   cancel,
	}
	h.title.Store("")
	h.lastError.Store("")
	return h
}

// Start opens both streams
func (h *Host) Start() error {
	factory := &pipeline.Factory{Hub: pipeline.NewHub(), RealtimeFiles: h.config.Realtime}

	opts := []bridge.Option{
		bridge.WithLogger(h.log),
		bridge.WithMetrics(h.config.Metrics),
		bridge.WithFactory(factory),
		bridge.WithTagHandler(func(title string) { h.title.Store(title) }),
	}
	h.registry = bridge.NewRegistry(opts...)
	h.registry.RegisterDefaults()

	params := h.config.Params.WithDefaults()

	_, player, err := h.registry.OpenPlayer(bridge.DriverName, params, h.config.Player, h.fillFrame, h.reportError)
	if err != nil {
		return fmt.Errorf("failed to open player %q: %w", h.config.Player, err)
	}
	h.player = player

	srcOpts := []bridge.Option{bridge.WithQueueConfig(h.config.Queue)}
	if h.config.Immediate {
		srcOpts = append(srcOpts, bridge.WithImmediateRead())
	}
	_, source, err := h.registry.OpenSource(bridge.DriverName, params, h.config.Source, h.onFrame, h.reportError, srcOpts...)
	if err != nil {
		h.registry.Close()
		return fmt.Errorf("failed to open source %q: %w", h.config.Source, err)
	}
	h.source = source

	h.wg.Add(2)
	go h.handleErrors()
	go h.watchStreams()

	h.log.Infof("Looping %s -> %s at %s", h.config.Source, h.config.Player, params)
	return nil
}

// onFrame runs on the capture delivery thread and must not block
func (h *Host) onFrame(f *audio.Frame) {
	samples := append([]int16(nil), f.Samples...)
	select {
	case h.frames <- samples:
	default:
		h.dropped.Add(1)
	}
}

// fillFrame runs on the playback pacer goroutine
func (h *Host) fillFrame(f *audio.Frame) {
	select {
	case samples := <-h.frames:
		copy(f.Samples, samples)
	default:
		f.Silence()
		h.underruns.Add(1)
	}
}

// reportError hands pipeline errors off to the error goroutine
func (h *Host) reportError(err error) {
	select {
	case h.errs <- err:
	default:
		h.log.WithError(err).Warn("Error queue full, dropping")
	}
}

// handleErrors logs errors and forwards them to OnError
func (h *Host) handleErrors() {
	defer h.wg.Done()

	for {
		select {
		case err := <-h.errs:
			h.log.WithError(err).Error("Stream error")
			h.lastError.Store(err.Error())
			if h.config.OnError != nil {
				h.config.OnError(err)
			}

		case <-h.ctx.Done():
			return
		}
	}
}

// watchStreams closes Finished once either stream has left Running
func (h *Host) watchStreams() {
	defer h.wg.Done()

	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if h.source.State() != bridge.Running || h.player.State() != bridge.Running {
				h.log.Info("Stream ended")
				close(h.finished)
				return
			}

		case <-h.ctx.Done():
			return
		}
	}
}

// Finished is closed when a stream stops on its own (end of stream or error)
func (h *Host) Finished() <-chan struct{} {
	return h.finished
}

// Status returns a snapshot for display
func (h *Host) Status() Status {
	st := Status{
		LoopDropped:   h.dropped.Load(),
		LoopUnderruns: h.underruns.Load(),
		Title:         h.title.Load().(string),
		LastError:     h.lastError.Load().(string),
	}
	if h.source != nil {
		st.Capture = h.source.Stats()
	}
	if h.player != nil {
		st.Playback = h.player.Stats()
	}
	return st
}

// SetVolume adjusts the playback output if it supports software volume
func (h *Host) SetVolume(volume int, muted bool) bool {
	if h.player == nil {
		return false
	}
	sink, ok := h.player.Sink().(*pipeline.OutputSink)
	if !ok {
		return false
	}
	vc, ok := sink.Output().(output.VolumeControl)
	if !ok {
		return false
	}
	vc.SetVolume(volume)
	vc.SetMuted(muted)
	return true
}

// Stop closes both streams and waits for the host goroutines
func (h *Host) Stop() error {
	var err error
	h.once.Do(func() {
		h.cancel()
		if h.registry != nil {
			err = h.registry.Close()
		}
		h.wg.Wait()
	})
	return err
}
