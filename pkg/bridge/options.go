// ABOUTME: Functional options for opening streams
// ABOUTME: Logger, metrics, read mode, pacing tunables and pipeline injection
package bridge

import (
	"time"

	"github.com/deepsentinel/baresip/pkg/audio"
	"github.com/deepsentinel/baresip/pkg/audio/aubuf"
	"github.com/deepsentinel/baresip/pkg/pipeline"
	"github.com/sirupsen/logrus"
)

// ReadHandler receives one captured frame. The frame is reused after
// the call returns.
type ReadHandler func(f *audio.Frame)

// WriteHandler fills one frame to be played
type WriteHandler func(f *audio.Frame)

// ErrorHandler receives runtime pipeline errors, usually *PipelineError
type ErrorHandler func(err error)

// TagHandler receives stream titles announced by the pipeline
type TagHandler func(title string)

// Sleeper waits for d or until done is closed, whichever is first
type Sleeper func(d time.Duration, done <-chan struct{})

// Option configures OpenSource and OpenPlayer
type Option func(*options)

type options struct {
	log            *logrus.Entry
	metrics        *Metrics
	immediate      bool
	drainThreshold int
	sleeper        Sleeper
	source         pipeline.Source
	sink           pipeline.Sink
	factory        *pipeline.Factory
	queue          aubuf.Config
	table          EventTable
	busDepth       int
	tagh           TagHandler
}

func newOptions(opts []Option) options {
	o := options{
		log:     logrus.NewEntry(logrus.StandardLogger()),
		sleeper: sleep,
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

func (o options) newSource(device string, p audio.Params) (pipeline.Source, error) {
	if o.factory != nil {
		return o.factory.NewSource(device, p)
	}
	return pipeline.NewSource(device, p)
}

func (o options) newSink(device string, p audio.Params) (pipeline.Sink, error) {
	if o.factory != nil {
		return o.factory.NewSink(device, p)
	}
	return pipeline.NewSink(device, p)
}

// WithLogger sets the base log entry
func WithLogger(log *logrus.Entry) Option {
	return func(o *options) {
		if log != nil {
			o.log = log
		}
	}
}

// withStreamID tags the stream's log entry; it must come after WithLogger
func withStreamID(id string) Option {
	return func(o *options) {
		o.log = o.log.WithField("stream_id", id)
	}
}

// WithMetrics records stream counters in m
func WithMetrics(m *Metrics) Option {
	return func(o *options) {
		o.metrics = m
	}
}

// WithImmediateRead makes the capture side hand out whatever is queued,
// padded with silence, instead of waiting for a full frame
func WithImmediateRead() Option {
	return func(o *options) {
		o.immediate = true
	}
}

// WithDrainThreshold sets how many bytes must remain queued after a frame
// for the capture pacer to keep draining. Default: one frame.
func WithDrainThreshold(bytes int) Option {
	return func(o *options) {
		o.drainThreshold = bytes
	}
}

// WithSleeper replaces the pacing sleep
func WithSleeper(s Sleeper) Option {
	return func(o *options) {
		if s != nil {
			o.sleeper = s
		}
	}
}

// WithPipelineSource uses src instead of resolving the device descriptor
func WithPipelineSource(src pipeline.Source) Option {
	return func(o *options) {
		o.source = src
	}
}

// WithPipelineSink uses sink instead of resolving the device descriptor
func WithPipelineSink(sink pipeline.Sink) Option {
	return func(o *options) {
		o.sink = sink
	}
}

// WithFactory resolves descriptors with f instead of the package default
func WithFactory(f *pipeline.Factory) Option {
	return func(o *options) {
		o.factory = f
	}
}

// WithQueueConfig sizes the capture queue. Params is always taken from the stream.
func WithQueueConfig(cfg aubuf.Config) Option {
	return func(o *options) {
		o.queue = cfg
	}
}

// WithEventTable overrides the default event dispositions
func WithEventTable(t EventTable) Option {
	return func(o *options) {
		o.table = t
	}
}

// WithBusDepth sets the asynchronous bus queue size
func WithBusDepth(n int) Option {
	return func(o *options) {
		o.busDepth = n
	}
}

// WithTagHandler reports titles from tag events
func WithTagHandler(h TagHandler) Option {
	return func(o *options) {
		o.tagh = h
	}
}

func sleep(d time.Duration, done <-chan struct{}) {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
	case <-done:
	}
}
