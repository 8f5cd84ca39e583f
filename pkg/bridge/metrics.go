// ABOUTME: Prometheus metrics for bridge streams
// ABOUTME: Frames, queue overflow, push failures, pipeline errors and buffered audio
package bridge

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	directionCapture  = "capture"
	directionPlayback = "playback"
)

// Metrics contains the Prometheus metrics shared by all streams.
// A nil *Metrics records nothing.
type Metrics struct {
	Frames         *prometheus.CounterVec
	OverflowBytes  *prometheus.CounterVec
	PushFailures   prometheus.Counter
	PipelineErrors *prometheus.CounterVec
	BufferedMillis *prometheus.GaugeVec
}

// NewMetrics creates the metrics and registers them with registry
func NewMetrics(registry prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		Frames: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "bridge_frames_total",
			Help: "Total number of ptime frames exchanged with the frame handlers",
		}, []string{"direction"}),
		OverflowBytes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "bridge_queue_overflow_bytes_total",
			Help: "Bytes discarded or rejected because the sample queue was full",
		}, []string{"direction"}),
		PushFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "bridge_sink_push_failures_total",
			Help: "Total number of buffers the pipeline sink refused",
		}),
		PipelineErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "bridge_pipeline_errors_total",
			Help: "Total number of error events posted by pipeline elements",
		}, []string{"direction"}),
		BufferedMillis: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "bridge_queue_buffered_milliseconds",
			Help: "Audio currently held in the capture sample queue",
		}, []string{"direction"}),
	}

	if err := registry.Register(m); err != nil {
		return nil, fmt.Errorf("failed to register bridge metrics: %w", err)
	}
	return m, nil
}

// Describe implements prometheus.Collector
func (m *Metrics) Describe(ch chan<- *prometheus.Desc) {
	m.Frames.Describe(ch)
	m.OverflowBytes.Describe(ch)
	m.PushFailures.Describe(ch)
	m.PipelineErrors.Describe(ch)
	m.BufferedMillis.Describe(ch)
}

// Collect implements prometheus.Collector
func (m *Metrics) Collect(ch chan<- prometheus.Metric) {
	m.Frames.Collect(ch)
	m.OverflowBytes.Collect(ch)
	m.PushFailures.Collect(ch)
	m.PipelineErrors.Collect(ch)
	m.BufferedMillis.Collect(ch)
}

func (m *Metrics) frame(direction string) {
	if m == nil {
		return
	}
	m.Frames.WithLabelValues(direction).Inc()
}

func (m *Metrics) overflow(direction string, bytes uint64) {
	if m == nil || bytes == 0 {
		return
	}
	m.OverflowBytes.WithLabelValues(direction).Add(float64(bytes))
}

func (m *Metrics) pushFailure() {
	if m == nil {
		return
	}
	m.PushFailures.Inc()
}

func (m *Metrics) pipelineError(direction string) {
	if m == nil {
		return
	}
	m.PipelineErrors.WithLabelValues(direction).Inc()
}

func (m *Metrics) buffered(direction string, d time.Duration) {
	if m == nil {
		return
	}
	m.BufferedMillis.WithLabelValues(direction).Set(float64(d) / float64(time.Millisecond))
}
