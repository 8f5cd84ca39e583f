// ABOUTME: Elastic byte queue absorbing irregular audio deliveries
// ABOUTME: Mutex-guarded ring buffer that grows to a hard cap and hands out fixed frames
package aubuf

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/deepsentinel/baresip/pkg/audio"
	"github.com/smallnest/ringbuffer"
)

var (
	// ErrQueueFull is returned by Write under RejectWrite when the hard cap is reached
	ErrQueueFull = errors.New("audio queue full")

	// ErrInvalidCapacity reports an unusable MinBytes/MaxBytes combination
	ErrInvalidCapacity = errors.New("invalid queue capacity")
)

// Policy decides what happens when a write would exceed the hard cap
type Policy int

const (
	// DropOldest discards the oldest buffered bytes to make room
	DropOldest Policy = iota
	// RejectWrite refuses the whole write and leaves the queue untouched
	RejectWrite
)

func (p Policy) String() string {
	switch p {
	case DropOldest:
		return "drop-oldest"
	case RejectWrite:
		return "reject-write"
	default:
		return fmt.Sprintf("Policy(%d)", int(p))
	}
}

// ParsePolicy converts a policy name to a Policy
func ParsePolicy(name string) (Policy, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "drop-oldest", "drop_oldest", "drop":
		return DropOldest, nil
	case "reject-write", "reject_write", "reject":
		return RejectWrite, nil
	default:
		return 0, fmt.Errorf("unknown queue policy %q", name)
	}
}

// Config holds queue sizing. Zero values select the defaults.
type Config struct {
	Params audio.Params

	// MinBytes is the initial capacity and the fill level a timed read
	// waits for. Default: one frame.
	MinBytes int

	// MaxBytes is the hard cap. Default: one second of audio, at least two frames.
	MaxBytes int

	Policy Policy
}

// Stats is a snapshot of queue counters
type Stats struct {
	Written   uint64 // bytes accepted
	Read      uint64 // bytes handed out
	Dropped   uint64 // bytes discarded by DropOldest
	Overruns  uint64 // writes that hit the hard cap
	Underruns uint64 // reads that found less than a frame
	Buffered  int
	Capacity  int
	Filling   bool
}

// Queue is the elastic sample queue shared between a delivery thread and a reader.
// All methods are safe for concurrent use.
type Queue struct {
	mu      sync.Mutex
	rb      *ringbuffer.RingBuffer
	cfg     Config
	align   int // bytes per multi-channel sample
	filling bool
	scratch []byte
	stats   Stats
}

// New creates a queue for the given parameters
func New(cfg Config) (*Queue, error) {
	if err := cfg.Params.Validate(); err != nil {
		return nil, err
	}

	frameBytes := cfg.Params.FrameBytes()
	if cfg.MinBytes == 0 {
		cfg.MinBytes = frameBytes
	}
	if cfg.MaxBytes == 0 {
		cfg.MaxBytes = cfg.Params.BytesPerSecond()
		if cfg.MaxBytes < 2*frameBytes {
			cfg.MaxBytes = 2 * frameBytes
		}
	}
	if cfg.MinBytes < 0 || cfg.MaxBytes < frameBytes || cfg.MinBytes > cfg.MaxBytes {
		return nil, fmt.Errorf("%w: min=%d max=%d frame=%d",
			ErrInvalidCapacity, cfg.MinBytes, cfg.MaxBytes, frameBytes)
	}

	initial := cfg.MinBytes
	if initial < frameBytes {
		initial = frameBytes
	}

	return &Queue{
		rb:      ringbuffer.New(initial),
		cfg:     cfg,
		align:   cfg.Params.Channels * cfg.Params.Format.SampleSize(),
		filling: true,
		scratch: make([]byte, frameBytes),
	}, nil
}

// Write appends p, growing the buffer up to MaxBytes. At the cap the
// configured Policy applies.
func (q *Queue) Write(p []byte) error {
	if len(p) == 0 {
		return nil
	}

	q.mu.Lock()
	defer q.mu.Unlock()

	need := q.rb.Length() + len(p)
	if need > q.rb.Capacity() {
		q.grow(need)
	}

	if need > q.rb.Capacity() {
		q.stats.Overruns++

		if q.cfg.Policy == RejectWrite {
			return fmt.Errorf("%w: %d bytes buffered, %d bytes offered, cap %d",
				ErrQueueFull, q.rb.Length(), len(p), q.cfg.MaxBytes)
		}

		// a single write larger than the cap keeps only its newest bytes
		if len(p) > q.rb.Capacity() {
			cut := q.alignUp(len(p) - q.rb.Capacity())
			q.stats.Dropped += uint64(cut)
			p = p[cut:]
		}

		excess := q.rb.Length() + len(p) - q.rb.Capacity()
		if excess > 0 {
			q.discard(q.alignUp(excess))
		}
	}

	n, err := q.rb.Write(p)
	q.stats.Written += uint64(n)
	if err != nil {
		return fmt.Errorf("failed to write %d bytes to queue: %w", len(p), err)
	}
	return nil
}

// ReadExact removes exactly len(dst) samples if that many are buffered.
// It never blocks and returns false when not enough data is available.
func (q *Queue) ReadExact(dst []int16) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.rb.Length() < len(dst)*2 {
		return false
	}
	q.take(dst, len(dst)*2)
	return true
}

// ReadTimed behaves like ReadExact but withholds data while the queue is
// filling: after creation, Reset or an underrun nothing is returned until
// at least MinBytes and ptime worth of audio are buffered.
func (q *Queue) ReadTimed(ptime time.Duration, dst []int16) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	need := len(dst) * 2

	if q.filling {
		target := q.cfg.MinBytes
		if pt := q.durationToBytes(ptime); pt > target {
			target = pt
		}
		if need > target {
			target = need
		}
		if q.rb.Length() < target {
			return false
		}
		q.filling = false
	}

	if q.rb.Length() < need {
		q.stats.Underruns++
		q.filling = true
		return false
	}

	q.take(dst, need)
	return true
}

// ReadImmediate returns up to len(dst) buffered samples and zero-fills the
// rest. It returns false only when the queue is empty.
func (q *Queue) ReadImmediate(dst []int16) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	avail := q.rb.Length() &^ 1
	if avail == 0 {
		q.stats.Underruns++
		for i := range dst {
			dst[i] = 0
		}
		return false
	}

	need := len(dst) * 2
	if avail < need {
		q.stats.Underruns++
		need = avail
	}
	q.take(dst[:need/2], need)
	for i := need / 2; i < len(dst); i++ {
		dst[i] = 0
	}
	return true
}

// Buffered returns the number of bytes currently queued
func (q *Queue) Buffered() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.rb.Length()
}

// BufferedDuration returns the playing time of the queued bytes
func (q *Queue) BufferedDuration() time.Duration {
	return q.cfg.Params.BytesToDuration(q.Buffered())
}

// Capacity returns the current (not maximum) capacity in bytes
func (q *Queue) Capacity() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.rb.Capacity()
}

// Config returns the effective configuration after defaults
func (q *Queue) Config() Config {
	return q.cfg
}

// Stats returns a snapshot of the queue counters
func (q *Queue) Stats() Stats {
	q.mu.Lock()
	defer q.mu.Unlock()

	s := q.stats
	s.Buffered = q.rb.Length()
	s.Capacity = q.rb.Capacity()
	s.Filling = q.filling
	return s
}

// Reset discards all buffered bytes and re-enters the filling state
func (q *Queue) Reset() {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.rb.Reset()
	q.filling = true
}

// grow doubles the capacity until need fits or MaxBytes is reached (must hold q.mu)
func (q *Queue) grow(need int) {
	size := q.rb.Capacity()
	if size >= q.cfg.MaxBytes {
		return
	}
	for size < need && size < q.cfg.MaxBytes {
		size *= 2
	}
	if size > q.cfg.MaxBytes {
		size = q.cfg.MaxBytes
	}

	next := ringbuffer.New(size)
	if n := q.rb.Length(); n > 0 {
		buf := make([]byte, n)
		_, _ = q.rb.Read(buf)
		_, _ = next.Write(buf)
	}
	q.rb = next
}

// discard drops up to n of the oldest bytes (must hold q.mu)
func (q *Queue) discard(n int) {
	if n > q.rb.Length() {
		n = q.rb.Length()
	}
	if n == 0 {
		return
	}
	buf := make([]byte, n)
	m, _ := q.rb.Read(buf)
	q.stats.Dropped += uint64(m)
}

// take reads n bytes and decodes them into dst (must hold q.mu)
func (q *Queue) take(dst []int16, n int) {
	if cap(q.scratch) < n {
		q.scratch = make([]byte, n)
	}
	buf := q.scratch[:n]
	m, _ := q.rb.Read(buf)
	audio.BytesToSamples(dst, buf[:m])
	q.stats.Read += uint64(m)
}

func (q *Queue) alignUp(n int) int {
	if q.align <= 1 {
		return n
	}
	if r := n % q.align; r != 0 {
		n += q.align - r
	}
	return n
}

func (q *Queue) durationToBytes(d time.Duration) int {
	if d <= 0 {
		return 0
	}
	n := int(int64(q.cfg.Params.BytesPerSecond()) * int64(d) / int64(time.Second))
	return q.alignUp(n)
}
