// ABOUTME: Test doubles for pipeline elements and pacing
// ABOUTME: Fake source, fake sink and a recording sleeper
package bridge

import (
	"errors"
	"sync"
	"time"

	"github.com/deepsentinel/baresip/pkg/audio"
	"github.com/deepsentinel/baresip/pkg/pipeline"
)

var (
	narrowband = audio.Params{SampleRate: 8000, Channels: 1, Ptime: 20}
	s16Caps    = pipeline.Caps{SampleRate: 8000, Channels: 1, Format: "S16LE"}
)

// fakeSource lets a test act as the pipeline delivery thread
type fakeSource struct {
	mu       sync.Mutex
	handoff  pipeline.HandoffFunc
	bus      *pipeline.Bus
	startErr error
	closed   int
}

func (f *fakeSource) Start(handoff pipeline.HandoffFunc, bus *pipeline.Bus) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.startErr != nil {
		return f.startErr
	}
	f.handoff = handoff
	f.bus = bus
	return nil
}

func (f *fakeSource) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed++
	return nil
}

func (f *fakeSource) deliver(data []byte) {
	f.handoff(data, s16Caps)
}

func (f *fakeSource) post(ev pipeline.Event) {
	f.bus.Post(ev)
}

type push struct {
	data     []byte
	pts      time.Duration
	duration time.Duration
}

// fakeSink records pushes. failAt makes the n-th push (1-based) fail.
type fakeSink struct {
	mu         sync.Mutex
	bus        *pipeline.Bus
	pushes     []push
	failAt     int
	postOnFail bool
	startErr   error
	closed     int
	pushed     chan struct{}
}

func newFakeSink() *fakeSink {
	return &fakeSink{pushed: make(chan struct{}, 1024)}
}

func (f *fakeSink) Start(bus *pipeline.Bus) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.startErr != nil {
		return f.startErr
	}
	f.bus = bus
	return nil
}

func (f *fakeSink) Push(data []byte, pts, duration time.Duration) error {
	f.mu.Lock()
	n := len(f.pushes) + 1
	fail := f.failAt > 0 && n >= f.failAt
	if !fail {
		f.pushes = append(f.pushes, push{append([]byte(nil), data...), pts, duration})
	}
	bus, postOnFail := f.bus, f.postOnFail
	f.mu.Unlock()

	if fail {
		if postOnFail {
			bus.Post(pipeline.ErrorEvent("fakesink", pipeline.CodeWrite, "device gone", "unplugged"))
		}
		return errors.New("push refused")
	}
	select {
	case f.pushed <- struct{}{}:
	default:
	}
	return nil
}

func (f *fakeSink) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed++
	return nil
}

func (f *fakeSink) recorded() []push {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]push(nil), f.pushes...)
}

// recordingSleeper returns immediately and remembers requested durations
type recordingSleeper struct {
	mu    sync.Mutex
	calls []time.Duration
}

func (r *recordingSleeper) sleep(d time.Duration, done <-chan struct{}) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, d)
}

func (r *recordingSleeper) durations() []time.Duration {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]time.Duration(nil), r.calls...)
}

// rampBytes encodes n samples counting up from start
func rampBytes(start, n int) []byte {
	samples := make([]int16, n)
	for i := range samples {
		samples[i] = int16(start + i)
	}
	buf := make([]byte, n*2)
	audio.SamplesToBytes(buf, samples)
	return buf
}
