// ABOUTME: Delivery goroutine lifecycle shared by live sources
// ABOUTME: Start once, stop via channel, join on shutdown
package pipeline

import (
	"sync"
	"sync/atomic"
	"time"
)

type runner struct {
	stopCh   chan struct{}
	done     chan struct{}
	stopOnce sync.Once
	started  atomic.Bool
}

func newRunner() *runner {
	return &runner{
		stopCh: make(chan struct{}),
		done:   make(chan struct{}),
	}
}

// start runs fn on a new goroutine; it reports false if already started
func (r *runner) start(fn func()) bool {
	if !r.started.CompareAndSwap(false, true) {
		return false
	}
	go func() {
		defer close(r.done)
		fn()
	}()
	return true
}

func (r *runner) stopping() bool {
	select {
	case <-r.stopCh:
		return true
	default:
		return false
	}
}

// sleep waits for d and reports false if stopped meanwhile
func (r *runner) sleep(d time.Duration) bool {
	if d <= 0 {
		return !r.stopping()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return true
	case <-r.stopCh:
		return false
	}
}

// shutdown signals stop and joins the goroutine if one was started
func (r *runner) shutdown() {
	r.stopOnce.Do(func() {
		close(r.stopCh)
	})
	if r.started.Load() {
		<-r.done
	}
}
