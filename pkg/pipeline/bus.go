// ABOUTME: Pipeline message bus
// ABOUTME: Runs a synchronous handler inline and queues passed events for async readers
package pipeline

import (
	"sync"
	"sync/atomic"
	"time"
)

// BusReply tells the bus what to do with an event after the sync handler ran
type BusReply int

const (
	// BusPass forwards the event to the asynchronous Pending queue
	BusPass BusReply = iota
	// BusDrop consumes the event
	BusDrop
)

func (r BusReply) String() string {
	if r == BusDrop {
		return "drop"
	}
	return "pass"
}

// SyncHandler is invoked inline, on the posting goroutine, for every event
type SyncHandler func(ev Event) BusReply

// DefaultBusDepth is the Pending queue size used by NewBus(0)
const DefaultBusDepth = 32

// Bus carries events from pipeline elements to the owning stream
type Bus struct {
	mu      sync.RWMutex
	handler SyncHandler
	pending chan Event
	closed  bool
	dropped atomic.Uint64
}

// NewBus creates a bus whose Pending queue holds depth events
func NewBus(depth int) *Bus {
	if depth <= 0 {
		depth = DefaultBusDepth
	}
	return &Bus{pending: make(chan Event, depth)}
}

// SetSyncHandler installs the synchronous handler
func (b *Bus) SetSyncHandler(h SyncHandler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handler = h
}

// Post delivers ev to the sync handler and, if passed, to the Pending
// queue. A full queue drops the event. Posting on a closed bus is a no-op.
// The handler must not post on the same bus.
func (b *Bus) Post(ev Event) BusReply {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		return BusDrop
	}
	if ev.Time.IsZero() {
		ev.Time = time.Now()
	}

	reply := BusPass
	if b.handler != nil {
		reply = b.handler(ev)
	}

	if reply == BusPass {
		select {
		case b.pending <- ev:
		default:
			b.dropped.Add(1)
		}
	}
	return reply
}

// Pending returns the asynchronous queue of passed events. It is closed by Close.
func (b *Bus) Pending() <-chan Event {
	return b.pending
}

// Dropped returns how many passed events were lost to a full queue
func (b *Bus) Dropped() uint64 {
	return b.dropped.Load()
}

// Close stops delivery. It waits for in-flight handlers to return.
func (b *Bus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return
	}
	b.closed = true
	close(b.pending)
}
