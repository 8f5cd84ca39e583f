// ABOUTME: Stream lifecycle flag
// ABOUTME: Atomic Running -> Stopping -> Stopped transitions shared by pacer and delivery goroutines
package bridge

import "sync/atomic"

// State is a stream lifecycle phase
type State int32

const (
	Running State = iota
	Stopping
	Stopped
)

func (s State) String() string {
	switch s {
	case Running:
		return "running"
	case Stopping:
		return "stopping"
	case Stopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// RunState is safe for concurrent use. It only moves forward.
type RunState struct {
	v atomic.Int32
}

// Load returns the current phase
func (r *RunState) Load() State {
	return State(r.v.Load())
}

// Running reports whether the stream still processes frames
func (r *RunState) Running() bool {
	return r.Load() == Running
}

// Stop moves Running to Stopping. It reports whether this call did it.
func (r *RunState) Stop() bool {
	return r.v.CompareAndSwap(int32(Running), int32(Stopping))
}

// finish marks all resources released
func (r *RunState) finish() {
	r.v.Store(int32(Stopped))
}
