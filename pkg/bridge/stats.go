// ABOUTME: Per-stream counters
// ABOUTME: Snapshot returned by Source.Stats and Player.Stats
package bridge

import "time"

// Stats is a point-in-time view of one stream
type Stats struct {
	Direction string
	State     State

	Frames  uint64 // frames exchanged with the handler
	Buffers uint64 // pipeline buffers received (capture)
	Pushes  uint64 // buffers accepted by the sink (playback)

	Overflows    uint64 // writes that hit the queue cap
	Dropped      uint64 // bytes discarded by the queue
	Underruns    uint64
	PushFailures uint64

	Buffered time.Duration // audio waiting in the queue
	LastPTS  time.Duration // timestamp of the last pushed buffer
}
