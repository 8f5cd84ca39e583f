// ABOUTME: Media pipeline element contracts
// ABOUTME: Defines negotiated caps and the source/sink interfaces the bridge drives
package pipeline

import (
	"errors"
	"fmt"
	"time"

	"github.com/deepsentinel/baresip/pkg/audio"
)

var (
	// ErrUnknownElement is returned for descriptors no element understands
	ErrUnknownElement = errors.New("unknown pipeline element")

	// ErrNotStarted is returned by Push before Start
	ErrNotStarted = errors.New("element not started")

	// ErrFlushing is returned by Push after the element was closed
	ErrFlushing = errors.New("element flushing")
)

// Caps is the negotiated raw audio format of a pad
type Caps struct {
	SampleRate int
	Channels   int
	Format     string // e.g. "S16LE"
}

// CapsFor returns the caps matching the given stream parameters
func CapsFor(p audio.Params) Caps {
	return Caps{
		SampleRate: p.SampleRate,
		Channels:   p.Channels,
		Format:     p.Format.String(),
	}
}

func (c Caps) String() string {
	return fmt.Sprintf("audio/x-raw,format=%s,rate=%d,channels=%d", c.Format, c.SampleRate, c.Channels)
}

// HandoffFunc receives each buffer a source produces. It runs on the
// source's delivery goroutine and data is only valid during the call.
type HandoffFunc func(data []byte, caps Caps)

// Source is the capture end of a pipeline. Start begins delivery on a
// goroutine owned by the source; Close stops it and returns only after the
// last HandoffFunc call has returned.
type Source interface {
	Start(handoff HandoffFunc, bus *Bus) error
	Close() error
}

// Sink is the playback end of a pipeline. Push accepts one timestamped
// buffer; data is only valid during the call.
type Sink interface {
	Start(bus *Bus) error
	Push(data []byte, pts, duration time.Duration) error
	Close() error
}
