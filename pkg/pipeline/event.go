// ABOUTME: Pipeline bus events
// ABOUTME: End-of-stream, error, tag, state and warning messages posted by elements
package pipeline

import (
	"fmt"
	"time"
)

// EventKind identifies a bus message type
type EventKind int

const (
	EventEndOfStream EventKind = iota
	EventError
	EventTag
	EventStateChanged
	EventWarning
)

func (k EventKind) String() string {
	switch k {
	case EventEndOfStream:
		return "eos"
	case EventError:
		return "error"
	case EventTag:
		return "tag"
	case EventStateChanged:
		return "state-changed"
	case EventWarning:
		return "warning"
	default:
		return fmt.Sprintf("EventKind(%d)", int(k))
	}
}

// Event is a message posted on a Bus
type Event struct {
	Kind    EventKind
	Source  string // posting element
	Code    int    // error/warning code
	Message string
	Debug   string
	Title   string // tag events
	State   string // state-changed events
	Time    time.Time
}

// EndOfStream builds an end-of-stream event
func EndOfStream(source string) Event {
	return Event{Kind: EventEndOfStream, Source: source}
}

// ErrorEvent builds an error event
func ErrorEvent(source string, code int, message, debug string) Event {
	return Event{Kind: EventError, Source: source, Code: code, Message: message, Debug: debug}
}

// TagEvent builds a tag event carrying a title
func TagEvent(source, title string) Event {
	return Event{Kind: EventTag, Source: source, Title: title}
}

// StateChanged builds a state-changed event
func StateChanged(source, state string) Event {
	return Event{Kind: EventStateChanged, Source: source, State: state}
}

// Error codes used by the built-in elements
const (
	CodeFailed   = 1 // generic element failure
	CodeNotFound = 3 // resource missing
	CodeRead     = 9 // read/decode failure
	CodeWrite    = 10
)
