// ABOUTME: Bridge error values
// ABOUTME: Open-time sentinels and the runtime PipelineError handed to error handlers
package bridge

import (
	"errors"
	"fmt"

	"github.com/deepsentinel/baresip/pkg/audio"
)

var (
	// ErrInvalidParams rejects non-positive rate, channels or ptime
	ErrInvalidParams = audio.ErrInvalidParams

	// ErrUnsupportedFormat rejects any sample format other than S16LE
	ErrUnsupportedFormat = audio.ErrUnsupportedFormat

	// ErrMissingDevice is returned when no device descriptor was given
	ErrMissingDevice = errors.New("missing device")

	// ErrNoHandler is returned when the read or write handler is nil
	ErrNoHandler = errors.New("missing frame handler")

	// ErrPipeline wraps pipeline construction and runtime failures
	ErrPipeline = errors.New("pipeline error")

	// ErrClosed is returned by operations on a closed stream
	ErrClosed = errors.New("stream closed")
)

// PipelineError is a runtime error reported by a pipeline element
type PipelineError struct {
	Source  string
	Code    int
	Message string
	Debug   string
}

func (e *PipelineError) Error() string {
	msg := fmt.Sprintf("%s: %s (code %d)", e.Source, e.Message, e.Code)
	if e.Debug != "" {
		msg += ": " + e.Debug
	}
	return msg
}

// Unwrap lets errors.Is match ErrPipeline
func (e *PipelineError) Unwrap() error {
	return ErrPipeline
}
