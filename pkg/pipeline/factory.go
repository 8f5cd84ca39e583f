// ABOUTME: Descriptor-driven element construction
// ABOUTME: Resolves strings like "tone:440", "file:ring.wav" or "malgo:USB" to sources and sinks
package pipeline

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/deepsentinel/baresip/pkg/audio"
	"github.com/deepsentinel/baresip/pkg/audio/output"
)

// Descriptor is a parsed element description: kind[:arg]
type Descriptor struct {
	Kind string
	Arg  string
}

func (d Descriptor) String() string {
	if d.Arg == "" {
		return d.Kind
	}
	return d.Kind + ":" + d.Arg
}

// knownKinds are the element names accepted before the first colon
var knownKinds = map[string]bool{
	"tone": true, "file": true, "device": true, "inter": true,
	"oto": true, "malgo": true, "null": true,
}

// ParseDescriptor splits a descriptor. A string whose prefix is not a known
// kind but has a file extension is taken as a file path.
func ParseDescriptor(s string) (Descriptor, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Descriptor{}, fmt.Errorf("%w: empty descriptor", ErrUnknownElement)
	}

	kind, arg, _ := strings.Cut(s, ":")
	kind = strings.ToLower(kind)
	if knownKinds[kind] {
		return Descriptor{Kind: kind, Arg: arg}, nil
	}

	if filepath.Ext(s) != "" {
		return Descriptor{Kind: "file", Arg: s}, nil
	}
	return Descriptor{}, fmt.Errorf("%w: %q", ErrUnknownElement, s)
}

// Factory builds elements. The Hub backs "inter:" elements; File sources
// are paced to real time when RealtimeFiles is set.
type Factory struct {
	Hub           *Hub
	RealtimeFiles bool
}

var defaultFactory = &Factory{Hub: NewHub()}

// NewSource builds a source with the package default factory
func NewSource(descriptor string, p audio.Params) (Source, error) {
	return defaultFactory.NewSource(descriptor, p)
}

// NewSink builds a sink with the package default factory
func NewSink(descriptor string, p audio.Params) (Sink, error) {
	return defaultFactory.NewSink(descriptor, p)
}

// DefaultHub returns the hub used by the package-level constructors
func DefaultHub() *Hub {
	return defaultFactory.Hub
}

// NewSource resolves a capture descriptor: tone[:freq], file:<path>,
// device[:name] or inter:<channel>
func (f *Factory) NewSource(descriptor string, p audio.Params) (Source, error) {
	d, err := ParseDescriptor(descriptor)
	if err != nil {
		return nil, err
	}

	switch d.Kind {
	case "tone":
		cfg := ToneConfig{Realtime: true}
		if d.Arg != "" {
			freq, err := strconv.ParseFloat(d.Arg, 64)
			if err != nil || freq <= 0 {
				return nil, fmt.Errorf("invalid tone frequency %q", d.Arg)
			}
			cfg.Frequency = freq
		}
		return NewToneSource(p, cfg), nil
	case "file":
		if d.Arg == "" {
			return nil, fmt.Errorf("file source needs a path")
		}
		return NewFileSource(d.Arg, p, f.RealtimeFiles)
	case "device":
		return NewDeviceSource(d.Arg, p), nil
	case "inter":
		return NewInterSource(f.hub(), channelName(d.Arg, ChannelInput), p)
	default:
		return nil, fmt.Errorf("%w: %q is not a source", ErrUnknownElement, d)
	}
}

// NewSink resolves a playback descriptor: oto, malgo[:name], file:<path>,
// null or inter:<channel>
func (f *Factory) NewSink(descriptor string, p audio.Params) (Sink, error) {
	d, err := ParseDescriptor(descriptor)
	if err != nil {
		return nil, err
	}

	switch d.Kind {
	case "oto":
		return NewOutputSink("oto", output.NewOto(), p), nil
	case "malgo":
		return NewOutputSink("malgo", output.NewMalgo(d.Arg), p), nil
	case "file":
		if d.Arg == "" {
			return nil, fmt.Errorf("file sink needs a path")
		}
		return NewFileSink(d.Arg, p), nil
	case "null":
		return NewNullSink(false), nil
	case "inter":
		return NewInterSink(f.hub(), channelName(d.Arg, ChannelOutput), p)
	default:
		return nil, fmt.Errorf("%w: %q is not a sink", ErrUnknownElement, d)
	}
}

func (f *Factory) hub() *Hub {
	if f.Hub == nil {
		f.Hub = NewHub()
	}
	return f.Hub
}

func channelName(arg, fallback string) string {
	if arg == "" {
		return fallback
	}
	return arg
}
