// ABOUTME: Driver registry owned by the host application
// ABOUTME: Maps driver names to stream openers and tracks open streams by id
package bridge

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/deepsentinel/baresip/pkg/audio"
	"github.com/google/uuid"
)

// DriverName is the name the built-in openers register under
const DriverName = "gst_cus"

// Kind distinguishes capture and playback drivers
type Kind string

const (
	KindSource Kind = "ausrc"
	KindPlayer Kind = "auplay"
)

var ErrUnknownDriver = errors.New("unknown audio driver")

// SourceOpener opens a capture stream
type SourceOpener func(params audio.Params, device string, rh ReadHandler, errh ErrorHandler, opts ...Option) (*Source, error)

// PlayerOpener opens a playback stream
type PlayerOpener func(params audio.Params, device string, wh WriteHandler, errh ErrorHandler, opts ...Option) (*Player, error)

type stream interface {
	Close() error
}

// Registry holds drivers and the streams opened through it. Options given
// to NewRegistry are applied before per-call options.
type Registry struct {
	mu      sync.Mutex
	sources map[string]SourceOpener
	players map[string]PlayerOpener
	streams map[string]stream
	opts    []Option
}

// NewRegistry creates an empty registry
func NewRegistry(opts ...Option) *Registry {
	return &Registry{
		sources: make(map[string]SourceOpener),
		players: make(map[string]PlayerOpener),
		streams: make(map[string]stream),
		opts:    opts,
	}
}

// RegisterDefaults registers OpenSource and OpenPlayer as DriverName
func (r *Registry) RegisterDefaults() {
	r.RegisterSource(DriverName, OpenSource)
	r.RegisterPlayer(DriverName, OpenPlayer)
}

// RegisterSource adds or replaces a capture driver
func (r *Registry) RegisterSource(name string, open SourceOpener) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sources[name] = open
}

// RegisterPlayer adds or replaces a playback driver
func (r *Registry) RegisterPlayer(name string, open PlayerOpener) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.players[name] = open
}

// Unregister removes a driver. Streams it opened stay open.
func (r *Registry) Unregister(kind Kind, name string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	switch kind {
	case KindSource:
		delete(r.sources, name)
	case KindPlayer:
		delete(r.players, name)
	}
}

// Lookup reports whether a driver is registered
func (r *Registry) Lookup(kind Kind, name string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	switch kind {
	case KindSource:
		_, ok := r.sources[name]
		return ok
	case KindPlayer:
		_, ok := r.players[name]
		return ok
	}
	return false
}

// Drivers lists registered driver names of kind, sorted
func (r *Registry) Drivers(kind Kind) []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	var names []string
	switch kind {
	case KindSource:
		for name := range r.sources {
			names = append(names, name)
		}
	case KindPlayer:
		for name := range r.players {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

// OpenSource opens a capture stream through the named driver and returns its id
func (r *Registry) OpenSource(driver string, params audio.Params, device string, rh ReadHandler, errh ErrorHandler, opts ...Option) (string, *Source, error) {
	r.mu.Lock()
	open, ok := r.sources[driver]
	r.mu.Unlock()
	if !ok {
		return "", nil, fmt.Errorf("%w: %s %q", ErrUnknownDriver, KindSource, driver)
	}

	id := uuid.New().String()
	src, err := open(params, device, rh, errh, r.withDefaults(id, opts)...)
	if err != nil {
		return "", nil, err
	}
	r.track(id, src)
	return id, src, nil
}

// OpenPlayer opens a playback stream through the named driver and returns its id
func (r *Registry) OpenPlayer(driver string, params audio.Params, device string, wh WriteHandler, errh ErrorHandler, opts ...Option) (string, *Player, error) {
	r.mu.Lock()
	open, ok := r.players[driver]
	r.mu.Unlock()
	if !ok {
		return "", nil, fmt.Errorf("%w: %s %q", ErrUnknownDriver, KindPlayer, driver)
	}

	id := uuid.New().String()
	p, err := open(params, device, wh, errh, r.withDefaults(id, opts)...)
	if err != nil {
		return "", nil, err
	}
	r.track(id, p)
	return id, p, nil
}

func (r *Registry) withDefaults(id string, opts []Option) []Option {
	all := make([]Option, 0, len(r.opts)+len(opts)+1)
	all = append(all, r.opts...)
	all = append(all, opts...)
	return append(all, withStreamID(id))
}

func (r *Registry) track(id string, s stream) {
	r.mu.Lock()
	r.streams[id] = s
	r.mu.Unlock()
}

// Streams returns the ids of tracked streams
func (r *Registry) Streams() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	ids := make([]string, 0, len(r.streams))
	for id := range r.streams {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// CloseStream closes and forgets one stream
func (r *Registry) CloseStream(id string) error {
	r.mu.Lock()
	s, ok := r.streams[id]
	delete(r.streams, id)
	r.mu.Unlock()

	if !ok {
		return fmt.Errorf("%w: %s", ErrClosed, id)
	}
	return s.Close()
}

// Close closes every tracked stream
func (r *Registry) Close() error {
	r.mu.Lock()
	streams := r.streams
	r.streams = make(map[string]stream)
	r.mu.Unlock()

	var errs []error
	for id, s := range streams {
		if err := s.Close(); err != nil {
			errs = append(errs, fmt.Errorf("stream %s: %w", id, err))
		}
	}
	return errors.Join(errs...)
}
