// ABOUTME: File playback source
// ABOUTME: Decodes an audio file, converts it to the negotiated caps and delivers it
package pipeline

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/deepsentinel/baresip/pkg/audio"
	"github.com/deepsentinel/baresip/pkg/audio/decode"
	"github.com/deepsentinel/baresip/pkg/audio/resample"
	"github.com/sirupsen/logrus"
)

// fileChunkBytes is the decoder read size, like a typical demuxer buffer
const fileChunkBytes = 4096

// FileSource plays an audio file. Without Realtime it delivers faster than
// real time and relies on the consumer to pace itself.
type FileSource struct {
	path      string
	params    audio.Params
	caps      Caps
	realtime  bool
	decoder   decode.Decoder
	converter *resample.Converter
	runner    *runner
	log       *logrus.Entry
}

// NewFileSource opens and probes path. Decoding starts on Start.
func NewFileSource(path string, p audio.Params, realtime bool) (*FileSource, error) {
	dec, err := decode.Open(path, p)
	if err != nil {
		return nil, err
	}

	log := logrus.WithFields(logrus.Fields{"element": "filesrc", "path": path})
	log.Infof("Loaded %s (sample rate: %d Hz, channels: %d)", decode.Title(path), dec.SampleRate(), dec.Channels())

	return &FileSource{
		path:      path,
		params:    p,
		caps:      CapsFor(p),
		realtime:  realtime,
		decoder:   dec,
		converter: resample.NewConverter(dec.SampleRate(), dec.Channels(), p),
		runner:    newRunner(),
		log:       log,
	}, nil
}

// Start begins decoding and delivery
func (s *FileSource) Start(handoff HandoffFunc, bus *Bus) error {
	if handoff == nil {
		return fmt.Errorf("file source: nil handoff")
	}
	if !s.runner.start(func() { s.run(handoff, bus) }) {
		return fmt.Errorf("file source already started")
	}
	return nil
}

func (s *FileSource) run(handoff HandoffFunc, bus *Bus) {
	bus.Post(TagEvent("filesrc", decode.Title(s.path)))

	buf := make([]byte, fileChunkBytes)
	next := time.Now()

	for !s.runner.stopping() {
		n, err := s.decoder.Read(buf)
		if n > 0 {
			out := s.converter.Process(buf[:n])
			if len(out) > 0 {
				handoff(out, s.caps)
			}
			if s.realtime {
				next = next.Add(s.params.BytesToDuration(len(out)))
				if !s.runner.sleep(time.Until(next)) {
					return
				}
			}
		}

		if errors.Is(err, io.EOF) {
			s.log.Info("End of file reached")
			bus.Post(EndOfStream("filesrc"))
			return
		}
		if err != nil {
			s.log.WithError(err).Warn("File decode failed")
			bus.Post(ErrorEvent("filesrc", CodeRead, "could not decode stream", err.Error()))
			return
		}
	}
}

// Close stops delivery and releases the decoder
func (s *FileSource) Close() error {
	s.runner.shutdown()
	if err := s.decoder.Close(); err != nil {
		return fmt.Errorf("failed to close decoder: %w", err)
	}
	return nil
}
