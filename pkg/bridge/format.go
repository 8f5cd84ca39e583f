// ABOUTME: Negotiated format check
// ABOUTME: Compares pipeline caps with the stream parameters and warns on mismatch
package bridge

import (
	"strconv"
	"sync"

	"github.com/deepsentinel/baresip/pkg/audio"
	"github.com/deepsentinel/baresip/pkg/pipeline"
	"github.com/sirupsen/logrus"
)

// Mismatch describes one differing caps field
type Mismatch struct {
	Field    string
	Expected string
	Got      string
}

// CheckFormat compares caps against the expected parameters, logs a
// warning per mismatch and returns them. It never fails the stream.
func CheckFormat(log *logrus.Entry, expected audio.Params, got pipeline.Caps) []Mismatch {
	var out []Mismatch

	if got.SampleRate != expected.SampleRate {
		out = append(out, Mismatch{"rate", strconv.Itoa(expected.SampleRate), strconv.Itoa(got.SampleRate)})
	}
	if got.Channels != expected.Channels {
		out = append(out, Mismatch{"channels", strconv.Itoa(expected.Channels), strconv.Itoa(got.Channels)})
	}
	if got.Format != expected.Format.String() {
		out = append(out, Mismatch{"format", expected.Format.String(), got.Format})
	}

	if log != nil {
		for _, m := range out {
			log.Warnf("expected %s %s, got %s", m.Field, m.Expected, m.Got)
		}
	}
	return out
}

// formatGuard runs CheckFormat once per distinct caps value, since caps are
// reported with every buffer
type formatGuard struct {
	expected audio.Params
	log      *logrus.Entry
	mu       sync.Mutex
	last     pipeline.Caps
	checked  bool
}

func (g *formatGuard) check(caps pipeline.Caps) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.checked && caps == g.last {
		return
	}
	g.checked = true
	g.last = caps
	CheckFormat(g.log, g.expected, caps)
}
