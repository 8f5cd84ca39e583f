// ABOUTME: Pipeline event to lifecycle translation
// ABOUTME: Per-direction tables decide drop or pass, stop, and error reporting per event kind
package bridge

import (
	"github.com/deepsentinel/baresip/pkg/pipeline"
	"github.com/sirupsen/logrus"
)

// Disposition is what the bridge does with one kind of bus event
type Disposition struct {
	Reply       pipeline.BusReply
	Stop        bool // move the stream to Stopping
	ReportError bool // hand a PipelineError to the error handler
}

// EventTable maps event kinds to dispositions. Kinds not listed pass.
type EventTable map[pipeline.EventKind]Disposition

// Lookup returns the disposition for kind
func (t EventTable) Lookup(kind pipeline.EventKind) Disposition {
	if d, ok := t[kind]; ok {
		return d
	}
	return Disposition{Reply: pipeline.BusPass}
}

// DefaultCaptureTable consumes every event; nothing on the capture side
// reads the asynchronous queue.
var DefaultCaptureTable = EventTable{
	pipeline.EventEndOfStream:  {Reply: pipeline.BusDrop, Stop: true},
	pipeline.EventError:        {Reply: pipeline.BusDrop, Stop: true, ReportError: true},
	pipeline.EventTag:          {Reply: pipeline.BusDrop},
	pipeline.EventStateChanged: {Reply: pipeline.BusDrop},
	pipeline.EventWarning:      {Reply: pipeline.BusDrop},
}

// DefaultPlaybackTable consumes lifecycle events and passes the rest
var DefaultPlaybackTable = EventTable{
	pipeline.EventEndOfStream: {Reply: pipeline.BusDrop, Stop: true},
	pipeline.EventError:       {Reply: pipeline.BusDrop, Stop: true, ReportError: true},
	pipeline.EventTag:         {Reply: pipeline.BusDrop},
}

// eventBridge is installed as a bus sync handler. It runs on whatever
// goroutine posted the event.
type eventBridge struct {
	direction string
	table     EventTable
	state     *RunState
	stop      func()
	errh      ErrorHandler
	tagh      TagHandler
	metrics   *Metrics
	log       *logrus.Entry
}

func (b *eventBridge) handle(ev pipeline.Event) pipeline.BusReply {
	d := b.table.Lookup(ev.Kind)

	switch ev.Kind {
	case pipeline.EventEndOfStream:
		b.log.Info("End of stream")
	case pipeline.EventTag:
		if ev.Title != "" {
			b.log.Infof("Title: %s", ev.Title)
			if b.tagh != nil {
				b.tagh(ev.Title)
			}
		}
	case pipeline.EventWarning:
		b.log.Warnf("%s: %s", ev.Source, ev.Message)
	case pipeline.EventError:
		b.log.WithFields(logrus.Fields{
			"source": ev.Source,
			"code":   ev.Code,
			"debug":  ev.Debug,
		}).Errorf("Pipeline error: %s", ev.Message)
		b.metrics.pipelineError(b.direction)
	}

	if d.Stop {
		b.stop()
	}

	if d.ReportError && ev.Kind == pipeline.EventError && b.errh != nil && b.state.Load() != Stopped {
		b.errh(&PipelineError{
			Source:  ev.Source,
			Code:    ev.Code,
			Message: ev.Message,
			Debug:   ev.Debug,
		})
	}

	return d.Reply
}
