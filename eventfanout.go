package modemxyz

import (
	"github.com/jquast/modem.xyz/core"
	"github.com/jquast/modem.xyz/schema"
)

type eventFanout struct {
	sinks []core.EventSink
}

// NewEventFanout combines sinks into one EventSink.
func NewEventFanout(sinks ...core.EventSink) core.EventSink {
	return eventFanout{sinks: sinks}
}

func (f eventFanout) OnCaptureEvent(event schema.CaptureEvent) {
	for _, sink := range f.sinks {
		if sink == nil {
			continue
		}
		sink.OnCaptureEvent(event)
	}
}
