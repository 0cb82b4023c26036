package inkwell

import (
	"pkt.systems/inkwell/core"
	"pkt.systems/inkwell/schema"
)

type eventFanout struct {
	sinks []core.EventSink
}

func (f eventFanout) OnDocumentEvent(event schema.DocumentEvent) {
	for _, sink := range f.sinks {
		if sink == nil {
			continue
		}
		sink.OnDocumentEvent(event)
	}
}
