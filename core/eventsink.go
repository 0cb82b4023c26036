package core

import "pkt.systems/inkwell/schema"

// EventSink receives document events from the session.
type EventSink interface {
	OnDocumentEvent(event schema.DocumentEvent)
}
