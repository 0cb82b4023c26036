package eventbus

import (
	"testing"
	"time"

	"pkt.systems/inkwell/schema"
)

func TestSubscribeAndPublish(t *testing.T) {
	bus := New(nil)
	ch, cancel := bus.Subscribe()
	defer cancel()

	event := schema.DocumentEvent{Type: schema.DocumentSaved, ProjectID: "p1"}
	bus.OnDocumentEvent(event)

	select {
	case got := <-ch:
		if got.Type != schema.DocumentSaved || got.ProjectID != "p1" {
			t.Fatalf("unexpected payload: %+v", got)
		}
	case <-time.After(500 * time.Millisecond):
		t.Fatalf("timed out waiting for event")
	}
}

func TestUnsubscribeClosesChannel(t *testing.T) {
	bus := New(nil)
	ch, cancel := bus.Subscribe()
	cancel()
	cancel()
	if _, ok := <-ch; ok {
		t.Fatalf("expected channel to be closed")
	}
	if bus.Subscribers() != 0 {
		t.Fatalf("expected no subscribers")
	}
	bus.OnDocumentEvent(schema.DocumentEvent{Type: schema.DocumentChanged})
}

func TestPublishDoesNotBlockWhenFull(t *testing.T) {
	bus := New(nil)
	bus.depth = 1
	ch, cancel := bus.Subscribe()
	defer cancel()

	done := make(chan struct{})
	go func() {
		for i := 0; i < 5; i++ {
			bus.OnDocumentEvent(schema.DocumentEvent{Type: schema.DocumentChanged})
		}
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatalf("publish blocked on a full subscriber")
	}
	if bus.Dropped() != 4 {
		t.Fatalf("expected 4 dropped events, got %d", bus.Dropped())
	}
	if len(ch) != 1 {
		t.Fatalf("expected one buffered event, got %d", len(ch))
	}
}

func TestNilBus(t *testing.T) {
	var bus *Bus
	ch, cancel := bus.Subscribe()
	cancel()
	if ch != nil {
		t.Fatalf("expected nil channel from nil bus")
	}
	bus.OnDocumentEvent(schema.DocumentEvent{})
}
