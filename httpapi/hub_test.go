package httpapi

import (
	"testing"

	"pkt.systems/inkwell/schema"
)

func TestHubNumbersAndReplays(t *testing.T) {
	hub := NewHub(2, nil)
	ch, unsub := hub.Subscribe()
	defer unsub()
	for i := 0; i < 3; i++ {
		hub.OnDocumentEvent(schema.DocumentEvent{Type: schema.DocumentChanged, ProjectID: "p"})
	}
	for want := uint64(1); want <= 3; want++ {
		event := <-ch
		if event.Seq != want {
			t.Fatalf("expected seq %d, got %d", want, event.Seq)
		}
		if event.Timestamp.IsZero() {
			t.Fatalf("expected timestamp")
		}
	}
	replay := hub.Replay(1)
	if len(replay) != 2 || replay[0].Seq != 2 || replay[1].Seq != 3 {
		t.Fatalf("unexpected replay %+v", replay)
	}
	if got := hub.Replay(3); len(got) != 0 {
		t.Fatalf("expected nothing after latest, got %d", len(got))
	}
}

func TestHubUnsubscribeIsIdempotent(t *testing.T) {
	hub := NewHub(0, nil)
	ch, unsub := hub.Subscribe()
	unsub()
	unsub()
	if _, ok := <-ch; ok {
		t.Fatalf("expected closed channel")
	}
	hub.OnDocumentEvent(schema.DocumentEvent{Type: schema.DocumentSaved})
}
