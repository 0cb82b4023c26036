package httpapi

import (
	"context"
	"sync"
	"time"

	"pkt.systems/inkwell/schema"
	"pkt.systems/pslog"
)

// StreamEvent is sent to SSE clients.
type StreamEvent struct {
	Seq       uint64                `json:"seq"`
	Type      string                `json:"type"`
	ProjectID schema.ProjectID      `json:"projectId,omitempty"`
	State     *schema.DocumentState `json:"state,omitempty"`
	Usage     *schema.Usage         `json:"usage,omitempty"`
	Timestamp time.Time             `json:"timestamp"`
}

// Hub numbers document events and broadcasts them to stream subscribers,
// keeping a bounded history for Last-Event-ID replay.
type Hub struct {
	mu          sync.Mutex
	seq         uint64
	history     []StreamEvent
	subs        map[chan StreamEvent]struct{}
	historySize int
	log         pslog.Logger
}

// NewHub constructs a hub with the given history size.
func NewHub(historySize int, log pslog.Logger) *Hub {
	if historySize <= 0 {
		historySize = 1000
	}
	if log == nil {
		log = pslog.Ctx(context.Background())
	}
	return &Hub{
		subs:        make(map[chan StreamEvent]struct{}),
		historySize: historySize,
		log:         log,
	}
}

// OnDocumentEvent implements core.EventSink.
func (h *Hub) OnDocumentEvent(event schema.DocumentEvent) {
	ts := event.Timestamp
	if ts.IsZero() {
		ts = time.Now()
	}
	h.log.Trace("hub document event", "type", event.Type, "project", event.ProjectID)
	h.publish(StreamEvent{
		Type:      string(event.Type),
		ProjectID: event.ProjectID,
		State:     event.State,
		Usage:     event.Usage,
		Timestamp: ts,
	})
}

// Subscribe registers a subscriber.
func (h *Hub) Subscribe() (<-chan StreamEvent, func()) {
	h.mu.Lock()
	defer h.mu.Unlock()
	ch := make(chan StreamEvent, 256)
	h.subs[ch] = struct{}{}
	h.log.Info("hub subscribe", "subs", len(h.subs), "history", len(h.history))
	var once sync.Once
	unsub := func() {
		once.Do(func() {
			h.mu.Lock()
			delete(h.subs, ch)
			close(ch)
			remaining := len(h.subs)
			h.mu.Unlock()
			h.log.Info("hub unsubscribe", "subs", remaining)
		})
	}
	return ch, unsub
}

// Replay returns events after the provided seq.
func (h *Hub) Replay(after uint64) []StreamEvent {
	h.mu.Lock()
	defer h.mu.Unlock()
	events := make([]StreamEvent, 0, len(h.history))
	for _, event := range h.history {
		if event.Seq > after {
			events = append(events, event)
		}
	}
	h.log.Debug("hub replay", "after", after, "count", len(events))
	return events
}

func (h *Hub) publish(event StreamEvent) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.seq++
	event.Seq = h.seq
	h.history = append(h.history, event)
	if len(h.history) > h.historySize {
		h.history = h.history[len(h.history)-h.historySize:]
	}
	dropped := 0
	for sub := range h.subs {
		select {
		case sub <- event:
		default:
			dropped++
		}
	}
	if dropped > 0 {
		h.log.Warn("hub event dropped", "type", event.Type, "dropped", dropped)
	}
}
