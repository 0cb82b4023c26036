package eventbus

import (
	"context"
	"sync"
	"sync/atomic"

	"pkt.systems/inkwell/schema"
	"pkt.systems/pslog"
)

// DefaultDepth is the per-subscriber buffer size.
const DefaultDepth = 256

// Bus fans document events out to subscribers. Slow subscribers lose events
// instead of blocking the publisher.
type Bus struct {
	mu      sync.Mutex
	subs    map[chan schema.DocumentEvent]struct{}
	log     pslog.Logger
	depth   int
	dropped atomic.Uint64
}

// New constructs a Bus.
func New(logger pslog.Logger) *Bus {
	if logger == nil {
		logger = pslog.Ctx(context.Background())
	}
	return &Bus{
		subs:  make(map[chan schema.DocumentEvent]struct{}),
		log:   logger,
		depth: DefaultDepth,
	}
}

// Subscribe registers a subscriber and returns its channel and a cancel func.
func (b *Bus) Subscribe() (<-chan schema.DocumentEvent, func()) {
	if b == nil {
		return nil, func() {}
	}
	ch := make(chan schema.DocumentEvent, b.depth)
	b.mu.Lock()
	b.subs[ch] = struct{}{}
	count := len(b.subs)
	b.mu.Unlock()
	if b.log != nil {
		b.log.Debug("eventbus subscribe", "subs", count)
	}
	var once sync.Once
	return ch, func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.subs, ch)
			close(ch)
			b.mu.Unlock()
			if b.log != nil {
				b.log.Debug("eventbus unsubscribe")
			}
		})
	}
}

// Subscribers returns the number of active subscribers.
func (b *Bus) Subscribers() int {
	if b == nil {
		return 0
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs)
}

// Dropped returns how many deliveries were skipped because a subscriber was full.
func (b *Bus) Dropped() uint64 {
	if b == nil {
		return 0
	}
	return b.dropped.Load()
}

// OnDocumentEvent publishes a document event.
func (b *Bus) OnDocumentEvent(event schema.DocumentEvent) {
	if b == nil {
		return
	}
	dropped := 0
	b.mu.Lock()
	for sub := range b.subs {
		select {
		case sub <- event:
		default:
			dropped++
		}
	}
	b.mu.Unlock()
	if dropped > 0 {
		b.dropped.Add(uint64(dropped))
		if b.log != nil {
			b.log.Trace("eventbus dropped", "count", dropped, "type", event.Type)
		}
	}
}
