package eventbus

import (
	"context"
	"sync"

	"pkt.systems/pslog"

	"github.com/jquast/modem.xyz/schema"
)

// Bus fans capture events out to subscribers.
type Bus struct {
	mu    sync.Mutex
	subs  map[chan schema.CaptureEvent]struct{}
	log   pslog.Logger
	depth int
}

// New constructs a Bus.
func New(logger pslog.Logger) *Bus {
	if logger == nil {
		logger = pslog.Ctx(context.Background())
	}
	return &Bus{
		subs:  make(map[chan schema.CaptureEvent]struct{}),
		log:   logger,
		depth: 256,
	}
}

// Subscribe registers a subscriber and returns a channel + cancel.
func (b *Bus) Subscribe() (<-chan schema.CaptureEvent, func()) {
	if b == nil {
		return nil, func() {}
	}
	ch := make(chan schema.CaptureEvent, b.depth)
	b.mu.Lock()
	b.subs[ch] = struct{}{}
	count := len(b.subs)
	b.mu.Unlock()
	if b.log != nil {
		b.log.Debug("eventbus subscribe", "subs", count)
	}
	return ch, func() {
		b.mu.Lock()
		delete(b.subs, ch)
		b.mu.Unlock()
		close(ch)
		if b.log != nil {
			b.log.Debug("eventbus unsubscribe")
		}
	}
}

// OnCaptureEvent publishes a capture event to all subscribers. Slow
// subscribers lose events rather than stalling the pipeline.
func (b *Bus) OnCaptureEvent(event schema.CaptureEvent) {
	if b == nil {
		return
	}
	b.mu.Lock()
	subs := make([]chan schema.CaptureEvent, 0, len(b.subs))
	for sub := range b.subs {
		subs = append(subs, sub)
	}
	b.mu.Unlock()
	if len(subs) == 0 {
		return
	}
	dropped := 0
	for _, sub := range subs {
		select {
		case sub <- event:
		default:
			dropped++
		}
	}
	if dropped > 0 && b.log != nil {
		b.log.Trace("eventbus dropped", "count", dropped)
	}
}
