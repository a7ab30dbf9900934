package event

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/slotwise/appointment-scheduling/internal/observability/metrics"
)

// Handler consumes one delivered event. Handlers run on their own goroutine;
// an error or panic is logged and never reaches the publisher.
type Handler func(ctx context.Context, ev Event) error

// Bus is an in-process publish/subscribe fan-out. Subscribers are registered
// explicitly before the bus starts receiving traffic; delivery is asynchronous,
// at-least-once per subscriber, and fire-and-forget for the publisher.
type Bus struct {
	mu      sync.RWMutex
	subs    map[Type][]Handler
	all     []Handler
	wg      sync.WaitGroup
	log     zerolog.Logger
	metrics *metrics.SchedulingMetrics

	deliveryTimeout time.Duration
}

func NewBus(m *metrics.SchedulingMetrics) *Bus {
	return &Bus{
		subs:            make(map[Type][]Handler),
		log:             log.With().Str("component", "event.bus").Logger(),
		metrics:         m,
		deliveryTimeout: 10 * time.Second,
	}
}

// Subscribe registers a handler for the given event types, or for every type
// when none are named.
func (b *Bus) Subscribe(h Handler, types ...Type) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if len(types) == 0 {
		b.all = append(b.all, h)
		return
	}
	for _, t := range types {
		b.subs[t] = append(b.subs[t], h)
	}
}

// Publish assigns the event its id and emission timestamp and dispatches it to
// every matching subscriber. It returns immediately; delivery runs detached
// from the caller's context so a request cancelled after commit cannot
// suppress notification errors into the request path.
func (b *Bus) Publish(eventType Type, payload any) Event {
	ev := Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		Timestamp: time.Now().UTC(),
		Payload:   payload,
	}

	b.mu.RLock()
	handlers := make([]Handler, 0, len(b.all)+len(b.subs[eventType]))
	handlers = append(handlers, b.all...)
	handlers = append(handlers, b.subs[eventType]...)
	b.mu.RUnlock()

	b.log.Debug().Str("event_id", ev.ID).Str("event_type", string(ev.Type)).Msg("event published")
	b.metrics.ObserveEvent(string(ev.Type))

	for _, h := range handlers {
		b.wg.Add(1)
		go b.deliver(h, ev)
	}

	return ev
}

func (b *Bus) deliver(h Handler, ev Event) {
	defer b.wg.Done()
	defer func() {
		if r := recover(); r != nil {
			b.log.Error().
				Str("event_id", ev.ID).
				Str("event_type", string(ev.Type)).
				Interface("panic", r).
				Msg("event subscriber panicked")
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), b.deliveryTimeout)
	defer cancel()

	if err := h(ctx, ev); err != nil {
		b.log.Error().
			Err(err).
			Str("event_id", ev.ID).
			Str("event_type", string(ev.Type)).
			Msg("event subscriber failed")
	}
}

// Close waits for in-flight deliveries to finish, bounded by ctx.
func (b *Bus) Close(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		b.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
