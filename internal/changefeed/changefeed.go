// Package changefeed fans out row change notifications to live subscribers.
package changefeed

import (
	"log/slog"
	"sync"

	"github.com/mmynk/worklog/internal/models"
)

// DefaultBuffer is the per-subscriber event buffer.
const DefaultBuffer = 16

// Hub delivers published events to every matching subscriber.
// Publish never blocks: when a subscriber's buffer is full the event is
// dropped for that subscriber, which already has an undelivered event
// pending and will refresh anyway.
type Hub struct {
	mu     sync.Mutex
	subs   map[*Subscription]struct{}
	buffer int
	logger *slog.Logger
}

// NewHub creates an empty hub.
func NewHub(logger *slog.Logger) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	return &Hub{
		subs:   make(map[*Subscription]struct{}),
		buffer: DefaultBuffer,
		logger: logger,
	}
}

// Subscription receives events for one table.
type Subscription struct {
	hub   *Hub
	table string
	mask  models.EventMask
	ch    chan models.ChangeEvent
	once  sync.Once
}

// Subscribe registers a subscriber for table. The zero mask selects every
// change kind.
func (h *Hub) Subscribe(table string, mask models.EventMask) *Subscription {
	sub := &Subscription{
		hub:   h,
		table: table,
		mask:  mask,
		ch:    make(chan models.ChangeEvent, h.buffer),
	}

	h.mu.Lock()
	h.subs[sub] = struct{}{}
	n := len(h.subs)
	h.mu.Unlock()

	subscribersGauge.Inc()
	h.logger.Debug("Change feed subscriber added", "table", table, "subscribers", n)
	return sub
}

// Events returns the channel events are delivered on. It is closed by
// Unsubscribe.
func (s *Subscription) Events() <-chan models.ChangeEvent {
	return s.ch
}

// Unsubscribe removes the subscription and closes its channel.
// Safe to call more than once.
func (s *Subscription) Unsubscribe() {
	s.once.Do(func() {
		h := s.hub
		h.mu.Lock()
		delete(h.subs, s)
		n := len(h.subs)
		close(s.ch)
		h.mu.Unlock()

		subscribersGauge.Dec()
		h.logger.Debug("Change feed subscriber removed", "table", s.table, "subscribers", n)
	})
}

// Publish delivers ev to all matching subscribers.
func (h *Hub) Publish(ev models.ChangeEvent) {
	h.mu.Lock()
	defer h.mu.Unlock()

	delivered := 0
	for sub := range h.subs {
		if sub.table != ev.Table || !sub.mask.Matches(ev.Kind) {
			continue
		}
		select {
		case sub.ch <- ev:
			delivered++
		default:
			eventsDropped.Inc()
		}
	}
	eventsPublished.WithLabelValues(ev.Table, string(ev.Kind)).Inc()
	h.logger.Debug("Change published",
		"table", ev.Table,
		"kind", ev.Kind,
		"record_id", ev.RecordID,
		"delivered", delivered,
	)
}

// Len returns the number of live subscribers.
func (h *Hub) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}
