package client

import (
	"context"
	"fmt"
	"sync"

	"connectrpc.com/connect"

	"github.com/mmynk/worklog/internal/api"
	"github.com/mmynk/worklog/internal/models"
	"github.com/mmynk/worklog/internal/worklist"
)

// eventBuffer is the number of undelivered events a subscription holds.
// Further events are dropped; one pending event is enough to trigger a
// refresh.
const eventBuffer = 16

// Subscribe opens a change stream and returns once the server has
// confirmed it.
func (c *Client) Subscribe(ctx context.Context, mask models.EventMask) (worklist.Subscription, error) {
	ctx, cancel := context.WithCancel(ctx)

	stream, err := c.records.Watch(ctx, connect.NewRequest(&api.WatchRequest{Mask: mask}))
	if err != nil {
		cancel()
		return nil, mapError("subscribe", err)
	}

	if !stream.Receive() {
		err := stream.Err()
		stream.Close()
		cancel()
		if err == nil {
			return nil, ErrStreamClosed
		}
		return nil, mapError("subscribe", err)
	}
	if !stream.Msg().Subscribed {
		stream.Close()
		cancel()
		return nil, fmt.Errorf("failed to subscribe: %w: missing confirmation", ErrStreamClosed)
	}

	sub := &subscription{
		events: make(chan models.ChangeEvent, eventBuffer),
		cancel: cancel,
		done:   make(chan struct{}),
	}
	go sub.run(c, stream)
	c.logger.Debug("Subscribed to record changes", "mask", mask)
	return sub, nil
}

type subscription struct {
	events chan models.ChangeEvent
	cancel context.CancelFunc
	done   chan struct{}
	once   sync.Once
}

func (s *subscription) run(c *Client, stream *connect.ServerStreamForClient[api.WatchResponse]) {
	defer close(s.done)
	defer close(s.events)
	defer stream.Close()

	for stream.Receive() {
		ev := stream.Msg().Event
		if ev == nil {
			continue
		}
		select {
		case s.events <- *ev:
		default:
		}
	}
	if err := stream.Err(); err != nil && connect.CodeOf(err) != connect.CodeCanceled {
		c.logger.Warn("Change stream ended", "error", err)
	}
}

func (s *subscription) Events() <-chan models.ChangeEvent {
	return s.events
}

func (s *subscription) Unsubscribe() {
	s.once.Do(func() {
		s.cancel()
		<-s.done
	})
}
