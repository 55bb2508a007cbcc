package websocket

import (
	"context"
	"time"

	"estateline/internal/events"
	"estateline/pkg/logger"
)

// RedisBridge forwards bus traffic into the hub. The per-user channel name
// on the bus is also the hub channel, so every process with a bridge
// delivers to whatever sessions it happens to hold.
type RedisBridge struct {
	subscriber events.Subscriber
	hub        *Hub
	log        *logger.Logger
}

func NewRedisBridge(subscriber events.Subscriber, hub *Hub, log *logger.Logger) *RedisBridge {
	return &RedisBridge{subscriber: subscriber, hub: hub, log: log}
}

// Run supervises the subscription: a dropped Redis connection is
// re-established with backoff instead of taking push delivery down for
// good. Clients bridge the gap through the poll fallback.
func (b *RedisBridge) Run(ctx context.Context) error {
	backoff := time.Second
	const maxBackoff = 30 * time.Second

	for {
		err := b.subscriber.Subscribe(ctx, []string{events.ChannelPatternAll}, func(channel string, payload []byte) {
			backoff = time.Second
			b.hub.Broadcast(channel, payload)
		})
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if b.log != nil {
			b.log.Warnf("websocket bridge: subscription lost (%v), reconnecting in %s", err, backoff)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}
		backoff *= 2
		if backoff > maxBackoff {
			backoff = maxBackoff
		}
	}
}
