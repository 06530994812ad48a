package redisrepo

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"sjavs/internal/ports"
)

const channelPrefix = "pubsub:game:"

// EventBus carries match events over Redis pub/sub, one channel per match.
// Subscriptions are reference-counted by channel name so concurrent users
// of the same match share one Redis subscription.
type EventBus struct {
	rdb *redis.Client
	log *zap.Logger

	mu     sync.Mutex
	subs   map[string]struct{}
	pubsub *redis.PubSub

	out  chan ports.BusMessage
	done chan struct{}
}

// NewEventBus opens the shared subscription connection and starts the
// delivery loop.
func NewEventBus(ctx context.Context, rdb *redis.Client, log *zap.Logger) *EventBus {
	if log == nil {
		log = zap.NewNop()
	}
	b := &EventBus{
		rdb:    rdb,
		log:    log,
		subs:   make(map[string]struct{}),
		pubsub: rdb.Subscribe(ctx),
		out:    make(chan ports.BusMessage, 256),
		done:   make(chan struct{}),
	}
	go b.run()
	return b
}

func (b *EventBus) run() {
	defer close(b.out)
	for {
		select {
		case <-b.done:
			return
		case msg, ok := <-b.pubsub.Channel():
			if !ok {
				return
			}
			matchID := strings.TrimPrefix(msg.Channel, channelPrefix)
			select {
			case b.out <- ports.BusMessage{MatchID: matchID, Payload: []byte(msg.Payload)}:
			default:
				// Delivery is best effort; a full stream drops the
				// message and the next snapshot reconciles.
				b.log.Warn("bus delivery stream full, dropping event",
					zap.String("match_id", matchID))
			}
		}
	}
}

func (b *EventBus) Publish(ctx context.Context, matchID string, payload []byte) error {
	if err := b.rdb.Publish(ctx, channelPrefix+matchID, payload).Err(); err != nil {
		return fmt.Errorf("publish to %s: %w", matchID, err)
	}
	return nil
}

// Subscribe adds the match channel; already-subscribed channels are a
// no-op.
func (b *EventBus) Subscribe(ctx context.Context, matchID string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.subs[matchID]; ok {
		return nil
	}
	if err := b.pubsub.Subscribe(ctx, channelPrefix+matchID); err != nil {
		return fmt.Errorf("subscribe %s: %w", matchID, err)
	}
	b.subs[matchID] = struct{}{}
	return nil
}

func (b *EventBus) Unsubscribe(ctx context.Context, matchID string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.subs[matchID]; !ok {
		return nil
	}
	delete(b.subs, matchID)
	if err := b.pubsub.Unsubscribe(ctx, channelPrefix+matchID); err != nil {
		return fmt.Errorf("unsubscribe %s: %w", matchID, err)
	}
	return nil
}

func (b *EventBus) Messages() <-chan ports.BusMessage {
	return b.out
}

func (b *EventBus) Close() error {
	close(b.done)
	return b.pubsub.Close()
}
