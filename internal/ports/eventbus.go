package ports

import "context"

// BusMessage is one delivered pub/sub payload.
type BusMessage struct {
	MatchID string
	Payload []byte
}

// EventBus is the per-match publish/subscribe fabric. Subscriptions are
// deduplicated by the caller; the bus delivers every message for every
// currently subscribed match on a single channel.
type EventBus interface {
	Publish(ctx context.Context, matchID string, payload []byte) error

	Subscribe(ctx context.Context, matchID string) error
	Unsubscribe(ctx context.Context, matchID string) error

	// Messages is the shared delivery stream. Closed when the bus shuts
	// down.
	Messages() <-chan BusMessage

	Close() error
}
