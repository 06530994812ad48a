package app

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"sjavs/internal/domain"
	"sjavs/internal/ports"
)

// GameMessage is the wire envelope for every client-bound message, live
// events and snapshots alike. OnlyFor restricts fan-out to the named users;
// it is routing metadata, the payload itself never carries another seat's
// hidden state.
type GameMessage struct {
	Event     string   `json:"event"`
	Data      any      `json:"data,omitempty"`
	Timestamp int64    `json:"timestamp"`
	MatchID   string   `json:"game_id"`
	Phase     string   `json:"phase,omitempty"`
	OnlyFor   []string `json:"only_for,omitempty"`
}

// NowMillis is the wall clock used for event timestamps.
func NowMillis() int64 {
	return time.Now().UnixMilli()
}

// Publisher serializes events into envelopes and pushes them onto the
// match channel. Publish failures are logged, never propagated: the state
// mutation that produced the event is already authoritative.
type Publisher struct {
	bus ports.EventBus
	log *zap.Logger
	now func() int64
}

// NewPublisher wires a publisher; now may be nil for the wall clock.
func NewPublisher(bus ports.EventBus, log *zap.Logger, now func() int64) *Publisher {
	if now == nil {
		now = NowMillis
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Publisher{bus: bus, log: log, now: now}
}

// PublishEvents fans a command's events onto the match channel.
func (p *Publisher) PublishEvents(ctx context.Context, matchID string, phase domain.MatchStatus, events []Event) {
	for _, ev := range events {
		msg := GameMessage{
			Event:     string(ev.Kind),
			Data:      ev.Payload,
			Timestamp: p.now(),
			MatchID:   matchID,
			Phase:     string(phase),
			OnlyFor:   ev.Recipients,
		}
		raw, err := json.Marshal(msg)
		if err != nil {
			p.log.Warn("event marshal failed",
				zap.String("match_id", matchID),
				zap.String("event", string(ev.Kind)),
				zap.Error(err))
			continue
		}
		if err := p.bus.Publish(ctx, matchID, raw); err != nil {
			p.log.Warn("event publish failed",
				zap.String("match_id", matchID),
				zap.String("event", string(ev.Kind)),
				zap.Error(err))
		}
	}
}

// EncodeMessage marshals an envelope for direct delivery to one sink.
func EncodeMessage(msg *GameMessage) ([]byte, error) {
	raw, err := json.Marshal(msg)
	if err != nil {
		return nil, fmt.Errorf("encode %s message: %w", msg.Event, err)
	}
	return raw, nil
}
