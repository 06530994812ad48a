package ws

import (
	"context"
	"encoding/json"

	"go.uber.org/zap"

	"sjavs/internal/ports"
)

// Hub bridges the match event bus onto local websocket connections. It
// keeps exactly one bus subscription per match with local watchers and
// fans every delivered envelope out to them, honoring the envelope's
// only_for restriction.
type Hub struct {
	bus ports.EventBus
	reg *Registry
	log *zap.Logger
}

func NewHub(bus ports.EventBus, reg *Registry, log *zap.Logger) *Hub {
	if log == nil {
		log = zap.NewNop()
	}
	return &Hub{bus: bus, reg: reg, log: log}
}

// JoinMatch starts routing the match's events to the user. The first
// local watcher opens the bus subscription.
func (h *Hub) JoinMatch(ctx context.Context, matchID, userID string) error {
	if first := h.reg.Join(matchID, userID); first {
		if err := h.bus.Subscribe(ctx, matchID); err != nil {
			h.reg.Leave(matchID, userID)
			return err
		}
	}
	return nil
}

// LeaveMatch stops routing to the user; the last local watcher drops
// the bus subscription.
func (h *Hub) LeaveMatch(ctx context.Context, matchID, userID string) {
	if last := h.reg.Leave(matchID, userID); last {
		if err := h.bus.Unsubscribe(ctx, matchID); err != nil {
			h.log.Warn("bus unsubscribe failed",
				zap.String("match_id", matchID), zap.Error(err))
		}
	}
}

// routingEnvelope is the slice of the wire envelope the hub needs for
// fan-out decisions. The payload is forwarded verbatim.
type routingEnvelope struct {
	Event   string   `json:"event"`
	OnlyFor []string `json:"only_for,omitempty"`
}

// Run consumes the bus delivery stream until the context ends or the
// bus closes.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-h.bus.Messages():
			if !ok {
				return
			}
			h.dispatch(msg)
		}
	}
}

func (h *Hub) dispatch(msg ports.BusMessage) {
	var env routingEnvelope
	if err := json.Unmarshal(msg.Payload, &env); err != nil {
		h.log.Warn("undecodable bus payload",
			zap.String("match_id", msg.MatchID), zap.Error(err))
		return
	}

	targets := env.OnlyFor
	if len(targets) == 0 {
		targets = h.reg.Members(msg.MatchID)
	}
	for _, userID := range targets {
		if !h.reg.Send(userID, msg.Payload) {
			// Not connected here, or buffer full; snapshots on
			// reconnect cover the gap.
			h.log.Debug("event not delivered locally",
				zap.String("match_id", msg.MatchID),
				zap.String("event", env.Event),
				zap.String("user_id", userID))
		}
	}
}
