// Package ws is the realtime side of the server: websocket sessions,
// the local connection registry, and fan-out from the match event bus.
package ws

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/coder/websocket"
	"go.uber.org/zap"

	"sjavs/internal/app"
	"sjavs/internal/domain"
)

const (
	outboundBuffer = 64
	writeTimeout   = 5 * time.Second
)

// AuthFunc resolves the connecting user from the upgrade request.
type AuthFunc func(r *http.Request) (userID string, err error)

// gameService is the slice of the application service the realtime
// handler uses.
type gameService interface {
	BuildSnapshot(ctx context.Context, matchID, userID string) (*app.GameMessage, error)
	MatchIDFor(ctx context.Context, userID string) (string, error)
	RelayTeamUp(ctx context.Context, userID string, response bool, payload app.TeamUpPayload) ([]app.Event, error)
	StatusOf(ctx context.Context, matchID string) (domain.MatchStatus, error)
}

// Handler upgrades websocket connections and serves the realtime side
// of the protocol: snapshot on connect, live event delivery, and the
// small set of client-initiated actions.
type Handler struct {
	svc     gameService
	pub     *app.Publisher
	hub     *Hub
	reg     *Registry
	auth    AuthFunc
	origins []string
	log     *zap.Logger
}

func NewHandler(svc gameService, pub *app.Publisher, hub *Hub, reg *Registry, auth AuthFunc, origins []string, log *zap.Logger) *Handler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Handler{svc: svc, pub: pub, hub: hub, reg: reg, auth: auth, origins: origins, log: log}
}

// clientMessage is the inbound frame shape.
type clientMessage struct {
	Action string          `json:"action"`
	Data   json.RawMessage `json:"data,omitempty"`
}

// session is one live connection; it implements Sink. Outbound frames
// go through a bounded channel drained by the write pump so a slow
// reader never blocks fan-out.
type session struct {
	conn *websocket.Conn
	out  chan []byte
	done chan struct{}
	once sync.Once
}

func newSession(conn *websocket.Conn) *session {
	return &session{
		conn: conn,
		out:  make(chan []byte, outboundBuffer),
		done: make(chan struct{}),
	}
}

func (s *session) Send(payload []byte) bool {
	select {
	case <-s.done:
		return false
	case s.out <- payload:
		return true
	default:
		return false
	}
}

func (s *session) Close() {
	s.once.Do(func() { close(s.done) })
}

func (s *session) writePump(ctx context.Context) {
	for {
		select {
		case <-s.done:
			s.conn.Close(websocket.StatusGoingAway, "session replaced")
			return
		case <-ctx.Done():
			return
		case payload := <-s.out:
			wctx, cancel := context.WithTimeout(ctx, writeTimeout)
			err := s.conn.Write(wctx, websocket.MessageText, payload)
			cancel()
			if err != nil {
				return
			}
		}
	}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	userID, err := h.auth(r)
	if err != nil {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: h.origins,
	})
	if err != nil {
		h.log.Warn("websocket accept failed", zap.Error(err))
		return
	}

	ctx := r.Context()
	sess := newSession(conn)
	h.reg.Attach(userID, sess)
	go sess.writePump(ctx)

	matchID := h.attachToCurrentMatch(ctx, userID, sess)

	defer func() {
		if matchID != "" {
			h.hub.LeaveMatch(context.Background(), matchID, userID)
		}
		h.reg.Detach(userID, sess)
		sess.Close()
		conn.Close(websocket.StatusNormalClosure, "")
	}()

	h.readLoop(ctx, conn, sess, userID, &matchID)
}

// attachToCurrentMatch joins the user's active match, if any, and
// delivers the sync-on-load snapshot.
func (h *Handler) attachToCurrentMatch(ctx context.Context, userID string, sess *session) string {
	matchID, err := h.svc.MatchIDFor(ctx, userID)
	if err != nil {
		h.log.Warn("match lookup on connect failed",
			zap.String("user_id", userID), zap.Error(err))
		return ""
	}
	if matchID == "" {
		return ""
	}
	if err := h.hub.JoinMatch(ctx, matchID, userID); err != nil {
		h.log.Warn("match join on connect failed",
			zap.String("match_id", matchID), zap.Error(err))
		return ""
	}
	h.sendSnapshot(ctx, matchID, userID, sess)
	return matchID
}

func (h *Handler) sendSnapshot(ctx context.Context, matchID, userID string, sess *session) {
	msg, err := h.svc.BuildSnapshot(ctx, matchID, userID)
	if err != nil {
		h.log.Warn("snapshot build failed",
			zap.String("match_id", matchID),
			zap.String("user_id", userID), zap.Error(err))
		return
	}
	raw, err := app.EncodeMessage(msg)
	if err != nil {
		h.log.Warn("snapshot encode failed", zap.Error(err))
		return
	}
	sess.Send(raw)
}

func (h *Handler) readLoop(ctx context.Context, conn *websocket.Conn, sess *session, userID string, matchID *string) {
	for {
		_, raw, err := conn.Read(ctx)
		if err != nil {
			status := websocket.CloseStatus(err)
			if status == -1 && !errors.Is(err, context.Canceled) {
				h.log.Debug("websocket read ended",
					zap.String("user_id", userID), zap.Error(err))
			}
			return
		}

		var msg clientMessage
		if err := json.Unmarshal(raw, &msg); err != nil {
			h.sendError(sess, "malformed_request")
			continue
		}

		switch msg.Action {
		case "join":
			h.handleJoin(ctx, userID, matchID, msg.Data, sess)
		case "request_game_state":
			h.handleStateRequest(ctx, userID, matchID, sess)
		case "team_up_request":
			h.handleTeamUp(ctx, userID, false, msg.Data, sess)
		case "team_up_response":
			h.handleTeamUp(ctx, userID, true, msg.Data, sess)
		default:
			h.sendError(sess, "malformed_request")
		}
	}
}

// handleJoin attaches the connection to an explicitly named match. The
// caller must already hold a seat there; joining a seat happens over the
// command surface, not here.
func (h *Handler) handleJoin(ctx context.Context, userID string, matchID *string, data json.RawMessage, sess *session) {
	var body struct {
		MatchID string `json:"match_id"`
	}
	if err := json.Unmarshal(data, &body); err != nil || body.MatchID == "" {
		h.sendError(sess, "malformed_request")
		return
	}
	current, err := h.svc.MatchIDFor(ctx, userID)
	if err != nil || current != body.MatchID {
		h.sendError(sess, "not_in_game")
		return
	}
	if current != *matchID {
		if *matchID != "" {
			h.hub.LeaveMatch(ctx, *matchID, userID)
		}
		if err := h.hub.JoinMatch(ctx, current, userID); err != nil {
			h.log.Warn("match join failed",
				zap.String("match_id", current), zap.Error(err))
			h.sendError(sess, "infrastructure_unavailable")
			return
		}
		*matchID = current
	}
	h.sendSnapshot(ctx, current, userID, sess)
}

// handleStateRequest re-resolves the user's match: a player who joined
// over HTTP after connecting picks up event routing here.
func (h *Handler) handleStateRequest(ctx context.Context, userID string, matchID *string, sess *session) {
	current, err := h.svc.MatchIDFor(ctx, userID)
	if err != nil || current == "" {
		h.sendError(sess, "not_in_game")
		return
	}
	if current != *matchID {
		if *matchID != "" {
			h.hub.LeaveMatch(ctx, *matchID, userID)
		}
		if err := h.hub.JoinMatch(ctx, current, userID); err != nil {
			h.log.Warn("match join failed",
				zap.String("match_id", current), zap.Error(err))
			h.sendError(sess, "infrastructure_unavailable")
			return
		}
		*matchID = current
	}
	h.sendSnapshot(ctx, current, userID, sess)
}

func (h *Handler) handleTeamUp(ctx context.Context, userID string, response bool, data json.RawMessage, sess *session) {
	var payload app.TeamUpPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		h.sendError(sess, "malformed_request")
		return
	}
	// The session may not have announced a match yet; route by the
	// authoritative player index.
	matchID, err := h.svc.MatchIDFor(ctx, userID)
	if err != nil || matchID == "" {
		h.sendError(sess, "not_in_game")
		return
	}
	events, err := h.svc.RelayTeamUp(ctx, userID, response, payload)
	if err != nil {
		h.sendError(sess, app.Code(err))
		return
	}
	status, err := h.svc.StatusOf(ctx, matchID)
	if err != nil {
		h.sendError(sess, app.Code(err))
		return
	}
	h.pub.PublishEvents(ctx, matchID, status, events)
}

func (h *Handler) sendError(sess *session, code string) {
	msg := app.GameMessage{
		Event:     "error",
		Data:      map[string]string{"code": code},
		Timestamp: app.NowMillis(),
	}
	raw, err := app.EncodeMessage(&msg)
	if err != nil {
		return
	}
	sess.Send(raw)
}
