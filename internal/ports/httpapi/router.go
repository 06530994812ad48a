package httpapi

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"sjavs/internal/app"
	"sjavs/internal/domain"
)

// retryBackoff is the single short wait before re-running a command that
// failed on infrastructure. Commands mutate nothing on error, so the
// retry is safe.
const retryBackoff = 100 * time.Millisecond

func withRetry[T any](fn func() (T, []app.Event, error)) (T, []app.Event, error) {
	res, events, err := fn()
	if err != nil && errors.Is(err, app.ErrInfrastructure) {
		time.Sleep(retryBackoff)
		res, events, err = fn()
	}
	return res, events, err
}

func withRetryRead[T any](fn func() (T, error)) (T, error) {
	res, err := fn()
	if err != nil && errors.Is(err, app.ErrInfrastructure) {
		time.Sleep(retryBackoff)
		res, err = fn()
	}
	return res, err
}

// Server is the HTTP command surface. Every mutating handler runs the
// command, publishes its events on the match channel, and returns the
// command result to the caller.
type Server struct {
	svc *app.Service
	pub *app.Publisher
	log *zap.Logger
}

func NewServer(svc *app.Service, pub *app.Publisher, log *zap.Logger) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	return &Server{svc: svc, pub: pub, log: log}
}

// Router assembles the gin engine: CORS, auth, the game command routes,
// and the websocket upgrade endpoint.
func (s *Server) Router(auth *Authenticator, wsHandler http.Handler, origins []string) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), corsMiddleware(origins))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// The websocket handler authenticates itself from the token query
	// parameter, so it sits outside the bearer middleware.
	r.GET("/ws", gin.WrapH(wsHandler))

	g := r.Group("/api/games")
	g.Use(auth.Middleware())

	g.POST("", s.createMatch)
	g.POST("/join", s.joinMatch)
	g.POST("/leave", s.leaveMatch)
	g.POST("/:id/start", s.startGame)
	g.GET("/hand", s.getHand)
	g.POST("/:id/bid", s.bid)
	g.POST("/:id/pass", s.pass)
	g.POST("/cards", s.playCard)
	g.GET("/trick", s.getTrickState)
	g.POST("/:id/complete", s.completeGame)

	return r
}

func corsMiddleware(origins []string) gin.HandlerFunc {
	allowed := make(map[string]struct{}, len(origins))
	wildcard := false
	for _, o := range origins {
		if o == "*" {
			wildcard = true
		}
		allowed[o] = struct{}{}
	}
	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")
		if origin != "" {
			if _, ok := allowed[origin]; ok || wildcard {
				c.Header("Access-Control-Allow-Origin", origin)
				c.Header("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
				c.Header("Access-Control-Allow-Headers", "Authorization, Content-Type")
			}
		}
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

func (s *Server) writeError(c *gin.Context, err error) {
	status := app.HTTPStatus(err)
	if status == http.StatusInternalServerError {
		s.log.Error("command failed",
			zap.String("path", c.FullPath()), zap.Error(err))
	}
	c.JSON(status, gin.H{"error": app.Code(err)})
}

// publish pushes a command's events onto the match channel, stamped
// with the match's phase after the command.
func (s *Server) publish(c *gin.Context, matchID string, events []app.Event) {
	if len(events) == 0 {
		return
	}
	ctx := c.Request.Context()
	status, err := s.svc.StatusOf(ctx, matchID)
	if err != nil {
		s.log.Warn("phase lookup for publish failed",
			zap.String("match_id", matchID), zap.Error(err))
	}
	s.pub.PublishEvents(ctx, matchID, status, events)
}

func (s *Server) createMatch(c *gin.Context) {
	res, events, err := withRetry(func() (*app.CreateMatchResult, []app.Event, error) {
		return s.svc.CreateMatch(c.Request.Context(), currentUser(c))
	})
	if err != nil {
		s.writeError(c, err)
		return
	}
	s.publish(c, res.MatchID, events)
	c.JSON(http.StatusCreated, res)
}

func (s *Server) joinMatch(c *gin.Context) {
	var body struct {
		Pin string `json:"pin" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		s.writeError(c, app.ErrMalformedRequest)
		return
	}
	res, events, err := withRetry(func() (*app.JoinMatchResult, []app.Event, error) {
		return s.svc.JoinMatch(c.Request.Context(), currentUser(c), body.Pin)
	})
	if err != nil {
		s.writeError(c, err)
		return
	}
	s.publish(c, res.MatchID, events)
	c.JSON(http.StatusOK, res)
}

func (s *Server) leaveMatch(c *gin.Context) {
	res, events, err := withRetry(func() (*app.LeaveResult, []app.Event, error) {
		return s.svc.LeaveMatch(c.Request.Context(), currentUser(c))
	})
	if err != nil {
		s.writeError(c, err)
		return
	}
	s.publish(c, res.MatchID, events)
	c.JSON(http.StatusOK, res)
}

func (s *Server) startGame(c *gin.Context) {
	matchID := c.Param("id")
	res, events, err := withRetry(func() (*app.StartResult, []app.Event, error) {
		return s.svc.StartGame(c.Request.Context(), currentUser(c), matchID)
	})
	if err != nil {
		s.writeError(c, err)
		return
	}
	s.publish(c, matchID, events)
	c.JSON(http.StatusOK, res)
}

func (s *Server) getHand(c *gin.Context) {
	res, err := withRetryRead(func() (*app.HandResult, error) {
		return s.svc.GetHand(c.Request.Context(), currentUser(c))
	})
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (s *Server) bid(c *gin.Context) {
	var body struct {
		Length int    `json:"length" binding:"required"`
		Suit   string `json:"suit" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		s.writeError(c, app.ErrMalformedRequest)
		return
	}
	matchID := c.Param("id")
	res, events, err := withRetry(func() (*app.BidResult, []app.Event, error) {
		return s.svc.Bid(c.Request.Context(), currentUser(c), matchID, body.Length, domain.Suit(body.Suit))
	})
	if err != nil {
		s.writeError(c, err)
		return
	}
	s.publish(c, matchID, events)
	c.JSON(http.StatusOK, res)
}

func (s *Server) pass(c *gin.Context) {
	matchID := c.Param("id")
	res, events, err := withRetry(func() (*app.PassBidResult, []app.Event, error) {
		return s.svc.Pass(c.Request.Context(), currentUser(c), matchID)
	})
	if err != nil {
		s.writeError(c, err)
		return
	}
	s.publish(c, matchID, events)
	c.JSON(http.StatusOK, res)
}

func (s *Server) playCard(c *gin.Context) {
	var body struct {
		Card string `json:"card" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		s.writeError(c, app.ErrMalformedRequest)
		return
	}
	ctx := c.Request.Context()
	userID := currentUser(c)
	res, events, err := withRetry(func() (*app.PlayCardResult, []app.Event, error) {
		return s.svc.PlayCard(ctx, userID, body.Card)
	})
	if err != nil {
		s.writeError(c, err)
		return
	}
	if matchID, lookupErr := s.svc.MatchIDFor(ctx, userID); lookupErr == nil && matchID != "" {
		s.publish(c, matchID, events)
	}
	c.JSON(http.StatusOK, res)
}

func (s *Server) getTrickState(c *gin.Context) {
	res, err := withRetryRead(func() (*app.TrickStateResult, error) {
		return s.svc.GetTrickState(c.Request.Context(), currentUser(c))
	})
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (s *Server) completeGame(c *gin.Context) {
	matchID := c.Param("id")
	res, events, err := withRetry(func() (*app.CompleteGameResult, []app.Event, error) {
		return s.svc.CompleteGame(c.Request.Context(), currentUser(c), matchID)
	})
	if err != nil {
		s.writeError(c, err)
		return
	}
	s.publish(c, matchID, events)
	c.JSON(http.StatusOK, res)
}
