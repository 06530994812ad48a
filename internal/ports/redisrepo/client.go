// Package redisrepo persists match state in Redis and carries the
// per-match event channels over Redis pub/sub.
package redisrepo

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Options bounds the shared connection pool.
type Options struct {
	URL          string
	PoolSize     int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// NewClient opens the process-global Redis client and verifies the
// connection with a ping.
func NewClient(ctx context.Context, opts Options) (*redis.Client, error) {
	cfg, err := redis.ParseURL(opts.URL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	if opts.PoolSize > 0 {
		cfg.PoolSize = opts.PoolSize
	}
	if opts.DialTimeout > 0 {
		cfg.DialTimeout = opts.DialTimeout
	}
	if opts.ReadTimeout > 0 {
		cfg.ReadTimeout = opts.ReadTimeout
	}
	if opts.WriteTimeout > 0 {
		cfg.WriteTimeout = opts.WriteTimeout
	}
	client := redis.NewClient(cfg)
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return client, nil
}

// Key layout. Transient per-game keys are deleted at completion or cancel;
// completed tricks carry a TTL for post-game audit.
func matchKey(matchID string) string        { return "normal_match:" + matchID }
func playersKey(matchID string) string      { return "normal_match:" + matchID + ":players" }
func handKey(matchID string, seat int) string {
	return fmt.Sprintf("game_hands:%s:%d", matchID, seat)
}
func analysisKey(matchID string, seat int) string {
	return fmt.Sprintf("game_hand_analysis:%s:%d", matchID, seat)
}
func trickStateKey(matchID string) string { return "game_trick_state:" + matchID }
func trickHistoryKey(matchID string, n int) string {
	return fmt.Sprintf("game_trick_history:%s:%d", matchID, n)
}
func crossKey(matchID string) string { return "cross_state:" + matchID }

const (
	playerGamesKey = "player_games"
	pinsKey        = "pins"
	usernamesKey   = "usernames"
)

// trickHistoryTTL keeps resolved tricks around for an hour of audit.
const trickHistoryTTL = time.Hour
