package redisrepo

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"sjavs/internal/app"
)

// PlayerIndex maps user ids to their current match in the shared
// player_games hash.
type PlayerIndex struct {
	rdb *redis.Client
}

func NewPlayerIndex(rdb *redis.Client) *PlayerIndex {
	return &PlayerIndex{rdb: rdb}
}

func (p *PlayerIndex) MatchFor(ctx context.Context, userID string) (string, error) {
	id, err := p.rdb.HGet(ctx, playerGamesKey, userID).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("%w: player index lookup: %v", app.ErrInfrastructure, err)
	}
	return id, nil
}

func (p *PlayerIndex) Associate(ctx context.Context, userID, matchID string) error {
	if err := p.rdb.HSet(ctx, playerGamesKey, userID, matchID).Err(); err != nil {
		return fmt.Errorf("%w: associate player: %v", app.ErrInfrastructure, err)
	}
	return nil
}

func (p *PlayerIndex) Dissociate(ctx context.Context, userID string) error {
	if err := p.rdb.HDel(ctx, playerGamesKey, userID).Err(); err != nil {
		return fmt.Errorf("%w: dissociate player: %v", app.ErrInfrastructure, err)
	}
	return nil
}

// UsernameDirectory reads the externally maintained usernames hash.
type UsernameDirectory struct {
	rdb *redis.Client
}

func NewUsernameDirectory(rdb *redis.Client) *UsernameDirectory {
	return &UsernameDirectory{rdb: rdb}
}

func (d *UsernameDirectory) Username(ctx context.Context, userID string) (string, error) {
	name, err := d.rdb.HGet(ctx, usernamesKey, userID).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("%w: username lookup: %v", app.ErrInfrastructure, err)
	}
	return name, nil
}
