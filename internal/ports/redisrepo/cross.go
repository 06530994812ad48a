package redisrepo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"sjavs/internal/app"
	"sjavs/internal/domain"
)

// CrossRepository stores the rubber countdown as one blob per match.
type CrossRepository struct {
	rdb *redis.Client
}

func NewCrossRepository(rdb *redis.Client) *CrossRepository {
	return &CrossRepository{rdb: rdb}
}

func (r *CrossRepository) Store(ctx context.Context, state *domain.CrossState) error {
	raw, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("%w: marshal cross state: %v", app.ErrInfrastructure, err)
	}
	if err := r.rdb.Set(ctx, crossKey(state.MatchID), raw, 0).Err(); err != nil {
		return fmt.Errorf("%w: store cross state: %v", app.ErrInfrastructure, err)
	}
	return nil
}

func (r *CrossRepository) Get(ctx context.Context, matchID string) (*domain.CrossState, error) {
	raw, err := r.rdb.Get(ctx, crossKey(matchID)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: load cross state: %v", app.ErrInfrastructure, err)
	}
	var state domain.CrossState
	if err := json.Unmarshal([]byte(raw), &state); err != nil {
		return nil, fmt.Errorf("%w: decode cross state: %v", app.ErrInfrastructure, err)
	}
	return &state, nil
}

func (r *CrossRepository) Expire(ctx context.Context, matchID string, ttl time.Duration) error {
	if err := r.rdb.Expire(ctx, crossKey(matchID), ttl).Err(); err != nil {
		return fmt.Errorf("%w: expire cross state: %v", app.ErrInfrastructure, err)
	}
	return nil
}

func (r *CrossRepository) Clear(ctx context.Context, matchID string) error {
	if err := r.rdb.Del(ctx, crossKey(matchID)).Err(); err != nil {
		return fmt.Errorf("%w: clear cross state: %v", app.ErrInfrastructure, err)
	}
	return nil
}
