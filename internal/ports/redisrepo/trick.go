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

// TrickRepository stores the live trick aggregate as one blob per match and
// each resolved trick under its own numbered key.
type TrickRepository struct {
	rdb *redis.Client
}

func NewTrickRepository(rdb *redis.Client) *TrickRepository {
	return &TrickRepository{rdb: rdb}
}

func (r *TrickRepository) StoreGameState(ctx context.Context, state *domain.GameTrickState) error {
	raw, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("%w: marshal trick state: %v", app.ErrInfrastructure, err)
	}
	if err := r.rdb.Set(ctx, trickStateKey(state.MatchID), raw, 0).Err(); err != nil {
		return fmt.Errorf("%w: store trick state: %v", app.ErrInfrastructure, err)
	}
	return nil
}

func (r *TrickRepository) GameState(ctx context.Context, matchID string) (*domain.GameTrickState, error) {
	raw, err := r.rdb.Get(ctx, trickStateKey(matchID)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: load trick state: %v", app.ErrInfrastructure, err)
	}
	var state domain.GameTrickState
	if err := json.Unmarshal([]byte(raw), &state); err != nil {
		return nil, fmt.Errorf("%w: decode trick state: %v", app.ErrInfrastructure, err)
	}
	return &state, nil
}

func (r *TrickRepository) StoreCompletedTrick(ctx context.Context, matchID string, trick domain.TrickState) error {
	raw, err := json.Marshal(&trick)
	if err != nil {
		return fmt.Errorf("%w: marshal trick: %v", app.ErrInfrastructure, err)
	}
	key := trickHistoryKey(matchID, trick.TrickNumber)
	if err := r.rdb.Set(ctx, key, raw, trickHistoryTTL).Err(); err != nil {
		return fmt.Errorf("%w: store trick history: %v", app.ErrInfrastructure, err)
	}
	return nil
}

func (r *TrickRepository) TrickHistory(ctx context.Context, matchID string) ([]domain.TrickState, error) {
	var tricks []domain.TrickState
	for n := 1; n <= 8; n++ {
		raw, err := r.rdb.Get(ctx, trickHistoryKey(matchID, n)).Result()
		if errors.Is(err, redis.Nil) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: load trick history: %v", app.ErrInfrastructure, err)
		}
		var trick domain.TrickState
		if err := json.Unmarshal([]byte(raw), &trick); err != nil {
			return nil, fmt.Errorf("%w: decode trick history: %v", app.ErrInfrastructure, err)
		}
		tricks = append(tricks, trick)
	}
	return tricks, nil
}

func (r *TrickRepository) Expire(ctx context.Context, matchID string, ttl time.Duration) error {
	if err := r.rdb.Expire(ctx, trickStateKey(matchID), ttl).Err(); err != nil {
		return fmt.Errorf("%w: expire trick state: %v", app.ErrInfrastructure, err)
	}
	return nil
}

func (r *TrickRepository) Clear(ctx context.Context, matchID string) error {
	keys := make([]string, 0, 9)
	keys = append(keys, trickStateKey(matchID))
	for n := 1; n <= 8; n++ {
		keys = append(keys, trickHistoryKey(matchID, n))
	}
	if err := r.rdb.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("%w: clear trick state: %v", app.ErrInfrastructure, err)
	}
	return nil
}
