package redisrepo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"sjavs/internal/app"
	"sjavs/internal/domain"
)

// HandRepository stores one serialized hand per seat plus its trump-count
// analysis, written together at deal time.
type HandRepository struct {
	rdb *redis.Client
}

func NewHandRepository(rdb *redis.Client) *HandRepository {
	return &HandRepository{rdb: rdb}
}

func (r *HandRepository) StoreHands(ctx context.Context, matchID string, hands [4]domain.Hand) error {
	_, err := r.rdb.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		for seat := range hands {
			raw, err := json.Marshal(&hands[seat])
			if err != nil {
				return fmt.Errorf("marshal hand %d: %w", seat, err)
			}
			analysis, err := json.Marshal(hands[seat].TrumpCounts())
			if err != nil {
				return fmt.Errorf("marshal analysis %d: %w", seat, err)
			}
			pipe.Set(ctx, handKey(matchID, seat), raw, 0)
			pipe.Set(ctx, analysisKey(matchID, seat), analysis, 0)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("%w: store hands: %v", app.ErrInfrastructure, err)
	}
	return nil
}

func (r *HandRepository) Hand(ctx context.Context, matchID string, seat int) (*domain.Hand, error) {
	raw, err := r.rdb.Get(ctx, handKey(matchID, seat)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: load hand: %v", app.ErrInfrastructure, err)
	}
	var hand domain.Hand
	if err := json.Unmarshal([]byte(raw), &hand); err != nil {
		return nil, fmt.Errorf("%w: decode hand: %v", app.ErrInfrastructure, err)
	}
	return &hand, nil
}

func (r *HandRepository) UpdateHand(ctx context.Context, matchID string, hand domain.Hand) error {
	raw, err := json.Marshal(&hand)
	if err != nil {
		return fmt.Errorf("%w: marshal hand: %v", app.ErrInfrastructure, err)
	}
	if err := r.rdb.Set(ctx, handKey(matchID, hand.Seat), raw, 0).Err(); err != nil {
		return fmt.Errorf("%w: update hand: %v", app.ErrInfrastructure, err)
	}
	return nil
}

func (r *HandRepository) StoredHandCount(ctx context.Context, matchID string) (int, error) {
	keys := make([]string, 4)
	for seat := 0; seat < 4; seat++ {
		keys[seat] = handKey(matchID, seat)
	}
	n, err := r.rdb.Exists(ctx, keys...).Result()
	if err != nil {
		return 0, fmt.Errorf("%w: count hands: %v", app.ErrInfrastructure, err)
	}
	return int(n), nil
}

func (r *HandRepository) ClearHands(ctx context.Context, matchID string) error {
	keys := make([]string, 0, 8)
	for seat := 0; seat < 4; seat++ {
		keys = append(keys, handKey(matchID, seat), analysisKey(matchID, seat))
	}
	if err := r.rdb.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("%w: clear hands: %v", app.ErrInfrastructure, err)
	}
	return nil
}
