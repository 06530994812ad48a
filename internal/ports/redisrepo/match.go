package redisrepo

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/redis/go-redis/v9"

	"sjavs/internal/app"
	"sjavs/internal/domain"
)

// MatchRepository stores the match header as a hash and the seat list as a
// Redis list, with the PIN index alongside.
type MatchRepository struct {
	rdb *redis.Client
}

func NewMatchRepository(rdb *redis.Client) *MatchRepository {
	return &MatchRepository{rdb: rdb}
}

// matchHash flattens the header into hash fields. Unset seat fields are
// simply omitted.
func matchHash(m *domain.NormalMatch) map[string]any {
	h := map[string]any{
		"id":                m.ID,
		"pin":               m.Pin,
		"status":            string(m.Status),
		"number_of_crosses": m.NumberOfCrosses,
		"current_cross":     m.CurrentCross,
		"created_timestamp": m.CreatedAt,
	}
	putSeat := func(field string, seat int) {
		if seat != domain.NoSeat {
			h[field] = seat
		}
	}
	putSeat("dealer_position", m.DealerPosition)
	putSeat("current_bidder", m.CurrentBidder)
	putSeat("current_leader", m.CurrentLeader)
	putSeat("trump_declarer", m.TrumpDeclarer)
	putSeat("highest_bidder", m.HighestBidder)
	if m.TrumpSuit != "" {
		h["trump_suit"] = string(m.TrumpSuit)
	}
	if m.HighestBidLength > 0 {
		h["highest_bid_length"] = m.HighestBidLength
		h["highest_bid_suit"] = string(m.HighestBidSuit)
	}
	if len(m.BiddingPasses) > 0 {
		parts := make([]string, len(m.BiddingPasses))
		for i, s := range m.BiddingPasses {
			parts[i] = strconv.Itoa(s)
		}
		h["bidding_passes"] = strings.Join(parts, ",")
	}
	return h
}

func parseMatchHash(fields map[string]string, players []string) (*domain.NormalMatch, error) {
	num := func(field string, absent int) (int, error) {
		v, ok := fields[field]
		if !ok || v == "" {
			return absent, nil
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return 0, fmt.Errorf("match field %s: %w", field, err)
		}
		return n, nil
	}

	m := &domain.NormalMatch{
		ID:             fields["id"],
		Pin:            fields["pin"],
		Status:         domain.MatchStatus(fields["status"]),
		Players:        players,
		TrumpSuit:      domain.Suit(fields["trump_suit"]),
		HighestBidSuit: domain.Suit(fields["highest_bid_suit"]),
	}
	var err error
	if m.DealerPosition, err = num("dealer_position", domain.NoSeat); err != nil {
		return nil, err
	}
	if m.CurrentBidder, err = num("current_bidder", domain.NoSeat); err != nil {
		return nil, err
	}
	if m.CurrentLeader, err = num("current_leader", domain.NoSeat); err != nil {
		return nil, err
	}
	if m.TrumpDeclarer, err = num("trump_declarer", domain.NoSeat); err != nil {
		return nil, err
	}
	if m.HighestBidder, err = num("highest_bidder", domain.NoSeat); err != nil {
		return nil, err
	}
	if m.HighestBidLength, err = num("highest_bid_length", 0); err != nil {
		return nil, err
	}
	if m.NumberOfCrosses, err = num("number_of_crosses", 1); err != nil {
		return nil, err
	}
	if m.CurrentCross, err = num("current_cross", 0); err != nil {
		return nil, err
	}
	created, err := num("created_timestamp", 0)
	if err != nil {
		return nil, err
	}
	m.CreatedAt = int64(created)

	if passes := fields["bidding_passes"]; passes != "" {
		for _, part := range strings.Split(passes, ",") {
			seat, err := strconv.Atoi(part)
			if err != nil {
				return nil, fmt.Errorf("match field bidding_passes: %w", err)
			}
			m.BiddingPasses = append(m.BiddingPasses, seat)
		}
	}
	return m, nil
}

func (r *MatchRepository) Create(ctx context.Context, m *domain.NormalMatch) error {
	_, err := r.rdb.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, matchKey(m.ID), matchHash(m))
		pipe.Del(ctx, playersKey(m.ID))
		for _, p := range m.Players {
			pipe.RPush(ctx, playersKey(m.ID), p)
		}
		pipe.HSet(ctx, pinsKey, m.Pin, m.ID)
		return nil
	})
	if err != nil {
		return fmt.Errorf("%w: create match: %v", app.ErrInfrastructure, err)
	}
	return nil
}

func (r *MatchRepository) Get(ctx context.Context, matchID string) (*domain.NormalMatch, error) {
	fields, err := r.rdb.HGetAll(ctx, matchKey(matchID)).Result()
	if err != nil {
		return nil, fmt.Errorf("%w: load match: %v", app.ErrInfrastructure, err)
	}
	if len(fields) == 0 {
		return nil, app.ErrMatchNotFound
	}
	players, err := r.rdb.LRange(ctx, playersKey(matchID), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("%w: load players: %v", app.ErrInfrastructure, err)
	}
	m, err := parseMatchHash(fields, players)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", app.ErrInfrastructure, err)
	}
	return m, nil
}

// Update rewrites the header hash and seat list. The hash is deleted first
// so fields cleared by a transition (trump suit, bids) do not linger.
func (r *MatchRepository) Update(ctx context.Context, m *domain.NormalMatch) error {
	_, err := r.rdb.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, matchKey(m.ID))
		pipe.HSet(ctx, matchKey(m.ID), matchHash(m))
		pipe.Del(ctx, playersKey(m.ID))
		for _, p := range m.Players {
			pipe.RPush(ctx, playersKey(m.ID), p)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("%w: update match: %v", app.ErrInfrastructure, err)
	}
	return nil
}

func (r *MatchRepository) MatchIDByPin(ctx context.Context, pin string) (string, error) {
	id, err := r.rdb.HGet(ctx, pinsKey, pin).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("%w: pin lookup: %v", app.ErrInfrastructure, err)
	}
	return id, nil
}

func (r *MatchRepository) ReleasePin(ctx context.Context, pin string) error {
	if err := r.rdb.HDel(ctx, pinsKey, pin).Err(); err != nil {
		return fmt.Errorf("%w: release pin: %v", app.ErrInfrastructure, err)
	}
	return nil
}

func (r *MatchRepository) Delete(ctx context.Context, matchID string) error {
	if err := r.rdb.Del(ctx, matchKey(matchID), playersKey(matchID)).Err(); err != nil {
		return fmt.Errorf("%w: delete match: %v", app.ErrInfrastructure, err)
	}
	return nil
}
