package ports

import (
	"context"
	"time"

	"sjavs/internal/domain"
)

// MatchRepository persists the per-match header, seat list and PIN index.
type MatchRepository interface {
	// Create stores a new match, claims its PIN and seats the host.
	Create(ctx context.Context, m *domain.NormalMatch) error

	// Get loads a match header with its seat list, or ErrMatchNotFound.
	Get(ctx context.Context, matchID string) (*domain.NormalMatch, error)

	// Update rewrites the header fields and seat list.
	Update(ctx context.Context, m *domain.NormalMatch) error

	// MatchIDByPin resolves an active match by its 4-digit join code.
	// Returns "" when the PIN is unclaimed.
	MatchIDByPin(ctx context.Context, pin string) (string, error)

	// ReleasePin frees the PIN of a completed or cancelled match.
	ReleasePin(ctx context.Context, pin string) error

	// Delete removes the header and seat list entirely.
	Delete(ctx context.Context, matchID string) error
}

// PlayerIndex tracks which match, if any, each user currently occupies.
type PlayerIndex interface {
	// MatchFor returns the user's current match id, or "".
	MatchFor(ctx context.Context, userID string) (string, error)

	Associate(ctx context.Context, userID, matchID string) error
	Dissociate(ctx context.Context, userID string) error
}

// HandRepository stores per-seat hands and their trump-count analysis.
type HandRepository interface {
	// StoreHands writes all four hands and their analyses in one batch.
	StoreHands(ctx context.Context, matchID string, hands [4]domain.Hand) error

	// Hand loads one seat's hand; nil when absent.
	Hand(ctx context.Context, matchID string, seat int) (*domain.Hand, error)

	// UpdateHand rewrites a single seat's hand after a play.
	UpdateHand(ctx context.Context, matchID string, hand domain.Hand) error

	// StoredHandCount reports how many seats have a stored hand. Used to
	// derive dealing progress for snapshots.
	StoredHandCount(ctx context.Context, matchID string) (int, error)

	// ClearHands removes all four hands and analyses.
	ClearHands(ctx context.Context, matchID string) error
}

// TrickRepository stores the live trick aggregate and the per-trick history.
type TrickRepository interface {
	StoreGameState(ctx context.Context, state *domain.GameTrickState) error

	// GameState loads the aggregate; nil when no game is in progress.
	GameState(ctx context.Context, matchID string) (*domain.GameTrickState, error)

	// StoreCompletedTrick appends a resolved trick to the match history.
	StoreCompletedTrick(ctx context.Context, matchID string, trick domain.TrickState) error

	// TrickHistory returns resolved tricks in order.
	TrickHistory(ctx context.Context, matchID string) ([]domain.TrickState, error)

	// Expire bounds the aggregate's lifetime after a rubber ends.
	Expire(ctx context.Context, matchID string, ttl time.Duration) error

	Clear(ctx context.Context, matchID string) error
}

// CrossRepository stores the rubber countdown.
type CrossRepository interface {
	Store(ctx context.Context, state *domain.CrossState) error

	// Get loads the countdown; nil when absent.
	Get(ctx context.Context, matchID string) (*domain.CrossState, error)

	// Expire bounds the countdown's lifetime after a rubber ends.
	Expire(ctx context.Context, matchID string, ttl time.Duration) error

	Clear(ctx context.Context, matchID string) error
}

// UsernameDirectory resolves display names. Written outside the core;
// consumed read-only.
type UsernameDirectory interface {
	// Username returns the display name, or "" when unknown.
	Username(ctx context.Context, userID string) (string, error)
}
