// Package app coordinates the rules engines with persistence and event
// fan-out: one Service method per player command.
package app

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/google/uuid"

	"sjavs/internal/domain"
	"sjavs/internal/ports"
)

// Service implements the Sjavs command surface. Every method resolves the
// actor, loads state, validates through the domain, persists, and returns
// the events to broadcast. No events are emitted on error.
type Service struct {
	matches ports.MatchRepository
	players ports.PlayerIndex
	hands   ports.HandRepository
	tricks  ports.TrickRepository
	crosses ports.CrossRepository
	names   ports.UsernameDirectory
	rng     *rand.Rand
	now     func() int64
}

// Deps bundles the service's required ports.
type Deps struct {
	Matches ports.MatchRepository
	Players ports.PlayerIndex
	Hands   ports.HandRepository
	Tricks  ports.TrickRepository
	Crosses ports.CrossRepository
	Names   ports.UsernameDirectory
}

// NewService constructs a Service. rng and now may be nil for time-seeded
// defaults; tests inject both.
func NewService(d Deps, rng *rand.Rand, now func() int64) *Service {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	if now == nil {
		now = NowMillis
	}
	return &Service{
		matches: d.Matches,
		players: d.Players,
		hands:   d.Hands,
		tricks:  d.Tricks,
		crosses: d.Crosses,
		names:   d.Names,
		rng:     rng,
		now:     now,
	}
}

// pinAttempts bounds the search for a free 4-digit join code.
const pinAttempts = 50

// completedStateTTL is how long the final trick and cross state stay
// readable after a rubber ends.
const completedStateTTL = time.Hour

func (s *Service) username(ctx context.Context, userID string) string {
	name, err := s.names.Username(ctx, userID)
	if err != nil || name == "" {
		return userID
	}
	return name
}

// activeMatchID resolves the actor's current match, releasing a stale
// association left by a finished match. The association outlives game
// completion so a reconnecting player can still load the final state; a
// new create or join supersedes it.
func (s *Service) activeMatchID(ctx context.Context, userID string) (string, error) {
	matchID, err := s.players.MatchFor(ctx, userID)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInfrastructure, err)
	}
	if matchID == "" {
		return "", nil
	}
	m, err := s.matches.Get(ctx, matchID)
	if errors.Is(err, ErrMatchNotFound) {
		if err := s.players.Dissociate(ctx, userID); err != nil {
			return "", err
		}
		return "", nil
	}
	if err != nil {
		return "", err
	}
	if !m.IsActive() {
		if err := s.players.Dissociate(ctx, userID); err != nil {
			return "", err
		}
		return "", nil
	}
	return matchID, nil
}

// currentMatch resolves the actor's match via the player index.
func (s *Service) currentMatch(ctx context.Context, userID string) (*domain.NormalMatch, error) {
	matchID, err := s.players.MatchFor(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInfrastructure, err)
	}
	if matchID == "" {
		return nil, ErrNotInGame
	}
	m, err := s.matches.Get(ctx, matchID)
	if err != nil {
		return nil, err
	}
	return m, nil
}

// CreateMatchResult is the response to create_match.
type CreateMatchResult struct {
	MatchID string `json:"match_id"`
	Pin     string `json:"pin"`
}

// CreateMatch opens a waiting match hosted by the caller.
func (s *Service) CreateMatch(ctx context.Context, userID string) (*CreateMatchResult, []Event, error) {
	if existing, err := s.activeMatchID(ctx, userID); err != nil {
		return nil, nil, err
	} else if existing != "" {
		return nil, nil, ErrAlreadyInGame
	}

	pin, err := s.freePin(ctx)
	if err != nil {
		return nil, nil, err
	}
	m := domain.NewMatch(uuid.NewString(), pin, userID, 1, s.now())
	if err := s.matches.Create(ctx, m); err != nil {
		return nil, nil, err
	}
	if err := s.players.Associate(ctx, userID, m.ID); err != nil {
		return nil, nil, err
	}
	if err := s.crosses.Store(ctx, domain.NewCrossState(m.ID, m.NumberOfCrosses)); err != nil {
		return nil, nil, err
	}
	return &CreateMatchResult{MatchID: m.ID, Pin: pin}, nil, nil
}

func (s *Service) freePin(ctx context.Context) (string, error) {
	for i := 0; i < pinAttempts; i++ {
		pin := fmt.Sprintf("%04d", s.rng.Intn(10000))
		taken, err := s.matches.MatchIDByPin(ctx, pin)
		if err != nil {
			return "", fmt.Errorf("%w: %v", ErrInfrastructure, err)
		}
		if taken == "" {
			return pin, nil
		}
	}
	return "", fmt.Errorf("%w: no free pin", ErrInfrastructure)
}

// JoinMatchResult is the response to join_match.
type JoinMatchResult struct {
	MatchID string   `json:"match_id"`
	Seat    int      `json:"seat"`
	Players []string `json:"players"`
}

// JoinMatch seats the caller via the 4-digit pin.
func (s *Service) JoinMatch(ctx context.Context, userID, pin string) (*JoinMatchResult, []Event, error) {
	if existing, err := s.activeMatchID(ctx, userID); err != nil {
		return nil, nil, err
	} else if existing != "" {
		return nil, nil, ErrAlreadyInGame
	}
	matchID, err := s.matches.MatchIDByPin(ctx, pin)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrInfrastructure, err)
	}
	if matchID == "" {
		return nil, nil, ErrInvalidPin
	}
	m, err := s.matches.Get(ctx, matchID)
	if err != nil {
		return nil, nil, err
	}
	seat, err := m.AddPlayer(userID)
	if err != nil {
		return nil, nil, err
	}
	if err := s.matches.Update(ctx, m); err != nil {
		return nil, nil, err
	}
	if err := s.players.Associate(ctx, userID, m.ID); err != nil {
		return nil, nil, err
	}
	events := []Event{{
		Kind: EventPlayerJoined,
		Payload: PlayerJoinedPayload{
			Seat:     seat,
			UserID:   userID,
			Username: s.username(ctx, userID),
		},
	}}
	return &JoinMatchResult{MatchID: m.ID, Seat: seat, Players: m.Players}, events, nil
}

// LeaveResult is the response to leave_match.
type LeaveResult struct {
	MatchID   string `json:"match_id"`
	Cancelled bool   `json:"cancelled"`
}

// LeaveMatch unseats the caller. The host leaving a waiting match, or any
// player leaving mid-game, cancels the match for everyone.
func (s *Service) LeaveMatch(ctx context.Context, userID string) (*LeaveResult, []Event, error) {
	m, err := s.currentMatch(ctx, userID)
	if err != nil {
		return nil, nil, err
	}
	seat := m.SeatOf(userID)

	// A finished match only holds the association so the final state
	// stays loadable; leaving just releases it.
	if !m.IsActive() {
		if err := s.players.Dissociate(ctx, userID); err != nil {
			return nil, nil, err
		}
		return &LeaveResult{MatchID: m.ID}, nil, nil
	}

	cancels := m.Status != domain.StatusWaiting || userID == m.Host()
	if !cancels {
		if _, err := m.RemovePlayer(userID); err != nil {
			return nil, nil, err
		}
		if err := s.matches.Update(ctx, m); err != nil {
			return nil, nil, err
		}
		if err := s.players.Dissociate(ctx, userID); err != nil {
			return nil, nil, err
		}
		events := []Event{{
			Kind:    EventPlayerLeft,
			Payload: PlayerLeftPayload{Seat: seat, UserID: userID},
		}}
		return &LeaveResult{MatchID: m.ID}, events, nil
	}

	reason := "host left the match"
	if m.Status != domain.StatusWaiting {
		reason = fmt.Sprintf("%s left mid-game", s.username(ctx, userID))
	}
	if err := s.terminateMatch(ctx, m); err != nil {
		return nil, nil, err
	}
	events := []Event{{
		Kind:    EventGameTerminated,
		Payload: GameTerminatedPayload{Reason: reason},
	}}
	return &LeaveResult{MatchID: m.ID, Cancelled: true}, events, nil
}

// terminateMatch cancels a match and drops its transient keys.
func (s *Service) terminateMatch(ctx context.Context, m *domain.NormalMatch) error {
	m.Cancel()
	if err := s.matches.Update(ctx, m); err != nil {
		return err
	}
	if err := s.matches.ReleasePin(ctx, m.Pin); err != nil {
		return err
	}
	for _, p := range m.Players {
		if err := s.players.Dissociate(ctx, p); err != nil {
			return err
		}
	}
	// Transient per-game keys go; the header stays for TTL expiry.
	if err := s.hands.ClearHands(ctx, m.ID); err != nil {
		return err
	}
	if err := s.tricks.Clear(ctx, m.ID); err != nil {
		return err
	}
	return s.crosses.Clear(ctx, m.ID)
}

// StartResult is the response to start_game.
type StartResult struct {
	Status         domain.MatchStatus `json:"status"`
	DealerPosition int                `json:"dealer_position"`
	CurrentBidder  int                `json:"current_bidder"`
}

// StartGame deals the first game of a full table. Host only.
func (s *Service) StartGame(ctx context.Context, userID, matchID string) (*StartResult, []Event, error) {
	m, err := s.matches.Get(ctx, matchID)
	if err != nil {
		return nil, nil, err
	}
	if userID != m.Host() {
		return nil, nil, domain.ErrNotHost
	}
	dealer := m.DealerPosition
	if dealer == domain.NoSeat {
		dealer = s.rng.Intn(4)
	}
	if err := m.StartDealing(dealer); err != nil {
		return nil, nil, err
	}
	events, err := s.dealAndOpenBidding(ctx, m)
	if err != nil {
		return nil, nil, err
	}
	events = append([]Event{{
		Kind: EventGameStarted,
		Payload: GameStartedPayload{
			DealerPosition: m.DealerPosition,
			CurrentBidder:  m.CurrentBidder,
		},
	}}, events...)
	return &StartResult{Status: m.Status, DealerPosition: m.DealerPosition, CurrentBidder: m.CurrentBidder}, events, nil
}

// dealAndOpenBidding runs the deal-until-valid loop, stores the hands, and
// advances the match into bidding. Returns the private hand events.
func (s *Service) dealAndOpenBidding(ctx context.Context, m *domain.NormalMatch) ([]Event, error) {
	hands, err := domain.DealUntilValid(s.rng)
	if err != nil {
		return nil, err
	}
	if err := s.hands.StoreHands(ctx, m.ID, hands); err != nil {
		return nil, err
	}
	if err := m.HandsDealt(); err != nil {
		return nil, err
	}
	if err := s.matches.Update(ctx, m); err != nil {
		return nil, err
	}
	events := make([]Event, 0, 4)
	for seat, h := range hands {
		events = append(events, Event{
			Kind: EventHandUpdated,
			Payload: HandUpdatedPayload{
				Seat:          seat,
				Cards:         domain.CardCodes(h.Cards),
				TrumpCounts:   h.TrumpCounts(),
				AvailableBids: h.AvailableBids(m.HighestBidLength, m.HighestBidSuit),
			},
			Recipients: []string{m.Players[seat]},
		})
	}
	return events, nil
}

// HandResult is the response to get_hand.
type HandResult struct {
	Seat          int                 `json:"seat"`
	Cards         []string            `json:"cards"`
	TrumpCounts   map[domain.Suit]int `json:"trump_counts"`
	AvailableBids []domain.BidOption  `json:"available_bids"`
	CanBid        bool                `json:"can_bid"`
}

// GetHand returns the caller's own hand with bidding context.
func (s *Service) GetHand(ctx context.Context, userID string) (*HandResult, error) {
	m, err := s.currentMatch(ctx, userID)
	if err != nil {
		return nil, err
	}
	seat := m.SeatOf(userID)
	if seat == domain.NoSeat {
		return nil, ErrNotInGame
	}
	hand, err := s.hands.Hand(ctx, m.ID, seat)
	if err != nil {
		return nil, err
	}
	if hand == nil {
		return nil, domain.ErrWrongPhase
	}
	res := &HandResult{
		Seat:        seat,
		Cards:       domain.CardCodes(hand.Cards),
		TrumpCounts: hand.TrumpCounts(),
	}
	if m.Status == domain.StatusBidding {
		res.AvailableBids = hand.AvailableBids(m.HighestBidLength, m.HighestBidSuit)
		res.CanBid = seat == m.CurrentBidder && len(res.AvailableBids) > 0
	}
	return res, nil
}

// BidResult is the response to bid.
type BidResult struct {
	NextBidder      int         `json:"next_bidder"`
	BiddingComplete bool        `json:"bidding_complete"`
	TrumpSuit       domain.Suit `json:"trump_suit,omitempty"`
}

// Bid announces a trump length for the caller's seat.
func (s *Service) Bid(ctx context.Context, userID, matchID string, length int, suit domain.Suit) (*BidResult, []Event, error) {
	m, err := s.matches.Get(ctx, matchID)
	if err != nil {
		return nil, nil, err
	}
	seat := m.SeatOf(userID)
	if seat == domain.NoSeat {
		return nil, nil, ErrNotInGame
	}
	if m.Status != domain.StatusBidding {
		if m.Status == domain.StatusPlaying {
			return nil, nil, domain.ErrBiddingComplete
		}
		return nil, nil, domain.ErrWrongPhase
	}
	hand, err := s.hands.Hand(ctx, m.ID, seat)
	if err != nil {
		return nil, nil, err
	}
	if hand == nil {
		return nil, nil, fmt.Errorf("%w: hand missing during bidding", ErrInfrastructure)
	}
	if hand.TrumpCounts()[suit] < length {
		return nil, nil, domain.ErrBidExceedsActualTrumps
	}
	done, err := m.MakeBid(seat, length, suit)
	if err != nil {
		return nil, nil, err
	}
	nextBidder := m.CurrentBidder
	if done {
		nextBidder = domain.NoSeat
	}
	events := []Event{{
		Kind:    EventBidMade,
		Payload: BidMadePayload{Seat: seat, Length: length, NextBidder: nextBidder},
	}}
	res := &BidResult{NextBidder: nextBidder, BiddingComplete: done}
	if done {
		finish, err := s.finishBidding(ctx, m)
		if err != nil {
			return nil, nil, err
		}
		events = append(events, finish...)
		res.TrumpSuit = m.TrumpSuit
	} else if err := s.matches.Update(ctx, m); err != nil {
		return nil, nil, err
	}
	return res, events, nil
}

// finishBidding fixes trump, opens trick one and persists both.
func (s *Service) finishBidding(ctx context.Context, m *domain.NormalMatch) ([]Event, error) {
	if err := m.FinishBidding(); err != nil {
		return nil, err
	}
	state := domain.NewGameTrickState(m.ID, m.CurrentLeader, m.TrumpDeclarer, m.TrumpSuit)
	if err := s.tricks.StoreGameState(ctx, state); err != nil {
		return nil, err
	}
	if err := s.matches.Update(ctx, m); err != nil {
		return nil, err
	}
	return []Event{{
		Kind: EventBiddingComplete,
		Payload: BiddingCompletePayload{
			Declarer:    m.TrumpDeclarer,
			TrumpSuit:   m.TrumpSuit,
			Partnership: [2]int{m.TrumpDeclarer, (m.TrumpDeclarer + 2) % 4},
			WinningBid:  WinningBid{Length: m.HighestBidLength, Suit: m.HighestBidSuit},
			FirstLeader: m.CurrentLeader,
		},
	}}, nil
}

// PassBidResult is the response to pass.
type PassBidResult struct {
	NextBidder      int         `json:"next_bidder"`
	BiddingComplete bool        `json:"bidding_complete"`
	Redealt         bool        `json:"redealt"`
	TrumpSuit       domain.Suit `json:"trump_suit,omitempty"`
}

// Pass records a pass for the caller's seat. Four passes with no standing
// bid trigger a redeal with the same dealer.
func (s *Service) Pass(ctx context.Context, userID, matchID string) (*PassBidResult, []Event, error) {
	m, err := s.matches.Get(ctx, matchID)
	if err != nil {
		return nil, nil, err
	}
	seat := m.SeatOf(userID)
	if seat == domain.NoSeat {
		return nil, nil, ErrNotInGame
	}
	pass, err := m.MakePass(seat)
	if err != nil {
		return nil, nil, err
	}
	events := []Event{{
		Kind:    EventPassMade,
		Payload: PassMadePayload{Seat: seat, NextBidder: pass.NextBidder, AllPassed: pass.AllPassed},
	}}

	switch {
	case pass.AllPassed:
		if err := m.ResetForRedeal(); err != nil {
			return nil, nil, err
		}
		if err := s.hands.ClearHands(ctx, m.ID); err != nil {
			return nil, nil, err
		}
		handEvents, err := s.dealAndOpenBidding(ctx, m)
		if err != nil {
			return nil, nil, err
		}
		events = append(events, Event{
			Kind: EventCardsRedealt,
			Payload: CardsRedealtPayload{
				DealerPosition: m.DealerPosition,
				CurrentBidder:  m.CurrentBidder,
			},
		})
		events = append(events, handEvents...)
		return &PassBidResult{NextBidder: m.CurrentBidder, Redealt: true}, events, nil

	case pass.BiddingDone:
		finish, err := s.finishBidding(ctx, m)
		if err != nil {
			return nil, nil, err
		}
		events = append(events, finish...)
		return &PassBidResult{NextBidder: domain.NoSeat, BiddingComplete: true, TrumpSuit: m.TrumpSuit}, events, nil

	default:
		if err := s.matches.Update(ctx, m); err != nil {
			return nil, nil, err
		}
		return &PassBidResult{NextBidder: pass.NextBidder}, events, nil
	}
}

// PlayCardResult is the response to play_card.
type PlayCardResult struct {
	TrickNumber   int  `json:"trick_number"`
	TrickComplete bool `json:"trick_complete"`
	TrickWinner   *int `json:"trick_winner,omitempty"`
	TrickPoints   *int `json:"trick_points,omitempty"`
	GameComplete  bool `json:"game_complete"`
}

// PlayCard plays one card from the caller's hand into the current trick.
// Removing the card, appending it to the trick, and advancing the leader
// are persisted together.
func (s *Service) PlayCard(ctx context.Context, userID, cardCode string) (*PlayCardResult, []Event, error) {
	card, err := domain.ParseCard(cardCode)
	if err != nil {
		return nil, nil, err
	}
	m, err := s.currentMatch(ctx, userID)
	if err != nil {
		return nil, nil, err
	}
	seat := m.SeatOf(userID)
	if seat == domain.NoSeat {
		return nil, nil, ErrNotInGame
	}
	if m.Status != domain.StatusPlaying {
		return nil, nil, domain.ErrWrongPhase
	}
	state, err := s.tricks.GameState(ctx, m.ID)
	if err != nil {
		return nil, nil, err
	}
	if state == nil {
		return nil, nil, fmt.Errorf("%w: trick state missing during play", ErrInfrastructure)
	}
	if state.GameComplete {
		return nil, nil, domain.ErrGameAlreadyComplete
	}
	if seat != state.CurrentTrick.CurrentPlayer {
		return nil, nil, domain.ErrNotYourTurn
	}
	hand, err := s.hands.Hand(ctx, m.ID, seat)
	if err != nil {
		return nil, nil, err
	}
	if hand == nil || !hand.Contains(card) {
		return nil, nil, domain.ErrCardNotInHand
	}
	if !cardIsLegal(&state.CurrentTrick, hand, card) {
		return nil, nil, domain.ErrIllegalFollowSuit
	}
	if err := state.CurrentTrick.Play(seat, card); err != nil {
		return nil, nil, err
	}
	hand.Remove(card)

	res := &PlayCardResult{TrickNumber: state.CurrentTrick.TrickNumber, TrickComplete: state.CurrentTrick.IsComplete}
	events := []Event{}
	cardEvent := CardPlayedPayload{
		Seat:        seat,
		CardCode:    cardCode,
		TrickNumber: res.TrickNumber,
	}

	if state.CurrentTrick.IsComplete {
		finished := state.CurrentTrick
		comp, err := state.CompleteTrick()
		if err != nil {
			return nil, nil, err
		}
		if err := s.tricks.StoreCompletedTrick(ctx, m.ID, finished); err != nil {
			return nil, nil, err
		}
		m.CurrentLeader = comp.NextLeader
		if err := s.matches.Update(ctx, m); err != nil {
			return nil, nil, err
		}
		cardEvent.TrickComplete = true
		cardEvent.TrickWinner = &comp.Winner
		cardEvent.TrickPoints = &comp.Points
		res.TrickWinner = &comp.Winner
		res.TrickPoints = &comp.Points
		res.GameComplete = comp.GameComplete
		events = append(events, Event{
			Kind: EventTrickCompleted,
			Payload: TrickCompletedPayload{
				TrickNumber: comp.TrickNumber,
				Winner:      comp.Winner,
				Points:      comp.Points,
				NextLeader:  comp.NextLeader,
			},
		})
	}

	if err := s.hands.UpdateHand(ctx, m.ID, *hand); err != nil {
		return nil, nil, err
	}
	if err := s.tricks.StoreGameState(ctx, state); err != nil {
		return nil, nil, err
	}

	events = append([]Event{{Kind: EventCardPlayed, Payload: cardEvent}}, events...)
	events = append(events, Event{
		Kind: EventHandUpdated,
		Payload: HandUpdatedPayload{
			Seat:        seat,
			Cards:       domain.CardCodes(hand.Cards),
			TrumpCounts: hand.TrumpCounts(),
		},
		Recipients: []string{userID},
	})
	return res, events, nil
}

func cardIsLegal(trick *domain.TrickState, hand *domain.Hand, card domain.Card) bool {
	for _, c := range trick.LegalCards(hand) {
		if c == card {
			return true
		}
	}
	return false
}

// ScoreView is the cumulative in-game score.
type ScoreView struct {
	TrumpTeamTricks    int `json:"trump_team_tricks"`
	OpponentTeamTricks int `json:"opponent_team_tricks"`
	TrumpTeamPoints    int `json:"trump_team_points"`
	OpponentTeamPoints int `json:"opponent_team_points"`
}

// TrickStateResult is the response to get_trick_state.
type TrickStateResult struct {
	Trick      domain.TrickState  `json:"trick"`
	History    []domain.TrickState `json:"history,omitempty"`
	LegalCards []string           `json:"legal_cards"`
	YourTurn   bool               `json:"your_turn"`
	YourHand   []string           `json:"your_hand"`
	Score      ScoreView          `json:"score"`
}

// GetTrickState returns the live trick with the caller's private context.
func (s *Service) GetTrickState(ctx context.Context, userID string) (*TrickStateResult, error) {
	m, err := s.currentMatch(ctx, userID)
	if err != nil {
		return nil, err
	}
	seat := m.SeatOf(userID)
	if seat == domain.NoSeat {
		return nil, ErrNotInGame
	}
	if m.Status != domain.StatusPlaying {
		return nil, domain.ErrWrongPhase
	}
	state, err := s.tricks.GameState(ctx, m.ID)
	if err != nil {
		return nil, err
	}
	if state == nil {
		return nil, fmt.Errorf("%w: trick state missing during play", ErrInfrastructure)
	}
	hand, err := s.hands.Hand(ctx, m.ID, seat)
	if err != nil {
		return nil, err
	}
	history, err := s.tricks.TrickHistory(ctx, m.ID)
	if err != nil {
		return nil, err
	}
	res := &TrickStateResult{
		Trick:   state.CurrentTrick,
		History: history,
		Score: ScoreView{
			TrumpTeamTricks:    state.TrumpTeamTricks,
			OpponentTeamTricks: state.OpponentTeamTricks,
			TrumpTeamPoints:    state.TrumpTeamPoints,
			OpponentTeamPoints: state.OpponentTeamPoints,
		},
	}
	if hand != nil {
		res.YourHand = domain.CardCodes(hand.Cards)
		res.YourTurn = seat == state.CurrentTrick.CurrentPlayer && !state.GameComplete
		if res.YourTurn {
			res.LegalCards = domain.CardCodes(state.CurrentTrick.LegalCards(hand))
		}
	}
	return res, nil
}

// CompleteGameResult is the response to complete_game.
type CompleteGameResult struct {
	Scoring      domain.GameResult   `json:"scoring"`
	CrossScores  domain.CrossSummary `json:"cross_scores"`
	CrossWinner  *domain.Team        `json:"cross_winner,omitempty"`
	NewGameReady bool                `json:"new_game_ready"`
}

// CompleteGame scores a finished eight-trick game and folds it into the
// rubber. Idempotent: repeated calls after scoring return the same result
// without touching the countdown again.
func (s *Service) CompleteGame(ctx context.Context, userID, matchID string) (*CompleteGameResult, []Event, error) {
	m, err := s.matches.Get(ctx, matchID)
	if err != nil {
		return nil, nil, err
	}
	if m.SeatOf(userID) == domain.NoSeat {
		return nil, nil, ErrNotInGame
	}
	state, err := s.tricks.GameState(ctx, m.ID)
	if err != nil {
		return nil, nil, err
	}
	if state == nil || !state.GameComplete {
		return nil, nil, domain.ErrWrongPhase
	}

	// The trick state carries the trump suit: the match header clears it
	// when the table re-arms, but repeated complete_game calls must keep
	// reproducing the same scoring.
	result, err := domain.CalculateGameResult(
		state.TrumpTeamPoints, state.OpponentTeamPoints,
		state.TrumpTeamTricks, state.OpponentTeamTricks,
		state.CurrentTrick.TrumpSuit, state.IndividualVol())
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrInfrastructure, err)
	}

	cross, err := s.crosses.Get(ctx, m.ID)
	if err != nil {
		return nil, nil, err
	}
	if cross == nil {
		return nil, nil, fmt.Errorf("%w: cross state missing", ErrInfrastructure)
	}

	if state.Scored {
		// Already applied; reproduce the response from stored state.
		res := &CompleteGameResult{
			Scoring:      result,
			CrossScores:  cross.Summary(),
			NewGameReady: m.Status == domain.StatusWaiting,
		}
		return res, nil, nil
	}

	outcome := cross.ApplyGameResult(result)
	if err := s.crosses.Store(ctx, cross); err != nil {
		return nil, nil, err
	}
	state.Scored = true
	if err := s.tricks.StoreGameState(ctx, state); err != nil {
		return nil, nil, err
	}

	if err := m.CompleteGame(); err != nil {
		return nil, nil, err
	}
	m.CurrentCross = cross.TrumpTeamCrosses + cross.OpponentTeamCrosses

	newGameReady := false
	if cross.RubberComplete {
		if err := s.matches.Update(ctx, m); err != nil {
			return nil, nil, err
		}
		if err := s.matches.ReleasePin(ctx, m.Pin); err != nil {
			return nil, nil, err
		}
		if err := s.hands.ClearHands(ctx, m.ID); err != nil {
			return nil, nil, err
		}
		// Players stay associated until they leave, so the completed
		// snapshot remains loadable. The scoring state it reads expires
		// instead of being deleted outright.
		if err := s.tricks.Expire(ctx, m.ID, completedStateTTL); err != nil {
			return nil, nil, err
		}
		if err := s.crosses.Expire(ctx, m.ID, completedStateTTL); err != nil {
			return nil, nil, err
		}
	} else {
		// The rubber continues: re-arm the table for the next deal.
		if err := m.PrepareNextGame(); err != nil {
			return nil, nil, err
		}
		if err := s.matches.Update(ctx, m); err != nil {
			return nil, nil, err
		}
		if err := s.hands.ClearHands(ctx, m.ID); err != nil {
			return nil, nil, err
		}
		newGameReady = true
	}

	payload := GameCompletePayload{
		TrumpTeamPoints:    state.TrumpTeamPoints,
		OpponentTeamPoints: state.OpponentTeamPoints,
		TrumpTeamTricks:    state.TrumpTeamTricks,
		OpponentTeamTricks: state.OpponentTeamTricks,
		ResultKind:         result.Kind,
		Description:        result.Description,
		IndividualVol:      result.IndividualVol,
		TrumpTeamDelta:     outcome.TrumpDelta,
		OpponentTeamDelta:  outcome.OpponentDelta,
		CrossStateAfter:    cross.Summary(),
		DoubleVictory:      outcome.DoubleVictory,
		NewGameReady:       newGameReady,
	}
	res := &CompleteGameResult{
		Scoring:      result,
		CrossScores:  cross.Summary(),
		NewGameReady: newGameReady,
	}
	if outcome.CrossWon {
		winner := outcome.Winner
		payload.CrossWinner = &winner
		res.CrossWinner = &winner
	}
	events := []Event{{Kind: EventGameComplete, Payload: payload}}
	return res, events, nil
}

// RelayTeamUp passes a team-up request or response through the match
// channel unchanged. Purely social; no state is touched.
func (s *Service) RelayTeamUp(ctx context.Context, userID string, response bool, payload TeamUpPayload) ([]Event, error) {
	m, err := s.currentMatch(ctx, userID)
	if err != nil {
		return nil, err
	}
	seat := m.SeatOf(userID)
	if seat == domain.NoSeat {
		return nil, ErrNotInGame
	}
	payload.FromSeat = seat
	kind := EventTeamUpRequest
	if response {
		kind = EventTeamUpResponse
	}
	if payload.ToSeat < 0 || payload.ToSeat > 3 || payload.ToSeat >= len(m.Players) {
		return nil, ErrMalformedRequest
	}
	return []Event{{
		Kind:       kind,
		Payload:    payload,
		Recipients: []string{m.Players[payload.ToSeat]},
	}}, nil
}

// MatchIDFor exposes the player index lookup for transport adapters.
func (s *Service) MatchIDFor(ctx context.Context, userID string) (string, error) {
	id, err := s.players.MatchFor(ctx, userID)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInfrastructure, err)
	}
	return id, nil
}

// StatusOf returns the match's current phase, for transports stamping
// event envelopes after a command.
func (s *Service) StatusOf(ctx context.Context, matchID string) (domain.MatchStatus, error) {
	m, err := s.matches.Get(ctx, matchID)
	if err != nil {
		return "", err
	}
	return m.Status, nil
}
