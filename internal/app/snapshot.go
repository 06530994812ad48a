package app

import (
	"context"
	"fmt"

	"sjavs/internal/domain"
)

// Snapshot payload types. Hand fields stay nil unless the recipient owns
// the seat; an empty slice would still leak that a hand exists, so absence
// is expressed as absence.

// PlayerInfo names one seated player.
type PlayerInfo struct {
	Seat     int    `json:"seat"`
	UserID   string `json:"user_id"`
	Username string `json:"username"`
}

// WaitingState is the snapshot payload while the table fills.
type WaitingState struct {
	Players       []PlayerInfo `json:"players"`
	IsHost        bool         `json:"is_host"`
	PlayersNeeded int          `json:"players_needed"`
	CanStart      bool         `json:"can_start"`
}

// DealingState is the snapshot payload during the deal.
type DealingState struct {
	Players         []PlayerInfo `json:"players"`
	DealerPosition  int          `json:"dealer_position"`
	DealingProgress string       `json:"dealing_progress"`
}

// BidHistoryEntry records one pass in the current round.
type BidHistoryEntry struct {
	Seat   int  `json:"seat"`
	Passed bool `json:"passed"`
}

// BiddingState is the snapshot payload during the auction.
type BiddingState struct {
	Players          []PlayerInfo        `json:"players"`
	DealerPosition   int                 `json:"dealer_position"`
	CurrentBidder    int                 `json:"current_bidder"`
	HighestBidLength int                 `json:"highest_bid_length"`
	HighestBidder    int                 `json:"highest_bidder"`
	PassHistory      []BidHistoryEntry   `json:"pass_history"`
	YourSeat         *int                `json:"your_seat,omitempty"`
	YourHand         []string            `json:"your_hand,omitempty"`
	TrumpCounts      map[domain.Suit]int `json:"trump_counts,omitempty"`
	AvailableBids    []domain.BidOption  `json:"available_bids,omitempty"`
	CanBid           bool                `json:"can_bid"`
	CanPass          bool                `json:"can_pass"`
}

// TrumpInfo describes the fixed facts of the playing phase.
type TrumpInfo struct {
	TrumpSuit   domain.Suit `json:"trump_suit"`
	Declarer    int         `json:"declarer"`
	Partnership [2]int      `json:"partnership"`
	Opponents   [2]int      `json:"opponents"`
}

// TrickView is the public view of the live trick.
type TrickView struct {
	TrickNumber   int               `json:"trick_number"`
	LeadSuit      domain.Suit       `json:"lead_suit,omitempty"`
	CardsPlayed   []TrickCardView   `json:"cards_played"`
	CurrentPlayer int               `json:"current_player"`
	Leader        int               `json:"leader"`
}

// TrickCardView is one played card with its owner's display name.
type TrickCardView struct {
	Seat     int    `json:"seat"`
	Username string `json:"username"`
	CardCode string `json:"card_code"`
}

// PlayingState is the snapshot payload mid-game.
type PlayingState struct {
	Players      []PlayerInfo `json:"players"`
	TrumpInfo    TrumpInfo    `json:"trump_info"`
	CurrentTrick TrickView    `json:"current_trick"`
	Score        ScoreView    `json:"score_state"`
	YourSeat     *int         `json:"your_seat,omitempty"`
	YourHand     []string     `json:"your_hand,omitempty"`
	LegalCards   []string     `json:"legal_cards,omitempty"`
	YourTurn     bool         `json:"your_turn"`
}

// CompletedState is the snapshot payload after the last trick was scored.
type CompletedState struct {
	Players         []PlayerInfo         `json:"players"`
	Scoring         *domain.GameResult   `json:"scoring,omitempty"`
	CrossScores     *domain.CrossSummary `json:"cross_scores,omitempty"`
	Winner          *domain.Team         `json:"winner,omitempty"`
	CanStartNewGame bool                 `json:"can_start_new_game"`
}

// BuildSnapshot assembles the phase-specific initial-state message for one
// user. The timestamp is one millisecond ahead of the wall clock so the
// snapshot dominates every event generated before it.
func (s *Service) BuildSnapshot(ctx context.Context, matchID, userID string) (*GameMessage, error) {
	m, err := s.matches.Get(ctx, matchID)
	if err != nil {
		return nil, err
	}
	players := make([]PlayerInfo, len(m.Players))
	for i, p := range m.Players {
		players[i] = PlayerInfo{Seat: i, UserID: p, Username: s.username(ctx, p)}
	}
	seat := m.SeatOf(userID)

	var data any
	switch m.Status {
	case domain.StatusWaiting:
		data = WaitingState{
			Players:       players,
			IsHost:        userID == m.Host(),
			PlayersNeeded: 4 - len(m.Players),
			CanStart:      userID == m.Host() && m.CanStart(),
		}
	case domain.StatusDealing:
		data, err = s.dealingSnapshot(ctx, m, players)
	case domain.StatusBidding:
		data, err = s.biddingSnapshot(ctx, m, players, seat)
	case domain.StatusPlaying:
		data, err = s.playingSnapshot(ctx, m, players, seat)
	case domain.StatusCompleted:
		data, err = s.completedSnapshot(ctx, m, players, userID)
	case domain.StatusCancelled:
		data = GameTerminatedPayload{Reason: "match was cancelled"}
	default:
		return nil, fmt.Errorf("%w: unknown phase %q", ErrInfrastructure, m.Status)
	}
	if err != nil {
		return nil, err
	}

	return &GameMessage{
		Event:     "initial_state_" + string(m.Status),
		Data:      data,
		Timestamp: s.now() + 1,
		MatchID:   m.ID,
		Phase:     string(m.Status),
		OnlyFor:   []string{userID},
	}, nil
}

func (s *Service) dealingSnapshot(ctx context.Context, m *domain.NormalMatch, players []PlayerInfo) (any, error) {
	stored, err := s.hands.StoredHandCount(ctx, m.ID)
	if err != nil {
		return nil, err
	}
	progress := "starting"
	switch {
	case stored >= 4:
		progress = "complete"
	case stored > 0:
		progress = "dealing"
	}
	return DealingState{
		Players:         players,
		DealerPosition:  m.DealerPosition,
		DealingProgress: progress,
	}, nil
}

func (s *Service) biddingSnapshot(ctx context.Context, m *domain.NormalMatch, players []PlayerInfo, seat int) (any, error) {
	state := BiddingState{
		Players:          players,
		DealerPosition:   m.DealerPosition,
		CurrentBidder:    m.CurrentBidder,
		HighestBidLength: m.HighestBidLength,
		HighestBidder:    m.HighestBidder,
		PassHistory:      make([]BidHistoryEntry, 0, len(m.BiddingPasses)),
	}
	for _, p := range m.BiddingPasses {
		state.PassHistory = append(state.PassHistory, BidHistoryEntry{Seat: p, Passed: true})
	}
	if seat == domain.NoSeat {
		return state, nil
	}
	hand, err := s.hands.Hand(ctx, m.ID, seat)
	if err != nil {
		return nil, err
	}
	if hand == nil {
		return state, nil
	}
	state.YourSeat = &seat
	state.YourHand = domain.CardCodes(hand.Cards)
	state.TrumpCounts = hand.TrumpCounts()
	state.AvailableBids = hand.AvailableBids(m.HighestBidLength, m.HighestBidSuit)
	isTurn := seat == m.CurrentBidder && !m.HasPassed(seat)
	state.CanBid = isTurn && len(state.AvailableBids) > 0
	state.CanPass = isTurn
	return state, nil
}

func (s *Service) playingSnapshot(ctx context.Context, m *domain.NormalMatch, players []PlayerInfo, seat int) (any, error) {
	gs, err := s.tricks.GameState(ctx, m.ID)
	if err != nil {
		return nil, err
	}
	if gs == nil {
		return nil, fmt.Errorf("%w: trick state missing during play", ErrInfrastructure)
	}
	nameOf := func(seat int) string {
		if seat >= 0 && seat < len(players) {
			return players[seat].Username
		}
		return ""
	}
	trick := TrickView{
		TrickNumber:   gs.CurrentTrick.TrickNumber,
		LeadSuit:      gs.CurrentTrick.LeadSuit,
		CardsPlayed:   make([]TrickCardView, 0, len(gs.CurrentTrick.CardsPlayed)),
		CurrentPlayer: gs.CurrentTrick.CurrentPlayer,
		Leader:        m.CurrentLeader,
	}
	for _, p := range gs.CurrentTrick.CardsPlayed {
		trick.CardsPlayed = append(trick.CardsPlayed, TrickCardView{
			Seat:     p.Seat,
			Username: nameOf(p.Seat),
			CardCode: p.Card.Code(),
		})
	}
	state := PlayingState{
		Players: players,
		TrumpInfo: TrumpInfo{
			TrumpSuit:   m.TrumpSuit,
			Declarer:    gs.TrumpDeclarer,
			Partnership: [2]int{gs.TrumpDeclarer, gs.TrumpPartner},
			Opponents:   [2]int{(gs.TrumpDeclarer + 1) % 4, (gs.TrumpDeclarer + 3) % 4},
		},
		CurrentTrick: trick,
		Score: ScoreView{
			TrumpTeamTricks:    gs.TrumpTeamTricks,
			OpponentTeamTricks: gs.OpponentTeamTricks,
			TrumpTeamPoints:    gs.TrumpTeamPoints,
			OpponentTeamPoints: gs.OpponentTeamPoints,
		},
	}
	if seat == domain.NoSeat {
		return state, nil
	}
	hand, err := s.hands.Hand(ctx, m.ID, seat)
	if err != nil {
		return nil, err
	}
	if hand == nil {
		return state, nil
	}
	state.YourSeat = &seat
	state.YourHand = domain.CardCodes(hand.Cards)
	state.YourTurn = seat == gs.CurrentTrick.CurrentPlayer && !gs.GameComplete
	if state.YourTurn {
		state.LegalCards = domain.CardCodes(gs.CurrentTrick.LegalCards(hand))
	}
	return state, nil
}

func (s *Service) completedSnapshot(ctx context.Context, m *domain.NormalMatch, players []PlayerInfo, userID string) (any, error) {
	state := CompletedState{Players: players}
	gs, err := s.tricks.GameState(ctx, m.ID)
	if err != nil {
		return nil, err
	}
	cross, err := s.crosses.Get(ctx, m.ID)
	if err != nil {
		return nil, err
	}
	if gs != nil && gs.GameComplete {
		result, err := domain.CalculateGameResult(
			gs.TrumpTeamPoints, gs.OpponentTeamPoints,
			gs.TrumpTeamTricks, gs.OpponentTeamTricks,
			m.TrumpSuit, gs.IndividualVol())
		if err == nil {
			state.Scoring = &result
		}
	}
	if cross != nil {
		sum := cross.Summary()
		state.CrossScores = &sum
		if cross.RubberComplete {
			var winner domain.Team
			if cross.TrumpTeamCrosses >= cross.TargetCrosses {
				winner = domain.TrumpTeam
			} else {
				winner = domain.OpponentTeam
			}
			state.Winner = &winner
		} else {
			state.CanStartNewGame = userID == m.Host()
		}
	}
	return state, nil
}
