package domain

import "errors"

// NoSeat marks an unset seat index.
const NoSeat = -1

var (
	ErrNotYourTurn          = errors.New("not this seat's turn")
	ErrTrickAlreadyComplete = errors.New("trick already complete")
	ErrCardNotInHand        = errors.New("card not in hand")
	ErrIllegalFollowSuit    = errors.New("must follow suit")
	ErrGameAlreadyComplete  = errors.New("game already complete")
)

// CardPlay records one card laid into a trick.
type CardPlay struct {
	Seat int  `json:"seat"`
	Card Card `json:"card"`
}

// TrickState is the live state of a single trick.
type TrickState struct {
	TrickNumber   int        `json:"trick_number"`
	LeadSuit      Suit       `json:"lead_suit,omitempty"`
	CardsPlayed   []CardPlay `json:"cards_played"`
	CurrentPlayer int        `json:"current_player"`
	TrickWinner   int        `json:"trick_winner"`
	IsComplete    bool       `json:"is_complete"`
	TrumpSuit     Suit       `json:"trump_suit"`
}

// NewTrick starts trick n with the given leader.
func NewTrick(n, leader int, trumpSuit Suit) TrickState {
	return TrickState{
		TrickNumber:   n,
		CardsPlayed:   make([]CardPlay, 0, 4),
		CurrentPlayer: leader,
		TrickWinner:   NoSeat,
		TrumpSuit:     trumpSuit,
	}
}

// trumpLed reports whether the trick was opened with a trump card.
func (t *TrickState) trumpLed() bool {
	return len(t.CardsPlayed) > 0 && t.CardsPlayed[0].Card.IsTrump(t.TrumpSuit)
}

// Play appends the card for the given seat. On the fourth card the trick is
// marked complete and the winner resolved. Legality against the hand is the
// caller's job via LegalCards.
func (t *TrickState) Play(seat int, card Card) error {
	if t.IsComplete {
		return ErrTrickAlreadyComplete
	}
	if seat != t.CurrentPlayer {
		return ErrNotYourTurn
	}
	if len(t.CardsPlayed) == 0 {
		t.LeadSuit = card.Suit
	}
	t.CardsPlayed = append(t.CardsPlayed, CardPlay{Seat: seat, Card: card})
	if len(t.CardsPlayed) < 4 {
		t.CurrentPlayer = (seat + 1) % 4
		return nil
	}
	t.IsComplete = true
	t.TrickWinner = t.resolveWinner()
	return nil
}

func (t *TrickState) resolveWinner() int {
	if len(t.CardsPlayed) != 4 {
		panic("resolving a trick without four cards")
	}
	best := t.CardsPlayed[0]
	for _, p := range t.CardsPlayed[1:] {
		if p.Card.Beats(best.Card, t.TrumpSuit, t.LeadSuit) {
			best = p
		}
	}
	return best.Seat
}

// Points sums the counting values of the cards in the trick.
func (t *TrickState) Points() int {
	total := 0
	for _, p := range t.CardsPlayed {
		total += p.Card.PointValue()
	}
	return total
}

// LegalCards returns the subset of the hand playable into this trick.
// Permanent trumps belong to the trump suit for follow-suit purposes: a
// plain lead must be followed with plain cards of the lead suit, a trump
// lead with any trump. A seat with nothing of the led kind may play anything.
func (t *TrickState) LegalCards(hand *Hand) []Card {
	if len(t.CardsPlayed) == 0 {
		return append([]Card(nil), hand.Cards...)
	}
	var legal []Card
	if t.trumpLed() {
		for _, c := range hand.Cards {
			if c.IsTrump(t.TrumpSuit) {
				legal = append(legal, c)
			}
		}
	} else {
		for _, c := range hand.Cards {
			if c.Suit == t.LeadSuit && !c.IsPermanentTrump() {
				legal = append(legal, c)
			}
		}
	}
	if len(legal) == 0 {
		return append([]Card(nil), hand.Cards...)
	}
	return legal
}

// GameTrickState carries the live trick plus the cumulative game bookkeeping
// for one eight-trick game.
type GameTrickState struct {
	MatchID            string       `json:"match_id"`
	CurrentTrick       TrickState   `json:"current_trick"`
	TrumpTeamTricks    int          `json:"trump_team_tricks"`
	OpponentTeamTricks int          `json:"opponent_team_tricks"`
	TrumpTeamPoints    int          `json:"trump_team_points"`
	OpponentTeamPoints int          `json:"opponent_team_points"`
	TrumpDeclarer      int          `json:"trump_declarer"`
	TrumpPartner       int          `json:"trump_partner"`
	GameComplete       bool         `json:"game_complete"`
	Scored             bool         `json:"scored"`
	CompletedTricks    []TrickState `json:"completed_tricks"`
}

// NewGameTrickState opens trick 1 with the given leader and partnership.
func NewGameTrickState(matchID string, leader, declarer int, trumpSuit Suit) *GameTrickState {
	return &GameTrickState{
		MatchID:       matchID,
		CurrentTrick:  NewTrick(1, leader, trumpSuit),
		TrumpDeclarer: declarer,
		TrumpPartner:  (declarer + 2) % 4,
	}
}

// OnTrumpTeam reports whether the seat belongs to the declaring partnership.
func (g *GameTrickState) OnTrumpTeam(seat int) bool {
	return seat == g.TrumpDeclarer || seat == g.TrumpPartner
}

// TrickCompletion summarizes a resolved trick.
type TrickCompletion struct {
	TrickNumber  int  `json:"trick_number"`
	Winner       int  `json:"winner"`
	Points       int  `json:"points"`
	NextLeader   int  `json:"next_leader"`
	GameComplete bool `json:"game_complete"`
}

// CompleteTrick books the finished current trick into the cumulative totals
// and, unless it was the eighth, opens the next trick led by the winner.
func (g *GameTrickState) CompleteTrick() (TrickCompletion, error) {
	if g.GameComplete {
		return TrickCompletion{}, ErrGameAlreadyComplete
	}
	t := g.CurrentTrick
	if !t.IsComplete {
		return TrickCompletion{}, errors.New("current trick is not complete")
	}
	points := t.Points()
	if g.OnTrumpTeam(t.TrickWinner) {
		g.TrumpTeamTricks++
		g.TrumpTeamPoints += points
	} else {
		g.OpponentTeamTricks++
		g.OpponentTeamPoints += points
	}
	g.CompletedTricks = append(g.CompletedTricks, t)

	done := t.TrickNumber >= 8
	comp := TrickCompletion{
		TrickNumber:  t.TrickNumber,
		Winner:       t.TrickWinner,
		Points:       points,
		NextLeader:   t.TrickWinner,
		GameComplete: done,
	}
	if done {
		g.GameComplete = true
	} else {
		g.CurrentTrick = NewTrick(t.TrickNumber+1, t.TrickWinner, t.TrumpSuit)
	}
	return comp, nil
}

// IndividualVol reports whether one member of the trump team personally won
// all eight tricks.
func (g *GameTrickState) IndividualVol() bool {
	if len(g.CompletedTricks) != 8 {
		return false
	}
	first := g.CompletedTricks[0].TrickWinner
	if !g.OnTrumpTeam(first) {
		return false
	}
	for _, t := range g.CompletedTricks[1:] {
		if t.TrickWinner != first {
			return false
		}
	}
	return true
}
