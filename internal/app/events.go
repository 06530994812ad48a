package app

import "sjavs/internal/domain"

// EventKind identifies broadcast events on the match channel.
type EventKind string

const (
	EventPlayerJoined    EventKind = "player_joined"
	EventPlayerLeft      EventKind = "player_left"
	EventGameStarted     EventKind = "game_started"
	EventHandUpdated     EventKind = "hand_updated"
	EventBidMade         EventKind = "bid_made"
	EventPassMade        EventKind = "pass_made"
	EventCardsRedealt    EventKind = "cards_redealt"
	EventBiddingComplete EventKind = "bidding_complete"
	EventCardPlayed      EventKind = "card_played"
	EventTrickCompleted  EventKind = "trick_completed"
	EventGameComplete    EventKind = "game_complete"
	EventGameTerminated  EventKind = "game_terminated"
	EventTeamUpRequest   EventKind = "team_up_request"
	EventTeamUpResponse  EventKind = "team_up_response"
)

// Event is an emitted match event with optional targeted recipients.
type Event struct {
	Kind       EventKind
	Payload    any
	Recipients []string // user IDs; empty means broadcast to the match
}

type PlayerJoinedPayload struct {
	Seat     int    `json:"seat"`
	UserID   string `json:"user_id"`
	Username string `json:"username"`
}

type PlayerLeftPayload struct {
	Seat   int    `json:"seat"`
	UserID string `json:"user_id"`
}

type GameStartedPayload struct {
	DealerPosition int `json:"dealer_position"`
	CurrentBidder  int `json:"current_bidder"`
}

// HandUpdatedPayload is always private to the owning seat.
type HandUpdatedPayload struct {
	Seat          int                `json:"seat"`
	Cards         []string           `json:"cards"`
	TrumpCounts   map[domain.Suit]int `json:"trump_counts"`
	AvailableBids []domain.BidOption `json:"available_bids"`
}

// BidMadePayload omits the suit: it stays hidden until bidding completes.
type BidMadePayload struct {
	Seat       int `json:"seat"`
	Length     int `json:"length"`
	NextBidder int `json:"next_bidder"`
}

type PassMadePayload struct {
	Seat       int  `json:"seat"`
	NextBidder int  `json:"next_bidder"`
	AllPassed  bool `json:"all_passed"`
}

type CardsRedealtPayload struct {
	DealerPosition int `json:"dealer_position"`
	CurrentBidder  int `json:"current_bidder"`
}

type WinningBid struct {
	Length int         `json:"length"`
	Suit   domain.Suit `json:"suit"`
}

type BiddingCompletePayload struct {
	Declarer    int         `json:"declarer"`
	TrumpSuit   domain.Suit `json:"trump_suit"`
	Partnership [2]int      `json:"partnership"`
	WinningBid  WinningBid  `json:"winning_bid"`
	FirstLeader int         `json:"first_leader"`
}

type CardPlayedPayload struct {
	Seat          int    `json:"seat"`
	CardCode      string `json:"card_code"`
	TrickNumber   int    `json:"trick_number"`
	TrickComplete bool   `json:"trick_complete"`
	TrickWinner   *int   `json:"trick_winner,omitempty"`
	TrickPoints   *int   `json:"trick_points,omitempty"`
}

type TrickCompletedPayload struct {
	TrickNumber int `json:"trick_number"`
	Winner      int `json:"winner"`
	Points      int `json:"points"`
	NextLeader  int `json:"next_leader"`
}

type GameCompletePayload struct {
	TrumpTeamPoints    int                 `json:"trump_team_points"`
	OpponentTeamPoints int                 `json:"opponent_team_points"`
	TrumpTeamTricks    int                 `json:"trump_team_tricks"`
	OpponentTeamTricks int                 `json:"opponent_team_tricks"`
	ResultKind         domain.ResultKind   `json:"result_kind"`
	Description        string              `json:"description"`
	IndividualVol      bool                `json:"individual_vol"`
	TrumpTeamDelta     int                 `json:"trump_team_delta"`
	OpponentTeamDelta  int                 `json:"opponent_team_delta"`
	CrossStateAfter    domain.CrossSummary `json:"cross_state_after"`
	CrossWinner        *domain.Team        `json:"cross_winner,omitempty"`
	DoubleVictory      bool                `json:"double_victory"`
	NewGameReady       bool                `json:"new_game_ready"`
}

type GameTerminatedPayload struct {
	Reason string `json:"reason"`
}

// TeamUpPayload relays the social team-up request/response messages
// verbatim between seated players.
type TeamUpPayload struct {
	FromSeat int    `json:"from_seat"`
	ToSeat   int    `json:"to_seat"`
	Message  string `json:"message,omitempty"`
	Accepted *bool  `json:"accepted,omitempty"`
}
