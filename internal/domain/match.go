package domain

import "errors"

// MatchStatus is the lifecycle phase of a match.
type MatchStatus string

const (
	StatusWaiting   MatchStatus = "waiting"
	StatusDealing   MatchStatus = "dealing"
	StatusBidding   MatchStatus = "bidding"
	StatusPlaying   MatchStatus = "playing"
	StatusCompleted MatchStatus = "completed"
	StatusCancelled MatchStatus = "cancelled"
)

var (
	ErrWrongPhase             = errors.New("action not allowed in current phase")
	ErrNotHost                = errors.New("only the host may do this")
	ErrMatchFull              = errors.New("match already has four players")
	ErrNotEnoughPlayers       = errors.New("match needs four seated players")
	ErrBidNotBetter           = errors.New("bid does not beat the current highest")
	ErrBidExceedsActualTrumps = errors.New("bid longer than actual trump holding")
	ErrAlreadyPassed          = errors.New("seat has already passed")
	ErrBiddingComplete        = errors.New("bidding already complete")
)

// NormalMatch is the authoritative per-match header state. Seat indices are
// positions in Players; NoSeat marks the optional seat fields as unset.
type NormalMatch struct {
	ID               string      `json:"id"`
	Pin              string      `json:"pin"`
	Status           MatchStatus `json:"status"`
	Players          []string    `json:"players"`
	DealerPosition   int         `json:"dealer_position"`
	CurrentBidder    int         `json:"current_bidder"`
	CurrentLeader    int         `json:"current_leader"`
	TrumpSuit        Suit        `json:"trump_suit,omitempty"`
	TrumpDeclarer    int         `json:"trump_declarer"`
	HighestBidLength int         `json:"highest_bid_length"`
	HighestBidSuit   Suit        `json:"highest_bid_suit,omitempty"`
	HighestBidder    int         `json:"highest_bidder"`
	BiddingPasses    []int       `json:"bidding_passes"`
	NumberOfCrosses  int         `json:"number_of_crosses"`
	CurrentCross     int         `json:"current_cross"`
	CreatedAt        int64       `json:"created_timestamp"`
}

// NewMatch creates a waiting match with the creator seated as host.
func NewMatch(id, pin, hostUserID string, numberOfCrosses int, createdAt int64) *NormalMatch {
	if numberOfCrosses < 1 {
		numberOfCrosses = 1
	}
	return &NormalMatch{
		ID:              id,
		Pin:             pin,
		Status:          StatusWaiting,
		Players:         []string{hostUserID},
		DealerPosition:  NoSeat,
		CurrentBidder:   NoSeat,
		CurrentLeader:   NoSeat,
		TrumpDeclarer:   NoSeat,
		HighestBidder:   NoSeat,
		NumberOfCrosses: numberOfCrosses,
		CreatedAt:       createdAt,
	}
}

// Host is the player in seat zero.
func (m *NormalMatch) Host() string {
	if len(m.Players) == 0 {
		return ""
	}
	return m.Players[0]
}

// SeatOf returns the seat index of a user, or NoSeat.
func (m *NormalMatch) SeatOf(userID string) int {
	for i, p := range m.Players {
		if p == userID {
			return i
		}
	}
	return NoSeat
}

// IsActive reports whether the match still occupies its PIN.
func (m *NormalMatch) IsActive() bool {
	return m.Status != StatusCompleted && m.Status != StatusCancelled
}

// AddPlayer seats a joining user. Only possible while waiting.
func (m *NormalMatch) AddPlayer(userID string) (seat int, err error) {
	if m.Status != StatusWaiting {
		return NoSeat, ErrWrongPhase
	}
	if len(m.Players) >= 4 {
		return NoSeat, ErrMatchFull
	}
	m.Players = append(m.Players, userID)
	return len(m.Players) - 1, nil
}

// RemovePlayer unseats a user, compacting the seat list.
func (m *NormalMatch) RemovePlayer(userID string) (seat int, err error) {
	seat = m.SeatOf(userID)
	if seat == NoSeat {
		return NoSeat, errors.New("user not seated in match")
	}
	m.Players = append(m.Players[:seat], m.Players[seat+1:]...)
	return seat, nil
}

// CanStart reports whether the host could begin the first deal.
func (m *NormalMatch) CanStart() bool {
	return m.Status == StatusWaiting && len(m.Players) == 4
}

// StartDealing moves a full waiting table into the deal, clearing any
// leftover bidding state.
func (m *NormalMatch) StartDealing(dealer int) error {
	if !m.CanStart() {
		if m.Status != StatusWaiting {
			return ErrWrongPhase
		}
		return ErrNotEnoughPlayers
	}
	m.Status = StatusDealing
	m.DealerPosition = dealer
	m.clearBidding()
	return nil
}

// HandsDealt moves Dealing into Bidding. The seat left of the dealer opens.
func (m *NormalMatch) HandsDealt() error {
	if m.Status != StatusDealing {
		return ErrWrongPhase
	}
	m.Status = StatusBidding
	m.CurrentBidder = (m.DealerPosition + 1) % 4
	return nil
}

// HasPassed reports whether the seat passed in the current round.
func (m *NormalMatch) HasPassed(seat int) bool {
	for _, s := range m.BiddingPasses {
		if s == seat {
			return true
		}
	}
	return false
}

// nextActiveBidder finds the next clockwise seat that has not passed.
func (m *NormalMatch) nextActiveBidder(after int) int {
	for i := 1; i <= 4; i++ {
		seat := (after + i) % 4
		if !m.HasPassed(seat) {
			return seat
		}
	}
	return NoSeat
}

// MakeBid records a bid for the current bidder. The caller verifies the
// seat's hand actually holds the announced trump length. Returns true when
// the bid ended the auction.
func (m *NormalMatch) MakeBid(seat, length int, suit Suit) (biddingDone bool, err error) {
	if m.Status == StatusPlaying {
		return false, ErrBiddingComplete
	}
	if m.Status != StatusBidding {
		return false, ErrWrongPhase
	}
	if seat != m.CurrentBidder {
		return false, ErrNotYourTurn
	}
	if length < MinBidLength || length > HandSize {
		return false, ErrBidNotBetter
	}
	if !BidBeats(length, suit, m.HighestBidLength, m.HighestBidSuit) {
		return false, ErrBidNotBetter
	}
	m.HighestBidLength = length
	m.HighestBidSuit = suit
	m.HighestBidder = seat

	next := m.nextActiveBidder(seat)
	// Everyone else already passed: the auction is over.
	if next == seat || next == NoSeat {
		return true, nil
	}
	m.CurrentBidder = next
	return false, nil
}

// PassResult describes what a pass did to the auction.
type PassResult struct {
	AllPassed   bool
	BiddingDone bool
	NextBidder  int
}

// MakePass records a pass for the current bidder. Bidding ends either when
// three seats have passed against a standing bid, or on the safety net of
// the turn wrapping back to the highest bidder. Four passes with no bid
// force a redeal.
func (m *NormalMatch) MakePass(seat int) (PassResult, error) {
	if m.Status == StatusPlaying {
		return PassResult{}, ErrBiddingComplete
	}
	if m.Status != StatusBidding {
		return PassResult{}, ErrWrongPhase
	}
	if seat != m.CurrentBidder {
		return PassResult{}, ErrNotYourTurn
	}
	if m.HasPassed(seat) {
		return PassResult{}, ErrAlreadyPassed
	}
	m.BiddingPasses = append(m.BiddingPasses, seat)

	if len(m.BiddingPasses) == 4 {
		return PassResult{AllPassed: true, NextBidder: NoSeat}, nil
	}
	if m.HighestBidLength >= MinBidLength && len(m.BiddingPasses) >= 3 {
		return PassResult{BiddingDone: true, NextBidder: NoSeat}, nil
	}
	next := m.nextActiveBidder(seat)
	if next == m.HighestBidder && m.HighestBidLength >= MinBidLength {
		return PassResult{BiddingDone: true, NextBidder: NoSeat}, nil
	}
	m.CurrentBidder = next
	return PassResult{NextBidder: next}, nil
}

// FinishBidding moves Bidding into Playing, fixing trump and the first
// leader (left of the dealer).
func (m *NormalMatch) FinishBidding() error {
	if m.Status != StatusBidding {
		return ErrWrongPhase
	}
	if m.HighestBidLength < MinBidLength || m.HighestBidder == NoSeat {
		return ErrBidNotBetter
	}
	m.Status = StatusPlaying
	m.TrumpSuit = m.HighestBidSuit
	m.TrumpDeclarer = m.HighestBidder
	m.CurrentLeader = (m.DealerPosition + 1) % 4
	m.CurrentBidder = NoSeat
	return nil
}

// ResetForRedeal re-enters Dealing after an all-pass round. The dealer is
// preserved.
func (m *NormalMatch) ResetForRedeal() error {
	if m.Status != StatusBidding {
		return ErrWrongPhase
	}
	m.Status = StatusDealing
	m.clearBidding()
	return nil
}

// CompleteGame marks the match finished after the eighth trick is scored.
func (m *NormalMatch) CompleteGame() error {
	if m.Status != StatusPlaying {
		return ErrWrongPhase
	}
	m.Status = StatusCompleted
	return nil
}

// PrepareNextGame re-arms a completed match for the next game of the
// rubber: dealer rotates, per-game state clears, host starts again.
func (m *NormalMatch) PrepareNextGame() error {
	if m.Status != StatusCompleted {
		return ErrWrongPhase
	}
	m.Status = StatusWaiting
	m.DealerPosition = (m.DealerPosition + 1) % 4
	m.CurrentLeader = NoSeat
	m.TrumpSuit = ""
	m.TrumpDeclarer = NoSeat
	m.clearBidding()
	return nil
}

// Cancel ends the match regardless of phase.
func (m *NormalMatch) Cancel() {
	m.Status = StatusCancelled
}

func (m *NormalMatch) clearBidding() {
	m.CurrentBidder = NoSeat
	m.HighestBidLength = 0
	m.HighestBidSuit = ""
	m.HighestBidder = NoSeat
	m.BiddingPasses = nil
}
