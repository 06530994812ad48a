package app

import (
	"context"
	"encoding/json"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"sjavs/internal/domain"
)

// memStore is an in-memory stand-in for every repository port. Values are
// copied on the way in and out to mimic serialization.
type memStore struct {
	matches     map[string]*domain.NormalMatch
	playerGames map[string]string
	pins        map[string]string
	hands       map[string]map[int]*domain.Hand
	states      map[string]*domain.GameTrickState
	history     map[string][]domain.TrickState
	crosses     map[string]*domain.CrossState
	names       map[string]string
	expires     map[string]time.Duration
}

func newMemStore() *memStore {
	return &memStore{
		matches:     map[string]*domain.NormalMatch{},
		playerGames: map[string]string{},
		pins:        map[string]string{},
		hands:       map[string]map[int]*domain.Hand{},
		states:      map[string]*domain.GameTrickState{},
		history:     map[string][]domain.TrickState{},
		crosses:     map[string]*domain.CrossState{},
		names:       map[string]string{},
		expires:     map[string]time.Duration{},
	}
}

func deepCopy[T any](t *testing.T, v *T) *T {
	raw, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("copy marshal: %v", err)
	}
	out := new(T)
	if err := json.Unmarshal(raw, out); err != nil {
		t.Fatalf("copy unmarshal: %v", err)
	}
	return out
}

type fakeRepos struct {
	t *testing.T
	s *memStore
}

func (f fakeRepos) Create(_ context.Context, m *domain.NormalMatch) error {
	f.s.matches[m.ID] = deepCopy(f.t, m)
	f.s.pins[m.Pin] = m.ID
	return nil
}

func (f fakeRepos) Get(_ context.Context, matchID string) (*domain.NormalMatch, error) {
	m, ok := f.s.matches[matchID]
	if !ok {
		return nil, ErrMatchNotFound
	}
	return deepCopy(f.t, m), nil
}

func (f fakeRepos) Update(_ context.Context, m *domain.NormalMatch) error {
	f.s.matches[m.ID] = deepCopy(f.t, m)
	return nil
}

func (f fakeRepos) MatchIDByPin(_ context.Context, pin string) (string, error) {
	return f.s.pins[pin], nil
}

func (f fakeRepos) ReleasePin(_ context.Context, pin string) error {
	delete(f.s.pins, pin)
	return nil
}

func (f fakeRepos) Delete(_ context.Context, matchID string) error {
	delete(f.s.matches, matchID)
	return nil
}

func (f fakeRepos) MatchFor(_ context.Context, userID string) (string, error) {
	return f.s.playerGames[userID], nil
}

func (f fakeRepos) Associate(_ context.Context, userID, matchID string) error {
	f.s.playerGames[userID] = matchID
	return nil
}

func (f fakeRepos) Dissociate(_ context.Context, userID string) error {
	delete(f.s.playerGames, userID)
	return nil
}

func (f fakeRepos) StoreHands(_ context.Context, matchID string, hands [4]domain.Hand) error {
	m := map[int]*domain.Hand{}
	for seat := range hands {
		m[seat] = deepCopy(f.t, &hands[seat])
	}
	f.s.hands[matchID] = m
	return nil
}

func (f fakeRepos) Hand(_ context.Context, matchID string, seat int) (*domain.Hand, error) {
	h, ok := f.s.hands[matchID][seat]
	if !ok {
		return nil, nil
	}
	return deepCopy(f.t, h), nil
}

func (f fakeRepos) UpdateHand(_ context.Context, matchID string, hand domain.Hand) error {
	if f.s.hands[matchID] == nil {
		f.s.hands[matchID] = map[int]*domain.Hand{}
	}
	f.s.hands[matchID][hand.Seat] = deepCopy(f.t, &hand)
	return nil
}

func (f fakeRepos) StoredHandCount(_ context.Context, matchID string) (int, error) {
	return len(f.s.hands[matchID]), nil
}

func (f fakeRepos) ClearHands(_ context.Context, matchID string) error {
	delete(f.s.hands, matchID)
	return nil
}

func (f fakeRepos) StoreGameState(_ context.Context, state *domain.GameTrickState) error {
	f.s.states[state.MatchID] = deepCopy(f.t, state)
	return nil
}

func (f fakeRepos) GameState(_ context.Context, matchID string) (*domain.GameTrickState, error) {
	st, ok := f.s.states[matchID]
	if !ok {
		return nil, nil
	}
	return deepCopy(f.t, st), nil
}

func (f fakeRepos) StoreCompletedTrick(_ context.Context, matchID string, trick domain.TrickState) error {
	f.s.history[matchID] = append(f.s.history[matchID], trick)
	return nil
}

func (f fakeRepos) TrickHistory(_ context.Context, matchID string) ([]domain.TrickState, error) {
	return f.s.history[matchID], nil
}

func (f fakeRepos) Expire(_ context.Context, matchID string, ttl time.Duration) error {
	f.s.expires[matchID] = ttl
	return nil
}

func (f fakeRepos) Clear(_ context.Context, matchID string) error {
	delete(f.s.states, matchID)
	delete(f.s.history, matchID)
	return nil
}

func (f fakeRepos) Store(_ context.Context, state *domain.CrossState) error {
	f.s.crosses[state.MatchID] = deepCopy(f.t, state)
	return nil
}

func (f fakeRepos) GetCross(_ context.Context, matchID string) (*domain.CrossState, error) {
	st, ok := f.s.crosses[matchID]
	if !ok {
		return nil, nil
	}
	return deepCopy(f.t, st), nil
}

func (f fakeRepos) Username(_ context.Context, userID string) (string, error) {
	return f.s.names[userID], nil
}

// crossRepo adapts fakeRepos to the CrossRepository shape (Get collides
// with MatchRepository.Get).
type crossRepo struct{ fakeRepos }

func (c crossRepo) Get(ctx context.Context, matchID string) (*domain.CrossState, error) {
	return c.GetCross(ctx, matchID)
}

func (c crossRepo) Clear(_ context.Context, matchID string) error {
	delete(c.s.crosses, matchID)
	return nil
}

func newTestService(t *testing.T) (*Service, *memStore) {
	t.Helper()
	store := newMemStore()
	repos := fakeRepos{t: t, s: store}
	var ts int64 = 1000
	svc := NewService(Deps{
		Matches: repos,
		Players: repos,
		Hands:   repos,
		Tricks:  repos,
		Crosses: crossRepo{repos},
		Names:   repos,
	}, rand.New(rand.NewSource(42)), func() int64 { ts++; return ts })
	return svc, store
}

var seats = []string{"alice", "bob", "carol", "dave"}

func setupStartedMatch(t *testing.T, svc *Service) string {
	t.Helper()
	ctx := context.Background()
	created, _, err := svc.CreateMatch(ctx, "alice")
	require.NoError(t, err)
	for _, u := range seats[1:] {
		_, _, err := svc.JoinMatch(ctx, u, created.Pin)
		require.NoError(t, err)
	}
	_, _, err = svc.StartGame(ctx, "alice", created.MatchID)
	require.NoError(t, err)
	return created.MatchID
}

func TestCreateJoinStart(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()

	created, events, err := svc.CreateMatch(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, created.Pin, 4)
	require.Empty(t, events)
	require.NotNil(t, store.crosses[created.MatchID])

	// Creator cannot create twice.
	_, _, err = svc.CreateMatch(ctx, "alice")
	require.ErrorIs(t, err, ErrAlreadyInGame)

	joined, events, err := svc.JoinMatch(ctx, "bob", created.Pin)
	require.NoError(t, err)
	require.Equal(t, 1, joined.Seat)
	require.Len(t, events, 1)
	require.Equal(t, EventPlayerJoined, events[0].Kind)

	_, _, err = svc.JoinMatch(ctx, "eve", "9999")
	if store.pins["9999"] == "" {
		require.ErrorIs(t, err, ErrInvalidPin)
	}

	// Start requires four players and the host.
	_, _, err = svc.StartGame(ctx, "alice", created.MatchID)
	require.Error(t, err)

	for _, u := range []string{"carol", "dave"} {
		_, _, err := svc.JoinMatch(ctx, u, created.Pin)
		require.NoError(t, err)
	}
	_, _, err = svc.JoinMatch(ctx, "eve", created.Pin)
	require.ErrorIs(t, err, domain.ErrMatchFull)

	_, _, err = svc.StartGame(ctx, "bob", created.MatchID)
	require.ErrorIs(t, err, domain.ErrNotHost)

	res, events, err := svc.StartGame(ctx, "alice", created.MatchID)
	require.NoError(t, err)
	require.Equal(t, domain.StatusBidding, res.Status)
	require.Equal(t, (res.DealerPosition+1)%4, res.CurrentBidder)

	// game_started broadcast plus one private hand per seat.
	require.Equal(t, EventGameStarted, events[0].Kind)
	private := 0
	for _, ev := range events[1:] {
		if ev.Kind == EventHandUpdated {
			require.Len(t, ev.Recipients, 1)
			private++
		}
	}
	require.Equal(t, 4, private)

	// Stored hands partition the deck.
	seen := map[string]bool{}
	for seat := 0; seat < 4; seat++ {
		h := store.hands[created.MatchID][seat]
		require.NotNil(t, h)
		require.Len(t, h.Cards, domain.HandSize)
		for _, c := range h.Cards {
			require.False(t, seen[c.Code()], "card %s dealt twice", c.Code())
			seen[c.Code()] = true
		}
	}
}

func TestLeaveMatch(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()

	created, _, err := svc.CreateMatch(ctx, "alice")
	require.NoError(t, err)
	_, _, err = svc.JoinMatch(ctx, "bob", created.Pin)
	require.NoError(t, err)

	// Non-host leave while waiting frees the seat.
	res, events, err := svc.LeaveMatch(ctx, "bob")
	require.NoError(t, err)
	require.False(t, res.Cancelled)
	require.Equal(t, EventPlayerLeft, events[0].Kind)
	require.Empty(t, store.playerGames["bob"])

	// Host leave cancels.
	res, events, err = svc.LeaveMatch(ctx, "alice")
	require.NoError(t, err)
	require.True(t, res.Cancelled)
	require.Equal(t, EventGameTerminated, events[0].Kind)
	require.Equal(t, domain.StatusCancelled, store.matches[created.MatchID].Status)
	require.Empty(t, store.pins[created.Pin])

	_, _, err = svc.LeaveMatch(ctx, "alice")
	require.ErrorIs(t, err, ErrNotInGame)
}

func TestBiddingThroughService(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()
	matchID := setupStartedMatch(t, svc)

	m := store.matches[matchID]

	// Seats without a biddable suit pass until the auction reaches one
	// that can open.
	passed := 0
	hand, err := svc.GetHand(ctx, seats[m.CurrentBidder])
	require.NoError(t, err)
	for len(hand.AvailableBids) == 0 {
		require.Less(t, passed, 3, "no seat can open the auction")
		_, _, err = svc.Pass(ctx, seats[m.CurrentBidder], matchID)
		require.NoError(t, err)
		passed++
		m = store.matches[matchID]
		hand, err = svc.GetHand(ctx, seats[m.CurrentBidder])
		require.NoError(t, err)
	}
	bidder := m.CurrentBidder
	require.True(t, hand.CanBid)
	bid := hand.AvailableBids[0]

	// Overbidding the actual holding is rejected before the auction sees it.
	_, _, err = svc.Bid(ctx, seats[bidder], matchID, domain.HandSize+1, bid.Suit)
	require.Error(t, err)

	res, events, err := svc.Bid(ctx, seats[bidder], matchID, bid.Length, bid.Suit)
	require.NoError(t, err)
	require.False(t, res.BiddingComplete)
	require.Equal(t, EventBidMade, events[0].Kind)
	// The suit stays hidden while the auction runs.
	payload := events[0].Payload.(BidMadePayload)
	require.Equal(t, bid.Length, payload.Length)

	// The remaining seats pass; the auction ends on the third pass total.
	var lastEvents []Event
	remaining := 3 - passed
	for i := 0; i < remaining; i++ {
		m = store.matches[matchID]
		passRes, evs, err := svc.Pass(ctx, seats[m.CurrentBidder], matchID)
		require.NoError(t, err)
		lastEvents = evs
		if i == remaining-1 {
			require.True(t, passRes.BiddingComplete)
			require.Equal(t, bid.Suit, passRes.TrumpSuit)
		}
	}
	require.Equal(t, EventBiddingComplete, lastEvents[len(lastEvents)-1].Kind)

	m = store.matches[matchID]
	require.Equal(t, domain.StatusPlaying, m.Status)
	require.Equal(t, bidder, m.TrumpDeclarer)
	require.Equal(t, (m.DealerPosition+1)%4, m.CurrentLeader)
	require.NotNil(t, store.states[matchID])
	require.Equal(t, m.CurrentLeader, store.states[matchID].CurrentTrick.CurrentPlayer)

	// The auction is settled: late bids and passes are rejected as such.
	_, _, err = svc.Bid(ctx, seats[bidder], matchID, domain.HandSize, domain.Clubs)
	require.ErrorIs(t, err, domain.ErrBiddingComplete)
	_, _, err = svc.Pass(ctx, seats[bidder], matchID)
	require.ErrorIs(t, err, domain.ErrBiddingComplete)
}

func TestAllPassRedeal(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()
	matchID := setupStartedMatch(t, svc)

	firstHands := deepCopy(t, store.hands[matchID][0])
	dealer := store.matches[matchID].DealerPosition

	var redealt bool
	for i := 0; i < 4; i++ {
		m := store.matches[matchID]
		res, events, err := svc.Pass(ctx, seats[m.CurrentBidder], matchID)
		require.NoError(t, err)
		if i == 3 {
			require.True(t, res.Redealt)
			kinds := map[EventKind]int{}
			for _, ev := range events {
				kinds[ev.Kind]++
			}
			require.Equal(t, 1, kinds[EventCardsRedealt])
			require.Equal(t, 4, kinds[EventHandUpdated])
			redealt = true
		}
	}
	require.True(t, redealt)

	m := store.matches[matchID]
	require.Equal(t, domain.StatusBidding, m.Status)
	require.Equal(t, dealer, m.DealerPosition, "redeal keeps the dealer")
	require.Empty(t, m.BiddingPasses)
	require.NotEqual(t, domain.CardCodes(firstHands.Cards), domain.CardCodes(store.hands[matchID][0].Cards))

	var hands [4]domain.Hand
	for seat := 0; seat < 4; seat++ {
		hands[seat] = *store.hands[matchID][seat]
	}
	require.True(t, domain.HasValidHands(hands))
}

// putPlayingState wires a hand-crafted playing phase into the store.
func putPlayingState(t *testing.T, store *memStore, matchID string, trump domain.Suit, declarer, leader int, handCards [4][]string) {
	t.Helper()
	m := store.matches[matchID]
	m.Status = domain.StatusPlaying
	m.TrumpSuit = trump
	m.TrumpDeclarer = declarer
	m.CurrentLeader = leader
	m.DealerPosition = (leader + 3) % 4

	hands := map[int]*domain.Hand{}
	for seat, codes := range handCards {
		cards, err := domain.ParseCards(codes)
		require.NoError(t, err)
		hands[seat] = &domain.Hand{Seat: seat, Cards: cards}
	}
	store.hands[matchID] = hands
	store.states[matchID] = domain.NewGameTrickState(matchID, leader, declarer, trump)
}

func setupWaitingMatch(t *testing.T, svc *Service) string {
	t.Helper()
	ctx := context.Background()
	created, _, err := svc.CreateMatch(ctx, "alice")
	require.NoError(t, err)
	for _, u := range seats[1:] {
		_, _, err := svc.JoinMatch(ctx, u, created.Pin)
		require.NoError(t, err)
	}
	return created.MatchID
}

func TestPlayCardFollowSuit(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()
	matchID := setupWaitingMatch(t, svc)

	// Trump hearts, declarer 0, leader 1. Seat 2 holds a spade and the
	// club queen; after a spade lead the queen is not a legal discard.
	putPlayingState(t, store, matchID, domain.Hearts, 0, 1, [4][]string{
		{"AH", "KH", "QH"},
		{"KS", "9S", "8S"},
		{"AS", "QC", "7D"},
		{"10S", "AD", "KD"},
	})

	_, _, err := svc.PlayCard(ctx, "carol", "AS")
	require.ErrorIs(t, err, domain.ErrNotYourTurn)

	_, _, err = svc.PlayCard(ctx, "bob", "AC")
	require.ErrorIs(t, err, domain.ErrCardNotInHand)

	res, events, err := svc.PlayCard(ctx, "bob", "KS")
	require.NoError(t, err)
	require.False(t, res.TrickComplete)
	require.Equal(t, EventCardPlayed, events[0].Kind)

	// Seat 2 must follow spades.
	_, _, err = svc.PlayCard(ctx, "carol", "QC")
	require.ErrorIs(t, err, domain.ErrIllegalFollowSuit)
	_, _, err = svc.PlayCard(ctx, "carol", "7D")
	require.ErrorIs(t, err, domain.ErrIllegalFollowSuit)
	_, _, err = svc.PlayCard(ctx, "carol", "AS")
	require.NoError(t, err)

	_, _, err = svc.PlayCard(ctx, "dave", "10S")
	require.NoError(t, err)

	res, events, err = svc.PlayCard(ctx, "alice", "AH")
	require.NoError(t, err)
	require.True(t, res.TrickComplete)
	require.NotNil(t, res.TrickWinner)
	// The heart trumps the spades.
	require.Equal(t, 0, *res.TrickWinner)
	// AS=11 KS=4 10S=10 AH=11
	require.Equal(t, 36, *res.TrickPoints)

	var sawCompleted bool
	for _, ev := range events {
		if ev.Kind == EventTrickCompleted {
			sawCompleted = true
			p := ev.Payload.(TrickCompletedPayload)
			require.Equal(t, 0, p.Winner)
			require.Equal(t, 0, p.NextLeader)
		}
	}
	require.True(t, sawCompleted)

	// Winner of the trick leads the next one.
	st := store.states[matchID]
	require.Equal(t, 2, st.CurrentTrick.TrickNumber)
	require.Equal(t, 0, st.CurrentTrick.CurrentPlayer)
	require.Equal(t, 36, st.TrumpTeamPoints)
	require.Len(t, store.history[matchID], 1)

	// The played card left the hand.
	require.Len(t, store.hands[matchID][1].Cards, 2)
}

func TestGetTrickState(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()
	matchID := setupWaitingMatch(t, svc)
	putPlayingState(t, store, matchID, domain.Hearts, 0, 1, [4][]string{
		{"AH"}, {"KS"}, {"AS"}, {"10S"},
	})

	// It is seat 1's turn: legal cards only for them.
	res, err := svc.GetTrickState(ctx, "bob")
	require.NoError(t, err)
	require.True(t, res.YourTurn)
	require.Equal(t, []string{"KS"}, res.LegalCards)

	other, err := svc.GetTrickState(ctx, "carol")
	require.NoError(t, err)
	require.False(t, other.YourTurn)
	require.Empty(t, other.LegalCards)
	require.Equal(t, []string{"AS"}, other.YourHand)
}

// finishGame fabricates a completed eight-trick game in the store.
func finishGame(t *testing.T, store *memStore, matchID string, trumpPoints, trumpTricks, winnerSeat int) {
	t.Helper()
	st := store.states[matchID]
	require.NotNil(t, st)
	st.GameComplete = true
	st.TrumpTeamPoints = trumpPoints
	st.OpponentTeamPoints = 120 - trumpPoints
	st.TrumpTeamTricks = trumpTricks
	st.OpponentTeamTricks = 8 - trumpTricks
	st.CompletedTricks = nil
	for i := 0; i < 8; i++ {
		seat := winnerSeat
		if trumpTricks > 0 && trumpTricks < 8 && i >= trumpTricks {
			seat = (winnerSeat + 1) % 4
		}
		st.CompletedTricks = append(st.CompletedTricks, domain.TrickState{TrickNumber: i + 1, TrickWinner: seat, IsComplete: true})
	}
}

func TestCompleteGameScoring(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()
	matchID := setupWaitingMatch(t, svc)
	putPlayingState(t, store, matchID, domain.Clubs, 0, 1, [4][]string{{}, {}, {}, {}})

	// Trump team 78 points with clubs trump: the 61-89 band scores 2,
	// doubled for clubs.
	finishGame(t, store, matchID, 78, 5, 0)

	res, events, err := svc.CompleteGame(ctx, "alice", matchID)
	require.NoError(t, err)
	require.Equal(t, domain.ResultTrumpWin, res.Scoring.Kind)
	require.Equal(t, 4, res.Scoring.TrumpDelta)
	require.Equal(t, 20, res.CrossScores.TrumpTeamRemaining)
	require.Equal(t, 24, res.CrossScores.OpponentTeamRemaining)
	require.Nil(t, res.CrossWinner)
	require.True(t, res.NewGameReady)

	require.Len(t, events, 1)
	payload := events[0].Payload.(GameCompletePayload)
	require.Equal(t, 4, payload.TrumpTeamDelta)
	require.True(t, payload.NewGameReady)

	// The table re-armed for the next deal with a rotated dealer.
	m := store.matches[matchID]
	require.Equal(t, domain.StatusWaiting, m.Status)
	require.Equal(t, domain.Suit(""), m.TrumpSuit)

	// Idempotent: a second call neither re-applies the delta nor emits.
	res2, events2, err := svc.CompleteGame(ctx, "alice", matchID)
	require.NoError(t, err)
	require.Empty(t, events2)
	require.Equal(t, 20, res2.CrossScores.TrumpTeamRemaining)
}

func TestCompleteGameIndividualVolDoubleVictory(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()
	matchID := setupWaitingMatch(t, svc)
	putPlayingState(t, store, matchID, domain.Clubs, 0, 1, [4][]string{{}, {}, {}, {}})
	finishGame(t, store, matchID, 120, 8, 0)

	res, events, err := svc.CompleteGame(ctx, "alice", matchID)
	require.NoError(t, err)
	require.Equal(t, domain.ResultIndividualVol, res.Scoring.Kind)
	// 16 base, doubled for clubs.
	require.Equal(t, 32, res.Scoring.TrumpDelta)
	require.NotNil(t, res.CrossWinner)
	require.Equal(t, domain.TrumpTeam, *res.CrossWinner)
	require.True(t, res.CrossScores.RubberComplete)
	require.False(t, res.NewGameReady)

	payload := events[0].Payload.(GameCompletePayload)
	require.True(t, payload.DoubleVictory)

	// Rubber over: the pin is released but players stay associated so
	// the final state remains loadable; the scoring keys get a TTL.
	require.Empty(t, store.pins[store.matches[matchID].Pin])
	require.Equal(t, matchID, store.playerGames["alice"])
	require.Equal(t, completedStateTTL, store.expires[matchID])
	m := store.matches[matchID]
	require.Equal(t, domain.StatusCompleted, m.Status)
}

func TestRubberEndLifecycle(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()
	matchID := setupWaitingMatch(t, svc)
	putPlayingState(t, store, matchID, domain.Clubs, 0, 1, [4][]string{{}, {}, {}, {}})
	finishGame(t, store, matchID, 120, 8, 0)

	_, _, err := svc.CompleteGame(ctx, "alice", matchID)
	require.NoError(t, err)

	// A reconnecting player still resolves the completed match.
	id, err := svc.MatchIDFor(ctx, "bob")
	require.NoError(t, err)
	require.Equal(t, matchID, id)

	// Leaving the completed match is a clean release, not a cancel.
	res, events, err := svc.LeaveMatch(ctx, "alice")
	require.NoError(t, err)
	require.False(t, res.Cancelled)
	require.Empty(t, events)
	require.Empty(t, store.playerGames["alice"])
	require.Equal(t, domain.StatusCompleted, store.matches[matchID].Status)

	// A lingering association to a finished match does not block a new
	// game; it is released on the way in.
	created, _, err := svc.CreateMatch(ctx, "bob")
	require.NoError(t, err)
	require.Equal(t, created.MatchID, store.playerGames["bob"])

	joined, _, err := svc.JoinMatch(ctx, "carol", created.Pin)
	require.NoError(t, err)
	require.Equal(t, created.MatchID, joined.MatchID)
}

func TestTieCarriesBonus(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()
	matchID := setupWaitingMatch(t, svc)
	putPlayingState(t, store, matchID, domain.Hearts, 0, 1, [4][]string{{}, {}, {}, {}})
	finishGame(t, store, matchID, 60, 4, 0)

	res, _, err := svc.CompleteGame(ctx, "alice", matchID)
	require.NoError(t, err)
	require.Equal(t, domain.ResultTie, res.Scoring.Kind)
	require.Equal(t, 24, res.CrossScores.TrumpTeamRemaining)
	require.Equal(t, 2, res.CrossScores.NextGameBonus)

	// Next game: opponents win with trump team on 50 points; base delta 4
	// plus the banked 2.
	putPlayingState(t, store, matchID, domain.Hearts, 0, 1, [4][]string{{}, {}, {}, {}})
	finishGame(t, store, matchID, 50, 3, 1)
	res, _, err = svc.CompleteGame(ctx, "alice", matchID)
	require.NoError(t, err)
	require.Equal(t, 18, res.CrossScores.OpponentTeamRemaining)
	require.Equal(t, 0, res.CrossScores.NextGameBonus)
}

func TestTeamUpRelay(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	_ = setupWaitingMatch(t, svc)

	events, err := svc.RelayTeamUp(ctx, "alice", false, TeamUpPayload{ToSeat: 2, Message: "partners?"})
	require.NoError(t, err)
	require.Len(t, events, 1)
	require.Equal(t, EventTeamUpRequest, events[0].Kind)
	require.Equal(t, []string{"carol"}, events[0].Recipients)

	_, err = svc.RelayTeamUp(ctx, "alice", true, TeamUpPayload{ToSeat: 9})
	require.ErrorIs(t, err, ErrMalformedRequest)
}
