package domain

import (
	"errors"
	"testing"
)

func mustCard(t *testing.T, code string) Card {
	t.Helper()
	c, err := ParseCard(code)
	if err != nil {
		t.Fatalf("ParseCard(%q): %v", code, err)
	}
	return c
}

func TestTrickPlayAndResolve(t *testing.T) {
	trick := NewTrick(1, 0, Hearts)
	plays := []struct {
		seat int
		code string
	}{
		{0, "KS"}, {1, "AS"}, {2, "7H"}, {3, "QD"},
	}
	for _, p := range plays {
		if err := trick.Play(p.seat, mustCard(t, p.code)); err != nil {
			t.Fatalf("Play(%d, %s): %v", p.seat, p.code, err)
		}
	}
	if !trick.IsComplete {
		t.Fatal("trick should be complete after four cards")
	}
	// 7H trumps the spade lead.
	if trick.TrickWinner != 2 {
		t.Fatalf("winner = %d, want 2", trick.TrickWinner)
	}
	if trick.LeadSuit != Spades {
		t.Fatalf("lead suit = %s, want spades", trick.LeadSuit)
	}
	// KS=4 + AS=11 + 7H=0 + QD=3
	if trick.Points() != 18 {
		t.Fatalf("points = %d, want 18", trick.Points())
	}
}

func TestTrickPlayGating(t *testing.T) {
	trick := NewTrick(1, 2, Hearts)
	if err := trick.Play(0, mustCard(t, "AS")); !errors.Is(err, ErrNotYourTurn) {
		t.Fatalf("out-of-turn play: got %v, want ErrNotYourTurn", err)
	}
	for _, p := range []struct {
		seat int
		code string
	}{{2, "AS"}, {3, "KS"}, {0, "QS"}, {1, "10S"}} {
		if err := trick.Play(p.seat, mustCard(t, p.code)); err != nil {
			t.Fatalf("Play(%d, %s): %v", p.seat, p.code, err)
		}
	}
	if err := trick.Play(2, mustCard(t, "9S")); !errors.Is(err, ErrTrickAlreadyComplete) {
		t.Fatalf("play into complete trick: got %v, want ErrTrickAlreadyComplete", err)
	}
}

func TestLegalCardsFollowSuit(t *testing.T) {
	tests := []struct {
		name  string
		trump Suit
		lead  string
		hand  []string
		want  []string
	}{
		{
			// The club queen is trump, not a club: holding it plus a
			// plain spade against a spade lead forces the spade.
			name:  "permanent trump does not follow plain lead",
			trump: Hearts,
			lead:  "KS",
			hand:  []string{"AS", "QC"},
			want:  []string{"AS"},
		},
		{
			name:  "void in lead suit frees the whole hand",
			trump: Hearts,
			lead:  "KS",
			hand:  []string{"AC", "9H"},
			want:  []string{"AC", "9H"},
		},
		{
			name:  "trump lead demands any trump",
			trump: Hearts,
			lead:  "9H",
			hand:  []string{"QC", "AH", "AS", "KD"},
			want:  []string{"QC", "AH"},
		},
		{
			name:  "permanent trump lead is a trump lead",
			trump: Spades,
			lead:  "JH",
			hand:  []string{"7S", "AH", "KD"},
			want:  []string{"7S"},
		},
		{
			name:  "no trump in hand frees the whole hand",
			trump: Hearts,
			lead:  "AH",
			hand:  []string{"AS", "KD", "9C"},
			want:  []string{"AS", "KD", "9C"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			trick := NewTrick(1, 0, tt.trump)
			if err := trick.Play(0, mustCard(t, tt.lead)); err != nil {
				t.Fatalf("lead: %v", err)
			}
			cards, err := ParseCards(tt.hand)
			if err != nil {
				t.Fatalf("ParseCards: %v", err)
			}
			hand := Hand{Seat: 1, Cards: cards}
			got := CardCodes(trick.LegalCards(&hand))
			if len(got) != len(tt.want) {
				t.Fatalf("legal = %v, want %v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Fatalf("legal = %v, want %v", got, tt.want)
				}
			}
		})
	}
}

func TestLegalCardsOpenTrick(t *testing.T) {
	trick := NewTrick(3, 1, Hearts)
	hand := mustHand(t, 1, "AS", "KD", "9C")
	if got := trick.LegalCards(&hand); len(got) != 3 {
		t.Fatalf("open trick legal = %v, want full hand", CardCodes(got))
	}
}

func TestGameTrickStateAccumulation(t *testing.T) {
	g := NewGameTrickState("m1", 1, 0, Hearts)
	if g.TrumpPartner != 2 {
		t.Fatalf("partner = %d, want 2", g.TrumpPartner)
	}

	// Seat 1 leads spades; seat 2 (trump team) trumps in.
	for _, p := range []struct {
		seat int
		code string
	}{{1, "AS"}, {2, "7H"}, {3, "KS"}, {0, "10S"}} {
		if err := g.CurrentTrick.Play(p.seat, mustCard(t, p.code)); err != nil {
			t.Fatalf("Play(%d, %s): %v", p.seat, p.code, err)
		}
	}
	comp, err := g.CompleteTrick()
	if err != nil {
		t.Fatalf("CompleteTrick: %v", err)
	}
	if comp.Winner != 2 || comp.GameComplete {
		t.Fatalf("completion = %+v", comp)
	}
	// AS=11, 7H=0, KS=4, 10S=10 -> 25 to the trump team.
	if g.TrumpTeamPoints != 25 || g.TrumpTeamTricks != 1 {
		t.Fatalf("trump team points/tricks = %d/%d", g.TrumpTeamPoints, g.TrumpTeamTricks)
	}
	if g.CurrentTrick.TrickNumber != 2 || g.CurrentTrick.CurrentPlayer != 2 {
		t.Fatalf("next trick = %+v", g.CurrentTrick)
	}
}

func TestIndividualVolDetection(t *testing.T) {
	g := NewGameTrickState("m1", 0, 0, Hearts)
	for i := 0; i < 8; i++ {
		g.CompletedTricks = append(g.CompletedTricks, TrickState{TrickNumber: i + 1, TrickWinner: 0, IsComplete: true})
	}
	if !g.IndividualVol() {
		t.Fatal("declarer winning all eight tricks should be an individual vol")
	}

	// Split between declarer and partner: team vol, not individual.
	g.CompletedTricks[3].TrickWinner = 2
	if g.IndividualVol() {
		t.Fatal("tricks split across the partnership is not an individual vol")
	}

	// All eight by an opponent seat does not qualify.
	for i := range g.CompletedTricks {
		g.CompletedTricks[i].TrickWinner = 1
	}
	if g.IndividualVol() {
		t.Fatal("opponent sweep is not an individual vol")
	}
}
