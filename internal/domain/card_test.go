package domain

import (
	"errors"
	"testing"
)

func TestCardCodeRoundTrip(t *testing.T) {
	for _, s := range Suits {
		for _, r := range Ranks {
			c := Card{Suit: s, Rank: r}
			parsed, err := ParseCard(c.Code())
			if err != nil {
				t.Fatalf("ParseCard(%q): %v", c.Code(), err)
			}
			if parsed != c {
				t.Fatalf("round trip %q: got %+v, want %+v", c.Code(), parsed, c)
			}
		}
	}
}

func TestParseCardMalformed(t *testing.T) {
	for _, code := range []string{"", "A", "1H", "AX", "11H", "QQC", "10", "ah"} {
		if _, err := ParseCard(code); !errors.Is(err, ErrMalformedCard) {
			t.Fatalf("ParseCard(%q): got %v, want ErrMalformedCard", code, err)
		}
	}
}

func TestPointValuesSumTo120(t *testing.T) {
	total := 0
	for _, c := range NewDeck() {
		total += c.PointValue()
	}
	if total != 120 {
		t.Fatalf("deck points = %d, want 120", total)
	}
}

func TestPermanentTrumps(t *testing.T) {
	permanents := map[string]bool{"QC": true, "QS": true, "JC": true, "JS": true, "JH": true, "JD": true}
	count := 0
	for _, c := range NewDeck() {
		if c.IsPermanentTrump() != permanents[c.Code()] {
			t.Fatalf("%s: IsPermanentTrump = %v", c.Code(), c.IsPermanentTrump())
		}
		if c.IsPermanentTrump() {
			count++
		}
	}
	if count != 6 {
		t.Fatalf("permanent trump count = %d, want 6", count)
	}
}

func TestTrumpRankOrdering(t *testing.T) {
	// Hearts trump: the full hierarchy high to low.
	order := []string{"QC", "QS", "JC", "JS", "JH", "JD", "AH", "KH", "QH", "10H", "9H", "8H", "7H"}
	prev := 100
	for _, code := range order {
		c, err := ParseCard(code)
		if err != nil {
			t.Fatalf("ParseCard(%q): %v", code, err)
		}
		r, ok := c.TrumpRank(Hearts)
		if !ok {
			t.Fatalf("%s should be trump with hearts declared", code)
		}
		if r >= prev {
			t.Fatalf("%s: rank %d not below previous %d", code, r, prev)
		}
		prev = r
	}

	// Black queens never rank 12: their permanent rank wins.
	qs, _ := ParseCard("QS")
	if r, _ := qs.TrumpRank(Spades); r != 19 {
		t.Fatalf("QS with spades trump: rank %d, want 19", r)
	}

	// Plain side-suit card is not trump.
	as, _ := ParseCard("AS")
	if _, ok := as.TrumpRank(Hearts); ok {
		t.Fatal("AS should not be trump with hearts declared")
	}
}

func TestBeats(t *testing.T) {
	card := func(code string) Card {
		c, err := ParseCard(code)
		if err != nil {
			t.Fatalf("ParseCard(%q): %v", code, err)
		}
		return c
	}

	tests := []struct {
		name       string
		a, b       string
		trump      Suit
		lead       Suit
		wantABeats bool
	}{
		{"higher trump wins", "QC", "QS", Hearts, Hearts, true},
		{"lower trump loses", "JD", "JH", Hearts, Hearts, false},
		{"trump beats lead ace", "7H", "AS", Hearts, Spades, true},
		{"lead ace loses to trump", "AS", "7H", Hearts, Spades, false},
		{"higher lead suit wins", "AS", "KS", Hearts, Spades, true},
		{"off-suit never wins", "AD", "7S", Hearts, Spades, false},
		{"lead suit beats discard", "8S", "AD", Hearts, Spades, true},
		{"trump seven beats trump-suit ace is false", "7H", "AH", Hearts, Hearts, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := card(tt.a).Beats(card(tt.b), tt.trump, tt.lead); got != tt.wantABeats {
				t.Fatalf("%s beats %s (trump %s, lead %s) = %v, want %v", tt.a, tt.b, tt.trump, tt.lead, got, tt.wantABeats)
			}
		})
	}
}
