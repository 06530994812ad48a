package domain

import (
	"errors"
	"math/rand"
	"sort"
)

// HandSize is the number of cards dealt to each seat.
const HandSize = 8

// MinBidLength is the smallest announceable trump length.
const MinBidLength = 5

var ErrDealingImpossible = errors.New("no valid deal found within iteration cap")

// NewDeck returns the 32-card Sjavs deck in canonical order.
func NewDeck() []Card {
	deck := make([]Card, 0, 32)
	for _, s := range Suits {
		for _, r := range Ranks {
			deck = append(deck, Card{Suit: s, Rank: r})
		}
	}
	return deck
}

// ShuffleDeck returns a uniformly shuffled copy of the deck.
func ShuffleDeck(deck []Card, rng *rand.Rand) []Card {
	out := make([]Card, len(deck))
	copy(out, deck)
	rng.Shuffle(len(out), func(i, j int) { out[i], out[j] = out[j], out[i] })
	return out
}

// Deal distributes a 32-card deck round-robin, eight cards per seat.
// Each hand is sorted for display.
func Deal(deck []Card) [4]Hand {
	var hands [4]Hand
	for seat := 0; seat < 4; seat++ {
		hands[seat] = Hand{Seat: seat, Cards: make([]Card, 0, HandSize)}
	}
	for i, c := range deck {
		seat := i % 4
		hands[seat].Cards = append(hands[seat].Cards, c)
	}
	for seat := range hands {
		SortHand(hands[seat].Cards)
	}
	return hands
}

var suitOrder = map[Suit]int{Hearts: 0, Diamonds: 1, Clubs: 2, Spades: 3}

// SortHand orders cards by suit, then by descending rank within the suit.
func SortHand(cards []Card) {
	sort.Slice(cards, func(i, j int) bool {
		if suitOrder[cards[i].Suit] != suitOrder[cards[j].Suit] {
			return suitOrder[cards[i].Suit] < suitOrder[cards[j].Suit]
		}
		return cards[i].Rank > cards[j].Rank
	})
}

// HasValidHands reports whether at least one seat can open the bidding,
// i.e. holds five or more trumps for some candidate suit.
func HasValidHands(hands [4]Hand) bool {
	for _, h := range hands {
		for _, n := range h.TrumpCounts() {
			if n >= MinBidLength {
				return true
			}
		}
	}
	return false
}

// maxDealAttempts bounds the redeal loop. A full no-bid table four times in
// a row is already rare; a thousand misses means something else is broken.
const maxDealAttempts = 1000

// DealUntilValid shuffles and deals until some seat can bid.
func DealUntilValid(rng *rand.Rand) ([4]Hand, error) {
	deck := NewDeck()
	for i := 0; i < maxDealAttempts; i++ {
		hands := Deal(ShuffleDeck(deck, rng))
		if HasValidHands(hands) {
			return hands, nil
		}
	}
	return [4]Hand{}, ErrDealingImpossible
}
