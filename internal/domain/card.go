// Package domain holds the pure Sjavs rules: cards, dealing, bidding,
// tricks, scoring and the cross countdown. Nothing here does I/O.
package domain

import (
	"errors"
	"fmt"
)

// Suit identifies one of the four card suits. The string values double as
// the serialized form used in storage and client payloads.
type Suit string

const (
	Hearts   Suit = "hearts"
	Diamonds Suit = "diamonds"
	Clubs    Suit = "clubs"
	Spades   Suit = "spades"
)

// Suits lists all suits in display order.
var Suits = [4]Suit{Hearts, Diamonds, Clubs, Spades}

// Rank values: 7..10 are face value, J=11, Q=12, K=13, A=14.
type Rank int

const (
	RankSeven Rank = 7
	RankEight Rank = 8
	RankNine  Rank = 9
	RankTen   Rank = 10
	RankJack  Rank = 11
	RankQueen Rank = 12
	RankKing  Rank = 13
	RankAce   Rank = 14
)

// Ranks lists the eight ranks in a Sjavs deck.
var Ranks = [8]Rank{RankSeven, RankEight, RankNine, RankTen, RankJack, RankQueen, RankKing, RankAce}

var ErrMalformedCard = errors.New("malformed card code")

// Card is an immutable (suit, rank) pair.
type Card struct {
	Suit Suit `json:"suit"`
	Rank Rank `json:"rank"`
}

var suitLetters = map[Suit]string{Hearts: "H", Diamonds: "D", Clubs: "C", Spades: "S"}

var lettersSuit = map[byte]Suit{'H': Hearts, 'D': Diamonds, 'C': Clubs, 'S': Spades}

// Code returns the compact textual form, e.g. "AS", "QC", "10H".
func (c Card) Code() string {
	var r string
	switch c.Rank {
	case RankAce:
		r = "A"
	case RankKing:
		r = "K"
	case RankQueen:
		r = "Q"
	case RankJack:
		r = "J"
	default:
		r = fmt.Sprintf("%d", int(c.Rank))
	}
	return r + suitLetters[c.Suit]
}

// ParseCard parses a card code. The rank part is one character except "10".
func ParseCard(code string) (Card, error) {
	if len(code) < 2 || len(code) > 3 {
		return Card{}, fmt.Errorf("%w: %q", ErrMalformedCard, code)
	}
	suit, ok := lettersSuit[code[len(code)-1]]
	if !ok {
		return Card{}, fmt.Errorf("%w: %q", ErrMalformedCard, code)
	}
	var rank Rank
	switch code[:len(code)-1] {
	case "A":
		rank = RankAce
	case "K":
		rank = RankKing
	case "Q":
		rank = RankQueen
	case "J":
		rank = RankJack
	case "10":
		rank = RankTen
	case "9":
		rank = RankNine
	case "8":
		rank = RankEight
	case "7":
		rank = RankSeven
	default:
		return Card{}, fmt.Errorf("%w: %q", ErrMalformedCard, code)
	}
	return Card{Suit: suit, Rank: rank}, nil
}

// PointValue returns the card's counting value (deck total is 120).
func (c Card) PointValue() int {
	switch c.Rank {
	case RankAce:
		return 11
	case RankKing:
		return 4
	case RankQueen:
		return 3
	case RankJack:
		return 2
	case RankTen:
		return 10
	default:
		return 0
	}
}

// IsPermanentTrump reports membership in the fixed six-card trump set:
// club queen, spade queen and all four jacks.
func (c Card) IsPermanentTrump() bool {
	if c.Rank == RankJack {
		return true
	}
	return c.Rank == RankQueen && (c.Suit == Clubs || c.Suit == Spades)
}

// IsTrump reports whether the card is trump when trumpSuit is declared.
func (c Card) IsTrump(trumpSuit Suit) bool {
	return c.IsPermanentTrump() || c.Suit == trumpSuit
}

// TrumpRank returns the card's position in the trump hierarchy; higher wins.
// ok is false for non-trump cards.
func (c Card) TrumpRank(trumpSuit Suit) (rank int, ok bool) {
	if c.Rank == RankQueen {
		switch c.Suit {
		case Clubs:
			return 20, true
		case Spades:
			return 19, true
		}
	}
	if c.Rank == RankJack {
		switch c.Suit {
		case Clubs:
			return 18, true
		case Spades:
			return 17, true
		case Hearts:
			return 16, true
		case Diamonds:
			return 15, true
		}
	}
	if c.Suit != trumpSuit {
		return 0, false
	}
	switch c.Rank {
	case RankAce:
		return 14, true
	case RankKing:
		return 13, true
	case RankQueen:
		// Only reachable for hearts/diamonds trump; the black queens
		// were handled above.
		return 12, true
	case RankTen:
		return 11, true
	case RankNine:
		return 10, true
	case RankEight:
		return 9, true
	case RankSeven:
		return 8, true
	}
	return 0, false
}

// Beats reports whether c wins over other given the trick's trump and lead
// suits. A side-suit card that did not follow the lead can never win.
func (c Card) Beats(other Card, trumpSuit, leadSuit Suit) bool {
	cr, cTrump := c.TrumpRank(trumpSuit)
	or, oTrump := other.TrumpRank(trumpSuit)
	switch {
	case cTrump && oTrump:
		return cr > or
	case cTrump:
		return true
	case oTrump:
		return false
	}
	if c.Suit != leadSuit {
		return false
	}
	if other.Suit != leadSuit {
		return true
	}
	return c.Rank > other.Rank
}

// CardCodes converts a card list to codes, preserving order.
func CardCodes(cards []Card) []string {
	codes := make([]string, len(cards))
	for i, c := range cards {
		codes[i] = c.Code()
	}
	return codes
}

// ParseCards parses every code; the first malformed code aborts.
func ParseCards(codes []string) ([]Card, error) {
	cards := make([]Card, len(codes))
	for i, code := range codes {
		c, err := ParseCard(code)
		if err != nil {
			return nil, err
		}
		cards[i] = c
	}
	return cards, nil
}
